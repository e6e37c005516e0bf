package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tsuyukimakoto/casket/internal/logging"
	"github.com/tsuyukimakoto/casket/internal/metrics"
)

const insertRecordSQL = `
	INSERT INTO media_items (
		original_path, data_path, thumbnail_path, datetime_original,
		datetime_indexed, camera_make, camera_model
	) VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(original_path) DO NOTHING
`

const rowColumns = `id, original_path, data_path, thumbnail_path, datetime_original,
	datetime_indexed, camera_make, camera_model, imported_at`

// sqliteTimestamp is the layout of CURRENT_TIMESTAMP.
const sqliteTimestamp = "2006-01-02 15:04:05"

// PersistBatch inserts records in one transaction. A record whose
// original_path is already catalogued is counted as ignored. Any other
// failure is rolled back to the record's savepoint and reported in the
// result; the remaining records still commit. The returned error is set
// only when the transaction itself cannot begin or commit.
func (d *Database) PersistBatch(ctx context.Context, records []Record) (BatchResult, error) {
	var result BatchResult
	if len(records) == 0 {
		return result, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()
	tx, err := d.db.BeginTx(ctx, nil)
	recordQuery("begin_transaction", start, err)
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertRecordSQL)
	if err != nil {
		d.rollback(tx)
		return result, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		inserted, err := insertRecord(ctx, tx, stmt, rec)
		switch {
		case err != nil:
			logging.Warn("catalog: failed to insert %s: %v", rec.OriginalPath, err)
			result.Errored++
			result.Errors = append(result.Errors, RecordError{OriginalPath: rec.OriginalPath, Err: err})
			metrics.CatalogRecordsTotal.WithLabelValues("errored").Inc()
		case inserted:
			result.Inserted++
			metrics.CatalogRecordsTotal.WithLabelValues("inserted").Inc()
		default:
			logging.Debug("catalog: %s already catalogued", rec.OriginalPath)
			result.Ignored++
			metrics.CatalogRecordsTotal.WithLabelValues("ignored").Inc()
		}
	}

	start = time.Now()
	err = tx.Commit()
	recordQuery("commit", start, err)
	if err != nil {
		return BatchResult{}, fmt.Errorf("failed to commit batch: %w", err)
	}

	logging.Debug("catalog: batch committed (inserted=%d, ignored=%d, errored=%d)",
		result.Inserted, result.Ignored, result.Errored)
	return result, nil
}

// insertRecord runs one insert inside its own savepoint and reports whether
// a row was added.
func insertRecord(ctx context.Context, tx *sql.Tx, stmt *sql.Stmt, rec Record) (inserted bool, err error) {
	start := time.Now()
	defer func() { recordQuery("insert_record", start, err) }()

	if _, err := tx.ExecContext(ctx, "SAVEPOINT record"); err != nil {
		return false, fmt.Errorf("savepoint: %w", err)
	}

	res, err := stmt.ExecContext(ctx, recordArgs(rec)...)
	if err != nil {
		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO record"); rbErr != nil {
			return false, errors.Join(err, fmt.Errorf("rollback to savepoint: %w", rbErr))
		}
		if _, relErr := tx.ExecContext(ctx, "RELEASE record"); relErr != nil {
			return false, errors.Join(err, fmt.Errorf("release savepoint: %w", relErr))
		}
		return false, err
	}

	if _, err := tx.ExecContext(ctx, "RELEASE record"); err != nil {
		return false, fmt.Errorf("release savepoint: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func recordArgs(rec Record) []any {
	var original any
	if rec.Metadata.CapturedAt != nil {
		original = rec.Metadata.CapturedAt.Format(time.RFC3339)
	}
	return []any{
		rec.OriginalPath,
		rec.DataPath,
		nullString(rec.ThumbnailPath),
		original,
		rec.IndexedKey,
		nullString(rec.Metadata.CameraMake),
		nullString(rec.Metadata.CameraModel),
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (d *Database) rollback(tx *sql.Tx) {
	start := time.Now()
	err := tx.Rollback()
	recordQuery("rollback", start, err)
	if err != nil {
		logging.Error("failed to rollback transaction: %v", err)
	}
}

// Stats returns row counts and the indexed key range of the catalog.
func (d *Database) Stats(ctx context.Context) (CatalogStats, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	start := time.Now()
	var stats CatalogStats
	var earliest, latest sql.NullString
	err := d.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(thumbnail_path), COUNT(datetime_original),
			MIN(datetime_indexed), MAX(datetime_indexed)
		FROM media_items
	`).Scan(&stats.Total, &stats.WithThumbnail, &stats.WithCaptureTime, &earliest, &latest)
	recordQuery("stats", start, err)
	if err != nil {
		return CatalogStats{}, fmt.Errorf("failed to query catalog stats: %w", err)
	}

	stats.EarliestKey = earliest.String
	stats.LatestKey = latest.String
	return stats, nil
}

// CatalogStats adapts Stats for the metrics collector.
func (d *Database) CatalogStats(ctx context.Context) (metrics.Stats, error) {
	s, err := d.Stats(ctx)
	if err != nil {
		return metrics.Stats{}, err
	}
	return metrics.Stats{Total: s.Total, WithThumbnail: s.WithThumbnail, WithCaptureTime: s.WithCaptureTime}, nil
}

// ListByIndexedPrefix returns rows whose indexed key starts with prefix
// (for example "2023" or "202305"), ordered by key then path. A limit of
// zero or less means no limit.
func (d *Database) ListByIndexedPrefix(ctx context.Context, prefix string, limit int) ([]Row, error) {
	if strings.ContainsFunc(prefix, func(r rune) bool { return r < '0' || r > '9' }) {
		return nil, fmt.Errorf("invalid indexed key prefix %q", prefix)
	}
	if limit <= 0 {
		limit = -1
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	start := time.Now()
	var err error
	defer func() { recordQuery("list_by_prefix", start, err) }()

	rows, err := d.db.QueryContext(ctx, `
		SELECT `+rowColumns+`
		FROM media_items
		WHERE datetime_indexed LIKE ? || '%'
		ORDER BY datetime_indexed, original_path
		LIMIT ?
	`, prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog: %w", err)
	}
	defer rows.Close()

	var items []Row
	for rows.Next() {
		var row Row
		if row, err = scanRow(rows); err != nil {
			return nil, err
		}
		items = append(items, row)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// GetByOriginalPath returns the row for path, or sql.ErrNoRows.
func (d *Database) GetByOriginalPath(ctx context.Context, path string) (*Row, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	start := time.Now()
	row, err := scanRow(d.db.QueryRowContext(ctx, `
		SELECT `+rowColumns+`
		FROM media_items
		WHERE original_path = ?
	`, path))
	if errors.Is(err, sql.ErrNoRows) {
		recordQuery("get_by_original_path", start, nil)
		return nil, sql.ErrNoRows
	}
	recordQuery("get_by_original_path", start, err)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(s scanner) (Row, error) {
	var row Row
	var thumb, original, cameraMake, model sql.NullString
	var importedAt string
	err := s.Scan(&row.ID, &row.OriginalPath, &row.DataPath, &thumb, &original,
		&row.DatetimeIndexed, &cameraMake, &model, &importedAt)
	if err != nil {
		return Row{}, err
	}

	row.ThumbnailPath = thumb.String
	row.CameraMake = cameraMake.String
	row.CameraModel = model.String

	if original.Valid {
		t, err := time.Parse(time.RFC3339, original.String)
		if err != nil {
			return Row{}, fmt.Errorf("invalid datetime_original %q: %w", original.String, err)
		}
		row.DatetimeOriginal = &t
	}
	if t, err := time.Parse(sqliteTimestamp, importedAt); err == nil {
		row.ImportedAt = t
	} else if t, err := time.Parse(time.RFC3339, importedAt); err == nil {
		row.ImportedAt = t
	}
	return row, nil
}
