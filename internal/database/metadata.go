package database

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const (
	keyLastRunID     = "last_run_id"
	keyLastRunAt     = "last_run_at"
	keyLastRunSource = "last_run_source"
)

// GetMetadata retrieves a metadata value by key.
// Returns sql.ErrNoRows if the key doesn't exist.
func (d *Database) GetMetadata(ctx context.Context, key string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	start := time.Now()
	var value sql.NullString
	err := d.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		recordQuery("get_metadata", start, nil)
		return "", sql.ErrNoRows
	}
	recordQuery("get_metadata", start, err)
	if err != nil {
		return "", err
	}
	return value.String, nil
}

// SetMetadata sets a metadata key-value pair.
func (d *Database) SetMetadata(ctx context.Context, key, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	start := time.Now()
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	recordQuery("set_metadata", start, err)
	return err
}

// RecordRun stores the identity of the ingest run that last wrote to the
// catalog.
func (d *Database) RecordRun(ctx context.Context, run LastRun) error {
	for _, kv := range [][2]string{
		{keyLastRunID, run.ID},
		{keyLastRunAt, run.At.UTC().Format(time.RFC3339)},
		{keyLastRunSource, run.Source},
	} {
		if err := d.SetMetadata(ctx, kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}

// GetLastRun returns the last recorded run. A catalog that has never been
// written to returns nil without error.
func (d *Database) GetLastRun(ctx context.Context) (*LastRun, error) {
	id, err := d.GetMetadata(ctx, keyLastRunID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	run := &LastRun{ID: id}
	if at, err := d.GetMetadata(ctx, keyLastRunAt); err == nil && at != "" {
		if run.At, err = time.Parse(time.RFC3339, at); err != nil {
			return nil, err
		}
	}
	if src, err := d.GetMetadata(ctx, keyLastRunSource); err == nil {
		run.Source = src
	}
	return run, nil
}
