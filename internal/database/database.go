package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"github.com/tsuyukimakoto/casket/internal/logging"
	"github.com/tsuyukimakoto/casket/internal/metrics"
)

// FileName is the catalog database file created under a thumbnail root.
const FileName = "casket.db"

// Default timeout for single queries. Batch writes are bounded by the
// caller's context only.
const defaultTimeout = 5 * time.Second

// Database is one catalog.
type Database struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// New opens the catalog at dbPath. The parent directory must exist and be
// writable. The schema is not created; call EnsureSchema.
func New(ctx context.Context, dbPath string) (*Database, error) {
	logging.Debug("Database path: %s", dbPath)

	if err := diagnoseDatabasePermissions(dbPath); err != nil {
		logging.Warn("Database permission diagnostics: %v", err)
	}

	// busy_timeout helps prevent "database is locked" errors
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One connection per run
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &Database{db: db, dbPath: dbPath}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS media_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	original_path TEXT NOT NULL UNIQUE CHECK (original_path <> ''),
	data_path TEXT NOT NULL,
	thumbnail_path TEXT,
	datetime_original TEXT,
	datetime_indexed TEXT NOT NULL
		CHECK (length(datetime_indexed) = 10 AND datetime_indexed NOT GLOB '*[^0-9]*'),
	camera_make TEXT,
	camera_model TEXT,
	imported_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_media_items_indexed ON media_items(datetime_indexed);
CREATE INDEX IF NOT EXISTS idx_media_items_camera ON media_items(camera_make, camera_model);

CREATE TABLE IF NOT EXISTS metadata (
	key TEXT PRIMARY KEY,
	value TEXT
);
`

// EnsureSchema creates the catalog tables when missing. It is idempotent.
func (d *Database) EnsureSchema(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	start := time.Now()
	_, err := d.db.ExecContext(ctx, schema)
	recordQuery("ensure_schema", start, err)
	if err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (d *Database) Path() string {
	return d.dbPath
}

// Close closes the database connection.
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.db.Close()
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// diagnoseDatabasePermissions checks database directory and file permissions
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}
	if !dirInfo.IsDir() {
		return fmt.Errorf("database parent %s is not a directory", dir)
	}

	logging.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	if dbInfo, err := os.Stat(dbPath); err == nil {
		logging.Debug("Database file exists: %s (mode: %v, size: %d bytes)", dbPath, dbInfo.Mode(), dbInfo.Size())
		if dbInfo.Mode().Perm()&0o200 == 0 {
			logging.Warn("Database file is read-only! Mode: %v", dbInfo.Mode())
		}
	}

	walPath := dbPath + "-wal"
	if walInfo, err := os.Stat(walPath); err == nil {
		logging.Debug("WAL file exists: %s (mode: %v, size: %d bytes)", walPath, walInfo.Mode(), walInfo.Size())
		if walInfo.Mode().Perm()&0o200 == 0 {
			logging.Warn("WAL file is read-only! Mode: %v - this will cause write failures", walInfo.Mode())
		}
	}

	return nil
}
