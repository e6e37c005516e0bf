package database

import (
	"fmt"
	"time"

	"github.com/tsuyukimakoto/casket/internal/metadata"
)

// Record is one successfully copied file waiting to be catalogued.
type Record struct {
	OriginalPath  string
	DataPath      string
	ThumbnailPath string // empty when no thumbnail was produced
	Metadata      metadata.CaptureMetadata
	IndexedKey    string
}

// Row is a catalogued item as stored.
type Row struct {
	ID               int64      `json:"id"`
	OriginalPath     string     `json:"originalPath"`
	DataPath         string     `json:"dataPath"`
	ThumbnailPath    string     `json:"thumbnailPath,omitempty"`
	DatetimeOriginal *time.Time `json:"datetimeOriginal,omitempty"`
	DatetimeIndexed  string     `json:"datetimeIndexed"`
	CameraMake       string     `json:"cameraMake,omitempty"`
	CameraModel      string     `json:"cameraModel,omitempty"`
	ImportedAt       time.Time  `json:"importedAt"`
}

// RecordError is one record that could not be inserted. The rest of its
// batch still commits.
type RecordError struct {
	OriginalPath string
	Err          error
}

func (e RecordError) Error() string {
	return fmt.Sprintf("%s: %v", e.OriginalPath, e.Err)
}

func (e RecordError) Unwrap() error { return e.Err }

// BatchResult counts the outcome of every record in a PersistBatch call.
type BatchResult struct {
	Inserted int
	Ignored  int
	Errored  int
	Errors   []RecordError
}

// Partial reports whether some records failed while the batch committed.
func (r BatchResult) Partial() bool {
	return r.Errored > 0
}

// Total is the number of records handled.
func (r BatchResult) Total() int {
	return r.Inserted + r.Ignored + r.Errored
}

// CatalogStats summarizes the catalog. The keys are empty when it has no rows.
type CatalogStats struct {
	Total           int    `json:"total"`
	WithThumbnail   int    `json:"withThumbnail"`
	WithCaptureTime int    `json:"withCaptureTime"`
	EarliestKey     string `json:"earliestKey,omitempty"`
	LatestKey       string `json:"latestKey,omitempty"`
}

// LastRun describes the most recent ingest run recorded in the catalog.
type LastRun struct {
	ID     string    `json:"id"`
	At     time.Time `json:"at"`
	Source string    `json:"source"`
}
