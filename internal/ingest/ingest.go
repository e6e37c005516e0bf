package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tsuyukimakoto/casket/internal/database"
	"github.com/tsuyukimakoto/casket/internal/dateindex"
	"github.com/tsuyukimakoto/casket/internal/filesystem"
	"github.com/tsuyukimakoto/casket/internal/logging"
	"github.com/tsuyukimakoto/casket/internal/mediatypes"
	"github.com/tsuyukimakoto/casket/internal/metadata"
	"github.com/tsuyukimakoto/casket/internal/metrics"
)

// Extractor reads capture metadata. It never fails.
type Extractor interface {
	Extract(path string) metadata.CaptureMetadata
}

// Resolver places a file on the date index.
type Resolver interface {
	Resolve(path string, md metadata.CaptureMetadata) dateindex.Placement
}

// Thumbnailer writes a thumbnail at destBase plus an extension. An empty
// path with a nil error means none could be made.
type Thumbnailer interface {
	Synthesize(ctx context.Context, src, destBase string, maxLongEdge, quality int) (string, error)
}

// Store persists a run's records.
type Store interface {
	PersistBatch(ctx context.Context, records []database.Record) (database.BatchResult, error)
}

// Observer is told about every finished candidate. err is nil on success.
type Observer interface {
	FileDone(done, total int, path string, err error)
}

// Options configures a run.
type Options struct {
	DataRoot      string
	ThumbnailRoot string
	MaxLongEdge   int
	Quality       int
	VerifyCopy    bool
	Retry         filesystem.RetryConfig
}

// Summary describes a finished run.
type Summary struct {
	RunID      uuid.UUID
	Candidates int
	Processed  int
	Errored    int
	Thumbnails int
	Errors     []*FileError
	Batch      database.BatchResult
	Duration   time.Duration
}

// Outcome classifies the run for metrics and exit status.
func (s *Summary) Outcome() string {
	switch {
	case s.Candidates > 0 && s.Processed == 0:
		return "failed"
	case s.Errored > 0 || s.Batch.Partial():
		return "partial"
	default:
		return "success"
	}
}

// Ingestor copies candidates into a catalog one file at a time and
// records them in a single batch at the end.
type Ingestor struct {
	opts      Options
	extractor Extractor
	resolver  Resolver
	thumbs    Thumbnailer
	store     Store
	observer  Observer
}

// New creates an Ingestor.
func New(opts Options, extractor Extractor, resolver Resolver, thumbs Thumbnailer, store Store) *Ingestor {
	return &Ingestor{
		opts:      opts,
		extractor: extractor,
		resolver:  resolver,
		thumbs:    thumbs,
		store:     store,
	}
}

// SetObserver sets the progress observer.
func (in *Ingestor) SetObserver(o Observer) {
	in.observer = o
}

// Run processes candidates in order. Per-file failures are collected in the
// summary. The returned error is set when the catalog cannot be written or
// ctx is cancelled; the summary is still returned.
func (in *Ingestor) Run(ctx context.Context, candidates []string) (*Summary, error) {
	start := time.Now()
	sum := &Summary{RunID: uuid.New(), Candidates: len(candidates)}
	defer func() { in.finish(sum, start) }()

	logging.Debug("ingest: run %s with %d candidates", sum.RunID, len(candidates))

	records := make([]database.Record, 0, len(candidates))
	for i, path := range candidates {
		if err := ctx.Err(); err != nil {
			return sum, fmt.Errorf("ingest interrupted after %d files: %w", i, err)
		}

		fileStart := time.Now()
		rec, err := in.processFile(ctx, path)
		metrics.IngestFileDuration.Observe(time.Since(fileStart).Seconds())
		family := string(mediatypes.FamilyOfPath(path))

		if err != nil {
			var fe *FileError
			if !errors.As(err, &fe) {
				fe = &FileError{Path: path, Stage: StageCopy, Err: err}
			}
			logging.Warn("Skipping %s: %v", path, fe)
			sum.Errored++
			sum.Errors = append(sum.Errors, fe)
			metrics.IngestFilesTotal.WithLabelValues(family, "error").Inc()
			metrics.IngestStageErrors.WithLabelValues(fe.Stage).Inc()
		} else {
			sum.Processed++
			if rec.ThumbnailPath != "" {
				sum.Thumbnails++
			}
			records = append(records, rec)
			metrics.IngestFilesTotal.WithLabelValues(family, "processed").Inc()
		}

		if in.observer != nil {
			in.observer.FileDone(i+1, len(candidates), path, err)
		}
	}

	if len(records) == 0 {
		logging.Debug("ingest: nothing to persist")
		return sum, nil
	}

	batch, err := in.store.PersistBatch(ctx, records)
	if err != nil {
		return sum, fmt.Errorf("failed to persist catalog records: %w", err)
	}
	sum.Batch = batch
	return sum, nil
}

func (in *Ingestor) finish(sum *Summary, start time.Time) {
	sum.Duration = time.Since(start)
	metrics.IngestRunsTotal.WithLabelValues(sum.Outcome()).Inc()
	metrics.IngestLastRunTimestamp.Set(float64(time.Now().Unix()))
	metrics.IngestLastRunDuration.Set(sum.Duration.Seconds())
}

// processFile takes one candidate from extraction to thumbnail.
// contentType labels path for the debug log.
func contentType(path string) string {
	ext := mediatypes.Ext(path)
	if !mediatypes.IsMediaFile(ext) {
		return "unrecognized"
	}
	return mediatypes.GetMimeType(ext)
}

func (in *Ingestor) processFile(ctx context.Context, path string) (database.Record, error) {
	name := filepath.Base(path)
	if path == "" || name == "." || name == string(filepath.Separator) {
		return database.Record{}, &FileError{Path: path, Stage: StagePath, Err: ErrNoFileName}
	}

	md := in.extractor.Extract(path)
	placement := in.resolver.Resolve(path, md)
	logging.Debug("ingest: %s [%s] -> %s (%s)", path, contentType(path), placement.IndexedKey, placement.Source)

	dataDir := filepath.Join(in.opts.DataRoot, placement.DatePath)
	thumbDir := filepath.Join(in.opts.ThumbnailRoot, placement.DatePath)
	for _, dir := range []string{dataDir, thumbDir} {
		if err := filesystem.MkdirAll(dir, 0o755); err != nil {
			return database.Record{}, &FileError{Path: path, Stage: StageMkdir, Err: err}
		}
	}

	dataPath := filepath.Join(dataDir, name)
	if _, err := filesystem.CopyFile(path, dataPath, filesystem.CopyOptions{
		Verify: in.opts.VerifyCopy,
		Retry:  in.opts.Retry,
	}); err != nil {
		return database.Record{}, &FileError{Path: path, Stage: StageCopy, Err: err}
	}

	// The archive copy exists at this point, so a thumbnail failure only
	// costs the thumbnail.
	thumbBase := filepath.Join(thumbDir, strings.TrimSuffix(name, filepath.Ext(name)))
	thumb, err := in.thumbs.Synthesize(ctx, path, thumbBase, in.opts.MaxLongEdge, in.opts.Quality)
	if err != nil {
		logging.Warn("Thumbnail for %s failed: %v", path, err)
		metrics.IngestStageErrors.WithLabelValues("thumbnail").Inc()
		thumb = ""
	}

	return database.Record{
		OriginalPath:  path,
		DataPath:      dataPath,
		ThumbnailPath: thumb,
		Metadata:      md,
		IndexedKey:    placement.IndexedKey,
	}, nil
}
