package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingest run metrics
var (
	IngestRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casket_ingest_runs_total",
			Help: "Total number of ingest runs by outcome",
		},
		[]string{"outcome"}, // "success", "partial", "failed"
	)

	IngestLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "casket_ingest_last_run_timestamp",
			Help: "Unix timestamp of the last completed ingest run",
		},
	)

	IngestLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "casket_ingest_last_run_duration_seconds",
			Help: "Duration of the last ingest run in seconds",
		},
	)

	IngestFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casket_ingest_files_total",
			Help: "Files handled by the ingestor by format family and result",
		},
		[]string{"family", "result"}, // result: "processed", "error"
	)

	IngestStageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casket_ingest_stage_errors_total",
			Help: "Per-file errors by pipeline stage",
		},
		[]string{"stage"}, // "path", "mkdir", "copy", "thumbnail"
	)

	IngestFileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "casket_ingest_file_duration_seconds",
			Help:    "Time spent on one file from extraction to thumbnail",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

// Metadata and date index metrics
var (
	MetadataReadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casket_metadata_reads_total",
			Help: "Metadata reader invocations by reader and result",
		},
		[]string{"reader", "result"}, // reader: "exif", "mp4", "exiftool"; result: "found", "empty", "error"
	)

	DateIndexSourceTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casket_dateindex_source_total",
			Help: "Which time source produced the indexed key",
		},
		[]string{"source"}, // "capture", "birth", "modified", "now"
	)
)

// Thumbnail metrics
var (
	ThumbnailOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casket_thumbnail_outcomes_total",
			Help: "Thumbnail synthesis outcomes by format family",
		},
		[]string{"family", "outcome"}, // outcome: "created", "none", "error"
	)

	ThumbnailTierAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casket_thumbnail_tier_attempts_total",
			Help: "Fallback tier attempts by family, tier and result",
		},
		[]string{"family", "tier", "result"}, // result: "success", "failure"
	)

	ThumbnailDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "casket_thumbnail_duration_seconds",
			Help:    "Thumbnail synthesis duration by family",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"family"},
	)

	ThumbnailConvertDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "casket_thumbnail_convert_duration_seconds",
			Help:    "Duration of external conversion utility runs",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"result"},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casket_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "casket_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	CatalogRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casket_catalog_records_total",
			Help: "Records handed to the catalog by result",
		},
		[]string{"result"}, // "inserted", "ignored", "errored"
	)

	CatalogItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "casket_catalog_items",
			Help: "Rows in the catalog after the last run",
		},
		[]string{"kind"}, // "total", "with_thumbnail", "with_capture_time"
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "casket_filesystem_operation_duration_seconds",
			Help:    "Duration of filesystem operations by volume",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casket_filesystem_operation_errors_total",
			Help: "Failed filesystem operations by volume",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casket_filesystem_retry_attempts_total",
			Help: "Retries caused by stale file handles",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casket_filesystem_retry_success_total",
			Help: "Operations that succeeded after at least one retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casket_filesystem_retry_failures_total",
			Help: "Operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "casket_filesystem_retry_duration_seconds",
			Help:    "Total duration of retried operations including backoff",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casket_filesystem_stale_errors_total",
			Help: "ESTALE errors observed",
		},
		[]string{"operation", "volume"},
	)

	CopyBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "casket_copy_bytes_total",
			Help: "Bytes copied into the archive tree",
		},
	)
)

// Application info
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "casket_app_info",
			Help: "Build information, value is always 1",
		},
		[]string{"version", "commit", "go_version"},
	)
)
