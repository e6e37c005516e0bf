// Package metrics provides Prometheus instrumentation for casket.
//
// All metrics are registered with the default registry through promauto and
// are prefixed with "casket_". casket is a batch tool without a network
// listener, so metrics are exported by writing the registry to a file in the
// text exposition format (see [WriteTextfile]) that a node exporter textfile
// collector can pick up after each run.
//
// # Metric Categories
//
// ## Ingest
//   - IngestRunsTotal: runs by outcome (success, partial, failed)
//   - IngestLastRunTimestamp / IngestLastRunDuration
//   - IngestFilesTotal: files by format family and result
//   - IngestStageErrors: per-file errors by pipeline stage
//   - IngestFileDuration: per-file pipeline latency
//
// ## Metadata and date index
//   - MetadataReadsTotal: reader invocations by reader and result
//   - DateIndexSourceTotal: which time source produced the indexed key
//
// ## Thumbnails
//   - ThumbnailOutcomesTotal: created / none / error by family
//   - ThumbnailTierAttemptsTotal: fallback tier attempts by family, tier and result
//   - ThumbnailDuration: synthesis latency by family
//   - ThumbnailConvertDuration: external conversion utility runs
//
// ## Database
//   - DBQueryTotal / DBQueryDuration: by operation
//   - CatalogRecordsTotal: inserted / ignored / errored records
//   - CatalogItems: row counts after the last run (see [CollectCatalog])
//
// ## Filesystem
//   - FilesystemOperationDuration / FilesystemOperationErrors: by volume
//     (source, data, thumbnail) and operation
//   - FilesystemRetry*: stale file handle retry behaviour
//   - CopyBytesTotal: bytes copied into the archive tree
//
// # Usage
//
//	metrics.InitializeMetrics()
//	filesystem.SetObserver(metrics.NewFilesystemObserver())
//	...
//	if err := metrics.WriteTextfile("/var/lib/node_exporter/casket.prom"); err != nil {
//	    logging.Warn("%v", err)
//	}
package metrics
