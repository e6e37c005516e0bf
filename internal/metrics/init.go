package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every series appears in the exported textfile even when its value is zero.
// Call this once at startup.
func InitializeMetrics() {
	for _, outcome := range []string{"success", "partial", "failed"} {
		IngestRunsTotal.WithLabelValues(outcome)
	}

	families := []string{"raster", "raw", "heif", "video", "unknown"}
	for _, f := range families {
		IngestFilesTotal.WithLabelValues(f, "processed")
		IngestFilesTotal.WithLabelValues(f, "error")
		for _, o := range []string{"created", "none", "error"} {
			ThumbnailOutcomesTotal.WithLabelValues(f, o)
		}
		ThumbnailDuration.WithLabelValues(f)
	}

	for _, stage := range []string{"path", "mkdir", "copy", "thumbnail"} {
		IngestStageErrors.WithLabelValues(stage)
	}

	for _, reader := range []string{"exif", "mp4", "exiftool"} {
		for _, result := range []string{"found", "empty", "error"} {
			MetadataReadsTotal.WithLabelValues(reader, result)
		}
	}

	for _, src := range []string{"capture", "birth", "modified", "now"} {
		DateIndexSourceTotal.WithLabelValues(src)
	}

	for _, result := range []string{"success", "failure"} {
		ThumbnailConvertDuration.WithLabelValues(result)
	}

	for _, op := range []string{"ensure_schema", "begin_transaction", "insert_record",
		"commit", "rollback", "stats", "list_by_prefix", "get_by_original_path",
		"get_metadata", "set_metadata"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, r := range []string{"inserted", "ignored", "errored"} {
		CatalogRecordsTotal.WithLabelValues(r)
	}

	volumes := []string{"source", "data", "thumbnail", "unknown"}
	for _, vol := range volumes {
		for _, op := range []string{"stat", "open", "copy", "mkdir"} {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
		}
	}
}
