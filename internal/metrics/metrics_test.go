package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"IngestRunsTotal", IngestRunsTotal},
		{"IngestLastRunTimestamp", IngestLastRunTimestamp},
		{"IngestLastRunDuration", IngestLastRunDuration},
		{"IngestFilesTotal", IngestFilesTotal},
		{"IngestStageErrors", IngestStageErrors},
		{"IngestFileDuration", IngestFileDuration},
		{"MetadataReadsTotal", MetadataReadsTotal},
		{"DateIndexSourceTotal", DateIndexSourceTotal},
		{"ThumbnailOutcomesTotal", ThumbnailOutcomesTotal},
		{"ThumbnailTierAttemptsTotal", ThumbnailTierAttemptsTotal},
		{"ThumbnailDuration", ThumbnailDuration},
		{"ThumbnailConvertDuration", ThumbnailConvertDuration},
		{"DBQueryTotal", DBQueryTotal},
		{"DBQueryDuration", DBQueryDuration},
		{"CatalogRecordsTotal", CatalogRecordsTotal},
		{"CatalogItems", CatalogItems},
		{"FilesystemOperationDuration", FilesystemOperationDuration},
		{"FilesystemRetryAttempts", FilesystemRetryAttempts},
		{"CopyBytesTotal", CopyBytesTotal},
		{"AppInfo", AppInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestInitializeMetricsPrepopulatesLabels(t *testing.T) {
	InitializeMetrics()

	tests := []struct {
		name string
		got  int
		min  int
	}{
		{"ThumbnailOutcomesTotal", testutil.CollectAndCount(ThumbnailOutcomesTotal), 15},
		{"CatalogRecordsTotal", testutil.CollectAndCount(CatalogRecordsTotal), 3},
		{"DateIndexSourceTotal", testutil.CollectAndCount(DateIndexSourceTotal), 4},
		{"IngestRunsTotal", testutil.CollectAndCount(IngestRunsTotal), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got < tt.min {
				t.Errorf("%s has %d series, want at least %d", tt.name, tt.got, tt.min)
			}
		})
	}
}

func TestFilesystemObserver(t *testing.T) {
	obs := NewFilesystemObserver()

	before := testutil.ToFloat64(FilesystemOperationErrors.WithLabelValues("data", "copy"))
	obs.ObserveOperation("data", "copy", 0.01, errors.New("disk full"))
	obs.ObserveOperation("data", "copy", 0.01, nil)
	after := testutil.ToFloat64(FilesystemOperationErrors.WithLabelValues("data", "copy"))
	if after-before != 1 {
		t.Errorf("error counter delta = %v, want 1", after-before)
	}

	bytesBefore := testutil.ToFloat64(CopyBytesTotal)
	obs.ObserveCopiedBytes(2048)
	if got := testutil.ToFloat64(CopyBytesTotal) - bytesBefore; got != 2048 {
		t.Errorf("CopyBytesTotal delta = %v, want 2048", got)
	}

	staleBefore := testutil.ToFloat64(FilesystemStaleErrors.WithLabelValues("open", "source"))
	obs.ObserveStaleError("open", "source")
	obs.ObserveRetryAttempt("open", "source")
	obs.ObserveRetrySuccess("open", "source")
	obs.ObserveRetryFailure("open", "source")
	obs.ObserveRetryDuration("open", "source", 0.2)
	if got := testutil.ToFloat64(FilesystemStaleErrors.WithLabelValues("open", "source")) - staleBefore; got != 1 {
		t.Errorf("stale error delta = %v, want 1", got)
	}
}
