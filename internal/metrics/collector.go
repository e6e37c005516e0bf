package metrics

import (
	"context"
	"fmt"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tsuyukimakoto/casket/internal/logging"
)

// StatsProvider reports catalog row counts.
type StatsProvider interface {
	CatalogStats(ctx context.Context) (Stats, error)
}

// Stats holds the catalog row counts exported as gauges.
type Stats struct {
	Total           int
	WithThumbnail   int
	WithCaptureTime int
}

// CollectCatalog queries the provider once and updates the catalog gauges.
// A failing provider leaves the gauges untouched.
func CollectCatalog(ctx context.Context, provider StatsProvider) {
	if provider == nil {
		return
	}

	stats, err := provider.CatalogStats(ctx)
	if err != nil {
		logging.Warn("Failed to collect catalog stats: %v", err)
		return
	}

	CatalogItems.WithLabelValues("total").Set(float64(stats.Total))
	CatalogItems.WithLabelValues("with_thumbnail").Set(float64(stats.WithThumbnail))
	CatalogItems.WithLabelValues("with_capture_time").Set(float64(stats.WithCaptureTime))

	logging.Debug("Catalog stats collected: total=%d, thumbnails=%d, captured=%d",
		stats.Total, stats.WithThumbnail, stats.WithCaptureTime)
}

// SetAppInfo records build information.
func SetAppInfo(version, commit string) {
	AppInfo.WithLabelValues(version, commit, runtime.Version()).Set(1)
}

// WriteTextfile writes every registered metric to path in the Prometheus
// text exposition format, for pickup by a node exporter textfile collector.
func WriteTextfile(path string) error {
	return writeTextfile(path, prometheus.DefaultGatherer)
}

func writeTextfile(path string, g prometheus.Gatherer) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
