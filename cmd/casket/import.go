package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/tsuyukimakoto/casket/internal/database"
	"github.com/tsuyukimakoto/casket/internal/dateindex"
	"github.com/tsuyukimakoto/casket/internal/filesystem"
	"github.com/tsuyukimakoto/casket/internal/ingest"
	"github.com/tsuyukimakoto/casket/internal/logging"
	"github.com/tsuyukimakoto/casket/internal/media"
	"github.com/tsuyukimakoto/casket/internal/memory"
	"github.com/tsuyukimakoto/casket/internal/metadata"
	"github.com/tsuyukimakoto/casket/internal/metrics"
	"github.com/tsuyukimakoto/casket/internal/startup"
)

// errAllFailed makes the process exit non-zero when no candidate made it
// into the catalog.
var errAllFailed = errors.New("every file failed to import")

type importOptions struct {
	source      string
	catalog     string
	exiftool    bool
	maxEdge     int
	quality     int
	metricsFile string
}

func newImportCmd(root *rootOptions) *cobra.Command {
	opts := &importOptions{}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy a directory into a catalog and record every file",
		Long: `Import walks the source directory, copies every file to
<data_path>/YYYY/MM/DD/, writes a JPEG thumbnail to
<thumbnail_path>/YYYY/MM/DD/ where one can be made, and records the
file in <thumbnail_path>/casket.db. Files already in the catalog are
copied again but not recorded twice.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := startup.LoadConfig(root.configPath)
			if err != nil {
				return err
			}
			applyOverrides(cmd, opts, &cfg.Options)
			if err := cfg.Options.Validate(); err != nil {
				return err
			}

			cat, err := cfg.Catalog(opts.catalog)
			if err != nil {
				return err
			}

			memory.Configure()

			run := importRun{
				cfg:      cfg,
				cat:      cat,
				source:   opts.source,
				progress: progressFor(os.Stderr),
				vips:     true,
			}
			_, err = run.execute(cmd.Context())
			return err
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.source, "source", "s", "", "directory to import (required)")
	f.StringVarP(&opts.catalog, "catalog", "c", "", "catalog name from the config file (required)")
	f.BoolVar(&opts.exiftool, "exiftool", false, "also read metadata with exiftool")
	f.IntVar(&opts.maxEdge, "max-edge", 0, "thumbnail long edge in pixels")
	f.IntVar(&opts.quality, "quality", 0, "thumbnail JPEG quality, 1-10")
	f.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this file after the run")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("catalog")

	return cmd
}

// applyOverrides copies explicitly set flags over the configured options.
func applyOverrides(cmd *cobra.Command, opts *importOptions, o *startup.Options) {
	flags := cmd.Flags()
	if flags.Changed("exiftool") {
		o.Exiftool = opts.exiftool
	}
	if flags.Changed("max-edge") {
		o.MaxLongEdge = opts.maxEdge
	}
	if flags.Changed("quality") {
		o.Quality = opts.quality
	}
	if flags.Changed("metrics-file") {
		o.MetricsFile = opts.metricsFile
	}
}

// importRun is one invocation of the import command.
type importRun struct {
	cfg      *startup.Config
	cat      startup.Catalog
	source   string
	progress *progress
	vips     bool
}

func (r importRun) execute(ctx context.Context) (*ingest.Summary, error) {
	startup.LogStartup()
	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit)
	filesystem.SetObserver(metrics.NewFilesystemObserver())

	source, err := filepath.Abs(r.source)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source %s: %w", r.source, err)
	}
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"source":    source,
		"data":      r.cat.DataPath,
		"thumbnail": r.cat.ThumbnailPath,
	}))

	startup.LogConfig(r.cfg, r.cat)
	if err := startup.PrepareCatalog(r.cat); err != nil {
		return nil, err
	}

	dbStart := time.Now()
	db, err := database.New(ctx, r.cat.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Warn("Failed to close catalog database: %v", err)
		}
	}()
	if err := db.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to create catalog schema: %w", err)
	}
	startup.LogDatabaseInit(db.Path(), time.Since(dbStart))

	candidates, err := ingest.Scan(source)
	if err != nil {
		return nil, err
	}

	if r.vips {
		media.InitVips()
		defer media.ShutdownVips()
	}
	startup.LogVipsInit(media.IsVipsAvailable())

	opts := r.cfg.Options
	synthOpts := []media.Option{media.WithTempDir(opts.TempDir)}
	conv := media.DetectConverter(opts.ConvertCommand)
	if conv != nil {
		synthOpts = append(synthOpts, media.WithConverter(conv))
	}
	startup.LogConverterInit(conv != nil)

	extractor := metadata.NewExtractor(metadata.Options{UseExiftool: opts.Exiftool})
	defer func() {
		if err := extractor.Close(); err != nil {
			logging.Warn("Failed to stop exiftool: %v", err)
		}
	}()

	in := ingest.New(ingest.Options{
		DataRoot:      r.cat.DataPath,
		ThumbnailRoot: r.cat.ThumbnailPath,
		MaxLongEdge:   opts.MaxLongEdge,
		Quality:       opts.Quality,
		VerifyCopy:    opts.VerifyCopy,
		Retry:         filesystem.DefaultRetryConfig(),
	}, extractor, dateindex.NewResolver(), media.NewSynthesizer(synthOpts...), db)
	if r.progress != nil {
		in.SetObserver(r.progress)
	}

	startup.LogRunStarted(source, len(candidates))
	sum, runErr := in.Run(ctx, candidates)
	if r.progress != nil && len(candidates) > 0 {
		r.progress.finish()
	}

	startup.LogRunComplete(startup.RunReport{
		RunID:     sum.RunID.String(),
		Processed: sum.Processed,
		Errored:   sum.Errored,
		Inserted:  sum.Batch.Inserted,
		Ignored:   sum.Batch.Ignored,
		Failed:    sum.Batch.Errored,
		Duration:  sum.Duration,
	})

	if runErr == nil && sum.Batch.Total() > 0 {
		run := database.LastRun{ID: sum.RunID.String(), At: time.Now(), Source: source}
		if err := db.RecordRun(ctx, run); err != nil {
			logging.Warn("Failed to record run: %v", err)
		}
	}

	metrics.CollectCatalog(ctx, db)
	if err := metrics.WriteTextfile(opts.MetricsFile); err != nil {
		logging.Warn("Failed to write metrics file: %v", err)
	}

	if runErr != nil {
		return sum, runErr
	}
	if sum.Outcome() == "failed" {
		return sum, errAllFailed
	}
	return sum, nil
}
