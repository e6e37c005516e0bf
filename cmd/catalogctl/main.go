package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/tsuyukimakoto/casket/internal/database"
	"github.com/tsuyukimakoto/casket/internal/startup"
)

const (
	// Default timeout for database operations
	defaultTimeout = 30 * time.Second
)

// errNoCatalogDatabase is returned when a configured catalog has no database yet.
var errNoCatalogDatabase = errors.New("catalog has no database yet; run casket import first")

type options struct {
	configPath string
	limit      int
	asJSON     bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one catalogctl invocation and returns the process exit code.
func run(argv []string, stdout, stderr io.Writer) int {
	opts := &options{}
	flags := pflag.NewFlagSet("catalogctl", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&opts.configPath, "config", "", "catalogs file")
	flags.IntVar(&opts.limit, "limit", 0, "maximum rows for list")
	flags.BoolVar(&opts.asJSON, "json", false, "print JSON")
	flags.Usage = func() { printUsage(stderr) }
	if err := flags.Parse(argv); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 1
	}

	args := flags.Args()
	if len(args) < 2 {
		printUsage(stderr)
		return 1
	}
	command, catalogName := args[0], args[1]
	switch command {
	case "stats", "list":
	default:
		// Sanitize command input using allowlist to break taint chain
		sanitized := sanitizeCommand(command)
		fmt.Fprintf(stderr, "Unknown command: %s\n", sanitized) //nolint:gosec // G705 - input is sanitized via allowlist in sanitizeCommand; only [a-zA-Z0-9_-] characters pass through
		printUsage(stderr)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openCatalog(ctx, opts.configPath, catalogName)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	if command == "stats" {
		err = showStats(ctx, db, stdout, opts.asJSON)
	} else {
		prefix := ""
		if len(args) > 2 {
			prefix = args[2]
		}
		err = listRecords(ctx, db, stdout, prefix, opts.limit, opts.asJSON)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// openCatalog resolves name through the config file and opens its database.
// A catalog that has never been imported into is an error, not an empty
// database.
func openCatalog(ctx context.Context, configPath, name string) (*database.Database, error) {
	cfg, err := startup.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	cat, err := cfg.Catalog(name)
	if err != nil {
		return nil, err
	}

	dbPath := cat.DatabasePath()
	if _, err := os.Stat(dbPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", dbPath, errNoCatalogDatabase)
		}
		return nil, err
	}
	return database.New(ctx, dbPath)
}

// sanitizeCommand returns a safe representation of a command string for display.
// It uses an allowlist approach, replacing any character that is not alphanumeric,
// a hyphen, or an underscore with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "casket catalog inspection")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: catalogctl [flags] <command> <catalog> [prefix]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  stats   - Show catalog counts and the last import")
	fmt.Fprintln(w, "  list    - List files, optionally by indexed key prefix (YYYY[MM[DD[HH]]])")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  --config FILE  - catalogs file (default $XDG_CONFIG_HOME/casket/catalogs.toml)")
	fmt.Fprintln(w, "  --limit N      - maximum rows for list (default: no limit)")
	fmt.Fprintln(w, "  --json         - print JSON")
}

type statsReport struct {
	database.CatalogStats
	LastRun *database.LastRun `json:"lastRun,omitempty"`
}

func showStats(ctx context.Context, db *database.Database, w io.Writer, asJSON bool) error {
	// Add timeout to context for database operations
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	stats, err := db.Stats(ctx)
	if err != nil {
		return err
	}
	last, err := db.GetLastRun(ctx)
	if err != nil {
		return fmt.Errorf("failed to read last run: %w", err)
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(statsReport{CatalogStats: stats, LastRun: last})
	}

	fmt.Fprintf(w, "Files:          %d\n", stats.Total)
	fmt.Fprintf(w, "With thumbnail: %d\n", stats.WithThumbnail)
	fmt.Fprintf(w, "With capture:   %d\n", stats.WithCaptureTime)
	if stats.Total > 0 {
		fmt.Fprintf(w, "Indexed range:  %s - %s\n", stats.EarliestKey, stats.LatestKey)
	}
	if last != nil {
		fmt.Fprintf(w, "Last import:    %s from %s (run %s)\n", last.At.Local().Format(time.DateTime), last.Source, last.ID)
	} else {
		fmt.Fprintln(w, "Last import:    never")
	}
	return nil
}

func listRecords(ctx context.Context, db *database.Database, w io.Writer, prefix string, limit int, asJSON bool) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := db.ListByIndexedPrefix(ctx, prefix, limit)
	if err != nil {
		return err
	}

	if asJSON {
		if rows == nil {
			rows = []database.Row{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEXED\tCAMERA\tTHUMB\tDATA")
	for _, row := range rows {
		camera := strings.TrimSpace(row.CameraMake + " " + row.CameraModel)
		if camera == "" {
			camera = "-"
		}
		thumb := "no"
		if row.ThumbnailPath != "" {
			thumb = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", row.DatetimeIndexed, camera, thumb, row.DataPath)
	}
	return tw.Flush()
}
