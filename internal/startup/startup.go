package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/tsuyukimakoto/casket/internal/logging"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// String formats the build information on one line.
func (b BuildInfo) String() string {
	return fmt.Sprintf("casket %s (commit %s, built %s, %s %s/%s)",
		b.Version, b.Commit, b.BuildTime, b.GoVersion, b.OS, b.Arch)
}

// LogStartup prints the banner and system information at debug level.
func LogStartup() {
	if !logging.IsDebugEnabled() {
		return
	}
	printBanner()
	logSystemInfo()
}

// LogConfig logs the resolved configuration for a run.
func LogConfig(cfg *Config, cat Catalog) {
	section("CONFIGURATION")
	if cfg.Path != "" {
		logging.Info("  Config file:      %s", cfg.Path)
	} else {
		logging.Info("  Config file:      (none)")
	}
	logging.Info("  Catalog:          %s", cat.Name)
	logging.Info("  Data path:        %s", cat.DataPath)
	logging.Info("  Thumbnail path:   %s", cat.ThumbnailPath)
	logging.Info("  Max long edge:    %d", cfg.Options.MaxLongEdge)
	logging.Info("  Quality:          %d", cfg.Options.Quality)
	logging.Info("  Verify copies:    %v", cfg.Options.VerifyCopy)
	logging.Info("  Exiftool:         %s", enabledString(cfg.Options.Exiftool))
	if cfg.Options.MetricsFile != "" {
		logging.Info("  Metrics file:     %s", cfg.Options.MetricsFile)
	}
	logging.Info("  LOG_LEVEL:        %s", logging.GetLevel())
}

// PrepareCatalog creates the catalog roots when missing and checks that
// the thumbnail root, which also holds the database, is writable.
func PrepareCatalog(cat Catalog) error {
	section("DIRECTORY SETUP")

	if err := ensureDirectory(cat.DataPath, "data"); err != nil {
		return fmt.Errorf("data directory error: %w", err)
	}
	if err := ensureDirectory(cat.ThumbnailPath, "thumbnail"); err != nil {
		return fmt.Errorf("thumbnail directory error: %w", err)
	}

	logging.Debug("  Testing thumbnail directory write access...")
	if err := testWriteAccess(cat.ThumbnailPath); err != nil {
		return fmt.Errorf("thumbnail directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Catalog directories ready")
	return nil
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(path string, duration time.Duration) {
	section("DATABASE INITIALIZATION")
	logging.Info("  [OK] Catalog %s opened in %v", path, duration)
}

// LogConverterInit logs whether HEIF/DNG conversion is available.
func LogConverterInit(available bool) {
	if !available {
		logging.Warn("  No conversion utility found; HEIF files will have no thumbnail")
		return
	}
	logging.Info("  [OK] Conversion utility available")
}

// LogVipsInit logs whether the libvips tiers are active.
func LogVipsInit(available bool) {
	if !available {
		logging.Info("  libvips unavailable; RAW files use embedded previews")
		return
	}
	logging.Debug("  [OK] libvips started")
}

// RunReport is what LogRunComplete prints.
type RunReport struct {
	RunID     string
	Processed int
	Errored   int
	Inserted  int
	Ignored   int
	Failed    int
	Duration  time.Duration
}

// LogRunStarted logs the beginning of an ingest run.
func LogRunStarted(source string, candidates int) {
	section("IMPORT")
	logging.Info("  Source:           %s", source)
	logging.Info("  Candidates:       %d", candidates)
}

// LogRunComplete logs the end-of-run summary.
func LogRunComplete(r RunReport) {
	section("SUMMARY")
	if r.RunID != "" {
		logging.Info("  Run ID:           %s", r.RunID)
	}
	logging.Info("  Files:            %d processed, %d errored", r.Processed, r.Errored)
	logging.Info("  Records:          %d inserted, %d ignored, %d errored", r.Inserted, r.Ignored, r.Failed)
	logging.Info("  Duration:         %v", r.Duration.Round(time.Millisecond))
}

func section(title string) {
	logging.Info("------------------------------------------------------------")
	logging.Info("%s", title)
	logging.Info("------------------------------------------------------------")
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func printBanner() {
	banner := `
------------------------------------------------------------
                   _        _
   ___ __ _ ___   | | _____| |_
  / __/ _' / __|  | |/ / _ \ __|
 | (_| (_| \__ \  |   <  __/ |_
  \___\__,_|___/  |_|\_\___|\__|

------------------------------------------------------------`
	fmt.Fprintln(os.Stderr, banner)
	logging.Debug("  Version:    %s", Version)
	logging.Debug("  Commit:     %s", Commit)
	logging.Debug("  Build Time: %s", BuildTime)
	logging.Debug("  Started:    %s", time.Now().Format(time.RFC1123))
}

func logSystemInfo() {
	logging.Debug("  Go version:      %s", runtime.Version())
	logging.Debug("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Debug("  CPUs available:  %d", runtime.NumCPU())

	if wd, err := os.Getwd(); err == nil {
		logging.Debug("  Working dir:     %s", wd)
	}
	if hostname, err := os.Hostname(); err == nil {
		logging.Debug("  Hostname:        %s", hostname)
	}
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Info("  Created %s directory: %s", name, path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
		// Don't return error since write access was confirmed
	}
	return nil
}
