package startup

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
	if info.OS == "" || info.Arch == "" {
		t.Error("Expected OS and Arch to be set")
	}
	if !strings.HasPrefix(info.String(), "casket "+info.Version) {
		t.Errorf("String() = %q", info.String())
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalogs.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[Photos]
data_path = "/archive/photos/"
thumbnail_path = "/thumbs/photos"

[family]
data_path = "/archive/family"
thumbnail_path = "/thumbs/family"

[options]
quality = 6
convert_command = ["magick", "{input}", "{output}"]
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if cfg.Path != path {
		t.Errorf("Path = %q, want %q", cfg.Path, path)
	}
	if got := cfg.CatalogNames(); !slices.Equal(got, []string{"family", "photos"}) {
		t.Errorf("CatalogNames() = %v", got)
	}

	cat, err := cfg.Catalog("PHOTOS")
	if err != nil {
		t.Fatalf("Catalog(PHOTOS) failed: %v", err)
	}
	if cat.Name != "photos" || cat.DataPath != "/archive/photos" || cat.ThumbnailPath != "/thumbs/photos" {
		t.Errorf("catalog = %+v", cat)
	}
	if cat.DatabasePath() != filepath.Join("/thumbs/photos", "casket.db") {
		t.Errorf("DatabasePath() = %q", cat.DatabasePath())
	}

	want := Options{
		MaxLongEdge:    256,
		Quality:        6,
		VerifyCopy:     true,
		ConvertCommand: []string{"magick", "{input}", "{output}"},
	}
	got := cfg.Options
	if got.MaxLongEdge != want.MaxLongEdge || got.Quality != want.Quality || got.VerifyCopy != want.VerifyCopy ||
		got.Exiftool || got.MetricsFile != "" || got.TempDir != "" || !slices.Equal(got.ConvertCommand, want.ConvertCommand) {
		t.Errorf("Options = %+v, want %+v", got, want)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if cfg.Path != "" || len(cfg.Catalogs) != 0 {
		t.Errorf("config = %+v, want no catalogs", cfg)
	}
	if cfg.Options.MaxLongEdge != 256 || cfg.Options.Quality != 8 || !cfg.Options.VerifyCopy {
		t.Errorf("defaults not applied: %+v", cfg.Options)
	}

	_, err = cfg.Catalog("photos")
	if !errors.Is(err, ErrUnknownCatalog) {
		t.Errorf("Catalog() error = %v, want ErrUnknownCatalog", err)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("CASKET_OPTIONS_QUALITY", "3")
	t.Setenv("CASKET_OPTIONS_EXIFTOOL", "true")

	cfg, err := LoadConfig(writeConfig(t, "[options]\nquality = 9\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Options.Quality != 3 {
		t.Errorf("Quality = %d, want 3 from environment", cfg.Options.Quality)
	}
	if !cfg.Options.Exiftool {
		t.Error("Exiftool = false, want true from environment")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"invalid toml", "[photos\ndata_path = 1", "failed to read config"},
		{"catalog not a table", "photos = \"/somewhere\"\n", "must be a table"},
		{"missing thumbnail path", "[photos]\ndata_path = \"/a\"\n", "thumbnail_path are required"},
		{"non-positive edge", "[options]\nmax_long_edge = 0\n", "max_long_edge must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestUnknownCatalogListsAvailable(t *testing.T) {
	cfg := &Config{Catalogs: map[string]Catalog{"b": {}, "a": {}}}

	_, err := cfg.Catalog("c")
	if !errors.Is(err, ErrUnknownCatalog) {
		t.Fatalf("error = %v, want ErrUnknownCatalog", err)
	}
	if !strings.Contains(err.Error(), "a, b") {
		t.Errorf("error %q should list available catalogs", err)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)

	path, err := DefaultConfigPath()
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "catalogs.toml" || filepath.Base(filepath.Dir(path)) != "casket" {
		t.Errorf("DefaultConfigPath() = %q", path)
	}
}

func TestPrepareCatalog(t *testing.T) {
	root := t.TempDir()
	cat := Catalog{
		Name:          "photos",
		DataPath:      filepath.Join(root, "data", "nested"),
		ThumbnailPath: filepath.Join(root, "thumbs"),
	}

	if err := PrepareCatalog(cat); err != nil {
		t.Fatalf("PrepareCatalog() failed: %v", err)
	}
	for _, dir := range []string{cat.DataPath, cat.ThumbnailPath} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("%s not created: %v", dir, err)
		}
	}
	if _, err := os.Stat(filepath.Join(cat.ThumbnailPath, ".write-test")); !os.IsNotExist(err) {
		t.Error("write test file left behind")
	}
}

func TestPrepareCatalogFileInTheWay(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "data")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	err := PrepareCatalog(Catalog{DataPath: file, ThumbnailPath: filepath.Join(root, "thumbs")})
	if err == nil {
		t.Fatal("expected error when data path is a file")
	}
}
