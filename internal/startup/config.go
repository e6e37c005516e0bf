package startup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/tsuyukimakoto/casket/internal/database"
	"github.com/tsuyukimakoto/casket/internal/logging"
)

// ErrUnknownCatalog is returned when a catalog name is not configured.
var ErrUnknownCatalog = errors.New("unknown catalog")

// optionsKey is the reserved table holding options; every other top-level
// table is a catalog.
const optionsKey = "options"

// EnvPrefix prefixes environment overrides, e.g. CASKET_OPTIONS_QUALITY.
const EnvPrefix = "CASKET"

// Catalog is one named destination pair.
type Catalog struct {
	Name          string `mapstructure:"-"`
	DataPath      string `mapstructure:"data_path"`
	ThumbnailPath string `mapstructure:"thumbnail_path"`
}

// DatabasePath is where the catalog database lives.
func (c Catalog) DatabasePath() string {
	return filepath.Join(c.ThumbnailPath, database.FileName)
}

// Options are the run settings shared by all catalogs.
type Options struct {
	MaxLongEdge    int
	Quality        int
	Exiftool       bool
	VerifyCopy     bool
	MetricsFile    string
	ConvertCommand []string
	TempDir        string
}

// Config holds all application configuration
type Config struct {
	// Path is the file that was read, empty when none existed.
	Path     string
	Catalogs map[string]Catalog
	Options  Options
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("options.max_long_edge", 256)
	v.SetDefault("options.quality", 8)
	v.SetDefault("options.exiftool", false)
	v.SetDefault("options.verify_copy", true)
	v.SetDefault("options.metrics_file", "")
	v.SetDefault("options.convert_command", []string{})
	v.SetDefault("options.temp_dir", "")
}

// DefaultConfigPath returns casket/catalogs.toml under the user config
// directory ($XDG_CONFIG_HOME or ~/.config on Linux).
func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to find user config dir: %w", err)
	}
	return filepath.Join(configDir, "casket", "catalogs.toml"), nil
}

// LoadConfig reads the TOML configuration at path, or at DefaultConfigPath
// when path is empty. A missing file yields defaults and no catalogs.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return nil, err
		}
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{Catalogs: make(map[string]Catalog)}

	switch _, err := os.Stat(path); {
	case errors.Is(err, os.ErrNotExist):
		logging.Debug("Config file %s not found, no catalogs configured", path)
	case err != nil:
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	default:
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		cfg.Path = path
	}

	if err := loadCatalogs(v, cfg); err != nil {
		return nil, err
	}
	if err := loadOptions(v, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadCatalogs(v *viper.Viper, cfg *Config) error {
	for name, raw := range v.AllSettings() {
		if name == optionsKey {
			continue
		}
		if _, ok := raw.(map[string]any); !ok {
			return fmt.Errorf("config: %q must be a table with data_path and thumbnail_path", name)
		}

		var cat Catalog
		if err := v.UnmarshalKey(name, &cat); err != nil {
			return fmt.Errorf("failed to parse catalog %q: %w", name, err)
		}
		cat.Name = name
		if cat.DataPath == "" || cat.ThumbnailPath == "" {
			return fmt.Errorf("catalog %q: data_path and thumbnail_path are required", name)
		}
		cat.DataPath = filepath.Clean(cat.DataPath)
		cat.ThumbnailPath = filepath.Clean(cat.ThumbnailPath)
		cfg.Catalogs[name] = cat
	}
	return nil
}

// loadOptions reads options key by key so that defaults and environment
// overrides apply to keys missing from the file.
func loadOptions(v *viper.Viper, cfg *Config) error {
	cfg.Options = Options{
		MaxLongEdge:    v.GetInt("options.max_long_edge"),
		Quality:        v.GetInt("options.quality"),
		Exiftool:       v.GetBool("options.exiftool"),
		VerifyCopy:     v.GetBool("options.verify_copy"),
		MetricsFile:    v.GetString("options.metrics_file"),
		ConvertCommand: v.GetStringSlice("options.convert_command"),
		TempDir:        v.GetString("options.temp_dir"),
	}
	return cfg.Options.Validate()
}

// Validate checks option ranges. Quality outside 1-10 is clamped at use.
func (o Options) Validate() error {
	if o.MaxLongEdge <= 0 {
		return fmt.Errorf("options.max_long_edge must be positive, got %d", o.MaxLongEdge)
	}
	return nil
}

// Catalog returns the catalog called name. Names are case-insensitive.
func (c *Config) Catalog(name string) (Catalog, error) {
	cat, ok := c.Catalogs[strings.ToLower(name)]
	if !ok {
		return Catalog{}, fmt.Errorf("%w %q (available: %s)", ErrUnknownCatalog, name, strings.Join(c.CatalogNames(), ", "))
	}
	return cat, nil
}

// CatalogNames returns the configured catalog names in sorted order.
func (c *Config) CatalogNames() []string {
	names := make([]string, 0, len(c.Catalogs))
	for name := range c.Catalogs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
