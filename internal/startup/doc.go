// Package startup handles configuration loading, catalog directory setup and
// lifecycle logging for the casket commands.
//
// # Configuration
//
// Configuration is a TOML file read with viper from
// $XDG_CONFIG_HOME/casket/catalogs.toml (see [DefaultConfigPath]) unless a
// path is given. Every top-level table except [options] names a catalog:
//
//	[photos]
//	data_path = "/Volumes/Archive/photos"
//	thumbnail_path = "/Users/me/Pictures/casket"
//
//	[options]
//	max_long_edge = 256
//	quality = 8
//	exiftool = false
//	verify_copy = true
//	metrics_file = ""
//	convert_command = []
//	temp_dir = ""
//
// Option keys may be overridden from the environment with the CASKET_ prefix,
// for example CASKET_OPTIONS_QUALITY=6. Catalog names are case-insensitive.
// A missing file is not an error; it simply configures no catalogs.
//
// # Build Information
//
// Version information is injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/tsuyukimakoto/casket/internal/startup.Version=1.0.0"
package startup
