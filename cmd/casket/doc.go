// Command casket imports photos and videos from a directory (typically a
// memory card) into a named catalog.
//
// Each file is copied to <data_path>/YYYY/MM/DD/<name>. Where possible a
// JPEG thumbnail is written to <thumbnail_path>/YYYY/MM/DD/<stem>.jpg, and
// every copied file is recorded in the SQLite database
// <thumbnail_path>/casket.db. The date is the capture time from EXIF or the
// video container, falling back to the file creation time, then the
// modification time, then the time of the import.
//
// Usage:
//
//	casket import --source /Volumes/CARD/DCIM --catalog family
//	casket catalogs
//	casket version
//
// Catalogs are configured in $XDG_CONFIG_HOME/casket/catalogs.toml (see
// package startup for the format), or the file named by --config.
//
// # Exit Status
//
// casket exits 1 when the configuration cannot be read, the catalog is
// unknown, the source cannot be scanned, the database cannot be written,
// or every file failed to import. Individual file failures are logged and
// do not change the exit status.
//
// # Environment
//
//	LOG_LEVEL        debug, info, warn or error (overridden by --log-level)
//	CASKET_OPTIONS_* overrides for the [options] table, e.g. CASKET_OPTIONS_QUALITY
package main
