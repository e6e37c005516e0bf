// Command catalogctl inspects a casket catalog database.
//
// It supports the following operations:
//   - stats: Show row counts, the indexed key range and the last import run
//   - list: List catalogued files whose indexed key starts with a prefix
//
// Usage:
//
//	catalogctl [flags] <command> <catalog> [prefix]
//
// Commands:
//
//	stats   Print the number of catalogued files, how many have a
//	        thumbnail and a capture time, the earliest and latest
//	        indexed keys, and the last import run.
//
//	list    Print catalogued files ordered by indexed key. The optional
//	        prefix narrows the listing to a year ("2023"), a month
//	        ("202305"), a day or an hour.
//
// Flags:
//
//	--config   catalogs file (default $XDG_CONFIG_HOME/casket/catalogs.toml)
//	--limit    maximum number of rows for list (default 0, no limit)
//	--json     print JSON instead of text
//
// catalogctl never creates a catalog. It exits 1 when the catalog has not
// been imported into yet.
package main
