// Package database is the SQLite catalog of ingested media.
//
// A catalog holds one media_items row per original source path. Inserting a
// path that is already catalogued is a no-op, so re-running an import over
// the same files never creates duplicates. Every batch is written in a
// single transaction with a savepoint per record: a record that fails is
// rolled back alone and the rest of the batch still commits.
//
// A small key/value table keeps catalog bookkeeping such as the last run.
package database
