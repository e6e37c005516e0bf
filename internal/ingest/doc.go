// Package ingest moves files from a source tree into a catalog.
//
// Each candidate is handled start to finish before the next one begins:
// capture metadata is extracted, the file is placed on the date index,
// copied to data_root/YYYY/MM/DD/<name>, and a thumbnail is synthesized at
// thumbnail_root/YYYY/MM/DD/<stem>.jpg. Files that cannot be copied are
// recorded as per-file errors and skipped. All copied files are written to
// the catalog in a single batch once the list is exhausted.
package ingest
