// Package logging provides a simple leveled logging interface for casket.
//
// It supports the following log levels:
//   - DEBUG: per-file and per-tier diagnostics (failed decode tiers, skipped readers)
//   - INFO: run lifecycle and summaries
//   - WARN: recoverable per-file failures
//   - ERROR: failures that abort a run
//   - FATAL: errors that terminate the process
//
// The initial level comes from the DEBUG or LOG_LEVEL environment variables
// and can be overridden with SetLevel (the --log-level flag).
package logging
