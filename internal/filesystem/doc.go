/*
Package filesystem provides the file operations the ingest pipeline relies on:
retrying Stat/Open for network mounts, verified archive copies, and platform
file creation times.

# Retry

StatWithRetry and OpenWithRetry wrap os.Stat and os.Open. Stale file handle
errors (ESTALE), common when importing from NFS or SMB shares, are retried with
exponential backoff. All other errors fail immediately.

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

Defaults: 3 retries, 50ms initial backoff, 500ms cap.

# Copy

CopyFile writes to a temporary file in the destination directory, optionally
re-reads it and compares BLAKE2b-256 digests, then renames it into place.
The destination is replaced if it exists and is never left half written.

	res, err := filesystem.CopyFile(src, dst, filesystem.CopyOptions{
	    Verify: true,
	    Retry:  filesystem.DefaultRetryConfig(),
	})

# Creation time

BirthTime returns the file creation time using statx on Linux, the
Birthtimespec stat field on macOS and CreationTime on Windows. It returns
ErrBirthTimeUnsupported when the platform or filesystem does not record it.

# Metrics

Operations are reported to an [Observer] labelled with a volume name resolved
by a [VolumeResolver] ("source", "data", "thumbnail"). The metrics package
provides the Prometheus-backed implementation; without one nothing is recorded.
*/
package filesystem
