package filesystem

import (
	"bytes"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/blake2b"
)

// ErrChecksumMismatch is returned by CopyFile when the written copy does not
// hash to the same digest as the bytes read from the source.
var ErrChecksumMismatch = errors.New("checksum mismatch after copy")

// CopyOptions tunes CopyFile.
type CopyOptions struct {
	// Verify re-reads the written file and compares BLAKE2b-256 digests
	// before it is renamed into place.
	Verify bool
	Retry  RetryConfig
}

// CopyResult describes a completed copy.
type CopyResult struct {
	Bytes  int64
	Digest []byte
}

// CopyFile copies src to dst through a temporary file in dst's directory
// and renames it into place. An existing dst is replaced. On any failure
// the temporary file is removed and dst is left untouched.
func CopyFile(src, dst string, opts CopyOptions) (CopyResult, error) {
	start := time.Now()
	volume := opts.Retry.resolveVolume(dst)

	res, err := copyFile(src, dst, opts)
	observe().ObserveOperation(volume, "copy", time.Since(start).Seconds(), err)
	if err == nil {
		observe().ObserveCopiedBytes(res.Bytes)
	}
	return res, err
}

func copyFile(src, dst string, opts CopyOptions) (CopyResult, error) {
	in, err := OpenWithRetry(src, opts.Retry)
	if err != nil {
		return CopyResult{}, fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return CopyResult{}, fmt.Errorf("stat source: %w", err)
	}

	dir, name := filepath.Split(dst)
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return CopyResult{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	renamed := false
	defer func() {
		_ = tmp.Close()
		if !renamed {
			_ = os.Remove(tmpName)
		}
	}()

	h := newHash()
	n, err := io.Copy(io.MultiWriter(tmp, h), in)
	if err != nil {
		return CopyResult{}, fmt.Errorf("copy %s: %w", src, err)
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		return CopyResult{}, fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return CopyResult{}, fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return CopyResult{}, fmt.Errorf("close temp file: %w", err)
	}

	digest := h.Sum(nil)
	if opts.Verify {
		written, err := HashFile(tmpName)
		if err != nil {
			return CopyResult{}, fmt.Errorf("verify copy: %w", err)
		}
		if !bytes.Equal(written, digest) {
			return CopyResult{}, fmt.Errorf("%s: %w", dst, ErrChecksumMismatch)
		}
	}

	// Keep the source modification time so archive copies sort like the originals.
	_ = os.Chtimes(tmpName, info.ModTime(), info.ModTime())

	if err := os.Rename(tmpName, dst); err != nil {
		return CopyResult{}, fmt.Errorf("rename into place: %w", err)
	}
	renamed = true

	return CopyResult{Bytes: n, Digest: digest}, nil
}

// HashFile returns the BLAKE2b-256 digest of the file at path.
func HashFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := newHash()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

func newHash() hash.Hash {
	// New256 only fails for keys longer than 64 bytes.
	h, _ := blake2b.New256(nil)
	return h
}
