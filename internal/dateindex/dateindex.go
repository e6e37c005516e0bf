package dateindex

import (
	"os"
	"path/filepath"
	"time"

	"github.com/tsuyukimakoto/casket/internal/filesystem"
	"github.com/tsuyukimakoto/casket/internal/logging"
	"github.com/tsuyukimakoto/casket/internal/metadata"
	"github.com/tsuyukimakoto/casket/internal/metrics"
)

// KeyLayout formats the indexed key (YYYYMMDDHH).
const KeyLayout = "2006010215"

// Source names the time source a Placement was derived from.
type Source string

const (
	SourceCapture  Source = "capture"
	SourceBirth    Source = "birth"
	SourceModified Source = "modified"
	SourceNow      Source = "now"
)

// Placement is where a file lands in the catalog.
type Placement struct {
	// IndexedKey is the ten-digit YYYYMMDDHH sort key.
	IndexedKey string
	// DatePath is the relative YYYY/MM/DD directory.
	DatePath string
	// Time is the instant both values were derived from, in the resolver's zone.
	Time   time.Time
	Source Source
}

// Resolver derives placements from one fallback chain: capture time, then
// file creation time, then file modification time, then the current time.
type Resolver struct {
	Location  *time.Location
	Now       func() time.Time
	BirthTime func(path string) (time.Time, error)
	Stat      func(path string) (os.FileInfo, error)
}

// NewResolver returns a Resolver using the local zone and the real clock
// and filesystem.
func NewResolver() *Resolver {
	return &Resolver{
		Location:  time.Local,
		Now:       time.Now,
		BirthTime: filesystem.BirthTime,
		Stat: func(path string) (os.FileInfo, error) {
			return filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
		},
	}
}

// Resolve always returns a complete Placement.
func (r *Resolver) Resolve(path string, md metadata.CaptureMetadata) Placement {
	t, src := r.pick(path, md)
	metrics.DateIndexSourceTotal.WithLabelValues(string(src)).Inc()
	return At(t.In(r.location()), src)
}

func (r *Resolver) pick(path string, md metadata.CaptureMetadata) (time.Time, Source) {
	if md.CapturedAt != nil {
		return *md.CapturedAt, SourceCapture
	}

	if r.BirthTime != nil {
		bt, err := r.BirthTime(path)
		if err == nil && !bt.IsZero() {
			return bt, SourceBirth
		}
		logging.Debug("dateindex: no creation time for %s: %v", path, err)
	}

	if r.Stat != nil {
		info, err := r.Stat(path)
		if err == nil && !info.ModTime().IsZero() {
			return info.ModTime(), SourceModified
		}
		logging.Debug("dateindex: no modification time for %s: %v", path, err)
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	return now(), SourceNow
}

func (r *Resolver) location() *time.Location {
	if r.Location == nil {
		return time.Local
	}
	return r.Location
}

// At builds the Placement for t as-is.
func At(t time.Time, src Source) Placement {
	return Placement{
		IndexedKey: t.Format(KeyLayout),
		DatePath:   filepath.Join(t.Format("2006"), t.Format("01"), t.Format("02")),
		Time:       t,
		Source:     src,
	}
}
