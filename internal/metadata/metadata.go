package metadata

import (
	"strings"
	"sync"
	"time"

	"github.com/tsuyukimakoto/casket/internal/logging"
	"github.com/tsuyukimakoto/casket/internal/metrics"
)

// CaptureMetadata is what could be learned from a file's embedded metadata.
// Every field is optional; a nil CapturedAt or an empty string means unset.
type CaptureMetadata struct {
	CapturedAt  *time.Time
	CameraMake  string
	CameraModel string
}

// IsEmpty reports whether no field is set.
func (m CaptureMetadata) IsEmpty() bool {
	return m.CapturedAt == nil && m.CameraMake == "" && m.CameraModel == ""
}

// complete reports whether every field is set.
func (m CaptureMetadata) complete() bool {
	return m.CapturedAt != nil && m.CameraMake != "" && m.CameraModel != ""
}

// fill copies fields set in other into unset fields of m.
func (m CaptureMetadata) fill(other CaptureMetadata) CaptureMetadata {
	if m.CapturedAt == nil {
		m.CapturedAt = other.CapturedAt
	}
	if m.CameraMake == "" {
		m.CameraMake = other.CameraMake
	}
	if m.CameraModel == "" {
		m.CameraModel = other.CameraModel
	}
	return m
}

// Reader reads one kind of embedded metadata. Read may return a partially
// filled result together with an error; the extractor keeps what was read.
type Reader interface {
	Name() string
	Accepts(path string) bool
	Read(path string, loc *time.Location) (CaptureMetadata, error)
}

// Options configures an Extractor.
type Options struct {
	// Location used to interpret naive timestamps. Defaults to time.Local.
	Location *time.Location
	// UseExiftool adds a long-running exiftool process as the last reader.
	UseExiftool bool
}

// Extractor runs its readers in order until the result is complete. The
// fallback readers run only when none of the others found anything.
type Extractor struct {
	readers   []Reader
	fallbacks []Reader
	loc       *time.Location

	closeOnce sync.Once
	closers   []func() error
}

// NewExtractor returns an Extractor with the EXIF and ISO-BMFF readers, plus
// exiftool when requested.
func NewExtractor(opts Options) *Extractor {
	e := &Extractor{loc: opts.Location}
	if e.loc == nil {
		e.loc = time.Local
	}
	e.readers = []Reader{exifReader{}, mp4Reader{}}
	if opts.UseExiftool {
		et := newExiftoolReader()
		e.fallbacks = append(e.fallbacks, et)
		e.closers = append(e.closers, et.Close)
	}
	return e
}

// NewExtractorWithReaders is used by tests and callers with custom readers.
func NewExtractorWithReaders(loc *time.Location, readers ...Reader) *Extractor {
	if loc == nil {
		loc = time.Local
	}
	return &Extractor{readers: readers, loc: loc}
}

// Extract never fails. Readers that cannot open or parse path are skipped
// and whatever was found so far is returned.
func (e *Extractor) Extract(path string) CaptureMetadata {
	result := e.run(e.readers, path, CaptureMetadata{})
	if result.IsEmpty() {
		result = e.run(e.fallbacks, path, result)
	}
	return result
}

func (e *Extractor) run(readers []Reader, path string, result CaptureMetadata) CaptureMetadata {
	for _, r := range readers {
		if result.complete() {
			break
		}
		if !r.Accepts(path) {
			continue
		}
		md, err := r.Read(path, e.loc)
		switch {
		case err != nil:
			logging.Debug("metadata: %s reader failed for %s: %v", r.Name(), path, err)
			metrics.MetadataReadsTotal.WithLabelValues(r.Name(), "error").Inc()
		case md.IsEmpty():
			metrics.MetadataReadsTotal.WithLabelValues(r.Name(), "empty").Inc()
		default:
			metrics.MetadataReadsTotal.WithLabelValues(r.Name(), "found").Inc()
		}
		result = result.fill(md)
	}
	return result
}

// Close releases reader resources such as the exiftool process.
func (e *Extractor) Close() error {
	var err error
	e.closeOnce.Do(func() {
		for _, c := range e.closers {
			if cerr := c(); cerr != nil && err == nil {
				err = cerr
			}
		}
	})
	return err
}

// cleanString trims NUL padding and surrounding whitespace from a text field.
func cleanString(s string) string {
	return strings.TrimSpace(strings.Trim(s, "\x00"))
}
