package metadata

import (
	"fmt"
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/tsuyukimakoto/casket/internal/mediatypes"
)

// exifReader reads EXIF from JPEG streams and TIFF-based containers (which
// covers NEF, CR2, ARW and DNG).
type exifReader struct{}

func (exifReader) Name() string { return "exif" }

func (exifReader) Accepts(path string) bool {
	return mediatypes.FamilyOfPath(path) != mediatypes.FamilyVideo
}

func (exifReader) Read(path string, loc *time.Location) (CaptureMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return CaptureMetadata{}, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if x == nil {
		if err == nil {
			err = fmt.Errorf("no exif data")
		}
		return CaptureMetadata{}, err
	}
	// Non-critical errors still leave usable fields behind.
	if err != nil && exif.IsCriticalError(err) {
		return CaptureMetadata{}, err
	}
	return fromExif(x, loc), nil
}

func fromExif(x *exif.Exif, loc *time.Location) CaptureMetadata {
	var md CaptureMetadata

	// DateTimeOriginal wins when present; DateTime is only consulted when it
	// is absent. A present but malformed value leaves the time unset.
	var raw string
	if s, ok := exifString(x, exif.DateTimeOriginal); ok {
		raw = s
	} else if s, ok := exifString(x, exif.DateTime); ok {
		raw = s
	}
	if raw != "" {
		if t, ok := ParseTimestamp(raw, loc); ok {
			md.CapturedAt = &t
		}
	}

	if s, ok := exifString(x, exif.Make); ok {
		md.CameraMake = s
	}
	if s, ok := exifString(x, exif.Model); ok {
		md.CameraModel = s
	}
	return md
}

func exifString(x *exif.Exif, field exif.FieldName) (string, bool) {
	tag, err := x.Get(field)
	if err != nil {
		return "", false
	}
	s, err := tag.StringVal()
	if err != nil {
		return "", false
	}
	s = cleanString(s)
	return s, s != ""
}
