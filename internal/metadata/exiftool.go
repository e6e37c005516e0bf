package metadata

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/barasher/go-exiftool"

	"github.com/tsuyukimakoto/casket/internal/logging"
)

// exiftoolReader asks a long-running exiftool process. It covers containers
// goexif cannot parse, such as HEIC and most video formats. The process is
// started on first use; if it cannot be started the reader disables itself.
type exiftoolReader struct {
	mu       sync.Mutex
	startOne sync.Once
	et       *exiftool.Exiftool
	startErr error
}

var errExiftoolUnavailable = errors.New("exiftool unavailable")

func newExiftoolReader() *exiftoolReader {
	return &exiftoolReader{}
}

func (r *exiftoolReader) Name() string { return "exiftool" }

func (r *exiftoolReader) Accepts(string) bool { return true }

func (r *exiftoolReader) start() error {
	r.startOne.Do(func() {
		et, err := exiftool.NewExiftool()
		if err != nil {
			r.startErr = fmt.Errorf("%w: %v", errExiftoolUnavailable, err)
			logging.Warn("exiftool metadata reader disabled: %v", err)
			return
		}
		r.et = et
	})
	return r.startErr
}

func (r *exiftoolReader) Read(path string, loc *time.Location) (CaptureMetadata, error) {
	if err := r.start(); err != nil {
		return CaptureMetadata{}, err
	}

	r.mu.Lock()
	if r.et == nil {
		r.mu.Unlock()
		return CaptureMetadata{}, errExiftoolUnavailable
	}
	infos := r.et.ExtractMetadata(path)
	r.mu.Unlock()

	if len(infos) == 0 {
		return CaptureMetadata{}, fmt.Errorf("exiftool returned no result for %s", path)
	}
	fi := infos[0]
	if fi.Err != nil {
		return CaptureMetadata{}, fi.Err
	}

	var md CaptureMetadata
	for _, key := range []string{"DateTimeOriginal", "CreateDate", "ModifyDate"} {
		s, err := fi.GetString(key)
		if err != nil || s == "" {
			continue
		}
		if t, ok := ParseTimestamp(truncateExifTime(s), loc); ok {
			md.CapturedAt = &t
		}
		break
	}
	if s, err := fi.GetString("Make"); err == nil {
		md.CameraMake = cleanString(s)
	}
	if s, err := fi.GetString("Model"); err == nil {
		md.CameraModel = cleanString(s)
	}
	return md, nil
}

// truncateExifTime drops sub-second and zone suffixes exiftool appends
// ("2023:05:01 10:00:00.123+09:00").
func truncateExifTime(s string) string {
	if len(s) > len(ExifLayout) {
		switch s[len(ExifLayout)] {
		case '.', '+', '-', 'Z':
			return s[:len(ExifLayout)]
		}
	}
	return s
}

func (r *exiftoolReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.et == nil {
		return nil
	}
	err := r.et.Close()
	r.et = nil
	return err
}
