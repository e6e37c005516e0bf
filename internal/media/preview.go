package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/tiff"
)

const (
	tagJPEGInterchangeFormat       = 0x0201
	tagJPEGInterchangeFormatLength = 0x0202
)

// ErrNoEmbeddedPreview is returned when no IFD references a usable JPEG.
var ErrNoEmbeddedPreview = errors.New("no embedded preview")

// ExtractEmbeddedPreview returns the JPEG stream a TIFF-based RAW file
// references through JPEGInterchangeFormat. The thumbnail directory (IFD1)
// is consulted before the primary directory (IFD0).
func ExtractEmbeddedPreview(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	tif, err := tiff.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("parse tiff structure: %w", err)
	}

	var order []*tiff.Dir
	if len(tif.Dirs) > 1 {
		order = append(order, tif.Dirs[1])
	}
	if len(tif.Dirs) > 0 {
		order = append(order, tif.Dirs[0])
	}

	for _, dir := range order {
		off, okOff := dirInt(dir, tagJPEGInterchangeFormat)
		n, okLen := dirInt(dir, tagJPEGInterchangeFormatLength)
		if !okOff || !okLen || off <= 0 || n <= 0 || off+n > info.Size() {
			continue
		}
		data, err := io.ReadAll(io.NewSectionReader(f, off, n))
		if err != nil {
			return nil, fmt.Errorf("read preview: %w", err)
		}
		return data, nil
	}
	return nil, ErrNoEmbeddedPreview
}

func dirInt(dir *tiff.Dir, id uint16) (int64, bool) {
	for _, tag := range dir.Tags {
		if tag.Id != id {
			continue
		}
		v, err := tag.Int64(0)
		if err != nil {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

// decodeEmbeddedPreview is the RAW tier that decodes the embedded JPEG.
func decodeEmbeddedPreview(_ context.Context, path string, _ int) (image.Image, error) {
	data, err := ExtractEmbeddedPreview(path)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode embedded preview: %w", err)
	}
	return img, nil
}
