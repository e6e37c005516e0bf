package media

import (
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"os"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/tsuyukimakoto/casket/internal/logging"
)

// MaxImagePixels is the size above which rasters are shrunk on load by
// libvips when it is available. A 20MP RGBA image is about 80MB.
const MaxImagePixels = 20_000_000

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int
	Height int
}

// GetImageDimensions returns image dimensions without fully decoding the image
func GetImageDimensions(path string) (*ImageDimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, err
	}

	return &ImageDimensions{Width: config.Width, Height: config.Height}, nil
}

// decodeRaster is the single tier for raster formats.
func decodeRaster(_ context.Context, path string, maxLongEdge int) (image.Image, error) {
	if dims, err := GetImageDimensions(path); err == nil && dims.Width*dims.Height > MaxImagePixels && IsVipsAvailable() {
		logging.Debug("shrinking large image %s (%dx%d) on load", path, dims.Width, dims.Height)
		img, err := loadWithVips(path, maxLongEdge)
		if err == nil {
			return img, nil
		}
		logging.Debug("vips load failed for %s: %v, using Go decoders", path, err)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	return img, nil
}

// FitDimensions returns the size of a w x h image scaled so that its long
// edge is at most maxLongEdge, keeping the aspect ratio. Images already
// within bounds, and non-positive bounds, are returned unchanged.
func FitDimensions(w, h, maxLongEdge int) (int, int) {
	if maxLongEdge <= 0 || w <= 0 || h <= 0 {
		return w, h
	}
	if w <= maxLongEdge && h <= maxLongEdge {
		return w, h
	}
	if w >= h {
		nh := (h*maxLongEdge + w/2) / w
		return maxLongEdge, max(nh, 1)
	}
	nw := (w*maxLongEdge + h/2) / h
	return max(nw, 1), maxLongEdge
}

// Normalize scales img down to fit maxLongEdge. It never scales up.
func Normalize(img image.Image, maxLongEdge int) image.Image {
	b := img.Bounds()
	w, h := FitDimensions(b.Dx(), b.Dy(), maxLongEdge)
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

// QualityPercent maps the 1-10 quality scale onto JPEG quality. Values
// below 1 count as 1 and the result never exceeds 100.
func QualityPercent(q int) int {
	if q < 1 {
		q = 1
	}
	return min(q*10, 100)
}

// reduce16to8 keeps the most significant byte of every native-endian
// 16-bit sample.
func reduce16to8(px []byte) []byte {
	out := make([]byte, len(px)/2)
	for i := range out {
		out[i] = byte(binary.NativeEndian.Uint16(px[2*i:]) >> 8)
	}
	return out
}

// imageFromSamples wraps interleaved 8-bit samples with 1 to 4 bands.
func imageFromSamples(px []byte, w, h, bands int) (image.Image, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", w, h)
	}
	if len(px) < w*h*bands {
		return nil, fmt.Errorf("short pixel buffer: %d bytes for %dx%dx%d", len(px), w, h, bands)
	}

	rect := image.Rect(0, 0, w, h)
	switch bands {
	case 1:
		return &image.Gray{Pix: px[:w*h], Stride: w, Rect: rect}, nil
	case 4:
		return &image.NRGBA{Pix: px[:w*h*4], Stride: 4 * w, Rect: rect}, nil
	case 2, 3:
		img := image.NewNRGBA(rect)
		for i := 0; i < w*h; i++ {
			s := px[i*bands:]
			d := img.Pix[i*4:]
			if bands == 2 {
				d[0], d[1], d[2], d[3] = s[0], s[0], s[0], s[1]
			} else {
				d[0], d[1], d[2], d[3] = s[0], s[1], s[2], 0xFF
			}
		}
		return img, nil
	default:
		return nil, fmt.Errorf("unsupported band count %d", bands)
	}
}
