package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"

	"github.com/tsuyukimakoto/casket/internal/logging"
)

var (
	vipsMu          sync.Mutex
	vipsInitialized bool
)

var (
	errVipsUnavailable = errors.New("libvips not initialized")
	errNot8Bit         = errors.New("decoded image is not 8-bit")
	errNot16Bit        = errors.New("decoded image is not 16-bit")
)

// vipsLevelFor maps the application log level to the most verbose libvips
// level that should still be forwarded.
func vipsLevelFor(level logging.LogLevel) vips.LogLevel {
	switch level {
	case logging.LevelDebug:
		return vips.LogLevelInfo
	case logging.LevelInfo:
		return vips.LogLevelWarning
	case logging.LevelWarn:
		return vips.LogLevelError
	default:
		return vips.LogLevelCritical
	}
}

func forwardVipsLog(domain string, level vips.LogLevel, msg string) {
	switch level {
	case vips.LogLevelError, vips.LogLevelCritical:
		logging.Error("[%s] %s", domain, msg)
	case vips.LogLevelWarning:
		logging.Warn("[%s] %s", domain, msg)
	default:
		logging.Debug("[%s] %s", domain, msg)
	}
}

// InitVips starts libvips. Until it is called the demosaic tiers fail and
// large rasters are decoded with the pure Go decoders. Safe to call twice.
func InitVips() {
	vipsMu.Lock()
	defer vipsMu.Unlock()

	if vipsInitialized {
		return
	}

	// Logging must be configured before Startup.
	vips.LoggingSettings(forwardVipsLog, vipsLevelFor(logging.GetLevel()))

	// One file at a time; the pipeline is sequential.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsInitialized = true
	logging.Info("libvips initialized (version: %s)", vips.Version)
}

// ShutdownVips releases libvips resources.
func ShutdownVips() {
	vipsMu.Lock()
	defer vipsMu.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		logging.Debug("libvips shutdown complete")
	}
}

// IsVipsAvailable reports whether InitVips has run.
func IsVipsAvailable() bool {
	vipsMu.Lock()
	defer vipsMu.Unlock()
	return vipsInitialized
}

func loadVips(path string) (*vips.ImageRef, error) {
	if !IsVipsAvailable() {
		return nil, errVipsUnavailable
	}
	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips load: %w", err)
	}
	// Pixels leave libvips without their EXIF, so orientation is applied here.
	if err := ref.AutoRotate(); err != nil {
		ref.Close()
		return nil, fmt.Errorf("vips rotate: %w", err)
	}
	return ref, nil
}

// shrinkVips reduces ref in place so its long edge is at most maxLongEdge.
func shrinkVips(ref *vips.ImageRef, maxLongEdge int) error {
	w, h := FitDimensions(ref.Width(), ref.Height(), maxLongEdge)
	if w == ref.Width() && h == ref.Height() {
		return nil
	}
	if err := ref.Thumbnail(w, h, vips.InterestingNone); err != nil {
		return fmt.Errorf("vips shrink: %w", err)
	}
	return nil
}

// demosaic8 decodes a RAW file with libvips and accepts the result only when
// it is 8 bits per sample.
func demosaic8(_ context.Context, path string, maxLongEdge int) (image.Image, error) {
	ref, err := loadVips(path)
	if err != nil {
		return nil, err
	}
	defer ref.Close()

	if ref.BandFormat() != vips.BandFormatUchar {
		return nil, fmt.Errorf("%w: band format %v", errNot8Bit, ref.BandFormat())
	}
	if err := shrinkVips(ref, maxLongEdge); err != nil {
		return nil, err
	}

	px, err := ref.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("vips read pixels: %w", err)
	}
	return imageFromSamples(px, ref.Width(), ref.Height(), ref.Bands())
}

// check16Bit accepts only unsigned 16-bit samples. Casting other formats
// keeps their value range, which would turn into a near-black picture.
func check16Bit(format vips.BandFormat) error {
	if format != vips.BandFormatUshort {
		return fmt.Errorf("%w: band format %v", errNot16Bit, format)
	}
	return nil
}

// demosaic16 decodes a RAW file with 16 bits per sample and keeps the high
// byte of every sample.
func demosaic16(_ context.Context, path string, maxLongEdge int) (image.Image, error) {
	ref, err := loadVips(path)
	if err != nil {
		return nil, err
	}
	defer ref.Close()

	if err := check16Bit(ref.BandFormat()); err != nil {
		return nil, err
	}
	if err := shrinkVips(ref, maxLongEdge); err != nil {
		return nil, err
	}

	px, err := ref.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("vips read pixels: %w", err)
	}
	return imageFromSamples(reduce16to8(px), ref.Width(), ref.Height(), ref.Bands())
}

// loadWithVips shrinks on load, which keeps very large rasters out of memory.
func loadWithVips(path string, maxLongEdge int) (image.Image, error) {
	ref, err := loadVips(path)
	if err != nil {
		return nil, err
	}
	defer ref.Close()

	logging.Debug("vips loaded %s: %dx%d", filepath.Base(path), ref.Width(), ref.Height())

	if err := shrinkVips(ref, maxLongEdge); err != nil {
		return nil, err
	}

	buf, _, err := ref.ExportPng(vips.NewPngExportParams())
	if err != nil {
		return nil, fmt.Errorf("vips export: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(buf), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode vips output: %w", err)
	}
	return img, nil
}
