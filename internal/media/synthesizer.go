package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/disintegration/imaging"

	"github.com/tsuyukimakoto/casket/internal/logging"
	"github.com/tsuyukimakoto/casket/internal/mediatypes"
	"github.com/tsuyukimakoto/casket/internal/metrics"
)

// ThumbnailExt is appended to the destination base of every thumbnail.
const ThumbnailExt = ".jpg"

// Decoder produces an image for path, optionally pre-shrunk towards
// maxLongEdge.
type Decoder func(ctx context.Context, path string, maxLongEdge int) (image.Image, error)

// Tier is one step of a fallback chain. Applies, when set, restricts the
// tier to some paths of its family.
type Tier struct {
	Name    string
	Decode  Decoder
	Applies func(path string) bool
}

var errNoConverter = errors.New("no conversion utility available")

// Synthesizer writes normalized JPEG thumbnails, trying the tiers of the
// source's format family in order.
type Synthesizer struct {
	converter Converter
	tempDir   string
	chains    map[mediatypes.Family][]Tier
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithConverter sets the external converter. A nil converter disables the
// convert tiers.
func WithConverter(c Converter) Option {
	return func(s *Synthesizer) { s.converter = c }
}

// WithTempDir sets where convert temp files are created. Empty means the
// OS default.
func WithTempDir(dir string) Option {
	return func(s *Synthesizer) { s.tempDir = dir }
}

// WithChain replaces the fallback chain of a family.
func WithChain(family mediatypes.Family, tiers ...Tier) Option {
	return func(s *Synthesizer) { s.chains[family] = tiers }
}

// NewSynthesizer returns a Synthesizer with the default chains.
func NewSynthesizer(opts ...Option) *Synthesizer {
	s := &Synthesizer{chains: make(map[mediatypes.Family][]Tier)}
	s.chains[mediatypes.FamilyRaster] = []Tier{{Name: "decode", Decode: decodeRaster}}
	s.chains[mediatypes.FamilyRaw] = []Tier{
		{Name: "demosaic8", Decode: demosaic8},
		{Name: "demosaic16", Decode: demosaic16},
		{Name: "embedded-preview", Decode: decodeEmbeddedPreview},
		{Name: "convert", Decode: s.decodeConverted, Applies: isDNG},
	}
	s.chains[mediatypes.FamilyHEIF] = []Tier{{Name: "convert", Decode: s.decodeConverted}}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

func isDNG(path string) bool {
	return mediatypes.Ext(path) == ".dng"
}

// Synthesize writes a thumbnail for src at destBase+".jpg" and returns its
// path. An empty path with a nil error means no thumbnail could be made.
// Only a failure to write an encoded thumbnail is returned as an error.
func (s *Synthesizer) Synthesize(ctx context.Context, src, destBase string, maxLongEdge, quality int) (string, error) {
	family := mediatypes.FamilyOfPath(src)
	start := time.Now()
	defer func() {
		metrics.ThumbnailDuration.WithLabelValues(string(family)).Observe(time.Since(start).Seconds())
	}()

	img := s.decode(ctx, family, src, maxLongEdge)
	if img == nil {
		metrics.ThumbnailOutcomesTotal.WithLabelValues(string(family), "none").Inc()
		return "", nil
	}

	img = Normalize(img, maxLongEdge)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(QualityPercent(quality))); err != nil {
		logging.Debug("thumbnail: encode failed for %s: %v", src, err)
		metrics.ThumbnailOutcomesTotal.WithLabelValues(string(family), "none").Inc()
		return "", nil
	}

	dest := destBase + ThumbnailExt
	if err := os.WriteFile(dest, buf.Bytes(), 0o644); err != nil {
		os.Remove(dest)
		metrics.ThumbnailOutcomesTotal.WithLabelValues(string(family), "error").Inc()
		return "", fmt.Errorf("write thumbnail %s: %w", dest, err)
	}

	metrics.ThumbnailOutcomesTotal.WithLabelValues(string(family), "created").Inc()
	return dest, nil
}

// decode runs the chain for family and returns the first image produced.
func (s *Synthesizer) decode(ctx context.Context, family mediatypes.Family, src string, maxLongEdge int) image.Image {
	for _, tier := range s.chains[family] {
		if tier.Applies != nil && !tier.Applies(src) {
			continue
		}
		img, err := tier.Decode(ctx, src, maxLongEdge)
		if err == nil && img != nil {
			metrics.ThumbnailTierAttemptsTotal.WithLabelValues(string(family), tier.Name, "success").Inc()
			return img
		}
		if err == nil {
			err = errors.New("no image")
		}
		logging.Debug("thumbnail: %s tier failed for %s: %v", tier.Name, src, err)
		metrics.ThumbnailTierAttemptsTotal.WithLabelValues(string(family), tier.Name, "failure").Inc()
	}
	return nil
}

// decodeConverted converts src into a temp JPEG and decodes it. The temp
// file exists only for the duration of the call.
func (s *Synthesizer) decodeConverted(ctx context.Context, src string, _ int) (image.Image, error) {
	if s.converter == nil {
		return nil, errNoConverter
	}

	tmp, err := os.CreateTemp(s.tempDir, "casket-convert-*"+ThumbnailExt)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := s.converter.Convert(ctx, src, tmpPath, "jpeg"); err != nil {
		return nil, err
	}

	img, err := imaging.Open(tmpPath, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode converted output: %w", err)
	}
	return img, nil
}
