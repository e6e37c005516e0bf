package metadata

import (
	"errors"
	"fmt"
	"os"
	"time"

	mp4 "github.com/abema/go-mp4"

	"github.com/tsuyukimakoto/casket/internal/mediatypes"
)

// appleEpochOffset is the number of seconds between the QuickTime epoch
// (1904-01-01 00:00:00 UTC) and the Unix epoch.
const appleEpochOffset = 2082844800

var errNoMovieHeader = errors.New("mvhd box not found")

// mp4Reader reads the movie header creation time of ISO-BMFF containers.
type mp4Reader struct{}

func (mp4Reader) Name() string { return "mp4" }

func (mp4Reader) Accepts(path string) bool {
	return mediatypes.ISOBMFFExtensions[mediatypes.Ext(path)]
}

func (mp4Reader) Read(path string, loc *time.Location) (CaptureMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return CaptureMetadata{}, err
	}
	defer f.Close()

	boxes, err := mp4.ExtractBoxesWithPayload(f, nil, []mp4.BoxPath{
		{mp4.BoxTypeMoov(), mp4.BoxTypeMvhd()},
	})
	if err != nil {
		return CaptureMetadata{}, fmt.Errorf("read mp4 structure: %w", err)
	}

	for _, box := range boxes {
		mvhd, ok := box.Payload.(*mp4.Mvhd)
		if !ok {
			continue
		}
		created := mvhd.GetCreationTime()
		if created == 0 {
			return CaptureMetadata{}, nil
		}
		t := time.Unix(int64(created)-appleEpochOffset, 0)
		if t.Year() < 1970 {
			return CaptureMetadata{}, nil
		}
		t = t.In(loc)
		return CaptureMetadata{CapturedAt: &t}, nil
	}
	return CaptureMetadata{}, errNoMovieHeader
}
