package metadata

import (
	"strings"
	"time"
)

// ExifLayout is the EXIF date/time text layout ("YYYY:MM:DD HH:MM:SS").
const ExifLayout = "2006:01:02 15:04:05"

const wallLayout = "2006-01-02 15:04:05"

// ParseTimestamp parses an EXIF date/time string and interprets the naive
// wall-clock value in loc. When the wall time occurs twice (end of daylight
// saving time) the earlier instant is returned. When it does not occur at all
// (start of daylight saving time) or the text does not match ExifLayout
// exactly, ok is false.
func ParseTimestamp(s string, loc *time.Location) (t time.Time, ok bool) {
	s = strings.TrimRight(s, "\x00 ")
	naive, err := time.Parse(ExifLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return Localize(naive, loc)
}

// Localize interprets the wall-clock fields of naive (its location is
// ignored) in loc, choosing the earliest matching instant.
func Localize(naive time.Time, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	wall := time.Date(naive.Year(), naive.Month(), naive.Day(),
		naive.Hour(), naive.Minute(), naive.Second(), 0, time.UTC)
	want := wall.Format(wallLayout)

	// Offsets in effect around the wall time cover both sides of any transition.
	offsets := make(map[int]struct{}, 3)
	for _, d := range []time.Duration{-26 * time.Hour, 0, 26 * time.Hour} {
		_, off := wall.Add(d).In(loc).Zone()
		offsets[off] = struct{}{}
	}

	var best time.Time
	found := false
	for off := range offsets {
		inst := wall.Add(-time.Duration(off) * time.Second).In(loc)
		if inst.Format(wallLayout) != want {
			continue
		}
		if !found || inst.Before(best) {
			best = inst
			found = true
		}
	}
	return best, found
}
