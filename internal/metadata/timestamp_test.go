package metadata

import (
	"testing"
	"time"
	_ "time/tzdata"
)

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	tests := []struct {
		name   string
		input  string
		loc    *time.Location
		want   time.Time
		wantOK bool
	}{
		{
			name:   "UTC",
			input:  "2023:05:01 10:00:00",
			loc:    time.UTC,
			want:   time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "fixed offset zone",
			input:  "2023:05:01 10:00:00",
			loc:    tokyo,
			want:   time.Date(2023, 5, 1, 1, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "NUL padded",
			input:  "2023:05:01 10:00:00\x00",
			loc:    time.UTC,
			want:   time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{name: "dashes instead of colons", input: "2023-05-01 10:00:00", loc: time.UTC},
		{name: "missing seconds", input: "2023:05:01 10:00", loc: time.UTC},
		{name: "zeroed value", input: "0000:00:00 00:00:00", loc: time.UTC},
		{name: "empty", input: "", loc: time.UTC},
		{name: "out of range month", input: "2023:13:01 10:00:00", loc: time.UTC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.input, tt.loc)
			if ok != tt.wantOK {
				t.Fatalf("ParseTimestamp(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLocalizeDaylightSavingTransitions(t *testing.T) {
	t.Parallel()

	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	t.Run("repeated hour picks earlier instant", func(t *testing.T) {
		got, ok := ParseTimestamp("2023:11:05 01:30:00", ny)
		if !ok {
			t.Fatal("ParseTimestamp() ok = false for repeated wall time")
		}
		want := time.Date(2023, 11, 5, 5, 30, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("got %v, want %v (EDT instant)", got.UTC(), want)
		}
	})

	t.Run("skipped hour is unset", func(t *testing.T) {
		if got, ok := ParseTimestamp("2023:03:12 02:30:00", ny); ok {
			t.Errorf("ParseTimestamp() = %v, want unset for nonexistent wall time", got)
		}
	})

	t.Run("ordinary time keeps wall clock", func(t *testing.T) {
		got, ok := ParseTimestamp("2023:07:04 12:00:00", ny)
		if !ok {
			t.Fatal("ParseTimestamp() ok = false")
		}
		if got.Hour() != 12 || got.Location() != ny {
			t.Errorf("got %v, want 12:00 in America/New_York", got)
		}
	})
}

func TestTruncateExifTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"2023:05:01 10:00:00", "2023:05:01 10:00:00"},
		{"2023:05:01 10:00:00.123", "2023:05:01 10:00:00"},
		{"2023:05:01 10:00:00+09:00", "2023:05:01 10:00:00"},
		{"2023:05:01 10:00:00Z", "2023:05:01 10:00:00"},
		{"2023:05:01 10:00:00 junk", "2023:05:01 10:00:00 junk"},
	}
	for _, tt := range tests {
		if got := truncateExifTime(tt.in); got != tt.want {
			t.Errorf("truncateExifTime(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
