package dateindex

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tsuyukimakoto/casket/internal/metadata"
)

func TestAt(t *testing.T) {
	t.Parallel()

	p := At(time.Date(2023, 5, 1, 10, 59, 59, 0, time.UTC), SourceCapture)
	if p.IndexedKey != "2023050110" {
		t.Errorf("IndexedKey = %q, want 2023050110", p.IndexedKey)
	}
	if want := filepath.Join("2023", "05", "01"); p.DatePath != want {
		t.Errorf("DatePath = %q, want %q", p.DatePath, want)
	}
}

func TestResolveFallbackChain(t *testing.T) {
	t.Parallel()

	captured := time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)
	born := time.Date(2022, 1, 2, 3, 0, 0, 0, time.UTC)
	now := time.Date(2030, 12, 31, 23, 0, 0, 0, time.UTC)

	dir := t.TempDir()
	file := filepath.Join(dir, "a.jpg")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	modified := time.Date(2021, 6, 7, 8, 0, 0, 0, time.UTC)
	if err := os.Chtimes(file, modified, modified); err != nil {
		t.Fatal(err)
	}

	noBirth := func(string) (time.Time, error) { return time.Time{}, errors.New("unsupported") }
	hasBirth := func(string) (time.Time, error) { return born, nil }
	noStat := func(string) (os.FileInfo, error) { return nil, os.ErrNotExist }

	tests := []struct {
		name     string
		md       metadata.CaptureMetadata
		birth    func(string) (time.Time, error)
		stat     func(string) (os.FileInfo, error)
		wantKey  string
		wantPath string
		wantSrc  Source
	}{
		{
			name:     "capture time wins",
			md:       metadata.CaptureMetadata{CapturedAt: &captured},
			birth:    hasBirth,
			stat:     os.Stat,
			wantKey:  "2023050110",
			wantPath: filepath.Join("2023", "05", "01"),
			wantSrc:  SourceCapture,
		},
		{
			name:     "creation time",
			birth:    hasBirth,
			stat:     os.Stat,
			wantKey:  "2022010203",
			wantPath: filepath.Join("2022", "01", "02"),
			wantSrc:  SourceBirth,
		},
		{
			name:     "modification time",
			birth:    noBirth,
			stat:     os.Stat,
			wantKey:  "2021060708",
			wantPath: filepath.Join("2021", "06", "07"),
			wantSrc:  SourceModified,
		},
		{
			name:     "current time",
			birth:    noBirth,
			stat:     noStat,
			wantKey:  "2030123123",
			wantPath: filepath.Join("2030", "12", "31"),
			wantSrc:  SourceNow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Resolver{
				Location:  time.UTC,
				Now:       func() time.Time { return now },
				BirthTime: tt.birth,
				Stat:      tt.stat,
			}
			got := r.Resolve(file, tt.md)
			if got.IndexedKey != tt.wantKey {
				t.Errorf("IndexedKey = %q, want %q", got.IndexedKey, tt.wantKey)
			}
			if got.DatePath != tt.wantPath {
				t.Errorf("DatePath = %q, want %q", got.DatePath, tt.wantPath)
			}
			if got.Source != tt.wantSrc {
				t.Errorf("Source = %q, want %q", got.Source, tt.wantSrc)
			}
		})
	}
}

func TestResolveUsesResolverZone(t *testing.T) {
	t.Parallel()

	tokyo := time.FixedZone("JST", 9*60*60)
	captured := time.Date(2023, 12, 31, 20, 0, 0, 0, time.UTC)

	r := &Resolver{Location: tokyo}
	got := r.Resolve("/x.jpg", metadata.CaptureMetadata{CapturedAt: &captured})

	if got.IndexedKey != "2024010105" {
		t.Errorf("IndexedKey = %q, want 2024010105", got.IndexedKey)
	}
	if want := filepath.Join("2024", "01", "01"); got.DatePath != want {
		t.Errorf("DatePath = %q, want %q", got.DatePath, want)
	}
}

func TestNewResolverOnRealFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "a.jpg")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := NewResolver().Resolve(file, metadata.CaptureMetadata{})
	if len(got.IndexedKey) != 10 {
		t.Errorf("IndexedKey = %q, want ten digits", got.IndexedKey)
	}
	if got.Source != SourceBirth && got.Source != SourceModified {
		t.Errorf("Source = %q, want birth or modified", got.Source)
	}
}
