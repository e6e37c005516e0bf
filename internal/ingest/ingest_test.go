package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tsuyukimakoto/casket/internal/database"
	"github.com/tsuyukimakoto/casket/internal/dateindex"
	"github.com/tsuyukimakoto/casket/internal/filesystem"
	"github.com/tsuyukimakoto/casket/internal/media"
	"github.com/tsuyukimakoto/casket/internal/metadata"
	"github.com/tsuyukimakoto/casket/internal/testutil"
)

type catalogDirs struct {
	source, data, thumbs string
}

func newDirs(t *testing.T) catalogDirs {
	t.Helper()
	root := t.TempDir()
	d := catalogDirs{
		source: filepath.Join(root, "card"),
		data:   filepath.Join(root, "archive"),
		thumbs: filepath.Join(root, "thumbs"),
	}
	for _, dir := range []string{d.source, d.data, d.thumbs} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return d
}

func (d catalogDirs) options() Options {
	return Options{
		DataRoot:      d.data,
		ThumbnailRoot: d.thumbs,
		MaxLongEdge:   256,
		Quality:       8,
		VerifyCopy:    true,
		Retry:         filesystem.DefaultRetryConfig(),
	}
}

func openCatalog(t *testing.T, dir string) *database.Database {
	t.Helper()
	db, err := database.New(context.Background(), filepath.Join(dir, database.FileName))
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return db
}

func utcResolver() *dateindex.Resolver {
	r := dateindex.NewResolver()
	r.Location = time.UTC
	return r
}

func TestRunEndToEnd(t *testing.T) {
	if media.IsVipsAvailable() {
		t.Skip("libvips initialized; RAW tiers would not use the preview")
	}
	dirs := newDirs(t)

	jpegPath := testutil.WriteFile(t, dirs.source, "IMG_0001.JPG", testutil.WithEXIF(
		testutil.JPEG(t, testutil.Gradient(800, 600)),
		testutil.CameraEXIF("Canon", "Canon EOS R5", "2023:05:01 10:00:00", "").Bytes(),
	))
	dng := testutil.CameraEXIF("Leica", "Q2", "2021:08:15 06:30:00", "")
	dng.Preview1 = testutil.JPEG(t, testutil.Gradient(320, 240))
	dngPath := testutil.WriteFile(t, dirs.source, "L1000001.DNG", dng.Bytes())
	movPath := testutil.WriteFile(t, dirs.source, "clip.MOV", testutil.MP4(time.Date(2022, 7, 1, 12, 0, 0, 0, time.UTC)))

	candidates, err := Scan(dirs.source)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 3 {
		t.Fatalf("Scan() found %d files, want 3", len(candidates))
	}

	db := openCatalog(t, dirs.thumbs)
	extractor := metadata.NewExtractor(metadata.Options{Location: time.UTC})
	defer extractor.Close()
	in := New(dirs.options(), extractor, utcResolver(), media.NewSynthesizer(), db)

	sum, err := in.Run(context.Background(), candidates)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if sum.Processed != 3 || sum.Errored != 0 {
		t.Errorf("processed=%d errored=%d, want 3 and 0: %v", sum.Processed, sum.Errored, sum.Errors)
	}
	if sum.Thumbnails != 2 {
		t.Errorf("Thumbnails = %d, want 2", sum.Thumbnails)
	}
	if sum.Batch.Inserted != 3 || sum.Batch.Ignored != 0 {
		t.Errorf("batch = %+v, want 3 inserted", sum.Batch)
	}
	if sum.Outcome() != "success" {
		t.Errorf("Outcome() = %q, want success", sum.Outcome())
	}

	tests := []struct {
		src       string
		key       string
		dataPath  string
		thumbPath string
	}{
		{jpegPath, "2023050110", filepath.Join(dirs.data, "2023", "05", "01", "IMG_0001.JPG"), filepath.Join(dirs.thumbs, "2023", "05", "01", "IMG_0001.jpg")},
		{dngPath, "2021081506", filepath.Join(dirs.data, "2021", "08", "15", "L1000001.DNG"), filepath.Join(dirs.thumbs, "2021", "08", "15", "L1000001.jpg")},
		{movPath, "2022070112", filepath.Join(dirs.data, "2022", "07", "01", "clip.MOV"), ""},
	}
	for _, tt := range tests {
		row, err := db.GetByOriginalPath(context.Background(), tt.src)
		if err != nil {
			t.Errorf("GetByOriginalPath(%s): %v", tt.src, err)
			continue
		}
		if row.DatetimeIndexed != tt.key {
			t.Errorf("%s: key = %s, want %s", filepath.Base(tt.src), row.DatetimeIndexed, tt.key)
		}
		if row.DataPath != tt.dataPath {
			t.Errorf("%s: data path = %s, want %s", filepath.Base(tt.src), row.DataPath, tt.dataPath)
		}
		if row.ThumbnailPath != tt.thumbPath {
			t.Errorf("%s: thumbnail path = %q, want %q", filepath.Base(tt.src), row.ThumbnailPath, tt.thumbPath)
		}
		if _, err := os.Stat(tt.dataPath); err != nil {
			t.Errorf("archive copy missing: %v", err)
		}
		if tt.thumbPath != "" {
			if _, err := os.Stat(tt.thumbPath); err != nil {
				t.Errorf("thumbnail missing: %v", err)
			}
		}
	}

	row, _ := db.GetByOriginalPath(context.Background(), jpegPath)
	if row != nil && (row.CameraMake != "Canon" || row.CameraModel != "Canon EOS R5") {
		t.Errorf("camera = %q %q", row.CameraMake, row.CameraModel)
	}

	// A second run over the same files catalogues nothing new.
	again, err := in.Run(context.Background(), candidates)
	if err != nil {
		t.Fatalf("second Run() failed: %v", err)
	}
	if again.Batch.Inserted != 0 || again.Batch.Ignored != 3 {
		t.Errorf("second run batch = %+v, want 0 inserted and 3 ignored", again.Batch)
	}
	if again.RunID == sum.RunID {
		t.Error("runs share a run ID")
	}

	stats, err := db.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 3 || stats.WithThumbnail != 2 {
		t.Errorf("stats = %+v, want 3 rows with 2 thumbnails", stats)
	}
}

// Files without any embedded capture time fall back to their modification
// time, in the resolver's location.
func TestRunEndToEndFileTimes(t *testing.T) {
	if media.IsVipsAvailable() {
		t.Skip("libvips initialized; RAW tiers would not use the preview")
	}
	dirs := newDirs(t)

	jpegPath := testutil.WriteFile(t, dirs.source, "scan.jpg", testutil.JPEG(t, testutil.Gradient(64, 48)))
	dng := testutil.TIFF{IFD0: []testutil.Entry{testutil.Short(testutil.TagImageWidth, 1)}}
	dng.Preview1 = testutil.JPEG(t, testutil.Gradient(320, 240))
	dngPath := testutil.WriteFile(t, dirs.source, "R0000001.DNG", dng.Bytes())
	movPath := testutil.WriteFile(t, dirs.source, "clip.MOV", testutil.MP4(time.Time{}))

	mtimes := map[string]time.Time{
		jpegPath: time.Date(2019, 1, 2, 3, 4, 5, 0, time.UTC),
		dngPath:  time.Date(2020, 12, 31, 23, 59, 0, 0, time.UTC),
		movPath:  time.Date(2018, 6, 15, 8, 0, 0, 0, time.UTC),
	}
	for path, mtime := range mtimes {
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}

	candidates, err := Scan(dirs.source)
	if err != nil {
		t.Fatal(err)
	}

	db := openCatalog(t, dirs.thumbs)
	extractor := metadata.NewExtractor(metadata.Options{Location: time.UTC})
	defer extractor.Close()
	resolver := utcResolver()
	resolver.BirthTime = nil
	in := New(dirs.options(), extractor, resolver, media.NewSynthesizer(), db)

	sum, err := in.Run(context.Background(), candidates)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if sum.Processed != 3 || sum.Batch.Inserted != 3 {
		t.Fatalf("summary = %+v, want 3 processed and inserted: %v", sum, sum.Errors)
	}

	for path, mtime := range mtimes {
		name := filepath.Base(path)
		row, err := db.GetByOriginalPath(context.Background(), path)
		if err != nil {
			t.Errorf("GetByOriginalPath(%s): %v", name, err)
			continue
		}
		if want := mtime.Format("2006010215"); row.DatetimeIndexed != want {
			t.Errorf("%s: key = %s, want %s", name, row.DatetimeIndexed, want)
		}
		want := filepath.Join(dirs.data, mtime.Format("2006"), mtime.Format("01"), mtime.Format("02"), name)
		if row.DataPath != want {
			t.Errorf("%s: data path = %s, want %s", name, row.DataPath, want)
		}
		if _, err := os.Stat(want); err != nil {
			t.Errorf("archive copy missing: %v", err)
		}
	}

	again, err := in.Run(context.Background(), candidates)
	if err != nil {
		t.Fatalf("second Run() failed: %v", err)
	}
	if again.Batch.Inserted != 0 || again.Batch.Ignored != 3 {
		t.Errorf("second run batch = %+v, want 0 inserted and 3 ignored", again.Batch)
	}
}

type staticExtractor struct{}

func (staticExtractor) Extract(string) metadata.CaptureMetadata { return metadata.CaptureMetadata{} }

type fixedResolver struct{ at time.Time }

func (r fixedResolver) Resolve(string, metadata.CaptureMetadata) dateindex.Placement {
	return dateindex.At(r.at, dateindex.SourceNow)
}

type fakeThumbnailer struct {
	err   error
	calls []string
}

func (f *fakeThumbnailer) Synthesize(_ context.Context, src, destBase string, _, _ int) (string, error) {
	f.calls = append(f.calls, src)
	if f.err != nil {
		return "", f.err
	}
	return destBase + ".jpg", nil
}

type fakeStore struct {
	err     error
	calls   int
	records []database.Record
}

func (f *fakeStore) PersistBatch(_ context.Context, records []database.Record) (database.BatchResult, error) {
	f.calls++
	f.records = append(f.records, records...)
	if f.err != nil {
		return database.BatchResult{}, f.err
	}
	return database.BatchResult{Inserted: len(records)}, nil
}

type recordingObserver struct {
	done []int
	errs int
}

func (o *recordingObserver) FileDone(done, _ int, _ string, err error) {
	o.done = append(o.done, done)
	if err != nil {
		o.errs++
	}
}

func newFakeIngestor(t *testing.T, dirs catalogDirs) (*Ingestor, *fakeThumbnailer, *fakeStore) {
	t.Helper()
	thumbs := &fakeThumbnailer{}
	store := &fakeStore{}
	at := time.Date(2024, 2, 29, 23, 0, 0, 0, time.UTC)
	return New(dirs.options(), staticExtractor{}, fixedResolver{at: at}, thumbs, store), thumbs, store
}

func TestRunPerFileErrors(t *testing.T) {
	dirs := newDirs(t)
	in, _, store := newFakeIngestor(t, dirs)
	obs := &recordingObserver{}
	in.SetObserver(obs)

	good := testutil.WriteFile(t, dirs.source, "good.jpg", []byte("data"))
	candidates := []string{
		filepath.Join(dirs.source, "vanished.jpg"),
		good,
		string(filepath.Separator),
	}

	sum, err := in.Run(context.Background(), candidates)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if sum.Processed != 1 || sum.Errored != 2 {
		t.Fatalf("processed=%d errored=%d, want 1 and 2", sum.Processed, sum.Errored)
	}
	if sum.Errors[0].Stage != StageCopy || !errors.Is(sum.Errors[0], os.ErrNotExist) {
		t.Errorf("first error = %v, want copy stage not-exist", sum.Errors[0])
	}
	if sum.Errors[1].Stage != StagePath || !errors.Is(sum.Errors[1], ErrNoFileName) {
		t.Errorf("second error = %v, want ErrNoFileName", sum.Errors[1])
	}
	if sum.Outcome() != "partial" {
		t.Errorf("Outcome() = %q, want partial", sum.Outcome())
	}

	if store.calls != 1 || len(store.records) != 1 || store.records[0].OriginalPath != good {
		t.Errorf("store got %d calls with %v", store.calls, store.records)
	}
	want := filepath.Join(dirs.data, "2024", "02", "29", "good.jpg")
	if store.records[0].DataPath != want || store.records[0].IndexedKey != "2024022923" {
		t.Errorf("record = %+v", store.records[0])
	}

	if len(obs.done) != 3 || obs.done[2] != 3 || obs.errs != 2 {
		t.Errorf("observer saw %v with %d errors", obs.done, obs.errs)
	}
}

func TestRunMkdirFailure(t *testing.T) {
	dirs := newDirs(t)
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	dirs.data = blocker

	in, thumbs, store := newFakeIngestor(t, dirs)
	src := testutil.WriteFile(t, dirs.source, "a.jpg", []byte("data"))

	sum, err := in.Run(context.Background(), []string{src})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if sum.Errored != 1 || sum.Errors[0].Stage != StageMkdir {
		t.Errorf("errors = %v, want one mkdir error", sum.Errors)
	}
	if sum.Outcome() != "failed" {
		t.Errorf("Outcome() = %q, want failed", sum.Outcome())
	}
	if len(thumbs.calls) != 0 {
		t.Error("thumbnail attempted for a file that was not copied")
	}
	if store.calls != 0 {
		t.Error("store called with no records")
	}
}

func TestRunThumbnailErrorKeepsRecord(t *testing.T) {
	dirs := newDirs(t)
	in, thumbs, store := newFakeIngestor(t, dirs)
	thumbs.err = errors.New("disk full")

	src := testutil.WriteFile(t, dirs.source, "a.heic", []byte("data"))
	sum, err := in.Run(context.Background(), []string{src})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if sum.Processed != 1 || sum.Errored != 0 || sum.Thumbnails != 0 {
		t.Errorf("summary = %+v", sum)
	}
	if len(store.records) != 1 || store.records[0].ThumbnailPath != "" {
		t.Errorf("records = %+v, want one without thumbnail", store.records)
	}
}

func TestRunThumbnailBaseDropsExtension(t *testing.T) {
	dirs := newDirs(t)
	in, _, store := newFakeIngestor(t, dirs)

	src := testutil.WriteFile(t, dirs.source, "IMG_1.JPG", []byte("data"))
	if _, err := in.Run(context.Background(), []string{src}); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dirs.thumbs, "2024", "02", "29", "IMG_1.jpg")
	if got := store.records[0].ThumbnailPath; got != want {
		t.Errorf("thumbnail path = %s, want %s", got, want)
	}
}

// A JPEG and a RAW of the same shot share a thumbnail name, and the later
// file overwrites the earlier one's thumbnail.
func TestRunSiblingsShareThumbnail(t *testing.T) {
	dirs := newDirs(t)
	in, thumbs, store := newFakeIngestor(t, dirs)

	jpg := testutil.WriteFile(t, dirs.source, "IMG_0001.JPG", []byte("jpeg"))
	nef := testutil.WriteFile(t, dirs.source, "IMG_0001.NEF", []byte("raw"))
	if _, err := in.Run(context.Background(), []string{jpg, nef}); err != nil {
		t.Fatal(err)
	}

	if len(thumbs.calls) != 2 {
		t.Fatalf("thumbnailer called %d times, want 2", len(thumbs.calls))
	}
	want := filepath.Join(dirs.thumbs, "2024", "02", "29", "IMG_0001.jpg")
	if len(store.records) != 2 {
		t.Fatalf("stored %d records, want 2", len(store.records))
	}
	for _, rec := range store.records {
		if rec.ThumbnailPath != want {
			t.Errorf("%s: thumbnail path = %s, want %s", filepath.Base(rec.OriginalPath), rec.ThumbnailPath, want)
		}
	}
	if store.records[0].DataPath == store.records[1].DataPath {
		t.Error("archive copies collided")
	}
}

func TestRunPersistFailure(t *testing.T) {
	dirs := newDirs(t)
	in, _, store := newFakeIngestor(t, dirs)
	store.err = errors.New("database is locked")

	src := testutil.WriteFile(t, dirs.source, "a.jpg", []byte("data"))
	sum, err := in.Run(context.Background(), []string{src})
	if err == nil {
		t.Fatal("expected error when the batch cannot be persisted")
	}
	if sum == nil || sum.Processed != 1 {
		t.Errorf("summary = %+v, want it returned with the error", sum)
	}
}

func TestRunCancelled(t *testing.T) {
	dirs := newDirs(t)
	in, thumbs, store := newFakeIngestor(t, dirs)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := testutil.WriteFile(t, dirs.source, "a.jpg", []byte("data"))
	if _, err := in.Run(ctx, []string{src}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if len(thumbs.calls) != 0 || store.calls != 0 {
		t.Error("work done after cancellation")
	}
}

func TestRunNoCandidates(t *testing.T) {
	dirs := newDirs(t)
	in, _, store := newFakeIngestor(t, dirs)

	sum, err := in.Run(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if store.calls != 0 {
		t.Error("store called for an empty run")
	}
	if sum.Outcome() != "success" {
		t.Errorf("Outcome() = %q, want success", sum.Outcome())
	}
}

func TestContentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"/card/IMG_0001.JPG", "image/jpeg"},
		{"/card/DSC_0001.nef", "image/x-nikon-nef"},
		{"/card/clip.MOV", "video/quicktime"},
		{"/card/notes.txt", "unrecognized"},
		{"/card/README", "unrecognized"},
	}
	for _, tt := range tests {
		if got := contentType(tt.path); got != tt.want {
			t.Errorf("contentType(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
