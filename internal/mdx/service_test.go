package mdx_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"mdx-go/internal/database"
	"mdx-go/internal/mdx"
	"mdx-go/internal/model"
	"mdx-go/internal/testutil"
)

// fixture wires an IndexService against an in-memory store and mock
// filesystem with deterministic clock and ids.
type fixture struct {
	store     *database.SQLiteStore
	fs        *testutil.MockFilesystemManager
	extractor *testutil.StubExtractor
	clock     *testutil.StubClock
	service   *mdx.IndexService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:     testutil.NewTestStore(t),
		fs:        testutil.NewMockFilesystemManager(),
		extractor: testutil.NewStubExtractor(),
		clock:     testutil.FixedClock(),
	}
	f.service = mdx.NewIndexService(f.store, f.fs, f.extractor,
		mdx.NewNopLogger(), f.clock, testutil.NewStubIDGenerator())
	return f
}

func (f *fixture) resolve(t *testing.T, path string) *mdx.Path {
	t.Helper()
	p, err := f.fs.Resolve(path)
	if err != nil {
		t.Fatalf("resolving %s: %v", path, err)
	}
	return p
}

func (f *fixture) index(t *testing.T, path string, opts mdx.IndexOptions) *mdx.Report {
	t.Helper()
	report, err := f.service.IndexPath(f.resolve(t, path), opts)
	if err != nil {
		t.Fatalf("IndexPath(%s) error = %v", path, err)
	}
	return report
}

func photosOpts() mdx.IndexOptions {
	return mdx.IndexOptions{Volume: "Photos"}
}

func TestIndexService_IndexPath(t *testing.T) {
	t.Run("volume is required", func(t *testing.T) {
		f := newFixture(t)
		f.fs.AddFile("/photos/a.jpg", []byte("v1"))

		_, err := f.service.IndexPath(f.resolve(t, "/photos/a.jpg"), mdx.IndexOptions{})
		if err == nil {
			t.Fatal("expected error for missing volume")
		}
	})

	t.Run("new file is inserted", func(t *testing.T) {
		f := newFixture(t)
		content := []byte("jpeg bytes v1")
		f.fs.AddFile("/photos/a.jpg", content)
		f.extractor.Add("/photos/a.jpg", &model.Metadata{
			CameraMake: sql.NullString{String: "Canon", Valid: true},
		})

		report := f.index(t, "/photos/a.jpg", photosOpts())
		if report.Added != 1 || report.Updated != 0 || report.Skipped != 0 {
			t.Fatalf("report = %s", report.Summary())
		}

		rec, err := f.store.FindByPath("/photos/a.jpg")
		if err != nil {
			t.Fatal(err)
		}
		if rec == nil {
			t.Fatal("record not inserted")
		}
		if rec.Volume != "Photos" {
			t.Errorf("Volume = %q", rec.Volume)
		}
		if rec.MediaType != "image" {
			t.Errorf("MediaType = %q", rec.MediaType)
		}
		if rec.ContentHash != testutil.SHA256Hex(content) {
			t.Errorf("ContentHash = %q", rec.ContentHash)
		}
		if rec.Size != int64(len(content)) {
			t.Errorf("Size = %d", rec.Size)
		}

		meta, err := f.store.GetMetadata(rec.ID)
		if err != nil {
			t.Fatal(err)
		}
		if meta == nil || meta.CameraMake.String != "Canon" {
			t.Errorf("metadata = %+v", meta)
		}
	})

	t.Run("reindex with hash strategy is idempotent", func(t *testing.T) {
		f := newFixture(t)
		f.fs.AddFile("/photos/a.jpg", []byte("v1"))

		f.index(t, "/photos/a.jpg", photosOpts())
		report := f.index(t, "/photos/a.jpg", photosOpts())

		if report.Added != 0 || report.Skipped != 1 {
			t.Fatalf("second run report = %s", report.Summary())
		}
		if report.SkipReasons["already_indexed_by_content_hash"] != 1 {
			t.Errorf("skip reasons = %v", report.SkipReasons)
		}
	})

	t.Run("mutated content with hash strategy updates in place", func(t *testing.T) {
		f := newFixture(t)
		f.fs.AddFile("/photos/a.jpg", []byte("v1"))
		f.index(t, "/photos/a.jpg", photosOpts())

		before, err := f.store.FindByPath("/photos/a.jpg")
		if err != nil {
			t.Fatal(err)
		}

		f.fs.SetContent("/photos/a.jpg", []byte("v2 different bytes"))
		report := f.index(t, "/photos/a.jpg", photosOpts())
		if report.Updated != 1 {
			t.Fatalf("report = %s", report.Summary())
		}

		after, err := f.store.FindByPath("/photos/a.jpg")
		if err != nil {
			t.Fatal(err)
		}
		if after.ID != before.ID {
			t.Errorf("id changed across update: %q -> %q", before.ID, after.ID)
		}
		if after.ContentHash != testutil.SHA256Hex([]byte("v2 different bytes")) {
			t.Errorf("ContentHash = %q, want v2 hash", after.ContentHash)
		}
	})

	t.Run("mutated content with fullpath strategy is reported unchanged", func(t *testing.T) {
		f := newFixture(t)
		f.fs.AddFile("/photos/a.jpg", []byte("v1"))
		f.index(t, "/photos/a.jpg", photosOpts())

		f.fs.SetContent("/photos/a.jpg", []byte("v2"))
		opts := photosOpts()
		opts.Strategy = mdx.CheckStrategy{mdx.CheckFullpath}
		report := f.index(t, "/photos/a.jpg", opts)

		if report.Skipped != 1 || report.SkipReasons["already_indexed_by_fullpath"] != 1 {
			t.Fatalf("report = %s", report.Summary())
		}

		rec, err := f.store.FindByPath("/photos/a.jpg")
		if err != nil {
			t.Fatal(err)
		}
		if rec.ContentHash != testutil.SHA256Hex([]byte("v1")) {
			t.Errorf("stored hash mutated under path-only check: %q", rec.ContentHash)
		}
	})

	t.Run("directory batch", func(t *testing.T) {
		f := newFixture(t)
		f.fs.AddDirectory("/photos")
		f.fs.AddFile("/photos/a.jpg", []byte("a"))
		f.fs.AddFile("/photos/b.mov", []byte("b"))
		f.fs.AddFile("/photos/c.dng", []byte("c"))
		f.fs.AddFile("/photos/notes.txt", []byte("n"))

		report := f.index(t, "/photos", photosOpts())
		if report.Added != 3 {
			t.Errorf("Added = %d, want 3", report.Added)
		}
		if report.Skipped != 1 || report.SkipReasons["not_media"] != 1 {
			t.Errorf("report = %s", report.Summary())
		}
	})

	t.Run("filtered files are skipped and recorded", func(t *testing.T) {
		f := newFixture(t)
		f.fs.AddFile("/photos/draft.jpg", []byte("d"))

		filter, err := mdx.NewFilter(nil, mdx.LiteralPatterns([]string{"draft"}))
		if err != nil {
			t.Fatal(err)
		}
		opts := photosOpts()
		opts.Filter = filter
		report := f.index(t, "/photos/draft.jpg", opts)

		if report.Skipped != 1 || report.SkipReasons["filtered"] != 1 {
			t.Fatalf("report = %s", report.Summary())
		}
		skips, err := f.store.ListSkips(5)
		if err != nil {
			t.Fatal(err)
		}
		if len(skips) != 1 || skips[0].Reason != "filtered" {
			t.Errorf("skips = %+v", skips)
		}
	})

	t.Run("file deleted mid-batch does not abort the run", func(t *testing.T) {
		f := newFixture(t)
		f.fs.AddDirectory("/photos")
		for i := 1; i <= 5; i++ {
			f.fs.AddFile(fmt.Sprintf("/photos/%d.jpg", i), []byte(fmt.Sprintf("file %d", i)))
		}
		vanishing := &vanishingFS{
			MockFilesystemManager: f.fs,
			removePath:            "/photos/3.jpg",
		}
		service := mdx.NewIndexService(f.store, vanishing, f.extractor,
			mdx.NewNopLogger(), f.clock, testutil.NewStubIDGenerator())

		report, err := service.IndexPath(f.resolve(t, "/photos"), photosOpts())
		if err != nil {
			t.Fatalf("IndexPath() error = %v", err)
		}

		if report.Added != 4 {
			t.Errorf("Added = %d, want 4", report.Added)
		}
		if report.SkipReasons["file_not_found"] != 1 {
			t.Errorf("skip reasons = %v", report.SkipReasons)
		}
		if rec, _ := f.store.FindByPath("/photos/3.jpg"); rec != nil {
			t.Error("vanished file was indexed")
		}
		if rec, _ := f.store.FindByPath("/photos/5.jpg"); rec == nil {
			t.Error("file after the vanished one was not indexed")
		}
	})

	t.Run("extraction failure still indexes the file", func(t *testing.T) {
		f := newFixture(t)
		f.fs.AddFile("/photos/a.jpg", []byte("v1"))
		// No canned metadata: the stub extractor reports failure.

		report := f.index(t, "/photos/a.jpg", photosOpts())
		if report.Added != 1 {
			t.Fatalf("report = %s", report.Summary())
		}
		if report.ExtractionFailures != 1 {
			t.Errorf("ExtractionFailures = %d, want 1", report.ExtractionFailures)
		}

		rec, err := f.store.FindByPath("/photos/a.jpg")
		if err != nil {
			t.Fatal(err)
		}
		meta, err := f.store.GetMetadata(rec.ID)
		if err != nil {
			t.Fatal(err)
		}
		if meta != nil {
			t.Errorf("metadata = %+v, want none", meta)
		}
	})

	t.Run("dry run writes nothing", func(t *testing.T) {
		f := newFixture(t)
		f.fs.AddDirectory("/photos")
		f.fs.AddFile("/photos/a.jpg", []byte("a"))
		f.fs.AddFile("/photos/notes.txt", []byte("n"))

		opts := photosOpts()
		opts.DryRun = true
		report := f.index(t, "/photos", opts)

		if report.Added != 1 || report.Skipped != 1 {
			t.Fatalf("dry run report = %s", report.Summary())
		}
		if rec, _ := f.store.FindByPath("/photos/a.jpg"); rec != nil {
			t.Error("dry run inserted a record")
		}
		if skips, _ := f.store.ListSkips(5); len(skips) != 0 {
			t.Errorf("dry run recorded %d skips", len(skips))
		}
	})

	t.Run("walk options bound the batch", func(t *testing.T) {
		f := newFixture(t)
		f.fs.AddDirectory("/photos")
		f.fs.AddFile("/photos/a.jpg", []byte("a"))
		f.fs.AddFile("/photos/b.jpg", []byte("b"))
		f.fs.AddFile("/photos/deep/c.jpg", []byte("c"))

		opts := photosOpts()
		opts.MaxDepth = 1
		opts.Limit = 1
		report := f.index(t, "/photos", opts)

		if len(report.Outcomes) != 1 {
			t.Errorf("processed %d files, want 1", len(report.Outcomes))
		}
		if report.Outcomes[0].Fullpath != "/photos/a.jpg" {
			t.Errorf("processed %q, want lexical first", report.Outcomes[0].Fullpath)
		}
	})
}

// vanishingFS lists everything the real mock has, then removes one path,
// simulating a file deleted between discovery and read.
type vanishingFS struct {
	*testutil.MockFilesystemManager
	removePath string
}

func (v *vanishingFS) FindFiles(path *mdx.Path, opts mdx.WalkOptions) ([]*mdx.Path, error) {
	paths, err := v.MockFilesystemManager.FindFiles(path, opts)
	if err != nil {
		return nil, err
	}
	v.RemoveFile(v.removePath)
	return paths, nil
}

func TestIndexService_Reprocess(t *testing.T) {
	t.Run("not indexed", func(t *testing.T) {
		f := newFixture(t)
		f.fs.AddFile("/photos/never_indexed.jpg", []byte("x"))

		_, err := f.service.Reprocess(f.resolve(t, "/photos/never_indexed.jpg"))
		if !errors.Is(err, mdx.ErrNotIndexed) {
			t.Fatalf("Reprocess() error = %v, want ErrNotIndexed", err)
		}
		if rec, _ := f.store.FindByPath("/photos/never_indexed.jpg"); rec != nil {
			t.Error("reprocess of unindexed file touched the store")
		}
	})

	t.Run("updates after external mutation", func(t *testing.T) {
		f := newFixture(t)
		f.fs.AddFile("/photos/a.jpg", []byte("v1"))
		f.index(t, "/photos/a.jpg", photosOpts())

		before, err := f.store.FindByPath("/photos/a.jpg")
		if err != nil {
			t.Fatal(err)
		}

		f.fs.SetContent("/photos/a.jpg", []byte("rotated by exiftool"))
		out, err := f.service.Reprocess(f.resolve(t, "/photos/a.jpg"))
		if err != nil {
			t.Fatalf("Reprocess() error = %v", err)
		}
		if out.Kind != mdx.OutcomeUpdated {
			t.Errorf("Kind = %v, want updated", out.Kind)
		}

		after, err := f.store.FindByPath("/photos/a.jpg")
		if err != nil {
			t.Fatal(err)
		}
		if after.ID != before.ID {
			t.Errorf("reprocess changed row identity: %q -> %q", before.ID, after.ID)
		}
		if after.Volume != before.Volume {
			t.Errorf("reprocess changed volume: %q -> %q", before.Volume, after.Volume)
		}
		if after.ContentHash != testutil.SHA256Hex([]byte("rotated by exiftool")) {
			t.Errorf("ContentHash = %q", after.ContentHash)
		}
	})

	t.Run("unchanged content is a no-op skip", func(t *testing.T) {
		f := newFixture(t)
		f.fs.AddFile("/photos/a.jpg", []byte("v1"))
		f.index(t, "/photos/a.jpg", photosOpts())

		out, err := f.service.Reprocess(f.resolve(t, "/photos/a.jpg"))
		if err != nil {
			t.Fatalf("Reprocess() error = %v", err)
		}
		if out.Kind != mdx.OutcomeSkipped || out.SkipReason != "already_indexed_by_content_hash" {
			t.Errorf("outcome = %+v", out)
		}
	})

	t.Run("repeated mutation converges to one row", func(t *testing.T) {
		f := newFixture(t)
		f.fs.AddFile("/photos/a.jpg", []byte("v0"))
		f.index(t, "/photos/a.jpg", photosOpts())

		original, err := f.store.FindByPath("/photos/a.jpg")
		if err != nil {
			t.Fatal(err)
		}

		var last []byte
		for i := 1; i <= 10; i++ {
			last = []byte(fmt.Sprintf("version %d", i))
			f.fs.SetContent("/photos/a.jpg", last)
			out, err := f.service.Reprocess(f.resolve(t, "/photos/a.jpg"))
			if err != nil {
				t.Fatalf("Reprocess() #%d error = %v", i, err)
			}
			if out.Kind != mdx.OutcomeUpdated {
				t.Fatalf("Reprocess() #%d outcome = %v, want updated", i, out.Kind)
			}
		}

		rec, err := f.store.FindByPath("/photos/a.jpg")
		if err != nil {
			t.Fatal(err)
		}
		if rec.ID != original.ID {
			t.Errorf("id drifted: %q -> %q", original.ID, rec.ID)
		}
		if rec.ContentHash != testutil.SHA256Hex(last) {
			t.Errorf("ContentHash = %q, want hash of last version", rec.ContentHash)
		}
	})
}
