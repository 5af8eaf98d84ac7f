package mdx_test

import (
	"reflect"
	"testing"
	"time"

	"mdx-go/internal/mdx"
	"mdx-go/internal/model"
	"mdx-go/internal/testutil"
)

func TestParseCheckStrategy(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    mdx.CheckStrategy
		wantErr bool
	}{
		{
			name:  "empty yields default",
			input: "",
			want:  mdx.DefaultCheckStrategy,
		},
		{
			name:  "whitespace yields default",
			input: "   ",
			want:  mdx.DefaultCheckStrategy,
		},
		{
			name:  "single field",
			input: "fullpath",
			want:  mdx.CheckStrategy{mdx.CheckFullpath},
		},
		{
			name:  "multiple fields keep order",
			input: "size,hash,mtime",
			want:  mdx.CheckStrategy{mdx.CheckSize, mdx.CheckContentHash, mdx.CheckModifiedTime},
		},
		{
			name:  "spaces around fields",
			input: " hash , volume ",
			want:  mdx.CheckStrategy{mdx.CheckContentHash, mdx.CheckFullpathVolume},
		},
		{
			name:    "unknown field",
			input:   "hash,md5",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mdx.ParseCheckStrategy(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseCheckStrategy(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCheckStrategy(%q) error = %v", tt.input, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseCheckStrategy(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func storedRecord(id string) *model.MediaRecord {
	return &model.MediaRecord{
		ID:          id,
		Volume:      "Photos",
		Fullpath:    "/photos/a.jpg",
		MediaType:   "image",
		ContentHash: "hash-v1",
		Size:        100,
		ModifiedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		IndexedAt:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

func candidateFor(rec *model.MediaRecord) *mdx.Candidate {
	return &mdx.Candidate{
		Fullpath:    rec.Fullpath,
		Volume:      rec.Volume,
		MediaType:   rec.MediaType,
		ContentHash: rec.ContentHash,
		Size:        rec.Size,
		ModifiedAt:  rec.ModifiedAt,
	}
}

func TestResolver_Resolve(t *testing.T) {
	t.Run("empty store is new", func(t *testing.T) {
		store := testutil.NewTestStore(t)
		r := mdx.NewResolver(store)

		res, err := r.Resolve(candidateFor(storedRecord("id-1")), mdx.DefaultCheckStrategy)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if res.Kind != mdx.ResolutionNew {
			t.Errorf("Kind = %v, want new", res.Kind)
		}
	})

	t.Run("hash match is unchanged", func(t *testing.T) {
		store := testutil.NewTestStore(t)
		if err := store.InsertRecord(storedRecord("id-1"), nil); err != nil {
			t.Fatal(err)
		}
		r := mdx.NewResolver(store)

		c := candidateFor(storedRecord("id-1"))
		res, err := r.Resolve(c, mdx.CheckStrategy{mdx.CheckContentHash})
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if res.Kind != mdx.ResolutionUnchanged {
			t.Errorf("Kind = %v, want unchanged", res.Kind)
		}
		if res.MatchedBy != mdx.CheckContentHash {
			t.Errorf("MatchedBy = %v, want hash", res.MatchedBy)
		}
	})

	t.Run("changed content under hash strategy is stale", func(t *testing.T) {
		store := testutil.NewTestStore(t)
		if err := store.InsertRecord(storedRecord("id-1"), nil); err != nil {
			t.Fatal(err)
		}
		r := mdx.NewResolver(store)

		c := candidateFor(storedRecord("id-1"))
		c.ContentHash = "hash-v2"
		c.Size = 200
		res, err := r.Resolve(c, mdx.CheckStrategy{mdx.CheckContentHash})
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if res.Kind != mdx.ResolutionStale {
			t.Errorf("Kind = %v, want stale", res.Kind)
		}
		if res.ExistingID != "id-1" {
			t.Errorf("ExistingID = %q, want id-1", res.ExistingID)
		}
	})

	t.Run("changed content under fullpath strategy is unchanged", func(t *testing.T) {
		// The classic pitfall: a path-only check cannot see content
		// mutation, so the stale record is reported as already indexed.
		store := testutil.NewTestStore(t)
		if err := store.InsertRecord(storedRecord("id-1"), nil); err != nil {
			t.Fatal(err)
		}
		r := mdx.NewResolver(store)

		c := candidateFor(storedRecord("id-1"))
		c.ContentHash = "hash-v2"
		res, err := r.Resolve(c, mdx.CheckStrategy{mdx.CheckFullpath})
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if res.Kind != mdx.ResolutionUnchanged {
			t.Errorf("Kind = %v, want unchanged", res.Kind)
		}
		if res.MatchedBy != mdx.CheckFullpath {
			t.Errorf("MatchedBy = %v, want fullpath", res.MatchedBy)
		}
	})

	t.Run("first matching field wins", func(t *testing.T) {
		store := testutil.NewTestStore(t)
		if err := store.InsertRecord(storedRecord("id-1"), nil); err != nil {
			t.Fatal(err)
		}
		r := mdx.NewResolver(store)

		c := candidateFor(storedRecord("id-1"))
		res, err := r.Resolve(c, mdx.CheckStrategy{mdx.CheckSize, mdx.CheckContentHash})
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if res.MatchedBy != mdx.CheckSize {
			t.Errorf("MatchedBy = %v, want size (first in strategy order)", res.MatchedBy)
		}
	})

	t.Run("volume strategy scopes the path check", func(t *testing.T) {
		store := testutil.NewTestStore(t)
		if err := store.InsertRecord(storedRecord("id-1"), nil); err != nil {
			t.Fatal(err)
		}
		r := mdx.NewResolver(store)

		c := candidateFor(storedRecord("id-1"))
		c.Volume = "Archive"
		c.ContentHash = "other-hash"
		res, err := r.Resolve(c, mdx.CheckStrategy{mdx.CheckFullpathVolume})
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		// Same path exists but only under volume Photos, so this is a
		// new record for Archive.
		if res.Kind != mdx.ResolutionNew {
			t.Errorf("Kind = %v, want new", res.Kind)
		}
	})

	t.Run("empty strategy falls back to default", func(t *testing.T) {
		store := testutil.NewTestStore(t)
		if err := store.InsertRecord(storedRecord("id-1"), nil); err != nil {
			t.Fatal(err)
		}
		r := mdx.NewResolver(store)

		res, err := r.Resolve(candidateFor(storedRecord("id-1")), nil)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if res.Kind != mdx.ResolutionUnchanged || res.MatchedBy != mdx.CheckContentHash {
			t.Errorf("Resolve() = %+v, want unchanged by hash", res)
		}
	})
}
