package mdx

import (
	"fmt"

	"mdx-go/internal/model"
)

// OutcomeKind classifies what the Writer did with one candidate.
type OutcomeKind int

const (
	OutcomeInserted OutcomeKind = iota
	OutcomeUpdated
	OutcomeSkipped
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeInserted:
		return "inserted"
	case OutcomeUpdated:
		return "updated"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "invalid"
	}
}

// Outcome reports the per-file result of a pipeline run.
type Outcome struct {
	Fullpath   string
	Kind       OutcomeKind
	SkipReason string // set only when Kind is OutcomeSkipped
}

// Writer commits a resolved candidate to the store.
//
// In dry-run mode all store writes are suppressed but the outcome is still
// computed and reported, so a dry run shows exactly what a real run would
// do.
type Writer struct {
	store  Store
	clock  Clock
	idgen  IDGenerator
	dryRun bool
}

// NewWriter creates a Writer. Set dryRun to suppress all store writes.
func NewWriter(store Store, clock Clock, idgen IDGenerator, dryRun bool) *Writer {
	return &Writer{store: store, clock: clock, idgen: idgen, dryRun: dryRun}
}

// Commit performs the insert/update/skip decision for one candidate.
func (w *Writer) Commit(c *Candidate, res Resolution) (Outcome, error) {
	switch res.Kind {
	case ResolutionNew:
		rec := w.recordFromCandidate(c)
		rec.ID = w.idgen.New()
		if !w.dryRun {
			if err := w.store.InsertRecord(rec, c.Meta); err != nil {
				return Outcome{}, fmt.Errorf("inserting record for %s: %w", c.Fullpath, err)
			}
		}
		return Outcome{Fullpath: c.Fullpath, Kind: OutcomeInserted}, nil

	case ResolutionStale:
		rec := w.recordFromCandidate(c)
		rec.ID = res.ExistingID
		if !w.dryRun {
			if err := w.store.UpdateRecord(rec, c.Meta); err != nil {
				return Outcome{}, fmt.Errorf("updating record for %s: %w", c.Fullpath, err)
			}
		}
		return Outcome{Fullpath: c.Fullpath, Kind: OutcomeUpdated}, nil

	case ResolutionUnchanged:
		reason := res.MatchedBy.skipReason()
		if !w.dryRun {
			if err := w.store.RecordSkip(c.Fullpath, reason, w.clock.Now()); err != nil {
				return Outcome{}, fmt.Errorf("recording skip for %s: %w", c.Fullpath, err)
			}
		}
		return Outcome{Fullpath: c.Fullpath, Kind: OutcomeSkipped, SkipReason: reason}, nil

	default:
		return Outcome{}, fmt.Errorf("invalid resolution kind: %d", res.Kind)
	}
}

func (w *Writer) recordFromCandidate(c *Candidate) *model.MediaRecord {
	return &model.MediaRecord{
		Volume:      c.Volume,
		Fullpath:    c.Fullpath,
		MediaType:   c.MediaType,
		ContentHash: c.ContentHash,
		Size:        c.Size,
		ModifiedAt:  c.ModifiedAt,
		IndexedAt:   w.clock.Now(),
	}
}
