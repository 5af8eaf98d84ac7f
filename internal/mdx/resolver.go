package mdx

import (
	"fmt"
	"strings"
	"time"

	"mdx-go/internal/model"
)

// CheckField is one criterion for matching a candidate against stored
// records.
type CheckField string

const (
	// CheckFullpath matches on fullpath alone, across volumes. This is
	// the legacy check: it reports a file as already indexed even when
	// its bytes have changed. Kept selectable because it is cheap and
	// correct for append-only collections.
	CheckFullpath CheckField = "fullpath"
	// CheckFullpathVolume matches on the (fullpath, volume) natural key.
	CheckFullpathVolume CheckField = "volume"
	// CheckContentHash matches on content hash. This is the only check
	// that detects external content mutation, and the one Reprocess
	// forces.
	CheckContentHash CheckField = "hash"
	// CheckSize matches on byte size.
	CheckSize CheckField = "size"
	// CheckModifiedTime matches on filesystem mtime.
	CheckModifiedTime CheckField = "mtime"
)

// skipReason returns the stable skip token for a match on this field.
func (f CheckField) skipReason() string {
	switch f {
	case CheckFullpath:
		return alreadyIndexedPrefix + "fullpath"
	case CheckFullpathVolume:
		return alreadyIndexedPrefix + "fullpath_volume"
	case CheckContentHash:
		return alreadyIndexedPrefix + "content_hash"
	case CheckSize:
		return alreadyIndexedPrefix + "size"
	case CheckModifiedTime:
		return alreadyIndexedPrefix + "modified_time"
	default:
		return alreadyIndexedPrefix + string(f)
	}
}

// CheckStrategy is an ordered set of check fields combined with OR
// semantics: a match on any configured field counts as "found". Fields
// are tried in order and the first match wins; when different stored
// rows match under different fields the winner is arbitrary among them.
type CheckStrategy []CheckField

// DefaultCheckStrategy detects staleness by content, which is the only
// strategy under which indexing is idempotent across external mutation.
var DefaultCheckStrategy = CheckStrategy{CheckContentHash}

// ParseCheckStrategy parses a comma-separated field list, e.g.
// "hash,fullpath". An empty string yields the default strategy.
func ParseCheckStrategy(s string) (CheckStrategy, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultCheckStrategy, nil
	}
	var strategy CheckStrategy
	for _, part := range strings.Split(s, ",") {
		field := CheckField(strings.TrimSpace(part))
		switch field {
		case CheckFullpath, CheckFullpathVolume, CheckContentHash, CheckSize, CheckModifiedTime:
			strategy = append(strategy, field)
		default:
			return nil, fmt.Errorf("unknown check field: %q", part)
		}
	}
	return strategy, nil
}

func (cs CheckStrategy) String() string {
	parts := make([]string, len(cs))
	for i, f := range cs {
		parts[i] = string(f)
	}
	return strings.Join(parts, ",")
}

// Candidate is one file that passed classification and fingerprinting and
// is ready to be resolved against the store.
type Candidate struct {
	Fullpath    string
	Volume      string
	MediaType   string
	ContentHash string
	Size        int64
	ModifiedAt  time.Time
	Meta        *model.Metadata // nil when extraction yielded nothing
}

// ResolutionKind classifies a candidate relative to the store.
type ResolutionKind int

const (
	// ResolutionNew means no stored record matched: insert.
	ResolutionNew ResolutionKind = iota
	// ResolutionUnchanged means a record matched under the configured
	// strategy: skip, nothing to write.
	ResolutionUnchanged
	// ResolutionStale means the (fullpath, volume) identity row exists
	// but did not match under the strategy: update it in place.
	ResolutionStale
)

func (k ResolutionKind) String() string {
	switch k {
	case ResolutionNew:
		return "new"
	case ResolutionUnchanged:
		return "unchanged"
	case ResolutionStale:
		return "stale"
	default:
		return "invalid"
	}
}

// Resolution is the outcome of resolving one candidate.
type Resolution struct {
	Kind ResolutionKind
	// ExistingID is the row to update in place when Kind is
	// ResolutionStale.
	ExistingID string
	// MatchedBy is the strategy field that matched when Kind is
	// ResolutionUnchanged.
	MatchedBy CheckField
}

// Resolver decides whether a candidate is new, unchanged or stale.
//
// Finding a candidate match (the check strategy) is deliberately decoupled
// from deciding update-vs-insert (the (fullpath, volume) identity lookup).
// That split is what lets Reprocess force a hash-based staleness check and
// still update the correct row by path+volume identity instead of
// inserting a duplicate.
type Resolver struct {
	store Store
}

// NewResolver creates a Resolver backed by the given store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve matches the candidate against the store under the given
// strategy.
func (r *Resolver) Resolve(c *Candidate, strategy CheckStrategy) (Resolution, error) {
	if len(strategy) == 0 {
		strategy = DefaultCheckStrategy
	}

	for _, field := range strategy {
		rec, err := r.findByField(c, field)
		if err != nil {
			return Resolution{}, fmt.Errorf("checking by %s: %w", field, err)
		}
		if rec != nil {
			return Resolution{Kind: ResolutionUnchanged, MatchedBy: field}, nil
		}
	}

	// No match under the strategy. The identity lookup decides whether
	// this is an in-place update or a fresh insert.
	existing, err := r.store.FindByPathVolume(c.Fullpath, c.Volume)
	if err != nil {
		return Resolution{}, fmt.Errorf("identity lookup: %w", err)
	}
	if existing != nil {
		return Resolution{Kind: ResolutionStale, ExistingID: existing.ID}, nil
	}
	return Resolution{Kind: ResolutionNew}, nil
}

func (r *Resolver) findByField(c *Candidate, field CheckField) (*model.MediaRecord, error) {
	switch field {
	case CheckFullpath:
		return r.store.FindByPath(c.Fullpath)
	case CheckFullpathVolume:
		return r.store.FindByPathVolume(c.Fullpath, c.Volume)
	case CheckContentHash:
		return r.store.FindByHash(c.ContentHash)
	case CheckSize:
		return r.store.FindBySize(c.Size)
	case CheckModifiedTime:
		return r.store.FindByModifiedAt(c.ModifiedAt)
	default:
		return nil, fmt.Errorf("unknown check field: %q", field)
	}
}
