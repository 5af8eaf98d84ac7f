package mdx

import (
	"fmt"

	"mdx-go/internal/mediatype"
)

// IndexService is the orchestration layer that runs the indexing pipeline:
// classify, fingerprint, extract, resolve, commit. One file is fully
// processed before the next is considered; there is no shared mutable
// state beyond the single store connection.
type IndexService struct {
	store     Store
	fsmgr     FilesystemManager
	extractor Extractor
	resolver  *Resolver
	logger    Logger
	clock     Clock
	idgen     IDGenerator
}

// NewIndexService creates a new IndexService with the provided dependencies.
func NewIndexService(store Store, fsmgr FilesystemManager, extractor Extractor, logger Logger, clock Clock, idgen IDGenerator) *IndexService {
	return &IndexService{
		store:     store,
		fsmgr:     fsmgr,
		extractor: extractor,
		resolver:  NewResolver(store),
		logger:    logger,
		clock:     clock,
		idgen:     idgen,
	}
}

// IndexOptions configures one indexing run.
type IndexOptions struct {
	// Volume is the logical namespace records are indexed under. Required.
	Volume string
	// Filter decides which paths are considered. Nil includes everything.
	Filter *Filter
	// Strategy selects the existing-record check. Empty means
	// DefaultCheckStrategy.
	Strategy CheckStrategy
	// DryRun suppresses all store writes while still computing and
	// reporting what would happen.
	DryRun bool
	// MaxDepth and Limit bound directory traversal. Zero means unlimited.
	MaxDepth int
	Limit    int
}

// IndexPath runs the pipeline for a single file or for every candidate
// file under a directory.
//
// Per-file failures (unreadable file, constraint violation on one row)
// are downgraded to skip entries so one bad file never aborts the batch.
// Store read errors propagate and terminate the batch: if lookups fail,
// the connection is assumed unusable.
func (s *IndexService) IndexPath(path *Path, opts IndexOptions) (*Report, error) {
	if opts.Volume == "" {
		return nil, fmt.Errorf("volume is required")
	}

	writer := NewWriter(s.store, s.clock, s.idgen, opts.DryRun)
	report := NewReport()

	if !path.IsDir() {
		if err := s.indexOne(path, opts, writer, report); err != nil {
			return report, err
		}
		return report, nil
	}

	files, err := s.fsmgr.FindFiles(path, WalkOptions{
		Filter:   opts.Filter,
		MaxDepth: opts.MaxDepth,
		Limit:    opts.Limit,
	})
	if err != nil {
		return report, fmt.Errorf("finding files: %w", err)
	}

	for _, f := range files {
		if err := s.indexOne(f, opts, writer, report); err != nil {
			return report, err
		}
	}

	s.logger.Info("index complete",
		"added", report.Added,
		"updated", report.Updated,
		"skipped", report.Skipped,
	)
	return report, nil
}

// Reprocess re-runs the pipeline for exactly one already-indexed file,
// typically after an external tool mutated its bytes.
//
// The file's volume is resolved from the store by fullpath; callers must
// not pass an invented one. The check strategy is forced to content hash
// (never fullpath) so the changed content is classified stale, while the
// writer's (fullpath, volume) identity lookup still updates the
// pre-existing row instead of inserting a duplicate.
func (s *IndexService) Reprocess(path *Path) (Outcome, error) {
	rec, err := s.store.FindByPath(path.String())
	if err != nil {
		return Outcome{}, fmt.Errorf("looking up %s: %w", path.String(), err)
	}
	if rec == nil {
		return Outcome{}, fmt.Errorf("%s: %w", path.String(), ErrNotIndexed)
	}

	opts := IndexOptions{
		Volume:   rec.Volume,
		Strategy: CheckStrategy{CheckContentHash},
	}
	writer := NewWriter(s.store, s.clock, s.idgen, false)
	report := NewReport()

	if err := s.indexOne(path, opts, writer, report); err != nil {
		return Outcome{}, err
	}
	return report.Outcomes[len(report.Outcomes)-1], nil
}

// indexOne pushes a single file through the full pipeline and records the
// outcome in the report. Only store read errors are returned; everything
// else that can go wrong with this one file becomes a skip.
func (s *IndexService) indexOne(path *Path, opts IndexOptions, writer *Writer, report *Report) error {
	fullpath := path.String()

	if !opts.Filter.Match(fullpath) {
		report.add(s.skip(fullpath, ReasonFiltered, opts.DryRun))
		return nil
	}

	mt := mediatype.ForPath(fullpath)
	if !mt.IsMedia() {
		report.add(s.skip(fullpath, ReasonNotMedia, opts.DryRun))
		return nil
	}

	rc, err := s.fsmgr.Open(path)
	if err != nil {
		s.logger.Warn("cannot open file", "path", fullpath, "error", err)
		report.add(s.skip(fullpath, ReasonFileNotFound, opts.DryRun))
		return nil
	}
	hash, err := Fingerprint(rc)
	rc.Close()
	if err != nil {
		s.logger.Warn("cannot read file", "path", fullpath, "error", err)
		report.add(s.skip(fullpath, ReasonFileNotFound, opts.DryRun))
		return nil
	}

	// Fresh stat: cached info can be stale by the time the file is hashed.
	info, err := s.fsmgr.Stat(path)
	if err != nil {
		s.logger.Warn("cannot stat file", "path", fullpath, "error", err)
		report.add(s.skip(fullpath, ReasonFileNotFound, opts.DryRun))
		return nil
	}

	meta, ok := s.extractor.Extract(fullpath)
	if !ok {
		// Not fatal: the file is still indexed with empty metadata.
		s.logger.Warn("no metadata extracted", "path", fullpath)
		report.ExtractionFailures++
	}

	candidate := &Candidate{
		Fullpath:    fullpath,
		Volume:      opts.Volume,
		MediaType:   string(mt),
		ContentHash: hash,
		Size:        info.Size(),
		ModifiedAt:  info.ModTime(),
		Meta:        meta,
	}

	resolution, err := s.resolver.Resolve(candidate, opts.Strategy)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", fullpath, err)
	}

	outcome, err := writer.Commit(candidate, resolution)
	if err != nil {
		// A bad row is fatal for this file only; the skip is counted but
		// not persisted since the store just refused a write.
		s.logger.Error("commit failed", "path", fullpath, "error", err)
		report.add(Outcome{Fullpath: fullpath, Kind: OutcomeSkipped, SkipReason: ReasonStoreError})
		return nil
	}

	s.logger.Debug("file processed", "path", fullpath, "outcome", outcome.Kind.String())
	report.add(outcome)
	return nil
}

// skip records a skipped path in the store (unless dry-run) and returns
// the outcome. A failed bookkeeping write is logged, never fatal.
func (s *IndexService) skip(fullpath, reason string, dryRun bool) Outcome {
	if !dryRun {
		if err := s.store.RecordSkip(fullpath, reason, s.clock.Now()); err != nil {
			s.logger.Warn("recording skip failed", "path", fullpath, "error", err)
		}
	}
	return Outcome{Fullpath: fullpath, Kind: OutcomeSkipped, SkipReason: reason}
}
