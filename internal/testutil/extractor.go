package testutil

import (
	"mdx-go/internal/mdx"
	"mdx-go/internal/model"
)

// StubExtractor returns canned metadata keyed by path. Paths with no entry
// report "no metadata," like a failing external tool would.
type StubExtractor struct {
	Metadata map[string]*model.Metadata
	// Calls records every extracted path in order.
	Calls []string
}

// NewStubExtractor creates an empty StubExtractor.
func NewStubExtractor() *StubExtractor {
	return &StubExtractor{Metadata: make(map[string]*model.Metadata)}
}

// Add registers canned metadata for a path.
func (e *StubExtractor) Add(path string, meta *model.Metadata) {
	e.Metadata[path] = meta
}

func (e *StubExtractor) Extract(path string) (*model.Metadata, bool) {
	e.Calls = append(e.Calls, path)
	meta, ok := e.Metadata[path]
	return meta, ok
}

// Compile-time check
var _ mdx.Extractor = (*StubExtractor)(nil)
