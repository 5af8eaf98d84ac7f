package mdx

import (
	"io"
	"io/fs"
)

// WalkOptions controls file discovery during a batch index.
// Depth and limit are enforced during traversal, not per file:
// traversal stops early once the limit is reached.
type WalkOptions struct {
	// Filter decides which discovered paths become candidates.
	// A nil filter includes everything.
	Filter *Filter

	// MaxDepth limits how deep traversal descends below the root.
	// Depth 1 means files directly under the root. Zero or negative
	// means unlimited.
	MaxDepth int

	// Limit caps the number of returned paths. Zero or negative means
	// unlimited.
	Limit int
}

// FilesystemManager abstracts filesystem access for the indexing pipeline
// so tests can run against an in-memory implementation.
type FilesystemManager interface {
	// Resolve validates a raw path and returns a Path with cached stat info.
	Resolve(rawPath string) (*Path, error)

	// Open opens a file for reading.
	Open(path *Path) (io.ReadCloser, error)

	// Stat returns fresh file info for a path.
	Stat(path *Path) (fs.FileInfo, error)

	// FindFiles discovers regular files under the given directory path,
	// applying the walk options.
	FindFiles(path *Path, opts WalkOptions) ([]*Path, error)
}
