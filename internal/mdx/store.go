package mdx

import (
	"time"

	"mdx-go/internal/model"
)

// Store provides an interface for index persistence operations.
// Find* methods return (nil, nil) when no matching record exists.
// When multiple stored rows satisfy a criterion, any one of them may be
// returned; callers must not assume a particular winner.
type Store interface {
	// Lookup by individual check criteria (Resolver).

	// FindByPath returns a record whose fullpath matches exactly,
	// regardless of volume.
	FindByPath(fullpath string) (*model.MediaRecord, error)

	// FindByPathVolume returns the record for the (fullpath, volume)
	// natural key. This is also the Writer's update-vs-insert lookup.
	FindByPathVolume(fullpath, volume string) (*model.MediaRecord, error)

	// FindByHash returns a record whose content hash matches.
	FindByHash(hash string) (*model.MediaRecord, error)

	// FindBySize returns a record with the same byte size.
	FindBySize(size int64) (*model.MediaRecord, error)

	// FindByModifiedAt returns a record with the same filesystem mtime.
	FindByModifiedAt(t time.Time) (*model.MediaRecord, error)

	// Record mutation (Writer).

	// InsertRecord creates a new record and its metadata row (if meta is
	// non-nil) in a single transaction. The record's ID must be set.
	InsertRecord(rec *model.MediaRecord, meta *model.Metadata) error

	// UpdateRecord updates the mutable fields of an existing record by ID
	// and replaces its metadata wholesale in a single transaction.
	// A nil meta clears any previously stored metadata.
	UpdateRecord(rec *model.MediaRecord, meta *model.Metadata) error

	// GetMetadata returns the metadata row for a record, or (nil, nil).
	GetMetadata(fileID string) (*model.Metadata, error)

	// Skip bookkeeping. Write-only for the core; exists for observability.

	RecordSkip(fullpath, reason string, at time.Time) error

	// Operation audit trail.

	CreateIndexOperation(operation, parameters string) (*model.IndexOperation, error)
	FinishIndexOperation(id int64, status string) error
	ListIndexOperations(limit int) ([]*model.IndexOperation, error)

	// Close closes the store connection.
	Close() error
}
