package model

import (
	"database/sql"
	"time"
)

// MediaRecord represents one indexed file in the store.
// (Fullpath, Volume) is the natural key; ContentHash is the staleness signal.
type MediaRecord struct {
	ID          string // UUID, assigned on insert, immutable
	Volume      string // User-assigned logical namespace, not a filesystem volume
	Fullpath    string // Absolute path where the file was last seen
	MediaType   string // "image", "video" or "raw"
	ContentHash string // SHA-256 of file bytes at last successful read
	Size        int64
	ModifiedAt  time.Time // Filesystem mtime at last successful read
	IndexedAt   time.Time // Last successful write to the store
}

// Metadata holds the canonical extracted tags for a record.
// All fields are optional and are overwritten wholesale on reprocessing.
type Metadata struct {
	Width       sql.NullInt64
	Height      sql.NullInt64
	CapturedAt  sql.NullTime
	CameraMake  sql.NullString
	CameraModel sql.NullString
	Latitude    sql.NullFloat64 // Signed decimal degrees
	Longitude   sql.NullFloat64 // Signed decimal degrees
	PlaceName   sql.NullString
	Keywords    sql.NullString // Comma-joined free text
	Caption     sql.NullString
}

// SkippedFile is a bookkeeping row recording why a path was not (re)indexed.
// The table is write-only from the indexing core's point of view.
type SkippedFile struct {
	ID        int64
	Fullpath  string
	Reason    string // Stable snake_case token, e.g. "already_indexed_by_content_hash"
	SkippedAt time.Time
}

// IndexOperation tracks one CLI invocation that mutated the store.
type IndexOperation struct {
	ID         int64
	Operation  string
	Parameters string
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Status     string // "success" or "error"
}
