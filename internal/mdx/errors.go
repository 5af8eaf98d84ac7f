package mdx

import "errors"

// ErrNotIndexed is returned by Reprocess when the target path has no
// existing record. The store is not touched in that case.
var ErrNotIndexed = errors.New("not indexed, cannot reprocess")

// Skip reason tokens. These are part of the tool's observable output:
// machine consumers rely on them being stable, short and snake_case.
const (
	ReasonFiltered     = "filtered"
	ReasonNotMedia     = "not_media"
	ReasonFileNotFound = "file_not_found"
	ReasonStoreError   = "store_error"

	alreadyIndexedPrefix = "already_indexed_by_"
)
