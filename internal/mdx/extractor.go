package mdx

import "mdx-go/internal/model"

// Extractor pulls structured metadata tags from a media file.
//
// "No metadata available" is a normal, typed outcome (ok == false), not an
// error: tool failures and unparseable output are downgraded by
// implementations so the file still gets indexed with empty metadata.
type Extractor interface {
	Extract(path string) (meta *model.Metadata, ok bool)
}

// NopExtractor always reports no metadata. Use in tests and when no
// external metadata tool is configured.
type NopExtractor struct{}

func (NopExtractor) Extract(string) (*model.Metadata, bool) { return nil, false }
