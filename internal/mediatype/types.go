// Package mediatype classifies file paths into broad media categories
// by extension. Classification is purely lexical; no file contents are read.
package mediatype

import (
	"path/filepath"
	"strings"
)

// Type is the broad category of a media file.
type Type string

const (
	// Image is a processed raster image (JPEG, PNG, HEIC, ...).
	Image Type = "image"
	// Video is a video container format.
	Video Type = "video"
	// Raw is an unprocessed camera sensor format.
	Raw Type = "raw"
	// Unknown is any extension the indexer does not handle.
	Unknown Type = "unknown"
)

// imageExtensions maps file extensions to whether they are indexed as images.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
	".heic": true,
	".heif": true,
	".hif":  true,
}

// videoExtensions maps file extensions to whether they are indexed as videos.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".mkv":  true,
	".m4v":  true,
	".mpeg": true,
	".mpg":  true,
	".wmv":  true,
	".webm": true,
	".3gp":  true,
}

// rawExtensions maps camera raw extensions to whether they are indexed.
var rawExtensions = map[string]bool{
	".dng": true, // Adobe Digital Negative
	".arw": true, // Sony
	".cr2": true, // Canon
	".cr3": true, // Canon
	".nef": true, // Nikon
	".raf": true, // Fujifilm
	".orf": true, // Olympus
	".rw2": true, // Panasonic
}

// ForPath returns the Type for a file path based on its extension.
// Matching is case-insensitive. Returns Unknown for unrecognized extensions.
func ForPath(path string) Type {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case imageExtensions[ext]:
		return Image
	case videoExtensions[ext]:
		return Video
	case rawExtensions[ext]:
		return Raw
	default:
		return Unknown
	}
}

// IsMedia reports whether t is a type the indexer handles.
func (t Type) IsMedia() bool {
	return t == Image || t == Video || t == Raw
}
