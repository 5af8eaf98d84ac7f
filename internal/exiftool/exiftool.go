// Package exiftool extracts media metadata by shelling out to the
// exiftool binary and normalizing its JSON output into the canonical
// metadata record.
package exiftool

import (
	"database/sql"
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"mdx-go/internal/mdx"
	"mdx-go/internal/model"
)

// DefaultBinary is used when no binary is configured.
const DefaultBinary = "exiftool"

// Extractor shells out to exiftool for each file. A non-zero exit, empty
// stdout or malformed JSON all mean "no metadata available", never an
// error that stops the pipeline.
type Extractor struct {
	binary string
}

// New creates an Extractor invoking the given binary. An empty binary
// falls back to DefaultBinary.
func New(binary string) *Extractor {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Extractor{binary: binary}
}

// Extract runs exiftool against the file and parses its output.
// The -n flag makes exiftool emit numeric values (GPS as signed decimal
// where it can); hemisphere reference tags are still honored for sources
// that emit unsigned coordinates.
func (e *Extractor) Extract(path string) (*model.Metadata, bool) {
	out, err := exec.Command(e.binary, "-json", "-n", path).Output()
	if err != nil || len(out) == 0 {
		return nil, false
	}
	return Parse(out)
}

// Parse converts raw exiftool JSON output (an array with one object of
// tag-name to value pairs) into a canonical Metadata record.
func Parse(out []byte) (*model.Metadata, bool) {
	var objects []map[string]any
	if err := json.Unmarshal(out, &objects); err != nil || len(objects) == 0 {
		return nil, false
	}
	return normalize(objects[0]), true
}

// normalize maps heterogeneous source tag spellings onto the canonical
// schema. Group prefixes ("EXIF:ImageWidth", "Composite:GPSLatitude") are
// stripped so multiple spellings of the same concept collapse onto one
// name; for each concept the first spelling in the alias list wins.
func normalize(raw map[string]any) *model.Metadata {
	tags := make(map[string]any, len(raw))
	for key, value := range raw {
		if i := strings.LastIndex(key, ":"); i >= 0 {
			key = key[i+1:]
		}
		if _, exists := tags[key]; !exists {
			tags[key] = value
		}
	}

	meta := &model.Metadata{}
	meta.Width = intTag(tags, "ImageWidth", "ExifImageWidth")
	meta.Height = intTag(tags, "ImageHeight", "ExifImageHeight")
	meta.CapturedAt = timeTag(tags, "DateTimeOriginal", "CreateDate", "MediaCreateDate")
	meta.CameraMake = stringTag(tags, "Make")
	meta.CameraModel = stringTag(tags, "Model")
	meta.Latitude = gpsTag(tags, "GPSLatitude", "GPSLatitudeRef", "S")
	meta.Longitude = gpsTag(tags, "GPSLongitude", "GPSLongitudeRef", "W")
	meta.PlaceName = stringTag(tags, "City", "Location", "Sub-location")
	meta.Keywords = listTag(tags, "Keywords", "Subject")
	meta.Caption = stringTag(tags, "Caption-Abstract", "ImageDescription", "Description")
	return meta
}

// exifTimeLayouts are the timestamp formats exiftool emits, tried in order.
var exifTimeLayouts = []string{
	"2006:01:02 15:04:05-07:00",
	"2006:01:02 15:04:05Z",
	"2006:01:02 15:04:05",
}

func stringTag(tags map[string]any, names ...string) sql.NullString {
	for _, name := range names {
		if s, ok := tags[name].(string); ok && s != "" {
			return sql.NullString{String: s, Valid: true}
		}
	}
	return sql.NullString{}
}

func intTag(tags map[string]any, names ...string) sql.NullInt64 {
	for _, name := range names {
		switch v := tags[name].(type) {
		case float64:
			return sql.NullInt64{Int64: int64(v), Valid: true}
		case string:
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return sql.NullInt64{Int64: n, Valid: true}
			}
		}
	}
	return sql.NullInt64{}
}

func floatValue(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func timeTag(tags map[string]any, names ...string) sql.NullTime {
	for _, name := range names {
		s, ok := tags[name].(string)
		if !ok || s == "" {
			continue
		}
		for _, layout := range exifTimeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return sql.NullTime{Time: t, Valid: true}
			}
		}
	}
	return sql.NullTime{}
}

// gpsTag reads a coordinate and applies the hemisphere reference: a
// negativeRef value ("S" or "W") flips the sign of an unsigned coordinate.
// Already-signed coordinates are passed through untouched.
func gpsTag(tags map[string]any, name, refName, negativeRef string) sql.NullFloat64 {
	v, ok := floatValue(tags[name])
	if !ok {
		return sql.NullFloat64{}
	}
	if ref, ok := tags[refName].(string); ok {
		if strings.HasPrefix(strings.ToUpper(ref), negativeRef) && v > 0 {
			v = -v
		}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// listTag joins a string-or-array tag into a comma-separated string.
func listTag(tags map[string]any, names ...string) sql.NullString {
	for _, name := range names {
		switch v := tags[name].(type) {
		case string:
			if v != "" {
				return sql.NullString{String: v, Valid: true}
			}
		case []any:
			var parts []string
			for _, item := range v {
				if s, ok := item.(string); ok && s != "" {
					parts = append(parts, s)
				}
			}
			if len(parts) > 0 {
				return sql.NullString{String: strings.Join(parts, ", "), Valid: true}
			}
		}
	}
	return sql.NullString{}
}

// Compile-time check that Extractor implements mdx.Extractor
var _ mdx.Extractor = (*Extractor)(nil)
