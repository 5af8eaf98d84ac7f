package mdx

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// fingerprintChunkSize is the read buffer size used when hashing.
// Files are streamed, never loaded into memory whole.
const fingerprintChunkSize = 64 * 1024

// Fingerprint computes the SHA-256 content hash of r as a lowercase hex
// string. Identical bytes always yield an identical hash regardless of
// path or metadata.
func Fingerprint(r io.Reader) (string, error) {
	h := sha256.New()
	buf := make([]byte, fingerprintChunkSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", fmt.Errorf("hashing content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
