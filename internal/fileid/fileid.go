// Package fileid fingerprints import files by content so an unchanged file is not imported twice.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

const prefix = "sha256:"

// Fingerprint returns a stable ID for the content of the file at path.
// Files with identical bytes yield the same ID regardless of name or mtime.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", path, err)
	}
	defer f.Close()
	return FingerprintReader(f)
}

// FingerprintReader returns the ID for everything read from r.
func FingerprintReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return prefix + hex.EncodeToString(h.Sum(nil)), nil
}
