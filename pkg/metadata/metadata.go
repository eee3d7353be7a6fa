// Package metadata derives content fingerprints for sitemap documents.
//
// A fingerprint covers everything a crawler would treat as a change of the
// sitemap except lastmod, which moves on every run. Two builds from the same
// input therefore share a fingerprint even when generated on different days.
package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"sitemapgen/internal/models"
)

// ErrHashMismatch is returned when a document does not match the expected fingerprint.
var ErrHashMismatch = errors.New("hash mismatch")

// Fingerprint computes the SHA-256 of the ordered (loc, changefreq, priority) tuples.
func Fingerprint(set *models.URLSet) string {
	h := sha256.New()

	for _, u := range set.URLs {
		// NUL separators keep field boundaries unambiguous.
		_, _ = io.WriteString(h, u.Loc)
		_, _ = h.Write([]byte{0})
		_, _ = io.WriteString(h, string(u.ChangeFreq))
		_, _ = h.Write([]byte{0})
		_, _ = io.WriteString(h, u.Priority.String())
		_, _ = h.Write([]byte{'\n'})
	}

	return hex.EncodeToString(h.Sum(nil))
}

// Verify checks that set matches the expected fingerprint.
func Verify(set *models.URLSet, expected string) error {
	calculated := Fingerprint(set)
	if calculated != expected {
		return fmt.Errorf("%w: expected %s, got %s", ErrHashMismatch, expected, calculated)
	}

	return nil
}

// LastModified returns the lastmod shared by every entry, or "" when the
// document is empty or the dates differ.
func LastModified(set *models.URLSet) string {
	if len(set.URLs) == 0 {
		return ""
	}

	first := set.URLs[0].LastMod
	for _, u := range set.URLs[1:] {
		if u.LastMod != first {
			return ""
		}
	}

	return first
}
