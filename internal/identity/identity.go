// Package identity derives the stable, short, legacy, and revision ids
// that make up a WorkbookId alias family, grounded on the
// deterministic hash derivation style of tk's internal/store/id.go
// (one small, doc-commented, independently-testable function per
// derivation) but using content/path hashing instead of UUIDv7, since
// workbook identity must survive process restarts without a generated
// random component.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"
)

// StableID hashes a canonical path into the workbook's stable id. The
// stable id is invariant under content mutation: it depends only on the
// path string.
func StableID(canonicalPath string) string {
	return hashHex("path", canonicalPath)
}

// VirtualStableID hashes a virtual-workspace key into a stable id using
// the "virtual/" namespace prefix so virtual and path-backed ids never
// collide.
func VirtualStableID(key string) string {
	return hashHex("path", "virtual/"+key)
}

// LegacyID hashes a path together with size and modification time,
// kept only so stale aliases captured before a content change still
// resolve during the transition window. Never used as the canonical
// identity.
func LegacyID(path string, size int64, modTime time.Time) string {
	payload := fmt.Sprintf("%s|%d|%d", path, size, modTime.UnixNano())

	return hashHex("legacy", payload)
}

// RevisionID returns the SHA-256 hex digest of r's bytes. Revision
// changes iff content bytes change.
func RevisionID(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("identity: hash revision: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// RevisionIDOfFile computes RevisionID over a file's current contents.
func RevisionIDOfFile(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled and already boundary-checked
	if err != nil {
		return "", fmt.Errorf("identity: open for revision: %w", err)
	}
	defer func() { _ = f.Close() }()

	return RevisionID(f)
}

// RevisionIDOfBytes computes RevisionID over an in-memory byte buffer,
// used by the virtual workspace repository.
func RevisionIDOfBytes(data []byte) string {
	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:])
}

const shortHashPrefixLen = 8

// ShortID builds the "<kebab-slug>-<hex>" short id form from a sanitized
// slug and a stable id, taking the first shortHashPrefixLen hex
// characters of the stable id as the disambiguating suffix.
func ShortID(slug, stableID string) string {
	prefixLen := shortHashPrefixLen
	if len(stableID) < prefixLen {
		prefixLen = len(stableID)
	}

	return Slugify(slug) + "-" + stableID[:prefixLen]
}

var slugInvalidRunRe = regexp.MustCompile(`[^a-z0-9_-]+`)

// Slugify lower-cases s, replaces every run of characters outside
// [A-Za-z0-9_-] with a single "-", collapses repeated "-", and trims
// leading/trailing "-".
func Slugify(s string) string {
	lower := strings.ToLower(s)
	replaced := slugInvalidRunRe.ReplaceAllString(lower, "-")
	for strings.Contains(replaced, "--") {
		replaced = strings.ReplaceAll(replaced, "--", "-")
	}

	replaced = strings.Trim(replaced, "-")

	if replaced == "" {
		return "workbook"
	}

	return replaced
}

// ShortIDPattern validates the "<kebab-slug>-<6..12-hex>" short id shape.
var ShortIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*-[0-9a-f]{6,12}$`)

// LooksLikeShortID reports whether s matches the short id shape.
func LooksLikeShortID(s string) bool {
	return ShortIDPattern.MatchString(strings.ToLower(s))
}

func hashHex(namespace, payload string) string {
	h := sha256.New()
	h.Write([]byte(namespace))
	h.Write([]byte{0})
	h.Write([]byte(payload))

	return hex.EncodeToString(h.Sum(nil))
}
