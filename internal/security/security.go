// Package security enforces filesystem path boundaries: canonicalizing a
// candidate path (resolving symlinks and ".."/"." segments) and verifying
// it remains a descendant of a root directory. Follows the
// canonicalize-then-prefix-check approach of the prior Rust prototype's
// security module, expressed with Go's path/filepath and os.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xlkit/xlkit/internal/errs"
)

// WithinRoot canonicalizes candidate and root, then verifies the
// canonicalized candidate is root itself or a descendant of it.
//
// If candidate does not yet exist (as for a save_fork target), its parent
// directory is canonicalized instead and the final path segment is
// rejoined, which is sufficient for boundary enforcement prior to a
// write.
//
// tool and field identify the offending parameter in the returned
// *errs.Error so callers can build an actionable INVALID_ARGUMENT
// response.
func WithinRoot(root, candidate, tool, field string) (string, error) {
	canonicalRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", fmt.Errorf("canonicalize workspace_root: %w", err)
	}

	canonicalCandidate, err := canonicalizeMaybeMissing(candidate)
	if err != nil {
		return "", errs.Newf(errs.CodeInvalidArgument, "%s could not be canonicalized: %v", field, err).WithPath(field)
	}

	if !isWithin(canonicalRoot, canonicalCandidate) {
		return "", errs.Newf(
			errs.CodeInvalidArgument,
			"%s must be within workspace root after canonicalization (got %q, root %q)",
			field, canonicalCandidate, canonicalRoot,
		).WithPath(field)
	}

	return canonicalCandidate, nil
}

// canonicalizeMaybeMissing canonicalizes path. If path does not exist, its
// parent directory is canonicalized and the final segment rejoined.
func canonicalizeMaybeMissing(path string) (string, error) {
	if _, statErr := os.Lstat(path); statErr == nil {
		return filepath.EvalSymlinks(path)
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)

	if base == "" || base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("path %q has no file name component", path)
	}

	canonicalDir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return "", fmt.Errorf("canonicalize parent of %q: %w", path, err)
	}

	return filepath.Join(canonicalDir, base), nil
}

// isWithin reports whether candidate equals root or is a descendant of
// root, comparing cleaned, OS-separator-joined paths.
func isWithin(root, candidate string) bool {
	root = filepath.Clean(root)
	candidate = filepath.Clean(candidate)

	if root == candidate {
		return true
	}

	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}

	return strings.HasPrefix(candidate, prefix)
}

// SanitizeFilenameComponent replaces path separators and control
// characters with "_", preventing traversal via a user-controlled
// filename component. Follows the prior Rust prototype's
// sanitize_filename_component.
func SanitizeFilenameComponent(input string) string {
	var b strings.Builder

	b.Grow(len(input))

	for _, r := range input {
		if r < 0x20 || r == 0x7f || r == '/' || r == '\\' {
			b.WriteByte('_')
			continue
		}

		b.WriteRune(r)
	}

	return b.String()
}
