// Package repository implements two WorkbookId-resolving repositories: a
// filesystem-backed workspace scanner and an in-memory virtual workspace.
// Both share the Repository contract so callers never see which variant
// is active, the same sum-of-capability pattern tk uses for its store/fs
// abstractions.
package repository

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/xlkit/xlkit/internal/workbook"
)

// ResolvedWorkbookRef is the output of Resolve.
type ResolvedWorkbookRef struct {
	WorkbookID string
	ShortID    string
	RevisionID string
	Source     string // filesystem path or "virtual/<key>"
}

// Descriptor is one listing record.
type Descriptor struct {
	StableID     string
	ShortID      string
	Slug         string
	Folder       string
	RelativePath string
	SizeBytes    int64
	ModTime      time.Time
	RevisionID   string
	Capabilities []workbook.Capability
}

// ListFilter narrows Listing results. Zero value matches everything.
type ListFilter struct {
	SlugPrefix string
	Folder     string
	PathGlob   string
}

// Repository is the shared contract both concrete repositories implement.
type Repository interface {
	List(filter ListFilter) ([]Descriptor, error)
	Resolve(idOrAlias string) (ResolvedWorkbookRef, error)
	LoadContext(ref ResolvedWorkbookRef) (*workbook.Context, error)
}

// ForkAliasResolver is consulted by PathWorkspaceRepository.Resolve when an
// alias isn't found in the path index, letting a fork id resolve directly
// to its fork's working copy.
type ForkAliasResolver interface {
	ResolveForkAlias(alias string) (ResolvedWorkbookRef, bool)
}

func sanitizeSlug(raw string) string {
	var b strings.Builder

	lastDash := false

	for _, r := range strings.ToLower(raw) {
		ok := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-'
		if !ok {
			r = '-'
		}

		if r == '-' {
			if lastDash || b.Len() == 0 {
				continue
			}

			lastDash = true
		} else {
			lastDash = false
		}

		b.WriteRune(r)
	}

	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "workbook"
	}

	return out
}

// entry is the internal per-workbook registration shared by both index
// lookups and listing.
type entry struct {
	stableID     string
	shortID      string
	legacyID     string
	slug         string
	folder       string
	relativePath string
	sizeBytes    int64
	modTime      time.Time
	revisionID   string
	sourcePath   string
}

func matchesFilter(e entry, filter ListFilter) bool {
	if filter.SlugPrefix != "" && !strings.HasPrefix(e.slug, filter.SlugPrefix) {
		return false
	}

	if filter.Folder != "" && e.folder != filter.Folder {
		return false
	}

	if filter.PathGlob != "" {
		matched, err := filepath.Match(filter.PathGlob, e.relativePath)
		if err != nil || !matched {
			return false
		}
	}

	return true
}
