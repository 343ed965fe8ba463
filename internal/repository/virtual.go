package repository

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xlkit/xlkit/internal/errs"
	"github.com/xlkit/xlkit/internal/identity"
	"github.com/xlkit/xlkit/internal/workbook"
)

type virtualEntry struct {
	key        string
	slug       string
	stableID   string
	shortID    string
	revisionID string
	bytes      []byte
	registered time.Time
}

// VirtualWorkspaceRepository stores {key, slug, bytes} entries registered
// by the caller instead of scanning a filesystem.
type VirtualWorkspaceRepository struct {
	mu      sync.RWMutex
	byKey   map[string]*virtualEntry
	byShort map[string]string // lower(shortID) -> key
}

func NewVirtualWorkspaceRepository() *VirtualWorkspaceRepository {
	return &VirtualWorkspaceRepository{
		byKey:   map[string]*virtualEntry{},
		byShort: map[string]string{},
	}
}

// Register adds or replaces an in-memory workbook. Stable id is
// hash("virtual/" + key), so re-registering the same key under new bytes
// preserves identity while changing the revision id.
func (r *VirtualWorkspaceRepository) Register(key, slug string, data []byte) ResolvedWorkbookRef {
	stableID := identity.VirtualStableID(key)
	revisionID := identity.RevisionIDOfBytes(data)
	shortID := identity.ShortID(identity.Slugify(slug), stableID)

	e := &virtualEntry{
		key:        key,
		slug:       identity.Slugify(slug),
		stableID:   stableID,
		shortID:    shortID,
		revisionID: revisionID,
		bytes:      append([]byte(nil), data...),
		registered: time.Now(),
	}

	r.mu.Lock()
	r.byKey[key] = e
	r.byShort[strings.ToLower(shortID)] = key
	r.mu.Unlock()

	return ResolvedWorkbookRef{
		WorkbookID: stableID,
		ShortID:    shortID,
		RevisionID: revisionID,
		Source:     "virtual/" + key,
	}
}

// List returns every registered virtual workbook matching filter.
func (r *VirtualWorkspaceRepository) List(filter ListFilter) ([]Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.byKey))

	for _, e := range r.byKey {
		if filter.SlugPrefix != "" && !strings.HasPrefix(e.slug, filter.SlugPrefix) {
			continue
		}

		out = append(out, Descriptor{
			StableID:     e.stableID,
			ShortID:      e.shortID,
			Slug:         e.slug,
			RelativePath: e.key,
			SizeBytes:    int64(len(e.bytes)),
			ModTime:      e.registered,
			RevisionID:   e.revisionID,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })

	return out, nil
}

// Resolve looks up idOrAlias across key, short id, and stable id.
func (r *VirtualWorkspaceRepository) Resolve(idOrAlias string) (ResolvedWorkbookRef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.byKey[idOrAlias]; ok {
		return r.refFromVirtualEntry(e), nil
	}

	if key, ok := r.byShort[strings.ToLower(idOrAlias)]; ok {
		if e, ok := r.byKey[key]; ok {
			return r.refFromVirtualEntry(e), nil
		}
	}

	for _, e := range r.byKey {
		if e.stableID == idOrAlias {
			return r.refFromVirtualEntry(e), nil
		}
	}

	return ResolvedWorkbookRef{}, errs.Newf(errs.CodeNotFound, "virtual workbook %q not found", idOrAlias)
}

func (r *VirtualWorkspaceRepository) refFromVirtualEntry(e *virtualEntry) ResolvedWorkbookRef {
	return ResolvedWorkbookRef{
		WorkbookID: e.stableID,
		ShortID:    e.shortID,
		RevisionID: e.revisionID,
		Source:     "virtual/" + e.key,
	}
}

// LoadContext parses ref's bytes from memory. ref.Source must carry the
// "virtual/" prefix; a path source is rejected.
func (r *VirtualWorkspaceRepository) LoadContext(ref ResolvedWorkbookRef) (*workbook.Context, error) {
	key, ok := strings.CutPrefix(ref.Source, "virtual/")
	if !ok {
		return nil, errs.New(errs.CodeInvalidArgument, "virtual repository cannot load a path source").WithPath(ref.Source)
	}

	r.mu.RLock()
	e, ok := r.byKey[key]
	r.mu.RUnlock()

	if !ok {
		return nil, errs.Newf(errs.CodeNotFound, "virtual workbook %q not found", key)
	}

	return workbook.LoadBytes(e.bytes, ref.Source, workbook.Identity{
		StableID:   ref.WorkbookID,
		ShortID:    ref.ShortID,
		RevisionID: ref.RevisionID,
	})
}

