package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/xlkit/xlkit/internal/errs"
	"github.com/xlkit/xlkit/internal/identity"
	"github.com/xlkit/xlkit/internal/workbook"
	"github.com/xlkit/xlkit/pkg/fs"
)

// PathWorkspaceRepository scans workspaceRoot recursively for files whose
// lower-cased extension is in supportedExtensions, or is pinned to a
// single file in single-workbook mode.
type PathWorkspaceRepository struct {
	fs                  fs.FS
	workspaceRoot       string
	supportedExtensions map[string]bool
	singleWorkbook      string
	forkResolver        ForkAliasResolver

	mu      sync.RWMutex
	byStable map[string]entry
	byShort  map[string]string // lower(shortID) -> stableID
	byLegacy map[string]string // legacy -> stableID
	scanned  bool
}

// NewPathWorkspaceRepository constructs a repository rooted at
// workspaceRoot. If singleWorkbook is non-empty, listing/resolution is
// restricted to exactly that path.
func NewPathWorkspaceRepository(filesystem fs.FS, workspaceRoot string, supportedExtensions []string, singleWorkbook string) *PathWorkspaceRepository {
	exts := make(map[string]bool, len(supportedExtensions))
	for _, e := range supportedExtensions {
		exts[strings.ToLower(e)] = true
	}

	return &PathWorkspaceRepository{
		fs:                  filesystem,
		workspaceRoot:       workspaceRoot,
		supportedExtensions: exts,
		singleWorkbook:      singleWorkbook,
		byStable:            map[string]entry{},
		byShort:             map[string]string{},
		byLegacy:            map[string]string{},
	}
}

// SetForkResolver wires the fork registry consulted on a resolve miss.
func (r *PathWorkspaceRepository) SetForkResolver(resolver ForkAliasResolver) {
	r.forkResolver = resolver
}

func (r *PathWorkspaceRepository) candidatePaths() ([]string, error) {
	if r.singleWorkbook != "" {
		if _, err := os.Stat(r.singleWorkbook); err != nil {
			return nil, errs.New(errs.CodeFileNotFound, "single workbook not found").WithPath(r.singleWorkbook)
		}

		ext := strings.ToLower(filepath.Ext(r.singleWorkbook))
		if !r.supportedExtensions[ext] {
			return nil, errs.Newf(errs.CodeInvalidArgument, "single workbook extension %q is not supported", ext)
		}

		return []string{r.singleWorkbook}, nil
	}

	var out []string

	err := filepath.WalkDir(r.workspaceRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		if r.supportedExtensions[strings.ToLower(filepath.Ext(path))] {
			out = append(out, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("repository: scan %s: %w", r.workspaceRoot, err)
	}

	return out, nil
}

// scan rebuilds the three indices from the current filesystem state. It
// is called lazily on first List or on a Resolve miss.
func (r *PathWorkspaceRepository) scan() error {
	paths, err := r.candidatePaths()
	if err != nil {
		return err
	}

	byStable := map[string]entry{}
	byShort := map[string]string{}
	byLegacy := map[string]string{}

	for _, p := range paths {
		e, err := r.buildEntry(p)
		if err != nil {
			return err
		}

		byStable[e.stableID] = e
		byShort[strings.ToLower(e.shortID)] = e.stableID
		byLegacy[e.legacyID] = e.stableID
	}

	r.mu.Lock()
	r.byStable = byStable
	r.byShort = byShort
	r.byLegacy = byLegacy
	r.scanned = true
	r.mu.Unlock()

	return nil
}

func (r *PathWorkspaceRepository) buildEntry(path string) (entry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return entry{}, fmt.Errorf("repository: stat %s: %w", path, err)
	}

	// Canonical per the spec glossary: symlinks resolved and "."/".."
	// segments collapsed, so two workspace entries reachable via
	// different symlink paths to the same file share a stable id (the
	// same canonicalization internal/security uses for fork boundaries).
	canonical, err := filepath.EvalSymlinks(path)
	if err != nil {
		return entry{}, fmt.Errorf("repository: canonicalize %s: %w", path, err)
	}

	revisionID, err := identity.RevisionIDOfFile(path)
	if err != nil {
		return entry{}, fmt.Errorf("repository: hash %s: %w", path, err)
	}

	stableID := identity.StableID(canonical)
	legacyID := identity.LegacyID(canonical, info.Size(), info.ModTime())

	relPath, err := filepath.Rel(r.workspaceRoot, path)
	if err != nil {
		relPath = path
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	slug := identity.Slugify(base)
	shortID := identity.ShortID(slug, stableID)
	folder := filepath.Dir(relPath)

	if folder == "." {
		folder = ""
	}

	return entry{
		stableID:     stableID,
		shortID:      shortID,
		legacyID:     legacyID,
		slug:         slug,
		folder:       folder,
		relativePath: relPath,
		sizeBytes:    info.Size(),
		modTime:      info.ModTime(),
		revisionID:   revisionID,
		sourcePath:   path,
	}, nil
}

func (r *PathWorkspaceRepository) ensureScanned() error {
	r.mu.RLock()
	scanned := r.scanned
	r.mu.RUnlock()

	if scanned {
		return nil
	}

	return r.scan()
}

// List returns every registered workbook matching filter, deterministically
// sorted ascending by slug.
func (r *PathWorkspaceRepository) List(filter ListFilter) ([]Descriptor, error) {
	if err := r.ensureScanned(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.byStable))

	for _, e := range r.byStable {
		if !matchesFilter(e, filter) {
			continue
		}

		out = append(out, descriptorFromEntry(e))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })

	return out, nil
}

func descriptorFromEntry(e entry) Descriptor {
	return Descriptor{
		StableID:     e.stableID,
		ShortID:      e.shortID,
		Slug:         e.slug,
		Folder:       e.folder,
		RelativePath: e.relativePath,
		SizeBytes:    e.sizeBytes,
		ModTime:      e.modTime,
		RevisionID:   e.revisionID,
	}
}

// Resolve looks up idOrAlias across stable, short, and legacy indices
// (case-insensitively), rescanning once on a miss before consulting the
// fork registry.
func (r *PathWorkspaceRepository) Resolve(idOrAlias string) (ResolvedWorkbookRef, error) {
	if ref, ok := r.lookup(idOrAlias); ok {
		return ref, nil
	}

	if err := r.scan(); err != nil {
		return ResolvedWorkbookRef{}, err
	}

	if ref, ok := r.lookup(idOrAlias); ok {
		return ref, nil
	}

	if r.forkResolver != nil {
		if ref, ok := r.forkResolver.ResolveForkAlias(idOrAlias); ok {
			return ref, nil
		}
	}

	return ResolvedWorkbookRef{}, errs.Newf(errs.CodeNotFound, "workbook %q not found", idOrAlias)
}

func (r *PathWorkspaceRepository) lookup(idOrAlias string) (ResolvedWorkbookRef, bool) {
	lowered := strings.ToLower(idOrAlias)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.byStable[lowered]; ok {
		return refFromEntry(e), true
	}

	if sid, ok := r.byShort[lowered]; ok {
		if e, ok := r.byStable[sid]; ok {
			return refFromEntry(e), true
		}
	}

	if sid, ok := r.byLegacy[lowered]; ok {
		if e, ok := r.byStable[sid]; ok {
			return refFromEntry(e), true
		}
	}

	return ResolvedWorkbookRef{}, false
}

func refFromEntry(e entry) ResolvedWorkbookRef {
	return ResolvedWorkbookRef{
		WorkbookID: e.stableID,
		ShortID:    e.shortID,
		RevisionID: e.revisionID,
		Source:     e.sourcePath,
	}
}

// LoadContext reads ref.Source once into a parsed WorkbookContext (spec
// §4.1). ref.Source must be a filesystem path; a virtual source is
// rejected since path and virtual repositories never cross sources.
func (r *PathWorkspaceRepository) LoadContext(ref ResolvedWorkbookRef) (*workbook.Context, error) {
	if strings.HasPrefix(ref.Source, "virtual/") {
		return nil, errs.New(errs.CodeInvalidArgument, "path repository cannot load a virtual source").WithPath(ref.Source)
	}

	return workbook.Load(ref.Source, workbook.Identity{
		StableID:   ref.WorkbookID,
		ShortID:    ref.ShortID,
		RevisionID: ref.RevisionID,
	})
}
