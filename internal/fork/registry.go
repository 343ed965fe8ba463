package fork

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/xlkit/xlkit/internal/errs"
	"github.com/xlkit/xlkit/internal/security"
	"github.com/xlkit/xlkit/internal/warnings"
	"github.com/xlkit/xlkit/pkg/fs"
)

// Registry creates, mutates, and retires forks, enforcing that every
// base_path stays inside workspaceRoot and every work_path stays inside
// its own fork directory.
type Registry struct {
	fs            fs.FS
	atomic        *fs.AtomicWriter
	forkDir       string
	workspaceRoot string
	ttl           time.Duration
	index         *Index // nil if persistence is disabled

	mu      sync.RWMutex
	entries map[string]*Entry
	staged  map[string]*StagedChange

	stopCleanup chan struct{}
	cleanupOnce sync.Once
}

// Options configures a new Registry.
type Options struct {
	FS            fs.FS
	ForkDir       string
	WorkspaceRoot string
	TTL           time.Duration
	Index         *Index // optional durable index, grounded on tk's internal/store
}

// Open constructs a Registry rooted at opts.ForkDir, restoring any
// persisted entries from opts.Index and removing orphaned fork files left
// behind by a crashed process.
func Open(opts Options) (*Registry, error) {
	if opts.FS == nil {
		opts.FS = fs.NewReal()
	}

	if err := opts.FS.MkdirAll(opts.ForkDir, 0o750); err != nil {
		return nil, fmt.Errorf("fork: create fork dir: %w", err)
	}

	r := &Registry{
		fs:            opts.FS,
		atomic:        fs.NewAtomicWriter(opts.FS),
		forkDir:       opts.ForkDir,
		workspaceRoot: opts.WorkspaceRoot,
		ttl:           opts.TTL,
		index:         opts.Index,
		entries:       map[string]*Entry{},
		staged:        map[string]*StagedChange{},
	}

	if r.index != nil {
		restored, err := r.index.LoadAll()
		if err != nil {
			return nil, fmt.Errorf("fork: restore index: %w", err)
		}

		for _, e := range restored {
			if _, err := os.Stat(e.WorkPath); err != nil {
				_ = r.index.Delete(e.ForkID)
				continue
			}

			entryCopy := e
			r.entries[e.ForkID] = &entryCopy
		}

		if err := r.removeOrphanFiles(); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// removeOrphanFiles deletes files under forkDir that are not referenced by
// any registered entry.
func (r *Registry) removeOrphanFiles() error {
	known := map[string]bool{}
	for _, e := range r.entries {
		known[filepath.Clean(e.WorkPath)] = true
	}

	dirEntries, err := os.ReadDir(r.forkDir)
	if err != nil {
		return fmt.Errorf("fork: list fork dir: %w", err)
	}

	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}

		full := filepath.Clean(filepath.Join(r.forkDir, de.Name()))
		if !known[full] {
			_ = os.Remove(full)
		}
	}

	return nil
}

// CreateFork copies basePath into a new fork work file and registers it.
func (r *Registry) CreateFork(basePath string) (Entry, error) {
	canonicalBase, err := security.WithinRoot(r.workspaceRoot, basePath, "create_fork", "base_path")
	if err != nil {
		return Entry{}, err
	}

	forkID := uuid.New().String()
	workPath := filepath.Join(r.forkDir, forkID+".xlsx")

	data, err := os.ReadFile(canonicalBase)
	if err != nil {
		return Entry{}, fmt.Errorf("fork: read base %s: %w", canonicalBase, err)
	}

	if err := r.atomic.Write(workPath, bytes.NewReader(data), fs.AtomicWriteOptions{SyncDir: true, Perm: 0o640}); err != nil {
		return Entry{}, fmt.Errorf("fork: write work copy: %w", err)
	}

	now := time.Now()
	entry := Entry{
		ForkID:       forkID,
		BasePath:     canonicalBase,
		WorkPath:     workPath,
		CreatedAt:    now,
		LastTouched:  now,
		RecalcNeeded: false,
	}

	r.mu.Lock()
	r.entries[forkID] = &entry
	r.mu.Unlock()

	if r.index != nil {
		if err := r.index.Save(entry); err != nil {
			return Entry{}, fmt.Errorf("fork: persist entry: %w", err)
		}
	}

	return entry, nil
}

// GetFork returns a copy of the fork's registration, touching last_touched.
func (r *Registry) GetFork(forkID string) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[forkID]
	if !ok {
		return Entry{}, errs.Newf(errs.CodeNotFound, "fork %q not found", forkID)
	}

	e.LastTouched = time.Now()

	return *e, nil
}

// ApplyEdits mutates the fork's work_path and sets recalc_needed (spec
// §4.3 apply_edits). w carries warnings (e.g. WARN_STALE_FORMULAS for
// readers) back to the caller's collector.
func (r *Registry) ApplyEdits(forkID, sheet string, edits []CellEdit, w *warnings.Collector) error {
	r.mu.Lock()
	e, ok := r.entries[forkID]
	r.mu.Unlock()

	if !ok {
		return errs.Newf(errs.CodeNotFound, "fork %q not found", forkID)
	}

	if err := applyEditsToFile(e.WorkPath, sheet, edits); err != nil {
		return err
	}

	r.mu.Lock()
	e.RecalcNeeded = true
	e.LastTouched = time.Now()
	recalcNeeded := e.RecalcNeeded
	snapshot := *e
	r.mu.Unlock()

	if w != nil && recalcNeeded {
		w.Add(warnings.StaleFormulas, "fork has unrecalculated formula edits", "call recalculate before trusting cached formula results")
	}

	if r.index != nil {
		return r.index.Save(snapshot)
	}

	return nil
}

func applyEditsToFile(path, sheet string, edits []CellEdit) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("fork: open work file: %w", err)
	}

	defer func() { _ = f.Close() }()

	if !hasSheet(f, sheet) {
		return errs.Newf(errs.CodeSheetNotFound, "sheet %q not found", sheet).WithPath(sheet)
	}

	for _, edit := range edits {
		if edit.IsFormula {
			if err := f.SetCellFormula(sheet, edit.Address, edit.Value); err != nil {
				return fmt.Errorf("fork: set formula %s!%s: %w", sheet, edit.Address, err)
			}

			continue
		}

		if err := f.SetCellValue(sheet, edit.Address, edit.Value); err != nil {
			return fmt.Errorf("fork: set value %s!%s: %w", sheet, edit.Address, err)
		}
	}

	if err := f.Save(); err != nil {
		return fmt.Errorf("fork: save work file: %w", err)
	}

	return nil
}

func hasSheet(f *excelize.File, sheet string) bool {
	for _, s := range f.GetSheetList() {
		if s == sheet {
			return true
		}
	}

	return false
}

// SaveFork copies work_path to targetPath inside workspaceRoot. evictByPath, if non-nil, is called with the canonical target
// so callers can drop any stale cache entry.
func (r *Registry) SaveFork(forkID, targetPath string, allowOverwrite bool, evictByPath func(string)) error {
	r.mu.RLock()
	e, ok := r.entries[forkID]
	r.mu.RUnlock()

	if !ok {
		return errs.Newf(errs.CodeNotFound, "fork %q not found", forkID)
	}

	parent := filepath.Dir(targetPath)

	canonicalParent, err := security.WithinRoot(r.workspaceRoot, parent, "save_fork", "target_path")
	if err != nil {
		return err
	}

	canonicalTarget := filepath.Join(canonicalParent, filepath.Base(targetPath))

	if _, statErr := os.Stat(canonicalTarget); statErr == nil && !allowOverwrite {
		return errs.Newf(errs.CodeInvalidArgument, "target %q already exists and allow_overwrite is false", targetPath).WithPath("target_path")
	}

	data, err := os.ReadFile(e.WorkPath)
	if err != nil {
		return fmt.Errorf("fork: read work file: %w", err)
	}

	if err := r.atomic.Write(canonicalTarget, bytes.NewReader(data), fs.AtomicWriteOptions{SyncDir: true, Perm: 0o640}); err != nil {
		return fmt.Errorf("fork: write target: %w", err)
	}

	if evictByPath != nil {
		evictByPath(canonicalTarget)
	}

	return nil
}

// StageChange records a preview-only operation without touching work_path.
func (r *Registry) StageChange(forkID, label, sheet string, edits []CellEdit) (StagedChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[forkID]; !ok {
		return StagedChange{}, errs.Newf(errs.CodeNotFound, "fork %q not found", forkID)
	}

	sc := StagedChange{
		ChangeID:  uuid.New().String(),
		ForkID:    forkID,
		Label:     label,
		CreatedAt: time.Now(),
		Sheet:     sheet,
		Edits:     edits,
	}

	r.staged[sc.ChangeID] = &sc

	return sc, nil
}

// ApplyStagedChange replays a staged operation's edits against the fork
// and discards the staged record.
func (r *Registry) ApplyStagedChange(forkID, changeID string, w *warnings.Collector) error {
	r.mu.Lock()
	sc, ok := r.staged[changeID]
	r.mu.Unlock()

	if !ok || sc.ForkID != forkID {
		return errs.Newf(errs.CodeNotFound, "staged change %q not found on fork %q", changeID, forkID)
	}

	if err := r.ApplyEdits(forkID, sc.Sheet, sc.Edits, w); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.staged, changeID)
	r.mu.Unlock()

	return nil
}

// RecalcFunc is the shape of internal/recalc.Backend.Recalculate, named
// locally so internal/fork never imports internal/recalc: callers compose
// the two by passing backend.Recalculate (or an adapter) directly.
type RecalcFunc func(path string, timeoutMs int64) (RecalcResult, error)

// Recalculate runs recalculate against the fork's work file and, on
// success, clears recalc_needed.
func (r *Registry) Recalculate(forkID string, recalculate RecalcFunc, timeoutMs int64) (RecalcResult, error) {
	r.mu.RLock()
	e, ok := r.entries[forkID]
	r.mu.RUnlock()

	if !ok {
		return RecalcResult{}, errs.Newf(errs.CodeNotFound, "fork %q not found", forkID)
	}

	res, err := recalculate(e.WorkPath, timeoutMs)
	if err != nil {
		return RecalcResult{}, err
	}

	if err := r.ClearRecalcNeeded(forkID); err != nil {
		return RecalcResult{}, err
	}

	return res, nil
}

// ClearRecalcNeeded is called by the recalc engine after a successful
// recalculate.
func (r *Registry) ClearRecalcNeeded(forkID string) error {
	r.mu.Lock()
	e, ok := r.entries[forkID]
	if ok {
		e.RecalcNeeded = false
		e.LastTouched = time.Now()
	}
	snapshot := Entry{}
	if ok {
		snapshot = *e
	}
	r.mu.Unlock()

	if !ok {
		return errs.Newf(errs.CodeNotFound, "fork %q not found", forkID)
	}

	if r.index != nil {
		return r.index.Save(snapshot)
	}

	return nil
}

// Delete removes a fork's registration, staged changes, and work file.
func (r *Registry) Delete(forkID string) error {
	r.mu.Lock()
	e, ok := r.entries[forkID]
	if ok {
		delete(r.entries, forkID)
		for id, sc := range r.staged {
			if sc.ForkID == forkID {
				delete(r.staged, id)
			}
		}
	}
	r.mu.Unlock()

	if !ok {
		return nil
	}

	if r.index != nil {
		_ = r.index.Delete(forkID)
	}

	return os.Remove(e.WorkPath)
}

