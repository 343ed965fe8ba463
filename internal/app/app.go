// Package app wires the four core subsystems — repository, cache, fork
// registry, recalc backend — into the single App a front-end (the CLI in
// cmd/xlkit) depends on. Composition lives here rather than in main so
// tests can build an App against a temp workspace without exec'ing a
// binary, the same role tk's ticket.LoadConfig plus command constructors
// play for "tk"'s CLI.
package app

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/xlkit/xlkit/internal/cache"
	"github.com/xlkit/xlkit/internal/config"
	"github.com/xlkit/xlkit/internal/fork"
	"github.com/xlkit/xlkit/internal/recalc"
	"github.com/xlkit/xlkit/internal/repository"
	"github.com/xlkit/xlkit/pkg/fs"
)

// App bundles the constructed subsystems a single process needs.
type App struct {
	Config   config.Config
	Repo     repository.Repository
	PathRepo *repository.PathWorkspaceRepository
	Cache    *cache.Cache
	Forks    *fork.Registry
	Recalc   recalc.Backend
}

// Open constructs an App from cfg, rooted at cfg.WorkspaceRoot. The fork
// registry is always constructed (even when recalc_enabled is false) so
// create_fork/edit_batch/save_fork remain usable; only the recalculate
// step is gated.
func Open(cfg config.Config) (*App, error) {
	realFS := fs.NewReal()

	pathRepo := repository.NewPathWorkspaceRepository(realFS, cfg.WorkspaceRoot, cfg.SupportedExtensions, cfg.SingleWorkbook)

	forkDir := filepath.Join(cfg.WorkspaceRoot, ".xlkit", "forks")

	var index *fork.Index

	if cfg.WorkspaceRoot != "" {
		idx, err := fork.OpenIndex(filepath.Join(cfg.WorkspaceRoot, ".xlkit", "forks.db"))
		if err != nil {
			return nil, fmt.Errorf("app: open fork index: %w", err)
		}

		index = idx
	}

	forkTTL := time.Duration(cfg.ForkTTLSeconds) * time.Second

	forks, err := fork.Open(fork.Options{
		FS:            realFS,
		ForkDir:       forkDir,
		WorkspaceRoot: cfg.WorkspaceRoot,
		TTL:           forkTTL,
		Index:         index,
	})
	if err != nil {
		return nil, fmt.Errorf("app: open fork registry: %w", err)
	}

	pathRepo.SetForkResolver(forkAliasResolver{forks: forks})

	backend, err := recalc.Select(cfg.RecalcBackend)
	if err != nil && cfg.RecalcEnabled {
		return nil, err
	}

	return &App{
		Config:   cfg,
		Repo:     pathRepo,
		PathRepo: pathRepo,
		Cache:    cache.New(cfg.CacheCapacity),
		Forks:    forks,
		Recalc:   backend,
	}, nil
}

// forkAliasResolver adapts *fork.Registry to repository.ForkAliasResolver
//: a fork id
// resolves directly to a ResolvedWorkbookRef whose source is the fork's
// work_path.
type forkAliasResolver struct {
	forks *fork.Registry
}

func (r forkAliasResolver) ResolveForkAlias(alias string) (repository.ResolvedWorkbookRef, bool) {
	e, err := r.forks.GetFork(alias)
	if err != nil {
		return repository.ResolvedWorkbookRef{}, false
	}

	return repository.ResolvedWorkbookRef{
		WorkbookID: e.ForkID,
		ShortID:    e.ForkID,
		Source:     e.WorkPath,
	}, true
}
