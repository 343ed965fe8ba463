package app

import (
	"testing"

	"github.com/xlkit/xlkit/internal/config"
)

func TestOpenWiresAllSubsystems(t *testing.T) {
	cfg := config.Default()
	cfg.WorkspaceRoot = t.TempDir()

	a, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if a.Repo == nil {
		t.Fatal("expected a non-nil Repo")
	}

	if a.Cache == nil {
		t.Fatal("expected a non-nil Cache")
	}

	if a.Forks == nil {
		t.Fatal("expected a non-nil fork Registry even with recalc_enabled default")
	}

	if a.Recalc == nil {
		t.Fatal("expected Select(\"auto\") to resolve an available backend")
	}
}

func TestOpenFailsWhenRecalcEnabledAndBackendUnknown(t *testing.T) {
	cfg := config.Default()
	cfg.WorkspaceRoot = t.TempDir()
	cfg.RecalcBackend = "not-a-real-backend"
	cfg.RecalcEnabled = true

	if _, err := Open(cfg); err == nil {
		t.Fatal("expected Open to fail when recalc is required but the backend is unknown")
	}
}

func TestOpenToleratesUnknownBackendWhenRecalcDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.WorkspaceRoot = t.TempDir()
	cfg.RecalcBackend = "not-a-real-backend"
	cfg.RecalcEnabled = false

	a, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if a.Recalc != nil {
		t.Fatal("expected no recalc backend when selection failed and recalc is disabled")
	}
}
