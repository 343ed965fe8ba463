package fork

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/xlkit/xlkit/pkg/fs"
)

func writeFixtureWorkbook(t *testing.T, path string) {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetCellValue("Sheet1", "A1", 10); err != nil {
		t.Fatal(err)
	}

	if err := f.SetCellFormula("Sheet1", "A2", "A1*2"); err != nil {
		t.Fatal(err)
	}

	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
}

func newTestRegistry(t *testing.T, workspaceRoot string) *Registry {
	t.Helper()

	r, err := Open(Options{
		FS:            fs.NewReal(),
		ForkDir:       filepath.Join(workspaceRoot, ".xlkit", "forks"),
		WorkspaceRoot: workspaceRoot,
	})
	if err != nil {
		t.Fatalf("Open registry: %v", err)
	}

	return r
}

func TestCreateForkCopiesBaseIntoWorkDir(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "book.xlsx")
	writeFixtureWorkbook(t, base)

	r := newTestRegistry(t, root)

	entry, err := r.CreateFork(base)
	if err != nil {
		t.Fatalf("CreateFork: %v", err)
	}

	if entry.RecalcNeeded {
		t.Fatalf("expected a freshly created fork to not need recalc")
	}

	if _, err := os.Stat(entry.WorkPath); err != nil {
		t.Fatalf("expected work_path to exist: %v", err)
	}

	if filepath.Dir(entry.WorkPath) != filepath.Join(root, ".xlkit", "forks") {
		t.Fatalf("work_path %q escaped the fork directory", entry.WorkPath)
	}
}

func TestCreateForkRejectsBaseOutsideWorkspace(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	base := filepath.Join(outside, "book.xlsx")
	writeFixtureWorkbook(t, base)

	r := newTestRegistry(t, root)

	if _, err := r.CreateFork(base); err == nil {
		t.Fatal("expected create_fork to reject a base path outside workspace_root")
	}
}

func TestApplyEditsSetsRecalcNeeded(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "book.xlsx")
	writeFixtureWorkbook(t, base)

	r := newTestRegistry(t, root)

	entry, err := r.CreateFork(base)
	if err != nil {
		t.Fatalf("CreateFork: %v", err)
	}

	if err := r.ApplyEdits(entry.ForkID, "Sheet1", []CellEdit{{Address: "A1", Value: "11"}}, nil); err != nil {
		t.Fatalf("ApplyEdits: %v", err)
	}

	got, err := r.GetFork(entry.ForkID)
	if err != nil {
		t.Fatalf("GetFork: %v", err)
	}

	if !got.RecalcNeeded {
		t.Fatal("expected recalc_needed to be true after apply_edits")
	}
}

func TestApplyEditsUnknownSheetFails(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "book.xlsx")
	writeFixtureWorkbook(t, base)

	r := newTestRegistry(t, root)

	entry, err := r.CreateFork(base)
	if err != nil {
		t.Fatalf("CreateFork: %v", err)
	}

	if err := r.ApplyEdits(entry.ForkID, "NoSuchSheet", []CellEdit{{Address: "A1", Value: "1"}}, nil); err == nil {
		t.Fatal("expected an error for an unknown sheet")
	}
}

func TestRecalculateClearsRecalcNeededOnSuccess(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "book.xlsx")
	writeFixtureWorkbook(t, base)

	r := newTestRegistry(t, root)

	entry, err := r.CreateFork(base)
	if err != nil {
		t.Fatalf("CreateFork: %v", err)
	}

	if err := r.ApplyEdits(entry.ForkID, "Sheet1", []CellEdit{{Address: "A1", Value: "11"}}, nil); err != nil {
		t.Fatalf("ApplyEdits: %v", err)
	}

	stubRecalc := func(path string, timeoutMs int64) (RecalcResult, error) {
		return RecalcResult{CellsEvaluated: 1}, nil
	}

	if _, err := r.Recalculate(entry.ForkID, stubRecalc, 0); err != nil {
		t.Fatalf("Recalculate: %v", err)
	}

	got, err := r.GetFork(entry.ForkID)
	if err != nil {
		t.Fatalf("GetFork: %v", err)
	}

	if got.RecalcNeeded {
		t.Fatal("expected recalc_needed false after successful recalculate")
	}
}

func TestRecalculateFailureLeavesFlagUnchanged(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "book.xlsx")
	writeFixtureWorkbook(t, base)

	r := newTestRegistry(t, root)

	entry, err := r.CreateFork(base)
	if err != nil {
		t.Fatalf("CreateFork: %v", err)
	}

	if err := r.ApplyEdits(entry.ForkID, "Sheet1", []CellEdit{{Address: "A1", Value: "11"}}, nil); err != nil {
		t.Fatalf("ApplyEdits: %v", err)
	}

	failingRecalc := func(path string, timeoutMs int64) (RecalcResult, error) {
		return RecalcResult{}, os.ErrInvalid
	}

	if _, err := r.Recalculate(entry.ForkID, failingRecalc, 0); err == nil {
		t.Fatal("expected the stubbed recalc failure to propagate")
	}

	got, err := r.GetFork(entry.ForkID)
	if err != nil {
		t.Fatalf("GetFork: %v", err)
	}

	if !got.RecalcNeeded {
		t.Fatal("expected recalc_needed to remain true after a failed recalculate")
	}
}

func TestSaveForkRefusesExistingTargetWithoutOverwrite(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "book.xlsx")
	writeFixtureWorkbook(t, base)

	r := newTestRegistry(t, root)

	entry, err := r.CreateFork(base)
	if err != nil {
		t.Fatalf("CreateFork: %v", err)
	}

	target := filepath.Join(root, "existing.xlsx")
	writeFixtureWorkbook(t, target)

	if err := r.SaveFork(entry.ForkID, target, false, nil); err == nil {
		t.Fatal("expected save_fork to refuse an existing target without allow_overwrite")
	}

	if err := r.SaveFork(entry.ForkID, target, true, nil); err != nil {
		t.Fatalf("expected save_fork to succeed with allow_overwrite: %v", err)
	}
}

func TestSaveForkRejectsTargetOutsideWorkspace(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	base := filepath.Join(root, "book.xlsx")
	writeFixtureWorkbook(t, base)

	r := newTestRegistry(t, root)

	entry, err := r.CreateFork(base)
	if err != nil {
		t.Fatalf("CreateFork: %v", err)
	}

	target := filepath.Join(outside, "out.xlsx")

	if err := r.SaveFork(entry.ForkID, target, true, nil); err == nil {
		t.Fatal("expected save_fork to reject a target outside workspace_root")
	}
}

func TestStageChangeDoesNotMutateWorkPath(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "book.xlsx")
	writeFixtureWorkbook(t, base)

	r := newTestRegistry(t, root)

	entry, err := r.CreateFork(base)
	if err != nil {
		t.Fatalf("CreateFork: %v", err)
	}

	before, err := os.ReadFile(entry.WorkPath)
	if err != nil {
		t.Fatal(err)
	}

	sc, err := r.StageChange(entry.ForkID, "bump A1", "Sheet1", []CellEdit{{Address: "A1", Value: "99"}})
	if err != nil {
		t.Fatalf("StageChange: %v", err)
	}

	after, err := os.ReadFile(entry.WorkPath)
	if err != nil {
		t.Fatal(err)
	}

	if string(before) != string(after) {
		t.Fatal("expected staging a change to leave work_path untouched")
	}

	got, err := r.GetFork(entry.ForkID)
	if err != nil {
		t.Fatalf("GetFork: %v", err)
	}

	if got.RecalcNeeded {
		t.Fatal("expected recalc_needed to remain false while a change is only staged")
	}

	if err := r.ApplyStagedChange(entry.ForkID, sc.ChangeID, nil); err != nil {
		t.Fatalf("ApplyStagedChange: %v", err)
	}

	got, err = r.GetFork(entry.ForkID)
	if err != nil {
		t.Fatalf("GetFork: %v", err)
	}

	if !got.RecalcNeeded {
		t.Fatal("expected recalc_needed true after applying the staged change")
	}

	if _, err := r.StageChange(entry.ForkID, "noop", "Sheet1", nil); err != nil {
		t.Fatalf("StageChange: %v", err)
	}

	if err := r.ApplyStagedChange(entry.ForkID, sc.ChangeID, nil); err == nil {
		t.Fatal("expected applying an already-applied staged change id to fail")
	}
}

func TestDeleteRemovesEntryAndWorkFile(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "book.xlsx")
	writeFixtureWorkbook(t, base)

	r := newTestRegistry(t, root)

	entry, err := r.CreateFork(base)
	if err != nil {
		t.Fatalf("CreateFork: %v", err)
	}

	if err := r.Delete(entry.ForkID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := os.Stat(entry.WorkPath); !os.IsNotExist(err) {
		t.Fatalf("expected work file removed, stat err=%v", err)
	}

	if _, err := r.GetFork(entry.ForkID); err == nil {
		t.Fatal("expected GetFork to fail for a deleted fork")
	}
}
