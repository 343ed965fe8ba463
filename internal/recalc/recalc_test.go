package recalc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func newFixture(t *testing.T, build func(f *excelize.File)) string {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	build(f)

	path := filepath.Join(t.TempDir(), "book.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestExcelizeBackendWritesBackComputedValue(t *testing.T) {
	path := newFixture(t, func(f *excelize.File) {
		if err := f.SetCellValue("Sheet1", "A1", 10); err != nil {
			t.Fatal(err)
		}

		if err := f.SetCellFormula("Sheet1", "A2", "A1*2"); err != nil {
			t.Fatal(err)
		}
	})

	b := NewExcelizeBackend()

	result, err := b.Recalculate(path, 0)
	if err != nil {
		t.Fatalf("Recalculate: %v", err)
	}

	if result.CellsEvaluated == 0 {
		t.Fatal("expected at least one cell to be evaluated")
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}

	defer func() { _ = f.Close() }()

	got, err := f.GetCellValue("Sheet1", "A2")
	if err != nil {
		t.Fatal(err)
	}

	if got != "20" {
		t.Fatalf("expected A2 cached value 20, got %q", got)
	}
}

func TestExcelizeBackendDetectsCircularReference(t *testing.T) {
	path := newFixture(t, func(f *excelize.File) {
		if err := f.SetCellFormula("Sheet1", "A2", "A3+1"); err != nil {
			t.Fatal(err)
		}

		if err := f.SetCellFormula("Sheet1", "A3", "A2+1"); err != nil {
			t.Fatal(err)
		}
	})

	b := NewExcelizeBackend()

	result, err := b.Recalculate(path, 0)
	if err != nil {
		t.Fatalf("Recalculate: %v", err)
	}

	if len(result.EvalErrors) == 0 {
		t.Fatal("expected a non-empty eval_errors for the A2/A3 cycle")
	}

	foundCircular := false

	for _, e := range result.EvalErrors {
		if strings.Contains(strings.ToLower(e), "circ") {
			foundCircular = true
		}
	}

	if !foundCircular {
		t.Fatalf("expected a circular-reference token among eval_errors, got %v", result.EvalErrors)
	}
}

func TestExcelizeBackendLeavesFileUntouchedOnOpenFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.xlsx")

	b := NewExcelizeBackend()

	if _, err := b.Recalculate(missing, 0); err == nil {
		t.Fatal("expected an error for a missing file")
	}

	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Fatalf("expected no file to be created on failure, stat err=%v", err)
	}
}

func TestSelectUnknownBackendFails(t *testing.T) {
	if _, err := Select("not-a-real-backend"); err == nil {
		t.Fatal("expected Select to reject an unknown backend token")
	}
}

func TestSelectAutoReturnsAvailableBackend(t *testing.T) {
	b, err := Select("auto")
	if err != nil {
		t.Fatalf("Select(auto): %v", err)
	}

	if !b.IsAvailable() {
		t.Fatal("expected the auto-selected backend to report itself available")
	}
}

func TestSelectByExplicitName(t *testing.T) {
	b, err := Select("excelize")
	if err != nil {
		t.Fatalf("Select(excelize): %v", err)
	}

	if b.Name() != "excelize" {
		t.Fatalf("expected backend name excelize, got %q", b.Name())
	}
}
