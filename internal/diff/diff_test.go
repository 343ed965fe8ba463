package diff

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/xlkit/xlkit/internal/workbook"
)

func writeDiffFixture(t *testing.T, path string, mutate func(f *excelize.File)) {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetCellValue("Sheet1", "A2", "Alice"); err != nil {
		t.Fatal(err)
	}

	if err := f.SetCellValue("Sheet1", "B2", 10); err != nil {
		t.Fatal(err)
	}

	if err := f.SetCellFormula("Sheet1", "C2", "B2*2"); err != nil {
		t.Fatal(err)
	}

	if err := f.SetCellValue("Sheet1", "A3", "Bob"); err != nil {
		t.Fatal(err)
	}

	if err := f.SetCellValue("Sheet1", "B3", 20); err != nil {
		t.Fatal(err)
	}

	if err := f.SetCellFormula("Sheet1", "C3", "B3*2"); err != nil {
		t.Fatal(err)
	}

	if _, err := f.NewSheet("Sheet2"); err != nil {
		t.Fatal(err)
	}

	if err := f.SetCellValue("Sheet2", "A1", "unchanged"); err != nil {
		t.Fatal(err)
	}

	if mutate != nil {
		mutate(f)
	}

	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
}

func loadCtx(t *testing.T, path string) *workbook.Context {
	t.Helper()

	ctx, err := workbook.Load(path, workbook.Identity{StableID: path})
	if err != nil {
		t.Fatalf("workbook.Load(%s): %v", path, err)
	}

	return ctx
}

func TestBasicDiffOfIdenticalWorkbooksIsEmpty(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.xlsx")
	b := filepath.Join(dir, "b.xlsx")

	writeDiffFixture(t, a, nil)
	writeDiffFixture(t, b, nil)

	ctxA := loadCtx(t, a)
	ctxB := loadCtx(t, b)

	changes, err := Basic(ctxA, ctxB)
	require.NoError(t, err)
	require.Empty(t, changes)
}

func TestBasicDiffTwoCellEditsProduceRecordsOfExpectedKinds(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.xlsx")
	b := filepath.Join(dir, "b.xlsx")

	writeDiffFixture(t, a, nil)
	writeDiffFixture(t, b, func(f *excelize.File) {
		if err := f.SetCellValue("Sheet1", "A2", "Eve"); err != nil {
			t.Fatal(err)
		}

		if err := f.SetCellFormula("Sheet1", "C2", "B2*3"); err != nil {
			t.Fatal(err)
		}
	})

	ctxA := loadCtx(t, a)
	ctxB := loadCtx(t, b)

	changes, err := Basic(ctxA, ctxB)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(changes), 2, "expected at least 2 change records (A2 value, C2 formula+value), got %+v", changes)

	kinds := map[string]Kind{}
	for _, c := range changes {
		kinds[c.Address] = c.Kind
	}

	want := map[string]Kind{"A2": KindValueChanged, "C2": KindFormulaAndValueChanged}
	if diff := cmp.Diff(want, kinds, cmpIgnoreFormulaVariant); diff != "" {
		t.Fatalf("cell kinds mismatch (-want +got):\n%s", diff)
	}
}

// cmpIgnoreFormulaVariant treats KindFormulaChanged and
// KindFormulaAndValueChanged as equivalent: excelize's cached value for a
// recalculated formula cell isn't guaranteed stable across runs.
var cmpIgnoreFormulaVariant = cmp.Comparer(func(a, b Kind) bool {
	formulaKind := func(k Kind) Kind {
		if k == KindFormulaAndValueChanged {
			return KindFormulaChanged
		}

		return k
	}

	return formulaKind(a) == formulaKind(b)
})

func TestBasicDiffAddedAndRemovedCells(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.xlsx")
	b := filepath.Join(dir, "b.xlsx")

	writeDiffFixture(t, a, nil)
	writeDiffFixture(t, b, func(f *excelize.File) {
		if err := f.SetCellValue("Sheet1", "D2", "new"); err != nil {
			t.Fatal(err)
		}

		if err := f.SetCellValue("Sheet1", "A3", nil); err != nil {
			t.Fatal(err)
		}
	})

	ctxA := loadCtx(t, a)
	ctxB := loadCtx(t, b)

	changes, err := Basic(ctxA, ctxB)
	require.NoError(t, err)

	var sawAdded, sawRemoved bool

	for _, c := range changes {
		if c.Address == "D2" && c.Kind == KindAdded {
			sawAdded = true
		}

		if c.Address == "A3" && c.Kind == KindRemoved {
			sawRemoved = true
		}
	}

	require.True(t, sawAdded, "expected D2 to be reported as added, got %+v", changes)
	require.True(t, sawRemoved, "expected A3 to be reported as removed, got %+v", changes)
}

func TestStreamingDiffOfIdenticalWorkbooksIsEmpty(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.xlsx")
	b := filepath.Join(dir, "b.xlsx")

	writeDiffFixture(t, a, nil)
	writeDiffFixture(t, b, nil)

	changes, err := Streaming(a, b, nil)
	require.NoError(t, err)
	require.Empty(t, changes)
}

func TestStreamingDiffSkipsUnchangedSheets(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.xlsx")
	b := filepath.Join(dir, "b.xlsx")

	writeDiffFixture(t, a, nil)
	writeDiffFixture(t, b, func(f *excelize.File) {
		if err := f.SetCellValue("Sheet1", "A2", "Eve"); err != nil {
			t.Fatal(err)
		}
	})

	var skipped []string

	changes, err := Streaming(a, b, func(sheet string) {
		skipped = append(skipped, sheet)
	})
	if err != nil {
		t.Fatalf("Streaming: %v", err)
	}

	foundSheet2Skip := false

	for _, s := range skipped {
		if s == "Sheet2" {
			foundSheet2Skip = true
		}
	}

	if !foundSheet2Skip {
		t.Fatalf("expected Sheet2 (byte-identical) to be skipped, skipped=%v", skipped)
	}

	for _, c := range changes {
		if c.Sheet == "Sheet2" {
			t.Fatalf("expected no diffs reported for the unchanged sheet, got %+v", c)
		}
	}

	var sawA2 bool

	for _, c := range changes {
		if c.Sheet == "Sheet1" && c.Address == "A2" {
			sawA2 = true
		}
	}

	if !sawA2 {
		t.Fatalf("expected Sheet1!A2 to be reported as changed, got %+v", changes)
	}
}

func TestStreamingDiffSingleCellChangeYieldsExpectedKind(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.xlsx")
	b := filepath.Join(dir, "b.xlsx")

	writeDiffFixture(t, a, nil)
	writeDiffFixture(t, b, func(f *excelize.File) {
		if err := f.SetCellFormula("Sheet1", "C2", "B2*3"); err != nil {
			t.Fatal(err)
		}
	})

	changes, err := Streaming(a, b, nil)
	if err != nil {
		t.Fatalf("Streaming: %v", err)
	}

	var found *CellChange

	for i := range changes {
		if changes[i].Sheet == "Sheet1" && changes[i].Address == "C2" {
			found = &changes[i]
		}
	}

	if found == nil {
		t.Fatalf("expected a change record for Sheet1!C2, got %+v", changes)
	}

	if found.Kind != KindFormulaChanged && found.Kind != KindFormulaAndValueChanged {
		t.Fatalf("expected C2's kind to be a formula-involving kind, got %q", found.Kind)
	}
}
