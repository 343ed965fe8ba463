package workbook

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeFixture(t *testing.T, path string, build func(f *excelize.File)) {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	build(f)

	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDetectsFormulaCapability(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")

	writeFixture(t, path, func(f *excelize.File) {
		if err := f.SetCellValue("Sheet1", "A1", 10); err != nil {
			t.Fatal(err)
		}

		if err := f.SetCellFormula("Sheet1", "A2", "A1*2"); err != nil {
			t.Fatal(err)
		}
	})

	ctx, err := Load(path, Identity{StableID: "s", ShortID: "short", RevisionID: "rev"})
	if err != nil {
		t.Fatal(err)
	}

	defer func() { _ = ctx.Close() }()

	if !ctx.HasSheet("Sheet1") {
		t.Fatal("expected Sheet1 to be present")
	}

	if ctx.HasSheet("NoSuchSheet") {
		t.Fatal("did not expect NoSuchSheet to be present")
	}

	caps := ctx.Capabilities()

	found := false

	for _, c := range caps {
		if c == CapFormulas {
			found = true
		}
	}

	if !found {
		t.Fatalf("expected CapFormulas among capabilities, got %v", caps)
	}
}

func TestLoadWithoutFormulasHasNoFormulaCapability(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")

	writeFixture(t, path, func(f *excelize.File) {
		if err := f.SetCellValue("Sheet1", "A1", "plain"); err != nil {
			t.Fatal(err)
		}
	})

	ctx, err := Load(path, Identity{StableID: "s"})
	if err != nil {
		t.Fatal(err)
	}

	defer func() { _ = ctx.Close() }()

	for _, c := range ctx.Capabilities() {
		if c == CapFormulas {
			t.Fatal("did not expect CapFormulas for a workbook with no formulas")
		}
	}
}

func TestLoadBytesPreservesIdentityAndSource(t *testing.T) {
	f := excelize.NewFile()

	if err := f.SetCellValue("Sheet1", "A1", "x"); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}

	_ = f.Close()

	id := Identity{StableID: "virt-stable", ShortID: "virt-short", RevisionID: "virt-rev"}

	ctx, err := LoadBytes(buf.Bytes(), "virtual/key", id)
	if err != nil {
		t.Fatal(err)
	}

	defer func() { _ = ctx.Close() }()

	if ctx.Source != "virtual/key" {
		t.Fatalf("expected source virtual/key, got %q", ctx.Source)
	}

	if ctx.Identity != id {
		t.Fatalf("expected identity to round-trip unchanged, got %+v", ctx.Identity)
	}
}

func TestSheetsReturnsSortedNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")

	writeFixture(t, path, func(f *excelize.File) {
		if _, err := f.NewSheet("Zeta"); err != nil {
			t.Fatal(err)
		}

		if _, err := f.NewSheet("Alpha"); err != nil {
			t.Fatal(err)
		}
	})

	ctx, err := Load(path, Identity{StableID: "s"})
	if err != nil {
		t.Fatal(err)
	}

	defer func() { _ = ctx.Close() }()

	sheets := ctx.Sheets()
	for i := 1; i < len(sheets); i++ {
		if sheets[i-1] > sheets[i] {
			t.Fatalf("expected sheets sorted, got %v", sheets)
		}
	}
}
