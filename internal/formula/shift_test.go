package formula

import "testing"

func TestShiftFormulaGroupedSumDivision(t *testing.T) {
	got, err := ShiftFormula("=(A1+B1+C1)/D1", 0, 1, ModeExcel)
	if err != nil {
		t.Fatalf("ShiftFormula: %v", err)
	}

	want := "=(A2 + B2 + C2) / D2"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestShiftFormulaPreservesExplicitGrouping(t *testing.T) {
	got, err := ShiftFormula("=A1-(B1-C1)", 0, 1, ModeExcel)
	if err != nil {
		t.Fatalf("ShiftFormula: %v", err)
	}

	want := "=A2 - (B2 - C2)"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestShiftFormulaLeavesAbsoluteAxesAlone(t *testing.T) {
	got, err := ShiftFormula("=$A$1+B1", 2, 3, ModeExcel)
	if err != nil {
		t.Fatalf("ShiftFormula: %v", err)
	}

	want := "=$A$1 + D4"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestShiftFormulaMixedAbsolute(t *testing.T) {
	got, err := ShiftFormula("=A$1+$B1", 1, 1, ModeExcel)
	if err != nil {
		t.Fatalf("ShiftFormula: %v", err)
	}

	want := "=B$1 + $B2"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestShiftFormulaNeverTouchesNamedRangeTableOrExternal(t *testing.T) {
	got, err := ShiftFormula("=SUM(Revenue,Table1[Amount])+[1]Sheet1!A1", 5, 5, ModeExcel)
	if err != nil {
		t.Fatalf("ShiftFormula: %v", err)
	}

	want := "=SUM(Revenue,Table1[Amount]) + [1]Sheet1!A1"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestShiftFormulaFailsBeforeColumnA(t *testing.T) {
	if _, err := ShiftFormula("=A1", -1, 0, ModeExcel); err == nil {
		t.Fatalf("expected error shifting column before A")
	}
}

func TestShiftFormulaFailsBeforeRow1(t *testing.T) {
	if _, err := ShiftFormula("=A1", 0, -1, ModeExcel); err == nil {
		t.Fatalf("expected error shifting row before 1")
	}
}

func TestShiftFormulaAbsColsModeNeverShiftsColumn(t *testing.T) {
	got, err := ShiftFormula("=A1", 3, 2, ModeAbsCols)
	if err != nil {
		t.Fatalf("ShiftFormula: %v", err)
	}

	want := "=$A3"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestShiftFormulaAbsRowsModeNeverShiftsRow(t *testing.T) {
	got, err := ShiftFormula("=A1", 3, 2, ModeAbsRows)
	if err != nil {
		t.Fatalf("ShiftFormula: %v", err)
	}

	want := "=D$1"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestShiftRoundTripIsIdentityOnCanonicalForm(t *testing.T) {
	cases := []string{
		"=(A1+B1+C1)/D1",
		"=A1-(B1-C1)",
		"=SUM(A1:C3)*2-1",
		"=-A1^2",
	}

	for _, raw := range cases {
		forward, err := ShiftFormula(raw, 3, 4, ModeExcel)
		if err != nil {
			t.Fatalf("forward shift of %q: %v", raw, err)
		}

		back, err := ShiftFormula(forward, -3, -4, ModeExcel)
		if err != nil {
			t.Fatalf("backward shift of %q: %v", forward, err)
		}

		canonicalOrig, err := ShiftFormula(raw, 0, 0, ModeExcel)
		if err != nil {
			t.Fatalf("canonicalizing %q: %v", raw, err)
		}

		if back != canonicalOrig {
			t.Fatalf("round trip for %q: got %q, want %q", raw, back, canonicalOrig)
		}
	}
}
