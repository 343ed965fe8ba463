package formula

import "testing"

func TestCanonicalRoundTripsSheetQualifiersAndQuoting(t *testing.T) {
	cases := []string{
		"='Q1 Actuals'!A1 + Sheet2!B2",
		"=SUM(A1:A10)",
		"=IF(A1>0,\"pos\",\"neg\")",
		"={1,2,3}",
	}

	for _, raw := range cases {
		ast, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse(%q): %v", raw, err)
		}

		got := "=" + Canonical(ast)

		reparsed, err := Parse(got)
		if err != nil {
			t.Fatalf("re-parsing canonical form %q: %v", got, err)
		}

		if again := "=" + Canonical(reparsed); again != got {
			t.Fatalf("canonical form not stable: %q then %q", got, again)
		}
	}
}

func TestReferencesCollectsAllLeaves(t *testing.T) {
	ast, err := Parse("=SUM(A1:A10,Revenue)+Table1[Amount]")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	refs := References(ast)
	if len(refs) != 3 {
		t.Fatalf("expected 3 references, got %d: %+v", len(refs), refs)
	}
}
