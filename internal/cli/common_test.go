package cli

import "testing"

func TestParseEditShorthand_ValueForm(t *testing.T) {
	got, err := parseEditShorthand("A1=5")
	if err != nil {
		t.Fatalf("parseEditShorthand: %v", err)
	}

	want := editShorthand{Address: "A1", Value: "5"}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestParseEditShorthand_FormulaForm(t *testing.T) {
	got, err := parseEditShorthand("A1==B1*2")
	if err != nil {
		t.Fatalf("parseEditShorthand: %v", err)
	}

	want := editShorthand{Address: "A1", Value: "B1*2", IsFormula: true}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

// TestParseEditShorthand_ToleratesWhitespaceAroundInnerEquals exercises the
// §8 testable property: "address=addr.trim() ... Whitespace around the
// inner `=` is permitted."
func TestParseEditShorthand_ToleratesWhitespaceAroundInnerEquals(t *testing.T) {
	cases := []struct {
		raw  string
		want editShorthand
	}{
		{"A1 = 5", editShorthand{Address: "A1", Value: "5"}},
		{"A1= 5", editShorthand{Address: "A1", Value: "5"}},
		{"A1 =5", editShorthand{Address: "A1", Value: "5"}},
		{"  A1  = 5", editShorthand{Address: "A1", Value: "5"}},
		{"A1 == B1*2", editShorthand{Address: "A1", Value: "B1*2", IsFormula: true}},
		{"A1= =B1*2", editShorthand{Address: "A1", Value: "B1*2", IsFormula: true}},
	}

	for _, c := range cases {
		got, err := parseEditShorthand(c.raw)
		if err != nil {
			t.Fatalf("parseEditShorthand(%q): %v", c.raw, err)
		}

		if got != c.want {
			t.Fatalf("parseEditShorthand(%q) = %+v, want %+v", c.raw, got, c.want)
		}
	}
}
