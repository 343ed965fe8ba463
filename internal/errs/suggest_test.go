package errs

import "testing"

func TestSuggestPicksClosest(t *testing.T) {
	got := Suggest("Sheat1", []string{"Sheet1", "Sheet2", "Summary"})
	if got != "Sheet1" {
		t.Fatalf("got %q, want Sheet1", got)
	}
}

func TestSuggestEmptyCandidates(t *testing.T) {
	if got := Suggest("x", nil); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}

func TestLevenshteinIdentical(t *testing.T) {
	if d := levenshtein("abc", "abc"); d != 0 {
		t.Fatalf("got %d, want 0", d)
	}
}
