package identity

import (
	"strings"
	"testing"
	"time"
)

func TestStableIDInvariantUnderContent(t *testing.T) {
	id1 := StableID("/ws/report.xlsx")
	id2 := StableID("/ws/report.xlsx")

	if id1 != id2 {
		t.Fatalf("stable id changed across calls for same path")
	}
}

func TestStableIDDiffersByPath(t *testing.T) {
	if StableID("/ws/a.xlsx") == StableID("/ws/b.xlsx") {
		t.Fatal("distinct paths produced the same stable id")
	}
}

func TestRevisionIDChangesWithContent(t *testing.T) {
	a := RevisionIDOfBytes([]byte("hello"))
	b := RevisionIDOfBytes([]byte("hello!"))
	c := RevisionIDOfBytes([]byte("hello"))

	if a == b {
		t.Fatal("revision id did not change with content")
	}

	if a != c {
		t.Fatal("revision id not deterministic for identical bytes")
	}
}

func TestLegacyIDIndependentOfStableID(t *testing.T) {
	mt := time.Unix(1000, 0)
	legacy := LegacyID("/ws/report.xlsx", 128, mt)
	stable := StableID("/ws/report.xlsx")

	if legacy == stable {
		t.Fatal("legacy id collided with stable id derivation")
	}
}

func TestSlugifySanitizes(t *testing.T) {
	cases := map[string]string{
		"My Report!!.xlsx": "my-report-xlsx",
		"  leading":        "leading",
		"trailing  ":       "trailing",
		"a___b":            "a___b",
		"":                 "workbook",
	}

	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestShortIDShapeAndCaseInsensitiveResolution(t *testing.T) {
	stable := StableID("/ws/report.xlsx")
	short := ShortID("My Report", stable)

	if !LooksLikeShortID(short) {
		t.Fatalf("short id %q does not match expected shape", short)
	}

	if !LooksLikeShortID(strings.ToUpper(short)) {
		t.Fatalf("short id resolution must be case-insensitive")
	}
}
