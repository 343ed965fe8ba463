package warnings

import "testing"

func TestCollectorStartsEmpty(t *testing.T) {
	var c Collector

	if !c.Empty() {
		t.Fatal("expected a fresh collector to be empty")
	}

	if len(c.Items()) != 0 {
		t.Fatal("expected a fresh collector to have no items")
	}
}

func TestCollectorAddPreservesInsertionOrder(t *testing.T) {
	var c Collector

	c.Add(StaleFormulas, "formulas may be stale", "run recalculate")
	c.Add(ShorthandEdit, "ambiguous shorthand", "quote the value")

	items := c.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	if items[0].Code != StaleFormulas || items[1].Code != ShorthandEdit {
		t.Fatalf("expected insertion order to be preserved, got %v", items)
	}

	if c.Empty() {
		t.Fatal("expected a non-empty collector after Add")
	}
}
