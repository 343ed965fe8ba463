package cache

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/xlkit/xlkit/internal/repository"
	"github.com/xlkit/xlkit/internal/workbook"
)

func minimalXLSX() []byte {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		panic(err)
	}

	return buf.Bytes()
}

type countingOpener struct {
	opens int
	ctx   func(id string) *workbook.Context
}

func (o *countingOpener) LoadContext(ref repository.ResolvedWorkbookRef) (*workbook.Context, error) {
	o.opens++

	return o.ctx(ref.WorkbookID), nil
}

func newTestContext(source string) *workbook.Context {
	ctx, err := workbook.LoadBytes(minimalXLSX(), source, workbook.Identity{StableID: source})
	if err != nil {
		panic(err)
	}

	return ctx
}

func TestCacheOpenHitsAreNotReloaded(t *testing.T) {
	opener := &countingOpener{ctx: func(id string) *workbook.Context { return newTestContext(id) }}
	c := New(4)

	ref := repository.ResolvedWorkbookRef{WorkbookID: "wb-1", Source: "wb-1"}

	if _, err := c.Open(ref, opener); err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, err := c.Open(ref, opener); err != nil {
		t.Fatalf("Open: %v", err)
	}

	if opener.opens != 1 {
		t.Fatalf("expected 1 load, got %d", opener.opens)
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	opener := &countingOpener{ctx: func(id string) *workbook.Context { return newTestContext(id) }}
	c := New(2)

	for _, id := range []string{"a", "b"} {
		if _, err := c.Open(repository.ResolvedWorkbookRef{WorkbookID: id, Source: id}, opener); err != nil {
			t.Fatalf("Open(%s): %v", id, err)
		}
	}

	// Touch "a" so "b" becomes least-recently-used.
	if _, err := c.Open(repository.ResolvedWorkbookRef{WorkbookID: "a", Source: "a"}, opener); err != nil {
		t.Fatalf("Open(a): %v", err)
	}

	if _, err := c.Open(repository.ResolvedWorkbookRef{WorkbookID: "c", Source: "c"}, opener); err != nil {
		t.Fatalf("Open(c): %v", err)
	}

	if c.Len() != 2 {
		t.Fatalf("expected capacity-bounded length 2, got %d", c.Len())
	}

	opener.opens = 0

	if _, err := c.Open(repository.ResolvedWorkbookRef{WorkbookID: "b", Source: "b"}, opener); err != nil {
		t.Fatalf("Open(b): %v", err)
	}

	if opener.opens != 1 {
		t.Fatalf("expected b to have been evicted and reloaded, opens=%d", opener.opens)
	}
}

func TestCacheEvictByPath(t *testing.T) {
	opener := &countingOpener{ctx: func(id string) *workbook.Context { return newTestContext(id) }}
	c := New(4)

	ref := repository.ResolvedWorkbookRef{WorkbookID: "a", Source: "/ws/a.xlsx"}
	if _, err := c.Open(ref, opener); err != nil {
		t.Fatalf("Open: %v", err)
	}

	c.EvictByPath("/ws/a.xlsx")

	if c.Len() != 0 {
		t.Fatalf("expected eviction, len=%d", c.Len())
	}
}

func TestCacheCloseRemovesEntry(t *testing.T) {
	opener := &countingOpener{ctx: func(id string) *workbook.Context { return newTestContext(id) }}
	c := New(4)

	ref := repository.ResolvedWorkbookRef{WorkbookID: "a", Source: "a"}
	if _, err := c.Open(ref, opener); err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := c.Close("a"); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if c.Len() != 0 {
		t.Fatalf("expected 0 entries after close, got %d", c.Len())
	}
}

func TestCacheMinimumCapacityIsOne(t *testing.T) {
	c := New(0)
	if c.capacity != 1 {
		t.Fatalf("expected capacity clamped to 1, got %d", c.capacity)
	}
}

