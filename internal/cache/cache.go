// Package cache implements a bounded LRU of parsed WorkbookContexts,
// grounded on mcpxcel's workbooks.Manager/Handle pattern (Mutex-guarded
// map plus a recency list, capacity eviction).
package cache

import (
	"container/list"
	"sync"

	"github.com/xlkit/xlkit/internal/repository"
	"github.com/xlkit/xlkit/internal/workbook"
)

// Opener loads a fresh Context for a resolved reference on a cache miss.
// Satisfied by repository.Repository.LoadContext.
type Opener interface {
	LoadContext(ref repository.ResolvedWorkbookRef) (*workbook.Context, error)
}

type entry struct {
	ref *repository.ResolvedWorkbookRef
	ctx *workbook.Context
}

// Cache is a bounded, stable-id-keyed LRU of shared *workbook.Context
// handles. Capacity must be >= 1. Eviction drops the cache's
// reference; concurrent readers that already hold a *workbook.Context may
// keep using it until they Close it themselves.
type Cache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = most recently used
	index    map[string]*list.Element
}

// New constructs a Cache. capacity is clamped to at least 1.
func New(capacity int) *Cache {
	if capacity < 1 {
		capacity = 1
	}

	return &Cache{
		capacity: capacity,
		order:    list.New(),
		index:    map[string]*list.Element{},
	}
}

// Open returns the cached Context for ref.WorkbookID, opening and
// inserting one via opener on a miss.
func (c *Cache) Open(ref repository.ResolvedWorkbookRef, opener Opener) (*workbook.Context, error) {
	c.mu.Lock()

	if el, ok := c.index[ref.WorkbookID]; ok {
		c.order.MoveToFront(el)
		ctx := el.Value.(*entry).ctx
		c.mu.Unlock()

		return ctx, nil
	}

	c.mu.Unlock()

	ctx, err := opener.LoadContext(ref)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[ref.WorkbookID]; ok {
		c.order.MoveToFront(el)

		return el.Value.(*entry).ctx, nil
	}

	refCopy := ref
	el := c.order.PushFront(&entry{ref: &refCopy, ctx: ctx})
	c.index[ref.WorkbookID] = el

	c.evictLocked()

	return ctx, nil
}

// Close removes id from the cache and releases its underlying resources.
func (c *Cache) Close(id string) error {
	c.mu.Lock()

	el, ok := c.index[id]
	if !ok {
		c.mu.Unlock()

		return nil
	}

	delete(c.index, id)
	c.order.Remove(el)
	c.mu.Unlock()

	return el.Value.(*entry).ctx.Close()
}

// EvictByPath removes every cached entry whose source equals p.
func (c *Cache) EvictByPath(p string) {
	c.mu.Lock()

	var toClose []*workbook.Context

	for id, el := range c.index {
		e := el.Value.(*entry)
		if e.ctx.Source == p {
			delete(c.index, id)
			c.order.Remove(el)
			toClose = append(toClose, e.ctx)
		}
	}

	c.mu.Unlock()

	for _, ctx := range toClose {
		_ = ctx.Close()
	}
}

// Len returns the number of entries currently cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.order.Len()
}

// evictLocked drops least-recently-used entries until capacity holds.
// Caller must hold c.mu.
func (c *Cache) evictLocked() {
	for c.order.Len() > c.capacity {
		back := c.order.Back()
		if back == nil {
			return
		}

		e := back.Value.(*entry)
		delete(c.index, e.ref.WorkbookID)
		c.order.Remove(back)

		_ = e.ctx.Close()
	}
}
