package graph

import (
	"context"
	"sync"
)

// LoadFunc materializes the entity identified by the given URI.
type LoadFunc[E any] func(ctx context.Context, uri string) (E, error)

// Cache memoizes entity loads by URI. The pending entry is registered under
// the lock before the load starts, so every concurrent Read for a URI
// observes and awaits the same in-flight load rather than issuing its own.
// A failed load is evicted once settled: the error is returned to everyone
// already waiting, and the next Read attempts a fresh load. There is no TTL
// or size bound; the lifetime of an entry is the session, ended by
// InvalidateAll.
type Cache[E any] struct {
	mu      sync.Mutex
	load    LoadFunc[E]
	entries map[string]*entry[E]
}

type entry[E any] struct {
	done  chan struct{}
	value E
	err   error
}

func NewCache[E any](load LoadFunc[E]) *Cache[E] {
	return &Cache[E]{load: load, entries: make(map[string]*entry[E])}
}

// Read returns the cached entity for the URI, loading it if necessary.
func (c *Cache[E]) Read(ctx context.Context, uri string) (E, error) {
	c.mu.Lock()
	if e, ok := c.entries[uri]; ok {
		c.mu.Unlock()
		return e.await(ctx)
	}
	e := &entry[E]{done: make(chan struct{})}
	c.entries[uri] = e
	c.mu.Unlock()

	e.value, e.err = c.load(ctx, uri)
	close(e.done)
	if e.err != nil {
		c.mu.Lock()
		// InvalidateAll may have swapped the map; only evict our own entry.
		if c.entries[uri] == e {
			delete(c.entries, uri)
		}
		c.mu.Unlock()
	}
	return e.value, e.err
}

// InvalidateAll drops every entry. Reads already in flight settle against
// their callers but are not retained.
func (c *Cache[E]) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]*entry[E])
	c.mu.Unlock()
}

func (e *entry[E]) await(ctx context.Context) (E, error) {
	select {
	case <-e.done:
		return e.value, e.err
	case <-ctx.Done():
		var zero E
		return zero, ctx.Err()
	}
}
