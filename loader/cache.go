package loader

import (
	"context"
	"sync"

	"github.com/binzume/pokeview/scene"
	"github.com/pkg/errors"
)

type parseFunc func(path string) (*scene.Node, error)

type cacheEntry struct {
	done chan struct{}
	root *scene.Node
	err  error
}

// parseCache parses each path once. Concurrent requests for a path share
// the in-flight parse. Failed parses are forgotten so they can be retried.
// Cached roots must not be mutated.
type parseCache struct {
	parse   parseFunc
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

func newParseCache(parse parseFunc) *parseCache {
	return &parseCache{parse: parse, entries: map[string]*cacheEntry{}}
}

func (c *parseCache) get(ctx context.Context, path string) (*scene.Node, error) {
	c.mu.Lock()
	e, ok := c.entries[path]
	if !ok {
		e = &cacheEntry{done: make(chan struct{})}
		c.entries[path] = e
		go c.run(path, e)
	}
	c.mu.Unlock()

	select {
	case <-e.done:
		return e.root, e.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *parseCache) run(path string, e *cacheEntry) {
	defer close(e.done)
	defer func() {
		if r := recover(); r != nil {
			e.root, e.err = nil, errors.Errorf("loader: panic while parsing %s: %v", path, r)
		}
		if e.err != nil {
			c.mu.Lock()
			delete(c.entries, path)
			c.mu.Unlock()
		}
	}()
	e.root, e.err = c.parse(path)
	if e.err == nil && e.root == nil {
		e.err = errors.Errorf("loader: %s: empty scene", path)
	}
}

func (c *parseCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
