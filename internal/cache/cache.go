package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/dquery/dqengine/internal/executor"
)

// Loader computes the result for a cache miss. It is only ever called
// once per key while a call for that key is in flight, even if many
// goroutines ask for it concurrently.
type Loader func(ctx context.Context) (executor.Result, error)

// Cache is a bounded, concurrency-safe memo of query results keyed by
// (fingerprint, mode). A miss triggers exactly one Loader call per key;
// concurrent callers for the same key block on that call and share its
// result, per spec.md §4.6.
type Cache struct {
	lru    *lru.Cache[Key, executor.Result]
	flight singleflight.Group
}

// New builds a Cache holding at most size entries. size must be
// positive.
func New(size int) (*Cache, error) {
	backing, err := lru.New[Key, executor.Result](size)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return &Cache{lru: backing}, nil
}

// Get returns the cached result for key, computing it with load on a
// miss. A load failure is not cached; the next Get for the same key
// retries.
func (c *Cache) Get(ctx context.Context, key Key, load Loader) (executor.Result, error) {
	if res, ok := c.lru.Get(key); ok {
		return res, nil
	}

	flightKey := fmt.Sprintf("%s\x00%d", key.Fingerprint, key.Mode)
	v, err, _ := c.flight.Do(flightKey, func() (any, error) {
		res, err := load(ctx)
		if err != nil {
			return executor.Result{}, err
		}
		c.lru.Add(key, res)
		return res, nil
	})
	if err != nil {
		return executor.Result{}, err
	}
	return v.(executor.Result), nil
}

// Purge drops every cached entry.
func (c *Cache) Purge() {
	c.lru.Purge()
}

// Len reports the number of entries currently cached.
func (c *Cache) Len() int {
	return c.lru.Len()
}
