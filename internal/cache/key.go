// Package cache wraps a bounded, concurrency-safe query cache in front
// of the executor: the same query text and mode hit the cache instead
// of re-running the optimizer and evaluators.
package cache

import "github.com/dquery/dqengine/internal/executor"

// Key identifies one cacheable query. Two identical query strings run
// under different modes are different cache entries, since Sequential,
// Prefilter, and Threaded are guaranteed to agree on results but not on
// Scores/Snippets ordering work done along the way (and a caller that
// asked for one mode should not silently receive a differently-moded
// cached answer).
type Key struct {
	Fingerprint string
	Mode        executor.Mode
}
