// Package dqengine is a distribution-aware dataset search engine: a
// Boolean query language over keyword, column-name, and percentile
// predicates, compiled and optimized into an annotated AST and run by
// one of three interchangeable executor strategies against pluggable
// evaluator backends.
package dqengine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dquery/dqengine/internal/ast"
	"github.com/dquery/dqengine/internal/cache"
	"github.com/dquery/dqengine/internal/dql"
	"github.com/dquery/dqengine/internal/evaluator"
	"github.com/dquery/dqengine/internal/executor"
	"github.com/dquery/dqengine/internal/optimizer"
)

// Engine is the query entry point: parse, cache, optimize, execute.
// One Engine is built once against a set of evaluator backends and
// reused across every query; the cache and Config are the only
// process-wide state it holds, per spec.md §5.
type Engine struct {
	config *Config
	ev     executor.Evaluators
	cache  *cache.Cache
	stats  ast.Stats
}

// New builds an Engine. ev must have every field populated; stats may
// be nil, in which case the optimizer's cost-based reordering pass
// falls back to its +Inf tiebreak for percentile leaves.
func New(config *Config, ev executor.Evaluators, stats ast.Stats) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := validateEvaluators(ev); err != nil {
		return nil, err
	}

	c, err := cache.New(config.QueryCacheSize)
	if err != nil {
		return nil, &EngineError{Kind: KindInternal, Message: "failed to build query cache", Cause: err}
	}

	return &Engine{config: config, ev: ev, cache: c, stats: stats}, nil
}

func validateEvaluators(ev executor.Evaluators) error {
	missing := ""
	switch {
	case ev.Keyword == nil:
		missing = "Keyword"
	case ev.ColumnName == nil:
		missing = "ColumnName"
	case ev.Percentile == nil:
		missing = "Percentile"
	case ev.Meta == nil:
		missing = "Meta"
	}
	if missing != "" {
		return &EngineError{
			Kind:    KindEvaluatorUnavailable,
			Message: fmt.Sprintf("evaluator backend %q is not configured", missing),
		}
	}
	return nil
}

// Execute parses, optimizes, and runs query under mode and
// fainderMode, serving the cache when the same (query, mode) has
// already run. mode is used as given (its zero value is Sequential);
// ExecuteDefault runs with the Engine's configured default modes.
func (e *Engine) Execute(ctx context.Context, query string, mode executor.Mode, fainderMode evaluator.FainderMode) (executor.Result, error) {
	plan, err := dql.Parse(query)
	if err != nil {
		return executor.Result{}, classifyError(err).WithQuery(query)
	}

	// Fingerprint the optimized tree, not the raw parse: two queries
	// that differ only in sibling order or keyword-merge shape must
	// hash identically so they share a cache entry, per spec.md §4.6.
	// The Prefilter and Threaded executors re-run Optimize on plan
	// themselves (Optimize is idempotent), so this costs one redundant
	// normalization pass
	// per miss in exchange for leaving Sequential's documented
	// raw-AST contract untouched.
	key := cache.Key{Fingerprint: ast.Fingerprint(optimizer.Optimize(plan, e.stats)), Mode: mode}
	res, err := e.cache.Get(ctx, key, func(ctx context.Context) (executor.Result, error) {
		exec := executor.New(mode, executor.Options{WorkerPoolSize: e.config.WorkerPoolSize, Stats: e.stats})
		return exec.Execute(ctx, plan, e.ev, fainderMode)
	})
	if err != nil {
		wrapped := classifyError(err).WithQuery(query)
		zap.S().Errorw("query execution failed", "query", query, "mode", mode, "kind", wrapped.Kind, "error", err)
		return executor.Result{}, wrapped
	}
	return res, nil
}

// ExecuteDefault runs query with the Engine's configured default
// executor and Fainder modes.
func (e *Engine) ExecuteDefault(ctx context.Context, query string) (executor.Result, error) {
	return e.Execute(ctx, query, e.config.DefaultExecutorMode, e.config.DefaultFainderMode)
}

// PurgeCache drops every cached query result.
func (e *Engine) PurgeCache() {
	e.cache.Purge()
}
