package dqengine

import (
	"os"
	"strconv"

	"github.com/dquery/dqengine/internal/evaluator"
	"github.com/dquery/dqengine/internal/executor"
)

// Config holds the process-wide settings named in spec.md §6. Unlike
// per-query state, a Config (and the cache it sizes) is shared across
// every query the Engine runs.
type Config struct {
	QueryCacheSize      int
	DefaultExecutorMode executor.Mode
	DefaultFainderMode  evaluator.FainderMode
	WorkerPoolSize      int
	KeywordMaxResults   int
	KeywordMinScore     float64
}

// DefaultConfig returns the configuration new Engines use unless
// overridden.
func DefaultConfig() *Config {
	return &Config{
		QueryCacheSize:      1024,
		DefaultExecutorMode: executor.Prefilter,
		DefaultFainderMode:  evaluator.FullPrecision,
		WorkerPoolSize:      4,
		KeywordMaxResults:   100,
		KeywordMinScore:     0,
	}
}

// ConfigFromEnv starts from DefaultConfig and overrides any field that
// has a matching, parseable environment variable set.
func ConfigFromEnv() *Config {
	c := DefaultConfig()

	if v, ok := getEnvInt("DQENGINE_QUERY_CACHE_SIZE"); ok {
		c.QueryCacheSize = v
	}
	if v, ok := getEnvInt("DQENGINE_WORKER_POOL_SIZE"); ok {
		c.WorkerPoolSize = v
	}
	if v, ok := getEnvInt("DQENGINE_KEYWORD_MAX_RESULTS"); ok {
		c.KeywordMaxResults = v
	}
	if v, ok := getEnvFloat("DQENGINE_KEYWORD_MIN_SCORE"); ok {
		c.KeywordMinScore = v
	}
	if s, ok := os.LookupEnv("DQENGINE_DEFAULT_EXECUTOR_MODE"); ok {
		if mode, ok := parseExecutorMode(s); ok {
			c.DefaultExecutorMode = mode
		}
	}
	if s, ok := os.LookupEnv("DQENGINE_DEFAULT_FAINDER_MODE"); ok {
		if mode, ok := parseFainderMode(s); ok {
			c.DefaultFainderMode = mode
		}
	}

	return c
}

func getEnvInt(key string) (int, bool) {
	s, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvFloat(key string) (float64, bool) {
	s, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseExecutorMode(s string) (executor.Mode, bool) {
	switch s {
	case "sequential":
		return executor.Sequential, true
	case "prefilter":
		return executor.Prefilter, true
	case "threaded":
		return executor.Threaded, true
	default:
		return 0, false
	}
}

func parseFainderMode(s string) (evaluator.FainderMode, bool) {
	switch s {
	case "low_memory":
		return evaluator.LowMemory, true
	case "full_precision":
		return evaluator.FullPrecision, true
	case "full_recall":
		return evaluator.FullRecall, true
	case "exact":
		return evaluator.Exact, true
	default:
		return 0, false
	}
}
