package executor

import (
	"context"
	"sort"
	"testing"

	"github.com/dquery/dqengine/internal/ast"
	"github.com/dquery/dqengine/internal/dql"
	"github.com/dquery/dqengine/internal/evaluator"
)

func parseOrFatal(t *testing.T, query string) ast.Node {
	t.Helper()
	n, err := dql.Parse(query)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", query, err)
	}
	return n
}

func sortedIDs(ids []evaluator.DatasetID) []evaluator.DatasetID {
	out := append([]evaluator.DatasetID(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func idsEqual(a, b []evaluator.DatasetID) bool {
	a, b = sortedIDs(a), sortedIDs(b)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TestCrossExecutor_Equivalence runs spec.md §8's six seed scenarios
// through all three executor modes against the
// shared fixture and asserts they produce identical result sets — mode
// only changes performance, never the answer.
func TestCrossExecutor_Equivalence(t *testing.T) {
	cases := []struct {
		name  string
		query string
	}{
		{"plain keyword", `KW("lung cancer")`},
		{"keyword and name scope", `KW("lung cancer") AND COL(NAME("age";4))`},
		{"cross domain shared group", `KW("a") AND COL(NAME("age";4) AND PP(0.7;le;50))`},
		{"or of isolated percentiles", `COL(PP(0.9;ge;100)) OR COL(PP(0.1;le;0))`},
		{"negated keyword", `NOT KW("weather")`},
		{"keyword merge collapses", `KW("a") AND KW("b") AND KW("c")`},
	}

	modes := []Mode{Sequential, Prefilter, Threaded}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan := parseOrFatal(t, tc.query)
			ev := fixtureEvaluators()

			var reference []evaluator.DatasetID
			for i, mode := range modes {
				exec := New(mode, Options{WorkerPoolSize: 4})
				res, err := exec.Execute(context.Background(), plan, ev, evaluator.Exact)
				if err != nil {
					t.Fatalf("mode %s: Execute failed: %v", mode, err)
				}
				if i == 0 {
					reference = res.IDs
					continue
				}
				if !idsEqual(reference, res.IDs) {
					t.Errorf("mode %s result %v disagrees with %s result %v", mode, res.IDs, modes[0], reference)
				}
			}
		})
	}
}

func TestSequential_CrossDomainSharedGroup(t *testing.T) {
	plan := parseOrFatal(t, `KW("a") AND COL(NAME("age";4) AND PP(0.7;le;50))`)
	exec := New(Sequential, Options{})
	res, err := exec.Execute(context.Background(), plan, fixtureEvaluators(), evaluator.Exact)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	want := []evaluator.DatasetID{5}
	if !idsEqual(res.IDs, want) {
		t.Errorf("IDs = %v, want %v", res.IDs, want)
	}
}

func TestPrefilter_ORIsolatesWriteGroups(t *testing.T) {
	plan := parseOrFatal(t, `COL(PP(0.9;ge;100)) OR COL(PP(0.1;le;0))`)
	exec := New(Prefilter, Options{})
	res, err := exec.Execute(context.Background(), plan, fixtureEvaluators(), evaluator.Exact)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	want := []evaluator.DatasetID{0, 1, 2}
	if !idsEqual(res.IDs, want) {
		t.Errorf("IDs = %v, want %v", res.IDs, want)
	}
}

func TestThreaded_NegatedKeyword(t *testing.T) {
	plan := parseOrFatal(t, `NOT KW("weather")`)
	exec := New(Threaded, Options{WorkerPoolSize: 2})
	res, err := exec.Execute(context.Background(), plan, fixtureEvaluators(), evaluator.Exact)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	want := []evaluator.DatasetID{0, 1, 3, 5, 6, 7, 8, 9}
	if !idsEqual(res.IDs, want) {
		t.Errorf("IDs = %v, want %v", res.IDs, want)
	}
}

func TestScoring_KeywordScoreOrdersResult(t *testing.T) {
	plan := parseOrFatal(t, `KW("a")`)
	exec := New(Sequential, Options{})
	res, err := exec.Execute(context.Background(), plan, fixtureEvaluators(), evaluator.Exact)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	// Descending by score: 0 (1.0), 2 (0.8), 4 (0.6), 5 (0.55), 6 (0.4), 8 (0.2).
	want := []evaluator.DatasetID{0, 2, 4, 5, 6, 8}
	if len(res.IDs) != len(want) {
		t.Fatalf("IDs = %v, want %v", res.IDs, want)
	}
	for i := range want {
		if res.IDs[i] != want[i] {
			t.Fatalf("IDs = %v, want %v", res.IDs, want)
		}
	}
}
