package optimizer

import (
	"testing"

	"github.com/dquery/dqengine/internal/ast"
)

func TestNormalize_FlattensNestedAnd(t *testing.T) {
	// AND(AND(a, b), c) should flatten to AND(a, b, c).
	a := &ast.Keyword{Pattern: "a"}
	b := &ast.Keyword{Pattern: "b"}
	c := &ast.Keyword{Pattern: "c"}
	tree := ast.NewAnd(ast.NewAnd(a, b), c)

	got := normalize(tree).(*ast.Connective)
	if got.Kind() != ast.And {
		t.Fatalf("expected And, got %s", got.Kind())
	}
	if len(got.Children) != 3 {
		t.Fatalf("expected 3 flattened children, got %d", len(got.Children))
	}
}

func TestNormalize_EliminatesDoubleNegation(t *testing.T) {
	kw := &ast.Keyword{Pattern: "a"}
	tree := ast.NewNot(ast.NewNot(kw))

	got := normalize(tree)
	if got != ast.Node(kw) {
		t.Fatalf("expected double negation to cancel to the original leaf, got %#v", got)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	a := &ast.Keyword{Pattern: "a"}
	b := &ast.Keyword{Pattern: "b"}
	tree := ast.NewAnd(ast.NewAnd(a, ast.NewAnd(b)), ast.NewNot(ast.NewNot(a)))

	once := normalize(tree)
	twice := normalize(once)
	if ast.Fingerprint(once) != ast.Fingerprint(twice) {
		t.Error("normalize should be idempotent")
	}
}

// Seed scenario 6: KW('a') AND KW('b') AND KW('c') collapses to a
// single keyword call with "a AND b AND c".
func TestMergeKeywords_CollapsesChainedAnd(t *testing.T) {
	tree := ast.NewAnd(
		&ast.Keyword{Pattern: "a"},
		&ast.Keyword{Pattern: "b"},
		&ast.Keyword{Pattern: "c"},
	)
	got := Optimize(tree, nil)

	kw, ok := got.(*ast.Keyword)
	if !ok {
		t.Fatalf("expected a single merged keyword leaf, got %T", got)
	}
	if kw.Pattern != "a AND b AND c" {
		t.Errorf("merged pattern = %q, want %q", kw.Pattern, "a AND b AND c")
	}
}

func TestMergeKeywords_LeavesXorUnmerged(t *testing.T) {
	tree := ast.NewXor(
		&ast.Keyword{Pattern: "a"},
		&ast.Keyword{Pattern: "b"},
	)
	got := mergeKeywords(tree).(*ast.Connective)
	if got.Kind() != ast.Xor {
		t.Fatalf("expected Xor, got %s", got.Kind())
	}
	if len(got.Children) != 2 {
		t.Fatalf("expected XOR children left unmerged, got %d children", len(got.Children))
	}
}

func TestMergeKeywords_MixedSiblingsKeepsNonKeywordChildren(t *testing.T) {
	name := &ast.ColumnName{Name: "age", K: 4}
	tree := ast.NewAnd(
		&ast.Keyword{Pattern: "a"},
		&ast.Keyword{Pattern: "b"},
		name,
	)
	got := Optimize(tree, nil).(*ast.Connective)
	if got.Kind() != ast.And {
		t.Fatalf("expected And, got %s", got.Kind())
	}
	if len(got.Children) != 2 {
		t.Fatalf("expected 2 children (merged keyword + name), got %d", len(got.Children))
	}
}

// Seed scenario 2: after optimization, KW(...) AND COL(NAME(...))
// places the keyword leaf before the column scope because keyword
// leaves sort class 0 and column-name leaves sort class 1.
func TestReorder_KeywordBeforeColumnScope(t *testing.T) {
	scope := &ast.Scope{Child: &ast.ColumnName{Name: "age", K: 4}}
	tree := ast.NewAnd(scope, &ast.Keyword{Pattern: "lung cancer"})

	got := Optimize(tree, nil).(*ast.Connective)
	if _, ok := got.Children[0].(*ast.Keyword); !ok {
		t.Fatalf("expected keyword leaf first after reordering, got %T", got.Children[0])
	}
	if _, ok := got.Children[1].(*ast.Scope); !ok {
		t.Fatalf("expected column scope second after reordering, got %T", got.Children[1])
	}
}

// Seed scenario 3: KW('a') AND COL(NAME('age';4) AND PP(0.7;le;50)) —
// within the scope, NAME (class 1) sorts before PP (class 2).
func TestReorder_NameBeforePercentileInsideScope(t *testing.T) {
	inner := ast.NewAnd(
		&ast.Percentile{P: 0.7, Comparator: ast.CompareLE, V: 50},
		&ast.ColumnName{Name: "age", K: 4},
	)
	tree := ast.NewAnd(&ast.Keyword{Pattern: "a"}, &ast.Scope{Child: inner})

	got := Optimize(tree, nil).(*ast.Connective)
	scope := got.Children[1].(*ast.Scope)
	innerConn := scope.Child.(*ast.Connective)
	if _, ok := innerConn.Children[0].(*ast.ColumnName); !ok {
		t.Fatalf("expected NAME leaf first inside scope, got %T", innerConn.Children[0])
	}
	if _, ok := innerConn.Children[1].(*ast.Percentile); !ok {
		t.Fatalf("expected PP leaf second inside scope, got %T", innerConn.Children[1])
	}
}

// Seed scenario 2: AND child inherits the parent's write/read groups
// unchanged.
func TestAssignGroups_AndInheritsUnchanged(t *testing.T) {
	kw := &ast.Keyword{Pattern: "a"}
	name := &ast.ColumnName{Name: "age", K: 4}
	tree := ast.NewAnd(kw, &ast.Scope{Child: name})

	AssignGroups(tree)

	if kw.WriteGroup != name.WriteGroup {
		t.Errorf("AND siblings should share a write group: kw=%d name=%d", kw.WriteGroup, name.WriteGroup)
	}
	if len(kw.ReadGroups) != 0 || len(name.ReadGroups) != 0 {
		t.Errorf("root AND children should inherit the empty root read list, got kw=%v name=%v", kw.ReadGroups, name.ReadGroups)
	}
}

// Seed scenario 4: OR children get distinct write groups and do not
// read each other's.
func TestAssignGroups_OrChildrenIsolated(t *testing.T) {
	p1 := &ast.Percentile{P: 0.9, Comparator: ast.CompareGE, V: 100}
	p2 := &ast.Percentile{P: 0.1, Comparator: ast.CompareLE, V: 0}
	tree := ast.NewOr(&ast.Scope{Child: p1}, &ast.Scope{Child: p2})

	AssignGroups(tree)

	if p1.WriteGroup == p2.WriteGroup {
		t.Error("OR children must allocate distinct write groups")
	}
	for _, g := range p1.ReadGroups {
		if g == p2.WriteGroup {
			t.Error("an OR child must not read a sibling's write group")
		}
	}
}

// Seed scenario 5: NOT allocates a fresh write group for its child and
// adds that group to the child's own read list.
func TestAssignGroups_NotReadsOwnWriteGroup(t *testing.T) {
	kw := &ast.Keyword{Pattern: "weather"}
	tree := ast.NewNot(kw)

	AssignGroups(tree)

	found := false
	for _, g := range kw.ReadGroups {
		if g == kw.WriteGroup {
			found = true
		}
	}
	if !found {
		t.Errorf("NOT child should read its own write group; write=%d read=%v", kw.WriteGroup, kw.ReadGroups)
	}
}

func TestAssignGroups_XorDoesNotAddOwnGroupToRead(t *testing.T) {
	kw := &ast.Keyword{Pattern: "a"}
	other := &ast.Keyword{Pattern: "b"}
	tree := ast.NewXor(kw, other)

	AssignGroups(tree)

	for _, g := range kw.ReadGroups {
		if g == kw.WriteGroup {
			t.Error("XOR child must not read its own write group")
		}
	}
}

func TestAssignGroups_FanoutCountsAndSiblings(t *testing.T) {
	a := &ast.Keyword{Pattern: "a"}
	b := &ast.Keyword{Pattern: "b"}
	c := &ast.ColumnName{Name: "x"}
	tree := ast.NewAnd(a, b, &ast.Scope{Child: c})

	info := AssignGroups(tree)

	if info.Fanout[a.WriteGroup] != 3 {
		t.Errorf("expected 3 contributors to the shared AND write group, got %d", info.Fanout[a.WriteGroup])
	}
}
