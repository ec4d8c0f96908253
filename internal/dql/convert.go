package dql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dquery/dqengine/internal/ast"
)

// Parse parses a DQL query string into an internal/ast.Node, enforcing
// the semantic constraints spec.md §4.1 assigns to the parser:
// percentile in [0,1], k non-negative. Keyword leaves appearing under
// a column scope are rejected structurally by the grammar itself
// (ColAtom has no KeywordLeaf alternative), so no separate check is
// needed for that rule.
func Parse(query string) (ast.Node, error) {
	q, err := dqlParser.ParseString("", query)
	if err != nil {
		return nil, enrichSyntaxError(err)
	}
	return convertOr(q.Expr)
}

func convertOr(e *OrExpr) (ast.Node, error) {
	left, err := convertXor(e.Left)
	if err != nil {
		return nil, err
	}
	if len(e.Rest) == 0 {
		return left, nil
	}
	children := []ast.Node{left}
	for _, r := range e.Rest {
		right, err := convertXor(r.Right)
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}
	return ast.NewOr(children...), nil
}

func convertXor(e *XorExpr) (ast.Node, error) {
	left, err := convertAnd(e.Left)
	if err != nil {
		return nil, err
	}
	if len(e.Rest) == 0 {
		return left, nil
	}
	children := []ast.Node{left}
	for _, r := range e.Rest {
		right, err := convertAnd(r.Right)
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}
	return ast.NewXor(children...), nil
}

func convertAnd(e *AndExpr) (ast.Node, error) {
	left, err := convertNot(e.Left)
	if err != nil {
		return nil, err
	}
	if len(e.Rest) == 0 {
		return left, nil
	}
	children := []ast.Node{left}
	for _, r := range e.Rest {
		right, err := convertNot(r.Right)
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}
	return ast.NewAnd(children...), nil
}

func convertNot(e *NotExpr) (ast.Node, error) {
	atom, err := convertAtom(e.Atom)
	if err != nil {
		return nil, err
	}
	for i := 0; i < e.Nots; i++ {
		atom = ast.NewNot(atom)
	}
	return atom, nil
}

func convertAtom(a *Atom) (ast.Node, error) {
	switch {
	case a.Paren != nil:
		return convertOr(a.Paren.Expr)
	case a.KwLeaf != nil:
		return convertKeywordLeaf(a.KwLeaf)
	case a.Scope != nil:
		return convertScope(a.Scope)
	default:
		return nil, ast.SemanticConstraintError{Kind: "EmptyAtom", Message: "expected a parenthesized expression, a keyword leaf, or a column scope"}
	}
}

func convertKeywordLeaf(l *KeywordLeaf) (ast.Node, error) {
	return &ast.Keyword{Pattern: unquote(l.Pattern)}, nil
}

func convertScope(s *ColumnScope) (ast.Node, error) {
	inner, err := convertColOr(s.Expr)
	if err != nil {
		return nil, err
	}
	return &ast.Scope{Child: inner}, nil
}

func convertColOr(e *ColOr) (ast.Node, error) {
	left, err := convertColXor(e.Left)
	if err != nil {
		return nil, err
	}
	if len(e.Rest) == 0 {
		return left, nil
	}
	children := []ast.Node{left}
	for _, r := range e.Rest {
		right, err := convertColXor(r.Right)
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}
	return ast.NewOr(children...), nil
}

func convertColXor(e *ColXor) (ast.Node, error) {
	left, err := convertColAnd(e.Left)
	if err != nil {
		return nil, err
	}
	if len(e.Rest) == 0 {
		return left, nil
	}
	children := []ast.Node{left}
	for _, r := range e.Rest {
		right, err := convertColAnd(r.Right)
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}
	return ast.NewXor(children...), nil
}

func convertColAnd(e *ColAnd) (ast.Node, error) {
	left, err := convertColNot(e.Left)
	if err != nil {
		return nil, err
	}
	if len(e.Rest) == 0 {
		return left, nil
	}
	children := []ast.Node{left}
	for _, r := range e.Rest {
		right, err := convertColNot(r.Right)
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}
	return ast.NewAnd(children...), nil
}

func convertColNot(e *ColNot) (ast.Node, error) {
	atom, err := convertColAtom(e.Atom)
	if err != nil {
		return nil, err
	}
	for i := 0; i < e.Nots; i++ {
		atom = ast.NewNot(atom)
	}
	return atom, nil
}

func convertColAtom(a *ColAtom) (ast.Node, error) {
	switch {
	case a.Paren != nil:
		return convertColOr(a.Paren)
	case a.Name != nil:
		return convertColumnName(a.Name)
	case a.PP != nil:
		return convertPercentile(a.PP)
	default:
		return nil, ast.SemanticConstraintError{Kind: "EmptyColumnAtom", Message: "expected a parenthesized column expression, a name leaf, or a percentile leaf"}
	}
}

func convertColumnName(l *ColumnNameLeaf) (ast.Node, error) {
	if l.K < 0 {
		return nil, ast.SemanticConstraintError{Kind: "NegativeK", Message: fmt.Sprintf("k must be non-negative, got %d", l.K)}
	}
	return &ast.ColumnName{Name: unquote(l.Name), K: l.K}, nil
}

func convertPercentile(l *PercentileLeaf) (ast.Node, error) {
	if l.P < 0 || l.P > 1 {
		return nil, ast.SemanticConstraintError{Kind: "PercentileOutOfRange", Message: fmt.Sprintf("percentile must be in [0,1], got %g", l.P)}
	}
	cmp, err := parseComparator(l.Comparator)
	if err != nil {
		return nil, err
	}
	return &ast.Percentile{P: l.P, Comparator: cmp, V: l.V}, nil
}

func parseComparator(s string) (ast.Comparator, error) {
	switch strings.ToLower(s) {
	case "ge":
		return ast.CompareGE, nil
	case "gt":
		return ast.CompareGT, nil
	case "le":
		return ast.CompareLE, nil
	case "lt":
		return ast.CompareLT, nil
	default:
		return 0, ast.SemanticConstraintError{Kind: "UnknownComparator", Message: fmt.Sprintf("unknown comparator %q", s)}
	}
}

// unquote strips a leaf's surrounding quotes (if it was a quoted
// string token) without otherwise interpreting escapes beyond what
// strconv.Unquote understands for double-quoted strings; a
// single-quoted string is unwrapped literally since Go's strconv has
// no single-quote string form.
func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	if s[0] == '"' && s[len(s)-1] == '"' {
		if unq, err := strconv.Unquote(s); err == nil {
			return unq
		}
	}
	if s[0] == '\'' && s[len(s)-1] == '\'' {
		return s[1 : len(s)-1]
	}
	return s
}
