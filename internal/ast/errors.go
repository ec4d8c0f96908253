package ast

import "fmt"

// SyntaxError is a parse-time failure with a byte offset into the
// original query string, per spec.md §4.1.
type SyntaxError struct {
	Kind     string
	Position int
	Message  string
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("syntax error (%v) at position %d: %v", e.Kind, e.Position, e.Message)
}

// SemanticConstraintError is a parse-time rule violation that is not a
// grammar failure: a keyword leaf nested under a column scope, a
// percentile outside [0,1], or a negative k. Per spec.md §7 these are
// distinct from SyntaxError at the error-kind level even though both
// originate during parsing.
type SemanticConstraintError struct {
	Kind    string
	Message string
}

func (e SemanticConstraintError) Error() string {
	return fmt.Sprintf("semantic constraint violated (%v): %v", e.Kind, e.Message)
}
