package dqengine

import (
	"context"
	"errors"
	"fmt"

	"github.com/dquery/dqengine/internal/ast"
	"github.com/dquery/dqengine/internal/evaluator"
)

// Kind categorizes an EngineError for callers that need to branch on
// failure type without string-matching, per spec.md §7.
type Kind string

const (
	KindSyntax               Kind = "syntax"
	KindSemanticConstraint   Kind = "semantic_constraint"
	KindEvaluatorUnavailable Kind = "evaluator_unavailable"
	KindEvaluatorMalformed   Kind = "evaluator_malformed"
	KindCancelled            Kind = "cancelled"
	KindTimeout              Kind = "timeout"
	KindInternal             Kind = "internal"
)

// EngineError is the single error type Engine.Execute returns. It
// wraps whatever lower-level typed error the failure actually was
// (ast.SyntaxError, ast.SemanticConstraintError,
// evaluator.EvaluatorError, a context error, ...) and tags it with a
// Kind so callers at the process boundary can react without inspecting
// the wrapped type.
type EngineError struct {
	Kind    Kind
	Message string
	Query   string
	Cause   error
}

func (e *EngineError) Error() string {
	if e.Query != "" {
		return fmt.Sprintf("dqengine: %s (query: %q): %v", e.Kind, e.Query, e.Message)
	}
	return fmt.Sprintf("dqengine: %s: %v", e.Kind, e.Message)
}

func (e *EngineError) Unwrap() error { return e.Cause }

// WithQuery attaches the offending query text for logging/diagnostics.
func (e *EngineError) WithQuery(query string) *EngineError {
	e.Query = query
	return e
}

// WithCause attaches the lower-level error this EngineError wraps.
func (e *EngineError) WithCause(cause error) *EngineError {
	e.Cause = cause
	return e
}

// classifyError maps a lower-level error surfaced during parsing,
// optimization, or execution to the EngineError Kind the process
// boundary expects, per spec.md §7's error taxonomy.
func classifyError(err error) *EngineError {
	var syn ast.SyntaxError
	if errors.As(err, &syn) {
		return &EngineError{Kind: KindSyntax, Message: syn.Message, Cause: err}
	}

	var sem ast.SemanticConstraintError
	if errors.As(err, &sem) {
		return &EngineError{Kind: KindSemanticConstraint, Message: sem.Message, Cause: err}
	}

	var evalErr *evaluator.EvaluatorError
	if errors.As(err, &evalErr) {
		kind := KindEvaluatorMalformed
		if evalErr.Kind == evaluator.Unavailable {
			kind = KindEvaluatorUnavailable
		}
		return &EngineError{Kind: kind, Message: evalErr.Error(), Cause: err}
	}

	if errors.Is(err, context.Canceled) {
		return &EngineError{Kind: KindCancelled, Message: "query cancelled", Cause: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &EngineError{Kind: KindTimeout, Message: "query timed out", Cause: err}
	}

	return &EngineError{Kind: KindInternal, Message: err.Error(), Cause: err}
}
