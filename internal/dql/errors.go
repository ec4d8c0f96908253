package dql

import (
	"errors"

	"github.com/alecthomas/participle/v2"
	"github.com/dquery/dqengine/internal/ast"
)

// enrichSyntaxError turns a raw participle parse error into an
// ast.SyntaxError carrying the offending byte offset, per spec.md
// §4.1's "unbalanced parentheses, unknown operator, ..." failure list.
func enrichSyntaxError(err error) error {
	var perr participle.Error
	if errors.As(err, &perr) {
		return ast.SyntaxError{
			Kind:     "ParseError",
			Position: perr.Position().Offset,
			Message:  perr.Message(),
		}
	}
	return ast.SyntaxError{Kind: "ParseError", Position: 0, Message: err.Error()}
}
