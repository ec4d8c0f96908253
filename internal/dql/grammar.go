// Package dql implements the DQL parser: a participle grammar mirroring
// spec.md's precedence ladder (OR < XOR < AND < NOT), plus the
// conversion from parse tree to internal/ast.
package dql

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var dqlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Keyword", Pattern: `(?i)\b(KW|KEYWORD|COL|COLUMN|NAME|PP|PERCENTILE|AND|OR|XOR|NOT|ge|gt|le|lt)\b`},
	{Name: "Float", Pattern: `-?\d+\.\d+`},
	{Name: "Int", Pattern: `-?\d+`},
	{Name: "String", Pattern: `"([^"\\]|\\.)*"|'([^'\\]|\\.)*'`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `[(),;]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// Query is the top-level grammar node: query := or_expr.
type Query struct {
	Expr *OrExpr `parser:"@@"`
}

// OrExpr: or_expr := xor_expr (("OR") xor_expr)*
type OrExpr struct {
	Left *XorExpr  `parser:"@@"`
	Rest []*OrRest `parser:"@@*"`
}

type OrRest struct {
	Op    string   `parser:"@\"OR\""`
	Right *XorExpr `parser:"@@"`
}

// XorExpr: xor_expr := and_expr (("XOR") and_expr)*
type XorExpr struct {
	Left *AndExpr   `parser:"@@"`
	Rest []*XorRest `parser:"@@*"`
}

type XorRest struct {
	Op    string   `parser:"@\"XOR\""`
	Right *AndExpr `parser:"@@"`
}

// AndExpr: and_expr := not_expr (("AND") not_expr)*
type AndExpr struct {
	Left *NotExpr   `parser:"@@"`
	Rest []*AndRest `parser:"@@*"`
}

type AndRest struct {
	Op    string   `parser:"@\"AND\""`
	Right *NotExpr `parser:"@@"`
}

// NotExpr: not_expr := "NOT" not_expr | atom
type NotExpr struct {
	Nots int   `parser:"@\"NOT\"*"`
	Atom *Atom `parser:"@@"`
}

// Atom: atom := "(" query ")" | kw_leaf | col_scope
type Atom struct {
	Paren  *Query      `parser:"  \"(\" @@ \")\""`
	KwLeaf *KeywordLeaf `parser:"| @@"`
	Scope  *ColumnScope `parser:"| @@"`
}

// KeywordLeaf: kw_leaf := ("KW"|"KEYWORD") "(" QUOTED_STRING ")"
type KeywordLeaf struct {
	Tag     string `parser:"@(\"KW\" | \"KEYWORD\")"`
	Pattern string `parser:"\"(\" @String \")\""`
}

// ColumnScope: col_scope := ("COL"|"COLUMN") "(" col_expr ")"
type ColumnScope struct {
	Tag  string  `parser:"@(\"COL\" | \"COLUMN\")"`
	Expr *ColOr  `parser:"\"(\" @@ \")\""`
}

// ColOr: col_or := col_xor (("OR") col_xor)*
type ColOr struct {
	Left *ColXor      `parser:"@@"`
	Rest []*ColOrRest `parser:"@@*"`
}

type ColOrRest struct {
	Op    string  `parser:"@\"OR\""`
	Right *ColXor `parser:"@@"`
}

// ColXor: col_xor := col_and (("XOR") col_and)*
type ColXor struct {
	Left *ColAnd      `parser:"@@"`
	Rest []*ColXorRest `parser:"@@*"`
}

type ColXorRest struct {
	Op    string  `parser:"@\"XOR\""`
	Right *ColAnd `parser:"@@"`
}

// ColAnd: col_and := col_not (("AND") col_not)*
type ColAnd struct {
	Left *ColNot      `parser:"@@"`
	Rest []*ColAndRest `parser:"@@*"`
}

type ColAndRest struct {
	Op    string  `parser:"@\"AND\""`
	Right *ColNot `parser:"@@"`
}

// ColNot: col_not := "NOT" col_not | col_atom
type ColNot struct {
	Nots int      `parser:"@\"NOT\"*"`
	Atom *ColAtom `parser:"@@"`
}

// ColAtom: col_atom := "(" col_expr ")" | name_leaf | pp_leaf
type ColAtom struct {
	Paren *ColOr          `parser:"  \"(\" @@ \")\""`
	Name  *ColumnNameLeaf `parser:"| @@"`
	PP    *PercentileLeaf `parser:"| @@"`
}

// ColumnNameLeaf: name_leaf := "NAME" "(" QUOTED_OR_BARE ";" UINT ")"
type ColumnNameLeaf struct {
	Name string `parser:"\"NAME\" \"(\" (@String | @Ident)"`
	K    int    `parser:"\";\" @Int \")\""`
}

// PercentileLeaf: pp_leaf := ("PP"|"PERCENTILE") "(" NUMBER ";" CMP ";" NUMBER ")"
type PercentileLeaf struct {
	Tag        string  `parser:"@(\"PP\" | \"PERCENTILE\")"`
	P          float64 `parser:"\"(\" @(Float|Int)"`
	Comparator string  `parser:"\";\" @(\"ge\"|\"gt\"|\"le\"|\"lt\")"`
	V          float64 `parser:"\";\" @(Float|Int) \")\""`
}

var dqlParser = participle.MustBuild[Query](
	participle.Lexer(dqlLexer),
	participle.CaseInsensitive("Keyword"),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)
