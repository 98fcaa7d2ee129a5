package ast

import (
	"resilient/internal/source"
)

// ExprKind enumerates the different kinds of expressions.
type ExprKind uint8

const (
	ExprIdent ExprKind = iota
	ExprLit
	ExprCall
	ExprBinary
	ExprUnary
	ExprGroup
)

func (k ExprKind) String() string {
	switch k {
	case ExprIdent:
		return "Ident"
	case ExprLit:
		return "Lit"
	case ExprCall:
		return "Call"
	case ExprBinary:
		return "Binary"
	case ExprUnary:
		return "Unary"
	case ExprGroup:
		return "Group"
	}
	return "Expr(?)"
}

// Expr represents an expression node in the AST.
type Expr struct {
	Kind    ExprKind
	Span    source.Span
	Payload PayloadID
}

// ExprBinaryOp enumerates binary operator kinds.
type ExprBinaryOp uint8

const (
	ExprBinaryAdd ExprBinaryOp = iota
	ExprBinarySub
	ExprBinaryMul
	ExprBinaryDiv
	ExprBinaryMod
	ExprBinaryEq
	ExprBinaryNotEq
	ExprBinaryLess
	ExprBinaryLessEq
	ExprBinaryGreater
	ExprBinaryGreaterEq
	ExprBinaryLogicalAnd
	ExprBinaryLogicalOr
)

var binaryOpText = [...]string{
	ExprBinaryAdd:        "+",
	ExprBinarySub:        "-",
	ExprBinaryMul:        "*",
	ExprBinaryDiv:        "/",
	ExprBinaryMod:        "%",
	ExprBinaryEq:         "==",
	ExprBinaryNotEq:      "!=",
	ExprBinaryLess:       "<",
	ExprBinaryLessEq:     "<=",
	ExprBinaryGreater:    ">",
	ExprBinaryGreaterEq:  ">=",
	ExprBinaryLogicalAnd: "&&",
	ExprBinaryLogicalOr:  "||",
}

func (op ExprBinaryOp) String() string {
	if int(op) < len(binaryOpText) {
		return binaryOpText[op]
	}
	return "?"
}

// IsComparison reports ==, !=, <, <=, >, >=.
func (op ExprBinaryOp) IsComparison() bool {
	return op >= ExprBinaryEq && op <= ExprBinaryGreaterEq
}

// IsLogical reports && and ||.
func (op ExprBinaryOp) IsLogical() bool {
	return op == ExprBinaryLogicalAnd || op == ExprBinaryLogicalOr
}

type ExprUnaryOp uint8

const (
	ExprUnaryMinus ExprUnaryOp = iota
	ExprUnaryNot
)

func (op ExprUnaryOp) String() string {
	if op == ExprUnaryNot {
		return "!"
	}
	return "-"
}

type ExprLitKind uint8

const (
	ExprLitInt ExprLitKind = iota
	ExprLitFloat
	ExprLitString
	ExprLitBool
)

func (k ExprLitKind) String() string {
	switch k {
	case ExprLitInt:
		return "int"
	case ExprLitFloat:
		return "float"
	case ExprLitString:
		return "string"
	case ExprLitBool:
		return "bool"
	}
	return "?"
}

type ExprIdentData struct {
	Name source.StringID
}

// ExprLiteralData keeps the decoded value next to the raw lexeme.
type ExprLiteralData struct {
	Kind  ExprLitKind
	Raw   source.StringID
	Int   int64
	Float float64
	Str   string
	Bool  bool
}

type ExprBinaryData struct {
	Op    ExprBinaryOp
	Left  ExprID
	Right ExprID
}

type ExprUnaryData struct {
	Op      ExprUnaryOp
	Operand ExprID
}

type ExprCallData struct {
	Callee     source.StringID
	CalleeSpan source.Span
	Args       []ExprID
}

type ExprGroupData struct {
	Inner ExprID
}
