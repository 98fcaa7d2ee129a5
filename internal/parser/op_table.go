package parser

import (
	"resilient/internal/ast"
	"resilient/internal/token"
)

// Binary operator precedence; higher binds tighter. All are left-associative.
const (
	precLogicalOr      = 1 // ||
	precLogicalAnd     = 2 // &&
	precEquality       = 3 // == !=
	precComparison     = 4 // < <= > >=
	precAdditive       = 5 // + -
	precMultiplicative = 6 // * / %
)

// binaryPrec returns -1 for tokens that are not binary operators.
func binaryPrec(kind token.Kind) int {
	switch kind {
	case token.OrOr:
		return precLogicalOr
	case token.AndAnd:
		return precLogicalAnd
	case token.EqEq, token.BangEq:
		return precEquality
	case token.Lt, token.LtEq, token.Gt, token.GtEq:
		return precComparison
	case token.Plus, token.Minus:
		return precAdditive
	case token.Star, token.Slash, token.Percent:
		return precMultiplicative
	default:
		return -1
	}
}

var binaryOps = map[token.Kind]ast.ExprBinaryOp{
	token.Plus:    ast.ExprBinaryAdd,
	token.Minus:   ast.ExprBinarySub,
	token.Star:    ast.ExprBinaryMul,
	token.Slash:   ast.ExprBinaryDiv,
	token.Percent: ast.ExprBinaryMod,
	token.EqEq:    ast.ExprBinaryEq,
	token.BangEq:  ast.ExprBinaryNotEq,
	token.Lt:      ast.ExprBinaryLess,
	token.LtEq:    ast.ExprBinaryLessEq,
	token.Gt:      ast.ExprBinaryGreater,
	token.GtEq:    ast.ExprBinaryGreaterEq,
	token.AndAnd:  ast.ExprBinaryLogicalAnd,
	token.OrOr:    ast.ExprBinaryLogicalOr,
}
