package parser

import (
	"strconv"

	"resilient/internal/ast"
	"resilient/internal/diag"
	"resilient/internal/lexer"
	"resilient/internal/source"
	"resilient/internal/token"
)

func (p *Parser) parseExpr() (ast.ExprID, bool) {
	return p.parseBinaryExpr(precLogicalOr)
}

// parseBinaryExpr is precedence climbing over binaryPrec.
func (p *Parser) parseBinaryExpr(minPrec int) (ast.ExprID, bool) {
	left, ok := p.parseUnaryExpr()
	if !ok {
		return ast.NoExprID, false
	}
	for {
		opTok := p.lx.Peek()
		prec := binaryPrec(opTok.Kind)
		if prec < minPrec {
			return left, true
		}
		p.advance()
		right, ok := p.parseBinaryExpr(prec + 1)
		if !ok {
			return ast.NoExprID, false
		}
		span := p.arenas.Exprs.Get(left).Span.Cover(p.arenas.Exprs.Get(right).Span)
		left = p.arenas.Exprs.NewBinary(span, binaryOps[opTok.Kind], left, right)
	}
}

func (p *Parser) parseUnaryExpr() (ast.ExprID, bool) {
	var op ast.ExprUnaryOp
	switch p.lx.Peek().Kind {
	case token.Minus:
		op = ast.ExprUnaryMinus
	case token.Bang:
		op = ast.ExprUnaryNot
	default:
		return p.parsePrimaryExpr()
	}
	opTok := p.advance()
	operand, ok := p.parseUnaryExpr()
	if !ok {
		return ast.NoExprID, false
	}
	span := opTok.Span.Cover(p.arenas.Exprs.Get(operand).Span)
	return p.arenas.Exprs.NewUnary(span, op, operand), true
}

func (p *Parser) parsePrimaryExpr() (ast.ExprID, bool) {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.IntLit:
		p.advance()
		v, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			p.report(diag.LexBadNumber, diag.SevError, tok.Span, "integer literal '"+tok.Text+"' out of range")
			return ast.NoExprID, false
		}
		return p.literal(tok, ast.ExprLiteralData{Kind: ast.ExprLitInt, Int: v}), true
	case token.FloatLit:
		p.advance()
		v, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			p.report(diag.LexBadNumber, diag.SevError, tok.Span, "malformed float literal '"+tok.Text+"'")
			return ast.NoExprID, false
		}
		return p.literal(tok, ast.ExprLiteralData{Kind: ast.ExprLitFloat, Float: v}), true
	case token.StringLit:
		p.advance()
		return p.literal(tok, ast.ExprLiteralData{Kind: ast.ExprLitString, Str: lexer.Unquote(tok.Text)}), true
	case token.KwTrue, token.KwFalse:
		p.advance()
		return p.literal(tok, ast.ExprLiteralData{Kind: ast.ExprLitBool, Bool: tok.Kind == token.KwTrue}), true
	case token.Ident:
		p.advance()
		name := p.arenas.StringsInterner.Intern(tok.Text)
		if p.at(token.LParen) {
			return p.parseCallExpr(tok, name)
		}
		return p.arenas.Exprs.NewIdent(tok.Span, name), true
	case token.LParen:
		openTok := p.advance()
		inner, ok := p.parseExpr()
		if !ok {
			return ast.NoExprID, false
		}
		closeTok, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' to close parenthesized expression")
		if !ok {
			return ast.NoExprID, false
		}
		return p.arenas.Exprs.NewGroup(openTok.Span.Cover(closeTok.Span), inner), true
	default:
		p.err(diag.SynExpectExpression, "expected expression, got "+describe(tok))
		return ast.NoExprID, false
	}
}

func (p *Parser) literal(tok token.Token, data ast.ExprLiteralData) ast.ExprID {
	data.Raw = p.arenas.StringsInterner.Intern(tok.Text)
	return p.arenas.Exprs.NewLiteral(tok.Span, data)
}

func (p *Parser) parseCallExpr(nameTok token.Token, name source.StringID) (ast.ExprID, bool) {
	p.advance() // '('
	args, ok := p.parseArgs()
	if !ok {
		return ast.NoExprID, false
	}
	span := nameTok.Span.Cover(p.lastSpan)
	return p.arenas.Exprs.NewCall(span, name, nameTok.Span, args), true
}

// parseArgs parses a comma separated list after '(' through the closing ')'.
func (p *Parser) parseArgs() ([]ast.ExprID, bool) {
	var args []ast.ExprID
	if p.at(token.RParen) {
		p.advance()
		return args, true
	}
	for {
		arg, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		args = append(args, arg)
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' to close argument list"); !ok {
		return nil, false
	}
	return args, true
}
