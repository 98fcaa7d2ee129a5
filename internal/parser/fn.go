package parser

import (
	"fmt"

	"resilient/internal/ast"
	"resilient/internal/diag"
	"resilient/internal/token"
)

// parseFnItem parses `fn name(TYPE name, ...) { ... }`.
//
// A declaration without parameters, or with an untyped parameter, is reported
// and dropped after its body has been consumed; nothing is inserted in its place.
func (p *Parser) parseFnItem() (ast.ItemID, bool) {
	fnTok := p.advance()

	name, nameSpan, ok := p.parseIdent()
	if !ok {
		p.resyncStatement()
		return ast.NoItemID, false
	}
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after function name"); !ok {
		p.resyncStatement()
		return ast.NoItemID, false
	}

	params, rejected, ok := p.parseFnParams(p.arenas.Name(name))
	if !ok {
		p.resyncStatement()
		return ast.NoItemID, false
	}

	if !p.at(token.LBrace) {
		p.err(diag.SynExpectBlock, "expected '{' to start function body")
		p.resyncStatement()
		return ast.NoItemID, false
	}
	body := p.parseBlock()
	if rejected {
		return ast.NoItemID, false
	}

	span := fnTok.Span.Cover(p.arenas.Stmts.Get(body).Span)
	return p.arenas.Items.NewFn(name, nameSpan, params, body, span), true
}

// parseFnParams parses the list after '(' up to and including ')'.
// rejected is set when the list is empty or a parameter lacks its type.
func (p *Parser) parseFnParams(fnName string) (params []ast.FnParam, rejected, ok bool) {
	if p.at(token.RParen) {
		open := p.lastSpan
		closeTok := p.advance()
		sp := open.Cover(closeTok.Span)
		p.report(diag.SynFnNoParams, diag.SevError, sp,
			fmt.Sprintf("function '%s' must declare at least one typed parameter", fnName))
		// the body that follows is still parsed normally
		p.panicking = false
		return nil, true, true
	}

	for {
		param, typed, ok := p.parseFnParam()
		if !ok {
			return nil, false, false
		}
		if typed {
			params = append(params, param)
		} else {
			rejected = true
		}
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' to close parameter list"); !ok {
		return nil, false, false
	}
	return params, rejected, true
}

// parseFnParam parses `TYPE name`. A lone identifier is a parameter without a
// type: it is reported and the list continues.
func (p *Parser) parseFnParam() (ast.FnParam, bool, bool) {
	if !p.at(token.Ident) {
		p.err(diag.SynExpectIdentifier, "expected parameter type, got "+describe(p.lx.Peek()))
		return ast.FnParam{}, false, false
	}
	first := p.advance()
	if p.at_or(token.Comma, token.RParen) {
		p.report(diag.SynParamMissingType, diag.SevError, first.Span,
			fmt.Sprintf("parameter '%s' has no type; write it as 'TYPE %s'", first.Text, first.Text))
		p.panicking = false
		return ast.FnParam{}, false, true
	}
	name, nameSpan, ok := p.parseIdent()
	if !ok {
		return ast.FnParam{}, false, false
	}
	return ast.FnParam{
		Name:     name,
		Type:     p.arenas.StringsInterner.Intern(first.Text),
		Span:     first.Span.Cover(nameSpan),
		TypeSpan: first.Span,
	}, true, true
}
