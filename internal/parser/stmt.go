package parser

import (
	"resilient/internal/ast"
	"resilient/internal/diag"
	"resilient/internal/token"
)

// parseBlock parses `{ stmt* }`. Statements recover one by one, so a defect
// never leaks into its siblings. The block is built even when the closing
// brace is missing; that case is reported once.
func (p *Parser) parseBlock() ast.StmtID {
	openTok := p.advance() // '{'
	var stmts []ast.StmtID

	for !p.at_or(token.EOF, token.RBrace, token.KwFn) {
		if p.at(token.Semicolon) {
			p.advance()
			continue
		}
		stmtID, ok := p.parseStmt()
		if ok {
			stmts = append(stmts, stmtID)
			continue
		}
		p.resyncStatement()
	}

	span := openTok.Span
	if closeTok, ok := p.expect(token.RBrace, diag.SynUnclosedBrace, "expected '}' to close block"); ok {
		span = span.Cover(closeTok.Span)
	} else {
		// stopped at EOF or 'fn', both synchronizing
		span = span.Cover(p.lastSpan)
		p.panicking = false
	}
	return p.arenas.Stmts.NewBlock(span, stmts)
}

func (p *Parser) parseStmt() (ast.StmtID, bool) {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.KwLet, token.KwStatic:
		return p.parseLetStmt()
	case token.KwAssert:
		return p.parseAssertStmt()
	case token.KwLive:
		return p.parseLiveStmt()
	case token.KwIf:
		return p.parseIfStmt()
	case token.KwWhile:
		return p.parseWhileStmt()
	case token.KwReturn:
		return p.parseReturnStmt()
	case token.LBrace:
		return p.parseBlock(), true
	case token.KwElse:
		p.err(diag.SynUnexpectedToken, "'else' without a preceding 'if'")
		return ast.NoStmtID, false
	case token.Ident:
		if tok.Text == "println" {
			return p.parsePrintStmt()
		}
	}
	return p.parseExprOrAssignStmt()
}

func (p *Parser) parseLetStmt() (ast.StmtID, bool) {
	startTok := p.advance()
	static := startTok.Kind == token.KwStatic
	if static {
		if _, ok := p.expect(token.KwLet, diag.SynUnexpectedToken, "expected 'let' after 'static'"); !ok {
			return ast.NoStmtID, false
		}
	}

	name, nameSpan, ok := p.parseIdent()
	if !ok {
		return ast.NoStmtID, false
	}
	if _, ok := p.expect(token.Assign, diag.SynUnexpectedToken, "expected '=' in let statement"); !ok {
		return ast.NoStmtID, false
	}
	value, ok := p.parseExpr()
	if !ok {
		return ast.NoStmtID, false
	}
	semiTok, ok := p.expectSemicolon("let statement")
	if !ok {
		return ast.NoStmtID, false
	}
	span := startTok.Span.Cover(semiTok.Span)
	return p.arenas.Stmts.NewLet(span, name, nameSpan, value, static), true
}

// parseExprOrAssignStmt handles `expr;` and `name = expr;`. An identifier
// followed by '=' is an assignment target.
func (p *Parser) parseExprOrAssignStmt() (ast.StmtID, bool) {
	exprID, ok := p.parseExpr()
	if !ok {
		return ast.NoStmtID, false
	}
	expr := p.arenas.Exprs.Get(exprID)

	if p.at(token.Assign) {
		ident, isIdent := p.arenas.Exprs.Ident(exprID)
		if !isIdent {
			p.err(diag.SynUnexpectedToken, "left side of '=' must be a variable name")
			return ast.NoStmtID, false
		}
		p.advance()
		value, ok := p.parseExpr()
		if !ok {
			return ast.NoStmtID, false
		}
		semiTok, ok := p.expectSemicolon("assignment")
		if !ok {
			return ast.NoStmtID, false
		}
		return p.arenas.Stmts.NewAssign(expr.Span.Cover(semiTok.Span), ident.Name, expr.Span, value), true
	}

	semiTok, ok := p.expectSemicolon("expression statement")
	if !ok {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewExpr(expr.Span.Cover(semiTok.Span), exprID), true
}

// parseAssertStmt parses `assert(cond [, message]);`.
func (p *Parser) parseAssertStmt() (ast.StmtID, bool) {
	kwTok := p.advance()
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after 'assert'"); !ok {
		return ast.NoStmtID, false
	}
	cond, ok := p.parseExpr()
	if !ok {
		return ast.NoStmtID, false
	}
	msg := ast.NoExprID
	if p.at(token.Comma) {
		p.advance()
		if msg, ok = p.parseExpr(); !ok {
			return ast.NoStmtID, false
		}
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' to close assert"); !ok {
		return ast.NoStmtID, false
	}
	semiTok, ok := p.expectSemicolon("assert")
	if !ok {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewAssert(kwTok.Span.Cover(semiTok.Span), cond, msg), true
}

// parsePrintStmt parses `println(args...);`.
func (p *Parser) parsePrintStmt() (ast.StmtID, bool) {
	nameTok := p.advance()
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after 'println'"); !ok {
		return ast.NoStmtID, false
	}
	args, ok := p.parseArgs()
	if !ok {
		return ast.NoStmtID, false
	}
	semiTok, ok := p.expectSemicolon("println")
	if !ok {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewPrint(nameTok.Span.Cover(semiTok.Span), args), true
}

func (p *Parser) parseLiveStmt() (ast.StmtID, bool) {
	kwTok := p.advance()
	if !p.at(token.LBrace) {
		p.err(diag.SynExpectBlock, "expected '{' after 'live'")
		return ast.NoStmtID, false
	}
	body := p.parseBlock()
	return p.arenas.Stmts.NewLive(kwTok.Span.Cover(p.arenas.Stmts.Get(body).Span), body), true
}

// parseIfStmt parses `if cond { } [else if ... | else { }]`. Parentheses
// around the condition are an ordinary grouped expression.
func (p *Parser) parseIfStmt() (ast.StmtID, bool) {
	kwTok := p.advance()
	cond, ok := p.parseExpr()
	if !ok {
		return ast.NoStmtID, false
	}
	if !p.at(token.LBrace) {
		p.err(diag.SynExpectBlock, "expected '{' after if condition")
		return ast.NoStmtID, false
	}
	then := p.parseBlock()
	span := kwTok.Span.Cover(p.arenas.Stmts.Get(then).Span)

	els := ast.NoStmtID
	if p.at(token.KwElse) {
		p.advance()
		switch {
		case p.at(token.KwIf):
			if els, ok = p.parseIfStmt(); !ok {
				return ast.NoStmtID, false
			}
		case p.at(token.LBrace):
			els = p.parseBlock()
		default:
			p.err(diag.SynExpectBlock, "expected '{' or 'if' after 'else'")
			return ast.NoStmtID, false
		}
		span = span.Cover(p.arenas.Stmts.Get(els).Span)
	}
	return p.arenas.Stmts.NewIf(span, cond, then, els), true
}

func (p *Parser) parseWhileStmt() (ast.StmtID, bool) {
	kwTok := p.advance()
	cond, ok := p.parseExpr()
	if !ok {
		return ast.NoStmtID, false
	}
	if !p.at(token.LBrace) {
		p.err(diag.SynExpectBlock, "expected '{' after while condition")
		return ast.NoStmtID, false
	}
	body := p.parseBlock()
	return p.arenas.Stmts.NewWhile(kwTok.Span.Cover(p.arenas.Stmts.Get(body).Span), cond, body), true
}

func (p *Parser) parseReturnStmt() (ast.StmtID, bool) {
	retTok := p.advance()

	exprID := ast.NoExprID
	if !p.at_or(token.Semicolon, token.RBrace, token.EOF) {
		var ok bool
		if exprID, ok = p.parseExpr(); !ok {
			return ast.NoStmtID, false
		}
	}
	semiTok, ok := p.expectSemicolon("return statement")
	if !ok {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewReturn(retTok.Span.Cover(semiTok.Span), exprID), true
}
