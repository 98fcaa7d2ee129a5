package parser

import (
	"resilient/internal/diag"
	"resilient/internal/source"
	"resilient/internal/token"
)

// advance consumes the next token and updates lastSpan.
func (p *Parser) advance() token.Token {
	tok := p.lx.Next()
	if tok.Kind != token.EOF {
		p.lastSpan = tok.Span
	}
	return tok
}

// afterLast is a zero-width span right after the last consumed token.
func (p *Parser) afterLast() source.Span {
	return source.Span{File: p.lastSpan.File, Start: p.lastSpan.End, End: p.lastSpan.End}
}

// diagnosticSpan points at the current token, or just past the previous one at EOF.
func (p *Parser) diagnosticSpan() source.Span {
	peek := p.lx.Peek()
	if peek.Kind == token.EOF {
		return p.afterLast()
	}
	return peek.Span
}

// expect consumes a token of kind k or reports code at the current token.
func (p *Parser) expect(k token.Kind, code diag.Code, msg string) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	p.err(code, msg)
	return token.Token{Kind: token.Invalid, Span: p.diagnosticSpan()}, false
}

// expectSemicolon reports a missing ';' right after the previous token.
func (p *Parser) expectSemicolon(what string) (token.Token, bool) {
	if p.at(token.Semicolon) {
		return p.advance(), true
	}
	if p.at(token.Invalid) {
		p.panicking = true
		return token.Token{Kind: token.Invalid, Span: p.lx.Peek().Span}, false
	}
	sp := p.afterLast()
	p.report(diag.SynExpectSemicolon, diag.SevError, sp, "expected ';' after "+what)
	return token.Token{Kind: token.Invalid, Span: sp}, false
}

// err reports an error at the current token. An Invalid token was already
// reported by the lexer, so only recovery is started.
func (p *Parser) err(code diag.Code, msg string) bool {
	if p.at(token.Invalid) {
		p.panicking = true
		return false
	}
	return p.report(code, diag.SevError, p.diagnosticSpan(), msg)
}

// report emits one diagnostic per de-sync point: errors are dropped while
// panicking.
func (p *Parser) report(code diag.Code, sev diag.Severity, sp source.Span, msg string) bool {
	if sev == diag.SevError {
		if p.panicking {
			return false
		}
		p.panicking = true
		p.errors++
	}
	if p.opts.Reporter == nil {
		return false
	}
	if p.opts.MaxErrors != 0 && p.reported >= p.opts.MaxErrors {
		return false
	}
	p.reported++
	p.opts.Reporter.Report(code, sev, sp, msg, nil)
	return true
}

// resyncStatement skips to the next synchronizing token: ';' (consumed),
// '}' (left in place), 'fn' or EOF. Brace groups opened while skipping are
// skipped whole; closing one also ends recovery.
func (p *Parser) resyncStatement() {
	depth := 0
	for {
		switch p.lx.Peek().Kind {
		case token.EOF, token.KwFn:
			p.panicking = false
			return
		case token.Semicolon:
			p.advance()
			if depth == 0 {
				p.panicking = false
				return
			}
		case token.LBrace:
			p.advance()
			depth++
		case token.RBrace:
			if depth == 0 {
				p.panicking = false
				return
			}
			p.advance()
			depth--
			if depth == 0 {
				p.panicking = false
				return
			}
		default:
			p.advance()
		}
	}
}
