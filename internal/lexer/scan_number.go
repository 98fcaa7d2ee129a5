package lexer

import (
	"strconv"

	"resilient/internal/diag"
	"resilient/internal/token"
)

// scanNumber scans [0-9]+ ('.' [0-9]+)?. Malformed forms (1.2.3, 1., 12abc,
// integers beyond int64) are consumed whole and become a single Invalid token.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	kind := token.IntLit

	for isDec(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	if lx.cursor.Peek() == '.' {
		lx.cursor.Bump()
		if !isDec(lx.cursor.Peek()) {
			sp := lx.cursor.SpanFrom(start)
			lx.errLex(diag.LexBadNumber, sp, "expected digit after '.' in number literal")
			return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
		}
		kind = token.FloatLit
		for isDec(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
	}

	// swallow the rest of a malformed literal so recovery resumes after it
	bad := false
	for {
		b := lx.cursor.Peek()
		if b == '.' || isIdentContinueByte(b) {
			if lx.cursor.EOF() {
				break
			}
			bad = true
			lx.cursor.Bump()
			continue
		}
		break
	}

	sp := lx.cursor.SpanFrom(start)
	text := lx.text(sp)
	if bad {
		lx.errLex(diag.LexBadNumber, sp, "malformed number literal '"+text+"'")
		return token.Token{Kind: token.Invalid, Span: sp, Text: text}
	}
	if kind == token.IntLit {
		if _, err := strconv.ParseInt(text, 10, 64); err != nil {
			lx.errLex(diag.LexBadNumber, sp, "integer literal '"+text+"' out of range")
			return token.Token{Kind: token.Invalid, Span: sp, Text: text}
		}
	}
	return token.Token{Kind: kind, Span: sp, Text: text}
}
