package lexer

import (
	"fmt"

	"resilient/internal/diag"
	"resilient/internal/token"
)

// scanOperatorOrPunct matches two-byte operators greedily, then single bytes.
// Anything else, including a lone '&' or '|', is an unknown character.
func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	emit := func(k token.Kind) token.Token {
		sp := lx.cursor.SpanFrom(start)
		return token.Token{Kind: k, Span: sp, Text: lx.text(sp)}
	}

	switch {
	case lx.try2('&', '&'):
		return emit(token.AndAnd)
	case lx.try2('|', '|'):
		return emit(token.OrOr)
	case lx.try2('=', '='):
		return emit(token.EqEq)
	case lx.try2('!', '='):
		return emit(token.BangEq)
	case lx.try2('<', '='):
		return emit(token.LtEq)
	case lx.try2('>', '='):
		return emit(token.GtEq)
	}

	switch lx.cursor.Peek() {
	case '+':
		lx.cursor.Bump()
		return emit(token.Plus)
	case '-':
		lx.cursor.Bump()
		return emit(token.Minus)
	case '*':
		lx.cursor.Bump()
		return emit(token.Star)
	case '/':
		lx.cursor.Bump()
		return emit(token.Slash)
	case '%':
		lx.cursor.Bump()
		return emit(token.Percent)
	case '=':
		lx.cursor.Bump()
		return emit(token.Assign)
	case '!':
		lx.cursor.Bump()
		return emit(token.Bang)
	case '<':
		lx.cursor.Bump()
		return emit(token.Lt)
	case '>':
		lx.cursor.Bump()
		return emit(token.Gt)
	case '(':
		lx.cursor.Bump()
		return emit(token.LParen)
	case ')':
		lx.cursor.Bump()
		return emit(token.RParen)
	case '{':
		lx.cursor.Bump()
		return emit(token.LBrace)
	case '}':
		lx.cursor.Bump()
		return emit(token.RBrace)
	case ',':
		lx.cursor.Bump()
		return emit(token.Comma)
	case ';':
		lx.cursor.Bump()
		return emit(token.Semicolon)
	case ':':
		lx.cursor.Bump()
		return emit(token.Colon)
	}

	// unknown: consume exactly one rune (or one byte of invalid UTF-8)
	ch := lx.cursor.Peek()
	if ch >= utf8RuneSelf {
		lx.bumpRune()
		if lx.cursor.Off == uint32(start) {
			lx.cursor.Bump()
		}
	} else {
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	text := lx.text(sp)
	msg := fmt.Sprintf("unknown character %q", text)
	switch text {
	case "&":
		msg += ", did you mean '&&'?"
	case "|":
		msg += ", did you mean '||'?"
	}
	lx.errLex(diag.LexUnknownChar, sp, msg)
	return token.Token{Kind: token.Invalid, Span: sp, Text: text}
}
