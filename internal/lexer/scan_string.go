package lexer

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"resilient/internal/diag"
	"resilient/internal/token"
)

// scanString scans a double-quoted literal. Text keeps the quotes and raw
// escapes; Unquote decodes it. A newline or EOF before the closing quote is
// an error and scanning resumes at the newline.
func (lx *Lexer) scanString() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // opening '"'
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		switch b {
		case '"':
			lx.cursor.Bump()
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: token.StringLit, Span: sp, Text: lx.text(sp)}
		case '\\':
			lx.cursor.Bump()
			if lx.cursor.Peek() != '\n' {
				lx.cursor.Bump()
			}
			continue
		case '\n':
			sp := lx.cursor.SpanFrom(start)
			lx.errLex(diag.LexUnterminatedString, sp, "newline in string literal")
			return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
		}
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	lx.errLex(diag.LexUnterminatedString, sp, "unterminated string literal")
	return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
}

// Unquote decodes a StringLit lexeme. Supported escapes are \n \t \r \\ \";
// any other escape is kept as written. The result is NFC-normalized.
func Unquote(lit string) string {
	if len(lit) >= 2 && lit[0] == '"' && lit[len(lit)-1] == '"' {
		lit = lit[1 : len(lit)-1]
	}
	if !strings.Contains(lit, `\`) {
		return norm.NFC.String(lit)
	}
	var b strings.Builder
	b.Grow(len(lit))
	for i := 0; i < len(lit); i++ {
		c := lit[i]
		if c != '\\' || i+1 >= len(lit) {
			b.WriteByte(c)
			continue
		}
		i++
		switch lit[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		case '"':
			b.WriteByte('"')
		default:
			b.WriteByte('\\')
			b.WriteByte(lit[i])
		}
	}
	return norm.NFC.String(b.String())
}
