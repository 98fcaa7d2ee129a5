package lexer

import (
	"resilient/internal/diag"
	"resilient/internal/token"
)

// collectLeadingTrivia gathers whitespace and comments before the next token.
// Runs of spaces/tabs and runs of newlines are coalesced; block comments nest.
func (lx *Lexer) collectLeadingTrivia() {
	lx.hold = lx.hold[:0]
	for !lx.cursor.EOF() {
		start := lx.cursor.Mark()
		b := lx.cursor.Peek()

		switch {
		case b == ' ' || b == '\t' || b == '\r':
			for b2 := lx.cursor.Peek(); b2 == ' ' || b2 == '\t' || b2 == '\r'; b2 = lx.cursor.Peek() {
				lx.cursor.Bump()
			}
			lx.pushTrivia(token.TriviaSpace, start)
			continue
		case b == '\n':
			for lx.cursor.Peek() == '\n' {
				lx.cursor.Bump()
			}
			lx.pushTrivia(token.TriviaNewline, start)
			continue
		case b == '/':
			if lx.scanComment() {
				continue
			}
		}
		return
	}
}

func (lx *Lexer) pushTrivia(kind token.TriviaKind, start Mark) {
	sp := lx.cursor.SpanFrom(start)
	lx.hold = append(lx.hold, token.Trivia{Kind: kind, Span: sp, Text: lx.text(sp)})
}

func (lx *Lexer) scanComment() bool {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // '/'
	switch lx.cursor.Peek() {
	case '/':
		for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
			lx.cursor.Bump()
		}
		lx.pushTrivia(token.TriviaLineComment, start)
		return true
	case '*':
		lx.cursor.Bump()
		depth := 1
		for !lx.cursor.EOF() && depth > 0 {
			switch {
			case lx.try2('/', '*'):
				depth++
			case lx.try2('*', '/'):
				depth--
			default:
				lx.cursor.Bump()
			}
		}
		if depth > 0 {
			lx.errLex(diag.LexUnterminatedBlockComment, lx.cursor.SpanFrom(start), "unterminated block comment")
		}
		lx.pushTrivia(token.TriviaBlockComment, start)
		return true
	default:
		lx.cursor.Reset(start)
		return false
	}
}
