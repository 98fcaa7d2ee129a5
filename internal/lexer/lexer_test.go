package lexer_test

import (
	"fmt"
	"strings"
	"testing"

	"resilient/internal/diag"
	"resilient/internal/lexer"
	"resilient/internal/source"
	"resilient/internal/token"
)

// testReporter collects every diagnostic reported by the lexer.
type testReporter struct {
	diagnostics []diag.Diagnostic
}

func (r *testReporter) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note) {
	d := diag.New(sev, code, primary, msg)
	d.Notes = notes
	r.diagnostics = append(r.diagnostics, d)
}

func (r *testReporter) codes() []diag.Code {
	out := make([]diag.Code, 0, len(r.diagnostics))
	for _, d := range r.diagnostics {
		out = append(out, d.Code)
	}
	return out
}

func (r *testReporter) messages() []string {
	out := make([]string, 0, len(r.diagnostics))
	for _, d := range r.diagnostics {
		out = append(out, fmt.Sprintf("[%s] %s: %s", d.Code.ID(), d.Severity, d.Message))
	}
	return out
}

func makeTestLexer(input string) (*lexer.Lexer, *testReporter) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test.rsl", []byte(input))
	reporter := &testReporter{}
	return lexer.New(fs.Get(fileID), lexer.Options{Reporter: reporter}), reporter
}

func kinds(tokens []token.Token) []token.Kind {
	out := make([]token.Kind, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, t.Kind)
	}
	return out
}

func tokensToString(tokens []token.Token) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = fmt.Sprintf("%v(%q)", tok.Kind, tok.Text)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// expectTokens lexes input and compares kinds, EOF excluded.
func expectTokens(t *testing.T, input string, expected ...token.Kind) *testReporter {
	t.Helper()
	lx, reporter := makeTestLexer(input)
	tokens := lx.All()
	tokens = tokens[:len(tokens)-1]

	got := kinds(tokens)
	if len(got) != len(expected) {
		t.Fatalf("Expected %d tokens, got %d\nInput: %q\nTokens: %v\nErrors: %v",
			len(expected), len(got), input, tokensToString(tokens), reporter.messages())
	}
	for i := range got {
		if got[i] != expected[i] {
			t.Errorf("Token %d: expected %v, got %v (text: %q)", i, expected[i], got[i], tokens[i].Text)
		}
	}
	return reporter
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	rep := expectTokens(t, "fn let static live assert if else return true false while println x_1 int",
		token.KwFn, token.KwLet, token.KwStatic, token.KwLive, token.KwAssert, token.KwIf,
		token.KwElse, token.KwReturn, token.KwTrue, token.KwFalse, token.KwWhile,
		token.Ident, token.Ident, token.Ident)
	if len(rep.diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", rep.messages())
	}
}

func TestOperatorsAndPunct(t *testing.T) {
	expectTokens(t, "+ - * / % = == != ! < <= > >= && || ( ) { } , ; :",
		token.Plus, token.Minus, token.Star, token.Slash, token.Percent,
		token.Assign, token.EqEq, token.BangEq, token.Bang,
		token.Lt, token.LtEq, token.Gt, token.GtEq, token.AndAnd, token.OrOr,
		token.LParen, token.RParen, token.LBrace, token.RBrace,
		token.Comma, token.Semicolon, token.Colon)
}

func TestNumbers(t *testing.T) {
	lx, rep := makeTestLexer("0 42 3.14 10.0")
	toks := lx.All()
	want := []struct {
		kind token.Kind
		text string
	}{
		{token.IntLit, "0"}, {token.IntLit, "42"}, {token.FloatLit, "3.14"}, {token.FloatLit, "10.0"}, {token.EOF, ""},
	}
	if len(toks) != len(want) {
		t.Fatalf("got %s", tokensToString(toks))
	}
	for i, w := range want {
		if toks[i].Kind != w.kind || toks[i].Text != w.text {
			t.Errorf("token %d = %v(%q), want %v(%q)", i, toks[i].Kind, toks[i].Text, w.kind, w.text)
		}
	}
	if len(rep.diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", rep.messages())
	}
}

func TestBadNumbers(t *testing.T) {
	for _, input := range []string{"1.2.3", "1.", "12abc", "99999999999999999999"} {
		t.Run(input, func(t *testing.T) {
			rep := expectTokens(t, input+";", token.Invalid, token.Semicolon)
			if codes := rep.codes(); len(codes) != 1 || codes[0] != diag.LexBadNumber {
				t.Fatalf("codes = %v", codes)
			}
		})
	}
}

func TestStrings(t *testing.T) {
	lx, rep := makeTestLexer(`"hello\n\"world\"\q"`)
	tok := lx.Next()
	if tok.Kind != token.StringLit {
		t.Fatalf("kind = %v", tok.Kind)
	}
	if got := lexer.Unquote(tok.Text); got != "hello\n\"world\"\\q" {
		t.Errorf("Unquote = %q", got)
	}
	if len(rep.diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", rep.messages())
	}
}

func TestUnterminatedStringResumesAtNewline(t *testing.T) {
	rep := expectTokens(t, "let s = \"abc\nlet y = 1;",
		token.KwLet, token.Ident, token.Assign, token.Invalid,
		token.KwLet, token.Ident, token.Assign, token.IntLit, token.Semicolon)
	if codes := rep.codes(); len(codes) != 1 || codes[0] != diag.LexUnterminatedString {
		t.Fatalf("codes = %v", codes)
	}

	rep = expectTokens(t, `"abc`, token.Invalid)
	if codes := rep.codes(); len(codes) != 1 || codes[0] != diag.LexUnterminatedString {
		t.Fatalf("codes = %v", codes)
	}
}

func TestUnknownCharacterResumesAtNextRune(t *testing.T) {
	rep := expectTokens(t, "let a = 1 @ 2 & 3 | 4 § 5;",
		token.KwLet, token.Ident, token.Assign, token.IntLit,
		token.Invalid, token.IntLit, token.Invalid, token.IntLit, token.Invalid, token.IntLit,
		token.Invalid, token.IntLit, token.Semicolon)
	codes := rep.codes()
	if len(codes) != 4 {
		t.Fatalf("expected 4 diagnostics, got %v", rep.messages())
	}
	for _, c := range codes {
		if c != diag.LexUnknownChar {
			t.Fatalf("unexpected code %v", c)
		}
	}
	if !strings.Contains(rep.diagnostics[1].Message, "'&&'") {
		t.Errorf("missing hint: %q", rep.diagnostics[1].Message)
	}
}

func TestComments(t *testing.T) {
	lx, rep := makeTestLexer("// line\nlet /* block /* nested */ */ x;")
	toks := lx.All()
	if got := kinds(toks); len(got) != 4 || got[0] != token.KwLet || got[1] != token.Ident {
		t.Fatalf("tokens = %s", tokensToString(toks))
	}
	if len(toks[0].Leading) != 2 || toks[0].Leading[0].Kind != token.TriviaLineComment {
		t.Errorf("leading trivia of 'let' = %+v", toks[0].Leading)
	}
	if len(rep.diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", rep.messages())
	}
}

func TestUnterminatedBlockComment(t *testing.T) {
	lx, rep := makeTestLexer("x /* never closed")
	toks := lx.All()
	if got := kinds(toks); len(got) != 2 || got[0] != token.Ident || got[1] != token.EOF {
		t.Fatalf("tokens = %s", tokensToString(toks))
	}
	if codes := rep.codes(); len(codes) != 1 || codes[0] != diag.LexUnterminatedBlockComment {
		t.Fatalf("codes = %v", codes)
	}
	if lx.ErrorCount() != 1 {
		t.Errorf("ErrorCount = %d", lx.ErrorCount())
	}
}

func TestIdentifierNFC(t *testing.T) {
	// "é" as e + combining acute vs. precomposed U+00E9
	lx, _ := makeTestLexer("cafe\u0301 caf\u00e9")
	a, b := lx.Next(), lx.Next()
	if a.Kind != token.Ident || b.Kind != token.Ident {
		t.Fatalf("kinds = %v %v", a.Kind, b.Kind)
	}
	if a.Text != b.Text {
		t.Errorf("identifiers not normalized: %q vs %q", a.Text, b.Text)
	}
	if a.Span.Len() != 6 {
		t.Errorf("span must cover the source bytes, got %d", a.Span.Len())
	}
}

func TestSpansCoverLexemes(t *testing.T) {
	input := "fn f(int x) { return x + 1; }"
	lx, _ := makeTestLexer(input)
	for _, tok := range lx.All() {
		if tok.Kind == token.EOF {
			if tok.Span.Start != uint32(len(input)) {
				t.Errorf("EOF at %d", tok.Span.Start)
			}
			continue
		}
		if got := input[tok.Span.Start:tok.Span.End]; got != tok.Text {
			t.Errorf("span text %q != token text %q", got, tok.Text)
		}
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	lx, _ := makeTestLexer("a b")
	if p := lx.Peek(); p.Text != "a" {
		t.Fatalf("Peek = %q", p.Text)
	}
	if n := lx.Next(); n.Text != "a" {
		t.Fatalf("Next after Peek = %q", n.Text)
	}
	if n := lx.Next(); n.Text != "b" {
		t.Fatalf("second Next = %q", n.Text)
	}
	if n := lx.Next(); n.Kind != token.EOF {
		t.Fatalf("want EOF, got %v", n.Kind)
	}
	if n := lx.Next(); n.Kind != token.EOF {
		t.Fatalf("EOF must repeat, got %v", n.Kind)
	}
}
