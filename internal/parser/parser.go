package parser

import (
	"slices"

	"resilient/internal/ast"
	"resilient/internal/diag"
	"resilient/internal/source"
	"resilient/internal/token"
)

type Options struct {
	MaxErrors uint
	Reporter  diag.Reporter
}

type Result struct {
	File   ast.FileID
	Errors int // syntax errors, reported or suppressed by MaxErrors
	Bag    *diag.Bag
}

// TokenStream is what the parser consumes: the lexer itself or a recorded
// token slice.
type TokenStream interface {
	Next() token.Token
	Peek() token.Token
}

// Parser holds the state of one file parse.
type Parser struct {
	lx       TokenStream
	arenas   *ast.Builder
	fs       *source.FileSet
	file     ast.FileID
	fileID   source.FileID
	opts     Options
	lastSpan source.Span // span of the last consumed token

	// panicking is set on the first error after a sync point and cleared when
	// recovery reaches the next one; errors in between are not reported.
	panicking bool
	errors    int
	reported  uint
}

// ParseFile parses one file from a token stream, typically a *lexer.Lexer.
func ParseFile(fs *source.FileSet, lx TokenStream, arenas *ast.Builder, opts Options) Result {
	first := lx.Peek()
	p := Parser{
		lx:       lx,
		arenas:   arenas,
		fs:       fs,
		fileID:   first.Span.File,
		opts:     opts,
		lastSpan: source.Span{File: first.Span.File, Start: first.Span.Start, End: first.Span.Start},
	}
	p.file = arenas.NewFile(p.lastSpan)

	p.parseItems()

	res := Result{File: p.file, Errors: p.errors}
	if br, ok := opts.Reporter.(diag.BagReporter); ok {
		res.Bag = br.Bag
	} else if br, ok := opts.Reporter.(*diag.BagReporter); ok {
		res.Bag = br.Bag
	}
	return res
}

// ParseTokens parses an already lexed token slice. A missing trailing EOF is
// synthesized after the last token.
func ParseTokens(tokens []token.Token, arenas *ast.Builder, opts Options) Result {
	return ParseFile(nil, newSliceStream(tokens), arenas, opts)
}

type sliceStream struct {
	toks []token.Token
	pos  int
}

func newSliceStream(tokens []token.Token) *sliceStream {
	toks := slices.Clone(tokens)
	if len(toks) == 0 || toks[len(toks)-1].Kind != token.EOF {
		var end source.Span
		if len(toks) > 0 {
			last := toks[len(toks)-1].Span
			end = source.Span{File: last.File, Start: last.End, End: last.End}
		}
		toks = append(toks, token.Token{Kind: token.EOF, Span: end})
	}
	return &sliceStream{toks: toks}
}

func (s *sliceStream) Peek() token.Token {
	return s.toks[s.pos]
}

func (s *sliceStream) Next() token.Token {
	tok := s.toks[s.pos]
	if s.pos < len(s.toks)-1 {
		s.pos++
	}
	return tok
}

func (p *Parser) at(k token.Kind) bool {
	return p.lx.Peek().Kind == k
}

func (p *Parser) at_or(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.lx.Peek().Kind)
}

// parseItems is the top-level loop: functions and statements until EOF.
func (p *Parser) parseItems() {
	start := p.lx.Peek().Span
	for !p.at(token.EOF) {
		switch {
		case p.at(token.KwFn):
			if itemID, ok := p.parseFnItem(); ok {
				p.arenas.PushItem(p.file, itemID)
			}
		case p.at(token.RBrace):
			p.report(diag.SynUnexpectedTopLevel, diag.SevError, p.lx.Peek().Span, "unexpected '}' at top level")
			p.advance()
			p.panicking = false
		case p.at(token.Semicolon):
			p.advance()
		default:
			stmtID, ok := p.parseStmt()
			if !ok {
				p.resyncTop()
				continue
			}
			st := p.arenas.Stmts.Get(stmtID)
			p.arenas.PushItem(p.file, p.arenas.Items.NewStmtItem(stmtID, st.Span))
		}
	}
	f := p.arenas.Files.Get(p.file)
	f.Span = start.Cover(p.lx.Peek().Span)
}

// resyncTop recovers at top level. A stray '}' left by resync is dropped so
// the loop always makes progress.
func (p *Parser) resyncTop() {
	p.resyncStatement()
	if p.at(token.RBrace) {
		p.advance()
	}
}

func (p *Parser) parseIdent() (source.StringID, source.Span, bool) {
	if p.at(token.Ident) {
		tok := p.advance()
		return p.arenas.StringsInterner.Intern(tok.Text), tok.Span, true
	}
	p.err(diag.SynExpectIdentifier, "expected identifier, got "+describe(p.lx.Peek()))
	return source.NoStringID, source.Span{}, false
}

func describe(tok token.Token) string {
	switch tok.Kind {
	case token.EOF:
		return "end of file"
	case token.Ident, token.IntLit, token.FloatLit, token.StringLit:
		return "'" + tok.Text + "'"
	default:
		return tok.Kind.Describe()
	}
}
