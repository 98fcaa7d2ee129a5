package lexer

import (
	"resilient/internal/diag"
	"resilient/internal/source"
)

type Options struct {
	Reporter diag.Reporter // nil drops diagnostics; lexing continues either way
}

func (lx *Lexer) errLex(code diag.Code, sp source.Span, msg string) {
	lx.errors++
	if lx.opts.Reporter != nil {
		lx.opts.Reporter.Report(code, diag.SevError, sp, msg, nil)
	}
}
