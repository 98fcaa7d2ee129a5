package driver

import (
	"context"
	"fmt"
	"time"

	"fortio.org/safecast"

	"resilient/internal/ast"
	"resilient/internal/diag"
	"resilient/internal/lexer"
	"resilient/internal/observ"
	"resilient/internal/parser"
	"resilient/internal/sema"
	"resilient/internal/source"
	"resilient/internal/trace"
)

// pipeline carries the per-invocation plumbing shared by Run, Diagnose and
// DiagnoseDir: the tracer, the parent span, the optional timer and the
// phase observer.
type pipeline struct {
	tracer  trace.Tracer
	parent  uint64
	timer   *observ.Timer
	onPhase PhaseObserver
}

func newPipeline(ctx context.Context, timings bool, onPhase PhaseObserver) *pipeline {
	p := &pipeline{
		tracer:  trace.FromContext(ctx),
		parent:  trace.CurrentSpan(ctx).SpanID,
		onPhase: onPhase,
	}
	if timings {
		p.timer = observ.NewTimer()
	}
	return p
}

// timed runs fn as a named phase: it is timed and reported to the observer.
// fn returns the note attached to the timing entry.
func (p *pipeline) timed(name string, fn func() string) string {
	p.onPhase.emit(PhaseEvent{Name: name, Status: PhaseStart})
	idx := -1
	if p.timer != nil {
		idx = p.timer.Begin(name)
	}
	start := time.Now()
	note := fn()
	if p.timer != nil {
		p.timer.End(idx, note)
	}
	p.onPhase.emit(PhaseEvent{Name: name, Status: PhaseEnd, Elapsed: time.Since(start)})
	return note
}

// phase is timed plus a pass-level trace span.
func (p *pipeline) phase(name string, fn func() string) {
	span := trace.Begin(p.tracer, trace.ScopePass, name, p.parent)
	note := p.timed(name, fn)
	span.End(note)
}

func (p *pipeline) report() *observ.Report {
	if p.timer == nil {
		return nil
	}
	r := p.timer.Report()
	return &r
}

// frontEnd lexes, parses and (for DiagnoseStageSema) type-checks sf. The
// type checker sees the recovered tree, so syntax and type errors are
// reported together.
func (p *pipeline) frontEnd(fs *source.FileSet, sf *source.File, stage DiagnoseStage, maxDiagnostics int) *DiagnoseResult {
	res := &DiagnoseResult{FileSet: fs, File: sf, Bag: diag.NewBag(maxDiagnostics)}
	rep := diag.NewDedupReporter(diag.BagReporter{Bag: res.Bag})

	if stage == DiagnoseStageTokenize {
		p.phase("lex", func() string {
			lx := lexer.New(sf, lexer.Options{Reporter: rep})
			toks := lx.All()
			res.SyntaxErrors = lx.ErrorCount()
			return fmt.Sprintf("tokens=%d", len(toks))
		})
		return res
	}

	p.phase("parse", func() string {
		maxErrors, err := safecast.Conv[uint](max(maxDiagnostics, 0))
		if err != nil {
			maxErrors = 0
		}
		lx := lexer.New(sf, lexer.Options{Reporter: rep})
		res.Builder = ast.NewBuilder(ast.Hints{})
		pr := parser.ParseFile(fs, lx, res.Builder, parser.Options{Reporter: rep, MaxErrors: maxErrors})
		res.FileID = pr.File
		res.SyntaxErrors = lx.ErrorCount() + pr.Errors
		return fmt.Sprintf("items=%d", len(res.Builder.Files.Get(pr.File).Items))
	})

	if stage != DiagnoseStageSema {
		return res
	}
	p.phase("sema", func() string {
		sr := sema.Check(res.Builder, res.FileID, sema.Options{Reporter: rep})
		res.Sema = &sr
		res.TypeErrors = sr.Errors
		return fmt.Sprintf("errors=%d", sr.Errors)
	})
	return res
}
