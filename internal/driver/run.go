package driver

import (
	"context"
	"fmt"
	"io"

	"resilient/internal/diag"
	"resilient/internal/observ"
	"resilient/internal/source"
	"resilient/internal/trace"
	"resilient/internal/vm"
)

// StatusKind classifies how a run ended.
type StatusKind uint8

const (
	StatusSuccess StatusKind = iota
	StatusTypeCheckFailed
	StatusRuntimeFatal
)

func (k StatusKind) String() string {
	switch k {
	case StatusSuccess:
		return "success"
	case StatusTypeCheckFailed:
		return "typecheck failed"
	case StatusRuntimeFatal:
		return "runtime fatal"
	}
	return "unknown"
}

// ExitStatus is the outcome of Run. Fault is set for StatusRuntimeFatal.
type ExitStatus struct {
	Kind  StatusKind
	Fault diag.Code
}

// Code maps the status to a process exit code.
func (s ExitStatus) Code() int {
	switch s.Kind {
	case StatusTypeCheckFailed:
		return 2
	case StatusRuntimeFatal:
		return 3
	}
	return 0
}

func (s ExitStatus) String() string {
	if s.Kind == StatusRuntimeFatal {
		return fmt.Sprintf("%s (%s)", s.Kind, s.Fault.ID())
	}
	return s.Kind.String()
}

// Effect is one entry of the ordered runtime effect stream.
type Effect = vm.Effect

const defaultPath = "main.rsl"

// RunOptions configures Run.
type RunOptions struct {
	// Path names the source in spans; defaults to "main.rsl".
	Path         string
	TypeCheck    bool
	MaxAttempts  int
	MaxCallDepth int
	// Entry is a function called after the top-level statements.
	Entry          string
	MaxDiagnostics int
	// Stdout receives printed lines as they happen. Nil keeps them in
	// RunResult.Effects only.
	Stdout io.Writer
	// Sink additionally receives every effect as it happens, preceded by
	// the lex and parse diagnostics of the recovered program.
	Sink vm.EffectSink
	// Trace overrides the tracer carried by the context.
	Trace   trace.Tracer
	Timings bool
	OnPhase PhaseObserver
}

// RunResult is everything a run produced. Diagnostics holds the front-end
// diagnostics followed by the runtime ones in occurrence order; a fatal
// fault comes last. Syntax errors do not change Status: the statements
// that parsed still run, and SyntaxErrors counts what was dropped.
type RunResult struct {
	Status       ExitStatus
	SyntaxErrors int
	Diagnostics []diag.Diagnostic
	Effects     []Effect
	Fault       *vm.VMError
	FileSet     *source.FileSet
	Timing      *observ.Report
}

// Run executes src end to end: lex, parse, optionally type-check, evaluate.
// Malformed statements are dropped by the parser and the rest is evaluated;
// evaluation is skipped only when the type checker reports errors.
func Run(ctx context.Context, src string, opts RunOptions) RunResult {
	path := opts.Path
	if path == "" {
		path = defaultPath
	}
	fs := source.NewFileSet()
	id := fs.AddVirtual(path, []byte(src))
	return runFile(ctx, fs, fs.Get(id), opts)
}

// RunFile loads path from disk and runs it.
func RunFile(ctx context.Context, path string, opts RunOptions) (RunResult, error) {
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return RunResult{}, fmt.Errorf("load %s: %w", path, err)
	}
	return runFile(ctx, fs, fs.Get(id), opts), nil
}

// RunLoaded runs a file already in fs.
func RunLoaded(ctx context.Context, fs *source.FileSet, id source.FileID, opts RunOptions) RunResult {
	return runFile(ctx, fs, fs.Get(id), opts)
}

func runFile(ctx context.Context, fs *source.FileSet, sf *source.File, opts RunOptions) RunResult {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Trace != nil {
		ctx = trace.WithTracer(ctx, opts.Trace)
	}
	tracer := trace.FromContext(ctx)
	root := trace.Begin(tracer, trace.ScopeDriver, "run", trace.CurrentSpan(ctx).SpanID).WithExtra("file", sf.Path)
	ctx = trace.WithSpanContext(ctx, trace.SpanContext{SpanID: root.ID()})

	p := newPipeline(ctx, opts.Timings, opts.OnPhase)
	stage := DiagnoseStageSyntax
	if opts.TypeCheck {
		stage = DiagnoseStageSema
	}
	fe := p.frontEnd(fs, sf, stage, opts.MaxDiagnostics)

	res := RunResult{FileSet: fs, SyntaxErrors: fe.SyntaxErrors}
	res.Diagnostics = append(res.Diagnostics, fe.Bag.Items()...)
	if opts.Sink != nil && fe.TypeErrors == 0 {
		for _, d := range res.Diagnostics {
			opts.Sink.Diagnostic(d)
		}
	}
	if fe.TypeErrors > 0 {
		res.Status = ExitStatus{Kind: StatusTypeCheckFailed}
	} else {
		rec := vm.NewRecorder(opts.Stdout)
		var effects vm.EffectSink = rec
		if opts.Sink != nil {
			effects = teeSink{rec, opts.Sink}
		}
		var fault *vm.VMError
		p.timed("eval", func() string {
			m := vm.New(fe.Builder, fe.FileID, vm.Options{
				MaxAttempts:  opts.MaxAttempts,
				MaxCallDepth: opts.MaxCallDepth,
				Entry:        opts.Entry,
				Effects:      effects,
				Files:        fs,
				Tracer:       tracer,
			})
			fault = m.Run(ctx)
			return fmt.Sprintf("effects=%d", len(rec.Effects()))
		})
		res.Effects = rec.Effects()
		res.Diagnostics = append(res.Diagnostics, rec.Diagnostics()...)
		if fault != nil {
			res.Fault = fault
			res.Diagnostics = append(res.Diagnostics, fault.Diagnostic(diag.SevError))
			res.Status = ExitStatus{Kind: StatusRuntimeFatal, Fault: fault.Code}
		}
	}
	res.Timing = p.report()
	root.WithExtra("status", res.Status.String()).End("")
	return res
}

// Lines returns the printed lines of the effect stream.
func (r RunResult) Lines() []string {
	var out []string
	for _, e := range r.Effects {
		if e.Kind == vm.EffectLine {
			out = append(out, e.Line)
		}
	}
	return out
}

// Phase returns the diagnostics produced by phase ph.
func (r RunResult) Phase(ph diag.Phase) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, d := range r.Diagnostics {
		if d.Phase == ph {
			out = append(out, d)
		}
	}
	return out
}

type teeSink []vm.EffectSink

func (t teeSink) Print(line string) {
	for _, s := range t {
		s.Print(line)
	}
}

func (t teeSink) Diagnostic(d diag.Diagnostic) {
	for _, s := range t {
		s.Diagnostic(d)
	}
}
