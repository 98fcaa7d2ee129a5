package vm

import (
	"io"
	"sync"

	"resilient/internal/diag"
)

// EffectSink receives the observable output of a program in occurrence
// order. Lines are final once emitted: a live-block rollback never retracts
// them.
type EffectSink interface {
	Print(line string)
	Diagnostic(d diag.Diagnostic)
}

// EffectKind tags an Effect.
type EffectKind uint8

const (
	EffectLine EffectKind = iota + 1
	EffectDiagnostic
)

// Effect is one entry of the ordered effect stream.
type Effect struct {
	Kind       EffectKind
	Line       string
	Diagnostic diag.Diagnostic
}

// Recorder keeps the effect stream and optionally mirrors lines to an
// io.Writer as they are produced.
type Recorder struct {
	mu      sync.Mutex
	out     io.Writer
	effects []Effect
}

// NewRecorder creates a recorder; out may be nil.
func NewRecorder(out io.Writer) *Recorder {
	return &Recorder{out: out}
}

func (r *Recorder) Print(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.effects = append(r.effects, Effect{Kind: EffectLine, Line: line})
	if r.out != nil {
		_, _ = io.WriteString(r.out, line+"\n") //nolint:errcheck
	}
}

func (r *Recorder) Diagnostic(d diag.Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.effects = append(r.effects, Effect{Kind: EffectDiagnostic, Diagnostic: d})
}

// Effects returns a copy of the stream so far.
func (r *Recorder) Effects() []Effect {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Effect, len(r.effects))
	copy(out, r.effects)
	return out
}

// Lines returns only the printed lines.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.effects {
		if e.Kind == EffectLine {
			out = append(out, e.Line)
		}
	}
	return out
}

// Diagnostics returns only the runtime diagnostics.
func (r *Recorder) Diagnostics() []diag.Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []diag.Diagnostic
	for _, e := range r.effects {
		if e.Kind == EffectDiagnostic {
			out = append(out, e.Diagnostic)
		}
	}
	return out
}

type discard struct{}

func (discard) Print(string)               {}
func (discard) Diagnostic(diag.Diagnostic) {}
