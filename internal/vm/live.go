package vm

import (
	"fmt"

	"github.com/jinzhu/copier"

	"resilient/internal/ast"
	"resilient/internal/diag"
	"resilient/internal/source"
	"resilient/internal/trace"
)

// LiveState is the supervisor state of one live block execution.
type LiveState uint8

const (
	LiveInit LiveState = iota
	LiveRunning
	LiveSucceeded
	LiveRetrying
	LiveAbandoned
)

func (s LiveState) String() string {
	switch s {
	case LiveInit:
		return "init"
	case LiveRunning:
		return "running"
	case LiveSucceeded:
		return "succeeded"
	case LiveRetrying:
		return "retrying"
	case LiveAbandoned:
		return "abandoned"
	}
	return "unknown"
}

// frameSnapshot is the saved binding table of one frame.
type frameSnapshot struct {
	env  *Env
	vars map[string]Binding
}

// liveBlock supervises one execution of a live statement:
//
//	Init → Running → {Succeeded | Retrying → Running | Abandoned}
//
// The snapshot covers every frame from the enclosing one up to the global
// frame. Static slots are outside the snapshot and keep their values.
type liveBlock struct {
	vm       *VM
	stmt     ast.StmtID
	span     source.Span
	body     ast.StmtID
	env      *Env
	snapshot []frameSnapshot
	attempt  int
	max      int
	state    LiveState
	last     *VMError
}

func (vm *VM) runLive(id ast.StmtID, sp source.Span, body ast.StmtID, env *Env) (control, *VMError) {
	lb := &liveBlock{
		vm:    vm,
		stmt:  id,
		span:  sp,
		body:  body,
		env:   env,
		max:   vm.opts.MaxAttempts,
		state: LiveInit,
	}
	vm.liveDepth++
	defer func() { vm.liveDepth-- }()

	for {
		switch lb.state {
		case LiveInit:
			snap, err := takeSnapshot(env)
			if err != nil {
				return control{}, vm.eb.snapshotFailed(sp, err)
			}
			lb.snapshot = snap
			lb.attempt = 1
			lb.event("live.init", "", nil)
			lb.state = LiveRunning

		case LiveRunning:
			ctl, fault := vm.execStmt(body, env)
			switch {
			case fault == nil:
				// a return inside the block is a success and keeps propagating
				lb.state = LiveSucceeded
				lb.snapshot = nil
				lb.event("live.succeeded", "", nil)
				return ctl, nil
			case !fault.Recoverable():
				lb.state = LiveAbandoned
				lb.event("live.abandoned", fault.Code.ID(), map[string]string{"fatal": "true"})
				return control{}, fault
			}
			lb.last = fault
			vm.effects.Diagnostic(fault.Diagnostic(diag.SevWarning).WithAttempt(lb.attempt))
			if lb.attempt < lb.max {
				lb.state = LiveRetrying
			} else {
				lb.state = LiveAbandoned
			}

		case LiveRetrying:
			if err := restoreSnapshot(lb.snapshot); err != nil {
				return control{}, vm.eb.snapshotFailed(sp, err)
			}
			lb.attempt++
			lb.event("live.retry", lb.last.Code.ID(), nil)
			lb.state = LiveRunning

		case LiveAbandoned:
			if err := restoreSnapshot(lb.snapshot); err != nil {
				return control{}, vm.eb.snapshotFailed(sp, err)
			}
			lb.event("live.abandoned", lb.last.Code.ID(), nil)
			d := diag.New(diag.SevError, diag.RunLiveAbandoned, lb.span,
				fmt.Sprintf("live block abandoned after %d attempt(s): %s", lb.attempt, lb.last.Message)).
				WithNote(lb.last.Span, "last fault: "+lb.last.Code.ID()).
				WithAttempt(lb.attempt)
			vm.effects.Diagnostic(d)
			return control{}, nil
		}
	}
}

func (lb *liveBlock) event(name, code string, extra map[string]string) {
	if extra == nil {
		extra = make(map[string]string, 3)
	}
	extra["stmt"] = fmt.Sprint(lb.stmt)
	extra["max"] = fmt.Sprint(lb.max)
	extra["depth"] = fmt.Sprint(lb.vm.liveDepth)
	trace.Record(lb.vm.tracer, trace.Event{
		Scope:   trace.ScopeNode,
		Name:    name,
		Attempt: lb.attempt,
		Code:    code,
		Extra:   extra,
	})
}

// takeSnapshot deep-copies the binding tables on the chain from env to the
// global frame.
func takeSnapshot(env *Env) ([]frameSnapshot, error) {
	chain := env.chain()
	out := make([]frameSnapshot, len(chain))
	for i, frame := range chain {
		vars, err := cloneVars(frame.Vars)
		if err != nil {
			return nil, err
		}
		out[i] = frameSnapshot{env: frame, vars: vars}
	}
	return out, nil
}

// restoreSnapshot puts the saved tables back in place. Each restore installs
// a fresh copy, so the snapshot stays intact for the next attempt.
func restoreSnapshot(snap []frameSnapshot) error {
	for _, fs := range snap {
		vars, err := cloneVars(fs.vars)
		if err != nil {
			return err
		}
		fs.env.Vars = vars
	}
	return nil
}

// copyBindings is swapped in tests to force a copy failure.
var copyBindings = func(dst *map[string]Binding, src map[string]Binding) error {
	return copier.CopyWithOption(dst, src, copier.Option{DeepCopy: true})
}

func cloneVars(src map[string]Binding) (map[string]Binding, error) {
	dst := make(map[string]Binding, len(src))
	if err := copyBindings(&dst, src); err != nil {
		return nil, fmt.Errorf("copy bindings: %w", err)
	}
	return dst, nil
}
