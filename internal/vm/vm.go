package vm

import (
	"context"

	"resilient/internal/ast"
	"resilient/internal/source"
	"resilient/internal/trace"
)

const (
	DefaultMaxAttempts  = 3
	DefaultMaxCallDepth = 1024
)

// Options configures VM execution.
type Options struct {
	// MaxAttempts bounds the runs of one live block; values below 1 mean
	// DefaultMaxAttempts.
	MaxAttempts int
	// MaxCallDepth bounds recursion; values below 1 mean DefaultMaxCallDepth.
	MaxCallDepth int
	// Entry names a function called after the top-level statements, with
	// the zero value of each parameter type. Empty means none.
	Entry string
	// Effects receives output lines and runtime diagnostics. Nil discards.
	Effects EffectSink
	// Files resolves assertion source text; optional.
	Files  *source.FileSet
	Tracer trace.Tracer
}

// callFrame is one activation on the call stack.
type callFrame struct {
	fn       string
	callSpan source.Span
}

// VM evaluates one parsed file.
type VM struct {
	ast     *ast.Builder
	file    ast.FileID
	opts    Options
	global  *Env
	statics StaticSlots
	fns     map[string]*ast.FnItem
	stack   []callFrame
	eb      *errorBuilder
	tracer  trace.Tracer
	effects EffectSink
	ctx     context.Context

	// liveDepth counts the live blocks currently running; it is only used
	// for tracing.
	liveDepth int
}

// New creates a VM for the given file. Functions are hoisted: a call may
// precede its declaration.
func New(builder *ast.Builder, file ast.FileID, opts Options) *VM {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.MaxCallDepth < 1 {
		opts.MaxCallDepth = DefaultMaxCallDepth
	}
	vm := &VM{
		ast:     builder,
		file:    file,
		opts:    opts,
		global:  NewEnv(nil),
		statics: make(StaticSlots),
		fns:     make(map[string]*ast.FnItem),
		tracer:  opts.Tracer,
		effects: opts.Effects,
	}
	if vm.tracer == nil {
		vm.tracer = trace.Nop
	}
	if vm.effects == nil {
		vm.effects = discard{}
	}
	vm.eb = &errorBuilder{vm: vm}

	if f := builder.Files.Get(file); f != nil {
		for _, itemID := range f.Items {
			fn, ok := builder.Items.Fn(itemID)
			if !ok {
				continue
			}
			name := builder.Name(fn.Name)
			if _, dup := vm.fns[name]; !dup {
				vm.fns[name] = fn
			}
		}
	}
	return vm
}

// Run executes the top-level statements in order, then the entry function
// if one is configured. It returns the fault that aborted the program, or
// nil. Faults inside live blocks that were recovered or abandoned are
// reported through the effect sink only.
func (vm *VM) Run(ctx context.Context) *VMError {
	if ctx == nil {
		ctx = context.Background()
	}
	vm.ctx = ctx
	span := trace.Begin(vm.tracer, trace.ScopePass, "eval", trace.CurrentSpan(ctx).SpanID)
	defer span.End("")

	f := vm.ast.Files.Get(vm.file)
	if f == nil {
		return nil
	}
	for _, itemID := range f.Items {
		stmtID, ok := vm.ast.Items.Stmt(itemID)
		if !ok {
			continue
		}
		ctl, err := vm.execStmt(stmtID, vm.global)
		if err != nil {
			span.WithExtra("fault", err.Code.ID())
			return err
		}
		if ctl.returned {
			// a top-level return ends the program
			return nil
		}
	}

	if vm.opts.Entry == "" {
		return nil
	}
	fn, ok := vm.fns[vm.opts.Entry]
	if !ok {
		return vm.eb.undefinedFunction(f.Span, vm.opts.Entry)
	}
	args := make([]Value, len(fn.Params))
	for i, p := range fn.Params {
		kind, err := vm.paramKind(p)
		if err != nil {
			return err
		}
		args[i] = Value{Kind: kind}
	}
	_, err := vm.invoke(fn, args, fn.NameSpan)
	return err
}

// Statics exposes the static slot table; tests inspect it.
func (vm *VM) Statics() StaticSlots {
	return vm.statics
}

// Global returns the value of a global binding.
func (vm *VM) Global(name string) (Value, bool) {
	return vm.read(vm.global, name)
}

func (vm *VM) checkCancelled(sp source.Span) *VMError {
	if err := vm.ctx.Err(); err != nil {
		return vm.eb.cancelled(sp, err)
	}
	return nil
}
