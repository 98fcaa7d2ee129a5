package vm

import (
	"resilient/internal/ast"
	"resilient/internal/source"
	"resilient/internal/trace"
)

func (vm *VM) call(id ast.ExprID, e *ast.Expr, env *Env) (Value, *VMError) {
	c, _ := vm.ast.Exprs.Call(id)
	name := vm.ast.Name(c.Callee)
	fn, ok := vm.fns[name]
	if !ok {
		return Value{}, vm.eb.undefinedFunction(c.CalleeSpan, name)
	}
	args := make([]Value, len(c.Args))
	for i, arg := range c.Args {
		v, err := vm.evalValue(arg, env)
		if err != nil {
			return v, err
		}
		args[i] = v
	}
	return vm.invoke(fn, args, e.Span)
}

// invoke runs fn in a fresh frame parented to the global frame. Arguments
// are checked against the declared parameter types.
func (vm *VM) invoke(fn *ast.FnItem, args []Value, callSpan source.Span) (Value, *VMError) {
	name := vm.ast.Name(fn.Name)
	if len(vm.stack) >= vm.opts.MaxCallDepth {
		return Value{}, vm.eb.stackOverflow(callSpan, vm.opts.MaxCallDepth)
	}
	if len(args) != len(fn.Params) {
		return Value{}, vm.eb.typeMismatch(callSpan, "function '%s' expects %d argument(s), got %d", name, len(fn.Params), len(args))
	}

	frame := NewEnv(vm.global)
	for i, p := range fn.Params {
		kind, err := vm.paramKind(p)
		if err != nil {
			return Value{}, err
		}
		v, ok := coerce(args[i], kind)
		if !ok {
			return Value{}, vm.eb.typeMismatch(callSpan, "argument %d of '%s' must be %s, got %s", i+1, name, kind, args[i].Kind)
		}
		frame.Vars[vm.ast.Name(p.Name)] = Binding{Value: v}
	}

	span := trace.Begin(vm.tracer, trace.ScopeNode, "call:"+name, 0)
	vm.stack = append(vm.stack, callFrame{fn: name, callSpan: callSpan})
	defer func() {
		vm.stack = vm.stack[:len(vm.stack)-1]
		span.End("")
	}()

	body, _ := vm.ast.Stmts.Block(fn.Body)
	ctl, err := vm.execBlock(body.Stmts, frame)
	if err != nil {
		return Value{}, err
	}
	if ctl.returned {
		return ctl.value, nil
	}
	return MakeVoid(), nil
}
