package vm

import (
	"strings"

	"resilient/internal/ast"
	"resilient/internal/source"
	"resilient/internal/types"
)

// control carries a `return` out of nested statements.
type control struct {
	returned bool
	value    Value
}

func (vm *VM) execStmt(id ast.StmtID, env *Env) (control, *VMError) {
	st := vm.ast.Stmts.Get(id)
	if err := vm.checkCancelled(st.Span); err != nil {
		return control{}, err
	}

	switch st.Kind {
	case ast.StmtBlock:
		blk, _ := vm.ast.Stmts.Block(id)
		return vm.execBlock(blk.Stmts, NewEnv(env))

	case ast.StmtLet:
		let, _ := vm.ast.Stmts.Let(id)
		name := vm.ast.Name(let.Name)
		if let.Static {
			// the initializer runs once per declaration, not per execution
			if _, ok := vm.statics[id]; !ok {
				v, err := vm.evalValue(let.Value, env)
				if err != nil {
					return control{}, err
				}
				vm.statics[id] = v
			}
			env.Vars[name] = Binding{Static: true, Slot: id}
			return control{}, nil
		}
		v, err := vm.evalValue(let.Value, env)
		if err != nil {
			return control{}, err
		}
		env.Vars[name] = Binding{Value: v}

	case ast.StmtAssign:
		as, _ := vm.ast.Stmts.Assign(id)
		v, err := vm.evalValue(as.Value, env)
		if err != nil {
			return control{}, err
		}
		name := vm.ast.Name(as.Name)
		found, typed := vm.write(env, name, v)
		if !found {
			return control{}, vm.eb.undefinedVariable(as.NameSpan, name)
		}
		if !typed {
			cur, _ := vm.read(env, name)
			return control{}, vm.eb.typeMismatch(st.Span, "cannot assign %s to '%s' holding %s", v.Kind, name, cur.Kind)
		}

	case ast.StmtAssert:
		return control{}, vm.execAssert(id, st.Span, env)

	case ast.StmtLive:
		live, _ := vm.ast.Stmts.Live(id)
		return vm.runLive(id, st.Span, live.Body, env)

	case ast.StmtIf:
		ifs, _ := vm.ast.Stmts.If(id)
		cond, err := vm.evalCondition(ifs.Cond, env, "if")
		if err != nil {
			return control{}, err
		}
		if cond {
			return vm.execStmt(ifs.Then, env)
		}
		if ifs.Else.IsValid() {
			return vm.execStmt(ifs.Else, env)
		}

	case ast.StmtWhile:
		w, _ := vm.ast.Stmts.While(id)
		for {
			cond, err := vm.evalCondition(w.Cond, env, "while")
			if err != nil || !cond {
				return control{}, err
			}
			ctl, err := vm.execStmt(w.Body, env)
			if err != nil || ctl.returned {
				return ctl, err
			}
		}

	case ast.StmtReturn:
		ret, _ := vm.ast.Stmts.Return(id)
		v := MakeVoid()
		if ret.Value.IsValid() {
			var err *VMError
			if v, err = vm.eval(ret.Value, env); err != nil {
				return control{}, err
			}
		}
		return control{returned: true, value: v}, nil

	case ast.StmtExpr:
		es, _ := vm.ast.Stmts.Expr(id)
		if _, err := vm.eval(es.Expr, env); err != nil {
			return control{}, err
		}

	case ast.StmtPrint:
		pr, _ := vm.ast.Stmts.Print(id)
		parts := make([]string, len(pr.Args))
		for i, arg := range pr.Args {
			v, err := vm.eval(arg, env)
			if err != nil {
				return control{}, err
			}
			parts[i] = v.String()
		}
		vm.effects.Print(strings.Join(parts, " "))
	}
	return control{}, nil
}

// execBlock runs statements in env, stopping at the first fault or return.
func (vm *VM) execBlock(stmts []ast.StmtID, env *Env) (control, *VMError) {
	for _, st := range stmts {
		ctl, err := vm.execStmt(st, env)
		if err != nil || ctl.returned {
			return ctl, err
		}
	}
	return control{}, nil
}

func (vm *VM) execAssert(id ast.StmtID, sp source.Span, env *Env) *VMError {
	as, _ := vm.ast.Stmts.Assert(id)
	ok, err := vm.evalCondition(as.Cond, env, "assert")
	if err != nil || ok {
		return err
	}
	msg := "assertion failed"
	if as.Message.IsValid() {
		v, err := vm.eval(as.Message, env)
		if err != nil {
			return err
		}
		msg = v.String()
	} else if vm.opts.Files != nil {
		msg += ": " + vm.opts.Files.Text(vm.ast.Exprs.Get(as.Cond).Span)
	}
	return vm.eb.assertionFailed(sp, msg)
}

func (vm *VM) evalCondition(id ast.ExprID, env *Env, what string) (bool, *VMError) {
	v, err := vm.eval(id, env)
	if err != nil {
		return false, err
	}
	if v.Kind != VKBool {
		return false, vm.eb.typeMismatch(vm.ast.Exprs.Get(id).Span, "%s condition must be bool, got %s", what, v.Kind)
	}
	return v.Bool, nil
}

// evalValue evaluates an expression whose result is stored; void is refused.
func (vm *VM) evalValue(id ast.ExprID, env *Env) (Value, *VMError) {
	v, err := vm.eval(id, env)
	if err != nil {
		return v, err
	}
	if v.Kind == VKVoid {
		return v, vm.eb.typeMismatch(vm.ast.Exprs.Get(id).Span, "expression has no value")
	}
	return v, nil
}

// paramKind resolves a declared parameter type.
func (vm *VM) paramKind(p ast.FnParam) (ValueKind, *VMError) {
	name := vm.ast.Name(p.Type)
	k, ok := types.Lookup(name)
	if !ok {
		return VKInvalid, vm.eb.typeMismatch(p.TypeSpan, "unknown parameter type '%s'", name)
	}
	return kindOf(k), nil
}
