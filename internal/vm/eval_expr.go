package vm

import (
	"math"

	"resilient/internal/ast"
)

func (vm *VM) eval(id ast.ExprID, env *Env) (Value, *VMError) {
	e := vm.ast.Exprs.Get(id)
	switch e.Kind {
	case ast.ExprLit:
		lit, _ := vm.ast.Exprs.Literal(id)
		switch lit.Kind {
		case ast.ExprLitInt:
			return MakeInt(lit.Int), nil
		case ast.ExprLitFloat:
			return MakeFloat(lit.Float), nil
		case ast.ExprLitString:
			return MakeString(lit.Str), nil
		default:
			return MakeBool(lit.Bool), nil
		}

	case ast.ExprIdent:
		ident, _ := vm.ast.Exprs.Ident(id)
		name := vm.ast.Name(ident.Name)
		v, ok := vm.read(env, name)
		if !ok {
			return Value{}, vm.eb.undefinedVariable(e.Span, name)
		}
		return v, nil

	case ast.ExprGroup:
		g, _ := vm.ast.Exprs.Group(id)
		return vm.eval(g.Inner, env)

	case ast.ExprUnary:
		un, _ := vm.ast.Exprs.Unary(id)
		x, err := vm.eval(un.Operand, env)
		if err != nil {
			return x, err
		}
		return vm.unaryOp(un.Op, x, e)

	case ast.ExprBinary:
		bin, _ := vm.ast.Exprs.Binary(id)
		if bin.Op.IsLogical() {
			return vm.logicalOp(bin, env, e)
		}
		l, err := vm.eval(bin.Left, env)
		if err != nil {
			return l, err
		}
		r, err := vm.eval(bin.Right, env)
		if err != nil {
			return r, err
		}
		return vm.binaryOp(bin.Op, l, r, e)

	case ast.ExprCall:
		return vm.call(id, e, env)
	}
	return Value{}, vm.eb.typeMismatch(e.Span, "cannot evaluate %s expression", e.Kind)
}

func (vm *VM) unaryOp(op ast.ExprUnaryOp, x Value, e *ast.Expr) (Value, *VMError) {
	switch {
	case op == ast.ExprUnaryNot && x.Kind == VKBool:
		return MakeBool(!x.Bool), nil
	case op == ast.ExprUnaryMinus && x.Kind == VKInt:
		if x.Int == math.MinInt64 {
			return Value{}, vm.eb.arithmetic(e.Span, "integer overflow in negation")
		}
		return MakeInt(-x.Int), nil
	case op == ast.ExprUnaryMinus && x.Kind == VKFloat:
		return MakeFloat(-x.Float), nil
	}
	return Value{}, vm.eb.typeMismatch(e.Span, "operator '%s' cannot be applied to %s", op, x.Kind)
}

// logicalOp short-circuits && and ||; both operands must be bool.
func (vm *VM) logicalOp(bin *ast.ExprBinaryData, env *Env, e *ast.Expr) (Value, *VMError) {
	l, err := vm.eval(bin.Left, env)
	if err != nil {
		return l, err
	}
	if l.Kind != VKBool {
		return Value{}, vm.eb.typeMismatch(e.Span, "operator '%s' needs bool operands, got %s", bin.Op, l.Kind)
	}
	if (bin.Op == ast.ExprBinaryLogicalAnd) != l.Bool {
		return l, nil
	}
	r, err := vm.eval(bin.Right, env)
	if err != nil {
		return r, err
	}
	if r.Kind != VKBool {
		return Value{}, vm.eb.typeMismatch(e.Span, "operator '%s' needs bool operands, got %s", bin.Op, r.Kind)
	}
	return r, nil
}
