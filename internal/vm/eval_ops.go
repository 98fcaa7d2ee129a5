package vm

import (
	"math"

	"resilient/internal/ast"
)

func (vm *VM) binaryOp(op ast.ExprBinaryOp, l, r Value, e *ast.Expr) (Value, *VMError) {
	switch {
	case op == ast.ExprBinaryAdd && (l.Kind == VKString || r.Kind == VKString):
		if l.Kind == VKVoid || r.Kind == VKVoid {
			break
		}
		return MakeString(l.String() + r.String()), nil
	case op == ast.ExprBinaryEq || op == ast.ExprBinaryNotEq:
		if !equatable(l, r) {
			break
		}
		return MakeBool(l.Equal(r) == (op == ast.ExprBinaryEq)), nil
	case l.isNumeric() && r.isNumeric():
		if op.IsComparison() {
			return MakeBool(compareNumeric(op, l, r)), nil
		}
		if l.Kind == VKInt && r.Kind == VKInt {
			return vm.intArith(op, l.Int, r.Int, e)
		}
		return vm.floatArith(op, l.asFloat(), r.asFloat(), e)
	}
	return Value{}, vm.eb.typeMismatch(e.Span, "operator '%s' cannot be applied to %s and %s", op, l.Kind, r.Kind)
}

// equatable reports whether == and != are defined on the operands: two
// numerics, or two values of the same string or bool kind.
func equatable(l, r Value) bool {
	if l.isNumeric() && r.isNumeric() {
		return true
	}
	return l.Kind == r.Kind && (l.Kind == VKString || l.Kind == VKBool)
}

func compareNumeric(op ast.ExprBinaryOp, l, r Value) bool {
	var c int
	if l.Kind == VKInt && r.Kind == VKInt {
		c = cmpOrdered(l.Int, r.Int)
	} else {
		c = cmpOrdered(l.asFloat(), r.asFloat())
	}
	switch op {
	case ast.ExprBinaryLess:
		return c < 0
	case ast.ExprBinaryLessEq:
		return c <= 0
	case ast.ExprBinaryGreater:
		return c > 0
	case ast.ExprBinaryGreaterEq:
		return c >= 0
	}
	return false
}

func cmpOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (vm *VM) intArith(op ast.ExprBinaryOp, a, b int64, e *ast.Expr) (Value, *VMError) {
	var (
		res int64
		ok  = true
	)
	switch op {
	case ast.ExprBinaryAdd:
		res, ok = addInt(a, b)
	case ast.ExprBinarySub:
		res, ok = subInt(a, b)
	case ast.ExprBinaryMul:
		res, ok = mulInt(a, b)
	case ast.ExprBinaryDiv:
		if b == 0 {
			return Value{}, vm.eb.arithmetic(e.Span, "division by zero")
		}
		if a == math.MinInt64 && b == -1 {
			ok = false
			break
		}
		res = a / b
	case ast.ExprBinaryMod:
		if b == 0 {
			return Value{}, vm.eb.arithmetic(e.Span, "modulo by zero")
		}
		res = a % b
	default:
		return Value{}, vm.eb.typeMismatch(e.Span, "operator '%s' cannot be applied to int and int", op)
	}
	if !ok {
		return Value{}, vm.eb.arithmetic(e.Span, "integer overflow in %d %s %d", a, op, b)
	}
	return MakeInt(res), nil
}

// addInt and subInt overflow exactly when the result's sign differs from
// what the operands' signs force.
func addInt(a, b int64) (int64, bool) {
	sum := a + b
	if (a^sum)&(b^sum) < 0 {
		return 0, false
	}
	return sum, true
}

func subInt(a, b int64) (int64, bool) {
	diff := a - b
	if (a^b)&(a^diff) < 0 {
		return 0, false
	}
	return diff, true
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	prod := a * b
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) || prod/b != a {
		return 0, false
	}
	return prod, true
}

func (vm *VM) floatArith(op ast.ExprBinaryOp, a, b float64, e *ast.Expr) (Value, *VMError) {
	switch op {
	case ast.ExprBinaryAdd:
		return MakeFloat(a + b), nil
	case ast.ExprBinarySub:
		return MakeFloat(a - b), nil
	case ast.ExprBinaryMul:
		return MakeFloat(a * b), nil
	case ast.ExprBinaryDiv:
		if b == 0 {
			return Value{}, vm.eb.arithmetic(e.Span, "division by zero")
		}
		return MakeFloat(a / b), nil
	case ast.ExprBinaryMod:
		if b == 0 {
			return Value{}, vm.eb.arithmetic(e.Span, "modulo by zero")
		}
		return MakeFloat(math.Mod(a, b)), nil
	}
	return Value{}, vm.eb.typeMismatch(e.Span, "operator '%s' cannot be applied to float operands", op)
}
