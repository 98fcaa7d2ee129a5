package types //nolint:revive

import (
	"testing"

	"resilient/internal/ast"
)

func TestBinarySpecsLogicalAnd(t *testing.T) {
	specs := BinarySpecs(ast.ExprBinaryLogicalAnd)
	if len(specs) != 1 {
		t.Fatalf("expected single spec for logical and")
	}
	spec := specs[0]
	if spec.Left&FamilyBool == 0 || spec.Right&FamilyBool == 0 {
		t.Fatalf("logical and expects bool operands, got %+v", spec)
	}
	if spec.Result != BinaryResultBool {
		t.Fatalf("expected bool result, got %+v", spec)
	}
}

func TestBinaryResolution(t *testing.T) {
	cases := []struct {
		op   ast.ExprBinaryOp
		l, r Kind
		want Kind
		ok   bool
	}{
		{ast.ExprBinaryAdd, KindInt, KindInt, KindInt, true},
		{ast.ExprBinaryAdd, KindInt, KindFloat, KindFloat, true},
		{ast.ExprBinaryAdd, KindString, KindInt, KindString, true},
		{ast.ExprBinaryAdd, KindInt, KindString, KindString, true},
		{ast.ExprBinaryAdd, KindBool, KindBool, KindInvalid, false},
		{ast.ExprBinarySub, KindString, KindString, KindInvalid, false},
		{ast.ExprBinaryMod, KindInt, KindInt, KindInt, true},
		{ast.ExprBinaryLess, KindInt, KindFloat, KindBool, true},
		{ast.ExprBinaryLess, KindString, KindString, KindInvalid, false},
		{ast.ExprBinaryEq, KindString, KindString, KindBool, true},
		{ast.ExprBinaryEq, KindInt, KindFloat, KindBool, true},
		{ast.ExprBinaryEq, KindInt, KindString, KindInvalid, false},
		{ast.ExprBinaryLogicalOr, KindBool, KindInt, KindInvalid, false},
		{ast.ExprBinaryMul, KindAny, KindInt, KindAny, true},
		{ast.ExprBinaryAdd, KindVoid, KindInt, KindInvalid, false},
	}
	for _, tc := range cases {
		got, ok := Binary(tc.op, tc.l, tc.r)
		if ok != tc.ok || got != tc.want {
			t.Errorf("%s %s %s: got (%s, %v), want (%s, %v)", tc.l, tc.op, tc.r, got, ok, tc.want, tc.ok)
		}
	}
}

func TestUnaryResolution(t *testing.T) {
	if k, ok := Unary(ast.ExprUnaryMinus, KindFloat); !ok || k != KindFloat {
		t.Fatalf("-float: got %s %v", k, ok)
	}
	if _, ok := Unary(ast.ExprUnaryMinus, KindBool); ok {
		t.Fatalf("-bool must be rejected")
	}
	if k, ok := Unary(ast.ExprUnaryNot, KindBool); !ok || k != KindBool {
		t.Fatalf("!bool: got %s %v", k, ok)
	}
}

func TestAssignability(t *testing.T) {
	if !KindInt.AssignableTo(KindFloat) {
		t.Fatalf("int must widen to float")
	}
	if KindFloat.AssignableTo(KindInt) {
		t.Fatalf("float must not narrow to int")
	}
	if KindVoid.AssignableTo(KindAny) {
		t.Fatalf("void is not a value")
	}
	if k, ok := Unify(KindInt, KindFloat); !ok || k != KindFloat {
		t.Fatalf("unify int/float: got %s %v", k, ok)
	}
	if _, ok := Unify(KindString, KindBool); ok {
		t.Fatalf("string and bool must not unify")
	}
}
