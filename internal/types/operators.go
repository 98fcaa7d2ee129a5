package types

import "resilient/internal/ast"

// FamilyMask describes broad categories of types an operator accepts.
type FamilyMask uint32

const (
	FamilyNone FamilyMask = 0
	FamilyAny  FamilyMask = 1 << iota
	FamilyBool
	FamilyInt
	FamilyFloat
	FamilyString
)

const (
	FamilyNumeric = FamilyInt | FamilyFloat
	FamilyValue   = FamilyBool | FamilyNumeric | FamilyString
)

// BinaryResult describes how to derive the result type for an operator.
type BinaryResult uint8

const (
	BinaryResultUnknown BinaryResult = iota
	BinaryResultBool
	// BinaryResultNumeric is int for two ints and float otherwise.
	BinaryResultNumeric
	BinaryResultString
)

// BinaryFlags annotate special handling for binary operators.
type BinaryFlags uint8

const (
	BinaryFlagNone         BinaryFlags = 0
	BinaryFlagShortCircuit BinaryFlags = 1 << iota
	BinaryFlagCommutative
	// BinaryFlagSameFamily requires both sides in the same family, with
	// int and float counting as one.
	BinaryFlagSameFamily
)

// BinarySpec lists operand families and expected result for an operation.
type BinarySpec struct {
	Left   FamilyMask
	Right  FamilyMask
	Result BinaryResult
	Flags  BinaryFlags
}

// UnaryResult indicates how to derive the resulting type.
type UnaryResult uint8

const (
	UnaryResultUnknown UnaryResult = iota
	UnaryResultSame
	UnaryResultBool
)

// UnarySpec describes operand expectations for unary operators.
type UnarySpec struct {
	Operand FamilyMask
	Result  UnaryResult
}

var binarySpecTable = map[ast.ExprBinaryOp][]BinarySpec{
	ast.ExprBinaryAdd: {
		{Left: FamilyNumeric, Right: FamilyNumeric, Result: BinaryResultNumeric, Flags: BinaryFlagCommutative},
		// "id " + 3 and 3 + " ms" both concatenate
		{Left: FamilyString, Right: FamilyValue, Result: BinaryResultString, Flags: BinaryFlagCommutative},
	},
	ast.ExprBinarySub: {
		{Left: FamilyNumeric, Right: FamilyNumeric, Result: BinaryResultNumeric},
	},
	ast.ExprBinaryMul: {
		{Left: FamilyNumeric, Right: FamilyNumeric, Result: BinaryResultNumeric, Flags: BinaryFlagCommutative},
	},
	ast.ExprBinaryDiv: {
		{Left: FamilyNumeric, Right: FamilyNumeric, Result: BinaryResultNumeric},
	},
	ast.ExprBinaryMod: {
		{Left: FamilyNumeric, Right: FamilyNumeric, Result: BinaryResultNumeric},
	},
	ast.ExprBinaryLogicalAnd: {
		{Left: FamilyBool, Right: FamilyBool, Result: BinaryResultBool, Flags: BinaryFlagShortCircuit},
	},
	ast.ExprBinaryLogicalOr: {
		{Left: FamilyBool, Right: FamilyBool, Result: BinaryResultBool, Flags: BinaryFlagShortCircuit},
	},
	ast.ExprBinaryEq: {
		{Left: FamilyValue, Right: FamilyValue, Result: BinaryResultBool, Flags: BinaryFlagSameFamily | BinaryFlagCommutative},
	},
	ast.ExprBinaryNotEq: {
		{Left: FamilyValue, Right: FamilyValue, Result: BinaryResultBool, Flags: BinaryFlagSameFamily | BinaryFlagCommutative},
	},
	ast.ExprBinaryLess: {
		{Left: FamilyNumeric, Right: FamilyNumeric, Result: BinaryResultBool},
	},
	ast.ExprBinaryLessEq: {
		{Left: FamilyNumeric, Right: FamilyNumeric, Result: BinaryResultBool},
	},
	ast.ExprBinaryGreater: {
		{Left: FamilyNumeric, Right: FamilyNumeric, Result: BinaryResultBool},
	},
	ast.ExprBinaryGreaterEq: {
		{Left: FamilyNumeric, Right: FamilyNumeric, Result: BinaryResultBool},
	},
}

var unarySpecTable = map[ast.ExprUnaryOp][]UnarySpec{
	ast.ExprUnaryMinus: {
		{Operand: FamilyNumeric, Result: UnaryResultSame},
	},
	ast.ExprUnaryNot: {
		{Operand: FamilyBool, Result: UnaryResultBool},
	},
}

// BinarySpecs returns the specs for op, nil when the operator is unknown.
func BinarySpecs(op ast.ExprBinaryOp) []BinarySpec {
	return binarySpecTable[op]
}

// UnarySpecs returns the specs for op, nil when the operator is unknown.
func UnarySpecs(op ast.ExprUnaryOp) []UnarySpec {
	return unarySpecTable[op]
}

// Binary resolves the result kind of `l op r`. An operand of KindAny
// matches every family; ok is false when no spec accepts the operands.
func Binary(op ast.ExprBinaryOp, l, r Kind) (Kind, bool) {
	for _, spec := range binarySpecTable[op] {
		if res, ok := spec.match(l, r); ok {
			return res, true
		}
		if spec.Flags&BinaryFlagCommutative != 0 {
			if res, ok := spec.match(r, l); ok {
				return res, true
			}
		}
	}
	return KindInvalid, false
}

func (spec BinarySpec) match(l, r Kind) (Kind, bool) {
	if !accepts(spec.Left, l) || !accepts(spec.Right, r) {
		return KindInvalid, false
	}
	if spec.Flags&BinaryFlagSameFamily != 0 && l != KindAny && r != KindAny {
		if l != r && (!l.IsNumeric() || !r.IsNumeric()) {
			return KindInvalid, false
		}
	}
	switch spec.Result {
	case BinaryResultBool:
		return KindBool, true
	case BinaryResultString:
		return KindString, true
	case BinaryResultNumeric:
		if l == KindAny || r == KindAny {
			return KindAny, true
		}
		if l == KindInt && r == KindInt {
			return KindInt, true
		}
		return KindFloat, true
	}
	return KindInvalid, false
}

// Unary resolves the result kind of `op x`.
func Unary(op ast.ExprUnaryOp, x Kind) (Kind, bool) {
	for _, spec := range unarySpecTable[op] {
		if !accepts(spec.Operand, x) {
			continue
		}
		switch spec.Result {
		case UnaryResultSame:
			return x, true
		case UnaryResultBool:
			return KindBool, true
		}
	}
	return KindInvalid, false
}

func accepts(mask FamilyMask, k Kind) bool {
	if k == KindAny {
		return true
	}
	return mask&k.Family() != 0
}
