package vm

import (
	"math"
	"strconv"

	"resilient/internal/types"
)

// ValueKind identifies the runtime type of a Value.
type ValueKind uint8

const (
	VKInvalid ValueKind = iota
	// VKVoid is the result of a call that returns no value.
	VKVoid
	VKInt
	VKFloat
	VKString
	VKBool
)

func (k ValueKind) String() string {
	switch k {
	case VKVoid:
		return "void"
	case VKInt:
		return "int"
	case VKFloat:
		return "float"
	case VKString:
		return "string"
	case VKBool:
		return "bool"
	}
	return "invalid"
}

// Value is a tagged union over the four value types plus void. Only the
// field selected by Kind is meaningful.
type Value struct {
	Kind  ValueKind
	Int   int64
	Float float64
	Str   string
	Bool  bool
}

func MakeInt(v int64) Value     { return Value{Kind: VKInt, Int: v} }
func MakeFloat(v float64) Value { return Value{Kind: VKFloat, Float: v} }
func MakeString(v string) Value { return Value{Kind: VKString, Str: v} }
func MakeBool(v bool) Value     { return Value{Kind: VKBool, Bool: v} }
func MakeVoid() Value           { return Value{Kind: VKVoid} }

// String is the total stringification used by println and concatenation.
func (v Value) String() string {
	switch v.Kind {
	case VKInt:
		return strconv.FormatInt(v.Int, 10)
	case VKFloat:
		return formatFloat(v.Float)
	case VKString:
		return v.Str
	case VKBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case VKVoid:
		return "void"
	}
	return "<invalid>"
}

// formatFloat prints the shortest decimal that round-trips, keeping a ".0"
// on integral values so floats stay distinguishable from ints.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	format := byte('f')
	if abs := math.Abs(f); abs != 0 && (abs < 1e-4 || abs >= 1e21) {
		format = 'g'
	}
	s := strconv.FormatFloat(f, format, -1, 64)
	for i := 0; i < len(s); i++ {
		if s[i] == '.' || s[i] == 'e' {
			return s
		}
	}
	return s + ".0"
}

// Equal is structural equality; int and float compare numerically.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		if v.isNumeric() && o.isNumeric() {
			return v.asFloat() == o.asFloat()
		}
		return false
	}
	switch v.Kind {
	case VKInt:
		return v.Int == o.Int
	case VKFloat:
		return v.Float == o.Float
	case VKString:
		return v.Str == o.Str
	case VKBool:
		return v.Bool == o.Bool
	}
	return true
}

func (v Value) isNumeric() bool {
	return v.Kind == VKInt || v.Kind == VKFloat
}

func (v Value) asFloat() float64 {
	if v.Kind == VKInt {
		return float64(v.Int)
	}
	return v.Float
}

// kindOf maps a declared type to the value kind it holds.
func kindOf(k types.Kind) ValueKind {
	switch k {
	case types.KindInt:
		return VKInt
	case types.KindFloat:
		return VKFloat
	case types.KindString:
		return VKString
	case types.KindBool:
		return VKBool
	}
	return VKInvalid
}

// coerce converts v for storage where kind want is expected. Only int widens
// to float; ok is false for every other mismatch.
func coerce(v Value, want ValueKind) (Value, bool) {
	if v.Kind == want {
		return v, true
	}
	if v.Kind == VKInt && want == VKFloat {
		return MakeFloat(float64(v.Int)), true
	}
	return v, false
}
