package types

import "fmt"

// Kind is a builtin type. The language has no user-defined types, so a Kind
// fully describes a type.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindVoid is the result of calls that do not return a value.
	KindVoid
	// KindAny is used where a type is unknown: recursion, unresolved names.
	// It is compatible with everything and suppresses follow-up diagnostics.
	KindAny
	KindBool
	KindString
	KindInt
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindVoid:
		return "void"
	case KindAny:
		return "any"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

var byName = map[string]Kind{
	"int":    KindInt,
	"float":  KindFloat,
	"string": KindString,
	"bool":   KindBool,
}

// Lookup resolves a type name written in source. Only the four value types
// can be named.
func Lookup(name string) (Kind, bool) {
	k, ok := byName[name]
	return k, ok
}

// IsNumeric reports int or float.
func (k Kind) IsNumeric() bool {
	return k == KindInt || k == KindFloat
}

// Family maps a kind to its operator family.
func (k Kind) Family() FamilyMask {
	switch k {
	case KindBool:
		return FamilyBool
	case KindString:
		return FamilyString
	case KindInt:
		return FamilyInt
	case KindFloat:
		return FamilyFloat
	case KindAny:
		return FamilyAny
	default:
		return FamilyNone
	}
}

// AssignableTo reports whether a value of kind k may be stored where dst is
// expected. int widens to float.
func (k Kind) AssignableTo(dst Kind) bool {
	if k == KindAny || dst == KindAny {
		return k != KindVoid && dst != KindVoid
	}
	if k == dst {
		return k != KindVoid && k != KindInvalid
	}
	return k == KindInt && dst == KindFloat
}

// Unify merges two kinds seen for the same value, e.g. two return
// statements. ok is false when they conflict.
func Unify(a, b Kind) (Kind, bool) {
	switch {
	case a == b:
		return a, true
	case a == KindAny:
		return b, true
	case b == KindAny:
		return a, true
	case a.IsNumeric() && b.IsNumeric():
		return KindFloat, true
	}
	return KindInvalid, false
}
