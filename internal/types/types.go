package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindUnit
	KindBool
	KindInt
	KindFloat
	KindStruct
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnit:
		return "unit"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Type is a compact descriptor for any supported type. Payload holds the
// struct or enum metadata slot for nominal kinds.
type Type struct {
	Kind    Kind
	Payload uint32
}

// IsAggregate reports whether values of this type are built from fields or
// tagged cases.
func (t Type) IsAggregate() bool {
	return t.Kind == KindStruct || t.Kind == KindEnum
}

// IsTrivial reports whether values of this type carry no lifetime
// obligations.
func (t Type) IsTrivial() bool {
	switch t.Kind {
	case KindUnit, KindBool, KindInt, KindFloat:
		return true
	default:
		return false
	}
}
