package rt

import "unsafe"

// Value is the tagged union described by the spec's data model. Go has no
// overlapping-union storage, so the four payload fields coexist; only the
// one matching Type is meaningful at any time. Copying a Value by
// assignment is always safe; callers that hand a reference-typed Value to
// a longer-lived owner must call Incref (see entity.go).
type Value struct {
	Type Type
	I    int64          // int, bool
	F    float64        // float
	P    unsafe.Pointer // opaqueptr, native function pointer
	E    *Entity        // every reference type
}

// Null is the canonical null value.
var Null = Value{Type: TNull}

// NewBool wraps b as a Value.
func NewBool(b bool) Value {
	if b {
		return Value{Type: TBool, I: 1}
	}
	return Value{Type: TBool, I: 0}
}

// NewInt wraps i as a Value.
func NewInt(i int64) Value { return Value{Type: TInt, I: i} }

// NewFloat wraps f as a Value.
func NewFloat(f float64) Value { return Value{Type: TFloat, F: f} }

// NewOpaquePtr wraps a raw host pointer.
func NewOpaquePtr(p unsafe.Pointer) Value { return Value{Type: TOpaquePtr, P: p} }

// FromEntity wraps e as a Value of its own entity type. e must not be nil.
func FromEntity(e *Entity) Value { return Value{Type: e.Type, E: e} }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.Type == TNull }

// Bool reports v's truthiness per the language's standard coercion:
// null and boolean-false are false; int 0 and float 0.0 are false;
// every reference value is true (containers do not coerce on emptiness
// unless an object overrides __bool).
func (v Value) Bool() bool {
	switch v.Type {
	case TNull:
		return false
	case TBool, TInt:
		return v.I != 0
	case TFloat:
		return v.F != 0
	default:
		return true
	}
}

// TypeName returns the human-readable type name, used by error messages
// and the `__name`-less default string conversion.
func (v Value) TypeName() string { return v.Type.String() }
