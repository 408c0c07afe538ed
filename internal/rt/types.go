// Package rt is the runtime core: the tagged value model, entity manager,
// and the container types (array, blob, table, object, opaque) that back
// reference-typed values. It corresponds to components B, C, and D of the
// runtime spec.
package rt

import "fmt"

// Type is the discriminant of a Value. Non-negative values are the
// copy-by-value primitive types; negative values are entity-backed
// reference types, matching the sign convention the spec's data model
// uses to make "is this a reference type" a single comparison.
type Type int8

const (
	TNull      Type = 0
	TBool      Type = 1
	TInt       Type = 2
	TFloat     Type = 3
	TOpaquePtr Type = 4

	TString        Type = -1
	TArray         Type = -2
	TTable         Type = -3
	TObject        Type = -4
	TBlob          Type = -5
	TFunction      Type = -6
	TOpaque        Type = -7
	TWeakRef       Type = -8
	TBoundFunction Type = -9
	// TRef is an internal-only type used for upvalue cells; never observed
	// by embedder code.
	TRef Type = -10
)

var typeNames = map[Type]string{
	TNull: "null", TBool: "bool", TInt: "int", TFloat: "float",
	TOpaquePtr: "opaqueptr", TString: "string", TArray: "array",
	TTable: "table", TObject: "object", TBlob: "blob",
	TFunction: "function", TOpaque: "opaque", TWeakRef: "weakref",
	TBoundFunction: "bound-function", TRef: "ref",
}

// IsReference reports whether values of this type are entity-backed.
func (t Type) IsReference() bool { return t < 0 }

func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("type(%d)", int8(t))
}
