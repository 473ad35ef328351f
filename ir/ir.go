// Package ir models the type system of an LLVM style intermediate
// representation dialect.
//
// Types are immutable and interned by a Context: structurally identical
// types created through the same Context are the same pointer, so types
// compare with ==. Identified structs are the one exception, since their
// identity is their name rather than their structure.
//
// Everything a Context hands out stays valid and usable for its lifetime.
// Types from different contexts never mix, and passing one where another
// context is expected is an error.
package ir

import "fmt"

// Type is one type of the dialect, owned by the Context that created it.
//
// Types must not be modified after creation. The implementations are the
// *Type structs in this package and nothing else.
type Type interface {
	fmt.Stringer
	// Context returns the context that owns this type.
	Context() *Context
	isType()
}

// Sized reports whether values of type t have a size in memory. Void,
// label, metadata, token, and function types do not, and neither do
// identified structs that are still opaque.
func Sized(t Type) bool {
	return sized(t, nil)
}

// sized tracks the structs on the current descent so that a struct
// reaching itself by value, which would have no finite size, terminates.
func sized(t Type, visiting map[*StructType]struct{}) bool {
	switch t := t.(type) {
	case *IntType, *FloatType, *PointerType, *VectorType:
		return true
	case *ArrayType:
		return sized(t.Elem, visiting)
	case *StructType:
		if t.opaque {
			return false
		}
		if _, ok := visiting[t]; ok {
			return false
		}
		if visiting == nil {
			visiting = map[*StructType]struct{}{}
		}
		visiting[t] = struct{}{}
		for _, f := range t.Fields {
			if !sized(f, visiting) {
				return false
			}
		}
		delete(visiting, t)
		return true
	default:
		return false
	}
}
