package compiler

import (
	"github.com/llir/llvm/ir/value"
)

// ValueKind classifies the IR value an expression lowers to.
type ValueKind int

const (
	// KindScalar is a plain double.
	KindScalar ValueKind = iota
	// KindTracked is a %EigenValue* handle; copying it aliases the cell.
	KindTracked
	// KindList is a %EigenList* handle.
	KindList
)

func (k ValueKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindTracked:
		return "tracked"
	case KindList:
		return "list"
	}
	return "unknown"
}

// Value is a lowered expression: an IR value tagged with its kind.
type Value struct {
	Kind ValueKind
	V    value.Value
}

func scalar(v value.Value) Value  { return Value{Kind: KindScalar, V: v} }
func tracked(v value.Value) Value { return Value{Kind: KindTracked, V: v} }
func list(v value.Value) Value    { return Value{Kind: KindList, V: v} }
