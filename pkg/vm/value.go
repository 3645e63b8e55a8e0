package vm

import (
	"fmt"
	"strconv"

	"eigenscript/pkg/rt"

	"github.com/pkg/errors"
)

// Kind identifies the dynamic type of a Value.
type Kind int

const (
	KindVoid Kind = iota
	KindFloat
	KindInt
	KindBool
	KindRef    // %EigenValue*
	KindList   // %EigenList*
	KindSlot   // pointer to an alloca or a global
	KindNull   // null pointer of any type
	KindString // contents of a string constant
)

var kindNames = [...]string{
	KindVoid:   "void",
	KindFloat:  "float",
	KindInt:    "int",
	KindBool:   "bool",
	KindRef:    "ref",
	KindList:   "list",
	KindSlot:   "slot",
	KindNull:   "null",
	KindString: "string",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Value is one IR value during execution.
type Value struct {
	Kind Kind
	F    float64
	I    int64
	B    bool
	Ref  rt.Ref
	List rt.ListRef
	Slot *Cell
	S    string
}

// Cell is the storage behind an alloca or a global.
type Cell struct {
	V Value
}

func Float(f float64) Value        { return Value{Kind: KindFloat, F: f} }
func Int(i int64) Value            { return Value{Kind: KindInt, I: i} }
func Bool(b bool) Value            { return Value{Kind: KindBool, B: b} }
func RefValue(r rt.Ref) Value      { return Value{Kind: KindRef, Ref: r} }
func ListValue(l rt.ListRef) Value { return Value{Kind: KindList, List: l} }

var (
	void = Value{Kind: KindVoid}
	null = Value{Kind: KindNull}
)

func (v Value) String() string {
	switch v.Kind {
	case KindFloat:
		return strconv.FormatFloat(v.F, 'g', -1, 64)
	case KindInt:
		return strconv.FormatInt(v.I, 10)
	case KindBool:
		return strconv.FormatBool(v.B)
	case KindRef:
		return fmt.Sprintf("ref#%d", v.Ref)
	case KindList:
		return fmt.Sprintf("list#%d", v.List)
	case KindSlot:
		return "slot"
	case KindString:
		return strconv.Quote(v.S)
	}
	return v.Kind.String()
}

func (v Value) float() (float64, error) {
	if v.Kind != KindFloat {
		return 0, errors.Errorf("expected float, got %s", v.Kind)
	}
	return v.F, nil
}

func (v Value) int() (int64, error) {
	switch v.Kind {
	case KindInt:
		return v.I, nil
	case KindBool:
		if v.B {
			return 1, nil
		}
		return 0, nil
	}
	return 0, errors.Errorf("expected integer, got %s", v.Kind)
}

func (v Value) ref() (rt.Ref, error) {
	switch v.Kind {
	case KindRef:
		return v.Ref, nil
	case KindNull:
		return 0, nil
	}
	return 0, errors.Errorf("expected tracked reference, got %s", v.Kind)
}

func (v Value) listRef() (rt.ListRef, error) {
	switch v.Kind {
	case KindList:
		return v.List, nil
	case KindNull:
		return 0, nil
	}
	return 0, errors.Errorf("expected list, got %s", v.Kind)
}

// handle returns the integer identity of a pointer or integer value;
// null is 0.
func (v Value) handle() (int64, error) {
	switch v.Kind {
	case KindNull:
		return 0, nil
	case KindRef:
		return int64(v.Ref), nil
	case KindList:
		return int64(v.List), nil
	}
	return v.int()
}

func (v Value) slot() (*Cell, error) {
	if v.Kind != KindSlot || v.Slot == nil {
		return nil, errors.Errorf("expected pointer to storage, got %s", v.Kind)
	}
	return v.Slot, nil
}
