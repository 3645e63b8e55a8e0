package vm

import (
	"fmt"
	"strconv"
	"strings"

	"eigenscript/pkg/rt"

	"github.com/pkg/errors"
)

// external dispatches a call to a declared (body-less) function to the
// runtime value model.
func (m *Machine) external(name string, args []Value) (Value, error) {
	a := m.Arena
	switch name {
	case rt.SymCreate:
		x, err := args[0].float()
		if err != nil {
			return Value{}, err
		}
		return RefValue(a.Create(x)), nil

	case rt.SymUpdate:
		r, err := args[0].ref()
		if err != nil {
			return Value{}, err
		}
		x, err := args[1].float()
		if err != nil {
			return Value{}, err
		}
		return void, a.Update(r, x)

	case rt.SymGetValue, rt.SymGetGradient, rt.SymGetStability:
		r, err := args[0].ref()
		if err != nil {
			return Value{}, err
		}
		var x float64
		switch name {
		case rt.SymGetValue:
			x, err = a.Value(r)
		case rt.SymGetGradient:
			x, err = a.Gradient(r)
		default:
			x, err = a.Stability(r)
		}
		if err != nil {
			return Value{}, errors.Wrap(err, name)
		}
		return Float(x), nil

	case rt.SymGetIteration, rt.SymGetIdentity:
		r, err := args[0].ref()
		if err != nil {
			return Value{}, err
		}
		get := a.Iteration
		if name == rt.SymGetIdentity {
			get = a.Identity
		}
		n, err := get(r)
		if err != nil {
			return Value{}, errors.Wrap(err, name)
		}
		return Int(n), nil

	case rt.SymListCreate:
		n, err := args[0].int()
		if err != nil {
			return Value{}, err
		}
		l, err := a.NewList(n)
		if err != nil {
			return Value{}, err
		}
		return ListValue(l), nil

	case rt.SymListGet:
		l, i, err := listIndex(args)
		if err != nil {
			return Value{}, err
		}
		x, err := a.ListGet(l, i)
		if err != nil {
			return Value{}, err
		}
		return Float(x), nil

	case rt.SymListSet:
		l, i, err := listIndex(args)
		if err != nil {
			return Value{}, err
		}
		x, err := args[2].float()
		if err != nil {
			return Value{}, err
		}
		return void, a.ListSet(l, i, x)

	case rt.SymListLength:
		l, err := args[0].listRef()
		if err != nil {
			return Value{}, err
		}
		n, err := a.ListLength(l)
		if err != nil {
			return Value{}, err
		}
		return Int(n), nil

	case rt.SymPrint:
		x, err := args[0].float()
		if err != nil {
			return Value{}, err
		}
		fmt.Fprintln(m.outputSink(), strconv.FormatFloat(x, 'g', -1, 64))
		return void, nil

	case rt.SymPrintStr:
		c, err := args[0].slot()
		if err != nil {
			return Value{}, err
		}
		if c.V.Kind != KindString {
			return Value{}, errors.Errorf("%s: argument is not a string constant", name)
		}
		fmt.Fprintln(m.outputSink(), c.V.S)
		return void, nil
	}

	if pred, ok := strings.CutPrefix(name, "eigen_check_"); ok {
		r, err := args[0].ref()
		if err != nil {
			return Value{}, err
		}
		b, err := a.Check(pred, r)
		if err != nil {
			return Value{}, errors.Wrap(err, name)
		}
		return Bool(b), nil
	}
	return Value{}, errors.Errorf("call to unknown external function %s", name)
}

func listIndex(args []Value) (rt.ListRef, int64, error) {
	l, err := args[0].listRef()
	if err != nil {
		return 0, 0, err
	}
	i, err := args[1].int()
	if err != nil {
		return 0, 0, err
	}
	return l, i, nil
}
