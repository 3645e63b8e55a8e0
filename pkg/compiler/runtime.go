package compiler

import (
	"eigenscript/pkg/rt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
)

// runtimeDecls holds the IR types and external function declarations of
// the runtime value model.
//
//	%EigenValue = type { double, double, double, i64 }  ; value, gradient, stability, iteration
//	%EigenList  = type { double*, i64, i64 }           ; data, length, capacity
type runtimeDecls struct {
	valueType types.Type
	listType  types.Type
	valuePtr  *types.PointerType
	listPtr   *types.PointerType

	create       *ir.Func
	update       *ir.Func
	getValue     *ir.Func
	getGradient  *ir.Func
	getStability *ir.Func
	getIteration *ir.Func
	getIdentity  *ir.Func
	checks       map[string]*ir.Func // predicate name -> eigen_check_<name>

	listCreate *ir.Func
	listGet    *ir.Func
	listSet    *ir.Func
	listLength *ir.Func

	print    *ir.Func
	printStr *ir.Func
}

func declareRuntime(m *ir.Module) *runtimeDecls {
	r := &runtimeDecls{}
	r.valueType = m.NewTypeDef("EigenValue", types.NewStruct(types.Double, types.Double, types.Double, types.I64))
	r.listType = m.NewTypeDef("EigenList", types.NewStruct(types.NewPointer(types.Double), types.I64, types.I64))
	r.valuePtr = types.NewPointer(r.valueType)
	r.listPtr = types.NewPointer(r.listType)

	ref := func(name string) *ir.Param { return ir.NewParam(name, r.valuePtr) }

	r.create = m.NewFunc(rt.SymCreate, r.valuePtr, ir.NewParam("value", types.Double))
	r.update = m.NewFunc(rt.SymUpdate, types.Void, ref("ref"), ir.NewParam("value", types.Double))
	r.getValue = m.NewFunc(rt.SymGetValue, types.Double, ref("ref"))
	r.getGradient = m.NewFunc(rt.SymGetGradient, types.Double, ref("ref"))
	r.getStability = m.NewFunc(rt.SymGetStability, types.Double, ref("ref"))
	r.getIteration = m.NewFunc(rt.SymGetIteration, types.I64, ref("ref"))
	r.getIdentity = m.NewFunc(rt.SymGetIdentity, types.I64, ref("ref"))

	r.checks = make(map[string]*ir.Func, len(predicateNames))
	for _, name := range predicateNames {
		r.checks[name] = m.NewFunc(rt.CheckSymbol(name), types.I1, ref("ref"))
	}

	r.listCreate = m.NewFunc(rt.SymListCreate, r.listPtr, ir.NewParam("length", types.I64))
	r.listGet = m.NewFunc(rt.SymListGet, types.Double, ir.NewParam("list", r.listPtr), ir.NewParam("index", types.I64))
	r.listSet = m.NewFunc(rt.SymListSet, types.Void, ir.NewParam("list", r.listPtr), ir.NewParam("index", types.I64), ir.NewParam("value", types.Double))
	r.listLength = m.NewFunc(rt.SymListLength, types.I64, ir.NewParam("list", r.listPtr))

	r.print = m.NewFunc(rt.SymPrint, types.Void, ir.NewParam("value", types.Double))
	r.printStr = m.NewFunc(rt.SymPrintStr, types.Void, ir.NewParam("str", types.NewPointer(types.I8)))
	return r
}

// predicateNames lists the predicates callable as `name of x`, in
// declaration order.
var predicateNames = []string{"converged", "diverging", "oscillating", "stable", "improving"}

// Builtin relation names handled by the lowering backend itself.
const (
	builtinPrint  = "print"
	builtinLength = "length"
)

// isBuiltin reports whether name is handled structurally by the backend
// and so may not name a user function.
func isBuiltin(name string) bool {
	if name == builtinPrint || name == builtinLength {
		return true
	}
	for _, p := range predicateNames {
		if p == name {
			return true
		}
	}
	return false
}
