package compiler

import (
	"fmt"

	"eigenscript/pkg/rt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"github.com/sirupsen/logrus"
)

// Unit is a lowered program.
type Unit struct {
	Module *ir.Module
	Entry  *ir.Func
	// Bindings maps each top-level name to the global slot it is bound to
	// at the end of the program.
	Bindings map[string]Binding
	Symbols  *SymbolTable
}

// Binding is a top-level name's final slot.
type Binding struct {
	Global *ir.Global
	Kind   ValueKind
}

// LoopLabel holds the jump target of the innermost enclosing loop.
type LoopLabel struct {
	End *ir.Block // where 'break' jumps to
}

// funcState is the per-function lowering cursor. It is saved and restored
// around nested function definitions.
type funcState struct {
	fn      *ir.Func
	entry   *ir.Block // holds the allocas; branches to body when finished
	body    *ir.Block
	cur     *ir.Block // insertion point; nil once the path has terminated
	loops   []LoopLabel
	names   map[string]bool // local slot names used in fn
	isEntry bool

	// depth counts the conditionals and loops enclosing the statement
	// being lowered. Code at depth 0 runs whenever the function runs.
	depth int
}

// lowerer walks an AST and emits LLVM IR.
type lowerer struct {
	funcState

	opts Options
	log  logrus.FieldLogger
	m    *ir.Module
	rt   *runtimeDecls
	syms *SymbolTable

	globalNames map[string]bool
	declared    map[*FunctionDef]*ir.Func
	strs        map[string]constant.Constant
	nextLabel   int
}

func newLowerer(opts Options) *lowerer {
	m := ir.NewModule()
	l := &lowerer{
		opts:        opts,
		log:         opts.Logger,
		m:           m,
		rt:          declareRuntime(m),
		syms:        NewSymbolTable(),
		globalNames: make(map[string]bool),
		declared:    make(map[*FunctionDef]*ir.Func),
		strs:        make(map[string]constant.Constant),
	}
	for _, name := range rt.Symbols {
		l.globalNames[name] = true
	}
	l.globalNames[opts.EntryName] = true
	return l
}

// Lower translates prog into an LLVM module. Top-level statements form the
// entry function; each definition becomes a function taking one
// %EigenValue* and returning double.
func Lower(prog *Program, opts Options) (*Unit, error) {
	l := newLowerer(opts.withDefaults())
	return l.lowerProgram(prog)
}

func (l *lowerer) lowerProgram(prog *Program) (*Unit, error) {
	if err := l.reserveFunctionNames(prog.Statements); err != nil {
		return nil, err
	}

	entry := l.m.NewFunc(l.opts.EntryName, types.I32)

	// Top-level definitions are declared up front so calls may precede them.
	for _, st := range prog.Statements {
		if def, ok := st.(*FunctionDef); ok {
			if _, err := l.declareFunction(def); err != nil {
				return nil, err
			}
		}
	}

	l.begin(entry, true)
	if err := l.lowerStmts(prog.Statements); err != nil {
		return nil, err
	}
	if l.cur != nil {
		l.cur.NewRet(constant.NewInt(types.I32, 0))
	}
	l.finish()

	unit := &Unit{
		Module:   l.m,
		Entry:    entry,
		Bindings: make(map[string]Binding),
		Symbols:  l.syms,
	}
	for _, sym := range l.syms.Globals() {
		unit.Bindings[sym.Name] = Binding{Global: sym.Slot.(*ir.Global), Kind: sym.Kind}
	}
	l.log.WithFields(logrus.Fields{
		"functions": len(l.syms.Functions()),
		"globals":   len(unit.Bindings),
	}).Debug("lowered program")
	return unit, nil
}

// reserveFunctionNames walks every definition, nested ones included, so
// that global slots never take a function's name.
func (l *lowerer) reserveFunctionNames(stmts []Stmt) error {
	for _, def := range collectDefs(stmts) {
		switch {
		case def.Name == l.opts.EntryName, rt.IsSymbol(def.Name):
			return unsupportedf(def.Pos, "function definition", "%q is a reserved symbol name", def.Name)
		case isBuiltin(def.Name):
			return unsupportedf(def.Pos, "function definition", "%q is a builtin", def.Name)
		}
		l.globalNames[def.Name] = true
	}
	return nil
}

// declareFunction creates the IR function for def.
func (l *lowerer) declareFunction(def *FunctionDef) (*ir.Func, error) {
	if len(def.Params) > 1 {
		return nil, unsupportedf(def.Pos, "function definition", "%q takes %d parameters; functions take one", def.Name, len(def.Params))
	}
	param := l.opts.DefaultParam
	if len(def.Params) == 1 {
		param = def.Params[0]
	}
	f := l.m.NewFunc(def.Name, types.Double, ir.NewParam(param, l.rt.valuePtr))
	if err := l.syms.DeclareFunction(def.Name, f); err != nil {
		return nil, unsupportedf(def.Pos, "function definition", "%v", err)
	}
	l.declared[def] = f
	return f, nil
}

// begin makes fn the current function with fresh entry and body blocks.
func (l *lowerer) begin(fn *ir.Func, isEntry bool) {
	l.funcState = funcState{
		fn:      fn,
		entry:   fn.NewBlock("entry"),
		names:   make(map[string]bool),
		isEntry: isEntry,
	}
	l.body = fn.NewBlock("body")
	l.cur = l.body
}

// finish closes the alloca block of the current function.
func (l *lowerer) finish() {
	l.entry.NewBr(l.body)
}

func (l *lowerer) newBlock(prefix string) *ir.Block {
	b := l.fn.NewBlock(fmt.Sprintf("%s.%d", prefix, l.nextLabel))
	l.nextLabel++
	return b
}

// uniqueName returns base, or base.N for the first N that is unused, and
// marks the result used.
func uniqueName(used map[string]bool, base string) string {
	name := base
	for i := 1; used[name]; i++ {
		name = fmt.Sprintf("%s.%d", base, i)
	}
	used[name] = true
	return name
}

func (l *lowerer) slotType(kind ValueKind) *types.PointerType {
	if kind == KindList {
		return l.rt.listPtr
	}
	return l.rt.valuePtr
}

// newSlot allocates fresh storage for name, initialised to null, and binds
// name to it in the current scope.
func (l *lowerer) newSlot(name string, kind ValueKind) *Symbol {
	elem := l.slotType(kind)
	if !l.syms.inFunction() {
		g := l.m.NewGlobalDef(uniqueName(l.globalNames, name), constant.NewNull(elem))
		return l.syms.Bind(name, g, kind)
	}
	a := l.entry.NewAlloca(elem)
	a.SetName(uniqueName(l.names, name) + ".addr")
	l.entry.NewStore(constant.NewNull(elem), a)
	return l.syms.Bind(name, a, kind)
}

func (l *lowerer) loadSlot(sym *Symbol) value.Value {
	return l.cur.NewLoad(l.slotType(sym.Kind), sym.Slot)
}

// lowerStmts lowers a statement list. Statements after the path has
// terminated are dropped, except definitions, which emit no code on the
// current path.
func (l *lowerer) lowerStmts(stmts []Stmt) error {
	for i, st := range stmts {
		if l.cur == nil {
			if def, ok := st.(*FunctionDef); ok {
				if err := l.lowerFunctionDef(def); err != nil {
					return err
				}
				continue
			}
			l.log.WithFields(logrus.Fields{
				"pos":  st.Position().String(),
				"stmt": fmt.Sprintf("%T", st),
				"left": len(stmts) - i,
			}).Warn("dropping unreachable statement")
			continue
		}
		if err := l.lowerStmt(st); err != nil {
			return err
		}
	}
	return nil
}

func (l *lowerer) lowerStmt(s Stmt) error {
	switch n := s.(type) {
	case *Assignment:
		return l.lowerAssignment(n)
	case *ExprStmt:
		_, err := l.lowerExpr(n.Expr)
		return err
	case *Conditional:
		return l.lowerConditional(n)
	case *Loop:
		return l.lowerLoop(n)
	case *FunctionDef:
		return l.lowerFunctionDef(n)
	case *Return:
		return l.lowerReturn(n)
	case *Break:
		return l.lowerBreak(n)
	}
	return unsupportedf(s.Position(), "statement", "%T", s)
}

// lowerAssignment binds or rebinds a name.
//
//	list RHS                -> always a new list slot
//	bound, RHS `what is y`  -> store the reference: name aliases y
//	bound, scalar RHS       -> eigen_update on the existing cell
//	unbound                 -> new slot holding a (possibly new) reference
//
// A slot first bound inside a conditional or loop body may still be null
// when a scalar is assigned to it, so those assignments test the slot at
// run time and create the cell on the path that has none.
func (l *lowerer) lowerAssignment(a *Assignment) error {
	rhs, err := l.lowerExpr(a.Value)
	if err != nil {
		return err
	}

	if rhs.Kind == KindList {
		sym := l.newSlot(a.Name, KindList)
		l.cur.NewStore(rhs.V, sym.Slot)
		return nil
	}

	sym, ok := l.syms.LookupCurrent(a.Name)
	if !ok || sym.Kind != KindTracked {
		if rhs.Kind == KindScalar && l.depth > 0 {
			// The first binding sits in a branch or loop body: other
			// paths, or earlier iterations, decide whether a cell exists.
			sym = l.newSlot(a.Name, KindTracked)
			sym.MaybeNull = true
			l.createOrUpdate(sym, rhs.V)
			return nil
		}
		ref, err := l.ensureRef(rhs, a.Value.Position())
		if err != nil {
			return err
		}
		sym = l.newSlot(a.Name, KindTracked)
		sym.MaybeNull = l.depth > 0
		l.cur.NewStore(ref, sym.Slot)
		return nil
	}

	switch {
	case rhs.Kind == KindTracked:
		l.cur.NewStore(rhs.V, sym.Slot)
	case sym.MaybeNull:
		l.createOrUpdate(sym, rhs.V)
	default:
		l.cur.NewCall(l.rt.update, l.loadSlot(sym), rhs.V)
	}
	return nil
}

// createOrUpdate emits
//
//	%ref = load slot
//	br (icmp eq %ref, null), assign.new, assign.update
//	assign.new:    store eigen_create(v), slot
//	assign.update: eigen_update(%ref, v)
//	assign.end:
//
// for a slot that is null on some paths. Once this runs at depth 0 the
// slot holds a cell on every later path.
func (l *lowerer) createOrUpdate(sym *Symbol, v value.Value) {
	ref := l.loadSlot(sym)
	isNull := l.cur.NewICmp(enum.IPredEQ, ref, constant.NewNull(l.rt.valuePtr))

	newB := l.newBlock("assign.new")
	updateB := l.newBlock("assign.update")
	endB := l.newBlock("assign.end")
	l.cur.NewCondBr(isNull, newB, updateB)

	cell := newB.NewCall(l.rt.create, v)
	newB.NewStore(cell, sym.Slot)
	newB.NewBr(endB)

	updateB.NewCall(l.rt.update, ref, v)
	updateB.NewBr(endB)

	l.cur = endB
	if l.depth == 0 {
		sym.MaybeNull = false
	}
}

// truth lowers cond and compares it against 0.0.
func (l *lowerer) truth(cond Expr) (value.Value, error) {
	c, err := l.scalarOf(cond)
	if err != nil {
		return nil, err
	}
	return l.cur.NewFCmp(enum.FPredONE, c, f64(0)), nil
}

// lowerConditional emits
//
//	br cond, if.then, if.else|if.end
//	if.then: ... br if.end     ; omitted when the branch terminated
//	if.else: ... br if.end
//	if.end:
//
// When no edge reaches if.end it is closed with unreachable and the
// conditional counts as terminating.
func (l *lowerer) lowerConditional(c *Conditional) error {
	cond, err := l.truth(c.Cond)
	if err != nil {
		return err
	}

	thenB := l.newBlock("if.then")
	var elseB *ir.Block
	if c.Else != nil {
		elseB = l.newBlock("if.else")
	}
	endB := l.newBlock("if.end")

	reached := false
	if elseB != nil {
		l.cur.NewCondBr(cond, thenB, elseB)
	} else {
		l.cur.NewCondBr(cond, thenB, endB)
		reached = true
	}

	l.depth++
	defer func() { l.depth-- }()

	l.cur = thenB
	if err := l.lowerStmts(c.Then); err != nil {
		return err
	}
	if l.cur != nil {
		l.cur.NewBr(endB)
		reached = true
	}

	if elseB != nil {
		l.cur = elseB
		if err := l.lowerStmts(c.Else); err != nil {
			return err
		}
		if l.cur != nil {
			l.cur.NewBr(endB)
			reached = true
		}
	}

	if !reached {
		endB.NewUnreachable()
		l.cur = nil
		return nil
	}
	l.cur = endB
	return nil
}

// lowerLoop emits
//
//	br loop.cond
//	loop.cond: br cond, loop.body, loop.end
//	loop.body: ... br loop.cond
//	loop.end:
func (l *lowerer) lowerLoop(w *Loop) error {
	condB := l.newBlock("loop.cond")
	bodyB := l.newBlock("loop.body")
	endB := l.newBlock("loop.end")

	l.cur.NewBr(condB)
	l.cur = condB
	cond, err := l.truth(w.Cond)
	if err != nil {
		return err
	}
	l.cur.NewCondBr(cond, bodyB, endB)

	l.loops = append(l.loops, LoopLabel{End: endB})
	l.depth++
	l.cur = bodyB
	err = l.lowerStmts(w.Body)
	l.depth--
	l.loops = l.loops[:len(l.loops)-1]
	if err != nil {
		return err
	}
	if l.cur != nil {
		l.cur.NewBr(condB)
	}
	l.cur = endB
	return nil
}

func (l *lowerer) lowerBreak(b *Break) error {
	if len(l.loops) == 0 {
		return unsupportedf(b.Pos, "break", "outside of a loop")
	}
	l.cur.NewBr(l.loops[len(l.loops)-1].End)
	l.cur = nil
	return nil
}

// lowerReturn returns a double from a function. In the entry function the
// value becomes the i32 exit code.
func (l *lowerer) lowerReturn(r *Return) error {
	var v value.Value = f64(0)
	if r.Value != nil {
		var err error
		v, err = l.scalarOf(r.Value)
		if err != nil {
			return err
		}
	}
	if l.isEntry {
		if r.Value == nil {
			l.cur.NewRet(constant.NewInt(types.I32, 0))
		} else {
			l.cur.NewRet(l.cur.NewFPToSI(v, types.I32))
		}
	} else {
		l.cur.NewRet(v)
	}
	l.cur = nil
	return nil
}

// lowerFunctionDef lowers the body of a definition into its function. The
// enclosing cursor and loop stack are restored afterwards.
func (l *lowerer) lowerFunctionDef(def *FunctionDef) error {
	f, ok := l.declared[def]
	if !ok {
		var err error
		if f, err = l.declareFunction(def); err != nil {
			return err
		}
	}

	l.log.WithFields(logrus.Fields{"function": def.Name, "pos": def.Pos.String()}).Debug("lowering function")

	saved := l.funcState
	l.syms.EnterFunction()
	defer func() {
		l.syms.ExitFunction()
		l.funcState = saved
	}()

	l.begin(f, false)
	param := f.Params[0]
	sym := l.newSlot(param.Name(), KindTracked)
	l.cur.NewStore(param, sym.Slot)

	if err := l.lowerStmts(def.Body); err != nil {
		return err
	}
	if l.cur != nil {
		l.cur.NewRet(f64(0))
	}
	l.finish()
	return nil
}

func f64(v float64) *constant.Float { return constant.NewFloat(types.Double, v) }
func i64(v int64) *constant.Int     { return constant.NewInt(types.I64, v) }
