package compiler

import (
	"strings"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

var fpreds = map[TokenType]enum.FPred{
	EQUALS:  enum.FPredOEQ,
	LESS:    enum.FPredOLT,
	GREATER: enum.FPredOGT,
}

func (l *lowerer) lowerExpr(e Expr) (Value, error) {
	switch n := e.(type) {
	case *Literal:
		return l.lowerLiteral(n)
	case *Identifier:
		return l.lowerIdentifier(n)
	case *BinaryOp:
		return l.lowerBinaryOp(n)
	case *Relation:
		return l.lowerRelation(n)
	case *Interrogative:
		return l.lowerInterrogative(n)
	case *ListLiteral:
		return l.lowerListLiteral(n)
	case *Index:
		return l.lowerIndex(n)
	}
	return Value{}, unsupportedf(e.Position(), "expression", "%T", e)
}

// ensureScalar dereferences a tracked value. Lists have no scalar form.
func (l *lowerer) ensureScalar(v Value, pos Pos) (value.Value, error) {
	switch v.Kind {
	case KindScalar:
		return v.V, nil
	case KindTracked:
		return l.cur.NewCall(l.rt.getValue, v.V), nil
	}
	return nil, typeErrorf(pos, "a list cannot be used as a number")
}

// ensureRef wraps a scalar in a fresh tracked cell. A tracked value passes
// through unchanged, so the result aliases it.
func (l *lowerer) ensureRef(v Value, pos Pos) (value.Value, error) {
	switch v.Kind {
	case KindTracked:
		return v.V, nil
	case KindScalar:
		return l.cur.NewCall(l.rt.create, v.V), nil
	}
	return nil, typeErrorf(pos, "a list cannot be used as a tracked value")
}

func (l *lowerer) scalarOf(e Expr) (value.Value, error) {
	v, err := l.lowerExpr(e)
	if err != nil {
		return nil, err
	}
	return l.ensureScalar(v, e.Position())
}

func (l *lowerer) lookup(id *Identifier) (*Symbol, error) {
	sym, ok := l.syms.Lookup(id.Name)
	if !ok {
		return nil, &NameError{Pos: id.Pos, Name: id.Name, What: "variable"}
	}
	return sym, nil
}

func (l *lowerer) lowerLiteral(lit *Literal) (Value, error) {
	switch lit.Kind {
	case LitNumber:
		return scalar(f64(lit.Number)), nil
	case LitNull:
		return scalar(f64(0)), nil
	case LitVector:
		lst := l.cur.NewCall(l.rt.listCreate, i64(int64(len(lit.Vector))))
		for i, v := range lit.Vector {
			l.cur.NewCall(l.rt.listSet, lst, i64(int64(i)), f64(v))
		}
		return list(lst), nil
	}
	return Value{}, typeErrorf(lit.Pos, "a string can only be printed")
}

// lowerIdentifier reads a variable: the current value of a tracked cell,
// or the list handle itself.
func (l *lowerer) lowerIdentifier(id *Identifier) (Value, error) {
	sym, err := l.lookup(id)
	if err != nil {
		return Value{}, err
	}
	if sym.Kind == KindList {
		return list(l.loadSlot(sym)), nil
	}
	ref := l.loadSlot(sym)
	return scalar(l.cur.NewCall(l.rt.getValue, ref)), nil
}

func (l *lowerer) lowerBinaryOp(b *BinaryOp) (Value, error) {
	x, err := l.scalarOf(b.Left)
	if err != nil {
		return Value{}, err
	}
	y, err := l.scalarOf(b.Right)
	if err != nil {
		return Value{}, err
	}
	switch b.Op {
	case PLUS:
		return scalar(l.cur.NewFAdd(x, y)), nil
	case MINUS:
		return scalar(l.cur.NewFSub(x, y)), nil
	case STAR:
		return scalar(l.cur.NewFMul(x, y)), nil
	case SLASH:
		return scalar(l.cur.NewFDiv(x, y)), nil
	case EQUALS, LESS, GREATER:
		c := l.cur.NewFCmp(fpreds[b.Op], x, y)
		return scalar(l.cur.NewUIToFP(c, types.Double)), nil
	}
	return Value{}, unsupportedf(b.Pos, "operator", "%s", b.Op)
}

// argRef lowers a call argument to a reference. A variable passes the
// reference it is bound to, so the callee's parameter aliases it.
func (l *lowerer) argRef(e Expr) (value.Value, error) {
	if id, ok := e.(*Identifier); ok {
		sym, err := l.lookup(id)
		if err != nil {
			return nil, err
		}
		if sym.Kind == KindList {
			return nil, typeErrorf(id.Pos, "list %q cannot be passed as an argument", id.Name)
		}
		return l.loadSlot(sym), nil
	}
	v, err := l.lowerExpr(e)
	if err != nil {
		return nil, err
	}
	return l.ensureRef(v, e.Position())
}

// lowerRelation lowers `f of x`: a builtin, a predicate, or a call to a
// user function.
func (l *lowerer) lowerRelation(r *Relation) (Value, error) {
	callee, ok := r.Left.(*Identifier)
	if !ok {
		return Value{}, unsupportedf(r.Left.Position(), "relation", "the left side of `of` must name a function, found %s", FormatExpr(r.Left))
	}

	switch callee.Name {
	case builtinPrint:
		return l.lowerPrint(r.Right)
	case builtinLength:
		v, err := l.lowerExpr(r.Right)
		if err != nil {
			return Value{}, err
		}
		if v.Kind != KindList {
			return Value{}, typeErrorf(r.Right.Position(), "length of a %s", v.Kind)
		}
		n := l.cur.NewCall(l.rt.listLength, v.V)
		return scalar(l.cur.NewSIToFP(n, types.Double)), nil
	}

	if check, ok := l.rt.checks[callee.Name]; ok {
		ref, err := l.argRef(r.Right)
		if err != nil {
			return Value{}, err
		}
		b := l.cur.NewCall(check, ref)
		return scalar(l.cur.NewUIToFP(b, types.Double)), nil
	}

	f, ok := l.syms.Function(callee.Name)
	if !ok {
		return Value{}, &NameError{Pos: callee.Pos, Name: callee.Name, What: "function"}
	}
	arg, err := l.argRef(r.Right)
	if err != nil {
		return Value{}, err
	}
	return scalar(l.cur.NewCall(f, arg)), nil
}

// lowerPrint prints a string literal or a number and yields 0.
func (l *lowerer) lowerPrint(arg Expr) (Value, error) {
	if lit, ok := arg.(*Literal); ok && lit.Kind == LitString {
		l.cur.NewCall(l.rt.printStr, l.stringConst(lit.Text))
		return scalar(f64(0)), nil
	}
	v, err := l.scalarOf(arg)
	if err != nil {
		return Value{}, err
	}
	l.cur.NewCall(l.rt.print, v)
	return scalar(f64(0)), nil
}

// stringConst returns an i8* to a NUL-terminated private copy of s.
func (l *lowerer) stringConst(s string) constant.Constant {
	if c, ok := l.strs[s]; ok {
		return c
	}
	g := l.m.NewGlobalDef(uniqueName(l.globalNames, ".str"), constant.NewCharArrayFromString(s+"\x00"))
	g.Immutable = true
	c := constant.NewBitCast(g, types.NewPointer(types.I8))
	l.strs[s] = c
	return c
}

// lowerInterrogative extracts one field of the cell a variable is bound to.
// `what` yields the reference itself.
func (l *lowerer) lowerInterrogative(q *Interrogative) (Value, error) {
	kw := strings.ToLower(q.Kind.String())
	id, ok := q.Target.(*Identifier)
	if !ok {
		return Value{}, typeErrorf(q.Target.Position(), "%s needs a variable, found %s", kw, FormatExpr(q.Target))
	}
	sym, err := l.lookup(id)
	if err != nil {
		return Value{}, err
	}
	if sym.Kind == KindList {
		return Value{}, typeErrorf(id.Pos, "%s is not defined for list %q", kw, id.Name)
	}
	ref := l.loadSlot(sym)

	switch q.Kind {
	case WHAT:
		return tracked(ref), nil
	case WHERE:
		return scalar(l.cur.NewCall(l.rt.getValue, ref)), nil
	case WHY:
		return scalar(l.cur.NewCall(l.rt.getGradient, ref)), nil
	case HOW:
		return scalar(l.cur.NewCall(l.rt.getStability, ref)), nil
	case WHEN:
		n := l.cur.NewCall(l.rt.getIteration, ref)
		return scalar(l.cur.NewSIToFP(n, types.Double)), nil
	case WHO:
		n := l.cur.NewCall(l.rt.getIdentity, ref)
		return scalar(l.cur.NewSIToFP(n, types.Double)), nil
	}
	return Value{}, unsupportedf(q.Pos, "interrogative", "%s", kw)
}

func (l *lowerer) lowerListLiteral(n *ListLiteral) (Value, error) {
	lst := l.cur.NewCall(l.rt.listCreate, i64(int64(len(n.Elements))))
	for i, el := range n.Elements {
		v, err := l.scalarOf(el)
		if err != nil {
			return Value{}, err
		}
		l.cur.NewCall(l.rt.listSet, lst, i64(int64(i)), v)
	}
	return list(lst), nil
}

func (l *lowerer) lowerIndex(n *Index) (Value, error) {
	lv, err := l.lowerExpr(n.List)
	if err != nil {
		return Value{}, err
	}
	if lv.Kind != KindList {
		return Value{}, typeErrorf(n.List.Position(), "cannot index a %s", lv.Kind)
	}
	idx, err := l.scalarOf(n.Index)
	if err != nil {
		return Value{}, err
	}
	i := l.cur.NewFPToSI(idx, types.I64)
	return scalar(l.cur.NewCall(l.rt.listGet, lv.V, i)), nil
}
