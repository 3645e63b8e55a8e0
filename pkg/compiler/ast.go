package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// Node is implemented by every AST node. The set of node kinds is closed:
// only this package can add implementations.
type Node interface {
	Position() Pos
	String() string
}

//  Expression nodes

// Expr is implemented by every node that produces a value.
type Expr interface {
	Node
	exprNode()
}

// LiteralKind distinguishes the payload of a Literal.
type LiteralKind int

const (
	LitNumber LiteralKind = iota
	LitString
	LitNull
	LitVector
)

func (k LiteralKind) String() string {
	switch k {
	case LitNumber:
		return "number"
	case LitString:
		return "string"
	case LitNull:
		return "null"
	case LitVector:
		return "vector"
	}
	return fmt.Sprintf("LiteralKind(%d)", int(k))
}

// Literal is a constant: a number, a string, null, or a numeric vector.
//
//	x is (1, 2, 3)
//	     ^^^^^^^^^  Literal{Kind: LitVector, Vector: [1 2 3]}
type Literal struct {
	Kind   LiteralKind
	Number float64
	Text   string
	Vector []float64
	Pos    Pos
}

func (*Literal) exprNode()       {}
func (l *Literal) Position() Pos { return l.Pos }
func (l *Literal) String() string {
	switch l.Kind {
	case LitNumber:
		return formatNumber(l.Number)
	case LitString:
		return strconv.Quote(l.Text)
	case LitNull:
		return "null"
	}
	parts := make([]string, len(l.Vector))
	for i, v := range l.Vector {
		parts[i] = formatNumber(v)
	}
	return "Vector(" + strings.Join(parts, ", ") + ")"
}

// Identifier is a read of a named variable.
type Identifier struct {
	Name string
	Pos  Pos
}

func (*Identifier) exprNode()        {}
func (i *Identifier) Position() Pos  { return i.Pos }
func (i *Identifier) String() string { return i.Name }

// BinaryOp is raw arithmetic or comparison: Left Op Right, where Op is one
// of PLUS, MINUS, STAR, SLASH, EQUALS, LESS, GREATER.
type BinaryOp struct {
	Op    TokenType
	Left  Expr
	Right Expr
	Pos   Pos
}

func (*BinaryOp) exprNode()       {}
func (b *BinaryOp) Position() Pos { return b.Pos }
func (b *BinaryOp) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, opSymbols[b.Op], b.Right)
}

// Relation is the right-associative `of` operator.
//
//	fact of prev
//	^^^^    ^^^^
//	Left    Right
type Relation struct {
	Left  Expr
	Right Expr
	Pos   Pos
}

func (*Relation) exprNode()       {}
func (r *Relation) Position() Pos { return r.Pos }
func (r *Relation) String() string {
	return fmt.Sprintf("(%s of %s)", r.Left, r.Right)
}

// ListLiteral is a bracketed list whose elements are not all numbers.
type ListLiteral struct {
	Elements []Expr
	Pos      Pos
}

func (*ListLiteral) exprNode()       {}
func (l *ListLiteral) Position() Pos { return l.Pos }
func (l *ListLiteral) String() string {
	return fmt.Sprintf("List%v", l.Elements)
}

// Index represents List[Index].
type Index struct {
	List  Expr
	Index Expr
	Pos   Pos
}

func (*Index) exprNode()        {}
func (e *Index) Position() Pos  { return e.Pos }
func (e *Index) String() string { return fmt.Sprintf("%s[%s]", e.List, e.Index) }

// Interrogative extracts one field of a tracked value. Kind is one of WHO,
// WHAT, WHEN, WHERE, WHY, HOW; Target is an Identifier or a Literal.
type Interrogative struct {
	Kind   TokenType
	Target Expr
	Pos    Pos
}

func (*Interrogative) exprNode()       {}
func (q *Interrogative) Position() Pos { return q.Pos }
func (q *Interrogative) String() string {
	return fmt.Sprintf("(%s is %s)", strings.ToLower(q.Kind.String()), q.Target)
}

//  Statement nodes

// Stmt is implemented by every node that does not produce a value.
type Stmt interface {
	Node
	stmtNode()
}

// Assignment represents  Name is Value.
type Assignment struct {
	Name  string
	Value Expr
	Pos   Pos
}

func (*Assignment) stmtNode()       {}
func (a *Assignment) Position() Pos { return a.Pos }
func (a *Assignment) String() string {
	return fmt.Sprintf("Assignment(%s is %s)", a.Name, a.Value)
}

// Conditional represents if cond: Then [else: Else]. Else is nil when the
// source has no else branch.
type Conditional struct {
	Cond Expr
	Then []Stmt
	Else []Stmt
	Pos  Pos
}

func (*Conditional) stmtNode()       {}
func (c *Conditional) Position() Pos { return c.Pos }
func (c *Conditional) String() string {
	if c.Else != nil {
		return fmt.Sprintf("Conditional(if %s then %d else %d)", c.Cond, len(c.Then), len(c.Else))
	}
	return fmt.Sprintf("Conditional(if %s then %d)", c.Cond, len(c.Then))
}

// Loop represents loop while cond: Body. The condition is re-evaluated
// before every iteration.
type Loop struct {
	Cond Expr
	Body []Stmt
	Pos  Pos
}

func (*Loop) stmtNode()       {}
func (w *Loop) Position() Pos { return w.Pos }
func (w *Loop) String() string {
	return fmt.Sprintf("Loop(while %s do %d)", w.Cond, len(w.Body))
}

// FunctionDef represents define Name as: Body. Params is empty for the
// source syntax; the lowering backend then binds the conventional
// parameter name.
type FunctionDef struct {
	Name   string
	Params []string
	Body   []Stmt
	Pos    Pos
}

func (*FunctionDef) stmtNode()       {}
func (f *FunctionDef) Position() Pos { return f.Pos }
func (f *FunctionDef) String() string {
	return fmt.Sprintf("FunctionDef(%s, params=%v, body=%d)", f.Name, f.Params, len(f.Body))
}

// Return represents return [Value]. Value is nil for a bare return.
type Return struct {
	Value Expr
	Pos   Pos
}

func (*Return) stmtNode()       {}
func (r *Return) Position() Pos { return r.Pos }
func (r *Return) String() string {
	if r.Value == nil {
		return "Return()"
	}
	return fmt.Sprintf("Return(%s)", r.Value)
}

// Break represents break.
type Break struct {
	Pos Pos
}

func (*Break) stmtNode()        {}
func (b *Break) Position() Pos  { return b.Pos }
func (b *Break) String() string { return "Break()" }

// ExprStmt represents an expression evaluated for its side effects (e.g.
// print of x).
type ExprStmt struct {
	Expr Expr
}

func (*ExprStmt) stmtNode()        {}
func (e *ExprStmt) Position() Pos  { return e.Expr.Position() }
func (e *ExprStmt) String() string { return fmt.Sprintf("ExprStmt(%s)", e.Expr) }

// Program is the root of the tree.
type Program struct {
	Statements []Stmt
}

func (p *Program) Position() Pos  { return Pos{Line: 1, Col: 1} }
func (p *Program) String() string { return fmt.Sprintf("Program(%d statements)", len(p.Statements)) }

// opSymbols maps binary operator tokens to their source spelling.
var opSymbols = map[TokenType]string{
	PLUS:    "+",
	MINUS:   "-",
	STAR:    "*",
	SLASH:   "/",
	EQUALS:  "=",
	LESS:    "<",
	GREATER: ">",
}

// formatNumber renders v in the shortest plain-decimal form that reads back
// exactly. The lexer has no exponent syntax, so 'g' formatting is avoided.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
