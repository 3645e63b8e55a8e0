package compiler

import (
	"strings"
)

// Precedence levels, lowest first. Parentheses are emitted only where a
// child binds more loosely than its position requires.
const (
	precComparison = iota + 1
	precAdditive
	precMultiplicative
	precRelation
	precPostfix
	precPrimary
)

func binopPrec(op TokenType) int {
	switch op {
	case EQUALS, LESS, GREATER:
		return precComparison
	case PLUS, MINUS:
		return precAdditive
	case STAR, SLASH:
		return precMultiplicative
	}
	return precPrimary
}

func prec(e Expr) int {
	switch n := e.(type) {
	case *BinaryOp:
		return binopPrec(n.Op)
	case *Relation:
		return precRelation
	case *Index:
		return precPostfix
	}
	return precPrimary
}

// out is a small writer with indentation.
type out struct {
	b     strings.Builder
	depth int
}

func (o *out) write(s string) { o.b.WriteString(s) }
func (o *out) nl()            { o.b.WriteByte('\n') }
func (o *out) pad()           { o.b.WriteString(strings.Repeat("    ", o.depth)) }
func (o *out) line(s string)  { o.pad(); o.write(s); o.nl() }

// Format renders prog as canonical source text: four-space indentation,
// minimal parentheses, vectors and lists in brackets. Parsing the result
// yields an equivalent tree.
func Format(prog *Program) string {
	o := &out{}
	for i, st := range prog.Statements {
		formatStmt(o, st)
		if _, ok := st.(*FunctionDef); ok && i < len(prog.Statements)-1 {
			o.nl()
		}
	}
	return o.b.String()
}

// FormatExpr renders a single expression.
func FormatExpr(e Expr) string {
	var b strings.Builder
	writeExpr(&b, e)
	return b.String()
}

func formatBlock(o *out, body []Stmt) {
	o.depth++
	if len(body) == 0 {
		// A block cannot be empty in source; null is a no-op statement.
		o.line("null")
	}
	for _, st := range body {
		formatStmt(o, st)
	}
	o.depth--
}

func formatStmt(o *out, st Stmt) {
	switch n := st.(type) {
	case *Assignment:
		o.line(n.Name + " is " + FormatExpr(n.Value))
	case *ExprStmt:
		o.line(FormatExpr(n.Expr))
	case *Return:
		if n.Value == nil {
			o.line("return")
		} else {
			o.line("return " + FormatExpr(n.Value))
		}
	case *Break:
		o.line("break")
	case *Conditional:
		o.line("if " + FormatExpr(n.Cond) + ":")
		formatBlock(o, n.Then)
		if n.Else != nil {
			o.line("else:")
			formatBlock(o, n.Else)
		}
	case *Loop:
		o.line("loop while " + FormatExpr(n.Cond) + ":")
		formatBlock(o, n.Body)
	case *FunctionDef:
		o.line("define " + n.Name + " as:")
		formatBlock(o, n.Body)
	}
}

func writeExpr(b *strings.Builder, e Expr) {
	switch n := e.(type) {
	case *Literal:
		writeLiteral(b, n)
	case *Identifier:
		b.WriteString(n.Name)
	case *BinaryOp:
		my := binopPrec(n.Op)
		writeOperand(b, n.Left, prec(n.Left) < my)
		b.WriteString(" " + opSymbols[n.Op] + " ")
		writeOperand(b, n.Right, prec(n.Right) <= my)
	case *Relation:
		writeOperand(b, n.Left, prec(n.Left) < precPostfix)
		b.WriteString(" of ")
		writeOperand(b, n.Right, prec(n.Right) < precRelation)
	case *Index:
		writeOperand(b, n.List, prec(n.List) < precPostfix)
		b.WriteByte('[')
		writeExpr(b, n.Index)
		b.WriteByte(']')
	case *ListLiteral:
		b.WriteByte('[')
		for i, el := range n.Elements {
			if i > 0 {
				b.WriteString(", ")
			}
			writeExpr(b, el)
		}
		b.WriteByte(']')
	case *Interrogative:
		b.WriteString(strings.ToLower(n.Kind.String()))
		b.WriteString(" is ")
		writeExpr(b, n.Target)
	}
}

func writeOperand(b *strings.Builder, e Expr, paren bool) {
	if paren {
		b.WriteByte('(')
	}
	writeExpr(b, e)
	if paren {
		b.WriteByte(')')
	}
}

func writeLiteral(b *strings.Builder, l *Literal) {
	switch l.Kind {
	case LitNumber:
		b.WriteString(formatNumber(l.Number))
	case LitString:
		b.WriteString(quoteString(l.Text))
	case LitNull:
		b.WriteString("null")
	case LitVector:
		b.WriteByte('[')
		for i, v := range l.Vector {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(formatNumber(v))
		}
		b.WriteByte(']')
	}
}

// quoteString re-escapes s using only the escapes the lexer understands.
func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case 0:
			b.WriteString(`\0`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
