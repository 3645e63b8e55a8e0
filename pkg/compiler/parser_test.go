package compiler

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// astOpts compares trees structurally, ignoring positions.
var astOpts = cmp.Options{
	cmpopts.IgnoreTypes(Pos{}),
	cmpopts.EquateEmpty(),
}

func num(v float64) *Literal        { return &Literal{Kind: LitNumber, Number: v} }
func str(s string) *Literal         { return &Literal{Kind: LitString, Text: s} }
func vec(vs ...float64) *Literal    { return &Literal{Kind: LitVector, Vector: vs} }
func ident(name string) *Identifier { return &Identifier{Name: name} }

func bin(op TokenType, l, r Expr) *BinaryOp { return &BinaryOp{Op: op, Left: l, Right: r} }
func rel(l, r Expr) *Relation               { return &Relation{Left: l, Right: r} }

func TestParse_Expressions(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want Expr
	}{
		{"Number", "1", num(1)},
		{"String", `"hi"`, str("hi")},
		{"Null", "null", &Literal{Kind: LitNull}},
		{"Identifier", "x", ident("x")},
		{
			"Multiplication Binds Tighter",
			"1 + 2 * 3",
			bin(PLUS, num(1), bin(STAR, num(2), num(3))),
		},
		{
			"Additive Is Left Associative",
			"1 - 2 - 3",
			bin(MINUS, bin(MINUS, num(1), num(2)), num(3)),
		},
		{
			"Comparison Is Lowest",
			"a + 1 < b * 2",
			bin(LESS, bin(PLUS, ident("a"), num(1)), bin(STAR, ident("b"), num(2))),
		},
		{
			"Comparisons Chain Left",
			"a < b = 0",
			bin(EQUALS, bin(LESS, ident("a"), ident("b")), num(0)),
		},
		{
			"Relation Is Right Associative",
			"f of g of x",
			rel(ident("f"), rel(ident("g"), ident("x"))),
		},
		{
			"Relation Binds Tighter Than Arithmetic",
			"f of x + 1",
			bin(PLUS, rel(ident("f"), ident("x")), num(1)),
		},
		{
			"Relation Inside Product",
			"n * f of m",
			bin(STAR, ident("n"), rel(ident("f"), ident("m"))),
		},
		{
			"Grouping",
			"f of (x + 1)",
			rel(ident("f"), bin(PLUS, ident("x"), num(1))),
		},
		{
			"Index Binds Tighter Than Relation",
			"f of xs[0]",
			rel(ident("f"), &Index{List: ident("xs"), Index: num(0)}),
		},
		{
			"Chained Index",
			"m[1][2]",
			&Index{List: &Index{List: ident("m"), Index: num(1)}, Index: num(2)},
		},
		{"Paren Vector", "(1, 2, 3)", vec(1, 2, 3)},
		{"Bracket Vector", "[1, 2.5]", vec(1, 2.5)},
		{"Single Bracket Element", "[5]", vec(5)},
		{"Empty Parens", "()", vec()},
		{"Empty Brackets", "[]", vec()},
		{
			"Mixed List",
			"[1, x]",
			&ListLiteral{Elements: []Expr{num(1), ident("x")}},
		},
		{
			"Paren List",
			"(a, b + 1)",
			&ListLiteral{Elements: []Expr{ident("a"), bin(PLUS, ident("b"), num(1))}},
		},
		{
			"Negative Element",
			"[-1, 2]",
			vec(-1, 2),
		},
		{
			"Interrogative With Is",
			"what is x",
			&Interrogative{Kind: WHAT, Target: ident("x")},
		},
		{
			"Interrogative Without Is",
			"how x",
			&Interrogative{Kind: HOW, Target: ident("x")},
		},
		{
			"Interrogative Takes One Token",
			"why is x + 1",
			bin(PLUS, &Interrogative{Kind: WHY, Target: ident("x")}, num(1)),
		},
		{
			"Interrogative Literal Target",
			"who is 3",
			&Interrogative{Kind: WHO, Target: num(3)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := mustParse(t, tt.src)
			require.Len(t, prog.Statements, 1)
			stmt, ok := prog.Statements[0].(*ExprStmt)
			require.True(t, ok, "got %T", prog.Statements[0])
			if diff := cmp.Diff(tt.want, stmt.Expr, astOpts); diff != "" {
				t.Errorf("AST mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_Statements(t *testing.T) {
	src := `x is 10
define fact as:
    if n < 2:
        return 1
    else:
        return n * fact of (n - 1)
loop while x > 0:
    x is x - 1
    if x = 5:
        break
print of fact of x
define noop as:
    return
`
	want := &Program{Statements: []Stmt{
		&Assignment{Name: "x", Value: num(10)},
		&FunctionDef{Name: "fact", Body: []Stmt{
			&Conditional{
				Cond: bin(LESS, ident("n"), num(2)),
				Then: []Stmt{&Return{Value: num(1)}},
				Else: []Stmt{&Return{Value: bin(STAR, ident("n"),
					rel(ident("fact"), bin(MINUS, ident("n"), num(1))))}},
			},
		}},
		&Loop{
			Cond: bin(GREATER, ident("x"), num(0)),
			Body: []Stmt{
				&Assignment{Name: "x", Value: bin(MINUS, ident("x"), num(1))},
				&Conditional{
					Cond: bin(EQUALS, ident("x"), num(5)),
					Then: []Stmt{&Break{}},
				},
			},
		},
		&ExprStmt{Expr: rel(ident("print"), rel(ident("fact"), ident("x")))},
		&FunctionDef{Name: "noop", Body: []Stmt{&Return{}}},
	}}

	got := mustParse(t, src)
	if diff := cmp.Diff(want, got, astOpts); diff != "" {
		t.Errorf("AST mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_ConditionalElse(t *testing.T) {
	prog := mustParse(t, "if x:\n    y is 1\n")
	c := prog.Statements[0].(*Conditional)
	assert.Nil(t, c.Else, "no else branch")

	prog = mustParse(t, "if x:\n    y is 1\nelse:\n    y is 2\n")
	c = prog.Statements[0].(*Conditional)
	assert.Len(t, c.Else, 1)
}

func TestParse_DefinitionWithoutAs(t *testing.T) {
	prog := mustParse(t, "define f:\n    return n\n")
	def, ok := prog.Statements[0].(*FunctionDef)
	require.True(t, ok)
	assert.Equal(t, "f", def.Name)
	assert.Empty(t, def.Params)
}

func TestParse_Positions(t *testing.T) {
	prog := mustParse(t, "x is 1\ny is f of x\n")
	a := prog.Statements[1].(*Assignment)
	assert.Equal(t, Pos{Line: 2, Col: 1}, a.Pos)
	r := a.Value.(*Relation)
	assert.Equal(t, Pos{Line: 2, Col: 8}, r.Pos)
	assert.Equal(t, Pos{Line: 2, Col: 6}, r.Left.Position())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
		found    TokenType
		pos      Pos
	}{
		{"Missing Value", "x is\n", "expression", NEWLINE, Pos{1, 5}},
		{"Statement Start", ") x\n", "statement", RPAREN, Pos{1, 1}},
		{"Missing Colon", "if x\n    y is 1\n", "COLON", NEWLINE, Pos{1, 5}},
		{"Missing Block", "if x:\ny is 1\n", "INDENT", IDENTIFIER, Pos{2, 1}},
		{"Junk After Statement", "x is 1 2\n", "end of line", NUMBER, Pos{1, 8}},
		{"Unclosed Group", "x is (1, 2\n", "RPAREN", NEWLINE, Pos{2, 1}},
		{"Loop Without While", "loop x:\n    y is 1\n", "WHILE", IDENTIFIER, Pos{1, 6}},
		{"Interrogative Of Expression", "what is (x)\n", "identifier or literal", LPAREN, Pos{1, 9}},
		{"Illegal Token", "x is 1 ! 2\n", "end of line", ILLEGAL, Pos{1, 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Lex(tt.src)
			require.NoError(t, err)
			_, err = Parse(tokens)
			require.Error(t, err)

			var se *SyntaxError
			require.True(t, errors.As(err, &se), "got %T: %v", err, err)
			assert.Equal(t, tt.expected, se.Expected)
			assert.Equal(t, tt.found, se.Found.Type)
			assert.Equal(t, tt.pos, se.Position())
		})
	}
}
