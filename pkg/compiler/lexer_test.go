package compiler

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []TokenType
	}{
		{
			name:     "Empty",
			input:    "",
			expected: []TokenType{EOF},
		},
		{
			name:     "Assignment",
			input:    "x is 5\n",
			expected: []TokenType{IDENTIFIER, IS, NUMBER, NEWLINE, EOF},
		},
		{
			name:     "No Trailing Newline",
			input:    "x is 5",
			expected: []TokenType{IDENTIFIER, IS, NUMBER, NEWLINE, EOF},
		},
		{
			name:  "Operators and Delimiters",
			input: "+ - * / = < > ( ) [ ] : ,",
			expected: []TokenType{
				PLUS, MINUS, STAR, SLASH, EQUALS, LESS, GREATER,
				LPAREN, RPAREN, LBRACKET, RBRACKET, COLON, COMMA,
				NEWLINE, EOF,
			},
		},
		{
			name:  "Keywords",
			input: "of is if else loop while define as return break null",
			expected: []TokenType{
				OF, IS, IF, ELSE, LOOP, WHILE, DEFINE, AS, RETURN, BREAK, NULL,
				NEWLINE, EOF,
			},
		},
		{
			name:  "Keyword Prefixed Identifiers",
			input: "offset is island of ifx\nwhoami is nullable + breaker\nisx is asx",
			expected: []TokenType{
				IDENTIFIER, IS, IDENTIFIER, OF, IDENTIFIER, NEWLINE,
				IDENTIFIER, IS, IDENTIFIER, PLUS, IDENTIFIER, NEWLINE,
				IDENTIFIER, IS, IDENTIFIER, NEWLINE,
				EOF,
			},
		},
		{
			name:  "Interrogatives",
			input: "who what when where why how",
			expected: []TokenType{
				WHO, WHAT, WHEN, WHERE, WHY, HOW,
				NEWLINE, EOF,
			},
		},
		{
			name:  "Indented Block",
			input: "if x:\n    y is 1\nz is 2\n",
			expected: []TokenType{
				IF, IDENTIFIER, COLON, NEWLINE,
				INDENT, IDENTIFIER, IS, NUMBER, NEWLINE,
				DEDENT, IDENTIFIER, IS, NUMBER, NEWLINE,
				EOF,
			},
		},
		{
			name:  "Nested Blocks Close At EOF",
			input: "define f as:\n    loop while n:\n        return n",
			expected: []TokenType{
				DEFINE, IDENTIFIER, AS, COLON, NEWLINE,
				INDENT, LOOP, WHILE, IDENTIFIER, COLON, NEWLINE,
				INDENT, RETURN, IDENTIFIER, NEWLINE,
				DEDENT, DEDENT, EOF,
			},
		},
		{
			name:  "Tab Indentation",
			input: "if x:\n\ty is 1\n",
			expected: []TokenType{
				IF, IDENTIFIER, COLON, NEWLINE,
				INDENT, IDENTIFIER, IS, NUMBER, NEWLINE,
				DEDENT, EOF,
			},
		},
		{
			name:  "Blank And Comment Lines Keep Indentation",
			input: "if x:\n    a is 1\n\n        # comment\n    b is 2\n",
			expected: []TokenType{
				IF, IDENTIFIER, COLON, NEWLINE,
				INDENT, IDENTIFIER, IS, NUMBER, NEWLINE,
				IDENTIFIER, IS, NUMBER, NEWLINE,
				DEDENT, EOF,
			},
		},
		{
			name:     "Trailing Comment",
			input:    "# header\nx is 1 # one\n",
			expected: []TokenType{IDENTIFIER, IS, NUMBER, NEWLINE, EOF},
		},
		{
			name:  "Newlines Inside Brackets Are Joined",
			input: "x is [1,\n      2]\n",
			expected: []TokenType{
				IDENTIFIER, IS, LBRACKET, NUMBER, COMMA, NUMBER, RBRACKET, NEWLINE, EOF,
			},
		},
		{
			name:     "Binary Minus After Operand",
			input:    "a -3",
			expected: []TokenType{IDENTIFIER, MINUS, NUMBER, NEWLINE, EOF},
		},
		{
			name:     "Negative Literal After Operator",
			input:    "a - -3",
			expected: []TokenType{IDENTIFIER, MINUS, NUMBER, NEWLINE, EOF},
		},
		{
			name:     "Illegal Character",
			input:    "x is 1 ! 2",
			expected: []TokenType{IDENTIFIER, IS, NUMBER, ILLEGAL, NUMBER, NEWLINE, EOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Lex(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, tokenTypes(tokens))
		})
	}
}

func TestLex_Numbers(t *testing.T) {
	tests := []struct {
		input  string
		lexeme string
		value  float64
	}{
		{"42", "42", 42},
		{"3.25", "3.25", 3.25},
		{"-7", "-7", -7},
		{"-0.5", "-0.5", -0.5},
		{"0", "0", 0},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens, err := Lex("x is " + tt.input)
			require.NoError(t, err)
			require.Len(t, tokens, 5)
			num := tokens[2]
			assert.Equal(t, NUMBER, num.Type)
			assert.Equal(t, tt.lexeme, num.Lexeme)
			assert.Equal(t, tt.value, num.Number)
		})
	}
}

func TestLex_Strings(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Double Quoted", `"hello"`, "hello"},
		{"Single Quoted", `'hello'`, "hello"},
		{"Escapes", `"a\nb\t\"c\"\\"`, "a\nb\t\"c\"\\"},
		{"Other Quote Inside", `"it's"`, "it's"},
		{"Unknown Escape Kept", `"\q"`, `\q`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Lex("print of " + tt.input)
			require.NoError(t, err)
			require.Equal(t, STRING, tokens[2].Type)
			assert.Equal(t, tt.want, tokens[2].Lexeme)
		})
	}
}

func TestLex_KeywordPrefixedLexemes(t *testing.T) {
	tokens, err := Lex("offset is island of ifx\n")
	require.NoError(t, err)
	require.Len(t, tokens, 7)
	assert.Equal(t, "offset", tokens[0].Lexeme)
	assert.Equal(t, "island", tokens[2].Lexeme)
	assert.Equal(t, "ifx", tokens[4].Lexeme)
}

func TestLex_Positions(t *testing.T) {
	tokens, err := Lex("x is 5\nif x:\n    y is x\n")
	require.NoError(t, err)

	want := []struct {
		tt        TokenType
		line, col int
	}{
		{IDENTIFIER, 1, 1},
		{IS, 1, 3},
		{NUMBER, 1, 6},
		{NEWLINE, 1, 7},
		{IF, 2, 1},
		{IDENTIFIER, 2, 4},
		{COLON, 2, 5},
		{NEWLINE, 2, 6},
		{INDENT, 3, 5},
		{IDENTIFIER, 3, 5},
		{IS, 3, 7},
		{IDENTIFIER, 3, 10},
	}
	require.GreaterOrEqual(t, len(tokens), len(want))
	for i, w := range want {
		assert.Equal(t, w.tt, tokens[i].Type, "token %d", i)
		assert.Equal(t, Pos{Line: w.line, Col: w.col}, tokens[i].Pos(), "token %d (%s)", i, tokens[i].Type)
	}
}

func TestLex_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		pos   Pos
	}{
		{
			name:  "Unterminated String",
			input: "print of \"abc\nx is 1\n",
			pos:   Pos{Line: 1, Col: 10},
		},
		{
			name:  "Inconsistent Dedent",
			input: "if x:\n    a is 1\n  b is 2\n",
			pos:   Pos{Line: 3, Col: 3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Lex(tt.input)
			require.Error(t, err)

			var le *LexError
			require.True(t, errors.As(err, &le), "got %T", err)
			assert.Equal(t, tt.pos, le.Pos)

			// The token stream is still complete.
			require.NotEmpty(t, tokens)
			assert.Equal(t, EOF, tokens[len(tokens)-1].Type)
		})
	}
}

func TestTokenType_IsInterrogative(t *testing.T) {
	for _, tt := range []TokenType{WHO, WHAT, WHEN, WHERE, WHY, HOW} {
		assert.True(t, tt.IsInterrogative(), tt.String())
	}
	for _, tt := range []TokenType{IDENTIFIER, OF, IS, NULL, LPAREN} {
		assert.False(t, tt.IsInterrogative(), tt.String())
	}
}
