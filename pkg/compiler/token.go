package compiler

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF     TokenType = iota // sentinel: end of input
	ILLEGAL                  // character the lexer could not place; rejected by the parser

	// Literals
	IDENTIFIER // variable / function name
	NUMBER     // integer or decimal literal, optionally negative
	STRING     // string literal "..." or '...'

	// Keywords
	OF     // "of"
	IS     // "is"
	IF     // "if"
	ELSE   // "else"
	LOOP   // "loop"
	WHILE  // "while"
	DEFINE // "define"
	AS     // "as"
	RETURN // "return"
	BREAK  // "break"
	NULL   // "null"

	// Interrogative keywords
	WHO   // "who"
	WHAT  // "what"
	WHEN  // "when"
	WHERE // "where"
	WHY   // "why"
	HOW   // "how"

	// Paired delimiters
	LPAREN   // (
	RPAREN   // )
	LBRACKET // [
	RBRACKET // ]

	// Punctuation
	COLON // :
	COMMA // ,

	// Arithmetic operators
	PLUS  // +
	MINUS // -
	STAR  // *
	SLASH // /

	// Comparison operators
	EQUALS  // =
	LESS    // <
	GREATER // >

	// Layout
	NEWLINE // end of a logical line
	INDENT  // indentation increased
	DEDENT  // indentation decreased
)

// tokenNames is indexed by TokenType.
var tokenNames = [...]string{
	EOF:        "EOF",
	ILLEGAL:    "ILLEGAL",
	IDENTIFIER: "IDENTIFIER",
	NUMBER:     "NUMBER",
	STRING:     "STRING",
	OF:         "OF",
	IS:         "IS",
	IF:         "IF",
	ELSE:       "ELSE",
	LOOP:       "LOOP",
	WHILE:      "WHILE",
	DEFINE:     "DEFINE",
	AS:         "AS",
	RETURN:     "RETURN",
	BREAK:      "BREAK",
	NULL:       "NULL",
	WHO:        "WHO",
	WHAT:       "WHAT",
	WHEN:       "WHEN",
	WHERE:      "WHERE",
	WHY:        "WHY",
	HOW:        "HOW",
	LPAREN:     "LPAREN",
	RPAREN:     "RPAREN",
	LBRACKET:   "LBRACKET",
	RBRACKET:   "RBRACKET",
	COLON:      "COLON",
	COMMA:      "COMMA",
	PLUS:       "PLUS",
	MINUS:      "MINUS",
	STAR:       "STAR",
	SLASH:      "SLASH",
	EQUALS:     "EQUALS",
	LESS:       "LESS",
	GREATER:    "GREATER",
	NEWLINE:    "NEWLINE",
	INDENT:     "INDENT",
	DEDENT:     "DEDENT",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// IsInterrogative reports whether tt is one of who/what/when/where/why/how.
func (tt TokenType) IsInterrogative() bool {
	return tt >= WHO && tt <= HOW
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Type   TokenType
	Lexeme string  // source text; the decoded value for STRING tokens
	Number float64 // numeric payload of NUMBER tokens
	Line   int     // 1-based source line
	Col    int     // 1-based source column
}

// Pos returns the source position of the token.
func (t Token) Pos() Pos {
	return Pos{Line: t.Line, Col: t.Col}
}

// SameAs reports whether t and o are equal ignoring position.
func (t Token) SameAs(o Token) bool {
	return t.Type == o.Type && t.Lexeme == o.Lexeme && t.Number == o.Number
}

func (t Token) String() string {
	return fmt.Sprintf("%-10s %-14q  %d:%d", t.Type, t.Lexeme, t.Line, t.Col)
}
