package compiler

import (
	"fmt"
	"strconv"
)

// keywords maps source text to its keyword TokenType. Matching is
// case-sensitive and applies to whole identifiers only.
var keywords = map[string]TokenType{
	"of":     OF,
	"is":     IS,
	"if":     IF,
	"else":   ELSE,
	"loop":   LOOP,
	"while":  WHILE,
	"define": DEFINE,
	"as":     AS,
	"return": RETURN,
	"break":  BREAK,
	"null":   NULL,
	"who":    WHO,
	"what":   WHAT,
	"when":   WHEN,
	"where":  WHERE,
	"why":    WHY,
	"how":    HOW,
}

// tabWidth is the indentation column a tab advances to a multiple of.
const tabWidth = 8

// Lexer holds all mutable state for a single scanning pass over src.
type Lexer struct {
	src  []rune
	pos  int // index of the next rune to consume
	line int // current 1-based source line
	col  int // current 1-based source column

	indents   []int // indentation widths of the open blocks; indents[0] == 0
	depth     int   // open ( and [ -- newlines inside are ignored
	lineStart bool  // the next rune begins a physical line
	lineToks  bool  // the current logical line produced a token

	tokens []Token
	err    error // first LexError
}

func newLexer(src string) *Lexer {
	return &Lexer{
		src:       []rune(src),
		line:      1,
		col:       1,
		indents:   []int{0},
		lineStart: true,
	}
}

// peek returns the rune at the current position without advancing.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

// peek2 returns the rune one position ahead of the current position.
func (l *Lexer) peek2() rune {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

// advance consumes one rune and returns it.
func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) atEnd() bool { return l.pos >= len(l.src) }

// fail records a lexical error; only the first one is kept.
func (l *Lexer) fail(line, col int, format string, args ...any) {
	if l.err == nil {
		l.err = &LexError{Pos: Pos{Line: line, Col: col}, Msg: fmt.Sprintf(format, args...)}
	}
}

func (l *Lexer) emit(tt TokenType, lexeme string, num float64, line, col int) {
	l.tokens = append(l.tokens, Token{Type: tt, Lexeme: lexeme, Number: num, Line: line, Col: col})
	if tt != NEWLINE && tt != INDENT && tt != DEDENT {
		l.lineToks = true
	}
}

// canEndOperand reports whether the last emitted token can be the end of
// an operand, in which case a following '-' is a binary minus.
func (l *Lexer) canEndOperand() bool {
	if len(l.tokens) == 0 || !l.lineToks {
		return false
	}
	switch l.tokens[len(l.tokens)-1].Type {
	case IDENTIFIER, NUMBER, STRING, NULL, RPAREN, RBRACKET:
		return true
	}
	return false
}

func isIdentStart(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}

func isIdentPart(r rune) bool { return isIdentStart(r) || isDigit(r) }

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// indentation measures the leading whitespace of a physical line and emits
// INDENT/DEDENT tokens. Blank and comment-only lines are left alone.
func (l *Lexer) indentation() {
	l.lineStart = false
	width := 0
measure:
	for !l.atEnd() {
		switch l.peek() {
		case ' ':
			width++
		case '\t':
			width += tabWidth - width%tabWidth
		case '\r':
		default:
			break measure
		}
		l.advance()
	}
	if l.atEnd() || l.peek() == '\n' || l.peek() == '#' {
		return
	}

	line, col := l.line, l.col
	top := l.indents[len(l.indents)-1]
	switch {
	case width > top:
		l.indents = append(l.indents, width)
		l.emit(INDENT, "", 0, line, col)
	case width < top:
		for len(l.indents) > 1 && width < l.indents[len(l.indents)-1] {
			l.indents = l.indents[:len(l.indents)-1]
			l.emit(DEDENT, "", 0, line, col)
		}
		if width != l.indents[len(l.indents)-1] {
			l.fail(line, col, "unindent to width %d does not match any outer indentation level", width)
			// Keep going as if the odd level had been opened.
			l.indents = append(l.indents, width)
		}
	}
}

func (l *Lexer) skipSpaces() {
	for !l.atEnd() {
		switch l.peek() {
		case ' ', '\t', '\r':
			l.advance()
		default:
			return
		}
	}
}

// skipComment discards everything from '#' to end-of-line.
func (l *Lexer) skipComment() {
	for !l.atEnd() && l.peek() != '\n' {
		l.advance()
	}
}

// scanIdent collects a full identifier or keyword token.
func (l *Lexer) scanIdent() {
	line, col := l.line, l.col
	start := l.pos
	for !l.atEnd() && isIdentPart(l.peek()) {
		l.advance()
	}
	lexeme := string(l.src[start:l.pos])
	tt := IDENTIFIER
	if kw, ok := keywords[lexeme]; ok {
		tt = kw
	}
	l.emit(tt, lexeme, 0, line, col)
}

// scanNumber collects an integer or decimal literal with an optional
// leading '-', which must still be at l.peek() when present.
func (l *Lexer) scanNumber() {
	line, col := l.line, l.col
	start := l.pos
	if l.peek() == '-' {
		l.advance()
	}
	for !l.atEnd() && isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && isDigit(l.peek2()) {
		l.advance() // '.'
		for !l.atEnd() && isDigit(l.peek()) {
			l.advance()
		}
	}
	lexeme := string(l.src[start:l.pos])
	num, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		l.fail(line, col, "malformed number %q", lexeme)
	}
	l.emit(NUMBER, lexeme, num, line, col)
}

// scanString collects a single- or double-quoted string literal. An
// unterminated string is reported and emitted with whatever was read.
func (l *Lexer) scanString() {
	line, col := l.line, l.col
	quote := l.advance()
	var val []rune
	for {
		if l.atEnd() || l.peek() == '\n' {
			l.fail(line, col, "unterminated string literal")
			l.emit(STRING, string(val), 0, line, col)
			return
		}
		r := l.advance()
		if r == quote {
			break
		}
		if r == '\\' && !l.atEnd() && l.peek() != '\n' {
			next := l.advance()
			switch next {
			case 'n':
				val = append(val, '\n')
			case 't':
				val = append(val, '\t')
			case 'r':
				val = append(val, '\r')
			case '0':
				val = append(val, 0)
			case '\\', '"', '\'':
				val = append(val, next)
			default:
				val = append(val, '\\', next)
			}
			continue
		}
		val = append(val, r)
	}
	l.emit(STRING, string(val), 0, line, col)
}

// scanToken emits the token starting at the current rune.
func (l *Lexer) scanToken() {
	ch := l.peek()
	line, col := l.line, l.col

	switch {
	case isIdentStart(ch):
		l.scanIdent()
		return
	case isDigit(ch):
		l.scanNumber()
		return
	case ch == '-' && isDigit(l.peek2()) && !l.canEndOperand():
		l.scanNumber()
		return
	case ch == '"' || ch == '\'':
		l.scanString()
		return
	}

	l.advance() // consume the character before the switch
	switch ch {
	case '(':
		l.depth++
		l.emit(LPAREN, "(", 0, line, col)
	case ')':
		if l.depth > 0 {
			l.depth--
		}
		l.emit(RPAREN, ")", 0, line, col)
	case '[':
		l.depth++
		l.emit(LBRACKET, "[", 0, line, col)
	case ']':
		if l.depth > 0 {
			l.depth--
		}
		l.emit(RBRACKET, "]", 0, line, col)
	case ':':
		l.emit(COLON, ":", 0, line, col)
	case ',':
		l.emit(COMMA, ",", 0, line, col)
	case '+':
		l.emit(PLUS, "+", 0, line, col)
	case '-':
		l.emit(MINUS, "-", 0, line, col)
	case '*':
		l.emit(STAR, "*", 0, line, col)
	case '/':
		l.emit(SLASH, "/", 0, line, col)
	case '=':
		l.emit(EQUALS, "=", 0, line, col)
	case '<':
		l.emit(LESS, "<", 0, line, col)
	case '>':
		l.emit(GREATER, ">", 0, line, col)
	default:
		l.emit(ILLEGAL, string(ch), 0, line, col)
	}
}

func (l *Lexer) run() {
	for {
		if l.lineStart && l.depth == 0 {
			l.indentation()
		}
		l.skipSpaces()
		if l.atEnd() {
			break
		}
		switch l.peek() {
		case '#':
			l.skipComment()
		case '\n':
			line, col := l.line, l.col
			l.advance()
			if l.depth == 0 {
				if l.lineToks {
					l.emit(NEWLINE, "", 0, line, col)
					l.lineToks = false
				}
				l.lineStart = true
			}
		default:
			l.scanToken()
		}
	}

	if l.lineToks {
		l.emit(NEWLINE, "", 0, l.line, l.col)
		l.lineToks = false
	}
	for len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		l.emit(DEDENT, "", 0, l.line, l.col)
	}
	l.emit(EOF, "", 0, l.line, l.col)
}

// Lex tokenises src and returns all tokens including the final EOF token.
// Tokenising never stops early: the returned slice is always complete and
// the error, if any, is the first *LexError that was encountered.
func Lex(src string) ([]Token, error) {
	l := newLexer(src)
	l.run()
	return l.tokens, l.err
}
