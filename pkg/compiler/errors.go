package compiler

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Pos is a 1-based source position.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Col) }

// positioned is implemented by every compile error that points into the source.
type positioned interface {
	error
	Position() Pos
	label() string
}

// LexError reports malformed indentation or an unterminated string.
type LexError struct {
	Pos Pos
	Msg string
}

func (e *LexError) Error() string   { return fmt.Sprintf("lex error at %s: %s", e.Pos, e.Msg) }
func (e *LexError) Position() Pos   { return e.Pos }
func (e *LexError) label() string   { return "LEXICAL ERROR" }
func (e *LexError) message() string { return e.Msg }

// SyntaxError reports the first token that does not fit the grammar.
type SyntaxError struct {
	Expected string
	Found    Token
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %s: %s", e.Position(), e.message())
}
func (e *SyntaxError) Position() Pos { return e.Found.Pos() }
func (e *SyntaxError) label() string { return "SYNTAX ERROR" }
func (e *SyntaxError) message() string {
	found := e.Found.Type.String()
	if e.Found.Lexeme != "" && e.Found.Type != STRING {
		found = fmt.Sprintf("%s (%q)", found, e.Found.Lexeme)
	}
	return fmt.Sprintf("expected %s, found %s", e.Expected, found)
}

// NameError reports a reference to a variable or function that is not bound.
type NameError struct {
	Pos  Pos
	Name string
	What string // "variable" or "function"
}

func (e *NameError) Error() string {
	return fmt.Sprintf("name error at %s: %s", e.Pos, e.message())
}
func (e *NameError) Position() Pos   { return e.Pos }
func (e *NameError) label() string   { return "NAME ERROR" }
func (e *NameError) message() string { return fmt.Sprintf("undefined %s %q", e.What, e.Name) }

// TypeError reports an operation applied to an incompatible value kind.
type TypeError struct {
	Pos Pos
	Msg string
}

func (e *TypeError) Error() string   { return fmt.Sprintf("type error at %s: %s", e.Pos, e.Msg) }
func (e *TypeError) Position() Pos   { return e.Pos }
func (e *TypeError) label() string   { return "TYPE ERROR" }
func (e *TypeError) message() string { return e.Msg }

// UnsupportedError reports a construct the parser accepts but the lowering
// backend cannot translate.
type UnsupportedError struct {
	Pos       Pos
	Construct string
	Msg       string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported construct at %s: %s", e.Pos, e.message())
}
func (e *UnsupportedError) Position() Pos { return e.Pos }
func (e *UnsupportedError) label() string { return "UNSUPPORTED" }
func (e *UnsupportedError) message() string {
	if e.Msg == "" {
		return e.Construct
	}
	return e.Construct + ": " + e.Msg
}

func typeErrorf(pos Pos, format string, args ...any) error {
	return &TypeError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func unsupportedf(pos Pos, construct, format string, args ...any) error {
	return &UnsupportedError{Pos: pos, Construct: construct, Msg: fmt.Sprintf(format, args...)}
}

// RenderError formats a compile error with the offending source line and a
// caret under the reported column. Errors without a position are returned
// as their plain message.
func RenderError(err error, name, src string) string {
	type messager interface{ message() string }

	var pe positioned
	if !errors.As(err, &pe) {
		return err.Error()
	}
	msg := pe.Error()
	if m, ok := pe.(messager); ok {
		msg = m.message()
	}

	lines := strings.Split(src, "\n")
	pos := pe.Position()
	line, col := pos.Line, pos.Col
	if line < 1 {
		line = 1
	}
	if line > len(lines) {
		line = len(lines)
	}
	if col < 1 {
		col = 1
	}

	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "%s in %s at %d:%d: %s\n\n", pe.label(), name, line, col, msg)
	} else {
		fmt.Fprintf(&b, "%s at %d:%d: %s\n\n", pe.label(), line, col, msg)
	}
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lines[line-1])
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", col-1))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
