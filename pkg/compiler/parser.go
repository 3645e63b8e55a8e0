package compiler

// Parser consumes the flat token slice produced by the Lexer and builds an AST.
//
// Grammar:
//
//	program     = statement* EOF
//	statement   = definition | conditional | loop | return | break | assignment | exprStmt
//	definition  = "define" IDENTIFIER ("as")? ":" NEWLINE block
//	conditional = "if" expression ":" NEWLINE block ("else" ":" NEWLINE block)?
//	loop        = "loop" "while" expression ":" NEWLINE block
//	return      = "return" expression? NEWLINE
//	break       = "break" NEWLINE
//	assignment  = IDENTIFIER "is" expression NEWLINE
//	exprStmt    = expression NEWLINE
//	block       = INDENT statement* DEDENT
//
//	expression     = comparison
//	comparison     = additive (("=" | "<" | ">") additive)*
//	additive       = multiplicative (("+" | "-") multiplicative)*
//	multiplicative = relation (("*" | "/") relation)*
//	relation       = postfix ("of" relation)?
//	postfix        = primary ("[" expression "]")*
//	primary        = NUMBER | STRING | "null" | IDENTIFIER | group | list | interrogative
//	group          = "(" (expression ("," expression)*)? ")"
//	list           = "[" (expression ("," expression)*)? "]"
//	interrogative  = ("who" | "what" | "when" | "where" | "why" | "how") ("is")? operand
//	operand        = IDENTIFIER | NUMBER | STRING | "null"
type Parser struct {
	tokens []Token
	pos    int
}

func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	return p.peekAt(0)
}

// peekAt returns the token at the given offset from the current position.
func (p *Parser) peekAt(offset int) Token {
	if p.pos+offset >= len(p.tokens) {
		if len(p.tokens) > 0 {
			last := p.tokens[len(p.tokens)-1]
			return Token{Type: EOF, Line: last.Line, Col: last.Col}
		}
		return Token{Type: EOF, Line: 1, Col: 1}
	}
	return p.tokens[p.pos+offset]
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// expect consumes the current token if it matches tt, otherwise returns a
// SyntaxError pointing at it.
func (p *Parser) expect(tt TokenType) (Token, error) {
	tok := p.peek()
	if tok.Type != tt {
		return tok, p.errorf(tok, tt.String())
	}
	return p.advance(), nil
}

func (p *Parser) errorf(found Token, expected string) error {
	return &SyntaxError{Expected: expected, Found: found}
}

// parseExpression is the entry point for expression parsing.
func (p *Parser) parseExpression() (Expr, error) {
	return p.parseComparison()
}

// parseComparison handles = < >
func (p *Parser) parseComparison() (Expr, error) {
	expr, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == EQUALS || p.peek().Type == LESS || p.peek().Type == GREATER {
		op := p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		expr = &BinaryOp{Op: op.Type, Left: expr, Right: right, Pos: op.Pos()}
	}
	return expr, nil
}

// parseAdditive handles + -
func (p *Parser) parseAdditive() (Expr, error) {
	expr, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == PLUS || p.peek().Type == MINUS {
		op := p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		expr = &BinaryOp{Op: op.Type, Left: expr, Right: right, Pos: op.Pos()}
	}
	return expr, nil
}

// parseMultiplicative handles * /
func (p *Parser) parseMultiplicative() (Expr, error) {
	expr, err := p.parseRelation()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == STAR || p.peek().Type == SLASH {
		op := p.advance()
		right, err := p.parseRelation()
		if err != nil {
			return nil, err
		}
		expr = &BinaryOp{Op: op.Type, Left: expr, Right: right, Pos: op.Pos()}
	}
	return expr, nil
}

// parseRelation handles `of`, which is right-associative:
// a of b of c  ==  a of (b of c)
func (p *Parser) parseRelation() (Expr, error) {
	left, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if p.peek().Type != OF {
		return left, nil
	}
	op := p.advance()
	right, err := p.parseRelation()
	if err != nil {
		return nil, err
	}
	return &Relation{Left: left, Right: right, Pos: op.Pos()}, nil
}

// parsePostfix handles list indexing, which binds tighter than `of`.
func (p *Parser) parsePostfix() (Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == LBRACKET {
		open := p.advance()
		idx, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RBRACKET); err != nil {
			return nil, err
		}
		expr = &Index{List: expr, Index: idx, Pos: open.Pos()}
	}
	return expr, nil
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.peek()
	switch {
	case tok.Type == NUMBER, tok.Type == STRING, tok.Type == NULL:
		return p.parseLiteral()
	case tok.Type == IDENTIFIER:
		p.advance()
		return &Identifier{Name: tok.Lexeme, Pos: tok.Pos()}, nil
	case tok.Type == LPAREN:
		return p.parseGroup()
	case tok.Type == LBRACKET:
		return p.parseList()
	case tok.Type.IsInterrogative():
		return p.parseInterrogative()
	}
	return nil, p.errorf(tok, "expression")
}

// parseLiteral consumes a single NUMBER, STRING or null token.
func (p *Parser) parseLiteral() (*Literal, error) {
	tok := p.peek()
	switch tok.Type {
	case NUMBER:
		p.advance()
		return &Literal{Kind: LitNumber, Number: tok.Number, Pos: tok.Pos()}, nil
	case STRING:
		p.advance()
		return &Literal{Kind: LitString, Text: tok.Lexeme, Pos: tok.Pos()}, nil
	case NULL:
		p.advance()
		return &Literal{Kind: LitNull, Pos: tok.Pos()}, nil
	}
	return nil, p.errorf(tok, "literal")
}

// parseElements parses a comma-separated expression list up to and
// including the closing token.
func (p *Parser) parseElements(closing TokenType) ([]Expr, error) {
	var elems []Expr
	if p.peek().Type == closing {
		p.advance()
		return elems, nil
	}
	for {
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if p.peek().Type != COMMA {
			break
		}
		p.advance()
	}
	if _, err := p.expect(closing); err != nil {
		return nil, err
	}
	return elems, nil
}

// parseGroup parses ( ... ). A single element is plain grouping; zero
// elements is the empty vector; several elements form a vector when they
// are all number literals and a list otherwise.
func (p *Parser) parseGroup() (Expr, error) {
	open := p.advance()
	elems, err := p.parseElements(RPAREN)
	if err != nil {
		return nil, err
	}
	if len(elems) == 1 {
		return elems[0], nil
	}
	return collapse(elems, open.Pos()), nil
}

// parseList parses [ ... ], collapsing an all-numeric list to a vector.
func (p *Parser) parseList() (Expr, error) {
	open := p.advance()
	elems, err := p.parseElements(RBRACKET)
	if err != nil {
		return nil, err
	}
	return collapse(elems, open.Pos()), nil
}

// collapse returns a vector Literal when every element is a number literal
// and a ListLiteral otherwise.
func collapse(elems []Expr, pos Pos) Expr {
	vec := make([]float64, 0, len(elems))
	for _, e := range elems {
		lit, ok := e.(*Literal)
		if !ok || lit.Kind != LitNumber {
			return &ListLiteral{Elements: elems, Pos: pos}
		}
		vec = append(vec, lit.Number)
	}
	return &Literal{Kind: LitVector, Vector: vec, Pos: pos}
}

// parseInterrogative parses  what is x. The optional `is` is swallowed and
// the operand must be a single identifier or literal token.
func (p *Parser) parseInterrogative() (Expr, error) {
	kw := p.advance()
	if p.peek().Type == IS {
		p.advance()
	}
	tok := p.peek()
	var target Expr
	switch tok.Type {
	case IDENTIFIER:
		p.advance()
		target = &Identifier{Name: tok.Lexeme, Pos: tok.Pos()}
	case NUMBER, STRING, NULL:
		lit, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		target = lit
	default:
		return nil, p.errorf(tok, "identifier or literal")
	}
	return &Interrogative{Kind: kw.Type, Target: target, Pos: kw.Pos()}, nil
}

// parseBlock parses  NEWLINE INDENT statement* DEDENT
// The header's COLON has already been consumed.
func (p *Parser) parseBlock() ([]Stmt, error) {
	if _, err := p.expect(NEWLINE); err != nil {
		return nil, err
	}
	if _, err := p.expect(INDENT); err != nil {
		return nil, err
	}
	stmts := []Stmt{}
	for p.peek().Type != DEDENT && p.peek().Type != EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	if _, err := p.expect(DEDENT); err != nil {
		return nil, err
	}
	return stmts, nil
}

// parseDefinition parses  define name as: block
// The leading DEFINE token has already been consumed by parseStatement.
func (p *Parser) parseDefinition(kw Token) (Stmt, error) {
	nameTok, err := p.expect(IDENTIFIER)
	if err != nil {
		return nil, err
	}
	if p.peek().Type == AS {
		p.advance()
	}
	if _, err := p.expect(COLON); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &FunctionDef{Name: nameTok.Lexeme, Body: body, Pos: kw.Pos()}, nil
}

// parseConditional parses  if cond: block [else: block]
// The leading IF token has already been consumed by parseStatement.
func (p *Parser) parseConditional(kw Token) (Stmt, error) {
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COLON); err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	var els []Stmt
	if p.peek().Type == ELSE {
		p.advance()
		if _, err := p.expect(COLON); err != nil {
			return nil, err
		}
		els, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}
	return &Conditional{Cond: cond, Then: then, Else: els, Pos: kw.Pos()}, nil
}

// parseLoop parses  loop while cond: block
// The leading LOOP token has already been consumed by parseStatement.
func (p *Parser) parseLoop(kw Token) (Stmt, error) {
	if _, err := p.expect(WHILE); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COLON); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &Loop{Cond: cond, Body: body, Pos: kw.Pos()}, nil
}

// parseReturn parses  return [expr]
// The leading RETURN token has already been consumed by parseStatement.
func (p *Parser) parseReturn(kw Token) (Stmt, error) {
	switch p.peek().Type {
	case NEWLINE, DEDENT, EOF:
		return &Return{Pos: kw.Pos()}, nil
	}
	val, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &Return{Value: val, Pos: kw.Pos()}, nil
}

// endOfLine consumes the NEWLINE that terminates a simple statement.
func (p *Parser) endOfLine() error {
	switch p.peek().Type {
	case NEWLINE:
		p.advance()
		return nil
	case DEDENT, EOF:
		return nil
	}
	return p.errorf(p.peek(), "end of line")
}

func (p *Parser) parseStatement() (Stmt, error) {
	tok := p.peek()

	var (
		stmt Stmt
		err  error
	)
	switch tok.Type {
	case DEFINE:
		p.advance()
		return p.parseDefinition(tok)
	case IF:
		p.advance()
		return p.parseConditional(tok)
	case LOOP:
		p.advance()
		return p.parseLoop(tok)
	case RETURN:
		p.advance()
		stmt, err = p.parseReturn(tok)
	case BREAK:
		p.advance()
		stmt = &Break{Pos: tok.Pos()}
	case IDENTIFIER:
		if p.peekAt(1).Type == IS {
			p.advance()
			p.advance()
			var val Expr
			val, err = p.parseExpression()
			stmt = &Assignment{Name: tok.Lexeme, Value: val, Pos: tok.Pos()}
			break
		}
		fallthrough
	default:
		var e Expr
		e, err = p.parseExpression()
		if err != nil {
			if se, ok := err.(*SyntaxError); ok && se.Found.SameAs(tok) && se.Found.Pos() == tok.Pos() {
				se.Expected = "statement"
			}
			return nil, err
		}
		stmt = &ExprStmt{Expr: e}
	}
	if err != nil {
		return nil, err
	}
	if err := p.endOfLine(); err != nil {
		return nil, err
	}
	return stmt, nil
}

// Parse builds the Program for a complete token stream. It stops at the
// first token that does not fit the grammar.
func Parse(tokens []Token) (*Program, error) {
	p := NewParser(tokens)
	prog := &Program{Statements: []Stmt{}}
	for {
		switch p.peek().Type {
		case EOF:
			return prog, nil
		case NEWLINE:
			p.advance()
			continue
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		prog.Statements = append(prog.Statements, stmt)
	}
}
