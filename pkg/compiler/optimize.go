package compiler

// PruneUnused removes top-level FunctionDef nodes that top-level code never
// calls, directly or through other functions. The input is not modified.
func PruneUnused(prog *Program) *Program {
	// 1. Map all top-level definitions by name
	funcs := make(map[string]*FunctionDef)
	for _, s := range prog.Statements {
		if f, ok := s.(*FunctionDef); ok {
			funcs[f.Name] = f
		}
	}

	reachable := make(map[string]bool)
	var worklist []string

	addReachable := func(name string) {
		if !reachable[name] {
			reachable[name] = true
			worklist = append(worklist, name)
		}
	}

	// 2. Roots: every call made by top-level code
	for _, s := range prog.Statements {
		if _, ok := s.(*FunctionDef); ok {
			continue
		}
		calls := make(map[string]bool)
		findCallsStmt(s, calls)
		for call := range calls {
			addReachable(call)
		}
	}

	// 3. Traverse the worklist to find all transitively reachable functions
	for len(worklist) > 0 {
		curr := worklist[0]
		worklist = worklist[1:]

		def, exists := funcs[curr]
		if !exists {
			// A builtin, a nested definition or undefined; lowering decides.
			continue
		}
		calls := make(map[string]bool)
		for _, s := range def.Body {
			findCallsStmt(s, calls)
		}
		for call := range calls {
			addReachable(call)
		}
	}

	// 4. Rebuild the statement list, dropping unreachable functions
	out := &Program{Statements: make([]Stmt, 0, len(prog.Statements))}
	for _, s := range prog.Statements {
		if f, ok := s.(*FunctionDef); ok && !reachable[f.Name] {
			continue
		}
		out.Statements = append(out.Statements, s)
	}
	return out
}

// findCallsExpr recursively extracts the names used as the left side of
// `of` in an expression.
func findCallsExpr(e Expr, calls map[string]bool) {
	if e == nil {
		return
	}
	switch n := e.(type) {
	case *Relation:
		if id, ok := n.Left.(*Identifier); ok {
			calls[id.Name] = true
		} else {
			findCallsExpr(n.Left, calls)
		}
		findCallsExpr(n.Right, calls)
	case *BinaryOp:
		findCallsExpr(n.Left, calls)
		findCallsExpr(n.Right, calls)
	case *Index:
		findCallsExpr(n.List, calls)
		findCallsExpr(n.Index, calls)
	case *ListLiteral:
		for _, el := range n.Elements {
			findCallsExpr(el, calls)
		}
	case *Literal, *Identifier, *Interrogative:
		// No calls here
	}
}

// findCallsStmt recursively extracts called names from a statement,
// including the bodies of nested definitions.
func findCallsStmt(s Stmt, calls map[string]bool) {
	switch n := s.(type) {
	case *Assignment:
		findCallsExpr(n.Value, calls)
	case *ExprStmt:
		findCallsExpr(n.Expr, calls)
	case *Return:
		findCallsExpr(n.Value, calls)
	case *Conditional:
		findCallsExpr(n.Cond, calls)
		for _, child := range n.Then {
			findCallsStmt(child, calls)
		}
		for _, child := range n.Else {
			findCallsStmt(child, calls)
		}
	case *Loop:
		findCallsExpr(n.Cond, calls)
		for _, child := range n.Body {
			findCallsStmt(child, calls)
		}
	case *FunctionDef:
		for _, child := range n.Body {
			findCallsStmt(child, calls)
		}
	case *Break:
	}
}

// collectDefs returns every FunctionDef in stmts, nested ones included, in
// source order.
func collectDefs(stmts []Stmt) []*FunctionDef {
	var defs []*FunctionDef
	var walk func([]Stmt)
	walk = func(list []Stmt) {
		for _, s := range list {
			switch n := s.(type) {
			case *FunctionDef:
				defs = append(defs, n)
				walk(n.Body)
			case *Conditional:
				walk(n.Then)
				walk(n.Else)
			case *Loop:
				walk(n.Body)
			}
		}
	}
	walk(stmts)
	return defs
}
