package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"
)

type ScopeType int

const (
	ScopeGlobal ScopeType = iota
	ScopeLocal
)

func (s ScopeType) String() string {
	if s == ScopeGlobal {
		return "global"
	}
	return "local"
}

// Symbol is a name bound to a storage slot. Slot is an *ir.Global for
// top-level names and an *ir.InstAlloca for names bound inside a function.
type Symbol struct {
	Name  string
	Slot  value.Value
	Kind  ValueKind // KindTracked or KindList
	Scope ScopeType

	// MaybeNull is set while some path can reach the current point
	// without having stored a cell in Slot.
	MaybeNull bool
}

// SlotName returns the IR name of the slot.
func (s *Symbol) SlotName() string {
	if n, ok := s.Slot.(interface{ Name() string }); ok {
		return n.Name()
	}
	return s.Name
}

// SymbolTable maps source names to storage slots and functions.
//
// Top-level names are globals. Each function being lowered pushes a frame
// of locals; only the innermost frame is visible, so a nested function sees
// its own locals and the globals but not the locals of the function it is
// nested in.
type SymbolTable struct {
	globals map[string]*Symbol

	// Stack of function frames.
	locals []map[string]*Symbol

	funcs     map[string]*ir.Func
	funcOrder []string
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		globals: make(map[string]*Symbol),
		funcs:   make(map[string]*ir.Func),
	}
}

func (s *SymbolTable) EnterFunction() {
	s.locals = append(s.locals, make(map[string]*Symbol))
}

func (s *SymbolTable) ExitFunction() {
	if len(s.locals) > 0 {
		s.locals = s.locals[:len(s.locals)-1]
	}
}

// inFunction returns true if we are inside a function.
func (s *SymbolTable) inFunction() bool {
	return len(s.locals) > 0
}

// Bind binds name in the current scope, replacing any earlier binding of
// name in that scope.
func (s *SymbolTable) Bind(name string, slot value.Value, kind ValueKind) *Symbol {
	sym := &Symbol{Name: name, Slot: slot, Kind: kind, Scope: ScopeGlobal}
	if s.inFunction() {
		sym.Scope = ScopeLocal
		s.locals[len(s.locals)-1][name] = sym
		return sym
	}
	s.globals[name] = sym
	return sym
}

// LookupCurrent returns the binding of name in the current scope only.
// Assignments consult this, so assigning inside a function never writes
// through to a global.
func (s *SymbolTable) LookupCurrent(name string) (*Symbol, bool) {
	if s.inFunction() {
		sym, ok := s.locals[len(s.locals)-1][name]
		return sym, ok
	}
	sym, ok := s.globals[name]
	return sym, ok
}

// Lookup returns the visible binding of name: the innermost frame first,
// then the globals.
func (s *SymbolTable) Lookup(name string) (*Symbol, bool) {
	if s.inFunction() {
		if sym, ok := s.locals[len(s.locals)-1][name]; ok {
			return sym, true
		}
	}
	sym, ok := s.globals[name]
	return sym, ok
}

// DeclareFunction records a user function. It fails if name is taken.
func (s *SymbolTable) DeclareFunction(name string, f *ir.Func) error {
	if _, ok := s.funcs[name]; ok {
		return fmt.Errorf("function %q is already defined", name)
	}
	s.funcs[name] = f
	s.funcOrder = append(s.funcOrder, name)
	return nil
}

// Function returns the user function called name.
func (s *SymbolTable) Function(name string) (*ir.Func, bool) {
	f, ok := s.funcs[name]
	return f, ok
}

// Functions returns the user function names in declaration order.
func (s *SymbolTable) Functions() []string {
	return append([]string(nil), s.funcOrder...)
}

// Globals returns the global bindings sorted by name.
func (s *SymbolTable) Globals() []*Symbol {
	out := make([]*Symbol, 0, len(s.globals))
	for _, sym := range s.globals {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// String returns a deterministically ordered dump of the table.
func (s *SymbolTable) String() string {
	var sb strings.Builder
	if len(s.globals) > 0 {
		sb.WriteString("Globals:\n")
		for _, sym := range s.Globals() {
			fmt.Fprintf(&sb, "  %-20s  @%s (%s)\n", sym.Name, sym.SlotName(), sym.Kind)
		}
	} else {
		sb.WriteString("Globals: (empty)\n")
	}

	if len(s.locals) > 0 {
		sb.WriteString("Locals (Active Stack):\n")
		for i, frame := range s.locals {
			fmt.Fprintf(&sb, "  Frame %d:\n", i)
			names := make([]string, 0, len(frame))
			for name := range frame {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				sym := frame[name]
				fmt.Fprintf(&sb, "    %-20s  %%%s (%s)\n", name, sym.SlotName(), sym.Kind)
			}
		}
	}

	if len(s.funcOrder) > 0 {
		sb.WriteString("Functions:\n")
		for _, name := range s.funcOrder {
			fmt.Fprintf(&sb, "  %s\n", name)
		}
	}
	return sb.String()
}
