package compiler

import (
	"strings"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSlot(name string) *ir.Global {
	return ir.NewGlobalDef(name, constant.NewFloat(types.Double, 0))
}

func TestSymbolTable(t *testing.T) {
	t.Run("GlobalBinding", func(t *testing.T) {
		s := NewSymbolTable()
		sym := s.Bind("x", testSlot("x"), KindTracked)

		assert.Equal(t, ScopeGlobal, sym.Scope)
		assert.Equal(t, "x", sym.SlotName())

		got, ok := s.Lookup("x")
		require.True(t, ok)
		assert.Same(t, sym, got)

		_, ok = s.Lookup("y")
		assert.False(t, ok)
	})

	t.Run("RebindReplaces", func(t *testing.T) {
		s := NewSymbolTable()
		s.Bind("x", testSlot("x"), KindTracked)
		second := s.Bind("x", testSlot("x.1"), KindList)

		got, _ := s.Lookup("x")
		assert.Same(t, second, got)
		assert.Equal(t, "x.1", got.SlotName())
		assert.Len(t, s.Globals(), 1)
	})

	t.Run("LocalsShadowGlobals", func(t *testing.T) {
		s := NewSymbolTable()
		g := s.Bind("x", testSlot("x"), KindTracked)
		s.Bind("y", testSlot("y"), KindTracked)

		s.EnterFunction()
		l := s.Bind("x", testSlot("x.addr"), KindTracked)
		assert.Equal(t, ScopeLocal, l.Scope)

		got, _ := s.Lookup("x")
		assert.Same(t, l, got)

		// Reads fall back to globals; the current scope does not.
		got, ok := s.Lookup("y")
		require.True(t, ok)
		assert.Equal(t, ScopeGlobal, got.Scope)
		_, ok = s.LookupCurrent("y")
		assert.False(t, ok)

		s.ExitFunction()
		got, _ = s.Lookup("x")
		assert.Same(t, g, got)
	})

	t.Run("NestedFramesAreIsolated", func(t *testing.T) {
		s := NewSymbolTable()
		s.EnterFunction()
		s.Bind("outer", testSlot("outer.addr"), KindTracked)
		s.EnterFunction()

		_, ok := s.Lookup("outer")
		assert.False(t, ok, "a nested function must not see its parent's locals")

		s.ExitFunction()
		_, ok = s.Lookup("outer")
		assert.True(t, ok)
	})

	t.Run("Functions", func(t *testing.T) {
		s := NewSymbolTable()
		m := ir.NewModule()
		f := m.NewFunc("f", types.Double)
		g := m.NewFunc("g", types.Double)

		require.NoError(t, s.DeclareFunction("g", g))
		require.NoError(t, s.DeclareFunction("f", f))
		assert.Error(t, s.DeclareFunction("f", f))

		got, ok := s.Function("f")
		require.True(t, ok)
		assert.Same(t, f, got)
		assert.Equal(t, []string{"g", "f"}, s.Functions())
	})

	t.Run("String", func(t *testing.T) {
		s := NewSymbolTable()
		assert.Contains(t, s.String(), "Globals: (empty)")

		s.Bind("b", testSlot("b"), KindList)
		s.Bind("a", testSlot("a"), KindTracked)
		s.EnterFunction()
		s.Bind("n", testSlot("n.addr"), KindTracked)

		out := s.String()
		assert.Contains(t, out, "@a (tracked)")
		assert.Contains(t, out, "@b (list)")
		assert.Contains(t, out, "%n.addr (tracked)")
		assert.Less(t, strings.Index(out, "@a"), strings.Index(out, "@b"), "globals are sorted")
	})
}
