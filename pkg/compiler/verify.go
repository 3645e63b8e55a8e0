package compiler

import (
	"github.com/llir/llvm/asm"
	"github.com/llir/llvm/ir"
	"github.com/pkg/errors"
)

// Verify checks that every block of every defined function ends in a
// terminator.
func Verify(m *ir.Module) error {
	for _, f := range m.Funcs {
		if len(f.Blocks) == 0 {
			continue // declaration
		}
		for _, b := range f.Blocks {
			if b.Term == nil {
				return errors.Errorf("function %s: block %s has no terminator", f.Name(), b.Name())
			}
		}
	}
	return nil
}

// Reparse parses the textual form of m back into a module, catching any
// IR the printer emits but the grammar rejects.
func Reparse(m *ir.Module) error {
	if _, err := asm.ParseString("lowered.ll", m.String()); err != nil {
		return errors.Wrap(err, "re-parse lowered IR")
	}
	return nil
}
