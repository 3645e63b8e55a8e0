package compiler

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Result holds the output of every compile phase.
type Result struct {
	Tokens  []Token
	Program *Program
	Unit    *Unit
	IR      string
}

// Compile runs source text through Lex, Parse, [PruneUnused] and Lower and
// returns the textual LLVM IR. The first error of any phase stops the
// pipeline; it wraps one of the typed errors of this package.
func Compile(src string, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	log := opts.Logger

	tokens, err := Lex(src)
	if err != nil {
		return nil, errors.Wrap(err, "lex")
	}
	log.WithField("tokens", len(tokens)).Debug("lexed")

	prog, err := Parse(tokens)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}
	log.WithField("statements", len(prog.Statements)).Debug("parsed")

	if opts.Prune {
		before := len(prog.Statements)
		prog = PruneUnused(prog)
		log.WithField("pruned", before-len(prog.Statements)).Debug("pruned unused functions")
	}

	unit, err := Lower(prog, opts)
	if err != nil {
		return nil, errors.Wrap(err, "lower")
	}
	if err := Verify(unit.Module); err != nil {
		return nil, errors.Wrap(err, "verify")
	}
	if opts.VerifyIR {
		if err := Reparse(unit.Module); err != nil {
			return nil, err
		}
	}

	text := unit.Module.String()
	log.WithFields(logrus.Fields{
		"functions": len(unit.Module.Funcs),
		"bytes":     len(text),
	}).Debug("compiled")

	return &Result{Tokens: tokens, Program: prog, Unit: unit, IR: text}, nil
}
