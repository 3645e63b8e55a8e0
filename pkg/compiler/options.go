package compiler

import (
	"github.com/sirupsen/logrus"
)

// Options configures the compile pipeline.
type Options struct {
	// EntryName is the name of the function holding the top-level code.
	EntryName string
	// DefaultParam names the parameter of a function whose definition
	// declares none.
	DefaultParam string
	// Prune drops top-level functions unreachable from top-level code.
	Prune bool
	// VerifyIR re-parses the printed module to check it is well formed.
	VerifyIR bool

	Logger logrus.FieldLogger
}

const (
	DefaultEntryName = "main"
	DefaultParamName = "n"
)

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		EntryName:    DefaultEntryName,
		DefaultParam: DefaultParamName,
		Logger:       logrus.StandardLogger(),
	}
}

func (o Options) withDefaults() Options {
	if o.EntryName == "" {
		o.EntryName = DefaultEntryName
	}
	if o.DefaultParam == "" {
		o.DefaultParam = DefaultParamName
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	return o
}
