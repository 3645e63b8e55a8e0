// Command eigendump prints every stage of the compile pipeline for one
// EigenScript file: tokens, AST, canonical source, symbols and IR.
package main

import (
	"fmt"
	"os"

	"eigenscript/pkg/compiler"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const testSource = `x is 10
define double as:
    return n * 2
print of double of x
`

var (
	stages  []string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:          "eigendump [file.eigs]",
	Short:        "Dump the compile pipeline stages of an EigenScript file",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         dump,
}

func init() {
	rootCmd.Flags().StringSliceVarP(&stages, "stage", "s", []string{"tokens", "ast", "source", "symbols", "ir"}, "stages to print")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func dump(cmd *cobra.Command, args []string) error {
	src := testSource
	name := "<builtin>"
	if len(args) > 0 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return errors.Wrap(err, "read error")
		}
		src = string(data)
		name = args[0]
	}
	want := make(map[string]bool, len(stages))
	for _, s := range stages {
		want[s] = true
	}
	out := cmd.OutOrStdout()
	fail := func(err error) error {
		fmt.Fprint(os.Stderr, compiler.RenderError(err, name, src))
		return err
	}

	// Lex
	tokens, err := compiler.Lex(src)
	if err != nil {
		return fail(err)
	}
	if want["tokens"] {
		fmt.Fprintf(out, "Tokens (%d)\n", len(tokens))
		for _, tok := range tokens {
			fmt.Fprintln(out, " ", tok)
		}
		fmt.Fprintln(out)
	}

	// Parse
	prog, err := compiler.Parse(tokens)
	if err != nil {
		return fail(err)
	}
	if want["ast"] {
		fmt.Fprintln(out, "AST")
		for _, s := range prog.Statements {
			fmt.Fprintln(out, " ", s)
		}
		fmt.Fprintln(out)
	}
	if want["source"] {
		fmt.Fprintln(out, "Canonical Source")
		fmt.Fprint(out, compiler.Format(prog))
		fmt.Fprintln(out)
	}

	// Lowering
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	opts := compiler.DefaultOptions()
	opts.Logger = log
	unit, err := compiler.Lower(prog, opts)
	if err != nil {
		return fail(err)
	}
	if want["symbols"] {
		fmt.Fprintln(out, "Symbols")
		fmt.Fprint(out, unit.Symbols)
		fmt.Fprintln(out)
	}
	if want["ir"] {
		fmt.Fprintln(out, "Generated IR")
		fmt.Fprint(out, unit.Module)
	}
	return nil
}
