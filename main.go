package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"eigenscript/pkg/compiler"
	"eigenscript/pkg/config"
	"eigenscript/pkg/utils"
	"eigenscript/pkg/vm"

	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	cfgFile string
	verbose bool

	outPath string
	outDir  string
	jobs    int
	prune   bool

	showGlobals bool
	writeFmt    bool
)

var rootCmd = &cobra.Command{
	Use:   "eigenc",
	Short: "EigenScript compiler",
	Long: `eigenc compiles EigenScript source files to LLVM IR.

Commands:
  compile  - write <name>.ll for each source file
  run      - compile and execute a file on the reference executor
  fmt      - print a file in canonical form`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var compileCmd = &cobra.Command{
	Use:   "compile <file.eigs>...",
	Short: "Compile source files to LLVM IR",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCompile,
}

var runCmd = &cobra.Command{
	Use:   "run <file.eigs>",
	Short: "Compile and execute a source file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

var fmtCmd = &cobra.Command{
	Use:   "fmt <file.eigs>",
	Short: "Print a source file in canonical form",
	Args:  cobra.ExactArgs(1),
	RunE:  runFmt,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: eigenc.toml or eigenc.yaml next to the source)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	compileCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (single input only; default: input with .ll extension)")
	compileCmd.Flags().StringVar(&outDir, "out-dir", "", "directory for output files")
	compileCmd.Flags().IntVarP(&jobs, "jobs", "j", 4, "files compiled in parallel")
	compileCmd.Flags().BoolVar(&prune, "prune", false, "drop functions top-level code never calls")

	runCmd.Flags().BoolVar(&showGlobals, "globals", false, "print top-level variables after the run")

	fmtCmd.Flags().BoolVarP(&writeFmt, "write", "w", false, "write the result back to the file")

	rootCmd.AddCommand(compileCmd, runCmd, fmtCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var ce *compileError
		if !errors.As(err, &ce) {
			fmt.Fprintln(os.Stderr, errStyle.Render("error:"), err)
		}
		os.Exit(1)
	}
}

var (
	errStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	pathStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	outMu sync.Mutex
)

// compileError marks an error that has already been reported.
type compileError struct {
	path string
	err  error
}

func (e *compileError) Error() string { return "compilation of " + e.path + " failed" }
func (e *compileError) Unwrap() error { return e.err }

// reportError prints a compile error with a source snippet.
func reportError(path, src string, err error) error {
	rendered := compiler.RenderError(err, path, src)
	header, rest, _ := strings.Cut(rendered, "\n")
	outMu.Lock()
	defer outMu.Unlock()
	fmt.Fprintln(os.Stderr, errStyle.Render(header))
	fmt.Fprint(os.Stderr, dimStyle.Render(rest))
	fmt.Fprintln(os.Stderr)
	return &compileError{path: path, err: err}
}

// loadConfig returns the --config file, the first config file found in
// dir, or the defaults, plus a logger configured from it.
func loadConfig(dir string) (*config.Config, *logrus.Logger, error) {
	path := cfgFile
	if path == "" {
		if p, ok := config.Find(dir); ok {
			path = p
		}
	}
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, nil, err
		}
	}
	log, err := cfg.Logger()
	if err != nil {
		return nil, nil, err
	}
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	if path != "" {
		log.WithField("config", path).Debug("loaded config")
	}
	return cfg, log, nil
}

// compileFile compiles one source file and reports any compile error.
func compileFile(path string, cfg *config.Config, log logrus.FieldLogger) (*compiler.Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	opts := cfg.CompilerOptions(log.WithField("file", path))
	if prune {
		opts.Prune = true
	}
	res, err := compiler.Compile(string(src), opts)
	if err != nil {
		return nil, reportError(path, string(src), err)
	}
	return res, nil
}

func runCompile(cmd *cobra.Command, args []string) error {
	if outPath != "" && len(args) > 1 {
		return errors.New("--out needs exactly one input file")
	}
	_, dir, _, err := utils.GetPathInfo(args[0])
	if err != nil {
		return err
	}
	cfg, log, err := loadConfig(dir)
	if err != nil {
		return err
	}
	if outDir == "" {
		outDir = cfg.Compiler.OutDir
	}

	var g errgroup.Group
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for _, path := range args {
		path := path
		g.Go(func() error {
			res, err := compileFile(path, cfg, log)
			if err != nil {
				return err
			}
			out := outPath
			if out == "" {
				out = utils.OutputPath(path, outDir, ".ll")
			}
			if err := os.WriteFile(out, []byte(res.IR), 0o644); err != nil {
				return errors.Wrapf(err, "write %s", out)
			}
			outMu.Lock()
			fmt.Fprintf(cmd.OutOrStdout(), "compiled %s -> %s\n", path, pathStyle.Render(out))
			outMu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

func runRun(cmd *cobra.Command, args []string) error {
	path, dir, _, err := utils.GetPathInfo(args[0])
	if err != nil {
		return err
	}
	cfg, log, err := loadConfig(dir)
	if err != nil {
		return err
	}
	res, err := compileFile(path, cfg, log)
	if err != nil {
		return err
	}

	m := vm.New(res.Unit.Module,
		vm.WithOutput(cmd.OutOrStdout()),
		vm.WithLogger(log),
		vm.WithMaxSteps(cfg.Exec.MaxSteps),
		vm.WithMaxDepth(cfg.Exec.MaxDepth),
		vm.WithRuntime(cfg.Runtime),
	)
	code, err := m.Run(cfg.Compiler.Entry)
	if err != nil {
		return err
	}

	if showGlobals {
		printGlobals(cmd, m, res.Unit)
	}
	if code != 0 {
		os.Exit(int(code))
	}
	return nil
}

func printGlobals(cmd *cobra.Command, m *vm.Machine, unit *compiler.Unit) {
	names := make([]string, 0, len(unit.Bindings))
	for name := range unit.Bindings {
		names = append(names, name)
	}
	sort.Strings(names)

	out := cmd.OutOrStdout()
	for _, name := range names {
		b := unit.Bindings[name]
		v, err := m.Load(b.Global)
		if err != nil {
			fmt.Fprintf(out, "%-16s %s\n", name, dimStyle.Render(err.Error()))
			continue
		}
		switch b.Kind {
		case compiler.KindList:
			xs, err := m.Floats(v)
			if err != nil {
				fmt.Fprintf(out, "%-16s %s\n", name, dimStyle.Render(err.Error()))
				continue
			}
			fmt.Fprintf(out, "%-16s %v\n", name, xs)
		default:
			x, err := m.Scalar(v)
			if err != nil {
				fmt.Fprintf(out, "%-16s %s\n", name, dimStyle.Render(err.Error()))
				continue
			}
			fmt.Fprintf(out, "%-16s %g\n", name, x)
		}
	}
}

func runFmt(cmd *cobra.Command, args []string) error {
	path := args[0]
	src, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	tokens, err := compiler.Lex(string(src))
	if err != nil {
		return reportError(path, string(src), err)
	}
	prog, err := compiler.Parse(tokens)
	if err != nil {
		return reportError(path, string(src), err)
	}
	formatted := compiler.Format(prog)
	if writeFmt {
		return os.WriteFile(path, []byte(formatted), 0o644)
	}
	fmt.Fprint(cmd.OutOrStdout(), formatted)
	return nil
}
