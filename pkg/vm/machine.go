// Package vm executes lowered EigenScript modules. It interprets the subset
// of LLVM IR the compiler emits and binds every external runtime symbol to
// the value model in package rt.
package vm

import (
	"fmt"
	"io"
	"math"
	"os"

	"eigenscript/pkg/rt"

	"github.com/google/uuid"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/value"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DefaultMaxSteps = 10_000_000
	DefaultMaxDepth = 10_000
)

var (
	// ErrStepLimit is returned when a run executes more than MaxSteps
	// instructions.
	ErrStepLimit = errors.New("step limit exceeded")
	// ErrCallDepth is returned when calls nest deeper than MaxDepth.
	ErrCallDepth = errors.New("call depth exceeded")
	// ErrUnreachable is returned when control reaches an unreachable
	// terminator.
	ErrUnreachable = errors.New("reached unreachable code")
)

// RuntimeError locates a failure inside the executed module.
type RuntimeError struct {
	Func  string
	Block string
	Err   error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error in %s (%s): %v", e.Func, e.Block, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

// Machine interprets one module. It is not safe for concurrent use.
type Machine struct {
	Module *ir.Module
	Arena  *rt.Arena

	// Output is where eigen_print and eigen_print_str write.
	// If nil, os.Stdout is used.
	Output io.Writer

	MaxSteps int // 0 disables the limit
	MaxDepth int
	RunID    uuid.UUID

	log     logrus.FieldLogger
	globals map[*ir.Global]*Cell
	funcs   map[string]*ir.Func
	steps   int
	depth   int
}

// Option configures a Machine.
type Option func(*Machine)

func WithOutput(w io.Writer) Option { return func(m *Machine) { m.Output = w } }

func WithLogger(l logrus.FieldLogger) Option { return func(m *Machine) { m.log = l } }

func WithMaxSteps(n int) Option { return func(m *Machine) { m.MaxSteps = n } }

func WithMaxDepth(n int) Option { return func(m *Machine) { m.MaxDepth = n } }

// WithRuntime replaces the arena with a fresh one using cfg.
func WithRuntime(cfg rt.Config) Option {
	return func(m *Machine) { m.Arena = rt.NewArena(cfg) }
}

// New prepares mod for execution. Globals are initialised immediately.
func New(mod *ir.Module, opts ...Option) *Machine {
	m := &Machine{
		Module:   mod,
		Arena:    rt.NewArena(rt.DefaultConfig()),
		MaxSteps: DefaultMaxSteps,
		MaxDepth: DefaultMaxDepth,
		RunID:    uuid.New(),
		log:      logrus.StandardLogger(),
		globals:  make(map[*ir.Global]*Cell),
		funcs:    make(map[string]*ir.Func),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.WithField("run", m.RunID.String())

	for _, f := range mod.Funcs {
		m.funcs[f.Name()] = f
	}
	for _, g := range mod.Globals {
		m.globals[g] = &Cell{V: null}
	}
	for _, g := range mod.Globals {
		if g.Init == nil {
			continue
		}
		v, err := m.constant(g.Init)
		if err != nil {
			m.log.WithError(err).WithField("global", g.Name()).Warn("cannot initialise global")
			continue
		}
		m.globals[g].V = v
	}
	return m
}

func (m *Machine) outputSink() io.Writer {
	if m.Output != nil {
		return m.Output
	}
	return os.Stdout
}

// Run calls the entry function and returns its exit code.
func (m *Machine) Run(entry string) (int32, error) {
	m.steps = 0
	m.log.WithField("entry", entry).Debug("run start")
	v, err := m.Call(entry)
	if err != nil {
		m.log.WithError(err).WithField("steps", m.steps).Debug("run failed")
		return 0, err
	}
	code, err := v.int()
	if err != nil {
		return 0, errors.Wrapf(err, "%s returned", entry)
	}
	m.log.WithFields(logrus.Fields{"steps": m.steps, "code": code}).Debug("run finished")
	return int32(code), nil
}

// Call invokes the named function with args.
func (m *Machine) Call(name string, args ...Value) (Value, error) {
	f, ok := m.funcs[name]
	if !ok {
		return Value{}, errors.Errorf("no function %q", name)
	}
	return m.call(f, args)
}

// Load returns the current contents of a global.
func (m *Machine) Load(g *ir.Global) (Value, error) {
	c, ok := m.globals[g]
	if !ok {
		return Value{}, errors.Errorf("global %s is not part of the module", g.Name())
	}
	return c.V, nil
}

// Global returns the current contents of the global called name.
func (m *Machine) Global(name string) (Value, error) {
	for g, c := range m.globals {
		if g.Name() == name {
			return c.V, nil
		}
	}
	return Value{}, errors.Errorf("no global %q", name)
}

// Scalar returns the number v stands for: a float itself, or the current
// value of the cell a reference points to.
func (m *Machine) Scalar(v Value) (float64, error) {
	switch v.Kind {
	case KindFloat:
		return v.F, nil
	case KindRef, KindNull:
		r, _ := v.ref()
		return m.Arena.Value(r)
	}
	return 0, errors.Errorf("%s is not a number", v.Kind)
}

// Floats returns the elements of the list v points to.
func (m *Machine) Floats(v Value) ([]float64, error) {
	l, err := v.listRef()
	if err != nil {
		return nil, err
	}
	return m.Arena.ListValues(l)
}

type frame struct {
	vals map[value.Value]Value
}

func (m *Machine) call(f *ir.Func, args []Value) (Value, error) {
	if len(args) != len(f.Params) {
		return Value{}, errors.Errorf("%s takes %d arguments, got %d", f.Name(), len(f.Params), len(args))
	}
	if len(f.Blocks) == 0 {
		return m.external(f.Name(), args)
	}
	if m.MaxDepth > 0 && m.depth >= m.MaxDepth {
		return Value{}, &RuntimeError{Func: f.Name(), Block: "entry", Err: ErrCallDepth}
	}
	m.depth++
	defer func() { m.depth-- }()

	fr := &frame{vals: make(map[value.Value]Value)}
	for i, p := range f.Params {
		fr.vals[p] = args[i]
	}

	b := f.Blocks[0]
	for {
		for _, inst := range b.Insts {
			if err := m.tick(); err != nil {
				return Value{}, locate(f, b, err)
			}
			if err := m.exec(fr, inst); err != nil {
				return Value{}, locate(f, b, err)
			}
		}
		if err := m.tick(); err != nil {
			return Value{}, locate(f, b, err)
		}

		switch t := b.Term.(type) {
		case *ir.TermRet:
			if t.X == nil {
				return void, nil
			}
			v, err := m.operand(fr, t.X)
			if err != nil {
				return Value{}, locate(f, b, err)
			}
			return v, nil
		case *ir.TermBr:
			next, err := target(t.Target)
			if err != nil {
				return Value{}, locate(f, b, err)
			}
			b = next
		case *ir.TermCondBr:
			c, err := m.operand(fr, t.Cond)
			if err != nil {
				return Value{}, locate(f, b, err)
			}
			dest := any(t.TargetFalse)
			if c.Kind == KindBool && c.B {
				dest = t.TargetTrue
			}
			next, err := target(dest)
			if err != nil {
				return Value{}, locate(f, b, err)
			}
			b = next
		case *ir.TermUnreachable:
			return Value{}, locate(f, b, ErrUnreachable)
		default:
			return Value{}, locate(f, b, errors.Errorf("unsupported terminator %T", b.Term))
		}
	}
}

func (m *Machine) tick() error {
	m.steps++
	if m.MaxSteps > 0 && m.steps > m.MaxSteps {
		return ErrStepLimit
	}
	return nil
}

// locate wraps err with its function and block unless an inner frame
// already did.
func locate(f *ir.Func, b *ir.Block, err error) error {
	var re *RuntimeError
	if errors.As(err, &re) {
		return err
	}
	return &RuntimeError{Func: f.Name(), Block: b.Name(), Err: err}
}

// target resolves a branch target.
func target(v any) (*ir.Block, error) {
	if b, ok := v.(*ir.Block); ok && b != nil {
		return b, nil
	}
	return nil, errors.Errorf("branch target %v is not a block", v)
}

func (m *Machine) exec(fr *frame, inst ir.Instruction) error {
	switch i := inst.(type) {
	case *ir.InstAlloca:
		fr.vals[i] = Value{Kind: KindSlot, Slot: &Cell{V: null}}

	case *ir.InstLoad:
		p, err := m.operand(fr, i.Src)
		if err != nil {
			return err
		}
		c, err := p.slot()
		if err != nil {
			return errors.Wrap(err, "load")
		}
		fr.vals[i] = c.V

	case *ir.InstStore:
		v, err := m.operand(fr, i.Src)
		if err != nil {
			return err
		}
		p, err := m.operand(fr, i.Dst)
		if err != nil {
			return err
		}
		c, err := p.slot()
		if err != nil {
			return errors.Wrap(err, "store")
		}
		c.V = v

	case *ir.InstCall:
		callee, ok := i.Callee.(*ir.Func)
		if !ok {
			return errors.Errorf("indirect call through %T", i.Callee)
		}
		args := make([]Value, len(i.Args))
		for n, a := range i.Args {
			v, err := m.operand(fr, a)
			if err != nil {
				return err
			}
			args[n] = v
		}
		res, err := m.call(callee, args)
		if err != nil {
			return err
		}
		fr.vals[i] = res

	case *ir.InstFAdd:
		return m.arith(fr, i, i.X, i.Y, func(x, y float64) float64 { return x + y })
	case *ir.InstFSub:
		return m.arith(fr, i, i.X, i.Y, func(x, y float64) float64 { return x - y })
	case *ir.InstFMul:
		return m.arith(fr, i, i.X, i.Y, func(x, y float64) float64 { return x * y })
	case *ir.InstFDiv:
		return m.arith(fr, i, i.X, i.Y, func(x, y float64) float64 { return x / y })

	case *ir.InstFCmp:
		x, err := m.floatOperand(fr, i.X)
		if err != nil {
			return err
		}
		y, err := m.floatOperand(fr, i.Y)
		if err != nil {
			return err
		}
		r, err := fcmp(i.Pred, x, y)
		if err != nil {
			return err
		}
		fr.vals[i] = Bool(r)

	case *ir.InstICmp:
		x, err := m.operand(fr, i.X)
		if err != nil {
			return err
		}
		y, err := m.operand(fr, i.Y)
		if err != nil {
			return err
		}
		hx, err := x.handle()
		if err != nil {
			return errors.Wrap(err, "icmp")
		}
		hy, err := y.handle()
		if err != nil {
			return errors.Wrap(err, "icmp")
		}
		if i.Pred != enum.IPredEQ {
			return errors.Errorf("unsupported icmp predicate %v", i.Pred)
		}
		fr.vals[i] = Bool(hx == hy)

	case *ir.InstUIToFP:
		v, err := m.operand(fr, i.From)
		if err != nil {
			return err
		}
		n, err := v.int()
		if err != nil {
			return errors.Wrap(err, "uitofp")
		}
		fr.vals[i] = Float(float64(uint64(n)))

	case *ir.InstSIToFP:
		v, err := m.operand(fr, i.From)
		if err != nil {
			return err
		}
		n, err := v.int()
		if err != nil {
			return errors.Wrap(err, "sitofp")
		}
		fr.vals[i] = Float(float64(n))

	case *ir.InstFPToSI:
		x, err := m.floatOperand(fr, i.From)
		if err != nil {
			return err
		}
		if math.IsNaN(x) || math.IsInf(x, 0) || math.Abs(x) >= 1<<63 {
			return errors.Errorf("fptosi: %v has no integer form", x)
		}
		fr.vals[i] = Int(int64(x))

	default:
		return errors.Errorf("unsupported instruction %T", inst)
	}
	return nil
}

func (m *Machine) arith(fr *frame, dst value.Value, xv, yv value.Value, op func(x, y float64) float64) error {
	x, err := m.floatOperand(fr, xv)
	if err != nil {
		return err
	}
	y, err := m.floatOperand(fr, yv)
	if err != nil {
		return err
	}
	fr.vals[dst] = Float(op(x, y))
	return nil
}

func fcmp(pred enum.FPred, x, y float64) (bool, error) {
	unordered := math.IsNaN(x) || math.IsNaN(y)
	switch pred {
	case enum.FPredOEQ:
		return !unordered && x == y, nil
	case enum.FPredONE:
		return !unordered && x != y, nil
	case enum.FPredOLT:
		return !unordered && x < y, nil
	case enum.FPredOGT:
		return !unordered && x > y, nil
	}
	return false, errors.Errorf("unsupported fcmp predicate %v", pred)
}

func (m *Machine) floatOperand(fr *frame, v value.Value) (float64, error) {
	x, err := m.operand(fr, v)
	if err != nil {
		return 0, err
	}
	return x.float()
}

// operand evaluates an instruction operand.
func (m *Machine) operand(fr *frame, v value.Value) (Value, error) {
	if c, ok := v.(constant.Constant); ok {
		return m.constant(c)
	}
	if x, ok := fr.vals[v]; ok {
		return x, nil
	}
	return Value{}, errors.Errorf("use of undefined value %s", v.Ident())
}

func (m *Machine) constant(c constant.Constant) (Value, error) {
	switch c := c.(type) {
	case *ir.Global:
		cell, ok := m.globals[c]
		if !ok {
			return Value{}, errors.Errorf("unknown global %s", c.Name())
		}
		return Value{Kind: KindSlot, Slot: cell}, nil
	case *constant.Float:
		f, _ := c.X.Float64()
		return Float(f), nil
	case *constant.Int:
		if c.Typ.BitSize == 1 {
			return Bool(c.X.Sign() != 0), nil
		}
		return Int(c.X.Int64()), nil
	case *constant.Null:
		return null, nil
	case *constant.CharArray:
		s := string(c.X)
		if n := len(s); n > 0 && s[n-1] == 0 {
			s = s[:n-1]
		}
		return Value{Kind: KindString, S: s}, nil
	case *constant.ExprBitCast:
		return m.constant(c.From)
	}
	return Value{}, errors.Errorf("unsupported constant %T", c)
}
