// Package rt is the runtime value model that lowered EigenScript programs
// call into: an arena of tracked cells and numeric lists addressed by
// integer handles.
//
// Two bindings that hold the same handle alias one cell; updating through
// either is visible through both.
package rt

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Ref is the handle of a tracked cell. The zero Ref is the null handle.
type Ref int64

// ListRef is the handle of a list. The zero ListRef is the null handle.
type ListRef int64

var (
	// ErrNullRef is returned when an accessor is given the null handle.
	ErrNullRef = errors.New("null reference")
	// ErrBadRef is returned for a handle the arena never issued.
	ErrBadRef = errors.New("invalid reference")
)

// IndexError reports a list access outside [0, Len).
type IndexError struct {
	Index int64
	Len   int64
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("list index %d out of range [0, %d)", e.Index, e.Len)
}

// Config holds the runtime tunables.
type Config struct {
	// Tolerance is the largest |gradient| still treated as no change.
	Tolerance float64 `toml:"tolerance" yaml:"tolerance"`
	// StableWindow is the number of consecutive unchanged updates after
	// which a cell counts as stable.
	StableWindow int64 `toml:"stable_window" yaml:"stable_window"`
}

const (
	DefaultTolerance    = 1e-9
	DefaultStableWindow = 3
)

// DefaultConfig returns the default tunables.
func DefaultConfig() Config {
	return Config{Tolerance: DefaultTolerance, StableWindow: DefaultStableWindow}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	if c.Tolerance <= 0 {
		c.Tolerance = DefaultTolerance
	}
	if c.StableWindow <= 0 {
		c.StableWindow = DefaultStableWindow
	}
	return c
}

// Tracked is a numeric cell with its update history.
type Tracked struct {
	Value     float64
	Gradient  float64 // change made by the last update
	Stability int64   // consecutive updates with |Gradient| <= tolerance
	Iteration int64   // number of updates since creation

	prevGradient float64
}

// Arena owns every cell and list created during one program run.
type Arena struct {
	cfg   Config
	cells []Tracked
	lists [][]float64
}

// NewArena returns an empty arena. Zero fields of cfg take their defaults.
func NewArena(cfg Config) *Arena {
	return &Arena{
		cfg: cfg.withDefaults(),
		// Slot 0 of each table backs the null handle and is never handed out.
		cells: make([]Tracked, 1, 64),
		lists: make([][]float64, 1, 16),
	}
}

// Config returns the tunables the arena was created with.
func (a *Arena) Config() Config { return a.cfg }

// Len returns the number of live tracked cells.
func (a *Arena) Len() int { return len(a.cells) - 1 }

func (a *Arena) cell(r Ref) (*Tracked, error) {
	if r == 0 {
		return nil, ErrNullRef
	}
	if r < 0 || int(r) >= len(a.cells) {
		return nil, errors.Wrapf(ErrBadRef, "ref %d", r)
	}
	return &a.cells[r], nil
}

// Create allocates a fresh cell holding v with no history.
func (a *Arena) Create(v float64) Ref {
	a.cells = append(a.cells, Tracked{Value: v})
	return Ref(len(a.cells) - 1)
}

// Update stores v in the cell behind r and records the change.
func (a *Arena) Update(r Ref, v float64) error {
	c, err := a.cell(r)
	if err != nil {
		return errors.Wrap(err, "update")
	}
	c.prevGradient = c.Gradient
	c.Gradient = v - c.Value
	c.Value = v
	c.Iteration++
	if math.Abs(c.Gradient) <= a.cfg.Tolerance {
		c.Stability++
	} else {
		c.Stability = 0
	}
	return nil
}

// Get returns a copy of the cell behind r.
func (a *Arena) Get(r Ref) (Tracked, error) {
	c, err := a.cell(r)
	if err != nil {
		return Tracked{}, err
	}
	return *c, nil
}

// Value returns the current value of r.
func (a *Arena) Value(r Ref) (float64, error) {
	c, err := a.cell(r)
	if err != nil {
		return 0, err
	}
	return c.Value, nil
}

// Gradient returns the change made by the last update of r.
func (a *Arena) Gradient(r Ref) (float64, error) {
	c, err := a.cell(r)
	if err != nil {
		return 0, err
	}
	return c.Gradient, nil
}

// Stability returns the stable-update count of r as a scalar.
func (a *Arena) Stability(r Ref) (float64, error) {
	c, err := a.cell(r)
	if err != nil {
		return 0, err
	}
	return float64(c.Stability), nil
}

// Iteration returns the update count of r.
func (a *Arena) Iteration(r Ref) (int64, error) {
	c, err := a.cell(r)
	if err != nil {
		return 0, err
	}
	return c.Iteration, nil
}

// Identity returns a number that is equal for two bindings exactly when
// they alias the same cell.
func (a *Arena) Identity(r Ref) (int64, error) {
	if _, err := a.cell(r); err != nil {
		return 0, err
	}
	return int64(r), nil
}
