package rt

import "math"

// Predicate is a named test over the history of a tracked cell.
type Predicate func(c Tracked, cfg Config) bool

func converged(c Tracked, cfg Config) bool {
	return c.Iteration > 0 && math.Abs(c.Gradient) <= cfg.Tolerance
}

func stable(c Tracked, cfg Config) bool {
	return c.Stability >= cfg.StableWindow
}

func diverging(c Tracked, cfg Config) bool {
	return c.Iteration > 1 &&
		math.Abs(c.Gradient) > math.Abs(c.prevGradient) &&
		math.Abs(c.Gradient) > cfg.Tolerance
}

func oscillating(c Tracked, _ Config) bool {
	return c.Iteration > 1 && c.Gradient*c.prevGradient < 0
}

func improving(c Tracked, _ Config) bool {
	return c.Iteration > 1 && math.Abs(c.Gradient) < math.Abs(c.prevGradient)
}

// Predicates maps each predicate name usable in source (`converged of x`)
// to its test.
var Predicates = map[string]Predicate{
	"converged":   converged,
	"diverging":   diverging,
	"oscillating": oscillating,
	"stable":      stable,
	"improving":   improving,
}

// Check evaluates the named predicate against the cell behind r.
func (a *Arena) Check(name string, r Ref) (bool, error) {
	p, ok := Predicates[name]
	if !ok {
		return false, ErrUnknownPredicate(name)
	}
	c, err := a.cell(r)
	if err != nil {
		return false, err
	}
	return p(*c, a.cfg), nil
}

// ErrUnknownPredicate is returned by Check for a name not in Predicates.
type ErrUnknownPredicate string

func (e ErrUnknownPredicate) Error() string { return "unknown predicate " + string(e) }
