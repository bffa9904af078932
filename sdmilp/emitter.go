package sdmilp

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/straindesign/lp"
	"github.com/katalvlaran/straindesign/milp"
)

// ErrUnknownSolver is returned by Capabilities for an unsupported solver id.
var ErrUnknownSolver = errors.New("sdmilp: unknown solver")

// Solver identifiers.
const (
	SolverBnB     = "bnb"
	SolverBnBBigM = "bnb-bigm"
)

// DefaultBigM is the big-M constant of solvers with exact numerics.
const DefaultBigM = 1000.0

// Capability describes what a solver backend supports.
type Capability struct {
	Solver     string
	Indicators bool
	BigM       float64
}

// Capabilities returns the capability descriptor of solver.
// Errors: ErrUnknownSolver.
func Capabilities(solver string) (Capability, error) {
	switch solver {
	case SolverBnB:
		return Capability{Solver: solver, Indicators: true, BigM: math.Inf(1)}, nil
	case SolverBnBBigM:
		return Capability{Solver: solver, BigM: DefaultBigM}, nil
	default:
		return Capability{}, fmt.Errorf("%q: %w", solver, ErrUnknownSolver)
	}
}

// Emitter writes gating constraints into a model.
type Emitter interface {
	// Gate makes column x zero when binary b equals zeroAt and keeps it
	// within [lo, hi] otherwise. The column bounds must already contain
	// [min(lo,0), max(hi,0)].
	Gate(m *milp.Model, b, zeroAt, x int, lo, hi float64) error
	// M returns the big-M constant, +Inf for indicator emitters.
	M() float64
}

// NewEmitter selects the emitter for c. A finite positive override forces
// big-M rows with that constant.
func NewEmitter(c Capability, override float64) Emitter {
	switch {
	case override > 0 && !math.IsInf(override, 1):
		return bigM{m: override}
	case c.Indicators || math.IsInf(c.BigM, 1):
		return indicator{}
	default:
		return bigM{m: c.BigM}
	}
}

type indicator struct{}

func (indicator) M() float64 { return math.Inf(1) }

// Gate writes x = 0 as an indicator on the closed side, plus the bound
// indicators a bound excluding zero needs. Finite bounds are also written
// as the linear rows of gateRows so the relaxation sees the coupling before
// b is fixed.
func (indicator) Gate(m *milp.Model, b, zeroAt, x int, lo, hi float64) error {
	term := []lp.Term{{Col: x, Coef: 1}}
	if err := m.AddIndicator(b, zeroAt, lp.Row{Terms: term, Sense: lp.Equal}); err != nil {
		return err
	}
	if lo > 0 {
		if err := m.AddIndicator(b, 1-zeroAt, lp.Row{Terms: term, Sense: lp.GreaterEq, RHS: lo}); err != nil {
			return err
		}
	}
	if hi < 0 {
		if err := m.AddIndicator(b, 1-zeroAt, lp.Row{Terms: term, Sense: lp.LessEq, RHS: hi}); err != nil {
			return err
		}
	}
	gateRows(m, b, zeroAt, x, lo, hi)

	return nil
}

type bigM struct{ m float64 }

func (e bigM) M() float64 { return e.m }

// Gate writes the rows of gateRows with the bounds capped at ±M.
func (e bigM) Gate(m *milp.Model, b, zeroAt, x int, lo, hi float64) error {
	if !m.IsBinary(b) {
		return milp.ErrNotBinary
	}
	gateRows(m, b, zeroAt, x, math.Max(lo, -e.m), math.Min(hi, e.m))

	return nil
}

// gateRows writes x ≤ hi·open and x ≥ lo·open, open = b (zeroAt 0) or
// 1 − b (zeroAt 1). Infinite bounds are skipped.
func gateRows(m *milp.Model, b, zeroAt, x int, lo, hi float64) {
	if !math.IsInf(hi, 1) {
		if zeroAt == 0 {
			m.AddRow([]lp.Term{{Col: x, Coef: 1}, {Col: b, Coef: -hi}}, lp.LessEq, 0)
		} else {
			m.AddRow([]lp.Term{{Col: x, Coef: 1}, {Col: b, Coef: hi}}, lp.LessEq, hi)
		}
	}
	if !math.IsInf(lo, -1) {
		if zeroAt == 0 {
			m.AddRow([]lp.Term{{Col: x, Coef: 1}, {Col: b, Coef: -lo}}, lp.GreaterEq, 0)
		} else {
			m.AddRow([]lp.Term{{Col: x, Coef: 1}, {Col: b, Coef: lo}}, lp.GreaterEq, lo)
		}
	}
}
