package lp

import (
	"errors"
	"math"
)

var (
	// ErrShape is returned when bounds, objective and rows disagree on the
	// number of variables or a term references a missing column.
	ErrShape = errors.New("lp: inconsistent problem shape")

	// ErrNaN is returned when a coefficient, bound or right-hand side is NaN.
	ErrNaN = errors.New("lp: NaN in problem data")

	// ErrBounds is returned for a lower bound of +Inf or an upper bound of -Inf.
	ErrBounds = errors.New("lp: bound out of range")

	// ErrNumerical wraps simplex failures that are neither infeasibility nor
	// unboundedness (singular bases, Bland rule breakdown).
	ErrNumerical = errors.New("lp: numerical failure")
)

// Sense is the relational operator of a row.
type Sense int8

const (
	// LessEq encodes aᵀx ≤ b.
	LessEq Sense = iota
	// GreaterEq encodes aᵀx ≥ b.
	GreaterEq
	// Equal encodes aᵀx = b.
	Equal
)

// String renders the operator the way constraint strings write it.
func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	default:
		return "="
	}
}

// Term is one non-zero coefficient of a row.
type Term struct {
	Col  int
	Coef float64
}

// Row is a sparse linear constraint.
type Row struct {
	Terms []Term
	Sense Sense
	RHS   float64
}

// Satisfied reports whether x satisfies r within tol.
func (r Row) Satisfied(x []float64, tol float64) bool {
	var lhs float64
	for _, t := range r.Terms {
		lhs += t.Coef * x[t.Col]
	}
	switch r.Sense {
	case LessEq:
		return lhs <= r.RHS+tol
	case GreaterEq:
		return lhs >= r.RHS-tol
	default:
		return math.Abs(lhs-r.RHS) <= tol
	}
}

// Problem is a minimisation LP in modelling form.
// The zero value is an empty problem ready for AddVar/AddRow.
type Problem struct {
	Objective []float64
	Lower     []float64
	Upper     []float64
	Rows      []Row
}

// AddVar appends a variable with bounds [lower, upper] and objective
// coefficient obj, returning its column index.
func (p *Problem) AddVar(lower, upper, obj float64) int {
	p.Lower = append(p.Lower, lower)
	p.Upper = append(p.Upper, upper)
	p.Objective = append(p.Objective, obj)

	return len(p.Lower) - 1
}

// AddRow appends a constraint and returns its row index.
// The terms slice is retained; callers must not mutate it afterwards.
func (p *Problem) AddRow(terms []Term, sense Sense, rhs float64) int {
	p.Rows = append(p.Rows, Row{Terms: terms, Sense: sense, RHS: rhs})

	return len(p.Rows) - 1
}

// NumVars returns the number of columns.
func (p *Problem) NumVars() int { return len(p.Lower) }

// Clone returns a copy whose slices can be extended or changed independently.
// Row term slices are shared; they are treated as immutable.
func (p *Problem) Clone() *Problem {
	q := &Problem{
		Objective: append([]float64(nil), p.Objective...),
		Lower:     append([]float64(nil), p.Lower...),
		Upper:     append([]float64(nil), p.Upper...),
		Rows:      append([]Row(nil), p.Rows...),
	}

	return q
}

func (p *Problem) validate() error {
	n := len(p.Lower)
	if len(p.Upper) != n || len(p.Objective) != n {
		return ErrShape
	}
	var j int
	for j = 0; j < n; j++ {
		if math.IsNaN(p.Lower[j]) || math.IsNaN(p.Upper[j]) || math.IsNaN(p.Objective[j]) {
			return ErrNaN
		}
		if math.IsInf(p.Lower[j], 1) || math.IsInf(p.Upper[j], -1) {
			return ErrBounds
		}
	}
	for _, r := range p.Rows {
		if math.IsNaN(r.RHS) {
			return ErrNaN
		}
		for _, t := range r.Terms {
			if t.Col < 0 || t.Col >= n {
				return ErrShape
			}
			if math.IsNaN(t.Coef) {
				return ErrNaN
			}
		}
	}

	return nil
}

// Status is the outcome of an LP solve.
type Status int8

const (
	// Optimal means X is an optimal solution.
	Optimal Status = iota
	// Infeasible means no x satisfies the rows and bounds.
	Infeasible
	// Unbounded means the objective decreases without limit.
	Unbounded
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case Optimal:
		return "optimal"
	case Infeasible:
		return "infeasible"
	default:
		return "unbounded"
	}
}

// Solution holds the result of Solve. X and Objective are set only when
// Status is Optimal.
type Solution struct {
	Status    Status
	X         []float64
	Objective float64
}
