package sdmilp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/katalvlaran/straindesign/lp"
	"github.com/katalvlaran/straindesign/milp"
)

// ErrUnknownMode is returned by ParseMode.
var ErrUnknownMode = errors.New("sdmilp: unknown solution approach")

// Mode selects how designs are searched.
type Mode int8

const (
	// Any returns the first feasible design; without a nested module the
	// design is reduced until it is irreducible.
	Any Mode = iota
	// Best returns a globally optimal design.
	Best
	// Populate enumerates optimal designs one by one, excluding supersets
	// of every design already found.
	Populate
)

// String returns the approach name.
func (m Mode) String() string {
	switch m {
	case Any:
		return "any"
	case Best:
		return "best"
	case Populate:
		return "populate"
	default:
		return "unknown"
	}
}

// ParseMode parses "any", "best" or "populate".
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{Any, Best, Populate} {
		if m.String() == s {
			return m, nil
		}
	}

	return 0, fmt.Errorf("%q: %w", s, ErrUnknownMode)
}

// Status is the terminal state of a solve.
type Status int8

// Solve outcomes; only the time-limit states distinguish an interrupted
// search from a completed one.
const (
	Optimal Status = iota
	TimeLimitWithSolution
	Infeasible
	TimeLimitNoSolution
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Optimal:
		return "OPTIMAL"
	case TimeLimitWithSolution:
		return "TIME_LIMIT_WITH_SOLUTION"
	case Infeasible:
		return "INFEASIBLE"
	case TimeLimitNoSolution:
		return "TIME_LIMIT_NO_SOLUTION"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Design maps candidate ids to markers: -1 knocked out, +1 knocked in,
// 0 knock-in candidate left out. Untouched knockout candidates are absent.
type Design map[string]int

// Result is the outcome of Formulation.Solve. NumericalPrunes sums the
// branch-and-bound nodes dropped after numerical failures over every
// solve; a non-zero value weakens OPTIMAL and INFEASIBLE to "within the
// explored tree".
type Result struct {
	Designs         []Design
	Status          Status
	NumericalPrunes int
}

// Solve searches up to maxSolutions designs in mode.
//
// Every mode runs the same loop: solve, record the design, add a cut that
// excludes it and its supersets, repeat. The modes differ per solve:
//
//	any       stops each solve at the first integral point; without a
//	          nested module the design is then reduced to an irreducible one.
//	best      solves each MILP to optimality.
//	populate  as best; the designs come out in order of non-decreasing
//	          objective.
//
// maxSolutions ≤ 0 means one. timeLimit ≤ 0 means unlimited; otherwise it
// is one deadline for the whole loop. The exclusion cuts stay in the
// formulation.
//
// Errors: milp.ErrUnbounded (wrapped), lp errors, context cancellation.
func (f *Formulation) Solve(ctx context.Context, mode Mode, maxSolutions int, timeLimit time.Duration) (Result, error) {
	if maxSolutions <= 0 {
		maxSolutions = 1
	}
	var (
		deadline time.Time
		res      Result
		timedOut bool
	)
	if timeLimit > 0 {
		deadline = time.Now().Add(timeLimit)
	}

	for len(res.Designs) < maxSolutions {
		opts := []milp.Option{milp.WithLogger(f.logger)}
		if mode == Any {
			opts = append(opts, milp.WithFirstFeasible())
		}
		if !deadline.IsZero() {
			left := time.Until(deadline)
			if left <= 0 {
				timedOut = true
				break
			}
			opts = append(opts, milp.WithTimeLimit(left))
		}

		out, err := milp.Solve(ctx, f.model, opts...)
		if err != nil {
			return Result{}, fmt.Errorf("solve: %w", err)
		}
		res.NumericalPrunes += out.NumericalPrunes
		if out.Status == milp.TimeLimitWithSolution || out.Status == milp.TimeLimitNoSolution {
			timedOut = true
		}
		if !out.Status.HasSolution() {
			break
		}

		bits := f.bits(out)
		if mode == Any && !f.nested {
			if bits, err = f.reduce(ctx, bits); err != nil {
				return Result{}, err
			}
		}
		d := f.design(bits)
		res.Designs = append(res.Designs, d)
		f.logger.Debug("sdmilp: design found", "n", len(res.Designs), "interventions", f.interventions(bits))
		if timedOut || len(res.Designs) >= maxSolutions || !f.exclude(bits) {
			break
		}
	}

	switch {
	case len(res.Designs) > 0 && timedOut:
		res.Status = TimeLimitWithSolution
	case len(res.Designs) > 0:
		res.Status = Optimal
	case timedOut:
		res.Status = TimeLimitNoSolution
	default:
		res.Status = Infeasible
	}
	if res.NumericalPrunes > 0 {
		f.logger.Warn("sdmilp: search pruned nodes numerically",
			"pruned", res.NumericalPrunes, "status", res.Status.String())
	}

	return res, nil
}

// bits returns the rounded decision of every candidate.
func (f *Formulation) bits(out milp.Result) []int {
	b := make([]int, len(f.cands))
	for i, c := range f.cands {
		b[i] = out.Bit(c.bin)
	}

	return b
}

func intervened(c candidate, bit int) bool { return c.ko == (bit == 0) }

func (f *Formulation) interventions(bits []int) int {
	n := 0
	for i, c := range f.cands {
		if intervened(c, bits[i]) {
			n++
		}
	}

	return n
}

func (f *Formulation) design(bits []int) Design {
	d := make(Design)
	for i, c := range f.cands {
		switch {
		case c.ko && bits[i] == 0:
			d[c.id] = -1
		case !c.ko && bits[i] == 1:
			d[c.id] = 1
		case !c.ko:
			d[c.id] = 0
		}
	}

	return d
}

// reduce reverts interventions one at a time, in candidate order, while
// the remaining design stays feasible. A numerically failed check keeps the
// intervention.
func (f *Formulation) reduce(ctx context.Context, bits []int) ([]int, error) {
	fix := make(map[int]int, len(bits))
	for i, c := range f.cands {
		fix[c.bin] = bits[i]
	}
	for i, c := range f.cands {
		if !intervened(c, bits[i]) || f.model.Lower[c.bin] == f.model.Upper[c.bin] {
			continue
		}
		fix[c.bin] = 1 - bits[i]
		ok, err := milp.Feasible(ctx, f.model, fix)
		switch {
		case errors.Is(err, lp.ErrNumerical):
			ok = false
		case err != nil:
			return nil, err
		}
		if ok {
			bits[i] = 1 - bits[i]
		} else {
			fix[c.bin] = bits[i]
		}
	}

	return bits, nil
}

// exclude adds a cut removing the design and all its supersets. It returns
// false when the design has no intervention, since the cut would leave
// nothing.
func (f *Formulation) exclude(bits []int) bool {
	var (
		terms []lp.Term
		size  int
		rhs   float64
	)
	for i, c := range f.cands {
		if !intervened(c, bits[i]) {
			continue
		}
		size++
		// Σ intervened ≤ size − 1, intervened = 1 − y (knockout) or y
		if c.ko {
			terms = append(terms, lp.Term{Col: c.bin, Coef: -1})
			rhs--
		} else {
			terms = append(terms, lp.Term{Col: c.bin, Coef: 1})
		}
	}
	if size == 0 {
		return false
	}
	f.model.AddRow(terms, lp.LessEq, float64(size-1)+rhs)

	return true
}

// NumCandidates returns the number of decision binaries.
func (f *Formulation) NumCandidates() int { return len(f.cands) }
