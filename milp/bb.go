package milp

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/katalvlaran/straindesign/lp"
)

// Status is the outcome of Solve.
type Status int

const (
	// Optimal: an incumbent was found and the search completed (or stopped
	// at the first solution when requested).
	Optimal Status = iota
	// Infeasible: the search completed without any integral solution.
	Infeasible
	// TimeLimitWithSolution: the budget expired after an incumbent was found.
	TimeLimitWithSolution
	// TimeLimitNoSolution: the budget expired before any incumbent.
	TimeLimitNoSolution
)

// String returns a human-readable name.
func (s Status) String() string {
	switch s {
	case Optimal:
		return "optimal"
	case Infeasible:
		return "infeasible"
	case TimeLimitWithSolution:
		return "time_limit_with_solution"
	case TimeLimitNoSolution:
		return "time_limit_no_solution"
	default:
		return "unknown"
	}
}

// HasSolution reports whether the status carries an incumbent.
func (s Status) HasSolution() bool { return s == Optimal || s == TimeLimitWithSolution }

// Result is the outcome of Solve. X and Objective are set when
// Status.HasSolution.
//
// NumericalPrunes counts nodes whose relaxation broke down numerically and
// were pruned unexplored. When it is non-zero an Optimal result is the
// best point found, not a proven optimum, and Infeasible means no point was
// found in the explored part of the tree.
type Result struct {
	Status          Status
	X               []float64
	Objective       float64
	Nodes           int
	NumericalPrunes int
}

// Bit returns the rounded value of binary column j.
func (r Result) Bit(j int) int {
	if r.X[j] >= 0.5 {
		return 1
	}

	return 0
}

// engine holds the search state of one Solve call.
type engine struct {
	m        *Model
	opt      options
	ctx      context.Context
	eps      float64
	useDL    bool
	deadline time.Time

	nodes    int
	pruned   int
	bestCost float64
	bestX    []float64
	foundAny bool

	timedOut  bool
	stopped   bool
	unbounded bool
	err       error
}

// Solve minimises m by depth-first branch and bound.
//
// Search:
//  1. Fix every binary whose bounds are equal.
//  2. Solve the relaxation of the node: binaries relaxed to [0, 1], rows of
//     indicators whose binary is fixed at the trigger value added.
//  3. Prune infeasible nodes and nodes no better than the incumbent.
//  4. Branch on the most fractional binary, else on the binary of a
//     violated indicator, exploring the rounded value first.
//  5. Otherwise the rounded point is a new incumbent.
//
// An unbounded node branches on its first free binary; with none left the
// model is unbounded. A node whose relaxation fails numerically is pruned,
// logged at Warn and counted in Result.NumericalPrunes. The time limit, the
// node limit and a context deadline all end the search with a TimeLimit
// status.
//
// Errors:
//   - lp validation errors for malformed models.
//   - ErrUnbounded if a relaxation with every binary fixed is unbounded.
//   - ctx.Err() when ctx is cancelled (a context deadline is treated as a
//     time limit).
//
// Complexity: O(2^B) relaxations in the worst case, B = number of binaries.
func Solve(ctx context.Context, m *Model, opts ...Option) (Result, error) {
	e := &engine{
		m:        m,
		opt:      gatherOptions(opts),
		ctx:      ctx,
		eps:      1e-9,
		bestCost: math.Inf(1),
	}
	if e.opt.timeLimit > 0 {
		e.useDL = true
		e.deadline = time.Now().Add(e.opt.timeLimit)
	}

	e.dfs(m.boundFixings())
	e.opt.logger.Debug("milp: search done",
		"nodes", e.nodes, "found", e.foundAny, "objective", e.bestCost, "timed_out", e.timedOut)
	if e.pruned > 0 {
		e.opt.logger.Warn("milp: nodes pruned after numerical failures", "pruned", e.pruned, "nodes", e.nodes)
	}

	if e.err != nil {
		return Result{Nodes: e.nodes, NumericalPrunes: e.pruned}, e.err
	}
	if e.unbounded {
		return Result{Nodes: e.nodes, NumericalPrunes: e.pruned}, ErrUnbounded
	}

	res := Result{Nodes: e.nodes, NumericalPrunes: e.pruned}
	switch {
	case e.foundAny && e.timedOut:
		res.Status = TimeLimitWithSolution
	case e.foundAny:
		res.Status = Optimal
	case e.timedOut:
		res.Status = TimeLimitNoSolution
	default:
		res.Status = Infeasible
	}
	if e.foundAny {
		res.X, res.Objective = e.bestX, e.bestCost
	}

	return res, nil
}

// Feasible reports whether the relaxation with the given binary fixings
// (column → 0/1) and the indicators they activate is feasible. Binaries
// absent from fix keep their model bounds.
// Errors: ErrNotBinary, lp validation errors, ctx.Err().
func Feasible(ctx context.Context, m *Model, fix map[int]int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	f := m.boundFixings()
	for j, v := range fix {
		if !m.isBinary[j] {
			return false, ErrNotBinary
		}
		f[j] = int8(v)
	}
	sol, err := lp.Solve(m.relaxation(f))
	if err != nil {
		return false, err
	}

	return sol.Status != lp.Infeasible, nil
}

// halt checks the time budget and the context.
func (e *engine) halt() bool {
	if e.stopped {
		return true
	}
	if err := e.ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			e.timedOut = true
		} else {
			e.err = err
		}
		e.stopped = true

		return true
	}
	if (e.useDL && time.Now().After(e.deadline)) || (e.opt.nodeLimit > 0 && e.nodes >= e.opt.nodeLimit) {
		e.timedOut = true
		e.stopped = true

		return true
	}

	return false
}

// commit records x as the new incumbent.
func (e *engine) commit(x []float64, cost float64) {
	e.bestX = x
	e.bestCost = cost
	e.foundAny = true
	e.opt.logger.Debug("milp: incumbent", "objective", cost, "nodes", e.nodes)
	if e.opt.firstOnly {
		e.stopped = true
	}
}

func (e *engine) dfs(fix map[int]int8) {
	if e.halt() {
		return
	}
	e.nodes++

	sol, err := lp.Solve(e.m.relaxation(fix))
	switch {
	case errors.Is(err, lp.ErrNumerical):
		e.pruned++
		e.opt.logger.Warn("milp: node pruned", "node", e.nodes, "fixed", len(fix), "err", err)

		return
	case err != nil:
		e.err = err
		e.stopped = true

		return
	}

	var j int
	switch sol.Status {
	case lp.Infeasible:
		return
	case lp.Unbounded:
		j = e.firstFree(fix)
		if j < 0 {
			e.unbounded = true
			e.stopped = true

			return
		}
		e.branch(fix, j, 1)

		return
	}

	if e.foundAny && sol.Objective >= e.bestCost-e.eps*math.Max(1, math.Abs(e.bestCost)) {
		return
	}

	if j = e.mostFractional(fix, sol.X); j < 0 {
		if j = e.violatedIndicator(fix, sol.X); j < 0 {
			e.commit(e.rounded(sol.X), sol.Objective)

			return
		}
	}
	first := 0
	if sol.X[j] >= 0.5 {
		first = 1
	}
	e.branch(fix, j, first)
}

// branch explores column j fixed at first, then at the other value.
func (e *engine) branch(fix map[int]int8, j, first int) {
	for _, v := range [2]int{first, 1 - first} {
		if e.stopped {
			return
		}
		child := make(map[int]int8, len(fix)+1)
		for k, w := range fix {
			child[k] = w
		}
		child[j] = int8(v)
		e.dfs(child)
	}
}

func (e *engine) firstFree(fix map[int]int8) int {
	for _, j := range e.m.binaries {
		if _, ok := fix[j]; !ok {
			return j
		}
	}

	return -1
}

// mostFractional returns the unfixed binary farthest from integrality,
// or -1 when all are within the tolerance.
func (e *engine) mostFractional(fix map[int]int8, x []float64) int {
	var (
		best     = -1
		bestDist = e.opt.intTol
	)
	for _, j := range e.m.binaries {
		if _, ok := fix[j]; ok {
			continue
		}
		d := math.Min(x[j], 1-x[j])
		if d > bestDist {
			best, bestDist = j, d
		}
	}

	return best
}

// violatedIndicator returns the binary of the first indicator that is
// triggered by the rounded point but not yet enforced and not satisfied.
func (e *engine) violatedIndicator(fix map[int]int8, x []float64) int {
	for _, ind := range e.m.Indicators {
		if _, ok := fix[ind.Binary]; ok {
			continue
		}
		v := 0
		if x[ind.Binary] >= 0.5 {
			v = 1
		}
		if v == ind.Value && !ind.Row.Satisfied(x, 1e-7) {
			return ind.Binary
		}
	}

	return -1
}

// rounded snaps binaries to 0/1.
func (e *engine) rounded(x []float64) []float64 {
	out := append([]float64(nil), x...)
	for _, j := range e.m.binaries {
		out[j] = math.Round(out[j])
	}

	return out
}
