package lp

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/lapack/gonum"
	"gonum.org/v1/gonum/mat"
	gonumlp "gonum.org/v1/gonum/optimize/convex/lp"
)

// substitution expresses an original variable through standard columns:
// x = offset + Σ signs[k]·y[cols[k]] for k < n.
type substitution struct {
	offset float64
	cols   [2]int
	signs  [2]float64
	n      int
}

type stdRow struct {
	coef map[int]float64
	rhs  float64
}

// standardForm is the intermediate A·y = b, y ≥ 0 representation.
type standardForm struct {
	tol  float64
	subs []substitution
	cost []float64
	rows []stdRow
}

// Solve minimises p and returns the optimal point in p's variable space.
//
// Stages:
//  1. Validate shape and NaNs.
//  2. Substitute variables (shift by a finite bound, mirror, or split) and
//     add slacks to inequalities.
//  3. Drop empty rows, detecting 0 = b with b ≠ 0.
//  4. Drop empty columns (an empty column with negative cost makes any
//     feasible problem unbounded).
//  5. Scale rows and columns to unit max-norm, decide feasibility with an
//     artificial phase 1 over every row, then optimise over a pivoted-QR
//     row basis with a big-M phase 2. Both phases start from the identity
//     basis of the artificials, so gonum never searches for a start.
//
// Fixed variables (lower == upper within tol) are substituted in stage 2
// and never reach the simplex.
//
// Errors: ErrShape, ErrNaN, ErrBounds for malformed input; ErrNumerical
// (wrapping the gonum error or panic) when the simplex breaks down twice.
func Solve(p *Problem, opts ...Option) (Solution, error) {
	o := gatherOptions(opts)
	if err := p.validate(); err != nil {
		return Solution{}, err
	}

	sf, ok := newStandardForm(p, o.tol)
	if !ok {
		return Solution{Status: Infeasible}, nil
	}
	y, status, err := sf.solve()
	if err != nil {
		return Solution{}, err
	}
	if status != Optimal {
		return Solution{Status: status}, nil
	}

	x := sf.recover(y)
	var obj float64
	for j, c := range p.Objective {
		obj += c * x[j]
	}

	return Solution{Status: Optimal, X: x, Objective: obj}, nil
}

// newStandardForm performs stage 2. It returns ok=false when a variable has
// crossing bounds.
func newStandardForm(p *Problem, tol float64) (*standardForm, bool) {
	sf := &standardForm{tol: tol, subs: make([]substitution, len(p.Lower))}

	var (
		j      int
		lo, hi float64
		c      float64
	)
	for j = 0; j < len(p.Lower); j++ {
		lo, hi, c = p.Lower[j], p.Upper[j], p.Objective[j]
		if lo > hi+tol {
			return nil, false
		}
		finLo, finHi := !math.IsInf(lo, 0), !math.IsInf(hi, 0)
		switch {
		case finLo && finHi && hi-lo <= tol:
			sf.subs[j] = substitution{offset: lo}
		case finLo:
			col := sf.newCol(c)
			sf.subs[j] = substitution{offset: lo, cols: [2]int{col}, signs: [2]float64{1}, n: 1}
			if finHi {
				sf.addRow(map[int]float64{col: 1}, LessEq, hi-lo)
			}
		case finHi:
			col := sf.newCol(-c)
			sf.subs[j] = substitution{offset: hi, cols: [2]int{col}, signs: [2]float64{-1}, n: 1}
		default:
			pos := sf.newCol(c)
			neg := sf.newCol(-c)
			sf.subs[j] = substitution{cols: [2]int{pos, neg}, signs: [2]float64{1, -1}, n: 2}
		}
	}

	var k int
	for _, r := range p.Rows {
		coef := make(map[int]float64, len(r.Terms))
		rhs := r.RHS
		for _, t := range r.Terms {
			s := sf.subs[t.Col]
			rhs -= t.Coef * s.offset
			for k = 0; k < s.n; k++ {
				coef[s.cols[k]] += t.Coef * s.signs[k]
			}
		}
		sf.addRow(coef, r.Sense, rhs)
	}

	return sf, true
}

func (sf *standardForm) newCol(cost float64) int {
	sf.cost = append(sf.cost, cost)

	return len(sf.cost) - 1
}

// addRow stores an equality row, appending a slack column for inequalities.
func (sf *standardForm) addRow(coef map[int]float64, sense Sense, rhs float64) {
	for c, v := range coef {
		if math.Abs(v) < 1e-15 {
			delete(coef, c)
		}
	}
	switch sense {
	case LessEq:
		coef[sf.newCol(0)] = 1
	case GreaterEq:
		coef[sf.newCol(0)] = -1
	}
	sf.rows = append(sf.rows, stdRow{coef: coef, rhs: rhs})
}

// solve runs stages 3–5 and returns y over all standard columns.
func (sf *standardForm) solve() ([]float64, Status, error) {
	nAll := len(sf.cost)

	// Stage 3a: empty rows must have a zero right-hand side.
	rows := make([]stdRow, 0, len(sf.rows))
	for _, r := range sf.rows {
		if len(r.coef) == 0 {
			if math.Abs(r.rhs) > sf.tol*(1+math.Abs(r.rhs)) {
				return nil, Infeasible, nil
			}
			continue
		}
		rows = append(rows, r)
	}

	// Stage 4: compact the used columns.
	used := make([]bool, nAll)
	for _, r := range rows {
		for c := range r.coef {
			used[c] = true
		}
	}
	var (
		cols         []int
		unboundedCol bool
		c            int
	)
	for c = 0; c < nAll; c++ {
		if used[c] {
			cols = append(cols, c)
		} else if sf.cost[c] < -sf.tol {
			unboundedCol = true
		}
	}

	y := make([]float64, nAll)
	if len(rows) > 0 {
		sys := newScaled(rows, cols, sf.cost)
		yc, status, err := sys.solve(sf.tol)
		if err != nil || status != Optimal {
			return nil, status, err
		}
		for k, col := range cols {
			y[col] = yc[k]
		}
	}
	if unboundedCol {
		return nil, Unbounded, nil
	}

	return y, Optimal, nil
}

// recover maps standard columns back to the modelling variables.
func (sf *standardForm) recover(y []float64) []float64 {
	x := make([]float64, len(sf.subs))
	var k int
	for j, s := range sf.subs {
		x[j] = s.offset
		for k = 0; k < s.n; k++ {
			x[j] += s.signs[k] * y[s.cols[k]]
		}
	}

	return x
}

// scaled is min cᵀy, A·y = b, y ≥ 0 with b ≥ 0 and rows and columns
// scaled to a unit max-norm. y = yScaled / colScale.
type scaled struct {
	a        *mat.Dense
	b        []float64
	cost     []float64
	colScale []float64
}

func newScaled(rows []stdRow, cols []int, cost []float64) *scaled {
	m, n := len(rows), len(cols)
	pos := make(map[int]int, n)
	for k, col := range cols {
		pos[col] = k
	}
	s := &scaled{a: mat.NewDense(m, n, nil), b: make([]float64, m), cost: make([]float64, n), colScale: make([]float64, n)}
	for i, r := range rows {
		sign, norm := 1.0, 0.0
		if r.rhs < 0 {
			sign = -1
		}
		for _, v := range r.coef {
			norm = math.Max(norm, math.Abs(v))
		}
		for col, v := range r.coef {
			s.a.Set(i, pos[col], sign*v/norm)
		}
		s.b[i] = sign * r.rhs / norm
	}
	for k, col := range cols {
		norm := 0.0
		for i := 0; i < m; i++ {
			norm = math.Max(norm, math.Abs(s.a.At(i, k)))
		}
		for i := 0; i < m; i++ {
			s.a.Set(i, k, s.a.At(i, k)/norm)
		}
		s.colScale[k] = norm
		s.cost[k] = cost[col] / norm
	}

	return s
}

// bigMFactors are the artificial penalties tried in phase 2, relative to
// the largest scaled cost.
var bigMFactors = []float64{1e3, 1e6, 1e9}

// solve runs both phases over the artificial start [A | I].
//
// Phase 1 minimises the artificials over all rows and decides
// feasibility. Phase 2 keeps a row basis chosen by pivoted QR and
// minimises cᵀy + M·Σ artificials, raising M until the artificials vanish.
func (s *scaled) solve(tol float64) ([]float64, Status, error) {
	m, n := s.a.Dims()
	var bMax float64
	for _, v := range s.b {
		bMax = math.Max(bMax, v)
	}
	feasTol := 1e-7 * (1 + bMax)

	phase1 := make([]float64, n+m)
	for i := 0; i < m; i++ {
		phase1[n+i] = 1
	}
	x, err := artificialSimplex(phase1, s.a, s.b, tol, func(x []float64) bool {
		return artificialSum(x, n) <= feasTol
	})
	if err != nil {
		return nil, Optimal, err
	}
	if artificialSum(x, n) > feasTol {
		return nil, Infeasible, nil
	}

	keep := independentRows(s.a)
	a, b, active := restrict(s.a, s.b, keep)
	mk, nk := a.Dims()
	var cMax float64
	for _, v := range s.cost {
		cMax = math.Max(cMax, math.Abs(v))
	}

	for round, f := range bigMFactors {
		cost := make([]float64, nk+mk)
		for k, col := range active {
			cost[k] = s.cost[col]
		}
		for i := 0; i < mk; i++ {
			cost[nk+i] = f * (1 + cMax)
		}
		x, err = artificialSimplex(cost, a, b, tol, nil)
		last := round == len(bigMFactors)-1
		switch {
		case errors.Is(err, errUnbounded):
			if last {
				return nil, Unbounded, nil
			}
			continue
		case err != nil:
			return nil, Optimal, err
		}
		if artificialSum(x, nk) > feasTol {
			continue
		}
		y := make([]float64, n)
		for k, col := range active {
			y[col] = math.Max(x[k], 0) / s.colScale[col]
		}

		return y, Optimal, nil
	}

	return nil, Optimal, fmt.Errorf("%w: artificials stay basic after phase 2", ErrNumerical)
}

func artificialSum(x []float64, n int) float64 {
	var sum float64
	for _, v := range x[n:] {
		sum += math.Max(v, 0)
	}

	return sum
}

// restrict keeps the rows in keep and the columns that stay non-zero on
// them. active maps the kept columns back to the columns of a.
func restrict(a *mat.Dense, b []float64, keep []int) (*mat.Dense, []float64, []int) {
	_, n := a.Dims()
	var active []int
	for k := 0; k < n; k++ {
		for _, i := range keep {
			if a.At(i, k) != 0 {
				active = append(active, k)
				break
			}
		}
	}
	out := mat.NewDense(len(keep), len(active), nil)
	rb := make([]float64, len(keep))
	for r, i := range keep {
		rb[r] = b[i]
		for k, col := range active {
			out.Set(r, k, a.At(i, col))
		}
	}

	return out, rb, active
}

// errUnbounded marks an unbounded simplex run inside the package.
var errUnbounded = errors.New("lp: unbounded")

// artificialSimplex solves min cost·(y, t), A·y + t = b, y, t ≥ 0 with gonum,
// starting from the artificial basis t = b. A run that stops on a numerical
// breakdown is retried once with the columns of A reversed; accept may
// take the point reached by a broken run.
func artificialSimplex(cost []float64, a *mat.Dense, b []float64, tol float64, accept func([]float64) bool) ([]float64, error) {
	m, n := a.Dims()
	var lastErr error
	for _, reversed := range []bool{false, true} {
		perm := make([]int, n)
		for k := range perm {
			perm[k] = k
			if reversed {
				perm[k] = n - 1 - k
			}
		}
		aug := mat.NewDense(m, n+m, nil)
		c := make([]float64, n+m)
		for k, col := range perm {
			c[k] = cost[col]
			for i := 0; i < m; i++ {
				aug.Set(i, k, a.At(i, col))
			}
		}
		basis := make([]int, m)
		for i := 0; i < m; i++ {
			aug.Set(i, n+i, 1)
			c[n+i] = cost[n+i]
			basis[i] = n + i
		}

		z, err := simplex(c, aug, b, tol, basis)
		var x []float64
		if z != nil {
			x = make([]float64, n+m)
			for k, col := range perm {
				x[col] = z[k]
			}
			copy(x[n:], z[n:])
		}
		switch {
		case err == nil:
			return x, nil
		case errors.Is(err, gonumlp.ErrUnbounded):
			return nil, errUnbounded
		case x != nil && accept != nil && accept(x):
			return x, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%w: %v", ErrNumerical, lastErr)
}

// simplex calls gonum and turns its panics into errors.
func simplex(c []float64, a *mat.Dense, b []float64, tol float64, basis []int) (x []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			x, err = nil, fmt.Errorf("%w: %v", ErrNumerical, r)
		}
	}()
	_, x, err = gonumlp.Simplex(c, a, b, tol, basis)

	return x, err
}

// rankTol is the relative size below which a pivoted-QR diagonal entry
// counts as zero.
const rankTol = 1e-9

// independentRows selects a maximal linearly independent subset of the
// rows of a, sorted, with a column-pivoted QR factorisation of aᵀ.
//
// Complexity: O(m²·n).
func independentRows(a *mat.Dense) []int {
	m, n := a.Dims()
	t := mat.DenseCopyOf(a.T())
	g := t.RawMatrix()
	jpvt := make([]int, m)
	for i := range jpvt {
		jpvt[i] = -1
	}
	tau := make([]float64, min(m, n))
	work := make([]float64, 1)
	gonum.Implementation{}.Dgeqp3(g.Rows, g.Cols, g.Data, max(1, g.Stride), jpvt, tau, work, -1)
	work = make([]float64, max(int(work[0]), 3*m+1))
	gonum.Implementation{}.Dgeqp3(g.Rows, g.Cols, g.Data, max(1, g.Stride), jpvt, tau, work, len(work))

	var keep []int
	top := math.Abs(g.Data[0])
	for k := 0; k < len(tau); k++ {
		if math.Abs(g.Data[k*g.Stride+k]) <= rankTol*top {
			break
		}
		keep = append(keep, jpvt[k])
	}
	sort.Ints(keep)

	return keep
}
