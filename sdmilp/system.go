package sdmilp

import (
	"math"
	"sort"

	"github.com/katalvlaran/straindesign/lp"
	"github.com/katalvlaran/straindesign/milp"
	"github.com/katalvlaran/straindesign/network"
)

// column is a variable of a symbolic block. gate < 0 means ungated.
type column struct {
	lo, hi float64
	gate   int
	zeroAt int
}

// system is a linear block over local columns, placed into the MILP later.
type system struct {
	cols []column
	rows []lp.Row
}

func (s *system) addCol(lo, hi float64) int {
	s.cols = append(s.cols, column{lo: lo, hi: hi, gate: -1})

	return len(s.cols) - 1
}

func (s *system) addGated(lo, hi float64, gate, zeroAt int) int {
	s.cols = append(s.cols, column{lo: lo, hi: hi, gate: gate, zeroAt: zeroAt})

	return len(s.cols) - 1
}

// fluxSystem returns the steady-state block of n with extra rows cons.
// Reaction j is gated by binary gates[j] (closed at 0) when present.
func fluxSystem(n *network.Network, cons []network.Constraint, gates map[int]int) (*system, error) {
	p := n.LP()
	s := &system{rows: append([]lp.Row(nil), p.Rows...)}
	for j := range p.Lower {
		if b, ok := gates[j]; ok {
			s.addGated(p.Lower[j], p.Upper[j], b, 0)
		} else {
			s.addCol(p.Lower[j], p.Upper[j])
		}
	}
	for _, c := range cons {
		row, err := n.Row(c)
		if err != nil {
			return nil, err
		}
		s.rows = append(s.rows, row)
	}

	return s, nil
}

// dual returns the dual block of "max c·x over s" and the dual objective
// over its columns. For every x feasible in s and every d feasible in the
// returned block, c·x ≤ obj·d; both optima agree when they exist.
//
// Columns: one multiplier per row (≥ 0 for ≤, ≤ 0 for ≥, free for =), one
// per finite upper (α ≥ 0) and lower (β ≥ 0) bound, and a free slack per
// gated primal column that is zero while the primal column is open.
func dual(s *system, c map[int]float64) (*system, []float64) {
	var (
		d   = &system{}
		obj []float64
		col = make([][]lp.Term, len(s.cols))
		inf = math.Inf(1)
		k   int
	)
	for _, r := range s.rows {
		switch r.Sense {
		case lp.LessEq:
			k = d.addCol(0, inf)
		case lp.GreaterEq:
			k = d.addCol(-inf, 0)
		default:
			k = d.addCol(-inf, inf)
		}
		obj = append(obj, r.RHS)
		for _, t := range r.Terms {
			col[t.Col] = append(col[t.Col], lp.Term{Col: k, Coef: t.Coef})
		}
	}
	for j, x := range s.cols {
		// a bound that excludes zero is released together with the column
		if !math.IsInf(x.hi, 1) {
			if x.gate >= 0 && x.hi < 0 {
				k = d.addGated(0, inf, x.gate, x.zeroAt)
			} else {
				k = d.addCol(0, inf)
			}
			obj = append(obj, x.hi)
			col[j] = append(col[j], lp.Term{Col: k, Coef: 1})
		}
		if !math.IsInf(x.lo, -1) {
			if x.gate >= 0 && x.lo > 0 {
				k = d.addGated(0, inf, x.gate, x.zeroAt)
			} else {
				k = d.addCol(0, inf)
			}
			obj = append(obj, -x.lo)
			col[j] = append(col[j], lp.Term{Col: k, Coef: -1})
		}
		if x.gate >= 0 {
			k = d.addGated(-inf, inf, x.gate, 1-x.zeroAt)
			obj = append(obj, 0)
			col[j] = append(col[j], lp.Term{Col: k, Coef: 1})
		}
	}
	for j := range s.cols {
		d.rows = append(d.rows, lp.Row{Terms: col[j], Sense: lp.Equal, RHS: c[j]})
	}

	return d, obj
}

// place adds the columns and rows of s to m and returns the model column
// of every local column.
func place(m *milp.Model, e Emitter, s *system) ([]int, error) {
	at := make([]int, len(s.cols))
	for j, x := range s.cols {
		if x.gate < 0 {
			at[j] = m.AddVar(x.lo, x.hi, 0)
			continue
		}
		at[j] = m.AddVar(math.Min(x.lo, 0), math.Max(x.hi, 0), 0)
		if err := e.Gate(m, x.gate, x.zeroAt, at[j], x.lo, x.hi); err != nil {
			return nil, err
		}
	}
	for _, r := range s.rows {
		terms := make([]lp.Term, len(r.Terms))
		for i, t := range r.Terms {
			terms[i] = lp.Term{Col: at[t.Col], Coef: t.Coef}
		}
		m.AddRow(terms, r.Sense, r.RHS)
	}

	return at, nil
}

// combine returns a block holding a's columns followed by b's, with rows of
// both; the offset of b's columns is len(a.cols).
func combine(a, b *system) *system {
	off := len(a.cols)
	s := &system{
		cols: append(append([]column(nil), a.cols...), b.cols...),
		rows: append([]lp.Row(nil), a.rows...),
	}
	for _, r := range b.rows {
		terms := make([]lp.Term, len(r.Terms))
		for i, t := range r.Terms {
			terms[i] = lp.Term{Col: t.Col + off, Coef: t.Coef}
		}
		s.rows = append(s.rows, lp.Row{Terms: terms, Sense: r.Sense, RHS: r.RHS})
	}

	return s
}

// linear maps a reaction expression to terms over placed columns.
func linear(n *network.Network, e network.Expr, at []int) ([]lp.Term, error) {
	terms, err := n.Terms(e)
	if err != nil {
		return nil, err
	}
	for i := range terms {
		terms[i].Col = at[terms[i].Col]
	}

	return terms, nil
}

// dot returns coefficients paired with placed columns, skipping zeros.
func dot(coef []float64, at []int, scale float64) []lp.Term {
	var out []lp.Term
	for k, v := range coef {
		if v != 0 {
			out = append(out, lp.Term{Col: at[k], Coef: scale * v})
		}
	}

	return out
}

// mapped turns local coefficients into terms ordered by local column,
// relocated through at (identity when at is nil).
func mapped(c map[int]float64, at []int) []lp.Term {
	out := make([]lp.Term, 0, len(c))
	for j, v := range c {
		col := j
		if at != nil {
			col = at[j]
		}
		out = append(out, lp.Term{Col: col, Coef: v})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Col < out[b].Col })

	return out
}
