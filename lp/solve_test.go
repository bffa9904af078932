package lp_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/katalvlaran/straindesign/lp"
)

// fbaColumns of the degenerate network
//
//	EX_s: → S (≤ 10)  R1: S → A   R2: A → B   R3: A → C   R4: B → P
//	R5: C → P         R6: B → X   R7: C → X   BIOMASS: X →
//	EX_p: P → (fixed at 0)        R8: S → D   R9: D → S
//
// Every flux may be zero, P can never leave, and R8/R9 form a free loop.
var fbaColumns = []struct {
	id     string
	hi     float64
	st     map[string]float64
	maxVal float64
}{
	{"EX_s", 10, map[string]float64{"S": 1}, 10},
	{"R1", 1000, map[string]float64{"S": -1, "A": 1}, 10},
	{"R2", 1000, map[string]float64{"A": -1, "B": 1}, 10},
	{"R3", 1000, map[string]float64{"A": -1, "C": 1}, 10},
	{"R4", 1000, map[string]float64{"B": -1, "P": 1}, 0},
	{"R5", 1000, map[string]float64{"C": -1, "P": 1}, 0},
	{"R6", 1000, map[string]float64{"B": -1, "X": 1}, 10},
	{"R7", 1000, map[string]float64{"C": -1, "X": 1}, 10},
	{"BIOMASS", 1000, map[string]float64{"X": -1}, 10},
	{"EX_p", 0, map[string]float64{"P": -1}, 0},
	{"R8", 1000, map[string]float64{"S": -1, "D": 1}, 1000},
	{"R9", 1000, map[string]float64{"D": -1, "S": 1}, 1000},
}

// fba builds the steady-state LP of fbaColumns with objective zero.
func fba() *lp.Problem {
	p := &lp.Problem{}
	rows := make(map[string][]lp.Term)
	var order []string
	for j, c := range fbaColumns {
		p.AddVar(0, c.hi, 0)
		for m, v := range c.st {
			if _, ok := rows[m]; !ok {
				order = append(order, m)
			}
			rows[m] = append(rows[m], lp.Term{Col: j, Coef: v})
		}
	}
	for _, m := range order {
		p.AddRow(rows[m], lp.Equal, 0)
	}

	return p
}

type DegenerateSuite struct {
	suite.Suite
}

func (s *DegenerateSuite) requireFeasible(p *lp.Problem, x []float64) {
	for _, r := range p.Rows {
		s.Require().True(r.Satisfied(x, eps), "row %v", r)
	}
	for j := range x {
		s.Require().GreaterOrEqual(x[j], p.Lower[j]-eps)
		s.Require().LessOrEqual(x[j], p.Upper[j]+eps)
	}
}

// TestMaximiseEachFlux runs a full flux variability sweep over a network
// with a fixed-zero column, zero right-hand sides and a dead-end product.
func (s *DegenerateSuite) TestMaximiseEachFlux() {
	for j, c := range fbaColumns {
		p := fba()
		p.Objective[j] = -1
		sol, err := lp.Solve(p)
		s.Require().NoError(err, c.id)
		s.Require().Equal(lp.Optimal, sol.Status, c.id)
		s.InDelta(c.maxVal, sol.X[j], eps, c.id)
		s.requireFeasible(p, sol.X)
	}
}

func (s *DegenerateSuite) TestMinimiseEachFlux() {
	for j, c := range fbaColumns {
		p := fba()
		p.Objective[j] = 1
		sol, err := lp.Solve(p)
		s.Require().NoError(err, c.id)
		s.Require().Equal(lp.Optimal, sol.Status, c.id)
		s.InDelta(0, sol.X[j], eps, c.id)
	}
}

// TestForcedGrowth keeps the zero point infeasible: BIOMASS ≥ 4 with the
// product route fixed shut.
func (s *DegenerateSuite) TestForcedGrowth() {
	p := fba()
	p.Lower[8] = 4
	p.Objective[0] = 1
	sol, err := lp.Solve(p)
	s.Require().NoError(err)
	s.Require().Equal(lp.Optimal, sol.Status)
	s.InDelta(4, sol.X[0], eps)
	s.requireFeasible(p, sol.X)
}

// TestFixedShutIsInfeasible: product export must happen but is fixed to 0.
func (s *DegenerateSuite) TestFixedShutIsInfeasible() {
	p := fba()
	p.Lower[4] = 1
	sol, err := lp.Solve(p)
	s.Require().NoError(err)
	s.Equal(lp.Infeasible, sol.Status)
}

// TestAllColumnsFixed leaves only constant rows.
func (s *DegenerateSuite) TestAllColumnsFixed() {
	var p lp.Problem
	x := p.AddVar(0, 0, 1)
	y := p.AddVar(2, 2, -1)
	p.AddRow([]lp.Term{{Col: x, Coef: 1}, {Col: y, Coef: -1}}, lp.Equal, -2)
	p.AddRow([]lp.Term{{Col: x, Coef: 3}}, lp.LessEq, 0)

	sol, err := lp.Solve(&p)
	s.Require().NoError(err)
	s.Require().Equal(lp.Optimal, sol.Status)
	s.InDelta(0, sol.X[x], eps)
	s.InDelta(2, sol.X[y], eps)
	s.InDelta(-2, sol.Objective, eps)
}

// TestUniquePoint: as many independent equalities as columns.
func (s *DegenerateSuite) TestUniquePoint() {
	var p lp.Problem
	x := p.AddVar(-inf, inf, 1)
	y := p.AddVar(-inf, inf, 1)
	p.AddRow([]lp.Term{{Col: x, Coef: 1}, {Col: y, Coef: 1}}, lp.Equal, 2)
	p.AddRow([]lp.Term{{Col: x, Coef: 1}, {Col: y, Coef: -1}}, lp.Equal, 0)

	sol, err := lp.Solve(&p)
	s.Require().NoError(err)
	s.Require().Equal(lp.Optimal, sol.Status)
	s.InDelta(1, sol.X[x], eps)
	s.InDelta(1, sol.X[y], eps)
}

// TestBadlyScaledRows mixes coefficients eight orders of magnitude apart.
func (s *DegenerateSuite) TestBadlyScaledRows() {
	var p lp.Problem
	x := p.AddVar(0, inf, -1)
	y := p.AddVar(0, inf, -1)
	p.AddRow([]lp.Term{{Col: x, Coef: 1e-4}, {Col: y, Coef: 2e-4}}, lp.LessEq, 4e-4)
	p.AddRow([]lp.Term{{Col: x, Coef: 3e4}, {Col: y, Coef: 1e4}}, lp.LessEq, 6e4)

	sol, err := lp.Solve(&p)
	s.Require().NoError(err)
	s.Require().Equal(lp.Optimal, sol.Status)
	s.InDelta(1.6, sol.X[x], eps)
	s.InDelta(1.2, sol.X[y], eps)
}

func TestDegenerateSuite(t *testing.T) {
	suite.Run(t, new(DegenerateSuite))
}

func TestDuplicateRowsManyTimes(t *testing.T) {
	var p lp.Problem
	x := p.AddVar(0, 5, -1)
	y := p.AddVar(0, 5, 0)
	for k := 1; k <= 6; k++ {
		f := float64(k)
		p.AddRow([]lp.Term{{Col: x, Coef: f}, {Col: y, Coef: -f}}, lp.Equal, 0)
	}

	sol, err := lp.Solve(&p)
	require.NoError(t, err)
	require.Equal(t, lp.Optimal, sol.Status)
	require.InDelta(t, 5, sol.X[x], eps)
	require.InDelta(t, 5, sol.X[y], eps)
}
