package straindesign_test

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/katalvlaran/straindesign"
	"github.com/katalvlaran/straindesign/cost"
	"github.com/katalvlaran/straindesign/fva"
	"github.com/katalvlaran/straindesign/lp"
	"github.com/katalvlaran/straindesign/network"
	"github.com/katalvlaran/straindesign/sdmilp"
	"github.com/katalvlaran/straindesign/sdmodule"
	"github.com/katalvlaran/straindesign/translate"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type rxn struct {
	id     string
	lo, hi float64
	st     map[string]float64
	rule   string
}

func build(t *testing.T, mets []string, rs []rxn) *network.Network {
	n := network.New()
	for _, m := range mets {
		require.NoError(t, n.AddMetabolite(network.Metabolite{ID: m}))
	}
	for _, r := range rs {
		require.NoError(t, n.AddReaction(network.Reaction{ID: r.id, Lower: r.lo, Upper: r.hi, Stoich: r.st, Rule: r.rule}))
	}

	return n
}

func ge(id string, rhs float64) network.Constraint {
	return network.Constraint{Expr: network.Expr{id: 1}, Sense: lp.GreaterEq, RHS: rhs}
}

func suppressP() []sdmodule.Module {
	return []sdmodule.Module{sdmodule.Suppress{Constraints: []network.Constraint{ge("EX_p", 1)}}}
}

type RunSuite struct {
	suite.Suite
	ctx      context.Context
	compress bool
	solver   string
}

func (s *RunSuite) SetupTest() { s.ctx = context.Background() }

func (s *RunSuite) cfg(ko cost.Costs) straindesign.Config {
	cfg := straindesign.DefaultConfig()
	cfg.Compress = s.compress
	cfg.Solver = s.solver
	cfg.Costs.KO = ko
	cfg.Logger = quiet

	return cfg
}

func (s *RunSuite) opts(approach string, maxCost float64, max int) straindesign.SolveOptions {
	o := straindesign.DefaultSolveOptions()
	o.Approach, o.MaxCost, o.MaxSolutions = approach, maxCost, max

	return o
}

func (s *RunSuite) TestSuppressSingleKnockout() {
	n := build(s.T(), []string{"P"}, []rxn{
		{id: "R1", hi: 1000, st: map[string]float64{"P": 1}},
		{id: "EX_p", hi: 1000, st: map[string]float64{"P": -1}},
	})
	sols, err := straindesign.Compute(s.ctx, n, suppressP(), s.cfg(cost.Costs{"R1": 1}), s.opts("any", 1, 1))
	s.Require().NoError(err)
	s.Equal(sdmilp.Optimal, sols.Status)
	s.Equal([]map[string]int{{"R1": -1}}, sols.Interventions())
	s.InDelta(1, sols.Designs[0].Cost, 1e-12)
}

func (s *RunSuite) TestProtectAndSuppressInfeasible() {
	n := build(s.T(), []string{"P"}, []rxn{
		{id: "R1", hi: 1000, st: map[string]float64{"P": 1}},
		{id: "EX_p", hi: 1000, st: map[string]float64{"P": -1}},
		{id: "BIOMASS", hi: 1000, st: map[string]float64{"P": -1}},
	})
	mods := append(suppressP(), sdmodule.Protect{Constraints: []network.Constraint{ge("BIOMASS", 0.1)}})
	sols, err := straindesign.Compute(s.ctx, n, mods, s.cfg(cost.Costs{"R1": 1}), s.opts("any", 1, 1))
	s.Require().NoError(err)
	s.Equal(sdmilp.Infeasible, sols.Status)
	s.Empty(sols.Designs)
}

func (s *RunSuite) TestPopulateReturnsBothCuts() {
	n := build(s.T(), []string{"A", "P"}, []rxn{
		{id: "R1", hi: 1000, st: map[string]float64{"A": 1}},
		{id: "R2", hi: 1000, st: map[string]float64{"A": -1, "P": 1}},
		{id: "EX_p", hi: 1000, st: map[string]float64{"P": -1}},
	})
	sols, err := straindesign.Compute(s.ctx, n, suppressP(), s.cfg(cost.Costs{"R1": 1, "R2": 1}), s.opts("populate", 1, 2))
	s.Require().NoError(err)
	s.Equal(sdmilp.Optimal, sols.Status)
	s.ElementsMatch([]map[string]int{{"R1": -1}, {"R2": -1}}, sols.Interventions())
}

func (s *RunSuite) TestCostMonotone() {
	// P is reached directly (R1) or through B (R2, R3).
	n := build(s.T(), []string{"B", "P"}, []rxn{
		{id: "R1", hi: 1000, st: map[string]float64{"P": 1}},
		{id: "R2", hi: 1000, st: map[string]float64{"B": 1}},
		{id: "R3", hi: 1000, st: map[string]float64{"B": -1, "P": 1}},
		{id: "EX_p", hi: 1000, st: map[string]float64{"P": -1}},
	})
	p, err := straindesign.Prepare(s.ctx, n, suppressP(), s.cfg(cost.Costs{"R1": 1, "R2": 1, "R3": 1}))
	s.Require().NoError(err)

	var prev []map[string]int
	for _, c := range []float64{1, 2, 3} {
		sols, err := p.Solve(s.ctx, s.opts("populate", c, 10))
		s.Require().NoError(err)
		for _, d := range sols.Designs {
			s.LessOrEqual(d.Cost, c)
		}
		got := sols.Interventions()
		s.Subset(got, prev)
		prev = got
	}
	s.ElementsMatch([]map[string]int{{"R1": -1, "R2": -1}, {"R1": -1, "R3": -1}}, prev)
}

func (s *RunSuite) TestRegulatoryFlags() {
	n := build(s.T(), []string{"P"}, []rxn{
		{id: "R1", hi: 1000, st: map[string]float64{"P": 1}},
		{id: "EX_p", hi: 1000, st: map[string]float64{"P": -1}},
	})
	cfg := s.cfg(cost.Costs{"R1": 3})
	cfg.Regulatory = []translate.Regulatory{{
		Constraint: network.Constraint{Expr: network.Expr{"EX_p": 1}, Sense: lp.LessEq, RHS: 0.5},
		Cost:       1,
		Label:      "cap",
	}}
	sols, err := straindesign.Compute(s.ctx, n, suppressP(), cfg, s.opts("populate", math.Inf(1), 5))
	s.Require().NoError(err)
	s.Require().Len(sols.Designs, 2)
	for _, d := range sols.Designs {
		s.Contains(d.Regulatory, "cap")
		s.NotContains(d.Interventions, translate.RegulatoryID(0))
	}
	s.Equal(map[string]bool{"cap": true}, sols.Designs[0].Regulatory)
	s.Empty(sols.Designs[0].Interventions)
	s.InDelta(1, sols.Designs[0].Cost, 1e-12)
	s.Equal(map[string]bool{"cap": false}, sols.Designs[1].Regulatory)
	s.Equal(map[string]int{"R1": -1}, sols.Designs[1].Interventions)
}

func (s *RunSuite) TestGeneKnockouts() {
	n := build(s.T(), []string{"P"}, []rxn{
		{id: "R1", hi: 1000, st: map[string]float64{"P": 1}, rule: "g1 or g2"},
		{id: "EX_p", hi: 1000, st: map[string]float64{"P": -1}},
	})
	s.Require().NoError(n.AddGene(network.Gene{ID: "g1", Name: "alpha"}))
	s.Require().NoError(n.AddGene(network.Gene{ID: "g2", Name: "beta"}))
	cfg := s.cfg(nil)
	cfg.Genes = true
	sols, err := straindesign.Compute(s.ctx, n, suppressP(), cfg, s.opts("best", math.Inf(1), 1))
	s.Require().NoError(err)
	s.Require().Equal(sdmilp.Optimal, sols.Status)
	s.Equal([]map[string]int{{"g1": -1, "g2": -1}}, sols.Interventions())
	s.InDelta(2, sols.Designs[0].Cost, 1e-12)
}

func (s *RunSuite) TestEssentialNeverCandidate() {
	n := build(s.T(), []string{"P"}, []rxn{
		{id: "R1", hi: 1000, st: map[string]float64{"P": 1}},
		{id: "EX_p", hi: 1000, st: map[string]float64{"P": -1}},
		{id: "BIOMASS", hi: 1000, st: map[string]float64{"P": -1}},
	})
	mods := append(suppressP(), sdmodule.Protect{Constraints: []network.Constraint{ge("BIOMASS", 0.1)}})
	ess, err := fva.Essential(s.ctx, n, mods, fva.WithLogger(quiet))
	s.Require().NoError(err)
	s.Require().Contains(ess, "R1")

	sols, err := straindesign.Compute(s.ctx, n, mods, s.cfg(nil), s.opts("populate", math.Inf(1), 10))
	s.Require().NoError(err)
	for _, d := range sols.Designs {
		for _, id := range ess {
			s.NotContains(d.Interventions, id)
		}
	}
}

// couplingNet: EX_s: → S (≤ 10), Ra: S → X, Rb: S → 0.5 X + P,
// BIOMASS: X →, EX_p: P →. Knocking Ra out couples EX_p to growth.
func couplingNet(t *testing.T) *network.Network {
	return build(t, []string{"S", "X", "P"}, []rxn{
		{id: "EX_s", hi: 10, st: map[string]float64{"S": 1}},
		{id: "Ra", hi: 1000, st: map[string]float64{"S": -1, "X": 1}},
		{id: "Rb", hi: 1000, st: map[string]float64{"S": -1, "X": 0.5, "P": 1}},
		{id: "BIOMASS", hi: 1000, st: map[string]float64{"X": -1}},
		{id: "EX_p", hi: 1000, st: map[string]float64{"P": -1}},
	})
}

func (s *RunSuite) TestOptKnockThroughCompute() {
	mods := []sdmodule.Module{sdmodule.OptKnock{
		Inner: network.Expr{"BIOMASS": 1},
		Outer: network.Expr{"EX_p": 1},
	}}
	sols, err := straindesign.Compute(s.ctx, couplingNet(s.T()), mods, s.cfg(cost.Costs{"Ra": 1, "Rb": 1}), s.opts("best", 1, 1))
	s.Require().NoError(err)
	s.Require().Equal(sdmilp.Optimal, sols.Status)
	s.Equal([]map[string]int{{"Ra": -1}}, sols.Interventions())
	s.Zero(sols.NumericalPrunes)
}

func (s *RunSuite) TestOptCoupleThroughCompute() {
	mods := []sdmodule.Module{sdmodule.OptCouple{
		Inner:   network.Expr{"BIOMASS": 1},
		Product: network.Expr{"EX_p": 1},
		MinGCP:  1,
	}}
	sols, err := straindesign.Compute(s.ctx, couplingNet(s.T()), mods, s.cfg(cost.Costs{"Ra": 1, "Rb": 1}), s.opts("best", 1, 1))
	s.Require().NoError(err)
	s.Require().Equal(sdmilp.Optimal, sols.Status)
	s.Equal([]map[string]int{{"Ra": -1}}, sols.Interventions())
}

func (s *RunSuite) TestAnyReturnsUpToMaxSolutions() {
	n := build(s.T(), []string{"A", "P"}, []rxn{
		{id: "R1", hi: 1000, st: map[string]float64{"A": 1}},
		{id: "R2", hi: 1000, st: map[string]float64{"A": -1, "P": 1}},
		{id: "EX_p", hi: 1000, st: map[string]float64{"P": -1}},
	})
	ko := cost.Costs{"R1": 1, "R2": 1, "EX_p": 1}
	sols, err := straindesign.Compute(s.ctx, n, suppressP(), s.cfg(ko), s.opts("any", 5, 5))
	s.Require().NoError(err)
	s.Equal(sdmilp.Optimal, sols.Status)
	s.ElementsMatch([]map[string]int{{"R1": -1}, {"R2": -1}, {"EX_p": -1}}, sols.Interventions())
}

func TestRunSuite(t *testing.T) {
	for _, tc := range []struct {
		name     string
		compress bool
		solver   string
	}{
		{"compressed", true, sdmilp.SolverBnB},
		{"uncompressed", false, sdmilp.SolverBnB},
		{"bigm", true, sdmilp.SolverBnBBigM},
	} {
		t.Run(tc.name, func(t *testing.T) {
			suite.Run(t, &RunSuite{compress: tc.compress, solver: tc.solver})
		})
	}
}

func TestConfigurationErrors(t *testing.T) {
	ctx := context.Background()
	n := build(t, []string{"P"}, []rxn{
		{id: "R1", hi: 10, st: map[string]float64{"P": 1}},
		{id: "EX_p", hi: 10, st: map[string]float64{"P": -1}},
	})
	cfg := straindesign.DefaultConfig()
	cfg.Logger = quiet

	bad := cfg
	bad.Solver = ""
	_, err := straindesign.Prepare(ctx, n, suppressP(), bad)
	require.ErrorIs(t, err, straindesign.ErrInvalidConfig)

	bad.Solver = "cplex"
	_, err = straindesign.Prepare(ctx, n, suppressP(), bad)
	require.ErrorIs(t, err, sdmilp.ErrUnknownSolver)

	bad = cfg
	bad.Costs = cost.Set{KO: cost.Costs{"R1": 1}, KI: cost.Costs{"R1": 1}}
	_, err = straindesign.Prepare(ctx, n, suppressP(), bad)
	require.ErrorIs(t, err, cost.ErrOverlap)

	nested := []sdmodule.Module{
		sdmodule.OptKnock{Inner: network.Expr{"R1": 1}, Outer: network.Expr{"EX_p": 1}},
		sdmodule.OptCouple{Inner: network.Expr{"R1": 1}, Product: network.Expr{"EX_p": 1}},
	}
	_, err = straindesign.Prepare(ctx, n, nested, cfg)
	require.ErrorIs(t, err, sdmodule.ErrMultipleNested)

	p, err := straindesign.Prepare(ctx, n, suppressP(), cfg)
	require.NoError(t, err)
	opts := straindesign.DefaultSolveOptions()
	opts.Approach = "fastest"
	_, err = p.Solve(ctx, opts)
	require.ErrorIs(t, err, straindesign.ErrUnknownApproach)
	opts = straindesign.DefaultSolveOptions()
	opts.MaxSolutions = 0
	_, err = p.Solve(ctx, opts)
	require.ErrorIs(t, err, straindesign.ErrInvalidConfig)
}

func TestInfeasibleModelIsFatal(t *testing.T) {
	n := build(t, []string{"P"}, []rxn{
		{id: "R1", lo: 5, hi: 10, st: map[string]float64{"P": 1}},
		{id: "EX_p", hi: 1, st: map[string]float64{"P": -1}},
	})
	cfg := straindesign.DefaultConfig()
	cfg.Logger = quiet
	_, err := straindesign.Prepare(context.Background(), n, suppressP(), cfg)
	require.ErrorIs(t, err, fva.ErrInfeasibleModel)
}

func TestSetupRoundTrip(t *testing.T) {
	n := build(t, []string{"P"}, []rxn{
		{id: "R1", hi: 10, st: map[string]float64{"P": 1}},
		{id: "EX_p", hi: 10, st: map[string]float64{"P": -1}},
	})
	cfg := straindesign.DefaultConfig()
	cfg.Logger = quiet
	cfg.Costs.KO = cost.Costs{"R1": 2}
	cfg.Regulatory = []translate.Regulatory{{
		Constraint: network.Constraint{Expr: network.Expr{"EX_p": 1}, Sense: lp.LessEq, RHS: 0.5},
		Cost:       1,
		Label:      "cap",
	}}
	mods := suppressP()
	p, err := straindesign.Prepare(context.Background(), n, mods, cfg)
	require.NoError(t, err)

	setup := p.Setup()
	_, err = uuid.Parse(setup.RunID)
	require.NoError(t, err)
	require.True(t, math.IsInf(setup.BigM, 1))
	require.Equal(t, cost.Costs{"R1": 2}, setup.Costs.KO)
	require.Equal(t, cost.Costs{"R1": 2, translate.RegulatoryID(0): 1}, setup.EffectiveKO)
	require.Nil(t, setup.EffectiveKI)

	data, err := setup.YAML()
	require.NoError(t, err)
	back, err := straindesign.LoadSetup(data)
	require.NoError(t, err)
	require.Equal(t, setup, back)

	cfg2, mods2, err := back.Config()
	require.NoError(t, err)
	require.Equal(t, mods, mods2)
	require.Equal(t, cfg.Costs, cfg2.Costs)
	require.Equal(t, cfg.Regulatory, cfg2.Regulatory)
	require.Equal(t, cfg.Solver, cfg2.Solver)
	require.Zero(t, cfg2.BigM)
}

func TestSetupRecordsDefaultedCosts(t *testing.T) {
	n := build(t, []string{"P"}, []rxn{
		{id: "R1", hi: 10, st: map[string]float64{"P": 1}},
		{id: "EX_p", hi: 10, st: map[string]float64{"P": -1}},
	})
	cfg := straindesign.DefaultConfig()
	cfg.Logger = quiet
	p, err := straindesign.Prepare(context.Background(), n, suppressP(), cfg)
	require.NoError(t, err)

	setup := p.Setup()
	require.Nil(t, setup.Costs.KO)
	require.Equal(t, cost.Costs{"R1": 1, "EX_p": 1}, setup.EffectiveKO)

	data, err := setup.YAML()
	require.NoError(t, err)
	back, err := straindesign.LoadSetup(data)
	require.NoError(t, err)
	require.Equal(t, setup.EffectiveKO, back.EffectiveKO)
}
