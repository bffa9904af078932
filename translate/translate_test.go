package translate_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/katalvlaran/straindesign/compress"
	"github.com/katalvlaran/straindesign/cost"
	"github.com/katalvlaran/straindesign/lp"
	"github.com/katalvlaran/straindesign/network"
	"github.com/katalvlaran/straindesign/sdmodule"
	"github.com/katalvlaran/straindesign/translate"
)

// geneNet: R1: → A (rule g1 and (g2 or g3)), R2: A ↔ B (rule g4),
// EX: B → (no rule). Gene g5 is not used by any rule.
func geneNet(t *testing.T) *network.Network {
	n := network.New()
	for _, m := range []string{"A", "B"} {
		require.NoError(t, n.AddMetabolite(network.Metabolite{ID: m}))
	}
	for i, g := range []string{"g1", "g2", "g3", "g4", "g5"} {
		require.NoError(t, n.AddGene(network.Gene{ID: g, Name: "name" + string(rune('a'+i))}))
	}
	require.NoError(t, n.AddReaction(network.Reaction{ID: "R1", Upper: 10, Stoich: map[string]float64{"A": 1}, Rule: "g1 and (g2 or g3)"}))
	require.NoError(t, n.AddReaction(network.Reaction{ID: "R2", Lower: -5, Upper: 10, Stoich: map[string]float64{"A": -1, "B": 1}, Rule: "g4"}))
	require.NoError(t, n.AddReaction(network.Reaction{ID: "EX", Upper: 10, Stoich: map[string]float64{"B": -1}}))

	return n
}

func set(ids ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}

	return out
}

type GeneSuite struct {
	suite.Suite
	n *network.Network
}

func (s *GeneSuite) SetupTest() { s.n = geneNet(s.T()) }

func (s *GeneSuite) TestResolveGeneNames() {
	c, err := translate.ResolveGeneNames(s.n, cost.Costs{"namea": 1, "g2": 2})
	require.NoError(s.T(), err)
	require.Equal(s.T(), cost.Costs{"g1": 1, "g2": 2}, c)

	_, err = translate.ResolveGeneNames(s.n, cost.Costs{"zzz": 1})
	require.ErrorIs(s.T(), err, network.ErrUnknownGene)
}

func (s *GeneSuite) TestSimplifyGenes() {
	ko := cost.Costs{"g1": 1, "g2": 1, "g4": 1, "g5": 1}
	ki := cost.Costs{"g3": 1}
	rep, err := translate.SimplifyGenes(s.n, ko, ki, []string{"R1"})
	require.NoError(s.T(), err)
	require.Equal(s.T(), []string{"g5"}, rep.Irrelevant)
	require.Equal(s.T(), []string{"g1"}, rep.Essential, "g1 alone disables essential R1")
	require.Equal(s.T(), cost.Costs{"g2": 1, "g4": 1}, ko)
	require.Len(s.T(), s.n.Genes(), 4)
}

func (s *GeneSuite) TestExtendGPR() {
	ext, split, err := translate.ExtendGPR(s.n, set("g1", "g2", "g4"))
	require.NoError(s.T(), err)

	// g3 has no cost and is assumed present, so R1's rule reduces to g1.
	r1, ok := ext.Reaction("R1")
	require.True(s.T(), ok)
	require.Equal(s.T(), -1.0, r1.Stoich["g_g1"])
	require.False(s.T(), ext.HasReaction("R1_gpr0"))

	// R2 is reversible and gated by g4.
	fwd, _ := ext.Reaction("R2")
	rev, ok := ext.Reaction("R2_rev")
	require.True(s.T(), ok)
	require.Equal(s.T(), 0.0, fwd.Lower)
	require.Equal(s.T(), 5.0, rev.Upper)
	require.Equal(s.T(), 1.0, rev.Stoich["A"])
	require.Equal(s.T(), -1.0, rev.Stoich["g_g4"])
	require.Equal(s.T(), network.Expr{"R2": 1, "R2_rev": -1}, split["R2"])

	g4, ok := ext.Reaction("g4")
	require.True(s.T(), ok)
	require.True(s.T(), math.IsInf(g4.Upper, 1))
	require.False(s.T(), ext.HasReaction("g2"), "g2 dropped by simplification of the rule")
	require.False(s.T(), ext.HasReaction("g3"))

	ex, _ := ext.Reaction("EX")
	require.Equal(s.T(), map[string]float64{"B": -1}, ex.Stoich)
	_, inMap := split["EX"]
	require.False(s.T(), inMap)
}

// TestExtendGPRMultiSet: two minimal sets produce an enzyme metabolite and
// one enzyme-forming reaction per set.
func (s *GeneSuite) TestExtendGPRMultiSet() {
	ext, _, err := translate.ExtendGPR(s.n, set("g1", "g2", "g3"))
	require.NoError(s.T(), err)
	for _, id := range []string{"g1", "g2", "g3", "R1_gpr0", "R1_gpr1"} {
		require.True(s.T(), ext.HasReaction(id), id)
	}
	t0, _ := ext.Reaction("R1_gpr0")
	require.Equal(s.T(), map[string]float64{"e_R1": 1, "g_g1": -1, "g_g2": -1}, t0.Stoich)
	r1, _ := ext.Reaction("R1")
	require.Equal(s.T(), -1.0, r1.Stoich["e_R1"])

	// R2 has no candidate gene left and stays a plain reversible reaction.
	r2, _ := ext.Reaction("R2")
	require.Equal(s.T(), -5.0, r2.Lower)
	require.False(s.T(), ext.HasReaction("R2_rev"))
}

// TestExtendGPRGeneMeetsReaction: a gene id equal to a reaction id fails.
func (s *GeneSuite) TestExtendGPRGeneMeetsReaction() {
	n := network.New()
	require.NoError(s.T(), n.AddMetabolite(network.Metabolite{ID: "A"}))
	require.NoError(s.T(), n.AddReaction(network.Reaction{ID: "X", Upper: 1, Stoich: map[string]float64{"A": 1}, Rule: "Y"}))
	require.NoError(s.T(), n.AddReaction(network.Reaction{ID: "Y", Upper: 1, Stoich: map[string]float64{"A": -1}}))
	_, _, err := translate.ExtendGPR(n, set("Y"))
	require.ErrorIs(s.T(), err, translate.ErrIDCollision)
}

func TestGeneSuite(t *testing.T) {
	suite.Run(t, new(GeneSuite))
}

func TestExtendRegulatory(t *testing.T) {
	n := geneNet(t)
	ko := cost.Costs{}
	regs := []translate.Regulatory{
		{Constraint: network.Constraint{Expr: network.Expr{"R1": 1, "EX": -2}, Sense: lp.LessEq, RHS: 3}, Cost: 2},
		{Constraint: network.Constraint{Expr: network.Expr{"EX": 1}, Sense: lp.Equal, RHS: 1}, Cost: 1, Label: "fix EX"},
	}
	labels, err := translate.ExtendRegulatory(n, regs, ko)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"reg_0": "-2 EX + R1 <= 3", "reg_1": "fix EX"}, labels)
	require.Equal(t, cost.Costs{"reg_0": 2, "reg_1": 1}, ko)

	r1, _ := n.Reaction("R1")
	require.Equal(t, 1.0, r1.Stoich["reg_met_0"])
	bnd, _ := n.Reaction("reg_bnd_0")
	require.True(t, math.IsInf(bnd.Lower, -1))
	require.Equal(t, 3.0, bnd.Upper)
	bnd1, _ := n.Reaction("reg_bnd_1")
	require.Equal(t, 1.0, bnd1.Lower)
	require.Equal(t, 1.0, bnd1.Upper)

	_, err = translate.ExtendRegulatory(n, []translate.Regulatory{{Constraint: network.Constraint{Expr: network.Expr{"nope": 1}}, Cost: 1}}, ko)
	require.ErrorIs(t, err, network.ErrUnknownReaction)
}

func TestExprMapAndModules(t *testing.T) {
	m := translate.ExprMap{"R2": {"R2": 1, "R2_rev": -1}, "GONE": {}}
	got := m.Apply(network.Expr{"R2": 2, "EX": 1, "GONE": 5})
	require.Equal(t, network.Expr{"R2": 2, "R2_rev": -2, "EX": 1}, got)
	require.Nil(t, m.Apply(nil))

	mods := translate.Modules([]sdmodule.Module{
		sdmodule.Suppress{Constraints: []network.Constraint{{Expr: network.Expr{"R2": 1}, Sense: lp.GreaterEq, RHS: 1}}},
	}, m)
	require.Equal(t, network.Expr{"R2": 1, "R2_rev": -1}, mods[0].Region()[0].Expr)
}

func TestFromImages(t *testing.T) {
	img := map[string]compress.Image{
		"a": {ID: "a*b", Factor: 2, Exact: true},
		"c": {},
		"d": {ID: "d|e", Factor: 1},
	}
	m, err := translate.FromImages(img, []string{"a", "c"})
	require.NoError(t, err)
	require.Equal(t, network.Expr{"a*b": 2}, m["a"])
	require.Empty(t, m["c"])

	_, err = translate.FromImages(img, []string{"d"})
	require.ErrorIs(t, err, translate.ErrInexact)
}
