package sdmodule_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/straindesign/lp"
	"github.com/katalvlaran/straindesign/network"
	"github.com/katalvlaran/straindesign/sdmodule"
)

func toy(t *testing.T) *network.Network {
	n := network.New()
	require.NoError(t, n.AddMetabolite(network.Metabolite{ID: "P"}))
	for _, id := range []string{"R1", "EX_p", "BIOMASS"} {
		require.NoError(t, n.AddReaction(network.Reaction{ID: id, Upper: 1000, Stoich: map[string]float64{}}))
	}

	return n
}

func ge(id string, rhs float64) network.Constraint {
	return network.Constraint{Expr: network.Expr{id: 1}, Sense: lp.GreaterEq, RHS: rhs}
}

func TestValidate(t *testing.T) {
	n := toy(t)
	ok := []sdmodule.Module{
		sdmodule.Protect{Constraints: []network.Constraint{ge("BIOMASS", 0.1)}},
		sdmodule.Suppress{Constraints: []network.Constraint{ge("EX_p", 1)}},
		sdmodule.OptKnock{Inner: network.Expr{"BIOMASS": 1}, Outer: network.Expr{"EX_p": 1}},
	}
	require.NoError(t, sdmodule.Validate(ok, n))

	require.ErrorIs(t, sdmodule.Validate(nil, n), sdmodule.ErrNoModules)

	two := append(ok, sdmodule.OptCouple{Inner: network.Expr{"BIOMASS": 1}, Product: network.Expr{"EX_p": 1}})
	require.ErrorIs(t, sdmodule.Validate(two, n), sdmodule.ErrMultipleNested)

	missing := []sdmodule.Module{sdmodule.RobustKnock{Inner: network.Expr{"BIOMASS": 1}}}
	require.ErrorIs(t, sdmodule.Validate(missing, n), sdmodule.ErrMissingObjective)

	unknown := []sdmodule.Module{sdmodule.Suppress{Constraints: []network.Constraint{ge("EX_q", 1)}}}
	require.ErrorIs(t, sdmodule.Validate(unknown, n), network.ErrUnknownReaction)
}

func TestReferencesAndNested(t *testing.T) {
	mods := []sdmodule.Module{
		sdmodule.Suppress{Constraints: []network.Constraint{ge("EX_p", 1)}},
		sdmodule.OptCouple{Inner: network.Expr{"BIOMASS": 1}, Product: network.Expr{"R1": 1}},
	}
	require.Equal(t, []string{"BIOMASS", "EX_p", "R1"}, sdmodule.References(mods))
	require.Equal(t, sdmodule.KindOptCouple, sdmodule.Nested(mods).Kind())
	require.Nil(t, sdmodule.Nested(mods[:1]))
}

func TestRewrite(t *testing.T) {
	m := sdmodule.OptKnock{
		Constraints: []network.Constraint{ge("R1", 2)},
		Inner:       network.Expr{"BIOMASS": 1},
		Outer:       network.Expr{"EX_p": 1},
	}
	double := func(e network.Expr) network.Expr {
		out := network.Expr{}
		for k, v := range e {
			out[k+"_x"] = 2 * v
		}

		return out
	}
	got := m.Rewrite(double).(sdmodule.OptKnock)
	require.Equal(t, network.Expr{"R1_x": 2}, got.Constraints[0].Expr)
	require.Equal(t, 2.0, got.Constraints[0].RHS)
	require.Equal(t, network.Expr{"EX_p_x": 2}, got.Outer)
	require.Equal(t, network.Expr{"R1": 1}, m.Constraints[0].Expr, "original untouched")
}

func TestSpecYAMLRoundTrip(t *testing.T) {
	mods := []sdmodule.Module{
		sdmodule.Protect{Constraints: []network.Constraint{ge("BIOMASS", 0.1)}},
		sdmodule.OptCouple{
			Constraints: []network.Constraint{ge("R1", 0)},
			Inner:       network.Expr{"BIOMASS": 1},
			Product:     network.Expr{"EX_p": 1},
			MinGCP:      0.5,
		},
		sdmodule.RobustKnock{Inner: network.Expr{"BIOMASS": 1}, Outer: network.Expr{"EX_p": -1}},
	}
	specs := make([]sdmodule.Spec, len(mods))
	for i, m := range mods {
		specs[i] = sdmodule.ToSpec(m)
	}
	raw, err := yaml.Marshal(specs)
	require.NoError(t, err)
	require.Contains(t, string(raw), "kind: optcouple")

	var back []sdmodule.Spec
	require.NoError(t, yaml.Unmarshal(raw, &back))
	for i, s := range back {
		m, err := s.Module()
		require.NoError(t, err)
		require.Equal(t, mods[i], m)
	}
}

func TestSpecUnknownKind(t *testing.T) {
	_, err := sdmodule.Spec{Kind: "mcs"}.Module()
	require.ErrorIs(t, err, sdmodule.ErrUnknownKind)
}

func TestKindString(t *testing.T) {
	require.Equal(t, "robustknock", sdmodule.KindRobustKnock.String())
	require.True(t, sdmodule.KindOptKnock.Nested())
	require.False(t, sdmodule.KindSuppress.Nested())
}
