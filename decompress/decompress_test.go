package decompress_test

import (
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/straindesign/compress"
	"github.com/katalvlaran/straindesign/cost"
	"github.com/katalvlaran/straindesign/decompress"
	"github.com/katalvlaran/straindesign/network"
)

func oneStep(parallel bool, lump string, ids ...string) *compress.Map {
	ms := make([]compress.Member, len(ids))
	for i, id := range ids {
		ms[i] = compress.Member{ID: id, Weight: 1}
	}

	return &compress.Map{
		Original: ids,
		Steps:    []compress.Step{{Parallel: parallel, Groups: map[string][]compress.Member{lump: ms}}},
	}
}

func expand(m *compress.Map, ko, ki cost.Costs, ds ...decompress.Design) []decompress.Design {
	return decompress.Expand(ds, m, cost.Levels(m, ko, ki))
}

func TestSerialKnockoutSplits(t *testing.T) {
	m := oneStep(false, "L", "R1", "R2")
	got := expand(m, cost.Costs{"R1": 1, "R2": 1}, nil, decompress.Design{"L": -1})
	require.Equal(t, []decompress.Design{{"R1": -1}, {"R2": -1}}, got)
}

func TestSerialKnockoutSkipsNonCandidates(t *testing.T) {
	m := oneStep(false, "L", "EX", "R1")
	got := expand(m, cost.Costs{"R1": 1}, nil, decompress.Design{"L": -1})
	require.Equal(t, []decompress.Design{{"R1": -1}}, got)
}

func TestParallelKnockoutJoins(t *testing.T) {
	m := oneStep(true, "P", "R1", "R2")
	got := expand(m, cost.Costs{"R1": 1, "R2": 1}, nil, decompress.Design{"P": -1, "X": -1})
	require.Equal(t, []decompress.Design{{"R1": -1, "R2": -1, "X": -1}}, got)
}

func TestKnockins(t *testing.T) {
	ki := cost.Costs{"R1": 1, "R2": 1}

	serial := oneStep(false, "L", "R1", "R2")
	require.Equal(t, []decompress.Design{{"R1": 1, "R2": 1}}, expand(serial, nil, ki, decompress.Design{"L": 1}))
	require.Equal(t, []decompress.Design{{"R1": 0, "R2": 0}}, expand(serial, nil, ki, decompress.Design{"L": 0}))

	parallel := oneStep(true, "P", "R1", "R2")
	require.Equal(t,
		[]decompress.Design{{"R1": 1, "R2": 0}, {"R1": 0, "R2": 1}},
		expand(parallel, nil, ki, decompress.Design{"P": 1}))
	require.Equal(t, []decompress.Design{{"R1": 0, "R2": 0}}, expand(parallel, nil, ki, decompress.Design{"P": 0}))
}

func TestNestedStepsAndDedup(t *testing.T) {
	m := &compress.Map{
		Original: []string{"R1", "R2", "R3"},
		Steps: []compress.Step{
			{Groups: map[string][]compress.Member{"S": {{ID: "R1", Weight: 1}, {ID: "R2", Weight: 1}}}},
			{Parallel: true, Groups: map[string][]compress.Member{"P": {{ID: "S", Weight: 1}, {ID: "R3", Weight: 1}}}},
		},
	}
	ko := cost.Costs{"R1": 1, "R2": 1, "R3": 1}
	got := expand(m, ko, nil, decompress.Design{"P": -1}, decompress.Design{"P": -1})
	require.Equal(t, []decompress.Design{{"R1": -1, "R3": -1}, {"R2": -1, "R3": -1}}, got)
}

func TestFilterMaxCost(t *testing.T) {
	ds := []decompress.Design{{"R1": -1}, {"R1": -1, "R2": -1}, {"R3": 1}}
	ko := cost.Costs{"R1": 1, "R2": 1}
	ki := cost.Costs{"R3": 0.5}
	require.Equal(t, []decompress.Design{{"R1": -1}, {"R3": 1}}, decompress.FilterMaxCost(ds, ko, ki, 1))
	require.Len(t, decompress.FilterMaxCost(ds, ko, ki, 0), 3)
}

func TestFoldRegulatory(t *testing.T) {
	ds := []decompress.Design{{"R1": -1, "reg_0": -1}, {"R2": -1}}
	labels := map[string]string{"reg_0": "R1 <= 3", "reg_1": "R2 >= 1"}
	flags := decompress.FoldRegulatory(ds, labels)
	require.Equal(t, []map[string]bool{
		{"R1 <= 3": true, "R2 >= 1": false},
		{"R1 <= 3": false, "R2 >= 1": false},
	}, flags)
	require.Equal(t, []decompress.Design{{"R1": -1}, {"R2": -1}}, ds)
}

// Knocking out every compressed candidate and expanding recovers exactly
// the original candidates.
func TestRoundTripRecoversCandidates(t *testing.T) {
	n := network.New()
	for _, m := range []string{"A", "B", "C"} {
		require.NoError(t, n.AddMetabolite(network.Metabolite{ID: m}))
	}
	add := func(id string, st map[string]float64) {
		require.NoError(t, n.AddReaction(network.Reaction{ID: id, Upper: 10, Stoich: st}))
	}
	add("EX_s", map[string]float64{"A": 1})
	add("R1", map[string]float64{"A": -1, "B": 1})
	add("R2a", map[string]float64{"B": -1, "C": 1})
	add("R2b", map[string]float64{"B": -1, "C": 1})
	add("EX_c", map[string]float64{"C": -1})

	ko := cost.Costs{"R1": 1, "R2a": 1, "R2b": 1, "EX_c": 1}
	m, err := compress.Compress(n,
		compress.WithClass(cost.Classify(ko, nil)),
		compress.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	levels := cost.Levels(m, ko, nil)

	all := decompress.Design{}
	for id := range levels[len(levels)-1].KO {
		all[id] = -1
	}
	seen := map[string]bool{}
	for _, d := range decompress.Expand([]decompress.Design{all}, m, levels) {
		for id := range d {
			seen[id] = true
		}
	}
	got := make([]string, 0, len(seen))
	for id := range seen {
		got = append(got, id)
	}
	sort.Strings(got)
	require.Equal(t, ko.IDs(), got)
}
