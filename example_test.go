package straindesign_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/katalvlaran/straindesign"
	"github.com/katalvlaran/straindesign/cost"
	"github.com/katalvlaran/straindesign/network"
	"github.com/katalvlaran/straindesign/sdmodule"
)

// ExampleCompute blocks product export in a two-step pathway where only
// the first step may be knocked out.
func ExampleCompute() {
	n := network.New()
	_ = n.AddMetabolite(network.Metabolite{ID: "A"})
	_ = n.AddMetabolite(network.Metabolite{ID: "P"})
	_ = n.AddReaction(network.Reaction{ID: "R1", Upper: 1000, Stoich: map[string]float64{"A": 1}})
	_ = n.AddReaction(network.Reaction{ID: "R2", Upper: 1000, Stoich: map[string]float64{"A": -1, "P": 1}})
	_ = n.AddReaction(network.Reaction{ID: "EX_p", Upper: 1000, Stoich: map[string]float64{"P": -1}})

	sup, _ := network.ParseConstraints("EX_p >= 1")
	mods := []sdmodule.Module{sdmodule.Suppress{Constraints: sup}}

	cfg := straindesign.DefaultConfig()
	cfg.Costs.KO = cost.Costs{"R1": 1}
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	sols, err := straindesign.Compute(context.Background(), n, mods, cfg, straindesign.DefaultSolveOptions())
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(sols.Status)
	for _, d := range sols.Designs {
		fmt.Println(d.Interventions, d.Cost)
	}
	// Output:
	// OPTIMAL
	// map[R1:-1] 1
}
