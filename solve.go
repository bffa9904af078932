package straindesign

import (
	"context"

	"github.com/katalvlaran/straindesign/cost"
	"github.com/katalvlaran/straindesign/decompress"
	"github.com/katalvlaran/straindesign/network"
	"github.com/katalvlaran/straindesign/sdmilp"
	"github.com/katalvlaran/straindesign/sdmodule"
)

// Solution is one strain design in the original reaction (and gene) space.
type Solution struct {
	// Interventions maps ids to -1 (knockout), +1 (knock-in) or 0
	// (knock-in candidate not inserted).
	Interventions map[string]int `yaml:"interventions" json:"interventions"`
	// Regulatory holds one flag per regulatory intervention label.
	Regulatory map[string]bool `yaml:"regulatory,omitempty" json:"regulatory,omitempty"`
	// Cost is the total cost under the original cost maps.
	Cost float64 `yaml:"cost" json:"cost"`
}

// Solutions is the outcome of Problem.Solve. A non-zero NumericalPrunes
// means parts of the search tree were dropped after LP breakdowns, so
// Status holds only for the explored part.
type Solutions struct {
	Designs         []Solution    `yaml:"designs" json:"designs"`
	Status          sdmilp.Status `yaml:"status" json:"status"`
	NumericalPrunes int           `yaml:"numerical_prunes,omitempty" json:"numerical_prunes,omitempty"`
	Setup           Setup         `yaml:"setup" json:"setup"`
}

// Interventions returns the intervention maps of all designs.
func (s Solutions) Interventions() []map[string]int {
	out := make([]map[string]int, len(s.Designs))
	for i, d := range s.Designs {
		out[i] = d.Interventions
	}

	return out
}

// Solve builds the MILP for opts, searches designs and maps them back to
// the original network.
//
// Steps:
//  1. Build the formulation over the compressed network with the emitter
//     chosen for the solver and the BigM override.
//  2. Search up to opts.MaxSolutions designs in opts.Approach (see
//     sdmilp.Formulation.Solve).
//  3. Expand each compressed design over the compression steps, drop
//     duplicates and designs above opts.MaxCost in the original space.
//  4. Price every design and fold regulatory pseudo reactions into flags.
//
// When every design found exceeds opts.MaxCost after expansion, the status
// becomes sdmilp.Infeasible (sdmilp.TimeLimitNoSolution after a time out).
// Solutions.NumericalPrunes reports nodes the search dropped after LP
// failures; a non-zero value means the status holds only for the explored
// tree.
//
// A Problem may be solved repeatedly; each call builds a fresh
// formulation.
//
// Errors: ErrInvalidConfig, ErrUnknownApproach, milp errors, ctx.Err().
func (p *Problem) Solve(ctx context.Context, opts SolveOptions) (Solutions, error) {
	if err := opts.Validate(); err != nil {
		return Solutions{}, err
	}
	mode, _ := sdmilp.ParseMode(opts.Approach)
	setup := p.setup
	setup.Solve = &opts

	f, err := sdmilp.Build(p.net, p.mods, p.ko, p.ki, sdmilp.Config{
		Emitter:      sdmilp.NewEmitter(p.cap, p.cfg.BigM),
		MaxCost:      opts.MaxCost,
		ForceKnockin: p.forceKI,
		Logger:       p.logger,
	})
	if err != nil {
		return Solutions{}, err
	}
	res, err := f.Solve(ctx, mode, opts.MaxSolutions, opts.TimeLimit)
	if err != nil {
		return Solutions{}, err
	}

	designs := make([]decompress.Design, len(res.Designs))
	for i, d := range res.Designs {
		designs[i] = decompress.Design(d)
	}
	designs = decompress.Expand(designs, p.cmap, p.levels)
	designs = decompress.FilterMaxCost(designs, p.origKO, p.origKI, opts.MaxCost)

	out := Solutions{Status: res.Status, NumericalPrunes: res.NumericalPrunes, Setup: setup}
	costs := make([]float64, len(designs))
	for i, d := range designs {
		costs[i] = cost.Total(d, p.origKO, p.origKI)
	}
	flags := decompress.FoldRegulatory(designs, p.labels)
	for i, d := range designs {
		out.Designs = append(out.Designs, Solution{Interventions: d, Regulatory: flags[i], Cost: costs[i]})
	}
	if len(out.Designs) == 0 && len(res.Designs) > 0 {
		out.Status = sdmilp.Infeasible
		if res.Status == sdmilp.TimeLimitWithSolution {
			out.Status = sdmilp.TimeLimitNoSolution
		}
	}
	p.logger.Info("straindesign: solved",
		"approach", mode.String(), "status", out.Status.String(),
		"compressed_designs", len(res.Designs), "designs", len(out.Designs))

	return out, nil
}

// Compute runs Prepare and Solve in one call. opts is validated before any
// preprocessing starts.
//
// Errors: as Prepare and Solve.
func Compute(ctx context.Context, n *network.Network, mods []sdmodule.Module, cfg Config, opts SolveOptions) (Solutions, error) {
	if err := opts.Validate(); err != nil {
		return Solutions{}, err
	}
	p, err := Prepare(ctx, n, mods, cfg)
	if err != nil {
		return Solutions{}, err
	}

	return p.Solve(ctx, opts)
}
