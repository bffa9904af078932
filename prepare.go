package straindesign

import (
	"context"
	"log/slog"
	"sort"

	"github.com/katalvlaran/straindesign/compress"
	"github.com/katalvlaran/straindesign/cost"
	"github.com/katalvlaran/straindesign/fva"
	"github.com/katalvlaran/straindesign/network"
	"github.com/katalvlaran/straindesign/sdmilp"
	"github.com/katalvlaran/straindesign/sdmodule"
	"github.com/katalvlaran/straindesign/translate"
)

// Problem is a preprocessed run, ready to be solved any number of times.
type Problem struct {
	cfg    Config
	cap    sdmilp.Capability
	logger *slog.Logger

	net    *network.Network
	mods   []sdmodule.Module
	cmap   *compress.Map
	levels []cost.Level

	// candidates of the final network and original-space maps for the
	// cost re-check
	ko, ki         cost.Costs
	origKO, origKI cost.Costs
	forceKI        []string
	labels         map[string]string
	split          translate.ExprMap

	setup Setup
}

// Prepare validates the run and preprocesses a private copy of n.
//
// Steps:
//  1. Validate cfg and mods; remove dummy bounds; tighten bounds of
//     blocked and irreversible reactions (infeasible model is fatal).
//  2. Complete the cost maps, check overlaps, drop blocked and essential
//     knockout candidates.
//  3. Gene runs: resolve gene names, drop irrelevant and essential genes,
//     expand gene rules into the network and merge gene costs.
//  4. Add regulatory pseudo reactions.
//  5. Compress (optional), propagate costs, rewrite modules, drop
//     candidates essential in the compressed network.
//
// Errors: ErrInvalidConfig, sdmilp.ErrUnknownSolver, cost.ErrOverlap,
// cost.ErrNonPositive, sdmodule.ErrMultipleNested, sdmodule.ErrNoModules,
// network.ErrUnknownReaction, network.ErrUnknownGene,
// fva.ErrInfeasibleModel, translate.ErrIDCollision, ctx.Err().
func Prepare(ctx context.Context, n *network.Network, mods []sdmodule.Module, cfg Config) (*Problem, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	capa, _ := sdmilp.Capabilities(cfg.Solver)
	p := &Problem{cfg: cfg, cap: capa, logger: cfg.logger()}
	p.setup = newSetup(cfg, mods)

	work := n.Clone()
	if err := sdmodule.Validate(mods, work); err != nil {
		return nil, err
	}
	fopts := []fva.Option{fva.WithLogger(p.logger)}
	if cfg.Workers > 0 {
		fopts = append(fopts, fva.WithWorkers(cfg.Workers))
	}

	fva.RemoveDummyBounds(work, fopts...)
	blocked, err := fva.BoundBlockedOrIrreversible(ctx, work, fopts...)
	if err != nil {
		return nil, err
	}

	set, err := p.defaultCosts(work)
	if err != nil {
		return nil, err
	}
	if err = cost.CheckOverlap(set, work); err != nil {
		return nil, err
	}
	set.KO.Remove(blocked...)
	set.KI.Remove(blocked...)

	essential, err := fva.Essential(ctx, work, mods, fopts...)
	if err != nil {
		return nil, err
	}
	dropped := cost.RemoveEssential(set.KO, essential)
	p.logger.Info("straindesign: candidates screened",
		"blocked", len(blocked), "essential", len(essential), "dropped", len(dropped))

	if cfg.Genes {
		if work, mods, err = p.extendGenes(work, mods, &set, essential); err != nil {
			return nil, err
		}
	}
	ko, ki, err := cost.MergeGenes(set)
	if err != nil {
		return nil, err
	}

	regs := make([]translate.Regulatory, len(cfg.Regulatory))
	copy(regs, cfg.Regulatory)
	if p.split != nil {
		for i := range regs {
			regs[i].Constraint.Expr = p.split.Apply(regs[i].Constraint.Expr)
		}
	}
	if p.labels, err = translate.ExtendRegulatory(work, regs, ko); err != nil {
		return nil, err
	}
	p.origKO, p.origKI = ko.Clone(), ki.Clone()
	p.setup.EffectiveKO, p.setup.EffectiveKI = nonEmpty(ko), nonEmpty(ki)

	if err = p.compress(ctx, work, mods, ko, ki, fopts); err != nil {
		return nil, err
	}
	p.logger.Info("straindesign: prepared",
		"reactions", p.net.NumReactions(), "ko_candidates", len(p.ko), "ki_candidates", len(p.ki),
		"forced_knockins", len(p.forceKI), "regulatory", len(p.labels))

	return p, nil
}

// defaultCosts completes the cost maps of the run.
func (p *Problem) defaultCosts(n *network.Network) (cost.Set, error) {
	set := p.cfg.Costs.Clone()
	if set.KI == nil {
		set.KI = cost.Costs{}
	}
	if p.cfg.Genes {
		if set.KO == nil {
			set.KO = cost.Costs{}
		}
		var err error
		if set.GeneKO, err = translate.ResolveGeneNames(n, set.GeneKO); err != nil {
			return set, err
		}
		if set.GeneKI, err = translate.ResolveGeneNames(n, set.GeneKI); err != nil {
			return set, err
		}
		if set.GeneKI == nil {
			set.GeneKI = cost.Costs{}
		}
		if set.GeneKO == nil {
			set.GeneKO = cost.Costs{}
			for _, g := range n.Genes() {
				if _, ok := set.GeneKI[g.ID]; !ok {
					set.GeneKO[g.ID] = 1
				}
			}
		}

		return set, nil
	}
	set.GeneKO, set.GeneKI = nil, nil
	if set.KO == nil {
		set.KO = cost.Costs{}
		for _, id := range n.ReactionIDs() {
			if _, ok := set.KI[id]; !ok {
				set.KO[id] = 1
			}
		}
	}

	return set, nil
}

// extendGenes rewrites work into the gene-extended network.
func (p *Problem) extendGenes(work *network.Network, mods []sdmodule.Module, set *cost.Set, essential []string) (*network.Network, []sdmodule.Module, error) {
	rep, err := translate.SimplifyGenes(work, set.GeneKO, set.GeneKI, essential)
	if err != nil {
		return nil, nil, err
	}
	candidates := make(map[string]struct{}, len(set.GeneKO)+len(set.GeneKI))
	for _, c := range []cost.Costs{set.GeneKO, set.GeneKI} {
		for g := range c {
			candidates[g] = struct{}{}
		}
	}
	ext, split, err := translate.ExtendGPR(work, candidates)
	if err != nil {
		return nil, nil, err
	}
	p.split = split
	p.logger.Info("straindesign: gene rules expanded",
		"irrelevant_genes", len(rep.Irrelevant), "essential_genes", len(rep.Essential),
		"gene_candidates", len(candidates), "reactions", ext.NumReactions())

	return ext, translate.Modules(mods, split), nil
}

// compress reduces work (when enabled), maps costs and modules into the
// reduced space and screens the reduced candidates for essentiality.
func (p *Problem) compress(ctx context.Context, work *network.Network, mods []sdmodule.Module, ko, ki cost.Costs, fopts []fva.Option) error {
	if !p.cfg.Compress {
		p.cmap = &compress.Map{Original: work.ReactionIDs()}
	} else {
		refs := sdmodule.References(mods)
		protected := append([]string(nil), refs...)
		for id := range p.labels {
			protected = append(protected, id)
		}
		m, err := compress.Compress(work,
			compress.WithProtected(protected...),
			compress.WithClass(cost.Classify(ko, ki)),
			compress.WithLogger(p.logger))
		if err != nil {
			return err
		}
		em, err := translate.FromImages(m.Flatten(), refs)
		if err != nil {
			return err
		}
		mods = translate.Modules(mods, em)
		p.cmap = m
	}
	p.levels = cost.Levels(p.cmap, ko, ki)
	last := p.levels[len(p.levels)-1]
	p.ko, p.ki = last.KO.Clone(), last.KI.Clone()

	essential, err := fva.Essential(ctx, work, mods, fopts...)
	if err != nil {
		return err
	}
	cost.RemoveEssential(p.ko, essential)
	for _, id := range essential {
		if _, ok := p.ki[id]; ok {
			p.forceKI = append(p.forceKI, id)
		}
	}
	sort.Strings(p.forceKI)
	p.net, p.mods = work, mods

	return nil
}

func nonEmpty(c cost.Costs) cost.Costs {
	if len(c) == 0 {
		return nil
	}

	return c.Clone()
}

// Setup returns the audit record of the run.
func (p *Problem) Setup() Setup { return p.setup }
