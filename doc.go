// Package straindesign computes strain designs: minimal or cost-optimal
// sets of reaction and gene knockouts, knock-ins and regulatory
// interventions that make a metabolic network meet a list of design
// modules (protect, suppress, OptKnock, RobustKnock, OptCouple).
//
// A run has two entry points:
//
//	p, err := straindesign.Prepare(ctx, model, modules, cfg)   // preprocessing
//	sols, err := p.Solve(ctx, opts)                            // MILP + postprocessing
//
// Prepare works on a private copy of the model:
//
//	fva        dummy bounds removed, blocked/irreversible bounds tightened,
//	           essential reactions excluded from the knockout candidates
//	translate  gene rules expanded into the network, regulatory
//	           interventions added as pseudo reactions
//	compress   blocked reactions removed, serial/parallel lumps formed;
//	           costs and modules mapped into the compressed space
//
// Solve builds the MILP (package sdmilp), searches designs in the chosen
// approach (any, best, populate) and maps them back (package decompress):
// lumps are expanded, designs over max cost are dropped and regulatory
// interventions become boolean flags.
//
// Configuration problems are errors; the absence of a design is a status
// (sdmilp.Infeasible), never an error.
//
// Subpackages:
//
//	lp          LP kernel over gonum's simplex
//	milp        binary branch and bound over lp
//	network     stoichiometric model, linear constraints
//	gpr         gene rule parser, minimal gene sets (gini)
//	sdmodule    design modules and their serialisable form
//	fva         flux variability analysis, essentiality
//	compress    network compression and its map
//	cost        cost maps and their propagation through compression
//	translate   gene and regulatory network extensions, module rewriting
//	sdmilp      strain-design MILP formulation and solve modes
//	decompress  design expansion, cost filter, regulatory flags
package straindesign
