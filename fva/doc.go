// Package fva implements flux variability analysis and the reaction
// classifications derived from it: blocked, forced-irreversible and
// essential reactions.
//
// Analyze minimises and maximises every reaction flux over the flux-balance
// polytope of a network, optionally intersected with extra linear
// constraints. An infeasible polytope yields ErrInfeasibleModel; an
// unbounded direction is reported as ±Inf.
//
// Essential evaluates every non-suppress module independently and in
// parallel (errgroup); modules whose constrained network is infeasible
// contribute no essential reactions and are logged at Warn level.
//
// Bounds with magnitude at or above the dummy threshold (1000, the usual
// "unbounded" placeholder in metabolic models) must be replaced by ±Inf
// with RemoveDummyBounds before any analysis.
package fva
