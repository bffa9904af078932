// Package translate carries design modules and intervention candidates
// between reaction spaces.
//
// ExtendGPR rewrites a network into a new reaction list in which gene
// knockouts and knock-ins become ordinary reaction interventions:
//
//   - every candidate gene g gets a pseudo metabolite "g_<g>" and a source
//     reaction with id g, bounds [0, +Inf);
//   - a gated reaction r consumes one unit of an enzyme metabolite per unit
//     of flux; the enzyme is produced by one reaction "<r>_gpr<j>" per
//     minimal gene set j of r's rule (a single-gene rule uses the gene
//     metabolite directly);
//   - a reversible gated reaction is split into r ([0, ub]) and r_rev
//     ([0, -lb]) so that both directions consume enzyme.
//
// Genes without a cost are assumed present and dropped from the rules
// before expansion; a rule that becomes trivially true leaves its reaction
// ungated.
//
// ExtendRegulatory turns each regulatory constraint into a knockout
// candidate that, when removed, imposes the constraint.
//
// An ExprMap rewrites expressions from one space into another; ids absent
// from the map are left untouched.
package translate
