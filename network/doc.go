// Package network holds the stoichiometric network model consumed by the
// strain-design pipeline, together with the linear constraint strings used
// to describe design modules.
//
// A Network is an ordered collection of metabolites, reactions and genes.
// Reaction order is stable and defines the column order of the flux-balance
// LP returned by Network.LP, so every analysis that builds on it (FVA, the
// strain-design MILP) can address fluxes by index.
//
// # Invariants
//
//   - identifiers are unique per entity kind;
//   - every stoichiometric coefficient references an existing metabolite;
//   - Lower ≤ Upper for every reaction (±Inf allowed).
//
// Boundary metabolites are not mass balanced. They model the space outside
// the system and are stripped by the compressor before lumping.
//
// # Constraint strings
//
// ParseConstraint accepts linear (in)equalities over reaction identifiers:
//
//	"EX_sucr_e - 1 BIOMASS__1 <= 0"
//	"2 R1 + R2*0.5 = 3"
//	"EX_o2_e >= -10"
//
// Operators are <=, >=, =, ==, < and > (strict forms are read as their
// non-strict counterparts). Constants may appear on either side.
package network
