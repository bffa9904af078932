// Package compress reduces a metabolic network while preserving every flux
// behaviour the strain-design modules can observe, and records a Map that
// relates original and compressed reactions.
//
// Compress first strips boundary metabolites and then iterates to a fixed
// point:
//
//  1. Blocked reactions (both bounds zero) and reactions that are the only
//     user of a balanced metabolite are removed; unused metabolites are
//     dropped.
//  2. Serial lumping: a metabolite used by exactly two reactions couples
//     their fluxes (a·v₁ + b·v₂ = 0). Coupled reactions are grouped with a
//     weighted union-find and replaced by one reaction L with
//     v_r = f_r·v_L for every member r. Bounds are intersected; an
//     inconsistent coupling cycle forces the whole group to zero and the
//     group is removed.
//  3. Parallel lumping: reactions whose stoichiometric columns are positive
//     multiples of each other (col_r = λ_r·col_ref, λ_r > 0) and that share
//     an intervention class are replaced by one reaction with
//     v_L = Σ λ_r·v_r and summed bounds. Protected
//     reactions (those referenced by a design module) are never parallel
//     lumped, and neither is any serial lump that contains one.
//
// Each iteration contributes at most one serial and one parallel Step to
// the Map. A network at its fixed point compresses to an empty Map.
//
// Lumped ids join the member ids with "*" (serial) or "|" (parallel).
package compress
