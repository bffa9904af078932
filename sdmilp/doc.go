// Package sdmilp builds and solves the strain-design MILP.
//
// One binary y_r is created per intervention candidate. y_r = 1 means the
// reaction can carry flux (a knockout candidate left in place, a knock-in
// candidate inserted); y_r = 0 forces v_r = 0 in every flux block. Blocks:
//
//	PROTECT      primal copy of the network with the module rows.
//	SUPPRESS     Farkas certificate that the module region is empty.
//	OPTKNOCK     primal + LP dual of the inner problem + strong duality;
//	             the MILP maximises the outer objective.
//	ROBUSTKNOCK  primal + dual of the inner problem, plus the dual of
//	             "min outer over the inner optimal face"; the MILP
//	             maximises that guaranteed minimum.
//	OPTCOUPLE    primal with production minus the dual bound of the inner
//	             optimum with the product forced to zero.
//
// A gated column is "0 when y = value, within its bounds otherwise". How
// a gate is written is decided once per run by an Emitter: indicator rows
// (M = +Inf) or big-M rows. Solve modes are any, best and populate.
//
// In any mode with a nested module the first feasible point is returned
// as is; it can be the wild type with no interventions.
package sdmilp
