// Package milp solves small mixed-binary linear programs by depth-first
// branch and bound over LP relaxations (package lp).
//
// A Model is a minimisation LP in which some columns are binary, plus
// indicator constraints "binary = value ⇒ row". Indicators are enforced
// only once their binary is fixed at the triggering value; before that the
// relaxation ignores them, which keeps it valid without big-M constants.
//
// Search (per node):
//  1. Solve the relaxation with the node's binary fixings and the
//     indicators they activate.
//  2. Prune when infeasible or when the bound is not better than the
//     incumbent (LB ≥ UB − eps).
//  3. Branch on the most fractional binary; when every binary is integral
//     but an indicator of an unfixed binary is violated, branch on that
//     binary; otherwise record a new incumbent.
//  4. An unbounded relaxation branches on the first unfixed binary; an
//     unbounded node with every binary fixed makes the model unbounded.
//
// Children are explored rounded-value first so that dives reach integral
// points quickly. The time budget and the context are checked at every
// node; on expiry the best incumbent is returned with a time-limit status.
package milp
