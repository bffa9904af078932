// Package lp is the linear-programming kernel shared by flux variability
// analysis and the strain-design branch and bound.
//
// A Problem is written in the natural modelling form
//
//	minimize    cᵀx
//	subject to  rows: aᵢᵀx {≤, ≥, =} bᵢ
//	            Lower ≤ x ≤ Upper   (±Inf allowed)
//
// and Solve rewrites it into the equality standard form expected by the
// gonum simplex (A·y = b, y ≥ 0): variables are shifted by a finite bound or
// split into a positive and a negative part, inequalities receive slacks,
// empty rows and columns are resolved up front and linearly dependent rows
// are eliminated so that the remaining system has full row rank.
//
// Infeasible and unbounded problems are reported through Solution.Status;
// an error is returned only for malformed input or a numerical breakdown of
// the simplex.
package lp
