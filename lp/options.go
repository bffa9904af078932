package lp

import "math"

// DefaultTolerance is the feasibility/pivot tolerance handed to the simplex
// and used for the zero tests of the standard-form reduction.
const DefaultTolerance = 1e-9

const panicToleranceInvalid = "lp: WithTolerance: tol must be finite and > 0"

// Option configures Solve.
type Option func(*options)

type options struct {
	tol float64
}

// WithTolerance overrides DefaultTolerance.
// Panics on non-positive or non-finite values (programmer error).
func WithTolerance(tol float64) Option {
	if math.IsNaN(tol) || math.IsInf(tol, 0) || tol <= 0 {
		panic(panicToleranceInvalid)
	}

	return func(o *options) { o.tol = tol }
}

func gatherOptions(opts []Option) options {
	o := options{tol: DefaultTolerance}
	for _, fn := range opts {
		fn(&o)
	}

	return o
}
