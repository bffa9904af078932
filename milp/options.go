package milp

import (
	"log/slog"
	"math"
	"time"
)

// DefaultIntTolerance is the distance from 0/1 below which a binary counts
// as integral.
const DefaultIntTolerance = 1e-6

const (
	panicTimeLimitInvalid = "milp: WithTimeLimit: limit must be ≥ 0"
	panicIntTolInvalid    = "milp: WithIntTolerance: tol must be in (0, 0.5)"
	panicNodeLimitInvalid = "milp: WithNodeLimit: limit must be ≥ 0"
)

// Option configures Solve.
type Option func(*options)

type options struct {
	timeLimit time.Duration
	nodeLimit int
	firstOnly bool
	intTol    float64
	logger    *slog.Logger
}

// WithTimeLimit bounds the wall-clock search time; 0 means unlimited.
// Panics on negative values.
func WithTimeLimit(d time.Duration) Option {
	if d < 0 {
		panic(panicTimeLimitInvalid)
	}

	return func(o *options) { o.timeLimit = d }
}

// WithNodeLimit bounds the number of relaxations solved; 0 means
// unlimited. Reaching the limit ends the search like the time limit does.
// Panics on negative values.
func WithNodeLimit(n int) Option {
	if n < 0 {
		panic(panicNodeLimitInvalid)
	}

	return func(o *options) { o.nodeLimit = n }
}

// WithFirstFeasible stops at the first integral solution.
func WithFirstFeasible() Option {
	return func(o *options) { o.firstOnly = true }
}

// WithIntTolerance overrides DefaultIntTolerance.
// Panics outside (0, 0.5).
func WithIntTolerance(tol float64) Option {
	if math.IsNaN(tol) || tol <= 0 || tol >= 0.5 {
		panic(panicIntTolInvalid)
	}

	return func(o *options) { o.intTol = tol }
}

// WithLogger sets the logger for search statistics (Debug level).
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func gatherOptions(opts []Option) options {
	o := options{intTol: DefaultIntTolerance, logger: slog.Default()}
	for _, fn := range opts {
		fn(&o)
	}

	return o
}
