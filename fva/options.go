package fva

import (
	"log/slog"
	"math"
	"runtime"
)

const (
	// DefaultTolerance decides whether a flux bound counts as zero.
	DefaultTolerance = 1e-9

	// EssentialTolerance is the magnitude a flux must exceed in every
	// direction for its reaction to be essential.
	EssentialTolerance = 1e-10

	// DefaultDummyBound is the placeholder magnitude for "unbounded".
	DefaultDummyBound = 1000.0
)

const (
	panicWorkersInvalid   = "fva: WithWorkers: workers must be > 0"
	panicThresholdInvalid = "fva: WithDummyBound: bound must be finite and > 0"
)

// Option configures the analyses of this package.
type Option func(*options)

type options struct {
	tol        float64
	workers    int
	dummyBound float64
	logger     *slog.Logger
}

// WithWorkers bounds the number of concurrent LP solves.
// Panics if workers ≤ 0.
func WithWorkers(workers int) Option {
	if workers <= 0 {
		panic(panicWorkersInvalid)
	}

	return func(o *options) { o.workers = workers }
}

// WithDummyBound overrides DefaultDummyBound.
// Panics on non-positive or non-finite values.
func WithDummyBound(bound float64) Option {
	if math.IsNaN(bound) || math.IsInf(bound, 0) || bound <= 0 {
		panic(panicThresholdInvalid)
	}

	return func(o *options) { o.dummyBound = bound }
}

// WithLogger sets the logger; nil keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func gatherOptions(opts []Option) options {
	o := options{
		tol:        DefaultTolerance,
		workers:    runtime.GOMAXPROCS(0),
		dummyBound: DefaultDummyBound,
		logger:     slog.Default(),
	}
	for _, fn := range opts {
		fn(&o)
	}

	return o
}
