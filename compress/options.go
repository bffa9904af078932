package compress

import "log/slog"

// Class is the intervention class of a reaction. Parallel lumping only
// merges reactions of the same class; a serial lump takes the highest class
// of its members.
type Class int8

const (
	// None marks reactions that are not intervention candidates.
	None Class = iota
	// Knockout marks knockout candidates.
	Knockout
	// Knockin marks knock-in candidates.
	Knockin
)

// Option configures Compress.
type Option func(*options)

type options struct {
	protected map[string]struct{}
	class     func(id string) Class
	logger    *slog.Logger
}

// WithProtected excludes the given reactions (and any lump containing them)
// from parallel lumping.
func WithProtected(ids ...string) Option {
	return func(o *options) {
		for _, id := range ids {
			o.protected[id] = struct{}{}
		}
	}
}

// WithClass sets the classifier applied to the reactions present when
// Compress starts. Without it every reaction is of class None.
func WithClass(fn func(id string) Class) Option {
	return func(o *options) {
		if fn != nil {
			o.class = fn
		}
	}
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
		protected: make(map[string]struct{}),
		class:     func(string) Class { return None },
		logger:    slog.Default(),
	}
	for _, fn := range opts {
		fn(&o)
	}

	return o
}
