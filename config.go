package straindesign

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/katalvlaran/straindesign/cost"
	"github.com/katalvlaran/straindesign/sdmilp"
	"github.com/katalvlaran/straindesign/translate"
)

var (
	// ErrUnknownApproach is returned for a solution approach other than
	// any, best or populate.
	ErrUnknownApproach = errors.New("straindesign: unknown solution approach")

	// ErrInvalidConfig wraps struct validation failures.
	ErrInvalidConfig = errors.New("straindesign: invalid configuration")
)

// validate is shared by Config and SolveOptions.
var validate = validator.New()

// Config describes a run.
type Config struct {
	// Solver is a solver identifier (sdmilp.SolverBnB, sdmilp.SolverBnBBigM).
	Solver string `yaml:"solver" json:"solver" validate:"required"`
	// BigM overrides the solver's big-M constant when positive and finite.
	BigM float64 `yaml:"big_m,omitempty" json:"big_m,omitempty" validate:"gte=0"`
	// Compress enables network compression.
	Compress bool `yaml:"compress" json:"compress"`
	// Genes requests gene-based designs; with nil Costs.GeneKO every gene
	// is a knockout candidate at cost 1.
	Genes bool `yaml:"genes" json:"genes"`
	// Costs holds the reaction and gene cost maps. With nil Costs.KO and
	// no gene run, every reaction is a knockout candidate at cost 1.
	Costs cost.Set `yaml:"costs" json:"costs"`
	// Regulatory lists regulatory interventions over reaction ids.
	Regulatory []translate.Regulatory `yaml:"-" json:"-"`
	// Workers bounds the parallel FVA solves; 0 uses GOMAXPROCS.
	Workers int `yaml:"workers,omitempty" json:"workers,omitempty" validate:"gte=0"`

	Logger *slog.Logger `yaml:"-" json:"-" validate:"-"`
}

// DefaultConfig returns a compressed reaction-level run on the indicator
// branch-and-bound solver.
func DefaultConfig() Config {
	return Config{Solver: sdmilp.SolverBnB, Compress: true}
}

// Validate checks field ranges and the solver id.
// Errors: ErrInvalidConfig, sdmilp.ErrUnknownSolver.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	_, err := sdmilp.Capabilities(c.Solver)

	return err
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}

	return slog.Default()
}

// SolveOptions parameterises Problem.Solve.
type SolveOptions struct {
	// MaxSolutions bounds the number of designs in every approach. any and
	// best also return up to MaxSolutions designs, each later one excluding
	// the earlier designs and their supersets.
	MaxSolutions int `yaml:"max_solutions" json:"max_solutions" validate:"gte=1"`
	// TimeLimit bounds the whole MILP search; 0 means unlimited.
	TimeLimit time.Duration `yaml:"time_limit" json:"time_limit" validate:"gte=0"`
	// MaxCost bounds the total intervention cost; +Inf means unbounded.
	MaxCost float64 `yaml:"max_cost" json:"max_cost" validate:"gt=0"`
	// Approach is "any", "best" or "populate".
	Approach string `yaml:"solution_approach" json:"solution_approach"`
}

// DefaultSolveOptions returns one cost-optimal design without cost or
// time bounds.
func DefaultSolveOptions() SolveOptions {
	return SolveOptions{MaxSolutions: 1, MaxCost: math.Inf(1), Approach: sdmilp.Best.String()}
}

// Validate checks field ranges and the approach.
// Errors: ErrInvalidConfig, ErrUnknownApproach.
func (o SolveOptions) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := sdmilp.ParseMode(o.Approach); err != nil {
		return fmt.Errorf("%w: %w", ErrUnknownApproach, err)
	}

	return nil
}
