package fva

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/straindesign/lp"
	"github.com/katalvlaran/straindesign/network"
	"github.com/katalvlaran/straindesign/sdmodule"
)

// ErrInfeasibleModel is returned when the network (with the extra
// constraints, if any) admits no steady-state flux.
var ErrInfeasibleModel = errors.New("fva: model is infeasible")

// Range is the feasible flux interval of one reaction.
type Range struct {
	Min float64
	Max float64
}

// Blocked reports whether the reaction can carry no flux.
func (r Range) Blocked(tol float64) bool {
	return math.Abs(r.Min) <= tol && math.Abs(r.Max) <= tol
}

// Essential reports whether the reaction carries non-zero flux of one fixed
// sign in every feasible state: min(|Min|, |Max|) > EssentialTolerance and
// Min, Max share their sign.
func (r Range) Essential() bool {
	if math.Min(math.Abs(r.Min), math.Abs(r.Max)) <= EssentialTolerance {
		return false
	}

	return math.Signbit(r.Min) == math.Signbit(r.Max)
}

// Result maps reaction ids to their flux ranges.
type Result map[string]Range

// RemoveDummyBounds replaces bounds of magnitude ≥ the dummy threshold with
// ±Inf in place and returns the number of reactions changed.
func RemoveDummyBounds(n *network.Network, opts ...Option) int {
	o := gatherOptions(opts)
	changed := 0
	for j := 0; j < n.NumReactions(); j++ {
		r := n.ReactionAt(j)
		touched := false
		if r.Lower <= -o.dummyBound {
			r.Lower = math.Inf(-1)
			touched = true
		}
		if r.Upper >= o.dummyBound {
			r.Upper = math.Inf(1)
			touched = true
		}
		if touched {
			changed++
		}
	}
	if changed > 0 {
		o.logger.Info("fva: removed dummy bounds", slog.Int("reactions", changed), slog.Float64("threshold", o.dummyBound))
	}

	return changed
}

// Analyze computes the flux range of every reaction of n subject to cons.
//
// Steps:
//  1. Feasibility solve (zero objective); infeasible → ErrInfeasibleModel.
//  2. For each reaction, min and max solves run concurrently (WithWorkers).
//
// Errors: ErrInfeasibleModel, network.ErrUnknownReaction, lp errors,
// ctx.Err().
func Analyze(ctx context.Context, n *network.Network, cons []network.Constraint, opts ...Option) (Result, error) {
	o := gatherOptions(opts)
	base, err := Problem(n, cons)
	if err != nil {
		return nil, err
	}
	sol, err := lp.Solve(base)
	if err != nil {
		return nil, err
	}
	if sol.Status == lp.Infeasible {
		return nil, ErrInfeasibleModel
	}

	ranges := make([]Range, n.NumReactions())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for j := range ranges {
		j := j
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			lo, err := extreme(base, j, 1)
			if err != nil {
				return err
			}
			hi, err := extreme(base, j, -1)
			if err != nil {
				return err
			}
			ranges[j] = Range{Min: lo, Max: -hi}

			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}

	res := make(Result, len(ranges))
	for j, r := range ranges {
		res[n.ReactionAt(j).ID] = r
	}

	return res, nil
}

// Problem returns the flux-balance LP of n with cons appended as rows.
func Problem(n *network.Network, cons []network.Constraint) (*lp.Problem, error) {
	p := n.LP()
	for _, c := range cons {
		row, err := n.Row(c)
		if err != nil {
			return nil, err
		}
		p.Rows = append(p.Rows, row)
	}

	return p, nil
}

// extreme minimises sign·v_j over base and returns the optimal value,
// -Inf when unbounded.
func extreme(base *lp.Problem, j int, sign float64) (float64, error) {
	p := base.Clone()
	for k := range p.Objective {
		p.Objective[k] = 0
	}
	p.Objective[j] = sign
	sol, err := lp.Solve(p)
	if err != nil {
		return 0, err
	}
	switch sol.Status {
	case lp.Unbounded:
		return math.Inf(-1), nil
	case lp.Infeasible:
		return 0, ErrInfeasibleModel
	}

	return sol.Objective, nil
}

// BoundBlockedOrIrreversible tightens the bounds of n in place: blocked
// reactions are fixed to [0, 0], reactions that cannot run backwards
// (forwards) get a zero lower (upper) bound. It returns the ids of the
// blocked reactions, sorted.
//
// Errors: as Analyze; an infeasible base model is fatal.
func BoundBlockedOrIrreversible(ctx context.Context, n *network.Network, opts ...Option) ([]string, error) {
	o := gatherOptions(opts)
	res, err := Analyze(ctx, n, nil, opts...)
	if err != nil {
		return nil, err
	}
	var blocked []string
	for j := 0; j < n.NumReactions(); j++ {
		r := n.ReactionAt(j)
		rg := res[r.ID]
		if rg.Blocked(o.tol) {
			r.Lower, r.Upper = 0, 0
			blocked = append(blocked, r.ID)
			continue
		}
		if rg.Min >= -o.tol && r.Lower < 0 {
			r.Lower = 0
		}
		if rg.Max <= o.tol && r.Upper > 0 {
			r.Upper = 0
		}
	}
	sort.Strings(blocked)
	o.logger.Info("fva: bounded blocked and irreversible reactions", slog.Int("blocked", len(blocked)))

	return blocked, nil
}

// Essential returns the sorted union of reactions that are essential for
// at least one non-suppress module of mods. Modules are analysed in
// parallel; a module whose constrained network is infeasible contributes
// nothing and is logged.
//
// Errors: lp errors, network.ErrUnknownReaction, ctx.Err().
func Essential(ctx context.Context, n *network.Network, mods []sdmodule.Module, opts ...Option) ([]string, error) {
	o := gatherOptions(opts)
	var (
		mu    sync.Mutex
		union = make(map[string]struct{})
	)
	g, gctx := errgroup.WithContext(ctx)
	for i, m := range mods {
		if m.Kind() == sdmodule.KindSuppress {
			continue
		}
		i, m := i, m
		g.Go(func() error {
			res, err := Analyze(gctx, n, m.Region(), opts...)
			if errors.Is(err, ErrInfeasibleModel) {
				o.logger.Warn("fva: no essential reactions found for module",
					slog.Int("module", i), slog.String("kind", m.Kind().String()))

				return nil
			}
			if err != nil {
				return fmt.Errorf("module %d (%s): %w", i, m.Kind(), err)
			}
			mu.Lock()
			defer mu.Unlock()
			for id, r := range res {
				if r.Essential() {
					union[id] = struct{}{}
				}
			}

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(union))
	for id := range union {
		out = append(out, id)
	}
	sort.Strings(out)

	return out, nil
}
