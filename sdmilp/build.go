package sdmilp

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/katalvlaran/straindesign/cost"
	"github.com/katalvlaran/straindesign/lp"
	"github.com/katalvlaran/straindesign/milp"
	"github.com/katalvlaran/straindesign/network"
	"github.com/katalvlaran/straindesign/sdmodule"
)

// Config parameterises Build.
type Config struct {
	// Emitter writes gates; nil selects the indicator emitter.
	Emitter Emitter
	// MaxCost bounds the total intervention cost; +Inf or 0 means none.
	MaxCost float64
	// ForceKnockin lists knock-in candidates that must be inserted.
	ForceKnockin []string
	Logger       *slog.Logger
}

// candidate is one intervention decision.
type candidate struct {
	id    string
	bin   int
	ko    bool
	price float64
}

// Formulation is a built strain-design MILP.
type Formulation struct {
	model  *milp.Model
	cands  []candidate
	nested bool
	logger *slog.Logger
}

// Build encodes mods over n with knockout candidates ko and knock-in
// candidates ki (ids of reactions of n).
//
// Steps:
//  1. One binary per candidate, sorted by id; cost row and forced knock-ins.
//  2. One block per module (see package doc).
//  3. Objective: the nested module's objective if any, else the
//     intervention cost.
//
// Without candidates the model decides whether the unmodified network
// already meets every module.
//
// Encoding:
//   - Protect adds the flux system with the constraints as rows.
//   - Suppress adds the Farkas dual of the flux system, so a feasible dual
//     certifies that no flux vector meets the constraints.
//   - OptKnock, RobustKnock and OptCouple add a primal, its dual and a
//     strong-duality row for the inner problem, then the outer objective.
//
// Every flux or dual column tied to a candidate is gated through
// cfg.Emitter; the gated column is zero when the candidate is knocked out
// (or a knock-in is left out).
//
// Errors: sdmodule.ErrMultipleNested,
// network.ErrUnknownReaction, cost.ErrOverlap.
func Build(n *network.Network, mods []sdmodule.Module, ko, ki cost.Costs, cfg Config) (*Formulation, error) {
	if err := sdmodule.Validate(mods, n); err != nil {
		return nil, err
	}
	if cfg.Emitter == nil {
		cfg.Emitter = indicator{}
	}
	f := &Formulation{model: &milp.Model{}, logger: cfg.Logger}
	if f.logger == nil {
		f.logger = slog.Default()
	}

	gates, err := f.addCandidates(n, ko, ki)
	if err != nil {
		return nil, err
	}
	f.addCostRow(cfg.MaxCost)
	for _, id := range cfg.ForceKnockin {
		for _, c := range f.cands {
			if c.id == id && !c.ko {
				if err = f.model.Fix(c.bin, 1); err != nil {
					return nil, err
				}
			}
		}
	}

	b := &blocks{f: f, n: n, e: cfg.Emitter, gates: gates}
	for _, mod := range mods {
		switch m := mod.(type) {
		case sdmodule.Protect:
			err = b.protect(m.Constraints)
		case sdmodule.Suppress:
			err = b.suppress(m.Constraints)
		case sdmodule.OptKnock:
			err = b.optKnock(m)
		case sdmodule.RobustKnock:
			err = b.robustKnock(m)
		case sdmodule.OptCouple:
			err = b.optCouple(m)
		}
		if err != nil {
			return nil, fmt.Errorf("%s module: %w", mod.Kind(), err)
		}
		if mod.Kind().Nested() {
			f.nested = true
		}
	}
	if !f.nested {
		f.costObjective()
	}
	f.logger.Info("sdmilp: formulation built",
		"candidates", len(f.cands), "columns", f.model.NumVars(), "rows", len(f.model.Rows),
		"indicators", len(f.model.Indicators), "big_m", cfg.Emitter.M())

	return f, nil
}

// addCandidates creates the binaries and returns reaction index → binary.
func (f *Formulation) addCandidates(n *network.Network, ko, ki cost.Costs) (map[int]int, error) {
	ids := make([]string, 0, len(ko)+len(ki))
	for id := range ko {
		if _, ok := ki[id]; ok {
			return nil, fmt.Errorf("%q: %w", id, cost.ErrOverlap)
		}
		ids = append(ids, id)
	}
	for id := range ki {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	gates := make(map[int]int, len(ids))
	for _, id := range ids {
		j, ok := n.Index(id)
		if !ok {
			return nil, fmt.Errorf("candidate %q: %w", id, network.ErrUnknownReaction)
		}
		c := candidate{id: id, bin: f.model.AddBinary(0)}
		if price, isKO := ko[id]; isKO {
			c.ko, c.price = true, price
		} else {
			c.price = ki[id]
		}
		f.cands = append(f.cands, c)
		gates[j] = c.bin
	}

	return gates, nil
}

// costTerms returns Σ cost(intervention) as terms plus a constant.
func (f *Formulation) costTerms() ([]lp.Term, float64) {
	var (
		terms []lp.Term
		fixed float64
	)
	for _, c := range f.cands {
		if c.ko {
			terms = append(terms, lp.Term{Col: c.bin, Coef: -c.price})
			fixed += c.price
		} else {
			terms = append(terms, lp.Term{Col: c.bin, Coef: c.price})
		}
	}

	return terms, fixed
}

func (f *Formulation) addCostRow(maxCost float64) {
	if maxCost <= 0 || math.IsInf(maxCost, 1) || math.IsNaN(maxCost) {
		return
	}
	terms, fixed := f.costTerms()
	f.model.AddRow(terms, lp.LessEq, maxCost-fixed)
}

func (f *Formulation) costObjective() {
	terms, _ := f.costTerms()
	for _, t := range terms {
		f.model.Objective[t.Col] += t.Coef
	}
}

// blocks emits the module encodings.
type blocks struct {
	f     *Formulation
	n     *network.Network
	e     Emitter
	gates map[int]int
}

func (b *blocks) protect(cons []network.Constraint) error {
	s, err := fluxSystem(b.n, cons, b.gates)
	if err != nil {
		return err
	}
	_, err = place(b.f.model, b.e, s)

	return err
}

// suppress places a Farkas certificate: dual multipliers with zero
// reduced costs and a negative combined right-hand side (≤ −1 after
// scaling).
func (b *blocks) suppress(cons []network.Constraint) error {
	s, err := fluxSystem(b.n, cons, b.gates)
	if err != nil {
		return err
	}
	d, obj := dual(s, nil)
	at, err := place(b.f.model, b.e, d)
	if err != nil {
		return err
	}
	b.f.model.AddRow(dot(obj, at, 1), lp.LessEq, -1)

	return nil
}

// innerCoef maps an expression to local column coefficients of a flux
// system.
func (b *blocks) innerCoef(e network.Expr) (map[int]float64, error) {
	terms, err := b.n.Terms(e)
	if err != nil {
		return nil, err
	}
	c := make(map[int]float64, len(terms))
	for _, t := range terms {
		c[t.Col] = t.Coef
	}

	return c, nil
}

// optimal places a primal copy of s, the dual of "max inner over s" and
// the strong-duality row inner·x ≥ dual objective. It returns the primal
// columns.
func (b *blocks) optimal(s *system, inner map[int]float64) ([]int, error) {
	x, err := place(b.f.model, b.e, s)
	if err != nil {
		return nil, err
	}
	d, obj := dual(s, inner)
	y, err := place(b.f.model, b.e, d)
	if err != nil {
		return nil, err
	}
	row := append(dot(obj, y, -1), mapped(inner, x)...)
	b.f.model.AddRow(row, lp.GreaterEq, 0)

	return x, nil
}

func (b *blocks) optKnock(m sdmodule.OptKnock) error {
	s, err := fluxSystem(b.n, m.Constraints, b.gates)
	if err != nil {
		return err
	}
	inner, err := b.innerCoef(m.Inner)
	if err != nil {
		return err
	}
	x, err := b.optimal(s, inner)
	if err != nil {
		return err
	}
	outer, err := linear(b.n, m.Outer, x)
	if err != nil {
		return err
	}
	for _, t := range outer {
		b.f.model.Objective[t.Col] -= t.Coef
	}

	return nil
}

// robustKnock places the inner optimality blocks and the dual of
//
//	min outer·v  s.t.  v ∈ s, π dual feasible for s, inner·v ≥ dual obj·π
//
// whose dual objective is minimised by the MILP (maximising the minimum).
func (b *blocks) robustKnock(m sdmodule.RobustKnock) error {
	s, err := fluxSystem(b.n, m.Constraints, b.gates)
	if err != nil {
		return err
	}
	inner, err := b.innerCoef(m.Inner)
	if err != nil {
		return err
	}
	if _, err = b.optimal(s, inner); err != nil {
		return err
	}

	d, obj := dual(s, inner)
	face := combine(s, d)
	row := mapped(inner, nil)
	for k, v := range obj {
		if v != 0 {
			row = append(row, lp.Term{Col: len(s.cols) + k, Coef: -v})
		}
	}
	face.rows = append(face.rows, lp.Row{Terms: row, Sense: lp.GreaterEq})

	outer, err := b.innerCoef(m.Outer)
	if err != nil {
		return err
	}
	neg := make(map[int]float64, len(outer))
	for j, v := range outer {
		neg[j] = -v
	}
	dd, dobj := dual(face, neg)
	at, err := place(b.f.model, b.e, dd)
	if err != nil {
		return err
	}
	for k, v := range dobj {
		b.f.model.Objective[at[k]] += v
	}

	return nil
}

// optCouple maximises inner·v (with production) minus the dual bound of
// max inner with Product·v = 0. An infeasible no-production network counts
// as zero growth.
func (b *blocks) optCouple(m sdmodule.OptCouple) error {
	s, err := fluxSystem(b.n, m.Constraints, b.gates)
	if err != nil {
		return err
	}
	x, err := place(b.f.model, b.e, s)
	if err != nil {
		return err
	}
	inner, err := b.innerCoef(m.Inner)
	if err != nil {
		return err
	}

	prod, err := b.n.Terms(m.Product)
	if err != nil {
		return err
	}
	s0, err := fluxSystem(b.n, m.Constraints, b.gates)
	if err != nil {
		return err
	}
	s0.rows = append(s0.rows, lp.Row{Terms: prod, Sense: lp.Equal})
	d, obj := dual(s0, inner)
	y, err := place(b.f.model, b.e, d)
	if err != nil {
		return err
	}

	bound := dot(obj, y, 1)
	b.f.model.AddRow(bound, lp.GreaterEq, 0)
	growth := mapped(inner, x)
	gcp := append(dot(obj, y, -1), growth...)
	for _, t := range growth {
		b.f.model.Objective[t.Col] -= t.Coef
	}
	for _, t := range bound {
		b.f.model.Objective[t.Col] += t.Coef
	}
	b.f.model.AddRow(gcp, lp.GreaterEq, m.MinGCP)

	return nil
}
