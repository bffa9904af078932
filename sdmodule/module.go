package sdmodule

import (
	"errors"
	"fmt"
	"sort"

	"github.com/katalvlaran/straindesign/network"
)

var (
	// ErrMultipleNested is returned when more than one nested-optimization
	// module is supplied.
	ErrMultipleNested = errors.New("sdmodule: more than one nested-optimization module")

	// ErrNoModules is returned for an empty module list.
	ErrNoModules = errors.New("sdmodule: no modules")

	// ErrMissingObjective is returned when a nested module lacks its inner
	// or outer objective, or an OptCouple module lacks its product.
	ErrMissingObjective = errors.New("sdmodule: missing objective")

	// ErrUnknownKind is returned when a Spec names no known module kind.
	ErrUnknownKind = errors.New("sdmodule: unknown module kind")
)

// Kind enumerates module kinds.
type Kind int8

const (
	KindProtect Kind = iota
	KindSuppress
	KindOptKnock
	KindRobustKnock
	KindOptCouple
)

var kindNames = [...]string{"protect", "suppress", "optknock", "robustknock", "optcouple"}

// String returns the lower-case kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String. Errors: ErrUnknownKind.
func ParseKind(s string) (Kind, error) {
	for i, n := range kindNames {
		if n == s {
			return Kind(i), nil
		}
	}

	return 0, fmt.Errorf("%q: %w", s, ErrUnknownKind)
}

// Nested reports whether k embeds an inner optimization.
func (k Kind) Nested() bool { return k >= KindOptKnock }

// Module is one design requirement. The set of implementations is closed.
type Module interface {
	Kind() Kind
	// Region returns the module's linear constraints.
	Region() []network.Constraint
	// Exprs returns the objective and product expressions, if any.
	Exprs() []network.Expr
	// Rewrite returns a copy with every expression mapped through fn.
	Rewrite(fn func(network.Expr) network.Expr) Module

	sealed()
}

// Protect requires that some flux vector of the engineered network satisfies
// Constraints.
type Protect struct {
	Constraints []network.Constraint
}

// Suppress requires that no flux vector of the engineered network satisfies
// Constraints.
type Suppress struct {
	Constraints []network.Constraint
}

// OptKnock maximises Outer over the optimal face of the inner problem
// max Inner subject to the network and Constraints.
type OptKnock struct {
	Constraints []network.Constraint
	Inner       network.Expr
	Outer       network.Expr
}

// RobustKnock maximises the minimum of Outer over the optimal face of the
// inner problem max Inner subject to the network and Constraints.
type RobustKnock struct {
	Constraints []network.Constraint
	Inner       network.Expr
	Outer       network.Expr
}

// OptCouple maximises the growth-coupling potential: the optimum of Inner
// with production minus the optimum of Inner with Product forced to zero.
// MinGCP is a lower bound on that difference.
type OptCouple struct {
	Constraints []network.Constraint
	Inner       network.Expr
	Product     network.Expr
	MinGCP      float64
}

func (Protect) Kind() Kind     { return KindProtect }
func (Suppress) Kind() Kind    { return KindSuppress }
func (OptKnock) Kind() Kind    { return KindOptKnock }
func (RobustKnock) Kind() Kind { return KindRobustKnock }
func (OptCouple) Kind() Kind   { return KindOptCouple }

func (m Protect) Region() []network.Constraint     { return m.Constraints }
func (m Suppress) Region() []network.Constraint    { return m.Constraints }
func (m OptKnock) Region() []network.Constraint    { return m.Constraints }
func (m RobustKnock) Region() []network.Constraint { return m.Constraints }
func (m OptCouple) Region() []network.Constraint   { return m.Constraints }

func (Protect) Exprs() []network.Expr       { return nil }
func (Suppress) Exprs() []network.Expr      { return nil }
func (m OptKnock) Exprs() []network.Expr    { return []network.Expr{m.Inner, m.Outer} }
func (m RobustKnock) Exprs() []network.Expr { return []network.Expr{m.Inner, m.Outer} }
func (m OptCouple) Exprs() []network.Expr   { return []network.Expr{m.Inner, m.Product} }

func (m Protect) Rewrite(fn func(network.Expr) network.Expr) Module {
	return Protect{Constraints: rewriteAll(m.Constraints, fn)}
}

func (m Suppress) Rewrite(fn func(network.Expr) network.Expr) Module {
	return Suppress{Constraints: rewriteAll(m.Constraints, fn)}
}

func (m OptKnock) Rewrite(fn func(network.Expr) network.Expr) Module {
	return OptKnock{Constraints: rewriteAll(m.Constraints, fn), Inner: fn(m.Inner), Outer: fn(m.Outer)}
}

func (m RobustKnock) Rewrite(fn func(network.Expr) network.Expr) Module {
	return RobustKnock{Constraints: rewriteAll(m.Constraints, fn), Inner: fn(m.Inner), Outer: fn(m.Outer)}
}

func (m OptCouple) Rewrite(fn func(network.Expr) network.Expr) Module {
	return OptCouple{
		Constraints: rewriteAll(m.Constraints, fn),
		Inner:       fn(m.Inner),
		Product:     fn(m.Product),
		MinGCP:      m.MinGCP,
	}
}

func (Protect) sealed()     {}
func (Suppress) sealed()    {}
func (OptKnock) sealed()    {}
func (RobustKnock) sealed() {}
func (OptCouple) sealed()   {}

func rewriteAll(cs []network.Constraint, fn func(network.Expr) network.Expr) []network.Constraint {
	out := make([]network.Constraint, len(cs))
	for i, c := range cs {
		out[i] = network.Constraint{Expr: fn(c.Expr), Sense: c.Sense, RHS: c.RHS}
	}

	return out
}

// Nested returns the single nested-optimization module of mods, or nil.
func Nested(mods []Module) Module {
	for _, m := range mods {
		if m.Kind().Nested() {
			return m
		}
	}

	return nil
}

// References returns every reaction id used by any module, sorted.
func References(mods []Module) []string {
	seen := make(map[string]struct{})
	add := func(e network.Expr) {
		for id := range e {
			seen[id] = struct{}{}
		}
	}
	for _, m := range mods {
		for _, c := range m.Region() {
			add(c.Expr)
		}
		for _, e := range m.Exprs() {
			add(e)
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)

	return out
}

// Validate checks the module list against n.
//
// Errors (first found): ErrNoModules, ErrMultipleNested,
// ErrMissingObjective, network.ErrUnknownReaction.
func Validate(mods []Module, n *network.Network) error {
	if len(mods) == 0 {
		return ErrNoModules
	}
	nested := 0
	for i, m := range mods {
		if !m.Kind().Nested() {
			continue
		}
		nested++
		if nested > 1 {
			return ErrMultipleNested
		}
		for _, e := range m.Exprs() {
			if len(e) == 0 {
				return fmt.Errorf("module %d (%s): %w", i, m.Kind(), ErrMissingObjective)
			}
		}
	}
	for i, m := range mods {
		for _, c := range m.Region() {
			if err := n.CheckExpr(c.Expr); err != nil {
				return fmt.Errorf("module %d (%s): %w", i, m.Kind(), err)
			}
		}
		for _, e := range m.Exprs() {
			if err := n.CheckExpr(e); err != nil {
				return fmt.Errorf("module %d (%s): %w", i, m.Kind(), err)
			}
		}
	}

	return nil
}
