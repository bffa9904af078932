package sdmodule

import (
	"github.com/katalvlaran/straindesign/network"
)

// Spec is the flat, serialisable form of a Module. Constraints and
// expressions use the network constraint syntax.
type Spec struct {
	Kind           string   `yaml:"kind" json:"kind"`
	Constraints    []string `yaml:"constraints,omitempty" json:"constraints,omitempty"`
	InnerObjective string   `yaml:"inner_objective,omitempty" json:"inner_objective,omitempty"`
	OuterObjective string   `yaml:"outer_objective,omitempty" json:"outer_objective,omitempty"`
	Product        string   `yaml:"prod_id,omitempty" json:"prod_id,omitempty"`
	MinGCP         float64  `yaml:"min_gcp,omitempty" json:"min_gcp,omitempty"`
}

// ToSpec flattens m.
func ToSpec(m Module) Spec {
	s := Spec{Kind: m.Kind().String()}
	for _, c := range m.Region() {
		s.Constraints = append(s.Constraints, c.String())
	}
	switch v := m.(type) {
	case OptKnock:
		s.InnerObjective, s.OuterObjective = v.Inner.String(), v.Outer.String()
	case RobustKnock:
		s.InnerObjective, s.OuterObjective = v.Inner.String(), v.Outer.String()
	case OptCouple:
		s.InnerObjective, s.Product, s.MinGCP = v.Inner.String(), v.Product.String(), v.MinGCP
	}

	return s
}

// Module parses s back into a Module.
// Errors: ErrUnknownKind, network.ErrSyntax.
func (s Spec) Module() (Module, error) {
	kind, err := ParseKind(s.Kind)
	if err != nil {
		return nil, err
	}
	var cons []network.Constraint
	for _, str := range s.Constraints {
		c, err := network.ParseConstraint(str)
		if err != nil {
			return nil, err
		}
		cons = append(cons, c)
	}
	expr := func(str string) (network.Expr, error) {
		if str == "" {
			return nil, nil
		}

		return network.ParseExpr(str)
	}

	switch kind {
	case KindProtect:
		return Protect{Constraints: cons}, nil
	case KindSuppress:
		return Suppress{Constraints: cons}, nil
	}
	inner, err := expr(s.InnerObjective)
	if err != nil {
		return nil, err
	}
	if kind == KindOptCouple {
		prod, err := expr(s.Product)
		if err != nil {
			return nil, err
		}

		return OptCouple{Constraints: cons, Inner: inner, Product: prod, MinGCP: s.MinGCP}, nil
	}
	outer, err := expr(s.OuterObjective)
	if err != nil {
		return nil, err
	}
	if kind == KindOptKnock {
		return OptKnock{Constraints: cons, Inner: inner, Outer: outer}, nil
	}

	return RobustKnock{Constraints: cons, Inner: inner, Outer: outer}, nil
}
