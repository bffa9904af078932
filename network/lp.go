package network

import (
	"fmt"
	"sort"

	"github.com/katalvlaran/straindesign/lp"
)

// LP returns the flux-balance feasibility problem of n: one column per
// reaction in column order with the reaction bounds, a zero objective and
// one equality row S·v = 0 per balanced (non-boundary) metabolite that is
// used by at least one reaction.
func (n *Network) LP() *lp.Problem {
	p := &lp.Problem{}
	terms := make([][]lp.Term, len(n.metabolites))
	for j := range n.reactions {
		r := &n.reactions[j]
		p.AddVar(r.Lower, r.Upper, 0)
		for m, v := range r.Stoich {
			if v == 0 {
				continue
			}
			mi := n.metIdx[m]
			terms[mi] = append(terms[mi], lp.Term{Col: j, Coef: v})
		}
	}
	for mi, m := range n.metabolites {
		if m.Boundary || len(terms[mi]) == 0 {
			continue
		}
		p.AddRow(terms[mi], lp.Equal, 0)
	}

	return p
}

// Terms converts e into LP terms over the columns of n.LP(), ordered by
// column. Errors: ErrUnknownReaction.
func (n *Network) Terms(e Expr) ([]lp.Term, error) {
	terms := make([]lp.Term, 0, len(e))
	for id, v := range e {
		j, ok := n.rxnIdx[id]
		if !ok {
			return nil, fmt.Errorf("%q: %w", id, ErrUnknownReaction)
		}
		if v != 0 {
			terms = append(terms, lp.Term{Col: j, Coef: v})
		}
	}
	sort.Slice(terms, func(a, b int) bool { return terms[a].Col < terms[b].Col })

	return terms, nil
}

// Row converts c into an LP row over the columns of n.LP().
// Errors: ErrUnknownReaction.
func (n *Network) Row(c Constraint) (lp.Row, error) {
	terms, err := n.Terms(c.Expr)
	if err != nil {
		return lp.Row{}, err
	}

	return lp.Row{Terms: terms, Sense: c.Sense, RHS: c.RHS}, nil
}

// CheckExpr reports the first identifier of e that is not a reaction of n.
func (n *Network) CheckExpr(e Expr) error {
	for _, id := range e.IDs() {
		if !n.HasReaction(id) {
			return fmt.Errorf("%q: %w", id, ErrUnknownReaction)
		}
	}

	return nil
}
