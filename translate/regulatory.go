package translate

import (
	"fmt"
	"math"
	"strconv"

	"github.com/katalvlaran/straindesign/cost"
	"github.com/katalvlaran/straindesign/lp"
	"github.com/katalvlaran/straindesign/network"
)

// Regulatory is a regulatory intervention: imposing Constraint costs Cost.
// Label is the display string reported with the solution flags; an empty
// Label defaults to Constraint.String().
type Regulatory struct {
	Constraint network.Constraint
	Cost       float64
	Label      string
}

// RegulatoryID returns the pseudo reaction id of the k-th regulatory
// intervention.
func RegulatoryID(k int) string { return "reg_" + strconv.Itoa(k) }

// ExtendRegulatory adds, for each regulatory entry k,
//
//	metabolite reg_met_k  with Σ a_r·v_r − v_bnd − v_k = 0
//	reaction   reg_bnd_k  bounded by the constraint operator and rhs
//	reaction   reg_k      free, a knockout candidate with the entry's cost
//
// Knocking out reg_k imposes the constraint. Constraints must already be
// expressed over the reactions of n. ko receives the new candidates; the
// returned map relates reg_k to its label.
//
// Errors: ErrIDCollision, network.ErrUnknownReaction, cost.ErrNonPositive.
func ExtendRegulatory(n *network.Network, regs []Regulatory, ko cost.Costs) (map[string]string, error) {
	labels := make(map[string]string, len(regs))
	for k, reg := range regs {
		if math.IsNaN(reg.Cost) || math.IsInf(reg.Cost, 0) || reg.Cost <= 0 {
			return nil, fmt.Errorf("regulatory %d: %w", k, cost.ErrNonPositive)
		}
		if err := n.CheckExpr(reg.Constraint.Expr); err != nil {
			return nil, fmt.Errorf("regulatory %d: %w", k, err)
		}
		met := "reg_met_" + strconv.Itoa(k)
		bnd := "reg_bnd_" + strconv.Itoa(k)
		id := RegulatoryID(k)
		for _, x := range []string{bnd, id} {
			if n.HasReaction(x) {
				return nil, fmt.Errorf("%q: %w", x, ErrIDCollision)
			}
		}
		if err := n.AddMetabolite(network.Metabolite{ID: met}); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrIDCollision, err)
		}
		for rid, a := range reg.Constraint.Expr {
			r, _ := n.Reaction(rid)
			r.Stoich[met] += a
		}

		lo, hi := math.Inf(-1), math.Inf(1)
		switch reg.Constraint.Sense {
		case lp.LessEq:
			hi = reg.Constraint.RHS
		case lp.GreaterEq:
			lo = reg.Constraint.RHS
		default:
			lo, hi = reg.Constraint.RHS, reg.Constraint.RHS
		}
		if err := n.AddReaction(network.Reaction{ID: bnd, Lower: lo, Upper: hi, Stoich: map[string]float64{met: -1}}); err != nil {
			return nil, err
		}
		if err := n.AddReaction(network.Reaction{ID: id, Lower: math.Inf(-1), Upper: math.Inf(1), Stoich: map[string]float64{met: -1}}); err != nil {
			return nil, err
		}
		if _, ok := ko[id]; ok {
			return nil, fmt.Errorf("%q: %w", id, ErrIDCollision)
		}
		ko[id] = reg.Cost
		labels[id] = reg.Label
		if labels[id] == "" {
			labels[id] = reg.Constraint.String()
		}
	}

	return labels, nil
}
