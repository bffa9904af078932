package translate

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/katalvlaran/straindesign/cost"
	"github.com/katalvlaran/straindesign/gpr"
	"github.com/katalvlaran/straindesign/network"
)

// ResolveGeneNames rewrites the keys of c from gene names or ids to gene
// ids. Errors: network.ErrUnknownGene.
func ResolveGeneNames(n *network.Network, c cost.Costs) (cost.Costs, error) {
	if c == nil {
		return nil, nil
	}
	out := make(cost.Costs, len(c))
	for _, key := range c.IDs() {
		id, err := n.ResolveGene(key)
		if err != nil {
			return nil, err
		}
		out[id] = c[key]
	}

	return out, nil
}

// GeneReport lists what SimplifyGenes removed.
type GeneReport struct {
	// Irrelevant genes occur in no reaction rule.
	Irrelevant []string
	// Essential genes disable an essential reaction when knocked out.
	Essential []string
}

// SimplifyGenes removes irrelevant genes from n and from both cost maps,
// and removes essential genes from the knockout map. essential lists the
// essential reactions. The maps are modified in place.
//
// Errors: gpr.ErrSyntax for malformed rules.
func SimplifyGenes(n *network.Network, ko, ki cost.Costs, essential []string) (GeneReport, error) {
	var rep GeneReport
	rules := make(map[string]*gpr.Node)
	used := make(map[string]struct{})
	for _, id := range n.ReactionIDs() {
		r, _ := n.Reaction(id)
		node, err := gpr.Parse(r.Rule)
		if err != nil {
			return rep, fmt.Errorf("reaction %q: %w", id, err)
		}
		if node == nil {
			continue
		}
		rules[id] = node
		for _, g := range node.Genes() {
			used[g] = struct{}{}
		}
	}

	for _, g := range n.Genes() {
		if _, ok := used[g.ID]; !ok {
			rep.Irrelevant = append(rep.Irrelevant, g.ID)
		}
	}
	n.RemoveGenes(rep.Irrelevant...)
	ko.Remove(rep.Irrelevant...)
	ki.Remove(rep.Irrelevant...)

	for _, g := range ko.IDs() {
		for _, rid := range essential {
			node, ok := rules[rid]
			if !ok {
				continue
			}
			if !node.Eval(func(x string) bool { return x != g }) {
				rep.Essential = append(rep.Essential, g)
				break
			}
		}
	}
	ko.Remove(rep.Essential...)
	sort.Strings(rep.Essential)

	return rep, nil
}

// GeneMetabolite returns the pseudo metabolite id of gene g.
func GeneMetabolite(g string) string { return "g_" + g }

// ExtendGPR builds the gene-extended network of n. candidates are the genes
// that carry a knockout or knock-in cost; all other genes are assumed
// present. The returned ExprMap maps every split reaction r to
// r - r_rev (or the existing half) in the new network.
//
// Errors: ErrIDCollision, gpr.ErrSyntax.
func ExtendGPR(n *network.Network, candidates map[string]struct{}) (*network.Network, ExprMap, error) {
	out := network.New()
	for _, id := range n.MetaboliteIDs() {
		m, _ := n.Metabolite(id)
		if err := out.AddMetabolite(*m); err != nil {
			return nil, nil, err
		}
	}
	for _, g := range n.Genes() {
		if err := out.AddGene(g); err != nil {
			return nil, nil, err
		}
	}

	taken := make(map[string]struct{}, n.NumReactions())
	for _, id := range n.ReactionIDs() {
		taken[id] = struct{}{}
	}
	var (
		pending []network.Reaction
		split   = make(ExprMap)
		genes   = make(map[string]struct{})
	)
	claim := func(id string) error {
		if _, ok := taken[id]; ok {
			return fmt.Errorf("%q: %w", id, ErrIDCollision)
		}
		taken[id] = struct{}{}

		return nil
	}
	addGene := func(g string) error {
		if _, ok := genes[g]; ok {
			return nil
		}
		genes[g] = struct{}{}
		if err := claim(g); err != nil {
			return err
		}
		if err := out.AddMetabolite(network.Metabolite{ID: GeneMetabolite(g)}); err != nil {
			return fmt.Errorf("%w: %w", ErrIDCollision, err)
		}
		pending = append(pending, network.Reaction{
			ID:     g,
			Name:   "gene " + g,
			Upper:  math.Inf(1),
			Stoich: map[string]float64{GeneMetabolite(g): 1},
		})

		return nil
	}

	for _, id := range n.ReactionIDs() {
		r, _ := n.Reaction(id)
		node, err := gpr.Parse(r.Rule)
		if err != nil {
			return nil, nil, fmt.Errorf("reaction %q: %w", id, err)
		}
		if node != nil {
			node = node.Restrict(func(g string) bool {
				_, ok := candidates[g]
				return ok
			})
		}
		if node == nil {
			cp := *r
			pending = append(pending, cp)
			continue
		}

		sets := gpr.MinimalSets(node)
		for _, set := range sets {
			for _, g := range set {
				if err := addGene(g); err != nil {
					return nil, nil, err
				}
			}
		}

		var enzyme string
		if len(sets) == 1 && len(sets[0]) == 1 {
			enzyme = GeneMetabolite(sets[0][0])
		} else {
			enzyme = "e_" + id
			if err := out.AddMetabolite(network.Metabolite{ID: enzyme}); err != nil {
				return nil, nil, fmt.Errorf("%w: %w", ErrIDCollision, err)
			}
			for j, set := range sets {
				tid := id + "_gpr" + strconv.Itoa(j)
				if err := claim(tid); err != nil {
					return nil, nil, err
				}
				st := map[string]float64{enzyme: 1}
				for _, g := range set {
					st[GeneMetabolite(g)] = -1
				}
				pending = append(pending, network.Reaction{ID: tid, Upper: math.Inf(1), Stoich: st})
			}
		}

		img := network.Expr{}
		if r.Upper > 0 {
			fwd := network.Reaction{ID: id, Name: r.Name, Lower: math.Max(r.Lower, 0), Upper: r.Upper, Stoich: make(map[string]float64, len(r.Stoich)+1)}
			for m, v := range r.Stoich {
				fwd.Stoich[m] = v
			}
			fwd.Stoich[enzyme] -= 1
			pending = append(pending, fwd)
			img[id] = 1
		}
		if r.Lower < 0 {
			rid := id + "_rev"
			if err := claim(rid); err != nil {
				return nil, nil, err
			}
			rev := network.Reaction{ID: rid, Name: r.Name, Lower: math.Max(-r.Upper, 0), Upper: -r.Lower, Stoich: make(map[string]float64, len(r.Stoich)+1)}
			for m, v := range r.Stoich {
				rev.Stoich[m] = -v
			}
			rev.Stoich[enzyme] -= 1
			pending = append(pending, rev)
			img[rid] = -1
		}
		split[id] = img
	}

	for _, r := range pending {
		if err := out.AddReaction(r); err != nil {
			return nil, nil, err
		}
	}

	return out, split, nil
}
