package network

import (
	"fmt"
	"math"
	"sort"
)

// Metabolite is a chemical species balanced by the stoichiometry.
type Metabolite struct {
	ID       string
	Name     string
	Boundary bool // outside the system; never mass balanced
}

// Gene is a gene that may appear in reaction rules.
type Gene struct {
	ID   string
	Name string
}

// Reaction is a flux with bounds and stoichiometric coefficients.
// Negative coefficients are consumed, positive ones produced.
type Reaction struct {
	ID     string
	Name   string
	Lower  float64
	Upper  float64
	Stoich map[string]float64
	// Rule is the gene-reaction rule ("b0001 and (b0002 or b0003)").
	// Empty means the reaction is not gene associated.
	Rule string
}

// Reversible reports whether the reaction can carry negative flux.
func (r *Reaction) Reversible() bool { return r.Lower < 0 }

func (r *Reaction) clone() Reaction {
	c := *r
	c.Stoich = make(map[string]float64, len(r.Stoich))
	for m, v := range r.Stoich {
		c.Stoich[m] = v
	}

	return c
}

// Network is an ordered, index-addressable metabolic network.
// It is not safe for concurrent mutation; readers may share a Network
// that nobody mutates.
type Network struct {
	metabolites []Metabolite
	reactions   []Reaction
	genes       []Gene

	metIdx  map[string]int
	rxnIdx  map[string]int
	geneIdx map[string]int
}

// New returns an empty network.
func New() *Network {
	return &Network{
		metIdx:  make(map[string]int),
		rxnIdx:  make(map[string]int),
		geneIdx: make(map[string]int),
	}
}

// AddMetabolite appends m. Errors: ErrDuplicateID.
func (n *Network) AddMetabolite(m Metabolite) error {
	if _, ok := n.metIdx[m.ID]; ok {
		return fmt.Errorf("metabolite %q: %w", m.ID, ErrDuplicateID)
	}
	n.metIdx[m.ID] = len(n.metabolites)
	n.metabolites = append(n.metabolites, m)

	return nil
}

// AddGene appends g. Errors: ErrDuplicateID.
func (n *Network) AddGene(g Gene) error {
	if _, ok := n.geneIdx[g.ID]; ok {
		return fmt.Errorf("gene %q: %w", g.ID, ErrDuplicateID)
	}
	n.geneIdx[g.ID] = len(n.genes)
	n.genes = append(n.genes, g)

	return nil
}

// AddReaction appends a copy of r.
// Errors: ErrDuplicateID, ErrBounds, ErrUnknownMetabolite.
func (n *Network) AddReaction(r Reaction) error {
	if _, ok := n.rxnIdx[r.ID]; ok {
		return fmt.Errorf("reaction %q: %w", r.ID, ErrDuplicateID)
	}
	if math.IsNaN(r.Lower) || math.IsNaN(r.Upper) || r.Lower > r.Upper {
		return fmt.Errorf("reaction %q [%g, %g]: %w", r.ID, r.Lower, r.Upper, ErrBounds)
	}
	for m := range r.Stoich {
		if _, ok := n.metIdx[m]; !ok {
			return fmt.Errorf("reaction %q uses %q: %w", r.ID, m, ErrUnknownMetabolite)
		}
	}
	n.rxnIdx[r.ID] = len(n.reactions)
	n.reactions = append(n.reactions, r.clone())

	return nil
}

// NumReactions returns the number of reactions (LP columns).
func (n *Network) NumReactions() int { return len(n.reactions) }

// NumMetabolites returns the number of metabolites.
func (n *Network) NumMetabolites() int { return len(n.metabolites) }

// Reaction returns the reaction with the given id. The pointer is valid
// until the next structural change (add/remove).
func (n *Network) Reaction(id string) (*Reaction, bool) {
	i, ok := n.rxnIdx[id]
	if !ok {
		return nil, false
	}

	return &n.reactions[i], true
}

// ReactionAt returns the reaction of LP column i.
func (n *Network) ReactionAt(i int) *Reaction { return &n.reactions[i] }

// Index returns the LP column of reaction id.
func (n *Network) Index(id string) (int, bool) {
	i, ok := n.rxnIdx[id]

	return i, ok
}

// HasReaction reports whether id is a reaction of n.
func (n *Network) HasReaction(id string) bool {
	_, ok := n.rxnIdx[id]

	return ok
}

// Metabolite returns the metabolite with the given id.
func (n *Network) Metabolite(id string) (*Metabolite, bool) {
	i, ok := n.metIdx[id]
	if !ok {
		return nil, false
	}

	return &n.metabolites[i], true
}

// Gene returns the gene with the given id.
func (n *Network) Gene(id string) (*Gene, bool) {
	i, ok := n.geneIdx[id]
	if !ok {
		return nil, false
	}

	return &n.genes[i], true
}

// ResolveGene maps a gene id or gene name to the gene id.
// Ids take precedence over names. Errors: ErrUnknownGene.
func (n *Network) ResolveGene(key string) (string, error) {
	if _, ok := n.geneIdx[key]; ok {
		return key, nil
	}
	for _, g := range n.genes {
		if g.Name == key {
			return g.ID, nil
		}
	}

	return "", fmt.Errorf("%q: %w", key, ErrUnknownGene)
}

// ReactionIDs returns reaction ids in column order.
func (n *Network) ReactionIDs() []string {
	ids := make([]string, len(n.reactions))
	for i := range n.reactions {
		ids[i] = n.reactions[i].ID
	}

	return ids
}

// MetaboliteIDs returns metabolite ids in insertion order.
func (n *Network) MetaboliteIDs() []string {
	ids := make([]string, len(n.metabolites))
	for i := range n.metabolites {
		ids[i] = n.metabolites[i].ID
	}

	return ids
}

// Genes returns a copy of the gene list.
func (n *Network) Genes() []Gene { return append([]Gene(nil), n.genes...) }

// SetBounds overwrites the bounds of reaction id.
// Errors: ErrUnknownReaction, ErrBounds.
func (n *Network) SetBounds(id string, lower, upper float64) error {
	r, ok := n.Reaction(id)
	if !ok {
		return fmt.Errorf("%q: %w", id, ErrUnknownReaction)
	}
	if math.IsNaN(lower) || math.IsNaN(upper) || lower > upper {
		return fmt.Errorf("reaction %q [%g, %g]: %w", id, lower, upper, ErrBounds)
	}
	r.Lower, r.Upper = lower, upper

	return nil
}

// RemoveReactions deletes the given reactions; unknown ids are ignored.
// Column indices of the remaining reactions shift accordingly.
func (n *Network) RemoveReactions(ids ...string) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := n.reactions[:0]
	for _, r := range n.reactions {
		if _, ok := drop[r.ID]; !ok {
			kept = append(kept, r)
		}
	}
	n.reactions = kept
	n.reindexReactions()
}

// RemoveMetabolites deletes the given metabolites and their coefficients
// from every reaction; unknown ids are ignored.
func (n *Network) RemoveMetabolites(ids ...string) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := n.metabolites[:0]
	for _, m := range n.metabolites {
		if _, ok := drop[m.ID]; !ok {
			kept = append(kept, m)
		}
	}
	n.metabolites = kept
	n.metIdx = make(map[string]int, len(kept))
	for i, m := range kept {
		n.metIdx[m.ID] = i
	}
	for i := range n.reactions {
		for id := range drop {
			delete(n.reactions[i].Stoich, id)
		}
	}
}

// RemoveGenes deletes the given genes; unknown ids are ignored.
// Reaction rules are not rewritten.
func (n *Network) RemoveGenes(ids ...string) {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := n.genes[:0]
	for _, g := range n.genes {
		if _, ok := drop[g.ID]; !ok {
			kept = append(kept, g)
		}
	}
	n.genes = kept
	n.geneIdx = make(map[string]int, len(kept))
	for i, g := range kept {
		n.geneIdx[g.ID] = i
	}
}

func (n *Network) reindexReactions() {
	n.rxnIdx = make(map[string]int, len(n.reactions))
	for i := range n.reactions {
		n.rxnIdx[n.reactions[i].ID] = i
	}
}

// Clone returns a deep copy of n.
func (n *Network) Clone() *Network {
	c := New()
	c.metabolites = append([]Metabolite(nil), n.metabolites...)
	c.genes = append([]Gene(nil), n.genes...)
	c.reactions = make([]Reaction, len(n.reactions))
	for i := range n.reactions {
		c.reactions[i] = n.reactions[i].clone()
	}
	for k, v := range n.metIdx {
		c.metIdx[k] = v
	}
	for k, v := range n.geneIdx {
		c.geneIdx[k] = v
	}
	c.reindexReactions()

	return c
}

// Incidence returns, for every metabolite, the ids of the reactions that
// use it, sorted.
func (n *Network) Incidence() map[string][]string {
	inc := make(map[string][]string, len(n.metabolites))
	for _, m := range n.metabolites {
		inc[m.ID] = nil
	}
	for _, r := range n.reactions {
		for m := range r.Stoich {
			inc[m] = append(inc[m], r.ID)
		}
	}
	for m := range inc {
		sort.Strings(inc[m])
	}

	return inc
}
