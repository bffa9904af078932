// SPDX-License-Identifier: MIT

package cost

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/katalvlaran/straindesign/compress"
	"github.com/katalvlaran/straindesign/gpr"
	"github.com/katalvlaran/straindesign/network"
)

var (
	// ErrOverlap is returned when an element is both a knockout and a
	// knock-in candidate, or when a gene intervention and a reaction
	// intervention act on the same reaction.
	ErrOverlap = errors.New("cost: overlapping intervention candidates")

	// ErrNonPositive is returned for a cost that is not a positive finite number.
	ErrNonPositive = errors.New("cost: cost must be positive and finite")
)

// Costs maps a reaction or gene id to its intervention cost.
type Costs map[string]float64

// Uniform assigns cost c to every id.
func Uniform(ids []string, c float64) Costs {
	out := make(Costs, len(ids))
	for _, id := range ids {
		out[id] = c
	}

	return out
}

// Clone returns a copy of c; nil stays nil.
func (c Costs) Clone() Costs {
	if c == nil {
		return nil
	}
	out := make(Costs, len(c))
	for k, v := range c {
		out[k] = v
	}

	return out
}

// IDs returns the keys of c, sorted.
func (c Costs) IDs() []string {
	out := make([]string, 0, len(c))
	for k := range c {
		out = append(out, k)
	}
	sort.Strings(out)

	return out
}

// Remove deletes ids from c and returns how many were present.
func (c Costs) Remove(ids ...string) int {
	n := 0
	for _, id := range ids {
		if _, ok := c[id]; ok {
			delete(c, id)
			n++
		}
	}

	return n
}

// Validate checks that every cost is positive and finite.
func (c Costs) Validate() error {
	for _, id := range c.IDs() {
		if v := c[id]; math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return fmt.Errorf("%q = %g: %w", id, v, ErrNonPositive)
		}
	}

	return nil
}

// Set bundles the four cost maps of a run.
type Set struct {
	KO     Costs `yaml:"ko_cost,omitempty" json:"ko_cost,omitempty"`
	KI     Costs `yaml:"ki_cost,omitempty" json:"ki_cost,omitempty"`
	GeneKO Costs `yaml:"gko_cost,omitempty" json:"gko_cost,omitempty"`
	GeneKI Costs `yaml:"gki_cost,omitempty" json:"gki_cost,omitempty"`
}

// Clone deep-copies s.
func (s Set) Clone() Set {
	return Set{KO: s.KO.Clone(), KI: s.KI.Clone(), GeneKO: s.GeneKO.Clone(), GeneKI: s.GeneKI.Clone()}
}

// CheckOverlap validates s against n.
//
// Errors: ErrNonPositive; ErrOverlap when an id is in both KO and KI, a
// gene is in both GeneKO and GeneKI, or a reaction with a reaction-level
// cost has a rule mentioning a gene with a gene-level cost.
func CheckOverlap(s Set, n *network.Network) error {
	for _, c := range []Costs{s.KO, s.KI, s.GeneKO, s.GeneKI} {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	for _, id := range s.KO.IDs() {
		if _, ok := s.KI[id]; ok {
			return fmt.Errorf("reaction %q is knockout and knock-in: %w", id, ErrOverlap)
		}
	}
	for _, id := range s.GeneKO.IDs() {
		if _, ok := s.GeneKI[id]; ok {
			return fmt.Errorf("gene %q is knockout and knock-in: %w", id, ErrOverlap)
		}
	}
	if len(s.GeneKO)+len(s.GeneKI) == 0 {
		return nil
	}
	for _, id := range append(s.KO.IDs(), s.KI.IDs()...) {
		r, ok := n.Reaction(id)
		if !ok || r.Rule == "" {
			continue
		}
		rule, err := gpr.Parse(r.Rule)
		if err != nil {
			return fmt.Errorf("reaction %q: %w", id, err)
		}
		for _, g := range rule.Genes() {
			_, ko := s.GeneKO[g]
			_, ki := s.GeneKI[g]
			if ko || ki {
				return fmt.Errorf("reaction %q and its gene %q both have costs: %w", id, g, ErrOverlap)
			}
		}
	}

	return nil
}

// Merge adds the entries of src to dst. Errors: ErrOverlap on a shared key.
func Merge(dst, src Costs) error {
	for _, id := range src.IDs() {
		if _, ok := dst[id]; ok {
			return fmt.Errorf("%q: %w", id, ErrOverlap)
		}
		dst[id] = src[id]
	}

	return nil
}

// Classify returns the compression class function for the given maps.
func Classify(ko, ki Costs) func(id string) compress.Class {
	return func(id string) compress.Class {
		if _, ok := ki[id]; ok {
			return compress.Knockin
		}
		if _, ok := ko[id]; ok {
			return compress.Knockout
		}

		return compress.None
	}
}

// Total returns the cost of a design: knockouts (-1) cost their KO price,
// knock-ins (+1) their KI price; markers of 0 and ids without cost add
// nothing.
func Total(design map[string]int, ko, ki Costs) float64 {
	var sum float64
	for id, v := range design {
		switch {
		case v < 0:
			sum += ko[id]
		case v > 0:
			sum += ki[id]
		}
	}

	return sum
}

// RemoveEssential drops essential reactions from the knockout candidates
// and returns the ids that were dropped, sorted.
func RemoveEssential(ko Costs, essential []string) []string {
	var dropped []string
	for _, id := range essential {
		if _, ok := ko[id]; ok {
			delete(ko, id)
			dropped = append(dropped, id)
		}
	}
	sort.Strings(dropped)

	return dropped
}

// MergeGenes folds the gene maps of s into copies of its reaction maps.
// Gene ids become reaction ids once the network is gene extended.
// Errors: ErrOverlap when a gene id equals a reaction id with a cost.
func MergeGenes(s Set) (ko, ki Costs, err error) {
	ko, ki = s.KO.Clone(), s.KI.Clone()
	if ko == nil {
		ko = Costs{}
	}
	if ki == nil {
		ki = Costs{}
	}
	if err = Merge(ko, s.GeneKO); err != nil {
		return nil, nil, err
	}
	if err = Merge(ki, s.GeneKI); err != nil {
		return nil, nil, err
	}

	return ko, ki, nil
}
