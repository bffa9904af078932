package gpr

import (
	"sort"
	"strings"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
)

// MinimalSets returns every inclusion-minimal set of genes whose presence
// satisfies the rule. Sets are sorted internally and the result is sorted
// lexicographically. A nil rule yields nil.
func MinimalSets(n *Node) [][]string {
	if n == nil {
		return nil
	}
	genes := n.Genes()
	enc := &encoder{g: gini.New(), vars: make(map[string]z.Lit, len(genes))}
	for _, gene := range genes {
		enc.vars[gene] = enc.fresh()
	}
	enc.unit(enc.encode(n))

	var sets [][]string
	for enc.g.Solve() == 1 {
		cur := make(map[string]bool, len(genes))
		for _, gene := range genes {
			cur[gene] = enc.g.Value(enc.vars[gene])
		}
		// Shrink to a minimal model: the rule is monotone, so dropping a
		// gene is kept whenever the rest can still satisfy it.
		for _, gene := range genes {
			if !cur[gene] {
				continue
			}
			assume := []z.Lit{enc.vars[gene].Not()}
			for _, other := range genes {
				if !cur[other] {
					assume = append(assume, enc.vars[other].Not())
				}
			}
			enc.g.Assume(assume...)
			if enc.g.Solve() == 1 {
				cur[gene] = false
			}
		}

		var set []string
		for _, gene := range genes {
			if cur[gene] {
				set = append(set, gene)
				enc.g.Add(enc.vars[gene].Not())
			}
		}
		enc.g.Add(z.LitNull)
		sets = append(sets, set)
		if len(set) == 0 {
			break
		}
	}
	sort.Slice(sets, func(i, j int) bool {
		return strings.Join(sets[i], "\x00") < strings.Join(sets[j], "\x00")
	})

	return sets
}

type encoder struct {
	g    *gini.Gini
	vars map[string]z.Lit
	next z.Var
}

func (e *encoder) fresh() z.Lit {
	e.next++

	return e.next.Pos()
}

func (e *encoder) unit(m z.Lit) {
	e.g.Add(m)
	e.g.Add(z.LitNull)
}

func (e *encoder) clause(ms ...z.Lit) {
	for _, m := range ms {
		e.g.Add(m)
	}
	e.g.Add(z.LitNull)
}

// encode returns a literal equivalent to the sub-rule n.
func (e *encoder) encode(n *Node) z.Lit {
	if n.Op == Leaf {
		return e.vars[n.Gene]
	}
	kids := make([]z.Lit, len(n.Children))
	for i, c := range n.Children {
		kids[i] = e.encode(c)
	}
	out := e.fresh()
	long := make([]z.Lit, 0, len(kids)+1)
	if n.Op == And {
		// out ↔ ∧ kids
		long = append(long, out)
		for _, k := range kids {
			e.clause(out.Not(), k)
			long = append(long, k.Not())
		}
	} else {
		// out ↔ ∨ kids
		long = append(long, out.Not())
		for _, k := range kids {
			e.clause(k.Not(), out)
			long = append(long, k)
		}
	}
	e.clause(long...)

	return out
}
