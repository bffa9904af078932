package decompress

import (
	"sort"
	"strconv"
	"strings"

	"github.com/katalvlaran/straindesign/compress"
	"github.com/katalvlaran/straindesign/cost"
)

// Design maps reaction ids to markers: -1 knocked out, +1 knocked in,
// 0 knock-in candidate left out.
type Design = map[string]int

// Expand undoes the steps of m on every design. levels must come from
// cost.Levels on the same map. Duplicate designs are dropped; the order of
// first appearance is kept.
func Expand(designs []Design, m *compress.Map, levels []cost.Level) []Design {
	out := designs
	for s := m.Len() - 1; s >= 0; s-- {
		st := m.Steps[s]
		next := make([]Design, 0, len(out))
		for _, d := range out {
			next = append(next, expandStep(d, st, levels[s])...)
		}
		out = next
	}

	return Unique(out)
}

// expandStep returns every design d stands for before step st.
func expandStep(d Design, st compress.Step, lv cost.Level) []Design {
	var (
		base    = make(Design, len(d))
		choices [][]Design
	)
	for id, v := range d {
		members, ok := st.Groups[id]
		if !ok {
			base[id] = v
			continue
		}
		choices = append(choices, alternatives(members, v, st.Parallel, lv))
	}
	// map iteration above is unordered; fix the product order
	sort.Slice(choices, func(a, b int) bool { return key(choices[a][0]) < key(choices[b][0]) })

	out := []Design{base}
	for _, alts := range choices {
		var grown []Design
		for _, partial := range out {
			for _, alt := range alts {
				nd := make(Design, len(partial)+len(alt))
				for k, v := range partial {
					nd[k] = v
				}
				for k, v := range alt {
					nd[k] = v
				}
				grown = append(grown, nd)
			}
		}
		out = grown
	}

	return out
}

// alternatives lists the member-level fragments a lump marker expands to.
func alternatives(members []compress.Member, v int, parallel bool, lv cost.Level) []Design {
	var ko, ki []string
	for _, mb := range members {
		if _, ok := lv.KO[mb.ID]; ok {
			ko = append(ko, mb.ID)
		}
		if _, ok := lv.KI[mb.ID]; ok {
			ki = append(ki, mb.ID)
		}
	}
	all := func(ids []string, marker int) []Design {
		f := make(Design, len(ids))
		for _, id := range ids {
			f[id] = marker
		}

		return []Design{f}
	}

	switch {
	case v < 0 && !parallel && len(ko) > 0:
		out := make([]Design, len(ko))
		for i, id := range ko {
			out[i] = Design{id: -1}
		}

		return out
	case v < 0:
		ids := make([]string, len(members))
		for i, mb := range members {
			ids[i] = mb.ID
		}

		return all(ids, -1)
	case v > 0 && parallel && len(ki) > 0:
		out := make([]Design, len(ki))
		for i, id := range ki {
			out[i] = all(ki, 0)[0]
			out[i][id] = 1
		}

		return out
	case v > 0:
		return all(ki, 1)
	default:
		return all(ki, 0)
	}
}

// Unique drops repeated designs, keeping the first occurrence.
func Unique(designs []Design) []Design {
	seen := make(map[string]struct{}, len(designs))
	out := make([]Design, 0, len(designs))
	for _, d := range designs {
		k := key(d)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, d)
	}

	return out
}

// key is a canonical string of d.
func key(d Design) string {
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var b strings.Builder
	for _, id := range ids {
		b.WriteString(id)
		b.WriteByte('=')
		b.WriteString(strconv.Itoa(d[id]))
		b.WriteByte(';')
	}

	return b.String()
}
