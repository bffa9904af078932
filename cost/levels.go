package cost

import (
	"math"

	"github.com/katalvlaran/straindesign/compress"
)

// Level holds the knockout and knock-in maps valid in one network state.
type Level struct {
	KO Costs
	KI Costs
}

// Levels propagates ko and ki through the steps of m.
// The result has m.Len()+1 entries: entry s is valid before step s, the
// last entry is valid for the compressed network. The inputs are not
// modified.
func Levels(m *compress.Map, ko, ki Costs) []Level {
	out := make([]Level, 0, m.Len()+1)
	cur := Level{KO: ko.Clone(), KI: ki.Clone()}
	if cur.KO == nil {
		cur.KO = Costs{}
	}
	if cur.KI == nil {
		cur.KI = Costs{}
	}
	out = append(out, cur)
	for _, st := range m.Steps {
		next := Level{KO: cur.KO.Clone(), KI: cur.KI.Clone()}
		next.KO.Remove(st.Removed...)
		next.KI.Remove(st.Removed...)
		for lump, members := range st.Groups {
			koc, kic, okKO, okKI := aggregate(st.Parallel, members, cur)
			for _, mb := range members {
				delete(next.KO, mb.ID)
				delete(next.KI, mb.ID)
			}
			switch {
			case okKI:
				next.KI[lump] = kic
			case okKO:
				next.KO[lump] = koc
			}
		}
		out = append(out, next)
		cur = next
	}

	return out
}

// aggregate applies the lump rules of the package documentation.
func aggregate(parallel bool, members []compress.Member, lv Level) (ko, ki float64, okKO, okKI bool) {
	var (
		koSum, kiSum float64
		koMin, kiMin = math.Inf(1), math.Inf(1)
		nKO, nKI     int
	)
	for _, mb := range members {
		if c, ok := lv.KO[mb.ID]; ok {
			koSum += c
			koMin = math.Min(koMin, c)
			nKO++
		}
		if c, ok := lv.KI[mb.ID]; ok {
			kiSum += c
			kiMin = math.Min(kiMin, c)
			nKI++
		}
	}
	if parallel {
		// Parallel lumps only merge one class; a partially knockable
		// parallel group cannot be cut.
		if nKO == len(members) {
			return koSum, 0, true, false
		}
		if nKI > 0 {
			return 0, kiMin, false, true
		}

		return 0, 0, false, false
	}
	if nKI > 0 {
		return 0, kiSum, false, true
	}
	if nKO > 0 {
		return koMin, 0, true, false
	}

	return 0, 0, false, false
}
