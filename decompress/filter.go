package decompress

import (
	"math"

	"github.com/katalvlaran/straindesign/cost"
)

// costSlack absorbs rounding in summed costs.
const costSlack = 1e-9

// FilterMaxCost keeps the designs whose cost under the original maps ko
// and ki does not exceed maxCost. A non-positive or infinite maxCost keeps
// everything.
func FilterMaxCost(designs []Design, ko, ki cost.Costs, maxCost float64) []Design {
	if maxCost <= 0 || math.IsInf(maxCost, 1) {
		return designs
	}
	out := make([]Design, 0, len(designs))
	for _, d := range designs {
		if cost.Total(d, ko, ki) <= maxCost+costSlack {
			out = append(out, d)
		}
	}

	return out
}

// FoldRegulatory removes the regulatory pseudo reactions (keys of labels)
// from every design and returns, per design, the label → active flags.
// A regulation is active when its pseudo reaction is knocked out. Every
// label is present in every flag map.
func FoldRegulatory(designs []Design, labels map[string]string) []map[string]bool {
	flags := make([]map[string]bool, len(designs))
	for i, d := range designs {
		flags[i] = make(map[string]bool, len(labels))
		for id, label := range labels {
			flags[i][label] = d[id] < 0
			delete(d, id)
		}
	}

	return flags
}
