package compress

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/katalvlaran/straindesign/network"
)

const (
	// zeroTol decides when a bound or a lumped coefficient counts as zero.
	zeroTol = 1e-10
	// ratioTol is the relative tolerance of coupling-factor comparisons.
	ratioTol = 1e-9
)

type compressor struct {
	n         *network.Network
	logger    *slog.Logger
	protected map[string]struct{}
	class     map[string]Class
}

// Compress reduces n in place and returns the compression map.
//
// Steps:
//  1. Classify every reaction (WithClass) and drop boundary metabolites.
//  2. Remove reactions fixed at zero and dead-end reactions, with the
//     metabolites left unused.
//  3. Lump flux-coupled reactions (serial) into one reaction scaled to the
//     group's reference member.
//  4. Lump reactions with proportional columns (parallel), skipping
//     protected reactions. Repeat 2-4 until a pass changes nothing.
//  5. Each pass that changed the network appends its Steps to the map, in
//     order, so decompression can replay them backwards.
//
// Lumps take the bounds implied by the coupling factors. A serial lump
// takes the highest class of its members; parallel lumping only merges
// reactions of one class.
//
// Errors: network.ErrDuplicateID when a lump id collides with an existing
// reaction id.
//
// Complexity: each iteration is O(R·M) for R reactions and M metabolites,
// plus near-linear union-find work.
func Compress(n *network.Network, opts ...Option) (*Map, error) {
	o := gatherOptions(opts)
	c := &compressor{
		n:         n,
		logger:    o.logger,
		protected: o.protected,
		class:     make(map[string]Class, n.NumReactions()),
	}
	m := &Map{Original: n.ReactionIDs()}
	for _, id := range m.Original {
		c.class[id] = o.class(id)
	}

	var boundary []string
	for _, id := range n.MetaboliteIDs() {
		if met, _ := n.Metabolite(id); met.Boundary {
			boundary = append(boundary, id)
		}
	}
	n.RemoveMetabolites(boundary...)

	var (
		iter                    int
		removed                 []string
		changed                 bool
		serial, parallel        Step
		err                     error
		nSerial, nPar, nRemoved int
	)
	for iter = 1; ; iter++ {
		removed, changed = c.removeBlocked()
		if serial, err = c.lumpSerial(); err != nil {
			return nil, err
		}
		serial.Removed = append(removed, serial.Removed...)
		if len(serial.Removed) > 0 || len(serial.Groups) > 0 {
			m.Steps = append(m.Steps, serial)
			changed = true
		}
		if parallel, err = c.lumpParallel(); err != nil {
			return nil, err
		}
		if len(parallel.Groups) > 0 {
			m.Steps = append(m.Steps, parallel)
			changed = true
		}
		nSerial += len(serial.Groups)
		nPar += len(parallel.Groups)
		nRemoved += len(serial.Removed)
		if !changed {
			break
		}
	}
	c.logger.Info("compress: fixed point reached",
		slog.Int("iterations", iter),
		slog.Int("original", len(m.Original)),
		slog.Int("compressed", n.NumReactions()),
		slog.Int("removed", nRemoved),
		slog.Int("serial_lumps", nSerial),
		slog.Int("parallel_lumps", nPar))

	return m, nil
}

// removeBlocked removes, until none is left, reactions fixed at zero flux
// and reactions that are the only user of a metabolite, together with
// unused metabolites. It reports the removed reactions and whether anything
// changed.
func (c *compressor) removeBlocked() ([]string, bool) {
	var (
		removed []string
		changed bool
	)
	for {
		drop := make(map[string]struct{})
		for j := 0; j < c.n.NumReactions(); j++ {
			r := c.n.ReactionAt(j)
			for m, v := range r.Stoich {
				if v == 0 {
					delete(r.Stoich, m)
				}
			}
			if math.Abs(r.Lower) <= zeroTol && math.Abs(r.Upper) <= zeroTol {
				drop[r.ID] = struct{}{}
			}
		}
		var orphans []string
		for m, rs := range c.n.Incidence() {
			switch len(rs) {
			case 0:
				orphans = append(orphans, m)
			case 1:
				drop[rs[0]] = struct{}{}
			}
		}
		if len(drop) == 0 && len(orphans) == 0 {
			break
		}
		ids := make([]string, 0, len(drop))
		for id := range drop {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		c.n.RemoveReactions(ids...)
		c.n.RemoveMetabolites(orphans...)
		removed = append(removed, ids...)
		changed = true
	}

	return removed, changed
}

// lumpSerial merges flux-coupled reaction groups.
func (c *compressor) lumpSerial() (Step, error) {
	ids := c.n.ReactionIDs()
	uf := newUnionFind(len(ids))
	inc := c.n.Incidence()
	mets := make([]string, 0, len(inc))
	for m := range inc {
		mets = append(mets, m)
	}
	sort.Strings(mets)

	var bad []int
	for _, m := range mets {
		rs := inc[m]
		if len(rs) != 2 {
			continue
		}
		i, _ := c.n.Index(rs[0])
		j, _ := c.n.Index(rs[1])
		a := c.n.ReactionAt(i).Stoich[m]
		b := c.n.ReactionAt(j).Stoich[m]
		// a·v_i + b·v_j = 0  ⇒  v_j = -(a/b)·v_i
		if !uf.union(i, j, -a/b) {
			bad = append(bad, i)
		}
	}

	groups := make(map[int][]int)
	var roots []int
	for i := range ids {
		r, _ := uf.find(i)
		if _, ok := groups[r]; !ok {
			roots = append(roots, r)
		}
		groups[r] = append(groups[r], i)
	}
	badRoot := make(map[int]bool, len(bad))
	for _, i := range bad {
		r, _ := uf.find(i)
		badRoot[r] = true
	}

	step := Step{Groups: make(map[string][]Member)}
	var (
		drop  []string
		lumps []network.Reaction
	)
	for _, root := range roots {
		members := groups[root]
		if len(members) < 2 {
			continue
		}
		memberIDs := make([]string, len(members))
		for k, i := range members {
			memberIDs[k] = ids[i]
		}
		drop = append(drop, memberIDs...)
		if badRoot[root] {
			step.Removed = append(step.Removed, memberIDs...)
			continue
		}

		_, f0 := uf.find(members[0])
		var (
			lo, hi = math.Inf(-1), math.Inf(1)
			col    = make(map[string]float64)
			ms     = make([]Member, len(members))
			class  Class
			prot   bool
		)
		for k, i := range members {
			_, fi := uf.find(i)
			f := fi / f0
			r := c.n.ReactionAt(i)
			l, u := r.Lower/f, r.Upper/f
			if f < 0 {
				l, u = u, l
			}
			lo, hi = math.Max(lo, l), math.Min(hi, u)
			for m, v := range r.Stoich {
				col[m] += f * v
			}
			ms[k] = Member{ID: r.ID, Weight: f}
			class = max(class, c.class[r.ID])
			if _, ok := c.protected[r.ID]; ok {
				prot = true
			}
		}
		if lo > hi+zeroTol {
			step.Removed = append(step.Removed, memberIDs...)
			continue
		}
		for m, v := range col {
			if math.Abs(v) <= zeroTol {
				delete(col, m)
			}
		}
		id := strings.Join(memberIDs, "*")
		step.Groups[id] = ms
		c.class[id] = class
		if prot {
			c.protected[id] = struct{}{}
		}
		lumps = append(lumps, network.Reaction{ID: id, Name: id, Lower: lo, Upper: math.Max(lo, hi), Stoich: col})
	}

	c.n.RemoveReactions(drop...)
	for _, r := range lumps {
		if err := c.n.AddReaction(r); err != nil {
			return Step{}, fmt.Errorf("compress: serial lump: %w", err)
		}
	}

	return step, nil
}

// lumpParallel merges reactions with proportional columns.
func (c *compressor) lumpParallel() (Step, error) {
	type group struct {
		members []int
		lambda  []float64
	}
	var (
		order  []string
		groups = make(map[string]*group)
	)
	for j := 0; j < c.n.NumReactions(); j++ {
		r := c.n.ReactionAt(j)
		if len(r.Stoich) == 0 {
			continue
		}
		if _, ok := c.protected[r.ID]; ok {
			continue
		}
		key, lead := signature(r.Stoich)
		key += "#" + strconv.Itoa(int(c.class[r.ID]))
		g, ok := groups[key]
		if !ok {
			g = &group{}
			groups[key] = g
			order = append(order, key)
		}
		lambda := 1.0
		if len(g.members) > 0 {
			ref := c.n.ReactionAt(g.members[0])
			lambda = r.Stoich[lead] / ref.Stoich[lead]
		}
		g.members = append(g.members, j)
		g.lambda = append(g.lambda, lambda)
	}

	step := Step{Parallel: true, Groups: make(map[string][]Member)}
	var (
		drop  []string
		lumps []network.Reaction
	)
	for _, key := range order {
		g := groups[key]
		if len(g.members) < 2 {
			continue
		}
		var (
			lo, hi    float64
			memberIDs = make([]string, len(g.members))
			ms        = make([]Member, len(g.members))
			ref       = c.n.ReactionAt(g.members[0])
		)
		for k, j := range g.members {
			r := c.n.ReactionAt(j)
			l, u := g.lambda[k]*r.Lower, g.lambda[k]*r.Upper
			lo += math.Min(l, u)
			hi += math.Max(l, u)
			memberIDs[k] = r.ID
			ms[k] = Member{ID: r.ID, Weight: g.lambda[k]}
		}
		col := make(map[string]float64, len(ref.Stoich))
		for m, v := range ref.Stoich {
			col[m] = v
		}
		id := strings.Join(memberIDs, "|")
		step.Groups[id] = ms
		c.class[id] = c.class[ref.ID]
		drop = append(drop, memberIDs...)
		lumps = append(lumps, network.Reaction{ID: id, Name: id, Lower: lo, Upper: hi, Stoich: col})
	}

	c.n.RemoveReactions(drop...)
	for _, r := range lumps {
		if err := c.n.AddReaction(r); err != nil {
			return Step{}, fmt.Errorf("compress: parallel lump: %w", err)
		}
	}

	return step, nil
}

// signature returns a key shared by all columns that are positive multiples
// of st, and the metabolite used for normalisation.
func signature(st map[string]float64) (string, string) {
	mets := make([]string, 0, len(st))
	for m := range st {
		mets = append(mets, m)
	}
	sort.Strings(mets)
	base := st[mets[0]]
	var b strings.Builder
	for _, m := range mets {
		b.WriteString(m)
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(st[m]/math.Abs(base), 'g', 10, 64))
		b.WriteByte(';')
	}

	return b.String(), mets[0]
}

// unionFind keeps v_i = ratio[i]·v_parent[i].
type unionFind struct {
	parent []int
	ratio  []float64
}

func newUnionFind(n int) *unionFind {
	u := &unionFind{parent: make([]int, n), ratio: make([]float64, n)}
	for i := range u.parent {
		u.parent[i] = i
		u.ratio[i] = 1
	}

	return u
}

// find returns the root of i and the factor f with v_i = f·v_root.
func (u *unionFind) find(i int) (int, float64) {
	if u.parent[i] == i {
		return i, 1
	}
	root, f := u.find(u.parent[i])
	u.ratio[i] *= f
	u.parent[i] = root

	return root, u.ratio[i]
}

// union records v_j = k·v_i and reports false when this contradicts the
// coupling already known between i and j.
func (u *unionFind) union(i, j int, k float64) bool {
	ri, fi := u.find(i)
	rj, fj := u.find(j)
	if ri == rj {
		return math.Abs(fj-k*fi) <= ratioTol*math.Max(1, math.Abs(fj))
	}
	u.parent[rj] = ri
	u.ratio[rj] = k * fi / fj

	return true
}
