package translate

import (
	"fmt"

	"github.com/katalvlaran/straindesign/compress"
	"github.com/katalvlaran/straindesign/network"
	"github.com/katalvlaran/straindesign/sdmodule"
)

// ExprMap maps a reaction id to its expression in the target space.
type ExprMap map[string]network.Expr

// Apply rewrites e. Ids without an entry map to themselves; terms that
// cancel are dropped. A nil e yields nil.
func (m ExprMap) Apply(e network.Expr) network.Expr {
	if e == nil {
		return nil
	}
	out := make(network.Expr, len(e))
	for id, a := range e {
		img, ok := m[id]
		if !ok {
			out[id] += a
			continue
		}
		for t, w := range img {
			out[t] += a * w
		}
	}
	for id, v := range out {
		if v == 0 {
			delete(out, id)
		}
	}

	return out
}

// FromImages builds the map of a compression. Removed reactions map to the
// empty expression. Reactions in refs must have exact images.
// Errors: ErrInexact.
func FromImages(img map[string]compress.Image, refs []string) (ExprMap, error) {
	for _, id := range refs {
		if im, ok := img[id]; ok && im.ID != "" && !im.Exact {
			return nil, fmt.Errorf("%q: %w", id, ErrInexact)
		}
	}
	m := make(ExprMap, len(img))
	for id, im := range img {
		switch {
		case im.ID == "":
			m[id] = network.Expr{}
		case im.Exact:
			m[id] = network.Expr{im.ID: im.Factor}
		}
	}

	return m, nil
}

// Modules rewrites every module through m.
func Modules(mods []sdmodule.Module, m ExprMap) []sdmodule.Module {
	out := make([]sdmodule.Module, len(mods))
	for i, mod := range mods {
		out[i] = mod.Rewrite(m.Apply)
	}

	return out
}
