package compress

// Member is one reaction of a lump. For serial steps v_member = Weight·v_lump;
// for parallel steps v_lump = Σ Weight·v_member.
type Member struct {
	ID     string  `yaml:"id" json:"id"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// Step is one lumping pass. Removed reactions were eliminated before the
// groups were formed.
type Step struct {
	Parallel bool                `yaml:"parallel" json:"parallel"`
	Removed  []string            `yaml:"removed,omitempty" json:"removed,omitempty"`
	Groups   map[string][]Member `yaml:"groups,omitempty" json:"groups,omitempty"`
}

// Map relates the reactions of a network before and after compression.
type Map struct {
	Original []string `yaml:"original" json:"original"`
	Steps    []Step   `yaml:"steps" json:"steps"`
}

// Len returns the number of steps.
func (m *Map) Len() int { return len(m.Steps) }

// Identity reports whether compression changed nothing.
func (m *Map) Identity() bool { return len(m.Steps) == 0 }

// Image locates an original reaction in the compressed network.
type Image struct {
	// ID is the compressed reaction, empty when the reaction was removed.
	ID string
	// Factor satisfies v_original = Factor·v_ID when Exact is set.
	Factor float64
	// Exact is false once the reaction went through a parallel lump, where
	// its flux is no longer a function of the lumped flux.
	Exact bool
}

// Flatten composes all steps and returns the image of every original
// reaction.
func (m *Map) Flatten() map[string]Image {
	img := make(map[string]Image, len(m.Original))
	for _, id := range m.Original {
		img[id] = Image{ID: id, Factor: 1, Exact: true}
	}
	for _, st := range m.Steps {
		removed := make(map[string]struct{}, len(st.Removed))
		for _, id := range st.Removed {
			removed[id] = struct{}{}
		}
		where := make(map[string]Member)
		for lump, ms := range st.Groups {
			for _, mb := range ms {
				where[mb.ID] = Member{ID: lump, Weight: mb.Weight}
			}
		}
		for orig, im := range img {
			if im.ID == "" {
				continue
			}
			if _, ok := removed[im.ID]; ok {
				img[orig] = Image{}
				continue
			}
			w, ok := where[im.ID]
			if !ok {
				continue
			}
			if st.Parallel {
				img[orig] = Image{ID: w.ID, Factor: im.Factor, Exact: false}
			} else {
				img[orig] = Image{ID: w.ID, Factor: im.Factor * w.Weight, Exact: im.Exact}
			}
		}
	}

	return img
}
