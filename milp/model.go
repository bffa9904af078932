package milp

import (
	"errors"

	"github.com/katalvlaran/straindesign/lp"
)

var (
	// ErrUnbounded is returned when a fully fixed relaxation is unbounded.
	ErrUnbounded = errors.New("milp: model is unbounded")

	// ErrNotBinary is returned when an indicator or a fixing references a
	// column that is not binary.
	ErrNotBinary = errors.New("milp: column is not binary")
)

// Indicator enforces Row whenever column Binary takes value Value.
type Indicator struct {
	Binary int
	Value  int
	Row    lp.Row
}

// Model is a mixed-binary minimisation problem.
// The zero value is an empty model.
type Model struct {
	lp.Problem
	Indicators []Indicator

	binaries []int
	isBinary map[int]bool
}

// AddBinary appends a binary column with objective coefficient obj.
func (m *Model) AddBinary(obj float64) int {
	j := m.AddVar(0, 1, obj)
	if m.isBinary == nil {
		m.isBinary = make(map[int]bool)
	}
	m.isBinary[j] = true
	m.binaries = append(m.binaries, j)

	return j
}

// IsBinary reports whether column j is binary.
func (m *Model) IsBinary(j int) bool { return m.isBinary[j] }

// Binaries returns the binary columns in creation order.
func (m *Model) Binaries() []int { return append([]int(nil), m.binaries...) }

// AddIndicator appends "column bin = value ⇒ row".
// Errors: ErrNotBinary.
func (m *Model) AddIndicator(bin, value int, row lp.Row) error {
	if !m.isBinary[bin] {
		return ErrNotBinary
	}
	m.Indicators = append(m.Indicators, Indicator{Binary: bin, Value: value, Row: row})

	return nil
}

// Fix sets both bounds of binary column j to v.
// Errors: ErrNotBinary.
func (m *Model) Fix(j, v int) error {
	if !m.isBinary[j] {
		return ErrNotBinary
	}
	m.Lower[j], m.Upper[j] = float64(v), float64(v)

	return nil
}

// Clone returns a copy that can be extended independently.
func (m *Model) Clone() *Model {
	c := &Model{
		Problem:    *m.Problem.Clone(),
		Indicators: append([]Indicator(nil), m.Indicators...),
		binaries:   append([]int(nil), m.binaries...),
		isBinary:   make(map[int]bool, len(m.isBinary)),
	}
	for k, v := range m.isBinary {
		c.isBinary[k] = v
	}

	return c
}

// relaxation returns the LP of a node: binaries fixed by fix and the
// indicators activated by the fixings.
func (m *Model) relaxation(fix map[int]int8) *lp.Problem {
	p := m.Problem.Clone()
	for j, v := range fix {
		p.Lower[j], p.Upper[j] = float64(v), float64(v)
	}
	for _, ind := range m.Indicators {
		if v, ok := fix[ind.Binary]; ok && int(v) == ind.Value {
			p.Rows = append(p.Rows, ind.Row)
		}
	}

	return p
}

// boundFixings returns the binaries whose bounds already pin a value.
func (m *Model) boundFixings() map[int]int8 {
	fix := make(map[int]int8)
	for _, j := range m.binaries {
		if m.Lower[j] == m.Upper[j] {
			fix[j] = int8(m.Lower[j])
		}
	}

	return fix
}
