package network

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/katalvlaran/straindesign/lp"
)

// Expr is a sparse linear expression over reaction ids.
type Expr map[string]float64

// IDs returns the identifiers of e in sorted order.
func (e Expr) IDs() []string {
	ids := make([]string, 0, len(e))
	for id := range e {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}

// Clone returns a copy of e.
func (e Expr) Clone() Expr {
	c := make(Expr, len(e))
	for k, v := range e {
		c[k] = v
	}

	return c
}

// String renders e as "R1 + 2 R2 - R3" with ids sorted.
func (e Expr) String() string {
	var b strings.Builder
	for i, id := range e.IDs() {
		v := e[id]
		switch {
		case i == 0 && v < 0:
			b.WriteString("-")
		case i > 0 && v < 0:
			b.WriteString(" - ")
		case i > 0:
			b.WriteString(" + ")
		}
		if a := abs(v); a != 1 {
			b.WriteString(strconv.FormatFloat(a, 'g', -1, 64))
			b.WriteString(" ")
		}
		b.WriteString(id)
	}
	if b.Len() == 0 {
		return "0"
	}

	return b.String()
}

// Constraint is Expr (Sense) RHS.
type Constraint struct {
	Expr  Expr
	Sense lp.Sense
	RHS   float64
}

// String renders c in the form accepted by ParseConstraint.
func (c Constraint) String() string {
	return c.Expr.String() + " " + c.Sense.String() + " " + strconv.FormatFloat(c.RHS, 'g', -1, 64)
}

// Satisfied reports whether the flux assignment v satisfies c within tol.
// Missing ids read as zero flux.
func (c Constraint) Satisfied(v map[string]float64, tol float64) bool {
	var lhs float64
	for id, a := range c.Expr {
		lhs += a * v[id]
	}
	switch c.Sense {
	case lp.LessEq:
		return lhs <= c.RHS+tol
	case lp.GreaterEq:
		return lhs >= c.RHS-tol
	default:
		return abs(lhs-c.RHS) <= tol
	}
}

// ParseConstraints parses a list of constraints separated by commas,
// semicolons or newlines. Empty items are skipped.
func ParseConstraints(s string) ([]Constraint, error) {
	items := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' || r == '\n' })
	out := make([]Constraint, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it) == "" {
			continue
		}
		c, err := ParseConstraint(it)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	return out, nil
}

// ParseConstraint parses one linear (in)equality.
// Errors: ErrSyntax (wrapped with the offending input).
func ParseConstraint(s string) (Constraint, error) {
	toks, err := tokenize(s)
	if err != nil {
		return Constraint{}, fmt.Errorf("%q: %w", s, err)
	}
	op := -1
	for i, t := range toks {
		if t.kind != tokOp {
			continue
		}
		if op >= 0 {
			return Constraint{}, fmt.Errorf("%q: %w: more than one relational operator", s, ErrSyntax)
		}
		op = i
	}
	if op < 0 {
		return Constraint{}, fmt.Errorf("%q: %w: missing relational operator", s, ErrSyntax)
	}

	lhs, lc, err := parseSide(toks[:op])
	if err != nil {
		return Constraint{}, fmt.Errorf("%q: %w", s, err)
	}
	rhs, rc, err := parseSide(toks[op+1:])
	if err != nil {
		return Constraint{}, fmt.Errorf("%q: %w", s, err)
	}
	for id, v := range rhs {
		lhs[id] -= v
		if lhs[id] == 0 {
			delete(lhs, id)
		}
	}

	var sense lp.Sense
	switch toks[op].text {
	case "<=", "<":
		sense = lp.LessEq
	case ">=", ">":
		sense = lp.GreaterEq
	default:
		sense = lp.Equal
	}

	return Constraint{Expr: lhs, Sense: sense, RHS: rc - lc}, nil
}

// ParseExpr parses a linear expression without constant terms, as used for
// objectives ("EX_p", "-1 R1 + 0.5 R2").
func ParseExpr(s string) (Expr, error) {
	toks, err := tokenize(s)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", s, err)
	}
	for _, t := range toks {
		if t.kind == tokOp {
			return nil, fmt.Errorf("%q: %w: unexpected %q", s, ErrSyntax, t.text)
		}
	}
	e, c, err := parseSide(toks)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", s, err)
	}
	if c != 0 {
		return nil, fmt.Errorf("%q: %w: constant term in expression", s, ErrSyntax)
	}

	return e, nil
}

type tokenKind int8

const (
	tokNum tokenKind = iota
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokOp
)

type token struct {
	kind tokenKind
	text string
	num  float64
}

func tokenize(s string) ([]token, error) {
	var (
		toks []token
		i, j int
	)
	for i < len(s) {
		ch := s[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			i++
		case ch == '+':
			toks = append(toks, token{kind: tokPlus, text: "+"})
			i++
		case ch == '-':
			toks = append(toks, token{kind: tokMinus, text: "-"})
			i++
		case ch == '*':
			toks = append(toks, token{kind: tokStar, text: "*"})
			i++
		case ch == '<' || ch == '>' || ch == '=':
			j = i + 1
			if j < len(s) && s[j] == '=' {
				j++
			}
			toks = append(toks, token{kind: tokOp, text: s[i:j]})
			i = j
		case isIdentChar(ch):
			j = i
			for j < len(s) && isIdentChar(s[j]) {
				j++
			}
			numeric := isDigit(ch) || ch == '.'
			// signed exponent: 1e-3, 2.5E+4
			if numeric && j < len(s) && (s[j] == '+' || s[j] == '-') && (s[j-1] == 'e' || s[j-1] == 'E') {
				k := j + 1
				for k < len(s) && isDigit(s[k]) {
					k++
				}
				if k > j+1 {
					if _, err := strconv.ParseFloat(s[i:k], 64); err == nil {
						j = k
					}
				}
			}
			word := s[i:j]
			if numeric {
				if v, err := strconv.ParseFloat(word, 64); err == nil {
					toks = append(toks, token{kind: tokNum, text: word, num: v})
					i = j
					continue
				}
			}
			toks = append(toks, token{kind: tokIdent, text: word})
			i = j
		default:
			return nil, fmt.Errorf("%w: unexpected %q at offset %d", ErrSyntax, ch, i)
		}
	}

	return toks, nil
}

// parseSide parses one side of a constraint: a signed sum of terms, each
// either "coef id", "coef*id", "id*coef", "id" or a bare constant.
func parseSide(toks []token) (Expr, float64, error) {
	if len(toks) == 0 {
		return nil, 0, fmt.Errorf("%w: empty side", ErrSyntax)
	}
	var (
		e        = Expr{}
		constant float64
		i        int
		first    = true
	)
	for i < len(toks) {
		sign, signed := 1.0, false
		for i < len(toks) && (toks[i].kind == tokPlus || toks[i].kind == tokMinus) {
			if toks[i].kind == tokMinus {
				sign = -sign
			}
			signed = true
			i++
		}
		if !first && !signed {
			return nil, 0, fmt.Errorf("%w: missing operator before %q", ErrSyntax, toks[i].text)
		}
		if i >= len(toks) {
			return nil, 0, fmt.Errorf("%w: dangling sign", ErrSyntax)
		}

		coef, hasNum := 1.0, false
		if toks[i].kind == tokNum {
			coef, hasNum = toks[i].num, true
			i++
			if i < len(toks) && toks[i].kind == tokStar {
				i++
				if i >= len(toks) || toks[i].kind != tokIdent {
					return nil, 0, fmt.Errorf("%w: expected identifier after '*'", ErrSyntax)
				}
			}
		}
		switch {
		case i < len(toks) && toks[i].kind == tokIdent:
			id := toks[i].text
			i++
			if i+1 < len(toks) && toks[i].kind == tokStar && toks[i+1].kind == tokNum {
				coef *= toks[i+1].num
				i += 2
			}
			e[id] += sign * coef
			if e[id] == 0 {
				delete(e, id)
			}
		case hasNum:
			constant += sign * coef
		default:
			return nil, 0, fmt.Errorf("%w: unexpected %q", ErrSyntax, toks[i].text)
		}
		first = false
	}

	return e, constant, nil
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isIdentChar(ch byte) bool {
	switch {
	case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', isDigit(ch):
		return true
	case ch == '_' || ch == '.' || ch == '(' || ch == ')' || ch == '[' || ch == ']':
		return true
	}

	return false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}

	return v
}
