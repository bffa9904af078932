package gpr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// ErrSyntax is returned for malformed rules.
var ErrSyntax = errors.New("gpr: rule syntax error")

// Op is the kind of a rule node.
type Op int8

const (
	// Leaf is a single gene.
	Leaf Op = iota
	// And requires every child.
	And
	// Or requires at least one child.
	Or
)

// Node is a parsed gene-reaction rule.
type Node struct {
	Op       Op
	Gene     string
	Children []*Node
}

// Eval evaluates the rule for the given gene states.
func (n *Node) Eval(present func(gene string) bool) bool {
	switch n.Op {
	case Leaf:
		return present(n.Gene)
	case And:
		for _, c := range n.Children {
			if !c.Eval(present) {
				return false
			}
		}

		return true
	default:
		for _, c := range n.Children {
			if c.Eval(present) {
				return true
			}
		}

		return false
	}
}

// Genes returns the distinct genes of the rule, sorted.
func (n *Node) Genes() []string {
	seen := make(map[string]struct{})
	n.walk(func(g string) { seen[g] = struct{}{} })
	out := make([]string, 0, len(seen))
	for g := range seen {
		out = append(out, g)
	}
	sort.Strings(out)

	return out
}

func (n *Node) walk(fn func(string)) {
	if n.Op == Leaf {
		fn(n.Gene)
		return
	}
	for _, c := range n.Children {
		c.walk(fn)
	}
}

// String renders the rule with explicit parentheses around nested groups.
func (n *Node) String() string {
	if n.Op == Leaf {
		return n.Gene
	}
	sep := " and "
	if n.Op == Or {
		sep = " or "
	}
	parts := make([]string, len(n.Children))
	for i, c := range n.Children {
		parts[i] = c.String()
		if c.Op != Leaf {
			parts[i] = "(" + parts[i] + ")"
		}
	}

	return strings.Join(parts, sep)
}

// Parse parses rule. A blank rule yields (nil, nil).
func Parse(rule string) (*Node, error) {
	toks := lex(rule)
	if len(toks) == 0 {
		return nil, nil
	}
	p := &parser{toks: toks}
	n, err := p.or()
	if err != nil {
		return nil, fmt.Errorf("%q: %w", rule, err)
	}
	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("%q: %w: unexpected %q", rule, ErrSyntax, p.toks[p.pos])
	}

	return n, nil
}

func lex(s string) []string {
	var (
		toks []string
		cur  strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			flush()
		case r == '(' || r == ')':
			flush()
			toks = append(toks, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()

	return toks
}

type parser struct {
	toks []string
	pos  int
}

func (p *parser) peek() string {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}

	return ""
}

func isOr(t string) bool  { return strings.EqualFold(t, "or") || t == "|" || t == "||" }
func isAnd(t string) bool { return strings.EqualFold(t, "and") || t == "&" || t == "&&" }

func (p *parser) or() (*Node, error) {
	return p.chain(Or, isOr, p.and)
}

func (p *parser) and() (*Node, error) {
	return p.chain(And, isAnd, p.atom)
}

// chain parses operand { sep operand } and flattens nested nodes of the
// same kind.
func (p *parser) chain(op Op, sep func(string) bool, operand func() (*Node, error)) (*Node, error) {
	first, err := operand()
	if err != nil {
		return nil, err
	}
	children := []*Node{first}
	for sep(p.peek()) {
		p.pos++
		next, err := operand()
		if err != nil {
			return nil, err
		}
		children = append(children, next)
	}
	if len(children) == 1 {
		return first, nil
	}
	flat := make([]*Node, 0, len(children))
	for _, c := range children {
		if c.Op == op {
			flat = append(flat, c.Children...)
		} else {
			flat = append(flat, c)
		}
	}

	return &Node{Op: op, Children: flat}, nil
}

func (p *parser) atom() (*Node, error) {
	t := p.peek()
	switch {
	case t == "":
		return nil, fmt.Errorf("%w: unexpected end of rule", ErrSyntax)
	case t == "(":
		p.pos++
		n, err := p.or()
		if err != nil {
			return nil, err
		}
		if p.peek() != ")" {
			return nil, fmt.Errorf("%w: missing ')'", ErrSyntax)
		}
		p.pos++

		return n, nil
	case t == ")" || isOr(t) || isAnd(t):
		return nil, fmt.Errorf("%w: unexpected %q", ErrSyntax, t)
	}
	p.pos++

	return &Node{Op: Leaf, Gene: t}, nil
}

// Restrict fixes the genes for which keep returns false to "present" and
// simplifies the rule. It returns nil when the rule becomes unconditionally
// true.
func (n *Node) Restrict(keep func(gene string) bool) *Node {
	switch n.Op {
	case Leaf:
		if keep(n.Gene) {
			return n
		}

		return nil
	case And:
		var kids []*Node
		for _, c := range n.Children {
			if r := c.Restrict(keep); r != nil {
				kids = append(kids, r)
			}
		}
		switch len(kids) {
		case 0:
			return nil
		case 1:
			return kids[0]
		}

		return &Node{Op: And, Children: kids}
	default:
		kids := make([]*Node, 0, len(n.Children))
		for _, c := range n.Children {
			r := c.Restrict(keep)
			if r == nil {
				return nil
			}
			kids = append(kids, r)
		}
		if len(kids) == 1 {
			return kids[0]
		}

		return &Node{Op: Or, Children: kids}
	}
}
