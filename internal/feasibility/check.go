package feasibility

import (
	"errors"
	"fmt"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"

	"github.com/operator-framework/wfc/pkg/wfc"
)

const (
	satisfiable   = 1
	unsatisfiable = -1
)

var ErrUnknown = errors.New("solver gave up without an answer")

// Result is the outcome of an exact feasibility check.
type Result struct {
	Satisfiable bool
	// Assignment is a fully resolved copy of the input graph satisfying
	// every rule. It is nil unless Satisfiable.
	Assignment *wfc.Graph
}

// Check decides whether the vertices of g can all be resolved to labels
// from their current domains such that every neighbor pair is allowed by
// rules. Unlike a collapse it never guesses, so an unsatisfiable result
// means that no seed will ever succeed.
func Check(rules wfc.Rules, g *wfc.Graph) (Result, error) {
	e := newEncoding(rules, g)
	if e.empty {
		return Result{}, nil
	}

	s := gini.New()
	e.c.ToCnf(s)
	for _, m := range e.roots {
		s.Add(m)
		s.Add(z.LitNull)
	}

	switch s.Solve() {
	case satisfiable:
		out := g.Clone()
		for v, labels := range e.lits {
			for l, m := range labels {
				if m != z.LitNull && s.Value(m) {
					out.Determine(wfc.VertexIndex(v), wfc.Label(l))
					break
				}
			}
		}
		if err := out.Verify(rules); err != nil {
			return Result{}, fmt.Errorf("internal solver failure: %w", err)
		}
		return Result{Satisfiable: true, Assignment: out}, nil
	case unsatisfiable:
		return Result{}, nil
	}
	return Result{}, ErrUnknown
}

// encoding maps every (vertex, label) pair still possible in the graph
// to a literal of a logic circuit. roots are the circuit outputs that
// must all hold.
type encoding struct {
	c     *logic.C
	lits  [][]z.Lit
	roots []z.Lit
	empty bool
}

func newEncoding(rules wfc.Rules, g *wfc.Graph) *encoding {
	e := &encoding{
		c:    logic.NewC(),
		lits: make([][]z.Lit, g.Len()),
	}

	// every vertex takes exactly one of its labels
	for v := range e.lits {
		d := g.Domain(wfc.VertexIndex(v))
		e.lits[v] = make([]z.Lit, len(d))
		var ms []z.Lit
		for l, w := range d {
			if w == 0 {
				continue
			}
			m := e.c.Lit()
			e.lits[v][l] = m
			ms = append(ms, m)
		}
		if len(ms) == 0 {
			e.empty = true
			return e
		}
		e.roots = append(e.roots, e.any(ms))
		if len(ms) > 1 {
			e.roots = append(e.roots, e.c.CardSort(ms).Leq(1))
		}
	}

	// a label implies that each neighbor takes an allowed label
	for u := range e.lits {
		for _, conn := range g.Connections(wfc.VertexIndex(u)) {
			for l, m := range e.lits[u] {
				if m == z.LitNull {
					continue
				}
				allowed, ok := rules.Lookup(conn.Direction, wfc.Label(l))
				if !ok {
					continue
				}
				var ms []z.Lit
				for to, w := range allowed {
					if w > 0 && e.lits[conn.To][to] != z.LitNull {
						ms = append(ms, e.lits[conn.To][to])
					}
				}
				if len(ms) == 0 {
					e.roots = append(e.roots, m.Not())
					continue
				}
				e.roots = append(e.roots, e.c.Or(m.Not(), e.any(ms)))
			}
		}
	}
	return e
}

// any returns a literal that holds if at least one of ms holds. ms must
// not be empty.
func (e *encoding) any(ms []z.Lit) z.Lit {
	m := ms[0]
	for _, each := range ms[1:] {
		m = e.c.Or(m, each)
	}
	return m
}
