package wfc

import (
	"fmt"
	"math/rand"
)

// Graph holds one Domain per vertex and a fixed adjacency list. Only the
// domains change once a Graph has been built.
//
// An exemplar Graph has a singleton domain on every vertex and is used to
// derive Rules and label frequencies. An output Graph starts with wide
// domains and is narrowed by a collapse.
type Graph struct {
	vertices []Domain
	edges    [][]Connection
}

// NewGraph returns a Graph over the given domains and adjacency lists.
// edges[v] lists the neighbors of vertex v. Every domain must have the
// same length and every neighbor must name an existing vertex.
func NewGraph(vertices []Domain, edges [][]Connection) (*Graph, error) {
	if len(vertices) != len(edges) {
		return nil, fmt.Errorf("%w: %d vertices but %d adjacency lists", ErrInvalidGraph, len(vertices), len(edges))
	}
	for v, d := range vertices {
		if len(d) != len(vertices[0]) {
			return nil, fmt.Errorf("%w: vertex %d has domain length %d, expected %d", ErrInvalidGraph, v, len(d), len(vertices[0]))
		}
	}
	for v, conns := range edges {
		for _, c := range conns {
			if c.To < 0 || int(c.To) >= len(vertices) {
				return nil, fmt.Errorf("%w: vertex %d connects to unknown vertex %d", ErrInvalidGraph, v, c.To)
			}
		}
	}

	g := &Graph{
		vertices: make([]Domain, len(vertices)),
		edges:    make([][]Connection, len(edges)),
	}
	for i := range vertices {
		g.vertices[i] = vertices[i].Clone()
		g.edges[i] = append([]Connection(nil), edges[i]...)
	}
	return g, nil
}

// Len returns the number of vertices.
func (g *Graph) Len() int {
	return len(g.vertices)
}

// NumLabels returns the length of the graph's domains.
func (g *Graph) NumLabels() int {
	if len(g.vertices) == 0 {
		return 0
	}
	return len(g.vertices[0])
}

// Domain returns the current domain of v. The returned value must not
// be modified.
func (g *Graph) Domain(v VertexIndex) Domain {
	return g.vertices[v]
}

// Connections returns the neighbors of v in adjacency order.
func (g *Graph) Connections(v VertexIndex) []Connection {
	return g.edges[v]
}

// Clone returns a copy of g with independent domains. Adjacency is
// immutable and therefore shared.
func (g *Graph) Clone() *Graph {
	out := &Graph{
		vertices: make([]Domain, len(g.vertices)),
		edges:    g.edges,
	}
	for i, d := range g.vertices {
		out.vertices[i] = d.Clone()
	}
	return out
}

// Resolved reports whether every vertex has a singleton domain.
func (g *Graph) Resolved() bool {
	for _, d := range g.vertices {
		if !d.IsSingleton() {
			return false
		}
	}
	return true
}

// Labels returns the label of every vertex, or false if some vertex is
// not resolved.
func (g *Graph) Labels() ([]Label, bool) {
	labels := make([]Label, len(g.vertices))
	for i, d := range g.vertices {
		l, ok := d.SingleLabel()
		if !ok {
			return nil, false
		}
		labels[i] = l
	}
	return labels, true
}

func (g *Graph) mustSingle(v VertexIndex) Label {
	l, ok := g.vertices[v].SingleLabel()
	if !ok {
		panic(fmt.Sprintf("exemplar vertex %d is not resolved: %s", v, g.vertices[v]))
	}
	return l
}

// Frequencies counts how often every label occurs in a resolved
// exemplar graph. It panics if a vertex is not a singleton.
func (g *Graph) Frequencies() Domain {
	freq := EmptyDomain(g.NumLabels())
	for v := range g.vertices {
		freq[g.mustSingle(VertexIndex(v))]++
	}
	return freq
}

// AllLabels returns the domain of an unconstrained output vertex: every
// label seen in the exemplar, weighted by its frequency.
func (g *Graph) AllLabels() Domain {
	return g.Frequencies()
}

// Rules derives the directional compatibility table of a resolved
// exemplar graph. For every edge u -d-> v, the label of v is allowed
// next to the label of u in direction d. Allowed labels carry their
// exemplar frequency as weight so that applying a rule to a full
// domain only removes labels and never reweights the survivors. Which
// labels a rule allows is the same as for a union of one-hot domains.
func (g *Graph) Rules() Rules {
	freq := g.Frequencies()
	rules := make(Rules)
	for u, conns := range g.edges {
		from := g.mustSingle(VertexIndex(u))
		for _, c := range conns {
			to := g.mustSingle(c.To)
			key := RuleKey{Direction: c.Direction, Label: from}
			allowed, ok := rules[key]
			if !ok {
				allowed = EmptyDomain(len(freq))
				rules[key] = allowed
			}
			allowed[to] = freq[to]
		}
	}
	return rules
}

// CollapseVertex resolves v to one of its possible labels, drawn with
// probability proportional to the label's weight, and returns it. It
// panics if the domain of v is empty.
func (g *Graph) CollapseVertex(rng *rand.Rand, v VertexIndex) Label {
	d := g.vertices[v]
	total := d.Total()
	if total == 0 {
		panic(fmt.Sprintf("cannot collapse vertex %d: empty domain", v))
	}
	r := uint64(rng.Int63n(int64(total)))
	chosen := Label(-1)
	for i, w := range d {
		if w == 0 {
			continue
		}
		if r < uint64(w) {
			chosen = Label(i)
			break
		}
		r -= uint64(w)
	}
	g.Determine(v, chosen)
	return chosen
}

// Determine resolves v to label, keeping the label's current weight.
func (g *Graph) Determine(v VertexIndex, label Label) {
	g.vertices[v].Determine(label)
}

// ConstrainVertex intersects the domain of v with constraint. It
// returns the new domain and true if anything changed, or nil and false
// if the domain was already within the constraint. The caller decides
// whether the new domain is empty, resolved or still open.
func (g *Graph) ConstrainVertex(v VertexIndex, constraint Domain) (Domain, bool) {
	next := Intersect(g.vertices[v], constraint)
	if Equal(next, g.vertices[v]) {
		return nil, false
	}
	g.vertices[v] = next
	return next, true
}

// Verify checks a resolved graph against rules: every neighbor label
// must be allowed by the rule of its (direction, label) pair, when such a
// rule exists.
func (g *Graph) Verify(rules Rules) error {
	for u, conns := range g.edges {
		from, ok := g.vertices[u].SingleLabel()
		if !ok {
			return fmt.Errorf("vertex %d is not resolved", u)
		}
		for _, c := range conns {
			to, ok := g.vertices[c.To].SingleLabel()
			if !ok {
				return fmt.Errorf("vertex %d is not resolved", c.To)
			}
			allowed, ok := rules.Lookup(c.Direction, from)
			if !ok {
				continue
			}
			if allowed[to] == 0 {
				return fmt.Errorf("vertex %d has label %d in direction %d of vertex %d with label %d, which is not allowed", c.To, to, c.Direction, u, from)
			}
		}
	}
	return nil
}
