package engine

import (
	"fmt"
	"math/rand"

	"github.com/go-logr/logr"

	"github.com/operator-framework/wfc/pkg/wfc"
)

type Outcome int

const (
	Running Outcome = iota
	Succeeded
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Stats counts the work done by a Run.
type Stats struct {
	// Propagations is the number of propagation tasks processed.
	Propagations int
	// Changes is the number of propagation tasks that narrowed a domain.
	Changes int
	// Collapses is the number of weighted random choices made.
	Collapses int
	// Discarded is the number of stale candidates dropped from the queue.
	Discarded int
}

// Run is a single collapse attempt. It owns its graph exclusively and
// narrows it until every vertex is resolved or one becomes empty.
type Run struct {
	rng   *rand.Rand
	cache *ConstraintCache
	graph *wfc.Graph
	log   logr.Logger

	queue    candidateQueue
	stack    taskStack
	dirty    []wfc.VertexIndex
	isDirty  []bool
	observed []bool
	order    []wfc.VertexIndex

	outcome Outcome
	failed  wfc.VertexIndex
	stats   Stats
}

type RunOption func(r *Run)

func WithLogger(log logr.Logger) RunOption {
	return func(r *Run) {
		r.log = log
	}
}

// NewRun prepares an attempt on graph, which the Run takes ownership
// of. Vertices that are already resolved are observed; every vertex
// narrower than allLabels schedules propagation to its neighbors so that
// pre-seeded constraints are applied before the first choice.
//
// It fails if some vertex has an empty domain or allows a label that
// allLabels does not.
func NewRun(rng *rand.Rand, cache *ConstraintCache, allLabels wfc.Domain, graph *wfc.Graph, options ...RunOption) (*Run, error) {
	n := graph.Len()
	r := &Run{
		rng:      rng,
		cache:    cache,
		graph:    graph,
		log:      logr.Discard(),
		queue:    make(candidateQueue, 0, n),
		isDirty:  make([]bool, n),
		observed: make([]bool, n),
		failed:   -1,
	}
	for _, option := range options {
		option(r)
	}

	for i := 0; i < n; i++ {
		v := wfc.VertexIndex(i)
		d := graph.Domain(v)
		if len(d) != len(allLabels) {
			return nil, fmt.Errorf("%w: vertex %d has %d labels, exemplar has %d", wfc.ErrInvalidInput, v, len(d), len(allLabels))
		}
		if d.IsEmpty() {
			return nil, fmt.Errorf("%w: vertex %d has an empty domain", wfc.ErrInvalidInput, v)
		}
		if d.IsSingleton() {
			r.observe(v)
			continue
		}
		r.queue = append(r.queue, newSeededCandidate(rng.Uint64(), v, d))
	}
	r.queue.init()

	for i := 0; i < n; i++ {
		v := wfc.VertexIndex(i)
		d := graph.Domain(v)
		if !wfc.IsSubset(d, allLabels) {
			return nil, fmt.Errorf("%w: vertex %d allows labels outside the exemplar: %s", wfc.ErrInvalidInput, v, d)
		}
		if !wfc.Equal(d, allLabels) {
			r.schedule(v)
		}
	}
	return r, nil
}

// Graph returns the graph the run is narrowing. It is only meaningful to
// callers once the run has succeeded.
func (r *Run) Graph() *wfc.Graph {
	return r.graph
}

func (r *Run) Stats() Stats {
	return r.stats
}

func (r *Run) Outcome() Outcome {
	return r.outcome
}

// Failed returns the vertex whose domain became empty, or -1.
func (r *Run) Failed() wfc.VertexIndex {
	return r.failed
}

// Observed returns the resolved vertices in the order they resolved.
func (r *Run) Observed() []wfc.VertexIndex {
	return r.order
}

// Exec steps the run until it terminates.
func (r *Run) Exec() Outcome {
	for r.outcome == Running {
		r.Step()
	}
	return r.outcome
}

// Step performs one propagation task or, when the worklist is empty, one
// collapse. Propagation always drains before a new choice is made.
func (r *Run) Step() Outcome {
	if r.outcome != Running {
		return r.outcome
	}
	if r.stack.empty() && (len(r.order) == r.graph.Len() || r.queue.Len() == 0) {
		r.outcome = Succeeded
		return r.outcome
	}

	if !r.stack.empty() {
		r.propagate(r.stack.pop())
		return r.outcome
	}

	r.flushDirty()
	c := r.queue.pop()
	if r.observed[c.vertex] {
		r.stats.Discarded++
		return r.outcome
	}
	label := r.graph.CollapseVertex(r.rng, c.vertex)
	r.stats.Collapses++
	r.log.V(2).Info("collapsed vertex", "vertex", c.vertex, "label", label, "entropy", c.entropy)
	r.observe(c.vertex)
	r.schedule(c.vertex)
	return r.outcome
}

func (r *Run) propagate(t task) {
	r.stats.Propagations++
	constraint := r.cache.Constraint(r.graph.Domain(t.from), t.direction)
	d, changed := r.graph.ConstrainVertex(t.to, constraint)
	if !changed {
		return
	}
	r.stats.Changes++

	switch d.CardinalityNonZero() {
	case 0:
		r.outcome = Failed
		r.failed = t.to
		r.log.V(1).Info("contradiction", "vertex", t.to, "from", t.from, "direction", t.direction)
		return
	case 1:
		if !r.observed[t.to] {
			r.observe(t.to)
		}
	default:
		r.markDirty(t.to)
	}
	r.schedule(t.to)
}

// schedule queues propagation from v to each of its unobserved
// neighbors.
func (r *Run) schedule(v wfc.VertexIndex) {
	for _, c := range r.graph.Connections(v) {
		if r.observed[c.To] {
			continue
		}
		r.stack.push(task{from: v, to: c.To, direction: c.Direction})
	}
}

func (r *Run) observe(v wfc.VertexIndex) {
	r.observed[v] = true
	r.order = append(r.order, v)
}

func (r *Run) markDirty(v wfc.VertexIndex) {
	if r.isDirty[v] {
		return
	}
	r.isDirty[v] = true
	r.dirty = append(r.dirty, v)
}

// flushDirty requeues every vertex whose domain changed since the last
// choice, with a freshly computed entropy.
func (r *Run) flushDirty() {
	for _, v := range r.dirty {
		r.isDirty[v] = false
		if r.observed[v] {
			continue
		}
		r.queue.push(newCandidate(v, r.graph.Domain(v)))
	}
	r.dirty = r.dirty[:0]
}

var _ wfc.AttemptPosition = attemptPosition{}

type attemptPosition struct {
	attempt int
	run     *Run
}

// Position describes the run for a Tracer.
func (r *Run) Position(attempt int) wfc.AttemptPosition {
	return attemptPosition{attempt: attempt, run: r}
}

func (p attemptPosition) Attempt() int                { return p.attempt }
func (p attemptPosition) Vertex() wfc.VertexIndex     { return p.run.failed }
func (p attemptPosition) Observed() []wfc.VertexIndex { return p.run.order }
