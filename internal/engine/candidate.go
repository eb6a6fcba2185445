package engine

import (
	"container/heap"

	"github.com/operator-framework/wfc/pkg/wfc"
)

const tieBreakMix = 0x9E3779B97F4A7C15

// candidate is an unresolved vertex waiting to be collapsed. entropy is
// cached when the candidate is created and may be stale by the time it
// is popped.
type candidate struct {
	vertex   wfc.VertexIndex
	entropy  float64
	tieBreak uint64
}

func newCandidate(v wfc.VertexIndex, d wfc.Domain) candidate {
	return candidate{vertex: v, entropy: d.Entropy()}
}

// newSeededCandidate is used for the initial queue. The tie-break is a
// function of the rng stream position and the vertex, so vertices with
// identical domains are taken in a seed-dependent but reproducible
// order.
func newSeededCandidate(draw uint64, v wfc.VertexIndex, d wfc.Domain) candidate {
	c := newCandidate(v, d)
	c.tieBreak = draw ^ (uint64(v) * tieBreakMix)
	return c
}

func (c candidate) less(o candidate) bool {
	if c.entropy != o.entropy {
		return c.entropy < o.entropy
	}
	if c.tieBreak != o.tieBreak {
		return c.tieBreak < o.tieBreak
	}
	return c.vertex < o.vertex
}

// candidateQueue is a min-heap of candidates ordered by entropy. The
// same vertex may be queued more than once; entries for vertices that
// have since been observed are dropped by the caller when popped.
type candidateQueue []candidate

func (q candidateQueue) Len() int           { return len(q) }
func (q candidateQueue) Less(i, j int) bool { return q[i].less(q[j]) }
func (q candidateQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *candidateQueue) Push(x any) {
	*q = append(*q, x.(candidate))
}

func (q *candidateQueue) Pop() any {
	old := *q
	n := len(old)
	c := old[n-1]
	*q = old[:n-1]
	return c
}

func (q *candidateQueue) push(c candidate) {
	heap.Push(q, c)
}

func (q *candidateQueue) pop() candidate {
	return heap.Pop(q).(candidate)
}

func (q *candidateQueue) init() {
	heap.Init(q)
}
