package wfc

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidGraph is returned when a graph's vertices and adjacency
	// do not describe the same set of vertices.
	ErrInvalidGraph = errors.New("invalid graph")
	// ErrInvalidInput is returned when an output graph cannot be
	// collapsed against an exemplar, e.g. because a vertex allows a label
	// the exemplar never produced.
	ErrInvalidInput = errors.New("invalid input")
)

// Label identifies a tile, pattern or color class. Labels are dense
// integers in [0, N) where N is the length of every Domain in a run.
type Label int

// VertexIndex is the dense, stable identity of a vertex within a Graph.
type VertexIndex int

// Direction names a relative adjacency class between two vertices,
// e.g. "north of" on a cardinal grid.
type Direction uint16

// Connection is one entry of a vertex's adjacency list: the neighbor To
// lies in Direction relative to the owning vertex.
type Connection struct {
	To        VertexIndex
	Direction Direction
}

// Contradiction is returned when every collapse attempt ended with a
// vertex whose domain became empty.
type Contradiction struct {
	// Attempts is the number of attempts made before giving up.
	Attempts int
	// Vertex is the vertex that became empty in the last attempt.
	Vertex VertexIndex
	// Infeasible is set when an exact check proved that no assignment
	// exists at all, so retrying with other seeds cannot help.
	Infeasible bool
}

func (e Contradiction) Error() string {
	const msg = "contradiction: no consistent assignment"
	if e.Attempts == 0 {
		return msg
	}
	if e.Infeasible {
		return fmt.Sprintf("%s after %d attempts (output is unsatisfiable)", msg, e.Attempts)
	}
	return fmt.Sprintf("%s after %d attempts", msg, e.Attempts)
}
