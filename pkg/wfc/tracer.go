package wfc

import (
	"fmt"
	"io"
)

// AttemptPosition describes the state of a collapse attempt that ended
// in a contradiction.
type AttemptPosition interface {
	// Attempt is the zero-based attempt number.
	Attempt() int
	// Vertex is the vertex whose domain became empty.
	Vertex() VertexIndex
	// Observed returns the vertices resolved before the contradiction,
	// in the order they were resolved.
	Observed() []VertexIndex
}

type Tracer interface {
	Trace(p AttemptPosition)
}

type DefaultTracer struct{}

func (DefaultTracer) Trace(_ AttemptPosition) {
}

type LoggingTracer struct {
	Writer io.Writer
}

func (t LoggingTracer) Trace(p AttemptPosition) {
	fmt.Fprintf(t.Writer, "---\nAttempt %d:\n", p.Attempt())
	fmt.Fprintf(t.Writer, "Observed:\n")
	for _, v := range p.Observed() {
		fmt.Fprintf(t.Writer, "- %d\n", v)
	}
	fmt.Fprintf(t.Writer, "Contradiction:\n- %d\n", p.Vertex())
}
