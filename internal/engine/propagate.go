package engine

import "github.com/operator-framework/wfc/pkg/wfc"

// task records that the domain of from changed and the constraint it
// places on its neighbor to, in direction, must be recomputed.
type task struct {
	from      wfc.VertexIndex
	to        wfc.VertexIndex
	direction wfc.Direction
}

// taskStack is the propagation worklist. It is last-in first-out, so
// the most recently affected vertex is propagated first.
type taskStack []task

func (s *taskStack) push(t task) {
	*s = append(*s, t)
}

func (s *taskStack) pop() task {
	old := *s
	t := old[len(old)-1]
	*s = old[:len(old)-1]
	return t
}

func (s taskStack) empty() bool {
	return len(s) == 0
}
