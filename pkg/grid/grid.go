// Package grid builds wfc graphs over rectangular grids.
//
// Vertices are numbered in row-major order: the cell at column x of row
// y is vertex y*width + x. Two connectivities are supported:
//
//   - Cardinal: north, south, east and west neighbors
//   - EightWay: cardinal neighbors plus the four diagonals
//
// Direction values are stable so that rules learned on one grid apply to
// any other grid of the same connectivity. Every direction d has a
// reverse, Reverse(d), such that if b lies in direction d of a then a
// lies in direction Reverse(d) of b.
package grid

import (
	"errors"
	"fmt"

	"github.com/operator-framework/wfc/pkg/wfc"
)

var (
	// ErrEmptyGrid indicates a grid without rows or columns.
	ErrEmptyGrid = errors.New("grid: must have at least one row and one column")
	// ErrNonRectangular indicates rows of differing lengths.
	ErrNonRectangular = errors.New("grid: all rows must have the same length")
)

const (
	North wfc.Direction = iota
	South
	East
	West
	NorthEast
	SouthWest
	NorthWest
	SouthEast
)

// Connectivity selects which neighbors a cell is connected to.
type Connectivity int

const (
	Cardinal Connectivity = iota
	EightWay
)

type offset struct {
	dx, dy    int
	direction wfc.Direction
}

var (
	cardinalOffsets = []offset{
		{0, -1, North},
		{0, 1, South},
		{1, 0, East},
		{-1, 0, West},
	}
	eightWayOffsets = append(append([]offset(nil), cardinalOffsets...),
		offset{1, -1, NorthEast},
		offset{-1, 1, SouthWest},
		offset{-1, -1, NorthWest},
		offset{1, 1, SouthEast},
	)
)

// Reverse returns the direction pointing back along d.
func Reverse(d wfc.Direction) wfc.Direction {
	return d ^ 1
}

func (c Connectivity) offsets() []offset {
	if c == EightWay {
		return eightWayOffsets
	}
	return cardinalOffsets
}

func (c Connectivity) String() string {
	switch c {
	case Cardinal:
		return "cardinal"
	case EightWay:
		return "eight-way"
	}
	return fmt.Sprintf("Connectivity(%d)", int(c))
}

// Edges returns the adjacency lists of a width x height grid.
func Edges(width, height int, c Connectivity) ([][]wfc.Connection, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrEmptyGrid
	}
	offsets := c.offsets()
	edges := make([][]wfc.Connection, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			conns := make([]wfc.Connection, 0, len(offsets))
			for _, o := range offsets {
				nx, ny := x+o.dx, y+o.dy
				if nx < 0 || nx >= width || ny < 0 || ny >= height {
					continue
				}
				conns = append(conns, wfc.Connection{
					To:        wfc.VertexIndex(ny*width + nx),
					Direction: o.direction,
				})
			}
			edges[y*width+x] = conns
		}
	}
	return edges, nil
}

// Output returns a width x height grid graph in which every vertex
// starts with the domain allLabels.
func Output(width, height int, allLabels wfc.Domain, c Connectivity) (*wfc.Graph, error) {
	edges, err := Edges(width, height, c)
	if err != nil {
		return nil, err
	}
	vertices := make([]wfc.Domain, width*height)
	for i := range vertices {
		vertices[i] = wfc.FullDomain(allLabels)
	}
	return wfc.NewGraph(vertices, edges)
}

// Exemplar returns a resolved grid graph from rows of labels. Every
// label must lie in [0, numLabels).
func Exemplar(rows [][]wfc.Label, numLabels int, c Connectivity) (*wfc.Graph, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyGrid
	}
	width, height := len(rows[0]), len(rows)
	vertices := make([]wfc.Domain, 0, width*height)
	for y, row := range rows {
		if len(row) != width {
			return nil, ErrNonRectangular
		}
		for x, l := range row {
			if l < 0 || int(l) >= numLabels {
				return nil, fmt.Errorf("grid: label %d at (%d, %d) out of range [0, %d)", l, x, y, numLabels)
			}
			vertices = append(vertices, wfc.OneHot(numLabels, l))
		}
	}
	edges, err := Edges(width, height, c)
	if err != nil {
		return nil, err
	}
	return wfc.NewGraph(vertices, edges)
}
