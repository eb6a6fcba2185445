package grid

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/operator-framework/wfc/pkg/wfc"
)

// Unresolved is rendered for vertices that do not have a single label.
const Unresolved = '?'

// Text is a grid of labels read from a character picture, e.g.
//
//	# comment
//	#..#
//	.##.
//
// Each rune is a cell; runes are numbered as labels in order of first
// appearance. A line is a comment only if it is a lone '#' or starts
// with '#' followed by whitespace, so '#' can still be a cell in the
// first column.
type Text struct {
	rows   [][]wfc.Label
	legend []rune
}

// Rows returns the labels of the grid, one slice per line.
func (t *Text) Rows() [][]wfc.Label {
	return t.rows
}

// Legend maps each label to the rune it was read from.
func (t *Text) Legend() []rune {
	return t.legend
}

// Width returns the number of columns.
func (t *Text) Width() int {
	return len(t.rows[0])
}

// Height returns the number of rows.
func (t *Text) Height() int {
	return len(t.rows)
}

// Exemplar returns the resolved exemplar graph of the grid.
func (t *Text) Exemplar(c Connectivity) (*wfc.Graph, error) {
	return Exemplar(t.rows, len(t.legend), c)
}

// ParseText reads a character grid. Comment lines ("# ..." or a lone
// "#") and blank lines are skipped.
func ParseText(r io.Reader) (*Text, error) {
	reader := bufio.NewReader(r)
	commentLine := regexp.MustCompile(`^#(\s|$)`)

	t := &Text{}
	labels := map[rune]wfc.Label{}
	for {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("error reading grid: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")

		if commentLine.MatchString(line) || strings.TrimSpace(line) == "" {
			if errors.Is(err, io.EOF) {
				break
			}
			continue
		}

		row := make([]wfc.Label, 0, len(line))
		for _, ch := range line {
			l, ok := labels[ch]
			if !ok {
				l = wfc.Label(len(t.legend))
				labels[ch] = l
				t.legend = append(t.legend, ch)
			}
			row = append(row, l)
		}
		if len(t.rows) > 0 && len(row) != len(t.rows[0]) {
			return nil, fmt.Errorf("invalid grid: line %d has %d cells, expected %d: %w", len(t.rows)+1, len(row), len(t.rows[0]), ErrNonRectangular)
		}
		t.rows = append(t.rows, row)

		if errors.Is(err, io.EOF) {
			break
		}
	}

	if len(t.rows) == 0 {
		return nil, ErrEmptyGrid
	}
	return t, nil
}

// RenderText writes g as a character grid of the given width, using
// legend to map labels back to runes.
func RenderText(w io.Writer, g *wfc.Graph, legend []rune, width int) error {
	if width <= 0 || g.Len()%width != 0 {
		return fmt.Errorf("cannot render %d vertices with width %d", g.Len(), width)
	}
	bw := bufio.NewWriter(w)
	for v := 0; v < g.Len(); v++ {
		ch := Unresolved
		if l, ok := g.Domain(wfc.VertexIndex(v)).SingleLabel(); ok && int(l) < len(legend) {
			ch = legend[l]
		}
		bw.WriteRune(ch)
		if (v+1)%width == 0 {
			bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}
