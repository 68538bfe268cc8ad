// Package terminal draws a rendered scene as text: a rune-grid canvas for
// plain output and a tcell screen for an interactive preview. Scene units
// are scaled down to character cells, so the result is a sketch of the
// layout, not a pixel rendering.
package terminal

import "strings"

// Cell scaling from scene units to character cells. A node 160 wide and
// 60 tall becomes roughly 16x3 characters.
const (
	CellWidth  = 10.0
	CellHeight = 20.0
)

// Canvas is a grid of runes. Out-of-range writes are dropped, so drawing
// code never bounds-checks.
type Canvas struct {
	width  int
	height int
	cells  []rune
}

// NewCanvas creates a width x height canvas filled with spaces.
func NewCanvas(width, height int) *Canvas {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	c := &Canvas{width: width, height: height, cells: make([]rune, width*height)}
	c.Fill(' ')
	return c
}

// Width returns the canvas width in cells.
func (c *Canvas) Width() int { return c.width }

// Height returns the canvas height in cells.
func (c *Canvas) Height() int { return c.height }

// Fill sets every cell to r.
func (c *Canvas) Fill(r rune) {
	for i := range c.cells {
		c.cells[i] = r
	}
}

// Set writes r at (x, y) if in range.
func (c *Canvas) Set(x, y int, r rune) {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return
	}
	c.cells[y*c.width+x] = r
}

// Get returns the rune at (x, y), or a space when out of range.
func (c *Canvas) Get(x, y int) rune {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return ' '
	}
	return c.cells[y*c.width+x]
}

// Text writes s starting at (x, y), clipped at the right edge.
func (c *Canvas) Text(x, y int, s string) {
	for i, r := range []rune(s) {
		c.Set(x+i, y, r)
	}
}

// Box draws a box with unicode borders from (x, y), w x h cells. Corners
// merge naively; overlapping boxes simply overwrite.
func (c *Canvas) Box(x, y, w, h int) {
	if w < 2 || h < 2 {
		return
	}
	for i := 1; i < w-1; i++ {
		c.Set(x+i, y, '─')
		c.Set(x+i, y+h-1, '─')
	}
	for j := 1; j < h-1; j++ {
		c.Set(x, y+j, '│')
		c.Set(x+w-1, y+j, '│')
	}
	c.Set(x, y, '┌')
	c.Set(x+w-1, y, '┐')
	c.Set(x, y+h-1, '└')
	c.Set(x+w-1, y+h-1, '┘')
}

// Line draws a straight run of cells from (x0, y0) to (x1, y1) with a
// simple integer line walk, choosing the rune per step direction.
func (c *Canvas) Line(x0, y0, x1, y1 int) {
	dx, dy := x1-x0, y1-y0
	steps := max(abs(dx), abs(dy))
	if steps == 0 {
		c.Set(x0, y0, '·')
		return
	}
	for i := 0; i <= steps; i++ {
		x := x0 + dx*i/steps
		y := y0 + dy*i/steps
		r := '·'
		switch {
		case dy == 0:
			r = '─'
		case dx == 0:
			r = '│'
		case (dx > 0) == (dy > 0):
			r = '╲'
		default:
			r = '╱'
		}
		c.Set(x, y, r)
	}
}

// String renders the canvas as newline-joined rows with trailing spaces
// trimmed.
func (c *Canvas) String() string {
	var b strings.Builder
	for y := 0; y < c.height; y++ {
		row := strings.TrimRight(string(c.cells[y*c.width:(y+1)*c.width]), " ")
		b.WriteString(row)
		b.WriteByte('\n')
	}
	return b.String()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
