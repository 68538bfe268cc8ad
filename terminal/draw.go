package terminal

import (
	"math"

	"manodiag/scene"
)

// DrawSurface paints every scene element onto the canvas, offset so the
// scene's top-left corner lands at the canvas origin.
func DrawSurface(c *Canvas, s *scene.MemorySurface) {
	bounds := s.Bounds()
	toCell := func(x, y float64) (int, int) {
		return int(math.Round((x - bounds.X) / CellWidth)),
			int(math.Round((y - bounds.Y) / CellHeight))
	}

	// Edges and messages first, so boxes and labels paint over them.
	// Arrowheads are deferred past the box pass; they often land exactly
	// on a node border.
	type head struct {
		x, y int
		r    rune
	}
	var heads []head

	for _, e := range s.Elements() {
		switch v := e.(type) {
		case *scene.EdgeVisual:
			path := v.FlattenedPath(12)
			for i := 0; i+1 < len(path); i++ {
				x0, y0 := toCell(path[i].X, path[i].Y)
				x1, y1 := toCell(path[i+1].X, path[i+1].Y)
				c.Line(x0, y0, x1, y1)
			}
			ex, ey := toCell(v.End.X, v.End.Y)
			heads = append(heads, head{ex, ey, arrowRune(v.EndAngle())})
			if v.Label != "" {
				lx, ly := toCell(v.LabelAt().X, v.LabelAt().Y)
				c.Text(lx-len(v.Label)/2, ly, v.Label)
			}
		case *scene.MessageVisual:
			x0, y := toCell(v.FromX(), v.Y)
			x1, _ := toCell(v.ToX(), v.Y)
			c.Line(x0, y, x1, y)
			r := '>'
			if x1 < x0 {
				r = '<'
			}
			heads = append(heads, head{x1, y, r})
			c.Text((x0+x1)/2-len(v.Text)/2, y-1, v.Text)
		}
	}

	for _, e := range s.Elements() {
		switch v := e.(type) {
		case *scene.NodeVisual:
			b := v.Bounds()
			x, y := toCell(b.X, b.Y)
			w := int(math.Round(b.Width / CellWidth))
			h := int(math.Round(b.Height / CellHeight))
			if w < 4 {
				w = 4
			}
			if h < 3 {
				h = 3
			}
			c.Box(x, y, w, h)
			c.Text(x+(w-len(v.Label))/2, y+h/2, clip(v.Label, w-2))
		case *scene.ParticipantVisual:
			b := v.HeaderBounds()
			x, y := toCell(b.X, b.Y)
			w := int(math.Round(b.Width / CellWidth))
			c.Box(x, y, w, 3)
			c.Text(x+(w-len(v.Label))/2, y+1, clip(v.Label, w-2))
			_, bottom := toCell(b.X, v.Bounds().Y+v.Bounds().Height)
			for j := y + 3; j <= bottom && j < c.Height(); j++ {
				c.Set(x+w/2, j, '│')
			}
		case *scene.NoteVisual:
			b := v.Bounds()
			x, y := toCell(b.X, b.Y)
			w := int(math.Round(b.Width / CellWidth))
			if w < 4 {
				w = 4
			}
			c.Box(x, y, w, 3)
			c.Text(x+1, y+1, clip(v.Text, w-2))
		case *scene.TitleVisual:
			x, y := toCell(v.At.X, v.At.Y)
			c.Text(x-len(v.Text)/2, y, v.Text)
		}
	}

	for _, h := range heads {
		c.Set(h.x, h.y, h.r)
	}
}

// arrowRune picks an arrowhead character for a tangent angle in radians.
func arrowRune(angle float64) rune {
	deg := angle * 180 / math.Pi
	switch {
	case deg >= -45 && deg < 45:
		return '>'
	case deg >= 45 && deg < 135:
		return 'v'
	case deg >= -135 && deg < -45:
		return '^'
	default:
		return '<'
	}
}

func clip(s string, w int) string {
	if w < 1 {
		return ""
	}
	r := []rune(s)
	if len(r) <= w {
		return s
	}
	return string(r[:w])
}
