// Package geometry provides the floating-point math used by the scene
// layer: rectangle border projection, cubic Bézier evaluation, arrowhead
// tangents and grid snapping.
package geometry

import "math"

// PointTolerance is the distance below which two coordinates are treated as
// equal, guarding the degenerate connection-point case.
const PointTolerance = 0.1

// Point is a 2D coordinate in scene units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Midpoint returns the arithmetic midpoint of a and b.
func Midpoint(a, b Point) Point {
	return Point{(a.X + b.X) / 2, (a.Y + b.Y) / 2}
}

// Angle returns the angle in radians of the vector from a to b.
func Angle(a, b Point) float64 {
	return math.Atan2(b.Y-a.Y, b.X-a.X)
}

// SnapToGrid rounds v to the nearest multiple of pitch.
func SnapToGrid(v, pitch float64) float64 {
	if pitch <= 0 {
		return v
	}
	return math.Round(v/pitch) * pitch
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the center point of the rectangle.
func (r Rect) Center() Point {
	return Point{r.X + r.Width/2, r.Y + r.Height/2}
}

// Contains reports whether p lies inside or on the rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width &&
		p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Union returns the smallest rectangle covering both r and q.
func (r Rect) Union(q Rect) Rect {
	minX := math.Min(r.X, q.X)
	minY := math.Min(r.Y, q.Y)
	maxX := math.Max(r.X+r.Width, q.X+q.Width)
	maxY := math.Max(r.Y+r.Height, q.Y+q.Height)
	return Rect{minX, minY, maxX - minX, maxY - minY}
}

// ConnectionPoint returns the point where a ray from the rectangle's center
// toward target crosses the rectangle boundary. The crossing edge is chosen
// by the dominant axis of the deviation (|dx| > |dy| picks the left/right
// edge) and the result is clamped to that edge's extent. A target within
// PointTolerance of the center returns the center itself.
func (r Rect) ConnectionPoint(target Point) Point {
	center := r.Center()
	dx := target.X - center.X
	dy := target.Y - center.Y

	if math.Abs(dx) < PointTolerance && math.Abs(dy) < PointTolerance {
		return center
	}

	halfW := r.Width / 2
	halfH := r.Height / 2

	// On each branch the divisor is the dominant component, so it is
	// never zero. The intersect is clamped to the edge extent, which
	// lands diagonal rays on the nearest corner.
	if math.Abs(dx) > math.Abs(dy) {
		if dx > 0 { // right edge
			y := center.Y + (halfW/dx)*dy
			return Point{r.X + r.Width, clamp(y, center.Y-halfH, center.Y+halfH)}
		}
		// left edge
		y := center.Y + (-halfW/dx)*dy
		return Point{r.X, clamp(y, center.Y-halfH, center.Y+halfH)}
	}

	if dy > 0 { // bottom edge
		x := center.X + (halfH/dy)*dx
		return Point{clamp(x, center.X-halfW, center.X+halfW), r.Y + r.Height}
	}
	// top edge
	x := center.X + (-halfH/dy)*dx
	return Point{clamp(x, center.X-halfW, center.X+halfW), r.Y}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
