package geometry

import "math"

// CubicPoint evaluates the cubic Bézier defined by p0, c1, c2, p3 at
// parameter t in [0, 1].
func CubicPoint(p0, c1, c2, p3 Point, t float64) Point {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	c := 3 * u * t * t
	d := t * t * t
	return Point{
		X: a*p0.X + b*c1.X + c*c2.X + d*p3.X,
		Y: a*p0.Y + b*c1.Y + c*c2.Y + d*p3.Y,
	}
}

// BezierControls synthesizes default control points for an edge between
// start and end: each control point is offset max(40, 0.25·length) along
// the unit tangent and 40 along the perpendicular normal from its endpoint,
// producing a symmetric S-curve.
func BezierControls(start, end Point) (c1, c2 Point) {
	vx := end.X - start.X
	vy := end.Y - start.Y
	length := math.Hypot(vx, vy)
	if length == 0 {
		length = 1
	}
	ux, uy := vx/length, vy/length
	nx, ny := -uy, ux

	along := math.Max(40, length*0.25)
	const normal = 40.0

	c1 = Point{start.X + ux*along + nx*normal, start.Y + uy*along + ny*normal}
	c2 = Point{end.X - ux*along + nx*normal, end.Y - uy*along + ny*normal}
	return c1, c2
}

// FlattenCubic samples the cubic Bézier into n+1 points, including both
// endpoints. Used by display surfaces that draw curves as polylines.
func FlattenCubic(p0, c1, c2, p3 Point, n int) []Point {
	if n < 1 {
		n = 1
	}
	points := make([]Point, 0, n+1)
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		points = append(points, CubicPoint(p0, c1, c2, p3, t))
	}
	return points
}
