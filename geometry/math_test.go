package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionPointLiesOnBoundary(t *testing.T) {
	r := Rect{X: 100, Y: 100, Width: 160, Height: 60}

	// Targets all around the rectangle, including diagonals and targets
	// inside it.
	targets := []Point{
		{500, 130}, {-200, 130}, {180, 500}, {180, -200},
		{400, 400}, {-100, -100}, {400, -100}, {-100, 400},
		{180, 135}, {161, 101},
	}
	for _, target := range targets {
		p := r.ConnectionPoint(target)
		onVertical := math.Abs(p.X-r.X) < 1e-9 || math.Abs(p.X-(r.X+r.Width)) < 1e-9
		onHorizontal := math.Abs(p.Y-r.Y) < 1e-9 || math.Abs(p.Y-(r.Y+r.Height)) < 1e-9
		assert.True(t, onVertical || onHorizontal, "target %v gave %v off the boundary", target, p)
		assert.True(t, p.X >= r.X-1e-9 && p.X <= r.X+r.Width+1e-9, "target %v: x out of range", target)
		assert.True(t, p.Y >= r.Y-1e-9 && p.Y <= r.Y+r.Height+1e-9, "target %v: y out of range", target)
	}
}

func TestConnectionPointAxes(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 100, Height: 100}

	// Dominant horizontal deviation exits through a vertical edge.
	right := r.ConnectionPoint(Point{300, 50})
	assert.Equal(t, Point{100, 50}, right)

	left := r.ConnectionPoint(Point{-300, 50})
	assert.Equal(t, Point{0, 50}, left)

	down := r.ConnectionPoint(Point{50, 300})
	assert.Equal(t, Point{50, 100}, down)

	up := r.ConnectionPoint(Point{50, -300})
	assert.Equal(t, Point{50, 0}, up)
}

func TestConnectionPointDegenerateTarget(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 100, Height: 100}
	center := r.Center()
	got := r.ConnectionPoint(Point{center.X + 0.05, center.Y - 0.05})
	assert.Equal(t, center, got)
}

func TestSnapToGrid(t *testing.T) {
	assert.Equal(t, 40.0, SnapToGrid(47, 20))
	assert.Equal(t, 60.0, SnapToGrid(52, 20))
	assert.Equal(t, -20.0, SnapToGrid(-27, 20))
	assert.Equal(t, 13.0, SnapToGrid(13, 0))
}

func TestRectUnion(t *testing.T) {
	a := Rect{0, 0, 10, 10}
	b := Rect{20, -5, 10, 10}
	u := a.Union(b)
	assert.Equal(t, Rect{0, -5, 30, 15}, u)
}

func TestCubicPointEndpoints(t *testing.T) {
	p0, p3 := Point{0, 0}, Point{100, 50}
	c1, c2 := BezierControls(p0, p3)

	assert.Equal(t, p0, CubicPoint(p0, c1, c2, p3, 0))
	assert.Equal(t, p3, CubicPoint(p0, c1, c2, p3, 1))
}

func TestBezierControlsOffsets(t *testing.T) {
	start, end := Point{0, 0}, Point{200, 0}
	c1, c2 := BezierControls(start, end)

	// Along a horizontal edge the tangent offset is max(40, 0.25*200)=50
	// and the normal offset is 40 upward (normal of +x is -y... the
	// normal here is (0, 1) rotated, i.e. (0, +1) for unit (1, 0)).
	assert.InDelta(t, 50, c1.X, 1e-9)
	assert.InDelta(t, 40, math.Abs(c1.Y), 1e-9)
	assert.InDelta(t, 150, c2.X, 1e-9)
	assert.InDelta(t, c1.Y, c2.Y, 1e-9, "both controls sit on the same side")
}

func TestBezierControlsShortEdgeFloor(t *testing.T) {
	c1, _ := BezierControls(Point{0, 0}, Point{10, 0})
	// 0.25 * 10 = 2.5, floored to 40.
	assert.InDelta(t, 40, c1.X, 1e-9)
}

func TestFlattenCubic(t *testing.T) {
	p0, p3 := Point{0, 0}, Point{100, 0}
	c1, c2 := BezierControls(p0, p3)
	path := FlattenCubic(p0, c1, c2, p3, 8)

	require.Len(t, path, 9)
	assert.Equal(t, p0, path[0])
	assert.Equal(t, p3, path[8])
}

func TestAngle(t *testing.T) {
	assert.InDelta(t, 0, Angle(Point{0, 0}, Point{10, 0}), 1e-9)
	assert.InDelta(t, math.Pi/2, Angle(Point{0, 0}, Point{0, 10}), 1e-9)
	assert.InDelta(t, math.Pi, math.Abs(Angle(Point{0, 0}, Point{-10, 0})), 1e-9)
}
