package scene

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manodiag/diagram"
	"manodiag/geometry"
	"manodiag/store"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	return store.Open(filepath.Join(t.TempDir(), "positions.json"), diagram.NopLogger())
}

// mapIndex is a trivial NodeIndex/ParticipantIndex for tests.
type mapIndex struct {
	nodes        map[string]*NodeVisual
	participants map[string]*ParticipantVisual
}

func (m *mapIndex) NodeByID(id string) (*NodeVisual, bool) {
	n, ok := m.nodes[id]
	return n, ok
}

func (m *mapIndex) ParticipantByID(id string) (*ParticipantVisual, bool) {
	p, ok := m.participants[id]
	return p, ok
}

func TestNodeMoveToDoesNotPersist(t *testing.T) {
	st := testStore(t)
	n := NewNodeVisual("A", "A", geometry.Rect{X: 0, Y: 0, Width: 160, Height: 60}, st)

	n.MoveTo(geometry.Point{X: 300, Y: 200})
	_, ok := st.NodeGeometry("A")
	assert.False(t, ok, "MoveTo must not write the store")

	n.CommitGeometry()
	g, ok := st.NodeGeometry("A")
	require.True(t, ok)
	assert.Equal(t, 300.0, g.X)
	assert.Equal(t, 200.0, g.Y)
}

func TestNodeResizeMinimumAndOriginShift(t *testing.T) {
	st := testStore(t)
	n := NewNodeVisual("A", "A", geometry.Rect{X: 100, Y: 100, Width: 160, Height: 60}, st)

	// Dragging the south-east handle outward grows the node in place.
	n.Resize(HandleSE, 40, 30)
	b := n.Bounds()
	assert.Equal(t, geometry.Rect{X: 100, Y: 100, Width: 200, Height: 90}, b)

	// Dragging the north-west handle inward past the minimum clamps the
	// size and keeps the south-east corner fixed.
	n.Resize(HandleNW, 500, 500)
	b = n.Bounds()
	assert.Equal(t, MinNodeSize, b.Width)
	assert.Equal(t, MinNodeSize, b.Height)
	assert.InDelta(t, 300-MinNodeSize, b.X, 1e-9, "right border stays put")
	assert.InDelta(t, 190-MinNodeSize, b.Y, 1e-9, "bottom border stays put")

	// Each resize step persisted.
	g, ok := st.NodeGeometry("A")
	require.True(t, ok)
	assert.Equal(t, MinNodeSize, g.Width)
}

func TestNodeSizeToFit(t *testing.T) {
	n := NewNodeVisual("A", "Hello\nWide middle line\nBye", geometry.Rect{Width: 160, Height: 60}, nil)
	w, h := n.SizeToFit()
	assert.Equal(t, float64(len("Wide middle line"))*7+32, w)
	assert.Equal(t, 3*18.0+32, h)

	short := NewNodeVisual("B", "x", geometry.Rect{}, nil)
	w, h = short.SizeToFit()
	assert.Equal(t, AutoSizeMinW, w, "one-character label hits the width floor")
	assert.Equal(t, 18.0+32, h, "a single line plus padding already clears the height floor")
}

func TestResizeHandlesPositions(t *testing.T) {
	r := geometry.Rect{X: 0, Y: 0, Width: 100, Height: 50}
	handles := ResizeHandles(r)
	require.Len(t, handles, 8)
	assert.Equal(t, geometry.Point{X: 100, Y: 25}, handles[HandleE])
	assert.Equal(t, geometry.Point{X: 50, Y: 50}, handles[HandleS])
	assert.Equal(t, geometry.Point{X: 0, Y: 0}, handles[HandleNW])
}

func TestEdgeRecomputeDerivesBorderPoints(t *testing.T) {
	st := testStore(t)
	idx := &mapIndex{nodes: map[string]*NodeVisual{
		"A": NewNodeVisual("A", "A", geometry.Rect{X: 0, Y: 0, Width: 100, Height: 100}, st),
		"B": NewNodeVisual("B", "B", geometry.Rect{X: 400, Y: 0, Width: 100, Height: 100}, st),
	}}
	e := NewEdgeVisual(diagram.Edge{Source: "A", Target: "B", Type: diagram.EdgeArrow}, idx, st)

	require.NoError(t, e.Recompute())
	assert.Equal(t, geometry.Point{X: 100, Y: 50}, e.Start, "exits A's right edge")
	assert.Equal(t, geometry.Point{X: 400, Y: 50}, e.End, "enters B's left edge")
	assert.Equal(t, geometry.Point{X: 250, Y: 50}, e.LabelAt())
	assert.InDelta(t, 0, e.EndAngle(), 1e-9)
}

func TestEdgeRecomputeMissingEndpoint(t *testing.T) {
	idx := &mapIndex{nodes: map[string]*NodeVisual{}}
	e := NewEdgeVisual(diagram.Edge{Source: "A", Target: "B"}, idx, nil)
	assert.Error(t, e.Recompute())
}

func TestEdgeCustomEndpointsFollowNodeDrags(t *testing.T) {
	st := testStore(t)
	a := NewNodeVisual("A", "A", geometry.Rect{X: 0, Y: 0, Width: 100, Height: 100}, st)
	b := NewNodeVisual("B", "B", geometry.Rect{X: 400, Y: 0, Width: 100, Height: 100}, st)
	idx := &mapIndex{nodes: map[string]*NodeVisual{"A": a, "B": b}}

	e := NewEdgeVisual(diagram.Edge{Source: "A", Target: "B", Type: diagram.EdgeArrow}, idx, st)
	a.AttachDependent(e)
	require.NoError(t, e.Recompute())

	// Pin the start to A's top-right corner.
	require.NoError(t, e.SetCustomStart(geometry.Point{X: 100, Y: 0}))

	// Dragging A moves the pinned point rigidly with it.
	a.MoveBy(50, 50)
	assert.Equal(t, geometry.Point{X: 150, Y: 50}, e.Start)

	// The offset survives a reload through the store.
	e2 := NewEdgeVisual(diagram.Edge{Source: "A", Target: "B", Type: diagram.EdgeArrow}, idx, st)
	require.NoError(t, e2.Recompute())
	assert.Equal(t, e.Start, e2.Start)
}

func TestEdgeBezierToggleAndControls(t *testing.T) {
	st := testStore(t)
	idx := &mapIndex{nodes: map[string]*NodeVisual{
		"A": NewNodeVisual("A", "A", geometry.Rect{X: 0, Y: 0, Width: 100, Height: 100}, st),
		"B": NewNodeVisual("B", "B", geometry.Rect{X: 400, Y: 0, Width: 100, Height: 100}, st),
	}}
	e := NewEdgeVisual(diagram.Edge{Source: "A", Target: "B", Type: diagram.EdgeArrow}, idx, st)
	require.NoError(t, e.Recompute())

	e.ToggleBezier()
	require.True(t, e.UseBezier)

	e.SetControl1(geometry.Point{X: 200, Y: -100})
	c1, c2 := e.ControlPoints()
	assert.Equal(t, geometry.Point{X: 200, Y: -100}, c1)
	// The second control still defaults.
	_, def2 := geometry.BezierControls(e.Start, e.End)
	assert.Equal(t, def2, c2)

	// Curved path has the sample count, straight path is two points.
	assert.Len(t, e.FlattenedPath(16), 17)
	e.ToggleBezier()
	assert.Len(t, e.FlattenedPath(16), 2)

	// The saved geometry kept the control through the toggles.
	g, ok := st.EdgeGeometry(e.StoreKey())
	require.True(t, ok)
	require.NotNil(t, g.Control1)
	assert.Equal(t, [2]float64{200, -100}, *g.Control1)
	assert.False(t, g.UseBezier)
}

func TestDragSessionCommitsOnceOnRelease(t *testing.T) {
	st := testStore(t)
	a := NewNodeVisual("A", "A", geometry.Rect{X: 0, Y: 0, Width: 160, Height: 60}, st)
	b := NewNodeVisual("B", "B", geometry.Rect{X: 220, Y: 0, Width: 160, Height: 60}, st)

	s := BeginDrag(geometry.Point{X: 10, Y: 10}, a, b)
	s.MoveTo(geometry.Point{X: 110, Y: 60})
	s.MoveTo(geometry.Point{X: 210, Y: 110})

	// Mid-drag nothing is persisted.
	_, ok := st.NodeGeometry("A")
	assert.False(t, ok)

	s.Release()

	ga, ok := st.NodeGeometry("A")
	require.True(t, ok)
	assert.Equal(t, 200.0, ga.X)
	assert.Equal(t, 100.0, ga.Y)
	gb, ok := st.NodeGeometry("B")
	require.True(t, ok)
	assert.Equal(t, 420.0, gb.X, "relative offsets preserved")
}

func TestDragSessionCancel(t *testing.T) {
	st := testStore(t)
	a := NewNodeVisual("A", "A", geometry.Rect{X: 5, Y: 6, Width: 160, Height: 60}, st)

	s := BeginDrag(geometry.Point{}, a)
	s.MoveTo(geometry.Point{X: 500, Y: 500})
	s.Cancel()

	assert.Equal(t, geometry.Point{X: 5, Y: 6}, a.Position())
	_, ok := st.NodeGeometry("A")
	assert.False(t, ok)
}

func TestParticipantMoveIsHorizontalOnly(t *testing.T) {
	st := testStore(t)
	p := NewParticipantVisual("A", "Client", 0, st)

	p.MoveTo(geometry.Point{X: 300, Y: 999})
	assert.Equal(t, 300.0, p.Position().X)
	assert.Equal(t, 0.0, p.Position().Y, "participants stay on the header row")
	assert.Equal(t, 300+ParticipantWidth/2, p.CenterX())

	p.CommitGeometry()
	g, ok := st.NodeGeometry("A")
	require.True(t, ok)
	assert.Equal(t, 300.0, g.X)
}

func TestMessageRecompute(t *testing.T) {
	idx := &mapIndex{participants: map[string]*ParticipantVisual{
		"A": NewParticipantVisual("A", "A", 0, nil),
		"B": NewParticipantVisual("B", "B", 220, nil),
	}}
	m := NewMessageVisual(0, diagram.Message{Source: "A", Target: "B", Text: "hi", Style: diagram.MessageSolid}, 120, idx)

	require.NoError(t, m.Recompute())
	assert.Equal(t, 70.0, m.FromX())
	assert.Equal(t, 290.0, m.ToX())
	assert.False(t, m.SelfCall())
}

func TestNoteSpanWidth(t *testing.T) {
	idx := &mapIndex{participants: map[string]*ParticipantVisual{
		"A": NewParticipantVisual("A", "A", 0, nil),
		"B": NewParticipantVisual("B", "B", 440, nil),
	}}

	wide := NewNoteVisual(0, diagram.Note{Participants: []string{"A", "B"}, Text: "t"}, 400, idx)
	require.NoError(t, wide.Recompute())
	b := wide.Bounds()
	assert.Equal(t, 440+140.0, b.Width, "span plus margins")
	assert.InDelta(t, (70.0+510.0)/2, b.Center().X, 1e-9)

	narrow := NewNoteVisual(1, diagram.Note{Participants: []string{"A"}, Text: "t"}, 480, idx)
	require.NoError(t, narrow.Recompute())
	assert.Equal(t, 140.0, narrow.Bounds().Width, "zero span still gets the side margins")
	assert.InDelta(t, 70.0, narrow.Bounds().Center().X, 1e-9, "centered on the lone lifeline")
}

func TestNoteKeyOrderInsensitive(t *testing.T) {
	n1 := NewNoteVisual(0, diagram.Note{Participants: []string{"B", "A"}, Text: "t"}, 0, nil)
	n2 := NewNoteVisual(0, diagram.Note{Participants: []string{"A", "B"}, Text: "t"}, 0, nil)
	assert.Equal(t, n1.Key(), n2.Key())
}

func TestSurfaceOrderAndBounds(t *testing.T) {
	s := NewSurface()
	a := NewNodeVisual("A", "A", geometry.Rect{X: 0, Y: 0, Width: 100, Height: 50}, nil)
	b := NewNodeVisual("B", "B", geometry.Rect{X: 200, Y: 100, Width: 100, Height: 50}, nil)
	s.Add(a)
	s.Add(b)

	els := s.Elements()
	require.Len(t, els, 2)
	assert.Equal(t, "node:A", els[0].Key())

	assert.Equal(t, geometry.Rect{X: 0, Y: 0, Width: 300, Height: 150}, s.Bounds())

	// Replacing by key keeps position in the order.
	s.Add(NewNodeVisual("A", "A2", geometry.Rect{Width: 10, Height: 10}, nil))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, "node:A", s.Elements()[0].Key())

	s.Remove("node:A")
	assert.Equal(t, 1, s.Len())
	_, ok := s.Get("node:A")
	assert.False(t, ok)
}

func TestSurfaceElementAtPicksTopmost(t *testing.T) {
	s := NewSurface()
	bottom := NewNodeVisual("bottom", "b", geometry.Rect{X: 0, Y: 0, Width: 100, Height: 100}, nil)
	top := NewNodeVisual("top", "t", geometry.Rect{X: 50, Y: 50, Width: 100, Height: 100}, nil)
	s.Add(bottom)
	s.Add(top)

	hit, ok := s.ElementAt(geometry.Point{X: 75, Y: 75})
	require.True(t, ok)
	assert.Equal(t, "node:top", hit.Key())

	hit, ok = s.ElementAt(geometry.Point{X: 10, Y: 10})
	require.True(t, ok)
	assert.Equal(t, "node:bottom", hit.Key())

	_, ok = s.ElementAt(geometry.Point{X: 500, Y: 500})
	assert.False(t, ok)
}
