package scene

import (
	"fmt"
	"math"

	"manodiag/diagram"
	"manodiag/geometry"
	"manodiag/store"
)

// NodeIndex resolves node IDs to their visuals. Edges hold IDs rather
// than node pointers and look endpoints up on every recompute, so a node
// replaced during reconciliation is picked up automatically.
type NodeIndex interface {
	NodeByID(id string) (*NodeVisual, bool)
}

// EdgeVisual is a flowchart edge. Its endpoints derive from the current
// endpoint node rectangles; start/end offsets and Bézier controls are
// optional manual overrides persisted through the store.
type EdgeVisual struct {
	Source string
	Target string
	Label  string
	Type   diagram.EdgeType
	Style  string

	UseBezier bool

	// Manual overrides, relative to the endpoint node centers. Nil means
	// derive from geometry.
	StartOffset *geometry.Point
	EndOffset   *geometry.Point
	Control1    *geometry.Point
	Control2    *geometry.Point

	// Derived on Recompute.
	Start geometry.Point
	End   geometry.Point

	index NodeIndex
	store *store.Store
}

// NewEdgeVisual creates an edge between two node IDs. Saved routing
// overrides for the edge key are applied immediately; geometry is derived
// on the first Recompute.
func NewEdgeVisual(e diagram.Edge, index NodeIndex, st *store.Store) *EdgeVisual {
	v := &EdgeVisual{
		Source: e.Source,
		Target: e.Target,
		Label:  e.Label,
		Type:   e.Type,
		Style:  e.Style,
		index:  index,
		store:  st,
	}
	v.applySaved()
	return v
}

// StoreKey returns the persistence key for this edge.
func (v *EdgeVisual) StoreKey() string {
	return store.EdgeKey(v.Source, v.Target, v.Label, v.Type)
}

// Key implements Element.
func (v *EdgeVisual) Key() string { return "edge:" + v.StoreKey() }

// Bounds implements Element; for Bézier edges it covers the control
// points too, since the curve stays inside their convex hull.
func (v *EdgeVisual) Bounds() geometry.Rect {
	minX, maxX := math.Min(v.Start.X, v.End.X), math.Max(v.Start.X, v.End.X)
	minY, maxY := math.Min(v.Start.Y, v.End.Y), math.Max(v.Start.Y, v.End.Y)
	if v.UseBezier {
		c1, c2 := v.ControlPoints()
		minX = math.Min(minX, math.Min(c1.X, c2.X))
		maxX = math.Max(maxX, math.Max(c1.X, c2.X))
		minY = math.Min(minY, math.Min(c1.Y, c2.Y))
		maxY = math.Max(maxY, math.Max(c1.Y, c2.Y))
	}
	return geometry.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func (v *EdgeVisual) applySaved() {
	if v.store == nil {
		return
	}
	saved, ok := v.store.EdgeGeometry(v.StoreKey())
	if !ok {
		return
	}
	v.UseBezier = saved.UseBezier
	if saved.StartOffset != nil {
		v.StartOffset = &geometry.Point{X: saved.StartOffset[0], Y: saved.StartOffset[1]}
	}
	if saved.EndOffset != nil {
		v.EndOffset = &geometry.Point{X: saved.EndOffset[0], Y: saved.EndOffset[1]}
	}
	if saved.Control1 != nil {
		v.Control1 = &geometry.Point{X: saved.Control1[0], Y: saved.Control1[1]}
	}
	if saved.Control2 != nil {
		v.Control2 = &geometry.Point{X: saved.Control2[0], Y: saved.Control2[1]}
	}
}

// Recompute implements GeometryOwner: re-derive Start and End from the
// current endpoint rectangles. A missing endpoint is an error; the edge
// keeps its previous geometry.
func (v *EdgeVisual) Recompute() error {
	src, ok := v.index.NodeByID(v.Source)
	if !ok {
		return fmt.Errorf("edge %s: source node %q not on surface", v.StoreKey(), v.Source)
	}
	tgt, ok := v.index.NodeByID(v.Target)
	if !ok {
		return fmt.Errorf("edge %s: target node %q not on surface", v.StoreKey(), v.Target)
	}

	if v.StartOffset != nil {
		v.Start = src.Center().Add(*v.StartOffset)
	} else {
		v.Start = src.ConnectionPoint(tgt.Center())
	}
	if v.EndOffset != nil {
		v.End = tgt.Center().Add(*v.EndOffset)
	} else {
		v.End = tgt.ConnectionPoint(src.Center())
	}
	return nil
}

// ControlPoints returns the effective Bézier control points: the manual
// overrides when set, otherwise the default S-curve controls.
func (v *EdgeVisual) ControlPoints() (c1, c2 geometry.Point) {
	dc1, dc2 := geometry.BezierControls(v.Start, v.End)
	if v.Control1 != nil {
		dc1 = *v.Control1
	}
	if v.Control2 != nil {
		dc2 = *v.Control2
	}
	return dc1, dc2
}

// LabelAt returns where the edge label is drawn: the curve midpoint for
// Bézier edges, the segment midpoint otherwise.
func (v *EdgeVisual) LabelAt() geometry.Point {
	if v.UseBezier {
		c1, c2 := v.ControlPoints()
		return geometry.CubicPoint(v.Start, c1, c2, v.End, 0.5)
	}
	return geometry.Midpoint(v.Start, v.End)
}

// EndAngle returns the arrowhead direction at the target, in radians.
// For curves it follows the incoming tangent.
func (v *EdgeVisual) EndAngle() float64 {
	if v.UseBezier {
		_, c2 := v.ControlPoints()
		return geometry.Angle(c2, v.End)
	}
	return geometry.Angle(v.Start, v.End)
}

// StartAngle returns the arrowhead direction at the source for
// bidirectional edges: the outgoing tangent rotated a half turn.
func (v *EdgeVisual) StartAngle() float64 {
	if v.UseBezier {
		c1, _ := v.ControlPoints()
		return geometry.Angle(c1, v.Start) // c1→start already points outward
	}
	return geometry.Angle(v.End, v.Start)
}

// HitTest implements Selectable with a distance test against the drawn
// path.
func (v *EdgeVisual) HitTest(p geometry.Point) bool {
	const slack = 8.0
	path := v.FlattenedPath(16)
	for i := 0; i+1 < len(path); i++ {
		if distanceToSegment(p, path[i], path[i+1]) <= slack {
			return true
		}
	}
	return false
}

// FlattenedPath returns the edge as a polyline: two points for a straight
// edge, n+1 samples for a curve.
func (v *EdgeVisual) FlattenedPath(n int) []geometry.Point {
	if !v.UseBezier {
		return []geometry.Point{v.Start, v.End}
	}
	c1, c2 := v.ControlPoints()
	return geometry.FlattenCubic(v.Start, c1, c2, v.End, n)
}

// ToggleBezier flips between straight and curved routing and persists the
// choice.
func (v *EdgeVisual) ToggleBezier() {
	v.UseBezier = !v.UseBezier
	v.persist()
}

// SetCustomStart pins the start point, stored relative to the source node
// center so the offset survives node drags.
func (v *EdgeVisual) SetCustomStart(p geometry.Point) error {
	src, ok := v.index.NodeByID(v.Source)
	if !ok {
		return fmt.Errorf("edge %s: source node %q not on surface", v.StoreKey(), v.Source)
	}
	off := p.Sub(src.Center())
	v.StartOffset = &off
	v.Start = p
	v.persist()
	return nil
}

// SetCustomEnd pins the end point relative to the target node center.
func (v *EdgeVisual) SetCustomEnd(p geometry.Point) error {
	tgt, ok := v.index.NodeByID(v.Target)
	if !ok {
		return fmt.Errorf("edge %s: target node %q not on surface", v.StoreKey(), v.Target)
	}
	off := p.Sub(tgt.Center())
	v.EndOffset = &off
	v.End = p
	v.persist()
	return nil
}

// SetControl1 pins the first Bézier control point and persists.
func (v *EdgeVisual) SetControl1(p geometry.Point) {
	v.Control1 = &p
	v.persist()
}

// SetControl2 pins the second Bézier control point and persists.
func (v *EdgeVisual) SetControl2(p geometry.Point) {
	v.Control2 = &p
	v.persist()
}

func (v *EdgeVisual) persist() {
	if v.store == nil {
		return
	}
	g := store.EdgeGeometry{UseBezier: v.UseBezier}
	if v.StartOffset != nil {
		g.StartOffset = &[2]float64{v.StartOffset.X, v.StartOffset.Y}
	}
	if v.EndOffset != nil {
		g.EndOffset = &[2]float64{v.EndOffset.X, v.EndOffset.Y}
	}
	if v.Control1 != nil {
		g.Control1 = &[2]float64{v.Control1.X, v.Control1.Y}
	}
	if v.Control2 != nil {
		g.Control2 = &[2]float64{v.Control2.X, v.Control2.Y}
	}
	v.store.MergeEdgeGeometry(v.StoreKey(), g)
}

// SetLabel updates the label in place. The persistence key includes the
// label, so callers renaming an edge re-key it via the renderer instead.
func (v *EdgeVisual) SetLabel(label string) { v.Label = label }

// SetStyle updates the line style in place.
func (v *EdgeVisual) SetStyle(style string) { v.Style = style }

func distanceToSegment(p, a, b geometry.Point) float64 {
	abx, aby := b.X-a.X, b.Y-a.Y
	apx, apy := p.X-a.X, p.Y-a.Y
	lenSq := abx*abx + aby*aby
	t := 0.0
	if lenSq > 0 {
		t = (apx*abx + apy*aby) / lenSq
		t = math.Max(0, math.Min(1, t))
	}
	cx, cy := a.X+t*abx, a.Y+t*aby
	return math.Hypot(p.X-cx, p.Y-cy)
}
