package scene

import (
	"strings"

	"manodiag/geometry"
	"manodiag/store"
)

// Size limits for interactive resizing and auto-sizing.
const (
	MinNodeSize     = 50.0
	AutoSizeMinW    = 80.0
	AutoSizeMinH    = 48.0
	autoSizeCharW   = 7.0
	autoSizeLineH   = 18.0
	autoSizePadding = 16.0
)

// ResizeHandle names one of the eight resize grips on a node border.
type ResizeHandle string

const (
	HandleN  ResizeHandle = "n"
	HandleS  ResizeHandle = "s"
	HandleE  ResizeHandle = "e"
	HandleW  ResizeHandle = "w"
	HandleNE ResizeHandle = "ne"
	HandleNW ResizeHandle = "nw"
	HandleSE ResizeHandle = "se"
	HandleSW ResizeHandle = "sw"
)

// ResizeHandles returns the grip positions for a node rectangle, keyed by
// handle name.
func ResizeHandles(r geometry.Rect) map[ResizeHandle]geometry.Point {
	return map[ResizeHandle]geometry.Point{
		HandleNW: {X: r.X, Y: r.Y},
		HandleN:  {X: r.X + r.Width/2, Y: r.Y},
		HandleNE: {X: r.X + r.Width, Y: r.Y},
		HandleE:  {X: r.X + r.Width, Y: r.Y + r.Height/2},
		HandleSE: {X: r.X + r.Width, Y: r.Y + r.Height},
		HandleS:  {X: r.X + r.Width/2, Y: r.Y + r.Height},
		HandleSW: {X: r.X, Y: r.Y + r.Height},
		HandleW:  {X: r.X, Y: r.Y + r.Height/2},
	}
}

// NodeVisual is a positioned flowchart node. Edges attach as dependents
// and are recomputed whenever the node moves or resizes.
type NodeVisual struct {
	ID    string
	Label string
	Class string

	FillColor   string
	BorderColor string

	rect       geometry.Rect
	store      *store.Store
	dependents []GeometryOwner
}

// NewNodeVisual creates a node at the given rectangle. The store may be
// nil for throwaway scenes; geometry then simply isn't persisted.
func NewNodeVisual(id, label string, rect geometry.Rect, st *store.Store) *NodeVisual {
	return &NodeVisual{ID: id, Label: label, rect: rect, store: st}
}

// Key implements Element.
func (n *NodeVisual) Key() string { return "node:" + n.ID }

// Bounds implements Element.
func (n *NodeVisual) Bounds() geometry.Rect { return n.rect }

// HitTest implements Selectable.
func (n *NodeVisual) HitTest(p geometry.Point) bool { return n.rect.Contains(p) }

// Position implements Draggable; it returns the top-left corner.
func (n *NodeVisual) Position() geometry.Point { return geometry.Point{X: n.rect.X, Y: n.rect.Y} }

// Center returns the node center, the anchor for edge attachment.
func (n *NodeVisual) Center() geometry.Point { return n.rect.Center() }

// ConnectionPoint returns the border point facing target.
func (n *NodeVisual) ConnectionPoint(target geometry.Point) geometry.Point {
	return n.rect.ConnectionPoint(target)
}

// AttachDependent registers an element whose geometry follows this node.
func (n *NodeVisual) AttachDependent(d GeometryOwner) {
	for _, existing := range n.dependents {
		if existing == d {
			return
		}
	}
	n.dependents = append(n.dependents, d)
}

// DetachDependent removes a previously attached dependent.
func (n *NodeVisual) DetachDependent(d GeometryOwner) {
	for i, existing := range n.dependents {
		if existing == d {
			n.dependents = append(n.dependents[:i], n.dependents[i+1:]...)
			return
		}
	}
}

// DependentCount returns the number of attached dependents.
func (n *NodeVisual) DependentCount() int { return len(n.dependents) }

// NotifyDependents recomputes every attached dependent. Recompute errors
// are swallowed here; dependents log their own failures during renders.
func (n *NodeVisual) NotifyDependents() {
	for _, d := range n.dependents {
		_ = d.Recompute()
	}
}

// MoveTo implements Draggable: reposition without persisting.
func (n *NodeVisual) MoveTo(p geometry.Point) {
	n.rect.X, n.rect.Y = p.X, p.Y
	n.NotifyDependents()
}

// MoveBy translates the node without persisting.
func (n *NodeVisual) MoveBy(dx, dy float64) {
	n.MoveTo(geometry.Point{X: n.rect.X + dx, Y: n.rect.Y + dy})
}

// SetPosition repositions the node and persists immediately.
func (n *NodeVisual) SetPosition(p geometry.Point) {
	n.MoveTo(p)
	n.CommitGeometry()
}

// CommitGeometry implements Draggable: write the current rectangle
// through to the store.
func (n *NodeVisual) CommitGeometry() {
	if n.store == nil {
		return
	}
	n.store.SetNodeGeometry(n.ID, store.NodeGeometry{
		X: n.rect.X, Y: n.rect.Y, Width: n.rect.Width, Height: n.rect.Height,
	})
}

// SetSize sets the node dimensions, clamped to the minimum, persists and
// updates dependents.
func (n *NodeVisual) SetSize(w, h float64) {
	if w < MinNodeSize {
		w = MinNodeSize
	}
	if h < MinNodeSize {
		h = MinNodeSize
	}
	n.rect.Width, n.rect.Height = w, h
	n.NotifyDependents()
	n.CommitGeometry()
}

// Resize applies an interactive drag of one resize handle by (dx, dy).
// West and north handles shift the origin so the opposite border stays
// put; dimensions never shrink below MinNodeSize. Each step persists, so
// an interrupted resize still leaves a consistent stored rectangle.
func (n *NodeVisual) Resize(handle ResizeHandle, dx, dy float64) {
	r := n.rect

	if strings.Contains(string(handle), "e") {
		r.Width += dx
	}
	if strings.Contains(string(handle), "w") {
		r.Width -= dx
		r.X += dx
	}
	if strings.Contains(string(handle), "s") {
		r.Height += dy
	}
	if strings.Contains(string(handle), "n") {
		r.Height -= dy
		r.Y += dy
	}

	if r.Width < MinNodeSize {
		if strings.Contains(string(handle), "w") {
			r.X -= MinNodeSize - r.Width
		}
		r.Width = MinNodeSize
	}
	if r.Height < MinNodeSize {
		if strings.Contains(string(handle), "n") {
			r.Y -= MinNodeSize - r.Height
		}
		r.Height = MinNodeSize
	}

	n.rect = r
	n.NotifyDependents()
	n.CommitGeometry()
}

// SizeToFit computes the natural size for the label: widest line times an
// average character width plus padding, one line height per line, with
// floor dimensions. The position is untouched.
func (n *NodeVisual) SizeToFit() (w, h float64) {
	lines := strings.Split(n.Label, "\n")
	longest := 0
	for _, line := range lines {
		if len(line) > longest {
			longest = len(line)
		}
	}
	w = float64(longest)*autoSizeCharW + 2*autoSizePadding
	h = float64(len(lines))*autoSizeLineH + 2*autoSizePadding
	if w < AutoSizeMinW {
		w = AutoSizeMinW
	}
	if h < AutoSizeMinH {
		h = AutoSizeMinH
	}
	return w, h
}

// SetLabel updates the display label in place.
func (n *NodeVisual) SetLabel(label string) { n.Label = label }

// SetClass updates the style class in place.
func (n *NodeVisual) SetClass(class string) { n.Class = class }

// SetColors updates the fill and border colors in place.
func (n *NodeVisual) SetColors(fill, border string) {
	n.FillColor, n.BorderColor = fill, border
}
