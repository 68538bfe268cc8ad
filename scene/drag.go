package scene

import "manodiag/geometry"

// DragSession tracks an in-progress drag of one or more elements. Visual
// positions update live on every MoveTo; geometry is persisted exactly
// once, on Release, so a long drag does not hammer the store.
type DragSession struct {
	start   geometry.Point
	items   []Draggable
	origins []geometry.Point
}

// BeginDrag starts a session at the grab point. All items move rigidly
// with the pointer, preserving their relative offsets.
func BeginDrag(at geometry.Point, items ...Draggable) *DragSession {
	s := &DragSession{start: at, items: items}
	for _, item := range items {
		s.origins = append(s.origins, item.Position())
	}
	return s
}

// MoveTo moves every item by the pointer delta from the grab point.
func (s *DragSession) MoveTo(p geometry.Point) {
	delta := p.Sub(s.start)
	for i, item := range s.items {
		item.MoveTo(s.origins[i].Add(delta))
	}
}

// Release ends the session, committing each item's geometry once.
func (s *DragSession) Release() {
	for _, item := range s.items {
		item.CommitGeometry()
	}
	s.items = nil
}

// Cancel ends the session, snapping every item back to where it started
// without persisting anything.
func (s *DragSession) Cancel() {
	for i, item := range s.items {
		item.MoveTo(s.origins[i])
	}
	s.items = nil
}
