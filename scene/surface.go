// Package scene holds the visual elements a diagram renders to: nodes,
// edges, sequence participants, messages and notes. Elements own their
// derived geometry and persist manual edits through the layout store; the
// surface is a keyed, ordered collection a display backend walks to draw.
package scene

import "manodiag/geometry"

// Element is anything that lives on a surface. Keys are unique per
// surface and stable across renders, which is what makes reconciliation
// possible.
type Element interface {
	Key() string
	Bounds() geometry.Rect
}

// Selectable is an element the user can pick with a pointer.
type Selectable interface {
	Element
	HitTest(p geometry.Point) bool
}

// Draggable is an element that can be moved interactively. MoveTo updates
// the visual position without persisting; CommitGeometry writes the final
// position through to the store, once, when the gesture ends.
type Draggable interface {
	Element
	Position() geometry.Point
	MoveTo(p geometry.Point)
	CommitGeometry()
}

// GeometryOwner is an element whose geometry derives from other elements
// and must be recomputed when they move.
type GeometryOwner interface {
	Element
	Recompute() error
}

// Surface is the element collection a renderer populates.
type Surface interface {
	Add(e Element)
	Remove(key string)
	Clear()
	Bounds() geometry.Rect
}

// MemorySurface is the standard Surface: a keyed map plus insertion
// order, so traversal is deterministic.
type MemorySurface struct {
	byKey map[string]Element
	order []string
}

var _ Surface = (*MemorySurface)(nil)

// NewSurface returns an empty MemorySurface.
func NewSurface() *MemorySurface {
	return &MemorySurface{byKey: map[string]Element{}}
}

// Add inserts e, replacing any element with the same key in place.
func (s *MemorySurface) Add(e Element) {
	key := e.Key()
	if _, ok := s.byKey[key]; !ok {
		s.order = append(s.order, key)
	}
	s.byKey[key] = e
}

// Remove deletes the element with the given key, if present.
func (s *MemorySurface) Remove(key string) {
	if _, ok := s.byKey[key]; !ok {
		return
	}
	delete(s.byKey, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Clear removes every element.
func (s *MemorySurface) Clear() {
	s.byKey = map[string]Element{}
	s.order = nil
}

// Get returns the element with the given key.
func (s *MemorySurface) Get(key string) (Element, bool) {
	e, ok := s.byKey[key]
	return e, ok
}

// Len returns the element count.
func (s *MemorySurface) Len() int { return len(s.byKey) }

// Elements returns all elements in insertion order.
func (s *MemorySurface) Elements() []Element {
	out := make([]Element, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.byKey[key])
	}
	return out
}

// Bounds returns the union of all element bounds, or the zero rectangle
// for an empty surface.
func (s *MemorySurface) Bounds() geometry.Rect {
	var bounds geometry.Rect
	first := true
	for _, key := range s.order {
		b := s.byKey[key].Bounds()
		if first {
			bounds = b
			first = false
			continue
		}
		bounds = bounds.Union(b)
	}
	return bounds
}

// ElementAt returns the topmost selectable element containing p. Later
// insertions are treated as higher in the stack.
func (s *MemorySurface) ElementAt(p geometry.Point) (Selectable, bool) {
	for i := len(s.order) - 1; i >= 0; i-- {
		if sel, ok := s.byKey[s.order[i]].(Selectable); ok && sel.HitTest(p) {
			return sel, true
		}
	}
	return nil, false
}
