package scene

import (
	"fmt"
	"sort"
	"strings"

	"manodiag/diagram"
	"manodiag/geometry"
	"manodiag/store"
)

// Sequence layout constants, in scene units.
const (
	ParticipantWidth  = 140.0
	ParticipantHeight = 42.0
	LifelineHeight    = 1000.0
)

// ParticipantIndex resolves participant IDs to their visuals, the
// sequence counterpart of NodeIndex.
type ParticipantIndex interface {
	ParticipantByID(id string) (*ParticipantVisual, bool)
}

// ParticipantVisual is a sequence participant: a header box at the top of
// a vertical lifeline. Only its x coordinate is adjustable; the header
// row and lifeline extent are fixed.
type ParticipantVisual struct {
	ID    string
	Label string

	x          float64
	store      *store.Store
	dependents []GeometryOwner
}

// NewParticipantVisual creates a participant with its lifeline anchored
// at x (the left edge of the header box).
func NewParticipantVisual(id, label string, x float64, st *store.Store) *ParticipantVisual {
	return &ParticipantVisual{ID: id, Label: label, x: x, store: st}
}

// Key implements Element.
func (p *ParticipantVisual) Key() string { return "participant:" + p.ID }

// Bounds implements Element; it covers the header box plus lifeline.
func (p *ParticipantVisual) Bounds() geometry.Rect {
	return geometry.Rect{X: p.x, Y: 0, Width: ParticipantWidth, Height: ParticipantHeight + LifelineHeight}
}

// HeaderBounds returns just the header box.
func (p *ParticipantVisual) HeaderBounds() geometry.Rect {
	return geometry.Rect{X: p.x, Y: 0, Width: ParticipantWidth, Height: ParticipantHeight}
}

// HitTest implements Selectable against the header box only, so clicks on
// the lifeline fall through to messages.
func (p *ParticipantVisual) HitTest(pt geometry.Point) bool {
	return p.HeaderBounds().Contains(pt)
}

// CenterX returns the lifeline x coordinate.
func (p *ParticipantVisual) CenterX() float64 { return p.x + ParticipantWidth/2 }

// Position implements Draggable.
func (p *ParticipantVisual) Position() geometry.Point { return geometry.Point{X: p.x, Y: 0} }

// MoveTo implements Draggable: horizontal movement only, no persisting.
func (p *ParticipantVisual) MoveTo(pt geometry.Point) {
	p.x = pt.X
	for _, d := range p.dependents {
		_ = d.Recompute()
	}
}

// CommitGeometry implements Draggable.
func (p *ParticipantVisual) CommitGeometry() {
	if p.store == nil {
		return
	}
	p.store.SetNodeGeometry(p.ID, store.NodeGeometry{
		X: p.x, Width: ParticipantWidth, Height: ParticipantHeight,
	})
}

// AttachDependent registers a message or note that follows this lifeline.
func (p *ParticipantVisual) AttachDependent(d GeometryOwner) {
	for _, existing := range p.dependents {
		if existing == d {
			return
		}
	}
	p.dependents = append(p.dependents, d)
}

// DetachDependent removes a previously attached dependent.
func (p *ParticipantVisual) DetachDependent(d GeometryOwner) {
	for i, existing := range p.dependents {
		if existing == d {
			p.dependents = append(p.dependents[:i], p.dependents[i+1:]...)
			return
		}
	}
}

// DependentCount returns the number of attached dependents.
func (p *ParticipantVisual) DependentCount() int { return len(p.dependents) }

// SetLabel updates the display label in place.
func (p *ParticipantVisual) SetLabel(label string) { p.Label = label }

// MessageVisual is a horizontal sequence message between two lifelines at
// a y position fixed by its draw order.
type MessageVisual struct {
	Index  int
	Source string
	Target string
	Text   string
	Style  diagram.MessageStyle

	Y float64

	index ParticipantIndex

	fromX float64
	toX   float64
}

// NewMessageVisual creates the i-th message at vertical position y.
func NewMessageVisual(i int, m diagram.Message, y float64, index ParticipantIndex) *MessageVisual {
	return &MessageVisual{
		Index:  i,
		Source: m.Source,
		Target: m.Target,
		Text:   m.Text,
		Style:  m.Style,
		Y:      y,
		index:  index,
	}
}

// Key implements Element. Draw order is part of the identity: the same
// text between the same participants at a different position is a
// different message.
func (m *MessageVisual) Key() string {
	return fmt.Sprintf("message:%d|%s|%s|%s|%s", m.Index, m.Source, m.Target, m.Text, m.Style)
}

// Bounds implements Element.
func (m *MessageVisual) Bounds() geometry.Rect {
	left, right := m.fromX, m.toX
	if right < left {
		left, right = right, left
	}
	return geometry.Rect{X: left, Y: m.Y - 10, Width: right - left, Height: 20}
}

// Recompute implements GeometryOwner: re-derive endpoint x coordinates
// from the current lifeline positions.
func (m *MessageVisual) Recompute() error {
	src, ok := m.index.ParticipantByID(m.Source)
	if !ok {
		return fmt.Errorf("message %d: participant %q not on surface", m.Index, m.Source)
	}
	tgt, ok := m.index.ParticipantByID(m.Target)
	if !ok {
		return fmt.Errorf("message %d: participant %q not on surface", m.Index, m.Target)
	}
	m.fromX, m.toX = src.CenterX(), tgt.CenterX()
	return nil
}

// FromX returns the source lifeline x.
func (m *MessageVisual) FromX() float64 { return m.fromX }

// ToX returns the target lifeline x.
func (m *MessageVisual) ToX() float64 { return m.toX }

// LabelAt returns the label anchor: centered above the arrow.
func (m *MessageVisual) LabelAt() geometry.Point {
	return geometry.Point{X: (m.fromX + m.toX) / 2, Y: m.Y - 6}
}

// SelfCall reports whether the message loops back to its sender.
func (m *MessageVisual) SelfCall() bool { return m.Source == m.Target }

// NoteVisual is a sequence note box spanning one or more lifelines.
type NoteVisual struct {
	Index        int
	Participants []string
	Text         string

	Y float64

	index ParticipantIndex
	rect  geometry.Rect
}

// NewNoteVisual creates the i-th note at vertical position y.
func NewNoteVisual(i int, n diagram.Note, y float64, index ParticipantIndex) *NoteVisual {
	return &NoteVisual{
		Index:        i,
		Participants: append([]string(nil), n.Participants...),
		Text:         n.Text,
		Y:            y,
		index:        index,
	}
}

// Key implements Element. Participant IDs are sorted so the key does not
// depend on the order they were written in the note line.
func (n *NoteVisual) Key() string {
	ids := append([]string(nil), n.Participants...)
	sort.Strings(ids)
	return fmt.Sprintf("note:%d|%s|%s", n.Index, strings.Join(ids, ","), n.Text)
}

// Bounds implements Element.
func (n *NoteVisual) Bounds() geometry.Rect { return n.rect }

// HitTest implements Selectable.
func (n *NoteVisual) HitTest(p geometry.Point) bool { return n.rect.Contains(p) }

// Recompute implements GeometryOwner: the note is centered over the span
// of its participants' lifelines and widened past the span on both sides,
// so a single-participant note still gets a readable box.
func (n *NoteVisual) Recompute() error {
	if len(n.Participants) == 0 {
		return fmt.Errorf("note %d: no participants", n.Index)
	}
	minX, maxX := 0.0, 0.0
	for i, id := range n.Participants {
		p, ok := n.index.ParticipantByID(id)
		if !ok {
			return fmt.Errorf("note %d: participant %q not on surface", n.Index, id)
		}
		cx := p.CenterX()
		if i == 0 || cx < minX {
			minX = cx
		}
		if i == 0 || cx > maxX {
			maxX = cx
		}
	}
	span := maxX - minX
	width := span + 140
	if width < 120 {
		width = 120
	}
	center := (minX + maxX) / 2
	n.rect = geometry.Rect{X: center - width/2, Y: n.Y, Width: width, Height: 40}
	return nil
}

// TitleVisual is the single diagram title, centered over the participant
// headers.
type TitleVisual struct {
	Text string
	At   geometry.Point
}

// Key implements Element; at most one title exists per surface.
func (t *TitleVisual) Key() string { return "title" }

// Bounds implements Element with a nominal text box around the anchor.
func (t *TitleVisual) Bounds() geometry.Rect {
	w := float64(len(t.Text)) * 8
	return geometry.Rect{X: t.At.X - w/2, Y: t.At.Y - 12, Width: w, Height: 24}
}
