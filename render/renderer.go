// Package render reconciles a parsed diagram against the current scene.
// Renders are incremental: elements that survived the edit are updated in
// place and keep their positions, new elements are placed on a grid or
// from persisted geometry, and vanished elements are removed. Rendering
// the same diagram twice is a no-op.
package render

import (
	"fmt"
	"sort"
	"strings"

	"manodiag/diagram"
	"manodiag/geometry"
	"manodiag/scene"
	"manodiag/store"
)

// Default flowchart placement, in scene units.
const (
	NodeWidth    = 160.0
	NodeHeight   = 60.0
	NodeSpacingX = 220.0
	NodeSpacingY = 120.0
	GridColumns  = 4
	GridPitch    = 20.0
)

// Sequence layout, in scene units.
const (
	ParticipantSpacing = 220.0
	HeaderHeight       = 42.0
	MessageBaseY       = 120.0
	MessageStepY       = 70.0
	NoteGap            = 50.0
	NoteStepY          = 80.0
)

// Renderer owns the element maps for one scene and reconciles them
// against successive parses. It is single-threaded; callers serialize.
type Renderer struct {
	// Default colors applied to new nodes without a class style.
	NodeColor   string
	BorderColor string

	// OnGeometryChanged, when set, fires after any render that changed
	// the surface. Display backends hook redraws here.
	OnGeometryChanged func()

	surface *scene.MemorySurface
	store   *store.Store
	log     diagram.Logger

	mode diagram.Type

	nodes        map[string]*scene.NodeVisual
	edges        map[string]*scene.EdgeVisual
	participants map[string]*scene.ParticipantVisual
	messages     map[string]*scene.MessageVisual
	notes        map[string]*scene.NoteVisual
	title        *scene.TitleVisual

	lastSequenceSig string
}

// New creates a Renderer drawing onto surface with layout persisted
// through st. A nil logger falls back to the standard logger.
func New(surface *scene.MemorySurface, st *store.Store, log diagram.Logger) *Renderer {
	settings := store.DefaultSettings()
	return &Renderer{
		NodeColor:    settings.NodeColor,
		BorderColor:  settings.BorderColor,
		surface:      surface,
		store:        st,
		log:          diagram.EnsureLogger(log),
		nodes:        map[string]*scene.NodeVisual{},
		edges:        map[string]*scene.EdgeVisual{},
		participants: map[string]*scene.ParticipantVisual{},
		messages:     map[string]*scene.MessageVisual{},
		notes:        map[string]*scene.NoteVisual{},
	}
}

// NodeByID implements scene.NodeIndex.
func (r *Renderer) NodeByID(id string) (*scene.NodeVisual, bool) {
	n, ok := r.nodes[id]
	return n, ok
}

// ParticipantByID implements scene.ParticipantIndex.
func (r *Renderer) ParticipantByID(id string) (*scene.ParticipantVisual, bool) {
	p, ok := r.participants[id]
	return p, ok
}

// Surface returns the surface the renderer draws onto.
func (r *Renderer) Surface() *scene.MemorySurface { return r.surface }

// Store returns the layout store.
func (r *Renderer) Store() *store.Store { return r.store }

// Render dispatches on the diagram type. Switching between flowchart and
// sequence clears the scene first; within one type, renders reconcile.
func (r *Renderer) Render(d *diagram.Diagram) {
	if d.Type != r.mode {
		r.clear()
		r.mode = d.Type
	}
	if d.IsSequence() {
		r.renderSequence(d)
	} else {
		r.renderFlowchart(d)
	}
	if r.OnGeometryChanged != nil {
		r.OnGeometryChanged()
	}
}

func (r *Renderer) clear() {
	r.surface.Clear()
	r.nodes = map[string]*scene.NodeVisual{}
	r.edges = map[string]*scene.EdgeVisual{}
	r.participants = map[string]*scene.ParticipantVisual{}
	r.messages = map[string]*scene.MessageVisual{}
	r.notes = map[string]*scene.NoteVisual{}
	r.title = nil
	r.lastSequenceSig = ""
}

// gridPosition returns the default placement for the idx-th declared
// node. Horizontal directions lay nodes out in a single row; everything
// else wraps onto a fixed-width grid.
func gridPosition(idx int, direction string) geometry.Point {
	if direction == "LR" || direction == "RL" {
		return geometry.Point{X: float64(idx) * NodeSpacingX, Y: 0}
	}
	col := idx % GridColumns
	row := idx / GridColumns
	return geometry.Point{X: float64(col) * NodeSpacingX, Y: float64(row) * NodeSpacingY}
}

func (r *Renderer) renderFlowchart(d *diagram.Diagram) {
	wantedNodes := map[string]diagram.Node{}
	for _, n := range d.Nodes {
		wantedNodes[n.ID] = n
	}

	// Remove nodes no longer in the diagram, with every edge touching
	// them. Their persisted geometry is kept; re-adding the node later
	// restores its position.
	for id, visual := range r.nodes {
		if _, ok := wantedNodes[id]; ok {
			continue
		}
		r.surface.Remove(visual.Key())
		delete(r.nodes, id)
		for key, edge := range r.edges {
			if edge.Source == id || edge.Target == id {
				if src, ok := r.nodes[edge.Source]; ok {
					src.DetachDependent(edge)
				}
				if tgt, ok := r.nodes[edge.Target]; ok {
					tgt.DetachDependent(edge)
				}
				r.surface.Remove(edge.Key())
				delete(r.edges, key)
			}
		}
	}

	// Create new nodes and update survivors in place. Existing nodes
	// never move during a render.
	for idx, n := range d.Nodes {
		if visual, ok := r.nodes[n.ID]; ok {
			visual.SetLabel(n.Label)
			visual.SetClass(n.Class)
			r.applyNodeStyle(visual, d)
			continue
		}
		rect := geometry.Rect{Width: NodeWidth, Height: NodeHeight}
		if g, ok := r.store.NodeGeometry(n.ID); ok {
			rect = geometry.Rect{X: g.X, Y: g.Y, Width: g.Width, Height: g.Height}
			if rect.Width <= 0 {
				rect.Width = NodeWidth
			}
			if rect.Height <= 0 {
				rect.Height = NodeHeight
			}
		} else {
			p := gridPosition(idx, d.Direction)
			rect.X, rect.Y = p.X, p.Y
		}
		visual := scene.NewNodeVisual(n.ID, n.Label, rect, r.store)
		visual.SetClass(n.Class)
		r.applyNodeStyle(visual, d)
		r.nodes[n.ID] = visual
		r.surface.Add(visual)
	}

	// Reconcile edges by identity key. Parallel edges with identical
	// identity collapse into one visual.
	wantedEdges := map[string]diagram.Edge{}
	for _, e := range d.Edges {
		wantedEdges[store.EdgeKey(e.Source, e.Target, e.Label, e.Type)] = e
	}
	for key, visual := range r.edges {
		if _, ok := wantedEdges[key]; !ok {
			if src, ok := r.nodes[visual.Source]; ok {
				src.DetachDependent(visual)
			}
			if tgt, ok := r.nodes[visual.Target]; ok {
				tgt.DetachDependent(visual)
			}
			r.surface.Remove(visual.Key())
			delete(r.edges, key)
		}
	}
	for key, e := range wantedEdges {
		if visual, ok := r.edges[key]; ok {
			visual.SetStyle(e.Style)
			continue
		}
		// An edge naming a node that does not exist is skipped silently;
		// the parser synthesizes missing nodes, so this only happens for
		// callers constructing diagrams by hand.
		src, okS := r.nodes[e.Source]
		tgt, okT := r.nodes[e.Target]
		if !okS || !okT {
			continue
		}
		visual := scene.NewEdgeVisual(e, r, r.store)
		src.AttachDependent(visual)
		tgt.AttachDependent(visual)
		r.edges[key] = visual
		r.surface.Add(visual)
	}

	// Derive geometry for every edge. A failure poisons only that edge.
	for _, visual := range r.edges {
		if err := visual.Recompute(); err != nil {
			r.log.Printf("render: %v", err)
		}
	}
}

// applyNodeStyle resolves a node's colors from its classDef, falling back
// to the renderer defaults.
func (r *Renderer) applyNodeStyle(visual *scene.NodeVisual, d *diagram.Diagram) {
	fill, border := r.NodeColor, r.BorderColor
	if visual.Class != "" {
		if props, ok := d.ClassDefs[visual.Class]; ok {
			if v, ok := props["fill"]; ok {
				fill = v
			}
			if v, ok := props["stroke"]; ok {
				border = v
			}
		}
	}
	visual.SetColors(fill, border)
}

// sequenceSignature fingerprints the participant set and order. The
// participant row is rebuilt only when this changes; otherwise dragged
// lifelines keep their positions across renders.
func sequenceSignature(d *diagram.Diagram) string {
	ids := make([]string, 0, len(d.Participants))
	for _, p := range d.Participants {
		ids = append(ids, p.ID)
	}
	return strings.Join(ids, "|")
}

func (r *Renderer) renderSequence(d *diagram.Diagram) {
	sig := sequenceSignature(d)
	if sig != r.lastSequenceSig {
		r.rebuildParticipants(d)
		r.lastSequenceSig = sig
	} else {
		for _, p := range d.Participants {
			if visual, ok := r.participants[p.ID]; ok {
				visual.SetLabel(p.Label)
			}
		}
	}

	// Messages and notes are cheap and fully derived, so they reconcile
	// by key: position in draw order plus content.
	wantedMessages := map[string]*scene.MessageVisual{}
	for i, m := range d.Messages {
		y := MessageBaseY + float64(i)*MessageStepY
		visual := scene.NewMessageVisual(i, m, y, r)
		wantedMessages[visual.Key()] = visual
	}
	for key, visual := range r.messages {
		if _, ok := wantedMessages[key]; !ok {
			if p, ok := r.participants[visual.Source]; ok {
				p.DetachDependent(visual)
			}
			if p, ok := r.participants[visual.Target]; ok {
				p.DetachDependent(visual)
			}
			r.surface.Remove(visual.Key())
			delete(r.messages, key)
		}
	}
	for key, visual := range wantedMessages {
		if _, ok := r.messages[key]; ok {
			continue
		}
		// Messages follow their lifelines: a participant drag must move
		// them without waiting for the next render.
		if p, ok := r.participants[visual.Source]; ok {
			p.AttachDependent(visual)
		}
		if p, ok := r.participants[visual.Target]; ok {
			p.AttachDependent(visual)
		}
		r.messages[key] = visual
		r.surface.Add(visual)
	}

	noteBaseY := MessageBaseY + float64(len(d.Messages))*MessageStepY + NoteGap
	wantedNotes := map[string]*scene.NoteVisual{}
	for i, n := range d.Notes {
		y := noteBaseY + float64(i)*NoteStepY
		visual := scene.NewNoteVisual(i, n, y, r)
		wantedNotes[visual.Key()] = visual
	}
	for key, visual := range r.notes {
		if _, ok := wantedNotes[key]; !ok {
			for _, id := range visual.Participants {
				if p, ok := r.participants[id]; ok {
					p.DetachDependent(visual)
				}
			}
			r.surface.Remove(visual.Key())
			delete(r.notes, key)
		}
	}
	for key, visual := range wantedNotes {
		if _, ok := r.notes[key]; ok {
			continue
		}
		for _, id := range visual.Participants {
			if p, ok := r.participants[id]; ok {
				p.AttachDependent(visual)
			}
		}
		r.notes[key] = visual
		r.surface.Add(visual)
	}

	for _, visual := range r.messages {
		if err := visual.Recompute(); err != nil {
			r.log.Printf("render: %v", err)
		}
	}
	for _, visual := range r.notes {
		if err := visual.Recompute(); err != nil {
			r.log.Printf("render: %v", err)
		}
	}

	r.renderTitle(d)

	// Every participant's current x is re-persisted after each pass, in
	// one batched save, so programmatic layout changes are durable.
	batch := make(map[string]store.NodeGeometry, len(r.participants))
	for id, visual := range r.participants {
		batch[id] = store.NodeGeometry{
			X: visual.Position().X, Width: scene.ParticipantWidth, Height: HeaderHeight,
		}
	}
	r.store.SetNodeGeometries(batch)
}

// rebuildParticipants tears down and relays the participant row. Saved x
// positions win over the default spacing; the end-of-pass batch persists
// whatever row comes out.
func (r *Renderer) rebuildParticipants(d *diagram.Diagram) {
	for _, visual := range r.participants {
		r.surface.Remove(visual.Key())
	}
	r.participants = map[string]*scene.ParticipantVisual{}

	for idx, p := range d.Participants {
		x := float64(idx) * ParticipantSpacing
		if g, ok := r.store.NodeGeometry(p.ID); ok {
			x = g.X
		}
		visual := scene.NewParticipantVisual(p.ID, p.Label, x, r.store)
		r.participants[p.ID] = visual
		r.surface.Add(visual)
	}

	// Rebuilding invalidated every message and note; drop them so the
	// reconcile pass recreates them against the new lifelines.
	for key, visual := range r.messages {
		r.surface.Remove(visual.Key())
		delete(r.messages, key)
	}
	for key, visual := range r.notes {
		r.surface.Remove(visual.Key())
		delete(r.notes, key)
	}
}

func (r *Renderer) renderTitle(d *diagram.Diagram) {
	if d.Title == "" {
		if r.title != nil {
			r.surface.Remove(r.title.Key())
			r.title = nil
		}
		return
	}

	minX, maxX := 0.0, 0.0
	first := true
	for _, visual := range r.participants {
		cx := visual.CenterX()
		if first || cx < minX {
			minX = cx
		}
		if first || cx > maxX {
			maxX = cx
		}
		first = false
	}
	at := geometry.Point{X: (minX + maxX) / 2, Y: -30}

	if r.title == nil {
		r.title = &scene.TitleVisual{}
		r.surface.Add(r.title)
	}
	r.title.Text = d.Title
	r.title.At = at
}

// NormalizeLayout sizes every node to fit its label and snaps positions
// to the grid pitch, persisting as it goes. Edges follow automatically.
func (r *Renderer) NormalizeLayout() {
	ids := make([]string, 0, len(r.nodes))
	for id := range r.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		visual := r.nodes[id]
		w, h := visual.SizeToFit()
		visual.SetSize(w, h)
		p := visual.Position()
		visual.SetPosition(geometry.Point{
			X: geometry.SnapToGrid(p.X, GridPitch),
			Y: geometry.SnapToGrid(p.Y, GridPitch),
		})
	}
	if r.OnGeometryChanged != nil && len(ids) > 0 {
		r.OnGeometryChanged()
	}
}

// UpdateSettings applies editor preferences to the scene: default colors
// change on every node that has no classDef style of its own.
func (r *Renderer) UpdateSettings(s store.Settings) {
	r.NodeColor, r.BorderColor = s.NodeColor, s.BorderColor
	for _, visual := range r.nodes {
		if visual.Class == "" {
			visual.SetColors(s.NodeColor, s.BorderColor)
		}
	}
}

// ResetLayout clears all persisted geometry and the scene. The next
// render lays the diagram out from scratch.
func (r *Renderer) ResetLayout() {
	r.store.Clear()
	r.clear()
	r.mode = ""
}

// NodeCount returns the number of node visuals, for status displays.
func (r *Renderer) NodeCount() int { return len(r.nodes) }

// EdgeCount returns the number of edge visuals.
func (r *Renderer) EdgeCount() int { return len(r.edges) }

// Describe returns a one-line scene summary.
func (r *Renderer) Describe() string {
	if r.mode == diagram.TypeSequence {
		return fmt.Sprintf("sequence: %d participants, %d messages, %d notes",
			len(r.participants), len(r.messages), len(r.notes))
	}
	return fmt.Sprintf("flowchart: %d nodes, %d edges", len(r.nodes), len(r.edges))
}
