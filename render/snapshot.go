package render

import (
	"sort"

	"manodiag/geometry"
	"manodiag/scene"
)

// SnapshotElement is one scene element flattened for serialization.
type SnapshotElement struct {
	Kind   string        `json:"kind"`
	Key    string        `json:"key"`
	Label  string        `json:"label,omitempty"`
	Bounds geometry.Rect `json:"bounds"`

	// Edge and message geometry, when applicable.
	Start *geometry.Point `json:"start,omitempty"`
	End   *geometry.Point `json:"end,omitempty"`
	Curve bool            `json:"curve,omitempty"`
}

// Snapshot is a serializable view of the rendered scene, used by the HTTP
// service and the CLI. Elements are sorted by key, so two identical
// scenes produce byte-identical snapshots.
type Snapshot struct {
	Bounds   geometry.Rect     `json:"bounds"`
	Elements []SnapshotElement `json:"elements"`
}

// Snapshot flattens the current scene.
func (r *Renderer) Snapshot() Snapshot {
	snap := Snapshot{Bounds: r.surface.Bounds()}

	for _, e := range r.surface.Elements() {
		el := SnapshotElement{Key: e.Key(), Bounds: e.Bounds()}
		switch v := e.(type) {
		case *scene.NodeVisual:
			el.Kind = "node"
			el.Label = v.Label
		case *scene.EdgeVisual:
			el.Kind = "edge"
			el.Label = v.Label
			start, end := v.Start, v.End
			el.Start, el.End = &start, &end
			el.Curve = v.UseBezier
		case *scene.ParticipantVisual:
			el.Kind = "participant"
			el.Label = v.Label
		case *scene.MessageVisual:
			el.Kind = "message"
			el.Label = v.Text
			start := geometry.Point{X: v.FromX(), Y: v.Y}
			end := geometry.Point{X: v.ToX(), Y: v.Y}
			el.Start, el.End = &start, &end
		case *scene.NoteVisual:
			el.Kind = "note"
			el.Label = v.Text
		case *scene.TitleVisual:
			el.Kind = "title"
			el.Label = v.Text
		default:
			el.Kind = "element"
		}
		snap.Elements = append(snap.Elements, el)
	}

	sort.Slice(snap.Elements, func(i, j int) bool {
		return snap.Elements[i].Key < snap.Elements[j].Key
	})
	return snap
}
