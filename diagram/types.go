// Package diagram contains the parsed data model shared by the parser,
// renderer and persistence layers.
package diagram

// Type identifies the kind of diagram a source text describes.
type Type string

const (
	TypeFlowchart Type = "flowchart"
	TypeSequence  Type = "sequence"
)

// EdgeType identifies how a flowchart edge is drawn.
type EdgeType string

const (
	EdgeArrow         EdgeType = "arrow"
	EdgeBidirectional EdgeType = "bidirectional"
)

// MessageStyle identifies how a sequence message arrow is drawn.
type MessageStyle string

const (
	MessageSolid  MessageStyle = "solid"
	MessageDashed MessageStyle = "dashed"
	MessageAsync  MessageStyle = "async"
)

// Node is a flowchart node. Identity is the ID, unique within a diagram.
type Node struct {
	ID         string            `json:"id"`
	Label      string            `json:"label"`
	Type       string            `json:"type"` // always "rect" for now
	Properties map[string]string `json:"properties,omitempty"`
	Class      string            `json:"class,omitempty"` // classDef name, if assigned
}

// Edge is a directed or bidirectional flowchart edge. Identity is the full
// (Source, Target, Label, Type) tuple: two edges differing only in label or
// type are distinct entities.
type Edge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Label  string   `json:"label,omitempty"`
	Type   EdgeType `json:"type"`
	Style  string   `json:"style,omitempty"`
}

// Participant is a sequence-diagram participant. Declaration order is the
// canonical left-to-right layout order.
type Participant struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Message is a sequence-diagram message. Its geometry is fully derived from
// participant positions and draw order, so it carries no persisted state.
type Message struct {
	Source string       `json:"source"`
	Target string       `json:"target"`
	Text   string       `json:"text"`
	Style  MessageStyle `json:"style"`
}

// Note is a sequence-diagram note spanning one or more participants.
type Note struct {
	Participants []string `json:"participants"`
	Text         string   `json:"text"`
}

// Diagram is the parser's output: a complete structural description of one
// diagram, with no geometry attached.
type Diagram struct {
	Type      Type   `json:"type"`
	Direction string `json:"direction,omitempty"` // TD, TB, BT, RL or LR

	// Flowchart content. Nodes preserve source declaration order.
	Nodes     []Node                       `json:"nodes,omitempty"`
	Edges     []Edge                       `json:"edges,omitempty"`
	ClassDefs map[string]map[string]string `json:"class_defs,omitempty"`

	// Sequence content. Participants preserve first-seen order.
	Participants []Participant `json:"participants,omitempty"`
	Messages     []Message     `json:"messages,omitempty"`
	Notes        []Note        `json:"notes,omitempty"`
	Title        string        `json:"title,omitempty"`

	// Config holds the leading YAML configuration block, if any.
	Config map[string]any `json:"config,omitempty"`
}

// ConfigString returns a string config value, or "" when absent.
func (d *Diagram) ConfigString(key string) string {
	if d.Config == nil {
		return ""
	}
	if v, ok := d.Config[key].(string); ok {
		return v
	}
	return ""
}

// FixedLayout reports whether the config block asked for layout: fixed.
// The flag is advisory to the caller; the renderer always prefers persisted
// geometry over grid defaults regardless.
func (d *Diagram) FixedLayout() bool {
	return d.ConfigString("layout") == "fixed"
}

// IsSequence returns true for sequence diagrams.
func (d *Diagram) IsSequence() bool {
	return d.Type == TypeSequence
}
