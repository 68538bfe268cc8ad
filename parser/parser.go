// Package parser turns raw diagram text into a structural Diagram
// description. It is deliberately tolerant: lines that match no known
// pattern are skipped, and a malformed configuration block degrades to an
// empty config. Parse never fails.
package parser

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"manodiag/diagram"
)

// Parser recognizes the Mermaid-like flowchart and sequence notations.
// It holds no state between calls and knows nothing about geometry.
type Parser struct {
	configBlock    *regexp.Regexp
	direction      *regexp.Regexp
	nodeQuoted     *regexp.Regexp
	nodeBracket    *regexp.Regexp
	edgeBidi       *regexp.Regexp
	edgeLabeled    *regexp.Regexp
	edgeSimple     *regexp.Regexp
	edgeMulti      *regexp.Regexp
	classDef       *regexp.Regexp
	classAssign    *regexp.Regexp
	seqTitle       *regexp.Regexp
	seqParticipant *regexp.Regexp
	seqMessage     *regexp.Regexp
	seqNote        *regexp.Regexp

	log diagram.Logger
}

// New creates a Parser. A nil logger falls back to the standard logger.
func New(log diagram.Logger) *Parser {
	return &Parser{
		configBlock:    regexp.MustCompile(`(?s)---\s*\n(.*?)\n---`),
		direction:      regexp.MustCompile(`flowchart\s+(TD|TB|BT|RL|LR)`),
		nodeQuoted:     regexp.MustCompile(`(\w+)\["([^"]+)"\]`),
		nodeBracket:    regexp.MustCompile(`(\w+)\[([^\]]+)\]`),
		edgeBidi:       regexp.MustCompile(`(\w+)\s*<-->\s*(\w+)`),
		edgeLabeled:    regexp.MustCompile(`(\w+)\s*--\s*([^-]+)\s*-->\s*(\w+)`),
		edgeSimple:     regexp.MustCompile(`(\w+)\s*-->\s*(\w+)`),
		edgeMulti:      regexp.MustCompile(`(\w+)\s*-->\s*([^&\n]+(?:\s*&\s*[^&\n]+)+)`),
		classDef:       regexp.MustCompile(`classDef\s+(\w+)\s+(.+)`),
		classAssign:    regexp.MustCompile(`(\w+):::(\w+)`),
		seqTitle:       regexp.MustCompile(`(?i)^title\s+(.+)$`),
		seqParticipant: regexp.MustCompile(`(?i)^participant\s+(\w+)(?:\s+as\s+(.+))?$`),
		seqMessage:     regexp.MustCompile(`^(\w+)\s*([-]{1,2}>{1,2})\s*(\w+)\s*:\s*(.+)$`),
		seqNote:        regexp.MustCompile(`(?i)^note\s+over\s+([\w,\s]+):\s*(.+)$`),
		log:            diagram.EnsureLogger(log),
	}
}

// Parse converts text into a Diagram. Empty or unrecognizable input yields
// an empty flowchart; it never returns nil.
func (p *Parser) Parse(text string) *diagram.Diagram {
	config, body := p.extractConfig(text)

	lines := make([]string, 0)
	for _, raw := range strings.Split(body, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}

	if len(lines) > 0 && strings.HasPrefix(strings.ToLower(lines[0]), "sequence") {
		return p.parseSequence(lines[1:], config)
	}
	return p.parseFlowchart(lines, config)
}

// extractConfig pulls a leading ---/--- delimited YAML block out of the
// text. A block that fails to parse is logged and treated as absent, but
// the block text is still consumed so it cannot shadow the diagram body.
func (p *Parser) extractConfig(text string) (map[string]any, string) {
	m := p.configBlock.FindStringSubmatchIndex(text)
	if m == nil {
		return nil, text
	}
	body := text[m[1]:]
	raw := text[m[2]:m[3]]

	config := map[string]any{}
	if err := yaml.Unmarshal([]byte(raw), &config); err != nil {
		p.log.Printf("parser: invalid config block: %v", err)
		return nil, body
	}
	return config, body
}

func (p *Parser) parseFlowchart(lines []string, config map[string]any) *diagram.Diagram {
	nodes := map[string]*diagram.Node{}
	order := []string{}
	var edges []diagram.Edge
	classDefs := map[string]map[string]string{}
	nodeClasses := map[string]string{}
	direction := "TD"

	declare := func(id, label string) {
		if n, ok := nodes[id]; ok {
			n.Label = label // duplicate declarations overwrite the label
			return
		}
		nodes[id] = &diagram.Node{ID: id, Label: label, Type: "rect", Properties: map[string]string{}}
		order = append(order, id)
	}

	// Pass 1: direction, class definitions and class assignments, so that
	// classes are known before any node is created.
	for _, line := range lines {
		if m := p.direction.FindStringSubmatch(line); m != nil {
			direction = m[1]
			continue
		}
		if m := p.classDef.FindStringSubmatch(line); m != nil {
			classDefs[m[1]] = parseCSSProperties(m[2])
			continue
		}
		if m := p.classAssign.FindStringSubmatch(line); m != nil {
			nodeClasses[m[1]] = m[2]
			continue
		}
	}

	// Pass 2: nodes and edges, in source order. Inline declarations like
	// A["Start"] are pulled out first and reduced to the bare id, so an
	// edge written as A[Start] --> B[End] declares both nodes and still
	// matches the edge patterns. After that, first match wins per line.
	for _, line := range lines {
		if strings.Contains(line, "classDef") || strings.Contains(line, ":::") || strings.Contains(line, "flowchart") {
			continue
		}
		line = p.nodeQuoted.ReplaceAllStringFunc(line, func(s string) string {
			m := p.nodeQuoted.FindStringSubmatch(s)
			declare(m[1], m[2])
			return m[1]
		})
		line = p.nodeBracket.ReplaceAllStringFunc(line, func(s string) string {
			m := p.nodeBracket.FindStringSubmatch(s)
			declare(m[1], strings.Trim(m[2], `"`))
			return m[1]
		})
		if m := p.edgeMulti.FindStringSubmatch(line); m != nil {
			source := strings.TrimSpace(m[1])
			for _, t := range strings.Split(m[2], "&") {
				target := strings.Trim(strings.TrimSpace(t), `"[]`)
				if target == "" {
					continue
				}
				edges = append(edges, diagram.Edge{Source: source, Target: target, Type: diagram.EdgeArrow, Style: "solid"})
				if _, ok := nodes[source]; !ok {
					declare(source, source)
				}
				if _, ok := nodes[target]; !ok {
					declare(target, target)
				}
			}
			continue
		}
		if m := p.edgeBidi.FindStringSubmatch(line); m != nil {
			edges = append(edges, diagram.Edge{Source: m[1], Target: m[2], Type: diagram.EdgeBidirectional, Style: "solid"})
			continue
		}
		if m := p.edgeLabeled.FindStringSubmatch(line); m != nil {
			edges = append(edges, diagram.Edge{Source: m[1], Target: m[3], Label: strings.TrimSpace(m[2]), Type: diagram.EdgeArrow, Style: "solid"})
			continue
		}
		if m := p.edgeSimple.FindStringSubmatch(line); m != nil {
			edges = append(edges, diagram.Edge{Source: m[1], Target: m[2], Type: diagram.EdgeArrow, Style: "solid"})
			continue
		}
		// Anything left is either a bare declaration handled above or an
		// unrecognized line, skipped by design.
	}

	// Synthesize nodes referenced by edges but never declared, in first
	// reference order so default grid placement stays deterministic.
	for _, e := range edges {
		if _, ok := nodes[e.Source]; !ok {
			declare(e.Source, e.Source)
		}
		if _, ok := nodes[e.Target]; !ok {
			declare(e.Target, e.Target)
		}
	}

	// Class assignment to a nonexistent node is a no-op.
	for id, class := range nodeClasses {
		if n, ok := nodes[id]; ok {
			n.Class = class
		}
	}

	d := &diagram.Diagram{
		Type:      diagram.TypeFlowchart,
		Direction: direction,
		Edges:     edges,
		ClassDefs: classDefs,
		Config:    config,
	}
	for _, id := range order {
		d.Nodes = append(d.Nodes, *nodes[id])
	}
	return d
}

func (p *Parser) parseSequence(lines []string, config map[string]any) *diagram.Diagram {
	participants := map[string]*diagram.Participant{}
	order := []string{}
	var messages []diagram.Message
	var notes []diagram.Note
	title := ""

	ensure := func(id, label string) {
		if existing, ok := participants[id]; ok {
			if label != "" {
				existing.Label = label
			}
			return
		}
		if label == "" {
			label = id
		}
		participants[id] = &diagram.Participant{ID: id, Label: label}
		order = append(order, id)
	}

	for _, line := range lines {
		if m := p.seqTitle.FindStringSubmatch(line); m != nil {
			title = strings.TrimSpace(m[1])
			continue
		}
		if m := p.seqParticipant.FindStringSubmatch(line); m != nil {
			ensure(m[1], strings.TrimSpace(m[2]))
			continue
		}
		if m := p.seqNote.FindStringSubmatch(line); m != nil {
			var ids []string
			for _, part := range strings.Split(m[1], ",") {
				id := strings.TrimSpace(part)
				if id == "" {
					continue
				}
				ensure(id, "")
				ids = append(ids, id)
			}
			notes = append(notes, diagram.Note{Participants: ids, Text: strings.TrimSpace(m[2])})
			continue
		}
		if m := p.seqMessage.FindStringSubmatch(line); m != nil {
			src, arrow, tgt, text := m[1], m[2], m[3], m[4]
			ensure(src, "")
			ensure(tgt, "")
			style := diagram.MessageSolid
			if strings.Contains(arrow, "-->") && !strings.Contains(arrow, ">>") {
				style = diagram.MessageDashed
			}
			if strings.Contains(arrow, ">>") {
				style = diagram.MessageAsync
			}
			messages = append(messages, diagram.Message{Source: src, Target: tgt, Text: strings.TrimSpace(text), Style: style})
			continue
		}
		// Unrecognized line: skipped by design.
	}

	d := &diagram.Diagram{
		Type:     diagram.TypeSequence,
		Messages: messages,
		Notes:    notes,
		Title:    title,
		Config:   config,
	}
	for _, id := range order {
		d.Participants = append(d.Participants, *participants[id])
	}
	return d
}

// parseCSSProperties splits a classDef body like
// "fill:#f9f,stroke:#333,stroke-width:4px" into a property map.
func parseCSSProperties(s string) map[string]string {
	props := map[string]string{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if k, v, ok := strings.Cut(part, ":"); ok {
			props[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	return props
}
