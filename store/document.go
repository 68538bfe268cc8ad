package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/viant/afs"

	"manodiag/diagram"
)

// Settings are the editor preferences saved alongside a document.
type Settings struct {
	ShowGrid     bool   `json:"show_grid"`
	Antialiasing bool   `json:"antialiasing"`
	NodeColor    string `json:"node_color"`
	BorderColor  string `json:"border_color"`
}

// DefaultSettings returns the out-of-the-box preferences.
func DefaultSettings() Settings {
	return Settings{
		ShowGrid:     true,
		Antialiasing: true,
		NodeColor:    "#dcddff",
		BorderColor:  "#6464c8",
	}
}

// Document is a complete saved diagram: the source text plus the manual
// layout that was current when it was saved, plus editor settings.
type Document struct {
	Text     string                  `json:"text"`
	Nodes    map[string]NodeGeometry `json:"nodes,omitempty"`
	Edges    map[string]EdgeGeometry `json:"edges,omitempty"`
	Settings Settings                `json:"settings"`
}

// SaveDocument writes doc to path as JSON, capturing the store's current
// layout so reopening the document restores node positions exactly.
func SaveDocument(path string, text string, s *Store, settings Settings, log diagram.Logger) error {
	log = diagram.EnsureLogger(log)

	doc := Document{Text: text, Settings: settings}
	if s != nil {
		s.mu.Lock()
		s.load()
		doc.Nodes = make(map[string]NodeGeometry, len(s.nodes))
		for id, g := range s.nodes {
			doc.Nodes[id] = g
		}
		doc.Edges = make(map[string]EdgeGeometry, len(s.edges))
		for key, g := range s.edges {
			doc.Edges[key] = g
		}
		s.mu.Unlock()
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := afs.New().Upload(context.Background(), path, 0o644, strings.NewReader(string(data))); err != nil {
		return fmt.Errorf("write document %s: %w", path, err)
	}
	log.Printf("store: saved document %s", path)
	return nil
}

// LoadDocument reads a document from path and, when a store is supplied,
// replaces its layout with the document's saved layout.
func LoadDocument(path string, s *Store, log diagram.Logger) (*Document, error) {
	log = diagram.EnsureLogger(log)

	data, err := afs.New().DownloadWithURL(context.Background(), path)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", path, err)
	}

	if s != nil {
		s.mu.Lock()
		s.loaded = true
		s.nodes = map[string]NodeGeometry{}
		for id, g := range doc.Nodes {
			s.nodes[id] = g
		}
		s.edges = map[string]EdgeGeometry{}
		for key, g := range doc.Edges {
			s.edges[key] = g
		}
		s.save()
		s.mu.Unlock()
	}
	log.Printf("store: loaded document %s", path)
	return &doc, nil
}
