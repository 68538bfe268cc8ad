// Package store persists manual layout geometry and saved diagram
// documents as JSON files. Every mutation writes through to disk so a
// crash never loses more than the in-flight change.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/viant/afs"

	"manodiag/diagram"
)

// NodeGeometry is the persisted placement of a node or participant.
// Participants only use X; the other fields are stored as written.
type NodeGeometry struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// EdgeGeometry is the persisted routing override of an edge. Pointer
// fields distinguish "never customized" from an explicit zero offset, so a
// merge only overwrites what the caller actually changed.
type EdgeGeometry struct {
	UseBezier   bool        `json:"use_bezier"`
	StartOffset *[2]float64 `json:"start_offset,omitempty"`
	EndOffset   *[2]float64 `json:"end_offset,omitempty"`
	Control1    *[2]float64 `json:"control1,omitempty"`
	Control2    *[2]float64 `json:"control2,omitempty"`
}

// Store is a write-through layout store backed by a single JSON file.
// It is safe for concurrent use.
type Store struct {
	path string
	fs   afs.Service
	log  diagram.Logger

	mu     sync.Mutex
	loaded bool
	nodes  map[string]NodeGeometry
	edges  map[string]EdgeGeometry
}

// Open returns a Store bound to path. The file is read lazily on first
// access; a missing file is an empty store, not an error.
func Open(path string, log diagram.Logger) *Store {
	return &Store{
		path:  path,
		fs:    afs.New(),
		log:   diagram.EnsureLogger(log),
		nodes: map[string]NodeGeometry{},
		edges: map[string]EdgeGeometry{},
	}
}

// EdgeKey builds the persistence key for an edge from its full identity
// tuple. Fields are joined with "|"; an edge label containing "|" can
// therefore collide with another edge, which we accept as the file format.
func EdgeKey(source, target, label string, et diagram.EdgeType) string {
	return strings.Join([]string{source, target, label, string(et)}, "|")
}

type storeFile struct {
	Nodes map[string]NodeGeometry `json:"nodes"`
	Edges map[string]EdgeGeometry `json:"edges"`
}

// load reads the backing file once. Callers must hold mu.
func (s *Store) load() {
	if s.loaded {
		return
	}
	s.loaded = true

	ctx := context.Background()
	if ok, _ := s.fs.Exists(ctx, s.path); !ok {
		return
	}
	data, err := s.fs.DownloadWithURL(ctx, s.path)
	if err != nil {
		s.log.Printf("store: read %s: %v", s.path, err)
		return
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		s.log.Printf("store: corrupt %s: %v", s.path, err)
		return
	}

	_, hasNodes := raw["nodes"]
	_, hasEdges := raw["edges"]
	if !hasNodes && !hasEdges {
		// Legacy flat format: the whole file is a node-geometry map.
		var nodes map[string]NodeGeometry
		if err := json.Unmarshal(data, &nodes); err != nil {
			s.log.Printf("store: corrupt legacy %s: %v", s.path, err)
			return
		}
		s.nodes = nodes
		return
	}

	var file storeFile
	if err := json.Unmarshal(data, &file); err != nil {
		s.log.Printf("store: corrupt %s: %v", s.path, err)
		return
	}
	if file.Nodes != nil {
		s.nodes = file.Nodes
	}
	if file.Edges != nil {
		s.edges = file.Edges
	}
}

// save writes the current state to disk. Callers must hold mu. A write
// failure is logged; the in-memory state stays authoritative for the
// session and the next successful save catches the file up.
func (s *Store) save() {
	file := storeFile{Nodes: s.nodes, Edges: s.edges}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		s.log.Printf("store: encode: %v", err)
		return
	}
	if err := s.fs.Upload(context.Background(), s.path, 0o644, strings.NewReader(string(data))); err != nil {
		s.log.Printf("store: write %s: %v", s.path, err)
	}
}

// NodeGeometry returns the stored geometry for id.
func (s *Store) NodeGeometry(id string) (NodeGeometry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	g, ok := s.nodes[id]
	return g, ok
}

// SetNodeGeometry stores geometry for id and saves immediately.
func (s *Store) SetNodeGeometry(id string, g NodeGeometry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	s.nodes[id] = g
	s.save()
}

// SetNodeGeometries stores a batch of node geometries with a single save.
func (s *Store) SetNodeGeometries(batch map[string]NodeGeometry) {
	if len(batch) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	for id, g := range batch {
		s.nodes[id] = g
	}
	s.save()
}

// EdgeGeometry returns the stored routing override for key.
func (s *Store) EdgeGeometry(key string) (EdgeGeometry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	g, ok := s.edges[key]
	return g, ok
}

// MergeEdgeGeometry merges g into the stored entry for key. UseBezier is
// always taken from g; pointer fields overwrite only when non-nil, so a
// partial update cannot erase offsets set earlier.
func (s *Store) MergeEdgeGeometry(key string, g EdgeGeometry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()

	merged := s.edges[key]
	merged.UseBezier = g.UseBezier
	if g.StartOffset != nil {
		merged.StartOffset = g.StartOffset
	}
	if g.EndOffset != nil {
		merged.EndOffset = g.EndOffset
	}
	if g.Control1 != nil {
		merged.Control1 = g.Control1
	}
	if g.Control2 != nil {
		merged.Control2 = g.Control2
	}
	s.edges[key] = merged
	s.save()
}

// Clear discards all stored geometry and saves the empty state, so the
// next render falls back to default placement.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
	s.nodes = map[string]NodeGeometry{}
	s.edges = map[string]EdgeGeometry{}
	s.save()
}

// HasCustomLayout reports whether any geometry has been persisted.
func (s *Store) HasCustomLayout() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	return len(s.nodes) > 0 || len(s.edges) > 0
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// String describes the store for diagnostics.
func (s *Store) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	return fmt.Sprintf("store(%s: %d nodes, %d edges)", s.path, len(s.nodes), len(s.edges))
}
