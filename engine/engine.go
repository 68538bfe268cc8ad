// Package engine ties the parser, renderer and store into the live
// editing pipeline: text goes in, a reconciled scene comes out, debounced
// so a burst of keystrokes renders once.
package engine

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"

	"manodiag/diagram"
	"manodiag/parser"
	"manodiag/render"
	"manodiag/scene"
	"manodiag/store"
)

// DebounceInterval is how long the engine waits after the last text
// change before rendering.
const DebounceInterval = 300 * time.Millisecond

// Engine is the live pipeline. SetText schedules a debounced render;
// Render runs one immediately. A render that fails to parse leaves the
// previous scene untouched.
type Engine struct {
	// OnStatus, when set, receives human-readable status lines: render
	// summaries and parse problems.
	OnStatus func(msg string)

	parser   *parser.Parser
	renderer *render.Renderer
	store    *store.Store
	surface  *scene.MemorySurface
	log      diagram.Logger

	debounced func(func())

	mu   sync.Mutex
	text string
}

// New builds an engine around a layout store. A nil logger falls back to
// the standard logger.
func New(st *store.Store, log diagram.Logger) *Engine {
	log = diagram.EnsureLogger(log)
	surface := scene.NewSurface()
	return &Engine{
		parser:    parser.New(log),
		renderer:  render.New(surface, st, log),
		store:     st,
		surface:   surface,
		log:       log,
		debounced: debounce.New(DebounceInterval),
	}
}

// Renderer exposes the underlying renderer for display backends.
func (e *Engine) Renderer() *render.Renderer { return e.renderer }

// Surface exposes the scene surface.
func (e *Engine) Surface() *scene.MemorySurface { return e.surface }

// SetText records the new source text and schedules a render after the
// debounce interval. Rapid successive calls coalesce into one render.
func (e *Engine) SetText(text string) {
	e.mu.Lock()
	e.text = text
	e.mu.Unlock()
	e.debounced(func() { e.Render() })
}

// Render parses the current text and reconciles the scene now. The mutex
// serializes renders triggered from the debounce goroutine against direct
// calls.
func (e *Engine) Render() {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.parser.Parse(e.text)
	e.renderer.Render(d)
	e.status(e.renderer.Describe())
}

// RenderText is SetText plus an immediate synchronous render, for batch
// callers that do not want the debounce.
func (e *Engine) RenderText(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.text = text
	d := e.parser.Parse(text)
	e.renderer.Render(d)
	e.status(e.renderer.Describe())
}

// Snapshot renders nothing; it flattens whatever the scene currently
// holds.
func (e *Engine) Snapshot() render.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.renderer.Snapshot()
}

// ResetLayout clears persisted geometry and re-renders the current text
// from default placement.
func (e *Engine) ResetLayout() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderer.ResetLayout()
	d := e.parser.Parse(e.text)
	e.renderer.Render(d)
	e.status("layout reset")
}

func (e *Engine) status(msg string) {
	if e.OnStatus != nil {
		e.OnStatus(msg)
	}
}

// EnsureFixedLayout returns text with "layout: fixed" present in its
// config block, inserting a block when none exists. Sequence diagrams and
// texts already marked fixed come back unchanged: sequence layout is
// derived, so the marker would be noise.
func EnsureFixedLayout(text string) string {
	trimmed := strings.TrimSpace(text)

	body := trimmed
	if idx := strings.Index(trimmed, "---"); idx == 0 {
		if end := strings.Index(trimmed[3:], "---"); end >= 0 {
			body = trimmed[3+end+3:]
		}
	}
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(line), "sequence") {
			return text
		}
		break
	}

	if !strings.HasPrefix(trimmed, "---") {
		return "---\nlayout: fixed\n---\n" + text
	}

	end := strings.Index(trimmed[3:], "---")
	if end < 0 {
		// Unterminated block; treat the text as having no block at all.
		return "---\nlayout: fixed\n---\n" + text
	}
	block := strings.Trim(trimmed[3:3+end], "\n")
	rest := trimmed[3+end:]

	lines := strings.Split(block, "\n")
	replaced := false
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "layout:") {
			if strings.TrimSpace(line) == "layout: fixed" {
				return text
			}
			lines[i] = "layout: fixed"
			replaced = true
			break
		}
	}
	if !replaced {
		// Insert before the closing delimiter, after existing keys.
		lines = append(lines, "layout: fixed")
	}
	return fmt.Sprintf("---\n%s\n%s", strings.Join(lines, "\n"), rest)
}
