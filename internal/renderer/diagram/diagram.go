// Package diagram turns diagram regions into responsive inline SVG. Engines
// do the drawing; the Renderer probes them, collapses duplicate work,
// caches results and post-processes the markup.
package diagram

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrEngineUnavailable is returned by capability probes when the engine
	// cannot run in this environment.
	ErrEngineUnavailable = errors.New("diagram: engine unavailable")
	// ErrUnknownEngine is reported for regions naming an engine that was
	// never registered.
	ErrUnknownEngine = errors.New("diagram: unknown engine")
)

// Region is one diagram occurrence in a document.
type Region struct {
	// ID is unique within a render pass and is used as the SVG root id.
	ID     string
	Engine string
	Source string
}

// Engine draws diagrams of one notation.
type Engine interface {
	Name() string
	// Available reports whether the engine can render here. It is called
	// once per Renderer.
	Available(ctx context.Context) error
	// Render returns raw SVG markup for region.
	Render(ctx context.Context, region Region, cfg Config) (string, error)
}

// State of a render attempt.
type State int

const (
	StateRendered State = iota
	// StatePending means the engine is not available; the source is shown
	// and left for client-side rendering.
	StatePending
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRendered:
		return "rendered"
	case StatePending:
		return "pending"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Rendered is post-processed diagram markup.
type Rendered struct {
	Markup   string
	ViewBox  string
	Width    float64
	Height   float64
	Duration time.Duration
}

// Result is the outcome for one region. Err is set for StateFailed, and for
// StatePending it holds the reason the engine is unavailable.
type Result struct {
	State   State
	Diagram Rendered
	Err     error
}
