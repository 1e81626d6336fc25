// Package d2 renders D2 diagrams with the embedded d2 compiler.
package d2

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"oss.terrastruct.com/d2/d2graph"
	"oss.terrastruct.com/d2/d2layouts/d2dagrelayout"
	"oss.terrastruct.com/d2/d2layouts/d2elklayout"
	"oss.terrastruct.com/d2/d2lib"
	"oss.terrastruct.com/d2/d2renderers/d2svg"
	"oss.terrastruct.com/d2/d2themes/d2themescatalog"
	d2log "oss.terrastruct.com/d2/lib/log"
	"oss.terrastruct.com/d2/lib/textmeasure"

	"github.com/euforicio/richmd/internal/renderer/diagram"
)

var (
	// ErrEmptyDiagram is returned when the supplied diagram body is empty.
	ErrEmptyDiagram = errors.New("empty d2 diagram")
)

// Renderer is a diagram.Engine performing server-side D2 compilation. Layout
// directives inside the source take precedence over the configured layout.
type Renderer struct {
	logger *slog.Logger
}

// New creates a renderer instance.
func New(logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{logger: logger.With("component", "d2")}
}

func (r *Renderer) Name() string { return "d2" }

// Available checks that the text ruler, which needs the bundled fonts, can be
// initialised.
func (r *Renderer) Available(context.Context) error {
	if _, err := textmeasure.NewRuler(); err != nil {
		return fmt.Errorf("%w: init ruler: %v", diagram.ErrEngineUnavailable, err)
	}
	return nil
}

// Render compiles region.Source into SVG using cfg.D2.
func (r *Renderer) Render(ctx context.Context, region diagram.Region, cfg diagram.Config) (string, error) {
	if strings.TrimSpace(region.Source) == "" {
		return "", ErrEmptyDiagram
	}

	ctx = d2log.With(ctx, r.logger)

	// A ruler caches glyph metrics and is not shared between goroutines.
	ruler, err := textmeasure.NewRuler()
	if err != nil {
		return "", fmt.Errorf("init ruler: %w", err)
	}

	renderOpts := renderOptions(cfg.D2)
	layout := strings.ToLower(strings.TrimSpace(cfg.D2.Layout))
	if layout == "" {
		layout = "dagre"
	}
	compileOpts := &d2lib.CompileOptions{
		Ruler:          ruler,
		Layout:         &layout,
		LayoutResolver: r.layoutResolver,
	}

	compiled, _, err := d2lib.Compile(ctx, region.Source, compileOpts, renderOpts)
	if err != nil {
		return "", err
	}
	if compiled == nil {
		return "", errors.New("d2 compiler returned nil diagram")
	}

	svg, err := d2svg.Render(compiled, renderOpts)
	if err != nil {
		return "", fmt.Errorf("render svg: %w", err)
	}
	return string(svg), nil
}

func renderOptions(cfg diagram.D2Config) *d2svg.RenderOpts {
	themeID := d2themescatalog.NeutralDefault.ID
	if cfg.ThemeID >= 0 {
		themeID = cfg.ThemeID
	}
	darkThemeID := d2themescatalog.DarkFlagshipTerrastruct.ID
	if cfg.DarkThemeID >= 0 {
		darkThemeID = cfg.DarkThemeID
	}
	pad := int64(d2svg.DEFAULT_PADDING)
	if cfg.Pad >= 0 {
		pad = cfg.Pad
	}
	sketch := cfg.Sketch
	return &d2svg.RenderOpts{
		ThemeID:     &themeID,
		DarkThemeID: &darkThemeID,
		Pad:         &pad,
		Sketch:      &sketch,
	}
}

func (r *Renderer) layoutResolver(engine string) (d2graph.LayoutGraph, error) {
	switch strings.ToLower(engine) {
	case "", "dagre":
		return func(ctx context.Context, g *d2graph.Graph) error {
			return d2dagrelayout.Layout(ctx, g, nil)
		}, nil
	case "elk":
		return func(ctx context.Context, g *d2graph.Graph) error {
			return d2elklayout.Layout(ctx, g, nil)
		}, nil
	default:
		return nil, fmt.Errorf("unsupported D2 layout %q (install plugin for advanced engines)", engine)
	}
}
