package transform

import (
	"fmt"
	"html"
	"strconv"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/util"

	"github.com/euforicio/richmd/internal/i18n"
	"github.com/euforicio/richmd/internal/interactive"
	"github.com/euforicio/richmd/internal/renderer/diagram"
	"github.com/euforicio/richmd/internal/renderer/icon"
)

// DiagramBlock is a diagram fence included directly in the AST. A nil Result
// renders the pending placeholder.
type DiagramBlock struct {
	ast.BaseBlock
	Region diagram.Region
	Title  string
	Result *diagram.Result
	tr     i18n.Translator
}

// KindDiagramBlock is the goldmark node kind of DiagramBlock.
var KindDiagramBlock = ast.NewNodeKind("DiagramBlock")

// NewDiagramBlock returns an unresolved diagram node.
func NewDiagramBlock(id, engine string, region CodeRegion, tr i18n.Translator) *DiagramBlock {
	if tr == nil {
		tr = i18n.Identity
	}
	return &DiagramBlock{
		Region: diagram.Region{ID: id, Engine: engine, Source: region.Source},
		Title:  region.Title,
		tr:     tr,
	}
}

// Kind implements ast.Node.
func (b *DiagramBlock) Kind() ast.NodeKind { return KindDiagramBlock }

// IsRaw marks the node as raw HTML.
func (b *DiagramBlock) IsRaw() bool { return true }

// State is the render state, pending until a result is attached.
func (b *DiagramBlock) State() diagram.State {
	if b.Result == nil {
		return diagram.StatePending
	}
	return b.Result.State
}

// Dump aids debugging.
func (b *DiagramBlock) Dump(source []byte, level int) {
	info := map[string]string{
		"ID":     b.Region.ID,
		"Engine": b.Region.Engine,
		"Source": fmt.Sprintf("%d bytes", len(b.Region.Source)),
		"State":  b.State().String(),
	}
	if b.Result != nil && b.Result.Err != nil {
		info["Error"] = fmt.Sprintf("%q", b.Result.Err.Error())
	}
	if b.Result != nil && b.Result.Diagram.Duration > 0 {
		info["Runtime"] = b.Result.Diagram.Duration.String()
	}
	ast.DumpHelper(b, source, level, info, nil)
}

func (r *BlockRenderer) renderDiagramBlock(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkSkipChildren, nil
	}
	block := node.(*DiagramBlock)
	tr := block.tr
	state := block.State()

	fmt.Fprintf(w, `<figure class="diagram diagram-%s diagram-%s" id="%s" data-engine="%s" data-state="%s"`,
		html.EscapeString(block.Region.Engine),
		state,
		html.EscapeString(block.Region.ID),
		html.EscapeString(block.Region.Engine),
		state,
	)

	switch state {
	case diagram.StateRendered:
		rendered := block.Result.Diagram
		_, _ = w.WriteString(` data-viewer`)
		_, _ = w.WriteString(viewerLimits())
		fmt.Fprintf(w, ` tabindex="0" role="button" aria-label="%s"`, html.EscapeString(diagramLabel(block, tr)))
		if rendered.Duration > 0 {
			fmt.Fprintf(w, ` data-runtime-ms="%d"`, rendered.Duration.Milliseconds())
		}
		_, _ = w.WriteString(`><div class="diagram-hint">`)
		_, _ = w.WriteString(icon.SVG(icon.Maximize, "diagram-hint-icon"))
		_, _ = w.WriteString(`<span>`)
		_, _ = w.WriteString(html.EscapeString(tr("diagram.expand", nil)))
		_, _ = w.WriteString(`</span></div><div class="diagram-svg">`)
		_, _ = w.WriteString(rendered.Markup)
		_, _ = w.WriteString(`</div><template class="diagram-fullscreen">`)
		_, _ = w.WriteString(diagram.Fullscreen(rendered.Markup))
		_, _ = w.WriteString(`</template>`)
	case diagram.StateFailed:
		msg := ""
		if block.Result.Err != nil {
			msg = block.Result.Err.Error()
		}
		_, _ = w.WriteString(`><p class="diagram-error" role="alert">`)
		_, _ = w.WriteString(html.EscapeString(tr("diagram.failed", map[string]string{"error": msg})))
		_, _ = w.WriteString(`</p><pre class="diagram-source"><code>`)
		_, _ = w.WriteString(html.EscapeString(block.Region.Source))
		_, _ = w.WriteString(`</code></pre>`)
	default:
		// The source stays readable. richmd.js draws it when the page
		// provides mermaid.js, showing the loading line meanwhile.
		msg := ""
		if block.Result != nil && block.Result.Err != nil {
			msg = block.Result.Err.Error()
		}
		_, _ = w.WriteString(viewerLimits())
		fmt.Fprintf(w, ` data-inline-style="%s" data-fullscreen-style="%s" data-label="%s" data-label-failed="%s"`,
			html.EscapeString(diagram.InlineStyle),
			html.EscapeString(diagram.FullscreenStyle),
			html.EscapeString(diagramLabel(block, tr)),
			html.EscapeString(tr("diagram.failed", map[string]string{"error": "{error}"})),
		)
		_, _ = w.WriteString(`><p class="diagram-unavailable" role="note">`)
		if msg != "" {
			_, _ = w.WriteString(html.EscapeString(tr("diagram.unavailable", map[string]string{"error": msg})))
		} else {
			_, _ = w.WriteString(html.EscapeString(tr("diagram.unrendered", nil)))
		}
		_, _ = w.WriteString(`</p><div class="diagram-loading" hidden>`)
		_, _ = w.WriteString(html.EscapeString(tr("diagram.loading", nil)))
		_, _ = w.WriteString(`</div><pre class="diagram-source"><code>`)
		_, _ = w.WriteString(html.EscapeString(block.Region.Source))
		_, _ = w.WriteString(`</code></pre>`)
	}

	if _, err := w.WriteString("</figure>\n"); err != nil {
		return ast.WalkStop, err
	}
	return ast.WalkSkipChildren, nil
}

func diagramLabel(block *DiagramBlock, tr i18n.Translator) string {
	if block.Title != "" {
		return block.Title
	}
	return tr("diagram.label", nil)
}

// viewerLimits carries the viewer limits so the browser runtime applies
// the same clamps as interactive.Viewer.
func viewerLimits() string {
	return fmt.Sprintf(` data-viewer-min="%s" data-viewer-max="%s" data-viewer-key-step="%s" data-viewer-wheel-in="%s" data-viewer-wheel-out="%s"`,
		formatFloat(interactive.MinScale),
		formatFloat(interactive.MaxScale),
		formatFloat(interactive.KeyZoomFactor),
		formatFloat(interactive.WheelZoomIn),
		formatFloat(interactive.WheelZoomOut),
	)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ViewerTemplate is the fullscreen dialog shell cloned by the browser runtime
// when a diagram is opened. It is emitted once per document that has at least
// one rendered or pending diagram.
func ViewerTemplate(tr i18n.Translator) string {
	if tr == nil {
		tr = i18n.Identity
	}
	button := func(action, key, iconName string) string {
		label := html.EscapeString(tr(key, nil))
		return `<button type="button" class="viewer-button" data-viewer-action="` + action +
			`" title="` + label + `" aria-label="` + label + `">` + icon.SVG(iconName, "viewer-icon") + `</button>`
	}
	return `<template id="richmd-viewer"><div class="viewer" role="dialog" aria-modal="true" aria-label="` +
		html.EscapeString(tr("viewer.title", nil)) + `">` +
		`<div class="viewer-backdrop" data-viewer-action="close"></div>` +
		`<div class="viewer-toolbar">` +
		button("zoom-out", "viewer.zoom_out", icon.ZoomOut) +
		`<span class="viewer-percent" aria-live="polite">` +
		html.EscapeString(tr("viewer.zoom", map[string]string{"percent": "100"})) + `</span>` +
		button("zoom-in", "viewer.zoom_in", icon.ZoomIn) +
		`<span class="viewer-sep"></span>` +
		button("reset", "viewer.reset", icon.Refresh) +
		`<span class="viewer-sep"></span>` +
		button("close", "viewer.close", icon.Close) +
		`</div>` +
		`<div class="viewer-hint">` + html.EscapeString(tr("viewer.hint", nil)) + `</div>` +
		`<div class="viewer-stage"><div class="viewer-canvas"></div></div>` +
		`</div></template>` + "\n"
}
