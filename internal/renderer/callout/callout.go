// Package callout maps admonition kinds to their presentation and writes
// the callout markup.
package callout

import (
	"html"
	"strings"

	"github.com/yuin/goldmark/util"

	"github.com/euforicio/richmd/internal/renderer/icon"
)

// Kind identifies a callout flavour.
type Kind string

// Supported kinds.
const (
	Note    Kind = "note"
	Tip     Kind = "tip"
	Info    Kind = "info"
	Warning Kind = "warning"
	Danger  Kind = "danger"
	Caution Kind = "caution"
)

// Kinds lists every supported kind in display order.
var Kinds = []Kind{Note, Tip, Info, Warning, Danger, Caution}

// Template is the presentation bound to a kind.
type Template struct {
	Kind Kind
	// Icon is an identifier understood by the icon package.
	Icon string
	// Title is the default English heading. Callers translate through the
	// "callout.<kind>" message key and fall back to this value.
	Title  string
	Accent string
}

var templates = map[Kind]Template{
	Note:    {Kind: Note, Icon: icon.InfoCircle, Title: "Note", Accent: "blue"},
	Tip:     {Kind: Tip, Icon: icon.Bulb, Title: "Tip", Accent: "green"},
	Info:    {Kind: Info, Icon: icon.InfoCircle, Title: "Info", Accent: "cyan"},
	Warning: {Kind: Warning, Icon: icon.AlertTriangle, Title: "Warning", Accent: "amber"},
	Danger:  {Kind: Danger, Icon: icon.AlertCircle, Title: "Danger", Accent: "red"},
	Caution: {Kind: Caution, Icon: icon.Flame, Title: "Caution", Accent: "orange"},
}

// Parse reports whether name is a callout kind.
func Parse(name string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	_, ok := templates[k]
	return k, ok
}

// Lookup returns the template for kind, or the note template when kind is
// not recognised.
func Lookup(kind Kind) Template {
	if t, ok := templates[kind]; ok {
		return t
	}
	return templates[Note]
}

// MessageKey is the translation key of the default title for kind.
func MessageKey(kind Kind) string {
	return "callout." + string(Lookup(kind).Kind)
}

// Open writes the callout header and opens the body container. The title is
// escaped; an empty title falls back to the template default.
func Open(w util.BufWriter, tpl Template, title string) {
	if title == "" {
		title = tpl.Title
	}
	_, _ = w.WriteString(`<div class="callout callout-`)
	_, _ = w.WriteString(string(tpl.Kind))
	_, _ = w.WriteString(` accent-`)
	_, _ = w.WriteString(tpl.Accent)
	_, _ = w.WriteString(`" data-callout="`)
	_, _ = w.WriteString(string(tpl.Kind))
	_, _ = w.WriteString(`" role="note">`)
	_, _ = w.WriteString(`<div class="callout-title">`)
	_, _ = w.WriteString(icon.SVG(tpl.Icon, "callout-icon"))
	_, _ = w.WriteString(`<span>`)
	_, _ = w.WriteString(html.EscapeString(title))
	_, _ = w.WriteString(`</span></div><div class="callout-body">`)
}

// Close terminates the markup started by Open.
func Close(w util.BufWriter) {
	_, _ = w.WriteString("</div></div>\n")
}

// OpenInline writes the inline (span) variant used by text directives.
func OpenInline(w util.BufWriter, tpl Template, title string) {
	if title == "" {
		title = tpl.Title
	}
	_, _ = w.WriteString(`<span class="callout-inline callout-`)
	_, _ = w.WriteString(string(tpl.Kind))
	_, _ = w.WriteString(` accent-`)
	_, _ = w.WriteString(tpl.Accent)
	_, _ = w.WriteString(`" data-callout="`)
	_, _ = w.WriteString(string(tpl.Kind))
	_, _ = w.WriteString(`" title="`)
	_, _ = w.WriteString(html.EscapeString(title))
	_, _ = w.WriteString(`">`)
	_, _ = w.WriteString(icon.SVG(tpl.Icon, "callout-icon"))
}

// CloseInline terminates the markup started by OpenInline.
func CloseInline(w util.BufWriter) {
	_, _ = w.WriteString(`</span>`)
}
