package exporter

import (
	"embed"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/euforicio/richmd/internal/renderer"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

type templateRenderer struct {
	tmpl *template.Template
}

func newTemplateRenderer() (*templateRenderer, error) {
	funcs := template.FuncMap{
		"join": strings.Join,
		"formatTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Local().Format("Jan 2, 2006 3:04 PM")
		},
		"hasMetadata": func(meta renderer.Metadata) bool {
			return !meta.IsZero()
		},
	}

	base, err := template.New("exporter").Funcs(funcs).ParseFS(templateFS, "templates/*.gohtml")
	if err != nil {
		return nil, err
	}
	return &templateRenderer{tmpl: base}, nil
}

func (r *templateRenderer) render(w io.Writer, name string, data any) error {
	return r.tmpl.ExecuteTemplate(w, name, data)
}

// assetRefs points a page at linked assets. The zero value inlines them.
type assetRefs struct {
	Linked     bool
	Stylesheet string
	Highlight  string
	Script     string
}

//nolint:govet // field order optimized for readability, not memory
type pageViewData struct {
	Lang         string
	Version      string
	Title        string
	Heading      string
	Theme        string
	Metadata     renderer.Metadata
	Body         template.HTML
	Stylesheet   template.CSS
	HighlightCSS template.CSS
	Script       template.JS
	Assets       assetRefs
	Back         string
	BackLabel    string
}

type indexEntry struct {
	URL         string
	Title       string
	Description string
}

//nolint:govet // field order optimized for readability, not memory
type indexViewData struct {
	Lang        string
	Version     string
	Title       string
	Theme       string
	Pages       []indexEntry
	Assets      assetRefs
	GeneratedAt time.Time
}
