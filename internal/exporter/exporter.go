// Package exporter writes rendered markdown as standalone pages, fragments,
// plain text, portable markdown, PDF or whole directory sites.
package exporter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"strings"

	"github.com/euforicio/richmd/internal/buildinfo"
	"github.com/euforicio/richmd/internal/renderer"
	"github.com/euforicio/richmd/internal/renderer/highlight"
	"github.com/euforicio/richmd/static"
)

// Format represents an export format.
type Format string

const (
	// FormatHTML exports a standalone HTML page with inlined assets.
	FormatHTML Format = "html"
	// FormatFragment exports the rendered document markup only.
	FormatFragment Format = "fragment"
	// FormatPlainText exports the visible text.
	FormatPlainText Format = "txt"
	// FormatMarkdown exports markdown.
	FormatMarkdown Format = "md"
	// FormatPDF exports as PDF.
	FormatPDF Format = "pdf"
)

// ValidFormats returns the list of supported export formats.
func ValidFormats() []Format {
	return []Format{FormatHTML, FormatFragment, FormatPlainText, FormatMarkdown, FormatPDF}
}

// ParseFormat normalizes s. "markdown" is accepted for md.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "markdown" {
		f = FormatMarkdown
	}
	for _, valid := range ValidFormats() {
		if f == valid {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported format: %s (allowed: html, fragment, txt, md, pdf)", s)
}

// IsValidFormat checks if the given format is valid.
func IsValidFormat(format string) bool {
	_, err := ParseFormat(format)
	return err == nil
}

// Options configures a single document export.
type Options struct {
	Format Format
	// Title overrides the document title in standalone pages.
	Title string
	// Portable rasterizes diagrams into embedded PNG images and flattens
	// callouts into blockquotes when exporting markdown.
	Portable bool
	// PDFStyle is the chroma style for PDF code blocks.
	PDFStyle string
}

// Exporter writes rendered documents. It is safe for concurrent use.
type Exporter struct {
	renderer  *renderer.Service
	templates *templateRenderer
	encoder   *markdownEncoder
	logger    *slog.Logger
}

// New constructs an exporter around svc.
func New(logger *slog.Logger, svc *renderer.Service) (*Exporter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if svc == nil {
		return nil, errors.New("renderer service is required")
	}

	tmpl, err := newTemplateRenderer()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	diagrams, cfg := svc.Diagrams()
	return &Exporter{
		renderer:  svc,
		templates: tmpl,
		encoder:   newMarkdownEncoder(diagrams, cfg, logger),
		logger:    logger.With("component", "exporter"),
	}, nil
}

// Export renders in and writes it to w in the requested format. The
// returned document is empty for markdown and PDF output, which do not go
// through the HTML pipeline.
func (e *Exporter) Export(ctx context.Context, w io.Writer, in renderer.Input, opts Options) (renderer.Document, error) {
	if w == nil {
		return renderer.Document{}, errors.New("writer is required")
	}
	format, err := ParseFormat(string(opts.Format))
	if err != nil {
		return renderer.Document{}, err
	}

	switch format {
	case FormatHTML:
		return e.exportHTML(ctx, w, in, opts.Title, assetRefs{}, "")
	case FormatFragment:
		return e.exportFragment(ctx, w, in)
	case FormatPlainText:
		return e.exportPlainText(ctx, w, in)
	case FormatMarkdown:
		return renderer.Document{Raw: in.Source}, e.exportMarkdown(ctx, w, in, opts.Portable)
	case FormatPDF:
		return renderer.Document{Raw: in.Source}, e.exportPDF(ctx, w, in, opts.PDFStyle)
	default:
		return renderer.Document{}, fmt.Errorf("unsupported format: %s", format)
	}
}

func (e *Exporter) exportHTML(ctx context.Context, w io.Writer, in renderer.Input, title string, assets assetRefs, back string) (renderer.Document, error) {
	doc, err := e.renderer.Render(ctx, in)
	if err != nil {
		return doc, fmt.Errorf("render html: %w", err)
	}

	theme, err := highlight.ParseTheme(string(in.Theme))
	if err != nil {
		return doc, err
	}

	data := pageViewData{
		Lang:     firstNonEmpty(in.Locale, "en"),
		Version:  buildinfo.Version,
		Title:    firstNonEmpty(title, doc.Metadata.Title, "Untitled"),
		Theme:    string(theme),
		Metadata: doc.Metadata,
		Body:     template.HTML(doc.HTML), //nolint:gosec // HTML from trusted renderer
		Assets:   assets,
	}
	if title != "" || in.HideFirstHeading {
		data.Heading = firstNonEmpty(title, doc.Metadata.Title)
	}
	if back != "" {
		data.Back = back
		data.BackLabel = "Index"
	}
	if !assets.Linked {
		css, err := e.renderer.Highlighter().Stylesheet()
		if err != nil {
			return doc, fmt.Errorf("highlight stylesheet: %w", err)
		}
		data.Stylesheet = template.CSS(static.Stylesheet()) //nolint:gosec // embedded asset
		data.HighlightCSS = template.CSS(css)                //nolint:gosec // generated by chroma
		data.Script = template.JS(static.Script())           //nolint:gosec // embedded asset
	}

	var buf bytes.Buffer
	if err := e.templates.render(&buf, "page", data); err != nil {
		return doc, fmt.Errorf("execute page template: %w", err)
	}
	_, err = w.Write(buf.Bytes())
	return doc, err
}

func (e *Exporter) exportFragment(ctx context.Context, w io.Writer, in renderer.Input) (renderer.Document, error) {
	doc, err := e.renderer.Render(ctx, in)
	if err != nil {
		return doc, fmt.Errorf("render fragment: %w", err)
	}
	_, err = io.WriteString(w, doc.HTML)
	return doc, err
}

func (e *Exporter) exportPlainText(ctx context.Context, w io.Writer, in renderer.Input) (renderer.Document, error) {
	doc, err := e.renderer.Render(ctx, in)
	if err != nil {
		return doc, fmt.Errorf("render text: %w", err)
	}

	text, err := plainText(doc.HTML)
	if err != nil {
		return doc, fmt.Errorf("extract text: %w", err)
	}
	if in.HideFirstHeading && doc.Metadata.Title != "" {
		text = doc.Metadata.Title + "\n\n" + text
	}
	_, err = io.WriteString(w, text+"\n")
	return doc, err
}

func (e *Exporter) exportMarkdown(ctx context.Context, w io.Writer, in renderer.Input, portable bool) error {
	raw := []byte(in.Source)
	if portable {
		tr := e.renderer.Catalog().Translator(in.Locale)
		encoded, err := e.encoder.encode(ctx, raw, tr)
		if err != nil {
			return fmt.Errorf("encode markdown: %w", err)
		}
		raw = encoded
	}
	_, err := w.Write(raw)
	return err
}

// ContentType returns the MIME type for the given format.
func ContentType(format Format) string {
	switch format {
	case FormatHTML, FormatFragment:
		return "text/html; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatPlainText:
		return "text/plain; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// FileExtension returns the file extension for the given format.
func FileExtension(format Format) string {
	switch format {
	case FormatHTML, FormatFragment:
		return ".html"
	case FormatMarkdown:
		return ".md"
	case FormatPlainText:
		return ".txt"
	case FormatPDF:
		return ".pdf"
	default:
		return ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
