package exporter

import (
	"context"
	"fmt"
	"io"

	pdf "github.com/stephenafamo/goldmark-pdf"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/euforicio/richmd/internal/renderer"
)

const defaultPDFStyle = "github"

func (e *Exporter) exportPDF(ctx context.Context, w io.Writer, in renderer.Input, style string) error {
	if style == "" {
		style = defaultPDFStyle
	}

	tr := e.renderer.Catalog().Translator(in.Locale)
	raw, err := e.encoder.encode(ctx, []byte(in.Source), tr)
	if err != nil {
		return fmt.Errorf("encode markdown: %w", err)
	}

	// The PDF renderer has no hooks for custom nodes, so it works from the
	// flattened markdown.
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			meta.Meta,
			highlighting.NewHighlighting(
				highlighting.WithStyle(style),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRenderer(pdf.New()),
	)

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := md.Convert(raw, w); err != nil {
		return fmt.Errorf("convert markdown to PDF: %w", err)
	}
	return nil
}
