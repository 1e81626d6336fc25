// Package renderer assembles rich HTML documents from markdown: directives
// become callouts, code is highlighted, diagrams are rendered to inline SVG
// and headings get anchor ids.
package renderer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/yuin/goldmark"
	goldmarkmeta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmrenderer "github.com/yuin/goldmark/renderer"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"go.abhg.dev/goldmark/anchor"
	"golang.org/x/sync/errgroup"

	"github.com/euforicio/richmd/internal/i18n"
	"github.com/euforicio/richmd/internal/renderer/d2"
	"github.com/euforicio/richmd/internal/renderer/diagram"
	"github.com/euforicio/richmd/internal/renderer/directive"
	"github.com/euforicio/richmd/internal/renderer/highlight"
	"github.com/euforicio/richmd/internal/renderer/mermaid"
	"github.com/euforicio/richmd/internal/renderer/transform"
)

// Options configure a Service. Zero values select the defaults.
type Options struct {
	Highlight highlight.Options
	Diagram   diagram.Config

	// DiagramTimeout bounds one diagram render.
	DiagramTimeout time.Duration
	// HighlightTimeout bounds one highlight job; a block that misses it
	// shows its raw code.
	HighlightTimeout time.Duration
	// CacheSize bounds the diagram result cache. Highlight results use
	// Highlight.CacheSize.
	CacheSize int
	// Concurrency limits the jobs of one document running at once.
	Concurrency int

	MermaidBinary   string
	PuppeteerConfig string
	// EnableD2 routes d2 fences to the embedded d2 engine.
	EnableD2 bool
	// Engines replaces the default engines when non-nil.
	Engines []diagram.Engine

	Catalog *i18n.Catalog
}

// DefaultOptions returns the options used by the CLI before configuration
// is applied.
func DefaultOptions() Options {
	return Options{
		Highlight:        highlight.DefaultOptions(),
		Diagram:          diagram.DefaultConfig(),
		DiagramTimeout:   15 * time.Second,
		HighlightTimeout: 5 * time.Second,
		CacheSize:        256,
		Concurrency:      runtime.GOMAXPROCS(0),
	}
}

// Input is one render request.
type Input struct {
	Source   string
	BasePath string
	// HideFirstHeading drops a leading level-1 heading; its text becomes the
	// title fallback.
	HideFirstHeading bool
	Theme            highlight.Theme
	Locale           string
}

// Heading is an entry of the document outline.
type Heading struct {
	Level int    `json:"level"`
	ID    string `json:"id"`
	Text  string `json:"text"`
}

// Stats counts what a render produced.
type Stats struct {
	CodeBlocks         int `json:"codeBlocks"`
	Diagrams           int `json:"diagrams"`
	DiagramFailures    int `json:"diagramFailures"`
	DiagramsPending    int `json:"diagramsPending"`
	Callouts           int `json:"callouts"`
	HighlightFallbacks int `json:"highlightFallbacks"`
}

// Document represents a rendered markdown source.
//
//nolint:govet // field order optimized for readability, not memory
type Document struct {
	HTML     string
	Metadata Metadata
	Headings []Heading
	Blocks   []transform.NodeKind
	Stats    Stats
	Raw      string
}

// Service renders markdown into rich HTML. It is safe for concurrent use.
type Service struct {
	md          goldmark.Markdown
	highlighter *highlight.Highlighter
	diagrams    *diagram.Renderer
	diagramCfg  diagram.Config
	catalog     *i18n.Catalog
	opts        Options
	logger      *slog.Logger
}

// NewService constructs the renderer. The goldmark pipeline includes:
//   - GitHub-flavored markdown extensions (tables, strikethrough, task lists, autolinks)
//   - YAML frontmatter parsing for document metadata
//   - container, leaf and text directives with callout normalisation
//   - heading anchors with deduplicated ids
//   - code and diagram routing resolved concurrently by Render
//
// Raw HTML in the source is never emitted. If logger is nil, the default
// slog logger is used.
func NewService(logger *slog.Logger, opts Options) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultOptions()
	if opts.Diagram == (diagram.Config{}) {
		opts.Diagram = defaults.Diagram
	}
	if opts.DiagramTimeout <= 0 {
		opts.DiagramTimeout = defaults.DiagramTimeout
	}
	if opts.HighlightTimeout <= 0 {
		opts.HighlightTimeout = defaults.HighlightTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaults.Concurrency
	}
	if opts.Catalog == nil {
		opts.Catalog = i18n.NewCatalog()
	}

	hl, err := highlight.New(logger, opts.Highlight)
	if err != nil {
		return nil, err
	}

	engines := opts.Engines
	if engines == nil {
		engines = []diagram.Engine{mermaid.New(logger, mermaid.Options{
			Binary:          opts.MermaidBinary,
			PuppeteerConfig: opts.PuppeteerConfig,
		})}
		if opts.EnableD2 {
			engines = append(engines, d2.New(logger))
		}
	}
	diagrams, err := diagram.NewRenderer(logger, diagram.Options{
		Timeout:   opts.DiagramTimeout,
		CacheSize: opts.CacheSize,
	}, engines...)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			goldmarkmeta.Meta,
			directive.Extender{},
			&anchor.Extender{
				Texter:     anchor.Text("#"),
				Position:   anchor.Before,
				Attributer: anchor.Attributes{"class": "heading-anchor"},
			},
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(transform.NewClassifyTransformer(opts.EnableD2), 200),
				util.Prioritized(&transform.LinkTransformer{}, 300),
			),
		),
		goldmark.WithRendererOptions(
			htmlrenderer.WithXHTML(),
			gmrenderer.WithNodeRenderers(
				util.Prioritized(transform.NewBlockRenderer(), 100),
			),
		),
	)

	return &Service{
		md:          md,
		highlighter: hl,
		diagrams:    diagrams,
		diagramCfg:  opts.Diagram,
		catalog:     opts.Catalog,
		opts:        opts,
		logger:      logger.With("component", "renderer"),
	}, nil
}

// Highlighter returns the shared highlighter, for stylesheet generation.
func (s *Service) Highlighter() *highlight.Highlighter { return s.highlighter }

// Diagrams returns the shared diagram renderer and its configuration.
func (s *Service) Diagrams() (*diagram.Renderer, diagram.Config) {
	return s.diagrams, s.diagramCfg
}

// Catalog returns the message catalog used for translated labels.
func (s *Service) Catalog() *i18n.Catalog { return s.catalog }

// Render converts in.Source to HTML. Highlight and diagram jobs run
// concurrently; failures stay inside their block. If ctx ends before the
// jobs finish the partial result is discarded and the context error is
// returned.
func (s *Service) Render(ctx context.Context, in Input) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	theme, err := highlight.ParseTheme(string(in.Theme))
	if err != nil {
		return Document{}, err
	}
	tr := s.catalog.Translator(in.Locale)

	pc := parser.NewContext(parser.WithIDs(newHeadingIDs()))
	i18n.WithParserContext(pc, tr)
	transform.WithBasePath(pc, in.BasePath)

	source := []byte(in.Source)
	root := s.md.Parser().Parse(text.NewReader(source), parser.WithContext(pc))

	var titleFallback string
	if in.HideFirstHeading {
		titleFallback = hideFirstHeading(root, source)
	}

	col := collect(root, source)
	if err := s.resolve(ctx, col, theme); err != nil {
		return Document{}, err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<div class="richmd richmd-%s">`+"\n", theme)
	if err := s.md.Renderer().Render(&buf, source, root); err != nil {
		return Document{}, fmt.Errorf("render markdown: %w", err)
	}
	stats := col.stats()
	// Pending diagrams may still be drawn in the browser.
	if stats.Diagrams-stats.DiagramFailures > 0 {
		buf.WriteString(transform.ViewerTemplate(tr))
	}
	buf.WriteString("</div>\n")

	meta := extractMetadata(pc)
	if meta.Title == "" {
		meta.Title = titleFallback
	}

	return Document{
		HTML:     buf.String(),
		Metadata: meta,
		Headings: col.headings,
		Blocks:   transform.Outline(root),
		Stats:    stats,
		Raw:      in.Source,
	}, nil
}

// resolve runs every highlight and diagram job of the document. Each job
// writes only to its own node.
func (s *Service) resolve(ctx context.Context, col *collection, theme highlight.Theme) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for _, block := range col.code {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s.highlightBlock(gctx, block, theme)
			return nil
		})
	}
	for _, block := range col.diagrams {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := s.diagrams.Render(gctx, block.Region, s.diagramCfg)
			block.Result = &res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

type highlightOutcome struct {
	res highlight.Result
	err error
}

func (s *Service) highlightBlock(ctx context.Context, block *transform.CodeBlock, theme highlight.Theme) {
	jctx, cancel := context.WithTimeout(ctx, s.opts.HighlightTimeout)
	defer cancel()

	done := make(chan highlightOutcome, 1)
	go func() {
		res, err := s.highlighter.Highlight(jctx, block.Region.Source, block.Region.Language, theme)
		done <- highlightOutcome{res: res, err: err}
	}()

	select {
	case <-jctx.Done():
		s.logger.Warn("highlight did not finish, showing raw code", "language", block.Region.Language, "err", jctx.Err())
	case out := <-done:
		if out.err != nil {
			s.logger.Warn("highlight failed, showing raw code", "language", block.Region.Language, "err", out.err)
			return
		}
		block.Result = &out.res
	}
}

// hideFirstHeading removes a leading level-1 heading and returns its text.
func hideFirstHeading(root ast.Node, source []byte) string {
	h, ok := root.FirstChild().(*ast.Heading)
	if !ok || h.Level != 1 {
		return ""
	}
	title := nodeText(h, source)
	root.RemoveChild(root, h)
	return title
}

type collection struct {
	code     []*transform.CodeBlock
	plain    int
	diagrams []*transform.DiagramBlock
	callouts int
	headings []Heading
}

func collect(root ast.Node, source []byte) *collection {
	col := &collection{}
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *transform.CodeBlock:
			col.code = append(col.code, node)
		case *transform.PlainCodeBlock:
			col.plain++
		case *transform.DiagramBlock:
			col.diagrams = append(col.diagrams, node)
		case *ast.Heading:
			id := ""
			if v, ok := node.AttributeString("id"); ok {
				if b, ok := v.([]byte); ok {
					id = string(b)
				}
			}
			col.headings = append(col.headings, Heading{Level: node.Level, ID: id, Text: nodeText(node, source)})
			return ast.WalkSkipChildren, nil
		default:
			if transform.KindOf(n) == transform.NodeCallout {
				col.callouts++
			}
		}
		return ast.WalkContinue, nil
	})
	return col
}

func (c *collection) stats() Stats {
	st := Stats{
		CodeBlocks: len(c.code) + c.plain,
		Diagrams:   len(c.diagrams),
		Callouts:   c.callouts,
	}
	for _, block := range c.code {
		if block.Result == nil || block.Result.Fallback {
			st.HighlightFallbacks++
		}
	}
	for _, block := range c.diagrams {
		switch block.State() {
		case diagram.StateFailed:
			st.DiagramFailures++
		case diagram.StatePending:
			st.DiagramsPending++
		}
	}
	return st
}

// nodeText concatenates the text content below n.
func nodeText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}
