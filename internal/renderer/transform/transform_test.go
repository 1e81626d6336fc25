package transform_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/euforicio/richmd/internal/i18n"
	"github.com/euforicio/richmd/internal/renderer/diagram"
	"github.com/euforicio/richmd/internal/renderer/directive"
	"github.com/euforicio/richmd/internal/renderer/highlight"
	"github.com/euforicio/richmd/internal/renderer/transform"
)

func newMarkdown(enableD2 bool) goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM, directive.Extender{}),
		goldmark.WithParserOptions(parser.WithASTTransformers(
			util.Prioritized(transform.NewClassifyTransformer(enableD2), 200),
			util.Prioritized(&transform.LinkTransformer{}, 300),
		)),
		goldmark.WithRendererOptions(renderer.WithNodeRenderers(
			util.Prioritized(transform.NewBlockRenderer(), 100),
		)),
	)
}

// parse returns the document AST and a function rendering it.
func parse(t *testing.T, md goldmark.Markdown, src string, setup func(parser.Context)) (ast.Node, func() string) {
	t.Helper()
	pc := parser.NewContext()
	i18n.WithParserContext(pc, i18n.NewCatalog().Translator("en"))
	if setup != nil {
		setup(pc)
	}
	source := []byte(src)
	doc := md.Parser().Parse(text.NewReader(source), parser.WithContext(pc))
	return doc, func() string {
		var buf bytes.Buffer
		if err := md.Renderer().Render(&buf, source, doc); err != nil {
			t.Fatalf("render: %v", err)
		}
		return buf.String()
	}
}

func query(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		region   transform.CodeRegion
		enableD2 bool
		want     transform.Route
	}{
		{"mermaid", transform.CodeRegion{Language: "mermaid", Source: "graph TD\nA-->B"}, false, transform.RouteDiagram},
		{"mermaid upper case", transform.CodeRegion{Language: "Mermaid", Source: "graph TD"}, false, transform.RouteDiagram},
		{"d2 disabled", transform.CodeRegion{Language: "d2", Source: "a -> b"}, false, transform.RouteHighlight},
		{"d2 enabled", transform.CodeRegion{Language: "d2", Source: "a -> b"}, true, transform.RouteDiagram},
		{"single line without language", transform.CodeRegion{Source: "npm install"}, false, transform.RouteInline},
		{"language present", transform.CodeRegion{Language: "python", Source: "print(1)"}, false, transform.RouteHighlight},
		{"unknown language", transform.CodeRegion{Language: "klingon", Source: "x\ny"}, false, transform.RouteHighlight},
		{"multi line without language", transform.CodeRegion{Source: "a\nb"}, false, transform.RoutePlain},
		{"code span", transform.CodeRegion{Language: "go", Source: "x", Inline: true}, false, transform.RouteInline},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := transform.Classifier{EnableD2: tc.enableD2}.Classify(tc.region)
			if got != tc.want {
				t.Fatalf("Classify(%+v) = %v, want %v", tc.region, got, tc.want)
			}
		})
	}
	if transform.Classify(transform.CodeRegion{Language: "d2", Source: "a"}) != transform.RouteHighlight {
		t.Fatal("package Classify must leave d2 disabled")
	}
}

func TestParseInfo(t *testing.T) {
	t.Parallel()

	cases := []struct {
		info, lang, title string
	}{
		{"", "", ""},
		{"go", "go", ""},
		{`go title="main.go"`, "go", "main.go"},
		{`ts title='app entry.ts'`, "ts", "app entry.ts"},
		{"python {linenos=true}", "python", ""},
		{`title="only"`, "", "only"},
	}
	for _, tc := range cases {
		lang, title := transform.ParseInfo(tc.info)
		if lang != tc.lang || title != tc.title {
			t.Errorf("ParseInfo(%q) = %q, %q; want %q, %q", tc.info, lang, title, tc.lang, tc.title)
		}
	}
}

const mixedSource = "Use `go test` here.\n\n" +
	"```mermaid\ngraph TD\nA-->B\n```\n\n" +
	"```go title=\"main.go\"\npackage main\n```\n\n" +
	"```\nline one\nline two\n```\n\n" +
	"```\nnpm install\n```\n\n" +
	"```d2\na -> b\n```\n\n" +
	"```mermaid\nsequenceDiagram\n```\n"

func TestClassifyTransformerUnresolved(t *testing.T) {
	t.Parallel()

	_, render := parse(t, newMarkdown(false), mixedSource, nil)
	html := render()
	doc := query(t, html)

	if got := doc.Find("p code.code-inline").Text(); got != "go test" {
		t.Fatalf("code span = %q\n%s", got, html)
	}

	figures := doc.Find("figure.diagram")
	if figures.Length() != 2 {
		t.Fatalf("expected 2 diagrams, got %d\n%s", figures.Length(), html)
	}
	if id, _ := figures.Eq(0).Attr("id"); id != "diagram-1" {
		t.Fatalf("first diagram id = %q", id)
	}
	if id, _ := figures.Eq(1).Attr("id"); id != "diagram-2" {
		t.Fatalf("second diagram id = %q", id)
	}
	if state, _ := figures.Eq(0).Attr("data-state"); state != "pending" {
		t.Fatalf("unresolved diagram state = %q", state)
	}
	if got := figures.Eq(0).Find(".diagram-loading").Text(); got != "Loading diagram…" {
		t.Fatalf("loading text = %q", got)
	}
	if got := figures.Eq(0).Find("pre.diagram-source code").Text(); got != "graph TD\nA-->B" {
		t.Fatalf("embedded source = %q", got)
	}

	blocks := doc.Find("div.code-block")
	if blocks.Length() != 2 {
		t.Fatalf("expected go and d2 code blocks, got %d\n%s", blocks.Length(), html)
	}
	goBlock := blocks.Eq(0)
	if got := goBlock.Find(".code-language").Text(); got != "main.go" {
		t.Fatalf("title = %q", got)
	}
	if got := goBlock.Find(".code-raw code").Text(); got != "package main" {
		t.Fatalf("raw fallback = %q", got)
	}
	button := goBlock.Find("button.code-copy")
	if ms, _ := button.Attr("data-copied-ms"); ms != "2000" {
		t.Fatalf("copied window = %q", ms)
	}
	if got := button.Find(".code-copy-text").Text(); got != "Copy" {
		t.Fatalf("copy label = %q", got)
	}
	if got := blocks.Eq(1).Find(".code-language").Text(); got != "D2" {
		t.Fatalf("d2 header = %q", got)
	}

	plain := doc.Find("pre.code-plain")
	if plain.Length() != 2 {
		t.Fatalf("expected 2 plain blocks, got %d", plain.Length())
	}
	if plain.Eq(0).Find("code.code-inline").Length() != 0 {
		t.Fatal("multi-line block must not use inline styling")
	}
	if got := plain.Eq(1).Find("code.code-inline").Text(); got != "npm install" {
		t.Fatalf("single-line block = %q", got)
	}
}

func TestClassifyTransformerD2Enabled(t *testing.T) {
	t.Parallel()

	_, render := parse(t, newMarkdown(true), "```d2\na -> b\n```\n", nil)
	doc := query(t, render())
	if engine, _ := doc.Find("figure.diagram").Attr("data-engine"); engine != "d2" {
		t.Fatalf("d2 fence should become a diagram, engine=%q", engine)
	}
}

func collect[T ast.Node](root ast.Node) []T {
	var out []T
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if typed, ok := n.(T); ok && entering {
			out = append(out, typed)
		}
		return ast.WalkContinue, nil
	})
	return out
}

func TestResolvedBlocks(t *testing.T) {
	t.Parallel()

	src := "```go\nfunc main() {}\n```\n\n```js\nlet a\n```\n\n" +
		"```mermaid\ngraph TD\n```\n\n```mermaid\nbroken <b>\n```\n"
	doc, render := parse(t, newMarkdown(false), src, nil)

	codes := collect[*transform.CodeBlock](doc)
	if len(codes) != 2 {
		t.Fatalf("code blocks = %d", len(codes))
	}
	codes[0].Result = &highlight.Result{HTML: `<pre class="chroma"><code>hl</code></pre>`}
	codes[1].Result = &highlight.Result{Light: `<pre>light</pre>`, Dark: `<pre>dark</pre>`}

	diagrams := collect[*transform.DiagramBlock](doc)
	if len(diagrams) != 2 {
		t.Fatalf("diagrams = %d", len(diagrams))
	}
	markup := `<svg id="m" viewBox="0 0 10 10" style="` + diagram.InlineStyle + `"><g/></svg>`
	diagrams[0].Result = &diagram.Result{State: diagram.StateRendered, Diagram: diagram.Rendered{Markup: markup}}
	diagrams[1].Result = &diagram.Result{State: diagram.StateFailed, Err: errors.New("Parse error on line 1")}

	html := render()
	page := query(t, html)

	if page.Find("div.code-body pre.chroma").Length() != 1 {
		t.Fatalf("class-mode body missing\n%s", html)
	}
	if page.Find(".code-variant-light").Text() != "light" || page.Find(".code-variant-dark").Text() != "dark" {
		t.Fatalf("inline variants missing\n%s", html)
	}

	rendered := page.Find("figure.diagram-rendered")
	for attr, want := range map[string]string{
		"data-viewer-min":      "0.25",
		"data-viewer-max":      "5",
		"data-viewer-key-step": "1.25",
		"data-viewer-wheel-in": "1.1",
		"aria-label":           "Diagram",
	} {
		if got, _ := rendered.Attr(attr); got != want {
			t.Errorf("%s = %q, want %q", attr, got, want)
		}
	}
	if got := rendered.Find(".diagram-hint span").Text(); got != "Click to expand" {
		t.Fatalf("hint = %q", got)
	}
	if rendered.Find(".diagram-svg svg").Length() != 1 {
		t.Fatalf("inline svg missing\n%s", html)
	}
	if !strings.Contains(html, `<template class="diagram-fullscreen"><svg id="m" viewBox="0 0 10 10" style="`+diagram.FullscreenStyle+`">`) {
		t.Fatalf("fullscreen variant missing\n%s", html)
	}

	failed := page.Find("figure.diagram-failed")
	if got := failed.Find(".diagram-error").Text(); got != "Failed to render diagram: Parse error on line 1" {
		t.Fatalf("failure text = %q", got)
	}
	if got := failed.Find(".diagram-source code").Text(); got != "broken <b>" {
		t.Fatalf("failure source = %q", got)
	}
	if strings.Contains(html, "<b>") {
		t.Fatal("diagram source must be escaped")
	}
}

func TestKindOfAndOutline(t *testing.T) {
	t.Parallel()

	src := "# Title\n\nText with ![img](a.png) and [link](b).\n\n- one\n- two\n\n" +
		"| a | b |\n|---|---|\n| 1 | 2 |\n\n> quote\n\n---\n\n" +
		":::note\nbody\n:::\n\n:::custom\nbody\n:::\n\n```mermaid\ngraph TD\n```\n\n```go\nx\n```\n"
	doc, _ := parse(t, newMarkdown(false), src, nil)

	got := transform.Outline(doc)
	want := []transform.NodeKind{
		transform.NodeHeading,
		transform.NodeParagraph,
		transform.NodeList,
		transform.NodeTable,
		transform.NodeBlockquote,
		transform.NodeRule,
		transform.NodeCallout,
		transform.NodeOther,
		transform.NodeDiagramBlock,
		transform.NodeCodeBlock,
	}
	if len(got) != len(want) {
		t.Fatalf("outline = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("outline[%d] = %v, want %v (full %v)", i, got[i], want[i], got)
		}
	}

	para := doc.FirstChild().NextSibling()
	var inline []transform.NodeKind
	for c := para.FirstChild(); c != nil; c = c.NextSibling() {
		inline = append(inline, transform.KindOf(c))
	}
	joined := make([]string, len(inline))
	for i, k := range inline {
		joined[i] = k.String()
	}
	if s := strings.Join(joined, ","); s != "text,image,text,link,text" {
		t.Fatalf("inline kinds = %s", s)
	}
	if transform.NodeKind(99).String() != "other" {
		t.Fatal("out of range kind should print as other")
	}
}

func TestLinkTransformer(t *testing.T) {
	t.Parallel()

	src := "![a](./img/a.png) ![b](../shared/b.png) ![c](/abs/c.png) ![d](https://cdn.example.com/d.png)\n\n" +
		"[ext](https://example.com) [int](/docs/other) [rel](page.md) https://auto.example.com\n"
	_, render := parse(t, newMarkdown(false), src, func(pc parser.Context) {
		transform.WithBasePath(pc, "/docs/guide")
	})
	page := query(t, render())

	wantSrc := []string{"/docs/guide/img/a.png", "/docs/shared/b.png", "/abs/c.png", "https://cdn.example.com/d.png"}
	page.Find("img").Each(func(i int, s *goquery.Selection) {
		if src, _ := s.Attr("src"); src != wantSrc[i] {
			t.Errorf("img %d src = %q, want %q", i, src, wantSrc[i])
		}
		if loading, _ := s.Attr("loading"); loading != "lazy" {
			t.Errorf("img %d loading = %q", i, loading)
		}
	})

	links := page.Find("a")
	if links.Length() != 4 {
		t.Fatalf("links = %d", links.Length())
	}
	for i, external := range []bool{true, false, false, true} {
		target, hasTarget := links.Eq(i).Attr("target")
		rel, _ := links.Eq(i).Attr("rel")
		if external && (target != "_blank" || rel != "noopener noreferrer") {
			t.Errorf("link %d should open in a new tab: target=%q rel=%q", i, target, rel)
		}
		if !external && hasTarget {
			t.Errorf("link %d must stay in the same tab", i)
		}
	}
}

func TestViewerTemplate(t *testing.T) {
	t.Parallel()

	tpl := transform.ViewerTemplate(i18n.NewCatalog().Translator("en"))
	for _, want := range []string{
		`<template id="richmd-viewer">`,
		`data-viewer-action="zoom-in"`,
		`data-viewer-action="zoom-out"`,
		`data-viewer-action="reset"`,
		`data-viewer-action="close"`,
		`aria-label="Close (Esc)"`,
		"Scroll to zoom",
		`<span class="viewer-percent" aria-live="polite">100%</span>`,
	} {
		if !strings.Contains(tpl, want) {
			t.Errorf("viewer template missing %q", want)
		}
	}
}
