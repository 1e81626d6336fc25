package transform

import (
	"fmt"
	"html"
	"strconv"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/util"

	"github.com/euforicio/richmd/internal/i18n"
	"github.com/euforicio/richmd/internal/interactive"
	"github.com/euforicio/richmd/internal/renderer/highlight"
	"github.com/euforicio/richmd/internal/renderer/icon"
)

// CodeBlock is a fenced block with a language, waiting for (or holding) its
// highlighted markup. A nil Result renders the raw code.
type CodeBlock struct {
	ast.BaseBlock
	Region CodeRegion
	Result *highlight.Result
	tr     i18n.Translator
}

// KindCodeBlock is the goldmark node kind of CodeBlock.
var KindCodeBlock = ast.NewNodeKind("RichCodeBlock")

// NewCodeBlock returns an unresolved code block.
func NewCodeBlock(region CodeRegion, tr i18n.Translator) *CodeBlock {
	if tr == nil {
		tr = i18n.Identity
	}
	return &CodeBlock{Region: region, tr: tr}
}

// Kind implements ast.Node.
func (b *CodeBlock) Kind() ast.NodeKind { return KindCodeBlock }

// IsRaw marks the node as raw HTML.
func (b *CodeBlock) IsRaw() bool { return true }

// Dump aids debugging.
func (b *CodeBlock) Dump(source []byte, level int) {
	info := map[string]string{
		"Language": b.Region.Language,
		"Source":   fmt.Sprintf("%d bytes", len(b.Region.Source)),
	}
	if b.Region.Title != "" {
		info["Title"] = b.Region.Title
	}
	if b.Result != nil {
		info["Fallback"] = strconv.FormatBool(b.Result.Fallback)
	}
	ast.DumpHelper(b, source, level, info, nil)
}

// PlainCodeBlock is code without a language: a monospace block, or inline
// code styling when the content is a single line.
type PlainCodeBlock struct {
	ast.BaseBlock
	Region CodeRegion
	Inline bool
}

// KindPlainCodeBlock is the goldmark node kind of PlainCodeBlock.
var KindPlainCodeBlock = ast.NewNodeKind("PlainCodeBlock")

// NewPlainCodeBlock returns a plain block.
func NewPlainCodeBlock(region CodeRegion, inline bool) *PlainCodeBlock {
	return &PlainCodeBlock{Region: region, Inline: inline}
}

// Kind implements ast.Node.
func (b *PlainCodeBlock) Kind() ast.NodeKind { return KindPlainCodeBlock }

// IsRaw marks the node as raw HTML.
func (b *PlainCodeBlock) IsRaw() bool { return true }

// Dump aids debugging.
func (b *PlainCodeBlock) Dump(source []byte, level int) {
	ast.DumpHelper(b, source, level, map[string]string{
		"Inline": strconv.FormatBool(b.Inline),
		"Source": fmt.Sprintf("%d bytes", len(b.Region.Source)),
	}, nil)
}

func (r *BlockRenderer) renderCodeBlock(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkSkipChildren, nil
	}
	block := node.(*CodeBlock)
	tr := block.tr

	_, _ = w.WriteString(`<div class="code-block" data-language="`)
	_, _ = w.WriteString(html.EscapeString(block.Region.Language))
	_, _ = w.WriteString(`"><div class="code-header"><span class="code-language">`)
	_, _ = w.WriteString(html.EscapeString(highlight.DisplayName(block.Region.Language, block.Region.Title)))
	_, _ = w.WriteString(`</span>`)
	writeCopyButton(w, tr)
	_, _ = w.WriteString(`</div>`)

	res := block.Result
	switch {
	case res != nil && res.HTML != "":
		_, _ = w.WriteString(`<div class="code-body">`)
		_, _ = w.WriteString(res.HTML)
		_, _ = w.WriteString(`</div>`)
	case res != nil && (res.Light != "" || res.Dark != ""):
		if res.Light != "" {
			_, _ = w.WriteString(`<div class="code-body code-variant-light">`)
			_, _ = w.WriteString(res.Light)
			_, _ = w.WriteString(`</div>`)
		}
		if res.Dark != "" {
			_, _ = w.WriteString(`<div class="code-body code-variant-dark">`)
			_, _ = w.WriteString(res.Dark)
			_, _ = w.WriteString(`</div>`)
		}
	default:
		_, _ = w.WriteString(`<div class="code-body code-raw"><pre><code>`)
		_, _ = w.WriteString(html.EscapeString(block.Region.Source))
		_, _ = w.WriteString(`</code></pre></div>`)
	}

	_, err := w.WriteString("</div>\n")
	if err != nil {
		return ast.WalkStop, err
	}
	return ast.WalkSkipChildren, nil
}

func writeCopyButton(w util.BufWriter, tr i18n.Translator) {
	copyText := tr("code.copy", nil)
	fmt.Fprintf(w, `<button type="button" class="code-copy" data-copy data-copied-ms="%d" data-label-copy="%s" data-label-copied="%s" aria-label="%s">`,
		interactive.CopiedWindow.Milliseconds(),
		html.EscapeString(copyText),
		html.EscapeString(tr("code.copied", nil)),
		html.EscapeString(tr("code.copy_label", nil)),
	)
	_, _ = w.WriteString(icon.SVG(icon.Copy, "code-copy-icon"))
	_, _ = w.WriteString(`<span class="code-copy-text">`)
	_, _ = w.WriteString(html.EscapeString(copyText))
	_, _ = w.WriteString(`</span></button>`)
}

func (r *BlockRenderer) renderPlainCodeBlock(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkSkipChildren, nil
	}
	block := node.(*PlainCodeBlock)

	if block.Inline {
		_, _ = w.WriteString(`<pre class="code-plain"><code class="code-inline">`)
	} else {
		_, _ = w.WriteString(`<pre class="code-plain"><code>`)
	}
	_, _ = w.WriteString(html.EscapeString(block.Region.Source))
	if _, err := w.WriteString("</code></pre>\n"); err != nil {
		return ast.WalkStop, err
	}
	return ast.WalkSkipChildren, nil
}
