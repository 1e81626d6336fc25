package directive

import (
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"github.com/euforicio/richmd/internal/renderer/callout"
)

// Renderer writes callouts for normalized directives and a neutral wrapper
// for everything else.
type Renderer struct{}

func NewRenderer() renderer.NodeRenderer {
	return &Renderer{}
}

func (r *Renderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindBlock, r.renderBlock)
	reg.Register(KindInline, r.renderInline)
}

func (r *Renderer) renderBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*Block)

	if n.Admonition != nil {
		tpl := callout.Lookup(n.Admonition.Type)
		if entering {
			callout.Open(w, tpl, n.Admonition.Title)
			if n.Form == FormLeaf {
				_, _ = w.WriteString("<p>")
			}
			return ast.WalkContinue, nil
		}
		if n.Form == FormLeaf {
			_, _ = w.WriteString("</p>")
		}
		callout.Close(w)
		return ast.WalkContinue, nil
	}

	if !entering {
		_, _ = w.WriteString("</div>\n")
		return ast.WalkContinue, nil
	}
	openGeneric(w, "div", n.Name, n.Attrs)
	if n.Form == FormContainer && n.HasLabel && len(n.Label) > 0 {
		_, _ = w.WriteString(`<p class="directive-label">`)
		_, _ = w.Write(util.EscapeHTML(n.Label))
		_, _ = w.WriteString("</p>\n")
	}
	return ast.WalkContinue, nil
}

func (r *Renderer) renderInline(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*Inline)

	if n.Admonition != nil {
		if entering {
			callout.OpenInline(w, callout.Lookup(n.Admonition.Type), n.Admonition.Title)
		} else {
			callout.CloseInline(w)
		}
		return ast.WalkContinue, nil
	}

	if entering {
		openGeneric(w, "span", n.Name, n.Attrs)
	} else {
		_, _ = w.WriteString("</span>")
	}
	return ast.WalkContinue, nil
}

// openGeneric writes the wrapper for an unrecognised directive. Only id and
// class attributes are carried over.
func openGeneric(w util.BufWriter, tag, name string, attrs parser.Attributes) {
	_, _ = w.WriteString("<" + tag + ` class="directive directive-`)
	_, _ = w.Write(util.EscapeHTML([]byte(name)))
	if class, ok := attrs.Find([]byte("class")); ok {
		if b, ok := class.([]byte); ok {
			_ = w.WriteByte(' ')
			_, _ = w.Write(util.EscapeHTML(b))
		}
	}
	_, _ = w.WriteString(`" data-directive="`)
	_, _ = w.Write(util.EscapeHTML([]byte(name)))
	_ = w.WriteByte('"')
	if id, ok := attrs.Find([]byte("id")); ok {
		if b, ok := id.([]byte); ok {
			_, _ = w.WriteString(` id="`)
			_, _ = w.Write(util.EscapeHTML(b))
			_ = w.WriteByte('"')
		}
	}
	_ = w.WriteByte('>')
}
