// Package directive adds generic directive syntax to goldmark and turns
// directives named after a callout kind into admonitions.
//
// Three forms are recognised:
//
//	:::name[label]{attrs}    container, closed by a line of at least as many colons
//	::name[label]{attrs}     leaf, a single line whose label is its content
//	:name[label]{attrs}      text, inline; needs a label or attributes
package directive

import (
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"github.com/euforicio/richmd/internal/renderer/callout"
)

// Form distinguishes the three directive shapes.
type Form int

const (
	FormContainer Form = iota
	FormLeaf
	FormText
)

func (f Form) String() string {
	switch f {
	case FormContainer:
		return "container"
	case FormLeaf:
		return "leaf"
	case FormText:
		return "text"
	default:
		return fmt.Sprintf("Form(%d)", int(f))
	}
}

// Admonition is the metadata the normalizer attaches to callout directives.
type Admonition struct {
	Type  callout.Kind
	Title string
}

// Element is the element name recorded for normalized callouts.
const Element = "admonition"

var (
	KindBlock  = ast.NewNodeKind("DirectiveBlock")
	KindInline = ast.NewNodeKind("DirectiveInline")
)

// Block is a container or leaf directive.
type Block struct {
	ast.BaseBlock
	Form  Form
	Name  string
	Attrs parser.Attributes
	// Label holds the raw bracketed label of a container. Leaf labels are
	// parsed as inline content and become children instead.
	Label    []byte
	HasLabel bool

	Admonition *Admonition

	fence int
}

func NewBlock(form Form, name string) *Block {
	return &Block{Form: form, Name: name}
}

func (n *Block) Kind() ast.NodeKind { return KindBlock }

func (n *Block) Dump(source []byte, level int) {
	kv := map[string]string{"Form": n.Form.String(), "Name": n.Name}
	if n.HasLabel {
		kv["Label"] = string(n.Label)
	}
	if n.Admonition != nil {
		kv["Admonition"] = string(n.Admonition.Type) + ":" + n.Admonition.Title
	}
	ast.DumpHelper(n, source, level, kv, nil)
}

// Inline is a text directive.
type Inline struct {
	ast.BaseInline
	Name  string
	Attrs parser.Attributes

	Admonition *Admonition
}

func NewInline(name string) *Inline {
	return &Inline{Name: name}
}

func (n *Inline) Kind() ast.NodeKind { return KindInline }

func (n *Inline) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Name": n.Name}, nil)
}

// Extender registers the directive parsers, the normalizer and the node
// renderer.
type Extender struct{}

func (Extender) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(util.Prioritized(NewBlockParser(), 150)),
		parser.WithInlineParsers(util.Prioritized(NewInlineParser(), 150)),
		parser.WithASTTransformers(util.Prioritized(NewNormalizer(), 100)),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(util.Prioritized(NewRenderer(), 500)),
	)
}

func attrString(attrs parser.Attributes, name string) (string, bool) {
	v, ok := attrs.Find([]byte(name))
	if !ok {
		return "", false
	}
	switch val := v.(type) {
	case []byte:
		return string(val), true
	case string:
		return val, true
	default:
		return fmt.Sprint(val), true
	}
}
