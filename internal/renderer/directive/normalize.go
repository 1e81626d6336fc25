package directive

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/euforicio/richmd/internal/i18n"
	"github.com/euforicio/richmd/internal/renderer/callout"
)

var bracketTitle = regexp.MustCompile(`^\[([^\]]+)\]`)

// Normalizer marks directives named after a callout kind as admonitions and
// resolves their titles. Other directives are left untouched.
type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

func (t *Normalizer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	tr := i18n.FromParserContext(pc)

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *Block:
			kind, ok := callout.Parse(node.Name)
			if !ok {
				return ast.WalkContinue, nil
			}
			bracket := ""
			switch node.Form {
			case FormContainer:
				if node.HasLabel {
					bracket = string(node.Label)
				} else if first, ok := node.FirstChild().(*ast.Paragraph); ok {
					bracket = leadingBracket(first, source)
				}
			case FormLeaf:
				bracket = leadingBracket(node, source)
			}
			node.Admonition = Resolve(kind, node.Attrs, bracket, tr)
		case *Inline:
			kind, ok := callout.Parse(node.Name)
			if !ok {
				return ast.WalkContinue, nil
			}
			node.Admonition = Resolve(kind, node.Attrs, "", tr)
		}
		return ast.WalkContinue, nil
	})
}

// Resolve picks the admonition title: an explicit title attribute, then the
// bracketed token, then the translated default for kind.
func Resolve(kind callout.Kind, attrs parser.Attributes, bracket string, tr i18n.Translator) *Admonition {
	if title, ok := attrString(attrs, "title"); ok && strings.TrimSpace(title) != "" {
		return &Admonition{Type: kind, Title: strings.TrimSpace(title)}
	}
	if bracket = strings.TrimSpace(bracket); bracket != "" {
		return &Admonition{Type: kind, Title: bracket}
	}
	return &Admonition{Type: kind, Title: DefaultTitle(kind, tr)}
}

// DefaultTitle translates the default heading for kind, falling back to the
// English template title when the translator has no entry.
func DefaultTitle(kind callout.Kind, tr i18n.Translator) string {
	tpl := callout.Lookup(kind)
	if tr == nil {
		return tpl.Title
	}
	key := callout.MessageKey(kind)
	if title := tr(key, nil); title != "" && title != key {
		return title
	}
	return tpl.Title
}

// leadingBracket returns the text of a "[...]" token at the very start of
// parent's inline content. The inline parser splits brackets into separate
// text nodes, so the leading run of text nodes is joined first.
func leadingBracket(parent ast.Node, source []byte) string {
	var b strings.Builder
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		t, ok := c.(*ast.Text)
		if !ok {
			break
		}
		b.Write(t.Value(source))
		if t.SoftLineBreak() || t.HardLineBreak() {
			break
		}
	}
	m := bracketTitle.FindStringSubmatch(b.String())
	if m == nil {
		return ""
	}
	return m[1]
}
