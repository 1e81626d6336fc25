package transform

import (
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/euforicio/richmd/internal/renderer/linkpath"
)

// basePathKey stores the document base path in the parser context.
var basePathKey = parser.NewContextKey()

// WithBasePath records the base path relative image references resolve
// against.
func WithBasePath(pc parser.Context, base string) {
	pc.Set(basePathKey, base)
}

func basePath(pc parser.Context) string {
	if v := pc.Get(basePathKey); v != nil {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

// LinkTransformer resolves image destinations against the base path and
// opens external links in a new tab.
type LinkTransformer struct{}

// Transform implements parser.ASTTransformer.
func (t *LinkTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	base := basePath(pc)
	source := reader.Source()

	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch typed := n.(type) {
		case *ast.Link:
			t.transformLink(typed, string(typed.Destination))
		case *ast.AutoLink:
			if typed.AutoLinkType == ast.AutoLinkURL {
				t.transformLink(typed, string(typed.URL(source)))
			}
		case *ast.Image:
			t.transformImage(typed, base)
		}

		return ast.WalkContinue, nil
	})
}

func (t *LinkTransformer) transformLink(link ast.Node, dest string) {
	if !linkpath.IsExternal(dest) {
		return
	}
	link.SetAttributeString("target", []byte("_blank"))
	link.SetAttributeString("rel", []byte("noopener noreferrer"))
}

func (t *LinkTransformer) transformImage(img *ast.Image, base string) {
	img.Destination = []byte(linkpath.Resolve(string(img.Destination), base))
	img.SetAttributeString("loading", []byte("lazy"))
}
