// Package transform holds the goldmark AST transformers and node renderers
// that route code blocks, diagrams and links.
package transform

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/euforicio/richmd/internal/i18n"
)

const (
	mermaidLanguage = "mermaid"
	d2Language      = "d2"
)

// CodeRegion is one code occurrence in a document.
type CodeRegion struct {
	Source   string
	Language string
	Title    string
	// Inline is set for code spans.
	Inline bool
}

// Route says how a code region is displayed.
type Route int

const (
	RouteInline Route = iota
	RouteHighlight
	RoutePlain
	RouteDiagram
)

func (r Route) String() string {
	switch r {
	case RouteInline:
		return "inline"
	case RouteHighlight:
		return "highlight"
	case RoutePlain:
		return "plain"
	case RouteDiagram:
		return "diagram"
	default:
		return "unknown"
	}
}

// Classifier decides the route for code regions.
type Classifier struct {
	// EnableD2 routes d2 fences to the diagram renderer.
	EnableD2 bool
}

// Classify applies the routing table with d2 diagrams disabled.
func Classify(r CodeRegion) Route {
	return Classifier{}.Classify(r)
}

// Classify returns the route for r. Earlier rows win: diagram languages,
// single-line code without a language, any language, then plain.
func (c Classifier) Classify(r CodeRegion) Route {
	if r.Inline {
		return RouteInline
	}
	lang := strings.ToLower(strings.TrimSpace(r.Language))
	switch {
	case lang == mermaidLanguage:
		return RouteDiagram
	case lang == d2Language && c.EnableD2:
		return RouteDiagram
	case lang == "" && !strings.Contains(r.Source, "\n"):
		return RouteInline
	case lang != "":
		return RouteHighlight
	default:
		return RoutePlain
	}
}

// DiagramEngine returns the engine name for a diagram language.
func DiagramEngine(lang string) string {
	return strings.ToLower(strings.TrimSpace(lang))
}

var titlePattern = regexp.MustCompile(`\btitle=("[^"]*"|'[^']*'|[^\s{}]+)`)

// ParseInfo splits a fence info string into its language (the first word)
// and an optional title="..." token.
func ParseInfo(info string) (lang, title string) {
	info = strings.TrimSpace(info)
	if info == "" {
		return "", ""
	}
	end := strings.IndexAny(info, " \t{")
	if end < 0 {
		end = len(info)
	}
	lang = info[:end]
	if strings.HasPrefix(lang, "title=") {
		lang = ""
	}
	if m := titlePattern.FindStringSubmatch(info); m != nil {
		title = m[1]
		if unq, err := strconv.Unquote(title); err == nil {
			title = unq
		} else if len(title) >= 2 && title[0] == '\'' && title[len(title)-1] == '\'' {
			title = title[1 : len(title)-1]
		}
	}
	return lang, title
}

// ClassifyTransformer replaces fenced and indented code blocks with
// DiagramBlock, CodeBlock or PlainCodeBlock nodes and styles code spans.
type ClassifyTransformer struct {
	Classifier Classifier
}

// NewClassifyTransformer constructs the transformer.
func NewClassifyTransformer(enableD2 bool) *ClassifyTransformer {
	return &ClassifyTransformer{Classifier: Classifier{EnableD2: enableD2}}
}

// Transform implements parser.ASTTransformer.
func (t *ClassifyTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	if node == nil {
		return
	}
	w := &classifyWalk{
		classifier: t.Classifier,
		source:     reader.Source(),
		tr:         i18n.FromParserContext(pc),
	}
	w.walk(node)
}

type classifyWalk struct {
	classifier Classifier
	source     []byte
	tr         i18n.Translator
	diagrams   int
}

func (w *classifyWalk) walk(parent ast.Node) {
	for child := parent.FirstChild(); child != nil; {
		next := child.NextSibling()

		switch n := child.(type) {
		case *ast.FencedCodeBlock:
			region := w.region(n)
			if n.Info != nil {
				region.Language, region.Title = ParseInfo(string(n.Info.Segment.Value(w.source)))
			}
			w.replace(parent, n, region)
		case *ast.CodeBlock:
			w.replace(parent, n, w.region(n))
		case *ast.CodeSpan:
			n.SetAttributeString("class", []byte("code-inline"))
		default:
			if child.HasChildren() {
				w.walk(child)
			}
		}
		child = next
	}
}

func (w *classifyWalk) region(n ast.Node) CodeRegion {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		buf.Write(segment.Value(w.source))
	}
	return CodeRegion{Source: strings.TrimSuffix(buf.String(), "\n")}
}

func (w *classifyWalk) replace(parent, old ast.Node, region CodeRegion) {
	var replacement ast.Node
	switch route := w.classifier.Classify(region); route {
	case RouteDiagram:
		w.diagrams++
		replacement = NewDiagramBlock("diagram-"+strconv.Itoa(w.diagrams), DiagramEngine(region.Language), region, w.tr)
	case RouteHighlight:
		replacement = NewCodeBlock(region, w.tr)
	default:
		replacement = NewPlainCodeBlock(region, route == RouteInline)
	}
	replacement.SetBlankPreviousLines(old.HasBlankPreviousLines())
	copyAttributes(old, replacement)
	parent.ReplaceChild(parent, old, replacement)
}

func copyAttributes(src ast.Node, dst ast.Node) {
	if src == nil || dst == nil {
		return
	}
	for _, attr := range src.Attributes() {
		dst.SetAttribute(attr.Name, attr.Value)
	}
}
