package transform

import (
	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"

	"github.com/euforicio/richmd/internal/renderer/directive"
)

// NodeKind is the closed set of document node variants the assembler reasons
// about. Goldmark nodes outside the set map to NodeOther.
type NodeKind int

const (
	NodeOther NodeKind = iota
	NodeParagraph
	NodeHeading
	NodeList
	NodeTable
	NodeBlockquote
	NodeCodeBlock
	NodeCallout
	NodeDiagramBlock
	NodeImage
	NodeLink
	NodeText
	NodeRule
)

var kindNames = [...]string{
	NodeOther:        "other",
	NodeParagraph:    "paragraph",
	NodeHeading:      "heading",
	NodeList:         "list",
	NodeTable:        "table",
	NodeBlockquote:   "blockquote",
	NodeCodeBlock:    "code-block",
	NodeCallout:      "callout",
	NodeDiagramBlock: "diagram-block",
	NodeImage:        "image",
	NodeLink:         "link",
	NodeText:         "text",
	NodeRule:         "rule",
}

func (k NodeKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "other"
	}
	return kindNames[k]
}

// MarshalText lets outlines serialise as names.
func (k NodeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// KindOf classifies a goldmark node.
func KindOf(n ast.Node) NodeKind {
	switch node := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		return NodeParagraph
	case *ast.Heading:
		return NodeHeading
	case *ast.List, *ast.ListItem:
		return NodeList
	case *east.Table:
		return NodeTable
	case *ast.Blockquote:
		return NodeBlockquote
	case *ast.FencedCodeBlock, *ast.CodeBlock, *CodeBlock, *PlainCodeBlock:
		return NodeCodeBlock
	case *DiagramBlock:
		return NodeDiagramBlock
	case *directive.Block:
		if node.Admonition != nil {
			return NodeCallout
		}
		return NodeOther
	case *directive.Inline:
		if node.Admonition != nil {
			return NodeCallout
		}
		return NodeOther
	case *ast.Image:
		return NodeImage
	case *ast.Link, *ast.AutoLink:
		return NodeLink
	case *ast.Text, *ast.String, *ast.CodeSpan:
		return NodeText
	case *ast.ThematicBreak:
		return NodeRule
	default:
		return NodeOther
	}
}

// Outline lists the kinds of the document's top-level blocks.
func Outline(doc ast.Node) []NodeKind {
	var out []NodeKind
	for c := doc.FirstChild(); c != nil; c = c.NextSibling() {
		out = append(out, KindOf(c))
	}
	return out
}
