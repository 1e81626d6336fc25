package directive

import (
	"unicode"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// head is the parsed "name[label]{attrs}" part of a directive.
type head struct {
	name       string
	labelStart int
	labelStop  int
	hasLabel   bool
	attrs      parser.Attributes
	hasAttrs   bool
	end        int
}

// parseHead reads a directive head starting at line[i]. Attribute blocks
// that fail to parse end the head before the brace.
func parseHead(line []byte, i int) (head, bool) {
	var h head
	j := scanName(line, i)
	if j == i {
		return h, false
	}
	h.name = string(line[i:j])

	if j < len(line) && line[j] == '[' {
		end, ok := scanLabel(line, j)
		if !ok {
			return h, false
		}
		h.labelStart, h.labelStop, h.hasLabel = j+1, end, true
		j = end + 1
	}

	if j < len(line) && line[j] == '{' {
		if end, ok := scanAttrs(line, j); ok {
			if attrs, ok := parser.ParseAttributes(text.NewReader(line[j : end+1])); ok {
				h.attrs, h.hasAttrs = attrs, true
				j = end + 1
			}
		}
	}
	h.end = j
	return h, true
}

func scanName(line []byte, i int) int {
	if i >= len(line) || !isASCIILetter(line[i]) {
		return i
	}
	j := i + 1
	for j < len(line) {
		c := line[j]
		if isASCIILetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			j++
			continue
		}
		break
	}
	return j
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// scanLabel returns the index of the ']' matching the '[' at line[i].
func scanLabel(line []byte, i int) (int, bool) {
	depth := 0
	for j := i; j < len(line); j++ {
		switch line[j] {
		case '\\':
			j++
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return j, true
			}
		case '\n', '\r':
			return 0, false
		}
	}
	return 0, false
}

// scanAttrs returns the index of the '}' closing the '{' at line[i],
// skipping quoted values.
func scanAttrs(line []byte, i int) (int, bool) {
	var quote byte
	for j := i + 1; j < len(line); j++ {
		c := line[j]
		switch {
		case quote != 0:
			if c == '\\' {
				j++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '}':
			return j, true
		case c == '\n' || c == '\r':
			return 0, false
		}
	}
	return 0, false
}

type blockParser struct{}

// NewBlockParser returns the parser for container and leaf directives.
func NewBlockParser() parser.BlockParser {
	return &blockParser{}
}

func (p *blockParser) Trigger() []byte {
	return []byte{':'}
}

func (p *blockParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || pos >= len(line) || line[pos] != ':' {
		return nil, parser.NoChildren
	}
	i := pos
	for i < len(line) && line[i] == ':' {
		i++
	}
	fence := i - pos
	if fence < 2 {
		return nil, parser.NoChildren
	}
	h, ok := parseHead(line, i)
	if !ok || !util.IsBlank(line[h.end:]) {
		return nil, parser.NoChildren
	}

	form := FormContainer
	if fence == 2 {
		form = FormLeaf
	}
	node := NewBlock(form, h.name)
	node.fence = fence
	node.Attrs = h.attrs

	if h.hasLabel {
		node.HasLabel = true
		if form == FormLeaf {
			start := segment.Start - segment.Padding + h.labelStart
			stop := segment.Start - segment.Padding + h.labelStop
			if start < stop {
				node.Lines().Append(text.NewSegment(start, stop))
			}
		} else {
			node.Label = append([]byte(nil), line[h.labelStart:h.labelStop]...)
		}
	}

	reader.AdvanceToEOL()
	if form == FormLeaf {
		return node, parser.NoChildren
	}
	return node, parser.HasChildren
}

func (p *blockParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	n := node.(*Block)
	if n.Form == FormLeaf {
		return parser.Close
	}
	line, _ := reader.PeekLine()
	if util.IsBlank(line) {
		return parser.Continue | parser.HasChildren
	}
	w, pos := util.IndentWidth(line, reader.LineOffset())
	if w < 4 {
		i := pos
		for i < len(line) && line[i] == ':' {
			i++
		}
		if i-pos >= n.fence && util.IsBlank(line[i:]) {
			reader.AdvanceToEOL()
			return parser.Close
		}
	}
	return parser.Continue | parser.HasChildren
}

func (p *blockParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (p *blockParser) CanInterruptParagraph() bool {
	return true
}

func (p *blockParser) CanAcceptIndentedLine() bool {
	return false
}

type inlineParser struct{}

// NewInlineParser returns the parser for text directives.
func NewInlineParser() parser.InlineParser {
	return &inlineParser{}
}

func (p *inlineParser) Trigger() []byte {
	return []byte{':'}
}

func (p *inlineParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	if prev := block.PrecendingCharacter(); unicode.IsLetter(prev) || unicode.IsDigit(prev) || prev == ':' {
		return nil
	}
	line, segment := block.PeekLine()
	if len(line) < 3 || line[0] != ':' {
		return nil
	}
	end := scanName(line, 1)
	if end == 1 || end >= len(line) || (line[end] != '[' && line[end] != '{') {
		return nil
	}
	h, ok := parseHead(line, 1)
	if !ok || (!h.hasLabel && !h.hasAttrs) {
		return nil
	}

	node := NewInline(h.name)
	node.Attrs = h.attrs
	if h.hasLabel && h.labelStart < h.labelStop {
		node.AppendChild(node, ast.NewTextSegment(text.NewSegment(segment.Start+h.labelStart, segment.Start+h.labelStop)))
	}
	block.Advance(h.end)
	return node
}
