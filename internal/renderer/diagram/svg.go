package diagram

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrNoSVG is returned when engine output has no <svg> root element.
var ErrNoSVG = errors.New("diagram: output has no svg root")

const (
	// InlineStyle is applied to the root element of the inline preview.
	InlineStyle = "max-width: 100%; height: auto; min-height: 200px; display: block;"
	// FullscreenStyle replaces it inside the viewer dialog.
	FullscreenStyle = "width: 100%; height: 100%; max-width: none; max-height: none;"

	legibilityCSS = `.node rect,.node circle,.node ellipse,.node polygon,.node path{stroke-width:1.5px !important}` +
		`.label,.nodeLabel,.edgeLabel,.cluster-label{font-size:13px !important}` +
		`.messageText,.actor{font-size:13px !important}` +
		`text{font-family:system-ui,-apple-system,sans-serif !important}`
)

var lengthNumber = regexp.MustCompile(`^\s*([0-9]*\.?[0-9]+)\s*(px)?\s*$`)

// droppedElements never reach the page. Animation elements can rewrite
// href at runtime.
var droppedElements = map[string]bool{
	"script":           true,
	"set":              true,
	"animate":          true,
	"animatemotion":    true,
	"animatetransform": true,
	"handler":          true,
	"listener":         true,
	"iframe":           true,
	"frame":            true,
	"frameset":         true,
	"object":           true,
	"embed":            true,
	"base":             true,
	"link":             true,
	"meta":             true,
	"form":             true,
	"input":            true,
	"button":           true,
	"textarea":         true,
	"select":           true,
}

// urlAttributes hold references a browser may navigate to or load.
var urlAttributes = map[string]bool{
	"href":       true,
	"src":        true,
	"action":     true,
	"formaction": true,
	"background": true,
}

// safeSchemes are the URL schemes kept in url attributes. Relative
// references and fragments carry no scheme and are always kept.
var safeSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"mailto": true,
}

// PostProcess normalises engine output for responsive display: the root
// loses its fixed size and inline style, keeps or gains a viewBox, and
// receives the responsive style. The tree is parsed the way a browser
// parses inline SVG, then scripts, animation elements, event handler
// attributes and unsafe URLs are removed everywhere. The legibility rules
// are appended to the first <style> element.
func PostProcess(svg string) (Rendered, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(svg), body)
	if err != nil {
		return Rendered{}, fmt.Errorf("%w: %w", ErrNoSVG, err)
	}
	var root *html.Node
	for _, n := range nodes {
		if root = findSVG(n); root != nil {
			break
		}
	}
	if root == nil {
		return Rendered{}, ErrNoSVG
	}

	sanitize(root)
	out := Rendered{}
	root.Attr, out.ViewBox, out.Width, out.Height = rootAttributes(root.Attr)
	injectLegibility(root)

	var b strings.Builder
	if err := html.Render(&b, root); err != nil {
		return Rendered{}, fmt.Errorf("render svg: %w", err)
	}
	out.Markup = b.String()
	return out, nil
}

// Fullscreen swaps the inline responsive style of a post-processed diagram
// for the one used inside the viewer.
func Fullscreen(markup string) string {
	return strings.Replace(markup, `style="`+InlineStyle+`"`, `style="`+FullscreenStyle+`"`, 1)
}

func findSVG(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "svg" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findSVG(c); found != nil {
			return found
		}
	}
	return nil
}

// sanitize removes dangerous descendants of n and strips unsafe attributes
// from n and everything kept below it, foreignObject content included.
func sanitize(n *html.Node) {
	n.Attr = safeAttributes(n.Attr)
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch c.Type {
		case html.ElementNode:
			if droppedElements[strings.ToLower(c.Data)] {
				n.RemoveChild(c)
			} else {
				sanitize(c)
			}
		case html.CommentNode, html.DoctypeNode:
			n.RemoveChild(c)
		}
		c = next
	}
}

func safeAttributes(attrs []html.Attribute) []html.Attribute {
	kept := attrs[:0]
	for _, a := range attrs {
		key := strings.ToLower(a.Key)
		if strings.HasPrefix(key, "on") {
			continue
		}
		if urlAttributes[key] && !safeURL(a.Val) {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

// safeURL reports whether v, already entity decoded by the parser, is a
// relative reference or uses an allowed scheme. Browsers ignore control
// characters and whitespace inside a scheme, so they are dropped first.
func safeURL(v string) bool {
	compact := strings.Map(func(r rune) rune {
		if r <= ' ' || r == 0x7f {
			return -1
		}
		return r
	}, v)
	compact = strings.ToLower(compact)

	colon := strings.IndexByte(compact, ':')
	if colon < 0 || strings.ContainsAny(compact[:colon], "/?#") {
		return true
	}
	scheme := compact[:colon]
	if scheme == "data" {
		rest := compact[colon+1:]
		return strings.HasPrefix(rest, "image/") && !strings.HasPrefix(rest, "image/svg")
	}
	return safeSchemes[scheme]
}

// rootAttributes drops the fixed size and inline style of the root, keeps or
// synthesises the viewBox and appends the responsive style.
func rootAttributes(attrs []html.Attribute) ([]html.Attribute, string, float64, float64) {
	var (
		kept          []html.Attribute
		width, height float64
		viewBox       string
	)
	for _, a := range attrs {
		if a.Namespace != "" {
			kept = append(kept, a)
			continue
		}
		switch strings.ToLower(a.Key) {
		case "width":
			width = parseLength(a.Val)
		case "height":
			height = parseLength(a.Val)
		case "style":
		case "viewbox":
			viewBox = strings.TrimSpace(a.Val)
		default:
			kept = append(kept, a)
		}
	}

	if viewBox == "" && width > 0 && height > 0 {
		viewBox = fmt.Sprintf("0 0 %s %s", formatNumber(width), formatNumber(height))
	}
	if vbw, vbh, ok := viewBoxSize(viewBox); ok {
		if width <= 0 {
			width = vbw
		}
		if height <= 0 {
			height = vbh
		}
	}

	if viewBox != "" {
		kept = append(kept, html.Attribute{Key: "viewBox", Val: viewBox})
	}
	kept = append(kept, html.Attribute{Key: "style", Val: InlineStyle})
	return kept, viewBox, width, height
}

func injectLegibility(root *html.Node) {
	if style := findElement(root, "style"); style != nil {
		style.AppendChild(&html.Node{Type: html.TextNode, Data: legibilityCSS})
		return
	}
	style := &html.Node{Type: html.ElementNode, Data: "style", Namespace: root.Namespace}
	style.AppendChild(&html.Node{Type: html.TextNode, Data: legibilityCSS})
	root.InsertBefore(style, root.FirstChild)
}

func findElement(n *html.Node, name string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if c.Data == name {
			return c
		}
		if found := findElement(c, name); found != nil {
			return found
		}
	}
	return nil
}

func parseLength(v string) float64 {
	m := lengthNumber.FindStringSubmatch(v)
	if m == nil {
		return 0
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return f
}

func viewBoxSize(vb string) (w, h float64, ok bool) {
	fields := strings.FieldsFunc(vb, func(r rune) bool { return r == ' ' || r == ',' })
	if len(fields) != 4 {
		return 0, 0, false
	}
	w, errW := strconv.ParseFloat(fields[2], 64)
	h, errH := strconv.ParseFloat(fields[3], 64)
	if errW != nil || errH != nil {
		return 0, 0, false
	}
	return w, h, true
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
