package exporter

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Elements dropped from plain text output.
const chromeSelector = "script, style, template, button, .diagram-hint, .diagram-loading, .heading-anchor"

var (
	blankRuns  = regexp.MustCompile(`\n{3,}`)
	spaceRuns  = regexp.MustCompile(`\s+`)
	blockBreak = map[string]string{
		"p": "\n\n", "h1": "\n\n", "h2": "\n\n", "h3": "\n\n", "h4": "\n\n", "h5": "\n\n", "h6": "\n\n",
		"pre": "\n\n", "blockquote": "\n", "figure": "\n\n", "table": "\n", "ul": "\n", "ol": "\n",
		"li": "\n", "tr": "\n", "div": "\n", "hr": "\n\n",
	}
)

// plainText extracts the readable text of a rendered document. Rendered
// diagrams are replaced by their label; failed and pending ones keep their
// source.
func plainText(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", err
	}

	doc.Find(chromeSelector).Remove()
	doc.Find(`figure.diagram[data-state="rendered"]`).Each(func(_ int, s *goquery.Selection) {
		label := s.AttrOr("aria-label", s.AttrOr("data-engine", "")+" diagram")
		s.ReplaceWithHtml("<p>[" + html.EscapeString(label) + "]</p>")
	})
	doc.Find(".code-variant-dark").Remove()

	var b strings.Builder
	for _, n := range doc.Find("body").Nodes {
		writeText(&b, n, 0)
	}

	lines := strings.Split(b.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	text := strings.Join(lines, "\n")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text), nil
}

func writeText(b *strings.Builder, n *html.Node, pre int) {
	switch n.Type {
	case html.TextNode:
		if pre > 0 {
			b.WriteString(n.Data)
			return
		}
		text := spaceRuns.ReplaceAllString(n.Data, " ")
		if atLineStart(b) {
			text = strings.TrimLeft(text, " ")
		}
		b.WriteString(text)
		return
	case html.ElementNode:
		switch n.Data {
		case "br":
			b.WriteByte('\n')
			return
		case "pre":
			pre++
		case "li":
			if !atLineStart(b) {
				b.WriteByte('\n')
			}
			b.WriteString("- ")
		case "td", "th":
			if n.PrevSibling != nil {
				b.WriteString("\t")
			}
		case "input":
			if _, ok := attr(n, "checked"); ok {
				b.WriteString("[x] ")
			} else if t, _ := attr(n, "type"); t == "checkbox" {
				b.WriteString("[ ] ")
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c, pre)
	}

	if n.Type == html.ElementNode {
		if brk, ok := blockBreak[n.Data]; ok {
			b.WriteString(brk)
		}
	}
}

func atLineStart(b *strings.Builder) bool {
	s := b.String()
	return s == "" || strings.HasSuffix(s, "\n") || strings.HasSuffix(s, "- ")
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
