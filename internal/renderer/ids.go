package renderer

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/yuin/goldmark/ast"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var linkSyntax = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`)

// Slug turns heading text into an anchor id: link syntax is reduced to its
// text, the result is lower-cased, characters other than letters, digits,
// whitespace and hyphens are dropped and each whitespace run becomes one
// hyphen.
func Slug(text string) string {
	text = linkSyntax.ReplaceAllString(text, "$1")
	text = cases.Lower(language.Und).String(text)

	var b strings.Builder
	inSpace := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			if !inSpace {
				b.WriteByte('-')
				inSpace = true
			}
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-':
			b.WriteRune(r)
			inSpace = false
		}
	}
	return b.String()
}

// headingIDs is a per-document parser.IDs. Repeated slugs get -1, -2, ...
// suffixes.
type headingIDs struct {
	taken map[string]struct{}
	next  map[string]int
}

func newHeadingIDs() *headingIDs {
	return &headingIDs{
		taken: make(map[string]struct{}),
		next:  make(map[string]int),
	}
}

// Generate implements parser.IDs.
func (h *headingIDs) Generate(value []byte, kind ast.NodeKind) []byte {
	base := Slug(string(value))
	if base == "" {
		if kind == ast.KindHeading {
			base = "heading"
		} else {
			base = "id"
		}
	}

	id := base
	for n := h.next[base]; ; n++ {
		if n > 0 {
			id = base + "-" + strconv.Itoa(n)
		}
		if _, ok := h.taken[id]; !ok {
			h.next[base] = n + 1
			break
		}
	}
	h.taken[id] = struct{}{}
	return []byte(id)
}

// Put implements parser.IDs.
func (h *headingIDs) Put(value []byte) {
	h.taken[string(value)] = struct{}{}
}
