package highlight

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
)

// Scope classes put on the document wrapper for each theme.
const (
	ScopeLight = ".richmd-light"
	ScopeDark  = ".richmd-dark"
	ScopeAuto  = ".richmd-auto"
)

// Stylesheet returns the class-mode CSS for both styles. Light rules apply
// under ScopeLight, dark rules under ScopeDark, and ScopeAuto follows
// prefers-color-scheme.
func (h *Highlighter) Stylesheet() (string, error) {
	light, err := h.styleCSS(h.light)
	if err != nil {
		return "", err
	}
	dark, err := h.styleCSS(h.dark)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "/* %s */\n", h.opts.LightStyle)
	scopeRules(&b, light, ScopeLight, "")
	scopeRules(&b, light, ScopeAuto, "")
	fmt.Fprintf(&b, "/* %s */\n", h.opts.DarkStyle)
	scopeRules(&b, dark, ScopeDark, "")
	b.WriteString("@media (prefers-color-scheme: dark) {\n")
	scopeRules(&b, dark, ScopeAuto, "  ")
	b.WriteString("}\n")
	return b.String(), nil
}

func (h *Highlighter) styleCSS(style *chroma.Style) (string, error) {
	var b strings.Builder
	if err := h.classes.WriteCSS(&b, style); err != nil {
		return "", fmt.Errorf("write css for %s: %w", style.Name, err)
	}
	return b.String(), nil
}

// scopeRules prefixes every selector of the single-line rules chroma emits.
func scopeRules(b *strings.Builder, css, scope, indent string) {
	sc := bufio.NewScanner(strings.NewReader(css))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/*") {
			if end := strings.Index(line, "*/"); end >= 0 {
				line = strings.TrimSpace(line[end+2:])
			}
		}
		brace := strings.IndexByte(line, '{')
		if brace <= 0 {
			continue
		}
		selectors := strings.Split(strings.TrimSpace(line[:brace]), ",")
		for i, sel := range selectors {
			selectors[i] = scope + " " + strings.TrimSpace(sel)
		}
		b.WriteString(indent)
		b.WriteString(strings.Join(selectors, ", "))
		b.WriteByte(' ')
		b.WriteString(line[brace:])
		b.WriteByte('\n')
	}
}

// StyleNames lists the chroma styles accepted as light or dark style.
func StyleNames() []string {
	return styles.Names()
}
