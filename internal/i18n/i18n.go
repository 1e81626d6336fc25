// Package i18n supplies the translate(key, params) collaborator used for
// every user-facing string the renderer emits.
package i18n

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Translator resolves a message key to display text. Params replace
// "{name}" placeholders. Implementations must be synchronous and total: an
// unknown key yields the key itself.
type Translator func(key string, params map[string]string) string

// Identity returns keys verbatim with params substituted.
func Identity(key string, params map[string]string) string {
	return substitute(key, params)
}

// English message table.
var english = map[string]string{
	"callout.note":    "Note",
	"callout.tip":     "Tip",
	"callout.info":    "Info",
	"callout.warning": "Warning",
	"callout.danger":  "Danger",
	"callout.caution": "Caution",

	"code.copy":       "Copy",
	"code.copied":     "Copied!",
	"code.copy_label": "Copy code",
	"code.plain_text": "Plain Text",

	"diagram.loading":     "Loading diagram…",
	"diagram.expand":      "Click to expand",
	"diagram.failed":      "Failed to render diagram: {error}",
	"diagram.label":       "Diagram",
	"diagram.unavailable": "Diagram engine unavailable, showing source ({error})",
	"diagram.unrendered":  "Diagram not rendered, showing source",

	"viewer.zoom_in":  "Zoom in (+)",
	"viewer.zoom_out": "Zoom out (-)",
	"viewer.reset":    "Reset view (0)",
	"viewer.close":    "Close (Esc)",
	"viewer.hint":     "Scroll to zoom • Drag to pan • Press Esc to close",
	"viewer.title":    "Diagram viewer",
	"viewer.zoom":     "{percent}%",
}

// Catalog is a thread-safe message catalog keyed by language.
type Catalog struct {
	mu      sync.RWMutex
	builder *catalog.Builder
	tags    []language.Tag
	matcher language.Matcher
}

// NewCatalog returns a catalog preloaded with the English messages.
func NewCatalog() *Catalog {
	c := &Catalog{builder: catalog.NewBuilder(catalog.Fallback(language.English))}
	for key, msg := range english {
		// SetString only fails on malformed tags.
		_ = c.builder.SetString(language.English, key, literal(msg))
	}
	c.tags = []language.Tag{language.English}
	c.matcher = language.NewMatcher(c.tags)
	return c
}

// Set registers msg for key in the given locale.
func (c *Catalog) Set(locale, key, msg string) error {
	tag, err := language.Parse(locale)
	if err != nil {
		return fmt.Errorf("parse locale %q: %w", locale, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.builder.SetString(tag, key, literal(msg)); err != nil {
		return fmt.Errorf("set message %q: %w", key, err)
	}
	for _, t := range c.tags {
		if t == tag {
			return nil
		}
	}
	c.tags = append(c.tags, tag)
	c.matcher = language.NewMatcher(c.tags)
	return nil
}

// Languages lists the locales with at least one message.
func (c *Catalog) Languages() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.tags))
	for _, t := range c.tags {
		out = append(out, t.String())
	}
	sort.Strings(out)
	return out
}

// Translator returns a Translator for the best match of locale. Unknown or
// empty locales resolve to English.
func (c *Catalog) Translator(locale string) Translator {
	c.mu.RLock()
	tag := language.English
	if locale != "" {
		_, idx, conf := c.matcher.Match(language.Make(locale))
		if conf != language.No {
			tag = c.tags[idx]
		}
	}
	c.mu.RUnlock()

	printer := message.NewPrinter(tag, message.Catalog(c.builder))
	return func(key string, params map[string]string) string {
		return substitute(printer.Sprintf(message.Key(key, key)), params)
	}
}

// literal escapes printf verbs: messages use "{name}" placeholders, so a
// '%' in a message is always text.
func literal(msg string) string {
	return strings.ReplaceAll(msg, "%", "%%")
}

func substitute(msg string, params map[string]string) string {
	if len(params) == 0 || !strings.Contains(msg, "{") {
		return msg
	}
	pairs := make([]string, 0, len(params)*2)
	for name, value := range params {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}
