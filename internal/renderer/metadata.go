package renderer

import (
	"fmt"
	"strconv"
	"strings"

	goldmarkmeta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
)

// Metadata is the YAML frontmatter of a document. Title, Description and
// Tags are lifted out of Raw; Raw keeps every key as decoded.
type Metadata struct {
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Raw         map[string]any `json:"-"`
}

// IsZero reports whether the document had no frontmatter.
func (m Metadata) IsZero() bool {
	return m.Title == "" && m.Description == "" && len(m.Tags) == 0 && len(m.Raw) == 0
}

// Frontmatter keys read into the typed fields, in order of preference.
var (
	titleKeys       = []string{"title"}
	descriptionKeys = []string{"description", "summary"}
	tagKeys         = []string{"tags", "keywords"}
)

func extractMetadata(pc parser.Context) Metadata {
	raw, err := goldmarkmeta.TryGet(pc)
	if err != nil || len(raw) == 0 {
		return Metadata{}
	}

	meta := Metadata{Raw: make(map[string]any, len(raw))}
	for k, v := range raw {
		meta.Raw[k] = v
	}
	meta.Title = firstScalar(raw, titleKeys)
	meta.Description = firstScalar(raw, descriptionKeys)
	for _, key := range tagKeys {
		meta.Tags = appendTags(meta.Tags, raw[key])
	}
	return meta
}

func firstScalar(raw map[string]any, keys []string) string {
	for _, key := range keys {
		if s, ok := scalar(raw[key]); ok && s != "" {
			return s
		}
	}
	return ""
}

// scalar formats YAML scalars; a title of 2024 decodes as an int.
func scalar(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), true
	case int:
		return strconv.Itoa(val), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	case fmt.Stringer:
		return strings.TrimSpace(val.String()), true
	default:
		return "", false
	}
}

// appendTags accepts a list or a comma separated string and skips
// duplicates and blanks.
func appendTags(tags []string, v any) []string {
	var items []any
	switch val := v.(type) {
	case nil:
		return tags
	case []any:
		items = val
	case []string:
		for _, s := range val {
			items = append(items, s)
		}
	case string:
		for _, s := range strings.Split(val, ",") {
			items = append(items, s)
		}
	default:
		items = []any{val}
	}

	for _, item := range items {
		s, ok := scalar(item)
		if !ok || s == "" || containsTag(tags, s) {
			continue
		}
		tags = append(tags, s)
	}
	return tags
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}
