package i18n

import "github.com/yuin/goldmark/parser"

var translatorKey = parser.NewContextKey()

// WithParserContext stores tr on a goldmark parser context so AST
// transformers can translate default labels.
func WithParserContext(pc parser.Context, tr Translator) {
	pc.Set(translatorKey, tr)
}

// FromParserContext returns the translator stored on pc, or Identity.
func FromParserContext(pc parser.Context) Translator {
	if pc == nil {
		return Identity
	}
	if tr, ok := pc.Get(translatorKey).(Translator); ok && tr != nil {
		return tr
	}
	return Identity
}
