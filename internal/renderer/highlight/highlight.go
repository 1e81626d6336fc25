// Package highlight adapts chroma to the renderer: lexer lookup with a
// plaintext fallback, paired light/dark styles and a scoped stylesheet.
package highlight

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Theme selects which colour variant a render emits.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	ThemeAuto  Theme = "auto"
)

// ParseTheme accepts light, dark or auto. Empty input means auto.
func ParseTheme(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case "", ThemeAuto:
		return ThemeAuto, nil
	case ThemeLight:
		return ThemeLight, nil
	case ThemeDark:
		return ThemeDark, nil
	}
	return "", fmt.Errorf("unknown theme %q (want light, dark or auto)", s)
}

// ErrEmptyLanguage is returned when Highlight is asked to tokenise untagged code.
var ErrEmptyLanguage = errors.New("highlight: empty language")

// ErrUnknownStyle reports a style name chroma does not ship.
var ErrUnknownStyle = errors.New("highlight: unknown style")

// Options configures a Highlighter.
type Options struct {
	LightStyle string
	DarkStyle  string
	// InlineStyles emits style attributes instead of classes. Both variants
	// are then rendered and the theme decides which are kept.
	InlineStyles bool
	TabWidth     int
	// CacheSize bounds the number of memoised results. Zero disables caching.
	CacheSize int
}

// DefaultOptions mirrors the github/github-dark pairing.
func DefaultOptions() Options {
	return Options{
		LightStyle: "github",
		DarkStyle:  "github-dark",
		TabWidth:   4,
		CacheSize:  256,
	}
}

// Result is a highlighted code region.
type Result struct {
	// HTML is the class-annotated markup (class mode).
	HTML string
	// Light and Dark hold the inline-styled variants (inline mode). Only the
	// variants required by the requested theme are set.
	Light string
	Dark  string
	// Language is the name of the lexer that produced the tokens.
	Language string
	// Fallback is set when no lexer matched and plaintext was used.
	Fallback bool
}

// Highlighter is safe for concurrent use.
type Highlighter struct {
	opts    Options
	light   *chroma.Style
	dark    *chroma.Style
	classes *html.Formatter
	inline  *html.Formatter
	cache   *lru.Cache[string, Result]
	logger  *slog.Logger
}

// New validates the configured styles and prepares the formatters.
func New(logger *slog.Logger, opts Options) (*Highlighter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultOptions()
	if opts.LightStyle == "" {
		opts.LightStyle = defaults.LightStyle
	}
	if opts.DarkStyle == "" {
		opts.DarkStyle = defaults.DarkStyle
	}
	if opts.TabWidth <= 0 {
		opts.TabWidth = defaults.TabWidth
	}

	light, err := lookupStyle(opts.LightStyle)
	if err != nil {
		return nil, err
	}
	dark, err := lookupStyle(opts.DarkStyle)
	if err != nil {
		return nil, err
	}

	h := &Highlighter{
		opts:  opts,
		light: light,
		dark:  dark,
		classes: html.New(
			html.WithClasses(true),
			html.ClassPrefix(""),
			html.TabWidth(opts.TabWidth),
		),
		inline: html.New(
			html.WithClasses(false),
			html.TabWidth(opts.TabWidth),
		),
		logger: logger.With("component", "highlight"),
	}
	if opts.CacheSize > 0 {
		cache, err := lru.New[string, Result](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("highlight cache: %w", err)
		}
		h.cache = cache
	}
	return h, nil
}

func lookupStyle(name string) (*chroma.Style, error) {
	if style, ok := styles.Registry[name]; ok {
		return style, nil
	}
	if style, ok := styles.Registry[strings.ToLower(name)]; ok {
		return style, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStyle, name)
}

// InlineStyles reports whether results carry per-theme variants.
func (h *Highlighter) InlineStyles() bool {
	return h.opts.InlineStyles
}

// Highlight tokenises code with the lexer registered for lang. Unknown
// languages use chroma's plaintext lexer and set Result.Fallback.
func (h *Highlighter) Highlight(ctx context.Context, code, lang string, theme Theme) (Result, error) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return Result{}, ErrEmptyLanguage
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	key := h.cacheKey(code, lang, theme)
	if h.cache != nil {
		if res, ok := h.cache.Get(key); ok {
			return res, nil
		}
	}

	lexer := lexers.Get(lang)
	fallback := lexer == nil
	if fallback {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil && !fallback {
		h.logger.Warn("tokenise failed, using plaintext", "lang", lang, "err", err)
		lexer = chroma.Coalesce(lexers.Fallback)
		fallback = true
		iterator, err = lexer.Tokenise(nil, code)
	}
	if err != nil {
		return Result{}, fmt.Errorf("tokenise %s: %w", lang, err)
	}
	tokens := iterator.Tokens()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	res := Result{Language: lexer.Config().Name, Fallback: fallback}
	if h.opts.InlineStyles {
		if theme != ThemeDark {
			if res.Light, err = h.format(h.inline, h.light, tokens); err != nil {
				return Result{}, err
			}
		}
		if theme != ThemeLight {
			if res.Dark, err = h.format(h.inline, h.dark, tokens); err != nil {
				return Result{}, err
			}
		}
	} else if res.HTML, err = h.format(h.classes, h.light, tokens); err != nil {
		return Result{}, err
	}

	if h.cache != nil {
		h.cache.Add(key, res)
	}
	return res, nil
}

func (h *Highlighter) format(f *html.Formatter, style *chroma.Style, tokens []chroma.Token) (string, error) {
	var b strings.Builder
	if err := f.Format(&b, style, chroma.Literator(tokens...)); err != nil {
		return "", fmt.Errorf("format tokens: %w", err)
	}
	return b.String(), nil
}

func (h *Highlighter) cacheKey(code, lang string, theme Theme) string {
	sum := sha256.New()
	sum.Write([]byte(strings.ToLower(lang)))
	sum.Write([]byte{0})
	if h.opts.InlineStyles {
		sum.Write([]byte(theme))
	}
	sum.Write([]byte{0})
	sum.Write([]byte(code))
	return hex.EncodeToString(sum.Sum(nil))
}
