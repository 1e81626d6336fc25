// Package config manages application configuration from a TOML file,
// environment variables and flags.
package config

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/euforicio/richmd/internal/i18n"
	"github.com/euforicio/richmd/internal/renderer"
	"github.com/euforicio/richmd/internal/renderer/diagram"
	"github.com/euforicio/richmd/internal/renderer/highlight"
)

const envPrefix = "RICHMD_"

// Output formats understood by the render command.
const (
	FormatHTML     = "html"
	FormatFragment = "fragment"
	FormatText     = "txt"
	FormatMarkdown = "md"
	FormatPDF      = "pdf"
)

// Formats lists the valid values of Config.Format.
func Formats() []string {
	return []string{FormatHTML, FormatFragment, FormatText, FormatMarkdown, FormatPDF}
}

// Config holds runtime configuration for the renderer and the CLI.
type Config struct {
	ConfigFile string

	BasePath         string
	HideFirstHeading bool
	Theme            string
	Locale           string
	Format           string
	Output           string
	Title            string

	MermaidCLI       string
	PuppeteerConfig  string
	EnableD2         bool
	DiagramTimeout   time.Duration
	HighlightTimeout time.Duration
	CacheSize        int
	Concurrency      int

	InlineStyles bool
	LightStyle   string
	DarkStyle    string

	Watch   bool
	Verbose bool

	// Diagram is only configurable through the config file.
	Diagram diagram.Config
	// Messages maps locale to message key to text.
	Messages map[string]map[string]string
}

// Default returns ready-to-use defaults prior to file/env/flag overrides.
func Default() Config {
	hl := highlight.DefaultOptions()
	return Config{
		HideFirstHeading: true,
		Theme:            string(highlight.ThemeAuto),
		Locale:           "en",
		Format:           FormatHTML,
		MermaidCLI:       "mmdc",
		DiagramTimeout:   15 * time.Second,
		HighlightTimeout: 5 * time.Second,
		CacheSize:        256,
		Concurrency:      runtime.GOMAXPROCS(0),
		LightStyle:       hl.LightStyle,
		DarkStyle:        hl.DarkStyle,
		Diagram:          diagram.DefaultConfig(),
	}
}

// RegisterFlags attaches configuration flags to the provided FlagSet.
func RegisterFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVarP(&cfg.ConfigFile, "config", "c", cfg.ConfigFile, "path to a TOML configuration file")
	fs.StringVarP(&cfg.BasePath, "base-path", "b", cfg.BasePath, "base path relative image references resolve against")
	fs.BoolVar(&cfg.HideFirstHeading, "hide-first-heading", cfg.HideFirstHeading, "drop a leading level-1 heading and use it as the title")
	fs.StringVarP(&cfg.Theme, "theme", "t", cfg.Theme, "color theme: light, dark or auto")
	fs.StringVarP(&cfg.Locale, "locale", "l", cfg.Locale, "locale for generated labels")
	fs.StringVarP(&cfg.Format, "format", "f", cfg.Format, "output format: "+strings.Join(Formats(), ", "))
	fs.StringVarP(&cfg.Output, "out", "o", cfg.Output, "output file (default: stdout)")
	fs.StringVar(&cfg.Title, "title", cfg.Title, "page title for standalone html (default: document title)")
	fs.StringVar(&cfg.MermaidCLI, "mermaid-cli", cfg.MermaidCLI, "mermaid-cli executable used to render mermaid diagrams")
	fs.StringVar(&cfg.PuppeteerConfig, "puppeteer-config", cfg.PuppeteerConfig, "puppeteer config file passed to the mermaid-cli")
	fs.BoolVar(&cfg.EnableD2, "d2", cfg.EnableD2, "render d2 fences as diagrams")
	fs.DurationVar(&cfg.DiagramTimeout, "diagram-timeout", cfg.DiagramTimeout, "maximum time for one diagram render")
	fs.DurationVar(&cfg.HighlightTimeout, "highlight-timeout", cfg.HighlightTimeout, "maximum time for one code block highlight")
	fs.IntVar(&cfg.CacheSize, "cache-size", cfg.CacheSize, "number of cached diagram and highlight results (0 disables)")
	fs.IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "maximum concurrent jobs per document")
	fs.BoolVar(&cfg.InlineStyles, "inline-styles", cfg.InlineStyles, "emit inline highlight styles instead of classes")
	fs.StringVar(&cfg.LightStyle, "light-style", cfg.LightStyle, "chroma style for the light theme")
	fs.StringVar(&cfg.DarkStyle, "dark-style", cfg.DarkStyle, "chroma style for the dark theme")
	fs.BoolVarP(&cfg.Watch, "watch", "w", cfg.Watch, "re-render when the input file changes")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "enable verbose logging")
}

// ApplyEnvOverrides reads supported environment variables and overrides cfg in place.
func ApplyEnvOverrides(cfg *Config) {
	applyStringEnv("CONFIG", func(v string) { cfg.ConfigFile = v })
	applyStringEnv("BASE_PATH", func(v string) { cfg.BasePath = v })
	applyBoolEnv("HIDE_FIRST_HEADING", func(v bool) { cfg.HideFirstHeading = v })
	applyStringEnv("THEME", func(v string) { cfg.Theme = v })
	applyStringEnv("LOCALE", func(v string) { cfg.Locale = v })
	applyStringEnv("FORMAT", func(v string) { cfg.Format = v })
	applyStringEnv("OUT", func(v string) { cfg.Output = v })
	applyStringEnv("MERMAID_CLI", func(v string) { cfg.MermaidCLI = v })
	applyStringEnv("PUPPETEER_CONFIG", func(v string) { cfg.PuppeteerConfig = v })
	applyBoolEnv("D2", func(v bool) { cfg.EnableD2 = v })
	applyDurationEnv("DIAGRAM_TIMEOUT", func(v time.Duration) { cfg.DiagramTimeout = v })
	applyDurationEnv("HIGHLIGHT_TIMEOUT", func(v time.Duration) { cfg.HighlightTimeout = v })
	applyIntEnv("CACHE_SIZE", func(v int) { cfg.CacheSize = v })
	applyIntEnv("CONCURRENCY", func(v int) { cfg.Concurrency = v })
	applyBoolEnv("INLINE_STYLES", func(v bool) { cfg.InlineStyles = v })
	applyStringEnv("LIGHT_STYLE", func(v string) { cfg.LightStyle = v })
	applyStringEnv("DARK_STYLE", func(v string) { cfg.DarkStyle = v })
	applyBoolEnv("VERBOSE", func(v bool) { cfg.Verbose = v })
}

func applyStringEnv(key string, apply func(string)) {
	if raw, ok := lookupNonEmpty(key); ok {
		apply(raw)
	}
}

func applyIntEnv(key string, apply func(int)) {
	if raw, ok := lookupNonEmpty(key); ok {
		if value, err := strconv.Atoi(raw); err == nil {
			apply(value)
		}
	}
}

func applyBoolEnv(key string, apply func(bool)) {
	if raw, ok := lookupNonEmpty(key); ok {
		if value, err := strconv.ParseBool(raw); err == nil {
			apply(value)
		}
	}
}

func applyDurationEnv(key string, apply func(time.Duration)) {
	if raw, ok := lookupNonEmpty(key); ok {
		if value, err := time.ParseDuration(raw); err == nil {
			apply(value)
		}
	}
}

func lookupNonEmpty(key string) (string, bool) {
	raw, ok := os.LookupEnv(envPrefix + key)
	if !ok {
		return "", false
	}
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", false
	}
	return value, true
}

// Resolve layers the sources in increasing precedence: defaults, the TOML
// file, environment variables, then the flags explicitly set on fs. cfg must
// be the value fs was registered with; it is replaced by the result.
func Resolve(fs *pflag.FlagSet, cfg *Config) error {
	path := cfg.ConfigFile
	if !fs.Changed("config") {
		if raw, ok := lookupNonEmpty("CONFIG"); ok {
			path = raw
		}
	}

	base := Default()
	if path != "" {
		if err := LoadFile(path, &base); err != nil {
			return err
		}
		base.ConfigFile = path
	}
	ApplyEnvOverrides(&base)

	overlay := pflag.NewFlagSet("overlay", pflag.ContinueOnError)
	RegisterFlags(overlay, &base)
	var setErr error
	fs.Visit(func(f *pflag.Flag) {
		if setErr != nil || overlay.Lookup(f.Name) == nil {
			return
		}
		if err := overlay.Set(f.Name, f.Value.String()); err != nil {
			setErr = fmt.Errorf("apply flag --%s: %w", f.Name, err)
		}
	})
	if setErr != nil {
		return setErr
	}

	*cfg = base
	return nil
}

// Finalize validates and normalizes values.
func Finalize(cfg *Config) error {
	cfg.Format = strings.ToLower(strings.TrimSpace(cfg.Format))
	if cfg.Format == "markdown" {
		cfg.Format = FormatMarkdown
	}
	valid := false
	for _, f := range Formats() {
		if cfg.Format == f {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("unsupported format %q (allowed: %s)", cfg.Format, strings.Join(Formats(), ", "))
	}

	theme, err := highlight.ParseTheme(cfg.Theme)
	if err != nil {
		return err
	}
	cfg.Theme = string(theme)

	if cfg.DiagramTimeout <= 0 {
		return fmt.Errorf("invalid diagram timeout: %s", cfg.DiagramTimeout)
	}
	if cfg.HighlightTimeout <= 0 {
		return fmt.Errorf("invalid highlight timeout: %s", cfg.HighlightTimeout)
	}
	if cfg.CacheSize < 0 {
		return fmt.Errorf("invalid cache size: %d", cfg.CacheSize)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.GOMAXPROCS(0)
	}
	if cfg.Watch && cfg.Output == "" && cfg.Format == FormatPDF {
		return fmt.Errorf("--watch with pdf output requires --out")
	}
	return nil
}

// RendererOptions converts the configuration into renderer options,
// loading configured messages into a fresh catalog.
func (c Config) RendererOptions() (renderer.Options, error) {
	catalog := i18n.NewCatalog()
	locales := make([]string, 0, len(c.Messages))
	for locale := range c.Messages {
		locales = append(locales, locale)
	}
	sort.Strings(locales)
	for _, locale := range locales {
		for key, msg := range c.Messages[locale] {
			if err := catalog.Set(locale, key, msg); err != nil {
				return renderer.Options{}, fmt.Errorf("messages: %w", err)
			}
		}
	}

	opts := renderer.DefaultOptions()
	opts.Highlight.LightStyle = c.LightStyle
	opts.Highlight.DarkStyle = c.DarkStyle
	opts.Highlight.InlineStyles = c.InlineStyles
	opts.Highlight.CacheSize = c.CacheSize
	opts.Diagram = c.Diagram
	opts.DiagramTimeout = c.DiagramTimeout
	opts.HighlightTimeout = c.HighlightTimeout
	opts.CacheSize = c.CacheSize
	opts.Concurrency = c.Concurrency
	opts.MermaidBinary = c.MermaidCLI
	opts.PuppeteerConfig = c.PuppeteerConfig
	opts.EnableD2 = c.EnableD2
	opts.Catalog = catalog
	return opts, nil
}

// Input builds a render request for source.
func (c Config) Input(source string) renderer.Input {
	return renderer.Input{
		Source:           source,
		BasePath:         c.BasePath,
		HideFirstHeading: c.HideFirstHeading,
		Theme:            highlight.Theme(c.Theme),
		Locale:           c.Locale,
	}
}
