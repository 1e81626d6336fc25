package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/euforicio/richmd/internal/renderer/diagram"
)

type fileConfig struct {
	Renderer  rendererSection              `toml:"renderer"`
	Highlight highlightSection             `toml:"highlight"`
	Diagram   diagram.Config               `toml:"diagram"`
	Messages  map[string]map[string]string `toml:"messages"`
}

type rendererSection struct {
	BasePath         string        `toml:"base_path"`
	HideFirstHeading bool          `toml:"hide_first_heading"`
	Theme            string        `toml:"theme"`
	Locale           string        `toml:"locale"`
	Format           string        `toml:"format"`
	Title            string        `toml:"title"`
	MermaidCLI       string        `toml:"mermaid_cli"`
	PuppeteerConfig  string        `toml:"puppeteer_config"`
	EnableD2         bool          `toml:"d2"`
	DiagramTimeout   time.Duration `toml:"diagram_timeout"`
	HighlightTimeout time.Duration `toml:"highlight_timeout"`
	CacheSize        int           `toml:"cache_size"`
	Concurrency      int           `toml:"concurrency"`
}

type highlightSection struct {
	LightStyle   string `toml:"light_style"`
	DarkStyle    string `toml:"dark_style"`
	InlineStyles bool   `toml:"inline_styles"`
}

// LoadFile overlays the TOML file at path onto cfg. Keys absent from the
// file keep their current values; unknown keys are an error.
func LoadFile(path string, cfg *Config) error {
	fc := fileConfig{
		Renderer: rendererSection{
			BasePath:         cfg.BasePath,
			HideFirstHeading: cfg.HideFirstHeading,
			Theme:            cfg.Theme,
			Locale:           cfg.Locale,
			Format:           cfg.Format,
			Title:            cfg.Title,
			MermaidCLI:       cfg.MermaidCLI,
			PuppeteerConfig:  cfg.PuppeteerConfig,
			EnableD2:         cfg.EnableD2,
			DiagramTimeout:   cfg.DiagramTimeout,
			HighlightTimeout: cfg.HighlightTimeout,
			CacheSize:        cfg.CacheSize,
			Concurrency:      cfg.Concurrency,
		},
		Highlight: highlightSection{
			LightStyle:   cfg.LightStyle,
			DarkStyle:    cfg.DarkStyle,
			InlineStyles: cfg.InlineStyles,
		},
		Diagram: cfg.Diagram,
	}

	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return fmt.Errorf("load config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	r := fc.Renderer
	cfg.BasePath = r.BasePath
	cfg.HideFirstHeading = r.HideFirstHeading
	cfg.Theme = r.Theme
	cfg.Locale = r.Locale
	cfg.Format = r.Format
	cfg.Title = r.Title
	cfg.MermaidCLI = r.MermaidCLI
	cfg.PuppeteerConfig = r.PuppeteerConfig
	cfg.EnableD2 = r.EnableD2
	cfg.DiagramTimeout = r.DiagramTimeout
	cfg.HighlightTimeout = r.HighlightTimeout
	cfg.CacheSize = r.CacheSize
	cfg.Concurrency = r.Concurrency
	cfg.LightStyle = fc.Highlight.LightStyle
	cfg.DarkStyle = fc.Highlight.DarkStyle
	cfg.InlineStyles = fc.Highlight.InlineStyles
	cfg.Diagram = fc.Diagram
	if len(fc.Messages) > 0 {
		if cfg.Messages == nil {
			cfg.Messages = make(map[string]map[string]string, len(fc.Messages))
		}
		for locale, msgs := range fc.Messages {
			if cfg.Messages[locale] == nil {
				cfg.Messages[locale] = make(map[string]string, len(msgs))
			}
			for k, v := range msgs {
				cfg.Messages[locale][k] = v
			}
		}
	}
	return nil
}
