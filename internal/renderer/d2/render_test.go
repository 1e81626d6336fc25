package d2

import (
	"context"
	"errors"
	"testing"

	"oss.terrastruct.com/d2/d2renderers/d2svg"
	"oss.terrastruct.com/d2/d2themes/d2themescatalog"

	"github.com/euforicio/richmd/internal/renderer/diagram"
)

func TestRenderRejectsEmptySource(t *testing.T) {
	t.Parallel()

	r := New(nil)
	if r.Name() != "d2" {
		t.Fatalf("Name = %q", r.Name())
	}
	_, err := r.Render(context.Background(), diagram.Region{Source: " \n\t"}, diagram.DefaultConfig())
	if !errors.Is(err, ErrEmptyDiagram) {
		t.Fatalf("err = %v, want ErrEmptyDiagram", err)
	}
}

func TestRenderOptionsDefaults(t *testing.T) {
	t.Parallel()

	opts := renderOptions(diagram.DefaultConfig().D2)
	if *opts.ThemeID != d2themescatalog.NeutralDefault.ID {
		t.Fatalf("theme = %d", *opts.ThemeID)
	}
	if *opts.DarkThemeID != d2themescatalog.DarkFlagshipTerrastruct.ID {
		t.Fatalf("dark theme = %d", *opts.DarkThemeID)
	}
	if *opts.Pad != int64(d2svg.DEFAULT_PADDING) || *opts.Sketch {
		t.Fatalf("pad = %d sketch = %v", *opts.Pad, *opts.Sketch)
	}

	custom := renderOptions(diagram.D2Config{ThemeID: 3, DarkThemeID: 200, Pad: 0, Sketch: true})
	if *custom.ThemeID != 3 || *custom.DarkThemeID != 200 || *custom.Pad != 0 || !*custom.Sketch {
		t.Fatalf("custom options not applied: %+v", custom)
	}
}

func TestLayoutResolver(t *testing.T) {
	t.Parallel()

	r := New(nil)
	for _, name := range []string{"", "dagre", "ELK"} {
		if _, err := r.layoutResolver(name); err != nil {
			t.Fatalf("layout %q: %v", name, err)
		}
	}
	if _, err := r.layoutResolver("tala"); err == nil {
		t.Fatal("expected unsupported layout error")
	}
}
