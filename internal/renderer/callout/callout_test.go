package callout

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/euforicio/richmd/internal/renderer/icon"
)

func TestLookup(t *testing.T) {
	t.Parallel()

	cases := []struct {
		kind   Kind
		icon   string
		title  string
		accent string
	}{
		{Note, icon.InfoCircle, "Note", "blue"},
		{Tip, icon.Bulb, "Tip", "green"},
		{Info, icon.InfoCircle, "Info", "cyan"},
		{Warning, icon.AlertTriangle, "Warning", "amber"},
		{Danger, icon.AlertCircle, "Danger", "red"},
		{Caution, icon.Flame, "Caution", "orange"},
	}

	for _, tc := range cases {
		got := Lookup(tc.kind)
		if got.Kind != tc.kind || got.Icon != tc.icon || got.Title != tc.title || got.Accent != tc.accent {
			t.Errorf("Lookup(%q) = %+v", tc.kind, got)
		}
	}
}

func TestLookupUnknownFallsBackToNote(t *testing.T) {
	t.Parallel()

	for _, k := range []Kind{"", "bogus", "NOTE "} {
		if got := Lookup(k); got != templates[Note] {
			t.Errorf("Lookup(%q) = %+v, want note template", k, got)
		}
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	if k, ok := Parse(" Warning "); !ok || k != Warning {
		t.Fatalf("Parse(Warning) = %q, %v", k, ok)
	}
	if _, ok := Parse("sidebar"); ok {
		t.Fatal("expected sidebar to be rejected")
	}
	if len(Kinds) != len(templates) {
		t.Fatalf("Kinds has %d entries, templates %d", len(Kinds), len(templates))
	}
}

func TestOpenEscapesTitle(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	Open(w, Lookup(Danger), `<b>"hot"</b>`)
	_, _ = w.WriteString("<p>body</p>")
	Close(w)
	_ = w.Flush()

	out := buf.String()
	for _, want := range []string{
		`class="callout callout-danger accent-red"`,
		`&lt;b&gt;&#34;hot&#34;&lt;/b&gt;`,
		`<div class="callout-body"><p>body</p></div></div>`,
		`<svg`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestOpenDefaultsTitle(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	OpenInline(w, Lookup(Tip), "")
	CloseInline(w)
	_ = w.Flush()

	if !strings.Contains(buf.String(), `title="Tip"`) {
		t.Fatalf("expected default title, got %s", buf.String())
	}
	if MessageKey("unknown") != "callout.note" {
		t.Fatalf("MessageKey fallback = %q", MessageKey("unknown"))
	}
}
