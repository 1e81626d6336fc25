package diagram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const sampleSVG = `<svg id="m1" width="812" height="400" xmlns="http://www.w3.org/2000/svg" style="max-width: 812px;" onload="alert(1)"><style>#m1 .node{fill:red}</style><script>alert(2)</script><g onclick="steal()"><a href="javascript:void(0)"><text>ok</text></a></g></svg>`

type fakeEngine struct {
	name     string
	probeErr error
	svg      string
	err      error
	delay    time.Duration

	probes  atomic.Int32
	renders atomic.Int32
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Available(context.Context) error {
	f.probes.Add(1)
	return f.probeErr
}

func (f *fakeEngine) Render(ctx context.Context, _ Region, _ Config) (string, error) {
	f.renders.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.svg, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRenderer(t *testing.T, opts Options, engines ...Engine) *Renderer {
	t.Helper()
	r, err := NewRenderer(discardLogger(), opts, engines...)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func TestPostProcess(t *testing.T) {
	t.Parallel()

	out, err := PostProcess(sampleSVG)
	if err != nil {
		t.Fatalf("PostProcess: %v", err)
	}
	if out.ViewBox != "0 0 812 400" || out.Width != 812 || out.Height != 400 {
		t.Fatalf("geometry = %q %v x %v", out.ViewBox, out.Width, out.Height)
	}
	for _, want := range []string{
		`<svg id="m1" xmlns="http://www.w3.org/2000/svg" viewBox="0 0 812 400" style="` + InlineStyle + `">`,
		`#m1 .node{fill:red}.node rect`,
		`text{font-family:system-ui`,
		`<g>`,
		`<text>ok</text>`,
	} {
		if !strings.Contains(out.Markup, want) {
			t.Errorf("markup missing %q:\n%s", want, out.Markup)
		}
	}
	for _, bad := range []string{"onload", "onclick", "<script", "javascript:", `width="812"`, "max-width: 812px"} {
		if strings.Contains(out.Markup, bad) {
			t.Errorf("markup still contains %q:\n%s", bad, out.Markup)
		}
	}
}

func TestPostProcessKeepsViewBoxAndAddsStyle(t *testing.T) {
	t.Parallel()

	out, err := PostProcess(`<svg viewBox="0 0 300 150" width="100%"><g/></svg>`)
	if err != nil {
		t.Fatal(err)
	}
	if out.ViewBox != "0 0 300 150" || out.Width != 300 || out.Height != 150 {
		t.Fatalf("geometry = %q %v x %v", out.ViewBox, out.Width, out.Height)
	}
	if !strings.Contains(out.Markup, "<style>.node rect") {
		t.Fatalf("expected injected style element:\n%s", out.Markup)
	}
	if _, err := PostProcess("not svg"); !errors.Is(err, ErrNoSVG) {
		t.Fatalf("err = %v", err)
	}
}

func TestPostProcessSanitizes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		svg  string
		want []string
		bad  []string
	}{
		{
			name: "slash separated handler",
			svg:  `<svg viewBox="0 0 10 10"><image href="x.png"/onload="alert(1)"/></svg>`,
			want: []string{`<image href="x.png">`},
			bad:  []string{"onload", "alert"},
		},
		{
			name: "entity encoded scheme",
			svg:  `<svg viewBox="0 0 10 10"><a href="&#106;avascript:alert(1)"><text>x</text></a><a xlink:href="java&#x09;script:alert(2)"><text>y</text></a></svg>`,
			want: []string{`<a><text>x</text></a>`, `<a><text>y</text></a>`},
			bad:  []string{"avascript", "alert", "&#"},
		},
		{
			name: "animation rewrites href",
			svg:  `<svg viewBox="0 0 10 10"><a href="#n"><set attributeName="href" to="javascript:alert(1)"/><animate attributeName="href" values="javascript:alert(2)"/><text>n</text></a></svg>`,
			want: []string{`<a href="#n"><text>n</text></a>`},
			bad:  []string{"<set", "<animate", "javascript:"},
		},
		{
			name: "foreign object content",
			svg:  `<svg viewBox="0 0 10 10"><foreignObject width="10" height="10"><div class="nodeLabel" onmouseover="x()"><span>label</span><img src="a.png" onerror="alert(1)"><iframe src="javascript:alert(2)"></iframe></div></foreignObject></svg>`,
			want: []string{`<foreignObject width="10" height="10">`, `<div class="nodeLabel"><span>label</span><img src="a.png"/></div>`},
			bad:  []string{"onmouseover", "onerror", "<iframe", "alert"},
		},
		{
			name: "safe links kept",
			svg:  `<svg viewBox="0 0 10 10"><a href="https://example.com/x"><text>a</text></a><image href="data:image/png;base64,AAAA"/><image href="data:image/svg+xml,&lt;svg onload=alert(1)&gt;"/></svg>`,
			want: []string{`href="https://example.com/x"`, `href="data:image/png;base64,AAAA"`},
			bad:  []string{"svg+xml"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			out, err := PostProcess(tc.svg)
			if err != nil {
				t.Fatalf("PostProcess: %v", err)
			}
			for _, want := range tc.want {
				if !strings.Contains(out.Markup, want) {
					t.Errorf("markup missing %q:\n%s", want, out.Markup)
				}
			}
			for _, bad := range tc.bad {
				if strings.Contains(out.Markup, bad) {
					t.Errorf("markup still contains %q:\n%s", bad, out.Markup)
				}
			}
		})
	}
}

func TestPostProcessKeepsCSSEscaped(t *testing.T) {
	t.Parallel()

	out, err := PostProcess(`<svg viewBox="0 0 10 10"><style>g > text{fill:red}</style><g/></svg>`)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.Markup, "<style>g &gt; text{fill:red}.node rect") {
		t.Fatalf("style text not escaped for inline svg:\n%s", out.Markup)
	}
}

func TestFullscreen(t *testing.T) {
	t.Parallel()

	out, err := PostProcess(sampleSVG)
	if err != nil {
		t.Fatal(err)
	}
	full := Fullscreen(out.Markup)
	if !strings.Contains(full, FullscreenStyle) || strings.Contains(full, InlineStyle) {
		t.Fatalf("fullscreen variant wrong:\n%s", full)
	}
}

func TestRenderStates(t *testing.T) {
	t.Parallel()

	ok := &fakeEngine{name: "mermaid", svg: sampleSVG}
	broken := &fakeEngine{name: "broken", err: errors.New("Parse error on line 1")}
	missing := &fakeEngine{name: "d2", probeErr: ErrEngineUnavailable}
	r := newTestRenderer(t, Options{}, ok, broken, missing)
	cfg := DefaultConfig()

	if res := r.Render(context.Background(), Region{ID: "diagram-1", Engine: "Mermaid", Source: "graph TD"}, cfg); res.State != StateRendered {
		t.Fatalf("mermaid state = %v (%v)", res.State, res.Err)
	}
	if res := r.Render(context.Background(), Region{Engine: "broken", Source: "x"}, cfg); res.State != StateFailed || !strings.Contains(res.Err.Error(), "Parse error") {
		t.Fatalf("broken = %+v", res)
	}
	for i := 0; i < 3; i++ {
		res := r.Render(context.Background(), Region{Engine: "d2", Source: "a -> b"}, cfg)
		if res.State != StatePending || !errors.Is(res.Err, ErrEngineUnavailable) {
			t.Fatalf("d2 = %v (%v); pending results carry the unavailable reason", res.State, res.Err)
		}
	}
	if missing.probes.Load() != 1 || missing.renders.Load() != 0 {
		t.Fatalf("probe once / never render: probes=%d renders=%d", missing.probes.Load(), missing.renders.Load())
	}
	if res := r.Render(context.Background(), Region{Engine: "plantuml"}, cfg); !errors.Is(res.Err, ErrUnknownEngine) {
		t.Fatalf("unknown engine err = %v", res.Err)
	}
	if got := strings.Join(r.Engines(), ","); got != "broken,d2,mermaid" {
		t.Fatalf("Engines() = %s", got)
	}
}

func TestRenderCollapsesAndCaches(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{name: "mermaid", svg: sampleSVG, delay: 100 * time.Millisecond}
	r := newTestRenderer(t, Options{CacheSize: 8}, engine)
	cfg := DefaultConfig()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if res := r.Render(context.Background(), Region{Engine: "mermaid", Source: "graph LR; a-->b"}, cfg); res.State != StateRendered {
				t.Errorf("state = %v", res.State)
			}
		}()
	}
	wg.Wait()
	if n := engine.renders.Load(); n != 1 {
		t.Fatalf("engine rendered %d times, want 1", n)
	}

	r.Render(context.Background(), Region{Engine: "mermaid", Source: "graph LR; a-->b"}, cfg)
	if n := engine.renders.Load(); n != 1 {
		t.Fatalf("cache miss: %d renders", n)
	}

	changed := cfg
	changed.FontSize = 20
	r.Render(context.Background(), Region{Engine: "mermaid", Source: "graph LR; a-->b"}, changed)
	if n := engine.renders.Load(); n != 2 {
		t.Fatalf("config change should miss the cache: %d renders", n)
	}
}

func TestRenderTimeoutIsNotCached(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{name: "mermaid", svg: sampleSVG, delay: time.Second}
	r := newTestRenderer(t, Options{Timeout: 20 * time.Millisecond, CacheSize: 8}, engine)

	res := r.Render(context.Background(), Region{Engine: "mermaid", Source: "slow"}, DefaultConfig())
	if res.State != StateFailed || !errors.Is(res.Err, context.DeadlineExceeded) {
		t.Fatalf("res = %+v", res)
	}
	if r.cache.Len() != 0 {
		t.Fatal("timed out result was cached")
	}
}

func TestRenderCallerCancellation(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{name: "mermaid", svg: sampleSVG, delay: 200 * time.Millisecond}
	r := newTestRenderer(t, Options{}, engine)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	res := r.Render(ctx, Region{Engine: "mermaid", Source: "x"}, DefaultConfig())
	if res.State != StateFailed || !errors.Is(res.Err, context.DeadlineExceeded) {
		t.Fatalf("res = %+v", res)
	}
}

func TestDefaultConfigJSON(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	flow := decoded["flowchart"].(map[string]any)
	if flow["curve"] != "basis" || flow["useMaxWidth"] != false || flow["nodeSpacing"] != float64(60) {
		t.Fatalf("flowchart = %v", flow)
	}
	if _, ok := decoded["quadrantChart"]; !ok {
		t.Fatal("missing quadrantChart section")
	}
	for _, hidden := range []string{"Width", "D2", "Background"} {
		if _, ok := decoded[hidden]; ok {
			t.Fatalf("%s should not reach the engine config", hidden)
		}
	}
	if DefaultConfig().Fingerprint() != DefaultConfig().Fingerprint() {
		t.Fatal("fingerprint not stable")
	}
}
