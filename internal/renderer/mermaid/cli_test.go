package mermaid

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/euforicio/richmd/internal/renderer/diagram"
)

const fakeMMDC = `#!/bin/sh
rec="%RECORD%"
while [ $# -gt 0 ]; do
  case "$1" in
    -i) in="$2"; shift 2 ;;
    -o) out="$2"; shift 2 ;;
    -c) cfg="$2"; shift 2 ;;
    -w) width="$2"; shift 2 ;;
    -I) id="$2"; shift 2 ;;
    *) shift ;;
  esac
done
dirname "$in" > "$rec/dir"
cp "$cfg" "$rec/config.json"
echo "$width" > "$rec/width"
if grep -q broken "$in"; then
  echo "Parse error on line 1" >&2
  exit 1
fi
printf '<svg id="%s" width="120" height="80"><g/></svg>' "$id" > "$out"
`

func fakeCLI(t *testing.T) (*CLI, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires a POSIX shell")
	}
	binDir := t.TempDir()
	record := t.TempDir()
	script := strings.ReplaceAll(fakeMMDC, "%RECORD%", record)
	bin := filepath.Join(binDir, "mmdc")
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(logger, Options{Binary: bin}), record
}

func readRecord(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return strings.TrimSpace(string(data))
}

func TestCLIRender(t *testing.T) {
	t.Parallel()

	cli, record := fakeCLI(t)
	if err := cli.Available(context.Background()); err != nil {
		t.Fatalf("Available: %v", err)
	}

	svg, err := cli.Render(context.Background(), diagram.Region{ID: "diagram-1", Engine: "mermaid", Source: "graph TD; a-->b"}, diagram.DefaultConfig())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.HasPrefix(svg, `<svg id="richmd-`) {
		t.Fatalf("svg = %s", svg)
	}
	if got := readRecord(t, record, "width"); got != "1400" {
		t.Fatalf("width = %s", got)
	}

	var cfg map[string]any
	if err := json.Unmarshal([]byte(readRecord(t, record, "config.json")), &cfg); err != nil {
		t.Fatalf("config.json: %v", err)
	}
	if cfg["securityLevel"] != "strict" || cfg["fontSize"] != float64(14) {
		t.Fatalf("config = %v", cfg)
	}

	if _, err := os.Stat(readRecord(t, record, "dir")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("scratch dir not removed: %v", err)
	}
}

func TestCLIRenderFailureCleansUp(t *testing.T) {
	t.Parallel()

	cli, record := fakeCLI(t)
	_, err := cli.Render(context.Background(), diagram.Region{Source: "graph broken"}, diagram.DefaultConfig())
	if err == nil || !strings.Contains(err.Error(), "Parse error on line 1") {
		t.Fatalf("err = %v", err)
	}
	if _, err := os.Stat(readRecord(t, record, "dir")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("scratch dir not removed: %v", err)
	}
}

func TestCLIEmptyAndMissing(t *testing.T) {
	t.Parallel()

	cli := New(nil, Options{Binary: filepath.Join(t.TempDir(), "no-such-mmdc")})
	if err := cli.Available(context.Background()); !errors.Is(err, diagram.ErrEngineUnavailable) {
		t.Fatalf("Available err = %v", err)
	}
	if _, err := cli.Render(context.Background(), diagram.Region{Source: "  \n"}, diagram.DefaultConfig()); !errors.Is(err, ErrEmptyDiagram) {
		t.Fatalf("Render err = %v", err)
	}
	if cli.Name() != "mermaid" {
		t.Fatalf("Name = %s", cli.Name())
	}
}

func TestSVGIDStable(t *testing.T) {
	t.Parallel()

	if svgID("a") != svgID("a") || svgID("a") == svgID("b") {
		t.Fatal("svg id must be derived from the source")
	}
}
