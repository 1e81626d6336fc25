// Package mermaid renders mermaid diagrams with the mermaid-cli (mmdc)
// executable.
package mermaid

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/euforicio/richmd/internal/renderer/diagram"
)

// ErrEmptyDiagram is returned when the supplied diagram body is empty.
var ErrEmptyDiagram = errors.New("empty mermaid diagram")

// DefaultBinary is looked up on PATH when no binary is configured.
const DefaultBinary = "mmdc"

// CLI is a diagram.Engine backed by mmdc.
type CLI struct {
	binary          string
	puppeteerConfig string
	logger          *slog.Logger
}

// Options configure the CLI engine.
type Options struct {
	// Binary is a path or a name resolved through PATH.
	Binary string
	// PuppeteerConfig is passed to mmdc with -p when set.
	PuppeteerConfig string
}

// New creates a CLI engine.
func New(logger *slog.Logger, opts Options) *CLI {
	if logger == nil {
		logger = slog.Default()
	}
	bin := strings.TrimSpace(opts.Binary)
	if bin == "" {
		bin = DefaultBinary
	}
	return &CLI{
		binary:          bin,
		puppeteerConfig: opts.PuppeteerConfig,
		logger:          logger.With("component", "mermaid"),
	}
}

func (c *CLI) Name() string { return "mermaid" }

// Available checks that the executable can be found.
func (c *CLI) Available(context.Context) error {
	if _, err := exec.LookPath(c.binary); err != nil {
		return fmt.Errorf("%w: %s: %v", diagram.ErrEngineUnavailable, c.binary, err)
	}
	return nil
}

// Render draws region.Source to SVG. Every call gets its own temporary
// directory, removed before returning.
func (c *CLI) Render(ctx context.Context, region diagram.Region, cfg diagram.Config) (string, error) {
	if strings.TrimSpace(region.Source) == "" {
		return "", ErrEmptyDiagram
	}
	bin, err := exec.LookPath(c.binary)
	if err != nil {
		return "", fmt.Errorf("%w: %v", diagram.ErrEngineUnavailable, err)
	}

	tmpDir, err := os.MkdirTemp("", "richmd-mermaid-*")
	if err != nil {
		return "", fmt.Errorf("scratch dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	inPath := filepath.Join(tmpDir, "diagram.mmd")
	outPath := filepath.Join(tmpDir, "diagram.svg")
	cfgPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(inPath, []byte(region.Source), 0o600); err != nil {
		return "", err
	}
	rawCfg, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode mermaid config: %w", err)
	}
	if err := os.WriteFile(cfgPath, rawCfg, 0o600); err != nil {
		return "", err
	}

	width := cfg.Width
	if width <= 0 {
		width = diagram.ReferenceWidth
	}
	background := cfg.Background
	if background == "" {
		background = "transparent"
	}

	args := []string{
		"-i", inPath,
		"-o", outPath,
		"-c", cfgPath,
		"-w", strconv.Itoa(width),
		"-b", background,
		"-I", svgID(region.Source),
		"--quiet",
	}
	if c.puppeteerConfig != "" {
		args = append(args, "-p", c.puppeteerConfig)
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	// mmdc writes temp files next to input; keep cwd in tmpdir
	cmd.Dir = tmpDir

	if output, err := cmd.CombinedOutput(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("mmdc failed: %w; output: %s", err, strings.TrimSpace(string(output)))
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", errors.New("mmdc produced empty svg")
	}
	c.logger.Debug("mermaid rendered", "id", region.ID, "bytes", len(data))
	return string(data), nil
}

// svgID derives the root element id from the source so cached markup does
// not depend on where the diagram appeared.
func svgID(source string) string {
	sum := sha256.Sum256([]byte(source))
	return "richmd-" + hex.EncodeToString(sum[:4])
}
