package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/euforicio/richmd/internal/config"
	"github.com/euforicio/richmd/internal/exporter"
	"github.com/euforicio/richmd/internal/renderer"
	"github.com/euforicio/richmd/internal/renderer/highlight"
	"github.com/euforicio/richmd/internal/watch"
)

const stdinPath = "-"

var renderCmd = &cobra.Command{
	Use:   "render [flags] [file|dir|-]",
	Short: "Render a markdown document or directory",
	Long: `Render a markdown document into standalone HTML, an HTML fragment,
plain text, portable markdown or PDF. Without an argument, or with "-", the
document is read from stdin. Given a directory, every markdown file below it
is exported into --out as a linked static site.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	registerRenderFlags(renderCmd)
}

func registerRenderFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("portable", false, "md output: embed diagrams as PNG images and flatten callouts")
	cmd.Flags().String("pdf-style", "github", "chroma style for code blocks in pdf output")
	cmd.Flags().String("site-title", "richmd", "title of the generated index page when rendering a directory")
	cmd.Flags().Bool("hidden", false, "include hidden files when rendering a directory")
	cmd.Flags().Bool("clean", false, "wipe the output directory before rendering a directory")
}

// renderJob is one resolved invocation of the render command.
type renderJob struct {
	exp      *exporter.Exporter
	logger   *slog.Logger
	stdout   io.Writer
	stderr   io.Writer
	target   string
	isDir    bool
	portable bool
	pdfStyle string
	site     exporter.SiteOptions
}

func runRender(cmd *cobra.Command, args []string) error {
	if err := resolveConfig(cmd); err != nil {
		return err
	}
	logger := newLogger(cfg.Verbose)

	job := renderJob{
		logger: logger,
		stdout: cmd.OutOrStdout(),
		stderr: cmd.ErrOrStderr(),
		target: stdinPath,
	}
	if len(args) == 1 {
		job.target = args[0]
	}

	flags := cmd.Flags()
	var err error
	if job.portable, err = flags.GetBool("portable"); err != nil {
		return err
	}
	if job.pdfStyle, err = flags.GetString("pdf-style"); err != nil {
		return err
	}

	if job.target != stdinPath {
		info, statErr := os.Stat(job.target)
		if statErr != nil {
			return fmt.Errorf("input: %w", statErr)
		}
		job.isDir = info.IsDir()
	}
	if job.isDir {
		if job.site, err = siteOptions(cmd, job.target); err != nil {
			return err
		}
	}
	if cfg.Watch && job.target == stdinPath {
		return errors.New("--watch requires an input file or directory")
	}

	opts, err := cfg.RendererOptions()
	if err != nil {
		return err
	}
	svc, err := renderer.NewService(logger, opts)
	if err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}
	if job.exp, err = exporter.New(logger, svc); err != nil {
		return fmt.Errorf("init exporter: %w", err)
	}

	ctx := cmd.Context()
	if err := job.run(ctx); err != nil {
		return err
	}
	if !cfg.Watch {
		return nil
	}

	w, err := watch.New(logger, job.target, watch.Options{IncludeHidden: job.site.IncludeHidden})
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	color.New(color.FgCyan).Fprintf(job.stderr, "watching %s (ctrl-c to stop)\n", job.target)
	err = w.Run(ctx, job.run)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func siteOptions(cmd *cobra.Command, root string) (exporter.SiteOptions, error) {
	if cfg.Output == "" {
		return exporter.SiteOptions{}, errors.New("rendering a directory requires --out")
	}
	if cfg.Format != config.FormatHTML {
		return exporter.SiteOptions{}, fmt.Errorf("rendering a directory only supports html output, got %s", cfg.Format)
	}
	flags := cmd.Flags()
	title, err := flags.GetString("site-title")
	if err != nil {
		return exporter.SiteOptions{}, err
	}
	hidden, err := flags.GetBool("hidden")
	if err != nil {
		return exporter.SiteOptions{}, err
	}
	clean, err := flags.GetBool("clean")
	if err != nil {
		return exporter.SiteOptions{}, err
	}
	return exporter.SiteOptions{
		Root:             root,
		OutputDir:        cfg.Output,
		SiteTitle:        title,
		BasePath:         cfg.BasePath,
		HideFirstHeading: cfg.HideFirstHeading,
		Theme:            highlight.Theme(cfg.Theme),
		Locale:           cfg.Locale,
		IncludeHidden:    hidden,
		CleanOutput:      clean,
	}, nil
}

func (j renderJob) run(ctx context.Context) error {
	start := time.Now()
	if j.isDir {
		report, err := j.exp.ExportSite(ctx, j.site)
		if err != nil {
			return err
		}
		printDiagnostics(j.stderr, j.target, report.Stats)
		j.logger.Info("rendered directory",
			slog.Int("documents", report.Documents),
			slog.Duration("duration", time.Since(start)))
		return nil
	}

	source, err := j.readSource()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	doc, err := j.exp.Export(ctx, &buf, cfg.Input(string(source)), exporter.Options{
		Format:   exporter.Format(cfg.Format),
		Title:    cfg.Title,
		Portable: j.portable,
		PDFStyle: j.pdfStyle,
	})
	if err != nil {
		return fmt.Errorf("render %s: %w", j.target, err)
	}
	if err := j.write(buf.Bytes()); err != nil {
		return err
	}
	printDiagnostics(j.stderr, j.target, doc.Stats)
	j.logger.Info("rendered document",
		slog.String("input", j.target),
		slog.String("format", cfg.Format),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (j renderJob) readSource() ([]byte, error) {
	if j.target == stdinPath {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(j.target) //nolint:gosec // path supplied by the user
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", j.target, err)
	}
	return data, nil
}

func (j renderJob) write(data []byte) error {
	if cfg.Output == "" {
		_, err := j.stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Output), 0o755); err != nil { //nolint:gosec // standard directory permissions
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(cfg.Output, data, 0o644); err != nil { //nolint:gosec // standard file permissions
		return fmt.Errorf("write %s: %w", cfg.Output, err)
	}
	return nil
}

// printDiagnostics reports diagrams that did not render. The document still
// shows their source, so these are warnings.
func printDiagnostics(w io.Writer, name string, stats renderer.Stats) {
	warn := color.New(color.FgYellow)
	if stats.DiagramFailures > 0 {
		warn.Fprintf(w, "%s: %d of %d diagram(s) failed to render; source shown instead\n",
			name, stats.DiagramFailures, stats.Diagrams)
	}
	if stats.DiagramsPending > 0 {
		warn.Fprintf(w, "%s: %d diagram(s) pending; is --mermaid-cli installed and on PATH?\n",
			name, stats.DiagramsPending)
	}
	if stats.HighlightFallbacks > 0 {
		color.New(color.Faint).Fprintf(w, "%s: %d code block(s) had no matching lexer\n",
			name, stats.HighlightFallbacks)
	}
}
