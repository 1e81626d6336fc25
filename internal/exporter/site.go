package exporter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/euforicio/richmd/internal/buildinfo"
	"github.com/euforicio/richmd/internal/renderer"
	"github.com/euforicio/richmd/internal/renderer/highlight"
	"github.com/euforicio/richmd/static"
)

const (
	indexHTML    = "index.html"
	manifestJSON = "manifest.json"
	assetPrefix  = "assets"
)

// SiteOptions configure a directory export.
type SiteOptions struct {
	Root      string
	OutputDir string
	SiteTitle string
	// BasePath is the URL path the site is served under.
	BasePath         string
	HideFirstHeading bool
	Theme            highlight.Theme
	Locale           string
	IncludeHidden    bool
	CleanOutput      bool
}

// SiteReport summarises a directory export.
type SiteReport struct {
	Documents int
	Assets    int
	Stats     renderer.Stats
}

type sourceFile struct {
	rel      string
	markdown bool
}

// ExportSite renders every markdown file under opts.Root into a linked HTML
// page below opts.OutputDir. Other files are copied so relative images keep
// working; an index page and a JSON manifest describe the result.
func (e *Exporter) ExportSite(ctx context.Context, opts SiteOptions) (SiteReport, error) {
	var report SiteReport
	if strings.TrimSpace(opts.Root) == "" {
		return report, errors.New("root directory is required")
	}
	if strings.TrimSpace(opts.OutputDir) == "" {
		return report, errors.New("output directory is required")
	}
	if strings.TrimSpace(opts.SiteTitle) == "" {
		opts.SiteTitle = "richmd"
	}
	theme, err := highlight.ParseTheme(string(opts.Theme))
	if err != nil {
		return report, err
	}

	rootDir, err := filepath.Abs(opts.Root)
	if err != nil {
		return report, fmt.Errorf("resolve root: %w", err)
	}
	outputDir, err := filepath.Abs(opts.OutputDir)
	if err != nil {
		return report, fmt.Errorf("resolve output: %w", err)
	}
	if outputDir == rootDir || strings.HasPrefix(outputDir, rootDir+string(filepath.Separator)) {
		return report, errors.New("output directory must be outside the root directory")
	}

	if err := e.prepareOutputDir(outputDir, opts.CleanOutput); err != nil {
		return report, err
	}

	generatedAt := time.Now().UTC()

	files, err := collectSources(rootDir, opts.IncludeHidden)
	if err != nil {
		return report, fmt.Errorf("scan root: %w", err)
	}

	if err := e.writeAssetBundle(filepath.Join(outputDir, assetPrefix)); err != nil {
		return report, err
	}

	var entries []manifestEntry
	for _, file := range files {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		src := filepath.Join(rootDir, filepath.FromSlash(file.rel))
		if !file.markdown {
			if err := copyFile(src, filepath.Join(outputDir, filepath.FromSlash(file.rel))); err != nil {
				return report, fmt.Errorf("copy %s: %w", file.rel, err)
			}
			report.Assets++
			continue
		}

		raw, err := os.ReadFile(src) //nolint:gosec // src constructed from validated root
		if err != nil {
			return report, fmt.Errorf("read %s: %w", file.rel, err)
		}

		out := toHTMLRel(file.rel)
		depth := strings.Count(out, "/")
		up := strings.Repeat("../", depth)

		in := renderer.Input{
			Source:           string(raw),
			BasePath:         path.Join("/", opts.BasePath, path.Dir(file.rel)),
			HideFirstHeading: opts.HideFirstHeading,
			Theme:            theme,
			Locale:           opts.Locale,
		}
		assets := assetRefs{
			Linked:     true,
			Stylesheet: up + path.Join(assetPrefix, static.StylesheetPath),
			Highlight:  up + path.Join(assetPrefix, "css", "highlight.css"),
			Script:     up + path.Join(assetPrefix, static.ScriptPath),
		}

		back := up + indexHTML
		if out == indexHTML {
			back = ""
		}

		var buf bytes.Buffer
		doc, err := e.exportHTML(ctx, &buf, in, "", assets, back)
		if err != nil {
			return report, fmt.Errorf("render %s: %w", file.rel, err)
		}
		if err := writeOutput(outputDir, out, buf.Bytes()); err != nil {
			return report, fmt.Errorf("write page %s: %w", file.rel, err)
		}

		report.Documents++
		report.Stats = addStats(report.Stats, doc.Stats)
		entries = append(entries, manifestEntry{
			Path:        out,
			Source:      file.rel,
			Title:       firstNonEmpty(doc.Metadata.Title, titleFromPath(file.rel)),
			Description: doc.Metadata.Description,
			Tags:        doc.Metadata.Tags,
			Headings:    doc.Headings,
			Stats:       doc.Stats,
		})
	}

	if err := e.writeIndex(outputDir, opts, theme, generatedAt, entries); err != nil {
		return report, err
	}
	if err := writeManifest(outputDir, generatedAt, entries); err != nil {
		return report, err
	}

	e.logger.Info("export complete",
		slog.Int("documents", report.Documents),
		slog.Int("assets", report.Assets),
		slog.String("output", outputDir),
		slog.Duration("duration", time.Since(generatedAt)))

	return report, nil
}

func (e *Exporter) prepareOutputDir(output string, clean bool) error {
	if clean {
		if err := os.RemoveAll(output); err != nil {
			return fmt.Errorf("clean output: %w", err)
		}
	}
	return os.MkdirAll(output, 0o755) //nolint:gosec // standard directory permissions
}

func (e *Exporter) writeAssetBundle(dest string) error {
	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("reset assets dir: %w", err)
	}
	if err := static.CopyAll(dest); err != nil {
		return fmt.Errorf("copy embedded assets: %w", err)
	}
	css, err := e.renderer.Highlighter().Stylesheet()
	if err != nil {
		return fmt.Errorf("highlight stylesheet: %w", err)
	}
	return writeOutput(dest, "css/highlight.css", []byte(css))
}

func (e *Exporter) writeIndex(outputDir string, opts SiteOptions, theme highlight.Theme, generatedAt time.Time, entries []manifestEntry) error {
	data := indexViewData{
		Lang:        firstNonEmpty(opts.Locale, "en"),
		Version:     buildinfo.Version,
		Title:       opts.SiteTitle,
		Theme:       string(theme),
		GeneratedAt: generatedAt,
		Assets: assetRefs{
			Linked:     true,
			Stylesheet: path.Join(assetPrefix, static.StylesheetPath),
		},
	}
	for _, entry := range entries {
		if entry.Path == indexHTML {
			// A root index.md already owns index.html.
			return nil
		}
		data.Pages = append(data.Pages, indexEntry{
			URL:         entry.Path,
			Title:       entry.Title,
			Description: entry.Description,
		})
	}

	var buf bytes.Buffer
	if err := e.templates.render(&buf, "index", data); err != nil {
		return fmt.Errorf("render index: %w", err)
	}
	return writeOutput(outputDir, indexHTML, buf.Bytes())
}

func collectSources(root string, includeHidden bool) ([]sourceFile, error) {
	var files []sourceFile
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if !includeHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel = filepath.ToSlash(rel)
		files = append(files, sourceFile{rel: rel, markdown: isMarkdown(rel)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool {
		return strings.ToLower(files[i].rel) < strings.ToLower(files[j].rel)
	})
	return files, nil
}

func isMarkdown(rel string) bool {
	switch strings.ToLower(path.Ext(rel)) {
	case ".md", ".markdown", ".mdown":
		return true
	}
	return false
}

func toHTMLRel(rel string) string {
	clean := strings.TrimSpace(rel)
	if clean == "" {
		return indexHTML
	}
	ext := path.Ext(clean)
	if ext != "" {
		clean = strings.TrimSuffix(clean, ext)
	}
	clean = strings.TrimSuffix(clean, "/")
	if clean == "" {
		return indexHTML
	}
	if strings.EqualFold(path.Base(clean), "readme") {
		clean = path.Join(path.Dir(clean), "index")
	}
	return clean + ".html"
}

func titleFromPath(p string) string {
	base := path.Base(p)
	base = strings.TrimSuffix(base, path.Ext(base))
	base = strings.ReplaceAll(base, "_", " ")
	parts := strings.Split(base, "-")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
	}
	return strings.Join(parts, " ")
}

func addStats(a, b renderer.Stats) renderer.Stats {
	return renderer.Stats{
		CodeBlocks:         a.CodeBlocks + b.CodeBlocks,
		Diagrams:           a.Diagrams + b.Diagrams,
		DiagramFailures:    a.DiagramFailures + b.DiagramFailures,
		DiagramsPending:    a.DiagramsPending + b.DiagramsPending,
		Callouts:           a.Callouts + b.Callouts,
		HighlightFallbacks: a.HighlightFallbacks + b.HighlightFallbacks,
	}
}

func writeOutput(root, rel string, data []byte) error {
	return writeFile(filepath.Join(root, filepath.FromSlash(rel)), data)
}

func writeFile(dest string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil { //nolint:gosec // standard directory permissions
		return err
	}
	return os.WriteFile(dest, data, 0o644) //nolint:gosec // standard file permissions
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src) //nolint:gosec // path from validated source directory
	if err != nil {
		return err
	}
	return writeFile(dst, data)
}

//nolint:govet // field order optimized for readability, not memory
type manifestEntry struct {
	Path        string             `json:"path"`
	Source      string             `json:"source"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Tags        []string           `json:"tags,omitempty"`
	Headings    []renderer.Heading `json:"headings,omitempty"`
	Stats       renderer.Stats     `json:"stats"`
}

func writeManifest(output string, generatedAt time.Time, entries []manifestEntry) error {
	payload := struct {
		GeneratedAt time.Time       `json:"generatedAt"`
		Version     string          `json:"version"`
		Entries     []manifestEntry `json:"entries"`
	}{
		GeneratedAt: generatedAt,
		Version:     buildinfo.Version,
		Entries:     entries,
	}
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := writeOutput(output, manifestJSON, raw); err != nil {
		return fmt.Errorf("write %s: %w", manifestJSON, err)
	}
	return nil
}
