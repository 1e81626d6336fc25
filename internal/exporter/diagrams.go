package exporter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/euforicio/richmd/internal/i18n"
	"github.com/euforicio/richmd/internal/renderer/callout"
	"github.com/euforicio/richmd/internal/renderer/diagram"
	"github.com/euforicio/richmd/internal/renderer/directive"
	"github.com/euforicio/richmd/internal/renderer/transform"
)

var (
	containerOpen = regexp.MustCompile(`^(:{3,})([A-Za-z][\w-]*)\s*(?:\[([^\]]*)\])?\s*(\{[^}]*\})?\s*$`)
	leafOpen      = regexp.MustCompile(`^::([A-Za-z][\w-]*)(?:\[([^\]]*)\])?\s*(\{[^}]*\})?\s*$`)
	textDirective = regexp.MustCompile(`:([A-Za-z][\w-]*)(\[[^\]]*\])?(\{[^}]*\})?`)
	titleAttr     = regexp.MustCompile(`\btitle=("[^"]*"|'[^']*'|[^\s}]+)`)
)

// markdownEncoder rewrites markdown for renderers that only understand
// CommonMark: diagram fences become PNG data URI images, callout containers
// and leaf callouts become blockquotes with a bold title line, and inline
// callouts become a bold title followed by their label.
type markdownEncoder struct {
	diagrams *diagram.Renderer
	cfg      diagram.Config
	logger   *slog.Logger
}

func newMarkdownEncoder(diagrams *diagram.Renderer, cfg diagram.Config, logger *slog.Logger) *markdownEncoder {
	// Rasterization cannot draw foreignObject labels.
	cfg.Flowchart.HTMLLabels = false
	cfg.Background = "white"
	return &markdownEncoder{
		diagrams: diagrams,
		cfg:      cfg,
		logger:   logger.With("component", "markdown-encoder"),
	}
}

type container struct {
	colons int
	quote  bool
}

// encodeState carries one pass over a source.
type encodeState struct {
	out   bytes.Buffer
	stack []container
	quote int
}

func (s *encodeState) emit(line string) {
	if s.quote > 0 {
		prefix := strings.Repeat("> ", s.quote)
		if line == "" {
			line = strings.TrimSpace(prefix)
		} else {
			line = prefix + line
		}
	}
	s.out.WriteString(line)
	s.out.WriteByte('\n')
}

func (s *encodeState) push(c container) {
	s.stack = append(s.stack, c)
	if c.quote {
		s.quote++
	}
}

// pop closes the innermost container when trimmed is a closing fence for it.
func (s *encodeState) pop(trimmed string) (container, bool) {
	if len(s.stack) == 0 || trimmed == "" || strings.Trim(trimmed, ":") != "" {
		return container{}, false
	}
	top := s.stack[len(s.stack)-1]
	if len(trimmed) < top.colons {
		return container{}, false
	}
	s.stack = s.stack[:len(s.stack)-1]
	if top.quote {
		s.quote--
	}
	return top, true
}

// encode rewrites raw. Diagrams that cannot be rendered keep their fence so
// the source still reaches the reader. Only cancellation is an error.
func (e *markdownEncoder) encode(ctx context.Context, raw []byte, tr i18n.Translator) ([]byte, error) {
	if tr == nil {
		tr = i18n.Identity
	}

	var (
		st           encodeState
		scanner      = bufio.NewScanner(bytes.NewReader(raw))
		inFence      bool
		fenceMarker  string
		fenceInfo    string
		engine       string
		diagramLines []string
		count        int
	)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if !inFence {
			if marker, info, ok := parseFenceStart(trimmed); ok {
				inFence = true
				fenceMarker = marker
				fenceInfo = info
				engine = e.diagramEngine(info)
				diagramLines = diagramLines[:0]
				if engine == "" {
					st.emit(line)
				}
				continue
			}
			if m := containerOpen.FindStringSubmatch(trimmed); m != nil {
				kind, ok := callout.Parse(m[2])
				if !ok {
					st.push(container{colons: len(m[1])})
					st.emit(line)
					continue
				}
				st.push(container{colons: len(m[1]), quote: true})
				st.emit("**" + calloutTitle(kind, m[3], m[4], tr) + "**")
				st.emit("")
				continue
			}
			if m := leafOpen.FindStringSubmatch(trimmed); m != nil {
				if kind, ok := callout.Parse(m[1]); ok {
					st.quote++
					st.emit("**" + calloutTitle(kind, "", m[3], tr) + "**")
					if label := strings.TrimSpace(m[2]); label != "" {
						st.emit("")
						st.emit(flattenTextDirectives(label, tr))
					}
					st.quote--
					st.emit("")
					continue
				}
			}
			if top, ok := st.pop(trimmed); ok {
				if !top.quote {
					st.emit(line)
				} else {
					st.emit("")
				}
				continue
			}
			st.emit(flattenTextDirectives(line, tr))
			continue
		}

		if isFenceEnd(trimmed, fenceMarker) {
			if engine != "" {
				count++
				if err := e.flushDiagram(ctx, &st, count, engine, fenceInfo, strings.Join(diagramLines, "\n")); err != nil {
					if ctxErr := ctx.Err(); ctxErr != nil {
						return nil, ctxErr
					}
					e.logger.Warn("diagram kept as source", slog.String("engine", engine), slog.Any("err", err))
					st.emit(fenceMarker + fenceInfo)
					for _, l := range diagramLines {
						st.emit(l)
					}
					st.emit(fenceMarker)
				}
			} else {
				st.emit(line)
			}
			inFence = false
			fenceMarker = ""
			fenceInfo = ""
			engine = ""
			continue
		}

		if engine != "" {
			diagramLines = append(diagramLines, line)
		} else {
			st.emit(line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// Unclosed fence: emit buffered content as-is
	if inFence && engine != "" {
		st.emit(fenceMarker + fenceInfo)
		for _, l := range diagramLines {
			st.emit(l)
		}
	}

	return st.out.Bytes(), nil
}

func (e *markdownEncoder) diagramEngine(info string) string {
	if e == nil || e.diagrams == nil {
		return ""
	}
	lang, _ := transform.ParseInfo(info)
	name := transform.DiagramEngine(lang)
	if name == "" || !e.diagrams.Handles(name) {
		return ""
	}
	return name
}

func (e *markdownEncoder) flushDiagram(ctx context.Context, st *encodeState, n int, engine, info, source string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(source) == "" {
		return nil
	}

	res := e.diagrams.Render(ctx, diagram.Region{
		ID:     fmt.Sprintf("export-diagram-%d", n),
		Engine: engine,
		Source: source,
	}, e.cfg)
	switch res.State {
	case diagram.StateRendered:
	case diagram.StateFailed:
		return fmt.Errorf("render %s: %w", engine, res.Err)
	default:
		return fmt.Errorf("render %s: %w", engine, diagram.ErrEngineUnavailable)
	}

	pngData, err := svgToPNG([]byte(res.Diagram.Markup))
	if err != nil {
		return fmt.Errorf("rasterize %s svg: %w", engine, err)
	}

	_, title := transform.ParseInfo(info)
	alt := firstNonEmpty(title, engine+" diagram")
	dataURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngData)
	st.emit(fmt.Sprintf("![%s](%s)", escapeAlt(alt), dataURI))
	st.emit("")
	return nil
}

func calloutTitle(kind callout.Kind, bracket, attrs string, tr i18n.Translator) string {
	if m := titleAttr.FindStringSubmatch(attrs); m != nil {
		if t := strings.TrimSpace(strings.Trim(m[1], `"'`)); t != "" {
			return t
		}
	}
	if t := strings.TrimSpace(bracket); t != "" {
		return t
	}
	return directive.DefaultTitle(kind, tr)
}

// flattenTextDirectives rewrites inline callouts such as ":tip[label]" in
// line to "**Tip:** label". Code spans and directives that are not callouts
// are left alone.
func flattenTextDirectives(line string, tr i18n.Translator) string {
	if !strings.Contains(line, ":") {
		return line
	}
	// Odd parts sit inside code spans.
	parts := strings.Split(line, "`")
	for i := 0; i < len(parts); i += 2 {
		parts[i] = flattenSegment(parts[i], tr)
	}
	return strings.Join(parts, "`")
}

func flattenSegment(seg string, tr i18n.Translator) string {
	matches := textDirective.FindAllStringSubmatchIndex(seg, -1)
	if matches == nil {
		return seg
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start < last || !textDirectiveBoundary(seg, start) || (m[4] < 0 && m[6] < 0) {
			continue
		}
		kind, ok := callout.Parse(seg[m[2]:m[3]])
		if !ok {
			continue
		}
		var label, attrs string
		if m[4] >= 0 {
			label = strings.TrimSpace(seg[m[4]+1 : m[5]-1])
		}
		if m[6] >= 0 {
			attrs = seg[m[6]:m[7]]
		}
		b.WriteString(seg[last:start])
		title := calloutTitle(kind, "", attrs, tr)
		if label == "" {
			b.WriteString("**" + title + "**")
		} else {
			b.WriteString("**" + title + ":** " + label)
		}
		last = end
	}
	b.WriteString(seg[last:])
	return b.String()
}

// textDirectiveBoundary mirrors the inline parser: a directive cannot follow
// a letter, a digit or another colon.
func textDirectiveBoundary(seg string, start int) bool {
	if start == 0 {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(seg[:start])
	return !unicode.IsLetter(prev) && !unicode.IsDigit(prev) && prev != ':'
}

func escapeAlt(s string) string {
	r := strings.NewReplacer(`[`, `\[`, `]`, `\]`)
	return r.Replace(s)
}

func parseFenceStart(line string) (marker, info string, ok bool) {
	if strings.HasPrefix(line, "```") {
		marker = line[:leadingCount(line, '`')]
		info = strings.TrimSpace(strings.TrimPrefix(line, marker))
		ok = len(marker) >= 3
		return
	}

	if strings.HasPrefix(line, "~~~") {
		marker = line[:leadingCount(line, '~')]
		info = strings.TrimSpace(strings.TrimPrefix(line, marker))
		ok = len(marker) >= 3
		return
	}

	return "", "", false
}

func isFenceEnd(line, marker string) bool {
	if marker == "" {
		return false
	}
	if strings.Trim(line, marker[:1]) != "" {
		return false
	}
	return len(line) >= len(marker)
}

func leadingCount(line string, char rune) int {
	count := 0
	for _, r := range line {
		if r == char {
			count++
			continue
		}
		break
	}
	return count
}

// svgToPNG rasterizes an SVG into a PNG byte slice suitable for embedding as a data URI.
func svgToPNG(svg []byte) ([]byte, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svg), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}

	viewbox := icon.ViewBox
	width := int(math.Ceil(viewbox.W))
	height := int(math.Ceil(viewbox.H))
	if width <= 0 || height <= 0 {
		// Sensible default to avoid zero-sized canvases
		width, height = 800, 600
	}

	icon.SetTarget(0, 0, float64(width), float64(height))

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, canvas, canvas.Bounds())
	raster := rasterx.NewDasher(width, height, scanner)
	icon.Draw(raster, 1.0)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
