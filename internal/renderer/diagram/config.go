package diagram

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Config is the layout and typography configuration handed to an engine on
// every render. The JSON tags follow the mermaid configuration schema so the
// value can be written straight to an mmdc config file.
type Config struct {
	Theme         string `toml:"theme" json:"theme"`
	FontFamily    string `toml:"font_family" json:"fontFamily"`
	FontSize      int    `toml:"font_size" json:"fontSize"`
	SecurityLevel string `toml:"security_level" json:"securityLevel"`

	// Width is the fixed reference width of the render surface in pixels.
	Width      int    `toml:"width" json:"-"`
	Background string `toml:"background" json:"-"`

	Flowchart FlowchartConfig `toml:"flowchart" json:"flowchart"`
	Sequence  SequenceConfig  `toml:"sequence" json:"sequence"`
	ER        ERConfig        `toml:"er" json:"er"`
	State     StateConfig     `toml:"state" json:"state"`
	Pie       PieConfig       `toml:"pie" json:"pie"`
	Gantt     GanttConfig     `toml:"gantt" json:"gantt"`
	Journey   JourneyConfig   `toml:"journey" json:"journey"`
	Mindmap   MindmapConfig   `toml:"mindmap" json:"mindmap"`
	Quadrant  QuadrantConfig  `toml:"quadrant_chart" json:"quadrantChart"`

	D2 D2Config `toml:"d2" json:"-"`
}

type FlowchartConfig struct {
	HTMLLabels     bool   `toml:"html_labels" json:"htmlLabels"`
	UseMaxWidth    bool   `toml:"use_max_width" json:"useMaxWidth"`
	Curve          string `toml:"curve" json:"curve"`
	DiagramPadding int    `toml:"diagram_padding" json:"diagramPadding"`
	NodeSpacing    int    `toml:"node_spacing" json:"nodeSpacing"`
	RankSpacing    int    `toml:"rank_spacing" json:"rankSpacing"`
	WrappingWidth  int    `toml:"wrapping_width" json:"wrappingWidth"`
}

type SequenceConfig struct {
	UseMaxWidth     bool `toml:"use_max_width" json:"useMaxWidth"`
	Wrap            bool `toml:"wrap" json:"wrap"`
	Width           int  `toml:"width" json:"width"`
	Height          int  `toml:"height" json:"height"`
	BoxMargin       int  `toml:"box_margin" json:"boxMargin"`
	BoxTextMargin   int  `toml:"box_text_margin" json:"boxTextMargin"`
	NoteMargin      int  `toml:"note_margin" json:"noteMargin"`
	MessageMargin   int  `toml:"message_margin" json:"messageMargin"`
	MirrorActors    bool `toml:"mirror_actors" json:"mirrorActors"`
	ActorFontSize   int  `toml:"actor_font_size" json:"actorFontSize"`
	NoteFontSize    int  `toml:"note_font_size" json:"noteFontSize"`
	MessageFontSize int  `toml:"message_font_size" json:"messageFontSize"`
}

type ERConfig struct {
	UseMaxWidth     bool   `toml:"use_max_width" json:"useMaxWidth"`
	LayoutDirection string `toml:"layout_direction" json:"layoutDirection"`
	MinEntityWidth  int    `toml:"min_entity_width" json:"minEntityWidth"`
	MinEntityHeight int    `toml:"min_entity_height" json:"minEntityHeight"`
	EntityPadding   int    `toml:"entity_padding" json:"entityPadding"`
	FontSize        int    `toml:"font_size" json:"fontSize"`
}

type StateConfig struct {
	UseMaxWidth    bool `toml:"use_max_width" json:"useMaxWidth"`
	TitleTopMargin int  `toml:"title_top_margin" json:"titleTopMargin"`
	NodeSpacing    int  `toml:"node_spacing" json:"nodeSpacing"`
	RankSpacing    int  `toml:"rank_spacing" json:"rankSpacing"`
}

type PieConfig struct {
	UseMaxWidth  bool    `toml:"use_max_width" json:"useMaxWidth"`
	TextPosition float64 `toml:"text_position" json:"textPosition"`
}

type GanttConfig struct {
	UseMaxWidth          bool `toml:"use_max_width" json:"useMaxWidth"`
	TitleTopMargin       int  `toml:"title_top_margin" json:"titleTopMargin"`
	BarHeight            int  `toml:"bar_height" json:"barHeight"`
	BarGap               int  `toml:"bar_gap" json:"barGap"`
	TopPadding           int  `toml:"top_padding" json:"topPadding"`
	LeftPadding          int  `toml:"left_padding" json:"leftPadding"`
	GridLineStartPadding int  `toml:"grid_line_start_padding" json:"gridLineStartPadding"`
	FontSize             int  `toml:"font_size" json:"fontSize"`
	SectionFontSize      int  `toml:"section_font_size" json:"sectionFontSize"`
}

type JourneyConfig struct {
	UseMaxWidth     bool `toml:"use_max_width" json:"useMaxWidth"`
	DiagramMarginX  int  `toml:"diagram_margin_x" json:"diagramMarginX"`
	DiagramMarginY  int  `toml:"diagram_margin_y" json:"diagramMarginY"`
	LeftMargin      int  `toml:"left_margin" json:"leftMargin"`
	Width           int  `toml:"width" json:"width"`
	Height          int  `toml:"height" json:"height"`
	BoxMargin       int  `toml:"box_margin" json:"boxMargin"`
	BoxTextMargin   int  `toml:"box_text_margin" json:"boxTextMargin"`
	NoteMargin      int  `toml:"note_margin" json:"noteMargin"`
	MessageMargin   int  `toml:"message_margin" json:"messageMargin"`
	TaskFontSize    int  `toml:"task_font_size" json:"taskFontSize"`
	SectionFontSize int  `toml:"section_font_size" json:"sectionFontSize"`
}

type MindmapConfig struct {
	UseMaxWidth  bool `toml:"use_max_width" json:"useMaxWidth"`
	Padding      int  `toml:"padding" json:"padding"`
	MaxNodeWidth int  `toml:"max_node_width" json:"maxNodeWidth"`
}

type QuadrantConfig struct {
	UseMaxWidth            bool `toml:"use_max_width" json:"useMaxWidth"`
	ChartWidth             int  `toml:"chart_width" json:"chartWidth"`
	ChartHeight            int  `toml:"chart_height" json:"chartHeight"`
	TitleFontSize          int  `toml:"title_font_size" json:"titleFontSize"`
	TitlePadding           int  `toml:"title_padding" json:"titlePadding"`
	QuadrantPadding        int  `toml:"quadrant_padding" json:"quadrantPadding"`
	XAxisLabelPadding      int  `toml:"x_axis_label_padding" json:"xAxisLabelPadding"`
	YAxisLabelPadding      int  `toml:"y_axis_label_padding" json:"yAxisLabelPadding"`
	XAxisLabelFontSize     int  `toml:"x_axis_label_font_size" json:"xAxisLabelFontSize"`
	YAxisLabelFontSize     int  `toml:"y_axis_label_font_size" json:"yAxisLabelFontSize"`
	QuadrantLabelFontSize  int  `toml:"quadrant_label_font_size" json:"quadrantLabelFontSize"`
	QuadrantTextTopPadding int  `toml:"quadrant_text_top_padding" json:"quadrantTextTopPadding"`
	PointTextPadding       int  `toml:"point_text_padding" json:"pointTextPadding"`
	PointLabelFontSize     int  `toml:"point_label_font_size" json:"pointLabelFontSize"`
	PointRadius            int  `toml:"point_radius" json:"pointRadius"`
}

// D2Config carries d2 render options. Negative values select the engine
// default.
type D2Config struct {
	ThemeID     int64  `toml:"theme_id"`
	DarkThemeID int64  `toml:"dark_theme_id"`
	Pad         int64  `toml:"pad"`
	Layout      string `toml:"layout"`
	Sketch      bool   `toml:"sketch"`
}

// ReferenceWidth is the width of the off-screen render surface.
const ReferenceWidth = 1400

// DefaultConfig returns the fixed layout constants used when nothing is
// overridden.
func DefaultConfig() Config {
	return Config{
		Theme:         "default",
		FontFamily:    "system-ui, -apple-system, sans-serif",
		FontSize:      14,
		SecurityLevel: "strict",
		Width:         ReferenceWidth,
		Background:    "transparent",
		Flowchart: FlowchartConfig{
			HTMLLabels:     true,
			Curve:          "basis",
			DiagramPadding: 20,
			NodeSpacing:    60,
			RankSpacing:    60,
			WrappingWidth:  200,
		},
		Sequence: SequenceConfig{
			Wrap:            true,
			Width:           180,
			Height:          60,
			BoxMargin:       12,
			BoxTextMargin:   8,
			NoteMargin:      12,
			MessageMargin:   40,
			ActorFontSize:   14,
			NoteFontSize:    13,
			MessageFontSize: 14,
		},
		ER: ERConfig{
			LayoutDirection: "TB",
			MinEntityWidth:  100,
			MinEntityHeight: 60,
			EntityPadding:   15,
			FontSize:        13,
		},
		State: StateConfig{
			TitleTopMargin: 20,
			NodeSpacing:    40,
			RankSpacing:    40,
		},
		Pie: PieConfig{TextPosition: 0.75},
		Gantt: GanttConfig{
			TitleTopMargin:       20,
			BarHeight:            24,
			BarGap:               6,
			TopPadding:           40,
			LeftPadding:          80,
			GridLineStartPadding: 30,
			FontSize:             12,
			SectionFontSize:      13,
		},
		Journey: JourneyConfig{
			DiagramMarginX:  30,
			DiagramMarginY:  15,
			LeftMargin:      60,
			Width:           180,
			Height:          50,
			BoxMargin:       8,
			BoxTextMargin:   5,
			NoteMargin:      8,
			MessageMargin:   25,
			TaskFontSize:    12,
			SectionFontSize: 13,
		},
		Mindmap: MindmapConfig{Padding: 12, MaxNodeWidth: 200},
		Quadrant: QuadrantConfig{
			ChartWidth:             500,
			ChartHeight:            500,
			TitleFontSize:          16,
			TitlePadding:           12,
			QuadrantPadding:        8,
			XAxisLabelPadding:      10,
			YAxisLabelPadding:      10,
			XAxisLabelFontSize:     13,
			YAxisLabelFontSize:     13,
			QuadrantLabelFontSize:  13,
			QuadrantTextTopPadding: 6,
			PointTextPadding:       6,
			PointLabelFontSize:     12,
			PointRadius:            5,
		},
		D2: D2Config{ThemeID: -1, DarkThemeID: -1, Pad: -1, Layout: "dagre"},
	}
}

// Fingerprint identifies the configuration for cache keys.
func (c Config) Fingerprint() string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%+v", c)))
	return hex.EncodeToString(sum[:8])
}
