package interactive

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/euforicio/richmd/static"
)

func jsNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func TestRuntimeMatchesViewerModel(t *testing.T) {
	t.Parallel()

	script := static.Script()
	for _, want := range []string{
		fmt.Sprintf(`num(figure, "data-viewer-min", %s)`, jsNumber(MinScale)),
		fmt.Sprintf(`num(figure, "data-viewer-max", %s)`, jsNumber(MaxScale)),
		fmt.Sprintf(`num(figure, "data-viewer-key-step", %s)`, jsNumber(KeyZoomFactor)),
		fmt.Sprintf(`num(figure, "data-viewer-wheel-in", %s)`, jsNumber(WheelZoomIn)),
		fmt.Sprintf(`num(figure, "data-viewer-wheel-out", %s)`, jsNumber(WheelZoomOut)),
		`case "Escape":`,
		`case "+":`,
		`case "=":`,
		`case "-":`,
		`case "0":`,
		`"translate(" + this.panX + "px, " + this.panY + "px) scale(" + this.scale + ")"`,
		`Math.round(this.scale * 100) + "%"`,
		`e.button !== 0`,
	} {
		if !strings.Contains(script, want) {
			t.Errorf("richmd.js does not contain %q", want)
		}
	}

	v := Viewer{}
	v.Open()
	v.MouseDown(0, Point{X: 10, Y: 20})
	v.MouseMove(Point{X: 15, Y: 30})
	if got := v.Transform(); got != "translate(5px, 10px) scale(1)" {
		t.Fatalf("Transform = %q; the runtime builds the same string", got)
	}
}

func TestRuntimeMatchesCopyModel(t *testing.T) {
	t.Parallel()

	script := static.Script()
	want := fmt.Sprintf(`num(btn, "data-copied-ms", %d)`, CopiedWindow.Milliseconds())
	if !strings.Contains(script, want) {
		t.Errorf("richmd.js does not contain %q", want)
	}
	// A repeated copy resets the window instead of stacking timers.
	for _, want := range []string{"clearTimeout(timer)", "setTimeout(function", `removeAttribute("data-copied")`} {
		if !strings.Contains(script, want) {
			t.Errorf("richmd.js does not contain %q", want)
		}
	}
}
