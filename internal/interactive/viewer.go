// Package interactive holds the state machines behind the diagram viewer and
// the copy-to-clipboard control. They are the reference model for the
// browser runtime in static/js/richmd.js, which reimplements the same
// transitions in the page. The Go side feeds it the constants below through
// the data-viewer-* and data-copied-ms attributes, and the runtime tests
// check that its fallbacks, keys and transform format agree with this
// package.
package interactive

import (
	"fmt"
	"math"
)

// Zoom limits and step factors shared with the browser runtime.
const (
	MinScale      = 0.25
	MaxScale      = 5.0
	KeyZoomFactor = 1.25
	WheelZoomIn   = 1.1
	WheelZoomOut  = 0.9
)

// Action is the side effect a viewer event asks the host to perform.
type Action int

const (
	ActionNone Action = iota
	ActionClose
)

// Point is a pointer or touch position in client coordinates.
type Point struct {
	X, Y float64
}

// Viewer tracks zoom and pan for the fullscreen diagram dialog. The zero value
// is a closed viewer. Events received while closed are ignored.
type Viewer struct {
	open     bool
	scale    float64
	panX     float64
	panY     float64
	dragging bool

	dragStart Point

	pinching       bool
	pinchDistance  float64
	pinchBaseScale float64
}

// Open shows the viewer with a fresh transform.
func (v *Viewer) Open() {
	*v = Viewer{open: true, scale: 1}
}

// Close hides the viewer. Backdrop clicks, the close control and Escape all
// end up here.
func (v *Viewer) Close() {
	v.open = false
	v.dragging = false
	v.pinching = false
}

func (v *Viewer) IsOpen() bool { return v.open }

func (v *Viewer) Scale() float64 { return v.scale }

func (v *Viewer) Pan() (x, y float64) { return v.panX, v.panY }

func (v *Viewer) Dragging() bool { return v.dragging }

// Percent is the zoom level shown in the toolbar.
func (v *Viewer) Percent() int {
	return int(math.Round(v.scale * 100))
}

// ZoomIn multiplies the scale by the keyboard step.
func (v *Viewer) ZoomIn() {
	if v.open {
		v.setScale(v.scale * KeyZoomFactor)
	}
}

// ZoomOut divides the scale by the keyboard step.
func (v *Viewer) ZoomOut() {
	if v.open {
		v.setScale(v.scale / KeyZoomFactor)
	}
}

// Reset restores scale 1 and zero pan without closing.
func (v *Viewer) Reset() {
	if !v.open {
		return
	}
	v.scale = 1
	v.panX, v.panY = 0, 0
}

// Wheel zooms out for positive deltaY and in otherwise.
func (v *Viewer) Wheel(deltaY float64) {
	if !v.open {
		return
	}
	if deltaY > 0 {
		v.setScale(v.scale * WheelZoomOut)
		return
	}
	v.setScale(v.scale * WheelZoomIn)
}

// Key handles a KeyboardEvent.key value.
func (v *Viewer) Key(key string) Action {
	if !v.open {
		return ActionNone
	}
	switch key {
	case "Escape":
		v.Close()
		return ActionClose
	case "+", "=":
		v.ZoomIn()
	case "-":
		v.ZoomOut()
	case "0":
		v.Reset()
	}
	return ActionNone
}

// MouseDown starts a drag for the primary button only.
func (v *Viewer) MouseDown(button int, p Point) {
	if !v.open || button != 0 {
		return
	}
	v.dragging = true
	v.dragStart = Point{X: p.X - v.panX, Y: p.Y - v.panY}
}

func (v *Viewer) MouseMove(p Point) {
	if !v.open || !v.dragging {
		return
	}
	v.panX = p.X - v.dragStart.X
	v.panY = p.Y - v.dragStart.Y
}

func (v *Viewer) MouseUp() {
	v.dragging = false
}

// TouchStart begins a pan with one finger or a pinch with two.
func (v *Viewer) TouchStart(touches []Point) {
	if !v.open {
		return
	}
	switch len(touches) {
	case 1:
		v.pinching = false
		v.dragging = true
		v.dragStart = Point{X: touches[0].X - v.panX, Y: touches[0].Y - v.panY}
	case 2:
		v.dragging = false
		v.pinching = true
		v.pinchDistance = distance(touches[0], touches[1])
		v.pinchBaseScale = v.scale
	}
}

// TouchMove pans or scales relative to the pinch baseline.
func (v *Viewer) TouchMove(touches []Point) {
	if !v.open {
		return
	}
	switch {
	case len(touches) == 1 && v.dragging:
		v.panX = touches[0].X - v.dragStart.X
		v.panY = touches[0].Y - v.dragStart.Y
	case len(touches) == 2 && v.pinching:
		if v.pinchDistance <= 0 {
			return
		}
		d := distance(touches[0], touches[1])
		v.setScale(v.pinchBaseScale * d / v.pinchDistance)
	}
}

func (v *Viewer) TouchEnd() {
	v.dragging = false
	v.pinching = false
}

// Transform renders the CSS transform for the diagram surface.
func (v *Viewer) Transform() string {
	return fmt.Sprintf("translate(%gpx, %gpx) scale(%g)", v.panX, v.panY, v.scale)
}

func (v *Viewer) setScale(s float64) {
	v.scale = Clamp(s)
}

// Clamp bounds s to [MinScale, MaxScale]. NaN collapses to 1.
func Clamp(s float64) float64 {
	switch {
	case math.IsNaN(s):
		return 1
	case s < MinScale:
		return MinScale
	case s > MaxScale:
		return MaxScale
	}
	return s
}

func distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
