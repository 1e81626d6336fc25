package interactive

import (
	"math/rand"
	"testing"
)

func TestViewerOpenResets(t *testing.T) {
	t.Parallel()

	var v Viewer
	v.Open()
	v.Key("+")
	v.MouseDown(0, Point{X: 10, Y: 10})
	v.MouseMove(Point{X: 50, Y: 70})
	v.MouseUp()
	v.Close()

	v.Open()
	if v.Scale() != 1 {
		t.Fatalf("scale after reopen = %v", v.Scale())
	}
	if x, y := v.Pan(); x != 0 || y != 0 {
		t.Fatalf("pan after reopen = %v,%v", x, y)
	}
}

func TestViewerKeys(t *testing.T) {
	t.Parallel()

	var v Viewer
	v.Open()

	v.Key("+")
	if v.Scale() != 1.25 {
		t.Fatalf("after + scale = %v", v.Scale())
	}
	v.Key("=")
	if v.Percent() != 156 {
		t.Fatalf("after = percent = %d", v.Percent())
	}
	v.Key("0")
	if v.Scale() != 1 {
		t.Fatalf("after 0 scale = %v", v.Scale())
	}
	v.Key("-")
	if v.Scale() != 0.8 {
		t.Fatalf("after - scale = %v", v.Scale())
	}
	if act := v.Key("Escape"); act != ActionClose || v.IsOpen() {
		t.Fatalf("Escape = %v open=%v", act, v.IsOpen())
	}
}

func TestViewerIgnoresEventsWhenClosed(t *testing.T) {
	t.Parallel()

	var v Viewer
	v.Key("+")
	v.Wheel(-1)
	v.MouseDown(0, Point{})
	if v.Scale() != 0 || v.Dragging() {
		t.Fatalf("closed viewer changed state: %+v", v)
	}
}

func TestViewerWheel(t *testing.T) {
	t.Parallel()

	var v Viewer
	v.Open()
	v.Wheel(100)
	if v.Scale() != 0.9 {
		t.Fatalf("wheel down scale = %v", v.Scale())
	}
	v.Reset()
	v.Wheel(-3)
	if v.Scale() != 1.1 {
		t.Fatalf("wheel up scale = %v", v.Scale())
	}
}

func TestViewerDragPrimaryButtonOnly(t *testing.T) {
	t.Parallel()

	var v Viewer
	v.Open()
	v.MouseDown(2, Point{X: 0, Y: 0})
	v.MouseMove(Point{X: 30, Y: 30})
	if x, y := v.Pan(); x != 0 || y != 0 {
		t.Fatalf("right button panned to %v,%v", x, y)
	}

	v.MouseDown(0, Point{X: 5, Y: 5})
	v.MouseMove(Point{X: 25, Y: -5})
	v.MouseUp()
	v.MouseMove(Point{X: 500, Y: 500})
	if x, y := v.Pan(); x != 20 || y != -10 {
		t.Fatalf("pan = %v,%v, want 20,-10", x, y)
	}
	if got := v.Transform(); got != "translate(20px, -10px) scale(1)" {
		t.Fatalf("Transform() = %q", got)
	}
}

func TestViewerPinch(t *testing.T) {
	t.Parallel()

	var v Viewer
	v.Open()
	v.TouchStart([]Point{{X: 0, Y: 0}, {X: 100, Y: 0}})
	v.TouchMove([]Point{{X: 0, Y: 0}, {X: 200, Y: 0}})
	if v.Scale() != 2 {
		t.Fatalf("pinch scale = %v", v.Scale())
	}
	v.TouchMove([]Point{{X: 0, Y: 0}, {X: 10000, Y: 0}})
	if v.Scale() != MaxScale {
		t.Fatalf("pinch clamp = %v", v.Scale())
	}
	v.TouchEnd()

	v.TouchStart([]Point{{X: 10, Y: 10}})
	v.TouchMove([]Point{{X: 15, Y: 30}})
	if x, y := v.Pan(); x != 5 || y != 20 {
		t.Fatalf("touch pan = %v,%v", x, y)
	}
}

func TestViewerScaleAlwaysClamped(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	keys := []string{"+", "=", "-", "0", "x"}

	var v Viewer
	v.Open()
	for i := 0; i < 5000; i++ {
		switch rng.Intn(5) {
		case 0:
			v.Key(keys[rng.Intn(len(keys))])
		case 1:
			v.Wheel(rng.Float64()*200 - 100)
		case 2:
			v.TouchStart([]Point{{X: 0, Y: 0}, {X: rng.Float64()*50 + 1, Y: 0}})
		case 3:
			v.TouchMove([]Point{{X: 0, Y: 0}, {X: rng.Float64() * 5000, Y: 0}})
		case 4:
			v.TouchEnd()
		}
		if s := v.Scale(); s < MinScale || s > MaxScale {
			t.Fatalf("step %d: scale %v outside bounds", i, s)
		}
	}
}

func TestClamp(t *testing.T) {
	t.Parallel()

	cases := map[float64]float64{0: MinScale, 0.1: MinScale, 1: 1, 7: MaxScale}
	for in, want := range cases {
		if got := Clamp(in); got != want {
			t.Errorf("Clamp(%v) = %v, want %v", in, got, want)
		}
	}
}
