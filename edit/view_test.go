package edit

import (
	"testing"

	"github.com/fontogether/fontogether"
)

func TestViewRoundTrip(t *testing.T) {
	v := NewView(800, 600)
	v.SetZoom(3, fontogether.Pt(200, 100))
	v.Pan(fontogether.V2(15, -5))
	p := fontogether.Pt(123, 456)
	if got := v.ToScene(v.ToScreen(p)); !got.Approx(p, 1e-9) {
		t.Errorf("ToScene(ToScreen(p)) = %v, want %v", got, p)
	}
}

func TestViewClamp(t *testing.T) {
	v := NewView(800, 600)
	v.ZoomAt(1000, fontogether.Pt(0, 0))
	if v.Zoom != MaxZoom {
		t.Errorf("zoom = %v, want %v", v.Zoom, MaxZoom)
	}
	v.ZoomAt(1e-9, fontogether.Pt(0, 0))
	if v.Zoom != MinZoom {
		t.Errorf("zoom = %v, want %v", v.Zoom, MinZoom)
	}
}

func TestViewReset(t *testing.T) {
	v := NewView(800, 600)
	v.ZoomIn()
	v.Reset(fontogether.Pt(500, -500))
	if v.Zoom != 1 {
		t.Errorf("zoom = %v, want 1", v.Zoom)
	}
	if got := v.ToScreen(fontogether.Pt(500, -500)); !got.Approx(fontogether.Pt(400, 300), 1e-9) {
		t.Errorf("center maps to %v, want viewport center", got)
	}
}

func TestWheel(t *testing.T) {
	e := New(nil, 500, WithView(NewView(800, 600)))
	if r := e.Wheel(2, fontogether.Pt(400, 300)); !r.ViewChanged {
		t.Error("wheel should change the view")
	}
	if want := WheelZoomFactor * WheelZoomFactor; e.View().Zoom-want > 1e-12 || want-e.View().Zoom > 1e-12 {
		t.Errorf("zoom = %v, want %v", e.View().Zoom, want)
	}
}
