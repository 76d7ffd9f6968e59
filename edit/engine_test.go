package edit

import (
	"math"
	"testing"

	"github.com/fontogether/fontogether"
	"github.com/fontogether/fontogether/codec"
	"github.com/fontogether/fontogether/scene"
)

func squareScene() (*scene.Scene, *scene.Path) {
	p := scene.NewPath(true,
		scene.NewCorner(fontogether.Pt(100, 100)),
		scene.NewCorner(fontogether.Pt(200, 100)),
		scene.NewCorner(fontogether.Pt(200, 200)),
		scene.NewCorner(fontogether.Pt(100, 200)),
	)
	s := scene.New()
	s.AddPath(p)
	return s, p
}

func newEngine(s *scene.Scene) *Engine {
	return New(s, 500, WithView(NewView(1000, 1000)))
}

func click(e *Engine, tool Tool, x, y float64, mods Modifiers) Result {
	r := e.Pointer(tool, PointerEvent{Action: PointerDown, Pos: fontogether.Pt(x, y), Mods: mods})
	return r.merge(e.Pointer(tool, PointerEvent{Action: PointerUp, Pos: fontogether.Pt(x, y), Mods: mods}))
}

func drag(e *Engine, tool Tool, x0, y0, x1, y1 float64, mods Modifiers) Result {
	r := e.Pointer(tool, PointerEvent{Action: PointerDown, Pos: fontogether.Pt(x0, y0), Mods: mods})
	r = r.merge(e.Pointer(tool, PointerEvent{Action: PointerMove, Pos: fontogether.Pt((x0+x1)/2, (y0+y1)/2), Mods: mods}))
	r = r.merge(e.Pointer(tool, PointerEvent{Action: PointerMove, Pos: fontogether.Pt(x1, y1), Mods: mods}))
	return r.merge(e.Pointer(tool, PointerEvent{Action: PointerUp, Pos: fontogether.Pt(x1, y1), Mods: mods}))
}

func TestSelectClickAndToggle(t *testing.T) {
	s, p := squareScene()
	e := newEngine(s)

	if r := click(e, ToolSelect, 101, 99, 0); r.Commit {
		t.Error("a click without movement should not commit")
	}
	if e.Selection().Len() != 1 || !e.Selection().Contains(p.Segments[0]) {
		t.Fatalf("selection = %d segments, want first anchor", e.Selection().Len())
	}
	click(e, ToolSelect, 200, 100, ModCtrl)
	if e.Selection().Len() != 2 {
		t.Fatalf("ctrl-click should add, selection = %d", e.Selection().Len())
	}
	click(e, ToolSelect, 100, 100, ModMeta)
	if e.Selection().Contains(p.Segments[0]) || e.Selection().Len() != 1 {
		t.Error("meta-click on a selected anchor should remove it")
	}
	click(e, ToolSelect, 150, 150, 0)
	if e.Selection().Len() != 0 {
		t.Error("plain click on empty space should clear the selection")
	}
}

func TestSelectDragMovesSelection(t *testing.T) {
	s, p := squareScene()
	e := newEngine(s)
	click(e, ToolSelect, 100, 100, 0)
	click(e, ToolSelect, 200, 100, ModShift)

	r := drag(e, ToolSelect, 200, 100, 210, 130, 0)
	if !r.Commit || !r.Changed {
		t.Fatalf("drag result = %+v, want commit", r)
	}
	if p.Segments[0].Anchor != fontogether.Pt(110, 130) || p.Segments[1].Anchor != fontogether.Pt(210, 130) {
		t.Errorf("moved anchors = %v %v", p.Segments[0].Anchor, p.Segments[1].Anchor)
	}
	if p.Segments[2].Anchor != fontogether.Pt(200, 200) {
		t.Errorf("unselected anchor moved to %v", p.Segments[2].Anchor)
	}
}

func TestSelectDragHandleOnly(t *testing.T) {
	s := scene.New()
	seg := &scene.Segment{Anchor: fontogether.Pt(100, 100), HandleIn: fontogether.V2(-40, 0), HandleOut: fontogether.V2(40, 0)}
	s.AddPath(scene.NewPath(true, seg, scene.NewCorner(fontogether.Pt(300, 300))))
	e := newEngine(s)

	r := drag(e, ToolSelect, 140, 100, 140, 120, 0)
	if !r.Commit {
		t.Fatal("handle drag should commit")
	}
	if seg.HandleOut != fontogether.V2(40, 20) || seg.HandleIn != fontogether.V2(-40, 0) || seg.Anchor != fontogether.Pt(100, 100) {
		t.Errorf("segment = %+v, want only handleOut moved", *seg)
	}
	if !e.Selection().Contains(seg) {
		t.Error("handle drag should select its segment")
	}
}

func TestRubberBandIsAdditive(t *testing.T) {
	s, p := squareScene()
	e := newEngine(s)
	click(e, ToolSelect, 200, 200, 0)

	drag(e, ToolSelect, 90, 90, 210, 150, ModShift)
	if e.Selection().Len() != 3 {
		t.Errorf("selection = %d, want 3 (two from the band plus the earlier one)", e.Selection().Len())
	}
	if !e.Selection().Contains(p.Segments[2]) {
		t.Error("rubber band replaced the earlier selection")
	}
	if r := drag(e, ToolSelect, 90, 90, 95, 95, 0); r.Changed {
		t.Error("rubber band should not mutate the scene")
	}
}

func TestAdvanceGuideDrag(t *testing.T) {
	e := newEngine(scene.New())
	r := drag(e, ToolSelect, 500, 300, 530.4, 300, 0)
	if !r.Commit || e.AdvanceWidth() != 530 {
		t.Errorf("advance = %v (commit %v), want 530", e.AdvanceWidth(), r.Commit)
	}
}

func TestPenDrawAndClose(t *testing.T) {
	e := newEngine(scene.New())
	for _, pt := range [][2]float64{{0, 0}, {100, 0}, {100, 100}} {
		if r := click(e, ToolPen, pt[0], pt[1], 0); !r.Commit {
			t.Fatalf("pen click at %v should commit", pt)
		}
	}
	if !e.Drawing() || e.Scene().Paths[0].Closed {
		t.Fatal("path should still be open")
	}
	click(e, ToolPen, 3, 2, 0)
	path := e.Scene().Paths[0]
	if !path.Closed || path.Len() != 3 || e.Drawing() {
		t.Errorf("closed=%v len=%d drawing=%v, want closed triangle", path.Closed, path.Len(), e.Drawing())
	}
}

func TestPenDragSetsSymmetricHandles(t *testing.T) {
	e := newEngine(scene.New())
	drag(e, ToolPen, 50, 50, 80, 40, 0)
	seg := e.Scene().Paths[0].Segments[0]
	if !seg.IsCorner() {
		t.Errorf("open path end carries handles %v / %v", seg.HandleIn, seg.HandleOut)
	}
	in, out, ok := e.PenHandles()
	if !ok || in != fontogether.Pt(20, 60) || out != fontogether.Pt(80, 40) {
		t.Errorf("pending handles = %v / %v (%v)", in, out, ok)
	}

	drag(e, ToolPen, 200, 50, 230, 50, 0)
	path := e.Scene().Paths[0]
	if seg.HandleOut != fontogether.V2(30, -10) || !seg.HandleIn.IsZero() {
		t.Errorf("first point handles = %v / %v, want only the outgoing one", seg.HandleIn, seg.HandleOut)
	}
	if last := path.Last(); last.HandleIn != fontogether.V2(-30, 0) || !last.HandleOut.IsZero() {
		t.Errorf("last point handles = %v / %v, want only the incoming one", last.HandleIn, last.HandleOut)
	}
	back, err := codec.Decode(codec.Encode(e.Scene()))
	if err != nil {
		t.Fatal(err)
	}
	if !back.Paths[0].First().Approx(seg, 1e-9) || !back.Paths[0].Last().Approx(path.Last(), 1e-9) {
		t.Error("open pen path does not survive an outline round trip")
	}

	click(e, ToolPen, 51, 51, 0)
	if !path.Closed {
		t.Fatal("path should be closed")
	}
	if seg.HandleIn != fontogether.V2(-30, 10) || path.Last().HandleOut != fontogether.V2(30, 0) {
		t.Errorf("outer handles after close = %v / %v", seg.HandleIn, path.Last().HandleOut)
	}
	if _, _, ok := e.PenHandles(); ok {
		t.Error("pending handles should be gone once the path closes")
	}
}

func TestSwitchToolDuringPenDragDropsPendingHandles(t *testing.T) {
	e := newEngine(scene.New())
	click(e, ToolPen, 0, 0, 0)
	e.Pointer(ToolPen, PointerEvent{Action: PointerDown, Pos: fontogether.Pt(100, 0)})
	e.Pointer(ToolPen, PointerEvent{Action: PointerMove, Pos: fontogether.Pt(100, 40)})
	e.SwitchTool(ToolPen, ToolSelect)
	path := e.Scene().Paths[0]
	if !path.Closed {
		t.Fatal("path should be closed by the switch")
	}
	for i, seg := range path.Segments {
		if !seg.IsCorner() {
			t.Errorf("segment %d keeps handles %v / %v from the discarded drag", i, seg.HandleIn, seg.HandleOut)
		}
	}
}

func TestPenIgnoresFirstPointOfSinglePointPath(t *testing.T) {
	e := newEngine(scene.New())
	click(e, ToolPen, 50, 50, 0)
	if r := click(e, ToolPen, 52, 51, 0); r.Changed {
		t.Errorf("clicking the lone point again changed the scene: %+v", r)
	}
	if n := e.Scene().Paths[0].Len(); n != 1 || !e.Drawing() {
		t.Errorf("len = %d drawing = %v, want one point still drawing", n, e.Drawing())
	}
}

func TestSwitchToolMidSplitCommits(t *testing.T) {
	s, p := squareScene()
	e := newEngine(s)
	e.Pointer(ToolPen, PointerEvent{Action: PointerDown, Pos: fontogether.Pt(150, 100)})
	if r := e.SwitchTool(ToolPen, ToolSelect); !r.Commit || !r.Changed {
		t.Errorf("switch after a split = %+v, want a commit", r)
	}
	if p.Len() != 5 {
		t.Errorf("segments = %d, want the split kept", p.Len())
	}
	if r := e.Pointer(ToolSelect, PointerEvent{Action: PointerUp, Pos: fontogether.Pt(150, 100)}); r != (Result{}) {
		t.Errorf("release after the switch = %+v, want nothing", r)
	}
}

func TestPenSplitsExistingContour(t *testing.T) {
	s, p := squareScene()
	e := newEngine(s)
	r := click(e, ToolPen, 150, 102, 0)
	if !r.Commit || p.Len() != 5 {
		t.Fatalf("segments = %d, want 5 after split", p.Len())
	}
	if !p.Segments[1].Anchor.Approx(fontogether.Pt(150, 100), 1e-3) || !p.Closed {
		t.Errorf("inserted %v, closed=%v", p.Segments[1].Anchor, p.Closed)
	}
	if e.Drawing() {
		t.Error("splitting should not start a new path")
	}
}

func TestSwitchToolClosesPenPath(t *testing.T) {
	e := newEngine(scene.New())
	click(e, ToolPen, 0, 0, 0)
	click(e, ToolPen, 100, 0, 0)
	if r := e.SwitchTool(ToolPen, ToolSelect); !r.Commit {
		t.Error("implicit close should commit")
	}
	if !e.Scene().Paths[0].Closed {
		t.Error("path should be implicitly closed")
	}

	click(e, ToolPen, 400, 400, 0)
	e.SwitchTool(ToolPen, ToolHand)
	if len(e.Scene().Paths) != 1 {
		t.Errorf("single-point pen path should be discarded, paths = %d", len(e.Scene().Paths))
	}
}

func TestSwitchToolDiscardsDrag(t *testing.T) {
	s, p := squareScene()
	e := newEngine(s)
	e.Pointer(ToolSelect, PointerEvent{Action: PointerDown, Pos: fontogether.Pt(100, 100)})
	e.Pointer(ToolSelect, PointerEvent{Action: PointerMove, Pos: fontogether.Pt(150, 160)})
	if p.Segments[0].Anchor != fontogether.Pt(150, 160) {
		t.Fatalf("live drag did not move the anchor: %v", p.Segments[0].Anchor)
	}
	r := e.SwitchTool(ToolSelect, ToolPen)
	if r.Commit {
		t.Error("a discarded drag must not commit")
	}
	if p.Segments[0].Anchor != fontogether.Pt(100, 100) {
		t.Errorf("anchor = %v, want restored (100,100)", p.Segments[0].Anchor)
	}
	if e.Busy() {
		t.Error("gesture should be cleared")
	}
}

func TestFinishCommitsDrag(t *testing.T) {
	s, p := squareScene()
	e := newEngine(s)
	e.Pointer(ToolSelect, PointerEvent{Action: PointerDown, Pos: fontogether.Pt(100, 100)})
	e.Pointer(ToolSelect, PointerEvent{Action: PointerMove, Pos: fontogether.Pt(120, 100)})
	if r := e.Finish(); !r.Commit {
		t.Error("Finish should commit the drag in progress")
	}
	if p.Segments[0].Anchor != fontogether.Pt(120, 100) {
		t.Errorf("anchor = %v, want kept at (120,100)", p.Segments[0].Anchor)
	}
}

func TestCurveTool(t *testing.T) {
	tests := []struct {
		name            string
		act             func(e *Engine) Result
		wantIn, wantOut fontogether.Vec2
	}{
		{
			name:    "drag anchor sets symmetric handles",
			act:     func(e *Engine) Result { return drag(e, ToolCurve, 100, 100, 130, 90, 0) },
			wantIn:  fontogether.V2(-30, 10),
			wantOut: fontogether.V2(30, -10),
		},
		{
			name:    "drag handle moves it alone",
			act:     func(e *Engine) Result { return drag(e, ToolCurve, 60, 100, 60, 140, 0) },
			wantIn:  fontogether.V2(-40, 40),
			wantOut: fontogether.V2(40, 0),
		},
		{
			name:    "click handle retracts it",
			act:     func(e *Engine) Result { return click(e, ToolCurve, 140, 100, 0) },
			wantIn:  fontogether.V2(-40, 0),
			wantOut: fontogether.Vec2{},
		},
		{
			name:    "click anchor retracts both",
			act:     func(e *Engine) Result { return click(e, ToolCurve, 100, 100, 0) },
			wantIn:  fontogether.Vec2{},
			wantOut: fontogether.Vec2{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := scene.New()
			seg := &scene.Segment{Anchor: fontogether.Pt(100, 100), HandleIn: fontogether.V2(-40, 0), HandleOut: fontogether.V2(40, 0)}
			s.AddPath(scene.NewPath(true, seg, scene.NewCorner(fontogether.Pt(300, 300))))
			e := newEngine(s)
			if r := tt.act(e); !r.Commit {
				t.Error("curve edit should commit")
			}
			if !seg.HandleIn.Approx(tt.wantIn, 1e-9) || !seg.HandleOut.Approx(tt.wantOut, 1e-9) {
				t.Errorf("handles = %v / %v, want %v / %v", seg.HandleIn, seg.HandleOut, tt.wantIn, tt.wantOut)
			}
		})
	}
}

func TestCurveToolOnOpenEnd(t *testing.T) {
	s := scene.New()
	end := scene.NewCorner(fontogether.Pt(300, 100))
	s.AddPath(scene.NewPath(false, scene.NewCorner(fontogether.Pt(100, 100)), end))
	e := newEngine(s)
	drag(e, ToolCurve, 300, 100, 330, 90, 0)
	if end.HandleIn != fontogether.V2(-30, 10) || !end.HandleOut.IsZero() {
		t.Errorf("handles = %v / %v, want only the incoming one", end.HandleIn, end.HandleOut)
	}
}

func TestRectangleTool(t *testing.T) {
	tests := []struct {
		name string
		mods Modifiers
		want fontogether.Rect
	}{
		{"plain", 0, fontogether.NewRect(fontogether.Pt(10, 10), fontogether.Pt(50, 30))},
		{"uniform", ModShift, fontogether.NewRect(fontogether.Pt(10, 10), fontogether.Pt(50, 50))},
		{"center", ModAlt, fontogether.NewRect(fontogether.Pt(-30, -10), fontogether.Pt(50, 30))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(scene.New())
			if r := drag(e, ToolRectangle, 10, 10, 50, 30, tt.mods); !r.Commit {
				t.Fatal("rectangle should commit")
			}
			path := e.Scene().Paths[0]
			if !path.Closed || path.Len() != 4 {
				t.Fatalf("closed=%v len=%d", path.Closed, path.Len())
			}
			if got := path.Bounds(); got != tt.want {
				t.Errorf("bounds = %v, want %v", got, tt.want)
			}
			if e.Selection().Len() != 4 {
				t.Errorf("new shape should be selected, got %d", e.Selection().Len())
			}
		})
	}
}

func TestZeroAreaShapeDiscarded(t *testing.T) {
	e := newEngine(scene.New())
	if r := drag(e, ToolRectangle, 10, 10, 60, 10, 0); r.Changed || len(e.Scene().Paths) != 0 {
		t.Errorf("flat rectangle should be discarded: %+v, paths=%d", r, len(e.Scene().Paths))
	}
	if r := click(e, ToolCircle, 10, 10, 0); r.Changed {
		t.Error("click without drag should not create a circle")
	}
}

func TestCircleTool(t *testing.T) {
	e := newEngine(scene.New())
	drag(e, ToolCircle, 0, 0, 200, 100, 0)
	path := e.Scene().Paths[0]
	if path.Len() != 4 || !path.Closed {
		t.Fatalf("len=%d closed=%v", path.Len(), path.Closed)
	}
	right := path.Segments[0]
	if right.Anchor != fontogether.Pt(200, 50) {
		t.Errorf("first anchor = %v, want (200,50)", right.Anchor)
	}
	if math.Abs(right.HandleOut.Length()-50*fontogether.Kappa) > 1e-9 {
		t.Errorf("handle length = %v, want %v", right.HandleOut.Length(), 50*fontogether.Kappa)
	}
	b := path.Bounds()
	if !b.Min.Approx(fontogether.Pt(0, 0), 1e-6) || !b.Max.Approx(fontogether.Pt(200, 100), 1e-6) {
		t.Errorf("bounds = %v", b)
	}
}

func TestHandToolPans(t *testing.T) {
	s, p := squareScene()
	e := newEngine(s)
	r := drag(e, ToolHand, 0, 0, 30, 40, 0)
	if r.Changed || !r.ViewChanged {
		t.Errorf("result = %+v, want view change only", r)
	}
	if e.View().Offset != fontogether.V2(30, 40) {
		t.Errorf("offset = %v", e.View().Offset)
	}
	if p.Segments[0].Anchor != fontogether.Pt(100, 100) {
		t.Error("hand tool mutated the scene")
	}
}

func TestSpaceBarPansInAnyTool(t *testing.T) {
	s, _ := squareScene()
	e := newEngine(s)
	e.Key(ToolPen, KeyEvent{Key: KeySpace})
	drag(e, ToolPen, 0, 0, 10, 0, 0)
	e.Key(ToolPen, KeyEvent{Key: KeySpace, Release: true})
	if len(e.Scene().Paths) != 1 || e.View().Offset != fontogether.V2(10, 0) {
		t.Errorf("paths=%d offset=%v", len(e.Scene().Paths), e.View().Offset)
	}
}

func TestZoomTool(t *testing.T) {
	e := newEngine(scene.New())
	click(e, ToolZoom, 100, 100, 0)
	if e.View().Zoom != 2 {
		t.Fatalf("zoom = %v, want 2", e.View().Zoom)
	}
	if got := e.View().ToScene(fontogether.Pt(100, 100)); !got.Approx(fontogether.Pt(100, 100), 1e-9) {
		t.Errorf("point under the cursor moved to %v", got)
	}
	click(e, ToolZoom, 100, 100, ModAlt)
	if e.View().Zoom != 1 {
		t.Errorf("alt-click zoom = %v, want 1", e.View().Zoom)
	}
	drag(e, ToolZoom, 0, 0, 250, 100, 0)
	if e.View().Zoom != 4 {
		t.Errorf("fit zoom = %v, want 4", e.View().Zoom)
	}
}

func TestRulerCommitsNothing(t *testing.T) {
	s, _ := squareScene()
	e := newEngine(s)
	r := drag(e, ToolRuler, 100, 100, 130, 60, 0)
	if r.Changed || r.Commit {
		t.Errorf("ruler result = %+v", r)
	}
	m, ok := e.Measurement()
	if !ok || m.Distance != 50 || m.DX != 30 || m.DY != 40 {
		t.Errorf("measurement = %+v", m)
	}
	if math.Abs(m.Angle-53.13010235) > 1e-6 {
		t.Errorf("angle = %v", m.Angle)
	}
}

func TestNudge(t *testing.T) {
	tests := []struct {
		key  Key
		mods Modifiers
		want fontogether.Point
	}{
		{KeyRight, 0, fontogether.Pt(101, 100)},
		{KeyLeft, ModShift, fontogether.Pt(90, 100)},
		{KeyUp, ModCtrl, fontogether.Pt(100, 0)},
		{KeyDown, 0, fontogether.Pt(100, 101)},
	}
	for _, tt := range tests {
		s, p := squareScene()
		e := newEngine(s)
		e.Selection().Set(p.Segments[0])
		if r := e.Key(ToolSelect, KeyEvent{Key: tt.key, Mods: tt.mods}); !r.Commit {
			t.Errorf("key %v: nudge should commit", tt.key)
		}
		if got := p.Segments[0].Anchor; got != tt.want {
			t.Errorf("key %v mods %v: anchor = %v, want %v", tt.key, tt.mods, got, tt.want)
		}
	}
}

func TestDeleteRemovesEmptyContour(t *testing.T) {
	s, p := squareScene()
	e := newEngine(s)
	e.Selection().Set(p.Segments[0], p.Segments[1])
	e.Key(ToolSelect, KeyEvent{Key: KeyDelete})
	if p.Len() != 2 || len(s.Paths) != 1 {
		t.Fatalf("len=%d paths=%d", p.Len(), len(s.Paths))
	}
	e.Selection().Set(p.Segments...)
	if r := e.Key(ToolSelect, KeyEvent{Key: KeyBackspace}); !r.Commit {
		t.Error("delete should commit")
	}
	if len(s.Paths) != 0 {
		t.Errorf("paths = %d, want the emptied contour removed", len(s.Paths))
	}
}

func TestReplaceClearsSelection(t *testing.T) {
	s, p := squareScene()
	e := newEngine(s)
	e.Selection().Set(p.Segments...)
	other, _ := squareScene()
	e.Replace(other, 600)
	if e.Selection().Len() != 0 || e.Scene() != other || e.AdvanceWidth() != 600 {
		t.Error("Replace should swap the scene and clear the selection")
	}
}

func TestToolForKey(t *testing.T) {
	for r, want := range map[rune]Tool{'v': ToolSelect, 'p': ToolPen, 'm': ToolRuler} {
		if got, ok := ToolForKey(r); !ok || got != want {
			t.Errorf("ToolForKey(%q) = %v, %v", r, got, ok)
		}
	}
	if tool, err := ParseTool("circle"); err != nil || tool != ToolCircle {
		t.Errorf("ParseTool(circle) = %v, %v", tool, err)
	}
}
