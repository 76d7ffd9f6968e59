package scene

import (
	"math"
	"testing"

	"github.com/fontogether/fontogether"
)

func square() (*Scene, *Path) {
	p := NewPath(true,
		NewCorner(fontogether.Pt(0, 0)),
		NewCorner(fontogether.Pt(100, 0)),
		NewCorner(fontogether.Pt(100, 100)),
		NewCorner(fontogether.Pt(0, 100)),
	)
	s := New()
	s.AddPath(p)
	return s, p
}

func TestPathPieceCount(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		closed bool
		want   int
	}{
		{"empty", 0, true, 0},
		{"single closed", 1, true, 1},
		{"open", 3, false, 2},
		{"closed", 3, true, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Path{Closed: tt.closed}
			for i := range tt.n {
				p.Append(NewCorner(fontogether.Pt(float64(i), 0)))
			}
			if got := p.PieceCount(); got != tt.want {
				t.Errorf("PieceCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPathSplitAtLine(t *testing.T) {
	_, p := square()
	seg := p.SplitAt(0, 0.25)
	if p.Len() != 5 || p.Segments[1] != seg {
		t.Fatalf("segments = %d, inserted at %d", p.Len(), p.IndexOf(seg))
	}
	if seg.Anchor != fontogether.Pt(25, 0) || !seg.IsCorner() {
		t.Errorf("inserted = %+v, want corner at (25,0)", *seg)
	}
}

func TestPathSplitAtCurvePreservesShape(t *testing.T) {
	a := &Segment{Anchor: fontogether.Pt(0, 0), HandleOut: fontogether.V2(0, -100)}
	b := &Segment{Anchor: fontogether.Pt(100, 0), HandleIn: fontogether.V2(0, -100)}
	p := NewPath(false, a, b)
	orig := p.Piece(0)

	seg := p.SplitAt(0, 0.5)
	if !seg.Anchor.Approx(orig.Eval(0.5), 1e-9) {
		t.Fatalf("anchor = %v, want %v", seg.Anchor, orig.Eval(0.5))
	}
	for _, tt := range []float64{0, 0.3, 0.7, 1} {
		if got, want := p.Piece(0).Eval(tt), orig.Eval(tt/2); !got.Approx(want, 1e-9) {
			t.Errorf("left piece at %v = %v, want %v", tt, got, want)
		}
		if got, want := p.Piece(1).Eval(tt), orig.Eval(0.5+tt/2); !got.Approx(want, 1e-9) {
			t.Errorf("right piece at %v = %v, want %v", tt, got, want)
		}
	}
}

func TestRemoveSegmentsDropsEmptyPaths(t *testing.T) {
	s, p := square()
	other := NewPath(true, NewCorner(fontogether.Pt(500, 500)))
	s.AddPath(other)

	if n := s.RemoveSegments(p.Segments[:2]); n != 2 {
		t.Fatalf("removed %d, want 2", n)
	}
	if len(s.Paths) != 2 || p.Len() != 2 {
		t.Fatalf("paths = %d, square len = %d", len(s.Paths), p.Len())
	}
	s.RemoveSegments(append(p.Segments, other.Segments...))
	if len(s.Paths) != 0 {
		t.Errorf("paths = %d, want 0 once every segment is deleted", len(s.Paths))
	}
}

func TestRemoveSegmentsTrimsOpenEnds(t *testing.T) {
	mid := &Segment{Anchor: fontogether.Pt(50, 0), HandleIn: fontogether.V2(-20, 0), HandleOut: fontogether.V2(20, 0)}
	p := NewPath(false, NewCorner(fontogether.Pt(0, 0)), mid, NewCorner(fontogether.Pt(100, 0)))
	s := New()
	s.AddPath(p)

	s.RemoveSegments([]*Segment{p.Segments[0]})
	if !mid.HandleIn.IsZero() || mid.HandleOut != fontogether.V2(20, 0) {
		t.Errorf("new first point handles = %v / %v, want only the outgoing one", mid.HandleIn, mid.HandleOut)
	}
}

func TestHitTestPriority(t *testing.T) {
	s := New()
	a := &Segment{Anchor: fontogether.Pt(0, 0), HandleOut: fontogether.V2(4, 0)}
	b := NewCorner(fontogether.Pt(100, 0))
	s.AddPath(NewPath(false, a, b))

	tests := []struct {
		name string
		p    fontogether.Point
		opt  HitOptions
		want HitKind
	}{
		{"anchor wins over nearby handle", fontogether.Pt(2, 0), HitAll, HitAnchor},
		{"handle", fontogether.Pt(5, 1), HitOptions{Handles: true}, HitHandleOut},
		{"stroke", fontogether.Pt(50, 3), HitAll, HitStroke},
		{"miss", fontogether.Pt(50, 30), HitAll, HitNone},
		{"anchors disabled", fontogether.Pt(100, 0), HitOptions{Stroke: true}, HitStroke},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, ok := s.HitTest(tt.p, 8, tt.opt)
			if h.Kind != tt.want || ok != (tt.want != HitNone) {
				t.Errorf("HitTest(%v) = %v (%v), want %v", tt.p, h.Kind, ok, tt.want)
			}
		})
	}

	h, _ := s.HitTest(fontogether.Pt(50, 3), 8, HitOptions{Stroke: true})
	if h.Piece != 0 || math.Abs(h.T-0.5) > 0.05 {
		t.Errorf("stroke hit piece=%d t=%v, want piece 0 near t=0.5", h.Piece, h.T)
	}
	if _, ok := s.HitTest(fontogether.Pt(50, 3), 8, HitOptions{Stroke: true, Skip: s.Paths[0]}); ok {
		t.Error("skipped path should not be hit")
	}
}

func TestSelection(t *testing.T) {
	s, p := square()
	var sel Selection
	sel.Add(p.Segments[0])
	sel.Add(p.Segments[0])
	sel.Toggle(p.Segments[1])
	if sel.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", sel.Len())
	}
	sel.Toggle(p.Segments[0])
	if sel.Contains(p.Segments[0]) || !sel.Contains(p.Segments[1]) {
		t.Error("Toggle did not flip membership")
	}
	s.RemoveSegments([]*Segment{p.Segments[1]})
	sel.Prune(s)
	if sel.Len() != 0 {
		t.Errorf("Prune left %d segments", sel.Len())
	}
}

func TestCloneIsDeep(t *testing.T) {
	s, p := square()
	c, remap := s.CloneMapped()
	if !s.Approx(c, 0) {
		t.Fatal("clone differs")
	}
	remap[p.Segments[0]].Move(fontogether.V2(1, 0))
	if s.Approx(c, 0) {
		t.Error("moving a cloned segment changed the original")
	}
	if got := s.SegmentsIn(fontogether.NewRect(fontogether.Pt(-1, -1), fontogether.Pt(50, 50))); len(got) != 1 {
		t.Errorf("SegmentsIn = %d segments, want 1", len(got))
	}
}
