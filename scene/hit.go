package scene

import (
	"math"

	"github.com/fontogether/fontogether"
)

// HitKind classifies what a hit test found.
type HitKind int

// Hit kinds in priority order.
const (
	HitNone HitKind = iota
	HitAnchor
	HitHandleIn
	HitHandleOut
	HitStroke
)

func (k HitKind) String() string {
	switch k {
	case HitAnchor:
		return "anchor"
	case HitHandleIn:
		return "handle-in"
	case HitHandleOut:
		return "handle-out"
	case HitStroke:
		return "stroke"
	}
	return "none"
}

// IsHandle reports whether k is one of the handle kinds.
func (k HitKind) IsHandle() bool {
	return k == HitHandleIn || k == HitHandleOut
}

// Hit is the result of a hit test.
type Hit struct {
	Kind    HitKind
	Path    *Path
	Segment *Segment // nil for stroke hits
	Piece   int      // stroke hits: piece index within Path
	T       float64  // stroke hits: curve parameter on the piece
	Point   fontogether.Point
	Dist    float64
}

// HitOptions selects what a hit test considers.
type HitOptions struct {
	Anchors bool
	Handles bool
	Stroke  bool
	// Skip excludes one path, typically the one being drawn.
	Skip *Path
}

// HitAll considers anchors, handles and strokes.
var HitAll = HitOptions{Anchors: true, Handles: true, Stroke: true}

// HitTest finds what lies within tolerance of p. Anchors take priority over
// handles and handles over strokes; within one kind the closest wins.
func (s *Scene) HitTest(p fontogether.Point, tolerance float64, opt HitOptions) (Hit, bool) {
	if opt.Anchors {
		if h, ok := s.hitAnchors(p, tolerance, opt.Skip); ok {
			return h, true
		}
	}
	if opt.Handles {
		if h, ok := s.hitHandles(p, tolerance, opt.Skip); ok {
			return h, true
		}
	}
	if opt.Stroke {
		if h, ok := s.hitStroke(p, tolerance, opt.Skip); ok {
			return h, true
		}
	}
	return Hit{}, false
}

func (s *Scene) hitAnchors(p fontogether.Point, tol float64, skip *Path) (Hit, bool) {
	best := Hit{Dist: math.Inf(1)}
	for _, path := range s.Paths {
		if path == skip {
			continue
		}
		for _, seg := range path.Segments {
			if d := seg.Anchor.Distance(p); d <= tol && d < best.Dist {
				best = Hit{Kind: HitAnchor, Path: path, Segment: seg, Point: seg.Anchor, Dist: d}
			}
		}
	}
	return best, best.Kind != HitNone
}

func (s *Scene) hitHandles(p fontogether.Point, tol float64, skip *Path) (Hit, bool) {
	best := Hit{Dist: math.Inf(1)}
	for _, path := range s.Paths {
		if path == skip {
			continue
		}
		for _, seg := range path.Segments {
			if !seg.HandleIn.IsZero() {
				if d := seg.In().Distance(p); d <= tol && d < best.Dist {
					best = Hit{Kind: HitHandleIn, Path: path, Segment: seg, Point: seg.In(), Dist: d}
				}
			}
			if !seg.HandleOut.IsZero() {
				if d := seg.Out().Distance(p); d <= tol && d < best.Dist {
					best = Hit{Kind: HitHandleOut, Path: path, Segment: seg, Point: seg.Out(), Dist: d}
				}
			}
		}
	}
	return best, best.Kind != HitNone
}

func (s *Scene) hitStroke(p fontogether.Point, tol float64, skip *Path) (Hit, bool) {
	best := Hit{Dist: math.Inf(1)}
	for _, path := range s.Paths {
		if path == skip {
			continue
		}
		for i := range path.PieceCount() {
			c := path.Piece(i)
			if !c.BoundingBox().Expand(tol).Contains(p) {
				continue
			}
			t, d := c.Nearest(p)
			if d <= tol && d < best.Dist {
				best = Hit{Kind: HitStroke, Path: path, Piece: i, T: t, Point: c.Eval(t), Dist: d}
			}
		}
	}
	return best, best.Kind != HitNone
}

// SegmentsIn returns every segment whose anchor lies inside r.
func (s *Scene) SegmentsIn(r fontogether.Rect) []*Segment {
	var out []*Segment
	for _, path := range s.Paths {
		for _, seg := range path.Segments {
			if r.Contains(seg.Anchor) {
				out = append(out, seg)
			}
		}
	}
	return out
}
