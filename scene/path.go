package scene

import (
	"slices"

	"github.com/fontogether/fontogether"
)

// Path is one contour of the scene.
type Path struct {
	Segments []*Segment
	Closed   bool
}

// NewPath returns a path over segs.
func NewPath(closed bool, segs ...*Segment) *Path {
	return &Path{Segments: segs, Closed: closed}
}

// Len returns the number of segments.
func (p *Path) Len() int {
	return len(p.Segments)
}

// First returns the first segment, or nil for an empty path.
func (p *Path) First() *Segment {
	if len(p.Segments) == 0 {
		return nil
	}
	return p.Segments[0]
}

// Last returns the last segment, or nil for an empty path.
func (p *Path) Last() *Segment {
	if len(p.Segments) == 0 {
		return nil
	}
	return p.Segments[len(p.Segments)-1]
}

// Append adds seg at the end of the path.
func (p *Path) Append(seg *Segment) {
	p.Segments = append(p.Segments, seg)
}

// TrimEnds zeroes the handles that point out of the ends of an open path.
// Those handles shape no piece and have no place in an outline.
func (p *Path) TrimEnds() {
	if p.Closed || len(p.Segments) == 0 {
		return
	}
	p.First().HandleIn = fontogether.Vec2{}
	p.Last().HandleOut = fontogether.Vec2{}
}

// IndexOf returns the position of seg in the path, or -1.
func (p *Path) IndexOf(seg *Segment) int {
	return slices.Index(p.Segments, seg)
}

// PieceCount returns the number of curve pieces: one per segment for a
// closed path, one fewer for an open one. A single-segment closed path has
// one degenerate piece from the segment to itself.
func (p *Path) PieceCount() int {
	n := len(p.Segments)
	if n == 0 {
		return 0
	}
	if p.Closed {
		return n
	}
	return n - 1
}

// Piece returns the cubic Bézier from segment i to its successor.
func (p *Path) Piece(i int) fontogether.CubicBez {
	a := p.Segments[i]
	b := p.Segments[(i+1)%len(p.Segments)]
	return fontogether.CubicBez{P0: a.Anchor, P1: a.Out(), P2: b.In(), P3: b.Anchor}
}

// SplitAt inserts a new segment on piece i at parameter t without changing
// the shape of the path, and returns it. The handles of the two neighbours
// are shortened to match the subdivided curve.
func (p *Path) SplitAt(i int, t float64) *Segment {
	n := len(p.Segments)
	a := p.Segments[i]
	b := p.Segments[(i+1)%n]
	c := p.Piece(i)

	var seg *Segment
	if a.HandleOut.IsZero() && b.HandleIn.IsZero() {
		seg = NewCorner(c.P0.Lerp(c.P3, t))
	} else {
		left, right := c.SplitAt(t)
		seg = &Segment{Anchor: left.P3}
		seg.HandleIn = left.P2.Sub(seg.Anchor)
		seg.HandleOut = right.P1.Sub(seg.Anchor)
		a.HandleOut = left.P1.Sub(a.Anchor)
		b.HandleIn = right.P2.Sub(b.Anchor)
	}
	p.Segments = slices.Insert(p.Segments, i+1, seg)
	return seg
}

// Bounds returns the tight bounding box of the path's curves.
func (p *Path) Bounds() fontogether.Rect {
	if len(p.Segments) == 0 {
		return fontogether.Rect{}
	}
	first := p.Segments[0].Anchor
	r := fontogether.Rect{Min: first, Max: first}
	for i := range p.PieceCount() {
		r = r.Union(p.Piece(i).BoundingBox())
	}
	return r
}

// clone returns a deep copy of p, recording original-to-copy segment pairs
// in remap when it is non-nil.
func (p *Path) clone(remap map[*Segment]*Segment) *Path {
	c := &Path{Segments: make([]*Segment, len(p.Segments)), Closed: p.Closed}
	for i, s := range p.Segments {
		cp := *s
		c.Segments[i] = &cp
		if remap != nil {
			remap[s] = &cp
		}
	}
	return c
}
