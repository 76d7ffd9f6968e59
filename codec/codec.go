// Package codec converts between persisted outlines and live scenes.
//
// Decode turns each contour's flattened on/off-curve point list into a path of
// segments with anchor-relative handles; Encode does the reverse. Both are
// pure functions of their input. Scene Y is the negation of font Y.
package codec

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/fontogether/fontogether"
	"github.com/fontogether/fontogether/outline"
	"github.com/fontogether/fontogether/scene"
)

// Tolerance is the precision to which Decode(Encode(s)) reproduces s.
const Tolerance = 1e-6

// quadFactor scales a quadratic control offset into the equivalent cubic
// handle (degree elevation).
const quadFactor = 2.0 / 3.0

// DecodeError lists the contours Decode skipped.
type DecodeError struct {
	Contours []*outline.ContourError
}

func (e *DecodeError) Error() string {
	parts := make([]string, len(e.Contours))
	for i, c := range e.Contours {
		parts[i] = c.Error()
	}
	return fmt.Sprintf("codec: skipped %d contour(s): %s", len(e.Contours), strings.Join(parts, "; "))
}

// Unwrap exposes the individual contour errors to errors.As.
func (e *DecodeError) Unwrap() []error {
	errs := make([]error, len(e.Contours))
	for i, c := range e.Contours {
		errs[i] = c
	}
	return errs
}

// Decode builds a scene from o. Malformed contours are skipped and reported
// in a *DecodeError; the returned scene is never nil and holds every contour
// that decoded.
func Decode(o *outline.Outline) (*scene.Scene, error) {
	s := scene.New()
	if o == nil {
		return s, nil
	}
	var skipped []*outline.ContourError
	for i, c := range o.Contours {
		p, err := decodeContour(c)
		if err != nil {
			skipped = append(skipped, &outline.ContourError{Index: i, Reason: err.Error()})
			fontogether.Logger().Warn("codec: contour skipped", "contour", i, "reason", err)
			continue
		}
		s.AddPath(p)
	}
	s.Components = append(s.Components, o.Components...)
	if len(skipped) > 0 {
		return s, &DecodeError{Contours: skipped}
	}
	return s, nil
}

func toScene(p outline.Point) fontogether.Point {
	return p.Pos().FlipY()
}

func decodeContour(c outline.Contour) (*scene.Path, error) {
	if reason := outline.ValidateContour(c); reason != "" {
		return nil, errors.New(reason)
	}
	pts := c.Points
	closed := c.IsClosed()
	first := 0
	for !pts[first].Type.IsOnCurve() {
		first++
	}
	if !closed && first != 0 {
		return nil, errors.New("open contour starts with an off-curve point")
	}
	// Rotate so the walk starts on the first on-curve point.
	rot := make([]outline.Point, 0, len(pts))
	rot = append(rot, pts[first:]...)
	rot = append(rot, pts[:first]...)

	path := &scene.Path{Closed: closed}
	path.Append(scene.NewCorner(toScene(rot[0])))
	var offs []fontogether.Point
	for _, p := range rot[1:] {
		if !p.Type.IsOnCurve() {
			offs = append(offs, toScene(p))
			continue
		}
		seg := scene.NewCorner(toScene(p))
		implied, err := join(path.Last(), seg, offs, p.Type)
		if err != nil {
			return nil, err
		}
		for _, s := range implied {
			path.Append(s)
		}
		path.Append(seg)
		offs = offs[:0]
	}
	if closed {
		implied, err := join(path.Last(), path.First(), offs, rot[0].Type)
		if err != nil {
			return nil, err
		}
		for _, s := range implied {
			path.Append(s)
		}
	}
	return path, nil
}

// join sets the handles of the piece from prev to cur given the off-curve
// points between them. Quadratic splines (type qcurve with several control
// points) have implied on-curve points at the midpoints of consecutive
// controls; those are returned as new segments to insert before cur.
func join(prev, cur *scene.Segment, offs []fontogether.Point, typ outline.PointType) ([]*scene.Segment, error) {
	switch {
	case len(offs) == 0:
		return nil, nil
	case len(offs) == 1:
		quadratic(prev, cur, offs[0])
		return nil, nil
	case len(offs) == 2 && typ != outline.QCurve:
		prev.HandleOut = offs[0].Sub(prev.Anchor)
		cur.HandleIn = offs[1].Sub(cur.Anchor)
		return nil, nil
	case typ != outline.QCurve:
		return nil, fmt.Errorf("%d off-curve points before a %s point", len(offs), typ)
	}
	implied := make([]*scene.Segment, 0, len(offs)-1)
	from := prev
	for i := 0; i < len(offs)-1; i++ {
		mid := scene.NewCorner(offs[i].Midpoint(offs[i+1]))
		quadratic(from, mid, offs[i])
		implied = append(implied, mid)
		from = mid
	}
	quadratic(from, cur, offs[len(offs)-1])
	return implied, nil
}

func quadratic(prev, cur *scene.Segment, c fontogether.Point) {
	prev.HandleOut = c.Sub(prev.Anchor).Mul(quadFactor)
	cur.HandleIn = c.Sub(cur.Anchor).Mul(quadFactor)
}

// Encode flattens s into an outline. Every segment yields exactly one
// on-curve point. A curved piece yields one off-curve point when it is an
// exact degree-raised quadratic and two otherwise. The incoming handle of
// the first point and the outgoing handle of the last point of an open path
// shape no piece and are not written.
func Encode(s *scene.Scene) *outline.Outline {
	o := &outline.Outline{Contours: make([]outline.Contour, 0, len(s.Paths))}
	for _, p := range s.Paths {
		if p.Len() == 0 {
			continue
		}
		o.Contours = append(o.Contours, encodePath(p))
	}
	if len(s.Components) > 0 {
		o.Components = append([]outline.Component(nil), s.Components...)
	}
	return o
}

func toFont(p fontogether.Point, typ outline.PointType) outline.Point {
	f := p.FlipY()
	return outline.Point{X: f.X, Y: f.Y, Type: typ}
}

func encodePath(p *scene.Path) outline.Contour {
	segs := p.Segments
	n := len(segs)
	c := outline.Contour{Points: make([]outline.Point, 0, 3*n)}
	if !p.Closed {
		open := false
		c.Closed = &open
		segs = trimEnds(segs)
	}
	for i, seg := range segs {
		var prev *scene.Segment
		switch {
		case i > 0:
			prev = segs[i-1]
		case p.Closed:
			prev = segs[n-1]
		}
		curved := false
		if prev != nil && (!prev.HandleOut.IsZero() || !seg.HandleIn.IsZero()) {
			curved = true
			if q, ok := quadControl(prev, seg); ok {
				c.Points = append(c.Points, toFont(q, outline.OffCurve))
			} else {
				c.Points = append(c.Points,
					toFont(prev.Out(), outline.OffCurve),
					toFont(seg.In(), outline.OffCurve))
			}
		}
		typ := outline.Line
		if curved || !seg.IsCorner() {
			typ = outline.Curve
		}
		pt := toFont(seg.Anchor, typ)
		pt.Smooth = isSmooth(seg)
		c.Points = append(c.Points, pt)
	}
	return c
}

// trimEnds returns segs with the outer handles of the first and last
// segments zeroed, copying only what changes.
func trimEnds(segs []*scene.Segment) []*scene.Segment {
	first, last := segs[0], segs[len(segs)-1]
	if first.HandleIn.IsZero() && last.HandleOut.IsZero() {
		return segs
	}
	out := append([]*scene.Segment(nil), segs...)
	f := *first
	f.HandleIn = fontogether.Vec2{}
	out[0] = &f
	l := *out[len(out)-1]
	l.HandleOut = fontogether.Vec2{}
	out[len(out)-1] = &l
	return out
}

// quadControl reports whether the piece from prev to cur is a raised
// quadratic, returning its control point. Both handles must point at the same
// control when scaled back by 3/2.
func quadControl(prev, cur *scene.Segment) (fontogether.Point, bool) {
	q1 := prev.Anchor.Add(prev.HandleOut.Mul(1 / quadFactor))
	q2 := cur.Anchor.Add(cur.HandleIn.Mul(1 / quadFactor))
	if !q1.Approx(q2, Tolerance) {
		return fontogether.Point{}, false
	}
	return q1.Midpoint(q2), true
}

// isSmooth reports whether the two handles of seg are nonzero and point in
// opposite directions.
func isSmooth(seg *scene.Segment) bool {
	in, out := seg.HandleIn, seg.HandleOut
	if in.IsZero() || out.IsZero() {
		return false
	}
	return math.Abs(in.Cross(out)) <= 1e-9*in.Length()*out.Length() && in.Dot(out) < 0
}
