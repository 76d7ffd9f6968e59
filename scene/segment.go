package scene

import "github.com/fontogether/fontogether"

// Segment is an anchor with its incoming and outgoing handles.
type Segment struct {
	Anchor    fontogether.Point
	HandleIn  fontogether.Vec2
	HandleOut fontogether.Vec2
}

// NewCorner returns a segment at p with both handles zero.
func NewCorner(p fontogether.Point) *Segment {
	return &Segment{Anchor: p}
}

// In returns the absolute position of the incoming handle.
func (s *Segment) In() fontogether.Point {
	return s.Anchor.Add(s.HandleIn)
}

// Out returns the absolute position of the outgoing handle.
func (s *Segment) Out() fontogether.Point {
	return s.Anchor.Add(s.HandleOut)
}

// IsCorner reports whether both handles are zero.
func (s *Segment) IsCorner() bool {
	return s.HandleIn.IsZero() && s.HandleOut.IsZero()
}

// Move translates the anchor; handles follow because they are relative.
func (s *Segment) Move(d fontogether.Vec2) {
	s.Anchor = s.Anchor.Add(d)
}

// SetSymmetric sets the outgoing handle to out and the incoming one to its
// mirror image.
func (s *Segment) SetSymmetric(out fontogether.Vec2) {
	s.HandleOut = out
	s.HandleIn = out.Neg()
}

// Approx reports whether s and o match within epsilon.
func (s *Segment) Approx(o *Segment, epsilon float64) bool {
	return s.Anchor.Approx(o.Anchor, epsilon) &&
		s.HandleIn.Approx(o.HandleIn, epsilon) &&
		s.HandleOut.Approx(o.HandleOut, epsilon)
}
