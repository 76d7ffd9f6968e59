package outline

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/fontogether/fontogether"
)

// PointType tags a point. The zero value marks an off-curve point.
type PointType string

// Point types accepted on the wire.
const (
	OffCurve PointType = ""
	Line     PointType = "line"
	Curve    PointType = "curve"
	QCurve   PointType = "qcurve"
	Move     PointType = "move"
)

// IsOnCurve reports whether t marks an on-curve point.
func (t PointType) IsOnCurve() bool {
	return t != OffCurve
}

// Known reports whether t is one of the recognised types.
func (t PointType) Known() bool {
	switch t {
	case OffCurve, Line, Curve, QCurve, Move:
		return true
	}
	return false
}

// Point is one entry of a contour's point list.
type Point struct {
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Type   PointType `json:"type,omitempty"`
	Smooth bool      `json:"smooth,omitempty"`
}

// Pos returns the position of p in font space.
func (p Point) Pos() fontogether.Point {
	return fontogether.Pt(p.X, p.Y)
}

// Contour is a circular sequence of points.
type Contour struct {
	Points []Point `json:"points"`
	// Closed is nil for ordinary, closed contours. Only an explicit false
	// marks an open contour.
	Closed *bool `json:"closed,omitempty"`
}

// IsClosed reports whether the contour wraps from its last point to its first.
func (c Contour) IsClosed() bool {
	return c.Closed == nil || *c.Closed
}

// OnCurveCount returns the number of on-curve points.
func (c Contour) OnCurveCount() int {
	n := 0
	for _, p := range c.Points {
		if p.Type.IsOnCurve() {
			n++
		}
	}
	return n
}

// Transformation is the affine placement of a component.
// Rotation is in degrees, counter-clockwise.
type Transformation struct {
	XScale   float64 `json:"xScale"`
	YScale   float64 `json:"yScale"`
	XOffset  float64 `json:"xOffset"`
	YOffset  float64 `json:"yOffset"`
	Rotation float64 `json:"rotation"`
}

// IdentityTransformation places a component unchanged.
var IdentityTransformation = Transformation{XScale: 1, YScale: 1}

// UnmarshalJSON defaults missing scales to 1.
func (t *Transformation) UnmarshalJSON(data []byte) error {
	type plain Transformation
	v := plain(IdentityTransformation)
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*t = Transformation(v)
	return nil
}

// Matrix returns the transformation as a matrix acting on font-space points:
// scale, then rotate, then offset.
func (t Transformation) Matrix() fontogether.Matrix {
	return fontogether.Translate(t.XOffset, t.YOffset).
		Multiply(fontogether.Rotate(t.Rotation * math.Pi / 180)).
		Multiply(fontogether.Scale(t.XScale, t.YScale))
}

// Component references another glyph by name.
type Component struct {
	Base           string         `json:"base"`
	Transformation Transformation `json:"transformation"`
}

// UnmarshalJSON treats a missing transformation as the identity.
func (c *Component) UnmarshalJSON(data []byte) error {
	type plain Component
	v := plain{Transformation: IdentityTransformation}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = Component(v)
	return nil
}

// Outline is the vector shape of a glyph.
type Outline struct {
	Contours   []Contour   `json:"contours"`
	Components []Component `json:"components"`
}

// Errors returned by this package.
var (
	ErrInvalidJSON = errors.New("outline: invalid outline data")
	ErrInvalidName = errors.New("outline: invalid glyph name")
)

// MarshalJSON emits empty arrays rather than null for missing contours or
// components.
func (o Outline) MarshalJSON() ([]byte, error) {
	type plain Outline
	if o.Contours == nil {
		o.Contours = []Contour{}
	}
	if o.Components == nil {
		o.Components = []Component{}
	}
	return json.Marshal(plain(o))
}

// Parse decodes outline data as stored and broadcast. Empty input yields an
// empty outline.
func Parse(data string) (*Outline, error) {
	o := &Outline{}
	if data == "" {
		return o, nil
	}
	if err := json.Unmarshal([]byte(data), o); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return o, nil
}

// String returns the JSON encoding of o. An outline always marshals, so
// String panics only on programming errors.
func (o *Outline) String() string {
	b, err := json.Marshal(o)
	if err != nil {
		panic(fmt.Sprintf("outline: marshal: %v", err))
	}
	return string(b)
}

// Clone returns a deep copy of o.
func (o *Outline) Clone() *Outline {
	c := &Outline{
		Contours:   make([]Contour, len(o.Contours)),
		Components: append([]Component(nil), o.Components...),
	}
	for i, ct := range o.Contours {
		c.Contours[i] = Contour{Points: append([]Point(nil), ct.Points...)}
		if ct.Closed != nil {
			closed := *ct.Closed
			c.Contours[i].Closed = &closed
		}
	}
	return c
}

// Equal reports whether o and other describe exactly the same points and
// components. Nil and empty lists compare equal.
func (o *Outline) Equal(other *Outline) bool {
	if len(o.Contours) != len(other.Contours) || len(o.Components) != len(other.Components) {
		return false
	}
	for i := range o.Contours {
		a, b := o.Contours[i], other.Contours[i]
		if a.IsClosed() != b.IsClosed() || len(a.Points) != len(b.Points) {
			return false
		}
		for j := range a.Points {
			if a.Points[j] != b.Points[j] {
				return false
			}
		}
	}
	for i := range o.Components {
		if o.Components[i] != other.Components[i] {
			return false
		}
	}
	return true
}

// ContourError describes why one contour is unusable.
type ContourError struct {
	Index  int
	Reason string
}

func (e *ContourError) Error() string {
	return fmt.Sprintf("outline: contour %d: %s", e.Index, e.Reason)
}

// Validate reports structural problems: contours without any on-curve
// point, non-finite coordinates and unknown point types. The returned error
// joins one *ContourError per bad contour.
func (o *Outline) Validate() error {
	var errs []error
	for i, c := range o.Contours {
		if err := ValidateContour(c); err != "" {
			errs = append(errs, &ContourError{Index: i, Reason: err})
		}
	}
	return errors.Join(errs...)
}

// ValidateContour returns a description of the first structural problem of c,
// or "" when c is well formed.
func ValidateContour(c Contour) string {
	if len(c.Points) == 0 {
		return "no points"
	}
	for _, p := range c.Points {
		if !p.Pos().IsFinite() {
			return "non-finite coordinate"
		}
		if !p.Type.Known() {
			return fmt.Sprintf("unknown point type %q", p.Type)
		}
	}
	if c.OnCurveCount() == 0 {
		return "no on-curve point"
	}
	return ""
}

// Bounds returns the control-point bounding box of all contours and whether
// there is any point at all.
func (o *Outline) Bounds() (fontogether.Rect, bool) {
	var r fontogether.Rect
	found := false
	for _, c := range o.Contours {
		for _, p := range c.Points {
			if !found {
				r = fontogether.Rect{Min: p.Pos(), Max: p.Pos()}
				found = true
				continue
			}
			r = r.UnionPoint(p.Pos())
		}
	}
	return r, found
}
