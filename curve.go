package fontogether

import "math"

// Kappa is the handle length, relative to the radius, of a cubic Bézier
// quarter arc approximating a circle: 4/3 * (sqrt(2) - 1).
const Kappa = 0.5522847498307936

// Rect represents an axis-aligned rectangle.
// Min holds the minimum coordinates and Max the maximum coordinates.
type Rect struct {
	Min, Max Point
}

// NewRect creates a rectangle from two points.
// The points are normalized so Min <= Max.
func NewRect(p1, p2 Point) Rect {
	return Rect{
		Min: Point{X: math.Min(p1.X, p2.X), Y: math.Min(p1.Y, p2.Y)},
		Max: Point{X: math.Max(p1.X, p2.X), Y: math.Max(p1.Y, p2.Y)},
	}
}

// Width returns the width of the rectangle.
func (r Rect) Width() float64 {
	return r.Max.X - r.Min.X
}

// Height returns the height of the rectangle.
func (r Rect) Height() float64 {
	return r.Max.Y - r.Min.Y
}

// Center returns the center of the rectangle.
func (r Rect) Center() Point {
	return r.Min.Midpoint(r.Max)
}

// IsEmpty reports whether the rectangle has zero area.
func (r Rect) IsEmpty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// Union returns the smallest rectangle containing both r and other.
func (r Rect) Union(other Rect) Rect {
	return Rect{
		Min: Point{X: math.Min(r.Min.X, other.Min.X), Y: math.Min(r.Min.Y, other.Min.Y)},
		Max: Point{X: math.Max(r.Max.X, other.Max.X), Y: math.Max(r.Max.Y, other.Max.Y)},
	}
}

// UnionPoint returns the smallest rectangle containing r and p.
func (r Rect) UnionPoint(p Point) Rect {
	return r.Union(Rect{Min: p, Max: p})
}

// Expand returns r grown by d on every side (shrunk when d is negative).
func (r Rect) Expand(d float64) Rect {
	return Rect{
		Min: Point{X: r.Min.X - d, Y: r.Min.Y - d},
		Max: Point{X: r.Max.X + d, Y: r.Max.Y + d},
	}
}

// Contains returns true if the point is inside the rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// -------------------------------------------------------------------
// Line
// -------------------------------------------------------------------

// Line represents a line segment from P0 to P1.
type Line struct {
	P0, P1 Point
}

// Eval evaluates the line at parameter t (0 to 1).
func (l Line) Eval(t float64) Point {
	return l.P0.Lerp(l.P1, t)
}

// Length returns the length of the line segment.
func (l Line) Length() float64 {
	return l.P0.Distance(l.P1)
}

// Nearest returns the parameter of the point on l closest to p and the
// distance to it.
func (l Line) Nearest(p Point) (t, dist float64) {
	d := l.P1.Sub(l.P0)
	lenSq := d.LengthSq()
	if lenSq > 0 {
		t = clamp01(p.Sub(l.P0).Dot(d) / lenSq)
	}
	return t, l.Eval(t).Distance(p)
}

// -------------------------------------------------------------------
// QuadBez - Quadratic Bezier Curve
// -------------------------------------------------------------------

// QuadBez represents a quadratic Bezier curve with control points P0, P1, P2.
type QuadBez struct {
	P0, P1, P2 Point
}

// Eval evaluates the curve at parameter t (0 to 1).
func (q QuadBez) Eval(t float64) Point {
	mt := 1.0 - t
	return Point{
		X: mt*mt*q.P0.X + 2*mt*t*q.P1.X + t*t*q.P2.X,
		Y: mt*mt*q.P0.Y + 2*mt*t*q.P1.Y + t*t*q.P2.Y,
	}
}

// Raise returns the cubic Bézier tracing the same curve. The inner control
// points sit two thirds of the way from each end point to the quadratic
// control point.
func (q QuadBez) Raise() CubicBez {
	return CubicBez{
		P0: q.P0,
		P1: q.P0.Add(q.P1.Sub(q.P0).Mul(2.0 / 3.0)),
		P2: q.P2.Add(q.P1.Sub(q.P2).Mul(2.0 / 3.0)),
		P3: q.P2,
	}
}

// -------------------------------------------------------------------
// CubicBez - Cubic Bezier Curve
// -------------------------------------------------------------------

// CubicBez represents a cubic Bezier curve with control points P0..P3.
type CubicBez struct {
	P0, P1, P2, P3 Point
}

// Eval evaluates the curve at parameter t (0 to 1).
func (c CubicBez) Eval(t float64) Point {
	mt := 1.0 - t
	a := mt * mt * mt
	b := 3 * mt * mt * t
	cc := 3 * mt * t * t
	d := t * t * t
	return Point{
		X: a*c.P0.X + b*c.P1.X + cc*c.P2.X + d*c.P3.X,
		Y: a*c.P0.Y + b*c.P1.Y + cc*c.P2.Y + d*c.P3.Y,
	}
}

// IsLine reports whether both control points coincide with their end points.
func (c CubicBez) IsLine() bool {
	return c.P1 == c.P0 && c.P2 == c.P3
}

// SplitAt splits the curve at parameter t using de Casteljau's algorithm.
func (c CubicBez) SplitAt(t float64) (CubicBez, CubicBez) {
	p01 := c.P0.Lerp(c.P1, t)
	p12 := c.P1.Lerp(c.P2, t)
	p23 := c.P2.Lerp(c.P3, t)
	p012 := p01.Lerp(p12, t)
	p123 := p12.Lerp(p23, t)
	mid := p012.Lerp(p123, t)
	return CubicBez{P0: c.P0, P1: p01, P2: p012, P3: mid},
		CubicBez{P0: mid, P1: p123, P2: p23, P3: c.P3}
}

// nearestSamples is the number of uniform samples taken before refining.
const nearestSamples = 32

// Nearest returns the parameter of the point on c closest to p and the
// distance to it. The curve is sampled uniformly and the best sample refined
// by interval halving, which is accurate to well below a font unit for
// glyph-sized curves.
func (c CubicBez) Nearest(p Point) (t, dist float64) {
	if c.IsLine() {
		return Line{P0: c.P0, P1: c.P3}.Nearest(p)
	}
	best := math.Inf(1)
	for i := 0; i <= nearestSamples; i++ {
		ti := float64(i) / nearestSamples
		if d := c.Eval(ti).DistanceSq(p); d < best {
			best, t = d, ti
		}
	}
	step := 1.0 / nearestSamples
	for range 24 {
		step /= 2
		for _, ti := range [2]float64{t - step, t + step} {
			ti = clamp01(ti)
			if d := c.Eval(ti).DistanceSq(p); d < best {
				best, t = d, ti
			}
		}
	}
	return t, math.Sqrt(best)
}

// BoundingBox returns the tight axis-aligned bounding box of the curve.
func (c CubicBez) BoundingBox() Rect {
	r := NewRect(c.P0, c.P3)
	for _, t := range c.extrema() {
		r = r.UnionPoint(c.Eval(t))
	}
	return r
}

// extrema returns the parameters in (0, 1) where the derivative of either
// coordinate vanishes.
func (c CubicBez) extrema() []float64 {
	var ts []float64
	axis := func(p0, p1, p2, p3 float64) {
		// B'(t)/3 = a t^2 + b t + c
		a := -p0 + 3*p1 - 3*p2 + p3
		b := 2 * (p0 - 2*p1 + p2)
		cc := p1 - p0
		for _, t := range solveQuadratic(a, b, cc) {
			if t > 0 && t < 1 {
				ts = append(ts, t)
			}
		}
	}
	axis(c.P0.X, c.P1.X, c.P2.X, c.P3.X)
	axis(c.P0.Y, c.P1.Y, c.P2.Y, c.P3.Y)
	return ts
}

// solveQuadratic returns the real roots of a t^2 + b t + c = 0,
// degrading to the linear case when a is negligible.
func solveQuadratic(a, b, c float64) []float64 {
	const eps = 1e-12
	if math.Abs(a) < eps {
		if math.Abs(b) < eps {
			return nil
		}
		return []float64{-c / b}
	}
	disc := b*b - 4*a*c
	switch {
	case disc < 0:
		return nil
	case disc == 0:
		return []float64{-b / (2 * a)}
	}
	sq := math.Sqrt(disc)
	// Numerically stable form.
	q := -0.5 * (b + math.Copysign(sq, b))
	return []float64{q / a, c / q}
}

func clamp01(t float64) float64 {
	return math.Max(0, math.Min(1, t))
}
