package fontogether

import "math"

// Point is an absolute position in scene or font space.
//
// Differences between two points are [Vec2] values; a point plus a vector is a
// point. Keeping the two apart makes handle math (handles are vectors relative
// to their anchor) hard to get wrong.
type Point struct {
	X, Y float64
}

// Pt is a convenience function to create a Point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p displaced by v.
func (p Point) Add(v Vec2) Point {
	return Point{X: p.X + v.X, Y: p.Y + v.Y}
}

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Vec2 {
	return Vec2{X: p.X - q.X, Y: p.Y - q.Y}
}

// Distance returns the distance between two points.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// DistanceSq returns the squared distance between two points.
func (p Point) DistanceSq(q Point) float64 {
	dx, dy := p.X-q.X, p.Y-q.Y
	return dx*dx + dy*dy
}

// Lerp performs linear interpolation between two points.
// t=0 returns p, t=1 returns q.
func (p Point) Lerp(q Point, t float64) Point {
	return Point{
		X: p.X + (q.X-p.X)*t,
		Y: p.Y + (q.Y-p.Y)*t,
	}
}

// Midpoint returns the point halfway between p and q.
func (p Point) Midpoint(q Point) Point {
	return p.Lerp(q, 0.5)
}

// FlipY mirrors the point across the X axis. Font space is Y-up and scene
// space is Y-down; FlipY converts in either direction.
func (p Point) FlipY() Point {
	return Point{X: p.X, Y: 0 - p.Y} // 0 - y keeps zero positive
}

// Approx reports whether p and q are within epsilon on both axes.
func (p Point) Approx(q Point, epsilon float64) bool {
	return math.Abs(p.X-q.X) <= epsilon && math.Abs(p.Y-q.Y) <= epsilon
}

// IsFinite reports whether both coordinates are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// ToVec2 returns the vector from the origin to p.
func (p Point) ToVec2() Vec2 {
	return Vec2(p)
}
