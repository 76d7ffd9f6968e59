package edit

import (
	"math"

	"github.com/fontogether/fontogether"
)

// Zoom limits and steps.
const (
	MinZoom         = 0.05
	MaxZoom         = 50
	WheelZoomFactor = 1.1
	ZoomStep        = 0.1
)

// View maps scene coordinates to screen coordinates:
// screen = scene*Zoom + Offset.
type View struct {
	Zoom   float64
	Offset fontogether.Vec2
	// Width and Height are the viewport size in screen pixels.
	Width, Height float64
}

// NewView returns a view of the given viewport size at zoom 1 with the
// scene origin at the top-left corner.
func NewView(width, height float64) View {
	return View{Zoom: 1, Width: width, Height: height}
}

// Matrix returns the scene-to-screen transform.
func (v *View) Matrix() fontogether.Matrix {
	return fontogether.Translate(v.Offset.X, v.Offset.Y).Multiply(fontogether.Scale(v.Zoom, v.Zoom))
}

// ToScene converts a screen point to scene coordinates.
func (v *View) ToScene(p fontogether.Point) fontogether.Point {
	return v.Matrix().Invert().TransformPoint(p)
}

// ToScreen converts a scene point to screen coordinates.
func (v *View) ToScreen(p fontogether.Point) fontogether.Point {
	return v.Matrix().TransformPoint(p)
}

// Pan shifts the view by d screen pixels.
func (v *View) Pan(d fontogether.Vec2) {
	v.Offset = v.Offset.Add(d)
}

// ZoomAt multiplies the zoom by factor, keeping the scene point under the
// screen point anchor fixed. The zoom is clamped to [MinZoom, MaxZoom].
func (v *View) ZoomAt(factor float64, anchor fontogether.Point) {
	v.SetZoom(v.Zoom*factor, anchor)
}

// SetZoom sets the zoom level about the screen point anchor.
func (v *View) SetZoom(zoom float64, anchor fontogether.Point) {
	fixed := v.ToScene(anchor)
	v.Zoom = clampZoom(zoom)
	v.Offset = anchor.Sub(fixed.ToVec2().Mul(v.Zoom).ToPoint())
}

// ZoomIn raises the zoom by ZoomStep about the viewport center.
func (v *View) ZoomIn() {
	v.SetZoom(v.Zoom+ZoomStep, v.center())
}

// ZoomOut lowers the zoom by ZoomStep about the viewport center.
func (v *View) ZoomOut() {
	v.SetZoom(v.Zoom-ZoomStep, v.center())
}

// Reset returns to zoom 1 with the scene point c at the viewport center.
func (v *View) Reset(c fontogether.Point) {
	v.Zoom = 1
	v.CenterOn(c)
}

// CenterOn pans so that the scene point c is at the viewport center.
func (v *View) CenterOn(c fontogether.Point) {
	v.Offset = v.center().Sub(c.ToVec2().Mul(v.Zoom).ToPoint())
}

// Fit zooms and pans so that the scene rectangle r fills the viewport.
func (v *View) Fit(r fontogether.Rect) {
	if r.Width() <= 0 && r.Height() <= 0 {
		return
	}
	zoom := math.Inf(1)
	if r.Width() > 0 {
		zoom = v.Width / r.Width()
	}
	if r.Height() > 0 {
		zoom = math.Min(zoom, v.Height/r.Height())
	}
	v.Zoom = clampZoom(zoom)
	v.CenterOn(r.Center())
}

func (v *View) center() fontogether.Point {
	return fontogether.Pt(v.Width/2, v.Height/2)
}

func clampZoom(z float64) float64 {
	return math.Max(MinZoom, math.Min(MaxZoom, z))
}
