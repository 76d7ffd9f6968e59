package edit

import (
	"math"

	"github.com/fontogether/fontogether"
)

// zoomUp finishes a zoom-tool gesture: a click zooms about the pointer and a
// drag fits the dragged box.
func (e *Engine) zoomUp(screen fontogether.Point) Result {
	if !e.g.dragged {
		f := e.cfg.ClickZoomFactor
		if e.g.mods.Has(modZoomOut) {
			f = 1 / f
		}
		e.view.ZoomAt(f, screen)
		return Result{ViewChanged: true}
	}
	r := fontogether.NewRect(e.g.downScene, e.view.ToScene(screen))
	e.view.Fit(r)
	return Result{ViewChanged: true}
}

// Wheel zooms by WheelZoomFactor per notch about the screen point anchor.
// Positive notches zoom in.
func (e *Engine) Wheel(notches float64, anchor fontogether.Point) Result {
	if notches == 0 {
		return Result{}
	}
	e.view.ZoomAt(math.Pow(WheelZoomFactor, notches), anchor)
	return Result{ViewChanged: true}
}

// Measurement is a ruler reading in font units (Y up).
type Measurement struct {
	From, To fontogether.Point
	Distance float64
	DX, DY   float64
	// Angle is measured counter-clockwise from the positive X axis, in
	// degrees within (-180, 180].
	Angle float64
}

func measure(a, b fontogether.Point) Measurement {
	from, to := a.FlipY(), b.FlipY()
	d := to.Sub(from)
	return Measurement{
		From:     from,
		To:       to,
		Distance: d.Length(),
		DX:       d.X,
		DY:       d.Y,
		Angle:    d.Atan2() * 180 / math.Pi,
	}
}
