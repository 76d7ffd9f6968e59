package edit

import (
	"math"

	"github.com/fontogether/fontogether"
	"github.com/fontogether/fontogether/scene"
)

// shapeRect returns the box dragged from a to b. The uniform modifier makes
// it square and the center modifier grows it around a.
func shapeRect(a, b fontogether.Point, mods Modifiers) fontogether.Rect {
	d := b.Sub(a)
	if mods.Has(modUniform) {
		side := math.Max(math.Abs(d.X), math.Abs(d.Y))
		d = fontogether.V2(math.Copysign(side, d.X), math.Copysign(side, d.Y))
	}
	if mods.Has(modCenter) {
		return fontogether.NewRect(a.Add(d.Neg()), a.Add(d))
	}
	return fontogether.NewRect(a, a.Add(d))
}

func (e *Engine) shapeUp(p fontogether.Point) Result {
	r := shapeRect(e.g.downScene, p, e.g.mods)
	if r.IsEmpty() {
		return Result{}
	}
	var path *scene.Path
	if e.g.tool == ToolCircle {
		path = Ellipse(r)
	} else {
		path = Rectangle(r)
	}
	e.scene.AddPath(path)
	e.sel.Set(path.Segments...)
	return committed
}

// Rectangle returns a closed four-corner path around r. Scene space is
// Y-down, so the points run counter-clockwise once flipped into font space.
func Rectangle(r fontogether.Rect) *scene.Path {
	return scene.NewPath(true,
		scene.NewCorner(fontogether.Pt(r.Min.X, r.Max.Y)),
		scene.NewCorner(fontogether.Pt(r.Max.X, r.Max.Y)),
		scene.NewCorner(fontogether.Pt(r.Max.X, r.Min.Y)),
		scene.NewCorner(fontogether.Pt(r.Min.X, r.Min.Y)),
	)
}

// Ellipse returns a closed four-segment path inscribed in r, with handles of
// length Kappa times the radius. Like Rectangle it runs counter-clockwise in
// font space, starting at the rightmost point.
func Ellipse(r fontogether.Rect) *scene.Path {
	c := r.Center()
	rx, ry := r.Width()/2, r.Height()/2
	kx, ky := rx*fontogether.Kappa, ry*fontogether.Kappa
	return scene.NewPath(true,
		&scene.Segment{Anchor: fontogether.Pt(c.X+rx, c.Y), HandleIn: fontogether.V2(0, ky), HandleOut: fontogether.V2(0, -ky)},
		&scene.Segment{Anchor: fontogether.Pt(c.X, c.Y-ry), HandleIn: fontogether.V2(kx, 0), HandleOut: fontogether.V2(-kx, 0)},
		&scene.Segment{Anchor: fontogether.Pt(c.X-rx, c.Y), HandleIn: fontogether.V2(0, -ky), HandleOut: fontogether.V2(0, ky)},
		&scene.Segment{Anchor: fontogether.Pt(c.X, c.Y+ry), HandleIn: fontogether.V2(-kx, 0), HandleOut: fontogether.V2(kx, 0)},
	)
}
