package edit

import (
	"github.com/fontogether/fontogether"
	"github.com/fontogether/fontogether/scene"
)

// penDown handles a pen-tool press: close the path being drawn, split an
// existing contour, or add a corner point.
func (e *Engine) penDown(p fontogether.Point) Result {
	if e.pen != nil && e.pen.Len() >= 2 {
		first := e.pen.First()
		if first.Anchor.Distance(p) <= e.cfg.PenTolerance/e.view.Zoom {
			e.applyPenHandles(e.pen)
			e.pen.Closed = true
			e.pen = nil
			e.sel.Set(first)
			e.g.kind = gesturePenClick
			e.g.mutated = true
			return Result{Changed: true}
		}
	}
	if e.pen != nil && e.pen.Len() == 1 && e.pen.First().Anchor.Distance(p) <= e.cfg.PenTolerance/e.view.Zoom {
		// Too short to close; the point is already there.
		e.g.kind = gesturePenClick
		return Result{}
	}

	tol := e.cfg.SelectTolerance / e.view.Zoom
	if hit, ok := e.scene.HitTest(p, tol, scene.HitOptions{Anchors: true, Stroke: true, Skip: e.pen}); ok {
		e.g.kind = gesturePenClick
		if hit.Kind == scene.HitAnchor {
			// Existing points are selected rather than duplicated.
			e.sel.Set(hit.Segment)
			return Result{}
		}
		seg := hit.Path.SplitAt(hit.Piece, hit.T)
		e.sel.Set(seg)
		e.g.mutated = true
		return Result{Changed: true}
	}

	if e.pen == nil {
		e.pen = scene.NewPath(false)
		e.scene.AddPath(e.pen)
	} else if last := e.pen.Last(); last == e.penOuter.last {
		last.HandleOut = e.penOuter.out
		e.penOuter.last, e.penOuter.out = nil, fontogether.Vec2{}
	}
	seg := scene.NewCorner(p)
	e.pen.Append(seg)
	e.sel.Set(seg)
	e.g.kind = gesturePenDrag
	e.g.seg = seg
	e.g.snapshot(seg)
	e.g.mutated = true
	return Result{Changed: true}
}

// penMove drags out symmetric handles on the point just added. Handles
// that would poke out of the ends of the open path are held in penOuter
// until the path grows or closes.
func (e *Engine) penMove(p fontogether.Point) Result {
	if !e.g.dragged {
		return Result{}
	}
	d := p.Sub(e.g.downScene)
	seg := e.g.seg
	e.penOuter.last, e.penOuter.out = seg, d
	if seg == e.pen.First() {
		e.penOuter.first, e.penOuter.in = seg, d.Neg()
	} else {
		seg.HandleIn = d.Neg()
	}
	return Result{Changed: true}
}

// penHandles are the outer handles of the open pen path: the incoming
// handle of its first point and the outgoing handle of its last.
type penHandles struct {
	first *scene.Segment
	in    fontogether.Vec2
	last  *scene.Segment
	out   fontogether.Vec2
}

// PenHandles returns the pending outer handles of the open pen path in
// scene coordinates. They become part of the outline when the path closes.
func (e *Engine) PenHandles() (in, out fontogether.Point, ok bool) {
	if e.pen == nil || (e.penOuter.first == nil && e.penOuter.last == nil) {
		return fontogether.Point{}, fontogether.Point{}, false
	}
	if s := e.penOuter.first; s != nil {
		in = s.Anchor.Add(e.penOuter.in)
	}
	if s := e.penOuter.last; s != nil {
		out = s.Anchor.Add(e.penOuter.out)
	}
	return in, out, true
}

// applyPenHandles moves the pending outer handles onto p, as it is about
// to close.
func (e *Engine) applyPenHandles(p *scene.Path) {
	if s := e.penOuter.first; s != nil && s == p.First() {
		s.HandleIn = e.penOuter.in
	}
	if s := e.penOuter.last; s != nil && s == p.Last() {
		s.HandleOut = e.penOuter.out
	}
	e.penOuter = penHandles{}
}

// dropPenHandles forgets the pending handles dragged out of seg.
func (e *Engine) dropPenHandles(seg *scene.Segment) {
	if e.penOuter.first == seg {
		e.penOuter.first, e.penOuter.in = nil, fontogether.Vec2{}
	}
	if e.penOuter.last == seg {
		e.penOuter.last, e.penOuter.out = nil, fontogether.Vec2{}
	}
}

// closePen ends the open pen path. Paths with fewer than two points are
// discarded; longer ones are closed.
func (e *Engine) closePen() Result {
	p := e.pen
	e.pen = nil
	if p.Len() < 2 {
		e.penOuter = penHandles{}
		e.scene.RemovePath(p)
		e.sel.Prune(e.scene)
	} else {
		e.applyPenHandles(p)
		p.Closed = true
	}
	return committed
}
