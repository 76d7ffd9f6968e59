package edit

import (
	"github.com/fontogether/fontogether"
	"github.com/fontogether/fontogether/scene"
)

// curveDown grabs an anchor or handle for the curve tool.
func (e *Engine) curveDown(p fontogether.Point) Result {
	tol := e.cfg.CurveTolerance / e.view.Zoom
	hit, ok := e.scene.HitTest(p, tol, scene.HitOptions{Anchors: true, Handles: true})
	if !ok {
		return Result{}
	}
	e.sel.Set(hit.Segment)
	e.g.kind = gestureCurve
	e.g.seg = hit.Segment
	e.g.path = hit.Path
	e.g.handle = hit.Kind
	e.g.snapshot(hit.Segment)
	return Result{}
}

// curveMove drags a single handle freely, or pulls symmetric handles out of
// an anchor.
func (e *Engine) curveMove(p fontogether.Point) Result {
	if !e.g.dragged {
		return Result{}
	}
	seg := e.g.seg
	v := p.Sub(seg.Anchor)
	switch e.g.handle {
	case scene.HitHandleIn:
		seg.HandleIn = v
	case scene.HitHandleOut:
		seg.HandleOut = v
	default:
		seg.SetSymmetric(v)
	}
	e.g.path.TrimEnds()
	e.g.mutated = true
	return Result{Changed: true}
}

// curveUp turns a click without drag into retraction: the clicked handle,
// or both handles of the clicked anchor, become zero.
func (e *Engine) curveUp() Result {
	seg := e.g.seg
	if !e.g.dragged {
		switch e.g.handle {
		case scene.HitHandleIn:
			seg.HandleIn = fontogether.Vec2{}
		case scene.HitHandleOut:
			seg.HandleOut = fontogether.Vec2{}
		default:
			seg.HandleIn, seg.HandleOut = fontogether.Vec2{}, fontogether.Vec2{}
		}
	}
	if *seg == e.g.saved[seg] {
		return Result{}
	}
	return committed
}
