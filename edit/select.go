package edit

import (
	"math"

	"github.com/fontogether/fontogether"
	"github.com/fontogether/fontogether/scene"
)

// selectDown starts a select-tool gesture. Anchors take priority over
// handles, handles over the advance-width guide; a press on empty space
// starts a rubber band.
func (e *Engine) selectDown(p fontogether.Point, mods Modifiers) Result {
	tol := e.cfg.SelectTolerance / e.view.Zoom
	if hit, ok := e.scene.HitTest(p, tol, scene.HitOptions{Anchors: true}); ok {
		switch {
		case mods.Has(modToggle):
			e.sel.Toggle(hit.Segment)
		case !e.sel.Contains(hit.Segment):
			e.sel.Set(hit.Segment)
		}
		e.g.kind = gestureMoveSegments
		e.g.snapshot(e.sel.Segments()...)
		return Result{}
	}
	if hit, ok := e.scene.HitTest(p, tol, scene.HitOptions{Handles: true}); ok {
		e.sel.Set(hit.Segment)
		e.g.kind = gestureDragHandle
		e.g.seg = hit.Segment
		e.g.handle = hit.Kind
		e.g.snapshot(hit.Segment)
		return Result{}
	}
	if math.Abs(p.X-e.advance) <= tol {
		e.g.kind = gestureDragGuide
		e.g.savedAdvance = e.advance
		return Result{}
	}
	if !mods.Has(modToggle) {
		e.sel.Clear()
	}
	e.g.kind = gestureRubberBand
	return Result{}
}
