package edit

import (
	"math"

	"github.com/fontogether/fontogether"
	"github.com/fontogether/fontogether/scene"
)

type gestureKind int

const (
	gestureNone gestureKind = iota
	gestureMoveSegments
	gestureDragHandle
	gestureDragGuide
	gestureRubberBand
	gesturePenDrag
	gesturePenClick
	gestureCurve
	gestureShape
	gesturePan
	gestureZoomBox
	gestureRuler
)

// gesture is the state of one press-drag-release sequence.
type gesture struct {
	kind gestureKind
	tool Tool
	mods Modifiers

	downScreen, lastScreen fontogether.Point
	downScene, lastScene   fontogether.Point
	dragged                bool
	mutated                bool

	seg    *scene.Segment
	path   *scene.Path
	handle scene.HitKind

	saved        map[*scene.Segment]scene.Segment
	savedAdvance float64
}

// snapshot records the current values of segs so the gesture can be undone.
func (g *gesture) snapshot(segs ...*scene.Segment) {
	g.saved = make(map[*scene.Segment]scene.Segment, len(segs))
	for _, s := range segs {
		g.saved[s] = *s
	}
}

// restore reverts the segments and advance width to their values at the
// start of the gesture.
func (g *gesture) restore(e *Engine) {
	for s, v := range g.saved {
		*s = v
	}
	switch g.kind {
	case gestureDragGuide:
		e.advance = g.savedAdvance
	case gesturePenDrag:
		e.dropPenHandles(g.seg)
	}
}

func roundUnit(v float64) float64 {
	return math.Round(v)
}
