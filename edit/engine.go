// Package edit implements the interactive editing tools that mutate a live
// glyph scene.
//
// An [Engine] owns the scene, the selection and the view of one open glyph.
// Callers feed it pointer and key events together with the active [Tool];
// each call returns a [Result] telling the caller whether the scene changed
// and whether the change is complete and should be committed (encoded and
// broadcast). Mutations are applied to the scene live while a gesture is in
// progress and committed on release.
package edit

import (
	"github.com/fontogether/fontogether"
	"github.com/fontogether/fontogether/scene"
)

// Config holds tolerances, in screen pixels, and zoom behaviour.
type Config struct {
	SelectTolerance float64
	PenTolerance    float64
	CurveTolerance  float64
	// DragThreshold is how far the pointer must travel before a press
	// counts as a drag rather than a click.
	DragThreshold   float64
	ClickZoomFactor float64
}

// DefaultConfig returns the stock tolerances.
func DefaultConfig() Config {
	return Config{
		SelectTolerance: 8,
		PenTolerance:    10,
		CurveTolerance:  12,
		DragThreshold:   3,
		ClickZoomFactor: 2,
	}
}

// Result reports the effect of one event.
type Result struct {
	// Changed is set when the scene or the advance width was modified.
	Changed bool
	// Commit is set when a mutation is complete and should be published.
	Commit bool
	// ViewChanged is set when zoom or pan changed.
	ViewChanged bool
}

func (r Result) merge(o Result) Result {
	return Result{
		Changed:     r.Changed || o.Changed,
		Commit:      r.Commit || o.Commit,
		ViewChanged: r.ViewChanged || o.ViewChanged,
	}
}

var committed = Result{Changed: true, Commit: true}

// OverlayKind identifies transient feedback drawn over the glyph.
type OverlayKind int

// Overlay kinds.
const (
	OverlayNone OverlayKind = iota
	OverlayRubberBand
	OverlayRectangle
	OverlayCircle
	OverlayZoomBox
	OverlayRuler
)

// Overlay is the transient feedback of the gesture in progress, in scene
// coordinates.
type Overlay struct {
	Kind        OverlayKind
	Rect        fontogether.Rect
	Measurement Measurement
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithView sets the initial view.
func WithView(v View) Option {
	return func(e *Engine) { e.view = v }
}

// Engine is the editing state of one open glyph. It is not safe for
// concurrent use; all events of a glyph are handled on one goroutine.
type Engine struct {
	cfg     Config
	scene   *scene.Scene
	sel     scene.Selection
	view    View
	advance float64

	g         gesture
	pen       *scene.Path // open path being drawn by the pen tool
	penOuter  penHandles
	spaceHeld bool
	ruler     *Measurement
}

// New returns an engine editing s for a glyph with the given advance width.
func New(s *scene.Scene, advance float64, opts ...Option) *Engine {
	if s == nil {
		s = scene.New()
	}
	e := &Engine{
		cfg:     DefaultConfig(),
		scene:   s,
		view:    NewView(0, 0),
		advance: advance,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the tolerances in use.
func (e *Engine) Config() Config { return e.cfg }

// Scene returns the live scene.
func (e *Engine) Scene() *scene.Scene { return e.scene }

// Selection returns the selection.
func (e *Engine) Selection() *scene.Selection { return &e.sel }

// View returns the view, which callers may adjust directly (viewport resize,
// zoom buttons).
func (e *Engine) View() *View { return &e.view }

// AdvanceWidth returns the advance width as edited by the guide.
func (e *Engine) AdvanceWidth() float64 { return e.advance }

// SetAdvanceWidth sets the advance width without committing.
func (e *Engine) SetAdvanceWidth(w float64) { e.advance = w }

// Drawing reports whether the pen tool has an open path in progress.
func (e *Engine) Drawing() bool { return e.pen != nil }

// Busy reports whether a pointer gesture is in progress.
func (e *Engine) Busy() bool { return e.g.kind != gestureNone }

// Measurement returns the last ruler measurement, if any.
func (e *Engine) Measurement() (Measurement, bool) {
	if e.ruler == nil {
		return Measurement{}, false
	}
	return *e.ruler, true
}

// Overlay returns the feedback for the gesture in progress.
func (e *Engine) Overlay() Overlay {
	r := fontogether.NewRect(e.g.downScene, e.g.lastScene)
	switch e.g.kind {
	case gestureRubberBand:
		return Overlay{Kind: OverlayRubberBand, Rect: r}
	case gestureShape:
		kind := OverlayRectangle
		if e.g.tool == ToolCircle {
			kind = OverlayCircle
		}
		return Overlay{Kind: kind, Rect: shapeRect(e.g.downScene, e.g.lastScene, e.g.mods)}
	case gestureZoomBox:
		return Overlay{Kind: OverlayZoomBox, Rect: r}
	case gestureRuler:
		return Overlay{Kind: OverlayRuler, Measurement: measure(e.g.downScene, e.g.lastScene)}
	}
	return Overlay{}
}

// Replace swaps in a new scene, as when a remote update arrives. The
// selection, any gesture and any pen path in progress are dropped.
func (e *Engine) Replace(s *scene.Scene, advance float64) {
	e.scene = s
	e.advance = advance
	e.sel.Clear()
	e.g = gesture{}
	e.pen = nil
	e.penOuter = penHandles{}
}

// Pointer handles a pointer event for the active tool.
func (e *Engine) Pointer(tool Tool, ev PointerEvent) Result {
	p := e.view.ToScene(ev.Pos)
	switch ev.Action {
	case PointerDown:
		if e.g.kind != gestureNone {
			// A second button went down mid-gesture; keep the first.
			return Result{}
		}
		e.g = gesture{
			tool:       tool,
			downScreen: ev.Pos,
			lastScreen: ev.Pos,
			downScene:  p,
			lastScene:  p,
			mods:       ev.Mods,
		}
		if ev.Button == ButtonMiddle || e.spaceHeld {
			e.g.kind = gesturePan
			return Result{}
		}
		if ev.Button == ButtonRight {
			e.g = gesture{}
			return Result{}
		}
		return e.down(tool, p, ev.Mods)
	case PointerMove:
		if e.g.kind == gestureNone {
			return Result{}
		}
		if !e.g.dragged && ev.Pos.Distance(e.g.downScreen) > e.cfg.DragThreshold {
			e.g.dragged = true
		}
		r := e.move(p, ev.Pos)
		e.g.lastScene, e.g.lastScreen = p, ev.Pos
		return r
	case PointerUp:
		if e.g.kind == gestureNone {
			return Result{}
		}
		r := e.move(p, ev.Pos)
		e.g.lastScene, e.g.lastScreen = p, ev.Pos
		r = r.merge(e.up(p, ev.Pos))
		e.g = gesture{}
		return r
	}
	return Result{}
}

func (e *Engine) down(tool Tool, p fontogether.Point, mods Modifiers) Result {
	switch tool {
	case ToolSelect:
		return e.selectDown(p, mods)
	case ToolPen:
		return e.penDown(p)
	case ToolCurve:
		return e.curveDown(p)
	case ToolRectangle, ToolCircle:
		e.g.kind = gestureShape
	case ToolHand:
		e.g.kind = gesturePan
	case ToolZoom:
		e.g.kind = gestureZoomBox
	case ToolRuler:
		e.g.kind = gestureRuler
		e.ruler = nil
	}
	return Result{}
}

func (e *Engine) move(p, screen fontogether.Point) Result {
	delta := p.Sub(e.g.lastScene)
	switch e.g.kind {
	case gestureMoveSegments:
		if delta.IsZero() {
			return Result{}
		}
		e.scene.Translate(e.sel.Segments(), delta)
		e.g.mutated = true
		return Result{Changed: true}
	case gestureDragHandle:
		if delta.IsZero() {
			return Result{}
		}
		if e.g.handle == scene.HitHandleIn {
			e.g.seg.HandleIn = e.g.seg.HandleIn.Add(delta)
		} else {
			e.g.seg.HandleOut = e.g.seg.HandleOut.Add(delta)
		}
		e.g.mutated = true
		return Result{Changed: true}
	case gestureDragGuide:
		w := e.g.savedAdvance + p.X - e.g.downScene.X
		if w < 0 {
			w = 0
		}
		if w == e.advance {
			return Result{}
		}
		e.advance = w
		e.g.mutated = true
		return Result{Changed: true}
	case gesturePenDrag:
		return e.penMove(p)
	case gestureCurve:
		return e.curveMove(p)
	case gesturePan:
		d := screen.Sub(e.g.lastScreen)
		if d.IsZero() {
			return Result{}
		}
		e.view.Pan(d)
		return Result{ViewChanged: true}
	case gestureRuler:
		m := measure(e.g.downScene, p)
		e.ruler = &m
	}
	return Result{}
}

func (e *Engine) up(p, screen fontogether.Point) Result {
	switch e.g.kind {
	case gestureRubberBand:
		if e.g.dragged {
			for _, seg := range e.scene.SegmentsIn(fontogether.NewRect(e.g.downScene, p)) {
				e.sel.Add(seg)
			}
		}
		return Result{}
	case gestureDragGuide:
		if !e.g.mutated {
			return Result{}
		}
		e.advance = roundUnit(e.advance)
		return committed
	case gestureCurve:
		return e.curveUp()
	case gestureShape:
		return e.shapeUp(p)
	case gestureZoomBox:
		return e.zoomUp(screen)
	}
	if e.g.mutated {
		return committed
	}
	return Result{}
}

// SwitchTool cancels the work in progress of the outgoing tool: a drag is
// discarded (its live changes reverted) and an open pen path is closed.
func (e *Engine) SwitchTool(from, to Tool) Result {
	var r Result
	if e.g.kind != gestureNone {
		switch {
		case e.g.kind == gesturePenClick && e.g.mutated:
			// A split or a close happens on press and has no snapshot.
			r = committed
		case e.g.mutated:
			e.g.restore(e)
			r.Changed = true
		}
		e.g = gesture{}
	}
	if e.pen != nil && to != ToolPen {
		r = r.merge(e.closePen())
	}
	if from == ToolRuler && to != ToolRuler {
		e.ruler = nil
	}
	return r
}

// Finish completes all work in progress, as when the glyph tab closes: a
// drag in progress is kept and committed and an open pen path is closed.
func (e *Engine) Finish() Result {
	var r Result
	if e.g.kind != gestureNone {
		if e.g.kind == gestureDragGuide && e.g.mutated {
			e.advance = roundUnit(e.advance)
		}
		if e.g.mutated {
			r = committed
		}
		e.g = gesture{}
	}
	if e.pen != nil {
		r = r.merge(e.closePen())
	}
	return r
}
