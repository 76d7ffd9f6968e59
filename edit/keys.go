package edit

import "github.com/fontogether/fontogether"

// Nudge distances in font units.
const (
	NudgeStep       = 1
	NudgeStepFine   = 10
	NudgeStepCoarse = 100
)

// Key handles a key event. Tool shortcuts are resolved by the caller with
// ToolForKey since the caller owns the active tool.
func (e *Engine) Key(tool Tool, ev KeyEvent) Result {
	if ev.Key == KeySpace {
		e.spaceHeld = !ev.Release
		return Result{}
	}
	if ev.Release || e.g.kind != gestureNone {
		return Result{}
	}
	switch ev.Key {
	case KeyLeft, KeyRight, KeyUp, KeyDown:
		return e.nudge(ev.Key, ev.Mods)
	case KeyDelete, KeyBackspace:
		return e.deleteSelection()
	case KeyEscape:
		if tool == ToolPen && e.pen != nil {
			return e.closePen()
		}
		e.sel.Clear()
	}
	return Result{}
}

func (e *Engine) nudge(k Key, mods Modifiers) Result {
	if e.sel.Len() == 0 {
		return Result{}
	}
	step := float64(NudgeStep)
	switch {
	case mods.Has(modCoarse):
		step = NudgeStepCoarse
	case mods.Has(modFine):
		step = NudgeStepFine
	}
	var d fontogether.Vec2
	switch k {
	case KeyLeft:
		d.X = -step
	case KeyRight:
		d.X = step
	case KeyUp:
		d.Y = -step // scene space is Y-down
	case KeyDown:
		d.Y = step
	}
	e.scene.Translate(e.sel.Segments(), d)
	return committed
}

func (e *Engine) deleteSelection() Result {
	if e.sel.Len() == 0 {
		return Result{}
	}
	e.scene.RemoveSegments(e.sel.Segments())
	e.sel.Clear()
	if e.pen != nil && e.pen.Len() == 0 {
		e.pen = nil
	}
	return committed
}
