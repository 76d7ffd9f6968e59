package edit

import "github.com/fontogether/fontogether"

// Modifiers is a set of held modifier keys.
type Modifiers uint8

// Modifier keys.
const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

// Has reports whether any of the modifiers in x are held.
func (m Modifiers) Has(x Modifiers) bool {
	return m&x != 0
}

// Modifier roles. Ctrl and Meta are interchangeable so that the same
// bindings work with the platform command key.
const (
	modToggle  = ModShift | ModCtrl | ModMeta
	modUniform = ModShift
	modCenter  = ModAlt
	modZoomOut = ModAlt
	modFine    = ModShift
	modCoarse  = ModCtrl | ModMeta
)

// Button identifies a pointer button.
type Button int

// Pointer buttons.
const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

// PointerAction is the phase of a pointer event.
type PointerAction int

// Pointer phases. Move events without a preceding Down are hover and ignored.
const (
	PointerDown PointerAction = iota
	PointerMove
	PointerUp
)

// PointerEvent is a pointer event in screen coordinates.
type PointerEvent struct {
	Action PointerAction
	Pos    fontogether.Point
	Button Button
	Mods   Modifiers
}

// Key identifies a non-character key.
type Key int

// Keys handled by the engine. Character keys use KeyRune.
const (
	KeyRune Key = iota
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyDelete
	KeyBackspace
	KeySpace
	KeyEscape
)

// KeyEvent is a key press or release.
type KeyEvent struct {
	Key     Key
	Rune    rune
	Mods    Modifiers
	Release bool
}
