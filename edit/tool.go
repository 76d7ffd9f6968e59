package edit

import "fmt"

// Tool identifies the active editing tool. The tool is owned by the caller
// (a glyph session) and passed into every event handler.
type Tool int

// Editing tools.
const (
	ToolSelect Tool = iota
	ToolPen
	ToolCurve
	ToolRectangle
	ToolCircle
	ToolHand
	ToolZoom
	ToolRuler
)

var toolNames = [...]string{
	ToolSelect:    "select",
	ToolPen:       "pen",
	ToolCurve:     "curve",
	ToolRectangle: "rectangle",
	ToolCircle:    "circle",
	ToolHand:      "hand",
	ToolZoom:      "zoom",
	ToolRuler:     "ruler",
}

func (t Tool) String() string {
	if t >= 0 && int(t) < len(toolNames) {
		return toolNames[t]
	}
	return fmt.Sprintf("Tool(%d)", int(t))
}

// ParseTool returns the tool with the given name.
func ParseTool(name string) (Tool, error) {
	for t, n := range toolNames {
		if n == name {
			return Tool(t), nil
		}
	}
	return 0, fmt.Errorf("edit: unknown tool %q", name)
}

// Mutates reports whether the tool can change the outline.
func (t Tool) Mutates() bool {
	switch t {
	case ToolHand, ToolZoom, ToolRuler:
		return false
	}
	return true
}

var shortcuts = map[rune]Tool{
	'v': ToolSelect,
	'p': ToolPen,
	'c': ToolCurve,
	'r': ToolRectangle,
	'e': ToolCircle,
	'h': ToolHand,
	'z': ToolZoom,
	'm': ToolRuler,
}

// ToolForKey returns the tool bound to a keyboard shortcut.
func ToolForKey(r rune) (Tool, bool) {
	t, ok := shortcuts[r]
	return t, ok
}
