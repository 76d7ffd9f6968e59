package outline

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Defaults for newly created glyphs.
const (
	DefaultAdvanceWidth  = 500
	DefaultAdvanceHeight = 1000
	DefaultLayer         = "public.default"
)

// Glyph is one glyph of a project. UUID is stable across renames; Name is
// unique within the project.
type Glyph struct {
	UUID           uuid.UUID `json:"glyphUuid"`
	Name           string    `json:"glyphName"`
	LayerName      string    `json:"layerName,omitempty"`
	Unicodes       []int     `json:"unicodes"`
	AdvanceWidth   float64   `json:"advanceWidth"`
	AdvanceHeight  float64   `json:"advanceHeight"`
	Outline        *Outline  `json:"outline"`
	SortOrder      int       `json:"sortOrder"`
	UpdatedAt      time.Time `json:"updatedAt"`
	LastModifiedBy string    `json:"lastModifiedBy,omitempty"`
}

// NewGlyph returns an empty glyph with a fresh UUID and default metrics.
func NewGlyph(name string, unicodes ...int) *Glyph {
	return &Glyph{
		UUID:          uuid.New(),
		Name:          name,
		LayerName:     DefaultLayer,
		Unicodes:      unicodes,
		AdvanceWidth:  DefaultAdvanceWidth,
		AdvanceHeight: DefaultAdvanceHeight,
		Outline:       &Outline{},
	}
}

// Clone returns a deep copy of g.
func (g *Glyph) Clone() *Glyph {
	c := *g
	c.Unicodes = slices.Clone(g.Unicodes)
	if g.Outline != nil {
		c.Outline = g.Outline.Clone()
	}
	return &c
}

// PrimaryUnicode returns the first code point mapped to g, or -1.
func (g *Glyph) PrimaryUnicode() int {
	if len(g.Unicodes) == 0 {
		return -1
	}
	return g.Unicodes[0]
}
