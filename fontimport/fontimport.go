// Package fontimport seeds a project from an existing TrueType or OpenType
// font.
package fontimport

import (
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/fontogether/fontogether"
	"github.com/fontogether/fontogether/outline"
)

// Font is the importable content of a font file.
type Font struct {
	Family     string
	UnitsPerEm int
	// Ascender is positive and Descender negative, in font units.
	Ascender  float64
	Descender float64
	// Glyphs are in glyph index order with SortOrder set to the index.
	Glyphs []*outline.Glyph
}

// Load parses a TTF or OTF file. Glyphs whose outline cannot be read, such
// as color bitmaps, are imported empty.
func Load(data []byte) (*Font, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("fontimport: parse: %w", err)
	}

	var buf sfnt.Buffer
	upem := int(f.UnitsPerEm())
	// Requesting one pixel per unit yields coordinates in font units.
	ppem := fixed.I(upem)

	out := &Font{UnitsPerEm: upem}
	if name, err := f.Name(&buf, sfnt.NameIDFamily); err == nil {
		out.Family = name
	}
	if m, err := f.Metrics(&buf, ppem, font.HintingNone); err == nil {
		out.Ascender = fromFixed(m.Ascent)
		out.Descender = 0 - fromFixed(m.Descent)
	}

	unicodes, err := cmap(f, &buf)
	if err != nil {
		return nil, err
	}

	log := fontogether.Logger()
	taken := make(map[string]bool, f.NumGlyphs())
	for i := range f.NumGlyphs() {
		gid := sfnt.GlyphIndex(i)
		g := outline.NewGlyph(glyphName(f, &buf, gid, unicodes[gid], taken), unicodes[gid]...)
		g.SortOrder = i

		if adv, err := f.GlyphAdvance(&buf, gid, ppem, font.HintingNone); err == nil {
			g.AdvanceWidth = fromFixed(adv)
		}
		segs, err := f.LoadGlyph(&buf, gid, ppem, nil)
		switch {
		case err == nil:
			g.Outline = convert(segs)
		case errors.Is(err, sfnt.ErrColoredGlyph):
			log.Debug("fontimport: colored glyph imported empty", "glyph", g.Name)
		default:
			log.Warn("fontimport: glyph outline unreadable", "glyph", g.Name, "err", err)
		}
		out.Glyphs = append(out.Glyphs, g)
	}
	return out, nil
}

// cmap maps glyph indices to the BMP code points that reach them.
func cmap(f *sfnt.Font, buf *sfnt.Buffer) (map[sfnt.GlyphIndex][]int, error) {
	m := make(map[sfnt.GlyphIndex][]int)
	for r := rune(0); r <= 0xFFFF; r++ {
		if r >= 0xD800 && r <= 0xDFFF {
			continue
		}
		gid, err := f.GlyphIndex(buf, r)
		if err != nil {
			return nil, fmt.Errorf("fontimport: cmap: %w", err)
		}
		if gid != 0 {
			m[gid] = append(m[gid], int(r))
		}
	}
	return m, nil
}

// glyphName prefers the font's own name, then uniXXXX for the first mapped
// code point, then glyphNNNNN. Duplicates get a numeric suffix.
func glyphName(f *sfnt.Font, buf *sfnt.Buffer, gid sfnt.GlyphIndex, unicodes []int, taken map[string]bool) string {
	name, err := f.GlyphName(buf, gid)
	if err == nil {
		name = outline.NormalizeName(name)
	}
	if err != nil || outline.ValidateName(name) != nil {
		switch {
		case len(unicodes) > 0:
			name = outline.DefaultName(rune(unicodes[0]))
		default:
			name = fmt.Sprintf("glyph%05d", gid)
		}
	}
	unique := name
	for n := 1; taken[unique]; n++ {
		unique = name + "." + strconv.Itoa(n)
	}
	taken[unique] = true
	return unique
}

// convert turns sfnt segments (Y-down) into contours (Y-up). A quadratic
// segment contributes one off-curve point, a cubic two.
func convert(segs sfnt.Segments) *outline.Outline {
	o := &outline.Outline{}
	var (
		start  outline.Point
		points []outline.Point
	)
	flush := func() {
		if len(points) == 0 {
			return
		}
		// Contours wrap around: an endpoint equal to the start closes the
		// contour on its own, anything else needs a closing line.
		last := points[len(points)-1]
		if last.X != start.X || last.Y != start.Y {
			points = append(points, start)
		}
		o.Contours = append(o.Contours, outline.Contour{Points: points})
		points = nil
	}
	pt := func(p fixed.Point26_6, typ outline.PointType) outline.Point {
		return outline.Point{X: fromFixed(p.X), Y: 0 - fromFixed(p.Y), Type: typ}
	}
	for _, s := range segs {
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			flush()
			start = pt(s.Args[0], outline.Line)
		case sfnt.SegmentOpLineTo:
			points = append(points, pt(s.Args[0], outline.Line))
		case sfnt.SegmentOpQuadTo:
			points = append(points, pt(s.Args[0], outline.OffCurve), pt(s.Args[1], outline.QCurve))
		case sfnt.SegmentOpCubeTo:
			points = append(points,
				pt(s.Args[0], outline.OffCurve), pt(s.Args[1], outline.OffCurve), pt(s.Args[2], outline.Curve))
		}
	}
	flush()
	return o
}

func fromFixed(x fixed.Int26_6) float64 {
	return float64(x) / 64
}
