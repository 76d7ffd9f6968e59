// Package preview renders glyph thumbnails for the glyph grid.
package preview

import (
	"errors"
	"fmt"
	"hash/fnv"
	"image"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/vector"

	"github.com/fontogether/fontogether"
	"github.com/fontogether/fontogether/codec"
	"github.com/fontogether/fontogether/outline"
)

// Defaults used when Options fields are zero.
const (
	DefaultSize       = 64
	DefaultUnitsPerEm = 1000
	DefaultAscender   = 800
	DefaultDescender  = -200
	DefaultCacheSize  = 1024
)

// maxComponentDepth bounds component nesting so cyclic references terminate.
const maxComponentDepth = 8

// ErrInvalidSize is returned for a non-positive or oversized thumbnail size.
var ErrInvalidSize = errors.New("preview: invalid size")

// Options controls thumbnail geometry. The thumbnail is a Size×Size square
// spanning Ascender to Descender vertically with the advance width centred.
type Options struct {
	Size       int
	UnitsPerEm float64
	Ascender   float64
	Descender  float64
	// Resolve looks up component base glyphs. Components are not drawn
	// when nil.
	Resolve func(name string) *outline.Glyph
}

func (o Options) withDefaults() Options {
	if o.Size == 0 {
		o.Size = DefaultSize
	}
	if o.UnitsPerEm == 0 {
		o.UnitsPerEm = DefaultUnitsPerEm
	}
	if o.Ascender == 0 && o.Descender == 0 {
		o.Ascender, o.Descender = DefaultAscender, DefaultDescender
	}
	return o
}

// Render fills the outline of g with the nonzero winding rule.
func Render(g *outline.Glyph, opts Options) (*image.Alpha, error) {
	opts = opts.withDefaults()
	if opts.Size <= 0 || opts.Size > 4096 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, opts.Size)
	}
	height := opts.Ascender - opts.Descender
	if height <= 0 {
		height = opts.UnitsPerEm
	}
	size := float64(opts.Size)
	scale := size / height

	// Font space to pixels: Y flipped around the ascender, advance centred.
	m := fontogether.Translate((size-g.AdvanceWidth*scale)/2, opts.Ascender*scale).
		Multiply(fontogether.Scale(scale, -scale))

	r := vector.NewRasterizer(opts.Size, opts.Size)
	r.DrawOp = draw.Src
	drawGlyph(r, g, m, opts.Resolve, 0)

	dst := image.NewAlpha(image.Rect(0, 0, opts.Size, opts.Size))
	r.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})
	return dst, nil
}

func drawGlyph(r *vector.Rasterizer, g *outline.Glyph, m fontogether.Matrix, resolve func(string) *outline.Glyph, depth int) {
	if g.Outline == nil {
		return
	}
	// Decode flips into Y-down scene space; undo that before applying m.
	s, err := codec.Decode(g.Outline)
	if err != nil {
		fontogether.Logger().Debug("preview: drawing partial outline", "glyph", g.Name, "err", err)
	}
	sm := m.Multiply(fontogether.Scale(1, -1))
	for _, p := range s.Paths {
		n := p.PieceCount()
		if n == 0 {
			continue
		}
		start := sm.TransformPoint(p.Segments[0].Anchor)
		r.MoveTo(float32(start.X), float32(start.Y))
		for i := range n {
			c := p.Piece(i)
			p1, p2, p3 := sm.TransformPoint(c.P1), sm.TransformPoint(c.P2), sm.TransformPoint(c.P3)
			if c.IsLine() {
				r.LineTo(float32(p3.X), float32(p3.Y))
				continue
			}
			r.CubeTo(float32(p1.X), float32(p1.Y), float32(p2.X), float32(p2.Y), float32(p3.X), float32(p3.Y))
		}
		r.ClosePath()
	}

	if resolve == nil || depth >= maxComponentDepth {
		return
	}
	for _, c := range g.Outline.Components {
		base := resolve(c.Base)
		if base == nil {
			continue
		}
		drawGlyph(r, base, m.Multiply(c.Transformation.Matrix()), resolve, depth+1)
	}
}

// EncodePNG writes img as a PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// Fingerprint hashes everything that affects a glyph's thumbnail.
func Fingerprint(g *outline.Glyph) uint64 {
	h := fnv.New64a()
	if g.Outline != nil {
		_, _ = io.WriteString(h, g.Outline.String())
	}
	var buf [8]byte
	bits := math.Float64bits(g.AdvanceWidth)
	for i := range buf {
		buf[i] = byte(bits >> (8 * i))
	}
	_, _ = h.Write(buf[:]) // hash.Hash.Write never returns an error
	return h.Sum64()
}
