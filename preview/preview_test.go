package preview

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/fontogether/fontogether/outline"
)

const box = `{"contours":[{"points":[
	{"x":100,"y":0,"type":"line"},{"x":400,"y":0,"type":"line"},
	{"x":400,"y":600,"type":"line"},{"x":100,"y":600,"type":"line"}]}],"components":[]}`

func glyph(t *testing.T, name, data string) *outline.Glyph {
	t.Helper()
	o, err := outline.Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	g := outline.NewGlyph(name)
	g.Outline = o
	return g
}

var testOptions = Options{Size: 100, UnitsPerEm: 1000, Ascender: 800, Descender: -200}

func TestRenderFillsOutline(t *testing.T) {
	img, err := Render(glyph(t, "box", box), testOptions)
	if err != nil {
		t.Fatal(err)
	}
	if got := img.Bounds(); got != image.Rect(0, 0, 100, 100) {
		t.Fatalf("bounds = %v", got)
	}
	// Scale 0.1 with the 500 unit advance centred: the box spans x 35..65
	// and y 20..80 in pixels.
	tests := []struct {
		x, y int
		want uint8
	}{
		{50, 50, 0xff},
		{36, 21, 0xff},
		{30, 50, 0},
		{50, 10, 0},
		{50, 90, 0},
		{70, 50, 0},
	}
	for _, tt := range tests {
		if got := img.AlphaAt(tt.x, tt.y).A; got != tt.want {
			t.Errorf("alpha at (%d,%d) = %#x, want %#x", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestRenderComponents(t *testing.T) {
	base := glyph(t, "box", box)
	composite := glyph(t, "shifted", `{"contours":[],"components":[
		{"base":"box","transformation":{"xScale":1,"yScale":1,"xOffset":0,"yOffset":100,"rotation":0}},
		{"base":"missing","transformation":{"xScale":1,"yScale":1,"xOffset":0,"yOffset":0,"rotation":0}}]}`)

	opts := testOptions
	img, err := Render(composite, opts)
	if err != nil {
		t.Fatal(err)
	}
	if img.AlphaAt(50, 50).A != 0 {
		t.Error("components drawn without a resolver")
	}

	opts.Resolve = func(name string) *outline.Glyph {
		if name == "box" {
			return base
		}
		return nil
	}
	img, err = Render(composite, opts)
	if err != nil {
		t.Fatal(err)
	}
	// Offset by 100 units: the box now spans y 10..70.
	if img.AlphaAt(50, 15).A != 0xff || img.AlphaAt(50, 75).A != 0 {
		t.Error("component not drawn at its offset")
	}
}

func TestRenderSelfReferenceTerminates(t *testing.T) {
	g := glyph(t, "loop", `{"contours":[],"components":[
		{"base":"loop","transformation":{"xScale":1,"yScale":1,"xOffset":0,"yOffset":0,"rotation":0}}]}`)
	opts := testOptions
	opts.Resolve = func(string) *outline.Glyph { return g }
	if _, err := Render(g, opts); err != nil {
		t.Fatal(err)
	}
}

func TestRenderInvalidSize(t *testing.T) {
	_, err := Render(glyph(t, "box", box), Options{Size: -1})
	if !errors.Is(err, ErrInvalidSize) {
		t.Errorf("err = %v, want ErrInvalidSize", err)
	}
}

func TestRendererCaches(t *testing.T) {
	r := NewRenderer(testOptions, 8)
	g := glyph(t, "box", box)

	first, err := r.Thumbnail(g)
	if err != nil {
		t.Fatal(err)
	}
	second, _ := r.Thumbnail(g)
	if first != second {
		t.Error("unchanged glyph rendered twice")
	}

	g.AdvanceWidth = 800
	third, _ := r.Thumbnail(g)
	if third == first {
		t.Error("changed glyph served from cache")
	}
	if s := r.Stats(); s.Len != 1 || s.Hits != 1 {
		t.Errorf("stats = %+v, want one entry and one hit", s)
	}

	r.Invalidate(g.UUID)
	if r.Stats().Len != 0 {
		t.Error("Invalidate left entries")
	}
}

func TestEncodePNG(t *testing.T) {
	img, err := Render(glyph(t, "box", box), testOptions)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		t.Fatal(err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Errorf("decoded bounds = %v", decoded.Bounds())
	}
}
