package outline

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	const data = `{"contours":[{"points":[{"x":0,"y":0,"type":"line"},{"x":50,"y":100},{"x":100,"y":0,"type":"curve","smooth":true}]}],"components":[{"base":"A","transformation":{"xScale":1,"yScale":1,"xOffset":10,"yOffset":0,"rotation":0}}]}`
	o, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := &Outline{
		Contours: []Contour{{Points: []Point{
			{X: 0, Y: 0, Type: Line},
			{X: 50, Y: 100},
			{X: 100, Y: 0, Type: Curve, Smooth: true},
		}}},
		Components: []Component{{Base: "A", Transformation: Transformation{XScale: 1, YScale: 1, XOffset: 10}}},
	}
	if diff := cmp.Diff(want, o); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}
	if got := o.String(); got != data {
		t.Errorf("String() = %s\nwant %s", got, data)
	}
}

func TestParseTransformationDefaults(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Transformation
	}{
		{"missing scales", `{"base":"A","transformation":{"xOffset":10}}`, Transformation{XScale: 1, YScale: 1, XOffset: 10}},
		{"missing transformation", `{"base":"A"}`, IdentityTransformation},
		{"explicit zero kept", `{"base":"A","transformation":{"xScale":0,"yScale":2}}`, Transformation{XScale: 0, YScale: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := Parse(`{"contours":[],"components":[` + tt.data + `]}`)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if diff := cmp.Diff(tt.want, o.Components[0].Transformation); diff != "" {
				t.Errorf("transformation (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseEmptyAndInvalid(t *testing.T) {
	o, err := Parse("")
	if err != nil || len(o.Contours) != 0 {
		t.Fatalf("Parse(\"\") = %v, %v", o, err)
	}
	if got := o.String(); got != `{"contours":[],"components":[]}` {
		t.Errorf("empty String() = %s", got)
	}
	if _, err := Parse("{"); !errors.Is(err, ErrInvalidJSON) {
		t.Errorf("Parse(\"{\") error = %v, want ErrInvalidJSON", err)
	}
}

func TestValidate(t *testing.T) {
	o := &Outline{Contours: []Contour{
		{Points: []Point{{X: 0, Y: 0, Type: Line}}},
		{Points: []Point{{X: 1, Y: 1}, {X: 2, Y: 2}}},
		{Points: []Point{{X: 1, Y: 1, Type: "spline"}}},
	}}
	err := o.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want errors")
	}
	msg := err.Error()
	for _, want := range []string{"contour 1: no on-curve point", `contour 2: unknown point type "spline"`} {
		if !strings.Contains(msg, want) {
			t.Errorf("Validate() = %q, missing %q", msg, want)
		}
	}
	var ce *ContourError
	if !errors.As(err, &ce) || ce.Index != 1 {
		t.Errorf("errors.As first ContourError = %+v", ce)
	}
}

func TestEqualAndClone(t *testing.T) {
	a := &Outline{Contours: []Contour{{Points: []Point{{X: 1, Y: 2, Type: Line}}}}}
	b := a.Clone()
	if !a.Equal(b) {
		t.Fatal("clone should be equal")
	}
	b.Contours[0].Points[0].X = 3
	if a.Equal(b) {
		t.Error("modified clone should differ")
	}
	if a.Contours[0].Points[0].X != 1 {
		t.Error("Clone shares point storage")
	}
	if !(&Outline{}).Equal(&Outline{Contours: []Contour{}}) {
		t.Error("nil and empty contour lists should be equal")
	}
}

func TestContourClosed(t *testing.T) {
	open := false
	if !(Contour{}).IsClosed() {
		t.Error("contour without closed flag should be closed")
	}
	if (Contour{Closed: &open}).IsClosed() {
		t.Error("closed=false should be open")
	}
}

func TestNewGlyph(t *testing.T) {
	g := NewGlyph("A", 'A')
	if g.AdvanceWidth != DefaultAdvanceWidth || g.AdvanceHeight != DefaultAdvanceHeight {
		t.Errorf("metrics = %v/%v", g.AdvanceWidth, g.AdvanceHeight)
	}
	if g.Outline == nil || len(g.Outline.Contours) != 0 {
		t.Errorf("outline = %v, want empty", g.Outline)
	}
	c := g.Clone()
	c.Unicodes[0] = 'B'
	if g.PrimaryUnicode() != 'A' {
		t.Error("Clone shares unicodes")
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"A", false},
		{"a.sc", false},
		{"uni00C5", false},
		{"", true},
		{"a b", true},
		{"tab\t", true},
		{"A\u030A", true}, // decomposed Å is not NFC
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.name)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidName) {
				t.Errorf("error %v does not wrap ErrInvalidName", err)
			}
		})
	}
	if got := NormalizeName(" A\u030A "); got != "\u00C5" {
		t.Errorf("NormalizeName = %q, want Å", got)
	}
}

func TestParseUnicode(t *testing.T) {
	tests := []struct {
		in   string
		want rune
	}{
		{"U+0041", 'A'},
		{"0x41", 'A'},
		{"00C5", 0xC5},
		{"Ω", 'Ω'},
		{"A", 0xA},
	}
	for _, tt := range tests {
		got, err := ParseUnicode(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseUnicode(%q) = %U, %v; want %U", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseUnicode("U+ZZZZ"); err == nil {
		t.Error("ParseUnicode(U+ZZZZ) should fail")
	}
	if FormatUnicode('A') != "U+0041" || DefaultName('A') != "uni0041" || DefaultName(0x1F600) != "u1F600" {
		t.Error("formatting helpers mismatch")
	}
}
