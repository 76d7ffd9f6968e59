package catalog

import (
	"testing"

	"github.com/go-text/typesetting/language"
	"github.com/google/go-cmp/cmp"

	"github.com/fontogether/fontogether/outline"
)

func glyphs() []*outline.Glyph {
	mk := func(order int, name string, unicodes ...int) *outline.Glyph {
		g := outline.NewGlyph(name, unicodes...)
		g.SortOrder = order
		return g
	}
	return []*outline.Glyph{
		mk(0, ".notdef"),
		mk(1, "b", 'b'),
		mk(2, "alpha", 0x03B1),
		mk(3, "A", 'A'),
		mk(4, "zero", '0'),
		mk(5, "a", 'a'),
		mk(6, "a.alt"),
	}
}

func names(gs []*outline.Glyph) []string {
	out := make([]string, len(gs))
	for i, g := range gs {
		out[i] = g.Name
	}
	return out
}

func TestSort(t *testing.T) {
	tests := []struct {
		opt  SortOption
		want []string
	}{
		{SortIndex, []string{".notdef", "b", "alpha", "A", "zero", "a", "a.alt"}},
		{SortCodepoint, []string{"zero", "A", "a", "b", "alpha", ".notdef", "a.alt"}},
		// GREEK SMALL LETTER ALPHA < LATIN CAPITAL LETTER A < LATIN SMALL ...
		{SortUserFriendly, []string{"zero", "alpha", "A", "a", "b", ".notdef", "a.alt"}},
		{SortScript, []string{"alpha", "A", "a", "b", "zero", ".notdef", "a.alt"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.opt), func(t *testing.T) {
			in := glyphs()
			got := names(Sort(in, tt.opt))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Sort mismatch (-want +got):\n%s", diff)
			}
			if in[0].Name != ".notdef" {
				t.Error("Sort modified its input")
			}
		})
	}
}

func TestSortNameCollates(t *testing.T) {
	got := names(Sort(glyphs(), SortName))
	// The root collation ignores case at the primary level and punctuation
	// sorts before letters.
	pos := make(map[string]int)
	for i, n := range got {
		pos[n] = i
	}
	if !(pos["a"] < pos["b"] && pos["A"] < pos["b"] && pos["alpha"] < pos["b"] && pos["b"] < pos["zero"]) {
		t.Errorf("SortName = %v", got)
	}
}

func TestParseSortOption(t *testing.T) {
	for _, o := range SortOptions {
		got, err := ParseSortOption(string(o))
		if err != nil || got != o {
			t.Errorf("ParseSortOption(%q) = %q, %v", o, got, err)
		}
	}
	if _, err := ParseSortOption("random"); err == nil {
		t.Error("unknown option accepted")
	}
}

func TestScriptOf(t *testing.T) {
	gs := glyphs()
	tests := []struct {
		glyph int
		want  language.Script
	}{
		{0, language.Unknown},
		{1, language.Latin},
		{2, language.Greek},
		{4, language.Common},
	}
	for _, tt := range tests {
		if got := ScriptOf(gs[tt.glyph]); got != tt.want {
			t.Errorf("ScriptOf(%s) = %v, want %v", gs[tt.glyph].Name, got, tt.want)
		}
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"none", Filter{}, []string{".notdef", "b", "alpha", "A", "zero", "a", "a.alt"}},
		{"script", Filter{Script: "greek"}, []string{"alpha"}},
		{"codepoint", Filter{Query: "U+0041"}, []string{"A"}},
		{"character", Filter{Query: "β"}, nil},
		{"glyph name", Filter{Query: "ALT"}, []string{"a.alt"}},
		{"character name", Filter{Query: "digit"}, []string{"zero"}},
		{"script and query", Filter{Script: "Latin", Query: "capital"}, []string{"A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Apply(glyphs())
			var gotNames []string
			if got != nil {
				gotNames = names(got)
			}
			if diff := cmp.Diff(tt.want, gotNames); diff != "" {
				t.Errorf("Apply mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
