// Package catalog orders and filters the glyph grid.
package catalog

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/go-text/typesetting/language"
	"golang.org/x/text/collate"
	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/unicode/runenames"

	"github.com/fontogether/fontogether/outline"
)

// SortOption selects a grid ordering.
type SortOption string

// Grid orderings.
const (
	// SortIndex keeps the project's glyph order.
	SortIndex SortOption = "index"
	// SortCodepoint orders by primary code point.
	SortCodepoint SortOption = "codepoint"
	// SortName orders by glyph name using the root collation.
	SortName SortOption = "name"
	// SortUserFriendly orders by the Unicode name of the primary code point.
	SortUserFriendly SortOption = "user-friendly"
	// SortScript groups by script, then orders by code point.
	SortScript SortOption = "script-order"
)

// SortOptions lists every ordering.
var SortOptions = []SortOption{SortIndex, SortCodepoint, SortName, SortUserFriendly, SortScript}

// ParseSortOption returns the ordering named s.
func ParseSortOption(s string) (SortOption, error) {
	for _, o := range SortOptions {
		if string(o) == s {
			return o, nil
		}
	}
	return "", fmt.Errorf("catalog: unknown sort option %q", s)
}

// Sort returns a sorted copy of glyphs. Glyphs without a code point come
// after mapped ones in every ordering except SortIndex and SortName. Ties
// keep the project order.
func Sort(glyphs []*outline.Glyph, opt SortOption) []*outline.Glyph {
	out := slices.Clone(glyphs)
	byIndex := func(a, b *outline.Glyph) int {
		return cmp.Or(cmp.Compare(a.SortOrder, b.SortOrder), strings.Compare(a.Name, b.Name))
	}
	var less func(a, b *outline.Glyph) int
	switch opt {
	case SortCodepoint:
		less = func(a, b *outline.Glyph) int {
			return compareCodepoint(a, b)
		}
	case SortName:
		c := collate.New(xlanguage.Und)
		less = func(a, b *outline.Glyph) int {
			return c.CompareString(a.Name, b.Name)
		}
	case SortUserFriendly:
		names := make(map[*outline.Glyph]string, len(out))
		for _, g := range out {
			names[g] = CharName(g)
		}
		less = func(a, b *outline.Glyph) int {
			an, bn := names[a], names[b]
			if (an == "") != (bn == "") {
				return boolOrder(an == "")
			}
			return strings.Compare(an, bn)
		}
	case SortScript:
		less = func(a, b *outline.Glyph) int {
			return cmp.Or(compareScript(ScriptOf(a), ScriptOf(b)), compareCodepoint(a, b))
		}
	default:
		less = byIndex
	}
	slices.SortStableFunc(out, func(a, b *outline.Glyph) int {
		return cmp.Or(less(a, b), byIndex(a, b))
	})
	return out
}

func compareCodepoint(a, b *outline.Glyph) int {
	ac, bc := a.PrimaryUnicode(), b.PrimaryUnicode()
	if (ac < 0) != (bc < 0) {
		return boolOrder(ac < 0)
	}
	return cmp.Compare(ac, bc)
}

// compareScript orders real scripts by name, then Common, Inherited and
// Unknown.
func compareScript(a, b language.Script) int {
	rank := func(s language.Script) int {
		switch s {
		case language.Common:
			return 1
		case language.Inherited:
			return 2
		case language.Unknown:
			return 3
		}
		return 0
	}
	return cmp.Or(cmp.Compare(rank(a), rank(b)), strings.Compare(a.String(), b.String()))
}

// boolOrder sorts false before true.
func boolOrder(last bool) int {
	if last {
		return 1
	}
	return -1
}

// ScriptOf returns the script of the glyph's primary code point, or
// language.Unknown for unmapped glyphs.
func ScriptOf(g *outline.Glyph) language.Script {
	u := g.PrimaryUnicode()
	if u < 0 {
		return language.Unknown
	}
	return language.LookupScript(rune(u))
}

// CharName returns the Unicode name of the glyph's primary code point, or
// "" for unmapped glyphs.
func CharName(g *outline.Glyph) string {
	u := g.PrimaryUnicode()
	if u < 0 {
		return ""
	}
	return runenames.Name(rune(u))
}

// Filter selects glyphs. Zero fields match everything.
type Filter struct {
	// Script is a script name such as "Latin", compared case-insensitively.
	Script string
	// Query matches a substring of the glyph name or character name, a
	// code point ("U+0041", "0x41") or the character itself.
	Query string
}

// Apply returns the glyphs matching f in their original order.
func (f Filter) Apply(glyphs []*outline.Glyph) []*outline.Glyph {
	var out []*outline.Glyph
	for _, g := range glyphs {
		if f.Match(g) {
			out = append(out, g)
		}
	}
	return out
}

// Match reports whether g passes f.
func (f Filter) Match(g *outline.Glyph) bool {
	if f.Script != "" && !strings.EqualFold(ScriptOf(g).String(), f.Script) {
		return false
	}
	q := strings.TrimSpace(f.Query)
	if q == "" {
		return true
	}
	if r, err := outline.ParseUnicode(q); err == nil && slices.Contains(g.Unicodes, int(r)) {
		return true
	}
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(g.Name), q) ||
		strings.Contains(strings.ToLower(CharName(g)), q)
}
