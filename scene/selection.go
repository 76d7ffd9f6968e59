package scene

import "slices"

// Selection is an ordered set of segment references.
// The zero value is an empty selection ready to use.
type Selection struct {
	order []*Segment
	set   map[*Segment]struct{}
}

// Len returns the number of selected segments.
func (sel *Selection) Len() int {
	return len(sel.order)
}

// Contains reports whether seg is selected.
func (sel *Selection) Contains(seg *Segment) bool {
	_, ok := sel.set[seg]
	return ok
}

// Add selects seg; selecting an already selected segment is a no-op.
func (sel *Selection) Add(seg *Segment) {
	if sel.Contains(seg) {
		return
	}
	if sel.set == nil {
		sel.set = make(map[*Segment]struct{})
	}
	sel.set[seg] = struct{}{}
	sel.order = append(sel.order, seg)
}

// Remove deselects seg.
func (sel *Selection) Remove(seg *Segment) {
	if !sel.Contains(seg) {
		return
	}
	delete(sel.set, seg)
	sel.order = slices.DeleteFunc(sel.order, func(s *Segment) bool { return s == seg })
}

// Toggle flips the membership of seg.
func (sel *Selection) Toggle(seg *Segment) {
	if sel.Contains(seg) {
		sel.Remove(seg)
		return
	}
	sel.Add(seg)
}

// Set replaces the selection with segs.
func (sel *Selection) Set(segs ...*Segment) {
	sel.Clear()
	for _, seg := range segs {
		sel.Add(seg)
	}
}

// Clear empties the selection.
func (sel *Selection) Clear() {
	sel.order = nil
	sel.set = nil
}

// Segments returns the selected segments in selection order.
func (sel *Selection) Segments() []*Segment {
	return slices.Clone(sel.order)
}

// Prune drops segments that are no longer part of s.
func (sel *Selection) Prune(s *Scene) {
	for _, seg := range sel.Segments() {
		if !s.Contains(seg) {
			sel.Remove(seg)
		}
	}
}
