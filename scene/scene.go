package scene

import (
	"slices"

	"github.com/fontogether/fontogether"
	"github.com/fontogether/fontogether/outline"
)

// Scene is the editable shape of one glyph.
type Scene struct {
	Paths []*Path
	// Components are not editable in the scene and are carried through
	// unchanged so that encoding the scene preserves them.
	Components []outline.Component
}

// New returns an empty scene.
func New() *Scene {
	return &Scene{}
}

// AddPath appends p to the scene.
func (s *Scene) AddPath(p *Path) {
	s.Paths = append(s.Paths, p)
}

// RemovePath removes p from the scene. It reports whether p was present.
func (s *Scene) RemovePath(p *Path) bool {
	i := slices.Index(s.Paths, p)
	if i < 0 {
		return false
	}
	s.Paths = slices.Delete(s.Paths, i, i+1)
	return true
}

// PathOf returns the path containing seg and its index there.
func (s *Scene) PathOf(seg *Segment) (*Path, int) {
	for _, p := range s.Paths {
		if i := p.IndexOf(seg); i >= 0 {
			return p, i
		}
	}
	return nil, -1
}

// Contains reports whether seg belongs to the scene.
func (s *Scene) Contains(seg *Segment) bool {
	p, _ := s.PathOf(seg)
	return p != nil
}

// SegmentCount returns the number of segments across all paths.
func (s *Scene) SegmentCount() int {
	n := 0
	for _, p := range s.Paths {
		n += p.Len()
	}
	return n
}

// Segments calls yield for every segment in path order.
func (s *Scene) Segments(yield func(*Path, *Segment) bool) {
	for _, p := range s.Paths {
		for _, seg := range p.Segments {
			if !yield(p, seg) {
				return
			}
		}
	}
}

// RemoveSegments deletes the given segments. A path left with no segments is
// removed from the scene. It returns the number of segments removed.
func (s *Scene) RemoveSegments(segs []*Segment) int {
	if len(segs) == 0 {
		return 0
	}
	drop := make(map[*Segment]bool, len(segs))
	for _, seg := range segs {
		drop[seg] = true
	}
	removed := 0
	s.Paths = slices.DeleteFunc(s.Paths, func(p *Path) bool {
		before := p.Len()
		p.Segments = slices.DeleteFunc(p.Segments, func(seg *Segment) bool { return drop[seg] })
		removed += before - p.Len()
		p.TrimEnds()
		return p.Len() == 0
	})
	return removed
}

// Translate moves the anchors of segs by d.
func (s *Scene) Translate(segs []*Segment, d fontogether.Vec2) {
	for _, seg := range segs {
		seg.Move(d)
	}
}

// Bounds returns the bounding box of all paths and whether the scene has any
// segment.
func (s *Scene) Bounds() (fontogether.Rect, bool) {
	var r fontogether.Rect
	found := false
	for _, p := range s.Paths {
		if p.Len() == 0 {
			continue
		}
		if !found {
			r, found = p.Bounds(), true
			continue
		}
		r = r.Union(p.Bounds())
	}
	return r, found
}

// Clone returns a deep copy of the scene.
func (s *Scene) Clone() *Scene {
	c, _ := s.CloneMapped()
	return c
}

// CloneMapped returns a deep copy of the scene and a map from each original
// segment to its copy, used to carry a selection over to the copy.
func (s *Scene) CloneMapped() (*Scene, map[*Segment]*Segment) {
	remap := make(map[*Segment]*Segment, s.SegmentCount())
	c := &Scene{
		Paths:      make([]*Path, len(s.Paths)),
		Components: slices.Clone(s.Components),
	}
	for i, p := range s.Paths {
		c.Paths[i] = p.clone(remap)
	}
	return c, remap
}

// Approx reports whether s and o have the same structure and their segments
// match within epsilon.
func (s *Scene) Approx(o *Scene, epsilon float64) bool {
	if len(s.Paths) != len(o.Paths) || !slices.Equal(s.Components, o.Components) {
		return false
	}
	for i, p := range s.Paths {
		q := o.Paths[i]
		if p.Closed != q.Closed || p.Len() != q.Len() {
			return false
		}
		for j, seg := range p.Segments {
			if !seg.Approx(q.Segments[j], epsilon) {
				return false
			}
		}
	}
	return true
}
