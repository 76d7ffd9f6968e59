// Package scene holds the live, editable representation of a glyph.
//
// A [Scene] is a list of [Path] values, each an ordered list of [Segment]
// values. A segment has an absolute anchor and two handles stored as vectors
// relative to the anchor; a zero handle makes that side a corner. Consecutive
// segments are joined by cubic Bézier pieces, and closed paths also join the
// last segment back to the first.
//
// Scene space is Y-down. Scenes are never persisted; package codec converts
// them to and from outline point lists.
package scene
