// Package outline is the persisted and wire representation of glyph shapes.
//
// An [Outline] is a list of contours, each a circular list of points that are
// either on the curve (type "line", "curve" or "qcurve") or off the curve
// (no type). Between two consecutive on-curve points zero off-curve points form
// a line, one a quadratic Bézier and two a cubic Bézier; the last point
// connects back to the first. Coordinates are font units, Y up.
//
// Components reference other glyphs by name and are carried opaquely.
package outline
