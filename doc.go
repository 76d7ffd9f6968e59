// Package fontogether is the geometry kernel of a collaborative glyph outline
// editor.
//
// # Overview
//
// Several users edit the vector outlines of one font project at the same time.
// Each glyph is persisted as a flattened list of on-curve and off-curve points
// (package outline). While a glyph is open it is decoded into a live scene of
// segments whose handles are vectors relative to their anchors (packages codec
// and scene); editing tools mutate that scene (package edit); every committed
// change is encoded back and broadcast to the other clients of the project
// (packages session and collab), which replace their scene wholesale. The last
// write to reach the server wins. Packages store, preview, fontimport and
// catalog serve the server and tooling side: persistence, glyph thumbnails,
// seeding a project from a font file and ordering the glyph grid.
//
// This package holds the shared vocabulary: [Point] for positions, [Vec2] for
// displacements, [Rect], Bézier curves ([QuadBez], [CubicBez]) and affine
// [Matrix] transforms used by the view.
//
// # Coordinate spaces
//
// Font space is Y-up and measured in font units. Scene space is Y-down so that
// it matches screen coordinates; the codec negates Y in both directions.
//
// # Logging
//
// Nothing is logged by default. Install a logger with [SetLogger]; every
// sub-package shares it through [Logger].
package fontogether
