// Package amr defines the adaptive-mesh-refinement data model shared by the
// reader, the rasterizer and the renderers.
//
// A [Frame] is the complete solver state at one output time: a flat set of
// rectangular [Patch] values, each at one refinement level. Patches are
// read-only once decoded; nothing in this module mutates them.
//
// # Level Selection
//
// [Select] picks the patches of one frame that contribute to an output raster:
//
//	patches, err := amr.Select(frame, amr.Finest) // max level of this frame
//	patches, err := amr.Select(frame, 2)          // exactly level 2
//
// Patches at other levels are excluded, never merged, because the solver
// guarantees that each point is covered by exactly one active level. Asking
// for a level the frame does not have fails with LEVEL_NOT_FOUND.
package amr
