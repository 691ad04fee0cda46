// Package claw decodes Clawpack/GeoClaw AMR output directories into [amr.Frame]
// values.
//
// # Output Layout
//
// For every output frame N the solver writes:
//
//   - fort.tNNNN: frame time, number of equations, number of patches, ghost
//     width and the value format
//   - fort.qNNNN: one 8-line header per patch (grid number, level, mx, my,
//     xlow, ylow, dx, dy), followed by the cell values when the format is ascii
//   - fort.bNNNN: the cell values (with ghost cells) when the format is binary
//
// Run-wide defaults live in claw.data, amr.data and geoclaw.data; see [RunData].
//
// # Decoders
//
// Decoding is behind the [Decoder] interface so that other solver layouts can
// be supported by swapping the implementation:
//
//	r := claw.NewReader(dir, claw.AutoDecoder{})
//	frame, err := r.ReadFrame(12)
//
// [AutoDecoder] picks [ASCIIDecoder] or [BinaryDecoder] from the format line of
// fort.tNNNN. Every decoded patch is validated; size mismatches are reported as
// CORRUPT_FRAME and absent files as MISSING_FRAME, both carrying the frame index.
package claw
