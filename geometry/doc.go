// Package geometry resolves position and size specifications into absolute
// slide geometry.
//
// A position is written in one of four addressing modes:
//
//   - percent: {"left": "50%", "top": "50%"} of the canvas
//   - absolute: {"left": "1in", "top": "72pt"}; bare numbers are EMU
//   - anchor: {"anchor": "bottom_right", "offset_x": "-0.5in"}; one of nine
//     canvas reference points plus the offset, positive offsets move right
//     and down; "center" also centers the element on the canvas
//   - grid: {"grid": "C4"} or {"grid": "B2:D4"}; spreadsheet cells over a
//     Columns x Rows grid (12x12 unless configured)
//
// A size is {"width": ..., "height": ...} in percent or absolute units; one
// side may be "auto", in which case the aspect ratio of a paired element
// (usually an image's intrinsic size) supplies the other.
//
//	g, err := geometry.Resolve(
//	    geometry.AtPercent(50, 50),
//	    &geometry.SizeSpec{Mode: geometry.ModePercent, Width: model.Percent(20), Height: model.Percent(10)},
//	    model.NewCanvas(1280, 720),
//	    geometry.Options{},
//	)
//	// g == {640 360 256 72}
//
// Everything here is pure: no I/O and no shared state. Malformed input fails
// with a deckerr InvalidPositionSpec or InvalidSizeSpec error naming the field,
// the received value and what is allowed; nothing is clamped.
package geometry
