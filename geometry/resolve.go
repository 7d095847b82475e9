package geometry

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tsawler/deckforge/deckerr"
	"github.com/tsawler/deckforge/model"
)

// Options controls Resolve.
type Options struct {
	// Grid used for grid addressing; zero fields take the defaults.
	Grid Grid
	// Intrinsic is the natural geometry of the element being placed (for
	// example an image). It supplies the aspect ratio for auto sizing and the
	// size when no SizeSpec is given.
	Intrinsic *model.Geometry
}

// Resolve turns a position and an optional size into an absolute geometry on
// the canvas. Out-of-bounds percentages are resolved as given; bounds checks
// belong to Validate.
//
// When size is nil the element size comes from the grid span (grid mode) or
// from opts.Intrinsic; otherwise it is an InvalidSizeSpec error.
func Resolve(pos PositionSpec, size *SizeSpec, canvas model.Canvas, opts Options) (model.Geometry, error) {
	if err := checkCanvas(canvas); err != nil {
		return model.Geometry{}, err
	}

	var span *model.Geometry
	if pos.Mode == ModeGrid {
		g, err := opts.Grid.Span(pos.Cell, canvas)
		if err != nil {
			return model.Geometry{}, err
		}
		span = &g
	}

	var extent model.Size
	switch {
	case size != nil:
		s, err := ResolveSize(*size, canvas, opts.Intrinsic)
		if err != nil {
			return model.Geometry{}, err
		}
		extent = s
	case span != nil:
		extent = span.Size()
	case opts.Intrinsic != nil:
		extent = opts.Intrinsic.Size()
	default:
		return model.Geometry{}, deckerr.Field(deckerr.InvalidSizeSpec, "resolve", "size", nil,
			"width/height, a grid cell or an intrinsic size")
	}

	if err := checkSize("resolve", extent); err != nil {
		return model.Geometry{}, err
	}
	if span != nil {
		return model.NewGeometry(span.Position(), extent), nil
	}

	at, err := ResolvePosition(pos, canvas, extent, opts.Grid)
	if err != nil {
		return model.Geometry{}, err
	}
	return model.NewGeometry(at, extent), nil
}

// ResolvePosition computes the top-left corner for pos. size is the element's
// own extent; it only matters for the "center" anchor, which centers the
// element on the canvas. Every other anchor yields its reference point plus
// the offset.
func ResolvePosition(pos PositionSpec, canvas model.Canvas, size model.Size, grid Grid) (model.Point, error) {
	const op = "resolve position"
	if err := checkCanvas(canvas); err != nil {
		return model.Point{}, err
	}
	p, err := resolvePosition(op, pos, canvas, size, grid)
	if err != nil {
		return model.Point{}, err
	}
	for _, c := range []struct {
		field string
		v     float64
	}{{"left", p.X}, {"top", p.Y}} {
		if !model.InRange(c.v) {
			return model.Point{}, deckerr.Field(deckerr.InvalidPositionSpec, op, c.field,
				formatCoordinate(c.v), coordinateRange)
		}
	}
	return p, nil
}

func resolvePosition(op string, pos PositionSpec, canvas model.Canvas, size model.Size, grid Grid) (model.Point, error) {
	switch pos.Mode {
	case ModePercent:
		if !pos.Left.IsPercent() || !pos.Top.IsPercent() {
			return model.Point{}, deckerr.Field(deckerr.InvalidPositionSpec, op, "left/top",
				pos.Left.String()+"/"+pos.Top.String(), "percentages in percent mode")
		}
		x, _ := pos.Left.Resolve(canvas.Width)
		y, _ := pos.Top.Resolve(canvas.Height)
		return model.Point{X: x, Y: y}, nil

	case ModeAbsolute:
		x, okX := pos.Left.ToEMU()
		y, okY := pos.Top.ToEMU()
		if !okX || !okY {
			return model.Point{}, deckerr.Field(deckerr.InvalidPositionSpec, op, "left/top",
				pos.Left.String()+"/"+pos.Top.String(), "absolute lengths in absolute mode")
		}
		return model.Point{X: x, Y: y}, nil

	case ModeAnchor:
		a, ok := LookupAnchor(pos.Anchor)
		if !ok {
			return model.Point{}, deckerr.Field(deckerr.InvalidPositionSpec, op, "anchor", pos.Anchor,
				strings.Join(AnchorNames(), ", "))
		}
		dx, okX := offset(pos.OffsetX, canvas.Width)
		dy, okY := offset(pos.OffsetY, canvas.Height)
		if !okX || !okY {
			return model.Point{}, deckerr.Field(deckerr.InvalidPositionSpec, op, "offset",
				pos.OffsetX.String()+"/"+pos.OffsetY.String(), "lengths or percentages")
		}
		p := model.Point{X: a.FX*canvas.Width + dx, Y: a.FY*canvas.Height + dy}
		if a.Name == "center" {
			p.X -= size.Width / 2
			p.Y -= size.Height / 2
		}
		return p, nil

	case ModeGrid:
		g, err := grid.Span(pos.Cell, canvas)
		if err != nil {
			return model.Point{}, err
		}
		return g.Position(), nil
	}

	return model.Point{}, deckerr.Field(deckerr.InvalidPositionSpec, op, "mode", pos.Mode.String(),
		"percent, absolute, anchor, grid")
}

// offset resolves an anchor offset; the zero Length means no offset.
func offset(l model.Length, reference float64) (float64, bool) {
	if l.IsAuto() {
		return 0, false
	}
	return l.Resolve(reference)
}

// ResolveSize computes the extent for spec. paired supplies the aspect ratio
// when one dimension is auto.
func ResolveSize(spec SizeSpec, canvas model.Canvas, paired *model.Geometry) (model.Size, error) {
	const op = "resolve size"
	if err := checkCanvas(canvas); err != nil {
		return model.Size{}, err
	}

	mode, err := sizeMode(op, spec)
	if err != nil {
		return model.Size{}, err
	}
	if spec.Mode != ModeNone && spec.Mode != mode {
		return model.Size{}, deckerr.Field(deckerr.InvalidSizeSpec, op, "mode", spec.Mode.String(),
			"mode matching the width/height units")
	}

	w, wAuto, err := dimension(op, "width", spec.Width, canvas.Width)
	if err != nil {
		return model.Size{}, err
	}
	h, hAuto, err := dimension(op, "height", spec.Height, canvas.Height)
	if err != nil {
		return model.Size{}, err
	}

	if wAuto || hAuto {
		ratio := 0.0
		if paired != nil {
			ratio = paired.Size().AspectRatio()
		}
		if ratio <= 0 || math.IsInf(ratio, 0) || math.IsNaN(ratio) {
			field := "width"
			if hAuto {
				field = "height"
			}
			return model.Size{}, &deckerr.Error{
				Kind:    deckerr.InvalidSizeSpec,
				Op:      op,
				Field:   field,
				Value:   "auto",
				Allowed: "auto requires the paired element's aspect ratio",
				Err:     fmt.Errorf("no aspect ratio available"),
			}
		}
		if wAuto {
			w = h * ratio
		} else {
			h = w / ratio
		}
	}

	out := model.Size{Width: w, Height: h}
	if err := checkSize(op, out); err != nil {
		return model.Size{}, err
	}
	return out, nil
}

const coordinateRange = "finite value within ±27273042316900 EMU"

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// checkSize rejects extents that cannot be stored as an OOXML extent.
func checkSize(op string, s model.Size) error {
	for _, c := range []struct {
		field string
		v     float64
	}{{"width", s.Width}, {"height", s.Height}} {
		if !model.InRange(c.v) || c.v < 0 {
			return deckerr.Field(deckerr.InvalidSizeSpec, op, c.field, formatCoordinate(c.v), coordinateRange)
		}
	}
	return nil
}

func dimension(op, field string, l model.Length, reference float64) (float64, bool, error) {
	if l.IsAuto() {
		return 0, true, nil
	}
	v, _ := l.Resolve(reference)
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, deckerr.Field(deckerr.InvalidSizeSpec, op, field, l.String(), "positive length")
	}
	return v, false, nil
}

func checkCanvas(c model.Canvas) error {
	if !c.IsValid() {
		return deckerr.Field(deckerr.OutOfRange, "resolve", "canvas",
			fmt.Sprintf("%gx%g", c.Width, c.Height), "positive width and height")
	}
	return nil
}
