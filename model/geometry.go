package model

import "math"

// Point represents a 2D point in base units.
type Point struct {
	X, Y float64
}

// Size is a width/height pair in base units.
type Size struct {
	Width, Height float64
}

// AspectRatio returns width/height, or 0 when either side is not positive.
func (s Size) AspectRatio() float64 {
	if s.Width <= 0 || s.Height <= 0 {
		return 0
	}
	return s.Width / s.Height
}

// Canvas is the immutable surface geometry is resolved against.
type Canvas struct {
	Width  float64
	Height float64
}

// NewCanvas creates a canvas of the given size.
func NewCanvas(width, height float64) Canvas {
	return Canvas{Width: width, Height: height}
}

// Size returns the canvas dimensions as a Size.
func (c Canvas) Size() Size {
	return Size{Width: c.Width, Height: c.Height}
}

// IsValid returns true if the canvas has positive, representable dimensions.
func (c Canvas) IsValid() bool {
	return c.Width > 0 && c.Height > 0 && InRange(c.Width) && InRange(c.Height)
}

// Geometry is a fully resolved placement. The origin is the top-left corner of
// the canvas and Y grows downward, matching slide coordinates.
type Geometry struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// NewGeometry creates a geometry from a position and a size.
func NewGeometry(at Point, size Size) Geometry {
	return Geometry{Left: at.X, Top: at.Y, Width: size.Width, Height: size.Height}
}

// Right returns the right edge X coordinate
func (g Geometry) Right() float64 {
	return g.Left + g.Width
}

// Bottom returns the bottom edge Y coordinate
func (g Geometry) Bottom() float64 {
	return g.Top + g.Height
}

// Position returns the top-left corner.
func (g Geometry) Position() Point {
	return Point{X: g.Left, Y: g.Top}
}

// Size returns the extent.
func (g Geometry) Size() Size {
	return Size{Width: g.Width, Height: g.Height}
}

// Overlaps reports whether the two geometries share a region of positive
// area. Shapes that only touch along an edge do not overlap.
func (g Geometry) Overlaps(other Geometry) bool {
	return g.Left < other.Right() && other.Left < g.Right() &&
		g.Top < other.Bottom() && other.Top < g.Bottom()
}

// Within reports whether the geometry lies entirely on the canvas.
func (g Geometry) Within(c Canvas) bool {
	return g.Left >= 0 && g.Top >= 0 &&
		g.Right() <= c.Width && g.Bottom() <= c.Height
}

// MaxCoordinate is the largest magnitude an OOXML offset or extent may hold
// (ST_Coordinate), in EMU.
const MaxCoordinate = 27273042316900

// InRange reports whether v is a finite value no larger in magnitude than
// MaxCoordinate.
func InRange(v float64) bool {
	return !math.IsNaN(v) && math.Abs(v) <= MaxCoordinate
}

// EMU rounds the geometry to whole English Metric Units.
func (g Geometry) EMU() EMUGeometry {
	return EMUGeometry{
		X:  int64(math.Round(g.Left)),
		Y:  int64(math.Round(g.Top)),
		Cx: int64(math.Round(g.Width)),
		Cy: int64(math.Round(g.Height)),
	}
}

// EMUGeometry is an integral placement as stored in OOXML (a:off, a:ext).
type EMUGeometry struct {
	X  int64 `json:"x"` // Offset in EMUs
	Y  int64 `json:"y"`
	Cx int64 `json:"cx"` // Extent in EMUs
	Cy int64 `json:"cy"`
}

// Geometry converts back to float geometry.
func (e EMUGeometry) Geometry() Geometry {
	return Geometry{Left: float64(e.X), Top: float64(e.Y), Width: float64(e.Cx), Height: float64(e.Cy)}
}
