package model

import (
	"encoding/json"
	"math"
	"testing"
)

// ============================================================================
// Geometry Tests
// ============================================================================

func TestGeometryEdges(t *testing.T) {
	g := Geometry{Left: 10, Top: 20, Width: 100, Height: 50}
	if g.Right() != 110 {
		t.Errorf("Right() = %v, want 110", g.Right())
	}
	if g.Bottom() != 70 {
		t.Errorf("Bottom() = %v, want 70", g.Bottom())
	}
}

func TestGeometryWithin(t *testing.T) {
	canvas := NewCanvas(1280, 720)
	tests := []struct {
		name string
		g    Geometry
		want bool
	}{
		{"full canvas", Geometry{0, 0, 1280, 720}, true},
		{"inside", Geometry{10, 10, 100, 100}, true},
		{"negative left", Geometry{-1, 0, 10, 10}, false},
		{"past right", Geometry{1200, 0, 100, 10}, false},
		{"past bottom", Geometry{0, 700, 10, 30}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.g.Within(canvas); got != tt.want {
				t.Errorf("Within() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGeometryOverlaps(t *testing.T) {
	a := Geometry{0, 0, 10, 10}
	tests := []struct {
		name string
		b    Geometry
		want bool
	}{
		{"partial", Geometry{5, 5, 10, 10}, true},
		{"contained", Geometry{2, 2, 3, 3}, true},
		{"disjoint", Geometry{20, 20, 5, 5}, false},
		{"shared edge", Geometry{10, 0, 10, 10}, false},
		{"shared corner", Geometry{10, 10, 5, 5}, false},
		{"zero width", Geometry{5, 5, 0, 10}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Overlaps(tt.b); got != tt.want {
				t.Errorf("Overlaps(%+v) = %v, want %v", tt.b, got, tt.want)
			}
			if got := tt.b.Overlaps(a); got != tt.want {
				t.Errorf("Overlaps is not symmetric for %+v", tt.b)
			}
		})
	}
}

func TestInRange(t *testing.T) {
	tests := []struct {
		v    float64
		want bool
	}{
		{0, true},
		{-12192000, true},
		{MaxCoordinate, true},
		{-MaxCoordinate, true},
		{MaxCoordinate + 1, false},
		{1e300 * EMUPerInch, false},
		{math.NaN(), false},
		{math.Inf(1), false},
		{math.Inf(-1), false},
	}

	for _, tt := range tests {
		if got := InRange(tt.v); got != tt.want {
			t.Errorf("InRange(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestGeometryEMURoundTrip(t *testing.T) {
	g := Geometry{Left: 213.333, Top: 216.5, Width: 106.666, Height: 72.4}
	e := g.EMU()
	if e.X != 213 || e.Y != 217 || e.Cx != 107 || e.Cy != 72 {
		t.Errorf("EMU() = %+v", e)
	}
	back := e.Geometry()
	if back.Left != 213 || back.Height != 72 {
		t.Errorf("Geometry() = %+v", back)
	}
}

func TestSizeAspectRatio(t *testing.T) {
	if r := (Size{1600, 900}).AspectRatio(); math.Abs(r-16.0/9.0) > 1e-9 {
		t.Errorf("AspectRatio() = %v", r)
	}
	if r := (Size{0, 900}).AspectRatio(); r != 0 {
		t.Errorf("degenerate AspectRatio() = %v, want 0", r)
	}
}

// ============================================================================
// Length Tests
// ============================================================================

func TestParseLength(t *testing.T) {
	tests := []struct {
		in      string
		want    Length
		wantErr bool
	}{
		{"50%", Percent(50), false},
		{" 12.5 % ", Percent(12.5), false},
		{"1.5in", Length{1.5, UnitInch}, false},
		{"72pt", Length{72, UnitPoint}, false},
		{"2cm", Length{2, UnitCM}, false},
		{"10MM", Length{10, UnitMM}, false},
		{"96px", Length{96, UnitPixel}, false},
		{"914400", EMU(914400), false},
		{"914400emu", EMU(914400), false},
		{"-5%", Percent(-5), false},
		{"auto", Auto(), false},
		{"AUTO", Auto(), false},
		{"", Length{}, true},
		{"abc", Length{}, true},
		{"%", Length{}, true},
		{"10furlongs", Length{}, true},
		{"NaN%", Length{}, true},
		{"inf%", Length{}, true},
		{"-Infin", Length{}, true},
		{"nan", Length{}, true},
		{"1e400in", Length{}, true},
		{"1e300in", Length{1e300, UnitInch}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLength(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseLength(%q) expected error, got %+v", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLength(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseLength(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLengthToEMU(t *testing.T) {
	tests := []struct {
		in   Length
		want float64
		ok   bool
	}{
		{Inches(1), EMUPerInch, true},
		{Length{72, UnitPoint}, EMUPerInch, true},
		{Length{2.54, UnitCM}, EMUPerInch, true},
		{Length{25.4, UnitMM}, EMUPerInch, true},
		{Length{96, UnitPixel}, EMUPerInch, true},
		{EMU(42), 42, true},
		{Percent(50), 0, false},
		{Auto(), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			got, ok := tt.in.ToEMU()
			if ok != tt.ok {
				t.Fatalf("ToEMU() ok = %v, want %v", ok, tt.ok)
			}
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("ToEMU() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLengthResolvePercent(t *testing.T) {
	got, ok := Percent(25).Resolve(1280)
	if !ok || got != 320 {
		t.Errorf("Resolve() = %v, %v; want 320, true", got, ok)
	}
	if _, ok := Auto().Resolve(1280); ok {
		t.Error("auto should not resolve")
	}
}

func TestLengthFromAny(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    Length
		wantErr bool
	}{
		{"string", "20%", Percent(20), false},
		{"float", 12.0, EMU(12), false},
		{"int", 7, EMU(7), false},
		{"json number", json.Number("3.5"), EMU(3.5), false},
		{"nil", nil, Length{}, true},
		{"bool", true, Length{}, true},
		{"nan float", math.NaN(), Length{}, true},
		{"inf float", math.Inf(1), Length{}, true},
		{"nan length", Length{Value: math.NaN(), Unit: UnitPercent}, Length{}, true},
		{"huge json number", json.Number("1e999"), Length{}, true},
		{"nan string", "NaN", Length{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LengthFromAny(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LengthFromAny(%v) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("LengthFromAny(%v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLengthString(t *testing.T) {
	if s := Percent(50).String(); s != "50%" {
		t.Errorf("String() = %q", s)
	}
	if s := Inches(1.5).String(); s != "1.5in" {
		t.Errorf("String() = %q", s)
	}
	if s := Auto().String(); s != "auto" {
		t.Errorf("String() = %q", s)
	}
}
