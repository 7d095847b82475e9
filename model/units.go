package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// English Metric Units per physical unit. The EMU is the base length unit of
// all geometry in this module.
const (
	EMUPerInch  = 914400
	EMUPerPoint = 12700
	EMUPerCM    = 360000
	EMUPerMM    = 36000
	EMUPerPixel = 9525 // 96 dpi
)

// Unit is the unit a Length was written in.
type Unit int

const (
	UnitEMU     Unit = iota // bare numbers
	UnitInch                // in
	UnitPoint               // pt
	UnitCM                  // cm
	UnitMM                  // mm
	UnitPixel               // px
	UnitPercent             // % of the relevant canvas dimension
	UnitAuto                // derived from an aspect ratio
)

// String returns the suffix used for the unit in length strings.
func (u Unit) String() string {
	switch u {
	case UnitInch:
		return "in"
	case UnitPoint:
		return "pt"
	case UnitCM:
		return "cm"
	case UnitMM:
		return "mm"
	case UnitPixel:
		return "px"
	case UnitPercent:
		return "%"
	case UnitAuto:
		return "auto"
	default:
		return ""
	}
}

// Length preserves a numeric value with the unit it was written in.
type Length struct {
	Value float64
	Unit  Unit
}

// Percent returns a percentage length.
func Percent(v float64) Length { return Length{Value: v, Unit: UnitPercent} }

// EMU returns a base-unit length.
func EMU(v float64) Length { return Length{Value: v, Unit: UnitEMU} }

// Inches returns a length in inches.
func Inches(v float64) Length { return Length{Value: v, Unit: UnitInch} }

// Auto returns the auto length.
func Auto() Length { return Length{Unit: UnitAuto} }

// IsPercent reports whether the length is relative to the canvas.
func (l Length) IsPercent() bool { return l.Unit == UnitPercent }

// IsAuto reports whether the length is derived from an aspect ratio.
func (l Length) IsAuto() bool { return l.Unit == UnitAuto }

// IsAbsolute reports whether the length converts to EMU on its own.
func (l Length) IsAbsolute() bool { return !l.IsPercent() && !l.IsAuto() }

// ToEMU converts an absolute length to EMU. Percent and auto lengths return
// false since they need a reference dimension.
func (l Length) ToEMU() (float64, bool) {
	switch l.Unit {
	case UnitEMU:
		return l.Value, true
	case UnitInch:
		return l.Value * EMUPerInch, true
	case UnitPoint:
		return l.Value * EMUPerPoint, true
	case UnitCM:
		return l.Value * EMUPerCM, true
	case UnitMM:
		return l.Value * EMUPerMM, true
	case UnitPixel:
		return l.Value * EMUPerPixel, true
	}
	return 0, false
}

// Resolve converts the length against a reference dimension (used for
// percentages). Auto lengths return false.
func (l Length) Resolve(reference float64) (float64, bool) {
	if l.IsPercent() {
		return l.Value / 100 * reference, true
	}
	return l.ToEMU()
}

// String formats the length back into its textual form.
func (l Length) String() string {
	if l.IsAuto() {
		return "auto"
	}
	return strconv.FormatFloat(l.Value, 'f', -1, 64) + l.Unit.String()
}

var unitSuffixes = []struct {
	suffix string
	unit   Unit
}{
	{"%", UnitPercent},
	{"emu", UnitEMU},
	{"in", UnitInch},
	{"pt", UnitPoint},
	{"cm", UnitCM},
	{"mm", UnitMM},
	{"px", UnitPixel},
}

// ParseLength parses strings such as "50%", "1.5in", "72pt", "2cm", "10mm",
// "96px", "914400" or "auto". Bare numbers are EMU.
func ParseLength(s string) (Length, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return Length{}, fmt.Errorf("empty length")
	}
	if v == "auto" {
		return Auto(), nil
	}

	unit := UnitEMU
	num := v
	for _, suf := range unitSuffixes {
		if strings.HasSuffix(v, suf.suffix) {
			unit = suf.unit
			num = strings.TrimSpace(strings.TrimSuffix(v, suf.suffix))
			break
		}
	}

	f, err := strconv.ParseFloat(num, 64)
	if err != nil || !finite(f) {
		return Length{}, fmt.Errorf("invalid length %q", s)
	}
	return Length{Value: f, Unit: unit}, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func emuLength(f float64) (Length, error) {
	if !finite(f) {
		return Length{}, fmt.Errorf("invalid length %g", f)
	}
	return EMU(f), nil
}

// LengthFromAny converts a decoded JSON/YAML value into a Length. Numbers are
// EMU; strings go through ParseLength.
func LengthFromAny(v any) (Length, error) {
	switch t := v.(type) {
	case Length:
		if !finite(t.Value) {
			return Length{}, fmt.Errorf("invalid length %g", t.Value)
		}
		return t, nil
	case string:
		return ParseLength(t)
	case float64:
		return emuLength(t)
	case float32:
		return emuLength(float64(t))
	case int:
		return EMU(float64(t)), nil
	case int64:
		return EMU(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil || !finite(f) {
			return Length{}, fmt.Errorf("invalid length %q", t.String())
		}
		return EMU(f), nil
	case nil:
		return Length{}, fmt.Errorf("missing length")
	default:
		return Length{}, fmt.Errorf("unsupported length type %T", v)
	}
}
