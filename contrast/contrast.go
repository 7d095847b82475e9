// Package contrast implements WCAG 2.1 color contrast checks for slide text.
//
// Colors are parsed from 6-digit hex strings with or without a leading '#':
//
//	fg, _ := contrast.FromHex("0070C0")
//	bg := contrast.White
//	ratio := contrast.Ratio(fg, bg)          // ~5.15
//	ok := contrast.MeetsWCAG(fg, bg, false)  // true, 4.5 is needed for normal text
//
// All functions are pure and safe for concurrent use.
package contrast

import (
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"github.com/tsawler/deckforge/deckerr"
)

// Contrast thresholds from WCAG 2.1 success criteria 1.4.3 and 1.4.6.
const (
	MinRatioAA      = 4.5
	MinRatioAALarge = 3.0
	MinRatioAAA     = 7.0
	// MinRatioAAALarge equals the AA threshold for normal text.
	MinRatioAAALarge = 4.5
)

// Large text thresholds in points.
const (
	LargeTextPoints     = 18.0
	LargeBoldTextPoints = 14.0
)

// RGB is an sRGB color with 8-bit channels.
type RGB struct {
	R, G, B uint8
}

// Common colors.
var (
	White = RGB{255, 255, 255}
	Black = RGB{0, 0, 0}
)

// FromHex parses "RRGGBB" or "#RRGGBB", case-insensitive.
func FromHex(s string) (RGB, error) {
	v := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(v) != 6 {
		return RGB{}, deckerr.Field(deckerr.InvalidColor, "parse color", "hex", s, "6 hex digits, optional leading #")
	}
	b, err := hex.DecodeString(v)
	if err != nil {
		return RGB{}, &deckerr.Error{
			Kind:    deckerr.InvalidColor,
			Op:      "parse color",
			Field:   "hex",
			Value:   s,
			Allowed: "6 hex digits, optional leading #",
			Err:     err,
		}
	}
	return RGB{R: b[0], G: b[1], B: b[2]}, nil
}

// Hex renders the color as "#RRGGBB".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// String returns the hex form.
func (c RGB) String() string {
	return c.Hex()
}

// linearize gamma-decodes one sRGB channel.
func linearize(channel uint8) float64 {
	c := float64(channel) / 255
	if c <= 0.03928 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

// RelativeLuminance returns the WCAG relative luminance in [0, 1].
func RelativeLuminance(c RGB) float64 {
	return 0.2126*linearize(c.R) + 0.7152*linearize(c.G) + 0.0722*linearize(c.B)
}

// Ratio returns the contrast ratio of two colors, in [1, 21]. The order of
// the arguments does not matter.
func Ratio(a, b RGB) float64 {
	la, lb := RelativeLuminance(a), RelativeLuminance(b)
	lighter, darker := math.Max(la, lb), math.Min(la, lb)
	return (lighter + 0.05) / (darker + 0.05)
}

// MeetsWCAG reports whether text on bg satisfies WCAG AA: 3.0 for large text,
// 4.5 otherwise.
func MeetsWCAG(text, bg RGB, isLargeText bool) bool {
	return MeetsLevel(text, bg, isLargeText, AA)
}

// Level is a WCAG conformance level.
type Level int

const (
	AA Level = iota
	AAA
)

// String returns the level name.
func (l Level) String() string {
	if l == AAA {
		return "AAA"
	}
	return "AA"
}

// Threshold returns the minimum ratio for the level.
func (l Level) Threshold(isLargeText bool) float64 {
	switch {
	case l == AAA && isLargeText:
		return MinRatioAAALarge
	case l == AAA:
		return MinRatioAAA
	case isLargeText:
		return MinRatioAALarge
	default:
		return MinRatioAA
	}
}

// MeetsLevel reports whether text on bg reaches the given level.
func MeetsLevel(text, bg RGB, isLargeText bool, level Level) bool {
	return Ratio(text, bg) >= level.Threshold(isLargeText)
}

// IsLargeText applies the WCAG definition: at least 18pt, or 14pt bold.
func IsLargeText(points float64, bold bool) bool {
	if bold {
		return points >= LargeBoldTextPoints
	}
	return points >= LargeTextPoints
}

// Result is the outcome of Check.
type Result struct {
	Foreground RGB     `json:"-"`
	Background RGB     `json:"-"`
	FG         string  `json:"foreground"`
	BG         string  `json:"background"`
	Ratio      float64 `json:"ratio"`
	LargeText  bool    `json:"large_text"`
	PassesAA   bool    `json:"passes_aa"`
	PassesAAA  bool    `json:"passes_aaa"`
}

// Check parses both colors and evaluates them at both levels.
func Check(fgHex, bgHex string, isLargeText bool) (Result, error) {
	fg, err := FromHex(fgHex)
	if err != nil {
		return Result{}, err
	}
	bg, err := FromHex(bgHex)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Foreground: fg,
		Background: bg,
		FG:         fg.Hex(),
		BG:         bg.Hex(),
		Ratio:      Ratio(fg, bg),
		LargeText:  isLargeText,
		PassesAA:   MeetsLevel(fg, bg, isLargeText, AA),
		PassesAAA:  MeetsLevel(fg, bg, isLargeText, AAA),
	}, nil
}
