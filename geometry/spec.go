package geometry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/tsawler/deckforge/deckerr"
	"github.com/tsawler/deckforge/model"
)

// Mode is the addressing mode of a position or size spec.
type Mode int

const (
	// ModeNone marks an empty spec; resolving it fails.
	ModeNone Mode = iota
	// ModePercent addresses relative to the canvas dimensions.
	ModePercent
	// ModeAbsolute addresses in physical units.
	ModeAbsolute
	// ModeAnchor addresses relative to one of nine canvas anchors.
	ModeAnchor
	// ModeGrid addresses a spreadsheet-style cell of the layout grid.
	ModeGrid
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModePercent:
		return "percent"
	case ModeAbsolute:
		return "absolute"
	case ModeAnchor:
		return "anchor"
	case ModeGrid:
		return "grid"
	default:
		return "none"
	}
}

// PositionSpec describes where an element goes. Exactly one mode is in use;
// fields belonging to other modes are ignored.
type PositionSpec struct {
	Mode Mode

	// Percent and absolute modes
	Left, Top model.Length

	// Anchor mode. Positive offsets move right and down.
	Anchor           string
	OffsetX, OffsetY model.Length

	// Grid mode: a cell ("C4") or a range ("B2:D4")
	Cell string
}

// SizeSpec describes an element's extent. One of Width or Height may be auto.
type SizeSpec struct {
	Mode          Mode // ModePercent or ModeAbsolute
	Width, Height model.Length
}

// AtPercent creates a percent position.
func AtPercent(left, top float64) PositionSpec {
	return PositionSpec{Mode: ModePercent, Left: model.Percent(left), Top: model.Percent(top)}
}

// AtAbsolute creates an absolute position.
func AtAbsolute(left, top model.Length) PositionSpec {
	return PositionSpec{Mode: ModeAbsolute, Left: left, Top: top}
}

// AtAnchor creates an anchor position with an offset.
func AtAnchor(name string, dx, dy model.Length) PositionSpec {
	return PositionSpec{Mode: ModeAnchor, Anchor: name, OffsetX: dx, OffsetY: dy}
}

// AtCell creates a grid position.
func AtCell(ref string) PositionSpec {
	return PositionSpec{Mode: ModeGrid, Cell: ref}
}

// PercentSize creates a percent size.
func PercentSize(width, height float64) SizeSpec {
	return SizeSpec{Mode: ModePercent, Width: model.Percent(width), Height: model.Percent(height)}
}

// AbsoluteSize creates an absolute size. Either side may be model.Auto().
func AbsoluteSize(width, height model.Length) SizeSpec {
	return SizeSpec{Mode: ModeAbsolute, Width: width, Height: height}
}

var positionKeys = map[string]Mode{
	"left":     ModePercent,
	"top":      ModePercent,
	"anchor":   ModeAnchor,
	"offset_x": ModeAnchor,
	"offset_y": ModeAnchor,
	"grid":     ModeGrid,
	"cell":     ModeGrid,
}

func allowedKeys(m map[string]Mode) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

// ParsePosition builds a PositionSpec from a decoded JSON object such as
// {"left": "50%", "top": "50%"}, {"anchor": "center", "offset_y": "-1in"} or
// {"grid": "C4"}.
func ParsePosition(raw map[string]any) (PositionSpec, error) {
	const op = "parse position"
	if len(raw) == 0 {
		return PositionSpec{}, deckerr.Field(deckerr.InvalidPositionSpec, op, "position", "{}",
			"left/top, anchor or grid")
	}

	modes := map[Mode]bool{}
	for key := range raw {
		m, ok := positionKeys[key]
		if !ok {
			return PositionSpec{}, deckerr.Field(deckerr.InvalidPositionSpec, op, key, raw[key],
				allowedKeys(positionKeys))
		}
		modes[m] = true
	}
	if len(modes) > 1 {
		return PositionSpec{}, deckerr.Field(deckerr.InvalidPositionSpec, op, "position", describe(raw),
			"exactly one of left/top, anchor or grid")
	}

	switch {
	case modes[ModeGrid]:
		if _, ok := raw["grid"]; ok {
			if _, dup := raw["cell"]; dup {
				return PositionSpec{}, deckerr.Field(deckerr.InvalidPositionSpec, op, "grid", describe(raw),
					"one of grid or cell")
			}
		}
		v, ok := raw["grid"]
		if !ok {
			v = raw["cell"]
		}
		ref, ok := v.(string)
		if !ok || strings.TrimSpace(ref) == "" {
			return PositionSpec{}, deckerr.Field(deckerr.InvalidPositionSpec, op, "grid", v, "cell reference string")
		}
		return AtCell(strings.TrimSpace(ref)), nil

	case modes[ModeAnchor]:
		name, ok := raw["anchor"].(string)
		if !ok {
			return PositionSpec{}, deckerr.Field(deckerr.InvalidPositionSpec, op, "anchor", raw["anchor"],
				strings.Join(AnchorNames(), ", "))
		}
		spec := AtAnchor(name, model.EMU(0), model.EMU(0))
		for _, f := range []struct {
			key string
			dst *model.Length
		}{{"offset_x", &spec.OffsetX}, {"offset_y", &spec.OffsetY}} {
			v, present := raw[f.key]
			if !present {
				continue
			}
			l, err := model.LengthFromAny(v)
			if err != nil || l.IsAuto() {
				return PositionSpec{}, &deckerr.Error{Kind: deckerr.InvalidPositionSpec, Op: op, Field: f.key,
					Value: v, Allowed: "length or percentage", Err: err}
			}
			*f.dst = l
		}
		return spec, nil
	}

	left, err := positionLength(op, raw, "left")
	if err != nil {
		return PositionSpec{}, err
	}
	top, err := positionLength(op, raw, "top")
	if err != nil {
		return PositionSpec{}, err
	}
	switch {
	case left.IsPercent() && top.IsPercent():
		return PositionSpec{Mode: ModePercent, Left: left, Top: top}, nil
	case left.IsAbsolute() && top.IsAbsolute():
		return AtAbsolute(left, top), nil
	}
	return PositionSpec{}, deckerr.Field(deckerr.InvalidPositionSpec, op, "position", describe(raw),
		"left and top both percentages or both absolute lengths")
}

func positionLength(op string, raw map[string]any, key string) (model.Length, error) {
	v, ok := raw[key]
	if !ok {
		return model.Length{}, deckerr.Field(deckerr.InvalidPositionSpec, op, key, nil, "required with left/top addressing")
	}
	l, err := model.LengthFromAny(v)
	if err != nil || l.IsAuto() {
		return model.Length{}, &deckerr.Error{Kind: deckerr.InvalidPositionSpec, Op: op, Field: key, Value: v,
			Allowed: "percentage or length", Err: err}
	}
	return l, nil
}

// ParseSize builds a SizeSpec from a decoded JSON object such as
// {"width": "20%", "height": "10%"} or {"width": "4in", "height": "auto"}.
func ParseSize(raw map[string]any) (SizeSpec, error) {
	const op = "parse size"
	for key := range raw {
		if key != "width" && key != "height" {
			return SizeSpec{}, deckerr.Field(deckerr.InvalidSizeSpec, op, key, raw[key], "height, width")
		}
	}

	var dims [2]model.Length
	for i, key := range []string{"width", "height"} {
		v, ok := raw[key]
		if !ok {
			return SizeSpec{}, deckerr.Field(deckerr.InvalidSizeSpec, op, key, nil, "length, percentage or auto")
		}
		l, err := model.LengthFromAny(v)
		if err != nil {
			return SizeSpec{}, &deckerr.Error{Kind: deckerr.InvalidSizeSpec, Op: op, Field: key, Value: v,
				Allowed: "length, percentage or auto", Err: err}
		}
		dims[i] = l
	}

	spec := SizeSpec{Width: dims[0], Height: dims[1]}
	mode, err := sizeMode(op, spec)
	if err != nil {
		return SizeSpec{}, err
	}
	spec.Mode = mode
	return spec, nil
}

// sizeMode infers percent or absolute from the non-auto dimensions.
func sizeMode(op string, s SizeSpec) (Mode, error) {
	if s.Width.IsAuto() && s.Height.IsAuto() {
		return ModeNone, deckerr.Field(deckerr.InvalidSizeSpec, op, "width/height", "auto/auto",
			"at most one auto dimension")
	}
	percent, absolute := 0, 0
	for _, l := range []model.Length{s.Width, s.Height} {
		switch {
		case l.IsPercent():
			percent++
		case l.IsAbsolute():
			absolute++
		}
	}
	switch {
	case absolute == 0:
		return ModePercent, nil
	case percent == 0:
		return ModeAbsolute, nil
	}
	return ModeNone, deckerr.Field(deckerr.InvalidSizeSpec, op, "width/height",
		s.Width.String()+"/"+s.Height.String(), "both percentages or both absolute lengths")
}

// UnmarshalJSON decodes a position object with ParsePosition.
func (p *PositionSpec) UnmarshalJSON(b []byte) error {
	raw, err := decodeObject(b)
	if err != nil {
		return deckerr.Wrap(deckerr.InvalidPositionSpec, "parse position", "", err)
	}
	spec, err := ParsePosition(raw)
	if err != nil {
		return err
	}
	*p = spec
	return nil
}

// UnmarshalJSON decodes a size object with ParseSize.
func (s *SizeSpec) UnmarshalJSON(b []byte) error {
	raw, err := decodeObject(b)
	if err != nil {
		return deckerr.Wrap(deckerr.InvalidSizeSpec, "parse size", "", err)
	}
	spec, err := ParseSize(raw)
	if err != nil {
		return err
	}
	*s = spec
	return nil
}

func decodeObject(b []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// describe renders a raw spec with sorted keys for error messages.
func describe(raw map[string]any) string {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", k, raw[k]))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// Validate checks the spec against the conventional percentage bounds. Values
// outside [0,100] fail with OutOfRange unless allowOutOfBounds is set.
func (p PositionSpec) Validate(allowOutOfBounds bool) error {
	if allowOutOfBounds || p.Mode != ModePercent {
		return nil
	}
	for _, f := range []struct {
		name string
		l    model.Length
	}{{"left", p.Left}, {"top", p.Top}} {
		if !(f.l.Value >= 0 && f.l.Value <= 100) {
			return deckerr.Field(deckerr.OutOfRange, "validate position", f.name, f.l.String(), "0%..100%")
		}
	}
	return nil
}

// Validate checks percentage sizes against [0,100] unless allowOutOfBounds.
func (s SizeSpec) Validate(allowOutOfBounds bool) error {
	if allowOutOfBounds || s.Mode != ModePercent {
		return nil
	}
	for _, f := range []struct {
		name string
		l    model.Length
	}{{"width", s.Width}, {"height", s.Height}} {
		if f.l.IsPercent() && !(f.l.Value >= 0 && f.l.Value <= 100) {
			return deckerr.Field(deckerr.OutOfRange, "validate size", f.name, f.l.String(), "0%..100%")
		}
	}
	return nil
}
