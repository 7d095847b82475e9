package session

import (
	"github.com/tsawler/deckforge/contrast"
	"github.com/tsawler/deckforge/geometry"
	"github.com/tsawler/deckforge/model"
)

// ResolvePosition resolves pos on the document canvas. size is the extent
// of the element being placed; the "center" anchor uses it to center the
// element.
func (s *Session) ResolvePosition(pos geometry.PositionSpec, size model.Size) (model.Point, error) {
	if err := s.check("resolve position"); err != nil {
		return model.Point{}, err
	}
	if err := pos.Validate(s.opts.AllowOutOfBounds); err != nil {
		return model.Point{}, err
	}
	return geometry.ResolvePosition(pos, s.doc.Canvas(), size, s.Grid())
}

// ResolveSize resolves spec on the document canvas. paired supplies the
// aspect ratio when one side is auto.
func (s *Session) ResolveSize(spec geometry.SizeSpec, paired *model.Geometry) (model.Size, error) {
	if err := s.check("resolve size"); err != nil {
		return model.Size{}, err
	}
	if err := spec.Validate(s.opts.AllowOutOfBounds); err != nil {
		return model.Size{}, err
	}
	return geometry.ResolveSize(spec, s.doc.Canvas(), paired)
}

// Resolve resolves a full placement. size may be nil when the position is a
// grid cell or when intrinsic supplies the extent.
func (s *Session) Resolve(pos geometry.PositionSpec, size *geometry.SizeSpec, intrinsic *model.Geometry) (model.Geometry, error) {
	if err := s.check("resolve"); err != nil {
		return model.Geometry{}, err
	}
	if err := pos.Validate(s.opts.AllowOutOfBounds); err != nil {
		return model.Geometry{}, err
	}
	if size != nil {
		if err := size.Validate(s.opts.AllowOutOfBounds); err != nil {
			return model.Geometry{}, err
		}
	}
	return geometry.Resolve(pos, size, s.doc.Canvas(), geometry.Options{Grid: s.Grid(), Intrinsic: intrinsic})
}

// CheckContrast checks a text/background color pair against WCAG.
func (s *Session) CheckContrast(fgHex, bgHex string, isLargeText bool) (contrast.Result, error) {
	return contrast.Check(fgHex, bgHex, isLargeText)
}
