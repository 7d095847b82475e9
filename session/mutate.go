package session

import (
	"github.com/tsawler/deckforge/geometry"
	"github.com/tsawler/deckforge/media"
	"github.com/tsawler/deckforge/model"
	"github.com/tsawler/deckforge/pptx"
)

// Change reports the content fingerprint around a mutation.
type Change struct {
	Before string `json:"before"`
	After  string `json:"after"`
}

// Changed reports whether the mutation altered the document.
func (c Change) Changed() bool { return c.Before != c.After }

// SetGeometry places a shape. When size is nil the shape keeps its current
// extent (or takes its grid cell's). An auto side takes its aspect ratio from
// a picture's image, or otherwise from the shape's current extent.
func (s *Session) SetGeometry(slideIndex, shapeID int, pos geometry.PositionSpec, size *geometry.SizeSpec) (Change, error) {
	const op = "set geometry"
	if err := s.check(op); err != nil {
		return Change{}, err
	}

	sh, err := s.doc.Shape(slideIndex, shapeID)
	if err != nil {
		return Change{}, err
	}
	paired := s.pairedGeometry(slideIndex, sh, size)

	g, err := s.Resolve(pos, size, paired)
	if err != nil {
		return Change{}, err
	}

	before, _ := s.CurrentFingerprint()
	if err := s.doc.SetShapeGeometry(slideIndex, shapeID, g.EMU()); err != nil {
		return Change{}, err
	}
	after, _ := s.CurrentFingerprint()

	s.logger.Debug("set geometry", "session", s.id, "slide", slideIndex, "shape", shapeID,
		"left", g.Left, "top", g.Top, "width", g.Width, "height", g.Height)
	return Change{Before: before, After: after}, nil
}

func (s *Session) pairedGeometry(slideIndex int, sh *pptx.Shape, size *geometry.SizeSpec) *model.Geometry {
	auto := size != nil && (size.Width.IsAuto() || size.Height.IsAuto())
	if auto && sh.Kind == pptx.KindPicture {
		if data, err := s.doc.Image(slideIndex, sh.ID); err == nil {
			if img, err := media.DecodeBytes(data); err == nil {
				return img.Intrinsic()
			}
		}
	}
	if sh.Geometry == nil {
		return nil
	}
	g := sh.Geometry.Geometry()
	return &g
}

// MoveSlide moves the slide at from to position to. Moving a slide onto
// itself succeeds without changing anything.
func (s *Session) MoveSlide(from, to int) (Change, error) {
	const op = "move slide"
	if err := s.check(op); err != nil {
		return Change{}, err
	}

	before, _ := s.CurrentFingerprint()
	if err := s.doc.MoveSlide(from, to); err != nil {
		return Change{}, err
	}
	after, _ := s.CurrentFingerprint()

	s.logger.Debug("moved slide", "session", s.id, "from", from, "to", to)
	return Change{Before: before, After: after}, nil
}
