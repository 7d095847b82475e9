package pptx

import (
	"fmt"

	"github.com/tsawler/deckforge/deckerr"
)

// Image returns the bytes of the image a picture shape embeds.
func (d *Document) Image(slideIndex, shapeID int) ([]byte, error) {
	const op = "picture image"

	sh, err := d.Shape(slideIndex, shapeID)
	if err != nil {
		return nil, err
	}
	if sh.Kind != KindPicture || sh.Image == "" {
		return nil, deckerr.Field(deckerr.NotFound, op, "id", shapeID,
			fmt.Sprintf("a picture on slide %d", slideIndex))
	}

	part := d.slides[slideIndex].Part
	rels, err := d.rels(part)
	if err != nil {
		return nil, deckerr.Wrap(deckerr.InvalidDocument, op, part, err)
	}
	rel, ok := rels[sh.Image]
	if !ok || rel.TargetMode == "External" {
		return nil, deckerr.New(deckerr.NotFound, op, "shape %d: no embedded image for %q", shapeID, sh.Image)
	}
	data, ok := d.parts[resolveTarget(part, rel.Target)]
	if !ok {
		return nil, deckerr.New(deckerr.InvalidDocument, op, "shape %d: missing part %s", shapeID, rel.Target)
	}
	return data, nil
}
