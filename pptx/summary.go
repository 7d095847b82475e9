package pptx

import (
	"strconv"

	"github.com/tsawler/deckforge/fingerprint"
)

// Summary returns the structural summary of the document under the given
// identity: one element per slide, keyed by its p:sldId, with its shapes as
// children keyed by cNvPr id.
func (d *Document) Summary(name string) fingerprint.Summary {
	s := fingerprint.Summary{Name: name, Elements: make([]fingerprint.Element, 0, len(d.slides))}
	for _, slide := range d.slides {
		s.Elements = append(s.Elements, fingerprint.Element{
			ID:       slide.ID,
			Kind:     "slide",
			Index:    slide.Index,
			Text:     slide.Layout,
			Children: shapeElements(slide.Shapes),
		})
	}
	return s
}

func shapeElements(shapes []Shape) []fingerprint.Element {
	if len(shapes) == 0 {
		return nil
	}
	out := make([]fingerprint.Element, 0, len(shapes))
	for i := range shapes {
		sh := &shapes[i]
		e := fingerprint.Element{
			ID:       strconv.Itoa(sh.ID),
			Kind:     string(sh.Kind),
			Index:    i,
			Text:     sh.Text(),
			Children: shapeElements(sh.Children),
		}
		if sh.Geometry != nil {
			e.Geometry = *sh.Geometry
		}
		out = append(out, e)
	}
	return out
}

// Fingerprint returns the content fingerprint of the document.
func (d *Document) Fingerprint(name string) string {
	return fingerprint.Compute(d.Summary(name))
}
