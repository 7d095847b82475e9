package session

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/tsawler/deckforge/deckerr"
	"github.com/tsawler/deckforge/pptx"
)

// Layouts returns the slide layouts. The list is cached until the next save
// or close.
func (s *Session) Layouts() ([]pptx.Layout, error) {
	if err := s.check("layouts"); err != nil {
		return nil, err
	}
	if s.layouts == nil {
		s.layouts = s.doc.Layouts()
	}
	return s.layouts, nil
}

// ResolveLayout finds a layout by name: an exact match first, then the first
// layout whose name contains name ignoring case.
func (s *Session) ResolveLayout(name string) (pptx.Layout, error) {
	const op = "resolve layout"

	layouts, err := s.Layouts()
	if err != nil {
		return pptx.Layout{}, err
	}
	for _, l := range layouts {
		if l.Name == name {
			return l, nil
		}
	}

	fold := cases.Fold()
	want := fold.String(name)
	if want != "" {
		for _, l := range layouts {
			if strings.Contains(fold.String(l.Name), want) {
				return l, nil
			}
		}
	}

	names := make([]string, len(layouts))
	for i, l := range layouts {
		names[i] = l.Name
	}
	return pptx.Layout{}, deckerr.Field(deckerr.NotFound, op, "name", name, strings.Join(names, ", "))
}
