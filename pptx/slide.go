package pptx

import (
	"strings"

	"github.com/tsawler/deckforge/model"
)

// ShapeKind names the element a shape was read from.
type ShapeKind string

const (
	KindShape     ShapeKind = "sp"
	KindPicture   ShapeKind = "pic"
	KindFrame     ShapeKind = "graphicFrame"
	KindGroup     ShapeKind = "grpSp"
	KindConnector ShapeKind = "cxnSp"
)

func shapeKindOf(local string) (ShapeKind, bool) {
	switch ShapeKind(local) {
	case KindShape, KindPicture, KindFrame, KindGroup, KindConnector:
		return ShapeKind(local), true
	}
	return "", false
}

// Slide represents a parsed slide.
type Slide struct {
	Index  int     // 0-indexed position in the presentation
	ID     string  // p:sldId/@id, stable across reorders
	Part   string  // zip part name, e.g. ppt/slides/slide3.xml
	Layout string  // name of the slide layout, if any
	Title  string  // text of the first title placeholder
	Shapes []Shape // top-level shapes in document order
	Notes  string  // speaker notes
}

// Shape is one element of a slide's shape tree.
type Shape struct {
	ID          int // cNvPr/@id, unique within the slide
	Name        string
	Kind        ShapeKind
	Placeholder string // placeholder type; "body" for untyped placeholders
	// Geometry is nil when the shape inherits its placement from the layout.
	Geometry   *model.EMUGeometry
	Paragraphs []Paragraph
	Image      string  // relationship ID of a picture's image
	Children   []Shape // members of a group
}

// Paragraph represents a paragraph within a shape's text.
type Paragraph struct {
	Text     string
	Level    int     // Bullet/indent level (0 = top level)
	FontSize float64 // Points of the first sized run, 0 if unset
	Bold     bool    // First run is bold
}

// IsTitle reports whether the shape is a title placeholder.
func (s *Shape) IsTitle() bool {
	return s.Placeholder == "title" || s.Placeholder == "ctrTitle"
}

// Text returns the shape's paragraphs joined by newlines.
func (s *Shape) Text() string {
	var b strings.Builder
	for i, p := range s.Paragraphs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

// Find returns the shape with the given ID, searching groups recursively.
func (s *Slide) Find(id int) (*Shape, bool) {
	return findShape(s.Shapes, id)
}

func findShape(shapes []Shape, id int) (*Shape, bool) {
	for i := range shapes {
		if shapes[i].ID == id {
			return &shapes[i], true
		}
		if found, ok := findShape(shapes[i].Children, id); ok {
			return found, true
		}
	}
	return nil, false
}

// Text returns all text from the slide, title first.
func (s *Slide) Text() string {
	var b strings.Builder
	if s.Title != "" {
		b.WriteString(s.Title)
		b.WriteString("\n\n")
	}
	var walk func(shapes []Shape)
	walk = func(shapes []Shape) {
		for i := range shapes {
			sh := &shapes[i]
			if sh.IsTitle() && sh.Text() == s.Title {
				continue // Already added
			}
			wrote := false
			for _, p := range sh.Paragraphs {
				if p.Text == "" {
					continue
				}
				b.WriteString(strings.Repeat("  ", p.Level))
				b.WriteString(p.Text)
				b.WriteByte('\n')
				wrote = true
			}
			if wrote {
				b.WriteByte('\n')
			}
			walk(sh.Children)
		}
	}
	walk(s.Shapes)
	return strings.TrimRight(b.String(), "\n")
}
