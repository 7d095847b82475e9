// Package testdeck builds small PPTX packages for tests.
package testdeck

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/deckforge/model"
)

const (
	nsP   = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsPR  = "http://schemas.openxmlformats.org/package/2006/relationships"
	relNS = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/"
)

// Deck describes a presentation to build.
type Deck struct {
	Width, Height int64 // slide size in EMU; 0 uses 12192000x6858000
	Title         string
	Layouts       []string // layout names; nil uses DefaultLayouts
	Slides        []Slide
}

// Slide describes one slide.
type Slide struct {
	ID     int // p:sldId; 0 uses 256+index
	Layout int // index into Deck.Layouts, -1 for none
	Shapes []Shape
	Notes  string
}

// Shape describes one element of a slide's shape tree.
type Shape struct {
	ID          int
	Name        string
	Placeholder string // ph type, "" for a plain shape
	Text        string // paragraphs separated by newlines
	// Geometry is written as an a:xfrm; nil leaves spPr empty so the shape
	// inherits its placement.
	Geometry *model.EMUGeometry
	Image    []byte  // makes the shape a picture embedding these bytes
	Children []Shape // makes the shape a group
}

// DefaultLayouts are the layouts written when Deck.Layouts is nil.
var DefaultLayouts = []string{"Title Slide", "Title and Content", "Two Content", "Blank"}

// At returns a geometry pointer for fixtures.
func At(x, y, cx, cy int64) *model.EMUGeometry {
	return &model.EMUGeometry{X: x, Y: y, Cx: cx, Cy: cy}
}

// Standard returns a three-slide 16:9 deck with a title slide, a content
// slide with notes, and a blank slide holding a two-box group.
func Standard() Deck {
	return Deck{
		Title: "Quarterly Review",
		Slides: []Slide{
			{
				Layout: 0,
				Shapes: []Shape{
					{ID: 2, Name: "Title 1", Placeholder: "ctrTitle", Text: "Quarterly Review", Geometry: At(914400, 2130425, 10363200, 1470025)},
					{ID: 3, Name: "Subtitle 2", Placeholder: "subTitle", Text: "Q3 2026"},
				},
			},
			{
				Layout: 1,
				Notes:  "Mention the churn numbers.",
				Shapes: []Shape{
					{ID: 2, Name: "Title 1", Placeholder: "title", Text: "Highlights", Geometry: At(838200, 365125, 10515600, 1325563)},
					{ID: 3, Name: "Content 2", Placeholder: "body", Text: "Revenue up\nCosts down", Geometry: At(838200, 1825625, 10515600, 4351338)},
				},
			},
			{
				Layout: 3,
				Shapes: []Shape{
					{ID: 4, Name: "Group 3", Geometry: At(1000000, 1000000, 4000000, 2000000), Children: []Shape{
						{ID: 5, Name: "Box 4", Text: "Left", Geometry: At(1000000, 1000000, 2000000, 2000000)},
						{ID: 6, Name: "Box 5", Text: "Right", Geometry: At(3000000, 1000000, 2000000, 2000000)},
					}},
				},
			},
		},
	}
}

// Bytes renders the deck as a PPTX package.
func (d Deck) Bytes() []byte {
	b := newBuilder()
	d.render(b)
	return b.close()
}

// Write renders the deck into dir/name and returns the path.
func (d Deck) Write(t testing.TB, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, d.Bytes(), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", p, err)
	}
	return p
}

// WriteTemp renders the deck into a fresh temporary directory.
func (d Deck) WriteTemp(t testing.TB) string {
	t.Helper()
	return d.Write(t, t.TempDir(), "deck.pptx")
}

type builder struct {
	buf       bytes.Buffer
	zw        *zip.Writer
	overrides []string
}

func newBuilder() *builder {
	b := &builder{}
	b.zw = zip.NewWriter(&b.buf)
	return b
}

func (b *builder) part(name, contentType, body string) {
	if contentType != "" {
		b.overrides = append(b.overrides, fmt.Sprintf(`<Override PartName="/%s" ContentType="%s"/>`, name, contentType))
	}
	b.raw(name, []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+"\n"+body))
}

func (b *builder) raw(name string, data []byte) {
	w, err := b.zw.Create(name)
	if err != nil {
		panic(err)
	}
	if _, err := w.Write(data); err != nil {
		panic(err)
	}
}

func (b *builder) close() []byte {
	types := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Default Extension="png" ContentType="image/png"/>` +
		strings.Join(b.overrides, "") + `</Types>`
	b.raw("[Content_Types].xml", []byte(types))
	if err := b.zw.Close(); err != nil {
		panic(err)
	}
	return b.buf.Bytes()
}

func rels(entries ...string) string {
	return `<Relationships xmlns="` + nsPR + `">` + strings.Join(entries, "") + `</Relationships>`
}

func rel(id, typ, target string) string {
	return fmt.Sprintf(`<Relationship Id="%s" Type="%s" Target="%s"/>`, id, relNS+typ, target)
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

const ctPML = "application/vnd.openxmlformats-officedocument.presentationml."

func (d Deck) render(b *builder) {
	w, h := d.Width, d.Height
	if w == 0 || h == 0 {
		w, h = 12192000, 6858000
	}
	layouts := d.Layouts
	if layouts == nil {
		layouts = DefaultLayouts
	}

	b.part("_rels/.rels", "", rels(
		rel("rId1", "officeDocument", "ppt/presentation.xml"),
		`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>`,
	))
	b.part("docProps/core.xml", "application/vnd.openxmlformats-package.core-properties+xml",
		`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>`+
			escape(d.Title)+`</dc:title></cp:coreProperties>`)

	var sldIDs, presRels []string
	presRels = append(presRels, rel("rId1", "slideMaster", "slideMasters/slideMaster1.xml"))
	for i := range d.Slides {
		id := d.Slides[i].ID
		if id == 0 {
			id = 256 + i
		}
		rid := fmt.Sprintf("rId%d", i+10)
		sldIDs = append(sldIDs, fmt.Sprintf(`<p:sldId id="%d" r:id="%s"/>`, id, rid))
		presRels = append(presRels, rel(rid, "slide", fmt.Sprintf("slides/slide%d.xml", i+1)))
	}
	b.part("ppt/presentation.xml", ctPML+"presentation.main+xml", fmt.Sprintf(
		`<p:presentation xmlns:a="%s" xmlns:r="%s" xmlns:p="%s">`+
			`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`+
			`<p:sldIdLst>%s</p:sldIdLst><p:sldSz cx="%d" cy="%d"/><p:notesSz cx="6858000" cy="9144000"/></p:presentation>`,
		nsA, nsR, nsP, strings.Join(sldIDs, ""), w, h))
	b.part("ppt/_rels/presentation.xml.rels", "", rels(presRels...))

	var layoutIDs, masterRels []string
	for i, name := range layouts {
		n := i + 1
		layoutIDs = append(layoutIDs, fmt.Sprintf(`<p:sldLayoutId id="%d" r:id="rId%d"/>`, 2147483649+i, n))
		masterRels = append(masterRels, rel(fmt.Sprintf("rId%d", n), "slideLayout", fmt.Sprintf("../slideLayouts/slideLayout%d.xml", n)))
		b.part(fmt.Sprintf("ppt/slideLayouts/slideLayout%d.xml", n), ctPML+"slideLayout+xml", fmt.Sprintf(
			`<p:sldLayout xmlns:a="%s" xmlns:r="%s" xmlns:p="%s" type="%s"><p:cSld name="%s">%s</p:cSld></p:sldLayout>`,
			nsA, nsR, nsP, layoutType(name), escape(name), spTree("")))
		b.part(fmt.Sprintf("ppt/slideLayouts/_rels/slideLayout%d.xml.rels", n), "",
			rels(rel("rId1", "slideMaster", "../slideMasters/slideMaster1.xml")))
	}
	b.part("ppt/slideMasters/slideMaster1.xml", ctPML+"slideMaster+xml", fmt.Sprintf(
		`<p:sldMaster xmlns:a="%s" xmlns:r="%s" xmlns:p="%s"><p:cSld>%s</p:cSld><p:sldLayoutIdLst>%s</p:sldLayoutIdLst></p:sldMaster>`,
		nsA, nsR, nsP, spTree(""), strings.Join(layoutIDs, "")))
	b.part("ppt/slideMasters/_rels/slideMaster1.xml.rels", "", rels(masterRels...))

	for i, s := range d.Slides {
		n := i + 1
		var slideRels []string
		if s.Layout >= 0 && s.Layout < len(layouts) {
			slideRels = append(slideRels, rel("rId1", "slideLayout", fmt.Sprintf("../slideLayouts/slideLayout%d.xml", s.Layout+1)))
		}
		if s.Notes != "" {
			slideRels = append(slideRels, rel("rId2", "notesSlide", fmt.Sprintf("../notesSlides/notesSlide%d.xml", n)))
			notes := shapeXML(Shape{ID: 2, Name: "Notes Placeholder 1", Placeholder: "body", Text: s.Notes})
			b.part(fmt.Sprintf("ppt/notesSlides/notesSlide%d.xml", n), ctPML+"notesSlide+xml", fmt.Sprintf(
				`<p:notes xmlns:a="%s" xmlns:r="%s" xmlns:p="%s"><p:cSld>%s</p:cSld></p:notes>`, nsA, nsR, nsP, spTree(notes)))
		}

		var shapes strings.Builder
		var images []Shape
		collectImages(s.Shapes, &images)
		for _, img := range images {
			rid := imageRel(img)
			media := fmt.Sprintf("image%d_%d.png", n, img.ID)
			slideRels = append(slideRels, rel(rid, "image", "../media/"+media))
			b.raw("ppt/media/"+media, img.Image)
		}
		for _, sh := range s.Shapes {
			shapes.WriteString(shapeXML(sh))
		}

		b.part(fmt.Sprintf("ppt/slides/slide%d.xml", n), ctPML+"slide+xml", fmt.Sprintf(
			`<p:sld xmlns:a="%s" xmlns:r="%s" xmlns:p="%s"><p:cSld>%s</p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`,
			nsA, nsR, nsP, spTree(shapes.String())))
		b.part(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), "", rels(slideRels...))
	}
}

func collectImages(shapes []Shape, out *[]Shape) {
	for _, sh := range shapes {
		if sh.Image != nil {
			*out = append(*out, sh)
		}
		collectImages(sh.Children, out)
	}
}

func layoutType(name string) string {
	switch name {
	case "Title Slide":
		return "title"
	case "Title and Content":
		return "obj"
	case "Two Content":
		return "twoObj"
	case "Blank":
		return "blank"
	}
	return "cust"
}

func spTree(shapes string) string {
	return `<p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>` +
		shapes + `</p:spTree>`
}

func xfrm(g *model.EMUGeometry, group bool) string {
	if g == nil {
		return ""
	}
	child := ""
	if group {
		child = fmt.Sprintf(`<a:chOff x="%d" y="%d"/><a:chExt cx="%d" cy="%d"/>`, g.X, g.Y, g.Cx, g.Cy)
	}
	return fmt.Sprintf(`<a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/>%s</a:xfrm>`, g.X, g.Y, g.Cx, g.Cy, child)
}

func props(tag string, g *model.EMUGeometry, group bool) string {
	x := xfrm(g, group)
	if x == "" {
		return "<p:" + tag + "/>"
	}
	return "<p:" + tag + ">" + x + "</p:" + tag + ">"
}

func shapeXML(sh Shape) string {
	cNvPr := fmt.Sprintf(`<p:cNvPr id="%d" name="%s"/>`, sh.ID, escape(sh.Name))
	nvPr := "<p:nvPr/>"
	if sh.Placeholder != "" {
		nvPr = fmt.Sprintf(`<p:nvPr><p:ph type="%s"/></p:nvPr>`, sh.Placeholder)
	}

	switch {
	case sh.Children != nil:
		var children strings.Builder
		for _, c := range sh.Children {
			children.WriteString(shapeXML(c))
		}
		return `<p:grpSp><p:nvGrpSpPr>` + cNvPr + `<p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
			props("grpSpPr", sh.Geometry, true) + children.String() + `</p:grpSp>`

	case sh.Image != nil:
		return `<p:pic><p:nvPicPr>` + cNvPr + `<p:cNvPicPr/>` + nvPr + `</p:nvPicPr>` +
			fmt.Sprintf(`<p:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>`, imageRel(sh)) +
			props("spPr", sh.Geometry, false) + `</p:pic>`
	}

	var body string
	if sh.Text != "" {
		var paras strings.Builder
		for _, line := range strings.Split(sh.Text, "\n") {
			paras.WriteString(`<a:p><a:r><a:rPr lang="en-US" sz="2400"/><a:t>` + escape(line) + `</a:t></a:r></a:p>`)
		}
		body = `<p:txBody><a:bodyPr/><a:lstStyle/>` + paras.String() + `</p:txBody>`
	}
	return `<p:sp><p:nvSpPr>` + cNvPr + `<p:cNvSpPr/>` + nvPr + `</p:nvSpPr>` +
		props("spPr", sh.Geometry, false) + body + `</p:sp>`
}

// imageRel names a picture's relationship after its shape ID, which is
// unique within a slide.
func imageRel(sh Shape) string {
	return fmt.Sprintf("rIdImg%d", sh.ID)
}
