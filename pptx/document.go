package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/tsawler/deckforge/deckerr"
	"github.com/tsawler/deckforge/model"
)

// Default slide size when presentation.xml omits p:sldSz (4:3, 10in x 7.5in).
const (
	DefaultSlideWidth  = 9144000
	DefaultSlideHeight = 6858000
)

// maxPartSize bounds a single decompressed part.
var maxPartSize uint64 = 512 << 20

// Layout is a slide layout of the presentation.
type Layout struct {
	Index int    `json:"index"` // position among the layouts, by part number
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"` // e.g. title, obj, blank
	Part  string `json:"part"`
}

// Document is an open presentation package.
//
// A Document is not safe for concurrent use.
type Document struct {
	parts    map[string][]byte
	order    []string // part names in archive order
	canvas   model.Canvas
	slides   []*Slide
	layouts  []Layout
	title    string
	modified bool
}

// Open reads and parses the PPTX file at filename.
func Open(filename string) (*Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, deckerr.Wrap(deckerr.IO, "open presentation", filename, err)
	}
	doc, err := Parse(data)
	if err != nil {
		if e, ok := err.(*deckerr.Error); ok && e.Path == "" {
			e.Path = filename
		}
		return nil, err
	}
	return doc, nil
}

// Parse parses a PPTX package held in memory.
func Parse(data []byte) (*Document, error) {
	const op = "parse presentation"

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, deckerr.Wrap(deckerr.InvalidDocument, op, "", fmt.Errorf("opening ZIP archive: %w", err))
	}

	d := &Document{parts: make(map[string][]byte, len(zr.File))}
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		content, err := readZipFile(f)
		if err != nil {
			return nil, deckerr.Wrap(deckerr.InvalidDocument, op, "", fmt.Errorf("reading %s: %w", f.Name, err))
		}
		if _, dup := d.parts[f.Name]; !dup {
			d.order = append(d.order, f.Name)
		}
		d.parts[f.Name] = content
	}

	if err := d.validate(); err != nil {
		return nil, deckerr.Wrap(deckerr.InvalidDocument, op, "", err)
	}
	if err := d.load(); err != nil {
		return nil, deckerr.Wrap(deckerr.InvalidDocument, op, "", err)
	}
	return d, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > maxPartSize {
		return nil, fmt.Errorf("part too large (%d bytes)", f.UncompressedSize64)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	// The header size may understate the content.
	data, err := io.ReadAll(io.LimitReader(rc, int64(maxPartSize)+1))
	if err != nil {
		return nil, err
	}
	if uint64(len(data)) > maxPartSize {
		return nil, fmt.Errorf("part too large (more than %d bytes)", maxPartSize)
	}
	return data, nil
}

// validate checks that required PPTX files exist.
func (d *Document) validate() error {
	for _, name := range []string{partContentTypes, partPresentation} {
		if _, ok := d.parts[name]; !ok {
			return fmt.Errorf("missing required file: %s", name)
		}
	}
	return nil
}

// load rebuilds the decoded view from the raw parts.
func (d *Document) load() error {
	var pres presentationXML
	if err := xml.Unmarshal(d.parts[partPresentation], &pres); err != nil {
		return fmt.Errorf("parsing presentation: %w", err)
	}

	d.canvas = model.NewCanvas(DefaultSlideWidth, DefaultSlideHeight)
	if sz := pres.SlideSz; sz != nil && sz.Cx > 0 && sz.Cy > 0 {
		d.canvas = model.NewCanvas(float64(sz.Cx), float64(sz.Cy))
	}

	layouts, err := d.parseLayouts()
	if err != nil {
		return err
	}
	d.layouts = layouts

	refs, err := d.slideRefs(&pres)
	if err != nil {
		return err
	}
	d.slides = make([]*Slide, 0, len(refs))
	for i, ref := range refs {
		s, err := d.parseSlide(ref.part, ref.id, i)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", ref.part, err)
		}
		d.slides = append(d.slides, s)
	}

	d.title = ""
	if data, ok := d.parts[partCoreProps]; ok {
		var core corePropertiesXML
		if xml.Unmarshal(data, &core) == nil {
			d.title = core.Title
		}
	}
	return nil
}

type slideRef struct {
	id   string
	part string
}

// slideRefs lists slides in presentation order. Without a relationships part
// it falls back to ordering slide parts by their number.
func (d *Document) slideRefs(pres *presentationXML) ([]slideRef, error) {
	rels, err := d.rels(partPresentation)
	if err != nil {
		return nil, fmt.Errorf("parsing relationships: %w", err)
	}

	if rels == nil {
		var refs []slideRef
		for _, name := range d.partsMatching("ppt/slides/slide") {
			refs = append(refs, slideRef{id: "part:" + name, part: name})
		}
		return refs, nil
	}

	if pres.SlideIdList == nil {
		return nil, nil
	}
	refs := make([]slideRef, 0, len(pres.SlideIdList.SlideId))
	for _, sid := range pres.SlideIdList.SlideId {
		rel, ok := rels[sid.RID]
		if !ok {
			return nil, fmt.Errorf("slide %s: no relationship %q", sid.ID, sid.RID)
		}
		part := resolveTarget(partPresentation, rel.Target)
		if _, ok := d.parts[part]; !ok {
			return nil, fmt.Errorf("slide %s: missing part %s", sid.ID, part)
		}
		refs = append(refs, slideRef{id: sid.ID, part: part})
	}
	return refs, nil
}

// partsMatching returns parts named prefix<N>.xml sorted by N.
func (d *Document) partsMatching(prefix string) []string {
	var names []string
	for _, name := range d.order {
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".xml") && !strings.Contains(name, "_rels") {
			names = append(names, name)
		}
	}
	sort.SliceStable(names, func(i, j int) bool {
		return partNumber(names[i], prefix) < partNumber(names[j], prefix)
	})
	return names
}

// partNumber extracts N from a part name like "ppt/slides/slide12.xml".
func partNumber(name, prefix string) int {
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".xml"))
	if err != nil {
		return 0
	}
	return n
}

// rels parses the relationships of part, keyed by ID. It returns nil when the
// part has no relationships file.
func (d *Document) rels(part string) (map[string]relationshipXML, error) {
	data, ok := d.parts[relsPartFor(part)]
	if !ok {
		return nil, nil
	}
	var r relationshipsXML
	if err := xml.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	m := make(map[string]relationshipXML, len(r.Relationship))
	for _, rel := range r.Relationship {
		m[rel.ID] = rel
	}
	return m, nil
}

// relsPartFor returns the relationships part name for part.
func relsPartFor(part string) string {
	if part == "" {
		return partRootRels
	}
	return path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
}

// resolveTarget resolves a relationship target relative to its source part.
func resolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Clean(path.Join(path.Dir(source), target))
}

func (d *Document) parseLayouts() ([]Layout, error) {
	names := d.partsMatching("ppt/slideLayouts/slideLayout")
	layouts := make([]Layout, 0, len(names))
	for i, name := range names {
		var l slideLayoutXML
		if err := xml.Unmarshal(d.parts[name], &l); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		layouts = append(layouts, Layout{Index: i, Name: l.CSld.Name, Type: l.Type, Part: name})
	}
	return layouts, nil
}

// parseSlide parses a single slide part.
func (d *Document) parseSlide(part, id string, index int) (*Slide, error) {
	shapes, err := parseShapeTree(d.parts[part])
	if err != nil {
		return nil, err
	}
	s := &Slide{Index: index, ID: id, Part: part, Shapes: shapes}
	if t, ok := firstTitle(shapes); ok {
		s.Title = t
	}

	rels, err := d.rels(part)
	if err != nil {
		return nil, fmt.Errorf("parsing relationships: %w", err)
	}
	for _, rel := range rels {
		target := resolveTarget(part, rel.Target)
		switch rel.Type {
		case relTypeSlideLayout:
			for _, l := range d.layouts {
				if l.Part == target {
					s.Layout = l.Name
				}
			}
		case relTypeNotesSlide:
			s.Notes = d.notesText(target)
		}
	}
	return s, nil
}

func firstTitle(shapes []Shape) (string, bool) {
	for i := range shapes {
		if shapes[i].IsTitle() {
			if t := shapes[i].Text(); t != "" {
				return t, true
			}
		}
		if t, ok := firstTitle(shapes[i].Children); ok {
			return t, true
		}
	}
	return "", false
}

// notesText returns the body text of a notes slide.
func (d *Document) notesText(part string) string {
	data, ok := d.parts[part]
	if !ok {
		return ""
	}
	shapes, err := parseShapeTree(data)
	if err != nil {
		return ""
	}
	var notes []string
	for i := range shapes {
		if shapes[i].Placeholder == "body" {
			if t := strings.TrimSpace(shapes[i].Text()); t != "" {
				notes = append(notes, t)
			}
		}
	}
	return strings.Join(notes, "\n")
}

// Canvas returns the slide size in EMUs.
func (d *Document) Canvas() model.Canvas { return d.canvas }

// Title returns the document title from the core properties.
func (d *Document) Title() string { return d.title }

// SlideCount returns the number of slides.
func (d *Document) SlideCount() int { return len(d.slides) }

// Slides returns the slides in presentation order.
func (d *Document) Slides() []*Slide {
	out := make([]*Slide, len(d.slides))
	copy(out, d.slides)
	return out
}

// Slide returns the slide at the given index (0-indexed).
func (d *Document) Slide(index int) (*Slide, error) {
	if index < 0 || index >= len(d.slides) {
		return nil, deckerr.Field(deckerr.OutOfRange, "slide", "index", index, slideRange(len(d.slides)))
	}
	return d.slides[index], nil
}

func slideRange(n int) string {
	if n == 0 {
		return "none, the presentation has no slides"
	}
	return fmt.Sprintf("0..%d", n-1)
}

// Shape returns the shape with the given ID on a slide.
func (d *Document) Shape(slideIndex, shapeID int) (*Shape, error) {
	s, err := d.Slide(slideIndex)
	if err != nil {
		return nil, err
	}
	sh, ok := s.Find(shapeID)
	if !ok {
		return nil, deckerr.Field(deckerr.NotFound, "shape", "id", shapeID,
			fmt.Sprintf("a shape id on slide %d", slideIndex))
	}
	return sh, nil
}

// Layouts returns the slide layouts ordered by part number.
func (d *Document) Layouts() []Layout {
	out := make([]Layout, len(d.layouts))
	copy(out, d.layouts)
	return out
}

// Modified reports whether the document changed since it was opened or last
// saved.
func (d *Document) Modified() bool { return d.modified }

// Part returns the raw bytes of a package part.
func (d *Document) Part(name string) ([]byte, bool) {
	data, ok := d.parts[name]
	return data, ok
}

// Bytes serializes the package. Parts keep their original order; the output
// is deterministic for a given document state.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range d.order {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		if err != nil {
			return nil, fmt.Errorf("writing %s: %w", name, err)
		}
		if _, err := w.Write(d.parts[name]); err != nil {
			return nil, fmt.Errorf("writing %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the package to filename and clears the modified flag. The
// data goes to a temporary file in the same directory which is then renamed
// over filename, so readers never observe a partial file.
func (d *Document) Save(filename string) error {
	if err := d.SaveCopy(filename); err != nil {
		return err
	}
	d.modified = false
	return nil
}

// SaveCopy writes the package to filename like Save but leaves the modified
// flag alone.
func (d *Document) SaveCopy(filename string) error {
	const op = "save presentation"

	data, err := d.Bytes()
	if err != nil {
		return deckerr.Wrap(deckerr.IO, op, filename, err)
	}
	if err := writeFileAtomic(filename, data); err != nil {
		return deckerr.Wrap(deckerr.IO, op, filename, err)
	}
	return nil
}

func writeFileAtomic(filename string, data []byte) (err error) {
	mode := os.FileMode(0o644)
	if st, statErr := os.Stat(filename); statErr == nil {
		mode = st.Mode().Perm()
	}

	dir, base := filepath.Split(filename)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), mode); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filename)
}
