package pptx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/tsawler/deckforge/deckerr"
	"github.com/tsawler/deckforge/model"
)

// node is one element of an XML part with the byte offsets of its start tag
// and of its end.
type node struct {
	name     xml.Name
	attr     []xml.Attr
	start    int64 // offset of '<'
	tagEnd   int64 // offset just past the start tag
	end      int64 // offset just past the end tag; equals tagEnd when self-closing
	parent   int
	children []int
}

func (n *node) selfClosing() bool { return n.end == n.tagEnd }

func (n *node) attrValue(local string) (string, bool) {
	for _, a := range n.attr {
		if a.Name.Local == local && a.Name.Space == "" {
			return a.Value, true
		}
	}
	return "", false
}

// indexXML records the position of every element in data.
func indexXML(data []byte) ([]node, error) {
	d := xml.NewDecoder(bytes.NewReader(data))
	var (
		nodes []node
		stack []int
	)
	for {
		off := d.InputOffset()
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			parent := -1
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			nodes = append(nodes, node{
				name:   t.Name,
				attr:   t.Copy().Attr,
				start:  off,
				tagEnd: d.InputOffset(),
				parent: parent,
			})
			idx := len(nodes) - 1
			if parent >= 0 {
				nodes[parent].children = append(nodes[parent].children, idx)
			}
			stack = append(stack, idx)
		case xml.EndElement:
			idx := stack[len(stack)-1]
			nodes[idx].end = d.InputOffset()
			stack = stack[:len(stack)-1]
		}
	}
	return nodes, nil
}

// child returns the first child of nodes[i] with the given local name.
func child(nodes []node, i int, local string) (int, bool) {
	for _, c := range nodes[i].children {
		if nodes[c].name.Local == local {
			return c, true
		}
	}
	return -1, false
}

// edit replaces data[start:end] with text.
type edit struct {
	start, end int64
	text       []byte
}

// apply performs non-overlapping edits in one pass.
func apply(data []byte, edits []edit) []byte {
	// Edits are produced in ascending order by the callers below.
	var out bytes.Buffer
	out.Grow(len(data) + 256)
	var pos int64
	for _, e := range edits {
		out.Write(data[pos:e.start])
		out.Write(e.text)
		pos = e.end
	}
	out.Write(data[pos:])
	return out.Bytes()
}

// qualifiedName returns the tag name as written, e.g. "p:spPr".
func qualifiedName(data []byte, n *node) string {
	tag := data[n.start+1 : n.tagEnd]
	i := bytes.IndexAny(tag, " \t\r\n/>")
	if i < 0 {
		return string(tag)
	}
	return string(tag[:i])
}

func compileAttr(name string) *regexp.Regexp {
	return regexp.MustCompile(`(\s` + regexp.QuoteMeta(name) + `\s*=\s*)("[^"]*"|'[^']*')`)
}

// attrPatterns matches the transform attributes SetShapeGeometry rewrites.
var attrPatterns = map[string]*regexp.Regexp{
	"x":  compileAttr("x"),
	"y":  compileAttr("y"),
	"cx": compileAttr("cx"),
	"cy": compileAttr("cy"),
}

// setAttr sets an attribute on a raw start tag, adding it when absent.
func setAttr(tag []byte, name, value string) []byte {
	re := attrPatterns[name]
	quoted := []byte(`"` + value + `"`)
	if loc := re.FindSubmatchIndex(tag); loc != nil {
		out := make([]byte, 0, len(tag)+len(quoted))
		out = append(out, tag[:loc[4]]...)
		out = append(out, quoted...)
		return append(out, tag[loc[5]:]...)
	}
	closeAt := len(tag) - 1
	if bytes.HasSuffix(tag, []byte("/>")) {
		closeAt = len(tag) - 2
	}
	out := make([]byte, 0, len(tag)+len(name)+len(quoted)+2)
	out = append(out, tag[:closeAt]...)
	out = append(out, ' ')
	out = append(out, name...)
	out = append(out, '=')
	out = append(out, quoted...)
	return append(out, tag[closeAt:]...)
}

var drawingPrefix = regexp.MustCompile(`xmlns:([A-Za-z_][\w.-]*)\s*=\s*["']` + regexp.QuoteMeta(nsDrawingML) + `["']`)

// xfrmElement renders a DrawingML transform using the prefix the part binds
// to the DrawingML namespace.
func xfrmElement(data []byte, g model.EMUGeometry) []byte {
	p, xmlns := "", ` xmlns="`+nsDrawingML+`"`
	if m := drawingPrefix.FindSubmatch(data); m != nil {
		p, xmlns = string(m[1])+":", ""
	}
	return []byte(fmt.Sprintf(`<%sxfrm%s><%soff x="%d" y="%d"/><%sext cx="%d" cy="%d"/></%sxfrm>`,
		p, xmlns, p, g.X, g.Y, p, g.Cx, g.Cy, p))
}

// findShapeNode locates the shape element whose non-visual properties carry
// cNvPr/@id == id.
func findShapeNode(nodes []node, id int) (int, bool) {
	want := strconv.Itoa(id)
	for i := range nodes {
		if _, ok := shapeKindOf(nodes[i].name.Local); !ok {
			continue
		}
		if len(nodes[i].children) == 0 {
			continue
		}
		nv := nodes[i].children[0]
		c, ok := child(nodes, nv, "cNvPr")
		if !ok {
			continue
		}
		if v, _ := nodes[c].attrValue("id"); v == want {
			return i, true
		}
	}
	return -1, false
}

// SetShapeGeometry moves and resizes a shape by rewriting the a:off and a:ext
// of its transform. A shape that inherits its placement from the layout gets
// an explicit transform.
func (d *Document) SetShapeGeometry(slideIndex, shapeID int, g model.EMUGeometry) error {
	const op = "set shape geometry"

	s, err := d.Slide(slideIndex)
	if err != nil {
		return err
	}
	if g.Cx < 0 || g.Cy < 0 {
		return deckerr.Field(deckerr.InvalidSizeSpec, op, "extent",
			fmt.Sprintf("%dx%d", g.Cx, g.Cy), "non-negative width and height")
	}
	for _, v := range []int64{g.X, g.Y, g.Cx, g.Cy} {
		if v > model.MaxCoordinate || v < -model.MaxCoordinate {
			return deckerr.Field(deckerr.OutOfRange, op, "geometry",
				fmt.Sprintf("%d,%d %dx%d", g.X, g.Y, g.Cx, g.Cy), "coordinates within ±27273042316900 EMU")
		}
	}

	data := d.parts[s.Part]
	nodes, err := indexXML(data)
	if err != nil {
		return deckerr.Wrap(deckerr.InvalidDocument, op, s.Part, err)
	}
	sh, ok := findShapeNode(nodes, shapeID)
	if !ok {
		return deckerr.Field(deckerr.NotFound, op, "id", shapeID,
			fmt.Sprintf("a shape id on slide %d", slideIndex))
	}

	// Graphic frames carry p:xfrm directly; other shapes nest it in their
	// shape properties.
	container := sh
	if kind, _ := shapeKindOf(nodes[sh].name.Local); kind != KindFrame {
		prop := "spPr"
		if kind == KindGroup {
			prop = "grpSpPr"
		}
		c, ok := child(nodes, sh, prop)
		if !ok {
			return deckerr.New(deckerr.InvalidDocument, op, "shape %d has no %s", shapeID, prop)
		}
		container = c
	}

	var edits []edit
	if x, ok := child(nodes, container, "xfrm"); ok {
		off, okOff := child(nodes, x, "off")
		ext, okExt := child(nodes, x, "ext")
		if !okOff || !okExt {
			return deckerr.New(deckerr.InvalidDocument, op, "shape %d has an incomplete transform", shapeID)
		}
		offTag := data[nodes[off].start:nodes[off].tagEnd]
		offTag = setAttr(setAttr(offTag, "x", strconv.FormatInt(g.X, 10)), "y", strconv.FormatInt(g.Y, 10))
		extTag := data[nodes[ext].start:nodes[ext].tagEnd]
		extTag = setAttr(setAttr(extTag, "cx", strconv.FormatInt(g.Cx, 10)), "cy", strconv.FormatInt(g.Cy, 10))

		first, second := edit{nodes[off].start, nodes[off].tagEnd, offTag}, edit{nodes[ext].start, nodes[ext].tagEnd, extTag}
		if second.start < first.start {
			first, second = second, first
		}
		edits = append(edits, first, second)
	} else {
		n := &nodes[container]
		xfrm := xfrmElement(data, g)
		if n.selfClosing() {
			name := qualifiedName(data, n)
			tag := data[n.start:n.tagEnd]
			open := bytes.TrimRight(tag[:len(tag)-2], " \t\r\n")
			text := make([]byte, 0, len(open)+len(xfrm)+len(name)+4)
			text = append(text, open...)
			text = append(text, '>')
			text = append(text, xfrm...)
			text = append(text, "</"+name+">"...)
			edits = append(edits, edit{n.start, n.tagEnd, text})
		} else {
			edits = append(edits, edit{n.tagEnd, n.tagEnd, xfrm})
		}
	}

	return d.replacePart(s.Part, apply(data, edits))
}

// replacePart swaps in new bytes for a part and rebuilds the decoded view.
// On failure the previous bytes are restored.
func (d *Document) replacePart(name string, data []byte) error {
	old := d.parts[name]
	d.parts[name] = data
	if err := d.load(); err != nil {
		d.parts[name] = old
		_ = d.load()
		return deckerr.Wrap(deckerr.InvalidDocument, "update "+name, "", err)
	}
	d.modified = true
	return nil
}

// MoveSlide moves the slide at from to position to, shifting the slides in
// between. Moving a slide onto itself is a no-op.
func (d *Document) MoveSlide(from, to int) error {
	const op = "move slide"
	n := len(d.slides)
	if from < 0 || from >= n {
		return deckerr.Field(deckerr.OutOfRange, op, "from", from, slideRange(n))
	}
	if to < 0 || to >= n {
		return deckerr.Field(deckerr.OutOfRange, op, "to", to, slideRange(n))
	}
	if from == to {
		return nil
	}

	data := d.parts[partPresentation]
	nodes, err := indexXML(data)
	if err != nil {
		return deckerr.Wrap(deckerr.InvalidDocument, op, partPresentation, err)
	}
	var list = -1
	for i := range nodes {
		if nodes[i].name.Local == "sldIdLst" && nodes[i].name.Space == nsPresentationML {
			list = i
			break
		}
	}
	if list < 0 {
		return deckerr.New(deckerr.InvalidDocument, op, "presentation has no slide list")
	}
	var ids []int
	for _, c := range nodes[list].children {
		if nodes[c].name.Local == "sldId" {
			ids = append(ids, c)
		}
	}
	if len(ids) != n {
		return deckerr.New(deckerr.InvalidDocument, op, "slide list has %d entries for %d slides", len(ids), n)
	}

	order := make([]int, 0, n)
	order = append(order, ids[:from]...)
	order = append(order, ids[from+1:]...)
	order = append(order[:to], append([]int{ids[from]}, order[to:]...)...)

	edits := make([]edit, n)
	for slot, src := range order {
		dst := ids[slot]
		edits[slot] = edit{nodes[dst].start, nodes[dst].end, data[nodes[src].start:nodes[src].end]}
	}
	return d.replacePart(partPresentation, apply(data, edits))
}
