package pptx

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/tsawler/deckforge/model"
)

// parseShapeTree decodes the p:spTree of a slide, layout or notes part.
// Shapes are returned in document order, which encoding/xml's slice-per-kind
// unmarshalling would lose.
func parseShapeTree(data []byte) ([]Shape, error) {
	d := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "spTree" {
			shapes, _, _, err := readShapes(d)
			return shapes, err
		}
	}
}

// readShapes decodes the children of a shape tree or group up to its end
// tag. It also returns the group's own properties when present.
func readShapes(d *xml.Decoder) ([]Shape, *nvPropsXML, *xfrmXML, error) {
	var (
		shapes []Shape
		nv     *nvPropsXML
		xfrm   *xfrmXML
	)
	for {
		tok, err := d.Token()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, nil, nil, err
		}

		switch t := tok.(type) {
		case xml.EndElement:
			return shapes, nv, xfrm, nil

		case xml.StartElement:
			switch t.Name.Local {
			case "nvGrpSpPr":
				var v nvPropsXML
				if err := d.DecodeElement(&v, &t); err != nil {
					return nil, nil, nil, err
				}
				nv = &v

			case "grpSpPr":
				var v grpSpPrXML
				if err := d.DecodeElement(&v, &t); err != nil {
					return nil, nil, nil, err
				}
				xfrm = v.Xfrm

			case "sp":
				var v spXML
				if err := d.DecodeElement(&v, &t); err != nil {
					return nil, nil, nil, err
				}
				sh := newShape(KindShape, &v.NvSpPr, v.SpPr.Xfrm)
				if v.TxBody != nil {
					sh.Paragraphs = paragraphs(v.TxBody)
				}
				shapes = append(shapes, sh)

			case "cxnSp":
				var v cxnSpXML
				if err := d.DecodeElement(&v, &t); err != nil {
					return nil, nil, nil, err
				}
				shapes = append(shapes, newShape(KindConnector, &v.NvCxnSpPr, v.SpPr.Xfrm))

			case "pic":
				var v picXML
				if err := d.DecodeElement(&v, &t); err != nil {
					return nil, nil, nil, err
				}
				sh := newShape(KindPicture, &v.NvPicPr, v.SpPr.Xfrm)
				sh.Image = v.BlipFill.Blip.Embed
				shapes = append(shapes, sh)

			case "graphicFrame":
				var v graphicFrameXML
				if err := d.DecodeElement(&v, &t); err != nil {
					return nil, nil, nil, err
				}
				sh := newShape(KindFrame, &v.NvGraphicFramePr, v.Xfrm)
				if tbl := v.Graphic.GraphicData.Tbl; tbl != nil {
					sh.Paragraphs = tableParagraphs(tbl)
				}
				shapes = append(shapes, sh)

			case "grpSp":
				children, gnv, gx, err := readShapes(d)
				if err != nil {
					return nil, nil, nil, err
				}
				if gnv == nil {
					gnv = &nvPropsXML{}
				}
				sh := newShape(KindGroup, gnv, gx)
				sh.Children = children
				shapes = append(shapes, sh)

			default:
				if err := d.Skip(); err != nil {
					return nil, nil, nil, err
				}
			}
		}
	}
}

func newShape(kind ShapeKind, nv *nvPropsXML, xfrm *xfrmXML) Shape {
	sh := Shape{
		ID:       nv.CNvPr.ID,
		Name:     nv.CNvPr.Name,
		Kind:     kind,
		Geometry: geometryOf(xfrm),
	}
	if ph := nv.NvPr.Ph; ph != nil {
		sh.Placeholder = ph.Type
		if sh.Placeholder == "" {
			sh.Placeholder = "obj"
		}
	}
	return sh
}

// geometryOf returns nil unless both offset and extent are present.
func geometryOf(x *xfrmXML) *model.EMUGeometry {
	if x == nil || x.Off == nil || x.Ext == nil {
		return nil
	}
	return &model.EMUGeometry{X: x.Off.X, Y: x.Off.Y, Cx: x.Ext.Cx, Cy: x.Ext.Cy}
}

// paragraphs extracts text and the leading run's formatting.
func paragraphs(tb *txBodyXML) []Paragraph {
	out := make([]Paragraph, 0, len(tb.P))
	for _, p := range tb.P {
		para := Paragraph{}
		if p.PPr != nil {
			para.Level = p.PPr.Lvl
		}
		var text strings.Builder
		styled := false
		for _, item := range p.Items {
			switch item.XMLName.Local {
			case "r", "fld":
				text.WriteString(item.T)
				if !styled && item.RPr != nil {
					styled = true
					para.FontSize = float64(item.RPr.Sz) / 100
					para.Bold = item.RPr.B != nil && *item.RPr.B
				}
			case "br":
				text.WriteByte('\n')
			}
		}
		para.Text = text.String()
		out = append(out, para)
	}
	return out
}

// tableParagraphs flattens a table into one paragraph per row with cells
// separated by tabs.
func tableParagraphs(tbl *tblXML) []Paragraph {
	out := make([]Paragraph, 0, len(tbl.Tr))
	for _, tr := range tbl.Tr {
		cells := make([]string, 0, len(tr.Tc))
		for _, tc := range tr.Tc {
			if tc.TxBody == nil {
				cells = append(cells, "")
				continue
			}
			var lines []string
			for _, p := range paragraphs(tc.TxBody) {
				lines = append(lines, p.Text)
			}
			cells = append(cells, strings.Join(lines, " "))
		}
		out = append(out, Paragraph{Text: strings.Join(cells, "\t")})
	}
	return out
}
