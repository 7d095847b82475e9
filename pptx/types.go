// Package pptx reads and edits PowerPoint (Office Open XML Presentation)
// packages.
//
// A [Document] keeps every part of the zip package as raw bytes. Reading
// decodes slides, shapes and layouts from those bytes; editing patches the
// affected XML in place and leaves every other byte of the part untouched, so
// content this package does not model survives a round trip unchanged.
package pptx

import "encoding/xml"

// XML namespaces used in PPTX files.
const (
	nsPresentationML = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsDrawingML      = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsRelationships  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsPackageRels    = "http://schemas.openxmlformats.org/package/2006/relationships"
)

// Relationship types.
const (
	relTypeOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relTypeSlide          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	relTypeSlideLayout    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"
	relTypeSlideMaster    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster"
	relTypeTheme          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme"
	relTypeNotesSlide     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesSlide"
	relTypeCoreProps      = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
)

// Well-known part names.
const (
	partContentTypes = "[Content_Types].xml"
	partRootRels     = "_rels/.rels"
	partPresentation = "ppt/presentation.xml"
	partPresRels     = "ppt/_rels/presentation.xml.rels"
	partCoreProps    = "docProps/core.xml"
)

// presentationXML represents the ppt/presentation.xml file structure.
type presentationXML struct {
	XMLName     xml.Name        `xml:"presentation"`
	SlideIdList *slideIdListXML `xml:"sldIdLst"`
	SlideSz     *slideSzXML     `xml:"sldSz"`
}

type slideIdListXML struct {
	SlideId []slideIdXML `xml:"sldId"`
}

type slideIdXML struct {
	ID  string `xml:"id,attr"`
	RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"` // r:id attribute for relationship
}

type slideSzXML struct {
	Cx int64 `xml:"cx,attr"` // Width in EMUs
	Cy int64 `xml:"cy,attr"` // Height in EMUs
}

// cSldXML is the common slide data shared by slides, layouts and masters.
// The shape tree is decoded separately to keep document order.
type cSldXML struct {
	Name string `xml:"name,attr"`
}

// slideLayoutXML represents a ppt/slideLayouts/slideLayout*.xml file.
type slideLayoutXML struct {
	XMLName xml.Name `xml:"sldLayout"`
	Type    string   `xml:"type,attr"`
	CSld    cSldXML  `xml:"cSld"`
}

type cNvPrXML struct {
	ID    int    `xml:"id,attr"`
	Name  string `xml:"name,attr"`
	Title string `xml:"title,attr"`
	Descr string `xml:"descr,attr"`
}

// nvPropsXML covers nvSpPr, nvPicPr, nvGraphicFramePr, nvGrpSpPr and
// nvCxnSpPr, which share the same leading children.
type nvPropsXML struct {
	CNvPr cNvPrXML `xml:"cNvPr"`
	NvPr  nvPrXML  `xml:"nvPr"`
}

type nvPrXML struct {
	Ph *phXML `xml:"ph"` // Placeholder info
}

type phXML struct {
	Type string `xml:"type,attr"` // title, body, subTitle, ctrTitle, etc.
	Idx  int    `xml:"idx,attr"`
}

type spPrXML struct {
	Xfrm *xfrmXML `xml:"xfrm"`
}

type xfrmXML struct {
	Off *offXML `xml:"off"`
	Ext *extXML `xml:"ext"`
}

type offXML struct {
	X int64 `xml:"x,attr"` // X position in EMUs
	Y int64 `xml:"y,attr"` // Y position in EMUs
}

type extXML struct {
	Cx int64 `xml:"cx,attr"` // Width in EMUs
	Cy int64 `xml:"cy,attr"` // Height in EMUs
}

// spXML represents a shape element.
type spXML struct {
	NvSpPr nvPropsXML `xml:"nvSpPr"`
	SpPr   spPrXML    `xml:"spPr"`
	TxBody *txBodyXML `xml:"txBody"`
}

// cxnSpXML represents a connector.
type cxnSpXML struct {
	NvCxnSpPr nvPropsXML `xml:"nvCxnSpPr"`
	SpPr      spPrXML    `xml:"spPr"`
}

// picXML represents a picture element.
type picXML struct {
	NvPicPr  nvPropsXML  `xml:"nvPicPr"`
	BlipFill blipFillXML `xml:"blipFill"`
	SpPr     spPrXML     `xml:"spPr"`
}

type blipFillXML struct {
	Blip blipXML `xml:"blip"`
}

type blipXML struct {
	Embed string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships embed,attr"` // r:embed relationship ID
}

// graphicFrameXML represents a graphic frame (tables, charts). Its transform
// is p:xfrm directly under the frame.
type graphicFrameXML struct {
	NvGraphicFramePr nvPropsXML `xml:"nvGraphicFramePr"`
	Xfrm             *xfrmXML   `xml:"xfrm"`
	Graphic          graphicXML `xml:"graphic"`
}

type graphicXML struct {
	GraphicData graphicDataXML `xml:"graphicData"`
}

type graphicDataXML struct {
	URI string  `xml:"uri,attr"`
	Tbl *tblXML `xml:"tbl"` // Table
}

// tblXML represents a table.
type tblXML struct {
	Tr []trXML `xml:"tr"` // Table rows
}

type trXML struct {
	Tc []tcXML `xml:"tc"` // Table cells
}

type tcXML struct {
	TxBody *txBodyXML `xml:"txBody"`
}

// txBodyXML represents text body content.
type txBodyXML struct {
	P []pXML `xml:"p"` // Paragraphs
}

// pXML represents a paragraph. Runs, fields and breaks are kept in document
// order by decoding them into one slice.
type pXML struct {
	PPr   *pPrXML      `xml:"pPr"`
	Items []textRunXML `xml:",any"`
}

type pPrXML struct {
	Lvl int `xml:"lvl,attr"` // Bullet level (0-8)
}

// textRunXML captures a:r, a:fld and a:br children of a paragraph.
type textRunXML struct {
	XMLName xml.Name
	RPr     *rPrXML `xml:"rPr"`
	T       string  `xml:"t"`
}

type rPrXML struct {
	Sz int   `xml:"sz,attr"` // Font size in hundredths of a point
	B  *bool `xml:"b,attr"`  // Bold
}

// grpSpPrXML holds a group's transform.
type grpSpPrXML struct {
	Xfrm *xfrmXML `xml:"xfrm"`
}

// relationshipsXML represents .rels files.
type relationshipsXML struct {
	XMLName      xml.Name          `xml:"Relationships"`
	Relationship []relationshipXML `xml:"Relationship"`
}

type relationshipXML struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// corePropertiesXML represents docProps/core.xml.
type corePropertiesXML struct {
	XMLName   xml.Name `xml:"coreProperties"`
	Title     string   `xml:"title"`
	Subject   string   `xml:"subject"`
	Creator   string   `xml:"creator"`
	Keywords  string   `xml:"keywords"`
	LastModBy string   `xml:"lastModifiedBy"`
}
