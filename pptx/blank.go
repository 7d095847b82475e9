package pptx

import (
	"fmt"

	"github.com/tsawler/deckforge/deckerr"
	"github.com/tsawler/deckforge/model"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// New returns an empty presentation with one slide master, a "Blank" layout
// and a default theme. The canvas is rounded to whole EMUs.
func New(canvas model.Canvas) (*Document, error) {
	if !canvas.IsValid() {
		return nil, deckerr.Field(deckerr.OutOfRange, "new presentation", "canvas",
			fmt.Sprintf("%gx%g", canvas.Width, canvas.Height), "positive width and height")
	}
	cx, cy := int64(canvas.Width+0.5), int64(canvas.Height+0.5)

	parts := []struct{ name, body string }{
		{partContentTypes, blankContentTypes},
		{partRootRels, blankRootRels},
		{partCoreProps, blankCoreProps},
		{partPresentation, fmt.Sprintf(blankPresentation, cx, cy)},
		{partPresRels, blankPresRels},
		{"ppt/slideMasters/slideMaster1.xml", blankMaster},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", blankMasterRels},
		{"ppt/slideLayouts/slideLayout1.xml", blankLayout},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", blankLayoutRels},
		{"ppt/theme/theme1.xml", blankTheme},
	}

	d := &Document{parts: make(map[string][]byte, len(parts))}
	for _, p := range parts {
		d.order = append(d.order, p.name)
		d.parts[p.name] = []byte(xmlHeader + p.body)
	}
	if err := d.load(); err != nil {
		return nil, deckerr.Wrap(deckerr.InvalidDocument, "new presentation", "", err)
	}
	d.modified = true
	return d, nil
}

const blankContentTypes = `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>
<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>
<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>
<Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>
<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>
</Types>`

const blankRootRels = `<Relationships xmlns="` + nsPackageRels + `">
<Relationship Id="rId1" Type="` + relTypeOfficeDocument + `" Target="ppt/presentation.xml"/>
<Relationship Id="rId2" Type="` + relTypeCoreProps + `" Target="docProps/core.xml"/>
</Relationships>`

const blankCoreProps = `<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/">
<dc:title></dc:title>
<dc:creator>deckforge</dc:creator>
</cp:coreProperties>`

const blankPresentation = `<p:presentation xmlns:a="` + nsDrawingML + `" xmlns:r="` + nsRelationships + `" xmlns:p="` + nsPresentationML + `">
<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>
<p:sldIdLst></p:sldIdLst>
<p:sldSz cx="%d" cy="%d"/>
<p:notesSz cx="6858000" cy="9144000"/>
</p:presentation>`

const blankPresRels = `<Relationships xmlns="` + nsPackageRels + `">
<Relationship Id="rId1" Type="` + relTypeSlideMaster + `" Target="slideMasters/slideMaster1.xml"/>
<Relationship Id="rId2" Type="` + relTypeTheme + `" Target="theme/theme1.xml"/>
</Relationships>`

const emptySpTree = `<p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/></p:spTree>`

const blankMaster = `<p:sldMaster xmlns:a="` + nsDrawingML + `" xmlns:r="` + nsRelationships + `" xmlns:p="` + nsPresentationML + `">
<p:cSld>` + emptySpTree + `</p:cSld>
<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>
<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst>
</p:sldMaster>`

const blankMasterRels = `<Relationships xmlns="` + nsPackageRels + `">
<Relationship Id="rId1" Type="` + relTypeSlideLayout + `" Target="../slideLayouts/slideLayout1.xml"/>
<Relationship Id="rId2" Type="` + relTypeTheme + `" Target="../theme/theme1.xml"/>
</Relationships>`

const blankLayout = `<p:sldLayout xmlns:a="` + nsDrawingML + `" xmlns:r="` + nsRelationships + `" xmlns:p="` + nsPresentationML + `" type="blank" preserve="1">
<p:cSld name="Blank">` + emptySpTree + `</p:cSld>
<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>
</p:sldLayout>`

const blankLayoutRels = `<Relationships xmlns="` + nsPackageRels + `">
<Relationship Id="rId1" Type="` + relTypeSlideMaster + `" Target="../slideMasters/slideMaster1.xml"/>
</Relationships>`

const blankTheme = `<a:theme xmlns:a="` + nsDrawingML + `" name="Office Theme">
<a:themeElements>
<a:clrScheme name="Office">
<a:dk1><a:sysClr val="windowText" lastClr="000000"/></a:dk1>
<a:lt1><a:sysClr val="window" lastClr="FFFFFF"/></a:lt1>
<a:dk2><a:srgbClr val="44546A"/></a:dk2>
<a:lt2><a:srgbClr val="E7E6E6"/></a:lt2>
<a:accent1><a:srgbClr val="4472C4"/></a:accent1>
<a:accent2><a:srgbClr val="ED7D31"/></a:accent2>
<a:accent3><a:srgbClr val="A5A5A5"/></a:accent3>
<a:accent4><a:srgbClr val="FFC000"/></a:accent4>
<a:accent5><a:srgbClr val="5B9BD5"/></a:accent5>
<a:accent6><a:srgbClr val="70AD47"/></a:accent6>
<a:hlink><a:srgbClr val="0563C1"/></a:hlink>
<a:folHlink><a:srgbClr val="954F72"/></a:folHlink>
</a:clrScheme>
<a:fontScheme name="Office">
<a:majorFont><a:latin typeface="Calibri Light"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>
<a:minorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont>
</a:fontScheme>
<a:fmtScheme name="Office">
<a:fillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:fillStyleLst>
<a:lnStyleLst><a:ln w="6350"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="12700"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="19050"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln></a:lnStyleLst>
<a:effectStyleLst><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle></a:effectStyleLst>
<a:bgFillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:bgFillStyleLst>
</a:fmtScheme>
</a:themeElements>
</a:theme>`
