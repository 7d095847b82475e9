// Package format identifies presentation packages before deckforge opens them.
package format

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

// Format represents a document format deckforge can recognize.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// PPTX indicates a PowerPoint presentation (.pptx).
	PPTX
	// PPTM indicates a macro-enabled presentation (.pptm).
	PPTM
	// POTX indicates a presentation template (.potx).
	POTX
	// PPSX indicates a slide show (.ppsx).
	PPSX
	// PPT indicates a legacy binary presentation (.ppt), which cannot be edited.
	PPT
	// DOCX indicates a Word document.
	DOCX
	// XLSX indicates an Excel workbook.
	XLSX
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case PPTX:
		return "PPTX"
	case PPTM:
		return "PPTM"
	case POTX:
		return "POTX"
	case PPSX:
		return "PPSX"
	case PPT:
		return "PPT"
	case DOCX:
		return "DOCX"
	case XLSX:
		return "XLSX"
	default:
		return "Unknown"
	}
}

// Extension returns the typical file extension for the format.
func (f Format) Extension() string {
	switch f {
	case PPTX:
		return ".pptx"
	case PPTM:
		return ".pptm"
	case POTX:
		return ".potx"
	case PPSX:
		return ".ppsx"
	case PPT:
		return ".ppt"
	case DOCX:
		return ".docx"
	case XLSX:
		return ".xlsx"
	default:
		return ""
	}
}

// IsPresentation reports whether f is an Open XML presentation package that
// deckforge can edit.
func (f Format) IsPresentation() bool {
	switch f {
	case PPTX, PPTM, POTX, PPSX:
		return true
	}
	return false
}

// Main part content types of the presentation package variants.
const (
	contentTypePresentation = "application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"
	contentTypeTemplate     = "application/vnd.openxmlformats-officedocument.presentationml.template.main+xml"
	contentTypeSlideshow    = "application/vnd.openxmlformats-officedocument.presentationml.slideshow.main+xml"
	contentTypeMacro        = "application/vnd.ms-powerpoint.presentation.macroEnabled.main+xml"
)

// Detect determines file format from filename extension.
func Detect(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pptx":
		return PPTX
	case ".pptm":
		return PPTM
	case ".potx":
		return POTX
	case ".ppsx":
		return PPSX
	case ".ppt":
		return PPT
	case ".docx":
		return DOCX
	case ".xlsx":
		return XLSX
	default:
		return Unknown
	}
}

// isZip reports whether the header carries the local file header signature.
func isZip(head []byte) bool {
	return len(head) >= 4 && bytes.Equal(head[:4], []byte("PK\x03\x04"))
}

// DetectFromMagic classifies a file header. Zip-based formats cannot be told
// apart from the header alone; for those it returns Unknown and callers should
// use DetectFromReader.
func DetectFromMagic(head []byte) Format {
	if len(head) < 4 || isZip(head) {
		return Unknown
	}
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return Unknown
	}
	if kind.Extension == "ppt" {
		return PPT
	}
	return Unknown
}

// DetectFromReader inspects the content to determine format. It can
// distinguish the Open XML presentation variants from each other and from
// Word and Excel packages.
func DetectFromReader(r io.ReaderAt, size int64) (Format, error) {
	head := make([]byte, 512)
	n, err := r.ReadAt(head, 0)
	if err != nil && err != io.EOF {
		return Unknown, err
	}
	head = head[:n]

	if isZip(head) {
		return detectZIPFormat(r, size)
	}
	return DetectFromMagic(head), nil
}

// DetectFile opens path and runs DetectFromReader on it.
func DetectFile(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return Unknown, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return Unknown, err
	}
	return DetectFromReader(f, st.Size())
}

type contentTypes struct {
	Overrides []struct {
		PartName    string `xml:"PartName,attr"`
		ContentType string `xml:"ContentType,attr"`
	} `xml:"Override"`
}

// detectZIPFormat reads [Content_Types].xml to find the main part, falling
// back to the top-level folder names when the manifest is missing.
func detectZIPFormat(r io.ReaderAt, size int64) (Format, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return Unknown, err
	}

	for _, f := range zr.File {
		if f.Name != "[Content_Types].xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			break
		}
		var ct contentTypes
		err = xml.NewDecoder(rc).Decode(&ct)
		rc.Close()
		if err != nil {
			break
		}
		for _, o := range ct.Overrides {
			switch o.ContentType {
			case contentTypePresentation:
				return PPTX, nil
			case contentTypeTemplate:
				return POTX, nil
			case contentTypeSlideshow:
				return PPSX, nil
			case contentTypeMacro:
				return PPTM, nil
			}
		}
		break
	}

	for _, f := range zr.File {
		switch {
		case strings.HasPrefix(f.Name, "ppt/"):
			return PPTX, nil
		case strings.HasPrefix(f.Name, "word/"):
			return DOCX, nil
		case strings.HasPrefix(f.Name, "xl/"):
			return XLSX, nil
		}
	}

	return Unknown, nil
}
