package format

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestFormat_String(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{PPTX, "PPTX"},
		{PPTM, "PPTM"},
		{POTX, "POTX"},
		{PPSX, "PPSX"},
		{PPT, "PPT"},
		{DOCX, "DOCX"},
		{XLSX, "XLSX"},
		{Unknown, "Unknown"},
		{Format(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.format.String(); got != tt.want {
			t.Errorf("Format(%d).String() = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestFormat_Extension(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{PPTX, ".pptx"},
		{PPTM, ".pptm"},
		{POTX, ".potx"},
		{PPSX, ".ppsx"},
		{PPT, ".ppt"},
		{DOCX, ".docx"},
		{XLSX, ".xlsx"},
		{Unknown, ""},
	}

	for _, tt := range tests {
		if got := tt.format.Extension(); got != tt.want {
			t.Errorf("Format(%d).Extension() = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestFormat_IsPresentation(t *testing.T) {
	for _, f := range []Format{PPTX, PPTM, POTX, PPSX} {
		if !f.IsPresentation() {
			t.Errorf("%v.IsPresentation() = false", f)
		}
	}
	for _, f := range []Format{Unknown, PPT, DOCX, XLSX} {
		if f.IsPresentation() {
			t.Errorf("%v.IsPresentation() = true", f)
		}
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		filename string
		want     Format
	}{
		{"deck.pptx", PPTX},
		{"deck.PPTX", PPTX},
		{"deck.Pptx", PPTX},
		{"deck.pptm", PPTM},
		{"deck.potx", POTX},
		{"deck.ppsx", PPSX},
		{"deck.ppt", PPT},
		{"report.docx", DOCX},
		{"sheet.xlsx", XLSX},
		{"deck.pdf", Unknown},
		{"deck", Unknown},
		{"", Unknown},
		{"/path/to/file.pptx", PPTX},
	}

	for _, tt := range tests {
		if got := Detect(tt.filename); got != tt.want {
			t.Errorf("Detect(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestDetectFromMagic(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{
			name: "ZIP magic bytes",
			data: []byte{0x50, 0x4B, 0x03, 0x04, 0x00, 0x00, 0x00, 0x00},
			want: Unknown, // ZIP needs further inspection
		},
		{
			name: "PNG",
			data: []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR"),
			want: Unknown,
		},
		{
			name: "empty data",
			data: []byte{},
			want: Unknown,
		},
		{
			name: "short data",
			data: []byte{0x50, 0x4B},
			want: Unknown,
		},
		{
			name: "text file",
			data: []byte("Hello, World!"),
			want: Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFromMagic(tt.data); got != tt.want {
				t.Errorf("DetectFromMagic() = %v, want %v", got, tt.want)
			}
		})
	}
}

func zipOf(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	// [Content_Types].xml first, as Office writes it.
	if ct, ok := files["[Content_Types].xml"]; ok {
		f, err := w.Create("[Content_Types].xml")
		if err != nil {
			t.Fatal(err)
		}
		f.Write([]byte(ct))
	}
	for name, content := range files {
		if name == "[Content_Types].xml" {
			continue
		}
		f, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		f.Write([]byte(content))
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func contentTypesFor(ct string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/ppt/presentation.xml" ContentType="` + ct + `"/>
</Types>`
}

func TestDetectFromReader_Zip(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  Format
	}{
		{
			name: "presentation",
			files: map[string]string{
				"[Content_Types].xml":  contentTypesFor(contentTypePresentation),
				"ppt/presentation.xml": "<p:presentation/>",
			},
			want: PPTX,
		},
		{
			name: "template",
			files: map[string]string{
				"[Content_Types].xml":  contentTypesFor(contentTypeTemplate),
				"ppt/presentation.xml": "<p:presentation/>",
			},
			want: POTX,
		},
		{
			name: "slideshow",
			files: map[string]string{
				"[Content_Types].xml":  contentTypesFor(contentTypeSlideshow),
				"ppt/presentation.xml": "<p:presentation/>",
			},
			want: PPSX,
		},
		{
			name: "macro enabled",
			files: map[string]string{
				"[Content_Types].xml":  contentTypesFor(contentTypeMacro),
				"ppt/presentation.xml": "<p:presentation/>",
			},
			want: PPTM,
		},
		{
			name:  "no manifest",
			files: map[string]string{"ppt/presentation.xml": "<p:presentation/>"},
			want:  PPTX,
		},
		{
			name:  "word",
			files: map[string]string{"word/document.xml": "<w:document/>"},
			want:  DOCX,
		},
		{
			name:  "excel",
			files: map[string]string{"xl/workbook.xml": "<workbook/>"},
			want:  XLSX,
		},
		{
			name:  "plain zip",
			files: map[string]string{"readme.txt": "hi"},
			want:  Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := zipOf(t, tt.files)
			got, err := DetectFromReader(bytes.NewReader(data), int64(len(data)))
			if err != nil {
				t.Fatalf("DetectFromReader() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DetectFromReader() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectFromReader_CorruptZip(t *testing.T) {
	data := []byte("PK\x03\x04 truncated")
	if _, err := DetectFromReader(bytes.NewReader(data), int64(len(data))); err == nil {
		t.Error("DetectFromReader() expected error for corrupt zip")
	}
}

func TestDetectFromReader_Unknown(t *testing.T) {
	data := []byte("Hello, World! This is plain text.")
	r := bytes.NewReader(data)

	format, err := DetectFromReader(r, int64(len(data)))
	if err != nil {
		t.Fatalf("DetectFromReader() error = %v", err)
	}
	if format != Unknown {
		t.Errorf("DetectFromReader() = %v, want Unknown", format)
	}
}

func TestDetectFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "deck.bin")
	data := zipOf(t, map[string]string{
		"[Content_Types].xml":  contentTypesFor(contentTypePresentation),
		"ppt/presentation.xml": "<p:presentation/>",
	})
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := DetectFile(p)
	if err != nil {
		t.Fatalf("DetectFile() error = %v", err)
	}
	if got != PPTX {
		t.Errorf("DetectFile() = %v, want PPTX", got)
	}

	if _, err := DetectFile(filepath.Join(dir, "missing.pptx")); err == nil {
		t.Error("DetectFile() expected error for missing file")
	}
}
