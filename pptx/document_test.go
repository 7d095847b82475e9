package pptx

import (
	"archive/zip"
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/deckforge/deckerr"
	"github.com/tsawler/deckforge/internal/testdeck"
	"github.com/tsawler/deckforge/model"
)

func openStandard(t *testing.T) *Document {
	t.Helper()
	doc, err := Parse(testdeck.Standard().Bytes())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return doc
}

func TestOpen(t *testing.T) {
	path := testdeck.Standard().WriteTemp(t)

	doc, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if doc.SlideCount() != 3 {
		t.Errorf("Expected 3 slides, got %d", doc.SlideCount())
	}
	if got := doc.Canvas(); got.Width != 12192000 || got.Height != 6858000 {
		t.Errorf("Unexpected canvas %+v", got)
	}
	if doc.Title() != "Quarterly Review" {
		t.Errorf("Expected title %q, got %q", "Quarterly Review", doc.Title())
	}
	if doc.Modified() {
		t.Error("Freshly opened document should not be modified")
	}
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()

	notZip := filepath.Join(dir, "not.pptx")
	if err := os.WriteFile(notZip, []byte("not a zip file"), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("[Content_Types].xml")
	w.Write([]byte(`<Types/>`))
	zw.Close()
	noPres := filepath.Join(dir, "nopres.pptx")
	if err := os.WriteFile(noPres, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		kind deckerr.Kind
	}{
		{"missing file", filepath.Join(dir, "missing.pptx"), deckerr.IO},
		{"not a zip", notZip, deckerr.InvalidDocument},
		{"no presentation part", noPres, deckerr.InvalidDocument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.path)
			if err == nil {
				t.Fatal("Expected error")
			}
			if got := deckerr.KindOf(err); got != tt.kind {
				t.Errorf("Expected kind %v, got %v (%v)", tt.kind, got, err)
			}
			if !strings.Contains(err.Error(), tt.path) {
				t.Errorf("Error should name the file: %v", err)
			}
		})
	}
}

func TestReadZipFile_RejectsUnderstatedSize(t *testing.T) {
	defer func(n uint64) { maxPartSize = n }(maxPartSize)
	maxPartSize = 64

	body := bytes.Repeat([]byte("x"), 100)
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.CreateRaw(&zip.FileHeader{
		Name:               "ppt/presentation.xml",
		Method:             zip.Store,
		CompressedSize64:   uint64(len(body)),
		UncompressedSize64: 10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(body); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatal(err)
	}
	data, err := readZipFile(zr.File[0])
	if err == nil {
		t.Fatalf("Expected an error for an oversized part, got %d bytes", len(data))
	}
	if !strings.Contains(err.Error(), "too large") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestDocument_Slides(t *testing.T) {
	doc := openStandard(t)
	slides := doc.Slides()

	wantIDs := []string{"256", "257", "258"}
	for i, s := range slides {
		if s.ID != wantIDs[i] {
			t.Errorf("slide %d: expected ID %s, got %s", i, wantIDs[i], s.ID)
		}
		if s.Index != i {
			t.Errorf("slide %d: expected index %d, got %d", i, i, s.Index)
		}
	}

	if slides[0].Title != "Quarterly Review" {
		t.Errorf("Unexpected title %q", slides[0].Title)
	}
	if slides[1].Layout != "Title and Content" {
		t.Errorf("Unexpected layout %q", slides[1].Layout)
	}
	if slides[1].Notes != "Mention the churn numbers." {
		t.Errorf("Unexpected notes %q", slides[1].Notes)
	}
	if slides[2].Layout != "Blank" {
		t.Errorf("Unexpected layout %q", slides[2].Layout)
	}

	body := slides[1].Shapes[1]
	if body.Placeholder != "body" || len(body.Paragraphs) != 2 {
		t.Fatalf("Unexpected body shape %+v", body)
	}
	if body.Paragraphs[0].FontSize != 24 {
		t.Errorf("Expected 24pt, got %v", body.Paragraphs[0].FontSize)
	}
	if got := slides[1].Text(); got != "Highlights\n\nRevenue up\nCosts down" {
		t.Errorf("Unexpected slide text %q", got)
	}

	// Returned slice is a copy.
	slides[0] = nil
	if doc.Slides()[0] == nil {
		t.Error("Slides should return a copy")
	}
}

func TestDocument_Groups(t *testing.T) {
	doc := openStandard(t)
	s, _ := doc.Slide(2)

	if len(s.Shapes) != 1 || s.Shapes[0].Kind != KindGroup {
		t.Fatalf("Expected one group, got %+v", s.Shapes)
	}
	if len(s.Shapes[0].Children) != 2 {
		t.Fatalf("Expected 2 children, got %d", len(s.Shapes[0].Children))
	}
	sh, ok := s.Find(6)
	if !ok || sh.Text() != "Right" {
		t.Errorf("Find(6) = %+v, %v", sh, ok)
	}
	if _, ok := s.Find(99); ok {
		t.Error("Find(99) should fail")
	}
}

func TestDocument_InheritedGeometry(t *testing.T) {
	doc := openStandard(t)
	sh, err := doc.Shape(0, 3)
	if err != nil {
		t.Fatal(err)
	}
	if sh.Geometry != nil {
		t.Errorf("Subtitle inherits its placement, got %+v", sh.Geometry)
	}
}

func TestDocument_Lookups(t *testing.T) {
	doc := openStandard(t)

	tests := []struct {
		name  string
		slide int
		shape int
		kind  deckerr.Kind
	}{
		{"negative slide", -1, 2, deckerr.OutOfRange},
		{"slide past end", 3, 2, deckerr.OutOfRange},
		{"unknown shape", 0, 99, deckerr.NotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := doc.Shape(tt.slide, tt.shape)
			if deckerr.KindOf(err) != tt.kind {
				t.Errorf("Expected %v, got %v", tt.kind, err)
			}
		})
	}

	_, err := doc.Slide(5)
	var e *deckerr.Error
	if !errors.As(err, &e) || e.Allowed != "0..2" {
		t.Errorf("Expected allowed range 0..2, got %v", err)
	}
}

func TestDocument_Layouts(t *testing.T) {
	doc := openStandard(t)
	layouts := doc.Layouts()

	want := []struct{ name, typ string }{
		{"Title Slide", "title"},
		{"Title and Content", "obj"},
		{"Two Content", "twoObj"},
		{"Blank", "blank"},
	}
	if len(layouts) != len(want) {
		t.Fatalf("Expected %d layouts, got %d", len(want), len(layouts))
	}
	for i, w := range want {
		if layouts[i].Name != w.name || layouts[i].Type != w.typ || layouts[i].Index != i {
			t.Errorf("layout %d: got %+v, want %s/%s", i, layouts[i], w.name, w.typ)
		}
	}
}

func TestDocument_Image(t *testing.T) {
	var img bytes.Buffer
	if err := png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 40, 20))); err != nil {
		t.Fatal(err)
	}
	deck := testdeck.Deck{Slides: []testdeck.Slide{{
		Shapes: []testdeck.Shape{
			{ID: 2, Name: "Picture 1", Image: img.Bytes(), Geometry: testdeck.At(0, 0, 400000, 200000)},
			{ID: 3, Name: "Text 2", Text: "caption"},
		},
	}}}
	doc, err := Parse(deck.Bytes())
	if err != nil {
		t.Fatal(err)
	}

	data, err := doc.Image(0, 2)
	if err != nil {
		t.Fatalf("Image failed: %v", err)
	}
	if !bytes.Equal(data, img.Bytes()) {
		t.Error("Image bytes differ from the embedded file")
	}

	if _, err := doc.Image(0, 3); deckerr.KindOf(err) != deckerr.NotFound {
		t.Errorf("Expected NotFound for a text shape, got %v", err)
	}
}

func TestDocument_SaveRoundTrip(t *testing.T) {
	doc := openStandard(t)
	if err := doc.SetShapeGeometry(1, 3, model.EMUGeometry{X: 1, Y: 2, Cx: 3, Cy: 4}); err != nil {
		t.Fatal(err)
	}
	if !doc.Modified() {
		t.Fatal("Document should be modified")
	}

	path := filepath.Join(t.TempDir(), "out.pptx")
	if err := doc.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if doc.Modified() {
		t.Error("Save should clear the modified flag")
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	if reopened.Fingerprint("deck") != doc.Fingerprint("deck") {
		t.Error("Fingerprint changed across save")
	}
	sh, _ := reopened.Shape(1, 3)
	if *sh.Geometry != (model.EMUGeometry{X: 1, Y: 2, Cx: 3, Cy: 4}) {
		t.Errorf("Geometry not persisted: %+v", sh.Geometry)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("Temporary files left behind: %v", entries)
	}
}

func TestDocument_BytesDeterministic(t *testing.T) {
	doc := openStandard(t)
	a, err := doc.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := doc.Bytes()
	if !bytes.Equal(a, b) {
		t.Error("Bytes should be deterministic")
	}
}

func TestSave_KeepsMode(t *testing.T) {
	path := testdeck.Standard().WriteTemp(t)
	if err := os.Chmod(path, 0o600); err != nil {
		t.Fatal(err)
	}
	doc, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := doc.Save(path); err != nil {
		t.Fatal(err)
	}
	st, _ := os.Stat(path)
	if st.Mode().Perm() != 0o600 {
		t.Errorf("Expected mode 0600, got %v", st.Mode().Perm())
	}
}

func TestNew(t *testing.T) {
	doc, err := New(model.NewCanvas(12192000, 6858000))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if doc.SlideCount() != 0 {
		t.Errorf("Expected no slides, got %d", doc.SlideCount())
	}
	if !doc.Modified() {
		t.Error("A new document is unsaved")
	}
	layouts := doc.Layouts()
	if len(layouts) != 1 || layouts[0].Name != "Blank" || layouts[0].Type != "blank" {
		t.Errorf("Unexpected layouts %+v", layouts)
	}

	data, err := doc.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	back, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse of a new document failed: %v", err)
	}
	if c := back.Canvas(); c.Width != 12192000 || c.Height != 6858000 {
		t.Errorf("Canvas not persisted: %+v", c)
	}
}

func TestNew_InvalidCanvas(t *testing.T) {
	_, err := New(model.NewCanvas(0, 100))
	if deckerr.KindOf(err) != deckerr.OutOfRange {
		t.Errorf("Expected OutOfRange, got %v", err)
	}
}

func TestDocument_Summary(t *testing.T) {
	doc := openStandard(t)
	s := doc.Summary("deck.pptx")

	if s.Name != "deck.pptx" || len(s.Elements) != 3 {
		t.Fatalf("Unexpected summary %+v", s)
	}
	// 3 slides, 2+2 shapes, 1 group with 2 children.
	if got := s.Count(); got != 10 {
		t.Errorf("Expected 10 elements, got %d", got)
	}
	if s.Elements[1].ID != "257" || s.Elements[1].Kind != "slide" {
		t.Errorf("Unexpected slide element %+v", s.Elements[1])
	}
	if s.Elements[1].Children[1].Text != "Revenue up\nCosts down" {
		t.Errorf("Unexpected shape text %q", s.Elements[1].Children[1].Text)
	}
	if len(doc.Fingerprint("deck.pptx")) != 64 {
		t.Error("Fingerprint should be 64 hex characters")
	}
}
