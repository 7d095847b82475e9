// Package media reads the intrinsic size of images placed on slides, which
// supplies the aspect ratio for auto sizing.
package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/tsawler/deckforge/deckerr"
	"github.com/tsawler/deckforge/model"
)

// headerSize is enough for filetype to match every image signature.
const headerSize = 261

// Image describes a decoded image header.
type Image struct {
	Format string `json:"format"` // as reported by image.DecodeConfig
	MIME   string `json:"mime"`
	Width  int    `json:"width"` // pixels
	Height int    `json:"height"`
}

// Size returns the pixel size converted to EMUs at 96 DPI.
func (i Image) Size() model.Size {
	return model.Size{
		Width:  float64(i.Width) * model.EMUPerPixel,
		Height: float64(i.Height) * model.EMUPerPixel,
	}
}

// Intrinsic returns the natural geometry of the image at the origin.
func (i Image) Intrinsic() *model.Geometry {
	g := model.NewGeometry(model.Point{}, i.Size())
	return &g
}

// Decode reads an image header from r.
func Decode(r io.Reader) (Image, error) {
	const op = "read image"

	head := make([]byte, headerSize)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return Image{}, deckerr.Wrap(deckerr.IO, op, "", err)
	}
	head = head[:n]

	if !filetype.IsImage(head) {
		return Image{}, deckerr.New(deckerr.InvalidDocument, op, "not an image")
	}
	kind, _ := filetype.Match(head)

	cfg, format, err := image.DecodeConfig(io.MultiReader(bytes.NewReader(head), r))
	if err != nil {
		return Image{}, &deckerr.Error{
			Kind:  deckerr.InvalidDocument,
			Op:    op,
			Value: kind.MIME.Value,
			Err:   fmt.Errorf("unsupported image: %w", err),
		}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Image{}, deckerr.New(deckerr.InvalidDocument, op, "empty image %dx%d", cfg.Width, cfg.Height)
	}

	return Image{Format: format, MIME: kind.MIME.Value, Width: cfg.Width, Height: cfg.Height}, nil
}

// DecodeFile reads the image header of the file at path.
func DecodeFile(path string) (Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return Image{}, deckerr.Wrap(deckerr.IO, "read image", path, err)
	}
	defer f.Close()

	img, err := Decode(f)
	if err != nil {
		if e, ok := err.(*deckerr.Error); ok && e.Path == "" {
			e.Path = path
		}
		return Image{}, err
	}
	return img, nil
}

// DecodeBytes reads the image header from data.
func DecodeBytes(data []byte) (Image, error) {
	return Decode(bytes.NewReader(data))
}
