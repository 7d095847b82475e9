package media

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/tsawler/deckforge/deckerr"
	"github.com/tsawler/deckforge/model"
)

func encode(t *testing.T, format string, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 0, G: 112, B: 192, A: 255})

	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg":
		err = jpeg.Encode(&buf, img, nil)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	case "bmp":
		err = bmp.Encode(&buf, img)
	default:
		t.Fatalf("unknown format %s", format)
	}
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDecodeBytes(t *testing.T) {
	tests := []struct {
		format string
		mime   string
	}{
		{"png", "image/png"},
		{"jpeg", "image/jpeg"},
		{"gif", "image/gif"},
		{"bmp", "image/bmp"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			img, err := DecodeBytes(encode(t, tt.format, 160, 90))
			require.NoError(t, err)
			assert.Equal(t, tt.format, img.Format)
			assert.Equal(t, tt.mime, img.MIME)
			assert.Equal(t, 160, img.Width)
			assert.Equal(t, 90, img.Height)
		})
	}
}

func TestImage_Size(t *testing.T) {
	img := Image{Width: 96, Height: 48}
	assert.Equal(t, model.Size{Width: model.EMUPerInch, Height: model.EMUPerInch / 2}, img.Size())

	g := img.Intrinsic()
	require.NotNil(t, g)
	assert.Equal(t, 0.0, g.Left)
	assert.InDelta(t, 2.0, g.Size().AspectRatio(), 1e-12)
}

func TestDecode_NotAnImage(t *testing.T) {
	_, err := DecodeBytes([]byte("PK\x03\x04 not an image at all"))
	assert.ErrorIs(t, err, deckerr.ErrInvalidDocument)

	_, err = DecodeBytes(nil)
	assert.ErrorIs(t, err, deckerr.ErrInvalidDocument)
}

func TestDecode_Truncated(t *testing.T) {
	data := encode(t, "png", 10, 10)
	_, err := DecodeBytes(data[:20])
	assert.ErrorIs(t, err, deckerr.ErrInvalidDocument)
}

func TestDecodeFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "logo.png")
	require.NoError(t, os.WriteFile(p, encode(t, "png", 400, 300), 0o644))

	img, err := DecodeFile(p)
	require.NoError(t, err)
	assert.Equal(t, 400, img.Width)
	assert.Equal(t, 300, img.Height)

	_, err = DecodeFile(filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, deckerr.ErrIO)

	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("hello"), 0o644))
	_, err = DecodeFile(bad)
	var e *deckerr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, bad, e.Path)
}
