package storage

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestValidateImage(t *testing.T) {
	p := NewImageProcessor()

	assert.NoError(t, p.ValidateImage(pngBytes(t, 40, 60)))

	err := p.ValidateImage([]byte("not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	var gifBuf bytes.Buffer
	require.NoError(t, gif.Encode(&gifBuf, image.NewPaletted(image.Rect(0, 0, 4, 4), []color.Color{color.Black, color.White}), nil))
	assert.ErrorIs(t, p.ValidateImage(gifBuf.Bytes()), ErrUnsupportedFormat)

	small := &ImageProcessor{MaxSize: 10}
	assert.ErrorIs(t, small.ValidateImage(pngBytes(t, 40, 60)), ErrImageTooLarge)
}

func TestProcessImageVariants(t *testing.T) {
	p := NewImageProcessor()
	variants, err := p.ProcessImage(pngBytes(t, 800, 1200))
	require.NoError(t, err)
	require.Len(t, variants, len(CoverVariants))

	thumb, _, err := image.DecodeConfig(bytes.NewReader(variants["thumbnail"]))
	require.NoError(t, err)
	assert.Equal(t, 200, thumb.Height)
	assert.LessOrEqual(t, thumb.Width, 200)

	medium, format, err := image.DecodeConfig(bytes.NewReader(variants["medium"]))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 600, medium.Height)
}
