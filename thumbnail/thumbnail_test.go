package thumbnail

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	return img
}

func TestMake_FromPNG(t *testing.T) {
	var src bytes.Buffer
	require.NoError(t, png.Encode(&src, solid(640, 320)))

	out, err := Make(src.Bytes())
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, Width, cfg.Width)
	assert.Equal(t, Height, cfg.Height)
}

func TestMake_FromSmallJPEG(t *testing.T) {
	var src bytes.Buffer
	require.NoError(t, jpeg.Encode(&src, solid(40, 90), nil))

	out, err := Make(src.Bytes())
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, Width, cfg.Width)
	assert.Equal(t, Height, cfg.Height)
}

func TestMake_RejectsGarbage(t *testing.T) {
	_, err := Make([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrThumbnail)

	_, err = Make(nil)
	assert.ErrorIs(t, err, ErrThumbnail)
}
