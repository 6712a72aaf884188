package storage

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTestImage(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}

	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func decodeVariant(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format, "all variants are stored as JPEG")
	return img
}

func TestCoverProcessorDerive(t *testing.T) {
	p := NewCoverProcessor()
	src := makeTestImage(t, 600, 800)

	variants := p.Derive(src)
	require.Len(t, variants, 2)

	assert.Equal(t, VariantOriginal, variants[0].Name)
	assert.Equal(t, "original.jpg", variants[0].Filename())
	original := decodeVariant(t, variants[0].Data)
	assert.Equal(t, 600, original.Bounds().Dx())
	assert.Equal(t, 800, original.Bounds().Dy())

	assert.Equal(t, VariantThumbnail, variants[1].Name)
	assert.Equal(t, "thumbnail.jpg", variants[1].Filename())
	thumb := decodeVariant(t, variants[1].Data)
	assert.LessOrEqual(t, thumb.Bounds().Dx(), thumbnailMaxWidth)
	assert.LessOrEqual(t, thumb.Bounds().Dy(), thumbnailMaxHeight)
}

func TestCoverProcessorDeriveSmallImageNotUpscaled(t *testing.T) {
	p := NewCoverProcessor()
	src := makeTestImage(t, 90, 120)

	variants := p.Derive(src)
	require.Len(t, variants, 2)

	thumb := decodeVariant(t, variants[1].Data)
	assert.Equal(t, 90, thumb.Bounds().Dx())
	assert.Equal(t, 120, thumb.Bounds().Dy())
}

func TestCoverProcessorDeriveInvalidInput(t *testing.T) {
	p := NewCoverProcessor()

	assert.Nil(t, p.Derive(nil))
	assert.Nil(t, p.Derive([]byte{}))
	assert.Nil(t, p.Derive([]byte("not an image at all")))
}
