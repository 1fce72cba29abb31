package imagecodec

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 16), B: 128, A: 255})
		}
	}
	return img
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := NewJPEGCodec()
	data, err := c.Encode(testImage())
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	decoded, err := c.Decode(data)
	require.NoError(t, err)
	bounds := decoded.Bounds()
	assert.Equal(t, 8, bounds.Dx())
	assert.Equal(t, 8, bounds.Dy())
}

func TestDecodeRejectsGarbage(t *testing.T) {
	c := NewJPEGCodec()
	_, err := c.Decode([]byte("not a jpeg"))
	assert.Error(t, err)
}
