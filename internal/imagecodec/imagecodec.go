// Package imagecodec defines the boundary spec §1 puts out of scope:
// compressing a pixel buffer to an opaque byte blob and back. The
// default implementation is a thin standard-library image/jpeg
// wrapper, acceptable here specifically because the codec itself is
// the external collaborator the spec excludes — see DESIGN.md.
package imagecodec

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

// Codec compresses and decompresses one still image.
type Codec interface {
	Encode(img image.Image) ([]byte, error)
	Decode(data []byte) (image.Image, error)
}

// JPEGCodec is the default Codec, sufficient to make cmd/freetvd
// runnable end to end without pulling in any particular still-image
// format as part of this repo's own domain.
type JPEGCodec struct {
	// Quality is the JPEG quality factor, 1-100.
	Quality int
}

// NewJPEGCodec returns a JPEGCodec at a reasonable default quality for
// a narrowband link: small files matter more than fidelity.
func NewJPEGCodec() *JPEGCodec {
	return &JPEGCodec{Quality: 50}
}

func (c *JPEGCodec) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	quality := c.Quality
	if quality <= 0 {
		quality = jpeg.DefaultQuality
	}
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("imagecodec: encoding: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *JPEGCodec) Decode(data []byte) (image.Image, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imagecodec: decoding: %w", err)
	}
	return img, nil
}
