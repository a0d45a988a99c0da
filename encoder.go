package typstbot

import (
	"bytes"
	"fmt"
	"image/png"
)

// Encoder abstracts lossless raster image encoding of a pixel buffer.
type Encoder interface {
	Encode(p *Pixmap) ([]byte, error)
}

// pngEncoder encodes pixmaps as 8-bit-per-channel RGBA PNG. Encoding a valid
// pixmap never fails; an error here indicates a programming or environment
// fault, not a render-level condition.
type pngEncoder struct{}

func (pngEncoder) Encode(p *Pixmap) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, p.ToImage()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodeImage, err)
	}
	return buf.Bytes(), nil
}
