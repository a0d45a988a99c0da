package typstbot

import (
	"context"
	"image"
	"image/color"
)

// Rasterizer abstracts the external page rasterizer. It converts one page's
// content into pixels at the given pixels-per-point scale, painting the
// background with fill.
type Rasterizer interface {
	Rasterize(ctx context.Context, page Page, pixelsPerPoint float32, fill color.NRGBA) (*Pixmap, error)
}

// Pixmap is a rectangular RGBA8 pixel buffer, 4 bytes per pixel in row-major
// order.
type Pixmap struct {
	width  int
	height int
	pix    []uint8
}

// NewPixmap creates a pixmap with the given dimensions. The buffer starts
// zeroed (transparent black).
func NewPixmap(width, height int) *Pixmap {
	return &Pixmap{
		width:  width,
		height: height,
		pix:    make([]uint8, width*height*4),
	}
}

// PixmapFrom wraps existing RGBA8 pixel data. Returns nil when the buffer
// does not match width*height*4 bytes.
func PixmapFrom(width, height int, pix []uint8) *Pixmap {
	if len(pix) != width*height*4 {
		return nil
	}
	return &Pixmap{width: width, height: height, pix: pix}
}

// Width returns the pixmap width in pixels.
func (p *Pixmap) Width() int { return p.width }

// Height returns the pixmap height in pixels.
func (p *Pixmap) Height() int { return p.height }

// Pix returns the raw RGBA pixel data.
func (p *Pixmap) Pix() []uint8 { return p.pix }

// Fill sets every pixel to c.
func (p *Pixmap) Fill(c color.NRGBA) {
	for i := 0; i < len(p.pix); i += 4 {
		p.pix[i+0] = c.R
		p.pix[i+1] = c.G
		p.pix[i+2] = c.B
		p.pix[i+3] = c.A
	}
}

// ToImage converts the pixmap to an image.NRGBA sharing no memory with the
// pixmap.
func (p *Pixmap) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, p.width, p.height))
	copy(img.Pix, p.pix)
	return img
}
