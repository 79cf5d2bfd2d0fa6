package main

import (
	"image"
	"image/color"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/hdrcolor"
)

var _ hdr.Image = (*radianceImage)(nil)

// radianceImage exposes interleaved linear RGB to the Radiance encoder.
type radianceImage struct {
	width, height int
	pix           []float32
}

func (m *radianceImage) ColorModel() color.Model { return hdrcolor.RGBModel }

func (m *radianceImage) Bounds() image.Rectangle { return image.Rect(0, 0, m.width, m.height) }

func (m *radianceImage) At(x, y int) color.Color { return m.HDRAt(x, y) }

func (m *radianceImage) Size() int { return m.width * m.height }

func (m *radianceImage) HDRAt(x, y int) hdrcolor.Color {
	if !(image.Point{X: x, Y: y}.In(m.Bounds())) {
		return hdrcolor.RGB{}
	}
	i := (y*m.width + x) * 3

	return hdrcolor.RGB{R: float64(m.pix[i]), G: float64(m.pix[i+1]), B: float64(m.pix[i+2])}
}

// rgba widens pix to RGBA with alpha 1.
func (m *radianceImage) rgba() []float32 {
	n := m.width * m.height
	out := make([]float32, n*4)
	for i := 0; i < n; i++ {
		copy(out[i*4:i*4+3], m.pix[i*3:i*3+3])
		out[i*4+3] = 1
	}

	return out
}
