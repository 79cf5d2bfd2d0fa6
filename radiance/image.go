package radiance

import (
	"image"
	"image/color"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/hdrcolor"
)

var _ hdr.Image = (*Image)(nil)

// Image is a decoded Radiance image: interleaved RGBA float32 samples,
// rows top to bottom.
type Image struct {
	Header
	Channels int
	Encoding Encoding
	Pix      []float32
}

// ColorModel implements image.Image.
func (m *Image) ColorModel() color.Model { return hdrcolor.RGBModel }

// Bounds implements image.Image.
func (m *Image) Bounds() image.Rectangle { return image.Rect(0, 0, m.Width, m.Height) }

// At implements image.Image.
func (m *Image) At(x, y int) color.Color { return m.HDRAt(x, y) }

// Size implements hdr.Image.
func (m *Image) Size() int { return m.Width * m.Height }

// HDRAt implements hdr.Image.
func (m *Image) HDRAt(x, y int) hdrcolor.Color {
	if !(image.Point{X: x, Y: y}.In(m.Bounds())) {
		return hdrcolor.RGB{}
	}

	i := (y*m.Width + x) * m.Channels
	return hdrcolor.RGB{R: float64(m.Pix[i]), G: float64(m.Pix[i+1]), B: float64(m.Pix[i+2])}
}
