package exrmeta

import (
	"image"
	"image/color"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/hdrcolor"
)

var _ hdr.Image = (*Image)(nil)

// Image is decoded OpenEXR pixel data, interleaved in header channel order.
type Image struct {
	Header   *Header
	Width    int
	Height   int
	Channels int
	Pix      []float32
}

// channelIndex returns the position of the named channel, or -1.
func (m *Image) channelIndex(name string) int {
	for i, ch := range m.Header.Channels {
		if ch.Name == name {
			return i
		}
	}

	return -1
}

// RGBA returns the pixels as interleaved R, G, B, A. A missing alpha becomes 1
// and a luminance-only Y channel is replicated into R, G and B.
func (m *Image) RGBA() []float32 {
	src := [4]int{m.channelIndex("R"), m.channelIndex("G"), m.channelIndex("B"), m.channelIndex("A")}
	if src[0] < 0 && src[1] < 0 && src[2] < 0 {
		y := m.channelIndex("Y")
		src[0], src[1], src[2] = y, y, y
	}

	n := m.Width * m.Height
	out := make([]float32, n*4)
	for i := 0; i < n; i++ {
		px := m.Pix[i*m.Channels:]
		for c, s := range src {
			switch {
			case s >= 0:
				out[i*4+c] = px[s]
			case c == 3:
				out[i*4+c] = 1
			}
		}
	}

	return out
}

// ColorModel implements image.Image.
func (m *Image) ColorModel() color.Model { return hdrcolor.RGBModel }

// Bounds implements image.Image.
func (m *Image) Bounds() image.Rectangle { return image.Rect(0, 0, m.Width, m.Height) }

// At implements image.Image.
func (m *Image) At(x, y int) color.Color { return m.HDRAt(x, y) }

// Size implements hdr.Image.
func (m *Image) Size() int { return m.Width * m.Height }

// HDRAt implements hdr.Image. Channels are resolved by name on every call.
func (m *Image) HDRAt(x, y int) hdrcolor.Color {
	if !(image.Point{X: x, Y: y}.In(m.Bounds())) {
		return hdrcolor.RGB{}
	}

	px := m.Pix[(y*m.Width+x)*m.Channels:]
	get := func(name string) float64 {
		if i := m.channelIndex(name); i >= 0 {
			return float64(px[i])
		}
		if i := m.channelIndex("Y"); i >= 0 {
			return float64(px[i])
		}
		return 0
	}

	return hdrcolor.RGB{R: get("R"), G: get("G"), B: get("B")}
}
