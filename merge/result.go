package merge

import (
	"image"
	"image/color"
	"math"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/hdrcolor"
)

// ChannelStatistics summarizes one channel of a merge.
type ChannelStatistics struct {
	// Min, Max and Average are over the composed log radiance.
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`
	// ReferenceAverage is the mean reference intensity divided by 255.
	ReferenceAverage float64 `json:"reference_average"`
}

// Statistics is returned with every merge result.
type Statistics struct {
	Channels [Channels]ChannelStatistics `json:"channels"`
}

var _ hdr.Image = (*Result)(nil)

// Result is a composed radiance image. Pix holds interleaved RGB log radiance.
// As an hdr.Image it yields linear radiance.
type Result struct {
	Width  int
	Height int
	Pix    []float32
	Stats  Statistics
}

// Linear returns interleaved RGB radiance, exp of Pix.
func (r *Result) Linear() []float32 {
	out := make([]float32, len(r.Pix))
	for i, v := range r.Pix {
		out[i] = float32(math.Exp(float64(v)))
	}

	return out
}

// RGBA returns interleaved linear RGBA with alpha 1, the layout the cubemap
// packages expect.
func (r *Result) RGBA() []float32 {
	n := r.Width * r.Height
	out := make([]float32, n*4)
	for i := 0; i < n; i++ {
		for c := 0; c < Channels; c++ {
			out[i*4+c] = float32(math.Exp(float64(r.Pix[i*Channels+c])))
		}
		out[i*4+3] = 1
	}

	return out
}

// ColorModel implements image.Image.
func (r *Result) ColorModel() color.Model { return hdrcolor.RGBModel }

// Bounds implements image.Image.
func (r *Result) Bounds() image.Rectangle { return image.Rect(0, 0, r.Width, r.Height) }

// At implements image.Image.
func (r *Result) At(x, y int) color.Color { return r.HDRAt(x, y) }

// Size implements hdr.Image.
func (r *Result) Size() int { return r.Width * r.Height }

// HDRAt implements hdr.Image.
func (r *Result) HDRAt(x, y int) hdrcolor.Color {
	if !(image.Point{X: x, Y: y}.In(r.Bounds())) {
		return hdrcolor.RGB{}
	}

	i := (y*r.Width + x) * Channels
	return hdrcolor.RGB{
		R: math.Exp(float64(r.Pix[i])),
		G: math.Exp(float64(r.Pix[i+1])),
		B: math.Exp(float64(r.Pix[i+2])),
	}
}
