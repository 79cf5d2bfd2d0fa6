package preview

import (
	"fmt"
	"image"
	"math"

	"github.com/woozymasta/hdre"
	"golang.org/x/image/draw"
)

// TonemapOptions configures Tonemap.
type TonemapOptions struct {
	// Exposure is applied in stops before compression.
	Exposure float64
	// Gamma is the display gamma. Zero means 2.2.
	Gamma float64
	// Size is the output width. Zero keeps the cross width; height follows 4:3.
	Size int
}

// Tonemap renders a cubemap level as a horizontal cross. Radiance is scaled
// by 2^Exposure, compressed with x/(1+x) and gamma encoded. Cells without a
// face are transparent.
func Tonemap(l *hdre.Level, channels int, opts *TonemapOptions) (*image.NRGBA, error) {
	if l == nil || l.Width <= 0 {
		return nil, ErrEmptyLevel
	}
	if channels < 1 || channels > 4 {
		return nil, fmt.Errorf("%w: %d", hdre.ErrInvalidChannels, channels)
	}
	for f, face := range l.Faces {
		if len(face) != l.Width*l.Width*channels {
			return nil, fmt.Errorf("%w: face %s has %d samples", hdre.ErrFaceSizeMismatch, hdre.Face(f), len(face))
		}
	}

	exposure, gamma, size := 0.0, 2.2, 0
	if opts != nil {
		exposure, size = opts.Exposure, opts.Size
		if opts.Gamma > 0 {
			gamma = opts.Gamma
		}
	}
	scale := math.Exp2(exposure)
	invGamma := 1 / gamma

	pix, width, height := hdre.AssembleCross(l, channels)
	var used [4][3]bool
	for f := hdre.Face(0); f < hdre.FaceCount; f++ {
		col, row := hdre.CrossCell(f)
		used[col][row] = true
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	cell := l.Width
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !used[x/cell][y/cell] {
				continue
			}
			src := pix[(y*width+x)*channels:]
			dst := img.Pix[y*img.Stride+x*4:]
			for c := 0; c < 3; c++ {
				v := src[0]
				if c < channels {
					v = src[c]
				}
				dst[c] = display(float64(v)*scale, invGamma)
			}
			dst[3] = 255
		}
	}

	if size <= 0 || size == width {
		return img, nil
	}

	out := image.NewNRGBA(image.Rect(0, 0, size, max(1, size*3/4)))
	draw.CatmullRom.Scale(out, out.Bounds(), img, img.Bounds(), draw.Src, nil)
	hdre.Logger().Debug("preview: scaled", "from", width, "to", size)

	return out, nil
}

// display compresses linear radiance into an 8-bit display value.
func display(v, invGamma float64) uint8 {
	if !(v > 0) {
		return 0
	}
	if math.IsInf(v, 1) {
		return 255
	}
	d := math.Pow(v/(1+v), invGamma)

	return uint8(math.Round(math.Min(1, d) * 255))
}
