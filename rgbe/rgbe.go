// Package rgbe converts between linear float RGB triples and the shared
// exponent RGBE pixel encoding used by Radiance files and the HDRE
// byte-RGBE sample type.
//
// The encoding keeps an 8-bit mantissa per channel, so conversions are lossy
// with a relative error bound of about 1/256 of the largest component.
package rgbe

import "math"

// ExponentBias is added to the binary exponent stored in the fourth byte.
const ExponentBias = 128

// Pixel is one RGBE encoded pixel: three mantissa bytes and a shared exponent.
type Pixel [4]byte

// FromFloat encodes a linear RGB triple. +Inf saturates every byte and NaN
// components encode as zero.
func FromFloat(r, g, b float32) Pixel {
	v := r
	if g > v {
		v = g
	}
	if b > v {
		v = b
	}
	if !(v > 0) {
		return Pixel{}
	}
	if math.IsInf(float64(v), 1) {
		return Pixel{255, 255, 255, 255}
	}

	m, e := math.Frexp(float64(v))
	scale := m * 256 / float64(v)

	return Pixel{
		mantissa(float64(r) * scale),
		mantissa(float64(g) * scale),
		mantissa(float64(b) * scale),
		exponent(e + ExponentBias),
	}
}

// ToFloat decodes a pixel into a linear RGB triple.
// A zero exponent byte decodes to black.
func ToFloat(p Pixel) (r, g, b float32) {
	if p[3] == 0 {
		return 0, 0, 0
	}

	f := math.Ldexp(1, int(p[3])-(ExponentBias+8))

	return float32(float64(p[0]) * f), float32(float64(p[1]) * f), float32(float64(p[2]) * f)
}

// EncodeBuffer encodes interleaved float pixels with the given channel count
// (3 or 4) into dst, four bytes per pixel. Alpha is ignored.
// It returns the number of pixels written.
func EncodeBuffer(dst []byte, src []float32, channels int) int {
	if channels < 3 {
		return 0
	}

	n := len(src) / channels
	if m := len(dst) / 4; m < n {
		n = m
	}
	for i := 0; i < n; i++ {
		s := src[i*channels:]
		p := FromFloat(s[0], s[1], s[2])
		copy(dst[i*4:i*4+4], p[:])
	}

	return n
}

// DecodeBuffer decodes RGBE quads from src into interleaved float pixels with
// the given channel count (3 or 4). The alpha channel, when present, is 1.
// It returns the number of pixels written.
func DecodeBuffer(dst []float32, src []byte, channels int) int {
	if channels < 3 {
		return 0
	}

	n := len(src) / 4
	if m := len(dst) / channels; m < n {
		n = m
	}
	for i := 0; i < n; i++ {
		r, g, b := ToFloat(Pixel(src[i*4 : i*4+4]))
		d := dst[i*channels:]
		d[0], d[1], d[2] = r, g, b
		if channels > 3 {
			d[3] = 1
		}
	}

	return n
}

func mantissa(v float64) byte {
	switch {
	case !(v > 0):
		return 0
	case v >= 255:
		return 255
	default:
		return byte(v)
	}
}

func exponent(e int) byte {
	switch {
	case e < 0:
		return 0
	case e > 255:
		return 255
	default:
		return byte(e)
	}
}
