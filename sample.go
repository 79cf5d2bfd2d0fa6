package hdre

import (
	"encoding/binary"
	"math"

	"github.com/mrjoshuak/go-openexr/half"

	"github.com/woozymasta/hdre/rgbe"
)

// SampleType is the on-disk encoding of face samples.
//
// Faces are always held in memory as float32 samples. SampleByte stores them
// rounded and clamped to 0..255; SampleRGBE stores 4-channel linear pixels as
// shared-exponent quads and decodes them back to linear RGB with alpha 1.
type SampleType uint16

// Sample-type tags as stored at header offset 28.
const (
	SampleByte  SampleType = 1
	SampleHalf  SampleType = 2
	SampleFloat SampleType = 3
	SampleRGBE  SampleType = 4
)

// Valid reports whether t is a known tag.
func (t SampleType) Valid() bool {
	return t >= SampleByte && t <= SampleRGBE
}

// BytesPerSample returns the encoded size of one sample.
func (t SampleType) BytesPerSample() int {
	switch t {
	case SampleByte, SampleRGBE:
		return 1
	case SampleHalf:
		return 2
	case SampleFloat:
		return 4
	default:
		return 0
	}
}

func (t SampleType) String() string {
	switch t {
	case SampleByte:
		return "byte"
	case SampleHalf:
		return "half"
	case SampleFloat:
		return "float"
	case SampleRGBE:
		return "rgbe"
	default:
		return "unknown"
	}
}

// ParseSampleType maps a name from String back to a tag.
func ParseSampleType(name string) (SampleType, bool) {
	for t := SampleByte; t <= SampleRGBE; t++ {
		if t.String() == name {
			return t, true
		}
	}

	return 0, false
}

// encodeSamples writes src into dst using the given type.
// dst must hold len(src)*t.BytesPerSample() bytes.
func encodeSamples(dst []byte, src []float32, t SampleType) {
	switch t {
	case SampleByte:
		for i, v := range src {
			dst[i] = clampByte(v)
		}
	case SampleHalf:
		for i, v := range src {
			binary.LittleEndian.PutUint16(dst[i*2:], uint16(half.FromFloat32(v)))
		}
	case SampleFloat:
		for i, v := range src {
			binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
		}
	case SampleRGBE:
		rgbe.EncodeBuffer(dst, src, 4)
	}
}

// decodeSamples fills dst from src using the given type.
// src must hold len(dst)*t.BytesPerSample() bytes.
func decodeSamples(dst []float32, src []byte, t SampleType) {
	switch t {
	case SampleByte:
		for i := range dst {
			dst[i] = float32(src[i])
		}
	case SampleHalf:
		for i := range dst {
			dst[i] = half.FromBits(binary.LittleEndian.Uint16(src[i*2:])).Float32()
		}
	case SampleFloat:
		for i := range dst {
			dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
		}
	case SampleRGBE:
		rgbe.DecodeBuffer(dst, src, 4)
	}
}

func clampByte(v float32) byte {
	switch {
	case !(v > 0):
		return 0
	case v >= 255:
		return 255
	default:
		return byte(v + 0.5)
	}
}
