package hdre

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	// Magic is the container signature.
	Magic = "HDRE"
	// Version is the version written by this package.
	Version float32 = 3.0
	// HeaderSize is the size of the fixed header in bytes.
	HeaderSize = 256
	// MaxFileSize is the declared max file size written into every header.
	MaxFileSize float32 = 60e6

	minVersion = 2.0
	maxVersion = 1000.0

	littleEndianFlag = 1
)

// header field offsets
const (
	offVersion      = 4
	offWidth        = 8
	offHeight       = 10
	offMaxFileSize  = 12
	offChannels     = 16
	offBits         = 18
	offHeaderSize   = 20
	offEndianness   = 22
	offMaxLuminance = 24
	offSampleType   = 28
	offHasSH        = 30
	offSHCount      = 32
	offSH           = 36

	// MaxSHCoefficients is the number of float SH values the header can hold.
	MaxSHCoefficients = (HeaderSize - offSH) / 4 / 3 * 3
)

// Header is the decoded fixed header of an HDRE container.
type Header struct {
	Version        float32    `json:"version"`
	Width          int        `json:"width"`
	Height         int        `json:"height"`
	MaxFileSize    float32    `json:"maxFileSize"`
	Channels       int        `json:"channels"`
	BitsPerChannel int        `json:"bitsPerChannel"`
	HeaderSize     int        `json:"headerSize"`
	Endianness     uint16     `json:"endianness"`
	MaxLuminance   float32    `json:"maxLuminance"`
	SampleType     SampleType `json:"sampleType"`
	// SH holds spherical-harmonics coefficients as RGB triplets, nil if absent.
	SH []float32 `json:"sh,omitempty"`
}

// Legacy reports whether the header predates version 3.0.
func (h *Header) Legacy() bool {
	return h.Version < 3.0
}

// LevelSize returns the face width of the given level under this header's
// version policy.
func (h *Header) LevelSize(level int) int {
	return LevelSize(h.Width, level, h.Version)
}

// marshal encodes the header into a HeaderSize byte slice.
func (h *Header) marshal() ([]byte, error) {
	w, err := u16FromInt(h.Width)
	if err != nil {
		return nil, fmt.Errorf("%w: width %d", err, h.Width)
	}
	ht, err := u16FromInt(h.Height)
	if err != nil {
		return nil, fmt.Errorf("%w: height %d", err, h.Height)
	}
	if len(h.SH)%3 != 0 {
		return nil, fmt.Errorf("%w: %d coefficients", ErrInvalidSH, len(h.SH))
	}
	if len(h.SH) > MaxSHCoefficients {
		return nil, fmt.Errorf("%w: %d > %d", ErrSHTooLarge, len(h.SH), MaxSHCoefficients)
	}

	buf := make([]byte, HeaderSize)
	le := binary.LittleEndian

	copy(buf, Magic)
	le.PutUint32(buf[offVersion:], math.Float32bits(h.Version))
	le.PutUint16(buf[offWidth:], w)
	le.PutUint16(buf[offHeight:], ht)
	le.PutUint32(buf[offMaxFileSize:], math.Float32bits(h.MaxFileSize))
	le.PutUint16(buf[offChannels:], uint16(h.Channels))
	le.PutUint16(buf[offBits:], uint16(h.BitsPerChannel))
	le.PutUint16(buf[offHeaderSize:], HeaderSize)
	le.PutUint16(buf[offEndianness:], littleEndianFlag)
	le.PutUint32(buf[offMaxLuminance:], math.Float32bits(h.MaxLuminance))
	le.PutUint16(buf[offSampleType:], uint16(h.SampleType))

	if len(h.SH) > 0 {
		le.PutUint16(buf[offHasSH:], 1)
		le.PutUint32(buf[offSHCount:], math.Float32bits(float32(len(h.SH)/3)))
		for i, c := range h.SH {
			le.PutUint32(buf[offSH+i*4:], math.Float32bits(c))
		}
	}

	return buf, nil
}

// parseHeader decodes and validates the header of data.
// Checks run in order: signature, version range, declared file size.
func parseHeader(data []byte) (*Header, error) {
	if len(data) < len(Magic) {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncatedHeader, len(data))
	}
	if string(data[:len(Magic)]) != Magic {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSignature, data[:len(Magic)])
	}
	if len(data) < offSH {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncatedHeader, len(data))
	}

	le := binary.LittleEndian
	h := &Header{
		Version:        math.Float32frombits(le.Uint32(data[offVersion:])),
		Width:          int(le.Uint16(data[offWidth:])),
		Height:         int(le.Uint16(data[offHeight:])),
		MaxFileSize:    math.Float32frombits(le.Uint32(data[offMaxFileSize:])),
		Channels:       int(le.Uint16(data[offChannels:])),
		BitsPerChannel: int(le.Uint16(data[offBits:])),
		HeaderSize:     int(le.Uint16(data[offHeaderSize:])),
		Endianness:     le.Uint16(data[offEndianness:]),
		MaxLuminance:   math.Float32frombits(le.Uint32(data[offMaxLuminance:])),
		SampleType:     SampleType(le.Uint16(data[offSampleType:])),
	}

	if !(h.Version > minVersion && h.Version < maxVersion) {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedVersion, h.Version)
	}
	if !(float64(len(data)) <= float64(h.MaxFileSize)) {
		return nil, fmt.Errorf("%w: %d bytes, declared max %v", ErrFileTooLarge, len(data), h.MaxFileSize)
	}
	if h.HeaderSize < offSH || h.HeaderSize > len(data) {
		return nil, fmt.Errorf("%w: %d (file %d bytes)", ErrInvalidHeaderSize, h.HeaderSize, len(data))
	}
	if !h.SampleType.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleType, h.SampleType)
	}
	if h.Channels < 1 || h.Channels > 4 || (h.SampleType == SampleRGBE && h.Channels != 4) {
		return nil, fmt.Errorf("%w: %d for %s samples", ErrInvalidChannels, h.Channels, h.SampleType)
	}

	if le.Uint16(data[offHasSH:]) != 0 {
		count := math.Float32frombits(le.Uint32(data[offSHCount:]))
		if !(count >= 0) || math.IsInf(float64(count), 0) || count != float32(int(count)) {
			return nil, fmt.Errorf("%w: count %v", ErrInvalidSH, count)
		}
		n := int(count) * 3
		if offSH+n*4 > h.HeaderSize {
			return nil, fmt.Errorf("%w: %d coefficients in %d byte header", ErrSHTooLarge, n, h.HeaderSize)
		}
		h.SH = make([]float32, n)
		for i := range h.SH {
			h.SH[i] = math.Float32frombits(le.Uint32(data[offSH+i*4:]))
		}
	}

	return h, nil
}
