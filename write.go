package hdre

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
)

// WriteOptions configures container writing.
type WriteOptions struct {
	// SampleType selects the payload encoding. Zero means SampleFloat.
	SampleType SampleType
	// RGBE stores 4-channel pixels as shared-exponent quads,
	// overriding SampleType.
	RGBE bool
	// Channels is the stored channel count, 1..4. Zero means 4.
	// Faces supplied with 4 channels are reduced to the first Channels
	// samples of every pixel, so 3 drops alpha.
	Channels int
	// SH holds optional spherical-harmonics coefficients as RGB triplets.
	SH []float32
}

// Write encodes a mip chain into an HDRE container. levels[i].Width must
// equal LevelSize(width, i, Version); faces hold either Channels or 4 samples
// per pixel.
func Write(levels []Level, width, height int, opts *WriteOptions) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := WriteTo(&buf, levels, width, height, opts); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// WriteFile encodes a mip chain into an HDRE file at path.
func WriteFile(path string, levels []Level, width, height int, opts *WriteOptions) error {
	data, err := Write(levels, width, height, opts)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrCreateFile, path, err)
	}

	return nil
}

// WriteTo encodes a mip chain into w and returns the bytes written.
func WriteTo(w io.Writer, levels []Level, width, height int, opts *WriteOptions) (int64, error) {
	sampleType, channels := SampleFloat, 4
	var sh []float32
	if opts != nil {
		if opts.SampleType != 0 {
			sampleType = opts.SampleType
		}
		if opts.RGBE {
			sampleType = SampleRGBE
		}
		if opts.Channels != 0 {
			channels = opts.Channels
		}
		sh = opts.SH
	}

	if !sampleType.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidSampleType, sampleType)
	}
	if channels < 1 || channels > 4 || (sampleType == SampleRGBE && channels != 4) {
		return 0, fmt.Errorf("%w: %d for %s samples", ErrInvalidChannels, channels, sampleType)
	}
	if len(levels) == 0 {
		return 0, ErrNoLevels
	}
	if len(levels) > MaxLevels {
		return 0, fmt.Errorf("%w: %d > %d", ErrTooManyLevels, len(levels), MaxLevels)
	}

	faces, maxLum, err := storedFaces(levels, width, channels)
	if err != nil {
		return 0, err
	}

	bps := sampleType.BytesPerSample()
	total := HeaderSize
	for _, l := range levels {
		total += levelSamples(l.Width, channels) * bps
	}
	if float64(total) > float64(MaxFileSize) {
		return 0, fmt.Errorf("%w: %d bytes, max %v", ErrFileTooLarge, total, MaxFileSize)
	}

	h := Header{
		Version:        Version,
		Width:          width,
		Height:         height,
		MaxFileSize:    MaxFileSize,
		Channels:       channels,
		BitsPerChannel: bps * 8,
		HeaderSize:     HeaderSize,
		Endianness:     littleEndianFlag,
		MaxLuminance:   maxLum,
		SampleType:     sampleType,
		SH:             sh,
	}
	head, err := h.marshal()
	if err != nil {
		return 0, err
	}

	out := make([]byte, total)
	copy(out, head)
	off := HeaderSize
	for _, face := range faces {
		encodeSamples(out[off:], face, sampleType)
		off += len(face) * bps
	}

	n, err := w.Write(out)
	if err != nil {
		return int64(n), fmt.Errorf("%w: %v", ErrWritePayload, err)
	}

	Logger().Debug("hdre: wrote container",
		"width", width, "levels", len(levels), "channels", channels,
		"sampleType", sampleType.String(), "bytes", n)

	return int64(n), nil
}

// storedFaces validates level sizes, reduces faces to the stored channel
// count and returns them in payload order with the global max sample value.
func storedFaces(levels []Level, width, channels int) ([][]float32, float32, error) {
	faces := make([][]float32, 0, len(levels)*FaceCount)
	maxLum := float32(math.Inf(-1))

	for i := range levels {
		l := &levels[i]
		if want := LevelSize(width, i, Version); l.Width != want {
			return nil, 0, fmt.Errorf("%w: level %d is %d, want %d", ErrLevelSizeMismatch, i, l.Width, want)
		}

		pixels := l.Width * l.Width
		for f, face := range l.Faces {
			var stored []float32
			switch len(face) {
			case pixels * channels:
				stored = face
			case pixels * 4:
				stored = dropChannels(face, channels)
			default:
				return nil, 0, fmt.Errorf("%w: level %d face %s has %d samples, want %d",
					ErrFaceSizeMismatch, i, Face(f), len(face), pixels*channels)
			}

			for _, v := range stored {
				if v > maxLum {
					maxLum = v
				}
			}
			faces = append(faces, stored)
		}
	}

	if math.IsInf(float64(maxLum), -1) {
		maxLum = 0
	}

	return faces, maxLum, nil
}

// dropChannels keeps the first keep samples of every 4-sample pixel.
func dropChannels(src []float32, keep int) []float32 {
	if keep == 4 {
		return src
	}

	dst := make([]float32, 0, len(src)/4*keep)
	for i := 0; i+3 < len(src); i += 4 {
		dst = append(dst, src[i:i+keep]...)
	}

	return dst
}
