package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/woozymasta/hdre"
	"github.com/woozymasta/hdre/exrmeta"
	"github.com/woozymasta/hdre/radiance"
)

// ErrUnknownFormat indicates an input that is neither HDRE, Radiance nor OpenEXR.
var ErrUnknownFormat = errors.New("unknown input format")

// Channels is the channel count of decoded face sets (RGBA).
const Channels = 4

// Format is a supported input format.
type Format int

// Input formats.
const (
	FormatUnknown Format = iota
	FormatHDRE
	FormatRadiance
	FormatEXR
)

func (f Format) String() string {
	switch f {
	case FormatHDRE:
		return "hdre"
	case FormatRadiance:
		return "radiance"
	case FormatEXR:
		return "exr"
	default:
		return "unknown"
	}
}

var exrMagic = []byte{0x76, 0x2f, 0x31, 0x01}

// Detect picks the format from magic bytes, falling back to the file
// extension of name.
func Detect(name string, data []byte) Format {
	switch {
	case bytes.HasPrefix(data, []byte(hdre.Magic)):
		return FormatHDRE
	case bytes.HasPrefix(data, []byte("#?")):
		return FormatRadiance
	case bytes.HasPrefix(data, exrMagic):
		return FormatEXR
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".hdre":
		return FormatHDRE
	case ".hdr", ".pic", ".rgbe":
		return FormatRadiance
	case ".exr":
		return FormatEXR
	default:
		return FormatUnknown
	}
}

// Options configures decoding.
type Options struct {
	// Decompressor decodes OpenEXR payloads. Nil means exrmeta.OpenEXRDecompressor.
	Decompressor exrmeta.Decompressor
}

func (o *Options) decompressor() exrmeta.Decompressor {
	if o == nil || o.Decompressor == nil {
		return exrmeta.OpenEXRDecompressor{}
	}

	return o.Decompressor
}

// DecodeImage decodes a Radiance or OpenEXR still into interleaved RGBA.
func DecodeImage(ctx context.Context, f Format, data []byte, opts *Options) (pix []float32, width, height int, err error) {
	switch f {
	case FormatRadiance:
		img, err := radiance.DecodeContext(ctx, data)
		if err != nil {
			return nil, 0, 0, err
		}
		return img.Pix, img.Width, img.Height, nil
	case FormatEXR:
		img, err := exrmeta.Decode(ctx, data, opts.decompressor())
		if err != nil {
			return nil, 0, 0, err
		}
		return img.RGBA(), img.Width, img.Height, nil
	default:
		return nil, 0, 0, fmt.Errorf("%w: %s is not a still image", ErrUnknownFormat, f)
	}
}

// DecodeCubemap returns the level-0 faces of data with Channels samples per
// pixel. Radiance and OpenEXR inputs are horizontal crosses; an HDRE input
// yields its stored base level, widened to RGBA when it has fewer channels.
func DecodeCubemap(ctx context.Context, f Format, data []byte, opts *Options) (hdre.Level, error) {
	log := hdre.Logger()

	if f == FormatHDRE {
		img, err := hdre.ReadContext(ctx, data, nil)
		if err != nil {
			return hdre.Level{}, err
		}
		if len(img.Levels) == 0 {
			return hdre.Level{}, hdre.ErrNoLevels
		}
		log.Debug("source: hdre base level", "width", img.Levels[0].Width, "channels", img.Header.Channels)
		return widen(img.Levels[0], img.Header.Channels), nil
	}

	pix, w, h, err := DecodeImage(ctx, f, data, opts)
	if err != nil {
		return hdre.Level{}, err
	}
	log.Debug("source: cross decoded", "format", f.String(), "width", w, "height", h)

	return hdre.ExtractCross(pix, w, h, Channels)
}

// widen copies a level into RGBA faces. Missing color channels repeat the
// first one and a missing alpha becomes 1.
func widen(l hdre.Level, channels int) hdre.Level {
	if channels == Channels {
		return l
	}

	out := hdre.NewLevel(l.Width, Channels)
	n := l.Width * l.Width
	for f := range l.Faces {
		src, dst := l.Faces[f], out.Faces[f]
		for i := 0; i < n; i++ {
			for c := 0; c < Channels; c++ {
				switch {
				case c < channels:
					dst[i*Channels+c] = src[i*channels+c]
				case c == 3:
					dst[i*Channels+c] = 1
				default:
					dst[i*Channels+c] = src[i*channels]
				}
			}
		}
	}

	return out
}
