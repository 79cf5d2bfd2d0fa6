package preview

import (
	"fmt"
	"strings"

	"github.com/woozymasta/bcn"
)

// dxgi format codes understood in DX10 headers.
const (
	dxgiRGBA8 = 28
	dxgiBC1   = 71
	dxgiBC3   = 77
	dxgiBGRA8 = 87
)

// ParseFormat maps a CLI format name onto a texture format.
func ParseFormat(name string) (bcn.Format, error) {
	switch strings.ToLower(name) {
	case "", "bgra8":
		return bcn.FormatBGRA8, nil
	case "rgba8":
		return bcn.FormatRGBA8, nil
	case "dxt1", "bc1":
		return bcn.FormatDXT1, nil
	case "dxt5", "bc3":
		return bcn.FormatDXT5, nil
	default:
		return bcn.FormatUnknown, fmt.Errorf("%w: %q", ErrInvalidFormat, name)
	}
}

func fourCC(s string) uint32 {
	return uint32(s[0]) | uint32(s[1])<<8 | uint32(s[2])<<16 | uint32(s[3])<<24
}

func detectFormat(h *bcn.DDSHeader, dx10 *bcn.DDSHeaderDX10) bcn.Format {
	if dx10 != nil {
		switch dx10.DXGIFormat {
		case dxgiBC1:
			return bcn.FormatDXT1
		case dxgiBC3:
			return bcn.FormatDXT5
		case dxgiBGRA8:
			return bcn.FormatBGRA8
		case dxgiRGBA8:
			return bcn.FormatRGBA8
		default:
			return bcn.FormatUnknown
		}
	}

	pf := h.PixelFormat
	if pf.Flags&bcn.DDSPFFourCC != 0 {
		switch pf.FourCC {
		case fourCC("DXT1"):
			return bcn.FormatDXT1
		case fourCC("DXT4"), fourCC("DXT5"):
			return bcn.FormatDXT5
		default:
			return bcn.FormatUnknown
		}
	}

	if pf.Flags&bcn.DDSPFRGB != 0 && pf.RGBBitCount == 32 && pf.GBitMask == 0x0000ff00 {
		switch {
		case pf.RBitMask == 0x000000ff && pf.BBitMask == 0x00ff0000:
			return bcn.FormatRGBA8
		case pf.RBitMask == 0x00ff0000 && pf.BBitMask == 0x000000ff:
			return bcn.FormatBGRA8
		}
	}

	return bcn.FormatUnknown
}

// payloadSize is the encoded size of a width x height mip, or -1 for formats
// the package does not store.
func payloadSize(format bcn.Format, width, height int) int {
	bw, bh := (width+3)/4, (height+3)/4
	switch format {
	case bcn.FormatDXT1:
		return bw * bh * 8
	case bcn.FormatDXT5:
		return bw * bh * 16
	case bcn.FormatRGBA8, bcn.FormatBGRA8:
		return width * height * 4
	default:
		return -1
	}
}

// enfusionReserved tags the header as written for the Enfusion engine.
func enfusionReserved() [11]uint32 {
	var r [11]uint32
	r[1] = fourCC("ENF1")
	return r
}

func makeDDSHeader(width, height, mips int, format bcn.Format) (*bcn.DDSHeader, error) {
	flags := uint32(bcn.DDSFlagCaps | bcn.DDSFlagHeight | bcn.DDSFlagWidth | bcn.DDSFlagPixelFormat)
	caps := uint32(bcn.DDSCapsTexture)
	if mips > 1 {
		flags |= bcn.DDSFlagMipmapCount
		caps |= bcn.DDSCapsComplex | bcn.DDSCapsMipmap
	}

	h := &bcn.DDSHeader{
		Size:        bcn.DDSHeaderSize,
		Flags:       flags,
		Height:      uint32(height),
		Width:       uint32(width),
		Depth:       1,
		MipMapCount: uint32(mips),
		Reserved1:   enfusionReserved(),
		Caps:        caps,
	}
	h.PixelFormat.Size = bcn.DDSPixelFormatSize

	switch format {
	case bcn.FormatDXT1, bcn.FormatDXT5:
		name := "DXT1"
		if format == bcn.FormatDXT5 {
			name = "DXT5"
		}
		h.Flags |= bcn.DDSFlagLinearSize
		h.PixelFormat.Flags = bcn.DDSPFFourCC
		h.PixelFormat.FourCC = fourCC(name)
		h.PitchOrLinearSize = uint32(payloadSize(format, width, height))
	case bcn.FormatRGBA8, bcn.FormatBGRA8:
		h.Flags |= bcn.DDSFlagPitch
		h.PixelFormat.Flags = bcn.DDSPFRGB | bcn.DDSPFAlphaPixels
		h.PixelFormat.RGBBitCount = 32
		h.PixelFormat.GBitMask = 0x0000ff00
		h.PixelFormat.ABitMask = 0xff000000
		if format == bcn.FormatRGBA8 {
			h.PixelFormat.RBitMask, h.PixelFormat.BBitMask = 0x000000ff, 0x00ff0000
		} else {
			h.PixelFormat.RBitMask, h.PixelFormat.BBitMask = 0x00ff0000, 0x000000ff
		}
		h.PitchOrLinearSize = uint32(width * 4)
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, format)
	}

	return h, nil
}
