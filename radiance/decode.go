package radiance

import (
	"context"
	"fmt"
	"os"

	"github.com/woozymasta/hdre"
	"github.com/woozymasta/hdre/rgbe"
)

// Encoding is the scanline layout of a file, fixed by its first scanline marker.
type Encoding int

const (
	// EncodingRLE is new-style run-length encoding with one marker per scanline.
	EncodingRLE Encoding = iota
	// EncodingFlat is legacy literal RGBE quads for the whole image.
	EncodingFlat
)

func (e Encoding) String() string {
	if e == EncodingFlat {
		return "flat"
	}

	return "rle"
}

// Channels is the channel count of decoded images (RGBA, alpha 1).
const Channels = 4

// Decode decodes a Radiance RGBE image.
func Decode(data []byte) (*Image, error) {
	return DecodeContext(context.Background(), data)
}

// DecodeFile reads and decodes a Radiance file.
func DecodeFile(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Decode(data)
}

// DecodeContext decodes a Radiance RGBE image, checking ctx between scanlines.
// Decoded values are the RGBE value scaled by 1/255.
func DecodeContext(ctx context.Context, data []byte) (*Image, error) {
	h, err := parseHeader(data)
	if err != nil {
		return nil, err
	}

	body := data[h.DataOffset:]
	if len(body) < 4 {
		return nil, fmt.Errorf("%w: no pixel data at offset %d", ErrBadScanline, h.DataOffset)
	}

	enc := EncodingFlat
	if isRLEMarker(body) {
		enc = EncodingRLE
	}
	if need := minBodySize(enc, h.Width, h.Height); len(body) < need {
		return nil, fmt.Errorf("%w: %s data at offset %d has %d bytes, %dx%d needs at least %d",
			ErrBadScanline, enc, h.DataOffset, len(body), h.Width, h.Height, need)
	}

	img := &Image{
		Header:   *h,
		Channels: Channels,
		Encoding: enc,
		Pix:      make([]float32, h.Width*h.Height*Channels),
	}

	if enc == EncodingRLE {
		err = decodeRLE(ctx, img, body, h.DataOffset)
	} else {
		hdre.Logger().Warn("radiance: legacy flat scanlines", "width", h.Width, "height", h.Height)
		err = decodeFlat(img, body, h.DataOffset)
	}
	if err != nil {
		return nil, err
	}

	return img, nil
}

// maxRun is the longest byte run a single run-length pair encodes.
const maxRun = 127

// minBodySize is the shortest scanline data that can hold a width x height
// image: literal quads for flat files, and for run-length files a marker plus
// four planes of maximal runs per scanline.
func minBodySize(enc Encoding, width, height int) int {
	if enc == EncodingFlat {
		return width * height * 4
	}

	runs := (width + maxRun - 1) / maxRun
	return height * (4 + 4*2*runs)
}

// isRLEMarker reports whether b starts with a new-style scanline marker.
func isRLEMarker(b []byte) bool {
	return b[0] == 2 && b[1] == 2 && b[2]&0x80 == 0
}

// decodeFlat reads width*height literal RGBE quads.
func decodeFlat(img *Image, body []byte, base int) error {
	n := img.Width * img.Height
	if len(body) < n*4 {
		return fmt.Errorf("%w: flat data at offset %d has %d bytes, need %d", ErrBadScanline, base, len(body), n*4)
	}

	for i := 0; i < n; i++ {
		setPixel(img.Pix[i*Channels:], rgbe.Pixel(body[i*4:i*4+4]))
	}

	return nil
}

// decodeRLE decodes one marker plus four run-length planes per scanline.
func decodeRLE(ctx context.Context, img *Image, body []byte, base int) error {
	width := img.Width
	planes := make([]byte, width*4)
	p := 0

	for y := 0; y < img.Height; y++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if p+4 > len(body) {
			return fmt.Errorf("%w: scanline %d at offset %d: truncated marker", ErrBadScanline, y, base+p)
		}

		marker := body[p : p+4]
		if !isRLEMarker(marker) {
			return fmt.Errorf("%w: scanline %d at offset %d: marker % x in run-length file", ErrBadScanline, y, base+p, marker)
		}
		if w := int(marker[2])<<8 | int(marker[3]); w != width {
			return fmt.Errorf("%w: scanline %d at offset %d: width %d, declared %d", ErrBadScanline, y, base+p, w, width)
		}
		p += 4

		for c := 0; c < 4; c++ {
			next, err := decodePlane(planes[c*width:(c+1)*width], body, p)
			if err != nil {
				return fmt.Errorf("%w: scanline %d plane %d at offset %d: %v", ErrBadScanline, y, c, base+p, err)
			}
			p = next
		}

		row := img.Pix[y*width*Channels:]
		for x := 0; x < width; x++ {
			q := rgbe.Pixel{planes[x], planes[width+x], planes[2*width+x], planes[3*width+x]}
			setPixel(row[x*Channels:], q)
		}
	}

	return nil
}

// decodePlane fills dst from run-length data starting at p and returns the
// offset after the consumed bytes.
func decodePlane(dst, src []byte, p int) (int, error) {
	for i := 0; i < len(dst); {
		if p >= len(src) {
			return p, fmt.Errorf("truncated after %d of %d bytes", i, len(dst))
		}
		count := int(src[p])
		p++

		switch {
		case count > 128:
			count -= 128
			if i+count > len(dst) {
				return p, fmt.Errorf("run of %d overflows at %d of %d", count, i, len(dst))
			}
			if p >= len(src) {
				return p, fmt.Errorf("truncated run value")
			}
			v := src[p]
			p++
			for end := i + count; i < end; i++ {
				dst[i] = v
			}
		case count > 0:
			if i+count > len(dst) {
				return p, fmt.Errorf("literal of %d overflows at %d of %d", count, i, len(dst))
			}
			if p+count > len(src) {
				return p, fmt.Errorf("truncated literal of %d", count)
			}
			copy(dst[i:i+count], src[p:p+count])
			i += count
			p += count
		default:
			return p, fmt.Errorf("zero count at %d", i)
		}
	}

	return p, nil
}

func setPixel(dst []float32, q rgbe.Pixel) {
	r, g, b := rgbe.ToFloat(q)
	dst[0] = r / 255
	dst[1] = g / 255
	dst[2] = b / 255
	dst[3] = 1
}
