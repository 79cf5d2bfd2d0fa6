package exrmeta

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mrjoshuak/go-openexr/exr"
)

// maxCodecExpansion bounds the raw to stored ratio accepted from codecs whose
// ratio is not fixed, such as PIZ or DWA.
const maxCodecExpansion = 1 << 16

// OpenEXRDecompressor decodes scanline files through go-openexr, which covers
// PIZ, PXR24, B44 and DWA in addition to the codecs ScanlineDecompressor reads.
type OpenEXRDecompressor struct{}

var _ Decompressor = OpenEXRDecompressor{}

// Decompress implements Decompressor. Every channel is read as float32.
func (OpenEXRDecompressor) Decompress(ctx context.Context, data []byte, h *Header) ([]float32, error) {
	if h.Tiled() {
		return nil, fmt.Errorf("%w: tiled file", ErrUnsupportedLayout)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkPayloadSize(h, len(data)-h.PayloadOffset, maxCodecExpansion); err != nil {
		return nil, err
	}

	f, err := exr.OpenReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadBlock, err)
	}
	r, err := exr.NewScanlineReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadBlock, err)
	}

	dw := f.Header(0).DataWindow()
	width, height := int(dw.Width()), int(dw.Height())
	if width != h.Width() || height != h.Height() {
		return nil, fmt.Errorf("%w: data window %dx%d, header %dx%d", ErrUnsupportedLayout, width, height, h.Width(), h.Height())
	}

	fb := exr.NewFrameBuffer()
	for _, ch := range h.Channels {
		fb.Set(ch.Name, exr.NewSlice(exr.PixelTypeFloat, make([]byte, width*height*4), width, height))
	}
	r.SetFrameBuffer(fb)

	if err := r.ReadPixels(int(dw.Min.Y), int(dw.Max.Y)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadBlock, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	nch := len(h.Channels)
	pix := make([]float32, width*height*nch)
	for c, ch := range h.Channels {
		s := fb.Get(ch.Name)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				pix[(y*width+x)*nch+c] = s.GetFloat32(x, y)
			}
		}
	}

	return pix, nil
}
