package exrmeta

import (
	"context"
	"fmt"
	"os"

	"github.com/woozymasta/hdre"
)

// Decompressor turns the pixel payload of a parsed file into interleaved
// float32 samples, width*height*channels long, in header channel order.
// data is the whole file and h.PayloadOffset marks the block offset table.
type Decompressor interface {
	Decompress(ctx context.Context, data []byte, h *Header) ([]float32, error)
}

// DecompressorFunc adapts a function to Decompressor.
type DecompressorFunc func(ctx context.Context, data []byte, h *Header) ([]float32, error)

// Decompress calls f.
func (f DecompressorFunc) Decompress(ctx context.Context, data []byte, h *Header) ([]float32, error) {
	return f(ctx, data, h)
}

// Decode parses the header and delegates the payload to d.
// A nil d yields ErrDecompressionUnavailable after the header is validated.
func Decode(ctx context.Context, data []byte, d Decompressor) (*Image, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("%w: %s payload", ErrDecompressionUnavailable, h.Compression)
	}

	hdre.Logger().Debug("exrmeta: decoding",
		"width", h.Width(), "height", h.Height(),
		"channels", h.ChannelCount(), "compression", h.Compression.String())

	pix, err := d.Decompress(ctx, data, h)
	if err != nil {
		return nil, err
	}
	if want := h.Width() * h.Height() * h.ChannelCount(); len(pix) != want {
		return nil, fmt.Errorf("%w: got %d samples, want %d", ErrPixelCountMismatch, len(pix), want)
	}

	return &Image{
		Header:   h,
		Width:    h.Width(),
		Height:   h.Height(),
		Channels: h.ChannelCount(),
		Pix:      pix,
	}, nil
}

// checkPayloadSize rejects headers declaring more samples than payload bytes
// can hold at the given expansion ratio. Every sample takes at least two raw
// bytes.
func checkPayloadSize(h *Header, payload, expansion int) error {
	limit := uint64(max(payload, 0)) * uint64(expansion) / 2
	w, ht, nch := uint64(h.Width()), uint64(h.Height()), uint64(max(len(h.Channels), 1))
	if w > limit || ht > limit/max(w, 1) || nch > limit/max(w*ht, 1) {
		return fmt.Errorf("%w: %dx%d with %d channels from %d payload bytes", ErrBadBlock, h.Width(), h.Height(), len(h.Channels), payload)
	}

	return nil
}

// DecodeFile reads and decodes an OpenEXR file.
func DecodeFile(ctx context.Context, path string, d Decompressor) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Decode(ctx, data, d)
}
