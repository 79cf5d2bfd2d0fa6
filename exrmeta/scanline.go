package exrmeta

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zlib"
	"github.com/mrjoshuak/go-openexr/half"

	"github.com/woozymasta/hdre"
)

// ScanlineDecompressor decodes single-part scanline files stored without
// compression or with RLE, ZIPS or ZIP.
type ScanlineDecompressor struct{}

var _ Decompressor = ScanlineDecompressor{}

// Decompress implements Decompressor. ctx is checked between blocks.
func (ScanlineDecompressor) Decompress(ctx context.Context, data []byte, h *Header) ([]float32, error) {
	if h.Flags&(FlagTiled|FlagNonImage|FlagMultipart) != 0 {
		return nil, fmt.Errorf("%w: version flags %#x", ErrUnsupportedLayout, h.Flags)
	}
	switch h.Compression {
	case CompressionNone, CompressionRLE, CompressionZIPS, CompressionZIP:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCompression, h.Compression)
	}

	lineBytes := 0
	for _, ch := range h.Channels {
		if ch.XSampling != 1 || ch.YSampling != 1 {
			return nil, fmt.Errorf("%w: channel %q sampled %dx%d", ErrUnsupportedLayout, ch.Name, ch.XSampling, ch.YSampling)
		}
		if ch.Type.Size() == 0 {
			return nil, fmt.Errorf("%w: channel %q has %s", ErrUnsupportedLayout, ch.Name, ch.Type)
		}
		lineBytes += ch.Type.Size() * h.Width()
	}

	width, height := h.Width(), h.Height()
	lines := h.Compression.LinesPerBlock()
	blocks := (height + lines - 1) / lines
	expansion := maxExpansion(h.Compression)

	table := h.PayloadOffset
	if table+blocks*8 > len(data) {
		return nil, fmt.Errorf("%w: offset table of %d blocks at %d", ErrBadBlock, blocks, table)
	}
	if err := checkPayloadSize(h, len(data)-table, expansion); err != nil {
		return nil, err
	}

	// every block is located and sized before the pixel buffer exists
	spans := make([]blockSpan, blocks)
	for b := range spans {
		off := binary.LittleEndian.Uint64(data[table+b*8:])
		if off > uint64(len(data)-8) {
			return nil, fmt.Errorf("%w: block %d offset %d outside file", ErrBadBlock, b, off)
		}
		p := int(off)
		y := int(int32(binary.LittleEndian.Uint32(data[p:]))) - int(h.DataWindow.YMin)
		size := int(binary.LittleEndian.Uint32(data[p+4:]))
		p += 8
		if y < 0 || y >= height || y%lines != 0 {
			return nil, fmt.Errorf("%w: block %d starts at line %d", ErrBadBlock, b, y)
		}
		if size > len(data)-p {
			return nil, fmt.Errorf("%w: block %d needs %d bytes, %d left", ErrBadBlock, b, size, len(data)-p)
		}

		n := min(lines, height-y)
		if raw := n * lineBytes; raw > size*expansion {
			return nil, fmt.Errorf("%w: block %d holds %d bytes, want %d", ErrBadBlock, b, size, raw)
		}
		spans[b] = blockSpan{y: y, lines: n, data: data[p : p+size]}
	}

	log := hdre.Logger()
	pix := make([]float32, width*height*len(h.Channels))

	for b, s := range spans {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := uncompressBlock(h.Compression, s.data, s.lines*lineBytes)
		if err != nil {
			return nil, fmt.Errorf("%w: block %d: %v", ErrBadBlock, b, err)
		}
		if len(raw) != s.lines*lineBytes {
			return nil, fmt.Errorf("%w: block %d holds %d bytes, want %d", ErrBadBlock, b, len(raw), s.lines*lineBytes)
		}

		scatterBlock(pix, raw, h.Channels, width, s.y, s.lines)
		log.Debug("exrmeta: block decoded", "block", b, "line", s.y, "lines", s.lines)
	}

	return pix, nil
}

type blockSpan struct {
	y, lines int
	data     []byte
}

// maxExpansion is the largest raw to stored size ratio c can produce.
// Deflate tops out near 1032:1, byte RLE at 128 bytes from 2.
func maxExpansion(c Compression) int {
	switch c {
	case CompressionRLE:
		return 64
	case CompressionZIPS, CompressionZIP:
		return 1032
	default:
		return 1
	}
}

// uncompressBlock returns the channel-planar bytes of one block. A block whose
// stored size equals the raw size is stored uncompressed.
func uncompressBlock(c Compression, src []byte, rawSize int) ([]byte, error) {
	if c == CompressionNone || len(src) == rawSize {
		return src, nil
	}

	var tmp []byte
	switch c {
	case CompressionRLE:
		var err error
		if tmp, err = unRLE(src, rawSize); err != nil {
			return nil, err
		}
	case CompressionZIPS, CompressionZIP:
		zr, err := zlib.NewReader(bytes.NewReader(src))
		if err != nil {
			return nil, err
		}
		defer zr.Close()

		tmp = make([]byte, rawSize)
		if _, err := io.ReadFull(zr, tmp); err != nil {
			return nil, fmt.Errorf("inflate: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCompression, c)
	}

	undoPredictor(tmp)

	return interleave(tmp), nil
}

// unRLE expands the OpenEXR byte run-length format: a negative count is a
// literal of -count bytes, otherwise the next byte repeats count+1 times.
func unRLE(src []byte, rawSize int) ([]byte, error) {
	out := make([]byte, 0, rawSize)
	for p := 0; p < len(src); {
		n := int(int8(src[p]))
		p++

		if n < 0 {
			if p-n > len(src) {
				return nil, fmt.Errorf("literal of %d truncated", -n)
			}
			out = append(out, src[p:p-n]...)
			p -= n
		} else {
			if p >= len(src) {
				return nil, fmt.Errorf("run value truncated")
			}
			for i := 0; i <= n; i++ {
				out = append(out, src[p])
			}
			p++
		}
		if len(out) > rawSize {
			return nil, fmt.Errorf("expands past %d bytes", rawSize)
		}
	}

	return out, nil
}

func undoPredictor(data []byte) {
	for i := 1; i < len(data); i++ {
		data[i] = byte(int(data[i]) + int(data[i-1]) - 128)
	}
}

// interleave merges the two halves of data back into alternating bytes.
func interleave(data []byte) []byte {
	out := make([]byte, len(data))
	lo, hi := data[:(len(data)+1)/2], data[(len(data)+1)/2:]
	for i := range out {
		if i%2 == 0 {
			out[i] = lo[i/2]
		} else {
			out[i] = hi[i/2]
		}
	}

	return out
}

// scatterBlock copies rows of per-channel sample runs into interleaved pixels.
func scatterBlock(pix []float32, raw []byte, channels []Channel, width, y, lines int) {
	nch := len(channels)
	p := 0
	for row := y; row < y+lines; row++ {
		base := row * width * nch
		for c, ch := range channels {
			for x := 0; x < width; x++ {
				var v float32
				switch ch.Type {
				case PixelHalf:
					v = half.FromBits(binary.LittleEndian.Uint16(raw[p:])).Float32()
				case PixelFloat:
					v = math.Float32frombits(binary.LittleEndian.Uint32(raw[p:]))
				case PixelUint:
					v = float32(binary.LittleEndian.Uint32(raw[p:]))
				}
				p += ch.Type.Size()
				pix[base+x*nch+c] = v
			}
		}
	}
}
