package preview

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// Block magics.
const (
	MagicCopy = "COPY"
	MagicLZ4  = "LZ4 "
)

const (
	// chunkSize is the uncompressed span of one LZ4 chunk and the dictionary window.
	chunkSize = 64 * 1024
	// minCompressSize keeps tiny mips as COPY blocks.
	minCompressSize = 1024
	// maxRatio is the compressed/raw ratio above which a block stays COPY.
	maxRatio = 0.85
	// lastChunk flags the final chunk of a stream.
	lastChunk = 0x80
	// maxChunkSize is the largest compressed chunk a 24-bit length can hold.
	maxChunkSize = 1<<24 - 1
)

// block is one stored mip level. For LZ4 blocks data is the chunk stream and
// rawSize the inflated length, written as a 4-byte prefix.
type block struct {
	magic   string
	data    []byte
	rawSize int
}

// storedSize is the block length recorded in the table.
func (b *block) storedSize() int {
	if b.magic == MagicLZ4 {
		return 4 + len(b.data)
	}

	return len(b.data)
}

func (b *block) writeTo(w io.Writer) error {
	if b.magic == MagicLZ4 {
		raw, err := i32FromInt(b.rawSize)
		if err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, raw); err != nil {
			return fmt.Errorf("%w: raw size: %v", ErrWrite, err)
		}
	}
	if _, err := w.Write(b.data); err != nil {
		return fmt.Errorf("%w: %s body: %v", ErrWrite, b.magic, err)
	}

	return nil
}

// compressBlock packs data into an LZ4 chunk stream, falling back to COPY
// when data is small or does not shrink enough.
func compressBlock(data []byte) (*block, error) {
	if _, err := i32FromInt(len(data)); err != nil {
		return nil, err
	}

	raw := &block{magic: MagicCopy, data: data, rawSize: len(data)}
	if len(data) < minCompressSize {
		return raw, nil
	}

	var stream bytes.Buffer
	buf := make([]byte, lz4.CompressBlockBound(chunkSize))
	for off := 0; off < len(data); off += chunkSize {
		end := min(off+chunkSize, len(data))
		src := data[off:end]

		n, err := lz4.CompressBlockHC(src, buf, 0, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk at %d: %v", ErrLZ4Compress, off, err)
		}
		if n == 0 || float64(n) > float64(len(src))*maxRatio {
			return raw, nil
		}
		if n > maxChunkSize {
			return nil, fmt.Errorf("%w: chunk at %d is %d bytes", ErrSizeOverflow, off, n)
		}

		flags := byte(0)
		if end == len(data) {
			flags = lastChunk
		}
		stream.Write([]byte{byte(n), byte(n >> 8), byte(n >> 16), flags})
		stream.Write(buf[:n])
	}

	if float64(4+stream.Len()) > float64(len(data))*maxRatio {
		return raw, nil
	}
	if _, err := i32FromInt(4 + stream.Len()); err != nil {
		return nil, err
	}

	return &block{magic: MagicLZ4, data: stream.Bytes(), rawSize: len(data)}, nil
}

// decompressBlock inflates b into exactly want bytes.
func decompressBlock(b *block, want int) ([]byte, error) {
	switch b.magic {
	case MagicCopy:
		if len(b.data) != want {
			return nil, fmt.Errorf("%w: want %d, got %d", ErrCopySizeMismatch, want, len(b.data))
		}
		return b.data, nil
	case MagicLZ4:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBlockMagic, b.magic)
	}

	if len(b.data) < 4 {
		return nil, fmt.Errorf("%w: %d byte LZ4 block", ErrChunkStream, len(b.data))
	}
	if raw := int(binary.LittleEndian.Uint32(b.data)); raw != want {
		return nil, fmt.Errorf("%w: block declares %d, want %d", ErrDecodedSizeMismatch, raw, want)
	}

	return inflateChunks(b.data[4:], want)
}

// inflateChunks decodes a chunk stream where every chunk may reference the
// previous 64 KiB of output.
func inflateChunks(stream []byte, want int) ([]byte, error) {
	out := make([]byte, want)
	n, p := 0, 0
	for {
		if len(stream)-p < 4 {
			return nil, fmt.Errorf("%w: truncated chunk header at %d", ErrChunkStream, p)
		}
		size := int(stream[p]) | int(stream[p+1])<<8 | int(stream[p+2])<<16
		flags := stream[p+3]
		p += 4

		if flags&^lastChunk != 0 {
			return nil, fmt.Errorf("%w: flags 0x%02x at %d", ErrChunkStream, flags, p-1)
		}
		if size <= 0 || size > len(stream)-p {
			return nil, fmt.Errorf("%w: chunk size %d at %d, %d bytes left", ErrChunkStream, size, p-4, len(stream)-p)
		}
		if n >= want {
			return nil, fmt.Errorf("%w: output overrun at chunk %d", ErrDecodedSizeMismatch, p-4)
		}

		dict := out[max(0, n-chunkSize):n]
		dst := out[n:min(n+chunkSize, want)]
		m, err := lz4.UncompressBlockWithDict(stream[p:p+size], dst, dict)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk at %d: %v", ErrLZ4Decode, p-4, err)
		}
		n += m
		p += size

		if flags&lastChunk != 0 {
			break
		}
	}

	if n != want {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrDecodedSizeMismatch, want, n)
	}
	if p != len(stream) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrChunkStream, len(stream)-p)
	}

	return out, nil
}

type tableEntry struct {
	magic string
	size  int
}

func readBlockTable(r io.Reader, count int) ([]tableEntry, error) {
	table := make([]tableEntry, count)
	var rec [8]byte
	for i := range table {
		if _, err := io.ReadFull(r, rec[:]); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrBlockTable, i, err)
		}
		magic := string(rec[:4])
		size := int32(binary.LittleEndian.Uint32(rec[4:]))
		if magic != MagicCopy && magic != MagicLZ4 {
			return nil, fmt.Errorf("%w: entry %d: magic %q", ErrBlockTable, i, magic)
		}
		if size < 0 {
			return nil, fmt.Errorf("%w: entry %d: size %d", ErrBlockTable, i, size)
		}
		table[i] = tableEntry{magic: magic, size: int(size)}
	}

	return table, nil
}

func writeBlockTable(w io.Writer, blocks []*block) error {
	var rec [8]byte
	for i, b := range blocks {
		size, err := i32FromInt(b.storedSize())
		if err != nil {
			return err
		}
		copy(rec[:4], b.magic)
		binary.LittleEndian.PutUint32(rec[4:], uint32(size))
		if _, err := w.Write(rec[:]); err != nil {
			return fmt.Errorf("%w: table entry %d: %v", ErrWrite, i, err)
		}
	}

	return nil
}

func i32FromInt(n int) (int32, error) {
	if n < 0 || n > int(^uint32(0)>>1) {
		return 0, fmt.Errorf("%w: %d", ErrSizeOverflow, n)
	}

	return int32(n), nil
}
