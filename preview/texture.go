package preview

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	"github.com/woozymasta/bcn"
	"github.com/woozymasta/hdre"
)

// maxMipMaps caps generated chains, matching what Enfusion loads.
const maxMipMaps = 11

// WriteOptions configures texture writing.
type WriteOptions struct {
	// Format is the payload format. Zero means bcn.FormatBGRA8.
	Format bcn.Format
	// MaxMipMaps limits the chain length. Zero means the full chain.
	MaxMipMaps int
	// Compress stores blocks as LZ4 chunk streams where that saves space.
	Compress bool
	// EncodeOptions are passed to the BCn encoder.
	EncodeOptions *bcn.EncodeOptions
}

// ReadOptions configures texture reading.
type ReadOptions struct {
	// DecodeOptions are passed to the BCn decoder.
	DecodeOptions *bcn.DecodeOptions
}

// mipCount is the full chain length for a width x height image.
func mipCount(width, height int) int {
	n := 1
	for width > 1 || height > 1 {
		width, height = max(1, width/2), max(1, height/2)
		n++
	}

	return min(n, maxMipMaps)
}

func mipDimension(base, level int) int {
	return max(1, base>>level)
}

// Write encodes img with a mip chain into w.
func Write(w io.Writer, img image.Image, opts *WriteOptions) error {
	format, limit, compress := bcn.FormatBGRA8, 0, false
	var encOpts *bcn.EncodeOptions
	if opts != nil {
		if opts.Format != bcn.FormatUnknown {
			format = opts.Format
		}
		limit, compress, encOpts = opts.MaxMipMaps, opts.Compress, opts.EncodeOptions
	}

	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrEmptyImage, width, height)
	}
	if payloadSize(format, 1, 1) < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, format)
	}

	count := mipCount(width, height)
	if limit > 0 && limit < count {
		count = limit
	}
	mips := bcn.GenerateMipmaps(img, false)
	if len(mips) > count {
		mips = mips[:count]
	}

	log := hdre.Logger()
	blocks := make([]*block, len(mips))
	for i, mip := range mips {
		data, _, _, err := bcn.EncodeImageWithOptions(mip, format, encOpts)
		if err != nil {
			return fmt.Errorf("%w: mipmap %d: %v", ErrEncodeImage, i, err)
		}
		if want := payloadSize(format, mipDimension(width, i), mipDimension(height, i)); len(data) != want {
			return fmt.Errorf("%w: mipmap %d: want %d, got %d", ErrMipmapSizeMismatch, i, want, len(data))
		}

		blk := &block{magic: MagicCopy, data: data, rawSize: len(data)}
		if compress {
			if blk, err = compressBlock(data); err != nil {
				return fmt.Errorf("mipmap %d: %w", i, err)
			}
		}
		blocks[i] = blk
		log.Debug("preview: encoded mip", "level", i, "bytes", len(data), "block", blk.magic, "stored", blk.storedSize())
	}

	h, err := makeDDSHeader(width, height, len(blocks), format)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	if err := bcn.WriteDDSMagic(bw); err != nil {
		return fmt.Errorf("%w: magic: %v", ErrWrite, err)
	}
	if err := bcn.WriteDDSHeader(bw, h); err != nil {
		return fmt.Errorf("%w: header: %v", ErrWrite, err)
	}

	// smallest mip first
	stored := make([]*block, len(blocks))
	for i, blk := range blocks {
		stored[len(blocks)-1-i] = blk
	}
	if err := writeBlockTable(bw, stored); err != nil {
		return err
	}
	for _, blk := range stored {
		if err := blk.writeTo(bw); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}

	return nil
}

// WriteFile encodes img into an EDDS file at path.
func WriteFile(path string, img image.Image, opts *WriteOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", hdre.ErrCreateFile, path, err)
	}
	if err := Write(f, img, opts); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrWrite, path, err)
	}

	return nil
}

func readHeaders(r io.Reader) (*bcn.DDSHeader, *bcn.DDSHeaderDX10, error) {
	h, err := bcn.ReadDDSHeader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrDDSHeaderRead, err)
	}
	dx10, err := bcn.ReadDDSHeaderDX10(r, h)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: DX10: %v", ErrDDSHeaderRead, err)
	}

	return h, dx10, nil
}

// ReadConfig returns the texture dimensions without decoding pixels.
func ReadConfig(r io.Reader) (image.Config, error) {
	h, _, err := readHeaders(r)
	if err != nil {
		return image.Config{}, err
	}

	return image.Config{
		Width:      int(h.Width),
		Height:     int(h.Height),
		ColorModel: color.NRGBAModel,
	}, nil
}

// Read decodes the largest mip level of a texture.
func Read(r io.ReadSeeker, opts *ReadOptions) (image.Image, error) {
	h, dx10, err := readHeaders(r)
	if err != nil {
		return nil, err
	}

	format := detectFormat(h, dx10)
	width, height := int(h.Width), int(h.Height)
	want := payloadSize(format, width, height)
	if want <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, format)
	}

	count := 1
	if h.Caps&bcn.DDSCapsMipmap != 0 && h.MipMapCount > 0 {
		count = int(h.MipMapCount)
	}
	table, err := readBlockTable(r, count)
	if err != nil {
		return nil, err
	}

	// the largest level is stored last
	for _, e := range table[:count-1] {
		if _, err := r.Seek(int64(e.size), io.SeekCurrent); err != nil {
			return nil, fmt.Errorf("%w: skip %s block: %v", ErrReadBlockBody, e.magic, err)
		}
	}
	last := table[count-1]
	body := make([]byte, last.size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("%w: %s block of %d bytes: %v", ErrReadBlockBody, last.magic, last.size, err)
	}

	data, err := decompressBlock(&block{magic: last.magic, data: body}, want)
	if err != nil {
		return nil, err
	}

	var decOpts *bcn.DecodeOptions
	if opts != nil {
		decOpts = opts.DecodeOptions
	}
	img, err := bcn.DecodeImageWithOptions(data, width, height, format, decOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeImage, err)
	}

	return img, nil
}
