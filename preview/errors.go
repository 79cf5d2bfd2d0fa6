package preview

import "errors"

var (
	// ErrSizeOverflow indicates a size or dimension exceeds supported limits.
	ErrSizeOverflow = errors.New("size overflow")
	// ErrInvalidFormat indicates a texture format the writer cannot store.
	ErrInvalidFormat = errors.New("invalid texture format")
	// ErrEmptyImage indicates an image with no pixels.
	ErrEmptyImage = errors.New("empty image")
	// ErrEmptyLevel indicates a cubemap level without face data.
	ErrEmptyLevel = errors.New("empty cubemap level")
	// ErrMipmapSizeMismatch indicates an encoded mip payload of the wrong size.
	ErrMipmapSizeMismatch = errors.New("mipmap size mismatch")
	// ErrLZ4Compress indicates LZ4 compression failed.
	ErrLZ4Compress = errors.New("LZ4 compression failed")
	// ErrLZ4Decode indicates LZ4 decode failed.
	ErrLZ4Decode = errors.New("LZ4 decode failed")
	// ErrCopySizeMismatch indicates a COPY block with the wrong length.
	ErrCopySizeMismatch = errors.New("COPY block size mismatch")
	// ErrUnknownBlockMagic indicates a block that is neither COPY nor LZ4.
	ErrUnknownBlockMagic = errors.New("unknown block magic")
	// ErrChunkStream indicates a malformed LZ4 chunk stream.
	ErrChunkStream = errors.New("malformed LZ4 chunk stream")
	// ErrDecodedSizeMismatch indicates a chunk stream that inflates to the wrong size.
	ErrDecodedSizeMismatch = errors.New("LZ4 decoded size mismatch")
	// ErrBlockTable indicates an unreadable or invalid block table.
	ErrBlockTable = errors.New("invalid block table")
	// ErrReadBlockBody indicates block body read failed.
	ErrReadBlockBody = errors.New("read block body failed")
	// ErrDDSHeaderRead indicates the DDS header could not be read.
	ErrDDSHeaderRead = errors.New("reading DDS header failed")
	// ErrUnknownFormat indicates a DDS pixel format the reader cannot decode.
	ErrUnknownFormat = errors.New("unknown texture format")
	// ErrEncodeImage indicates BCn encoding of a mip level failed.
	ErrEncodeImage = errors.New("encode image failed")
	// ErrDecodeImage indicates BCn decoding failed.
	ErrDecodeImage = errors.New("decode image failed")
	// ErrWrite indicates writing texture bytes failed.
	ErrWrite = errors.New("writing texture failed")
)
