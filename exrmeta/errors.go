package exrmeta

import "errors"

var (
	// ErrInvalidMagic indicates the buffer is not an OpenEXR file.
	ErrInvalidMagic = errors.New("invalid OpenEXR magic")
	// ErrTruncatedAttribute indicates an attribute runs past the buffer or its declared size.
	ErrTruncatedAttribute = errors.New("truncated OpenEXR attribute")
	// ErrMissingAttribute indicates a required attribute is absent.
	ErrMissingAttribute = errors.New("missing OpenEXR attribute")
	// ErrDecompressionUnavailable indicates no decompressor was supplied.
	ErrDecompressionUnavailable = errors.New("decompression unavailable")
	// ErrUnsupportedCompression indicates a compression the decompressor cannot handle.
	ErrUnsupportedCompression = errors.New("unsupported OpenEXR compression")
	// ErrUnsupportedLayout indicates tiled, deep, multipart or subsampled data.
	ErrUnsupportedLayout = errors.New("unsupported OpenEXR layout")
	// ErrBadBlock indicates a malformed or truncated scanline block.
	ErrBadBlock = errors.New("bad OpenEXR scanline block")
	// ErrPixelCountMismatch indicates a decompressor returned the wrong sample count.
	ErrPixelCountMismatch = errors.New("pixel count mismatch")
)
