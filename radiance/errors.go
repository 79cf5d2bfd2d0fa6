package radiance

import "errors"

var (
	// ErrUnsupportedFormat indicates a file that is not an RLE RGBE Radiance image.
	ErrUnsupportedFormat = errors.New("unsupported radiance format")
	// ErrMissingDimensions indicates no resolution line within the header bound.
	ErrMissingDimensions = errors.New("missing dimensions line")
	// ErrInvalidDimensions indicates a zero or oversized resolution.
	ErrInvalidDimensions = errors.New("invalid dimensions")
	// ErrBadScanline indicates malformed or truncated scanline data.
	ErrBadScanline = errors.New("bad scanline")
)
