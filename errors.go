package hdre

import "errors"

var (
	// ErrInvalidSignature indicates the buffer does not start with "HDRE".
	ErrInvalidSignature = errors.New("invalid HDRE signature")
	// ErrUnsupportedVersion indicates a version outside (2.0, 1000.0).
	ErrUnsupportedVersion = errors.New("unsupported HDRE version")
	// ErrFileTooLarge indicates the data exceeds the declared max file size.
	ErrFileTooLarge = errors.New("file exceeds declared max size")
	// ErrTruncatedHeader indicates the buffer is shorter than the header.
	ErrTruncatedHeader = errors.New("truncated HDRE header")
	// ErrTruncatedPayload indicates a mip level is only partially present.
	ErrTruncatedPayload = errors.New("truncated HDRE payload")
	// ErrInvalidSampleType indicates an unknown sample-type tag.
	ErrInvalidSampleType = errors.New("invalid sample type")
	// ErrInvalidChannels indicates an unsupported channel count.
	ErrInvalidChannels = errors.New("invalid channel count")
	// ErrInvalidHeaderSize indicates a header size field out of range.
	ErrInvalidHeaderSize = errors.New("invalid header size")
	// ErrNoLevels indicates an empty mip chain.
	ErrNoLevels = errors.New("no mip levels")
	// ErrTooManyLevels indicates more levels than the container stores.
	ErrTooManyLevels = errors.New("too many mip levels")
	// ErrLevelSizeMismatch indicates a level width that breaks the level-size policy.
	ErrLevelSizeMismatch = errors.New("mip level size mismatch")
	// ErrFaceSizeMismatch indicates a face buffer of the wrong length.
	ErrFaceSizeMismatch = errors.New("face size mismatch")
	// ErrSHTooLarge indicates spherical harmonics that do not fit the header.
	ErrSHTooLarge = errors.New("spherical harmonics do not fit header")
	// ErrInvalidSH indicates a coefficient list that is not RGB triplets.
	ErrInvalidSH = errors.New("invalid spherical harmonics")
	// ErrSizeOverflow indicates a size or dimension exceeds supported limits.
	ErrSizeOverflow = errors.New("size overflow")
	// ErrBadCrossLayout indicates an image that is not a 4x3 horizontal cross.
	ErrBadCrossLayout = errors.New("bad cross layout")
	// ErrNotPowerOfTwo indicates a face size that is not a power of two.
	ErrNotPowerOfTwo = errors.New("size is not a power of two")
	// ErrOpenFile indicates HDRE file open failed.
	ErrOpenFile = errors.New("open file failed")
	// ErrCreateFile indicates file creation failed.
	ErrCreateFile = errors.New("create file failed")
	// ErrWritePayload indicates writing container bytes failed.
	ErrWritePayload = errors.New("writing payload failed")
)
