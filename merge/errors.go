package merge

import "errors"

var (
	// ErrEmptyStack indicates a merge of zero exposures.
	ErrEmptyStack = errors.New("empty exposure stack")
	// ErrMismatchedDimensions indicates exposures of different sizes.
	ErrMismatchedDimensions = errors.New("mismatched exposure dimensions")
	// ErrMissingExposureTimes indicates fewer valid exposure times than images.
	ErrMissingExposureTimes = errors.New("missing exposure times")
	// ErrUnsolvableSystem indicates a rank-deficient or non-finite response solve.
	ErrUnsolvableSystem = errors.New("unsolvable response system")
)
