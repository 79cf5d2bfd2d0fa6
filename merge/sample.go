package merge

import (
	"cmp"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
)

// Channels is the number of color channels merged.
const Channels = 3

// Sample is one exposure: 8-bit R, G and B planes of Width*Height bytes.
type Sample struct {
	Name   string
	Width  int
	Height int
	Planes [Channels][]uint8
	// ExposureTime is in seconds. Zero means unknown.
	ExposureTime float64
	// Calibration scales the composed radiance per channel when this sample
	// is the reference exposure. Zero entries mean 1.
	Calibration [Channels]float64
}

// Validate checks plane lengths against the declared size.
func (s *Sample) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: %q is %dx%d", ErrMismatchedDimensions, s.Name, s.Width, s.Height)
	}
	for c, p := range s.Planes {
		if len(p) != s.Width*s.Height {
			return fmt.Errorf("%w: %q channel %d has %d bytes for %dx%d", ErrMismatchedDimensions, s.Name, c, len(p), s.Width, s.Height)
		}
	}

	return nil
}

// Stack is an exposure stack, ordered by ascending exposure time.
type Stack []Sample

// Times returns the exposure times in stack order.
func (s Stack) Times() []float64 {
	out := make([]float64, len(s))
	for i := range s {
		out[i] = s[i].ExposureTime
	}

	return out
}

// HasTimes reports whether every sample has a positive exposure time.
func (s Stack) HasTimes() bool {
	for i := range s {
		if !(s[i].ExposureTime > 0) {
			return false
		}
	}

	return len(s) > 0
}

var (
	reKnownSequence    = regexp.MustCompile(`(?:sample-|DSC_|IMG_)(\d+)`)
	reTrailingSequence = regexp.MustCompile(`(\d+)\D*$`)
)

// SequenceNumber extracts a shot number from a file name. The camera prefixes
// sample-, DSC_ and IMG_ are tried first, then the last run of digits.
// It is a best-effort heuristic.
func SequenceNumber(name string) (int, bool) {
	base := filepath.Base(name)
	for _, re := range []*regexp.Regexp{reKnownSequence, reTrailingSequence} {
		if m := re.FindStringSubmatch(base); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return n, true
			}
		}
	}

	return 0, false
}

// SortStack orders s in place. With positive exposure times on every sample
// the order is ascending time. Otherwise it falls back to the file name
// sequence number; samples without one go last, by name. The sort is stable.
func SortStack(s Stack) {
	bySequence := func(a, b Sample) int {
		na, oka := SequenceNumber(a.Name)
		nb, okb := SequenceNumber(b.Name)
		switch {
		case oka && okb:
			return cmp.Compare(na, nb)
		case oka:
			return -1
		case okb:
			return 1
		default:
			return cmp.Compare(a.Name, b.Name)
		}
	}

	if s.HasTimes() {
		slices.SortStableFunc(s, func(a, b Sample) int {
			if c := cmp.Compare(a.ExposureTime, b.ExposureTime); c != 0 {
				return c
			}
			return bySequence(a, b)
		})
		return
	}

	slices.SortStableFunc(s, bySequence)
}
