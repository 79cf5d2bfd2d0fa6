package radiance

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// maxHeaderLines bounds the search for the resolution line.
const maxHeaderLines = 20

// maxDimension bounds width and height to keep allocations sane.
const maxDimension = 1 << 15

var (
	reSignature  = regexp.MustCompile(`^#\?(RADIANCE|RGBE)`)
	reComment    = regexp.MustCompile(`^#.*`)
	reFormat     = regexp.MustCompile(`^FORMAT=(\S+)`)
	reExposure   = regexp.MustCompile(`^EXPOSURE=\s*([0-9]*\.?[0-9]+(?:[eE][-+]?[0-9]+)?)`)
	reGamma      = regexp.MustCompile(`^GAMMA=\s*([0-9]*\.?[0-9]+)`)
	reDimensions = regexp.MustCompile(`^-Y ([0-9]+) \+X ([0-9]+)\s*$`)
)

// rleFormat is the only pixel format the decoder accepts.
const rleFormat = "32-bit_rle_rgbe"

// Header is the parsed text header of a Radiance file.
type Header struct {
	Width    int
	Height   int
	Format   string
	Exposure float64
	Gamma    float64
	Comments []string
	// DataOffset is where scanline data starts.
	DataOffset int
}

// DecodeConfig parses the text header only.
func DecodeConfig(data []byte) (*Header, error) {
	return parseHeader(data)
}

func parseHeader(data []byte) (*Header, error) {
	h := &Header{Exposure: 1, Gamma: 1}
	found := false
	pos := 0

	for i := 0; i < maxHeaderLines && !found; i++ {
		nl := bytes.IndexByte(data[pos:], '\n')
		if nl < 0 {
			break
		}
		line := strings.TrimRight(string(data[pos:pos+nl]), "\r")
		pos += nl + 1

		switch {
		case reSignature.MatchString(line):
		case reComment.MatchString(line):
			h.Comments = append(h.Comments, strings.TrimPrefix(line, "#"))
		case reFormat.MatchString(line):
			h.Format = reFormat.FindStringSubmatch(line)[1]
		case reExposure.MatchString(line):
			// repeated EXPOSURE lines multiply
			if v, err := strconv.ParseFloat(reExposure.FindStringSubmatch(line)[1], 64); err == nil {
				h.Exposure *= v
			}
		case reGamma.MatchString(line):
			if v, err := strconv.ParseFloat(reGamma.FindStringSubmatch(line)[1], 64); err == nil {
				h.Gamma = v
			}
		case reDimensions.MatchString(line):
			m := reDimensions.FindStringSubmatch(line)
			height, errH := strconv.Atoi(m[1])
			width, errW := strconv.Atoi(m[2])
			if errH != nil || errW != nil || width <= 0 || height <= 0 || width > maxDimension || height > maxDimension {
				return nil, fmt.Errorf("%w: %q", ErrInvalidDimensions, line)
			}
			h.Width, h.Height = width, height
			found = true
		}
	}

	if !found {
		return nil, fmt.Errorf("%w: %w within %d lines", ErrUnsupportedFormat, ErrMissingDimensions, maxHeaderLines)
	}
	if h.Format != rleFormat {
		return nil, fmt.Errorf("%w: format %q", ErrUnsupportedFormat, h.Format)
	}

	h.DataOffset = pos

	return h, nil
}
