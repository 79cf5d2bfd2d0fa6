// Package photo decodes low-dynamic-range exposures into merge samples.
package photo

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG
	_ "image/png"  // register PNG
	"io"
	"os"

	"github.com/nfnt/resize"
	"github.com/woozymasta/hdre"
	"github.com/woozymasta/hdre/merge"
	_ "golang.org/x/image/bmp"  // register BMP
	_ "golang.org/x/image/tiff" // register TIFF
	_ "golang.org/x/image/webp" // register WebP
)

// ErrDecode indicates an exposure that could not be decoded.
var ErrDecode = errors.New("decode exposure failed")

// Options configures exposure loading.
type Options struct {
	// MaxWidth downscales wider exposures with Lanczos3. Zero keeps the size.
	MaxWidth int
}

// Decode reads one exposure. name labels the sample and feeds the sequence
// number heuristic. The exposure time is left zero.
func Decode(r io.Reader, name string, opts *Options) (merge.Sample, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return merge.Sample{}, fmt.Errorf("%w: %q: %v", ErrDecode, name, err)
	}

	b := img.Bounds()
	if opts != nil && opts.MaxWidth > 0 && b.Dx() > opts.MaxWidth {
		h := b.Dy() * opts.MaxWidth / b.Dx()
		img = resize.Resize(uint(opts.MaxWidth), uint(max(1, h)), img, resize.Lanczos3)
		hdre.Logger().Debug("photo: downscaled", "name", name, "from", b.Dx(), "to", opts.MaxWidth)
	}

	s := planes(img)
	s.Name = name
	hdre.Logger().Debug("photo: decoded", "name", name, "format", format, "width", s.Width, "height", s.Height)

	return s, nil
}

// Load decodes the exposure at path.
func Load(path string, opts *Options) (merge.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return merge.Sample{}, fmt.Errorf("%w: %q: %v", hdre.ErrOpenFile, path, err)
	}
	defer func() { _ = f.Close() }()

	return Decode(f, path, opts)
}

// LoadStack loads every path and orders the result with merge.SortStack.
// times, when non-empty, assigns exposure times in path order.
func LoadStack(paths []string, times []float64, opts *Options) (merge.Stack, error) {
	if len(times) > 0 && len(times) != len(paths) {
		return nil, fmt.Errorf("%w: %d times for %d exposures", merge.ErrMissingExposureTimes, len(times), len(paths))
	}

	stack := make(merge.Stack, len(paths))
	for i, p := range paths {
		s, err := Load(p, opts)
		if err != nil {
			return nil, err
		}
		if len(times) > 0 {
			s.ExposureTime = times[i]
		}
		stack[i] = s
	}
	merge.SortStack(stack)

	return stack, nil
}

// planes splits img into 8-bit R, G and B planes.
func planes(img image.Image) merge.Sample {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	s := merge.Sample{Width: w, Height: h}
	for c := range s.Planes {
		s.Planes[c] = make([]uint8, w*h)
	}

	switch src := img.(type) {
	case *image.NRGBA:
		copyInterleaved(&s, src.Pix, src.Stride)
	case *image.RGBA:
		// opaque photographs only; premultiplied values pass through
		copyInterleaved(&s, src.Pix, src.Stride)
	default:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				i := y*w + x
				s.Planes[0][i] = uint8(r >> 8)
				s.Planes[1][i] = uint8(g >> 8)
				s.Planes[2][i] = uint8(bl >> 8)
			}
		}
	}

	return s
}

func copyInterleaved(s *merge.Sample, pix []uint8, stride int) {
	for y := 0; y < s.Height; y++ {
		row := pix[y*stride:]
		for x := 0; x < s.Width; x++ {
			i := y*s.Width + x
			s.Planes[0][i] = row[x*4]
			s.Planes[1][i] = row[x*4+1]
			s.Planes[2][i] = row[x*4+2]
		}
	}
}
