package hdre

import (
	"context"
	"fmt"
)

// Prefilterer produces a blurred, resampled copy of the base faces for one
// mip level. GPU backends implement it with roughness-driven convolution.
type Prefilterer interface {
	Filter(ctx context.Context, base *Level, channels, size int, roughness float64) (Level, error)
}

// PrefilterFunc adapts a function to Prefilterer.
type PrefilterFunc func(ctx context.Context, base *Level, channels, size int, roughness float64) (Level, error)

// Filter calls f.
func (f PrefilterFunc) Filter(ctx context.Context, base *Level, channels, size int, roughness float64) (Level, error) {
	return f(ctx, base, channels, size, roughness)
}

// Roughness returns the prefilter roughness for a level of a chain with
// count levels: (level+1)/count, reaching 1 at the last level.
func Roughness(level, count int) float64 {
	if count <= 0 {
		return 0
	}

	return float64(level+1) / float64(count)
}

// BuildOptions configures BuildLevels.
type BuildOptions struct {
	// Levels is the chain length including the base. Zero means MaxLevels.
	Levels int
	// Channels is the sample count per pixel of the base faces. Zero means 4.
	Channels int
	// Prefilterer produces levels above 0. Nil means BoxFilter.
	Prefilterer Prefilterer
	// Progress is called after each produced level.
	Progress ProgressFunc
}

// BuildLevels produces a mip chain from base faces. Level 0 is base itself,
// every other level comes from the prefilterer at LevelSize(base.Width, l, Version).
func BuildLevels(ctx context.Context, base Level, opts *BuildOptions) ([]Level, error) {
	count, channels := MaxLevels, 4
	var filter Prefilterer = BoxFilter{}
	var progress ProgressFunc
	if opts != nil {
		if opts.Levels != 0 {
			count = opts.Levels
		}
		if opts.Channels != 0 {
			channels = opts.Channels
		}
		if opts.Prefilterer != nil {
			filter = opts.Prefilterer
		}
		progress = opts.Progress
	}

	if count < 1 || count > MaxLevels {
		return nil, fmt.Errorf("%w: %d", ErrTooManyLevels, count)
	}
	if channels < 1 || channels > 4 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChannels, channels)
	}
	for f, face := range base.Faces {
		if len(face) != base.Width*base.Width*channels {
			return nil, fmt.Errorf("%w: base face %s has %d samples", ErrFaceSizeMismatch, Face(f), len(face))
		}
	}

	levels := make([]Level, count)
	levels[0] = base
	if progress != nil {
		progress(1, count)
	}

	for l := 1; l < count; l++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		size := LevelSize(base.Width, l, Version)
		rough := Roughness(l, count)
		lvl, err := filter.Filter(ctx, &base, channels, size, rough)
		if err != nil {
			return nil, fmt.Errorf("prefilter level %d: %w", l, err)
		}
		if lvl.Width != size {
			return nil, fmt.Errorf("%w: prefilter level %d returned %d, want %d", ErrLevelSizeMismatch, l, lvl.Width, size)
		}
		levels[l] = lvl

		Logger().Debug("hdre: built level", "level", l, "size", size, "roughness", rough)
		if progress != nil {
			progress(l+1, count)
		}
	}

	return levels, nil
}

// BoxFilter is a CPU Prefilterer that area-averages the base faces down to
// the target size. It ignores roughness and needs power-of-two sizes.
type BoxFilter struct{}

// Filter implements Prefilterer.
func (BoxFilter) Filter(ctx context.Context, base *Level, channels, size int, _ float64) (Level, error) {
	if !isPowerOfTwo(base.Width) || !isPowerOfTwo(size) || size > base.Width {
		return Level{}, fmt.Errorf("%w: %d -> %d", ErrNotPowerOfTwo, base.Width, size)
	}

	k := base.Width / size
	norm := 1 / float32(k*k)
	out := NewLevel(size, channels)
	for f, src := range base.Faces {
		if err := ctx.Err(); err != nil {
			return Level{}, err
		}

		dst := out.Faces[f]
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				o := (y*size + x) * channels
				for sy := y * k; sy < (y+1)*k; sy++ {
					row := sy * base.Width
					for sx := x * k; sx < (x+1)*k; sx++ {
						i := (row + sx) * channels
						for c := 0; c < channels; c++ {
							dst[o+c] += src[i+c]
						}
					}
				}
				for c := 0; c < channels; c++ {
					dst[o+c] *= norm
				}
			}
		}
	}

	return out, nil
}
