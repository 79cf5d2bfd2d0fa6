package merge

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/woozymasta/hdre"
)

// Stage is a step of the per-channel merge.
type Stage int

// Merge stages in execution order.
const (
	StageSampling Stage = iota
	StageCurveFitting
	StageRadianceMapping
	StageComposing
	StageDone
)

var stageNames = [...]string{"sampling", "curve-fitting", "radiance-mapping", "composing", "done"}

func (s Stage) String() string {
	if s >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}

	return fmt.Sprintf("stage(%d)", int(s))
}

// ProgressFunc observes stage transitions. It is called when channel enters
// stage, and once with StageDone and channel -1 at the end. Channels run on
// their own goroutines, so calls may be concurrent unless Options.Sequential
// is set. It never affects results.
type ProgressFunc func(stage Stage, channel int)

// Options configures a merge.
type Options struct {
	// Lambda is the smoothness weight. Zero means DefaultLambda.
	Lambda float64
	// Progress observes stage transitions.
	Progress ProgressFunc
	// Sequential runs channels one after another on the calling goroutine.
	Sequential bool
}

func (o *Options) lambda() float64 {
	if o == nil || o.Lambda == 0 {
		return DefaultLambda
	}

	return o.Lambda
}

func (o *Options) progress(stage Stage, channel int) {
	if o != nil && o.Progress != nil {
		o.Progress(stage, channel)
	}
}

// Merge composes a radiance image from samples exposed for times seconds.
// Samples are used in the given order and the middle one is the reference.
func Merge(samples []Sample, times []float64, opts *Options) (*Result, error) {
	return MergeContext(context.Background(), samples, times, opts)
}

// MergeStack merges a stack using the exposure times stored on its samples.
// The stack is merged in ascending time order; the caller's slice is not
// reordered.
func MergeStack(ctx context.Context, stack Stack, opts *Options) (*Result, error) {
	if len(stack) > 0 && !stack.HasTimes() {
		return nil, fmt.Errorf("%w: stack has samples without a positive exposure time", ErrMissingExposureTimes)
	}

	sorted := slices.Clone(stack)
	SortStack(sorted)

	return MergeContext(ctx, sorted, sorted.Times(), opts)
}

// MergeContext is Merge with cancellation checked between stages.
func MergeContext(ctx context.Context, samples []Sample, times []float64, opts *Options) (*Result, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyStack
	}
	if len(times) < len(samples) {
		return nil, fmt.Errorf("%w: %d times for %d exposures", ErrMissingExposureTimes, len(times), len(samples))
	}

	width, height := samples[0].Width, samples[0].Height
	logTimes := make([]float64, len(samples))
	for i := range samples {
		if err := samples[i].Validate(); err != nil {
			return nil, err
		}
		if samples[i].Width != width || samples[i].Height != height {
			return nil, fmt.Errorf("%w: %q is %dx%d, want %dx%d",
				ErrMismatchedDimensions, samples[i].Name, samples[i].Width, samples[i].Height, width, height)
		}
		if !(times[i] > 0) || math.IsInf(times[i], 0) {
			return nil, fmt.Errorf("%w: exposure %d has time %v", ErrMissingExposureTimes, i, times[i])
		}
		logTimes[i] = math.Log(times[i])
	}

	res := &Result{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height*Channels),
	}

	log := hdre.Logger()
	log.Debug("merge: start", "exposures", len(samples), "width", width, "height", height)

	var errs [Channels]error
	run := func(c int) {
		errs[c] = mergeChannel(ctx, samples, logTimes, c, opts, res)
	}

	if opts != nil && opts.Sequential {
		for c := 0; c < Channels; c++ {
			run(c)
		}
	} else {
		var wg sync.WaitGroup
		for c := 0; c < Channels; c++ {
			wg.Add(1)
			go func(c int) {
				defer wg.Done()
				run(c)
			}(c)
		}
		wg.Wait()
	}

	for c, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", c, err)
		}
	}

	opts.progress(StageDone, -1)
	log.Debug("merge: done", "stats", res.Stats)

	return res, nil
}

// mergeChannel runs every stage for channel c and writes its stride of
// res.Pix and its statistics slot.
func mergeChannel(ctx context.Context, samples []Sample, logTimes []float64, c int, opts *Options, res *Result) error {
	log := hdre.Logger()
	ref := len(samples) / 2

	layers := make([][]uint8, len(samples))
	for j := range samples {
		layers[j] = samples[j].Planes[c]
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	opts.progress(StageSampling, c)
	sampled := sampleIntensities(layers, ref)

	if err := ctx.Err(); err != nil {
		return err
	}
	opts.progress(StageCurveFitting, c)
	g, err := fitCurve(sampled, logTimes, opts.lambda())
	if err != nil {
		return err
	}
	log.Debug("merge: response curve", "channel", c, "g0", g[0], "g255", g[Levels-1])

	if err := ctx.Err(); err != nil {
		return err
	}
	opts.progress(StageRadianceMapping, c)
	lnE, refAverage, fallbacks := radianceMap(layers, logTimes, &g, ref)
	if fallbacks > 0 {
		log.Warn("merge: pixels without weighted exposures", "channel", c, "count", fallbacks)
	}
	if m := samples[ref].Calibration[c]; m > 0 && m != 1 {
		shift := float32(math.Log(m))
		for i := range lnE {
			lnE[i] += shift
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	opts.progress(StageComposing, c)
	res.Stats.Channels[c] = compose(res.Pix, lnE, c)
	res.Stats.Channels[c].ReferenceAverage = refAverage

	return nil
}

// radianceMap returns the per-pixel log radiance, the mean reference
// intensity scaled to [0,1], and the number of pixels that fell back to the
// unweighted reference estimate.
func radianceMap(layers [][]uint8, logTimes []float64, g *ResponseCurve, ref int) ([]float32, float64, int) {
	n := len(layers[ref])
	out := make([]float32, n)
	var sum float64
	fallbacks := 0

	for i := 0; i < n; i++ {
		sum += float64(layers[ref][i])

		var acc, wsum float64
		for j, layer := range layers {
			z := layer[i]
			w := Weight(z)
			acc += w * (g[z] - logTimes[j])
			wsum += w
		}

		if wsum > 0 {
			out[i] = float32(acc / wsum)
			continue
		}
		fallbacks++
		out[i] = float32(g[layers[ref][i]] - logTimes[ref])
	}

	return out, sum / float64(n) / 255, fallbacks
}

// compose writes lnE into every Channels-th slot of pix starting at c.
func compose(pix, lnE []float32, c int) ChannelStatistics {
	st := ChannelStatistics{Min: math.Inf(1), Max: math.Inf(-1)}
	var sum float64
	for i, v := range lnE {
		pix[i*Channels+c] = v
		f := float64(v)
		sum += f
		st.Min = min(st.Min, f)
		st.Max = max(st.Max, f)
	}
	st.Average = sum / float64(len(lnE))

	return st
}
