package merge

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"testing"

	"github.com/mdouchement/hdr/hdrcolor"
)

// camera is a linear sensor with log response z = 128 + k·ln(R·t).
var camera = 50 / math.Log(4)

var stackTimes = []float64{0.25, 1, 4}

func expose(lnR, t float64) uint8 {
	z := math.Round(128 + camera*(lnR+math.Log(t)))
	return uint8(math.Max(0, math.Min(255, z)))
}

// syntheticStack renders a scene whose log radiance is lnR(pixel, channel).
func syntheticStack(width, height int, lnR func(i, c int) float64) Stack {
	stack := make(Stack, len(stackTimes))
	for j, t := range stackTimes {
		s := Sample{
			Name:         fmt.Sprintf("sample-%d.png", j),
			Width:        width,
			Height:       height,
			ExposureTime: t,
		}
		for c := range s.Planes {
			s.Planes[c] = make([]uint8, width*height)
			for i := range s.Planes[c] {
				s.Planes[c][i] = expose(lnR(i, c), t)
			}
		}
		stack[j] = s
	}

	return stack
}

func TestMergeFlatScene(t *testing.T) {
	t.Parallel()

	tests := []struct {
		radiance float64
		want     [3]uint8
	}{
		{radiance: 1, want: [3]uint8{78, 128, 178}},
		{radiance: 2, want: [3]uint8{103, 153, 203}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(fmt.Sprint(tc.radiance), func(t *testing.T) {
			t.Parallel()

			stack := syntheticStack(8, 8, func(int, int) float64 { return math.Log(tc.radiance) })
			for j := range stack {
				if got := stack[j].Planes[0][0]; got != tc.want[j] {
					t.Fatalf("exposure %d renders %d, want %d", j, got, tc.want[j])
				}
			}

			res, err := MergeStack(context.Background(), stack, nil)
			if err != nil {
				t.Fatalf("MergeStack: %v", err)
			}

			for i, v := range res.Linear() {
				if math.Abs(float64(v)-tc.radiance) > 1e-3*tc.radiance {
					t.Fatalf("sample %d = %v, want %v", i, v, tc.radiance)
				}
			}
			st := res.Stats.Channels[1]
			if math.Abs(st.Average-math.Log(tc.radiance)) > 1e-3 || st.Min > st.Max {
				t.Fatalf("statistics %+v", st)
			}
			if want := float64(tc.want[1]) / 255; math.Abs(st.ReferenceAverage-want) > 1e-9 {
				t.Fatalf("reference average %v, want %v", st.ReferenceAverage, want)
			}
		})
	}
}

func gradient(i, c int) float64 {
	return -3 + 6*float64(i)/255 + 0.1*float64(c)
}

func TestMergeGradient(t *testing.T) {
	t.Parallel()

	const width, height = 64, 4
	stack := syntheticStack(width, height, gradient)

	res, err := Merge(stack, stackTimes, nil)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if res.Width != width || res.Height != height || len(res.Pix) != width*height*Channels {
		t.Fatalf("result %dx%d with %d samples", res.Width, res.Height, len(res.Pix))
	}

	for i := 0; i < width*height; i++ {
		for c := 0; c < Channels; c++ {
			got := float64(res.Pix[i*Channels+c])
			if want := gradient(i, c); math.Abs(got-want) > 0.05 {
				t.Fatalf("pixel %d channel %d: ln E = %v, want %v", i, c, got, want)
			}
		}
	}

	c, ok := res.HDRAt(5, 2).(hdrcolor.RGB)
	if !ok {
		t.Fatalf("HDRAt returned %T", res.HDRAt(5, 2))
	}
	if want := math.Exp(gradient(2*width+5, 0)); math.Abs(c.R-want) > 0.06*want {
		t.Fatalf("HDRAt R = %v, want about %v", c.R, want)
	}
	if res.Size() != width*height {
		t.Fatalf("Size() = %d", res.Size())
	}
}

func TestMergeDeterministic(t *testing.T) {
	t.Parallel()

	stack := syntheticStack(32, 8, gradient)
	first, err := Merge(stack, stackTimes, nil)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	for _, opts := range []*Options{nil, {Sequential: true}} {
		again, err := Merge(stack, stackTimes, opts)
		if err != nil {
			t.Fatalf("Merge: %v", err)
		}
		if !slices.Equal(first.Pix, again.Pix) || first.Stats != again.Stats {
			t.Fatalf("merge is not deterministic with options %+v", opts)
		}
	}
}

func TestMergeProgress(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var got []string
	opts := &Options{
		Sequential: true,
		Progress: func(stage Stage, channel int) {
			mu.Lock()
			got = append(got, fmt.Sprintf("%d:%s", channel, stage))
			mu.Unlock()
		},
	}

	if _, err := Merge(syntheticStack(4, 4, gradient), stackTimes, opts); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	var want []string
	for c := 0; c < Channels; c++ {
		for _, s := range []Stage{StageSampling, StageCurveFitting, StageRadianceMapping, StageComposing} {
			want = append(want, fmt.Sprintf("%d:%s", c, s))
		}
	}
	want = append(want, "-1:done")

	if !slices.Equal(got, want) {
		t.Fatalf("progress = %v, want %v", got, want)
	}
}

func TestMergeCalibration(t *testing.T) {
	t.Parallel()

	stack := syntheticStack(8, 8, func(int, int) float64 { return 0 })
	stack[1].Calibration = [Channels]float64{2, 0, 0.5}

	res, err := MergeStack(context.Background(), stack, nil)
	if err != nil {
		t.Fatalf("MergeStack: %v", err)
	}

	lin := res.Linear()
	for c, want := range []float64{2, 1, 0.5} {
		if math.Abs(float64(lin[c])-want) > 1e-3 {
			t.Fatalf("channel %d = %v, want %v", c, lin[c], want)
		}
	}
}

func TestMergeStackUnordered(t *testing.T) {
	t.Parallel()

	stack := syntheticStack(8, 8, gradient)
	shuffled := Stack{stack[2], stack[0], stack[1]}

	want, err := MergeStack(context.Background(), stack, nil)
	if err != nil {
		t.Fatalf("MergeStack: %v", err)
	}
	got, err := MergeStack(context.Background(), shuffled, nil)
	if err != nil {
		t.Fatalf("MergeStack shuffled: %v", err)
	}

	if !slices.Equal(got.Linear(), want.Linear()) {
		t.Fatalf("shuffled stack merged differently")
	}
	if got := shuffled.Times(); !slices.Equal(got, []float64{4, 0.25, 1}) {
		t.Fatalf("caller stack reordered to %v", got)
	}
}

func TestMergeErrors(t *testing.T) {
	t.Parallel()

	stack := syntheticStack(4, 4, gradient)

	small := syntheticStack(2, 2, gradient)
	mixed := slices.Clone(stack)
	mixed[2] = small[2]

	short := slices.Clone(stack)
	short[0].Planes[1] = short[0].Planes[1][:3]

	saturated := syntheticStack(4, 4, func(int, int) float64 { return 10 })

	untimed := slices.Clone(stack)
	untimed[1].ExposureTime = 0

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name    string
		run     func() error
		wantErr error
	}{
		{name: "empty", run: func() error { _, err := Merge(nil, nil, nil); return err }, wantErr: ErrEmptyStack},
		{name: "mixed-size", run: func() error { _, err := Merge(mixed, stackTimes, nil); return err }, wantErr: ErrMismatchedDimensions},
		{name: "short-plane", run: func() error { _, err := Merge(short, stackTimes, nil); return err }, wantErr: ErrMismatchedDimensions},
		{name: "few-times", run: func() error { _, err := Merge(stack, stackTimes[:2], nil); return err }, wantErr: ErrMissingExposureTimes},
		{name: "zero-time", run: func() error { _, err := Merge(stack, []float64{1, 0, 2}, nil); return err }, wantErr: ErrMissingExposureTimes},
		{name: "untimed-stack", run: func() error { _, err := MergeStack(context.Background(), untimed, nil); return err }, wantErr: ErrMissingExposureTimes},
		{name: "single-exposure", run: func() error { _, err := Merge(stack[:1], stackTimes, nil); return err }, wantErr: ErrUnsolvableSystem},
		{name: "saturated", run: func() error { _, err := Merge(saturated, stackTimes, nil); return err }, wantErr: ErrUnsolvableSystem},
		{name: "canceled", run: func() error { _, err := MergeContext(canceled, stack, stackTimes, nil); return err }, wantErr: context.Canceled},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if err := tc.run(); !errors.Is(err, tc.wantErr) {
				t.Fatalf("error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestWeight(t *testing.T) {
	t.Parallel()

	tests := []struct {
		z    uint8
		want float64
	}{
		{0, 0}, {1, 1}, {127, 127}, {128, 127}, {200, 55}, {255, 0},
	}
	for _, tc := range tests {
		if got := Weight(tc.z); got != tc.want {
			t.Fatalf("Weight(%d) = %v, want %v", tc.z, got, tc.want)
		}
	}
}

func TestSolveResponseCurveCentered(t *testing.T) {
	t.Parallel()

	stack := syntheticStack(64, 4, gradient)
	layers := [][]uint8{stack[0].Planes[0], stack[1].Planes[0], stack[2].Planes[0]}
	logTimes := []float64{math.Log(0.25), 0, math.Log(4)}

	g, err := SolveResponseCurve(layers, logTimes, DefaultLambda)
	if err != nil {
		t.Fatalf("SolveResponseCurve: %v", err)
	}
	if math.Abs(g[centerLevel]) > 1e-9 {
		t.Fatalf("g(128) = %v, want 0", g[centerLevel])
	}
	for z := 40; z <= 216; z += 16 {
		if want := (float64(z) - 128) / camera; math.Abs(g[z]-want) > 0.03 {
			t.Fatalf("g(%d) = %v, want about %v", z, g[z], want)
		}
	}
	for z := 1; z < Levels; z++ {
		if g[z] < g[z-1] {
			t.Fatalf("response not monotonic at %d: %v < %v", z, g[z], g[z-1])
		}
	}
}

func TestDevelop(t *testing.T) {
	t.Parallel()

	st := ChannelStatistics{Min: 0, Max: 2, Average: 1, ReferenceAverage: 0.25}
	res := &Result{
		Width:  2,
		Height: 1,
		Pix:    []float32{2, 2, 2, 0, 0, 0},
		Stats:  Statistics{Channels: [Channels]ChannelStatistics{st, st, st}},
	}

	out := Develop(res, nil)
	for i, want := range []float64{1.14169, 1.14169, 1.14169, 0.00032, 0.00032, 0.00032} {
		if math.Abs(float64(out[i])-want) > 1e-4 {
			t.Fatalf("sample %d = %v, want %v", i, out[i], want)
		}
	}

	scaled := Develop(res, &DevelopOptions{MaxRadiance: 10, Bias: 4})
	if want := 1.14169 * 10 * 2; math.Abs(float64(scaled[0])-want) > 1e-3 {
		t.Fatalf("scaled = %v, want %v", scaled[0], want)
	}
}

func BenchmarkMerge(b *testing.B) {
	stack := syntheticStack(256, 64, gradient)

	b.ReportAllocs()
	for b.Loop() {
		if _, err := Merge(stack, stackTimes, nil); err != nil {
			b.Fatalf("Merge: %v", err)
		}
	}
}
