package rgbe

import (
	"math"
	"testing"
)

func TestFromFloatKnownValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		r, g, b float32
		want    Pixel
	}{
		{name: "black", want: Pixel{}},
		{name: "negative", r: -1, g: -2, b: -3, want: Pixel{}},
		{name: "half", r: 0.5, g: 0.25, b: 0.125, want: Pixel{128, 64, 32, 128}},
		{name: "one", r: 1, g: 1, b: 1, want: Pixel{128, 128, 128, 129}},
		{name: "large", r: 256, g: 0, b: 0, want: Pixel{128, 0, 0, 137}},
		{name: "inf", r: float32(math.Inf(1)), g: 1, b: 0, want: Pixel{255, 255, 255, 255}},
		{name: "nan-max", r: float32(math.NaN()), g: 1, b: 1, want: Pixel{}},
		{name: "nan-component", r: 1, g: float32(math.NaN()), b: 0.5, want: Pixel{128, 0, 64, 129}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := FromFloat(tc.r, tc.g, tc.b)
			if got != tc.want {
				t.Fatalf("FromFloat(%v, %v, %v) = %v, want %v", tc.r, tc.g, tc.b, got, tc.want)
			}
		})
	}
}

func TestToFloatFactor(t *testing.T) {
	t.Parallel()

	r, g, b := ToFloat(Pixel{128, 64, 32, 136})
	if r != 128 || g != 64 || b != 32 {
		t.Fatalf("ToFloat = (%v, %v, %v), want (128, 64, 32)", r, g, b)
	}

	r, g, b = ToFloat(Pixel{200, 100, 50, 0})
	if r != 0 || g != 0 || b != 0 {
		t.Fatalf("zero exponent decoded to (%v, %v, %v)", r, g, b)
	}
}

func TestRoundTripWithinQuantization(t *testing.T) {
	t.Parallel()

	for i := 0; i <= 20; i++ {
		for j := 0; j <= 20; j++ {
			r := float32(i) / 20
			g := float32(j) / 20
			b := float32((i*j)%21) / 20

			gr, gg, gb := ToFloat(FromFloat(r, g, b))
			v := math.Max(float64(r), math.Max(float64(g), float64(b)))
			// one mantissa step of the shared exponent
			bound := v / 128
			for _, c := range [][2]float32{{r, gr}, {g, gg}, {b, gb}} {
				if d := math.Abs(float64(c[0] - c[1])); d > bound+1e-7 {
					t.Fatalf("(%v,%v,%v): component %v decoded as %v, error %v > %v", r, g, b, c[0], c[1], d, bound)
				}
			}
		}
	}
}

func TestBufferConversions(t *testing.T) {
	t.Parallel()

	src := []float32{
		0.5, 0.25, 0.125, 1,
		0, 0, 0, 1,
		4, 2, 1, 0.5,
	}
	enc := make([]byte, 12)
	if n := EncodeBuffer(enc, src, 4); n != 3 {
		t.Fatalf("EncodeBuffer wrote %d pixels, want 3", n)
	}

	dec := make([]float32, 9)
	if n := DecodeBuffer(dec, enc, 3); n != 3 {
		t.Fatalf("DecodeBuffer wrote %d pixels, want 3", n)
	}
	want := []float32{0.5, 0.25, 0.125, 0, 0, 0, 4, 2, 1}
	for i := range want {
		if dec[i] != want[i] {
			t.Fatalf("sample %d = %v, want %v", i, dec[i], want[i])
		}
	}

	withAlpha := make([]float32, 12)
	DecodeBuffer(withAlpha, enc, 4)
	if withAlpha[3] != 1 || withAlpha[7] != 1 || withAlpha[11] != 1 {
		t.Fatalf("alpha not forced to 1: %v", withAlpha)
	}
}

func BenchmarkEncodeBuffer(b *testing.B) {
	src := make([]float32, 256*256*4)
	for i := range src {
		src[i] = float32(i%1024) / 64
	}
	dst := make([]byte, 256*256*4)

	b.ReportAllocs()
	for b.Loop() {
		EncodeBuffer(dst, src, 4)
	}
}
