package merge

import "math"

// DevelopOptions configures Develop.
type DevelopOptions struct {
	// MaxRadiance scales the normalized response. Zero means 1.
	MaxRadiance float64
	// Bias multiplies the reference pattern match. Zero means 2.
	Bias float64
}

// radianceCurve is a sixth-order fit from normalized log radiance to
// relative scene radiance, highest power first.
var radianceCurve = [...]float64{20.4730, -44.9280, 36.7912, -13.5250, 2.47270, -0.14253, 0.00032}

// Develop maps a merge result to display-referred linear RGB. Each channel's
// log range is normalized to [0,1], passed through the radiance curve, scaled
// by MaxRadiance and multiplied by Bias times the ratio of the reference
// average intensity to the normalized channel average.
func Develop(r *Result, opts *DevelopOptions) []float32 {
	maxRadiance, bias := 1.0, 2.0
	if opts != nil {
		if opts.MaxRadiance > 0 {
			maxRadiance = opts.MaxRadiance
		}
		if opts.Bias > 0 {
			bias = opts.Bias
		}
	}

	var scale, offset, match [Channels]float64
	for c, st := range r.Stats.Channels {
		span := st.Max - st.Min
		if span > 0 {
			scale[c] = 1 / span
		}
		offset[c] = st.Min

		match[c] = bias
		if avg := (st.Average - st.Min) * scale[c]; avg > 0 {
			match[c] = bias * st.ReferenceAverage / avg
		}
	}

	out := make([]float32, len(r.Pix))
	for i, v := range r.Pix {
		c := i % Channels
		n := (float64(v) - offset[c]) * scale[c]

		var y float64
		for _, k := range radianceCurve {
			y = y*n + k
		}
		out[i] = float32(math.Max(0, y*maxRadiance*match[c]))
	}

	return out
}
