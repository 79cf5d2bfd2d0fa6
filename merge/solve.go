package merge

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// Levels is the number of 8-bit intensity values.
	Levels = 256
	// DefaultLambda is the smoothness weight of the response fit.
	DefaultLambda = 100
	// centerLevel is the intensity pinned to g = 0.
	centerLevel = 128
	// rcond is the relative singular value threshold of the solve.
	rcond = 1e-12
)

// ResponseCurve maps an 8-bit intensity to log exposure.
type ResponseCurve [Levels]float64

// Weight is the triangular weight of intensity z: z up to 127, then 255-z.
func Weight(z uint8) float64 {
	if z <= 127 {
		return float64(z)
	}

	return float64(255 - int(z))
}

// sampleIntensities picks, for each intensity bucket, the first pixel of the
// reference layer with that value and records every layer at that location.
// Buckets absent from the reference stay zero.
func sampleIntensities(layers [][]uint8, ref int) [][Levels]uint8 {
	var loc [Levels]int
	for i := range loc {
		loc[i] = -1
	}
	found := 0
	for i, z := range layers[ref] {
		if loc[z] < 0 {
			loc[z] = i
			if found++; found == Levels {
				break
			}
		}
	}

	out := make([][Levels]uint8, len(layers))
	for j, layer := range layers {
		for z, i := range loc {
			if i >= 0 {
				out[j][z] = layer[i]
			}
		}
	}

	return out
}

// SolveResponseCurve fits g(z) for one channel. layers holds one intensity
// plane per exposure, logTimes the matching ln(exposure time), and the
// reference layer is the middle one.
//
// The system has one data row per weighted (sample, exposure) pair, a
// second-derivative smoothness row per interior intensity scaled by lambda,
// and one row pinning g(128) to zero. Samples whose rows all carry zero
// weight appear in no row and are left out of the unknowns.
func SolveResponseCurve(layers [][]uint8, logTimes []float64, lambda float64) (ResponseCurve, error) {
	var g ResponseCurve
	if len(layers) == 0 {
		return g, ErrEmptyStack
	}
	if len(logTimes) < len(layers) {
		return g, fmt.Errorf("%w: %d times for %d layers", ErrMissingExposureTimes, len(logTimes), len(layers))
	}

	return fitCurve(sampleIntensities(layers, len(layers)/2), logTimes, lambda)
}

// fitCurve builds and solves the response system for sampled intensities,
// indexed [exposure][bucket].
func fitCurve(samples [][Levels]uint8, logTimes []float64, lambda float64) (ResponseCurve, error) {
	var g ResponseCurve

	// column of each active sample's log radiance
	column := make([]int, Levels)
	cols := Levels
	rows := 0
	for i := 0; i < Levels; i++ {
		column[i] = -1
		active := 0
		for j := range samples {
			if Weight(samples[j][i]) > 0 {
				active++
			}
		}
		if active > 0 {
			column[i] = cols
			cols++
			rows += active
		}
	}
	rows += Levels - 2 + 1

	a := mat.NewDense(rows, cols, nil)
	b := mat.NewVecDense(rows, nil)

	k := 0
	for i := 0; i < Levels; i++ {
		if column[i] < 0 {
			continue
		}
		for j := range samples {
			z := samples[j][i]
			w := Weight(z)
			if w == 0 {
				continue
			}
			a.Set(k, int(z), w)
			a.Set(k, column[i], -w)
			b.SetVec(k, w*logTimes[j])
			k++
		}
	}

	for z := 1; z < Levels-1; z++ {
		w := lambda * Weight(uint8(z))
		a.Set(k, z-1, w)
		a.Set(k, z, -2*w)
		a.Set(k, z+1, w)
		k++
	}

	a.Set(k, centerLevel, 1)

	x, err := solveLeastSquares(a, b)
	if err != nil {
		return g, err
	}
	for z := range g {
		g[z] = x.AtVec(z)
	}

	return g, nil
}

// solveLeastSquares returns the minimum-norm solution of a·x ≈ b through the
// SVD pseudo-inverse, requiring full column rank.
func solveLeastSquares(a *mat.Dense, b *mat.VecDense) (*mat.VecDense, error) {
	_, cols := a.Dims()

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, fmt.Errorf("%w: SVD factorization failed", ErrUnsolvableSystem)
	}
	rank := svd.Rank(rcond)
	if rank < cols {
		return nil, fmt.Errorf("%w: rank %d of %d unknowns", ErrUnsolvableSystem, rank, cols)
	}

	var x mat.VecDense
	svd.SolveVecTo(&x, b, rank)
	for i := 0; i < x.Len(); i++ {
		if v := x.AtVec(i); math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite solution at %d", ErrUnsolvableSystem, i)
		}
	}

	return &x, nil
}
