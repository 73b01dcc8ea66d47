// Package analysis finds periodic content in uniformly sampled series.
package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrTooShort = errors.New("analysis: need at least 4 uniformly spaced samples")
	// ErrUnresolved means the strongest component completes fewer than two
	// cycles in the window, so its period cannot be told apart from the span.
	ErrUnresolved = errors.New("analysis: window too short to resolve the dominant period")
)

// PowerSpectrum returns the one-sided amplitude spectrum of values after
// removing their mean. Bin k corresponds to k / (n dt).
func PowerSpectrum(values []float64) []float64 {
	n := len(values)
	if n == 0 {
		return nil
	}
	mean := stat.Mean(values, nil)
	centered := make([]float64, n)
	for i, v := range values {
		centered[i] = v - mean
	}

	coeffs := fft.FFTReal(centered)
	ps := make([]float64, n/2+1)
	for k := range ps {
		ps[k] = cmplx.Abs(coeffs[k]) * 2 / float64(n)
	}
	return ps
}

// DominantPeriod returns the period of the strongest non-zero frequency,
// refined between bins by parabolic interpolation. Samples must be evenly
// spaced in times. A peak in the first bin gives ErrUnresolved.
func DominantPeriod(times, values []float64) (float64, error) {
	n := len(values)
	if n < 4 || len(times) != n {
		return 0, ErrTooShort
	}
	dt := times[1] - times[0]
	if dt <= 0 {
		return 0, ErrTooShort
	}

	ps := PowerSpectrum(values)
	best := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[best] {
			best = k
		}
	}
	if best < 2 {
		return 0, ErrUnresolved
	}
	return float64(n) * dt / (float64(best) + peakOffset(ps, best)), nil
}

// peakOffset fits a parabola through bins k-1, k, k+1 and returns the vertex
// offset from k, in (-0.5, 0.5).
func peakOffset(ps []float64, k int) float64 {
	if k+1 >= len(ps) {
		return 0
	}
	a, b, c := ps[k-1], ps[k], ps[k+1]
	den := a - 2*b + c
	if den >= 0 {
		return 0
	}
	d := 0.5 * (a - c) / den
	return math.Max(-0.5, math.Min(0.5, d))
}
