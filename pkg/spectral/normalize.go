package spectral

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Normalize rescales s so its values sum to 1. An all-zero spectrum has no
// defined normalization and fails with ErrDegenerateSpectrum.
//
// Only stimulus spectra are normalized; sensitivity spectra keep their
// absolute quantal scale.
func Normalize(s GridSpectrum) (GridSpectrum, error) {
	total := floats.Sum(s.values)
	if total == 0 {
		return GridSpectrum{}, fmt.Errorf("%w: spectrum sums to zero on %s", ErrDegenerateSpectrum, s.grid)
	}
	if !isFinite(total) || total < 0 {
		return GridSpectrum{}, fmt.Errorf("%w: spectrum sum is %g", ErrDegenerateSpectrum, total)
	}

	values := make([]float64, len(s.values))
	copy(values, s.values)
	floats.Scale(1/total, values)

	return newGridSpectrum(s.grid, values, true), nil
}

// Sum returns the sum of all values.
func (s GridSpectrum) Sum() float64 {
	return floats.Sum(s.values)
}
