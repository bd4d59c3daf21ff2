package spectral

import (
	"fmt"

	"gonum.org/v1/gonum/interp"
)

// Resample validates raw and projects it onto the grid by piecewise-linear
// interpolation. Grid points outside the source span are exactly zero, and
// negative interpolation results are clamped to zero. Validation warnings
// are returned alongside the spectrum.
func (g Grid) Resample(raw RawSpectrum) (GridSpectrum, []Warning, error) {
	warnings, err := Validate(raw)
	if err != nil {
		return GridSpectrum{}, nil, err
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(raw.Wavelengths(), raw.Values()); err != nil {
		return GridSpectrum{}, nil, fmt.Errorf("%w: %v", ErrMalformedSpectrum, err)
	}

	lo := raw[0].Wavelength
	hi := raw[len(raw)-1].Wavelength

	values := make([]float64, g.n)
	for i := range values {
		wl := g.Wavelength(i)
		if wl < lo || wl > hi {
			continue
		}
		if v := pl.Predict(wl); v > 0 {
			values[i] = v
		}
	}

	return newGridSpectrum(g, values, false), warnings, nil
}
