package spectral

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Point is a single (wavelength, value) sample.
type Point struct {
	Wavelength float64 `json:"wavelength_nm"`
	Value      float64 `json:"value"`
}

// RawSpectrum is a measured or imported spectrum in source order. It is
// checked by Validate before it is resampled.
type RawSpectrum []Point

// NewRawSpectrum pairs wavelengths with values.
func NewRawSpectrum(wavelengths, values []float64) (RawSpectrum, error) {
	if len(wavelengths) != len(values) {
		return nil, fmt.Errorf("%w: %d wavelengths but %d values", ErrMalformedSpectrum, len(wavelengths), len(values))
	}
	raw := make(RawSpectrum, len(wavelengths))
	for i := range wavelengths {
		raw[i] = Point{Wavelength: wavelengths[i], Value: values[i]}
	}
	return raw, nil
}

// Wavelengths returns the wavelength column.
func (r RawSpectrum) Wavelengths() []float64 {
	out := make([]float64, len(r))
	for i, p := range r {
		out[i] = p.Wavelength
	}
	return out
}

// Values returns the value column.
func (r RawSpectrum) Values() []float64 {
	out := make([]float64, len(r))
	for i, p := range r {
		out[i] = p.Value
	}
	return out
}

// Span returns last minus first wavelength.
func (r RawSpectrum) Span() float64 {
	if len(r) < 2 {
		return 0
	}
	return r[len(r)-1].Wavelength - r[0].Wavelength
}

// SubtractMinimum shifts every value down by the smallest value so the floor
// sits at zero. Stimulus spectra get this before resampling so a noise floor
// does not leak into the zero-filled region.
func (r RawSpectrum) SubtractMinimum() RawSpectrum {
	if len(r) == 0 {
		return nil
	}
	floor := floats.Min(r.Values())
	out := make(RawSpectrum, len(r))
	for i, p := range r {
		out[i] = Point{Wavelength: p.Wavelength, Value: p.Value - floor}
	}
	return out
}
