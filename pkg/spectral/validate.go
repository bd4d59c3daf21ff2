package spectral

import (
	"fmt"
	"math"
)

// MinCoverageNM is the source span below which Validate warns about
// under-sampling.
const MinCoverageNM = 100.0

// Validate checks that raw can be resampled. It fails with
// ErrMalformedSpectrum when there are fewer than two points, a non-finite
// sample, or wavelengths that are not strictly increasing. A span under
// MinCoverageNM yields a WarnCoverage warning and no error.
func Validate(raw RawSpectrum) ([]Warning, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 points, got %d", ErrMalformedSpectrum, len(raw))
	}

	for i, p := range raw {
		if math.IsNaN(p.Wavelength) || math.IsInf(p.Wavelength, 0) {
			return nil, fmt.Errorf("%w: non-finite wavelength at row %d", ErrMalformedSpectrum, i)
		}
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return nil, fmt.Errorf("%w: non-finite value at %.3f nm", ErrMalformedSpectrum, p.Wavelength)
		}
		if i > 0 && p.Wavelength <= raw[i-1].Wavelength {
			return nil, fmt.Errorf("%w: wavelengths must be strictly increasing (%.3f nm follows %.3f nm at row %d)",
				ErrMalformedSpectrum, p.Wavelength, raw[i-1].Wavelength, i)
		}
	}

	var warnings []Warning
	if span := raw.Span(); span < MinCoverageNM {
		warnings = append(warnings, Warning{
			Code:    WarnCoverage,
			Message: fmt.Sprintf("source data covers only %.0f nm; results may be unreliable outside the source range", span),
		})
	}
	return warnings, nil
}
