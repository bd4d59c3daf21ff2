package spectral

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Constants are the physical constants used by the rate integration.
type Constants struct {
	Planck     float64 // J·s
	LightSpeed float64 // m/s
}

// DefaultConstants returns h = 6.6e-34 J·s and c = 3e8 m/s, the values the
// legacy calibration sheets were computed with.
func DefaultConstants() Constants {
	return Constants{Planck: 6.6e-34, LightSpeed: 3e8}
}

// PhotonEnergy returns the energy in joules of one photon at wavelengthNM.
func (c Constants) PhotonEnergy(wavelengthNM float64) float64 {
	return c.Planck * c.LightSpeed / (wavelengthNM * 1e-9)
}

// RateResult is the outcome of one rate computation.
type RateResult struct {
	// Rate is in isomerizations per photoreceptor per second.
	Rate        float64
	Stimulus    GridSpectrum
	Sensitivity GridSpectrum
	// Product is photon density (photons/s/μm²) times sensitivity at each
	// wavelength. Its sum times the collecting area is Rate.
	Product GridSpectrum
}

// Calculator integrates stimulus and sensitivity spectra on one grid.
type Calculator struct {
	grid   Grid
	consts Constants
}

// NewCalculator returns a calculator bound to grid and consts.
func NewCalculator(grid Grid, consts Constants) Calculator {
	return Calculator{grid: grid, consts: consts}
}

// Grid returns the grid the calculator expects its inputs on.
func (c Calculator) Grid() Grid { return c.grid }

// Compute converts powerNW spread over spotAreaUM2 into a photoisomerization
// rate for a photoreceptor with the given sensitivity and collecting area.
//
// stimulus must come from Normalize. The sum runs over every grid point
// without an explicit Δλ factor; the step is folded into the normalization
// of the stimulus.
func (c Calculator) Compute(powerNW float64, stimulus, sensitivity GridSpectrum, spotAreaUM2, collectingAreaUM2 float64) (RateResult, error) {
	if math.IsNaN(powerNW) || math.IsInf(powerNW, 0) || powerNW < 0 {
		return RateResult{}, fmt.Errorf("%w: power %g nW must be finite and non-negative", ErrInvalidPower, powerNW)
	}
	if math.IsNaN(spotAreaUM2) || math.IsInf(spotAreaUM2, 0) || spotAreaUM2 <= 0 {
		return RateResult{}, fmt.Errorf("%w: spot area %g μm² must be positive", ErrInvalidArea, spotAreaUM2)
	}
	if math.IsNaN(collectingAreaUM2) || math.IsInf(collectingAreaUM2, 0) || collectingAreaUM2 < 0 {
		return RateResult{}, fmt.Errorf("%w: collecting area %g μm² must be non-negative", ErrInvalidArea, collectingAreaUM2)
	}
	if err := stimulus.checkGrid(c.grid); err != nil {
		return RateResult{}, fmt.Errorf("stimulus: %w", err)
	}
	if err := sensitivity.checkGrid(c.grid); err != nil {
		return RateResult{}, fmt.Errorf("sensitivity: %w", err)
	}
	if !stimulus.normalized {
		return RateResult{}, ErrNotNormalized
	}

	powerW := powerNW * 1e-9
	product := make([]float64, c.grid.n)
	for i := range product {
		spectralPower := powerW * stimulus.values[i]
		photonFlux := spectralPower / c.consts.PhotonEnergy(c.grid.Wavelength(i))
		photonDensity := photonFlux / spotAreaUM2
		product[i] = photonDensity * sensitivity.values[i]
	}

	rate := collectingAreaUM2 * floats.Sum(product)
	if !isFinite(rate) {
		return RateResult{}, fmt.Errorf("%w: rate evaluated to %g", ErrNumericInstability, rate)
	}

	return RateResult{
		Rate:        rate,
		Stimulus:    stimulus,
		Sensitivity: sensitivity,
		Product:     newGridSpectrum(c.grid, product, false),
	}, nil
}
