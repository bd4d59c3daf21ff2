package spectral

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// UVThresholdNM separates the two pigment families of the Govardovskii
// template. Pigments with λmax at or below it carry no β-band. The switch is
// a hard discontinuity of the nomogram and is kept as such.
const UVThresholdNM = 400.0

// Peak wavelengths accepted by the template, independent of the grid it is
// evaluated on.
const (
	MinPeakNM = 200.0
	MaxPeakNM = 720.0
)

// alphaParams are the coefficients of
//
//	S_α(x) = 1 / (exp(A(a-x)) + exp(B(b-x)) + exp(C(c-x)) + D),  x = λmax/λ
type alphaParams struct {
	A, a float64
	B, b float64
	C, c float64
	D    float64
}

// templateAlpha returns the α-band coefficients of Govardovskii et al.
// (2000). Only a depends on λmax; its Gaussian term centred on 300 nm is the
// published accommodation for short-wavelength pigments, so UV and visible
// pigments share this form.
func templateAlpha(lambdaMax float64) alphaParams {
	d := lambdaMax - 300
	return alphaParams{
		A: 69.7, a: 0.8795 + 0.0459*math.Exp(-(d*d)/11940),
		B: 28.0, b: 0.922,
		C: -14.9, c: 1.104,
		D: 0.674,
	}
}

// alpha evaluates the α-band at x. The largest exponent is factored out of
// the denominator so no term can overflow; a result that still underflows is
// the true value of the template at that point.
func (p alphaParams) alpha(x float64) float64 {
	e1 := p.A * (p.a - x)
	e2 := p.B * (p.b - x)
	e3 := p.C * (p.c - x)

	m := math.Max(math.Max(e1, e2), math.Max(e3, 0))
	denom := math.Exp(e1-m) + math.Exp(e2-m) + math.Exp(e3-m) + p.D*math.Exp(-m)
	return math.Exp(-m) / denom
}

// betaBand evaluates the cis-peak for visible pigments.
func betaBand(lambdaMax, wavelengthNM float64) float64 {
	peak := 189 + 0.315*lambdaMax
	width := -40.5 + 0.195*lambdaMax
	z := (wavelengthNM - peak) / width
	return 0.26 * math.Exp(-z*z)
}

// Template is a Govardovskii nomogram evaluated on a grid.
type Template struct {
	LambdaMax float64
	// UV is true when λmax <= UVThresholdNM.
	UV    bool
	Alpha GridSpectrum
	// Beta is all zeros for UV pigments.
	Beta GridSpectrum
	// Sensitivity is Alpha+Beta scaled to a peak of 1.
	Sensitivity GridSpectrum
}

// Govardovskii evaluates the visual pigment template for lambdaMax at every
// grid wavelength. lambdaMax must lie within MinPeakNM..MaxPeakNM; it may
// fall outside the grid, in which case the curve is scaled to its largest
// value on the grid.
func (g Grid) Govardovskii(lambdaMax float64) (Template, error) {
	if math.IsNaN(lambdaMax) || lambdaMax < MinPeakNM || lambdaMax > MaxPeakNM {
		return Template{}, fmt.Errorf("%w: %g nm is outside %g-%g nm",
			ErrInvalidPeakWavelength, lambdaMax, MinPeakNM, MaxPeakNM)
	}

	return g.evaluate(lambdaMax, templateAlpha(lambdaMax), lambdaMax > UVThresholdNM)
}

// Nomogram returns the peak-normalized sensitivity curve for lambdaMax.
func (g Grid) Nomogram(lambdaMax float64) (GridSpectrum, error) {
	t, err := g.Govardovskii(lambdaMax)
	if err != nil {
		return GridSpectrum{}, err
	}
	return t.Sensitivity, nil
}

func (g Grid) evaluate(lambdaMax float64, p alphaParams, withBeta bool) (Template, error) {
	alpha := make([]float64, g.n)
	beta := make([]float64, g.n)
	sum := make([]float64, g.n)

	for i := range alpha {
		wl := g.Wavelength(i)
		alpha[i] = p.alpha(lambdaMax / wl)
		if withBeta {
			beta[i] = betaBand(lambdaMax, wl)
		}
		sum[i] = alpha[i] + beta[i]

		if !isFinite(sum[i]) || sum[i] < 0 {
			return Template{}, fmt.Errorf("%w: template value %g at %g nm for λmax %g nm",
				ErrNumericInstability, sum[i], wl, lambdaMax)
		}
	}

	peak := floats.Max(sum)
	if peak <= 0 {
		return Template{}, fmt.Errorf("%w: template for λmax %g nm vanishes on %s",
			ErrNumericInstability, lambdaMax, g)
	}
	floats.Scale(1/peak, sum)

	return Template{
		LambdaMax:   lambdaMax,
		UV:          !withBeta,
		Alpha:       newGridSpectrum(g, alpha, false),
		Beta:        newGridSpectrum(g, beta, false),
		Sensitivity: newGridSpectrum(g, sum, false),
	}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
