// Package spectral converts optical power into photoisomerization rates.
//
// Every spectrum the package produces lives on a Grid: a fixed, ascending
// set of wavelengths (200–720 nm at 1 nm by default). Raw measurements enter
// as RawSpectrum values and are projected onto the grid by Grid.Resample;
// synthetic photoreceptors are evaluated directly on the grid by
// Grid.Nomogram. A Calculator combines a normalized stimulus spectrum with a
// sensitivity spectrum into a RateResult.
//
// All functions are pure. Grid and Constants are plain values, built once and
// passed to whatever needs them, so concurrent use needs no locking.
package spectral

import (
	"fmt"
	"math"
)

// Default grid bounds in nanometres.
const (
	DefaultStartNM = 200.0
	DefaultEndNM   = 720.0
	DefaultStepNM  = 1.0
)

// Grid is the wavelength sampling domain shared by every spectrum.
type Grid struct {
	start float64
	end   float64
	step  float64
	n     int
}

// NewGrid builds a grid from start to end inclusive. The span must be a
// whole number of steps.
func NewGrid(startNM, endNM, stepNM float64) (Grid, error) {
	if math.IsNaN(startNM) || math.IsNaN(endNM) || math.IsNaN(stepNM) ||
		math.IsInf(startNM, 0) || math.IsInf(endNM, 0) || math.IsInf(stepNM, 0) {
		return Grid{}, fmt.Errorf("%w: bounds must be finite", ErrInvalidGrid)
	}
	if startNM <= 0 {
		return Grid{}, fmt.Errorf("%w: start %.3f nm must be positive", ErrInvalidGrid, startNM)
	}
	if stepNM <= 0 {
		return Grid{}, fmt.Errorf("%w: step %.3f nm must be positive", ErrInvalidGrid, stepNM)
	}
	if endNM <= startNM {
		return Grid{}, fmt.Errorf("%w: end %.3f nm must exceed start %.3f nm", ErrInvalidGrid, endNM, startNM)
	}

	steps := (endNM - startNM) / stepNM
	rounded := math.Round(steps)
	if math.Abs(steps-rounded) > 1e-9 {
		return Grid{}, fmt.Errorf("%w: span %.3f nm is not a multiple of step %.3f nm", ErrInvalidGrid, endNM-startNM, stepNM)
	}

	return Grid{start: startNM, end: endNM, step: stepNM, n: int(rounded) + 1}, nil
}

// DefaultGrid returns the 200–720 nm, 1 nm grid (521 points).
func DefaultGrid() Grid {
	g, err := NewGrid(DefaultStartNM, DefaultEndNM, DefaultStepNM)
	if err != nil {
		panic(err) // constants are valid
	}
	return g
}

// Start returns the first wavelength in nm.
func (g Grid) Start() float64 { return g.start }

// End returns the last wavelength in nm.
func (g Grid) End() float64 { return g.end }

// Step returns the spacing in nm.
func (g Grid) Step() float64 { return g.step }

// Len returns the number of sample points.
func (g Grid) Len() int { return g.n }

// Wavelength returns the wavelength of point i.
func (g Grid) Wavelength(i int) float64 {
	return g.start + float64(i)*g.step
}

// Wavelengths returns every grid wavelength in ascending order.
func (g Grid) Wavelengths() []float64 {
	out := make([]float64, g.n)
	for i := range out {
		out[i] = g.Wavelength(i)
	}
	return out
}

// Contains reports whether wavelengthNM lies within the grid bounds.
func (g Grid) Contains(wavelengthNM float64) bool {
	return wavelengthNM >= g.start && wavelengthNM <= g.end
}

// Equal reports whether both grids sample the same wavelengths.
func (g Grid) Equal(other Grid) bool {
	return g.n == other.n && g.start == other.start && g.step == other.step
}

func (g Grid) String() string {
	return fmt.Sprintf("%g-%g nm step %g (%d points)", g.start, g.end, g.step, g.n)
}

// GridSpectrum holds one value per grid point, in ascending wavelength
// order. It is only ever produced by this package.
type GridSpectrum struct {
	grid       Grid
	values     []float64
	normalized bool
}

func newGridSpectrum(g Grid, values []float64, normalized bool) GridSpectrum {
	return GridSpectrum{grid: g, values: values, normalized: normalized}
}

// Grid returns the grid the spectrum is sampled on.
func (s GridSpectrum) Grid() Grid { return s.grid }

// Len returns the number of values.
func (s GridSpectrum) Len() int { return len(s.values) }

// At returns the value at grid index i.
func (s GridSpectrum) At(i int) float64 { return s.values[i] }

// Normalized reports whether the values were rescaled to sum to 1.
func (s GridSpectrum) Normalized() bool { return s.normalized }

// Values returns a copy of the values.
func (s GridSpectrum) Values() []float64 {
	out := make([]float64, len(s.values))
	copy(out, s.values)
	return out
}

// ValueAt returns the value at the given grid wavelength. ok is false when
// the wavelength is not a grid point.
func (s GridSpectrum) ValueAt(wavelengthNM float64) (v float64, ok bool) {
	if !s.grid.Contains(wavelengthNM) {
		return 0, false
	}
	pos := (wavelengthNM - s.grid.start) / s.grid.step
	i := int(math.Round(pos))
	if math.Abs(pos-float64(i)) > 1e-9 || i < 0 || i >= len(s.values) {
		return 0, false
	}
	return s.values[i], true
}

// Points pairs each value with its wavelength.
func (s GridSpectrum) Points() []Point {
	out := make([]Point, len(s.values))
	for i, v := range s.values {
		out[i] = Point{Wavelength: s.grid.Wavelength(i), Value: v}
	}
	return out
}

// Peak returns the wavelength and value of the largest sample. Ties resolve
// to the shortest wavelength.
func (s GridSpectrum) Peak() (wavelengthNM, value float64) {
	if len(s.values) == 0 {
		return 0, 0
	}
	best := 0
	for i, v := range s.values {
		if v > s.values[best] {
			best = i
		}
	}
	return s.grid.Wavelength(best), s.values[best]
}

func (s GridSpectrum) checkGrid(g Grid) error {
	if !s.grid.Equal(g) || len(s.values) != g.n {
		return fmt.Errorf("%w: spectrum sampled on %s, expected %s", ErrGridMismatch, s.grid, g)
	}
	return nil
}
