// Package importer turns measured spectra into library spectra on the
// calculation grid.
package importer

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/RMahshie/photoiso/pkg/spectral"
)

// BaselineMode selects how a stimulus noise floor is removed before
// resampling.
type BaselineMode string

const (
	BaselineNone       BaselineMode = "none"
	BaselineMinimum    BaselineMode = "min"
	BaselineNoiseFloor BaselineMode = "noise"
)

// WarnDarkSkipped is raised when a dark spectrum does not line up with the
// measurement and was not subtracted.
const WarnDarkSkipped spectral.WarningCode = "dark_skipped"

// Options controls Import.
type Options struct {
	Baseline BaselineMode
	// Dark is subtracted sample by sample when it has the same length as the
	// measurement.
	Dark spectral.RawSpectrum
	// Log10 marks values as log10 sensitivities, as in the legacy
	// photoreceptor tables.
	Log10 bool
	// Normalize rescales the result to sum to 1. Set for stimuli only.
	Normalize bool
}

// StimulusOptions are the defaults for stimulus imports.
func StimulusOptions() Options {
	return Options{Baseline: BaselineMinimum, Normalize: true}
}

// PhotoreceptorOptions are the defaults for sensitivity imports.
func PhotoreceptorOptions() Options {
	return Options{Baseline: BaselineNone}
}

// Result is an imported spectrum with everything worth telling the user.
type Result struct {
	Spectrum spectral.GridSpectrum
	Warnings []spectral.Warning
}

// Import prepares raw and resamples it onto g. Steps run in a fixed order:
// merge repeated wavelengths, subtract dark, convert from log10, validate,
// remove the baseline, resample, normalize.
func Import(g spectral.Grid, raw spectral.RawSpectrum, opts Options) (*Result, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("%w: file must contain at least 2 data points, got %d", spectral.ErrMalformedSpectrum, len(raw))
	}

	var warnings []spectral.Warning

	merged, n := MergeDuplicates(raw)
	if n > 0 {
		warnings = append(warnings, spectral.Warning{
			Code:    spectral.WarnDuplicatesMerged,
			Message: fmt.Sprintf("merged %d duplicate wavelength entries by averaging", n),
		})
	}
	raw = merged

	if len(opts.Dark) > 0 {
		if len(opts.Dark) == len(raw) {
			raw = subtractDark(raw, opts.Dark)
		} else {
			warnings = append(warnings, spectral.Warning{
				Code:    WarnDarkSkipped,
				Message: fmt.Sprintf("dark spectrum has %d points but measurement has %d; not subtracted", len(opts.Dark), len(raw)),
			})
		}
	}

	if opts.Log10 {
		raw = fromLog10(raw)
	}

	found, err := spectral.Validate(raw)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, found...)

	switch opts.Baseline {
	case BaselineMinimum:
		raw = raw.SubtractMinimum()
	case BaselineNoiseFloor:
		raw = SubtractNoiseFloor(raw)
	case BaselineNone, "":
	default:
		return nil, fmt.Errorf("unknown baseline mode %q", opts.Baseline)
	}

	s, _, err := g.Resample(raw)
	if err != nil {
		return nil, err
	}

	if opts.Normalize {
		s, err = spectral.Normalize(s)
		if err != nil {
			return nil, err
		}
	}

	return &Result{Spectrum: s, Warnings: warnings}, nil
}

// MergeDuplicates averages runs of consecutive points that share a
// wavelength, which low-precision exports produce. It returns the merged
// spectrum and how many points were folded away. Out-of-order wavelengths
// are left for validation to reject.
func MergeDuplicates(raw spectral.RawSpectrum) (spectral.RawSpectrum, int) {
	out := make(spectral.RawSpectrum, 0, len(raw))
	for i := 0; i < len(raw); {
		j := i + 1
		sum := raw[i].Value
		for j < len(raw) && raw[j].Wavelength == raw[i].Wavelength {
			sum += raw[j].Value
			j++
		}
		out = append(out, spectral.Point{Wavelength: raw[i].Wavelength, Value: sum / float64(j-i)})
		i = j
	}
	return out, len(raw) - len(out)
}

// SubtractNoiseFloor estimates the floor from the lowest quarter of the
// samples (at least ten), removes mean + 3σ of those, clamps at zero and
// zeroes whatever is left below 1 % of the peak.
func SubtractNoiseFloor(raw spectral.RawSpectrum) spectral.RawSpectrum {
	values := raw.Values()

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := int(0.25 * float64(len(sorted)))
	if n < 10 {
		n = 10
	}
	if n > len(sorted) {
		n = len(sorted)
	}
	mean, std := stat.PopMeanStdDev(sorted[:n], nil)
	floor := mean + 3*std

	for i := range values {
		values[i] = math.Max(values[i]-floor, 0)
	}
	if peak := floats.Max(values); peak > 0 {
		for i, v := range values {
			if v < 0.01*peak {
				values[i] = 0
			}
		}
	}

	out, _ := spectral.NewRawSpectrum(raw.Wavelengths(), values)
	return out
}

func subtractDark(raw, dark spectral.RawSpectrum) spectral.RawSpectrum {
	out := make(spectral.RawSpectrum, len(raw))
	for i, p := range raw {
		out[i] = spectral.Point{Wavelength: p.Wavelength, Value: math.Max(p.Value-dark[i].Value, 0)}
	}
	return out
}

func fromLog10(raw spectral.RawSpectrum) spectral.RawSpectrum {
	out := make(spectral.RawSpectrum, len(raw))
	for i, p := range raw {
		out[i] = spectral.Point{Wavelength: p.Wavelength, Value: math.Pow(10, p.Value)}
	}
	return out
}
