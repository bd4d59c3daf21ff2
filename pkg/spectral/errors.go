package spectral

import "errors"

// Errors returned by the spectral core. Callers match them with errors.Is;
// the returned values wrap them with the offending detail.
var (
	ErrMalformedSpectrum     = errors.New("malformed spectrum")
	ErrDegenerateSpectrum    = errors.New("degenerate spectrum")
	ErrInvalidPeakWavelength = errors.New("invalid peak wavelength")
	ErrInvalidArea           = errors.New("invalid area")
	ErrInvalidPower          = errors.New("invalid power")
	ErrNumericInstability    = errors.New("numeric instability")
	ErrGridMismatch          = errors.New("grid mismatch")
	ErrNotNormalized         = errors.New("stimulus spectrum is not normalized")
	ErrInvalidGrid           = errors.New("invalid grid")
)

// WarningCode identifies a non-fatal condition found while preparing a spectrum.
type WarningCode string

const (
	// WarnCoverage is raised when the source spans less than MinCoverageNM.
	WarnCoverage WarningCode = "coverage"
	// WarnDuplicatesMerged is raised by importers that average repeated wavelengths.
	WarnDuplicatesMerged WarningCode = "duplicates_merged"
)

// Warning is a non-fatal finding. The computation it belongs to still proceeds.
type Warning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	return w.Message
}
