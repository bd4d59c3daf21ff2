package handlers

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/photoiso/internal/processing"
	"github.com/RMahshie/photoiso/internal/repository"
	"github.com/RMahshie/photoiso/internal/spectrumcsv"
	"github.com/RMahshie/photoiso/internal/storage"
	"github.com/RMahshie/photoiso/pkg/models"
	"github.com/RMahshie/photoiso/pkg/spectral"
)

// toHTTPError maps service errors onto API responses. Anything unrecognised
// is logged and reported as fallback.
func toHTTPError(err error, fallback string) error {
	switch {
	case errors.Is(err, storage.ErrSpectrumNotFound),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, processing.ErrUploadNotFound):
		return huma.Error404NotFound(err.Error())

	case errors.Is(err, storage.ErrInvalidName),
		errors.Is(err, processing.ErrInvalidInput),
		errors.Is(err, spectrumcsv.ErrFormat),
		errors.Is(err, spectral.ErrInvalidPower),
		errors.Is(err, spectral.ErrInvalidArea),
		errors.Is(err, spectral.ErrInvalidPeakWavelength):
		return huma.Error400BadRequest(err.Error())

	case errors.Is(err, spectral.ErrMalformedSpectrum),
		errors.Is(err, spectral.ErrDegenerateSpectrum),
		errors.Is(err, spectral.ErrNumericInstability),
		errors.Is(err, processing.ErrCollectingAreaRequired):
		return huma.Error422UnprocessableEntity(err.Error())
	}

	log.Error().Err(err).Msg(fallback)
	return huma.Error500InternalServerError(fallback, err)
}

func toPoints(s spectral.GridSpectrum) []models.SpectrumPoint {
	points := make([]models.SpectrumPoint, 0, s.Len())
	for _, p := range s.Points() {
		points = append(points, models.SpectrumPoint{Wavelength: p.Wavelength, Value: p.Value})
	}
	return points
}

func toWarnings(ws []spectral.Warning) []models.Warning {
	out := make([]models.Warning, 0, len(ws))
	for _, w := range ws {
		out = append(out, models.Warning{Code: string(w.Code), Message: w.Message})
	}
	return out
}
