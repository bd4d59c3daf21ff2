package handlers

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/RMahshie/photoiso/internal/processing"
	"github.com/RMahshie/photoiso/pkg/models"
)

// CalculationHandler serves rate calculations
type CalculationHandler struct {
	svc processing.ProcessingService
}

// NewCalculationHandler creates a new calculation handler
func NewCalculationHandler(svc processing.ProcessingService) *CalculationHandler {
	return &CalculationHandler{svc: svc}
}

// Calculate returns the photoisomerization rate for a stimulus and photoreceptor
func (h *CalculationHandler) Calculate(ctx context.Context, req *models.CalculateRequest) (*models.CalculateResponse, error) {
	log.Info().
		Str("stimulus", req.Body.Stimulus).
		Str("receptor", req.Body.Receptor).
		Float64("power_nw", req.Body.PowerNW).
		Float64("area_um2", req.Body.AreaUM2).
		Msg("Calculation request received")

	result, err := h.svc.Calculate(ctx, processing.CalculationInput{
		PowerNW:           req.Body.PowerNW,
		Stimulus:          req.Body.Stimulus,
		Receptor:          req.Body.Receptor,
		SpotAreaUM2:       req.Body.AreaUM2,
		CollectingAreaUM2: req.Body.CollectingAreaUM2,
	})
	if err != nil {
		return nil, toHTTPError(err, "Failed to calculate rate")
	}

	return &models.CalculateResponse{
		Body: models.CalculateResponseBody{
			Rate:                 result.Rate,
			CollectingAreaUM2:    result.CollectingAreaUM2,
			CollectingAreaSource: result.CollectingAreaSource,
			Stimulus:             toPoints(result.Stimulus),
			Sensitivity:          toPoints(result.Sensitivity),
			Product:              toPoints(result.Product),
			Warnings:             toWarnings(result.Warnings),
		},
	}, nil
}
