package handlers

import (
	"context"

	"github.com/RMahshie/photoiso/internal/processing"
	"github.com/RMahshie/photoiso/pkg/models"
)

// CollectingAreaHandler serves stored collecting area defaults
type CollectingAreaHandler struct {
	svc processing.ProcessingService
}

// NewCollectingAreaHandler creates a new collecting area handler
func NewCollectingAreaHandler(svc processing.ProcessingService) *CollectingAreaHandler {
	return &CollectingAreaHandler{svc: svc}
}

func (h *CollectingAreaHandler) ListCollectingAreas(ctx context.Context, _ *struct{}) (*models.ListCollectingAreasResponse, error) {
	areas, err := h.svc.ListCollectingAreas(ctx)
	if err != nil {
		return nil, toHTTPError(err, "Failed to list collecting areas")
	}

	resp := &models.ListCollectingAreasResponse{}
	resp.Body.Areas = make([]models.CollectingArea, 0, len(areas))
	for _, a := range areas {
		resp.Body.Areas = append(resp.Body.Areas, *a)
	}
	return resp, nil
}

func (h *CollectingAreaHandler) SetCollectingArea(ctx context.Context, req *models.SetCollectingAreaRequest) (*models.SetCollectingAreaResponse, error) {
	area, err := h.svc.SetCollectingArea(ctx, req.Name, req.Body.AreaUM2)
	if err != nil {
		return nil, toHTTPError(err, "Failed to store collecting area")
	}
	return &models.SetCollectingAreaResponse{Body: *area}, nil
}
