package models

import (
	"time"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Body struct {
		Status  string    `json:"status" example:"healthy" doc:"Service health status"`
		Version string    `json:"version" example:"1.0.0" doc:"API version"`
		Time    time.Time `json:"time" doc:"Current server time"`
	}
}

// SpectrumPoint represents a single grid sample of a plotted curve
type SpectrumPoint struct {
	Wavelength float64 `json:"wavelength_nm" doc:"Wavelength in nm"`
	Value      float64 `json:"value" doc:"Curve value at this wavelength"`
}

// Warning is a non-fatal finding reported alongside a result
type Warning struct {
	Code    string `json:"code" doc:"Machine-readable warning code"`
	Message string `json:"message" doc:"Human-readable explanation"`
}

// CollectingArea is a stored default collecting area for a photoreceptor
type CollectingArea struct {
	Name      string    `json:"name" doc:"Photoreceptor spectrum name"`
	AreaUM2   float64   `json:"area_um2" doc:"Collecting area in square micrometres"`
	UpdatedAt time.Time `json:"updated_at" doc:"When the default was last changed"`
}
