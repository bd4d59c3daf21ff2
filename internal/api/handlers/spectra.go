package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/photoiso/internal/importer"
	"github.com/RMahshie/photoiso/internal/processing"
	"github.com/RMahshie/photoiso/internal/repository"
	"github.com/RMahshie/photoiso/internal/storage"
	"github.com/RMahshie/photoiso/pkg/models"
)

// downloadExpiry is the lifetime of pre-signed download URLs in seconds
const downloadExpiry = 24 * 60 * 60

// SpectrumHandler serves the spectrum library
type SpectrumHandler struct {
	svc processing.ProcessingService
}

// NewSpectrumHandler creates a new spectrum handler
func NewSpectrumHandler(svc processing.ProcessingService) *SpectrumHandler {
	return &SpectrumHandler{svc: svc}
}

// ListSpectra returns the names in both library sections
func (h *SpectrumHandler) ListSpectra(ctx context.Context, _ *struct{}) (*models.ListSpectraResponse, error) {
	stimuli, err := h.svc.ListSpectra(ctx, storage.KindStimulus)
	if err != nil {
		return nil, toHTTPError(err, "Failed to list stimuli")
	}
	receptors, err := h.svc.ListSpectra(ctx, storage.KindPhotoreceptor)
	if err != nil {
		return nil, toHTTPError(err, "Failed to list photoreceptors")
	}

	if stimuli == nil {
		stimuli = []string{}
	}
	if receptors == nil {
		receptors = []string{}
	}

	return &models.ListSpectraResponse{
		Body: models.ListSpectraResponseBody{
			Stimuli:        stimuli,
			Photoreceptors: receptors,
		},
	}, nil
}

// GetSpectrum returns a stored curve on the calculation grid
func (h *SpectrumHandler) GetSpectrum(ctx context.Context, req *models.GetSpectrumRequest) (*models.GetSpectrumResponse, error) {
	kind, err := storage.ParseKind(req.Kind)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	spectrum, err := h.svc.GetSpectrum(ctx, kind, req.Name)
	if err != nil {
		return nil, toHTTPError(err, "Failed to load spectrum")
	}

	body := models.GetSpectrumResponseBody{
		Kind:   string(kind),
		Name:   req.Name,
		Points: toPoints(spectrum),
	}

	if kind == storage.KindPhotoreceptor {
		area, err := h.svc.CollectingArea(ctx, req.Name)
		switch {
		case err == nil:
			body.CollectingAreaUM2 = &area.AreaUM2
		case !errors.Is(err, repository.ErrNotFound):
			log.Warn().Err(err).Str("name", req.Name).Msg("Failed to look up collecting area")
		}
	}

	return &models.GetSpectrumResponse{Body: body}, nil
}

// DownloadSpectrum returns a pre-signed link to the stored CSV
func (h *SpectrumHandler) DownloadSpectrum(ctx context.Context, req *models.GetSpectrumRequest) (*models.DownloadSpectrumResponse, error) {
	kind, err := storage.ParseKind(req.Kind)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	url, err := h.svc.DownloadURL(ctx, kind, req.Name)
	if err != nil {
		return nil, toHTTPError(err, "Failed to generate download URL")
	}

	resp := &models.DownloadSpectrumResponse{}
	resp.Body.URL = url
	resp.Body.ExpiresIn = downloadExpiry
	return resp, nil
}

// GeneratePhotoreceptor builds and saves a nomogram sensitivity curve
func (h *SpectrumHandler) GeneratePhotoreceptor(ctx context.Context, req *models.GeneratePhotoreceptorRequest) (*models.GeneratePhotoreceptorResponse, error) {
	log.Info().Str("name", req.Body.Name).Float64("lambda_max", req.Body.LambdaMax).Msg("Generating photoreceptor")

	template, err := h.svc.GeneratePhotoreceptor(ctx, req.Body.Name, req.Body.LambdaMax, req.Body.CollectingAreaUM2)
	if err != nil {
		return nil, toHTTPError(err, "Failed to generate photoreceptor")
	}

	return &models.GeneratePhotoreceptorResponse{
		Body: models.GeneratePhotoreceptorResponseBody{
			Message:     fmt.Sprintf("Photoreceptor %s saved", req.Body.Name),
			Name:        req.Body.Name,
			LambdaMax:   template.LambdaMax,
			UVTemplate:  template.UV,
			Sensitivity: toPoints(template.Sensitivity),
		},
	}, nil
}

// ImportStimulus imports a measured stimulus from inline CSV or an upload
func (h *SpectrumHandler) ImportStimulus(ctx context.Context, req *models.ImportStimulusRequest) (*models.ImportStimulusResponse, error) {
	log.Info().Str("name", req.Body.Name).Bool("upload", req.Body.UploadKey != "").Msg("Importing stimulus")

	result, err := h.svc.ImportStimulus(ctx, processing.StimulusImport{
		Name:      req.Body.Name,
		CSV:       []byte(req.Body.CSV),
		UploadKey: req.Body.UploadKey,
		Baseline:  importer.BaselineMode(req.Body.Baseline),
	})
	if err != nil {
		return nil, toHTTPError(err, "Failed to import stimulus")
	}

	return &models.ImportStimulusResponse{
		Body: models.ImportStimulusResponseBody{
			Message:  fmt.Sprintf("Stimulus %s saved", req.Body.Name),
			Name:     req.Body.Name,
			Warnings: toWarnings(result.Warnings),
			Points:   toPoints(result.Spectrum),
		},
	}, nil
}

// CreateUpload returns a pre-signed URL for uploading a raw CSV
func (h *SpectrumHandler) CreateUpload(ctx context.Context, _ *struct{}) (*models.CreateUploadResponse, error) {
	upload, err := h.svc.CreateUpload(ctx)
	if err != nil {
		return nil, toHTTPError(err, "Failed to prepare upload. Please try again.")
	}

	return &models.CreateUploadResponse{
		Body: models.CreateUploadResponseBody{
			UploadKey: upload.Key,
			UploadURL: upload.URL,
			ExpiresIn: int(upload.ExpiresIn.Seconds()),
		},
	}, nil
}
