package processing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/photoiso/internal/importer"
	"github.com/RMahshie/photoiso/internal/repository"
	"github.com/RMahshie/photoiso/internal/spectrumcsv"
	"github.com/RMahshie/photoiso/internal/storage"
	"github.com/RMahshie/photoiso/pkg/models"
	"github.com/RMahshie/photoiso/pkg/spectral"
)

var (
	// ErrCollectingAreaRequired means neither the request nor the store had one
	ErrCollectingAreaRequired = errors.New("collecting area required")
	// ErrInvalidInput covers request values rejected before any work is done
	ErrInvalidInput = errors.New("invalid input")
	// ErrUploadNotFound means the upload key does not point at an object
	ErrUploadNotFound = errors.New("upload not found")
)

const (
	uploadPrefix = "uploads/"
	// UploadExpiry matches the lifetime of pre-signed upload URLs
	UploadExpiry = 15 * time.Minute
)

// Collecting area sources reported with a calculation
const (
	SourceRequest = "request"
	SourceStored  = "stored"
)

// CalculationInput is one rate request
type CalculationInput struct {
	PowerNW     float64
	Stimulus    string
	Receptor    string
	SpotAreaUM2 float64
	// CollectingAreaUM2 overrides the stored default when set
	CollectingAreaUM2 *float64
}

// CalculationResult is a rate with the curves and inputs behind it
type CalculationResult struct {
	spectral.RateResult
	CollectingAreaUM2    float64
	CollectingAreaSource string
	Warnings             []spectral.Warning
}

// StimulusImport names a stimulus and where its measurement comes from.
// Exactly one of CSV and UploadKey is set.
type StimulusImport struct {
	Name      string
	CSV       []byte
	UploadKey string
	Baseline  importer.BaselineMode
}

// Upload is a pending raw CSV upload
type Upload struct {
	Key       string
	URL       string
	ExpiresIn time.Duration
}

// ProcessingService runs every operation exposed by the API
type ProcessingService interface {
	Calculate(ctx context.Context, in CalculationInput) (*CalculationResult, error)
	GeneratePhotoreceptor(ctx context.Context, name string, lambdaMax float64, collectingAreaUM2 *float64) (*spectral.Template, error)
	ImportStimulus(ctx context.Context, in StimulusImport) (*importer.Result, error)
	CreateUpload(ctx context.Context) (*Upload, error)
	ListSpectra(ctx context.Context, kind storage.Kind) ([]string, error)
	GetSpectrum(ctx context.Context, kind storage.Kind, name string) (spectral.GridSpectrum, error)
	DownloadURL(ctx context.Context, kind storage.Kind, name string) (string, error)
	CollectingArea(ctx context.Context, name string) (*models.CollectingArea, error)
	ListCollectingAreas(ctx context.Context) ([]*models.CollectingArea, error)
	SetCollectingArea(ctx context.Context, name string, areaUM2 float64) (*models.CollectingArea, error)
}

type processingService struct {
	calc       spectral.Calculator
	spectra    storage.SpectrumStore
	s3         storage.S3Service
	repository repository.CollectingAreaRepository
}

// NewProcessingService wires the calculator to the spectrum library, the
// upload bucket and the collecting area defaults
func NewProcessingService(calc spectral.Calculator, spectra storage.SpectrumStore, s3Service storage.S3Service, repo repository.CollectingAreaRepository) ProcessingService {
	return &processingService{
		calc:       calc,
		spectra:    spectra,
		s3:         s3Service,
		repository: repo,
	}
}

func (s *processingService) Calculate(ctx context.Context, in CalculationInput) (*CalculationResult, error) {
	if !(in.PowerNW > 0) || math.IsInf(in.PowerNW, 0) {
		return nil, fmt.Errorf("%w: power must be a positive number of nW, got %v", spectral.ErrInvalidPower, in.PowerNW)
	}
	if !(in.SpotAreaUM2 > 0) || math.IsInf(in.SpotAreaUM2, 0) {
		return nil, fmt.Errorf("%w: spot area must be a positive number of um^2, got %v", spectral.ErrInvalidArea, in.SpotAreaUM2)
	}

	g := s.calc.Grid()

	rawStimulus, err := s.spectra.Load(ctx, storage.KindStimulus, in.Stimulus)
	if err != nil {
		return nil, err
	}
	stimulus, warnings, err := g.Resample(rawStimulus)
	if err != nil {
		return nil, fmt.Errorf("stimulus %s: %w", in.Stimulus, err)
	}
	stimulus, err = spectral.Normalize(stimulus)
	if err != nil {
		return nil, fmt.Errorf("stimulus %s: %w", in.Stimulus, err)
	}

	rawReceptor, err := s.spectra.Load(ctx, storage.KindPhotoreceptor, in.Receptor)
	if err != nil {
		return nil, err
	}
	sensitivity, receptorWarnings, err := g.Resample(rawReceptor)
	if err != nil {
		return nil, fmt.Errorf("photoreceptor %s: %w", in.Receptor, err)
	}
	warnings = append(warnings, receptorWarnings...)

	area, source, err := s.resolveCollectingArea(ctx, in)
	if err != nil {
		return nil, err
	}

	result, err := s.calc.Compute(in.PowerNW, stimulus, sensitivity, in.SpotAreaUM2, area)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("stimulus", in.Stimulus).
		Str("receptor", in.Receptor).
		Float64("power_nw", in.PowerNW).
		Float64("collecting_area_um2", area).
		Str("collecting_area_source", source).
		Float64("rate", result.Rate).
		Msg("Rate calculated")

	return &CalculationResult{
		RateResult:           result,
		CollectingAreaUM2:    area,
		CollectingAreaSource: source,
		Warnings:             warnings,
	}, nil
}

// resolveCollectingArea prefers the request override over the stored default
func (s *processingService) resolveCollectingArea(ctx context.Context, in CalculationInput) (float64, string, error) {
	if in.CollectingAreaUM2 != nil {
		return *in.CollectingAreaUM2, SourceRequest, nil
	}

	stored, err := s.repository.Get(ctx, in.Receptor)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, "", fmt.Errorf("%w: no default stored for %s", ErrCollectingAreaRequired, in.Receptor)
	}
	if err != nil {
		return 0, "", fmt.Errorf("failed to look up collecting area: %w", err)
	}
	return stored.AreaUM2, SourceStored, nil
}

func (s *processingService) GeneratePhotoreceptor(ctx context.Context, name string, lambdaMax float64, collectingAreaUM2 *float64) (*spectral.Template, error) {
	if err := storage.ValidateName(name); err != nil {
		return nil, err
	}
	if collectingAreaUM2 != nil {
		if a := *collectingAreaUM2; !(a >= 0) || math.IsInf(a, 0) {
			return nil, fmt.Errorf("%w: collecting area must be a non-negative number of um^2, got %v", spectral.ErrInvalidArea, a)
		}
	}

	template, err := s.calc.Grid().Govardovskii(lambdaMax)
	if err != nil {
		return nil, err
	}

	if err := s.spectra.Save(ctx, storage.KindPhotoreceptor, name, template.Sensitivity); err != nil {
		return nil, fmt.Errorf("failed to save photoreceptor: %w", err)
	}

	if collectingAreaUM2 != nil {
		if _, err := s.repository.Upsert(ctx, name, *collectingAreaUM2); err != nil {
			return nil, fmt.Errorf("failed to store collecting area: %w", err)
		}
	}

	log.Info().Str("name", name).Float64("lambda_max", lambdaMax).Bool("uv", template.UV).Msg("Photoreceptor generated")
	return &template, nil
}

func (s *processingService) ImportStimulus(ctx context.Context, in StimulusImport) (*importer.Result, error) {
	if err := storage.ValidateName(in.Name); err != nil {
		return nil, err
	}

	data := in.CSV
	switch {
	case len(data) > 0 && in.UploadKey != "":
		return nil, fmt.Errorf("%w: provide either csv or upload_key, not both", ErrInvalidInput)
	case in.UploadKey != "":
		if err := validateUploadKey(in.UploadKey); err != nil {
			return nil, err
		}
		var err error
		data, err = s.s3.DownloadFile(ctx, in.UploadKey)
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUploadNotFound, in.UploadKey)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to download upload: %w", err)
		}
	case len(data) == 0:
		return nil, fmt.Errorf("%w: csv or upload_key is required", ErrInvalidInput)
	}

	raw, err := spectrumcsv.Parse(data)
	if err != nil {
		return nil, err
	}

	opts := importer.StimulusOptions()
	if in.Baseline != "" {
		opts.Baseline = in.Baseline
	}

	result, err := importer.Import(s.calc.Grid(), raw, opts)
	if err != nil {
		return nil, err
	}

	if err := s.spectra.Save(ctx, storage.KindStimulus, in.Name, result.Spectrum); err != nil {
		return nil, fmt.Errorf("failed to save stimulus: %w", err)
	}

	if in.UploadKey != "" {
		if err := s.s3.DeleteFile(ctx, in.UploadKey); err != nil {
			log.Warn().Err(err).Str("key", in.UploadKey).Msg("Failed to delete consumed upload")
		}
	}

	log.Info().Str("name", in.Name).Int("points", len(raw)).Int("warnings", len(result.Warnings)).Msg("Stimulus imported")
	return result, nil
}

// validateUploadKey accepts only keys handed out by CreateUpload
func validateUploadKey(key string) error {
	id, ok := strings.CutPrefix(key, uploadPrefix)
	if ok {
		id, ok = strings.CutSuffix(id, ".csv")
	}
	if ok {
		_, err := uuid.Parse(id)
		ok = err == nil
	}
	if !ok {
		return fmt.Errorf("%w: malformed upload key %q", ErrInvalidInput, key)
	}
	return nil
}

func (s *processingService) CreateUpload(ctx context.Context) (*Upload, error) {
	key := uploadPrefix + uuid.New().String() + ".csv"

	url, err := s.s3.GenerateUploadURL(ctx, key, "text/csv")
	if err != nil {
		return nil, err
	}

	log.Info().Str("key", key).Msg("Upload URL generated")
	return &Upload{Key: key, URL: url, ExpiresIn: UploadExpiry}, nil
}

func (s *processingService) ListSpectra(ctx context.Context, kind storage.Kind) ([]string, error) {
	return s.spectra.List(ctx, kind)
}

// GetSpectrum returns a stored spectrum on the calculation grid. Stimuli
// come back normalized.
func (s *processingService) GetSpectrum(ctx context.Context, kind storage.Kind, name string) (spectral.GridSpectrum, error) {
	raw, err := s.spectra.Load(ctx, kind, name)
	if err != nil {
		return spectral.GridSpectrum{}, err
	}

	gs, _, err := s.calc.Grid().Resample(raw)
	if err != nil {
		return spectral.GridSpectrum{}, err
	}
	if kind == storage.KindStimulus {
		return spectral.Normalize(gs)
	}
	return gs, nil
}

func (s *processingService) DownloadURL(ctx context.Context, kind storage.Kind, name string) (string, error) {
	// presigning never touches the bucket, so check the object exists first
	if _, err := s.spectra.Load(ctx, kind, name); err != nil {
		return "", err
	}
	return s.spectra.DownloadURL(ctx, kind, name)
}

func (s *processingService) CollectingArea(ctx context.Context, name string) (*models.CollectingArea, error) {
	return s.repository.Get(ctx, name)
}

func (s *processingService) ListCollectingAreas(ctx context.Context) ([]*models.CollectingArea, error) {
	return s.repository.List(ctx)
}

func (s *processingService) SetCollectingArea(ctx context.Context, name string, areaUM2 float64) (*models.CollectingArea, error) {
	if err := storage.ValidateName(name); err != nil {
		return nil, err
	}
	if !(areaUM2 >= 0) || math.IsInf(areaUM2, 0) {
		return nil, fmt.Errorf("%w: collecting area must be a non-negative number of um^2, got %v", spectral.ErrInvalidArea, areaUM2)
	}

	area, err := s.repository.Upsert(ctx, name, areaUM2)
	if err != nil {
		return nil, err
	}

	log.Info().Str("name", name).Float64("area_um2", areaUM2).Msg("Collecting area stored")
	return area, nil
}
