package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/RMahshie/photoiso/internal/importer"
	"github.com/RMahshie/photoiso/internal/processing"
	"github.com/RMahshie/photoiso/internal/storage"
	"github.com/RMahshie/photoiso/pkg/models"
	"github.com/RMahshie/photoiso/pkg/spectral"
)

// MockProcessingService implements processing.ProcessingService for testing
type MockProcessingService struct {
	mock.Mock
}

func (m *MockProcessingService) Calculate(ctx context.Context, in processing.CalculationInput) (*processing.CalculationResult, error) {
	args := m.Called(ctx, in)
	r, _ := args.Get(0).(*processing.CalculationResult)
	return r, args.Error(1)
}

func (m *MockProcessingService) GeneratePhotoreceptor(ctx context.Context, name string, lambdaMax float64, collectingAreaUM2 *float64) (*spectral.Template, error) {
	args := m.Called(ctx, name, lambdaMax, collectingAreaUM2)
	t, _ := args.Get(0).(*spectral.Template)
	return t, args.Error(1)
}

func (m *MockProcessingService) ImportStimulus(ctx context.Context, in processing.StimulusImport) (*importer.Result, error) {
	args := m.Called(ctx, in)
	r, _ := args.Get(0).(*importer.Result)
	return r, args.Error(1)
}

func (m *MockProcessingService) CreateUpload(ctx context.Context) (*processing.Upload, error) {
	args := m.Called(ctx)
	u, _ := args.Get(0).(*processing.Upload)
	return u, args.Error(1)
}

func (m *MockProcessingService) ListSpectra(ctx context.Context, kind storage.Kind) ([]string, error) {
	args := m.Called(ctx, kind)
	names, _ := args.Get(0).([]string)
	return names, args.Error(1)
}

func (m *MockProcessingService) GetSpectrum(ctx context.Context, kind storage.Kind, name string) (spectral.GridSpectrum, error) {
	args := m.Called(ctx, kind, name)
	s, _ := args.Get(0).(spectral.GridSpectrum)
	return s, args.Error(1)
}

func (m *MockProcessingService) DownloadURL(ctx context.Context, kind storage.Kind, name string) (string, error) {
	args := m.Called(ctx, kind, name)
	return args.String(0), args.Error(1)
}

func (m *MockProcessingService) CollectingArea(ctx context.Context, name string) (*models.CollectingArea, error) {
	args := m.Called(ctx, name)
	a, _ := args.Get(0).(*models.CollectingArea)
	return a, args.Error(1)
}

func (m *MockProcessingService) ListCollectingAreas(ctx context.Context) ([]*models.CollectingArea, error) {
	args := m.Called(ctx)
	a, _ := args.Get(0).([]*models.CollectingArea)
	return a, args.Error(1)
}

func (m *MockProcessingService) SetCollectingArea(ctx context.Context, name string, areaUM2 float64) (*models.CollectingArea, error) {
	args := m.Called(ctx, name, areaUM2)
	a, _ := args.Get(0).(*models.CollectingArea)
	return a, args.Error(1)
}
