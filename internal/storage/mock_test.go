package storage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/RMahshie/photoiso/pkg/spectral"
)

// MockS3Service implements S3Service for testing
type MockS3Service struct {
	mock.Mock
}

func (m *MockS3Service) EnsureBucket(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockS3Service) GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error) {
	args := m.Called(ctx, key, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockS3Service) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockS3Service) UploadFile(ctx context.Context, key string, data []byte, contentType string) error {
	args := m.Called(ctx, key, data, contentType)
	return args.Error(0)
}

func (m *MockS3Service) DownloadFile(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockS3Service) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	args := m.Called(ctx, prefix)
	keys, _ := args.Get(0).([]string)
	return keys, args.Error(1)
}

func (m *MockS3Service) DeleteFile(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// MockSpectrumStore implements SpectrumStore for testing
type MockSpectrumStore struct {
	mock.Mock
}

func (m *MockSpectrumStore) List(ctx context.Context, kind Kind) ([]string, error) {
	args := m.Called(ctx, kind)
	names, _ := args.Get(0).([]string)
	return names, args.Error(1)
}

func (m *MockSpectrumStore) Load(ctx context.Context, kind Kind, name string) (spectral.RawSpectrum, error) {
	args := m.Called(ctx, kind, name)
	raw, _ := args.Get(0).(spectral.RawSpectrum)
	return raw, args.Error(1)
}

func (m *MockSpectrumStore) Save(ctx context.Context, kind Kind, name string, s spectral.GridSpectrum) error {
	args := m.Called(ctx, kind, name, s)
	return args.Error(0)
}

func (m *MockSpectrumStore) DownloadURL(ctx context.Context, kind Kind, name string) (string, error) {
	args := m.Called(ctx, kind, name)
	return args.String(0), args.Error(1)
}
