package processing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/photoiso/internal/importer"
	"github.com/RMahshie/photoiso/internal/repository"
	"github.com/RMahshie/photoiso/internal/spectrumcsv"
	"github.com/RMahshie/photoiso/internal/storage"
	"github.com/RMahshie/photoiso/pkg/models"
	"github.com/RMahshie/photoiso/pkg/spectral"
)

type fixture struct {
	spectra *MockSpectrumStore
	s3      *MockS3Service
	repo    *MockCollectingAreaRepository
	calc    spectral.Calculator
	svc     ProcessingService
}

func newFixture() *fixture {
	f := &fixture{
		spectra: new(MockSpectrumStore),
		s3:      new(MockS3Service),
		repo:    new(MockCollectingAreaRepository),
		calc:    spectral.NewCalculator(spectral.DefaultGrid(), spectral.DefaultConstants()),
	}
	f.svc = NewProcessingService(f.calc, f.spectra, f.s3, f.repo)
	return f
}

func (f *fixture) assertExpectations(t *testing.T) {
	f.spectra.AssertExpectations(t)
	f.s3.AssertExpectations(t)
	f.repo.AssertExpectations(t)
}

// flat covers the whole default grid with a constant value
func flat(v float64) spectral.RawSpectrum {
	return spectral.RawSpectrum{{Wavelength: 200, Value: v}, {Wavelength: 720, Value: v}}
}

func ptr(v float64) *float64 { return &v }

func expectedRate(t *testing.T, calc spectral.Calculator, power, spot, collecting float64) float64 {
	t.Helper()
	g := calc.Grid()
	stim, _, err := g.Resample(flat(1))
	require.NoError(t, err)
	stim, err = spectral.Normalize(stim)
	require.NoError(t, err)
	sens, _, err := g.Resample(flat(1))
	require.NoError(t, err)
	res, err := calc.Compute(power, stim, sens, spot, collecting)
	require.NoError(t, err)
	return res.Rate
}

func TestCalculate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		input      CalculationInput
		mockSetup  func(f *fixture)
		wantSource string
		wantArea   float64
		wantErr    error
	}{
		{
			name:  "collecting area override",
			input: CalculationInput{PowerNW: 10, Stimulus: "led_470", Receptor: "rod", SpotAreaUM2: 100, CollectingAreaUM2: ptr(1.5)},
			mockSetup: func(f *fixture) {
				f.spectra.On("Load", ctx, storage.KindStimulus, "led_470").Return(flat(3), nil)
				f.spectra.On("Load", ctx, storage.KindPhotoreceptor, "rod").Return(flat(1), nil)
			},
			wantSource: SourceRequest,
			wantArea:   1.5,
		},
		{
			name:  "stored collecting area",
			input: CalculationInput{PowerNW: 10, Stimulus: "led_470", Receptor: "rod", SpotAreaUM2: 100},
			mockSetup: func(f *fixture) {
				f.spectra.On("Load", ctx, storage.KindStimulus, "led_470").Return(flat(3), nil)
				f.spectra.On("Load", ctx, storage.KindPhotoreceptor, "rod").Return(flat(1), nil)
				f.repo.On("Get", ctx, "rod").Return(&models.CollectingArea{Name: "rod", AreaUM2: 0.5}, nil)
			},
			wantSource: SourceStored,
			wantArea:   0.5,
		},
		{
			name:  "no collecting area anywhere",
			input: CalculationInput{PowerNW: 10, Stimulus: "led_470", Receptor: "rod", SpotAreaUM2: 100},
			mockSetup: func(f *fixture) {
				f.spectra.On("Load", ctx, storage.KindStimulus, "led_470").Return(flat(3), nil)
				f.spectra.On("Load", ctx, storage.KindPhotoreceptor, "rod").Return(flat(1), nil)
				f.repo.On("Get", ctx, "rod").Return(nil, repository.ErrNotFound)
			},
			wantErr: ErrCollectingAreaRequired,
		},
		{
			name:      "zero power rejected before loading",
			input:     CalculationInput{PowerNW: 0, Stimulus: "led_470", Receptor: "rod", SpotAreaUM2: 100},
			mockSetup: func(f *fixture) {},
			wantErr:   spectral.ErrInvalidPower,
		},
		{
			name:      "zero spot area rejected before loading",
			input:     CalculationInput{PowerNW: 1, Stimulus: "led_470", Receptor: "rod", SpotAreaUM2: 0},
			mockSetup: func(f *fixture) {},
			wantErr:   spectral.ErrInvalidArea,
		},
		{
			name:  "negative override rejected",
			input: CalculationInput{PowerNW: 1, Stimulus: "led_470", Receptor: "rod", SpotAreaUM2: 100, CollectingAreaUM2: ptr(-1)},
			mockSetup: func(f *fixture) {
				f.spectra.On("Load", ctx, storage.KindStimulus, "led_470").Return(flat(3), nil)
				f.spectra.On("Load", ctx, storage.KindPhotoreceptor, "rod").Return(flat(1), nil)
			},
			wantErr: spectral.ErrInvalidArea,
		},
		{
			name:  "unknown stimulus",
			input: CalculationInput{PowerNW: 1, Stimulus: "missing", Receptor: "rod", SpotAreaUM2: 100},
			mockSetup: func(f *fixture) {
				f.spectra.On("Load", ctx, storage.KindStimulus, "missing").Return(nil, storage.ErrSpectrumNotFound)
			},
			wantErr: storage.ErrSpectrumNotFound,
		},
		{
			name:  "all-zero stimulus",
			input: CalculationInput{PowerNW: 1, Stimulus: "dark", Receptor: "rod", SpotAreaUM2: 100},
			mockSetup: func(f *fixture) {
				f.spectra.On("Load", ctx, storage.KindStimulus, "dark").Return(flat(0), nil)
			},
			wantErr: spectral.ErrDegenerateSpectrum,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.mockSetup(f)

			result, err := f.svc.Calculate(ctx, tt.input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantSource, result.CollectingAreaSource)
				assert.Equal(t, tt.wantArea, result.CollectingAreaUM2)
				want := expectedRate(t, f.calc, tt.input.PowerNW, tt.input.SpotAreaUM2, tt.wantArea)
				assert.InEpsilon(t, want, result.Rate, 1e-12)
				assert.True(t, result.Stimulus.Normalized())
				assert.Empty(t, result.Warnings)
			}
			f.assertExpectations(t)
		})
	}
}

func TestCalculate_ReportsCoverageWarnings(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	narrow := spectral.RawSpectrum{{Wavelength: 460, Value: 1}, {Wavelength: 470, Value: 2}, {Wavelength: 480, Value: 1}}
	f.spectra.On("Load", ctx, storage.KindStimulus, "narrow").Return(narrow, nil)
	f.spectra.On("Load", ctx, storage.KindPhotoreceptor, "rod").Return(flat(1), nil)

	result, err := f.svc.Calculate(ctx, CalculationInput{PowerNW: 1, Stimulus: "narrow", Receptor: "rod", SpotAreaUM2: 10, CollectingAreaUM2: ptr(1)})
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, spectral.WarnCoverage, result.Warnings[0].Code)
	f.assertExpectations(t)
}

func TestGeneratePhotoreceptor(t *testing.T) {
	ctx := context.Background()

	t.Run("saves sensitivity and default area", func(t *testing.T) {
		f := newFixture()
		f.spectra.On("Save", ctx, storage.KindPhotoreceptor, "mouse_scone", mock.AnythingOfType("spectral.GridSpectrum")).Return(nil)
		f.repo.On("Upsert", ctx, "mouse_scone", 0.2).Return(&models.CollectingArea{Name: "mouse_scone", AreaUM2: 0.2}, nil)

		tmpl, err := f.svc.GeneratePhotoreceptor(ctx, "mouse_scone", 360, ptr(0.2))
		require.NoError(t, err)
		assert.True(t, tmpl.UV)
		wl, peak := tmpl.Sensitivity.Peak()
		assert.InDelta(t, 360, wl, 1)
		assert.InDelta(t, 1.0, peak, 1e-12)
		f.assertExpectations(t)
	})

	t.Run("without area leaves defaults alone", func(t *testing.T) {
		f := newFixture()
		f.spectra.On("Save", ctx, storage.KindPhotoreceptor, "rod", mock.Anything).Return(nil)

		tmpl, err := f.svc.GeneratePhotoreceptor(ctx, "rod", 500, nil)
		require.NoError(t, err)
		assert.False(t, tmpl.UV)
		f.assertExpectations(t)
	})

	t.Run("peak outside grid", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.GeneratePhotoreceptor(ctx, "bad", 800, nil)
		assert.ErrorIs(t, err, spectral.ErrInvalidPeakWavelength)
		f.assertExpectations(t)
	})

	t.Run("invalid name", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.GeneratePhotoreceptor(ctx, "../rod", 500, nil)
		assert.ErrorIs(t, err, storage.ErrInvalidName)
		f.assertExpectations(t)
	})
}

const triangleCSV = "wavelength_nm,intensity\n400,1\n500,3\n600,1\n"

func TestImportStimulus_InlineCSV(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	var saved spectral.GridSpectrum
	f.spectra.On("Save", ctx, storage.KindStimulus, "led_500", mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(3).(spectral.GridSpectrum) }).
		Return(nil)

	result, err := f.svc.ImportStimulus(ctx, StimulusImport{Name: "led_500", CSV: []byte(triangleCSV)})
	require.NoError(t, err)

	assert.True(t, saved.Normalized())
	assert.InDelta(t, 1.0, saved.Sum(), 1e-12)
	wl, _ := saved.Peak()
	assert.Equal(t, 500.0, wl)
	v, ok := saved.ValueAt(400)
	require.True(t, ok)
	assert.Zero(t, v, "minimum baseline removes the floor")
	assert.Equal(t, saved.Values(), result.Spectrum.Values())
	f.assertExpectations(t)
}

func TestImportStimulus_FromUpload(t *testing.T) {
	ctx := context.Background()
	key := "uploads/7b0f4f6e-2a47-4f1f-9b84-4a0c6b0f3f11.csv"

	f := newFixture()
	f.s3.On("DownloadFile", ctx, key).Return([]byte(triangleCSV), nil)
	f.s3.On("DeleteFile", ctx, key).Return(errors.New("transient"))
	f.spectra.On("Save", ctx, storage.KindStimulus, "led_500", mock.Anything).Return(nil)

	_, err := f.svc.ImportStimulus(ctx, StimulusImport{Name: "led_500", UploadKey: key, Baseline: importer.BaselineNone})
	require.NoError(t, err, "cleanup failures are only logged")
	f.assertExpectations(t)
}

func TestImportStimulus_Errors(t *testing.T) {
	ctx := context.Background()
	key := "uploads/7b0f4f6e-2a47-4f1f-9b84-4a0c6b0f3f11.csv"

	tests := []struct {
		name      string
		input     StimulusImport
		mockSetup func(f *fixture)
		wantErr   error
	}{
		{
			name:      "neither source",
			input:     StimulusImport{Name: "x"},
			mockSetup: func(f *fixture) {},
			wantErr:   ErrInvalidInput,
		},
		{
			name:      "both sources",
			input:     StimulusImport{Name: "x", CSV: []byte(triangleCSV), UploadKey: key},
			mockSetup: func(f *fixture) {},
			wantErr:   ErrInvalidInput,
		},
		{
			name:      "foreign key",
			input:     StimulusImport{Name: "x", UploadKey: "spectra/stimuli/led.csv"},
			mockSetup: func(f *fixture) {},
			wantErr:   ErrInvalidInput,
		},
		{
			name:  "expired upload",
			input: StimulusImport{Name: "x", UploadKey: key},
			mockSetup: func(f *fixture) {
				f.s3.On("DownloadFile", ctx, key).Return(nil, storage.ErrObjectNotFound)
			},
			wantErr: ErrUploadNotFound,
		},
		{
			name:      "unparseable file",
			input:     StimulusImport{Name: "x", CSV: []byte("wavelength,value\n400,abc\n")},
			mockSetup: func(f *fixture) {},
			wantErr:   spectrumcsv.ErrFormat,
		},
		{
			name:      "wavelengths out of order",
			input:     StimulusImport{Name: "x", CSV: []byte("500,1\n490,2\n510,3\n")},
			mockSetup: func(f *fixture) {},
			wantErr:   spectral.ErrMalformedSpectrum,
		},
		{
			name:      "flat stimulus has nothing left after baseline",
			input:     StimulusImport{Name: "x", CSV: []byte("400,2\n500,2\n600,2\n")},
			mockSetup: func(f *fixture) {},
			wantErr:   spectral.ErrDegenerateSpectrum,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.mockSetup(f)

			result, err := f.svc.ImportStimulus(ctx, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, result)
			f.assertExpectations(t)
		})
	}
}

func TestCreateUpload(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.s3.On("GenerateUploadURL", ctx, mock.MatchedBy(func(key string) bool {
		return validateUploadKey(key) == nil
	}), "text/csv").Return("https://s3.example.com/upload", nil)

	upload, err := f.svc.CreateUpload(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(upload.Key, "uploads/"))
	assert.Equal(t, "https://s3.example.com/upload", upload.URL)
	assert.Equal(t, UploadExpiry, upload.ExpiresIn)
	f.assertExpectations(t)
}

func TestGetSpectrum(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.spectra.On("Load", ctx, storage.KindStimulus, "led").Return(flat(5), nil)
	f.spectra.On("Load", ctx, storage.KindPhotoreceptor, "rod").Return(flat(5), nil)

	stim, err := f.svc.GetSpectrum(ctx, storage.KindStimulus, "led")
	require.NoError(t, err)
	assert.True(t, stim.Normalized())

	rod, err := f.svc.GetSpectrum(ctx, storage.KindPhotoreceptor, "rod")
	require.NoError(t, err)
	assert.False(t, rod.Normalized())
	assert.Equal(t, 5.0, rod.At(0))
	f.assertExpectations(t)
}

func TestDownloadURL_MissingSpectrum(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.spectra.On("Load", ctx, storage.KindStimulus, "gone").Return(nil, storage.ErrSpectrumNotFound)

	_, err := f.svc.DownloadURL(ctx, storage.KindStimulus, "gone")
	assert.ErrorIs(t, err, storage.ErrSpectrumNotFound)
	f.assertExpectations(t)
}

func TestSetCollectingArea(t *testing.T) {
	ctx := context.Background()

	f := newFixture()
	f.repo.On("Upsert", ctx, "rod", 1.0).Return(&models.CollectingArea{Name: "rod", AreaUM2: 1}, nil)
	area, err := f.svc.SetCollectingArea(ctx, "rod", 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, area.AreaUM2)
	f.assertExpectations(t)

	f = newFixture()
	_, err = f.svc.SetCollectingArea(ctx, "rod", -0.5)
	assert.ErrorIs(t, err, spectral.ErrInvalidArea)
	f.assertExpectations(t)
}
