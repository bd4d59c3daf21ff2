package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/RMahshie/photoiso/internal/api/handlers"
	"github.com/RMahshie/photoiso/internal/processing"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(api huma.API, svc processing.ProcessingService) {
	// Initialize handlers
	spectrumHandler := handlers.NewSpectrumHandler(svc)
	calculationHandler := handlers.NewCalculationHandler(svc)
	areaHandler := handlers.NewCollectingAreaHandler(svc)

	// Register spectrum library routes
	huma.Register(api, huma.Operation{
		OperationID: "listSpectra",
		Method:      http.MethodGet,
		Path:        "/api/spectra",
		Summary:     "List spectra",
		Description: "Returns the names of all stored stimuli and photoreceptors",
		Tags:        []string{"Spectra"},
	}, spectrumHandler.ListSpectra)

	huma.Register(api, huma.Operation{
		OperationID: "getSpectrum",
		Method:      http.MethodGet,
		Path:        "/api/spectra/{kind}/{name}",
		Summary:     "Get spectrum",
		Description: "Returns a stored spectrum resampled onto the calculation grid",
		Tags:        []string{"Spectra"},
	}, spectrumHandler.GetSpectrum)

	huma.Register(api, huma.Operation{
		OperationID: "downloadSpectrum",
		Method:      http.MethodGet,
		Path:        "/api/spectra/{kind}/{name}/download",
		Summary:     "Download spectrum",
		Description: "Returns a pre-signed URL for the stored CSV",
		Tags:        []string{"Spectra"},
	}, spectrumHandler.DownloadSpectrum)

	huma.Register(api, huma.Operation{
		OperationID:   "generatePhotoreceptor",
		Method:        http.MethodPost,
		Path:          "/api/photoreceptors/generate",
		Summary:       "Generate photoreceptor",
		Description:   "Builds a Govardovskii nomogram sensitivity for a peak wavelength and saves it",
		Tags:          []string{"Spectra"},
		DefaultStatus: http.StatusCreated,
	}, spectrumHandler.GeneratePhotoreceptor)

	huma.Register(api, huma.Operation{
		OperationID:   "importStimulus",
		Method:        http.MethodPost,
		Path:          "/api/stimuli/import",
		Summary:       "Import stimulus",
		Description:   "Imports a measured stimulus from inline CSV or an uploaded file",
		Tags:          []string{"Spectra"},
		DefaultStatus: http.StatusCreated,
	}, spectrumHandler.ImportStimulus)

	huma.Register(api, huma.Operation{
		OperationID: "createUpload",
		Method:      http.MethodPost,
		Path:        "/api/uploads",
		Summary:     "Create upload",
		Description: "Returns a pre-signed URL for uploading a raw spectrum CSV",
		Tags:        []string{"Spectra"},
	}, spectrumHandler.CreateUpload)

	// Register calculation routes
	huma.Register(api, huma.Operation{
		OperationID: "calculate",
		Method:      http.MethodPost,
		Path:        "/api/calculate",
		Summary:     "Calculate photoisomerization rate",
		Description: "Computes photoisomerizations per photoreceptor per second for a stimulus and photoreceptor",
		Tags:        []string{"Calculation"},
	}, calculationHandler.Calculate)

	// Register collecting area routes
	huma.Register(api, huma.Operation{
		OperationID: "listCollectingAreas",
		Method:      http.MethodGet,
		Path:        "/api/collecting-areas",
		Summary:     "List collecting areas",
		Description: "Returns the stored default collecting areas",
		Tags:        []string{"Collecting Areas"},
	}, areaHandler.ListCollectingAreas)

	huma.Register(api, huma.Operation{
		OperationID: "setCollectingArea",
		Method:      http.MethodPut,
		Path:        "/api/collecting-areas/{name}",
		Summary:     "Set collecting area",
		Description: "Stores the default collecting area for a photoreceptor",
		Tags:        []string{"Collecting Areas"},
	}, areaHandler.SetCollectingArea)
}
