package models

// ListSpectraResponse lists the spectrum library
type ListSpectraResponse struct {
	Body ListSpectraResponseBody
}

// ListSpectraResponseBody is the body of the list response
type ListSpectraResponseBody struct {
	Stimuli        []string `json:"stimuli" doc:"Stimulus spectrum names"`
	Photoreceptors []string `json:"photoreceptors" doc:"Photoreceptor spectrum names"`
}

// GetSpectrumRequest identifies a stored spectrum
type GetSpectrumRequest struct {
	Kind string `path:"kind" enum:"stimuli,photoreceptors" doc:"Library section"`
	Name string `path:"name" doc:"Spectrum name"`
}

// GetSpectrumResponse returns a stored spectrum on the calculation grid
type GetSpectrumResponse struct {
	Body GetSpectrumResponseBody
}

// GetSpectrumResponseBody is the body of the spectrum response
type GetSpectrumResponseBody struct {
	Kind              string          `json:"kind" doc:"Library section"`
	Name              string          `json:"name" doc:"Spectrum name"`
	Points            []SpectrumPoint `json:"points" doc:"Spectrum resampled onto the calculation grid"`
	CollectingAreaUM2 *float64        `json:"collecting_area_um2,omitempty" doc:"Stored default collecting area, photoreceptors only"`
}

// DownloadSpectrumResponse carries a pre-signed link to the stored CSV
type DownloadSpectrumResponse struct {
	Body struct {
		URL       string `json:"url" doc:"Pre-signed download URL"`
		ExpiresIn int    `json:"expires_in" doc:"URL expiration time in seconds"`
	}
}

// GeneratePhotoreceptorRequest creates a nomogram photoreceptor
type GeneratePhotoreceptorRequest struct {
	Body struct {
		Name              string   `json:"name" minLength:"1" maxLength:"64" required:"true" doc:"Name to save the spectrum under"`
		LambdaMax         float64  `json:"lambda_max" required:"true" doc:"Wavelength of peak sensitivity in nm"`
		CollectingAreaUM2 *float64 `json:"collecting_area_um2,omitempty" doc:"Optional default collecting area to store with the spectrum"`
	}
}

// GeneratePhotoreceptorResponse returns the generated curve
type GeneratePhotoreceptorResponse struct {
	Body GeneratePhotoreceptorResponseBody
}

// GeneratePhotoreceptorResponseBody is the body of the generate response
type GeneratePhotoreceptorResponseBody struct {
	Message     string          `json:"message" doc:"Confirmation message"`
	Name        string          `json:"name" doc:"Saved spectrum name"`
	LambdaMax   float64         `json:"lambda_max" doc:"Peak wavelength in nm"`
	UVTemplate  bool            `json:"uv_template" doc:"True when the pigment is in the UV family and has no beta-band"`
	Sensitivity []SpectrumPoint `json:"sensitivity" doc:"Peak-normalized quantal sensitivity"`
}

// ImportStimulusRequest imports a measured stimulus spectrum
type ImportStimulusRequest struct {
	Body struct {
		Name      string `json:"name" minLength:"1" maxLength:"64" required:"true" doc:"Name to save the spectrum under"`
		CSV       string `json:"csv,omitempty" maxLength:"5242880" doc:"Two-column CSV or TSV content"`
		UploadKey string `json:"upload_key,omitempty" doc:"Key returned by the upload endpoint, used instead of csv"`
		Baseline  string `json:"baseline,omitempty" enum:"min,noise,none" doc:"Baseline correction applied before resampling (default min)"`
	}
}

// ImportStimulusResponse returns the imported curve and warnings
type ImportStimulusResponse struct {
	Body ImportStimulusResponseBody
}

// ImportStimulusResponseBody is the body of the import response
type ImportStimulusResponseBody struct {
	Message  string          `json:"message" doc:"Confirmation message"`
	Name     string          `json:"name" doc:"Saved spectrum name"`
	Warnings []Warning       `json:"warnings" doc:"Non-fatal findings"`
	Points   []SpectrumPoint `json:"points" doc:"Normalized stimulus spectrum"`
}

// CreateUploadResponse returns a pre-signed upload URL for a raw CSV
type CreateUploadResponse struct {
	Body CreateUploadResponseBody
}

// CreateUploadResponseBody is the body of the upload response
type CreateUploadResponseBody struct {
	UploadKey string `json:"upload_key" doc:"Key to pass to the import endpoint"`
	UploadURL string `json:"upload_url" doc:"Pre-signed S3 URL for file upload"`
	ExpiresIn int    `json:"expires_in" doc:"URL expiration time in seconds"`
}

// ListCollectingAreasResponse lists stored defaults
type ListCollectingAreasResponse struct {
	Body struct {
		Areas []CollectingArea `json:"areas" doc:"Stored collecting areas"`
	}
}

// SetCollectingAreaRequest stores a default collecting area
type SetCollectingAreaRequest struct {
	Name string `path:"name" doc:"Photoreceptor spectrum name"`
	Body struct {
		AreaUM2 float64 `json:"area_um2" minimum:"0" required:"true" doc:"Collecting area in square micrometres"`
	}
}

// SetCollectingAreaResponse returns the stored default
type SetCollectingAreaResponse struct {
	Body CollectingArea
}
