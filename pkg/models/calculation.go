package models

// CalculateRequest asks for a photoisomerization rate
type CalculateRequest struct {
	Body struct {
		PowerNW           float64  `json:"power_nw" required:"true" doc:"Measured optical power in nW"`
		Stimulus          string   `json:"stimulus" minLength:"1" required:"true" doc:"Stimulus spectrum name"`
		Receptor          string   `json:"receptor" minLength:"1" required:"true" doc:"Photoreceptor spectrum name"`
		AreaUM2           float64  `json:"area_um2" required:"true" doc:"Stimulus spot area in square micrometres"`
		CollectingAreaUM2 *float64 `json:"collecting_area_um2,omitempty" doc:"Collecting area override; the stored default is used when omitted"`
	}
}

// CalculateResponse returns the rate and the curves behind it
type CalculateResponse struct {
	Body CalculateResponseBody
}

// CalculateResponseBody is the body of the calculate response
type CalculateResponseBody struct {
	Rate                 float64         `json:"rate" doc:"Photoisomerizations per photoreceptor per second"`
	CollectingAreaUM2    float64         `json:"collecting_area_um2" doc:"Collecting area used"`
	CollectingAreaSource string          `json:"collecting_area_source" enum:"request,stored" doc:"Where the collecting area came from"`
	Stimulus             []SpectrumPoint `json:"stimulus" doc:"Normalized stimulus spectrum"`
	Sensitivity          []SpectrumPoint `json:"sensitivity" doc:"Photoreceptor sensitivity"`
	Product              []SpectrumPoint `json:"product" doc:"Photon density times sensitivity"`
	Warnings             []Warning       `json:"warnings" doc:"Non-fatal findings"`
}
