package yield

// Report status values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Request holds the parameters of one prediction. Zero values are filled
// with the documented defaults before validation.
type Request struct {
	CropType     string `json:"crop_type" yaml:"crop_type"`
	PlantingDate string `json:"planting_date" yaml:"planting_date"` // MM/DD
	SoilType     string `json:"soil_type" yaml:"soil_type"`
	SimYears     int    `json:"sim_years" yaml:"sim_years"`
}

// Report is the fixed-shape prediction result. Error reports carry Message,
// Error and whatever partial context was assembled before the failure; the
// remaining sections are only present on success.
type Report struct {
	Status      string       `json:"status" yaml:"status"`
	Message     string       `json:"message,omitempty" yaml:"message,omitempty"`
	Error       string       `json:"error,omitempty" yaml:"error,omitempty"`
	Suggestion  string       `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
	Parameters  *Parameters  `json:"simulation_parameters,omitempty" yaml:"simulation_parameters,omitempty"`
	Predictions *Predictions `json:"yield_predictions,omitempty" yaml:"yield_predictions,omitempty"`
	Steps       []string     `json:"simulation_steps,omitempty" yaml:"simulation_steps,omitempty"`
	ModelInfo   *ModelInfo   `json:"model_info,omitempty" yaml:"model_info,omitempty"`
	RawSummary  *RawSummary  `json:"raw_results_summary,omitempty" yaml:"raw_results_summary,omitempty"`
}

// Parameters echoes the validated inputs and the derived simulation window.
type Parameters struct {
	CropType           string `json:"crop_type" yaml:"crop_type"`
	PlantingDate       string `json:"planting_date" yaml:"planting_date"`
	SoilType           string `json:"soil_type" yaml:"soil_type"`
	SimulationYears    int    `json:"simulation_years" yaml:"simulation_years"`
	SimulationPeriod   string `json:"simulation_period" yaml:"simulation_period"` // "<start> to <end>"
	WeatherDataSource  string `json:"weather_data_source" yaml:"weather_data_source"`
	ImplementationType string `json:"implementation_type" yaml:"implementation_type"` // mock | real_aquacrop
}

// Predictions holds the yield metrics, all in tonnes per hectare rounded
// to two decimals.
type Predictions struct {
	TotalYield     float64       `json:"total_yield_tonne_per_ha" yaml:"total_yield_tonne_per_ha"`
	AverageYield   float64       `json:"average_yield_tonne_per_ha" yaml:"average_yield_tonne_per_ha"`
	MaximumYield   float64       `json:"maximum_yield_tonne_per_ha" yaml:"maximum_yield_tonne_per_ha"`
	MinimumYield   float64       `json:"minimum_yield_tonne_per_ha" yaml:"minimum_yield_tonne_per_ha"`
	FinalYield     float64       `json:"final_yield_tonne_per_ha" yaml:"final_yield_tonne_per_ha"`
	SeasonalYields []SeasonYield `json:"seasonal_yields" yaml:"seasonal_yields"`
}

// SeasonYield is one growing season's harvest.
type SeasonYield struct {
	Season      int     `json:"season" yaml:"season"`
	HarvestDate string  `json:"harvest_date" yaml:"harvest_date"`
	Yield       float64 `json:"yield_tonne_per_ha" yaml:"yield_tonne_per_ha"`
}

// ModelInfo names the model behind the numbers and whether the real engine
// or the mock produced them.
type ModelInfo struct {
	ModelName      string `json:"model_name" yaml:"model_name"`
	Description    string `json:"description" yaml:"description"`
	Transparency   string `json:"transparency" yaml:"transparency"`
	Implementation string `json:"implementation" yaml:"implementation"`
}

// RawSummary describes the underlying result series without embedding it.
type RawSummary struct {
	TotalRecords int       `json:"total_records" yaml:"total_records"`
	DateRange    DateRange `json:"date_range" yaml:"date_range"`
}

// DateRange is the simulated calendar span.
type DateRange struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}
