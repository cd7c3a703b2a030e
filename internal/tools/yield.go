package tools

import (
	"context"

	"github.com/klubi/furrow/internal/yield"
)

type predictYieldArgs struct {
	CropType     string `json:"crop_type,omitempty" jsonschema:"description=Type of crop to simulate (e.g. Wheat or Maize),default=Wheat"`
	PlantingDate string `json:"planting_date,omitempty" jsonschema:"description=Planting date in MM/DD format,default=10/01"`
	SoilType     string `json:"soil_type,omitempty" jsonschema:"description=Soil type for the simulation (e.g. SandyLoam or ClayLoam),default=SandyLoam"`
	SimYears     int    `json:"sim_years,omitempty" jsonschema:"description=Number of years to simulate (default 6; must be at least 1)"`
}

// RegisterYieldTool adds the crop yield prediction tool to r, bound to the
// predictor's startup-selected engine.
func RegisterYieldTool(r *Registry, predictor *yield.Predictor) error {
	return register(r, []registration{
		{
			name: "predict_wheat_yield",
			description: "Predict wheat yield with the AquaCrop crop water productivity model. " +
				"Simulates crop growth over a multi-year window anchored to the planting date and " +
				"reports per-season yields plus every simulation step taken.",
			schema:  ReflectSchema[predictYieldArgs],
			handler: makeYieldHandler(predictor),
		},
	})
}

func makeYieldHandler(predictor *yield.Predictor) Handler {
	return func(ctx context.Context, args map[string]any) (string, error) {
		report := predictor.Predict(ctx, yield.Request{
			CropType:     getStringArg(args, "crop_type"),
			PlantingDate: getStringArg(args, "planting_date"),
			SoilType:     getStringArg(args, "soil_type"),
			SimYears:     getIntArg(args, "sim_years", 0),
		})
		return marshalResult(report)
	}
}
