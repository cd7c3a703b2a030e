package yield

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

// Defaults applied to an incomplete Request.
const (
	DefaultCrop         = "Wheat"
	DefaultPlantingDate = "10/01"
	DefaultSoil         = "SandyLoam"
	DefaultYears        = 6
)

const (
	weatherSource     = "Tunis climate data"
	modelName         = "AquaCrop"
	modelDescription  = "FAO crop water productivity model for simulating crop growth and water management"
	modelTransparency = "Full simulation process is logged and visible to user"
)

// Predictor turns a Request into a Report using the engine selected at
// startup.
type Predictor struct {
	engine Engine
	logger *zap.Logger
}

// NewPredictor creates a predictor bound to the given engine.
func NewPredictor(engine Engine, logger *zap.Logger) *Predictor {
	return &Predictor{
		engine: engine,
		logger: logger,
	}
}

// Engine returns the engine the predictor was bound to at startup.
func (p *Predictor) Engine() Engine {
	return p.engine
}

// Predict runs one simulation and assembles the fixed-shape report. It
// never returns a Go error: validation and engine failures are downgraded
// to a status=error report carrying the failure and whatever context was
// assembled before it.
func (p *Predictor) Predict(ctx context.Context, req Request) *Report {
	applyDefaults(&req)
	if err := validate(req); err != nil {
		p.logger.Warn("yield request rejected", zap.Error(err))
		return errorReport(err, nil, nil)
	}

	simStart := fmt.Sprintf("%d/%s", simStartYear, req.PlantingDate)
	simEnd := fmt.Sprintf("%d/05/30", simStartYear+req.SimYears)

	params := &Parameters{
		CropType:           req.CropType,
		PlantingDate:       req.PlantingDate,
		SoilType:           req.SoilType,
		SimulationYears:    req.SimYears,
		SimulationPeriod:   simStart + " to " + simEnd,
		WeatherDataSource:  weatherSource,
		ImplementationType: p.engine.Name(),
	}

	steps := []string{
		fmt.Sprintf("1. Validated parameters: crop=%s, planting date=%s, soil=%s, years=%d",
			req.CropType, req.PlantingDate, req.SoilType, req.SimYears),
		fmt.Sprintf("2. Selected simulation engine: %s", p.engine.Name()),
		"3. Loaded weather data from Tunis climate file",
		fmt.Sprintf("4. Configured soil parameters (%s)", req.SoilType),
		fmt.Sprintf("5. Set up %s crop with planting date %s", req.CropType, req.PlantingDate),
		"6. Initialized water content to field capacity",
	}

	p.logger.Debug("running yield prediction",
		zap.String("engine", p.engine.Name()),
		zap.String("crop", req.CropType),
		zap.String("period", params.SimulationPeriod),
	)

	started := time.Now()
	result, err := p.engine.Run(ctx, RunConfig{
		Crop:         req.CropType,
		PlantingDate: req.PlantingDate,
		Soil:         req.SoilType,
		Years:        req.SimYears,
		SimStart:     simStart,
		SimEnd:       simEnd,
	})
	if err != nil {
		p.logger.Error("simulation engine failed",
			zap.String("engine", p.engine.Name()),
			zap.Error(err),
		)
		return errorReport(err, params, steps)
	}
	if len(result.Seasons) == 0 {
		return errorReport(fmt.Errorf("simulation produced no seasonal results"), params, steps)
	}

	steps = append(steps,
		fmt.Sprintf("7. Ran %d-year simulation from %s to %s", req.SimYears, simStart, simEnd),
		"8. Extracted yield predictions from simulation results",
	)

	p.logger.Debug("yield prediction completed",
		zap.Int("seasons", len(result.Seasons)),
		zap.Duration("elapsed", time.Since(started)),
	)

	return &Report{
		Status:      StatusOK,
		Message:     "wheat yield prediction completed",
		Parameters:  params,
		Predictions: buildPredictions(result.Seasons),
		Steps:       steps,
		ModelInfo: &ModelInfo{
			ModelName:      modelName,
			Description:    modelDescription,
			Transparency:   modelTransparency,
			Implementation: implementationLabel(p.engine.Name()),
		},
		RawSummary: &RawSummary{
			TotalRecords: len(result.Seasons),
			DateRange: DateRange{
				Start: simStart,
				End:   simEnd,
			},
		},
	}
}

func applyDefaults(req *Request) {
	if req.CropType == "" {
		req.CropType = DefaultCrop
	}
	if req.PlantingDate == "" {
		req.PlantingDate = DefaultPlantingDate
	}
	if req.SoilType == "" {
		req.SoilType = DefaultSoil
	}
	if req.SimYears == 0 {
		req.SimYears = DefaultYears
	}
}

func validate(req Request) error {
	if req.SimYears < 1 {
		return fmt.Errorf("sim_years must be at least 1, got %d", req.SimYears)
	}
	if _, err := time.Parse("01/02", req.PlantingDate); err != nil {
		return fmt.Errorf("planting_date must be MM/DD, got %q", req.PlantingDate)
	}
	return nil
}

func buildPredictions(seasons []SeasonResult) *Predictions {
	var sum float64
	maxYield := math.Inf(-1)
	minYield := math.Inf(1)

	seasonal := make([]SeasonYield, 0, len(seasons))
	for _, s := range seasons {
		sum += s.Yield
		if s.Yield > maxYield {
			maxYield = s.Yield
		}
		if s.Yield < minYield {
			minYield = s.Yield
		}
		seasonal = append(seasonal, SeasonYield{
			Season:      s.Season,
			HarvestDate: s.HarvestDate,
			Yield:       round2(s.Yield),
		})
	}

	return &Predictions{
		TotalYield:     round2(sum),
		AverageYield:   round2(sum / float64(len(seasons))),
		MaximumYield:   round2(maxYield),
		MinimumYield:   round2(minYield),
		FinalYield:     round2(seasons[len(seasons)-1].Yield),
		SeasonalYields: seasonal,
	}
}

func errorReport(err error, params *Parameters, steps []string) *Report {
	report := &Report{
		Status:     StatusError,
		Message:    "prediction failed",
		Error:      err.Error(),
		Parameters: params,
		Steps:      steps,
	}
	if errors.Is(err, ErrEngineUnavailable) {
		report.Suggestion = "install the aquacrop CLI or set yield.aquacrop_bin in the config file"
	}
	return report
}

func implementationLabel(engineName string) string {
	if engineName == EngineAquaCrop {
		return "Real AquaCrop"
	}
	return "Mock implementation for demonstration"
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
