package yield

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Base yields in tonnes per hectare under average-rainfall conditions.
var cropBaseYield = map[string]float64{
	"Wheat":  3.5,
	"Maize":  4.2,
	"Rice":   3.8,
	"Barley": 2.8,
}

const defaultBaseYield = 3.0

var soilMultiplier = map[string]float64{
	"SandyLoam": 1.0,
	"ClayLoam":  1.2,
	"SandyClay": 0.9,
	"Loam":      1.1,
	"Clay":      1.3,
}

const defaultSoilMultiplier = 1.0

// MockEngine is a deterministic stand-in for the real AquaCrop binary.
// Yield per season is the crop's base yield scaled by the soil multiplier
// and the season's rainfall factor from the weather dataset, so repeated
// runs with the same request produce identical reports.
type MockEngine struct {
	weather *Weather
	logger  *zap.Logger
}

// NewMockEngine creates a mock engine over the given weather dataset.
func NewMockEngine(weather *Weather, logger *zap.Logger) *MockEngine {
	return &MockEngine{
		weather: weather,
		logger:  logger,
	}
}

// Name reports the engine identifier used in implementation_type.
func (e *MockEngine) Name() string {
	return EngineMock
}

// Run produces one season per simulated year. The harvest falls in the
// spring after each planting, so season i is harvested in year
// simStartYear+i.
func (e *MockEngine) Run(ctx context.Context, cfg RunConfig) (*RunResult, error) {
	base, ok := cropBaseYield[cfg.Crop]
	if !ok {
		base = defaultBaseYield
	}
	mult, ok := soilMultiplier[cfg.Soil]
	if !ok {
		mult = defaultSoilMultiplier
	}

	e.logger.Debug("running mock simulation",
		zap.String("crop", cfg.Crop),
		zap.String("soil", cfg.Soil),
		zap.Int("years", cfg.Years),
		zap.Float64("baseYield", base),
		zap.Float64("soilMultiplier", mult),
	)

	seasons := make([]SeasonResult, 0, cfg.Years)
	for i := 1; i <= cfg.Years; i++ {
		seasons = append(seasons, SeasonResult{
			Season:      i,
			HarvestDate: fmt.Sprintf("%d/05/15", simStartYear+i),
			Yield:       base * mult * e.weather.factor(i),
		})
	}

	return &RunResult{Seasons: seasons}, nil
}
