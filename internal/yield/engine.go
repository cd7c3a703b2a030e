// Package yield implements crop yield prediction backed by the AquaCrop
// model. When the external aquacrop binary is not installed, a deterministic
// mock engine driven by an embedded weather dataset stands in for it, and
// every report states which implementation produced it.
package yield

import (
	"context"
	"fmt"
	"os/exec"

	"go.uber.org/zap"
)

// Engine identifiers, reported as implementation_type in the output.
const (
	EngineMock     = "mock"
	EngineAquaCrop = "real_aquacrop"
)

// simStartYear anchors the historical weather record; every simulation
// window starts at the planting date of this year.
const simStartYear = 1979

// ErrEngineUnavailable marks a run failure caused by the external engine
// binary going missing after startup detection.
var ErrEngineUnavailable = fmt.Errorf("simulation engine unavailable")

// RunConfig describes a single simulation run handed to an Engine.
type RunConfig struct {
	Crop         string
	PlantingDate string // MM/DD
	Soil         string
	Years        int
	SimStart     string // YYYY/MM/DD
	SimEnd       string // YYYY/MM/DD
}

// SeasonResult is one growing season's outcome.
type SeasonResult struct {
	Season      int
	HarvestDate string
	Yield       float64 // tonnes per hectare, unrounded
}

// RunResult holds the per-season series produced by an engine run.
type RunResult struct {
	Seasons []SeasonResult
}

// Engine runs a configured crop simulation and returns per-season yields.
// Implementations are selected once at startup by Detect and never swapped
// per call.
type Engine interface {
	Name() string
	Run(ctx context.Context, cfg RunConfig) (*RunResult, error)
}

// Detect selects the simulation engine for the lifetime of the process.
// If binOverride names an executable, or an aquacrop binary is found on
// PATH, the real engine is used; otherwise the deterministic mock takes
// over. weatherFile optionally replaces the embedded weather dataset for
// the mock path.
func Detect(binOverride, weatherFile string, logger *zap.Logger) (Engine, error) {
	bin := binOverride
	if bin == "" {
		if path, err := exec.LookPath("aquacrop"); err == nil {
			bin = path
		}
	} else if _, err := exec.LookPath(bin); err != nil {
		logger.Warn("configured aquacrop binary not found, falling back to mock engine",
			zap.String("bin", bin),
			zap.Error(err),
		)
		bin = ""
	}

	if bin != "" {
		logger.Debug("using real aquacrop engine", zap.String("bin", bin))
		return NewAquaCropEngine(bin, logger), nil
	}

	weather, err := loadWeather(weatherFile)
	if err != nil {
		return nil, err
	}
	logger.Debug("aquacrop binary not found, using mock engine",
		zap.String("station", weather.Station),
		zap.Int("seasons", len(weather.Seasons)),
	)
	return NewMockEngine(weather, logger), nil
}

func loadWeather(path string) (*Weather, error) {
	if path == "" {
		return DefaultWeather()
	}
	return LoadWeatherFile(path)
}
