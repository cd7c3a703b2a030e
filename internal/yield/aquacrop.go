package yield

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// AquaCropEngine wraps the locally installed aquacrop CLI and provides
// a simple interface for running simulations and parsing their results.
type AquaCropEngine struct {
	bin    string // path to the aquacrop binary
	logger *zap.Logger
}

// NewAquaCropEngine creates an engine that calls the aquacrop CLI.
// If bin is empty, it defaults to "aquacrop" (resolved via PATH).
func NewAquaCropEngine(bin string, logger *zap.Logger) *AquaCropEngine {
	if bin == "" {
		bin = "aquacrop"
	}
	return &AquaCropEngine{
		bin:    bin,
		logger: logger,
	}
}

// Name reports the engine identifier used in implementation_type.
func (e *AquaCropEngine) Name() string {
	return EngineAquaCrop
}

// cliResponse maps the JSON output of `aquacrop run --output-format json`.
type cliResponse struct {
	Seasons []struct {
		Season      int     `json:"season"`
		HarvestDate string  `json:"harvest_date"`
		Yield       float64 `json:"yield_tonne_per_ha"`
	} `json:"seasons"`
}

// Run invokes the aquacrop CLI for one simulation window and returns the
// per-season series it reports.
func (e *AquaCropEngine) Run(ctx context.Context, cfg RunConfig) (*RunResult, error) {
	args := []string{
		"run",
		"--crop", cfg.Crop,
		"--planting-date", cfg.PlantingDate,
		"--soil", cfg.Soil,
		"--sim-start", cfg.SimStart,
		"--sim-end", cfg.SimEnd,
		"--output-format", "json",
	}

	e.logger.Debug("executing aquacrop CLI",
		zap.String("bin", e.bin),
		zap.String("crop", cfg.Crop),
		zap.Int("years", cfg.Years),
	)

	cmd := exec.CommandContext(ctx, e.bin, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := stderr.String()
		if errMsg == "" {
			errMsg = err.Error()
		}
		e.logger.Error("aquacrop CLI failed",
			zap.Error(err),
			zap.String("stderr", errMsg),
		)
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrEngineUnavailable, strings.TrimSpace(errMsg))
		}
		return nil, fmt.Errorf("aquacrop CLI error: %s", strings.TrimSpace(errMsg))
	}

	// Parse JSON response.
	var resp cliResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		e.logger.Error("failed to parse aquacrop output",
			zap.Error(err),
			zap.String("raw", stdout.String()),
		)
		return nil, fmt.Errorf("parsing aquacrop output: %w", err)
	}

	if len(resp.Seasons) == 0 {
		return nil, fmt.Errorf("aquacrop reported no growing seasons for %s to %s", cfg.SimStart, cfg.SimEnd)
	}

	result := &RunResult{Seasons: make([]SeasonResult, 0, len(resp.Seasons))}
	for _, s := range resp.Seasons {
		result.Seasons = append(result.Seasons, SeasonResult{
			Season:      s.Season,
			HarvestDate: s.HarvestDate,
			Yield:       s.Yield,
		})
	}

	e.logger.Debug("aquacrop run completed",
		zap.Int("seasons", len(result.Seasons)),
	)

	return result, nil
}
