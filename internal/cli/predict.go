package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/klubi/furrow/internal/config"
	"github.com/klubi/furrow/internal/yield"
)

func newPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict [crop] [planting-date] [soil] [years]",
		Short: "Run a yield simulation directly, without the model",
		Long: `Run the yield simulation and print the full report. No API key is
needed. Omitted arguments fall back to the same defaults the
predict_wheat_yield tool uses: Wheat planted 10/01 on SandyLoam for
6 seasons.`,
		Example: `  furrow predict
  furrow predict Maize
  furrow predict Wheat 10/01 ClayLoam 8 -o yaml`,
		Args: cobra.MaximumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			var req yield.Request
			if len(args) > 0 {
				req.CropType = args[0]
			}
			if len(args) > 1 {
				req.PlantingDate = args[1]
			}
			if len(args) > 2 {
				req.SoilType = args[2]
			}
			if len(args) > 3 {
				years, err := strconv.Atoi(args[3])
				if err != nil {
					return fmt.Errorf("years must be an integer, got %q", args[3])
				}
				req.SimYears = years
			}

			logger, err := newLogger(verbose)
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			defer logger.Sync()

			engine, err := yield.Detect(cfg.Yield.AquaCropBin, cfg.Yield.WeatherFile, logger)
			if err != nil {
				return err
			}
			predictor := yield.NewPredictor(engine, logger)
			report := predictor.Predict(cmd.Context(), req)

			if outputFormat == "yaml" {
				err = printYAML(report)
			} else {
				err = printJSON(report)
			}
			if err != nil {
				return err
			}
			if report.Status == yield.StatusError {
				return fmt.Errorf("prediction failed: %s", report.Error)
			}
			return nil
		},
	}

	return cmd
}
