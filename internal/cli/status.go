package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/klubi/furrow/internal/config"
	"github.com/klubi/furrow/internal/yield"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the configured provider, engine, and history",
		Long:  "Display the effective configuration and what a chat session would use. No API key is needed.",
		Example: `  furrow status
  furrow status --config ./furrow.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			bold := color.New(color.FgCyan, color.Bold)
			bold.Println("Furrow Status")
			fmt.Println("=============")
			fmt.Println()

			if cfg.API.Key != "" {
				fmt.Printf("Provider:  %s (%s)\n", cfg.API.Provider, color.GreenString("key set"))
			} else {
				fmt.Printf("Provider:  %s\n", color.YellowString("no API key"))
			}
			fmt.Printf("Model:     %s\n", cfg.API.Model)
			fmt.Printf("Endpoint:  %s\n", cfg.API.BaseURL)

			engine, err := yield.Detect(cfg.Yield.AquaCropBin, cfg.Yield.WeatherFile, zap.NewNop())
			if err != nil {
				fmt.Printf("Engine:    %s\n", color.RedString("unavailable: %v", err))
			} else {
				fmt.Printf("Engine:    %s\n", engine.Name())
				predictor := yield.NewPredictor(engine, zap.NewNop())
				if registry, err := buildRegistry(zap.NewNop(), predictor); err == nil {
					fmt.Printf("Tools:     %d registered\n", len(registry.Specs()))
				}
			}

			store, err := openStore(cfg)
			if err != nil {
				fmt.Printf("History:   %s\n", color.RedString("unavailable: %v", err))
				return nil
			}
			defer store.Close()

			sum, err := store.Summary()
			if err != nil {
				return fmt.Errorf("reading history: %w", err)
			}
			fmt.Printf("History:   %d turns (%s)\n", sum.Total, cfg.History.Path)
			if sum.Total > 0 {
				fmt.Printf("Last turn: %s ago\n", formatAge(sum.Last))
			}

			return nil
		},
	}

	return cmd
}
