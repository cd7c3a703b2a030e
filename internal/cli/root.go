package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/klubi/furrow/internal/agent"
	"github.com/klubi/furrow/internal/config"
	"github.com/klubi/furrow/internal/history"
	"github.com/klubi/furrow/internal/llm"
	"github.com/klubi/furrow/internal/tools"
	"github.com/klubi/furrow/internal/yield"
)

var (
	configPath string
	verbose    bool
)

// NewRootCmd creates the top-level furrow CLI command with all subcommands.
func NewRootCmd() *cobra.Command {
	var (
		replMode     bool
		showHistory  bool
		clearHistory bool
	)

	cmd := &cobra.Command{
		Use:   "furrow [prompt...]",
		Short: "Farm planning agent with crop yield simulation",
		Long: `Furrow is an interactive agent for farm planning scripts and crop
yield questions. A prompt given as arguments runs a single exchange;
--repl starts an interactive session that continues the stored
conversation. With neither, one prompt is read from stdin.

The model can inspect and edit files, run shell commands, and simulate
wheat yields with the AquaCrop engine or its deterministic fallback.`,
		Example: `  furrow "predict the wheat yield for 8 years on clay loam"
  furrow --repl
  furrow --history
  furrow predict Wheat 10/01 SandyLoam 6`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			if clearHistory {
				return runClearHistory(cfg)
			}
			if showHistory {
				return runShowHistory(cfg)
			}
			return runChat(cmd.Context(), cfg, strings.Join(args, " "), replMode)
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.furrow/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
	cmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table|json|yaml")
	cmd.Flags().BoolVar(&replMode, "repl", false, "Enter interactive REPL mode")
	cmd.Flags().BoolVar(&showHistory, "history", false, "Show the stored conversation summary and exit")
	cmd.Flags().BoolVar(&clearHistory, "clear-history", false, "Delete the stored conversation and exit")

	cmd.AddCommand(
		newPredictCmd(),
		newStatusCmd(),
		newInitCmd(),
	)

	return cmd
}

// runChat wires the full agent stack and processes either a single prompt
// or an interactive session.
func runChat(ctx context.Context, cfg *config.Config, prompt string, repl bool) error {
	if err := cfg.RequireKey(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Structured logger. Verbose switches to development output.
	logger, err := newLogger(verbose)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	// 2. Conversation store.
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	// 3. Simulation engine, selected once for the whole session.
	engine, err := yield.Detect(cfg.Yield.AquaCropBin, cfg.Yield.WeatherFile, logger)
	if err != nil {
		return err
	}
	predictor := yield.NewPredictor(engine, logger)

	// 4. Tool registry.
	registry, err := buildRegistry(logger, predictor)
	if err != nil {
		return err
	}

	// 5. Model client and the agent loop.
	client := llm.New(cfg, logger)
	loop, err := agent.New(client, registry, store, cfg.Agent, logger)
	if err != nil {
		return err
	}
	defer loop.Close()

	if repl {
		return runREPL(ctx, loop, cfg.API.Model)
	}

	if prompt == "" {
		prompt, err = readPromptLine()
		if err != nil {
			return err
		}
	}
	answer, err := loop.Run(ctx, prompt)
	if err != nil {
		return err
	}
	fmt.Println(answer)
	return nil
}

// buildRegistry assembles the full tool surface exposed to the model.
func buildRegistry(logger *zap.Logger, predictor *yield.Predictor) (*tools.Registry, error) {
	r := tools.NewRegistry(logger)
	if err := tools.RegisterFileTools(r); err != nil {
		return nil, err
	}
	if err := tools.RegisterExecTool(r, logger, 60*time.Second); err != nil {
		return nil, err
	}
	if err := tools.RegisterHostTools(r); err != nil {
		return nil, err
	}
	if err := tools.RegisterYieldTool(r, predictor); err != nil {
		return nil, err
	}
	return r, nil
}

// openStore opens the conversation log, creating its directory on first use.
func openStore(cfg *config.Config) (history.Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.History.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return history.NewBoltStore(cfg.History.Path)
}

// newLogger builds the CLI logger. Non-verbose runs only surface warnings
// so the conversation stays readable.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	return cfg.Build()
}
