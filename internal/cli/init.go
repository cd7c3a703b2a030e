package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klubi/furrow/internal/config"
)

const configTemplate = `# Furrow configuration.
# The API key never lives here: set DEEPSEEK_API_KEY or OPENAI_API_KEY in
# the environment or in a .env file next to your project.

api:
  base_url: %s
  model: %s
  max_tokens: 4000
  temperature: 0.7
  timeout_seconds: 60

agent:
  max_tool_iterations: 10
  # instructions: override the built-in system prompt here

history:
  path: %s

yield:
  # aquacrop_bin: /usr/local/bin/aquacrop
  # weather_file: /path/to/weather.yaml
`

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration file",
		Long:  "Create the furrow config file with documented defaults.\n\nRefuses to overwrite an existing file.",
		Example: `  furrow init
  furrow init --config ./furrow.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := configPath
			if target == "" {
				target = config.DefaultConfigPath()
			}

			if _, err := os.Stat(target); err == nil {
				return fmt.Errorf("config file %s already exists", target)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("creating config directory: %w", err)
			}

			defaults := config.DefaultConfig()
			content := fmt.Sprintf(configTemplate,
				defaults.API.BaseURL,
				defaults.API.Model,
				defaults.History.Path,
			)
			if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
				return fmt.Errorf("writing config file: %w", err)
			}

			bold := color.New(color.FgCyan, color.Bold)
			bold.Println("Furrow initialized!")
			fmt.Println()
			fmt.Printf("  Config: %s\n", target)
			fmt.Println()

			color.New(color.Bold).Println("Next steps:")
			fmt.Println("  1. Put your API key in the environment:")
			fmt.Println("     export DEEPSEEK_API_KEY=sk-...")
			fmt.Println()
			fmt.Println("  2. Check the configuration:")
			fmt.Println("     furrow status")
			fmt.Println()
			fmt.Println("  3. Ask something:")
			fmt.Println("     furrow \"how much wheat can I expect from six seasons on sandy loam?\"")

			return nil
		},
	}

	return cmd
}
