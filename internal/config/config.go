package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultBaseURL is the primary provider endpoint.
	DefaultBaseURL = "https://api.deepseek.com"
	// DefaultModel is the chat model requested when MODEL_NAME is unset.
	DefaultModel = "deepseek-chat"
)

// Provider names, derived from which API key satisfied the lookup.
const (
	ProviderDeepSeek = "deepseek"
	ProviderOpenAI   = "openai"
)

// DefaultInstructions is the system prompt sent with every conversation.
const DefaultInstructions = "You are a script expert and interactive agent. " +
	"Always confirm before performing any destructive operations. " +
	"Your output should be concise, and each step should be clear and easy to follow."

// ErrMissingAPIKey is returned by RequireKey when neither provider key is set.
var ErrMissingAPIKey = fmt.Errorf("missing API key: set DEEPSEEK_API_KEY or OPENAI_API_KEY")

type Config struct {
	API     APIConfig     `yaml:"api"`
	Agent   AgentConfig   `yaml:"agent"`
	History HistoryConfig `yaml:"history"`
	Yield   YieldConfig   `yaml:"yield"`
}

type APIConfig struct {
	Key            string  `yaml:"-"` // from env only, never persisted
	Provider       string  `yaml:"-"` // "deepseek" or "openai", derived from the key source
	BaseURL        string  `yaml:"base_url"`        // default "https://api.deepseek.com"
	Model          string  `yaml:"model"`           // default "deepseek-chat"
	MaxTokens      int     `yaml:"max_tokens"`      // default 4000
	Temperature    float64 `yaml:"temperature"`     // default 0.7
	TimeoutSeconds int     `yaml:"timeout_seconds"` // default 60
}

type AgentConfig struct {
	MaxToolIterations int    `yaml:"max_tool_iterations"` // default 10
	Instructions      string `yaml:"instructions"`
}

type HistoryConfig struct {
	Path string `yaml:"path"` // default "~/.furrow/history.db"
}

type YieldConfig struct {
	AquaCropBin string `yaml:"aquacrop_bin"` // path to the aquacrop binary; empty resolves via PATH
	WeatherFile string `yaml:"weather_file"` // optional weather dataset override for the mock engine
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        DefaultBaseURL,
			Model:          DefaultModel,
			MaxTokens:      4000,
			Temperature:    0.7,
			TimeoutSeconds: 60,
		},
		Agent: AgentConfig{
			MaxToolIterations: 10,
			Instructions:      DefaultInstructions,
		},
		History: HistoryConfig{
			Path: filepath.Join(defaultDataDir(), "history.db"),
		},
	}
}

// Load builds the effective configuration: defaults, then the YAML config
// file (if present), then the nearest .env file, then process environment
// variables. An empty path means the default config location.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = DefaultConfigPath()
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	loadDotenv()
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges. The API key is checked separately by
// RequireKey so purely local commands can run without one.
func (c *Config) Validate() error {
	if c.API.MaxTokens <= 0 {
		return fmt.Errorf("config: max_tokens must be positive, got %d", c.API.MaxTokens)
	}
	if c.API.Temperature < 0 || c.API.Temperature > 2 {
		return fmt.Errorf("config: temperature must be between 0 and 2, got %g", c.API.Temperature)
	}
	if c.API.TimeoutSeconds <= 0 {
		return fmt.Errorf("config: timeout_seconds must be positive, got %d", c.API.TimeoutSeconds)
	}
	if c.Agent.MaxToolIterations < 1 {
		return fmt.Errorf("config: max_tool_iterations must be at least 1, got %d", c.Agent.MaxToolIterations)
	}
	return nil
}

// RequireKey returns ErrMissingAPIKey when no provider key is configured.
func (c *Config) RequireKey() error {
	if c.API.Key == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// Timeout returns the per-request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	return filepath.Join(defaultDataDir(), "config.yaml")
}

// defaultDataDir resolves the directory holding the config file and the
// conversation history. It uses os.UserHomeDir() + "/.furrow", falling back
// to "/tmp/furrow" if the home directory cannot be determined.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("/tmp", "furrow")
	}
	return filepath.Join(home, ".furrow")
}

// loadDotenv walks from the working directory toward the filesystem root and
// loads the first .env file found. godotenv never overrides variables already
// present in the environment, so real env vars keep precedence.
func loadDotenv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for {
		candidate := filepath.Join(dir, ".env")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			_ = godotenv.Load(candidate)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DEEPSEEK_API_KEY"); v != "" {
		cfg.API.Key = v
		cfg.API.Provider = ProviderDeepSeek
	} else if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.API.Key = v
		cfg.API.Provider = ProviderOpenAI
	}
	if v := os.Getenv("DEEPSEEK_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("MODEL_NAME"); v != "" {
		cfg.API.Model = v
	}
	if v := os.Getenv("MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.API.MaxTokens = n
		}
	}
	if v := os.Getenv("TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.API.Temperature = f
		}
	}
	if v := os.Getenv("TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.API.TimeoutSeconds = n
		}
	}
}
