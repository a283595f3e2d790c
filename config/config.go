// Package config loads cora's settings from config files, environment
// variables, and defaults.
//
// Settings resolve in precedence order: environment variables prefixed with
// CORA_ (CORA_API_KEY, CORA_MODEL, ...), then a .cora.yaml file in the
// working directory or the home directory, then built-in defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all user-facing settings.
type Config struct {
	// Provider selects the model backend: anthropic or openai.
	Provider string `mapstructure:"provider"`
	// Model overrides the provider's default model.
	Model  string `mapstructure:"model"`
	APIKey string `mapstructure:"api_key"`

	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`

	// MaxIterations bounds tool rounds per main-agent turn.
	MaxIterations int `mapstructure:"max_iterations"`
	// SubagentMaxIterations bounds tool rounds per delegated task.
	SubagentMaxIterations int `mapstructure:"subagent_max_iterations"`

	// AutoApprove skips the interactive approval prompt for mutating tools.
	AutoApprove bool `mapstructure:"auto_approve"`

	CommandTimeoutMs    int `mapstructure:"command_timeout_ms"`
	MaxCommandTimeoutMs int `mapstructure:"max_command_timeout_ms"`

	// SearchAPIKey enables the websearch tool.
	SearchAPIKey   string `mapstructure:"search_api_key"`
	SearchEndpoint string `mapstructure:"search_endpoint"`

	// LogLevel is debug, info, warn, or error.
	LogLevel string `mapstructure:"log_level"`
	// LogFile, when set, appends structured logs there instead of stderr.
	LogFile string `mapstructure:"log_file"`
}

// setDefaults registers every key; AutomaticEnv only resolves keys viper
// already knows about, so even empty-valued keys get a default.
func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", "anthropic")
	v.SetDefault("model", "")
	v.SetDefault("api_key", "")
	v.SetDefault("search_api_key", "")
	v.SetDefault("search_endpoint", "")
	v.SetDefault("log_file", "")
	v.SetDefault("temperature", 0.1)
	v.SetDefault("max_tokens", 4096)
	v.SetDefault("max_iterations", 25)
	v.SetDefault("subagent_max_iterations", 50)
	v.SetDefault("auto_approve", false)
	v.SetDefault("command_timeout_ms", 120000)
	v.SetDefault("max_command_timeout_ms", 600000)
	v.SetDefault("log_level", "warn")
}

// Load reads configuration from the given file, or from .cora.yaml in the
// working and home directories when path is empty. A missing config file is
// not an error; environment variables and defaults still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CORA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(".cora")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Provider {
	case "anthropic", "openai":
	default:
		return fmt.Errorf("unknown provider %q (expected anthropic or openai)", c.Provider)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive, got %d", c.MaxIterations)
	}
	if c.SubagentMaxIterations <= 0 {
		return fmt.Errorf("subagent_max_iterations must be positive, got %d", c.SubagentMaxIterations)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", c.Temperature)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}
