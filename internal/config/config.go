// Package config handles configuration loading and management for agentpipe.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ProjectConfigName is the project-level config file searched upward from cwd.
const ProjectConfigName = ".agentpipe.yaml"

// Runtime modes.
const (
	RuntimeLLM     = "llm"
	RuntimeCommand = "command"
)

// Config holds all configuration for agentpipe.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	Context   ContextConfig   `mapstructure:"context"`
	Proposer  ProposerConfig  `mapstructure:"proposer"`
	Runtime   RuntimeConfig   `mapstructure:"runtime"`
	Retry     RetryConfig     `mapstructure:"retry"`
	Cache     CacheConfig     `mapstructure:"cache"`
	State     StateConfig     `mapstructure:"state"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// RegistryConfig points at the agent catalog. An empty path uses the
// built-in catalog.
type RegistryConfig struct {
	Path string `mapstructure:"path"`
}

// ContextConfig locates the context document.
type ContextConfig struct {
	// Path is a file, or a directory searched with Pattern.
	Path     string `mapstructure:"path"`
	Pattern  string `mapstructure:"pattern"`
	MaxBytes int64  `mapstructure:"max_bytes"`
}

// ProposerConfig tunes task proposal.
type ProposerConfig struct {
	MaxTasks int           `mapstructure:"max_tasks"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// RuntimeConfig selects the execution runtime.
type RuntimeConfig struct {
	Mode    string        `mapstructure:"mode"`
	Command string        `mapstructure:"command"`
	Args    []string      `mapstructure:"args"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RetryConfig bounds retries of external calls.
type RetryConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

// CacheConfig sizes the result cache.
type CacheConfig struct {
	Capacity int           `mapstructure:"capacity"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// StateConfig controls the sqlite journal.
type StateConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Driver  string `mapstructure:"driver"`
	// Path is the database file. Empty means .agentpipe/state.db.
	Path string `mapstructure:"path"`
}

// LoggingConfig controls zap output.
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	File        string `mapstructure:"file"`
	Development bool   `mapstructure:"development"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, AGENTPIPE_*)
// 2. Project config (explicitFile if set, else .agentpipe.yaml in cwd or a parent)
// 3. User config (~/.config/agentpipe/config.yaml)
// 4. Built-in defaults
func Load(explicitFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := explicitFile
	if projectConfig == "" {
		projectConfig = findProjectConfig()
	}
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err != nil {
			if explicitFile != "" {
				return nil, fmt.Errorf("reading config from %s: %w", explicitFile, err)
			}
		} else if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	bindEnv(v)

	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific path (for testing).
// Defaults and environment overrides still apply.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	bindEnv(v)

	return unmarshal(v)
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("AGENTPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("anthropic.api_key", "AGENTPIPE_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.Registry.Path = expandEnv(cfg.Registry.Path)
	cfg.Context.Path = expandEnv(cfg.Context.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside the pipeline.
func (c *Config) Validate() error {
	switch c.Runtime.Mode {
	case RuntimeLLM:
	case RuntimeCommand:
		if strings.TrimSpace(c.Runtime.Command) == "" {
			return errors.New("runtime.command is required when runtime.mode is \"command\"")
		}
	default:
		return fmt.Errorf("invalid runtime.mode %q (want %q or %q)", c.Runtime.Mode, RuntimeLLM, RuntimeCommand)
	}

	switch c.State.Driver {
	case "", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("invalid state.driver %q (want \"sqlite\" or \"sqlite3\")", c.State.Driver)
	}

	if c.Proposer.MaxTasks < 0 {
		return fmt.Errorf("proposer.max_tasks must not be negative, got %d", c.Proposer.MaxTasks)
	}
	if c.Retry.MaxAttempts < 0 {
		return fmt.Errorf("retry.max_attempts must not be negative, got %d", c.Retry.MaxAttempts)
	}
	return nil
}

// Save writes the configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return SaveTo(cfg, filepath.Join(userConfigDir, "config.yaml"))
}

// SaveTo writes the configuration to path.
func SaveTo(cfg *Config, path string) error {
	v := viper.New()
	v.SetConfigFile(path)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.use_bedrock", cfg.Anthropic.UseBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("registry.path", cfg.Registry.Path)
	v.Set("context.path", cfg.Context.Path)
	v.Set("context.pattern", cfg.Context.Pattern)
	v.Set("context.max_bytes", cfg.Context.MaxBytes)
	v.Set("proposer.max_tasks", cfg.Proposer.MaxTasks)
	v.Set("proposer.timeout", cfg.Proposer.Timeout.String())
	v.Set("runtime.mode", cfg.Runtime.Mode)
	v.Set("runtime.command", cfg.Runtime.Command)
	v.Set("runtime.args", cfg.Runtime.Args)
	v.Set("runtime.timeout", cfg.Runtime.Timeout.String())
	v.Set("retry.max_attempts", cfg.Retry.MaxAttempts)
	v.Set("retry.initial_backoff", cfg.Retry.InitialBackoff.String())
	v.Set("retry.max_backoff", cfg.Retry.MaxBackoff.String())
	v.Set("cache.capacity", cfg.Cache.Capacity)
	v.Set("cache.ttl", cfg.Cache.TTL.String())
	v.Set("state.enabled", cfg.State.Enabled)
	v.Set("state.driver", cfg.State.Driver)
	v.Set("state.path", cfg.State.Path)
	v.Set("logging.level", cfg.Logging.Level)
	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.development", cfg.Logging.Development)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("anthropic.api_key", d.Anthropic.APIKey)
	v.SetDefault("anthropic.model", d.Anthropic.Model)
	v.SetDefault("anthropic.use_bedrock", d.Anthropic.UseBedrock)
	v.SetDefault("anthropic.aws_region", d.Anthropic.AWSRegion)
	v.SetDefault("anthropic.aws_profile", d.Anthropic.AWSProfile)

	v.SetDefault("registry.path", d.Registry.Path)

	v.SetDefault("context.path", d.Context.Path)
	v.SetDefault("context.pattern", d.Context.Pattern)
	v.SetDefault("context.max_bytes", d.Context.MaxBytes)

	v.SetDefault("proposer.max_tasks", d.Proposer.MaxTasks)
	v.SetDefault("proposer.timeout", d.Proposer.Timeout.String())

	v.SetDefault("runtime.mode", d.Runtime.Mode)
	v.SetDefault("runtime.command", d.Runtime.Command)
	v.SetDefault("runtime.args", d.Runtime.Args)
	v.SetDefault("runtime.timeout", d.Runtime.Timeout.String())

	v.SetDefault("retry.max_attempts", d.Retry.MaxAttempts)
	v.SetDefault("retry.initial_backoff", d.Retry.InitialBackoff.String())
	v.SetDefault("retry.max_backoff", d.Retry.MaxBackoff.String())

	v.SetDefault("cache.capacity", d.Cache.Capacity)
	v.SetDefault("cache.ttl", d.Cache.TTL.String())

	v.SetDefault("state.enabled", d.State.Enabled)
	v.SetDefault("state.driver", d.State.Driver)
	v.SetDefault("state.path", d.State.Path)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.development", d.Logging.Development)
}

// getUserConfigDir returns the XDG config directory for agentpipe.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "agentpipe")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "agentpipe")
	}
	return filepath.Join(home, ".config", "agentpipe")
}

// findProjectConfig searches for .agentpipe.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ProjectConfigName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{
			Model: "claude-sonnet-4-20250514",
		},
		Context: ContextConfig{
			Path:     ".agentpipe/context",
			Pattern:  "*.txt",
			MaxBytes: 256 << 10,
		},
		Proposer: ProposerConfig{
			MaxTasks: 5,
			Timeout:  60 * time.Second,
		},
		Runtime: RuntimeConfig{
			Mode:    RuntimeLLM,
			Args:    []string{},
			Timeout: 2 * time.Minute,
		},
		Retry: RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: 500 * time.Millisecond,
			MaxBackoff:     5 * time.Second,
		},
		Cache: CacheConfig{
			Capacity: 256,
		},
		State: StateConfig{
			Enabled: true,
			Driver:  "sqlite",
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}
