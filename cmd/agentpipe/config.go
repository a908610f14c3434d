package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/backpack455/hack-mit-sub000/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify agentpipe configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/agentpipe/config.yaml
Project-specific overrides can be placed in ` + config.ProjectConfigName,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch len(args) {
		case 0:
			displayAllConfig(cfg)
			return nil
		case 1:
			value, err := getConfigValue(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Println(value)
			return nil
		default:
			if err := setConfigValue(cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.Save(cfg); err != nil {
				return fmt.Errorf("saving config: %w", err)
			}
			fmt.Printf("Set %s = %s\n", args[0], args[1])
			return nil
		}
	},
}

// configKey reads and writes one dot-notation setting.
type configKey struct {
	get func(*config.Config) string
	set func(*config.Config, string) error
}

var configKeys = map[string]configKey{
	"anthropic.api_key": {
		get: func(c *config.Config) string {
			key, _ := config.GetAPIKey(c)
			return fmt.Sprintf("%s (%s)", config.MaskAPIKey(key), config.GetAPIKeySource(c))
		},
		set: func(c *config.Config, v string) error {
			if err := config.ValidateAPIKey(v); err != nil {
				return err
			}
			c.Anthropic.APIKey = v
			return nil
		},
	},
	"anthropic.model":       stringKey(func(c *config.Config) *string { return &c.Anthropic.Model }),
	"anthropic.use_bedrock": boolKey(func(c *config.Config) *bool { return &c.Anthropic.UseBedrock }),
	"anthropic.aws_region":  stringKey(func(c *config.Config) *string { return &c.Anthropic.AWSRegion }),
	"anthropic.aws_profile": stringKey(func(c *config.Config) *string { return &c.Anthropic.AWSProfile }),
	"registry.path":         stringKey(func(c *config.Config) *string { return &c.Registry.Path }),
	"context.path":          stringKey(func(c *config.Config) *string { return &c.Context.Path }),
	"context.pattern":       stringKey(func(c *config.Config) *string { return &c.Context.Pattern }),
	"context.max_bytes": {
		get: func(c *config.Config) string { return strconv.FormatInt(c.Context.MaxBytes, 10) },
		set: func(c *config.Config, v string) error {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for context.max_bytes: %w", err)
			}
			c.Context.MaxBytes = n
			return nil
		},
	},
	"proposer.max_tasks": intKey("proposer.max_tasks", func(c *config.Config) *int { return &c.Proposer.MaxTasks }),
	"proposer.timeout":   durationKey("proposer.timeout", func(c *config.Config) *time.Duration { return &c.Proposer.Timeout }),
	"runtime.mode":       stringKey(func(c *config.Config) *string { return &c.Runtime.Mode }),
	"runtime.command":    stringKey(func(c *config.Config) *string { return &c.Runtime.Command }),
	"runtime.args": {
		get: func(c *config.Config) string { return strings.Join(c.Runtime.Args, ",") },
		set: func(c *config.Config, v string) error {
			c.Runtime.Args = nil
			for _, a := range strings.Split(v, ",") {
				if a = strings.TrimSpace(a); a != "" {
					c.Runtime.Args = append(c.Runtime.Args, a)
				}
			}
			return nil
		},
	},
	"runtime.timeout":       durationKey("runtime.timeout", func(c *config.Config) *time.Duration { return &c.Runtime.Timeout }),
	"retry.max_attempts":    intKey("retry.max_attempts", func(c *config.Config) *int { return &c.Retry.MaxAttempts }),
	"retry.initial_backoff": durationKey("retry.initial_backoff", func(c *config.Config) *time.Duration { return &c.Retry.InitialBackoff }),
	"retry.max_backoff":     durationKey("retry.max_backoff", func(c *config.Config) *time.Duration { return &c.Retry.MaxBackoff }),
	"cache.capacity":        intKey("cache.capacity", func(c *config.Config) *int { return &c.Cache.Capacity }),
	"cache.ttl":             durationKey("cache.ttl", func(c *config.Config) *time.Duration { return &c.Cache.TTL }),
	"state.enabled":         boolKey(func(c *config.Config) *bool { return &c.State.Enabled }),
	"state.driver":          stringKey(func(c *config.Config) *string { return &c.State.Driver }),
	"state.path":            stringKey(func(c *config.Config) *string { return &c.State.Path }),
	"logging.level":         stringKey(func(c *config.Config) *string { return &c.Logging.Level }),
	"logging.file":          stringKey(func(c *config.Config) *string { return &c.Logging.File }),
	"logging.development":   boolKey(func(c *config.Config) *bool { return &c.Logging.Development }),
}

func stringKey(field func(*config.Config) *string) configKey {
	return configKey{
		get: func(c *config.Config) string { return *field(c) },
		set: func(c *config.Config, v string) error {
			*field(c) = v
			return nil
		},
	}
}

func boolKey(field func(*config.Config) *bool) configKey {
	return configKey{
		get: func(c *config.Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *config.Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid boolean: %w", err)
			}
			*field(c) = b
			return nil
		},
	}
}

func intKey(name string, field func(*config.Config) *int) configKey {
	return configKey{
		get: func(c *config.Config) string { return strconv.Itoa(*field(c)) },
		set: func(c *config.Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = n
			return nil
		},
	}
}

func durationKey(name string, field func(*config.Config) *time.Duration) configKey {
	return configKey{
		get: func(c *config.Config) string { return field(c).String() },
		set: func(c *config.Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid duration for %s: %w", name, err)
			}
			*field(c) = d
			return nil
		},
	}
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	names := make([]string, 0, len(configKeys))
	for name := range configKeys {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%s: %s\n", name, configKeys[name].get(cfg))
	}
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	k, ok := configKeys[strings.ToLower(key)]
	if !ok {
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
	return k.get(cfg), nil
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	k, ok := configKeys[strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return k.set(cfg, value)
}
