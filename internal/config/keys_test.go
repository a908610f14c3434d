package config

import (
	"testing"
)

func clearKeyEnv(t *testing.T) {
	t.Helper()
	for _, name := range apiKeyEnvVars {
		t.Setenv(name, "")
	}
}

func TestGetAPIKey(t *testing.T) {
	t.Run("from environment variable", func(t *testing.T) {
		clearKeyEnv(t)
		t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test-key")

		key, err := GetAPIKey(&Config{})
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if key != "sk-ant-test-key" {
			t.Errorf("expected 'sk-ant-test-key', got %q", key)
		}
	})

	t.Run("prefixed variable wins", func(t *testing.T) {
		clearKeyEnv(t)
		t.Setenv("ANTHROPIC_API_KEY", "sk-ant-plain")
		t.Setenv("AGENTPIPE_ANTHROPIC_API_KEY", "sk-ant-prefixed")

		key, _ := GetAPIKey(&Config{})
		if key != "sk-ant-prefixed" {
			t.Errorf("expected 'sk-ant-prefixed', got %q", key)
		}
	})

	t.Run("from config with expansion", func(t *testing.T) {
		clearKeyEnv(t)
		t.Setenv("MY_SECRET", "sk-ant-from-var")

		cfg := &Config{Anthropic: AnthropicConfig{APIKey: "${MY_SECRET}"}}
		key, err := GetAPIKey(cfg)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if key != "sk-ant-from-var" {
			t.Errorf("expected 'sk-ant-from-var', got %q", key)
		}
	})

	t.Run("no key configured", func(t *testing.T) {
		clearKeyEnv(t)

		if _, err := GetAPIKey(&Config{}); err != ErrNoAPIKey {
			t.Errorf("expected ErrNoAPIKey, got %v", err)
		}
		if _, err := GetAPIKey(nil); err != ErrNoAPIKey {
			t.Errorf("expected ErrNoAPIKey for nil config, got %v", err)
		}
	})
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid key", "sk-ant-REDACTED", false},
		{"empty key", "", true},
		{"wrong prefix", "sk-openai-12345678901234567890", true},
		{"too short", "sk-ant-abc", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAPIKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAPIKey() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{"valid key", "sk-ant-REDACTED", "sk-ant-...wxyz"},
		{"empty key", "", "(not set)"},
		{"short key", "short", "***"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := MaskAPIKey(tt.key); result != tt.expected {
				t.Errorf("MaskAPIKey() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestGetAPIKeySource(t *testing.T) {
	tests := []struct {
		name   string
		env    string
		cfg    *Config
		expect KeySource
	}{
		{"environment", "sk-ant-env", &Config{}, KeySourceEnv},
		{"config file", "", &Config{Anthropic: AnthropicConfig{APIKey: "sk-ant-config-key"}}, KeySourceConfig},
		{"unexpanded reference", "", &Config{Anthropic: AnthropicConfig{APIKey: "${UNSET_AGENTPIPE_VAR}"}}, KeySourceNone},
		{"bedrock", "", &Config{Anthropic: AnthropicConfig{UseBedrock: true}}, KeySourceBedrock},
		{"none", "", &Config{}, KeySourceNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearKeyEnv(t)
			if tt.env != "" {
				t.Setenv("ANTHROPIC_API_KEY", tt.env)
			}
			if got := GetAPIKeySource(tt.cfg); got != tt.expect {
				t.Errorf("GetAPIKeySource() = %v, want %v", got, tt.expect)
			}
		})
	}
}
