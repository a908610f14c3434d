package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the user config dir at a temp dir and clears env overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	for _, name := range []string{
		"ANTHROPIC_API_KEY", "AGENTPIPE_ANTHROPIC_API_KEY",
		"AGENTPIPE_RUNTIME_MODE", "AGENTPIPE_CACHE_CAPACITY", "AGENTPIPE_LOGGING_LEVEL",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Runtime.Mode != RuntimeLLM {
		t.Errorf("expected default runtime mode %q, got %q", RuntimeLLM, cfg.Runtime.Mode)
	}
	if cfg.Proposer.MaxTasks != 5 {
		t.Errorf("expected default max tasks 5, got %d", cfg.Proposer.MaxTasks)
	}
	if cfg.Proposer.Timeout != 60*time.Second {
		t.Errorf("expected proposer timeout 60s, got %v", cfg.Proposer.Timeout)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("expected retry attempts 3, got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Cache.Capacity != 256 {
		t.Errorf("expected cache capacity 256, got %d", cfg.Cache.Capacity)
	}
	if !cfg.State.Enabled || cfg.State.Driver != "sqlite" {
		t.Errorf("expected sqlite journal enabled, got %+v", cfg.State)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromPath(t *testing.T) {
	isolate(t)
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, configPath, `
anthropic:
  api_key: test-key
  model: claude-haiku-4-5-20251001
registry:
  path: agents.yaml
context:
  path: /tmp/ctx
  pattern: "*.md"
proposer:
  max_tasks: 2
  timeout: 10s
runtime:
  mode: command
  command: ./agent.sh
  args: ["--fast"]
  timeout: 30s
retry:
  max_attempts: 5
  initial_backoff: 100ms
cache:
  capacity: 10
  ttl: 1h
state:
  enabled: false
  driver: sqlite3
logging:
  level: debug
`)

	cfg, err := LoadFromPath(configPath)
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.Anthropic.APIKey)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
	assert.Equal(t, "agents.yaml", cfg.Registry.Path)
	assert.Equal(t, "*.md", cfg.Context.Pattern)
	assert.Equal(t, int64(256<<10), cfg.Context.MaxBytes, "unset keys keep defaults")
	assert.Equal(t, 2, cfg.Proposer.MaxTasks)
	assert.Equal(t, 10*time.Second, cfg.Proposer.Timeout)
	assert.Equal(t, RuntimeCommand, cfg.Runtime.Mode)
	assert.Equal(t, []string{"--fast"}, cfg.Runtime.Args)
	assert.Equal(t, 30*time.Second, cfg.Runtime.Timeout)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Retry.InitialBackoff)
	assert.Equal(t, 5*time.Second, cfg.Retry.MaxBackoff)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.False(t, cfg.State.Enabled)
	assert.Equal(t, "sqlite3", cfg.State.Driver)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromPath_Invalid(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"bad mode", "runtime:\n  mode: teleport\n"},
		{"command without binary", "runtime:\n  mode: command\n"},
		{"bad driver", "state:\n  driver: postgres\n"},
		{"negative tasks", "proposer:\n  max_tasks: -1\n"},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, string(rune('a'+i))+".yaml")
			writeFile(t, path, tt.content)
			_, err := LoadFromPath(path)
			assert.Error(t, err)
		})
	}

	_, err := LoadFromPath(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_Precedence(t *testing.T) {
	userDir := isolate(t)
	writeFile(t, filepath.Join(userDir, "agentpipe", "config.yaml"), `
proposer:
  max_tasks: 4
cache:
  capacity: 64
logging:
  level: info
`)

	projectDir := t.TempDir()
	writeFile(t, filepath.Join(projectDir, ProjectConfigName), `
cache:
  capacity: 32
`)
	nested := filepath.Join(projectDir, "sub", "dir")
	require.NoError(t, os.MkdirAll(nested, 0755))
	chdir(t, nested)

	t.Setenv("AGENTPIPE_LOGGING_LEVEL", "error")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-env")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Proposer.MaxTasks, "user config over defaults")
	assert.Equal(t, 32, cfg.Cache.Capacity, "project config over user config")
	assert.Equal(t, "error", cfg.Logging.Level, "env over files")
	assert.Equal(t, "sk-ant-env", cfg.Anthropic.APIKey)
}

func TestLoad_ExplicitFile(t *testing.T) {
	isolate(t)
	chdir(t, t.TempDir())

	path := filepath.Join(t.TempDir(), "custom.yaml")
	writeFile(t, path, "proposer:\n  max_tasks: 1\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Proposer.MaxTasks)

	_, err = Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err, "explicit config must exist")
}

func TestSaveTo_RoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "saved.yaml")

	cfg := Default()
	cfg.Runtime.Mode = RuntimeCommand
	cfg.Runtime.Command = "agent"
	cfg.Runtime.Args = []string{"-v"}
	cfg.Cache.TTL = 15 * time.Minute

	require.NoError(t, SaveTo(cfg, path))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("TEST_VAR", "expanded-value")

	if result := expandEnv("prefix-${TEST_VAR}-suffix"); result != "prefix-expanded-value-suffix" {
		t.Errorf("expected 'prefix-expanded-value-suffix', got %q", result)
	}
}

func TestGetUserConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	if dir := getUserConfigDir(); dir != "/custom/config/agentpipe" {
		t.Errorf("expected %q, got %q", "/custom/config/agentpipe", dir)
	}
}

// chdir switches the working directory for the duration of the test,
// restoring it on cleanup (stand-in for testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
