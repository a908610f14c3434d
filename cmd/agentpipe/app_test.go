package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/backpack455/hack-mit-sub000/internal/config"
	"github.com/backpack455/hack-mit-sub000/internal/orchestrator"
	"github.com/backpack455/hack-mit-sub000/internal/pipeerr"
	"github.com/backpack455/hack-mit-sub000/internal/retry"
	"github.com/backpack455/hack-mit-sub000/pkg/models"
)

func offlineConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("AGENTPIPE_ANTHROPIC_API_KEY", "")
	chdir(t, t.TempDir())

	c := config.Default()
	c.Anthropic.APIKey = ""
	c.Runtime.Mode = config.RuntimeCommand
	c.Runtime.Command = "cat"
	c.Retry = config.RetryConfig{MaxAttempts: 1}
	return c
}

func TestNewApp_OfflineFallsBackAndExecutes(t *testing.T) {
	c := offlineConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Join(".agentpipe", "context"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(".agentpipe", "context", "notes.txt"), []byte("reading papers"), 0644))

	a, err := newApp(context.Background(), c, zap.NewNop(), appOptions{})
	require.NoError(t, err)
	t.Cleanup(a.close)

	out := a.orch.Generate(context.Background())
	require.NotNil(t, out.Err, "no credentials means the proposer fails")
	assert.Equal(t, pipeerr.StageProposal, out.Err.Stage)
	assert.True(t, out.Fallback())

	res := a.orch.Execute(context.Background(), orchestrator.FallbackSearchID)
	assert.Equal(t, models.ResultSuccess, res.Kind)
	assert.Contains(t, res.Content, "reading papers", "cat echoes the request")

	// A second process sees the journaled set and result.
	b, err := newApp(context.Background(), c, zap.NewNop(), appOptions{})
	require.NoError(t, err)
	t.Cleanup(b.close)

	require.NotNil(t, b.orch.Current())
	assert.Equal(t, out.Set.ID, b.orch.Current().ID)
	assert.Equal(t, models.ProgressCompleted, b.orch.Progress(orchestrator.FallbackSearchID).Status)
}

func TestLoadRegistry(t *testing.T) {
	c := config.Default()
	reg, err := loadRegistry(c, t.TempDir())
	require.NoError(t, err)
	assert.NotZero(t, reg.Len())

	c.Registry.Path = "missing.yaml"
	reg, err = loadRegistry(c, t.TempDir())
	assert.ErrorIs(t, err, pipeerr.ErrRegistryLoad)
	assert.Zero(t, reg.Len())
}

func TestNewRuntime_UnknownMode(t *testing.T) {
	c := config.Default()
	c.Runtime.Mode = "carrier-pigeon"
	_, err := newRuntime(c, offlineCompleter{}, zap.NewNop())
	assert.Error(t, err)
}

func TestOfflineCompleter_IsPermanent(t *testing.T) {
	_, err := offlineCompleter{err: config.ErrNoAPIKey}.Complete(context.Background(), "", "")
	assert.True(t, retry.IsPermanent(err))
	assert.ErrorIs(t, err, config.ErrNoAPIKey)
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, filepath.Join("/proj", "a.yaml"), resolvePath("/proj", "a.yaml"))
	assert.Equal(t, "/abs/a.yaml", resolvePath("/proj", "/abs/a.yaml"))
	assert.Equal(t, "", resolvePath("/proj", ""))
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
