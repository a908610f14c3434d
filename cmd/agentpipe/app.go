package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/anthropics/anthropic-sdk-go"
	"go.uber.org/zap"

	"github.com/backpack455/hack-mit-sub000/internal/cache"
	"github.com/backpack455/hack-mit-sub000/internal/config"
	"github.com/backpack455/hack-mit-sub000/internal/contextdoc"
	"github.com/backpack455/hack-mit-sub000/internal/execution"
	"github.com/backpack455/hack-mit-sub000/internal/llm"
	"github.com/backpack455/hack-mit-sub000/internal/orchestrator"
	"github.com/backpack455/hack-mit-sub000/internal/proposer"
	"github.com/backpack455/hack-mit-sub000/internal/registry"
	"github.com/backpack455/hack-mit-sub000/internal/retry"
	"github.com/backpack455/hack-mit-sub000/internal/state"
)

// app bundles the orchestrator with the resources the CLI must release.
type app struct {
	orch    *orchestrator.Orchestrator
	journal *state.DB
	source  contextdoc.Source
	root    string
	cfg     *config.Config
	logger  *zap.Logger
}

// appOptions tweaks newApp for individual commands.
type appOptions struct {
	// source overrides the configured context document.
	source contextdoc.Source
	events *orchestrator.EventEmitter
}

// newApp wires config into a ready orchestrator and restores the journal.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts appOptions) (*app, error) {
	root := projectRoot()
	a := &app{root: root, cfg: cfg, logger: logger}

	reg, regErr := loadRegistry(cfg, root)
	if regErr != nil {
		logger.Warn("agent registry unavailable", zap.Error(regErr))
	}

	a.source = opts.source
	if a.source == nil {
		a.source = &contextdoc.FileSource{
			Path:     resolvePath(root, cfg.Context.Path),
			Pattern:  cfg.Context.Pattern,
			MaxBytes: cfg.Context.MaxBytes,
		}
	}

	completer, err := newCompleter(cfg)
	if err != nil {
		logger.Warn("model unavailable, generation will fall back", zap.Error(err))
		completer = offlineCompleter{err: err}
	}

	runtime, err := newRuntime(cfg, completer, logger)
	if err != nil {
		return nil, err
	}

	orchOpts := []orchestrator.Option{
		orchestrator.WithLogger(logger),
		orchestrator.WithCache(cache.New(cache.Options{
			Capacity: cfg.Cache.Capacity,
			TTL:      cfg.Cache.TTL,
			Logger:   logger,
		})),
		orchestrator.WithRetryPolicy(retry.Policy{
			MaxAttempts:    cfg.Retry.MaxAttempts,
			InitialBackoff: cfg.Retry.InitialBackoff,
			MaxBackoff:     cfg.Retry.MaxBackoff,
			Multiplier:     2,
		}),
		orchestrator.WithProposalTimeout(cfg.Proposer.Timeout),
		orchestrator.WithDispatchTimeout(cfg.Runtime.Timeout),
		orchestrator.WithEvents(opts.events),
	}
	if regErr != nil {
		orchOpts = append(orchOpts, orchestrator.WithRegistryError(regErr))
	}

	if cfg.State.Enabled {
		dbPath := resolvePath(root, cfg.State.Path)
		if cfg.State.Path == "" {
			dbPath = state.ProjectDBPath(root)
		}
		db, err := state.Open(dbPath, cfg.State.Driver)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate journal: %w", err)
		}
		a.journal = db
		orchOpts = append(orchOpts, orchestrator.WithJournal(db))
	}

	orch, err := orchestrator.New(orchestrator.RequiredConfig{
		Registry: reg,
		Source:   a.source,
		Proposer: proposer.NewAnthropicProposer(completer, cfg.Proposer.MaxTasks, logger),
		Runtime:  runtime,
	}, orchOpts...)
	if err != nil {
		a.close()
		return nil, err
	}
	a.orch = orch

	if err := orch.Restore(ctx); err != nil {
		logger.Warn("journal restore failed", zap.Error(err))
	}
	return a, nil
}

func (a *app) close() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.logger.Warn("close journal", zap.Error(err))
		}
	}
}

// loadRegistry returns the configured catalog, or the built-in one when no
// path is set. A broken catalog yields an empty registry plus the error, so
// generation falls back instead of aborting.
func loadRegistry(cfg *config.Config, root string) (*registry.Registry, error) {
	if cfg.Registry.Path == "" {
		return registry.Default(), nil
	}
	reg, err := registry.Load(resolvePath(root, cfg.Registry.Path))
	if err != nil {
		return registry.Empty(), err
	}
	return reg, nil
}

func newCompleter(cfg *config.Config) (llm.Completer, error) {
	key := ""
	if config.NeedsAPIKey(cfg) {
		k, err := config.GetAPIKey(cfg)
		if err != nil {
			return nil, err
		}
		key = k
	}
	client, err := llm.NewClient(llm.ClientConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        key,
		UseAWSBedrock: cfg.Anthropic.UseBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return nil, fmt.Errorf("create API client: %w", err)
	}
	return llm.NewRunner(client), nil
}

func newRuntime(cfg *config.Config, completer llm.Completer, logger *zap.Logger) (execution.Runtime, error) {
	switch cfg.Runtime.Mode {
	case config.RuntimeCommand:
		return execution.NewCommandRuntime(nil, execution.CommandConfig{
			Name: cfg.Runtime.Command,
			Args: cfg.Runtime.Args,
			Dir:  projectRoot(),
		}, logger), nil
	case config.RuntimeLLM, "":
		return execution.NewLLMRuntime(completer, logger), nil
	default:
		return nil, fmt.Errorf("unknown runtime mode %q", cfg.Runtime.Mode)
	}
}

// offlineCompleter fails every call without retry. It stands in for the
// model when no credentials are configured.
type offlineCompleter struct {
	err error
}

func (c offlineCompleter) Complete(context.Context, string, string) (string, error) {
	if c.err == nil {
		return "", retry.Permanent(errors.New("model unavailable"))
	}
	return "", retry.Permanent(c.err)
}

func resolvePath(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
