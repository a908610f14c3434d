package orchestrator

import (
	"time"

	"go.uber.org/zap"

	"github.com/backpack455/hack-mit-sub000/internal/cache"
	"github.com/backpack455/hack-mit-sub000/internal/contextdoc"
	"github.com/backpack455/hack-mit-sub000/internal/execution"
	"github.com/backpack455/hack-mit-sub000/internal/proposer"
	"github.com/backpack455/hack-mit-sub000/internal/registry"
	"github.com/backpack455/hack-mit-sub000/internal/retry"
)

// Default timeouts for the two external calls.
const (
	DefaultProposalTimeout = 60 * time.Second
	DefaultDispatchTimeout = 2 * time.Minute
)

// RequiredConfig contains the collaborators an Orchestrator cannot run without.
type RequiredConfig struct {
	// Registry is the agent catalog. Nil means the empty catalog, which makes
	// every generation fall back.
	Registry *registry.Registry
	// Source resolves and reads the context document.
	Source contextdoc.Source
	// Proposer turns context into tasks.
	Proposer proposer.Proposer
	// Runtime executes task+agent pairings.
	Runtime execution.Runtime
}

// Option configures an Orchestrator. Use With* functions to create Options.
type Option func(*orchestratorOptions)

// orchestratorOptions holds all optional configuration.
type orchestratorOptions struct {
	logger          *zap.Logger
	cache           *cache.ResultCache
	journal         Journal
	retryPolicy     retry.Policy
	proposalTimeout time.Duration
	dispatchTimeout time.Duration
	rules           registry.RuleTable
	now             func() time.Time
	events          *EventEmitter
	registryErr     error
	concurrency     int
}

func defaultOptions() orchestratorOptions {
	return orchestratorOptions{
		logger:          zap.NewNop(),
		retryPolicy:     retry.DefaultPolicy(),
		proposalTimeout: DefaultProposalTimeout,
		dispatchTimeout: DefaultDispatchTimeout,
		now:             time.Now,
		concurrency:     4,
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *orchestratorOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCache sets the result cache. The default is an unexpiring LRU of
// cache.DefaultCapacity entries.
func WithCache(c *cache.ResultCache) Option {
	return func(o *orchestratorOptions) { o.cache = c }
}

// WithJournal enables persistence of sets and results.
func WithJournal(j Journal) Option {
	return func(o *orchestratorOptions) { o.journal = j }
}

// WithRetryPolicy sets the retry policy for proposal and dispatch.
func WithRetryPolicy(p retry.Policy) Option {
	return func(o *orchestratorOptions) { o.retryPolicy = p }
}

// WithProposalTimeout bounds each generation's proposer call, retries included.
func WithProposalTimeout(d time.Duration) Option {
	return func(o *orchestratorOptions) {
		if d > 0 {
			o.proposalTimeout = d
		}
	}
}

// WithDispatchTimeout bounds each execution's runtime call, retries included.
func WithDispatchTimeout(d time.Duration) Option {
	return func(o *orchestratorOptions) {
		if d > 0 {
			o.dispatchTimeout = d
		}
	}
}

// WithRules overrides the agent bonus rules. The default is the registry's table.
func WithRules(r registry.RuleTable) Option {
	return func(o *orchestratorOptions) { o.rules = r }
}

// WithClock sets the time source (mainly for testing).
func WithClock(now func() time.Time) Option {
	return func(o *orchestratorOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithEvents sets the emitter that receives pipeline events.
func WithEvents(e *EventEmitter) Option {
	return func(o *orchestratorOptions) { o.events = e }
}

// WithRegistryError records why the catalog failed to load. It is reported
// on every generation that falls back because the catalog is empty.
func WithRegistryError(err error) Option {
	return func(o *orchestratorOptions) { o.registryErr = err }
}

// WithScoringConcurrency bounds how many tasks are scored in parallel.
func WithScoringConcurrency(n int) Option {
	return func(o *orchestratorOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}
