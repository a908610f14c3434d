package orchestrator

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/backpack455/hack-mit-sub000/internal/cache"
	"github.com/backpack455/hack-mit-sub000/internal/contextdoc"
	"github.com/backpack455/hack-mit-sub000/internal/execution"
	"github.com/backpack455/hack-mit-sub000/internal/pipeerr"
	"github.com/backpack455/hack-mit-sub000/internal/proposer"
	"github.com/backpack455/hack-mit-sub000/internal/registry"
	"github.com/backpack455/hack-mit-sub000/internal/scoring"
	"github.com/backpack455/hack-mit-sub000/pkg/models"
)

// Orchestrator coordinates generation and execution.
// It wires together: source -> proposer -> scorer/ranker -> state -> runtime -> cache.
type Orchestrator struct {
	registry *registry.Registry
	source   contextdoc.Source
	proposer proposer.Proposer
	runtime  execution.Runtime

	scorer *scoring.Scorer
	ranker *scoring.Ranker
	state  PipelineState
	cache  *cache.ResultCache
	lazy   singleflight.Group

	opts   orchestratorOptions
	logger *zap.Logger
}

// GenerationOutcome is the tagged result of one generation.
// Set is never nil. Err is set when the fallback set was produced.
// Stale is true when a newer generation was installed first, in which case
// Set was not installed.
type GenerationOutcome struct {
	Set   *models.RecommendationSet
	Err   *pipeerr.PipelineError
	Stale bool
}

// Fallback reports whether the outcome carries the fallback set.
func (g GenerationOutcome) Fallback() bool {
	return g.Set != nil && g.Set.IsFallback
}

// New creates an Orchestrator.
func New(req RequiredConfig, opts ...Option) (*Orchestrator, error) {
	if req.Source == nil {
		return nil, errors.New("orchestrator: context source is required")
	}
	if req.Proposer == nil {
		return nil, errors.New("orchestrator: proposer is required")
	}
	if req.Runtime == nil {
		return nil, errors.New("orchestrator: execution runtime is required")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	reg := req.Registry
	if reg == nil {
		reg = registry.Empty()
	}
	rules := o.rules
	if rules == nil {
		rules = reg.Rules()
	}
	if o.cache == nil {
		o.cache = cache.New(cache.Options{Capacity: cache.DefaultCapacity, Logger: o.logger})
	}

	scorer := scoring.NewScorer(rules)
	return &Orchestrator{
		registry: reg,
		source:   req.Source,
		proposer: req.Proposer,
		runtime:  req.Runtime,
		scorer:   scorer,
		ranker:   scoring.NewRanker(scorer),
		cache:    o.cache,
		opts:     o,
		logger:   o.logger,
	}, nil
}

// Current returns the current recommendation set, or nil before the first
// generation. The returned set must not be modified.
func (o *Orchestrator) Current() *models.RecommendationSet {
	return o.state.Current()
}

// Registry returns the agent catalog in use.
func (o *Orchestrator) Registry() *registry.Registry {
	return o.registry
}

func (o *Orchestrator) emit(ev Event) {
	if o.opts.events == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = o.now()
	}
	o.opts.events.Emit(ev)
}

func (o *Orchestrator) now() time.Time {
	return o.opts.now()
}
