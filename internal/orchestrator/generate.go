package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/backpack455/hack-mit-sub000/internal/pipeerr"
	"github.com/backpack455/hack-mit-sub000/internal/proposer"
	"github.com/backpack455/hack-mit-sub000/internal/retry"
	"github.com/backpack455/hack-mit-sub000/internal/scoring"
	"github.com/backpack455/hack-mit-sub000/pkg/models"
)

const (
	// topSimilarLimit bounds Recommendation.TopSimilarAgents.
	topSimilarLimit = 5
	maxAlternatives = 3
)

// Generate produces a new recommendation set and installs it as current.
// It never fails: on any error the fallback set is built, installed and
// returned with Err describing the failing stage.
func (o *Orchestrator) Generate(ctx context.Context) GenerationOutcome {
	ticket := o.state.Ticket()
	o.emit(Event{Type: EventGenerationStarted, Generation: ticket})

	set, contextRef, perr := o.generateSafely(ctx, ticket)
	if perr != nil {
		set = FallbackSet(ticket, contextRef, o.now())
		o.logger.Warn("generation fell back",
			zap.Uint64("generation", ticket),
			zap.String("stage", string(perr.Stage)),
			zap.Error(perr))
	}

	outcome := GenerationOutcome{Set: set, Err: perr}
	if !o.state.Install(set) {
		outcome.Stale = true
		o.logger.Info("generation superseded",
			zap.Uint64("generation", ticket),
			zap.Uint64("installed", o.state.InstalledGeneration()))
		o.emit(Event{Type: EventGenerationStale, Generation: ticket})
		return outcome
	}

	o.journalSet(set)

	evType := EventGenerationCompleted
	if set.IsFallback {
		evType = EventGenerationFallback
	}
	var evErr error
	if perr != nil {
		evErr = perr
	}
	o.emit(Event{Type: evType, Generation: ticket, Err: evErr, Message: fmt.Sprintf("%d recommendations", set.Len())})
	o.logger.Info("recommendations installed",
		zap.Uint64("generation", ticket),
		zap.String("set_id", set.ID),
		zap.Int("count", set.Len()),
		zap.Bool("fallback", set.IsFallback))
	return outcome
}

// Refresh is an alias of Generate.
func (o *Orchestrator) Refresh(ctx context.Context) GenerationOutcome {
	return o.Generate(ctx)
}

// generateSafely runs one generation and turns panics into a recovered-stage error.
func (o *Orchestrator) generateSafely(ctx context.Context, ticket uint64) (set *models.RecommendationSet, contextRef string, perr *pipeerr.PipelineError) {
	defer func() {
		if r := recover(); r != nil {
			set = nil
			perr = pipeerr.New(pipeerr.StageRecovered, fmt.Errorf("panic during generation: %v", r))
		}
	}()
	return o.generate(ctx, ticket)
}

func (o *Orchestrator) generate(ctx context.Context, ticket uint64) (*models.RecommendationSet, string, *pipeerr.PipelineError) {
	ref, err := o.source.Ref(ctx)
	if err != nil {
		return nil, "", pipeerr.New(pipeerr.StageContext, ensureSentinel(err, pipeerr.ErrContextUnavailable))
	}
	text, err := o.source.Read(ctx, ref)
	if err != nil {
		return nil, ref, pipeerr.New(pipeerr.StageContext, ensureSentinel(err, pipeerr.ErrContextUnavailable))
	}

	if o.registry.Len() == 0 {
		cause := o.opts.registryErr
		if cause == nil {
			cause = errors.New("agent catalog is empty")
		}
		return nil, ref, pipeerr.New(pipeerr.StageRegistry, ensureSentinel(cause, pipeerr.ErrRegistryLoad))
	}

	tasks, err := o.propose(ctx, text)
	if err != nil {
		return nil, ref, pipeerr.New(pipeerr.StageProposal, ensureSentinel(err, pipeerr.ErrTaskProposal))
	}

	recs, err := o.score(ctx, tasks, text)
	if err != nil {
		return nil, ref, pipeerr.New(pipeerr.StageScoring, err)
	}

	return &models.RecommendationSet{
		ID:              uuid.NewString(),
		Generation:      ticket,
		Recommendations: recs,
		ContextRef:      ref,
		Timestamp:       o.now(),
	}, ref, nil
}

// propose calls the proposer with the proposal timeout and retry policy.
func (o *Orchestrator) propose(ctx context.Context, text string) ([]models.Task, error) {
	pctx, cancel := context.WithTimeout(ctx, o.opts.proposalTimeout)
	defer cancel()

	var tasks []models.Task
	attempts, err := retry.Do(pctx, o.opts.retryPolicy, func(ctx context.Context) error {
		var perr error
		tasks, perr = o.proposer.Propose(ctx, text)
		if perr != nil {
			o.logger.Debug("proposal attempt failed", zap.Error(perr))
			return perr
		}
		if len(tasks) == 0 {
			return retry.Permanent(&proposer.ProposalError{Reason: "no tasks proposed"})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("after %d attempt(s): %w", attempts, err)
	}
	return tasks, nil
}

// score builds one recommendation per task. Tasks are scored concurrently
// and written back by index, so set order follows proposal order.
func (o *Orchestrator) score(ctx context.Context, tasks []models.Task, contextText string) ([]models.Recommendation, error) {
	agents := o.registry.All()
	recs := make([]models.Recommendation, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.concurrency)
	for i, task := range tasks {
		i, task := i, task
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic scoring task %q: %v", task.Title, r)
				}
			}()
			if err := gctx.Err(); err != nil {
				return err
			}
			recs[i] = o.recommend(i, task, agents, contextText)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return recs, nil
}

// recommend ranks the catalog for one task and binds the best agent.
func (o *Orchestrator) recommend(index int, task models.Task, agents []models.AgentDescriptor, contextText string) models.Recommendation {
	sims := o.scorer.Similarities(task, agents, contextText)
	ranked := o.ranker.Rank(task, agents, sims)

	rec := models.Recommendation{
		ID:               recommendationID(index, task.Title),
		Title:            task.Title,
		Description:      task.Description,
		Icon:             iconFor(task.Category),
		TopSimilarAgents: scoring.TopSimilar(sims, topSimilarLimit),
		Task:             task,
	}
	if len(ranked) == 0 {
		return rec
	}

	top := ranked[0]
	rec.AgentTag = top.Agent.Tag
	rec.MatchScore = top.Score
	rec.Confidence = scoring.Calibrate(top.Score)
	if top.Similarity != nil {
		rec.SimilarityScore = top.Similarity.SimilarityScore
	}
	for _, alt := range ranked[1:] {
		if len(rec.Alternatives) == maxAlternatives {
			break
		}
		rec.Alternatives = append(rec.Alternatives, alt.Agent.Tag)
	}
	return rec
}

// recommendationID returns rec_<n>_<slug>, with n 1-based. The index alone
// keeps ids unique within a set.
func recommendationID(index int, title string) string {
	id := "rec_" + strconv.Itoa(index+1)
	if s := slug(title); s != "" {
		id += "_" + s
	}
	return id
}

// slug lowercases title and joins alphanumeric runs with underscores.
func slug(title string) string {
	var sb strings.Builder
	pending := false
	for _, r := range strings.ToLower(title) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pending && sb.Len() > 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r)
			pending = false
			continue
		}
		pending = true
	}
	out := sb.String()
	if len(out) > 40 {
		out = strings.TrimRight(out[:40], "_")
	}
	return out
}

var categoryIcons = map[string]string{
	"research":      "search",
	"analysis":      "analyze",
	"documentation": "docs",
	"development":   "code",
	"automation":    "automation",
	"productivity":  "checklist",
	"question":      "question",
}

func iconFor(category string) string {
	if icon, ok := categoryIcons[strings.ToLower(category)]; ok {
		return icon
	}
	return "sparkles"
}

// ensureSentinel wraps err so that errors.Is(err, sentinel) holds.
func ensureSentinel(err, sentinel error) error {
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

func (o *Orchestrator) journalSet(set *models.RecommendationSet) {
	if o.opts.journal == nil {
		return
	}
	if err := o.opts.journal.SaveSet(set); err != nil {
		o.logger.Warn("journal set failed", zap.String("set_id", set.ID), zap.Error(err))
	}
}
