package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/backpack455/hack-mit-sub000/internal/execution"
	"github.com/backpack455/hack-mit-sub000/internal/pipeerr"
	"github.com/backpack455/hack-mit-sub000/internal/retry"
	"github.com/backpack455/hack-mit-sub000/pkg/models"
)

// DegradedContext replaces the context text when the set's document cannot be read.
const DegradedContext = "[context unavailable: proceeding with degraded context]"

// Execute runs the recommendation addressed by id and stores the result
// under id. It never panics or fails: every problem becomes a result of kind
// error. Without a current set it generates one first. Unknown ids resolve
// to the closest match in the current set.
func (o *Orchestrator) Execute(ctx context.Context, id string) (result models.ExecutionResult) {
	defer func() {
		if r := recover(); r != nil {
			perr := pipeerr.New(pipeerr.StageRecovered, fmt.Errorf("panic during execution: %v", r))
			o.logger.Error("execution panicked", zap.String("action_id", id), zap.Error(perr))
			result = o.failure(id, "", "", perr)
			o.store(result)
		}
	}()

	set := o.state.Current()
	if set == nil {
		set = o.ensureCurrent(ctx)
	}
	if set.Len() == 0 {
		result = o.failure(id, "", "", pipeerr.New(pipeerr.StageLookup,
			fmt.Errorf("%w: no recommendations available", pipeerr.ErrLookupMiss)))
		o.store(result)
		return result
	}

	rec, exact := set.Find(id)
	if !exact {
		rec = closestMatch(set)
		o.logger.Info("recommendation lookup miss, using closest match",
			zap.String("action_id", id),
			zap.String("resolved_id", rec.ID),
			zap.Error(pipeerr.ErrLookupMiss))
	}

	o.emit(Event{Type: EventExecutionStarted, ActionID: id, ResolvedID: rec.ID})

	req := o.dispatchRequest(ctx, set, rec)
	resp, err := o.dispatch(ctx, req)
	if err != nil {
		result = o.failure(id, rec.ID, rec.AgentTag, pipeerr.New(pipeerr.StageDispatch,
			ensureSentinel(err, pipeerr.ErrExecutionDispatch)))
	} else {
		kind := resp.Kind
		if !kind.Valid() {
			kind = models.ResultSuccess
		}
		result = models.ExecutionResult{
			ActionID:   id,
			ResolvedID: rec.ID,
			AgentTag:   rec.AgentTag,
			Kind:       kind,
			Content:    resp.Content,
			Raw:        resp.Raw,
			Timestamp:  o.now(),
		}
	}

	o.store(result)
	evType := EventExecutionCompleted
	if result.Failed() {
		evType = EventExecutionFailed
	}
	o.emit(Event{Type: evType, ActionID: id, ResolvedID: rec.ID, Message: string(result.Kind)})
	return result
}

// ExecuteAsync runs Execute in a goroutine. The channel receives exactly one
// result and is then closed.
func (o *Orchestrator) ExecuteAsync(ctx context.Context, id string) <-chan models.ExecutionResult {
	ch := make(chan models.ExecutionResult, 1)
	go func() {
		defer close(ch)
		ch <- o.Execute(ctx, id)
	}()
	return ch
}

// ensureCurrent generates a set for callers that execute before any
// generation. Concurrent callers share one generation.
func (o *Orchestrator) ensureCurrent(ctx context.Context) *models.RecommendationSet {
	v, _, _ := o.lazy.Do("lazy-generate", func() (interface{}, error) {
		if cur := o.state.Current(); cur != nil {
			return cur, nil
		}
		o.logger.Debug("no current set, generating before execution")
		return o.Generate(ctx).Set, nil
	})
	if cur := o.state.Current(); cur != nil {
		return cur
	}
	set, _ := v.(*models.RecommendationSet)
	return set
}

// closestMatch picks the recommendation with the highest
// max(similarity, confidence, 0). Non-finite scores count as 0 and ties keep
// set order. The set must not be empty.
func closestMatch(set *models.RecommendationSet) models.Recommendation {
	recs := append([]models.Recommendation(nil), set.Recommendations...)
	sort.SliceStable(recs, func(i, j int) bool {
		return matchKey(recs[i]) > matchKey(recs[j])
	})
	return recs[0]
}

func matchKey(r models.Recommendation) float64 {
	return math.Max(math.Max(finite(r.SimilarityScore), finite(r.Confidence)), 0)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// dispatchRequest assembles the runtime payload, substituting the degraded
// placeholder when the context document is gone.
func (o *Orchestrator) dispatchRequest(ctx context.Context, set *models.RecommendationSet, rec models.Recommendation) execution.Request {
	text := DegradedContext
	if set.ContextRef != "" {
		if t, err := o.source.Read(ctx, set.ContextRef); err == nil {
			text = t
		} else {
			o.logger.Info("context unreadable at execution, degrading",
				zap.String("context_ref", set.ContextRef),
				zap.Error(err))
		}
	}

	req := execution.Request{
		Task:        rec.Task,
		AgentTag:    rec.AgentTag,
		ContextText: text,
		Similarity: execution.SimilarityMetadata{
			Score:      rec.SimilarityScore,
			Confidence: rec.Confidence,
			MatchScore: rec.MatchScore,
			TopSimilar: rec.TopSimilarAgents,
		},
	}
	if agent, ok := o.registry.Lookup(rec.AgentTag); ok {
		req.AgentDescription = agent.Description
	}
	return req
}

// dispatch calls the runtime with the dispatch timeout and retry policy.
func (o *Orchestrator) dispatch(ctx context.Context, req execution.Request) (execution.Response, error) {
	dctx, cancel := context.WithTimeout(ctx, o.opts.dispatchTimeout)
	defer cancel()

	var resp execution.Response
	attempts, err := retry.Do(dctx, o.opts.retryPolicy, func(ctx context.Context) error {
		var derr error
		resp, derr = o.runtime.Execute(ctx, req)
		if derr != nil {
			o.logger.Debug("dispatch attempt failed", zap.String("agent", req.AgentTag), zap.Error(derr))
		}
		return derr
	})
	if err != nil {
		return execution.Response{}, fmt.Errorf("after %d attempt(s): %w", attempts, err)
	}
	return resp, nil
}

// failure builds an error result carrying err's message.
func (o *Orchestrator) failure(actionID, resolvedID, agentTag string, err error) models.ExecutionResult {
	msg := "execution failed"
	if err != nil {
		msg = err.Error()
	}
	var perr *pipeerr.PipelineError
	if errors.As(err, &perr) && perr.Stage == pipeerr.StageDispatch {
		o.logger.Warn("execution failed", zap.String("action_id", actionID), zap.Error(err))
	}
	return models.ExecutionResult{
		ActionID:   actionID,
		ResolvedID: resolvedID,
		AgentTag:   agentTag,
		Kind:       models.ResultError,
		Content:    msg,
		Timestamp:  o.now(),
	}
}
