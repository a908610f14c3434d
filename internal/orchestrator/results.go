package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/backpack455/hack-mit-sub000/pkg/models"
)

// Result returns the stored result for id. Results evicted from the cache
// are looked up in the journal, when one is configured.
func (o *Orchestrator) Result(id string) (models.ExecutionResult, bool) {
	if res, ok := o.cache.Get(id); ok {
		return res, true
	}
	if o.opts.journal == nil {
		return models.ExecutionResult{}, false
	}
	res, ok, err := o.opts.journal.GetResult(id)
	if err != nil {
		o.logger.Warn("journal lookup failed", zap.String("action_id", id), zap.Error(err))
		return models.ExecutionResult{}, false
	}
	if ok {
		o.cache.Put(id, res)
	}
	return res, ok
}

// Progress derives the status of id from the stored result alone:
// absent is not_started, error is failed, success is completed.
func (o *Orchestrator) Progress(id string) models.TaskProgress {
	res, ok := o.Result(id)
	switch {
	case !ok:
		return models.TaskProgress{ActionID: id, Status: models.ProgressNotStarted}
	case res.Failed():
		return models.TaskProgress{ActionID: id, Status: models.ProgressFailed}
	default:
		return models.TaskProgress{ActionID: id, Status: models.ProgressCompleted}
	}
}

// ClearResults empties the cache and the journaled results.
func (o *Orchestrator) ClearResults() {
	o.cache.Clear()
	if o.opts.journal == nil {
		return
	}
	n, err := o.opts.journal.ClearResults()
	if err != nil {
		o.logger.Warn("journal clear failed", zap.Error(err))
		return
	}
	o.logger.Debug("journal results cleared", zap.Int64("count", n))
}

// Restore loads the latest journaled set and recent results so that ids
// printed by an earlier process resolve exactly. Without a journal it does
// nothing.
func (o *Orchestrator) Restore(ctx context.Context) error {
	j := o.opts.journal
	if j == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	set, err := j.LatestSet()
	if err != nil {
		return fmt.Errorf("restore set: %w", err)
	}
	if set != nil && o.state.Restore(set) {
		o.logger.Debug("restored recommendation set",
			zap.String("set_id", set.ID),
			zap.Int("count", set.Len()))
	}

	limit := o.cache.Capacity()
	results, err := j.RecentResults(limit)
	if err != nil {
		return fmt.Errorf("restore results: %w", err)
	}
	// Oldest first, so the newest entries end up most recently used.
	for i := len(results) - 1; i >= 0; i-- {
		o.cache.Put(results[i].ActionID, results[i])
	}
	return nil
}

// store writes res to the cache and, best effort, to the journal.
func (o *Orchestrator) store(res models.ExecutionResult) {
	o.cache.Put(res.ActionID, res)
	if o.opts.journal == nil {
		return
	}
	if err := o.opts.journal.SaveResult(res); err != nil {
		o.logger.Warn("journal result failed", zap.String("action_id", res.ActionID), zap.Error(err))
	}
}
