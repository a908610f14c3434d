package models

import "time"

// ResultKind classifies an execution result.
type ResultKind string

const (
	// ResultSuccess indicates the runtime completed the task.
	ResultSuccess ResultKind = "success"
	// ResultError indicates the execution failed somewhere in the pipeline.
	ResultError ResultKind = "error"
)

// Valid returns true if the kind is a known value.
func (k ResultKind) Valid() bool {
	return k == ResultSuccess || k == ResultError
}

// ExecutionResult is the stored outcome of executing a recommendation.
type ExecutionResult struct {
	// ActionID is the id the caller used to invoke execution.
	ActionID string `json:"action_id"`
	// ResolvedID is the recommendation that actually ran. It differs from
	// ActionID when the closest-match fallback was used.
	ResolvedID string     `json:"resolved_id,omitempty"`
	AgentTag   string     `json:"agent_tag,omitempty"`
	Kind       ResultKind `json:"kind"`
	Content    string     `json:"content"`
	Raw        string     `json:"raw,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// Failed reports whether the result is an error.
func (r ExecutionResult) Failed() bool {
	return r.Kind == ResultError
}

// ProgressStatus is derived purely from the result cache.
type ProgressStatus string

const (
	// ProgressNotStarted means no result has been stored for the id.
	ProgressNotStarted ProgressStatus = "not_started"
	// ProgressCompleted means a success result is stored.
	ProgressCompleted ProgressStatus = "completed"
	// ProgressFailed means an error result is stored.
	ProgressFailed ProgressStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s ProgressStatus) Valid() bool {
	switch s {
	case ProgressNotStarted, ProgressCompleted, ProgressFailed:
		return true
	default:
		return false
	}
}

// TaskProgress reports the status of one action id.
type TaskProgress struct {
	ActionID string         `json:"action_id"`
	Status   ProgressStatus `json:"status"`
}
