// Package pipeerr defines the error taxonomy shared by the pipeline packages.
//
// Every recoverable failure carries one of the sentinel errors below so that
// callers can branch with errors.Is instead of matching strings.
package pipeerr

import (
	"errors"
	"fmt"
)

var (
	// ErrRegistryLoad means the agent catalog could not be loaded.
	ErrRegistryLoad = errors.New("registry load failed")
	// ErrContextUnavailable means the context document was missing or unreadable.
	ErrContextUnavailable = errors.New("context unavailable")
	// ErrTaskProposal means the external task proposer failed or returned garbage.
	ErrTaskProposal = errors.New("task proposal failed")
	// ErrExecutionDispatch means the execution runtime failed.
	ErrExecutionDispatch = errors.New("execution dispatch failed")
	// ErrLookupMiss means a recommendation id was not present in the current set.
	ErrLookupMiss = errors.New("recommendation lookup miss")
)

// Stage names the pipeline step a PipelineError originated from.
type Stage string

const (
	StageRegistry  Stage = "registry"
	StageContext   Stage = "context"
	StageProposal  Stage = "proposal"
	StageScoring   Stage = "scoring"
	StageLookup    Stage = "lookup"
	StageDispatch  Stage = "dispatch"
	StageRecovered Stage = "recovered"
)

// PipelineError is the tagged error carried by pipeline outcomes.
type PipelineError struct {
	Stage Stage
	Err   error
}

// New creates a PipelineError for the given stage.
func New(stage Stage, err error) *PipelineError {
	return &PipelineError{Stage: stage, Err: err}
}

func (e *PipelineError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("pipeline %s failure", e.Stage)
	}
	return fmt.Sprintf("pipeline %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// StageOf returns the stage of the first PipelineError in err's chain,
// or the stage implied by a known sentinel.
func StageOf(err error) Stage {
	if err == nil {
		return ""
	}
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Stage
	}
	switch {
	case errors.Is(err, ErrRegistryLoad):
		return StageRegistry
	case errors.Is(err, ErrContextUnavailable):
		return StageContext
	case errors.Is(err, ErrTaskProposal):
		return StageProposal
	case errors.Is(err, ErrExecutionDispatch):
		return StageDispatch
	case errors.Is(err, ErrLookupMiss):
		return StageLookup
	default:
		return StageRecovered
	}
}
