// Package orchestrator drives the recommendation pipeline.
//
// The Orchestrator owns one PipelineState and moves through
//
//	Idle -> Generating -> Ready(set) -> Executing(id) -> Completed|Failed -> Ready(set')
//
// Generation reads the context document, asks the proposer for tasks, scores
// every catalog agent against each task and installs the resulting
// RecommendationSet as current. Any failure along the way installs the fixed
// fallback set instead. Execution resolves an id against the current set,
// falling back to the closest match when the id is stale, dispatches the
// pairing to the runtime and stores the result under the caller's id.
//
// Neither Generate nor Execute returns an error or panics. Failures surface as
// GenerationOutcome.Err and as ExecutionResult values of kind "error".
//
// Example usage:
//
//	orch, err := orchestrator.New(orchestrator.RequiredConfig{
//		Registry: reg,
//		Source:   contextdoc.NewFileSource(path, "*.txt"),
//		Proposer: proposer.NewAnthropicProposer(runner, 5, logger),
//		Runtime:  execution.NewLLMRuntime(runner, logger),
//	}, orchestrator.WithLogger(logger))
//	outcome := orch.Generate(ctx)
//	result := orch.Execute(ctx, outcome.Set.Recommendations[0].ID)
package orchestrator
