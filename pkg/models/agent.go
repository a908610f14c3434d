package models

// AgentDescriptor describes a named capability provider.
// Descriptors are loaded once at startup and never mutated.
type AgentDescriptor struct {
	// Tag is the unique key of the agent (e.g. "exa-mcp").
	Tag string `json:"tag" yaml:"tag"`
	// Description is free text describing what the agent can do.
	Description string `json:"description" yaml:"description"`
}

// SimilarityResult is the per-agent similarity computed for one task.
type SimilarityResult struct {
	Agent            AgentDescriptor `json:"agent"`
	SimilarityScore  float64         `json:"similarity_score"`
	ContextRelevance float64         `json:"context_relevance"`
}
