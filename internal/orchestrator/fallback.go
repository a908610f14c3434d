package orchestrator

import (
	"time"

	"github.com/google/uuid"

	"github.com/backpack455/hack-mit-sub000/pkg/models"
)

// Fallback recommendation ids. They are stable across releases so callers
// can address them directly.
const (
	FallbackSearchID        = "fallback_search"
	FallbackAnalyzeID       = "fallback_analyze"
	FallbackDocumentationID = "fallback_documentation"
)

// fallbackConfidence is the fixed confidence of every fallback entry.
const fallbackConfidence = 0.5

var fallbackRecommendations = []models.Recommendation{
	{
		ID:          FallbackSearchID,
		Title:       "Search the web",
		Description: "Search the web for information related to what you are working on",
		Icon:        "search",
		AgentTag:    "exa-mcp",
		Task: models.Task{
			Title:       "Search the web",
			Description: "Search the web for information related to the current context",
			Category:    "research",
			Priority:    models.PriorityMedium,
			Keywords:    []string{"search", "web", "research"},
		},
	},
	{
		ID:          FallbackAnalyzeID,
		Title:       "Analyze the problem",
		Description: "Break the current problem down step by step",
		Icon:        "analyze",
		AgentTag:    "sequential-thinking",
		Task: models.Task{
			Title:       "Analyze the problem",
			Description: "Reason through the current problem step by step",
			Category:    "analysis",
			Priority:    models.PriorityMedium,
			Keywords:    []string{"analyze", "reasoning", "steps"},
		},
	},
	{
		ID:          FallbackDocumentationID,
		Title:       "Look up documentation",
		Description: "Find library and API documentation relevant to your work",
		Icon:        "docs",
		AgentTag:    "context7",
		Task: models.Task{
			Title:       "Look up documentation",
			Description: "Find library and API documentation for the current context",
			Category:    "documentation",
			Priority:    models.PriorityMedium,
			Keywords:    []string{"documentation", "library", "api"},
		},
	},
}

// FallbackSet builds the fixed three-entry set installed when generation fails.
func FallbackSet(generation uint64, contextRef string, now time.Time) *models.RecommendationSet {
	recs := make([]models.Recommendation, len(fallbackRecommendations))
	for i, r := range fallbackRecommendations {
		r.Confidence = fallbackConfidence
		r.Task.Keywords = append([]string(nil), r.Task.Keywords...)
		recs[i] = r
	}
	return &models.RecommendationSet{
		ID:              uuid.NewString(),
		Generation:      generation,
		Recommendations: recs,
		ContextRef:      contextRef,
		Timestamp:       now,
		IsFallback:      true,
	}
}
