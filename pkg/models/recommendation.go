package models

import "time"

// Recommendation is a task bound to its best-fit agent plus scoring metadata.
// It is created during generation and never mutated afterwards.
type Recommendation struct {
	// ID is unique within the owning RecommendationSet.
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	// Confidence is the calibrated score in (0,1).
	Confidence float64 `json:"confidence"`
	// MatchScore is the raw composite score of the selected agent.
	// It is not normalized and may be well above 1.
	MatchScore      float64 `json:"match_score"`
	AgentTag        string  `json:"agent_tag"`
	SimilarityScore float64 `json:"similarity_score"`
	// TopSimilarAgents holds at most five agents ordered by similarity.
	TopSimilarAgents []SimilarityResult `json:"top_similar_agents"`
	// Alternatives lists the ranked agent tags after the selected one.
	Alternatives []string `json:"alternatives,omitempty"`
	Task         Task     `json:"task"`
}

// RecommendationSet is the output of one generation.
// Exactly one set is current at a time and a new generation replaces it.
type RecommendationSet struct {
	// ID identifies this generation run.
	ID string `json:"id"`
	// Generation is the monotonic ticket the set was produced under.
	Generation      uint64           `json:"generation"`
	Recommendations []Recommendation `json:"recommendations"`
	// ContextRef points at the context document the set was built from.
	ContextRef string    `json:"context_ref"`
	Timestamp  time.Time `json:"timestamp"`
	IsFallback bool      `json:"is_fallback"`
}

// Find returns the recommendation with the given id.
func (s *RecommendationSet) Find(id string) (Recommendation, bool) {
	if s == nil {
		return Recommendation{}, false
	}
	for _, r := range s.Recommendations {
		if r.ID == id {
			return r, true
		}
	}
	return Recommendation{}, false
}

// Len returns the number of recommendations in the set.
func (s *RecommendationSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Recommendations)
}

// IDs returns the recommendation ids in set order.
func (s *RecommendationSet) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.Recommendations))
	for _, r := range s.Recommendations {
		ids = append(ids, r.ID)
	}
	return ids
}
