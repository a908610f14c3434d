package scoring

import (
	"math"
	"sort"
	"strings"

	"github.com/backpack455/hack-mit-sub000/internal/registry"
	"github.com/backpack455/hack-mit-sub000/pkg/models"
)

// neutralRelevance is returned by ContextRelevance when there is no context.
const neutralRelevance = 0.5

// Scorer computes similarity and match scores between tasks and agents.
// A Scorer is safe for concurrent use.
type Scorer struct {
	rules registry.RuleTable
}

// NewScorer creates a Scorer using the given bonus rule table.
// A nil table disables agent-specific bonuses.
func NewScorer(rules registry.RuleTable) *Scorer {
	if rules == nil {
		rules = registry.RuleTable{}
	}
	return &Scorer{rules: rules}
}

// SemanticSimilarity blends Jaccard similarity of the keyword sets with an
// overlap ratio in which important keywords count double. The result is
// clipped to [0,1].
func SemanticSimilarity(a, b string) float64 {
	setA := toSet(ExtractKeywords(a))
	setB := toSet(ExtractKeywords(b))
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	var intersection int
	var weighted float64
	for kw := range setA {
		if _, ok := setB[kw]; !ok {
			continue
		}
		intersection++
		if _, important := importantKeywords[kw]; important {
			weighted += 2
		} else {
			weighted++
		}
	}

	union := len(setA) + len(setB) - intersection
	jaccard := float64(intersection) / float64(union)
	overlap := weighted / float64(max(len(setA), len(setB)))

	return clip01(0.6*jaccard + 0.4*overlap)
}

// ContextRelevance adds 0.1 for every technology keyword present both in the
// context keywords and in the agent description. Empty context yields 0.5.
func ContextRelevance(contextText string, agent models.AgentDescriptor) float64 {
	if strings.TrimSpace(contextText) == "" {
		return neutralRelevance
	}

	ctxKeywords := toSet(ExtractKeywords(contextText))
	desc := strings.ToLower(agent.Description)

	var score float64
	for _, kw := range techKeywords {
		if _, ok := ctxKeywords[kw]; ok && strings.Contains(desc, kw) {
			score += 0.1
		}
	}
	return clip01(score)
}

// Similarity computes the SimilarityResult of a task against one agent.
func (s *Scorer) Similarity(task models.Task, agent models.AgentDescriptor, contextText string) models.SimilarityResult {
	return models.SimilarityResult{
		Agent:            agent,
		SimilarityScore:  SemanticSimilarity(task.FullText(), agent.Description),
		ContextRelevance: ContextRelevance(contextText, agent),
	}
}

// Similarities computes one SimilarityResult per agent in catalog order.
func (s *Scorer) Similarities(task models.Task, agents []models.AgentDescriptor, contextText string) []models.SimilarityResult {
	out := make([]models.SimilarityResult, len(agents))
	for i, a := range agents {
		out[i] = s.Similarity(task, a, contextText)
	}
	return out
}

// MatchScore is the composite, unnormalized score of agent for task.
// The similarity terms are only added when sim is non-nil.
func (s *Scorer) MatchScore(task models.Task, agent models.AgentDescriptor, sim *models.SimilarityResult) float64 {
	desc := strings.ToLower(agent.Description)
	var score float64

	if sim != nil {
		score += 10*finite(sim.SimilarityScore) + 5*finite(sim.ContextRelevance)
	}

	for _, kw := range task.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(desc, kw) {
			score += 3
		}
	}

	for _, kw := range CategoryKeywords(task.Category) {
		if strings.Contains(desc, kw) {
			score += 2
		}
	}

	score += s.AgentBonus(task, agent.Tag)

	agentWords := words(agent.Description, 3)
	for w := range words(task.Text(), 3) {
		if _, ok := agentWords[w]; ok {
			score++
		}
	}

	return score
}

// AgentBonus returns the rule-table bonus for tag given the task's title and
// description.
func (s *Scorer) AgentBonus(task models.Task, tag string) float64 {
	return s.rules.Bonus(tag, strings.ToLower(task.Text()))
}

// TopSimilar returns at most n results ordered by similarity descending.
// Ties keep their input order.
func TopSimilar(results []models.SimilarityResult, n int) []models.SimilarityResult {
	sorted := append([]models.SimilarityResult(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SimilarityScore > sorted[j].SimilarityScore
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func clip01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// finite maps NaN and infinities to 0.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
