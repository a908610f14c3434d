package scoring

import (
	"math"
	"sort"

	"github.com/backpack455/hack-mit-sub000/pkg/models"
)

// DefaultTopK is how many agents Rank returns.
const DefaultTopK = 3

// Ranked is one scored agent.
type Ranked struct {
	Agent      models.AgentDescriptor
	Score      float64
	Similarity *models.SimilarityResult
}

// Ranker orders agents for a task by match score.
type Ranker struct {
	scorer *Scorer
	topK   int
}

// NewRanker creates a Ranker returning the DefaultTopK best agents.
func NewRanker(scorer *Scorer) *Ranker {
	return &Ranker{scorer: scorer, topK: DefaultTopK}
}

// Rank scores every agent and returns the best ones, highest first.
// Equal scores keep catalog order. sims may be nil; when present, results are
// matched to agents by tag. An empty catalog yields an empty slice.
func (r *Ranker) Rank(task models.Task, agents []models.AgentDescriptor, sims []models.SimilarityResult) []Ranked {
	if len(agents) == 0 {
		return []Ranked{}
	}

	byTag := make(map[string]models.SimilarityResult, len(sims))
	for _, s := range sims {
		byTag[s.Agent.Tag] = s
	}

	ranked := make([]Ranked, 0, len(agents))
	for _, a := range agents {
		var sim *models.SimilarityResult
		if s, ok := byTag[a.Tag]; ok {
			s := s
			sim = &s
		}
		ranked = append(ranked, Ranked{
			Agent:      a,
			Score:      r.scorer.MatchScore(task, a, sim),
			Similarity: sim,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > r.topK {
		ranked = ranked[:r.topK]
	}
	return ranked
}

// Calibrate squashes a raw match score into (0,1) with a logistic curve
// centred at 12 points. Confidence values exposed to callers come from here.
func Calibrate(score float64) float64 {
	score = finite(score)
	return 1 / (1 + math.Exp(-(score-12)/4))
}
