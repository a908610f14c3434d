package registry

import "strings"

// BonusRule adds Bonus to an agent's match score when any indicator
// appears in a task's title or description.
type BonusRule struct {
	Indicators []string `yaml:"indicators"`
	Bonus      float64  `yaml:"bonus"`
}

// Matches reports whether any indicator is a substring of text.
// text must already be lowercased.
func (r BonusRule) Matches(text string) bool {
	for _, ind := range r.Indicators {
		ind = strings.ToLower(strings.TrimSpace(ind))
		if ind != "" && strings.Contains(text, ind) {
			return true
		}
	}
	return false
}

// RuleTable maps an agent tag to its bonus rules.
type RuleTable map[string][]BonusRule

// Bonus returns the total bonus for tag against the lowercased task text.
// Unknown tags get 0.
func (t RuleTable) Bonus(tag, text string) float64 {
	var total float64
	for _, rule := range t[tag] {
		if rule.Matches(text) {
			total += rule.Bonus
		}
	}
	return total
}

// Merge returns a new table where entries from other replace the
// entries of t tag by tag.
func (t RuleTable) Merge(other RuleTable) RuleTable {
	merged := make(RuleTable, len(t)+len(other))
	for tag, rules := range t {
		merged[tag] = append([]BonusRule(nil), rules...)
	}
	for tag, rules := range other {
		merged[tag] = append([]BonusRule(nil), rules...)
	}
	return merged
}

// DefaultRules returns the built-in rule table for the sample catalog.
func DefaultRules() RuleTable {
	return RuleTable{
		"exa-mcp": {
			{Indicators: []string{"search", "find", "research", "papers", "web", "look up"}, Bonus: 5},
		},
		"perplexity-ask": {
			{Indicators: []string{"question", "explain", "answer", "compare", "why"}, Bonus: 4},
		},
		"context7": {
			{Indicators: []string{"documentation", "docs", "library", "api reference", "sdk"}, Bonus: 5},
		},
		"deepwiki": {
			{Indicators: []string{"repository", "repo", "codebase", "architecture"}, Bonus: 4},
		},
		"sequential-thinking": {
			{Indicators: []string{"analyze", "analysis", "plan", "reason", "break down", "strategy"}, Bonus: 4},
		},
		"github-mcp": {
			{Indicators: []string{"issue", "pull request", "commit", "github", "review"}, Bonus: 5},
		},
		"playwright-mcp": {
			{Indicators: []string{"browser", "navigate", "screenshot", "click", "form"}, Bonus: 4},
		},
		"notion-mcp": {
			{Indicators: []string{"note", "notes", "notion", "page", "organize"}, Bonus: 4},
		},
	}
}
