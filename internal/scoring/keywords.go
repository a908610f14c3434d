// Package scoring matches proposed tasks against the agent catalog.
//
// Scores are heuristic: a keyword-overlap similarity in [0,1] blended with
// rule-based bonuses into an unbounded composite match score.
package scoring

import (
	"strings"
	"unicode"
)

// MaxKeywords is how many keywords ExtractKeywords keeps.
// Truncation is positional, so only the first MaxKeywords qualifying tokens
// of a text can ever overlap with anything.
const MaxKeywords = 20

// stopWords are dropped by ExtractKeywords. Tokens of two characters or
// fewer never reach this check.
var stopWords = toSet([]string{
	"the", "and", "for", "are", "but", "not", "you", "all", "any", "can",
	"had", "her", "was", "one", "our", "out", "has", "him", "his", "how",
	"its", "let", "may", "new", "now", "own", "see", "she", "too", "use",
	"was", "who", "why", "yet", "this", "that", "with", "have", "from",
	"they", "them", "then", "than", "been", "were", "will", "into", "your",
	"what", "when", "where", "which", "while", "about", "there", "their",
	"these", "those", "would", "could", "should", "also", "each", "only",
	"more", "most", "other", "some", "such", "very", "just", "like", "over",
	"here", "does", "doing", "done", "being", "because", "between", "after",
	"before", "again", "further", "once", "both", "same", "so", "via",
})

// importantKeywords count double in the weighted overlap term of
// SemanticSimilarity.
var importantKeywords = toSet([]string{
	"search", "research", "papers", "academic", "web", "crawl", "analyze",
	"analysis", "documentation", "docs", "library", "api", "code", "github",
	"repository", "browser", "automation", "notes", "plan", "reasoning",
	"data", "database", "review",
})

// techKeywords are the technology and domain terms ContextRelevance looks for.
var techKeywords = []string{
	"python", "javascript", "typescript", "react", "node", "golang", "rust",
	"java", "api", "sdk", "database", "sql", "web", "browser", "github",
	"repository", "code", "programming", "framework", "library", "machine",
	"learning", "data", "cloud", "docker", "kubernetes", "security",
	"research", "academic", "papers", "documentation", "search", "notes",
	"design", "analysis",
}

// categoryKeywords maps a task category to domain keywords expected in the
// description of agents suited to it.
var categoryKeywords = map[string][]string{
	"research":      {"search", "academic", "papers", "documentation", "web", "crawl", "articles", "sources"},
	"analysis":      {"analyze", "reasoning", "structured", "step", "strategy", "plan", "problems"},
	"documentation": {"documentation", "library", "reference", "docs", "api", "framework"},
	"development":   {"code", "github", "repository", "pull", "commit", "review", "codebase"},
	"automation":    {"browser", "automation", "navigate", "forms", "click", "screenshots"},
	"productivity":  {"notes", "pages", "organize", "workspace", "documents", "databases"},
	"question":      {"question", "answering", "explanations", "cited", "sources"},
}

// CategoryKeywords returns the domain keywords mapped to category.
func CategoryKeywords(category string) []string {
	kws := categoryKeywords[strings.ToLower(strings.TrimSpace(category))]
	return append([]string(nil), kws...)
}

// ExtractKeywords lowercases text, replaces non-alphanumerics with spaces,
// splits on whitespace, drops short tokens and stop words, and keeps the
// first MaxKeywords tokens in order.
func ExtractKeywords(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return ' '
	}, text)

	var out []string
	for _, tok := range strings.Fields(cleaned) {
		if len(tok) <= 2 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		out = append(out, tok)
		if len(out) == MaxKeywords {
			break
		}
	}
	return out
}

// words returns the distinct lowercase alphanumeric words of text longer
// than minLen characters.
func words(text string, minLen int) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if len(f) > minLen {
			out[f] = struct{}{}
		}
	}
	return out
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
