package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/backpack455/hack-mit-sub000/pkg/models"
)

var icons = map[string]string{
	"search":     "🔍",
	"analyze":    "🧠",
	"docs":       "📚",
	"code":       "💻",
	"automation": "⚙",
	"checklist":  "✅",
	"question":   "❓",
}

// Icon maps a recommendation icon name to a glyph.
func Icon(name string) string {
	if g, ok := icons[name]; ok {
		return g
	}
	return "✨"
}

// RenderRecommendation renders one line for a recommendation.
func RenderRecommendation(rec models.Recommendation) string {
	line := fmt.Sprintf("%s %s", Icon(rec.Icon), rec.Title)
	meta := fmt.Sprintf("%s  %3.0f%%  %s",
		agentStyle.Render(rec.AgentTag),
		rec.Confidence*100,
		hintStyle.Render(rec.ID))
	return line + "  " + meta
}

// RenderSet renders a recommendation set as a boxed list.
func RenderSet(set *models.RecommendationSet) string {
	if set.Len() == 0 {
		return hintStyle.Render("No recommendations.")
	}

	header := titleStyle.Render(fmt.Sprintf("Recommendations (%d)", set.Len()))
	if set.IsFallback {
		header += " " + warnStyle.Render("[fallback]")
	}

	lines := []string{header}
	for _, rec := range set.Recommendations {
		lines = append(lines, RenderRecommendation(rec))
		if rec.Description != "" {
			lines = append(lines, "   "+hintStyle.Render(rec.Description))
		}
	}
	if set.ContextRef != "" {
		lines = append(lines, hintStyle.Render("context: "+set.ContextRef))
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// RenderResult renders an execution result with a status line.
func RenderResult(res models.ExecutionResult) string {
	var status string
	if res.Failed() {
		status = errorStyle.Render("✗ " + res.ActionID)
	} else {
		status = successStyle.Render("✓ " + res.ActionID)
	}
	if res.ResolvedID != "" && res.ResolvedID != res.ActionID {
		status += hintStyle.Render(" (ran " + res.ResolvedID + ")")
	}
	if res.AgentTag != "" {
		status += " " + agentStyle.Render(res.AgentTag)
	}
	return status + "\n\n" + strings.TrimRight(res.Content, "\n") + "\n"
}

// RenderProgress renders a progress status with color.
func RenderProgress(p models.TaskProgress) string {
	switch p.Status {
	case models.ProgressCompleted:
		return successStyle.Render(string(p.Status))
	case models.ProgressFailed:
		return errorStyle.Render(string(p.Status))
	default:
		return hintStyle.Render(string(p.Status))
	}
}
