package models

import "strings"

// Priority represents how urgent a proposed task is.
type Priority string

const (
	// PriorityHigh marks tasks the user should see first.
	PriorityHigh Priority = "high"
	// PriorityMedium is the default priority.
	PriorityMedium Priority = "medium"
	// PriorityLow marks nice-to-have tasks.
	PriorityLow Priority = "low"
)

// Valid returns true if the priority is a known value.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// ParsePriority normalizes a free-form priority string.
// Unknown values map to PriorityMedium.
func ParsePriority(s string) Priority {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return PriorityMedium
	}
	return p
}

// Task is a proposed unit of work derived from a context document.
// Tasks are immutable once created.
type Task struct {
	// Title is the short description of the task.
	Title string `json:"title"`
	// Description provides detailed information about the task.
	Description string `json:"description,omitempty"`
	// Category groups the task (research, analysis, documentation, ...).
	Category string `json:"category,omitempty"`
	// Priority is how urgent the task is.
	Priority Priority `json:"priority,omitempty"`
	// Keywords are ordered hints supplied by the proposer.
	Keywords []string `json:"keywords,omitempty"`
}

// Text returns the title and description joined by a space.
func (t Task) Text() string {
	return strings.TrimSpace(t.Title + " " + t.Description)
}

// FullText returns title, description and keywords joined by spaces.
func (t Task) FullText() string {
	return strings.TrimSpace(t.Text() + " " + strings.Join(t.Keywords, " "))
}
