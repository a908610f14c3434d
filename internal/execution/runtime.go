// Package execution dispatches a task and its selected agent to an
// execution runtime and normalizes what comes back.
package execution

import (
	"context"
	"fmt"
	"strings"

	"github.com/backpack455/hack-mit-sub000/internal/pipeerr"
	"github.com/backpack455/hack-mit-sub000/pkg/models"
)

// SimilarityMetadata is the scoring context sent along with a dispatch.
type SimilarityMetadata struct {
	Score      float64                   `json:"score"`
	Confidence float64                   `json:"confidence"`
	MatchScore float64                   `json:"match_score"`
	TopSimilar []models.SimilarityResult `json:"top_similar,omitempty"`
}

// Request is one task+agent pairing to execute.
type Request struct {
	Task     models.Task `json:"task"`
	AgentTag string      `json:"agent_tag"`
	// AgentDescription is the catalog description of AgentTag, if known.
	AgentDescription string             `json:"agent_description,omitempty"`
	ContextText      string             `json:"context"`
	Similarity       SimilarityMetadata `json:"similarity"`
}

// Response is what a runtime produced.
type Response struct {
	Kind    models.ResultKind `json:"kind"`
	Content string            `json:"content"`
	Raw     string            `json:"raw,omitempty"`
}

// Runtime executes task+agent pairings. Latency is unbounded from the
// caller's point of view, so implementations must honour ctx.
type Runtime interface {
	Execute(ctx context.Context, req Request) (Response, error)
}

// DispatchError reports a runtime failure.
type DispatchError struct {
	AgentTag string
	Err      error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch to %s: %v", e.AgentTag, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// Is matches pipeerr.ErrExecutionDispatch.
func (e *DispatchError) Is(target error) bool {
	return target == pipeerr.ErrExecutionDispatch
}

// FormatContent renders the header shared by every runtime followed by body.
func FormatContent(req Request, body string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", req.Task.Title)
	fmt.Fprintf(&sb, "**Agent:** %s", req.AgentTag)
	if req.Similarity.Confidence > 0 {
		fmt.Fprintf(&sb, " (confidence %.0f%%)", req.Similarity.Confidence*100)
	}
	sb.WriteString("\n\n")
	sb.WriteString(strings.TrimSpace(body))
	sb.WriteString("\n")
	return sb.String()
}
