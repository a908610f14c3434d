// Package proposer turns a context document into candidate tasks.
package proposer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/backpack455/hack-mit-sub000/internal/llm"
	"github.com/backpack455/hack-mit-sub000/internal/pipeerr"
	"github.com/backpack455/hack-mit-sub000/internal/retry"
	"github.com/backpack455/hack-mit-sub000/internal/scoring"
	"github.com/backpack455/hack-mit-sub000/pkg/models"
)

// DefaultMaxTasks bounds how many tasks one proposal may return.
const DefaultMaxTasks = 5

// Proposer turns context text into a small set of candidate tasks.
type Proposer interface {
	Propose(ctx context.Context, contextText string) ([]models.Task, error)
}

// ProposalError reports a failed or unusable proposal.
type ProposalError struct {
	Reason string
	Err    error
}

func (e *ProposalError) Error() string {
	if e.Err == nil {
		return "task proposal: " + e.Reason
	}
	return fmt.Sprintf("task proposal: %s: %v", e.Reason, e.Err)
}

func (e *ProposalError) Unwrap() error { return e.Err }

// Is matches pipeerr.ErrTaskProposal.
func (e *ProposalError) Is(target error) bool {
	return target == pipeerr.ErrTaskProposal
}

// proposedTask is the JSON structure returned by the model for a single task.
type proposedTask struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Priority    string   `json:"priority"`
	Keywords    []string `json:"keywords"`
}

// AnthropicProposer asks a Claude model for tasks.
type AnthropicProposer struct {
	completer llm.Completer
	maxTasks  int
	logger    *zap.Logger
}

// NewAnthropicProposer creates a proposer backed by the given completer.
func NewAnthropicProposer(completer llm.Completer, maxTasks int, logger *zap.Logger) *AnthropicProposer {
	if maxTasks <= 0 {
		maxTasks = DefaultMaxTasks
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnthropicProposer{completer: completer, maxTasks: maxTasks, logger: logger}
}

// Propose sends the context to the model and parses the returned tasks.
// API errors that cannot succeed on retry are marked retry.Permanent.
func (p *AnthropicProposer) Propose(ctx context.Context, contextText string) ([]models.Task, error) {
	if strings.TrimSpace(contextText) == "" {
		return nil, retry.Permanent(&ProposalError{Reason: "empty context"})
	}

	prompt := fmt.Sprintf(proposalPrompt, p.maxTasks, contextText)
	response, err := p.completer.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		perr := &ProposalError{Reason: "model call failed", Err: err}
		if !llm.IsRetryable(err) {
			return nil, retry.Permanent(perr)
		}
		return nil, perr
	}

	tasks, err := ParseResponse(response, p.maxTasks)
	if err != nil {
		p.logger.Debug("unusable proposal response",
			zap.String("response", llm.Truncate(response, 500)),
			zap.Error(err))
		return nil, err
	}

	p.logger.Debug("tasks proposed", zap.Int("count", len(tasks)))
	return tasks, nil
}

// ParseResponse extracts and normalizes tasks from a model response.
// Tasks without a title are dropped, priorities are normalized, missing
// keywords are derived from the title and description, and the result is
// truncated to maxTasks. Zero usable tasks is an error.
func ParseResponse(response string, maxTasks int) ([]models.Task, error) {
	var raw []proposedTask
	if err := llm.ExtractJSON(response, &raw); err != nil {
		return nil, &ProposalError{Reason: "malformed response", Err: err}
	}

	seen := make(map[string]struct{}, len(raw))
	tasks := make([]models.Task, 0, len(raw))
	for _, pt := range raw {
		title := strings.TrimSpace(pt.Title)
		if title == "" {
			continue
		}
		key := strings.ToLower(title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		task := models.Task{
			Title:       title,
			Description: strings.TrimSpace(pt.Description),
			Category:    strings.ToLower(strings.TrimSpace(pt.Category)),
			Priority:    models.ParsePriority(pt.Priority),
			Keywords:    normalizeKeywords(pt.Keywords),
		}
		if len(task.Keywords) == 0 {
			task.Keywords = scoring.ExtractKeywords(task.Text())
		}
		tasks = append(tasks, task)

		if maxTasks > 0 && len(tasks) == maxTasks {
			break
		}
	}

	if len(tasks) == 0 {
		return nil, &ProposalError{Reason: "no usable tasks"}
	}
	return tasks, nil
}

func normalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	for _, kw := range in {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// StaticProposer returns a fixed task list. Err, when set, is returned instead.
type StaticProposer struct {
	Tasks []models.Task
	Err   error
}

// Propose returns a copy of the configured tasks.
func (s StaticProposer) Propose(ctx context.Context, _ string) ([]models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}
	if len(s.Tasks) == 0 {
		return nil, &ProposalError{Reason: "no usable tasks"}
	}
	out := make([]models.Task, len(s.Tasks))
	copy(out, s.Tasks)
	return out, nil
}

// IsProposalError reports whether err came from a proposer.
func IsProposalError(err error) bool {
	return errors.Is(err, pipeerr.ErrTaskProposal)
}

var (
	_ Proposer = (*AnthropicProposer)(nil)
	_ Proposer = StaticProposer{}
)
