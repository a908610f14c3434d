package execution

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/backpack455/hack-mit-sub000/internal/llm"
	"github.com/backpack455/hack-mit-sub000/internal/retry"
	"github.com/backpack455/hack-mit-sub000/pkg/models"
)

const agentSystemPrompt = `You are the "%s" agent. Your capabilities: %s
Complete the task you are given using only those capabilities. Answer in concise markdown. If the task cannot be done with your capabilities, say so plainly.`

const agentTaskPrompt = `Task: %s
%s
Context:
%s`

// maxContextChars bounds how much context text is sent to the model.
const maxContextChars = 12000

// LLMRuntime runs a task by having the model role-play the selected agent.
type LLMRuntime struct {
	completer llm.Completer
	logger    *zap.Logger
}

// NewLLMRuntime creates a runtime backed by the given completer.
func NewLLMRuntime(completer llm.Completer, logger *zap.Logger) *LLMRuntime {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMRuntime{completer: completer, logger: logger}
}

// Execute implements Runtime.
func (r *LLMRuntime) Execute(ctx context.Context, req Request) (Response, error) {
	desc := req.AgentDescription
	if desc == "" {
		desc = "general assistance"
	}
	system := fmt.Sprintf(agentSystemPrompt, req.AgentTag, desc)

	details := req.Task.Description
	if len(req.Task.Keywords) > 0 {
		details = strings.TrimSpace(details + "\nKeywords: " + strings.Join(req.Task.Keywords, ", "))
	}
	prompt := fmt.Sprintf(agentTaskPrompt, req.Task.Title, details, llm.Truncate(req.ContextText, maxContextChars))

	text, err := r.completer.Complete(ctx, system, prompt)
	if err != nil {
		derr := &DispatchError{AgentTag: req.AgentTag, Err: err}
		if !llm.IsRetryable(err) {
			return Response{}, retry.Permanent(derr)
		}
		return Response{}, derr
	}
	if strings.TrimSpace(text) == "" {
		return Response{}, &DispatchError{AgentTag: req.AgentTag, Err: errors.New("empty model response")}
	}

	r.logger.Debug("llm runtime completed",
		zap.String("agent", req.AgentTag),
		zap.Int("chars", len(text)))

	return Response{
		Kind:    models.ResultSuccess,
		Content: FormatContent(req, text),
		Raw:     text,
	}, nil
}

var _ Runtime = (*LLMRuntime)(nil)
