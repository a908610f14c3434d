package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// Completer turns a system prompt and user prompt into model text.
// Proposers and runtimes depend on this instead of the SDK.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Runner provides simple text-in/text-out Claude API calls.
type Runner struct {
	client    *Client
	maxTokens int64
}

// NewRunner creates a new API runner.
func NewRunner(client *Client) *Runner {
	return &Runner{client: client, maxTokens: 4096}
}

// WithMaxTokens returns a copy of the runner using a different output limit.
func (r *Runner) WithMaxTokens(n int64) *Runner {
	cp := *r
	if n > 0 {
		cp.maxTokens = n
	}
	return &cp
}

// Complete executes a prompt with an optional system message.
func (r *Runner) Complete(ctx context.Context, system, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     r.client.Model(),
		MaxTokens: r.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := r.client.inner.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("API call failed: %w", err)
	}

	r.client.Tracker().Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var result strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			result.WriteString(variant.Text)
		}
	}

	return result.String(), nil
}

// IsRetryable reports whether an API error is worth retrying: rate limits,
// server errors and transport failures. Client errors such as bad requests or
// authentication failures are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		code := apiErr.StatusCode
		return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= 500
	}
	return true
}

// ExtractJSON finds the outermost JSON object or array in a model response
// and unmarshals it into target.
func ExtractJSON(response string, target interface{}) error {
	start := strings.IndexAny(response, "{[")
	if start == -1 {
		return fmt.Errorf("no valid JSON found in response: %s", Truncate(response, 200))
	}

	closer := "}"
	if response[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(response, closer)
	if end <= start {
		return fmt.Errorf("no valid JSON found in response: %s", Truncate(response, 200))
	}

	jsonStr := response[start : end+1]
	if err := json.Unmarshal([]byte(jsonStr), target); err != nil {
		return fmt.Errorf("parse JSON: %w (response: %s)", err, Truncate(jsonStr, 200))
	}
	return nil
}

// Truncate shortens s to maxLen bytes, appending an ellipsis when cut.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

var _ Completer = (*Runner)(nil)
