package execution

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	iexec "github.com/backpack455/hack-mit-sub000/internal/exec"
	"github.com/backpack455/hack-mit-sub000/internal/llm"
	"github.com/backpack455/hack-mit-sub000/pkg/models"
)

// CommandConfig configures a CommandRuntime.
type CommandConfig struct {
	Name string
	Args []string
	Dir  string
	Env  []string
}

// CommandRuntime runs an external program per dispatch. The JSON-encoded
// Request is written to stdin. Stdout may be a JSON Response or plain text.
type CommandRuntime struct {
	runner iexec.CommandRunner
	cfg    CommandConfig
	logger *zap.Logger
}

// NewCommandRuntime creates a runtime that shells out through runner.
func NewCommandRuntime(runner iexec.CommandRunner, cfg CommandConfig, logger *zap.Logger) *CommandRuntime {
	if runner == nil {
		runner = iexec.NewRunner()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandRuntime{runner: runner, cfg: cfg, logger: logger}
}

// Execute implements Runtime.
func (r *CommandRuntime) Execute(ctx context.Context, req Request) (Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return Response{}, &DispatchError{AgentTag: req.AgentTag, Err: fmt.Errorf("encode request: %w", err)}
	}

	env := append([]string{"AGENTPIPE_AGENT=" + req.AgentTag}, r.cfg.Env...)
	out, err := r.runner.Run(ctx, iexec.Invocation{
		Name:  r.cfg.Name,
		Args:  r.cfg.Args,
		Dir:   r.cfg.Dir,
		Env:   env,
		Stdin: payload,
	})
	if err != nil {
		stderr := strings.TrimSpace(string(out.Stderr))
		if stderr != "" {
			err = fmt.Errorf("%w: %s", err, llm.Truncate(stderr, 300))
		}
		r.logger.Debug("command runtime failed",
			zap.String("agent", req.AgentTag),
			zap.Int("exit_code", out.ExitCode),
			zap.Error(err))
		return Response{}, &DispatchError{AgentTag: req.AgentTag, Err: err}
	}

	return parseOutput(req, string(out.Stdout))
}

// parseOutput accepts either a JSON Response or plain text.
func parseOutput(req Request, stdout string) (Response, error) {
	text := strings.TrimSpace(stdout)
	if text == "" {
		return Response{}, &DispatchError{AgentTag: req.AgentTag, Err: errors.New("empty command output")}
	}

	if strings.HasPrefix(text, "{") {
		var resp Response
		if err := json.Unmarshal([]byte(text), &resp); err == nil && (resp.Content != "" || resp.Kind != "") {
			if !resp.Kind.Valid() {
				resp.Kind = models.ResultSuccess
			}
			if resp.Raw == "" {
				resp.Raw = resp.Content
			}
			if resp.Kind == models.ResultSuccess {
				resp.Content = FormatContent(req, resp.Content)
			}
			return resp, nil
		}
	}

	return Response{
		Kind:    models.ResultSuccess,
		Content: FormatContent(req, text),
		Raw:     text,
	}, nil
}

var _ Runtime = (*CommandRuntime)(nil)
