package agents

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/goagent/pkg/llms"
	"github.com/effective-security/goagent/tools"
	"github.com/effective-security/xlog"
)

//go:generate mockgen -destination=../mocks/mockllms/llm_mock.gen.go -package mockllms github.com/effective-security/goagent/pkg/llms Model

var logger = xlog.NewPackageLogger("github.com/effective-security/goagent", "agents")

// ErrMaxIterations is returned when the model keeps requesting tool calls
// and never converges to a final text answer within the configured limit.
// It is always surfaced, never truncated to a partial answer.
var ErrMaxIterations = errors.New("agents: max iterations reached without a final answer")

// IAgent is the read-only surface of an agent, used in callbacks and when
// one agent is described in the prompt of another.
type IAgent interface {
	// Name returns the name of the Agent.
	Name() string
	// Description returns the description of the Agent.
	// Should not exceed LLM model limit.
	Description() string
}

// Callback receives agent lifecycle events.
type Callback interface {
	tools.Callback
	OnAgentStart(ctx context.Context, agent IAgent, input string)
	OnAgentEnd(ctx context.Context, agent IAgent, input string, resp *Response)
	OnAgentError(ctx context.Context, agent IAgent, input string, err error)
	OnAgentLLMCallStart(ctx context.Context, agent IAgent, llm llms.Model, messages []llms.Message)
	OnAgentLLMCallEnd(ctx context.Context, agent IAgent, llm llms.Model, resp *llms.ChatResponse)
}

// Response is the terminal output of one Invoke.
type Response struct {
	// Text is the final textual answer. Always populated on success,
	// except in the single-shot case where the model requested a tool call.
	Text string
	// ToolCall is the unexecuted tool call returned by a single-shot agent
	// constructed without tools, when the model requested one anyway.
	ToolCall *llms.ToolCall
	// IsToolCall reports whether ToolCall is populated.
	IsToolCall bool
	// Messages is the full conversation of the run, in causal order.
	Messages []llms.Message
	// Usage is the accumulated token accounting across all model calls.
	Usage llms.Usage
}
