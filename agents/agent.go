package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/goagent/llmutils"
	"github.com/effective-security/goagent/pkg/llms"
	"github.com/effective-security/goagent/pkg/metricskey"
	"github.com/effective-security/goagent/tools"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
)

// Agent drives the conversation between a model and registered tools.
//
// The execution mode is fixed at construction: an agent built with tools
// auto-executes requested tool calls and loops until the model produces a
// final text answer or the iteration limit is reached; an agent built
// without tools is single-shot and returns a spontaneous tool call
// unexecuted.
//
// An Agent is safe for concurrent Invoke calls over independent
// conversations: the registry is read-only and every run owns its own
// message history.
type Agent struct {
	llm      llms.Model
	registry *tools.Registry
	executor *tools.Executor

	cfg         *Config
	name        string
	description string
}

var _ IAgent = (*Agent)(nil)

// New creates an Agent over the given model.
func New(llm llms.Model, options ...Option) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("agents: model is required")
	}
	cfg := NewConfig(options...)

	registry, err := tools.NewRegistry(cfg.Tools...)
	if err != nil {
		return nil, err
	}
	if registry.Len() > 0 && !llm.GetProviderType().Supports(llms.CapabilityFunctionCalling) {
		return nil, errors.Newf("agents: provider %s does not support function calling", llm.GetProviderType())
	}

	executor := tools.NewExecutor(registry)
	if cfg.CallbackHandler != nil {
		executor = executor.WithCallback(cfg.CallbackHandler)
	}

	return &Agent{
		llm:         llm,
		registry:    registry,
		executor:    executor,
		cfg:         cfg,
		name:        "Agent",
		description: "An AI agent that can invoke tools to answer questions.",
	}, nil
}

// WithName sets the name of the Agent, when used in a prompt of other Agents or LLMs.
func (a *Agent) WithName(name string) *Agent {
	a.name = name
	return a
}

// WithDescription sets the description of the Agent.
func (a *Agent) WithDescription(description string) *Agent {
	a.description = description
	return a
}

// Name returns the name of the Agent.
func (a *Agent) Name() string {
	return a.name
}

// Description returns the description of the Agent.
func (a *Agent) Description() string {
	return a.description
}

// Tools returns the registered tools.
func (a *Agent) Tools() []string {
	return a.registry.Names()
}

// AutoExecute reports whether the agent runs the tool-execution loop.
func (a *Agent) AutoExecute() bool {
	return a.registry.Len() > 0
}

// Invoke sends the prompt to the model and returns the terminal response.
// With tools configured it runs the full auto-execution loop; without tools
// it is a single model call.
func (a *Agent) Invoke(ctx context.Context, input string, options ...Option) (*Response, error) {
	started := time.Now()
	defer metricskey.PerfAgentRun.MeasureSince(started, a.name)

	cfg := a.cfg.Apply(options...)
	callback := cfg.CallbackHandler
	if callback != nil {
		callback.OnAgentStart(ctx, a, input)
	}

	resp, err := a.run(ctx, cfg, input)
	if err != nil {
		metricskey.StatsAgentCallsFailed.IncrCounter(1, a.name)
		if callback != nil {
			callback.OnAgentError(ctx, a, input, err)
		}
		return nil, err
	}
	metricskey.StatsAgentCallsSucceeded.IncrCounter(1, a.name)
	if callback != nil {
		callback.OnAgentEnd(ctx, a, input, resp)
	}
	return resp, nil
}

// Run invokes the agent and returns only the final text answer.
func (a *Agent) Run(ctx context.Context, input string, options ...Option) (string, error) {
	resp, err := a.Invoke(ctx, input, options...)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// run executes the main logic: one model call in single-shot mode, or the
// model/tool cycle in auto-execution mode.
func (a *Agent) run(ctx context.Context, cfg *Config, input string) (*Response, error) {
	history := a.startHistory(ctx, cfg, input)

	callOpts := cfg.CallOptions
	if a.registry.Len() > 0 {
		callOpts = append(callOpts, llms.WithTools(a.registry.Specs()))
	}

	var usage llms.Usage
	maxIter := cfg.MaxIterations
	if !a.AutoExecute() {
		maxIter = 1
	}

	var resp *llms.ChatResponse
	for iter := 0; iter < maxIter; iter++ {
		// cancellation is honored between iterations
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "agents: run canceled")
		}
		if len(history) >= cfg.MaxMessages {
			return nil, errors.Newf("agent %s: the messages count exceeded limit", a.name)
		}
		if llmutils.CountMessagesContentSize(history) > cfg.MaxContentSize {
			return nil, errors.Newf("agent %s: the content size exceeded limit", a.name)
		}

		var err error
		resp, err = a.callModel(ctx, cfg, history, callOpts)
		if err != nil {
			return nil, err
		}
		usage.Add(resp.Usage)

		if !resp.HasToolCalls() {
			// terminal: text-only reply
			history = append(history, llms.AssistantMessage(resp.Content))
			a.saveHistory(ctx, cfg, input, resp.Content)
			return &Response{
				Text:     resp.Content,
				Messages: history,
				Usage:    usage,
			}, nil
		}

		if !a.AutoExecute() {
			// Single-shot agent: the model asked for a tool anyway.
			// Expose the call without executing it.
			calls := synthesizeCallIDs(resp.ToolCalls)
			history = append(history, llms.Message{
				Role:      llms.RoleAssistant,
				Content:   resp.Content,
				ToolCalls: calls,
			})
			tc := calls[0]
			return &Response{
				Text:       resp.Content,
				ToolCall:   &tc,
				IsToolCall: true,
				Messages:   history,
				Usage:      usage,
			}, nil
		}

		calls := synthesizeCallIDs(resp.ToolCalls)
		history = append(history, llms.Message{
			Role:      llms.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: calls,
		})

		logger.ContextKV(ctx, xlog.DEBUG,
			"agent", a.name,
			"status", "dispatching_tools",
			"iteration", iter+1,
			"tool_calls", len(calls),
		)

		// Each requested call is executed exactly once; the results come
		// back tagged by call id, in call order, before the next model call.
		results := a.executor.ExecuteAll(ctx, calls)
		history = append(history, llms.ToolResultMessage(results...))
	}

	metricskey.StatsAgentIterationsExceeded.IncrCounter(1, a.name)
	logger.ContextKV(ctx, xlog.WARNING,
		"agent", a.name,
		"status", "max_iterations",
		"limit", maxIter,
		"input", slices.StringUpto(input, 64),
	)
	return nil, errors.WithMessagef(ErrMaxIterations, "agent %s: limit %d", a.name, maxIter)
}

// startHistory builds the conversation head: system prompt, stored history,
// then the user turn.
func (a *Agent) startHistory(ctx context.Context, cfg *Config, input string) []llms.Message {
	var history []llms.Message

	sysPrompt := strings.TrimRight(cfg.SystemPrompt, "\n")
	if cfg.ExtraInstructions != "" {
		instr := strings.TrimRight(cfg.ExtraInstructions, "\n")
		if sysPrompt != "" {
			sysPrompt = fmt.Sprintf("%s\n\n%s", sysPrompt, instr)
		} else {
			sysPrompt = instr
		}
	}
	if sysPrompt != "" {
		history = append(history, llms.SystemMessage(sysPrompt))
	}

	if cfg.Store != nil {
		prev := cfg.Store.Messages(ctx)
		logger.ContextKV(ctx, xlog.DEBUG,
			"agent", a.name,
			"status", "loaded_message_history",
			"message_history", len(prev),
		)
		history = append(history, prev...)
	}

	if input != "" {
		history = append(history, llms.UserMessage(input))
	}
	return history
}

// saveHistory persists the user turn and the final answer.
func (a *Agent) saveHistory(ctx context.Context, cfg *Config, input, result string) {
	if cfg.Store == nil || cfg.SkipMessageHistory {
		return
	}
	err := cfg.Store.Add(ctx, llms.UserMessage(input), llms.AssistantMessage(result))
	if err != nil {
		logger.ContextKV(ctx, xlog.WARNING,
			"agent", a.name,
			"status", "failed_to_add_message_history",
			"err", err.Error(),
		)
		return
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"agent", a.name,
		"status", "added_message_history",
		"human", slices.StringUpto(input, 64),
		"ai", slices.StringUpto(result, 64),
	)
}

func (a *Agent) callModel(ctx context.Context, cfg *Config, history []llms.Message, callOpts []llms.CallOption) (*llms.ChatResponse, error) {
	modelName := a.llm.GetName()

	if cfg.CallbackHandler != nil {
		cfg.CallbackHandler.OnAgentLLMCallStart(ctx, a, a.llm, history)
	}

	bytesSent := llmutils.CountMessagesContentSize(history)
	metricskey.StatsLLMMessagesSent.IncrCounter(float64(len(history)), a.name, modelName)
	metricskey.StatsLLMBytesSent.IncrCounter(float64(bytesSent), a.name, modelName)

	started := time.Now()
	resp, err := a.llm.GenerateContent(ctx, history, callOpts...)
	metricskey.PerfLLMCall.MeasureSince(started, a.name, modelName)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to generate content from LLM")
	}

	if cfg.CallbackHandler != nil {
		cfg.CallbackHandler.OnAgentLLMCallEnd(ctx, a, a.llm, resp)
	}

	bytesReceived := llmutils.CountResponseContentSize(resp)
	metricskey.StatsLLMBytesReceived.IncrCounter(float64(bytesReceived), a.name, modelName)
	metricskey.StatsLLMBytesTotal.IncrCounter(float64(bytesSent+bytesReceived), a.name, modelName)
	metricskey.StatsLLMInputTokens.IncrCounter(float64(resp.Usage.InputTokens), a.name, modelName)
	metricskey.StatsLLMOutputTokens.IncrCounter(float64(resp.Usage.OutputTokens), a.name, modelName)
	metricskey.StatsLLMTotalTokens.IncrCounter(float64(resp.Usage.TotalTokens), a.name, modelName)

	return resp, nil
}

// synthesizeCallIDs assigns ids to tool calls from providers that do not
// supply one, scoped to the reply.
func synthesizeCallIDs(calls []llms.ToolCall) []llms.ToolCall {
	for i, call := range calls {
		if call.ID == "" {
			calls[i].ID = fmt.Sprintf("%s_%d", call.Name, i)
		}
	}
	return calls
}
