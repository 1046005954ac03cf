package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/goagent/pkg/llms"
	"github.com/effective-security/goagent/pkg/metricskey"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/goagent", "tools")

// Executor dispatches model-issued tool calls to registered tools. Every
// failure mode, unknown tool, invalid arguments, a tool error or panic, is
// contained into an error-flagged ToolResult; nothing escapes the boundary.
type Executor struct {
	registry *Registry
	callback Callback
}

// NewExecutor creates an executor over the given registry.
func NewExecutor(registry *Registry) *Executor {
	return &Executor{
		registry: registry,
	}
}

// WithCallback sets the tool execution callback.
func (e *Executor) WithCallback(cb Callback) *Executor {
	e.callback = cb
	return e
}

// Execute runs one tool call and returns its result.
func (e *Executor) Execute(ctx context.Context, call llms.ToolCall) llms.ToolResult {
	tool := e.registry.Find(call.Name)
	if tool == nil {
		metricskey.StatsToolCallsNotFound.IncrCounter(1, call.Name)
		availableTools := strings.Join(e.registry.Names(), ", ")
		logger.ContextKV(ctx, xlog.WARNING,
			"status", "tool_not_found",
			"tool", call.Name,
			"available_tools", availableTools,
		)
		return llms.ToolResult{
			CallID:  call.ID,
			Name:    call.Name,
			Content: fmt.Sprintf("unknown tool: %s. Please check the tool name and try again with exact match. Available tools: %s", call.Name, availableTools),
			IsError: true,
		}
	}

	if e.callback != nil {
		e.callback.OnToolStart(ctx, tool, call.Arguments)
	}

	started := time.Now()
	res, err := safeCall(ctx, tool, call.Arguments)
	metricskey.PerfToolCall.MeasureSince(started, call.Name)

	if err != nil {
		metricskey.StatsToolCallsFailed.IncrCounter(1, call.Name)
		if e.callback != nil {
			e.callback.OnToolError(ctx, tool, call.Arguments, err)
		}
		logger.ContextKV(ctx, xlog.WARNING,
			"status", "tool_call_failed",
			"tool", call.Name,
			"err", err.Error(),
		)
		return llms.ToolResult{
			CallID:  call.ID,
			Name:    call.Name,
			Content: fmt.Sprintf("Tool call failed: %s", err.Error()),
			IsError: true,
		}
	}

	metricskey.StatsToolCallsSucceeded.IncrCounter(1, call.Name)
	if e.callback != nil {
		e.callback.OnToolEnd(ctx, tool, call.Arguments, res)
	}
	return llms.ToolResult{
		CallID:  call.ID,
		Name:    call.Name,
		Content: res,
	}
}

// ExecuteAll runs the tool calls of one model reply concurrently. The calls
// are independent and the provider declares no ordering among them, but the
// results are reassembled in call order so conversation history is
// reproducible regardless of completion order.
func (e *Executor) ExecuteAll(ctx context.Context, calls []llms.ToolCall) []llms.ToolResult {
	if len(calls) == 0 {
		return nil
	}
	if len(calls) == 1 {
		return []llms.ToolResult{e.Execute(ctx, calls[0])}
	}

	results := make([]llms.ToolResult, len(calls))
	var wg sync.WaitGroup
	wg.Add(len(calls))
	for i, call := range calls {
		go func(index int, tc llms.ToolCall) {
			defer wg.Done()
			results[index] = e.Execute(ctx, tc)
		}(i, call)
	}
	wg.Wait()
	return results
}

// safeCall invokes the tool, converting a panic in tool code into an error.
func safeCall(ctx context.Context, tool ITool, input string) (res string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("tool %s panicked: %v", tool.Name(), r)
		}
	}()
	return tool.Call(ctx, input)
}
