// Package callbacks provides ready-made agents.Callback implementations:
// a writer tracer, a package logger, a fanout, and a scratchpad collecting
// per-run statistics.
package callbacks

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/effective-security/goagent/agents"
	"github.com/effective-security/goagent/pkg/llms"
	"github.com/effective-security/goagent/tools"
	"github.com/effective-security/xlog"
)

// ensure that the callbacks implement the correct interfaces
var (
	_ agents.Callback = (*Noop)(nil)
	_ tools.Callback  = (*Noop)(nil)
	_ agents.Callback = (*Printer)(nil)
	_ tools.Callback  = (*Printer)(nil)
	_ agents.Callback = (*PackageLogger)(nil)
	_ tools.Callback  = (*PackageLogger)(nil)
	_ agents.Callback = (*Fanout)(nil)
	_ tools.Callback  = (*Fanout)(nil)
)

// Mode defines the mode for callback printing
type Mode int

const (
	// ModeDefault is the default mode for callback printing
	ModeDefault Mode = iota
	// ModeVerbose is the verbose mode for callback printing
	ModeVerbose
)

// Fanout is a callback handler that forwards the events to multiple callbacks.
type Fanout struct {
	callbacks []agents.Callback
}

func NewFanout(callbacks ...agents.Callback) *Fanout {
	return &Fanout{callbacks: callbacks}
}

func (l *Fanout) Add(callback agents.Callback) {
	l.callbacks = append(l.callbacks, callback)
}

func (l *Fanout) OnAgentStart(ctx context.Context, agent agents.IAgent, input string) {
	for _, callback := range l.callbacks {
		callback.OnAgentStart(ctx, agent, input)
	}
}

func (l *Fanout) OnAgentEnd(ctx context.Context, agent agents.IAgent, input string, resp *agents.Response) {
	for _, callback := range l.callbacks {
		callback.OnAgentEnd(ctx, agent, input, resp)
	}
}

func (l *Fanout) OnAgentError(ctx context.Context, agent agents.IAgent, input string, err error) {
	for _, callback := range l.callbacks {
		callback.OnAgentError(ctx, agent, input, err)
	}
}

func (l *Fanout) OnAgentLLMCallStart(ctx context.Context, agent agents.IAgent, llm llms.Model, messages []llms.Message) {
	for _, callback := range l.callbacks {
		callback.OnAgentLLMCallStart(ctx, agent, llm, messages)
	}
}

func (l *Fanout) OnAgentLLMCallEnd(ctx context.Context, agent agents.IAgent, llm llms.Model, resp *llms.ChatResponse) {
	for _, callback := range l.callbacks {
		callback.OnAgentLLMCallEnd(ctx, agent, llm, resp)
	}
}

func (l *Fanout) OnToolStart(ctx context.Context, tool tools.ITool, input string) {
	for _, callback := range l.callbacks {
		callback.OnToolStart(ctx, tool, input)
	}
}

func (l *Fanout) OnToolEnd(ctx context.Context, tool tools.ITool, input string, output string) {
	for _, callback := range l.callbacks {
		callback.OnToolEnd(ctx, tool, input, output)
	}
}

func (l *Fanout) OnToolError(ctx context.Context, tool tools.ITool, input string, err error) {
	for _, callback := range l.callbacks {
		callback.OnToolError(ctx, tool, input, err)
	}
}

// Noop does nothing.
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (l *Noop) OnAgentStart(ctx context.Context, agent agents.IAgent, input string) {}
func (l *Noop) OnAgentEnd(ctx context.Context, agent agents.IAgent, input string, resp *agents.Response) {
}
func (l *Noop) OnAgentError(ctx context.Context, agent agents.IAgent, input string, err error) {}
func (l *Noop) OnAgentLLMCallStart(ctx context.Context, agent agents.IAgent, llm llms.Model, messages []llms.Message) {
}
func (l *Noop) OnAgentLLMCallEnd(ctx context.Context, agent agents.IAgent, llm llms.Model, resp *llms.ChatResponse) {
}
func (l *Noop) OnToolStart(ctx context.Context, tool tools.ITool, input string)             {}
func (l *Noop) OnToolEnd(ctx context.Context, tool tools.ITool, input string, output string) {}
func (l *Noop) OnToolError(ctx context.Context, tool tools.ITool, input string, err error)   {}

// Printer is a callback handler that prints to the Writer.
type Printer struct {
	Out  io.Writer
	Mode Mode

	lock sync.Mutex
}

func NewPrinter(out io.Writer, mode Mode) *Printer {
	return &Printer{Out: out, Mode: mode}
}

func (l *Printer) OnAgentStart(ctx context.Context, agent agents.IAgent, input string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Agent Start: %s\n", agent.Name())
	fmt.Fprintf(l.Out, "Input: %s\n", input)
}

func (l *Printer) OnAgentEnd(ctx context.Context, agent agents.IAgent, input string, resp *agents.Response) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Agent End: %s\n", agent.Name())
	if l.Mode == ModeVerbose && resp.Text != "" {
		fmt.Fprintln(l.Out, resp.Text)
	}
}

func (l *Printer) OnAgentError(ctx context.Context, agent agents.IAgent, input string, err error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Agent Error: %s: %s\n", agent.Name(), err.Error())
}

func (l *Printer) OnAgentLLMCallStart(ctx context.Context, agent agents.IAgent, llm llms.Model, messages []llms.Message) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Agent LLM Call: %s: %s model, %d messages\n", agent.Name(), llm.GetName(), len(messages))
}

func (l *Printer) OnAgentLLMCallEnd(ctx context.Context, agent agents.IAgent, llm llms.Model, resp *llms.ChatResponse) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Agent LLM Call End: %s: %s model, %d tool calls\n", agent.Name(), llm.GetName(), len(resp.ToolCalls))
}

func (l *Printer) OnToolStart(ctx context.Context, tool tools.ITool, input string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Tool Start: %s\n", tool.Name())
	fmt.Fprintf(l.Out, "Input: %s\n", input)
}

func (l *Printer) OnToolEnd(ctx context.Context, tool tools.ITool, input string, output string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Tool End: %s\n", tool.Name())
	if l.Mode == ModeVerbose {
		fmt.Fprintf(l.Out, "Output: %s\n", output)
	}
}

func (l *Printer) OnToolError(ctx context.Context, tool tools.ITool, input string, err error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Tool Error: %s: %s\n", tool.Name(), err.Error())
}

// PackageLogger is a callback handler that prints to the logger.
type PackageLogger struct {
	logger *xlog.PackageLogger
}

func NewPackageLogger(logger *xlog.PackageLogger) *PackageLogger {
	return &PackageLogger{logger: logger}
}

func (l *PackageLogger) OnAgentStart(ctx context.Context, agent agents.IAgent, input string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "agent_start",
		"agent", agent.Name(),
		"input", input,
	)
}

func (l *PackageLogger) OnAgentEnd(ctx context.Context, agent agents.IAgent, input string, resp *agents.Response) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "agent_end",
		"agent", agent.Name(),
		"is_tool_call", resp.IsToolCall,
		"total_tokens", resp.Usage.TotalTokens,
	)
}

func (l *PackageLogger) OnAgentError(ctx context.Context, agent agents.IAgent, input string, err error) {
	l.logger.ContextKV(ctx, xlog.ERROR,
		"event", "agent_error",
		"agent", agent.Name(),
		"err", err.Error(),
	)
}

func (l *PackageLogger) OnAgentLLMCallStart(ctx context.Context, agent agents.IAgent, llm llms.Model, messages []llms.Message) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "agent_llm_call_start",
		"agent", agent.Name(),
		"model", llm.GetName(),
		"messages", len(messages),
	)
}

func (l *PackageLogger) OnAgentLLMCallEnd(ctx context.Context, agent agents.IAgent, llm llms.Model, resp *llms.ChatResponse) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "agent_llm_call_end",
		"agent", agent.Name(),
		"model", llm.GetName(),
		"tool_calls", len(resp.ToolCalls),
		"total_tokens", resp.Usage.TotalTokens,
	)
}

func (l *PackageLogger) OnToolStart(ctx context.Context, tool tools.ITool, input string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_start",
		"tool", tool.Name(),
		"input", input,
	)
}

func (l *PackageLogger) OnToolEnd(ctx context.Context, tool tools.ITool, input string, output string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_end",
		"tool", tool.Name(),
		"output", output,
	)
}

func (l *PackageLogger) OnToolError(ctx context.Context, tool tools.ITool, input string, err error) {
	l.logger.ContextKV(ctx, xlog.ERROR,
		"event", "tool_error",
		"tool", tool.Name(),
		"err", err.Error(),
	)
}
