package callbacks

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/effective-security/goagent/agents"
	"github.com/effective-security/goagent/chatctx"
	"github.com/effective-security/goagent/llmutils"
	"github.com/effective-security/goagent/pkg/llms"
	"github.com/effective-security/goagent/tools"
)

// ensure Scratchpad implements agents.Callback
var _ agents.Callback = (*Scratchpad)(nil)

var TimeNowFn = time.Now

// RunStats accumulates counters over one agent run.
type RunStats struct {
	ChatID string

	Duration            time.Duration
	TotalMessages       uint32
	LLMBytesOut         uint64
	LLMBytesIn          uint64
	LLMInputTokens      uint64
	LLMOutputTokens     uint64
	LLMTotalTokens      uint64
	AgentCalls          uint32
	AgentCallsSucceeded uint32
	AgentCallsFailed    uint32
	LLMCalls            uint32
	ToolsCalls          uint32
	ToolsCallsSucceeded uint32
	ToolsCallsFailed    uint32
}

// Scratchpad collects a per-run trace and statistics, keyed by the chat id
// carried in context.
type Scratchpad struct {
	runs map[string]*run
	mode Mode
	lock sync.Mutex
}

func NewScratchpad(mode Mode) *Scratchpad {
	return &Scratchpad{
		runs: make(map[string]*run),
		mode: mode,
	}
}

func (l *Scratchpad) StartRun(ctx context.Context) {
	chatID, err := chatctx.ChatID(ctx)
	if err != nil {
		return
	}

	l.lock.Lock()
	defer l.lock.Unlock()

	l.runs[chatID] = &run{
		stats: RunStats{
			ChatID: chatID,
		},
		chatID:  chatID,
		started: TimeNowFn(),
	}
	l.runs[chatID].print("*** Run Started ***")
}

// EndRun returns the statistics and the trace of the run, and forgets it.
func (l *Scratchpad) EndRun(ctx context.Context) (*RunStats, []byte) {
	run := l.getRun(ctx)
	if run == nil {
		return nil, nil
	}

	stats := run.stats
	stats.Duration = TimeNowFn().Sub(run.started)

	run.print(fmt.Sprintf("Agent calls: %d, Failed: %d",
		stats.AgentCalls,
		stats.AgentCallsFailed,
	))
	run.print(fmt.Sprintf("Tool calls: %d, Failed: %d",
		stats.ToolsCalls,
		stats.ToolsCallsFailed,
	))
	run.print(fmt.Sprintf("LLM calls: %d, Messages: %d, Bytes Out: %d, Bytes In: %d, Input Tokens: %d, Output Tokens: %d, Total Tokens: %d",
		stats.LLMCalls,
		stats.TotalMessages,
		stats.LLMBytesOut,
		stats.LLMBytesIn,
		stats.LLMInputTokens,
		stats.LLMOutputTokens,
		stats.LLMTotalTokens,
	))
	run.print(fmt.Sprintf("*** Run Ended. Duration: %s ***", stats.Duration))

	l.lock.Lock()
	delete(l.runs, run.chatID)
	l.lock.Unlock()

	return &stats, run.w.Bytes()
}

func (l *Scratchpad) getRun(ctx context.Context) *run {
	chatID, err := chatctx.ChatID(ctx)
	if err != nil {
		return nil
	}

	l.lock.Lock()
	defer l.lock.Unlock()
	return l.runs[chatID]
}

func (l *Scratchpad) OnAgentStart(ctx context.Context, agent agents.IAgent, input string) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}
	atomic.AddUint32(&run.stats.AgentCalls, 1)
	run.print(agent.Name(), "*** Agent Start ***")
	run.print(agent.Name(), "Input:", input)
}

func (l *Scratchpad) OnAgentEnd(ctx context.Context, agent agents.IAgent, input string, resp *agents.Response) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}
	atomic.AddUint32(&run.stats.AgentCallsSucceeded, 1)
	if l.mode == ModeVerbose && resp.Text != "" {
		run.print(agent.Name(), "Output:", resp.Text)
	}
	run.print(agent.Name(), "*** Agent End ***")
}

func (l *Scratchpad) OnAgentError(ctx context.Context, agent agents.IAgent, input string, err error) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}
	atomic.AddUint32(&run.stats.AgentCallsFailed, 1)
	run.print(agent.Name(), "*** Error ***", err.Error())
}

func (l *Scratchpad) OnAgentLLMCallStart(ctx context.Context, agent agents.IAgent, llm llms.Model, messages []llms.Message) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}

	atomic.AddUint64(&run.stats.LLMBytesOut, llmutils.CountMessagesContentSize(messages))
	atomic.AddUint32(&run.stats.LLMCalls, 1)
	count := uint32(len(messages))
	atomic.AddUint32(&run.stats.TotalMessages, count)

	run.print(agent.Name(), "*** LLM Call ***", fmt.Sprintf("%s model, %d messages", llm.GetName(), count))
}

func (l *Scratchpad) OnAgentLLMCallEnd(ctx context.Context, agent agents.IAgent, llm llms.Model, resp *llms.ChatResponse) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}

	atomic.AddUint64(&run.stats.LLMBytesIn, llmutils.CountResponseContentSize(resp))
	atomic.AddUint64(&run.stats.LLMInputTokens, uint64(resp.Usage.InputTokens))
	atomic.AddUint64(&run.stats.LLMOutputTokens, uint64(resp.Usage.OutputTokens))
	atomic.AddUint64(&run.stats.LLMTotalTokens, uint64(resp.Usage.TotalTokens))

	run.print(agent.Name(), "*** LLM Call End ***",
		fmt.Sprintf("%s model, %d input tokens, %d output tokens, %d total tokens",
			llm.GetName(), resp.Usage.InputTokens, resp.Usage.OutputTokens, resp.Usage.TotalTokens))
}

func (l *Scratchpad) OnToolStart(ctx context.Context, tool tools.ITool, input string) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}
	atomic.AddUint32(&run.stats.ToolsCalls, 1)
	run.print(tool.Name(), "*** Tool Start ***")
	run.print(tool.Name(), "Input:", input)
}

func (l *Scratchpad) OnToolEnd(ctx context.Context, tool tools.ITool, input string, output string) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}
	atomic.AddUint32(&run.stats.ToolsCallsSucceeded, 1)
	if l.mode == ModeVerbose {
		run.print(tool.Name(), "Output:", output)
	}
	run.print(tool.Name(), "*** Tool End ***")
}

func (l *Scratchpad) OnToolError(ctx context.Context, tool tools.ITool, input string, err error) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}
	atomic.AddUint32(&run.stats.ToolsCallsFailed, 1)
	run.print(tool.Name(), "*** Tool Error ***", err.Error())
}

type run struct {
	chatID  string
	w       bytes.Buffer
	started time.Time
	lock    sync.Mutex
	stats   RunStats
}

// print writes the entries to the run's output.
// The entries are written in the following format:
// timestamp chatID entry entry\n
func (r *run) print(entries ...string) {
	r.lock.Lock()
	defer r.lock.Unlock()

	now := TimeNowFn()
	ts := now.Format("2006-01-02 15:04:05")

	_, _ = r.w.WriteString(ts)
	_, _ = r.w.WriteString(" ")
	_, _ = r.w.WriteString(r.chatID)
	_, _ = r.w.WriteString(" ")

	for i, entry := range entries {
		if i > 0 {
			_, _ = r.w.WriteString(" ")
		}
		_, _ = r.w.WriteString(entry)
	}
	_, _ = r.w.WriteString("\n")
}
