package callbacks_test

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/goagent/agents"
	"github.com/effective-security/goagent/callbacks"
	"github.com/effective-security/goagent/chatctx"
	"github.com/effective-security/goagent/pkg/llms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Scratchpad(t *testing.T) {
	callbacks.TimeNowFn = func() time.Time {
		return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	}
	defer func() {
		callbacks.TimeNowFn = time.Now
	}()

	sp := callbacks.NewScratchpad(callbacks.ModeVerbose)
	ctx := chatctx.WithChatID(context.Background(), "chat1")
	agent := &fakeAgent{name: "researcher"}
	llm := newTestModel(t)
	tool := newTestTool(t)

	sp.StartRun(ctx)
	sp.OnAgentStart(ctx, agent, "what is the weather in Tokyo?")
	sp.OnAgentLLMCallStart(ctx, agent, llm, []llms.Message{
		llms.SystemMessage("You are a weather assistant."),
		llms.UserMessage("what is the weather in Tokyo?"),
	})
	sp.OnAgentLLMCallEnd(ctx, agent, llm, &llms.ChatResponse{
		ToolCalls: []llms.ToolCall{{ID: "call_1", Name: "get_weather", Arguments: `{"location":"Tokyo"}`}},
		Usage:     llms.Usage{InputTokens: 50, OutputTokens: 25, TotalTokens: 75},
	})
	sp.OnToolStart(ctx, tool, `{"location":"Tokyo"}`)
	sp.OnToolEnd(ctx, tool, `{"location":"Tokyo"}`, "22.5C")
	sp.OnAgentLLMCallStart(ctx, agent, llm, []llms.Message{llms.UserMessage("next")})
	sp.OnAgentLLMCallEnd(ctx, agent, llm, &llms.ChatResponse{
		Content: "It is 22.5C in Tokyo.",
		Usage:   llms.Usage{InputTokens: 60, OutputTokens: 15, TotalTokens: 75},
	})
	sp.OnAgentEnd(ctx, agent, "what is the weather in Tokyo?", &agents.Response{Text: "It is 22.5C in Tokyo."})

	stats, trace := sp.EndRun(ctx)
	require.NotNil(t, stats)

	assert.Equal(t, "chat1", stats.ChatID)
	assert.Equal(t, uint32(1), stats.AgentCalls)
	assert.Equal(t, uint32(1), stats.AgentCallsSucceeded)
	assert.Equal(t, uint32(0), stats.AgentCallsFailed)
	assert.Equal(t, uint32(2), stats.LLMCalls)
	assert.Equal(t, uint32(3), stats.TotalMessages)
	assert.Equal(t, uint32(1), stats.ToolsCalls)
	assert.Equal(t, uint32(1), stats.ToolsCallsSucceeded)
	assert.Equal(t, uint64(110), stats.LLMInputTokens)
	assert.Equal(t, uint64(40), stats.LLMOutputTokens)
	assert.Equal(t, uint64(150), stats.LLMTotalTokens)
	assert.NotZero(t, stats.LLMBytesOut)
	assert.NotZero(t, stats.LLMBytesIn)

	out := string(trace)
	assert.Contains(t, out, "*** Run Started ***")
	assert.Contains(t, out, "2025-01-02 03:04:05 chat1")
	assert.Contains(t, out, "researcher *** Agent Start ***")
	assert.Contains(t, out, "get_weather *** Tool Start ***")
	assert.Contains(t, out, "Output: 22.5C")
	assert.Contains(t, out, "*** Run Ended.")

	// run is forgotten after EndRun
	stats, trace = sp.EndRun(ctx)
	assert.Nil(t, stats)
	assert.Nil(t, trace)
}

func Test_Scratchpad_Errors(t *testing.T) {
	sp := callbacks.NewScratchpad(callbacks.ModeDefault)
	ctx := chatctx.WithChatID(context.Background(), "chat2")
	agent := &fakeAgent{name: "researcher"}

	sp.StartRun(ctx)
	sp.OnAgentStart(ctx, agent, "input")
	sp.OnAgentError(ctx, agent, "input", errors.New("model failed"))
	sp.OnToolStart(ctx, newTestTool(t), "{}")
	sp.OnToolError(ctx, newTestTool(t), "{}", errors.New("tool failed"))

	stats, trace := sp.EndRun(ctx)
	require.NotNil(t, stats)
	assert.Equal(t, uint32(1), stats.AgentCallsFailed)
	assert.Equal(t, uint32(1), stats.ToolsCallsFailed)
	assert.Contains(t, string(trace), "*** Error *** model failed")
	assert.Contains(t, string(trace), "*** Tool Error *** tool failed")
}

func Test_Scratchpad_NoChatID(t *testing.T) {
	sp := callbacks.NewScratchpad(callbacks.ModeDefault)
	ctx := context.Background()

	// events without a chat id are dropped
	sp.StartRun(ctx)
	sp.OnAgentStart(ctx, &fakeAgent{name: "a"}, "input")
	stats, trace := sp.EndRun(ctx)
	assert.Nil(t, stats)
	assert.Nil(t, trace)
}
