package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/effective-security/goagent/chatctx"
	"github.com/effective-security/goagent/pkg/llms"
	"github.com/effective-security/goagent/store"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	rediscon "github.com/testcontainers/testcontainers-go/modules/redis"
)

func Test_RedisStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	redisContainer, err := rediscon.Run(ctx, "redis:7")
	testcontainers.CleanupContainer(t, redisContainer)
	require.NoError(t, err)

	host, err := redisContainer.ConnectionString(ctx)
	require.NoError(t, err)

	options, err := redis.ParseURL(host)
	require.NoError(t, err)

	client := redis.NewClient(options)
	rs := client.Ping(ctx)
	require.NoError(t, rs.Err(), "failed to connect to Redis")

	prefix := fmt.Sprintf("test-%d", time.Now().Unix())
	st := store.NewRedisStore(client, prefix)

	msg1 := llms.UserMessage("Hello")
	msg2 := llms.AssistantMessage("Hi there!")

	// no chat id in context
	assert.Error(t, st.Add(ctx, msg1))
	assert.Error(t, st.Reset(ctx))
	assert.Empty(t, st.Messages(ctx))

	ctx = chatctx.WithChatID(ctx, chatctx.NewChatID())

	require.NoError(t, st.Add(ctx, msg1))
	require.NoError(t, st.Add(ctx, msg2))

	messages := st.Messages(ctx)
	require.Len(t, messages, 2)
	assert.Equal(t, msg1.Content, messages[0].Content)
	assert.Equal(t, llms.RoleUser, messages[0].Role)
	assert.Equal(t, msg2.Content, messages[1].Content)
	assert.Equal(t, llms.RoleAssistant, messages[1].Role)

	// tool call turns round-trip with their payloads
	toolTurn := llms.ToolCallMessage(llms.ToolCall{
		ID:        "call_1",
		Name:      "get_weather",
		Arguments: `{"location":"Tokyo"}`,
	})
	resultTurn := llms.ToolResultMessage(llms.ToolResult{
		CallID:  "call_1",
		Name:    "get_weather",
		Content: `{"temperature":22.5}`,
	})
	require.NoError(t, st.Add(ctx, toolTurn, resultTurn))

	messages = st.Messages(ctx)
	require.Len(t, messages, 4)
	require.Len(t, messages[2].ToolCalls, 1)
	assert.Equal(t, "call_1", messages[2].ToolCalls[0].ID)
	require.Len(t, messages[3].ToolResults, 1)
	assert.Equal(t, "call_1", messages[3].ToolResults[0].CallID)

	// history is isolated per chat id
	ctx2 := chatctx.WithChatID(context.Background(), chatctx.NewChatID())
	assert.Empty(t, st.Messages(ctx2))

	require.NoError(t, st.Reset(ctx))
	assert.Empty(t, st.Messages(ctx))
}

func Test_RedisStore_Trim(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	redisContainer, err := rediscon.Run(ctx, "redis:7")
	testcontainers.CleanupContainer(t, redisContainer)
	require.NoError(t, err)

	host, err := redisContainer.ConnectionString(ctx)
	require.NoError(t, err)

	options, err := redis.ParseURL(host)
	require.NoError(t, err)
	client := redis.NewClient(options)

	st := store.NewRedisStore(client, "trim-test")
	ctx = chatctx.WithChatID(ctx, chatctx.NewChatID())

	for i := 0; i < store.DefaultMaxStoredMessages+10; i++ {
		require.NoError(t, st.Add(ctx, llms.UserMessage(fmt.Sprintf("message %d", i))))
	}

	messages := st.Messages(ctx)
	require.Len(t, messages, store.DefaultMaxStoredMessages)
	// the oldest messages are trimmed
	assert.Equal(t, "message 10", messages[0].Content)
}
