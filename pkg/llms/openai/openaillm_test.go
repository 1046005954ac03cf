package openai_test

import (
	"os"
	"reflect"
	"testing"

	"github.com/effective-security/goagent/pkg/llms"
	"github.com/effective-security/goagent/pkg/llms/openai"
	"github.com/effective-security/goagent/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	originalToken := os.Getenv("OPENAI_API_KEY")
	os.Unsetenv("OPENAI_API_KEY")
	defer func() {
		if originalToken != "" {
			os.Setenv("OPENAI_API_KEY", originalToken)
		}
	}()

	_, err := openai.New(openai.WithModel("gpt-5"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing API key")

	_, err = openai.New(openai.WithToken("fake-token"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model is required")

	llm, err := openai.New(
		openai.WithToken("fake-token"),
		openai.WithModel("gpt-5"),
		openai.WithBaseURL("https://custom.openai.local/v1"),
		openai.WithOrganization("org-test"),
	)
	require.NoError(t, err)
	assert.Equal(t, "gpt-5", llm.GetName())
	assert.Equal(t, llms.ProviderOpenAI, llm.GetProviderType())
}

func TestProcessMessages(t *testing.T) {
	messages := []llms.Message{
		llms.SystemMessage("You are a weather assistant."),
		llms.UserMessage("What is the weather in Tokyo and Osaka?"),
		{
			Role: llms.RoleAssistant,
			ToolCalls: []llms.ToolCall{
				{ID: "call_1", Name: "get_weather", Arguments: `{"location":"Tokyo"}`},
				{ID: "call_2", Name: "get_weather", Arguments: `{"location":"Osaka"}`},
			},
		},
		llms.ToolResultMessage(
			llms.ToolResult{CallID: "call_1", Name: "get_weather", Content: `{"temperature":22.5}`},
			llms.ToolResult{CallID: "call_2", Name: "get_weather", Content: `{"temperature":19.0}`},
		),
	}

	chatMsgs, err := openai.ProcessMessages(messages)
	require.NoError(t, err)
	// tool results fan out into one tool message each
	require.Len(t, chatMsgs, 5)
	assert.NotNil(t, chatMsgs[0].OfSystem)
	assert.NotNil(t, chatMsgs[1].OfUser)
	require.NotNil(t, chatMsgs[2].OfAssistant)
	assert.Len(t, chatMsgs[2].OfAssistant.ToolCalls, 2)
	require.NotNil(t, chatMsgs[3].OfTool)
	assert.Equal(t, "call_1", chatMsgs[3].OfTool.ToolCallID)
	require.NotNil(t, chatMsgs[4].OfTool)
	assert.Equal(t, "call_2", chatMsgs[4].OfTool.ToolCallID)
}

type weatherRequest struct {
	Location string `json:"location" jsonschema:"required,description=City name."`
	Unit     string `json:"unit,omitempty"`
}

func TestToTools(t *testing.T) {
	sc, err := schema.New(reflect.TypeOf(weatherRequest{}))
	require.NoError(t, err)

	sdkTools, err := openai.ToTools([]llms.ToolSpec{
		{
			Name:        "get_weather",
			Description: "Returns the current weather for a location.",
			Parameters:  sc.Parameters,
		},
	})
	require.NoError(t, err)
	require.Len(t, sdkTools, 1)
	fn := sdkTools[0].GetFunction()
	require.NotNil(t, fn)
	assert.Equal(t, "get_weather", fn.Name)
	assert.Contains(t, fn.Parameters, "properties")

	empty, err := openai.ToTools(nil)
	require.NoError(t, err)
	assert.Nil(t, empty)
}
