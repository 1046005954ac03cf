package anthropic_test

import (
	"net/http"
	"os"
	"reflect"
	"testing"

	"github.com/effective-security/goagent/pkg/llms"
	"github.com/effective-security/goagent/pkg/llms/anthropic"
	"github.com/effective-security/goagent/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		opts        []anthropic.Option
		wantErr     bool
		errContains string
	}{
		{
			name:        "missing token",
			opts:        []anthropic.Option{anthropic.WithModel("claude-3-5-sonnet-20241022")},
			wantErr:     true,
			errContains: "missing API key",
		},
		{
			name:        "missing model",
			opts:        []anthropic.Option{anthropic.WithToken("fake-token")},
			wantErr:     true,
			errContains: "model is required",
		},
		{
			name: "valid configuration",
			opts: []anthropic.Option{
				anthropic.WithToken("fake-token"),
				anthropic.WithModel("claude-3-5-sonnet-20241022"),
			},
			wantErr: false,
		},
		{
			name: "with custom base URL",
			opts: []anthropic.Option{
				anthropic.WithToken("fake-token"),
				anthropic.WithModel("claude-3-5-sonnet-20241022"),
				anthropic.WithBaseURL("https://custom.anthropic.com"),
			},
			wantErr: false,
		},
		{
			name: "with custom HTTP client",
			opts: []anthropic.Option{
				anthropic.WithToken("fake-token"),
				anthropic.WithModel("claude-3-5-sonnet-20241022"),
				anthropic.WithHTTPClient(&http.Client{}),
			},
			wantErr: false,
		},
		{
			name: "with beta header",
			opts: []anthropic.Option{
				anthropic.WithToken("fake-token"),
				anthropic.WithModel("claude-3-5-sonnet-20241022"),
				anthropic.WithAnthropicBetaHeader("beta-feature-1"),
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.name == "missing token" {
				originalToken := os.Getenv("ANTHROPIC_API_KEY")
				os.Unsetenv("ANTHROPIC_API_KEY")
				defer func() {
					if originalToken != "" {
						os.Setenv("ANTHROPIC_API_KEY", originalToken)
					}
				}()
			}

			allm, err := anthropic.New(tt.opts...)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				assert.Nil(t, allm)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, allm)
				assert.NotNil(t, allm.Client)
				assert.Equal(t, "claude-3-5-sonnet-20241022", allm.GetName())
				assert.Equal(t, llms.ProviderAnthropic, allm.GetProviderType())
			}
		})
	}
}

func TestProcessMessages(t *testing.T) {
	messages := []llms.Message{
		llms.SystemMessage("You are a weather assistant."),
		llms.UserMessage("What is the weather in Tokyo?"),
		{
			Role:    llms.RoleAssistant,
			Content: "Let me check.",
			ToolCalls: []llms.ToolCall{
				{ID: "toolu_1", Name: "get_weather", Arguments: `{"location":"Tokyo"}`},
			},
		},
		llms.ToolResultMessage(llms.ToolResult{
			CallID:  "toolu_1",
			Name:    "get_weather",
			Content: `{"temperature":22.5}`,
		}),
	}

	sdkMessages, systemPrompt, err := anthropic.ProcessMessages(messages)
	require.NoError(t, err)
	assert.Equal(t, "You are a weather assistant.", systemPrompt)
	// system prompt is extracted, the rest map 1:1
	require.Len(t, sdkMessages, 3)
	assert.Equal(t, "user", string(sdkMessages[0].Role))
	assert.Equal(t, "assistant", string(sdkMessages[1].Role))
	// tool results ride in a user message
	assert.Equal(t, "user", string(sdkMessages[2].Role))
}

func TestProcessMessages_MultipleSystem(t *testing.T) {
	messages := []llms.Message{
		llms.SystemMessage("First."),
		llms.SystemMessage("Second."),
		llms.UserMessage("Hi"),
	}
	_, systemPrompt, err := anthropic.ProcessMessages(messages)
	require.NoError(t, err)
	assert.Equal(t, "First.\nSecond.", systemPrompt)
}

func TestProcessMessages_InvalidToolArguments(t *testing.T) {
	messages := []llms.Message{
		{
			Role: llms.RoleAssistant,
			ToolCalls: []llms.ToolCall{
				{ID: "toolu_1", Name: "get_weather", Arguments: `not json`},
			},
		},
	}
	_, _, err := anthropic.ProcessMessages(messages)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal tool call arguments")
}

type weatherRequest struct {
	Location string `json:"location" jsonschema:"required,description=City name."`
	Unit     string `json:"unit,omitempty"`
}

func TestToTools(t *testing.T) {
	sc, err := schema.New(reflect.TypeOf(weatherRequest{}))
	require.NoError(t, err)

	sdkTools := anthropic.ToTools([]llms.ToolSpec{
		{
			Name:        "get_weather",
			Description: "Returns the current weather for a location.",
			Parameters:  sc.Parameters,
		},
	})
	require.Len(t, sdkTools, 1)
	require.NotNil(t, sdkTools[0].OfTool)
	assert.Equal(t, "get_weather", sdkTools[0].OfTool.Name)
	assert.Contains(t, sdkTools[0].OfTool.InputSchema.Properties, "location")
	assert.Contains(t, sdkTools[0].OfTool.InputSchema.Required, "location")

	assert.Nil(t, anthropic.ToTools(nil))
}
