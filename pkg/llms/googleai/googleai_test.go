package googleai

import (
	"testing"

	"github.com/effective-security/goagent/pkg/llms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertMessage(t *testing.T) {
	c, err := ConvertMessage(llms.UserMessage("What is the weather in Tokyo?"))
	require.NoError(t, err)
	assert.Equal(t, RoleUser, c.Role)
	require.Len(t, c.Parts, 1)
	assert.Equal(t, "What is the weather in Tokyo?", c.Parts[0].Text)

	c, err = ConvertMessage(llms.Message{
		Role:    llms.RoleAssistant,
		Content: "Let me check.",
		ToolCalls: []llms.ToolCall{
			{Name: "get_weather", Arguments: `{"location":"Tokyo"}`},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, RoleModel, c.Role)
	require.Len(t, c.Parts, 2)
	require.NotNil(t, c.Parts[1].FunctionCall)
	assert.Equal(t, "get_weather", c.Parts[1].FunctionCall.Name)
	assert.Equal(t, "Tokyo", c.Parts[1].FunctionCall.Args["location"])

	c, err = ConvertMessage(llms.ToolResultMessage(llms.ToolResult{
		CallID:  "get_weather_0",
		Name:    "get_weather",
		Content: `{"temperature":22.5}`,
	}))
	require.NoError(t, err)
	assert.Equal(t, RoleTool, c.Role)
	require.Len(t, c.Parts, 1)
	require.NotNil(t, c.Parts[0].FunctionResponse)
	assert.Equal(t, "get_weather", c.Parts[0].FunctionResponse.Name)
	assert.Equal(t, 22.5, c.Parts[0].FunctionResponse.Response["temperature"])

	_, err = ConvertMessage(llms.Message{Role: "other"})
	require.Error(t, err)
}

func TestToFunctionResponse(t *testing.T) {
	// object results pass through
	res := toFunctionResponse(`{"temperature":22.5,"conditions":"sunny"}`)
	assert.Equal(t, 22.5, res["temperature"])

	// scalar JSON results are wrapped
	res = toFunctionResponse(`42`)
	assert.Equal(t, float64(42), res["result"])

	res = toFunctionResponse(`["a","b"]`)
	assert.Equal(t, []any{"a", "b"}, res["result"])

	// non-JSON text is wrapped verbatim
	res = toFunctionResponse(`plain text`)
	assert.Equal(t, "plain text", res["result"])
}
