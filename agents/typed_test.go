package agents_test

import (
	"context"
	"testing"

	"github.com/effective-security/goagent/agents"
	"github.com/effective-security/goagent/encoding"
	"github.com/effective-security/goagent/pkg/llms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type cityAnswer struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

func Test_InvokeTyped(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	llm := mockLLM(ctrl)
	llm.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, messages []llms.Message, _ ...llms.CallOption) (*llms.ChatResponse, error) {
			// the output schema instructions ride on the system prompt
			require.Equal(t, llms.RoleSystem, messages[0].Role)
			assert.Contains(t, messages[0].Content, "# OUTPUT SCHEMA")
			assert.Contains(t, messages[0].Content, "JSON schema")
			return &llms.ChatResponse{
				Content: "```json\n{\"city\":\"Paris\",\"country\":\"France\"}\n```",
			}, nil
		}).Times(1)

	ag, err := agents.New(llm, agents.WithSystemPrompt("You are a helpful assistant."))
	require.NoError(t, err)

	out, resp, err := agents.InvokeTyped[cityAnswer](context.Background(), ag,
		"What is the capital of France?", encoding.ModeJSON)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "Paris", out.City)
	assert.Equal(t, "France", out.Country)
	require.NotNil(t, resp)
	assert.Contains(t, resp.Text, "Paris")
}

func Test_InvokeTyped_ParseError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	llm := mockLLM(ctrl)
	llm.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).Return(
		&llms.ChatResponse{Content: "sorry, I cannot answer that"}, nil).Times(1)

	ag, err := agents.New(llm)
	require.NoError(t, err)

	out, resp, err := agents.InvokeTyped[cityAnswer](context.Background(), ag,
		"What is the capital of France?", encoding.ModeJSON)
	require.Error(t, err)
	assert.ErrorIs(t, err, encoding.ErrFailedUnmarshalOutput)
	assert.Nil(t, out)
	// the raw response is still returned for inspection
	require.NotNil(t, resp)
	assert.Equal(t, "sorry, I cannot answer that", resp.Text)
}

func Test_InvokeWithParser_Simple(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	llm := mockLLM(ctrl)
	llm.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).Return(
		&llms.ChatResponse{Content: "  Paris.  "}, nil).Times(1)

	ag, err := agents.New(llm)
	require.NoError(t, err)

	out, _, err := agents.InvokeWithParser(context.Background(), ag,
		"What is the capital of France?", encoding.NewSimpleOutputParser())
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "Paris.", *out)
}
