package tavily_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	tavilyModels "github.com/diverged/tavily-go/models"
	"github.com/effective-security/goagent/tools/tavily"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Tool(t *testing.T) {
	t.Setenv("TAVILY_API_KEY", "testkey")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req tavilyModels.SearchRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		assert.NoError(t, err)

		assert.Equal(t, "What is capital of France", req.Query)

		resp := tavily.SearchResult{
			Results: []tavilyModels.SearchResult{
				{Title: "Test Result", URL: "https://example.com", Content: "Test content", Score: 0.9},
			},
		}
		if req.IncludeAnswer {
			resp.Answer = "Paris"
		}

		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	ctx := context.Background()

	tool, err := tavily.New()
	require.NoError(t, err)
	tool.WithBaseURL(server.URL).WithHTTPClient(server.Client())

	assert.Equal(t, tavily.ToolName, tool.Name())
	assert.Contains(t, tool.Description(), `web search`)
	require.NotNil(t, tool.Parameters())
	props := tool.Parameters().Properties
	require.NotNil(t, props)
	_, ok := props.Get("Query")
	assert.True(t, ok)

	res, err := tool.Run(ctx, &tavily.SearchRequest{Query: "What is capital of France"})
	require.NoError(t, err)
	assert.Equal(t, "Paris", res.Answer)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "Test Result", res.Results[0].Title)
	assert.Contains(t, res.String(), "ANSWER: Paris")

	out, err := tool.Call(ctx, `{"Query":"What is capital of France"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "Paris")

	_, err = tool.Run(ctx, &tavily.SearchRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty query")
}

func Test_New_MissingKey(t *testing.T) {
	t.Setenv("TAVILY_API_KEY", "")
	_, err := tavily.New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TAVILY_API_KEY")
}
