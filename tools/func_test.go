package tools_test

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/goagent/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchInput struct {
	Query string `json:"query" validate:"required" jsonschema:"description=Query to search for"`
	Limit int    `json:"limit,omitempty" jsonschema:"description=Max number of results"`
}

type searchOutput struct {
	Results []string `json:"results"`
}

func newSearchTool(t *testing.T) tools.Tool[searchInput, searchOutput] {
	t.Helper()
	tool, err := tools.NewFunc("search", "Searches the index.",
		func(_ context.Context, in *searchInput) (*searchOutput, error) {
			if in.Query == "boom" {
				return nil, errors.New("index unavailable")
			}
			return &searchOutput{Results: []string{in.Query}}, nil
		})
	require.NoError(t, err)
	return tool
}

func Test_NewFunc(t *testing.T) {
	tool := newSearchTool(t)
	assert.Equal(t, "search", tool.Name())
	assert.Equal(t, "Searches the index.", tool.Description())
	require.NotNil(t, tool.Parameters())
	assert.Contains(t, tool.Parameters().Required, "query")

	_, err := tools.NewFunc[searchInput, searchOutput]("", "desc", nil)
	assert.EqualError(t, err, "tools: name is required")

	_, err = tools.NewFunc[searchInput, searchOutput]("search", "desc", nil)
	assert.EqualError(t, err, "tools: function is required")
}

func Test_Func_Call(t *testing.T) {
	tool := newSearchTool(t)
	ctx := context.Background()

	res, err := tool.Call(ctx, `{"query":"golang"}`)
	require.NoError(t, err)
	assert.Contains(t, res, "golang")

	// fenced input is accepted
	res, err = tool.Call(ctx, "```json\n{\"query\":\"golang\"}\n```")
	require.NoError(t, err)
	assert.Contains(t, res, "golang")

	// missing required field fails validation
	_, err = tool.Call(ctx, `{"limit":3}`)
	require.Error(t, err)
	assert.ErrorIs(t, err, tools.ErrInvalidInput)

	// tool errors pass through unchanged
	_, err = tool.Call(ctx, `{"query":"boom"}`)
	require.Error(t, err)
	assert.NotErrorIs(t, err, tools.ErrInvalidInput)
	assert.Contains(t, err.Error(), "index unavailable")
}

func Test_Func_Run(t *testing.T) {
	tool := newSearchTool(t)

	out, err := tool.Run(context.Background(), &searchInput{Query: "golang"})
	require.NoError(t, err)
	assert.Equal(t, []string{"golang"}, out.Results)
}

func Test_GetDescriptions(t *testing.T) {
	tool := newSearchTool(t)
	d := tools.GetDescriptions(tool)
	assert.Contains(t, d, "search")
	assert.Contains(t, d, "Searches the index.")
}
