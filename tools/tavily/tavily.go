// Package tavily provides a web search tool backed by the Tavily API.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"reflect"

	"github.com/cockroachdb/errors"
	tavilygo "github.com/diverged/tavily-go"
	tavilyModels "github.com/diverged/tavily-go/models"
	"github.com/effective-security/goagent/llmutils"
	"github.com/effective-security/goagent/schema"
	"github.com/effective-security/goagent/tools"
	"github.com/invopop/jsonschema"
)

const ToolName = "WebSearch"

// SearchRequest represents the tool input.
type SearchRequest struct {
	Query string `json:"Query" yaml:"Query" jsonschema:"title=Query,description=The query to search web."`
}

// SearchResult represents the structure for a search response
type SearchResult struct {
	Results []tavilyModels.SearchResult `json:"results" yaml:"Results" jsonschema:"title=results,description=The results from a web search."`
	Answer  string                      `json:"answer,omitempty" yaml:"Answer" jsonschema:"title=answer,description=The aggregated answer from a web search."`
}

// Tool is a tool that provides a web search functionality
type Tool struct {
	name        string
	description string
	params      *jsonschema.Schema

	baseURL    string
	httpClient *http.Client
}

var _ tools.Tool[SearchRequest, SearchResult] = (*Tool)(nil)

func New() (*Tool, error) {
	apikey := os.Getenv("TAVILY_API_KEY")
	if apikey == "" {
		return nil, errors.New("TAVILY_API_KEY is not set")
	}

	sc, err := schema.New(reflect.TypeOf(SearchRequest{}))
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create schema")
	}
	tool := &Tool{
		name:        ToolName,
		description: "A tool that provides a web search functionality.",
		httpClient:  http.DefaultClient,
		params:      sc.Parameters,
	}
	return tool, nil
}

func (t *Tool) WithBaseURL(baseURL string) *Tool {
	t.baseURL = baseURL
	return t
}

func (t *Tool) WithHTTPClient(client *http.Client) *Tool {
	t.httpClient = client
	return t
}

func (t *Tool) Name() string {
	return t.name
}

func (t *Tool) Description() string {
	return t.description
}

func (t *Tool) Parameters() *jsonschema.Schema {
	return t.params
}

func (t *Tool) Run(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	if req.Query == "" {
		return nil, errors.New("invalid request: empty query")
	}

	apikey := os.Getenv("TAVILY_API_KEY")
	if apikey == "" {
		return nil, errors.New("TAVILY_API_KEY is not set")
	}

	client := tavilygo.NewClient(apikey)
	if t.baseURL != "" {
		client.BaseURL = t.baseURL
	}
	if t.httpClient != nil {
		client.HTTPClient = t.httpClient
	}

	searchReq := tavilyModels.SearchRequest{
		Query:         req.Query,
		SearchDepth:   "basic",
		IncludeAnswer: true,
	}

	searchResp, err := tavilygo.Search(client, searchReq)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to perform search")
	}

	res := &SearchResult{
		Results: searchResp.Results,
		Answer:  searchResp.Answer,
	}
	return res, nil
}

func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	var req SearchRequest
	if err := json.Unmarshal(llmutils.CleanJSON([]byte(input)), &req); err != nil {
		return "", errors.WithMessagef(tools.ErrInvalidInput, "%s: %v", t.name, err)
	}
	out, err := t.Run(ctx, &req)
	if err != nil {
		return "", err
	}
	bs, err := json.Marshal(out)
	if err != nil {
		return "", errors.WithMessage(err, "failed to marshal output")
	}
	return string(bs), nil
}

func (r *SearchResult) String() string {
	var buf bytes.Buffer
	if r.Answer != "" {
		fmt.Fprintf(&buf, "ANSWER: %s\n", r.Answer)
	}

	for _, result := range r.Results {
		fmt.Fprintf(&buf, "- URL: %s\n", result.URL)
		fmt.Fprintf(&buf, "  TITLE: %s\n", result.Title)
		fmt.Fprintf(&buf, "  SCORE: %f\n", result.Score)
		fmt.Fprintf(&buf, "  CONTENT: %s\n", result.Content)
	}

	return buf.String()
}
