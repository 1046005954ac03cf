// Package googleai implements a provider for Google AI (Gemini) models.
// See https://ai.google.dev/ for more details.
package googleai

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/goagent/pkg/llms"
	"github.com/effective-security/goagent/pkg/llms/googleai/internal/genaiutils"
	"google.golang.org/genai"
)

const (
	RoleModel = "model"
	RoleUser  = "user"
	RoleTool  = "tool"

	ResponseMIMETypeJson = "application/json"
)

// GoogleAI is a type that represents a Google AI API client.
type GoogleAI struct {
	client *genai.Client
	opts   Options
}

var _ llms.Model = (*GoogleAI)(nil)

// New creates a new GoogleAI client.
func New(ctx context.Context, opts ...Option) (*GoogleAI, error) {
	clientOptions := DefaultOptions()
	for _, opt := range opts {
		opt(&clientOptions)
	}
	clientOptions.EnsureAuthPresent()

	gi := &GoogleAI{
		opts: clientOptions,
	}

	cfg := &genai.ClientConfig{
		Project:     clientOptions.CloudProject,
		Location:    clientOptions.CloudLocation,
		APIKey:      clientOptions.APIKey,
		Credentials: clientOptions.Credentials,
		HTTPClient:  clientOptions.HTTPClient,
		Backend:     genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return gi, err
	}
	gi.client = client

	return gi, nil
}

// GetName implements the Model interface.
func (g *GoogleAI) GetName() string {
	return g.opts.DefaultModel
}

// GetProviderType implements the Model interface.
func (g *GoogleAI) GetProviderType() llms.ProviderType {
	return llms.ProviderGoogleAI
}

// GenerateContent implements the Model interface.
func (g *GoogleAI) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ChatResponse, error) {
	opts := llms.CallOptions{
		Model:       g.opts.DefaultModel,
		MaxTokens:   g.opts.DefaultMaxTokens,
		Temperature: g.opts.DefaultTemperature,
		TopP:        g.opts.DefaultTopP,
	}
	for _, opt := range options {
		opt(&opts)
	}

	callCfg := &genai.GenerateContentConfig{
		StopSequences:   opts.StopWords,
		MaxOutputTokens: int32(opts.MaxTokens),
		Temperature:     genaiutils.Float32Ptr(float32(opts.Temperature)),
		TopP:            genaiutils.Float32Ptr(float32(opts.TopP)),
		Seed:            genaiutils.Int32Ptr(int32(opts.Seed)),
	}

	callCfg.SafetySettings = []*genai.SafetySetting{
		{
			Category:  genai.HarmCategoryDangerousContent,
			Threshold: g.opts.HarmThreshold,
		},
		{
			Category:  genai.HarmCategoryHarassment,
			Threshold: g.opts.HarmThreshold,
		},
		{
			Category:  genai.HarmCategoryHateSpeech,
			Threshold: g.opts.HarmThreshold,
		},
		{
			Category:  genai.HarmCategorySexuallyExplicit,
			Threshold: g.opts.HarmThreshold,
		},
	}

	var err error
	if callCfg.Tools, err = genaiutils.ConvertTools(opts.Tools); err != nil {
		return nil, err
	}
	if len(callCfg.Tools) == 0 && opts.JSONResponse {
		callCfg.ResponseMIMEType = ResponseMIMETypeJson
	}

	history := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		content, err := ConvertMessage(msg)
		if err != nil {
			return nil, err
		}
		if msg.Role == llms.RoleSystem {
			callCfg.SystemInstruction = content
			continue
		}
		history = append(history, content)
	}

	resp, err := g.client.Models.GenerateContent(ctx, opts.Model, history, callCfg)
	if err != nil {
		return nil, llms.NewTransportError(llms.ProviderGoogleAI, err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, errors.WithMessagef(llms.ErrContentFiltered, "googleai: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return nil, errors.WithMessage(llms.ErrEmptyResponse, "googleai")
	}

	return convertCandidate(resp.Candidates[0], resp.UsageMetadata, opts.Tools)
}

// convertCandidate converts the first genai.Candidate to a normalized reply.
func convertCandidate(candidate *genai.Candidate, usage *genai.GenerateContentResponseUsageMetadata, specs []llms.ToolSpec) (*llms.ChatResponse, error) {
	if candidate.FinishReason == genai.FinishReasonSafety ||
		candidate.FinishReason == genai.FinishReasonProhibitedContent {
		return nil, errors.WithMessagef(llms.ErrContentFiltered, "googleai: %s", candidate.FinishReason)
	}

	var buf strings.Builder
	var toolCalls []llms.ToolCall

	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			switch {
			case part.Text != "":
				buf.WriteString(part.Text)
			case part.FunctionCall != nil:
				b, err := json.Marshal(part.FunctionCall.Args)
				if err != nil {
					return nil, errors.Wrap(err, "googleai: failed to marshal function call args")
				}
				// Gemini does not assign call ids; the loop synthesizes them.
				toolCalls = append(toolCalls, llms.ToolCall{
					ID:        part.FunctionCall.ID,
					Name:      part.FunctionCall.Name,
					Arguments: string(b),
				})
			default:
				return nil, llms.NewFormatError(llms.ProviderGoogleAI, "part is not text or function call")
			}
		}
	}

	if buf.Len() == 0 && len(toolCalls) == 0 {
		return nil, errors.WithMessage(llms.ErrEmptyResponse, "googleai")
	}

	resp := &llms.ChatResponse{
		Content:    buf.String(),
		ToolCalls:  llms.CoerceToolCallArguments(specs, toolCalls),
		StopReason: string(candidate.FinishReason),
	}
	if usage != nil {
		resp.Usage = llms.Usage{
			InputTokens:  int64(usage.PromptTokenCount),
			OutputTokens: int64(usage.CandidatesTokenCount + usage.ToolUsePromptTokenCount + usage.ThoughtsTokenCount),
			TotalTokens:  int64(usage.TotalTokenCount),
		}
	}
	return resp, nil
}

// ConvertMessage converts one conversation message to genai content.
func ConvertMessage(msg llms.Message) (*genai.Content, error) {
	c := &genai.Content{}

	switch msg.Role {
	case llms.RoleSystem:
		c.Role = RoleUser
		c.Parts = []*genai.Part{{Text: msg.Content}}
	case llms.RoleUser:
		c.Role = RoleUser
		c.Parts = []*genai.Part{{Text: msg.Content}}
	case llms.RoleAssistant:
		c.Role = RoleModel
		if msg.Content != "" {
			c.Parts = append(c.Parts, &genai.Part{Text: msg.Content})
		}
		for _, tc := range msg.ToolCalls {
			var argsMap map[string]any
			if err := json.Unmarshal([]byte(tc.Arguments), &argsMap); err != nil {
				return nil, errors.Wrap(err, "googleai: failed to unmarshal tool call arguments")
			}
			c.Parts = append(c.Parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{
					Name: tc.Name,
					Args: argsMap,
				},
			})
		}
	case llms.RoleTool:
		c.Role = RoleTool
		for _, tr := range msg.ToolResults {
			c.Parts = append(c.Parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					Name:     tr.Name,
					Response: toFunctionResponse(tr.Content),
				},
			})
		}
	default:
		return nil, errors.Errorf("googleai: role %v not supported", msg.Role)
	}

	if len(c.Parts) == 0 {
		return nil, errors.Errorf("googleai: no content in %v message", msg.Role)
	}
	return c, nil
}

// toFunctionResponse shapes a tool result for the FunctionResponse API, which
// accepts only JSON objects. Non-object results are wrapped.
func toFunctionResponse(content string) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(content), &obj); err == nil {
		return obj
	}
	var value any
	if err := json.Unmarshal([]byte(content), &value); err == nil {
		return map[string]any{"result": value}
	}
	return map[string]any{"result": content}
}
