package openai

import (
	"context"
	"encoding/json"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/goagent/pkg/llms"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

var (
	ErrMissingToken           = errors.New("openai: missing API key, set it in the OPENAI_API_KEY environment variable")
	ErrUnsupportedMessageType = errors.New("openai: unsupported message type")
)

type LLM struct {
	Client  openai.Client
	Options *Options
}

var _ llms.Model = (*LLM)(nil)

// New creates an OpenAI chat model over the official SDK.
//
// If no token is provided via options, it is read from the OPENAI_API_KEY
// environment variable. The model name is required, via options or the
// OPENAI_MODEL environment variable.
func New(opts ...Option) (*LLM, error) {
	options := &Options{
		Token:        os.Getenv(tokenEnvVarName),
		Model:        os.Getenv(modelEnvVarName),
		BaseURL:      os.Getenv(baseURLEnvVarName),
		Organization: os.Getenv(organizationEnvVarName),
	}

	for _, opt := range opts {
		opt(options)
	}

	if len(options.Token) == 0 {
		return nil, ErrMissingToken
	}
	if options.Model == "" {
		return nil, errors.New("openai: model is required")
	}

	sdkOpts := []option.RequestOption{
		option.WithAPIKey(options.Token),
		option.WithMaxRetries(2),
	}
	if options.BaseURL != "" {
		sdkOpts = append(sdkOpts, option.WithBaseURL(options.BaseURL))
	}
	if options.Organization != "" {
		sdkOpts = append(sdkOpts, option.WithOrganization(options.Organization))
	}
	if options.HttpClient != nil {
		sdkOpts = append(sdkOpts, option.WithHTTPClient(options.HttpClient))
	}

	return &LLM{
		Client:  openai.NewClient(sdkOpts...),
		Options: options,
	}, nil
}

// GetName implements the Model interface.
func (o *LLM) GetName() string {
	return o.Options.Model
}

// GetProviderType implements the Model interface.
func (o *LLM) GetProviderType() llms.ProviderType {
	return llms.ProviderOpenAI
}

// GenerateContent implements the Model interface.
func (o *LLM) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ChatResponse, error) {
	opts := llms.CallOptions{
		Model: o.Options.Model,
	}
	for _, opt := range options {
		opt(&opts)
	}

	chatMsgs, err := ProcessMessages(messages)
	if err != nil {
		return nil, errors.WithMessage(err, "openai: failed to process messages")
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(opts.Model),
		Messages: chatMsgs,
	}

	if opts.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(opts.MaxTokens))
	}
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}
	if opts.TopP > 0 {
		params.TopP = openai.Float(opts.TopP)
	}
	if opts.Seed > 0 {
		params.Seed = openai.Int(int64(opts.Seed))
	}
	if len(opts.StopWords) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{
			OfStringArray: opts.StopWords,
		}
	}
	if opts.JSONResponse {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	sdkTools, err := ToTools(opts.Tools)
	if err != nil {
		return nil, err
	}
	if len(sdkTools) > 0 {
		params.Tools = sdkTools
		if tc := toToolChoice(opts.ToolChoice); tc != nil {
			params.ToolChoice = *tc
		}
	}

	result, err := o.Client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, llms.NewTransportError(llms.ProviderOpenAI, err)
	}
	if len(result.Choices) == 0 {
		return nil, errors.WithMessage(llms.ErrEmptyResponse, "openai")
	}

	choice := result.Choices[0]
	if choice.Message.Refusal != "" {
		return nil, errors.WithMessagef(llms.ErrContentFiltered, "openai: %s", choice.Message.Refusal)
	}

	var toolCalls []llms.ToolCall
	for _, tc := range choice.Message.ToolCalls {
		toolCalls = append(toolCalls, llms.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	if choice.Message.Content == "" && len(toolCalls) == 0 {
		return nil, errors.WithMessage(llms.ErrEmptyResponse, "openai")
	}

	return &llms.ChatResponse{
		Content:    choice.Message.Content,
		ToolCalls:  llms.CoerceToolCallArguments(opts.Tools, toolCalls),
		StopReason: string(choice.FinishReason),
		Usage: llms.Usage{
			InputTokens:  result.Usage.PromptTokens,
			OutputTokens: result.Usage.CompletionTokens,
			TotalTokens:  result.Usage.TotalTokens,
		},
	}, nil
}

// ProcessMessages converts conversation messages to Chat Completions message
// parameters. Tool results fan out into one tool message per result, tagged
// by call id.
func ProcessMessages(messages []llms.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	chatMsgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case llms.RoleSystem:
			chatMsgs = append(chatMsgs, openai.SystemMessage(msg.Content))
		case llms.RoleUser:
			chatMsgs = append(chatMsgs, openai.UserMessage(msg.Content))
		case llms.RoleAssistant:
			chatMsgs = append(chatMsgs, assistantMessage(msg))
		case llms.RoleTool:
			for _, tr := range msg.ToolResults {
				chatMsgs = append(chatMsgs, openai.ToolMessage(tr.Content, tr.CallID))
			}
		default:
			return nil, errors.WithMessagef(ErrUnsupportedMessageType, "%v", msg.Role)
		}
	}
	return chatMsgs, nil
}

func assistantMessage(msg llms.Message) openai.ChatCompletionMessageParamUnion {
	if len(msg.ToolCalls) == 0 {
		return openai.AssistantMessage(msg.Content)
	}

	assistant := openai.ChatCompletionAssistantMessageParam{}
	if msg.Content != "" {
		assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
			OfString: openai.String(msg.Content),
		}
	}
	for _, tc := range msg.ToolCalls {
		assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: tc.ID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			},
		})
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant}
}

// ToTools converts tool specs to Chat Completions function tools.
func ToTools(tools []llms.ToolSpec) ([]openai.ChatCompletionToolUnionParam, error) {
	if len(tools) == 0 {
		return nil, nil
	}

	sdkTools := make([]openai.ChatCompletionToolUnionParam, len(tools))
	for i, tool := range tools {
		fn := shared.FunctionDefinitionParam{
			Name: tool.Name,
		}
		if tool.Description != "" {
			fn.Description = openai.String(tool.Description)
		}
		if tool.Parameters != nil {
			params, err := schemaToMap(tool.Parameters)
			if err != nil {
				return nil, errors.WithMessagef(err, "openai: failed to convert parameters of %q", tool.Name)
			}
			fn.Parameters = shared.FunctionParameters(params)
		}
		if tool.Strict {
			fn.Strict = openai.Bool(true)
		}
		sdkTools[i] = openai.ChatCompletionFunctionTool(fn)
	}
	return sdkTools, nil
}

func toToolChoice(choice string) *openai.ChatCompletionToolChoiceOptionUnionParam {
	switch choice {
	case "":
		return nil
	case "none", "auto", "required":
		return &openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String(choice),
		}
	default:
		return &openai.ChatCompletionToolChoiceOptionUnionParam{
			OfFunctionToolChoice: &openai.ChatCompletionNamedToolChoiceParam{
				Function: openai.ChatCompletionNamedToolChoiceFunctionParam{
					Name: choice,
				},
			},
		}
	}
}

func schemaToMap(sc any) (map[string]any, error) {
	data, err := json.Marshal(sc)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
