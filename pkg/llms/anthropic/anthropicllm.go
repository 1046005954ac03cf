package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/goagent/pkg/llms"
	"github.com/effective-security/x/values"
)

var (
	ErrMissingToken           = errors.New("anthropic: missing API key, set it in the ANTHROPIC_API_KEY environment variable")
	ErrUnsupportedMessageType = errors.New("anthropic: unsupported message type")
)

const (
	DefaultMaxTokens = 4096

	stopReasonRefusal = "refusal"
)

type LLM struct {
	Client  *anthropic.Client
	Options *Options
}

var _ llms.Model = (*LLM)(nil)

// New creates an Anthropic chat model over the official SDK.
//
// If no token is provided via options, it is read from the
// ANTHROPIC_API_KEY environment variable. The model name is required.
func New(opts ...Option) (*LLM, error) {
	options := &Options{
		Token:      os.Getenv(TokenEnvVarName),
		BaseURL:    "https://api.anthropic.com",
		HttpClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(options)
	}

	if len(options.Token) == 0 {
		return nil, ErrMissingToken
	}
	if options.Model == "" {
		return nil, errors.New("anthropic: model is required")
	}

	return &LLM{
		Client:  newClient(options),
		Options: options,
	}, nil
}

func newClient(options *Options) *anthropic.Client {
	sdkOpts := []option.RequestOption{
		option.WithAPIKey(options.Token),
		option.WithMaxRetries(2),
		option.WithRequestTimeout(5 * time.Minute),
	}

	if options.BaseURL != "" {
		sdkOpts = append(sdkOpts, option.WithBaseURL(options.BaseURL))
	}
	if options.HttpClient != nil {
		sdkOpts = append(sdkOpts, option.WithHTTPClient(options.HttpClient))
	}
	if options.AnthropicBetaHeader != "" {
		sdkOpts = append(sdkOpts, option.WithHeader("anthropic-beta", options.AnthropicBetaHeader))
	}

	client := anthropic.NewClient(sdkOpts...)
	return &client
}

// GetName implements the Model interface.
func (o *LLM) GetName() string {
	return o.Options.Model
}

// GetProviderType implements the Model interface.
func (o *LLM) GetProviderType() llms.ProviderType {
	return llms.ProviderAnthropic
}

// GenerateContent implements the Model interface.
func (o *LLM) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ChatResponse, error) {
	opts := llms.CallOptions{
		Model: o.Options.Model,
	}
	for _, opt := range options {
		opt(&opts)
	}

	sdkMessages, systemPrompt, err := ProcessMessages(messages)
	if err != nil {
		return nil, errors.WithMessage(err, "anthropic: failed to process messages")
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(opts.Model),
		Messages:  sdkMessages,
		MaxTokens: values.NumbersCoalesce(int64(opts.MaxTokens), DefaultMaxTokens),
	}

	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: systemPrompt,
			},
		}
	}
	if opts.Temperature > 0 {
		params.Temperature = anthropic.Float(opts.Temperature)
	}
	if opts.TopP > 0 {
		params.TopP = anthropic.Float(opts.TopP)
	}
	if len(opts.StopWords) > 0 {
		params.StopSequences = opts.StopWords
	}
	if tools := ToTools(opts.Tools); len(tools) > 0 {
		params.Tools = tools
	}

	result, err := o.Client.Messages.New(ctx, params)
	if err != nil {
		return nil, llms.NewTransportError(llms.ProviderAnthropic, err)
	}
	if string(result.StopReason) == stopReasonRefusal {
		return nil, errors.WithMessage(llms.ErrContentFiltered, "anthropic")
	}

	var content strings.Builder
	var toolCalls []llms.ToolCall
	for _, contentBlock := range result.Content {
		switch block := contentBlock.AsAny().(type) {
		case anthropic.TextBlock:
			content.WriteString(block.Text)
		case anthropic.ToolUseBlock:
			args, err := json.Marshal(block.Input)
			if err != nil {
				return nil, errors.Wrap(err, "anthropic: failed to marshal tool use arguments")
			}
			toolCalls = append(toolCalls, llms.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: string(args),
			})
		default:
			return nil, llms.NewFormatError(llms.ProviderAnthropic, "unsupported content block %T", block)
		}
	}
	if content.Len() == 0 && len(toolCalls) == 0 {
		return nil, errors.WithMessage(llms.ErrEmptyResponse, "anthropic")
	}

	return &llms.ChatResponse{
		Content:    content.String(),
		ToolCalls:  llms.CoerceToolCallArguments(opts.Tools, toolCalls),
		StopReason: string(result.StopReason),
		Usage: llms.Usage{
			InputTokens:  result.Usage.InputTokens,
			OutputTokens: result.Usage.OutputTokens,
			TotalTokens:  result.Usage.InputTokens + result.Usage.OutputTokens,
		},
	}, nil
}

// ToTools converts tool specs to Anthropic SDK tool parameters.
// Schema properties keep their declaration order.
func ToTools(tools []llms.ToolSpec) []anthropic.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}

	sdkTools := make([]anthropic.ToolUnionParam, len(tools))
	for i, tool := range tools {
		var properties map[string]any
		var required []string
		if tool.Parameters != nil {
			if tool.Parameters.Properties != nil {
				properties = make(map[string]any)
				for pair := tool.Parameters.Properties.Oldest(); pair != nil; pair = pair.Next() {
					properties[pair.Key] = pair.Value
				}
			}
			required = tool.Parameters.Required
		}

		inputSchema := anthropic.ToolInputSchemaParam{
			Type:       "object",
			Properties: properties,
		}
		if len(required) > 0 {
			inputSchema.Required = required
		}

		sdkTools[i] = anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        tool.Name,
				Description: anthropic.String(tool.Description),
				InputSchema: inputSchema,
			},
		}
	}
	return sdkTools
}

// ProcessMessages converts conversation messages to Anthropic SDK message
// parameters. System messages are extracted into a separate system prompt;
// tool results are sent as user messages with tool result blocks, as the
// Messages API requires.
func ProcessMessages(messages []llms.Message) ([]anthropic.MessageParam, string, error) {
	chatMessages := make([]anthropic.MessageParam, 0, len(messages))
	systemPrompt := ""
	for _, msg := range messages {
		switch msg.Role {
		case llms.RoleSystem:
			if systemPrompt != "" {
				systemPrompt += "\n" + msg.Content
			} else {
				systemPrompt = msg.Content
			}
		case llms.RoleUser:
			chatMessages = append(chatMessages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case llms.RoleAssistant:
			chatMessage, err := handleAssistantMessage(msg)
			if err != nil {
				return nil, "", err
			}
			chatMessages = append(chatMessages, chatMessage)
		case llms.RoleTool:
			chatMessage, err := handleToolMessage(msg)
			if err != nil {
				return nil, "", err
			}
			chatMessages = append(chatMessages, chatMessage)
		default:
			return nil, "", errors.WithMessagef(ErrUnsupportedMessageType, "%v", msg.Role)
		}
	}
	return chatMessages, systemPrompt, nil
}

func handleAssistantMessage(msg llms.Message) (anthropic.MessageParam, error) {
	var contents []anthropic.ContentBlockParamUnion

	if msg.Content != "" {
		contents = append(contents, anthropic.NewTextBlock(msg.Content))
	}
	for _, tc := range msg.ToolCalls {
		var inputJSON json.RawMessage
		if err := json.Unmarshal([]byte(tc.Arguments), &inputJSON); err != nil {
			return anthropic.MessageParam{}, errors.Wrap(err, "anthropic: failed to unmarshal tool call arguments")
		}
		contents = append(contents, anthropic.NewToolUseBlock(tc.ID, inputJSON, tc.Name))
	}

	if len(contents) == 0 {
		return anthropic.MessageParam{}, errors.New("anthropic: no valid content in assistant message")
	}
	return anthropic.NewAssistantMessage(contents...), nil
}

func handleToolMessage(msg llms.Message) (anthropic.MessageParam, error) {
	var contents []anthropic.ContentBlockParamUnion

	for _, tr := range msg.ToolResults {
		contents = append(contents, anthropic.NewToolResultBlock(tr.CallID, tr.Content, tr.IsError))
	}

	if len(contents) == 0 {
		return anthropic.MessageParam{}, errors.New("anthropic: no valid content in tool message")
	}
	return anthropic.NewUserMessage(contents...), nil
}
