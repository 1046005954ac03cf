package bedrockclient

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/goagent/pkg/llms"
)

// Ref: https://docs.aws.amazon.com/bedrock/latest/userguide/model-parameters-anthropic-claude-messages.html
// Also: https://docs.anthropic.com/claude/reference/messages_post

// anthropicContent is a single content block of an input or output message.
type anthropicContent struct {
	// The type of the content.
	// One of: "text", "tool_use", "tool_result"
	Type string `json:"type"`
	// The text content. Required if type is "text"
	Text string `json:"text,omitempty"`
	// Tool use fields
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Input any    `json:"input,omitempty"`
	// Tool result fields
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

type anthropicMessage struct {
	// One of: ["user", "assistant"]
	// For system prompt, use the system field in the input
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

// anthropicTool represents a tool that can be used by the model.
type anthropicTool struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	InputSchema anthropicInputSchema `json:"input_schema"`
}

// anthropicInputSchema represents the JSON schema for tool input.
type anthropicInputSchema struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
	Required   []string       `json:"required,omitempty"`
}

// anthropicInput is the InvokeModel request body.
type anthropicInput struct {
	AnthropicVersion string              `json:"anthropic_version"`
	MaxTokens        int                 `json:"max_tokens"`
	System           string              `json:"system,omitempty"`
	Messages         []*anthropicMessage `json:"messages"`
	Temperature      float64             `json:"temperature,omitempty"`
	TopP             float64             `json:"top_p,omitempty"`
	StopSequences    []string            `json:"stop_sequences,omitempty"`
	Tools            []anthropicTool     `json:"tools,omitempty"`
}

// anthropicOutput is the InvokeModel response body.
type anthropicOutput struct {
	Type    string             `json:"type"`
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
	// One of: ["end_turn", "max_tokens", "stop_sequence", "tool_use"]
	StopReason   string `json:"stop_reason"`
	StopSequence string `json:"stop_sequence"`
	Usage        struct {
		InputTokens  int64 `json:"input_tokens"`
		OutputTokens int64 `json:"output_tokens"`
	} `json:"usage"`
}

const (
	AnthropicCompletionReasonEndTurn      = "end_turn"
	AnthropicCompletionReasonStopSequence = "stop_sequence"
	AnthropicCompletionReasonToolUse      = "tool_use"
)

// The latest version of the model API.
const (
	AnthropicLatestVersion = "bedrock-2023-05-31"
)

const (
	AnthropicRoleUser      = "user"
	AnthropicRoleAssistant = "assistant"
)

const (
	AnthropicMessageTypeText       = "text"
	AnthropicMessageTypeToolUse    = "tool_use"
	AnthropicMessageTypeToolResult = "tool_result"
)

// CreateCompletion sends the conversation to the model, routed by the model
// id's provider segment. Only Anthropic models are supported; they are the
// Bedrock family with full tool calling.
func (c *Client) CreateCompletion(ctx context.Context,
	modelID string,
	messages []llms.Message,
	options llms.CallOptions,
) (*llms.ChatResponse, error) {
	if provider := getProvider(modelID); provider != "anthropic" {
		return nil, errors.Newf("bedrock: unsupported provider %q", provider)
	}
	return createAnthropicCompletion(ctx, c.client, modelID, messages, options)
}

func createAnthropicCompletion(ctx context.Context,
	client *bedrockruntime.Client,
	modelID string,
	messages []llms.Message,
	options llms.CallOptions,
) (*llms.ChatResponse, error) {
	inputMessages, systemPrompt, err := processInputMessagesAnthropic(messages)
	if err != nil {
		return nil, err
	}

	var tools []anthropicTool
	if len(options.Tools) > 0 {
		tools = make([]anthropicTool, len(options.Tools))
		for i, tool := range options.Tools {
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

			tools[i] = anthropicTool{
				Name:        tool.Name,
				Description: tool.Description,
				InputSchema: anthropicInputSchema{
					Type:       "object",
					Properties: properties,
					Required:   required,
				},
			}
		}
	}

	input := anthropicInput{
		AnthropicVersion: AnthropicLatestVersion,
		MaxTokens:        getMaxTokens(options.MaxTokens, 2048),
		System:           systemPrompt,
		Messages:         inputMessages,
		Temperature:      options.Temperature,
		TopP:             options.TopP,
		StopSequences:    options.StopWords,
		Tools:            tools,
	}

	body, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}

	modelInput := &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		Accept:      aws.String("*/*"),
		ContentType: aws.String("application/json"),
		Body:        body,
	}
	resp, err := client.InvokeModel(ctx, modelInput)
	if err != nil {
		return nil, llms.NewTransportError(llms.ProviderBedrock, err)
	}

	var output anthropicOutput
	if err := json.Unmarshal(resp.Body, &output); err != nil {
		return nil, llms.NewFormatError(llms.ProviderBedrock, "failed to unmarshal response: %v", err)
	}

	if len(output.Content) == 0 {
		return nil, errors.WithMessage(llms.ErrEmptyResponse, "bedrock")
	}
	if stopReason := output.StopReason; stopReason != AnthropicCompletionReasonEndTurn &&
		stopReason != AnthropicCompletionReasonStopSequence &&
		stopReason != AnthropicCompletionReasonToolUse {
		return nil, errors.Newf("bedrock: completed due to %s. Maybe try increasing max tokens", stopReason)
	}

	var textContent string
	var toolCalls []llms.ToolCall
	for _, c := range output.Content {
		switch c.Type {
		case AnthropicMessageTypeText:
			textContent += c.Text
		case AnthropicMessageTypeToolUse:
			argumentsJSON, err := json.Marshal(c.Input)
			if err != nil {
				return nil, errors.Wrap(err, "bedrock: failed to marshal tool arguments")
			}
			toolCalls = append(toolCalls, llms.ToolCall{
				ID:        c.ID,
				Name:      c.Name,
				Arguments: string(argumentsJSON),
			})
		}
	}

	return &llms.ChatResponse{
		Content:    textContent,
		ToolCalls:  llms.CoerceToolCallArguments(options.Tools, toolCalls),
		StopReason: output.StopReason,
		Usage: llms.Usage{
			InputTokens:  output.Usage.InputTokens,
			OutputTokens: output.Usage.OutputTokens,
			TotalTokens:  output.Usage.InputTokens + output.Usage.OutputTokens,
		},
	}, nil
}

// processInputMessagesAnthropic converts the conversation to the Anthropic
// messages format. System messages are extracted into the system field; tool
// results ride in user messages, as the API requires.
func processInputMessagesAnthropic(messages []llms.Message) ([]*anthropicMessage, string, error) {
	inputMessages := make([]*anthropicMessage, 0, len(messages))
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
			inputMessages = append(inputMessages, &anthropicMessage{
				Role: AnthropicRoleUser,
				Content: []anthropicContent{
					{Type: AnthropicMessageTypeText, Text: msg.Content},
				},
			})
		case llms.RoleAssistant:
			var contents []anthropicContent
			if msg.Content != "" {
				contents = append(contents, anthropicContent{
					Type: AnthropicMessageTypeText,
					Text: msg.Content,
				})
			}
			for _, tc := range msg.ToolCalls {
				var input any
				if err := json.Unmarshal([]byte(tc.Arguments), &input); err != nil {
					return nil, "", errors.Wrap(err, "bedrock: failed to unmarshal tool call arguments")
				}
				contents = append(contents, anthropicContent{
					Type:  AnthropicMessageTypeToolUse,
					ID:    tc.ID,
					Name:  tc.Name,
					Input: input,
				})
			}
			if len(contents) == 0 {
				return nil, "", errors.New("bedrock: no content in assistant message")
			}
			inputMessages = append(inputMessages, &anthropicMessage{
				Role:    AnthropicRoleAssistant,
				Content: contents,
			})
		case llms.RoleTool:
			var contents []anthropicContent
			for _, tr := range msg.ToolResults {
				contents = append(contents, anthropicContent{
					Type:      AnthropicMessageTypeToolResult,
					ToolUseID: tr.CallID,
					Content:   tr.Content,
					IsError:   tr.IsError,
				})
			}
			if len(contents) == 0 {
				return nil, "", errors.New("bedrock: no content in tool message")
			}
			inputMessages = append(inputMessages, &anthropicMessage{
				Role:    AnthropicRoleUser,
				Content: contents,
			})
		default:
			return nil, "", errors.Newf("bedrock: role %v not supported", msg.Role)
		}
	}
	return inputMessages, systemPrompt, nil
}
