// Package bedrockclient translates conversations to the Bedrock InvokeModel
// API for Anthropic models.
package bedrockclient

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// Client is a Bedrock client.
type Client struct {
	client *bedrockruntime.Client
}

// NewClient creates a new Bedrock client.
func NewClient(client *bedrockruntime.Client) *Client {
	return &Client{
		client: client,
	}
}

// getProvider extracts the model provider from a model id. Handles inference
// profiles (e.g. "us.anthropic.claude-3-5-sonnet-20241022-v2:0") and direct
// model ids (e.g. "anthropic.claude-3-sonnet-20240229-v1:0").
func getProvider(modelID string) string {
	parts := strings.Split(modelID, ".")
	if len(parts) >= 2 {
		if len(parts[0]) == 2 && strings.ToLower(parts[0]) == parts[0] {
			// region prefix, the provider is the second part
			return parts[1]
		}
		return parts[0]
	}
	return parts[0]
}

func getMaxTokens(maxTokens, defaultValue int) int {
	if maxTokens <= 0 {
		return defaultValue
	}
	return maxTokens
}
