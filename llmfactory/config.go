package llmfactory

import (
	"slices"

	"github.com/effective-security/x/configloader"
)

type Config struct {
	// Providers specifies the list of providers to use
	Providers []*ProviderConfig `json:"providers" yaml:"providers"`
	// DefaultProvider specifies the default provider to use
	DefaultProvider string `json:"default_provider" yaml:"default_provider"`
	// ToolModels specifies the mapping of tools to models.
	// key is the tool name, value is the list of preferred models.
	// Use `default: <model_name>` as the default model for tools.
	ToolModels map[string][]string `json:"tool_models" yaml:"tool_models"`
	// AgentModels specifies the mapping of agents to models.
	// key is the agent name, value is the list of preferred models.
	// Use `default: <model_name>` as the default model for agents.
	AgentModels map[string][]string `json:"agent_models" yaml:"agent_models"`
}

// ProviderConfig for one LLM provider
type ProviderConfig struct {
	Name            string   `json:"name" yaml:"name"`
	Token           string   `json:"token,omitempty" yaml:"token,omitempty"`
	DefaultModel    string   `json:"default_model,omitempty" yaml:"default_model,omitempty"`
	AvailableModels []string `json:"available_models,omitempty" yaml:"available_models,omitempty"`
	// ProviderType specifies the type of provider API to use:
	// OPENAI|ANTHROPIC|GOOGLEAI|BEDROCK.
	// If empty, the type is detected from the default model name.
	ProviderType string `json:"provider_type,omitempty" yaml:"provider_type,omitempty"`
	// BaseURL overrides the provider endpoint,
	// e.g. for an OpenAI-compatible gateway.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	// OrgID specifies which organization's quota and billing should be used when making API requests.
	OrgID string `json:"org_id,omitempty" yaml:"org_id,omitempty"`
}

// FindModel returns the first preferred model the provider has available,
// falling back to the provider default.
func (c *ProviderConfig) FindModel(models ...string) string {
	for _, model := range models {
		if slices.Contains(c.AvailableModels, model) {
			return model
		}
	}
	return c.DefaultModel
}

// LoadConfig from file
func LoadConfig(file string) (*Config, error) {
	cfg := new(Config)
	if file == "" {
		return cfg, nil
	}

	err := configloader.UnmarshalAndExpand(file, cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
