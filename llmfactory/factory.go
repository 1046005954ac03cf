// Package llmfactory creates and caches LLM clients from configuration.
package llmfactory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/goagent/pkg/llms"
	"github.com/effective-security/goagent/pkg/llms/anthropic"
	"github.com/effective-security/goagent/pkg/llms/bedrock"
	"github.com/effective-security/goagent/pkg/llms/googleai"
	"github.com/effective-security/goagent/pkg/llms/openai"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/goagent", "llmfactory")

// NewLLM is a wrapper for CreateLLM to allow for overriding the default implementation.
var NewLLM = CreateLLM

// Factory is the interface for creating and managing LLM models.
type Factory interface {
	// DefaultModel returns the default LLM model.
	DefaultModel() (llms.Model, error)
	// ModelByType returns an LLM model by its provider type, e.g.
	// OPENAI, ANTHROPIC, GOOGLEAI, BEDROCK
	ModelByType(providerType string) (llms.Model, error)
	// ModelByName returns an LLM model by its name,
	// if the model is not found, it will return the default model.
	ModelByName(preferredModels ...string) (llms.Model, error)
	// ToolModel returns a tool model by its name.
	ToolModel(toolName string, preferredModels ...string) (llms.Model, error)
	// AgentModel returns an agent model by its name.
	AgentModel(agentName string, preferredModels ...string) (llms.Model, error)
}

// Load returns the LLM factory from a config file
func Load(location string) (Factory, error) {
	cfg, err := LoadConfig(location)
	if err != nil {
		return nil, err
	}
	return New(cfg), nil
}

type factory struct {
	cfg *Config

	defaultProvider *ProviderConfig
	toolModels      map[string][]string
	agentModels     map[string][]string
	byType          map[string]llms.Model
	byName          map[string]llms.Model
	lock            sync.Mutex
}

// New creates a new LLM factory
func New(cfg *Config) Factory {
	f := &factory{
		cfg:         cfg,
		byType:      make(map[string]llms.Model),
		byName:      make(map[string]llms.Model),
		toolModels:  make(map[string][]string),
		agentModels: make(map[string][]string),
	}

	for k, v := range cfg.ToolModels {
		f.toolModels[k] = slices.Clone(v)
	}
	for k, v := range cfg.AgentModels {
		f.agentModels[k] = slices.Clone(v)
	}

	if cfg.DefaultProvider != "" {
		for _, provider := range cfg.Providers {
			if provider.Name == cfg.DefaultProvider {
				f.defaultProvider = provider
				break
			}
		}
	}

	if f.defaultProvider == nil && len(f.cfg.Providers) > 0 {
		f.defaultProvider = f.cfg.Providers[0]
	}

	return f
}

// DetectProviderType returns a provider type from a model name prefix,
// e.g. "gpt-4o" is OpenAI, "claude-sonnet-4-5" is Anthropic,
// "gemini-2.5-pro" is Google AI.
func DetectProviderType(model string) (llms.ProviderType, error) {
	name := strings.ToLower(model)
	switch {
	case strings.HasPrefix(name, "gpt-"),
		strings.HasPrefix(name, "o1"),
		strings.HasPrefix(name, "o3"):
		return llms.ProviderOpenAI, nil
	case strings.HasPrefix(name, "claude-"):
		return llms.ProviderAnthropic, nil
	case strings.HasPrefix(name, "gemini-"):
		return llms.ProviderGoogleAI, nil
	case strings.Contains(name, ".anthropic."), strings.HasPrefix(name, "anthropic."):
		return llms.ProviderBedrock, nil
	}
	return "", errors.Errorf("unable to detect provider for model: %s", model)
}

// CreateLLM creates an LLM client from the provider config. When the
// provider type is not set, it is detected from the model name.
func CreateLLM(cfg *ProviderConfig, preferredModels ...string) (llms.Model, error) {
	provType := llms.ProviderType(strings.ToUpper(cfg.ProviderType))
	if cfg.ProviderType == "" {
		var err error
		provType, err = DetectProviderType(cfg.FindModel(preferredModels...))
		if err != nil {
			return nil, err
		}
	}

	switch provType {
	case llms.ProviderOpenAI, "OPEN_AI":
		return newOpenAI(cfg, preferredModels...)
	case llms.ProviderAnthropic:
		return newAnthropic(cfg, preferredModels...)
	case llms.ProviderGoogleAI:
		return newGoogleAI(cfg, preferredModels...)
	case llms.ProviderBedrock:
		return newBedrock(cfg, preferredModels...)
	}
	return nil, errors.Errorf("unsupported provider type: %s", provType)
}

func newOpenAI(cfg *ProviderConfig, preferredModels ...string) (llms.Model, error) {
	var opts []openai.Option
	model := cfg.FindModel(preferredModels...)
	opts = append(opts, openai.WithModel(model))

	if cfg.Token != "" {
		opts = append(opts, openai.WithToken(cfg.Token))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.OrgID != "" {
		opts = append(opts, openai.WithOrganization(cfg.OrgID))
	}
	return openai.New(opts...)
}

func newAnthropic(cfg *ProviderConfig, preferredModels ...string) (llms.Model, error) {
	var opts []anthropic.Option
	model := cfg.FindModel(preferredModels...)
	opts = append(opts, anthropic.WithModel(model))
	if cfg.Token != "" {
		opts = append(opts, anthropic.WithToken(cfg.Token))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}
	return anthropic.New(opts...)
}

func newGoogleAI(cfg *ProviderConfig, preferredModels ...string) (llms.Model, error) {
	var opts []googleai.Option
	model := cfg.FindModel(preferredModels...)
	opts = append(opts, googleai.WithDefaultModel(model))
	if cfg.Token != "" {
		opts = append(opts, googleai.WithAPIKey(cfg.Token))
	}
	return googleai.New(context.Background(), opts...)
}

func newBedrock(cfg *ProviderConfig, preferredModels ...string) (llms.Model, error) {
	var opts []bedrock.Option
	model := cfg.FindModel(preferredModels...)
	opts = append(opts, bedrock.WithModel(model))
	return bedrock.New(opts...)
}

// DefaultModel returns the default provider's model
func (f *factory) DefaultModel() (llms.Model, error) {
	if len(f.cfg.Providers) == 0 || f.defaultProvider == nil {
		return nil, errors.New("no providers configured")
	}

	return NewLLM(f.defaultProvider, f.defaultProvider.DefaultModel)
}

func (f *factory) ModelByType(providerType string) (llms.Model, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if client, ok := f.byType[providerType]; ok {
		return client, nil
	}

	for _, cfg := range f.cfg.Providers {
		if strings.EqualFold(cfg.ProviderType, providerType) {
			model, err := NewLLM(cfg)
			if err != nil {
				return nil, err
			}

			logger.KV(xlog.DEBUG,
				"status", "created_llm",
				"type", cfg.ProviderType,
				"name", cfg.Name)

			f.byType[providerType] = model
			return model, nil
		}
	}
	return nil, errors.Errorf("provider not found for type: %s", providerType)
}

func (f *factory) ModelByName(modelNames ...string) (llms.Model, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	for _, modelName := range modelNames {
		if client, ok := f.byName[modelName]; ok {
			return client, nil
		}

		for _, cfg := range f.cfg.Providers {
			if slices.Contains(cfg.AvailableModels, modelName) {
				model, err := NewLLM(cfg, modelNames...)
				if err != nil {
					logger.KV(xlog.ERROR,
						"reason", "NewLLM",
						"type", cfg.ProviderType,
						"models", modelNames,
					)
					continue
				}

				logger.KV(xlog.DEBUG,
					"status", "created_llm",
					"type", cfg.ProviderType,
					"name", cfg.Name)

				f.byName[modelName] = model
				return model, nil
			}
		}
	}
	return f.DefaultModel()
}

// ToolModel returns a tool model by its name.
func (f *factory) ToolModel(toolName string, preferredModels ...string) (llms.Model, error) {
	if modelNames, ok := f.toolModels[toolName]; ok {
		return f.ModelByName(modelNames...)
	}
	if modelNames, ok := f.toolModels["default"]; ok {
		return f.ModelByName(modelNames...)
	}
	return f.ModelByName(preferredModels...)
}

// AgentModel returns an agent model by its name.
func (f *factory) AgentModel(agentName string, preferredModels ...string) (llms.Model, error) {
	if modelNames, ok := f.agentModels[agentName]; ok {
		return f.ModelByName(modelNames...)
	}
	if modelNames, ok := f.agentModels["default"]; ok {
		return f.ModelByName(modelNames...)
	}
	return f.ModelByName(preferredModels...)
}
