package bedrock

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/effective-security/goagent/pkg/llms"
	"github.com/effective-security/goagent/pkg/llms/bedrock/internal/bedrockclient"
)

const defaultModel = "anthropic.claude-3-5-sonnet-20241022-v2:0"

// LLM is a Bedrock LLM implementation.
type LLM struct {
	modelID string
	client  *bedrockclient.Client
}

var _ llms.Model = (*LLM)(nil)

// New creates a new Bedrock LLM implementation. Credentials and region come
// from the default AWS config chain unless a client is provided.
func New(opts ...Option) (*LLM, error) {
	options := &options{
		modelID: defaultModel,
	}

	for _, opt := range opts {
		opt(options)
	}

	if options.client == nil {
		cfg, err := config.LoadDefaultConfig(context.Background())
		if err != nil {
			return nil, err
		}
		options.client = bedrockruntime.NewFromConfig(cfg)
	}

	return &LLM{
		client:  bedrockclient.NewClient(options.client),
		modelID: options.modelID,
	}, nil
}

// GetName implements the Model interface.
func (l *LLM) GetName() string {
	return l.modelID
}

// GetProviderType implements the Model interface.
func (l *LLM) GetProviderType() llms.ProviderType {
	return llms.ProviderBedrock
}

// GenerateContent implements the Model interface.
func (l *LLM) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ChatResponse, error) {
	opts := llms.CallOptions{
		Model: l.modelID,
	}
	for _, opt := range options {
		opt(&opts)
	}

	return l.client.CreateCompletion(ctx, opts.Model, messages, opts)
}

type options struct {
	modelID string
	client  *bedrockruntime.Client
}

// Option is an option for the Bedrock LLM.
type Option func(*options)

// WithModel allows setting a custom model id,
// e.g. "anthropic.claude-3-5-sonnet-20241022-v2:0".
func WithModel(modelID string) Option {
	return func(o *options) {
		o.modelID = modelID
	}
}

// WithClient allows setting a custom bedrockruntime client.
func WithClient(client *bedrockruntime.Client) Option {
	return func(o *options) {
		o.client = client
	}
}
