package agents

import (
	"slices"

	"github.com/effective-security/goagent/pkg/llms"
	"github.com/effective-security/goagent/store"
	"github.com/effective-security/goagent/tools"
)

const (
	// DefaultMaxIterations bounds the model/tool cycle of one run.
	DefaultMaxIterations = 10
	// DefaultMaxContentSize bounds the conversation size sent to the model.
	DefaultMaxContentSize = 4 * 1024 * 1024
	// DefaultMaxMessages bounds the conversation length sent to the model.
	DefaultMaxMessages = 200
)

// Option is a function that can be used to modify the behavior of the Agent Config.
type Option func(*Config)

// Config holds the construction-time and per-call settings of an agent.
type Config struct {
	// SystemPrompt is prepended to every conversation, if set.
	SystemPrompt string
	// ExtraInstructions are appended to the system prompt for one call,
	// e.g. output format instructions.
	ExtraInstructions string
	// MaxIterations bounds the number of model calls of one auto-execution run.
	MaxIterations int
	// MaxContentSize bounds the conversation size in bytes.
	MaxContentSize uint64
	// MaxMessages bounds the conversation length.
	MaxMessages int
	// Tools configured at construction. An agent with tools runs the
	// auto-execution loop; an agent without tools is single-shot.
	Tools []tools.ITool
	// Store persists conversation history across calls, if set.
	Store store.MessageStore
	// SkipMessageHistory disables persisting the run to the Store.
	SkipMessageHistory bool
	// CallbackHandler receives run events.
	CallbackHandler Callback
	// CallOptions are passed to every model call.
	CallOptions []llms.CallOption
}

// NewConfig creates a Config with defaults applied.
func NewConfig(options ...Option) *Config {
	cfg := &Config{
		MaxIterations:  DefaultMaxIterations,
		MaxContentSize: DefaultMaxContentSize,
		MaxMessages:    DefaultMaxMessages,
	}
	return cfg.Apply(options...)
}

// Apply returns a copy of the config with the given options applied.
// The slices are clipped so any append by an option or by the run loop
// reallocates instead of writing into the backing array shared with
// concurrent runs.
func (c *Config) Apply(options ...Option) *Config {
	cfg := *c
	cfg.Tools = slices.Clip(c.Tools)
	cfg.CallOptions = slices.Clip(c.CallOptions)
	for _, opt := range options {
		opt(&cfg)
	}
	return &cfg
}

// WithSystemPrompt sets the system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(c *Config) {
		c.SystemPrompt = prompt
	}
}

// WithExtraInstructions appends instructions to the system prompt.
func WithExtraInstructions(instructions string) Option {
	return func(c *Config) {
		c.ExtraInstructions = instructions
	}
}

// WithMaxIterations bounds the number of model calls of one run.
func WithMaxIterations(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxIterations = n
		}
	}
}

// WithMaxContentSize bounds the conversation size in bytes.
func WithMaxContentSize(n uint64) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxContentSize = n
		}
	}
}

// WithMaxMessages bounds the conversation length.
func WithMaxMessages(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxMessages = n
		}
	}
}

// WithTools configures the agent's tools. Configuring at least one tool
// switches Invoke into the auto-execution mode.
func WithTools(list ...tools.ITool) Option {
	return func(c *Config) {
		c.Tools = append(c.Tools, list...)
	}
}

// WithStore sets the conversation history store.
func WithStore(s store.MessageStore) Option {
	return func(c *Config) {
		c.Store = s
	}
}

// WithSkipMessageHistory disables persisting the run to the store.
func WithSkipMessageHistory(skip bool) Option {
	return func(c *Config) {
		c.SkipMessageHistory = skip
	}
}

// WithCallback sets the callback handler.
func WithCallback(cb Callback) Option {
	return func(c *Config) {
		c.CallbackHandler = cb
	}
}

// WithCallOptions sets options passed to every model call.
func WithCallOptions(opts ...llms.CallOption) Option {
	return func(c *Config) {
		c.CallOptions = append(c.CallOptions, opts...)
	}
}
