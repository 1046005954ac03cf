package llms

// CallOption is a function that configures a CallOptions.
type CallOption func(*CallOptions)

// CallOptions is a set of options for calling models. Not all models support
// all options.
type CallOptions struct {
	// Model is the model to use.
	Model string
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int
	// Temperature is the temperature for sampling, between 0 and 1.
	Temperature float64
	// TopP is the cumulative probability for top-p sampling.
	TopP float64
	// StopWords is a list of words to stop on.
	StopWords []string
	// Seed is a seed for deterministic sampling.
	Seed int
	// Tools is the list of tool specs the model may call.
	Tools []ToolSpec
	// ToolChoice is the choice of tool to use, it can either be "none",
	// "auto" (the default behavior), or a specific tool name.
	ToolChoice string
	// JSONResponse requests a JSON-formatted reply where the provider supports it.
	JSONResponse bool
}

// ApplyCallOptions folds the options into a CallOptions struct.
func ApplyCallOptions(options ...CallOption) *CallOptions {
	opts := &CallOptions{}
	for _, opt := range options {
		opt(opts)
	}
	return opts
}

// WithModel specifies which model name to use.
func WithModel(model string) CallOption {
	return func(o *CallOptions) {
		o.Model = model
	}
}

// WithMaxTokens specifies the max number of tokens to generate.
func WithMaxTokens(maxTokens int) CallOption {
	return func(o *CallOptions) {
		o.MaxTokens = maxTokens
	}
}

// WithTemperature specifies the model temperature, a hyperparameter that
// regulates the randomness, or creativity, of the AI's responses.
func WithTemperature(temperature float64) CallOption {
	return func(o *CallOptions) {
		o.Temperature = temperature
	}
}

// WithTopP will add an option to use top-p sampling.
func WithTopP(topP float64) CallOption {
	return func(o *CallOptions) {
		o.TopP = topP
	}
}

// WithStopWords specifies a list of words to stop generation on.
func WithStopWords(stopWords []string) CallOption {
	return func(o *CallOptions) {
		o.StopWords = stopWords
	}
}

// WithSeed will add an option to use deterministic sampling.
func WithSeed(seed int) CallOption {
	return func(o *CallOptions) {
		o.Seed = seed
	}
}

// WithTools will add an option to set the tools the model may call.
func WithTools(tools []ToolSpec) CallOption {
	return func(o *CallOptions) {
		o.Tools = tools
	}
}

// WithToolChoice will add an option to set the choice of tool to use.
func WithToolChoice(choice string) CallOption {
	return func(o *CallOptions) {
		o.ToolChoice = choice
	}
}

// WithJSONResponse requests a JSON-formatted reply.
func WithJSONResponse() CallOption {
	return func(o *CallOptions) {
		o.JSONResponse = true
	}
}
