package codey

// Options contains configuration for a single completion request sent to
// the LLM collaborator (§6.1).
type Options struct {
	Model       string
	MaxTokens   int
	Temperature *float64

	// Tools lists the schemas available to the model for this request.
	Tools []Tool
	// ToolChoice constrains how the model may use Tools.
	ToolChoice ToolChoice

	// ThinkingBudget requests extended/interleaved thinking with the given
	// token budget. Zero disables thinking.
	ThinkingBudget int
	// InterleavedThinking requests that thinking blocks may be interleaved
	// with tool use in a single assistant turn (the Anthropic provider
	// attaches a beta header for it on every such request, for API-key and
	// OAuth clients alike; see internal/provider/anthropic).
	InterleavedThinking bool
}

// Option is a functional option for configuring chat requests.
type Option func(*Options)

// WithModel sets the model to use for the request.
func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// WithTemperature sets the sampling temperature (0.0 to 2.0).
func WithTemperature(t float64) Option {
	return func(o *Options) {
		o.Temperature = &t
	}
}

// WithTools attaches tool schemas to the request.
func WithTools(tools []Tool) Option {
	return func(o *Options) {
		o.Tools = tools
	}
}

// WithToolChoice constrains how the model may use the attached tools.
func WithToolChoice(choice ToolChoice) Option {
	return func(o *Options) {
		o.ToolChoice = choice
	}
}

// WithThinkingBudget enables extended thinking with the given token budget.
func WithThinkingBudget(tokens int) Option {
	return func(o *Options) {
		o.ThinkingBudget = tokens
	}
}

// WithInterleavedThinking requests interleaved thinking/tool-use blocks.
func WithInterleavedThinking(enabled bool) Option {
	return func(o *Options) {
		o.InterleavedThinking = enabled
	}
}

// ApplyOptions applies functional options to an Options struct.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
