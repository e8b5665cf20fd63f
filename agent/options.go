package agent

import (
	ai "github.com/tcdent/codey"
	"github.com/tcdent/codey/internal/retry"
)

// ApprovalFilterFunc decides whether a tool call can bypass the Executor's
// approval gate before the Executor ever sees it. Returning
// ai.ApprovalUnset leaves the decision to the Executor (§4.3).
type ApprovalFilterFunc func(call ai.ToolCall) (ai.ApprovalDecision, string)

// Options contains configuration for an Agent.
type Options struct {
	// RetryConfig controls the backoff applied to transient transport
	// errors while Streaming or AwaitingToolResults (§4.3).
	RetryConfig retry.Config

	// ApprovalFilter, if set, is consulted for every tool call in a
	// ToolRequest before it is emitted.
	ApprovalFilter ApprovalFilterFunc

	// ChatOptions are passed through to the underlying ChatProvider on
	// every request (tool schemas, model, thinking budget, etc).
	ChatOptions []ai.Option
}

// Option is a functional option for configuring an Agent.
type Option func(*Options)

// WithRetryConfig overrides the default backoff configuration.
func WithRetryConfig(cfg retry.Config) Option {
	return func(o *Options) {
		o.RetryConfig = cfg
	}
}

// WithApprovalFilter sets the pre-Executor approval filter.
func WithApprovalFilter(fn ApprovalFilterFunc) Option {
	return func(o *Options) {
		o.ApprovalFilter = fn
	}
}

// WithChatOptions passes options through to the ChatProvider on every
// request this Agent makes.
func WithChatOptions(opts ...ai.Option) Option {
	return func(o *Options) {
		o.ChatOptions = append(o.ChatOptions, opts...)
	}
}

// WithModel is a convenience option to set the model for chat calls.
func WithModel(model string) Option {
	return func(o *Options) {
		o.ChatOptions = append(o.ChatOptions, ai.WithModel(model))
	}
}

// WithMaxTokens is a convenience option to set max tokens for chat calls.
func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.ChatOptions = append(o.ChatOptions, ai.WithMaxTokens(n))
	}
}

// WithTemperature is a convenience option to set temperature for chat calls.
func WithTemperature(t float64) Option {
	return func(o *Options) {
		o.ChatOptions = append(o.ChatOptions, ai.WithTemperature(t))
	}
}

// WithThinkingBudget enables extended thinking with the given token budget.
func WithThinkingBudget(tokens int) Option {
	return func(o *Options) {
		o.ChatOptions = append(o.ChatOptions, ai.WithThinkingBudget(tokens))
	}
}

// WithInterleavedThinking requests interleaved thinking/tool-use blocks.
func WithInterleavedThinking(enabled bool) Option {
	return func(o *Options) {
		o.ChatOptions = append(o.ChatOptions, ai.WithInterleavedThinking(enabled))
	}
}

// WithTools attaches tool schemas to every request this Agent makes.
func WithTools(tools []ai.Tool) Option {
	return func(o *Options) {
		o.ChatOptions = append(o.ChatOptions, ai.WithTools(tools))
	}
}

// ApplyOptions applies functional options to an Options struct with defaults.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{
		RetryConfig: retry.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
