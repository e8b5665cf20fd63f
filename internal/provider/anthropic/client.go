package anthropic

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	ai "github.com/tcdent/codey"
)

// ChatModel identifies an Anthropic model by its API model string.
type ChatModel string

// String returns the model identifier.
func (m ChatModel) String() string { return string(m) }

const (
	ClaudeOpus45   ChatModel = "claude-opus-4-5"
	ClaudeSonnet45 ChatModel = "claude-sonnet-4-5"
	ClaudeHaiku45  ChatModel = "claude-haiku-4-5"
)

// DefaultChatModel is used when neither the client nor a per-request
// option names a model.
const DefaultChatModel = ClaudeSonnet45

// betaInterleavedThinking is the header value enabling interleaved
// thinking blocks alongside tool_use content in a single turn (§6.1).
const betaInterleavedThinking = "interleaved-thinking-2025-05-14"

// betaOAuth is the header value required on every request authenticated
// with a Claude.ai OAuth bearer token rather than an API key (§6.1).
const betaOAuth = "oauth-2025-04-20"

// Client wraps the Anthropic SDK to implement ai.ChatProvider.
type Client struct {
	client      *anthropic.Client
	model       ChatModel
	oauth       bool
	interleaved bool
}

// New creates a new Anthropic client authenticated with an API key.
func New(apiKey string, opts ...ClientOption) *Client {
	sdk := anthropic.NewClient(option.WithAPIKey(apiKey))
	c := &Client{
		client: &sdk,
		model:  DefaultChatModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewWithOAuth creates a new Anthropic client authenticated with a
// Claude.ai OAuth bearer token instead of an API key. The request omits
// the x-api-key header entirely and carries authorization: Bearer
// <token> plus the oauth beta header (§6.1).
func NewWithOAuth(token string, opts ...ClientOption) *Client {
	sdk := anthropic.NewClient(
		option.WithHeader("authorization", "Bearer "+token),
		option.WithHeader("anthropic-beta", betaOAuth),
	)
	c := &Client{
		client: &sdk,
		model:  DefaultChatModel,
		oauth:  true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClientOption configures the Anthropic client.
type ClientOption func(*Client)

// WithModel sets the default model for requests.
func WithModel(model ChatModel) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// WithInterleavedThinking requests the beta header enabling thinking
// blocks interleaved with tool_use content by default on every request
// this client sends. A per-request ai.WithInterleavedThinking(true) also
// turns the header on; a per-request false does not turn it off.
func WithInterleavedThinking() ClientOption {
	return func(c *Client) {
		c.interleaved = true
	}
}

// requestOptions builds the per-call SDK request options: the
// interleaved-thinking beta header, when needed, alongside whatever the
// client already carries for OAuth.
func (c *Client) requestOptions(interleaved bool) []option.RequestOption {
	if !interleaved {
		return nil
	}
	// WithHeader replaces the client-level anthropic-beta value, so an
	// OAuth client must repeat its own beta flag here.
	if c.oauth {
		return []option.RequestOption{option.WithHeader("anthropic-beta", betaOAuth+","+betaInterleavedThinking)}
	}
	return []option.RequestOption{option.WithHeader("anthropic-beta", betaInterleavedThinking)}
}

// Chat sends a conversation and returns a complete response.
func (c *Client) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	options := ai.ApplyOptions(opts...)
	params, interleaved := c.buildParams(messages, options)

	resp, err := c.client.Messages.New(ctx, params, c.requestOptions(interleaved)...)
	if err != nil {
		return nil, wrapError(err)
	}

	return toResponse(resp.Content, string(resp.StopReason), resp.Usage), nil
}

// ChatStream sends a conversation and returns a channel of streaming events.
func (c *Client) ChatStream(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan ai.StreamEvent, error) {
	options := ai.ApplyOptions(opts...)
	params, interleaved := c.buildParams(messages, options)

	stream := c.client.Messages.NewStreaming(ctx, params, c.requestOptions(interleaved)...)
	ch := make(chan ai.StreamEvent)

	go func() {
		defer close(ch)
		var acc anthropic.Message
		var thinkingSig string

		for stream.Next() {
			event := stream.Current()
			acc.Accumulate(event)

			switch event.Type {
			case "content_block_delta":
				delta := event.AsContentBlockDelta()
				switch delta.Delta.Type {
				case "text_delta":
					ch <- ai.StreamEvent{Delta: delta.Delta.AsTextDelta().Text}
				case "thinking_delta":
					ch <- ai.StreamEvent{ThinkingDelta: delta.Delta.AsThinkingDelta().Thinking}
				case "signature_delta":
					thinkingSig += delta.Delta.AsSignatureDelta().Signature
				}
			}
		}

		if err := stream.Err(); err != nil {
			ch <- ai.StreamEvent{Err: wrapError(err)}
			return
		}

		resp := toResponse(acc.Content, string(acc.StopReason), acc.Usage)
		if thinkingSig != "" {
			resp.ThinkingSignature = thinkingSig
		}
		ch <- ai.StreamEvent{Done: true, Response: resp, ThinkingSignature: thinkingSig}
	}()

	return ch, nil
}

// buildParams assembles the shared MessageNewParams for Chat and
// ChatStream, and reports whether interleaved thinking was requested
// for this call (either by client default or per-request option).
func (c *Client) buildParams(messages []ai.Message, options *ai.Options) (anthropic.MessageNewParams, bool) {
	model := c.model
	if options.Model != "" {
		model = ChatModel(options.Model)
	}

	maxTokens := int64(4096)
	if options.MaxTokens > 0 {
		maxTokens = int64(options.MaxTokens)
	}

	msgs, system := convertMessages(messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model.String()),
		MaxTokens: maxTokens,
		Messages:  msgs,
	}
	if len(system) > 0 {
		params.System = system
	}
	if options.Temperature != nil {
		params.Temperature = anthropic.Float(*options.Temperature)
	}

	if len(options.Tools) > 0 {
		params.Tools = convertTools(options.Tools)
		if options.ToolChoice != "" {
			params.ToolChoice = convertToolChoice(options.ToolChoice)
		}
	}

	if options.ThinkingBudget > 0 {
		params.Thinking = anthropic.ThinkingConfigParamUnion{
			OfEnabled: &anthropic.ThinkingConfigEnabledParam{BudgetTokens: int64(options.ThinkingBudget)},
		}
		// Anthropic requires temperature 1 whenever thinking is enabled.
		params.Temperature = anthropic.Float(1.0)
	}

	return params, c.interleaved || options.InterleavedThinking
}

// toResponse flattens an accumulated content-block slice into an
// ai.Response, carrying any thinking block's text (the signature is
// attached by the caller once the stream closes, or read directly from
// the block for non-streaming responses).
func toResponse(content []anthropic.ContentBlockUnion, stopReason string, usage anthropic.Usage) *ai.Response {
	text := ""
	thinking := ""
	thinkingSig := ""
	var toolCalls []ai.ToolCall
	for _, block := range content {
		switch block.Type {
		case "text":
			text += block.Text
		case "thinking":
			thinking += block.Thinking
			thinkingSig = block.Signature
		case "tool_use":
			toolCalls = append(toolCalls, ai.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: string(block.Input),
			})
		}
	}
	return &ai.Response{
		Content:           text,
		FinishReason:      stopReason,
		Usage:             ai.Usage{InputTokens: int(usage.InputTokens), OutputTokens: int(usage.OutputTokens)},
		ToolCalls:         toolCalls,
		Thinking:          thinking,
		ThinkingSignature: thinkingSig,
	}
}

// wrapError classifies an Anthropic SDK error into a ai.CategorizedError
// so internal/retry can decide whether to retry without importing the
// SDK itself.
func wrapError(err error) error {
	apiErr, ok := err.(*anthropic.Error)
	if !ok {
		return ai.NewTransientError("anthropic request failed", 0, err)
	}

	status := apiErr.StatusCode
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ai.NewPermanentError("anthropic authentication failed", status, apiErr)
	case status == http.StatusTooManyRequests:
		return ai.NewTransientErrorWithRetry("anthropic rate limited", status, retryAfterFromHeader(apiErr), apiErr)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return ai.NewUserInputError("anthropic rejected the request", status, apiErr)
	case status >= 500:
		return ai.NewTransientError("anthropic server error", status, apiErr)
	default:
		return ai.NewPermanentError("anthropic request failed", status, apiErr)
	}
}

// retryAfterFromHeader reads the server-supplied retry-after header off
// the raw HTTP response the SDK attaches to the error, if present.
func retryAfterFromHeader(apiErr *anthropic.Error) time.Duration {
	resp := apiErr.Response
	if resp == nil {
		return 0
	}
	seconds, err := strconv.Atoi(resp.Header.Get("retry-after"))
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

var _ ai.ChatProvider = (*Client)(nil)
