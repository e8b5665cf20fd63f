// Package agent implements the Agent state machine (§4.3): one streaming
// LLM conversation, externally driven by the Event Loop via send_request,
// submit_tool_result, and cancel, and observed via a channel of AgentStep
// values.
package agent

import (
	"context"
	"errors"
	"sync"
	"time"

	ai "github.com/tcdent/codey"
	"github.com/tcdent/codey/internal/retry"
)

// Agent drives one streaming LLM conversation. It is safe for concurrent
// use: the public operations synchronize internally, while the actual
// streaming happens on a private goroutine that only ever talks back
// through the Steps channel.
type Agent struct {
	provider ai.ChatProvider
	opts     *Options

	mu      sync.Mutex
	state   State
	mode    Mode
	history []ai.Message

	baseCtx      context.Context
	cancelStream context.CancelFunc

	pendingOrder  []string
	pendingResult map[string]string
	pendingFilled map[string]bool

	steps chan AgentStep
}

// New constructs an Idle Agent over the given completion endpoint.
func New(provider ai.ChatProvider, opts ...Option) *Agent {
	return &Agent{
		provider: provider,
		opts:     ApplyOptions(opts...),
		state:    Idle,
		steps:    make(chan AgentStep, 64),
	}
}

// State reports the Agent's current lifecycle state.
func (a *Agent) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// History returns a copy of the Agent's accumulated message history.
func (a *Agent) History() []ai.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]ai.Message, len(a.history))
	copy(out, a.history)
	return out
}

// ReplaceHistory overwrites the Agent's history, for callers applying a
// compacted summary produced by a Compaction-mode turn (§4.3). Only valid
// while Idle.
func (a *Agent) ReplaceHistory(messages []ai.Message) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != Idle {
		return ErrNotIdle
	}
	a.history = append([]ai.Message(nil), messages...)
	return nil
}

// Steps returns the channel of AgentSteps the Event Loop selects on.
func (a *Agent) Steps() <-chan AgentStep { return a.steps }

// Next is a non-blocking convenience read of the next AgentStep, mirroring
// the spec's next() operation. ok is false when nothing is ready yet.
func (a *Agent) Next() (step AgentStep, ok bool) {
	select {
	case step = <-a.steps:
		return step, true
	default:
		return AgentStep{}, false
	}
}

// SendRequest appends a user message and begins streaming a response.
// mode selects Normal or Compaction (§4.3). Only valid while Idle.
func (a *Agent) SendRequest(ctx context.Context, text string, mode Mode) error {
	a.mu.Lock()
	if a.state != Idle {
		a.mu.Unlock()
		return ErrNotIdle
	}

	a.baseCtx = ctx
	a.mode = mode
	a.history = append(a.history, ai.Message{Role: ai.RoleUser, Content: text})
	a.state = Streaming
	history := append([]ai.Message(nil), a.history...)
	streamCtx, cancel := context.WithCancel(ctx)
	a.cancelStream = cancel
	a.mu.Unlock()

	go a.stream(streamCtx, history)
	return nil
}

// SubmitToolResult appends a tool_result for callId; may arrive in any
// order. Once every outstanding CallId from the last ToolRequest has a
// result, the Agent re-invokes the completion endpoint and transitions
// back to Streaming.
func (a *Agent) SubmitToolResult(callId string, text string) error {
	a.mu.Lock()
	if a.state != AwaitingToolResults {
		a.mu.Unlock()
		return ErrNotAwaitingToolResults
	}
	if _, known := a.pendingResult[callId]; !known {
		a.mu.Unlock()
		return ErrUnknownCallId
	}

	a.pendingResult[callId] = text
	a.pendingFilled[callId] = true

	for _, id := range a.pendingOrder {
		if !a.pendingFilled[id] {
			a.mu.Unlock()
			return nil
		}
	}

	results := make([]ai.ToolResult, 0, len(a.pendingOrder))
	for _, id := range a.pendingOrder {
		results = append(results, ai.ToolResult{ToolCallID: id, Content: a.pendingResult[id]})
	}
	a.history = append(a.history, ai.NewToolResultMessage(results...))
	a.pendingOrder = nil
	a.pendingResult = nil
	a.pendingFilled = nil
	a.state = Streaming
	history := append([]ai.Message(nil), a.history...)
	streamCtx, cancel := context.WithCancel(a.baseCtx)
	a.cancelStream = cancel
	a.mu.Unlock()

	go a.stream(streamCtx, history)
	return nil
}

// Cancel aborts the active stream (if any), drops pending tool_result
// expectations, transitions to Idle, and marks the latest assistant turn
// as interrupted so the next send can reference it coherently.
func (a *Agent) Cancel() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == Idle {
		return ErrNoActiveStream
	}
	if a.cancelStream != nil {
		a.cancelStream()
		a.cancelStream = nil
	}
	if n := len(a.history); n > 0 && a.history[n-1].Role == ai.RoleAssistant {
		a.history[n-1].Content += "\n[interrupted]"
	}
	a.pendingOrder = nil
	a.pendingResult = nil
	a.pendingFilled = nil
	a.state = Idle
	return nil
}

// stream owns one completion request/response cycle, retrying transient
// transport errors with backoff (§4.3, Retrying state) before handing the
// finished turn back to the Agent's own goroutine-safe state transition.
func (a *Agent) stream(ctx context.Context, history []ai.Message) {
	chatOpts := a.buildChatOptions()
	cfg := a.opts.RetryConfig

	for attempt := 1; ; attempt++ {
		streamCh, err := a.provider.ChatStream(ctx, history, chatOpts...)
		if err == nil {
			resp, drainErr := a.drain(streamCh)
			if drainErr == nil {
				a.finishResponse(resp)
				return
			}
			err = drainErr
		}

		if ctx.Err() != nil {
			return // cancelled; Cancel() already reset state
		}
		if !retry.IsTransient(err) || attempt >= cfg.MaxAttempts {
			a.finishError(err)
			return
		}

		a.emit(retrying(attempt, err))
		select {
		case <-ctx.Done():
			return
		case <-time.After(cfg.Delay(attempt - 1)):
		}
	}
}

// drain consumes a stream of StreamEvents, forwarding content fragments as
// AgentSteps, and returns the final accumulated Response.
func (a *Agent) drain(ch <-chan ai.StreamEvent) (*ai.Response, error) {
	mode := a.modeSnapshot()

	for ev := range ch {
		if ev.Err != nil {
			return nil, ev.Err
		}
		if ev.Delta != "" {
			if mode == Compaction {
				a.emit(compactionDelta(ev.Delta))
			} else {
				a.emit(textDelta(ev.Delta))
			}
		}
		if ev.ThinkingDelta != "" {
			a.emit(thinkingDelta(ev.ThinkingDelta))
		}
		if ev.Done {
			if ev.Response == nil {
				return nil, errors.New("agent: stream finished without a response")
			}
			return ev.Response, nil
		}
	}
	return nil, errors.New("agent: stream closed without a final response")
}

// finishResponse commits the assistant turn to history and transitions to
// AwaitingToolResults or back to Idle.
func (a *Agent) finishResponse(resp *ai.Response) {
	a.mu.Lock()

	a.history = append(a.history, ai.Message{
		Role:              ai.RoleAssistant,
		Content:           resp.Content,
		ToolCalls:         resp.ToolCalls,
		Thinking:          resp.Thinking,
		ThinkingSignature: resp.ThinkingSignature,
	})
	a.cancelStream = nil

	if len(resp.ToolCalls) > 0 && a.mode != Compaction {
		calls := applyApprovalFilter(resp.ToolCalls, a.opts.ApprovalFilter)
		a.pendingOrder = make([]string, 0, len(calls))
		a.pendingResult = make(map[string]string, len(calls))
		a.pendingFilled = make(map[string]bool, len(calls))
		for _, c := range calls {
			a.pendingOrder = append(a.pendingOrder, c.ID)
			a.pendingResult[c.ID] = ""
		}
		a.state = AwaitingToolResults
		a.mu.Unlock()
		a.emit(toolRequest(calls))
		return
	}

	a.state = Idle
	a.mu.Unlock()
	a.emit(finished(resp.Usage))
}

// finishError transitions to Idle and emits an Error step after retries
// are exhausted or a permanent error occurs.
func (a *Agent) finishError(err error) {
	a.mu.Lock()
	a.state = Idle
	a.cancelStream = nil
	a.pendingOrder = nil
	a.pendingResult = nil
	a.pendingFilled = nil
	a.mu.Unlock()
	a.emit(errorStep(err))
}

func (a *Agent) emit(step AgentStep) {
	a.steps <- step
}

func (a *Agent) modeSnapshot() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// buildChatOptions assembles the per-request options: the Agent's
// configured ChatOptions, plus a tool-suppressing ToolChoice when this
// turn is Compaction mode (§4.3).
func (a *Agent) buildChatOptions() []ai.Option {
	opts := append([]ai.Option(nil), a.opts.ChatOptions...)
	if a.modeSnapshot() == Compaction {
		opts = append(opts, ai.WithToolChoice(ai.ToolChoiceNone))
	}
	return opts
}

// applyApprovalFilter sets the Decision/DenyReason fields on every call
// from a configured filter, so read-only tools can bypass approval
// without the Executor needing to re-derive it (§4.3).
func applyApprovalFilter(calls []ai.ToolCall, filter ApprovalFilterFunc) []ai.ToolCall {
	if filter == nil {
		return calls
	}
	out := make([]ai.ToolCall, len(calls))
	for i, c := range calls {
		decision, reason := filter(c)
		c.Decision = decision
		c.DenyReason = reason
		out[i] = c
	}
	return out
}
