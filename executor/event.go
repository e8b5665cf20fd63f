package executor

import (
	"encoding/json"

	ai "github.com/tcdent/codey"
)

// EventKind tags the variant of an Event yielded by Next (§4.2).
type EventKind string

const (
	EventAwaitingApproval    EventKind = "awaiting_approval"
	EventDelegate            EventKind = "delegate"
	EventDelta               EventKind = "delta"
	EventCompleted           EventKind = "completed"
	EventError               EventKind = "error"
	EventBackgroundStarted   EventKind = "background_started"
	EventBackgroundCompleted EventKind = "background_completed"
)

// Event is the tagged union Next returns, one per call at most.
type Event struct {
	Kind EventKind

	AgentId ai.AgentId
	CallId  ai.CallId
	Name    string

	// Params is set for AwaitingApproval.
	Params json.RawMessage
	// Background is set for AwaitingApproval. BackgroundStarted and
	// BackgroundCompleted leave it unset; their Kind already implies it.
	Background bool

	// Content carries the payload for Delta, Completed, and Error.
	Content string

	// Effect carries the delegated side effect for Delegate.
	Effect ai.Effect

	// ApprovalResponder is set for AwaitingApproval; the consumer must
	// eventually Resolve it (or drop it, which the Executor treats as
	// a cancellation once cancel() is called).
	ApprovalResponder *Responder[ApprovalResult]
	// EffectResponder is set for Delegate.
	EffectResponder *Responder[EffectResult]
}

// TaskInfo describes one background entry for list_tasks.
type TaskInfo struct {
	CallId ai.CallId
	Name   string
	Status string
}

// TaskResult is what take_result removes and returns.
type TaskResult struct {
	Name   string
	Output string
	Status string
}
