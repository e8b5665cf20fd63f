package agent

import "errors"

// Sentinel errors for Agent state-machine misuse (§4.3).
var (
	// ErrNotIdle is returned by SendRequest when the Agent is not Idle.
	ErrNotIdle = errors.New("agent: not idle")

	// ErrNoActiveStream is returned by Cancel when there is nothing to cancel.
	ErrNoActiveStream = errors.New("agent: no active stream")

	// ErrUnknownCallId is returned by SubmitToolResult for a CallId the
	// Agent did not request in its last ToolRequest.
	ErrUnknownCallId = errors.New("agent: unknown call id")

	// ErrNotAwaitingToolResults is returned by SubmitToolResult when the
	// Agent is not in the AwaitingToolResults state.
	ErrNotAwaitingToolResults = errors.New("agent: not awaiting tool results")
)
