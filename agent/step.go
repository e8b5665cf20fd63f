package agent

import ai "github.com/tcdent/codey"

// State is one of the Agent's four lifecycle states (§4.3).
type State string

const (
	Idle                State = "idle"
	Streaming           State = "streaming"
	AwaitingToolResults State = "awaiting_tool_results"
	Retrying            State = "retrying"
)

// Mode selects how send_request drives the underlying completion request.
type Mode string

const (
	// Normal is an ordinary conversational turn.
	Normal Mode = "normal"
	// Compaction suppresses tools and requests a summary; on completion
	// the caller is expected to replace the Agent's history with the
	// compacted form it returns.
	Compaction Mode = "compaction"
)

// StepKind tags the variant of an AgentStep.
type StepKind string

const (
	StepTextDelta       StepKind = "text_delta"
	StepThinkingDelta   StepKind = "thinking_delta"
	StepToolRequest     StepKind = "tool_request"
	StepFinished        StepKind = "finished"
	StepRetrying        StepKind = "retrying"
	StepError           StepKind = "error"
	StepCompactionDelta StepKind = "compaction_delta"
)

// AgentStep is the tagged union the Agent emits from Next/Steps (§4.3).
type AgentStep struct {
	Kind StepKind

	// Text carries the fragment for TextDelta/ThinkingDelta/CompactionDelta,
	// and the error message for Error.
	Text string

	// Calls carries every tool_use block from the turn, for ToolRequest.
	// Emitted exactly once per assistant turn that requests tools.
	Calls []ai.ToolCall

	// Usage carries token accounting for Finished.
	Usage ai.Usage

	// Attempt and Err describe a Retrying step.
	Attempt int
	Err     error
}

func textDelta(s string) AgentStep     { return AgentStep{Kind: StepTextDelta, Text: s} }
func thinkingDelta(s string) AgentStep { return AgentStep{Kind: StepThinkingDelta, Text: s} }
func compactionDelta(s string) AgentStep {
	return AgentStep{Kind: StepCompactionDelta, Text: s}
}
func toolRequest(calls []ai.ToolCall) AgentStep {
	return AgentStep{Kind: StepToolRequest, Calls: calls}
}
func finished(usage ai.Usage) AgentStep { return AgentStep{Kind: StepFinished, Usage: usage} }
func retrying(attempt int, err error) AgentStep {
	return AgentStep{Kind: StepRetrying, Attempt: attempt, Err: err}
}
func errorStep(err error) AgentStep {
	return AgentStep{Kind: StepError, Text: err.Error(), Err: err}
}
