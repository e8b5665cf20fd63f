package loop

import (
	ai "github.com/tcdent/codey"
	"github.com/tcdent/codey/executor"
)

// ApprovalRequest is what the Loop hands to Observer.ApprovalPrompt: the
// sole visible prompt for the Approval Resource until its Responder
// resolves (§5, shared-resource policy).
type ApprovalRequest struct {
	AgentId    ai.AgentId
	CallId     ai.CallId
	Name       string
	Params     []byte
	Background bool
	// Label is the originating Agent's registered label, e.g. for
	// annotating a sub-agent's prompt ("[refactor module X]"). Empty
	// for the primary Agent.
	Label string

	Responder *executor.Responder[executor.ApprovalResult]
}

// Observer receives everything the Loop surfaces for display. A caller
// (the terminal UI, a test double) implements this to drive its own
// rendering; the Loop never blocks waiting on it.
type Observer interface {
	// TextDelta forwards an assistant text, thinking, or compaction
	// fragment from agentId's stream.
	TextDelta(agentId ai.AgentId, text string)
	// ToolDelta forwards a streaming fragment produced while callId is
	// running.
	ToolDelta(agentId ai.AgentId, callId ai.CallId, text string)
	// ApprovalPrompt shows req. The Loop guarantees at most one
	// outstanding ApprovalPrompt call until that req's Responder
	// resolves.
	ApprovalPrompt(req ApprovalRequest)
	// Notice surfaces a user-visible, non-blocking informational
	// message (retry attempts, background completions, agent errors).
	Notice(text string)
}

// NoOpObserver discards everything; useful for headless drivers and
// tests that only care about the Loop's side effects on the registry
// and executor.
type NoOpObserver struct{}

func (NoOpObserver) TextDelta(ai.AgentId, string)            {}
func (NoOpObserver) ToolDelta(ai.AgentId, ai.CallId, string) {}
func (NoOpObserver) ApprovalPrompt(ApprovalRequest)          {}
func (NoOpObserver) Notice(string)                           {}
