// Package agent implements the Agent state machine that drives one
// streaming LLM conversation (§4.3).
//
// An Agent is externally driven: the caller (normally the Event Loop,
// see package loop) calls SendRequest to start a turn, reads AgentSteps
// off Steps() as they stream in, and calls SubmitToolResult once for
// every CallId a ToolRequest step named. The Agent never executes tools
// itself — that is the Tool Executor's job (see package executor).
//
// # Basic usage
//
//	a := agent.New(provider, agent.WithTools(registry.Tools()))
//	_ = a.SendRequest(ctx, "list the files in this repo", agent.Normal)
//
//	for step := range a.Steps() {
//	    switch step.Kind {
//	    case agent.StepTextDelta:
//	        fmt.Print(step.Text)
//	    case agent.StepToolRequest:
//	        for _, call := range step.Calls {
//	            // hand off to the Tool Executor, then:
//	            _ = a.SubmitToolResult(call.ID, result)
//	        }
//	    case agent.StepFinished:
//	        return
//	    }
//	}
//
// # Approval filters
//
// WithApprovalFilter lets read-only tools bypass the Executor's approval
// gate entirely: the Agent sets Decision/DenyReason on each ToolCall in
// a ToolRequest step before the Executor ever sees it. The Executor only
// re-derives a decision for calls left at ApprovalUnset.
//
// # Compaction
//
// SendRequest's Compaction mode suppresses tools and asks for a summary
// instead. The caller is expected to call ReplaceHistory with the
// compacted form once the turn finishes.
package agent
