package loop

import (
	"context"
	"fmt"

	ai "github.com/tcdent/codey"
	"github.com/tcdent/codey/agent"
	"github.com/tcdent/codey/effect"
	"github.com/tcdent/codey/executor"
	"github.com/tcdent/codey/notify"
	"github.com/tcdent/codey/registry"
)

// pendingApproval tracks one queued AwaitingApproval event plus whether
// it has already been surfaced to the Observer, so a second Tick never
// re-shows a prompt the first Tick already displayed.
type pendingApproval struct {
	req   ApprovalRequest
	shown bool
}

// Loop is the single-threaded cooperative scheduler described in §4.7.
// It is driven by repeated Tick calls; nothing here spawns a goroutine
// or blocks, in keeping with §5's suspension-point discipline.
type Loop struct {
	registry *registry.AgentRegistry
	executor *executor.Executor
	resolver *effect.Resolver
	notices  *notify.Queue
	observer Observer

	messageQueue     []string
	pendingApprovals []*pendingApproval

	quitting bool
}

// New wires a Loop around the three objects it multiplexes. obs may be
// nil, in which case every surfaced event is discarded.
func New(reg *registry.AgentRegistry, exec *executor.Executor, res *effect.Resolver, obs Observer) *Loop {
	if obs == nil {
		obs = NoOpObserver{}
	}
	return &Loop{
		registry: reg,
		executor: exec,
		resolver: res,
		notices:  &notify.Queue{},
		observer: obs,
	}
}

// SubmitUserMessage enqueues text for delivery to the primary Agent the
// next time it is Idle (§4.7 dispatch rule 1). Arriving mid-turn, it is
// instead injected as a Notification at the next tool-result boundary —
// callers should route that case through Notify, not this method.
func (l *Loop) SubmitUserMessage(text string) {
	l.messageQueue = append(l.messageQueue, text)
}

// Notify enqueues an out-of-band Notification for injection at the next
// tool-result boundary, or deferral until Idle if its Kind is not
// Injectable (§4.6).
func (l *Loop) Notify(n notify.Notification) {
	l.notices.Enqueue(n)
}

// Quitting reports whether Quit has been called.
func (l *Loop) Quitting() bool { return l.quitting }

// Quit cancels the tool executor and every registered Agent (primary and
// spawned). Per §4.7's quit handling, the caller is responsible for
// flushing the persisted transcript afterward and exiting.
func (l *Loop) Quit() {
	l.executor.Cancel()
	for _, id := range l.registry.All() {
		if a, ok := l.registry.Agent(id); ok {
			_ = a.Cancel()
		}
	}
	l.quitting = true
}

// Tick performs one unit of ready work, in the priority order of §4.7:
// pending-effect resolution (which resolves every ready effect in that
// one step), queued-approval bookkeeping, Agent steps,
// Tool Executor events, then (only when the primary Agent is Idle) the
// message queue. It returns false once nothing is ready, so a caller
// typically loops `for l.Tick(ctx) {}` until idle, then waits on
// whatever external input source feeds it next.
func (l *Loop) Tick(ctx context.Context) bool {
	if l.tickEffects() {
		return true
	}
	if l.tickApprovals() {
		return true
	}
	if l.tickAgentSteps(ctx) {
		return true
	}
	if l.tickExecutorEvents() {
		return true
	}
	if l.tickMessageQueue(ctx) {
		return true
	}
	return false
}

func (l *Loop) tickEffects() bool {
	return len(l.resolver.Tick()) > 0
}

// tickApprovals shows the head of the pending-approval queue exactly
// once, and pops it the moment its Responder carries a decision — a
// non-destructive Poll, so it never races the Executor's own resolution
// of the same Responder (§5 cancel-safety).
func (l *Loop) tickApprovals() bool {
	if len(l.pendingApprovals) == 0 {
		return false
	}
	head := l.pendingApprovals[0]
	if !head.shown {
		l.observer.ApprovalPrompt(head.req)
		head.shown = true
		return true
	}
	if _, ready := head.req.Responder.Poll(); ready {
		l.pendingApprovals = l.pendingApprovals[1:]
		if len(l.pendingApprovals) > 0 && !l.pendingApprovals[0].shown {
			l.observer.ApprovalPrompt(l.pendingApprovals[0].req)
			l.pendingApprovals[0].shown = true
		}
		return true
	}
	return false
}

func (l *Loop) tickAgentSteps(ctx context.Context) bool {
	agentId, step, ok := l.registry.Next()
	if !ok {
		return false
	}
	switch step.Kind {
	case agent.StepTextDelta, agent.StepThinkingDelta, agent.StepCompactionDelta:
		l.observer.TextDelta(agentId, step.Text)
	case agent.StepToolRequest:
		l.executor.Enqueue(agentId, step.Calls)
	case agent.StepFinished:
		if agentId != ai.PrimaryAgentId {
			if sender, ok := l.registry.Finish(agentId); ok {
				sender(l.registry.ResultText(agentId))
			}
		}
	case agent.StepRetrying:
		l.observer.Notice(fmt.Sprintf("agent %d retrying (attempt %d): %v", agentId, step.Attempt, step.Err))
	case agent.StepError:
		l.observer.Notice(fmt.Sprintf("agent %d error: %s", agentId, step.Text))
	}
	return true
}

func (l *Loop) tickExecutorEvents() bool {
	ev, ok := l.executor.Next(context.Background())
	if !ok {
		return false
	}
	switch ev.Kind {
	case executor.EventAwaitingApproval:
		label, _ := l.registry.Label(ev.AgentId)
		l.pendingApprovals = append(l.pendingApprovals, &pendingApproval{req: ApprovalRequest{
			AgentId:    ev.AgentId,
			CallId:     ev.CallId,
			Name:       ev.Name,
			Params:     ev.Params,
			Background: ev.Background,
			Label:      label,
			Responder:  ev.ApprovalResponder,
		}})
	case executor.EventDelegate:
		l.resolver.Enqueue(effect.FromEvent(ev))
	case executor.EventDelta:
		l.observer.ToolDelta(ev.AgentId, ev.CallId, ev.Content)
	case executor.EventCompleted, executor.EventError:
		content := notify.Inject(ev.Content, l.notices.DrainInjectable())
		l.submitToolResult(ev.AgentId, ev.CallId, content)
	case executor.EventBackgroundStarted:
		l.submitToolResult(ev.AgentId, ev.CallId, fmt.Sprintf("Running in background (task_id: %s)", ev.CallId))
	case executor.EventBackgroundCompleted:
		l.observer.Notice(fmt.Sprintf("%s (%s) finished in the background", ev.CallId, ev.Name))
		l.notices.Enqueue(notify.Notification{
			Kind:        notify.KindBackgroundTaskCompleted,
			Content:     fmt.Sprintf("Background task %s (%s) has completed. Call get_background_task to retrieve its result.", ev.CallId, ev.Name),
			SourceLabel: ev.Name,
		})
	}
	return true
}

func (l *Loop) tickMessageQueue(ctx context.Context) bool {
	if len(l.messageQueue) == 0 {
		return false
	}
	primary, ok := l.registry.Agent(ai.PrimaryAgentId)
	if !ok || primary.State() != agent.Idle {
		return false
	}
	text := l.messageQueue[0]
	l.messageQueue = l.messageQueue[1:]
	_ = primary.SendRequest(ctx, text, agent.Normal)
	return true
}

func (l *Loop) submitToolResult(agentId ai.AgentId, callId ai.CallId, content string) {
	a, ok := l.registry.Agent(agentId)
	if !ok {
		return
	}
	_ = a.SubmitToolResult(string(callId), content)
}
