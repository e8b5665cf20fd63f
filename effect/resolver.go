package effect

import (
	"fmt"
	"strings"

	ai "github.com/tcdent/codey"
	"github.com/tcdent/codey/executor"
)

// BackgroundInspector serves the list_tasks/get_task_result effect
// variants, which the Tool Executor answers itself rather than the IDE
// bridge (§4.2, §4.5). *executor.Executor satisfies this directly.
type BackgroundInspector interface {
	ListTasks() []executor.TaskInfo
	TakeResult(callId ai.CallId) (executor.TaskResult, bool)
}

// PendingEffect is one delegated effect queued for resolution (§4.5).
// Responder is the same one-shot handoff the Executor created when it
// emitted the originating Delegate event.
type PendingEffect struct {
	AgentId   ai.AgentId
	CallId    ai.CallId
	Effect    ai.Effect
	Responder *executor.Responder[executor.EffectResult]
}

// FromEvent builds a PendingEffect from a Delegate Event, the form the
// Event Loop will use in practice.
func FromEvent(ev executor.Event) PendingEffect {
	return PendingEffect{
		AgentId:   ev.AgentId,
		CallId:    ev.CallId,
		Effect:    ev.Effect,
		Responder: ev.EffectResponder,
	}
}

// Delivery reports a PendingEffect the Resolver resolved this Tick, for
// callers that want to log or notify on resolution.
type Delivery struct {
	AgentId ai.AgentId
	CallId  ai.CallId
	Result  executor.EffectResult
}

// Resolver serves delegated effects without blocking (§4.5).
type Resolver struct {
	bridge IdeBridge
	tasks  BackgroundInspector
	queue  []PendingEffect
}

// New constructs a Resolver. tasks is almost always the same
// *executor.Executor the Event Loop is already driving.
func New(bridge IdeBridge, tasks BackgroundInspector) *Resolver {
	return &Resolver{bridge: bridge, tasks: tasks}
}

// Enqueue adds a newly delegated effect to the FIFO queue.
func (r *Resolver) Enqueue(pe PendingEffect) {
	r.queue = append(r.queue, pe)
}

// Tick walks the queue once in FIFO order: an effect whose Resource is
// already held by an earlier entry this tick is left queued; otherwise
// it's polled, resolved and removed if Ready, or left queued (now
// holding its Resource, if any, against later entries) if still
// Pending. Returns every effect resolved this Tick.
func (r *Resolver) Tick() []Delivery {
	held := make(map[ai.Resource]bool)
	remaining := r.queue[:0]
	var delivered []Delivery

	for _, pe := range r.queue {
		res := pe.Effect.Resource()
		if res != "" && held[res] {
			remaining = append(remaining, pe)
			continue
		}

		result, ready := r.poll(pe.Effect)
		if !ready {
			if res != "" {
				held[res] = true
			}
			remaining = append(remaining, pe)
			continue
		}

		if pe.Responder != nil {
			pe.Responder.Resolve(result)
		}
		delivered = append(delivered, Delivery{AgentId: pe.AgentId, CallId: pe.CallId, Result: result})
	}

	r.queue = remaining
	return delivered
}

// poll dispatches one Effect variant. The bool return is Ready; a false
// return leaves the effect in the queue for the next Tick.
func (r *Resolver) poll(e ai.Effect) (executor.EffectResult, bool) {
	switch e.Kind {
	case ai.EffectIdeOpen:
		return errResult(r.bridge.Open(e.Path)), true

	case ai.EffectIdeReload:
		return errResult(r.bridge.Reload(e.Path)), true

	case ai.EffectIdeShowPreview:
		if r.bridge.PreviewOpen() {
			return executor.EffectResult{}, false
		}
		return errResult(r.bridge.ShowPreview(encodePreviewPayload(e.Path))), true

	case ai.EffectIdeShowDiffPreview:
		if r.bridge.PreviewOpen() {
			return executor.EffectResult{}, false
		}
		return errResult(r.bridge.ShowDiffPreview(encodeDiffPreviewPayload(e.Path, e.Edits, e.Diagnostics))), true

	case ai.EffectIdeClosePreview:
		return errResult(r.bridge.ClosePreview()), true

	case ai.EffectListTasks:
		return executor.EffectResult{Output: formatTaskList(r.tasks.ListTasks())}, true

	case ai.EffectGetTaskResult:
		result, ok := r.tasks.TakeResult(e.TaskCallId)
		if !ok {
			// Still running (or unknown): keep polling rather than
			// erroring, since the background task may simply not have
			// finished yet.
			return executor.EffectResult{}, false
		}
		return executor.EffectResult{Output: formatTaskResult(result)}, true

	default:
		return executor.EffectResult{Err: fmt.Errorf("effect: unknown kind %q", e.Kind)}, true
	}
}

func errResult(err error) executor.EffectResult {
	return executor.EffectResult{Err: err}
}

func formatTaskList(tasks []executor.TaskInfo) string {
	if len(tasks) == 0 {
		return "no background tasks"
	}
	lines := make([]string, len(tasks))
	for i, t := range tasks {
		lines[i] = fmt.Sprintf("%s (%s) [%s]", t.CallId, t.Name, capitalize(string(t.Status)))
	}
	return strings.Join(lines, "\n")
}

func formatTaskResult(result executor.TaskResult) string {
	return result.Output
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
