package executor

import (
	"context"
	"encoding/json"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	ai "github.com/tcdent/codey"
	"github.com/tcdent/codey/pipeline"
)

// ComposeFunc builds the Pipeline for one tool call. tool.Registry.Compose
// satisfies this signature directly.
type ComposeFunc func(agentId ai.AgentId, call ai.ToolCall) *pipeline.Pipeline

// activePipeline is the Executor's bookkeeping for one ToolCall's
// Pipeline, matching §4.2's ActivePipeline record.
type activePipeline struct {
	agentId ai.AgentId
	callId  ai.CallId
	name    string
	params  json.RawMessage

	pipeline *pipeline.Pipeline
	output   string
	status   pipeline.Status

	originalDecision ai.ApprovalDecision
	originalReason   string

	background        bool
	backgroundStarted bool

	pendingApproval *Responder[ApprovalResult]
	pendingEffect   *Responder[EffectResult]

	// deferredStep holds a Step already produced by Advance but not yet
	// translated into an Event, for the tick where a background call's
	// first real Step (Delta/Delegate) arrives in the same Advance call
	// that also needs to emit BackgroundStarted — only one Event may
	// leave a single Next() call, so the Step's payload is replayed on
	// the following poll instead of being re-derived (a second Advance
	// call would not reproduce it; see poll's comment).
	deferredStep *pipeline.Step

	cancelled bool
}

// Executor runs many Pipelines concurrently on a single thread (§4.2).
// It is not safe for concurrent use from multiple goroutines: like the
// rest of the core, it is driven exclusively by the single-threaded
// Event Loop.
type Executor struct {
	compose ComposeFunc
	filters *FilterSet

	pending []*activePipeline
	active  map[ai.CallId]*activePipeline
	order   []ai.CallId

	cancelRequested bool

	logger *slog.Logger
	tracer trace.Tracer

	backgroundStartedCounter metric.Int64Counter
	approvalCounter          metric.Int64Counter
}

// Option configures an Executor.
type Option func(*Executor)

// WithFilters installs the approval FilterSet.
func WithFilters(fs *FilterSet) Option {
	return func(e *Executor) { e.filters = fs }
}

// WithLogger overrides the default slog.Logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// New constructs an Executor. compose is called once per ToolCall, at
// the moment it is promoted from pending to active, to build its
// Pipeline — almost always tool.Registry.Compose.
func New(compose ComposeFunc, opts ...Option) *Executor {
	meter := otel.Meter("github.com/tcdent/codey/executor")
	bgCounter, _ := meter.Int64Counter("codey.executor.background_started")
	approvalCounter, _ := meter.Int64Counter("codey.executor.approval_gates")

	e := &Executor{
		compose:                  compose,
		active:                   make(map[ai.CallId]*activePipeline),
		logger:                   slog.Default(),
		tracer:                   otel.Tracer("github.com/tcdent/codey/executor"),
		backgroundStartedCounter: bgCounter,
		approvalCounter:          approvalCounter,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enqueue appends calls to the pending queue (§4.2, op 1). They are not
// started until Next is polled. A call's Decision, when already set
// (e.g. by the Agent's pre-Executor approval filter), is honored
// verbatim when its Pipeline reaches an approval gate.
func (e *Executor) Enqueue(agentId ai.AgentId, calls []ai.ToolCall) {
	for _, call := range calls {
		e.logger.Debug("tool call enqueued", "agent_id", agentId, "call_id", call.ID, "tool", call.Name)
		e.pending = append(e.pending, &activePipeline{
			agentId:          agentId,
			callId:           ai.CallId(call.ID),
			name:             call.Name,
			params:           json.RawMessage(call.Arguments),
			originalDecision: call.Decision,
			originalReason:   call.DenyReason,
			background:       parseBackground(call.Arguments),
			status:           pipeline.StatusPending,
		})
	}
}

func parseBackground(arguments string) bool {
	var p struct {
		Background bool `json:"background"`
	}
	_ = json.Unmarshal([]byte(arguments), &p)
	return p.Background
}

// Next promotes pending calls, polls every active Pipeline for at most
// one event, and returns the first one found. ok is false only when
// pending is empty and no active Pipeline is ready (§4.2, op 2).
func (e *Executor) Next(ctx context.Context) (Event, bool) {
	e.promote()

	if e.cancelRequested {
		e.cancelRequested = false
		e.pending = nil
		for _, ap := range e.active {
			ap.cancelled = true
		}
	}

	live := e.order[:0]
	var found *Event
	for _, id := range e.order {
		ap, ok := e.active[id]
		if !ok {
			continue
		}
		live = append(live, id)
		if found != nil {
			continue
		}
		if ev, ok := e.poll(ctx, ap); ok {
			found = &ev
		}
	}
	e.order = live

	if found != nil {
		return *found, true
	}
	return Event{}, false
}

func (e *Executor) promote() {
	for _, ap := range e.pending {
		ap.pipeline = e.compose(ap.agentId, ai.ToolCall{
			ID:         string(ap.callId),
			Name:       ap.name,
			Arguments:  string(ap.params),
			Decision:   ap.originalDecision,
			DenyReason: ap.originalReason,
		})
		e.active[ap.callId] = ap
		e.order = append(e.order, ap.callId)
	}
	e.pending = nil
}

// poll drives one active Pipeline according to §4.2's polling policy:
// non-destructively check a pending responder first, otherwise advance
// the Pipeline and translate the resulting Step into at most one Event.
func (e *Executor) poll(ctx context.Context, ap *activePipeline) (Event, bool) {
	if ap.cancelled {
		return e.forceCancel(ap), true
	}

	if ap.pendingApproval != nil {
		result, ready := ap.pendingApproval.Poll()
		if !ready {
			return Event{}, false
		}
		ap.pendingApproval = nil
		ap.pipeline.ResolveApproval(result.Approved, result.Cancelled, result.Reason)
		if !result.Approved || result.Cancelled {
			// Denied or cancelled: never announce BackgroundStarted for a
			// call that never ran (open question decision 1). The next
			// Advance call drives the Pipeline to StepDone and handleDone
			// routes it straight to Error.
			return Event{}, false
		}
		return e.maybeBackgroundStarted(ap)
	}

	if ap.pendingEffect != nil {
		result, ready := ap.pendingEffect.Poll()
		if !ready {
			return Event{}, false
		}
		ap.pendingEffect = nil
		ap.pipeline.ResolveEffect(result.Output, result.Err)
		return Event{}, false
	}

	if ap.deferredStep != nil {
		step := *ap.deferredStep
		ap.deferredStep = nil
		return e.dispatchStep(ap, step)
	}

	ctx, span := e.tracer.Start(ctx, "executor.advance", trace.WithAttributes(
		attribute.String("tool.name", ap.name),
		attribute.String("tool.call_id", string(ap.callId)),
		attribute.Bool("tool.background", ap.background),
	))
	defer span.End()

	step := ap.pipeline.Advance(ctx)
	span.SetStatus(codes.Ok, string(step.Kind))

	// A background call's first genuine Step (anything but an approval
	// gate, or a denial that never started it) must announce
	// BackgroundStarted before its own content is observable — but only
	// one Event may leave this call, so Delta/Delegate payloads that
	// can't be reproduced by calling Advance again are stashed in
	// deferredStep and replayed on the next poll.
	deniedBeforeStart := step.Kind == pipeline.StepDone && step.Status != pipeline.StatusComplete
	if ap.background && !ap.backgroundStarted && step.Kind != pipeline.StepAwaitApproval && !deniedBeforeStart {
		ap.backgroundStarted = true
		ap.status = pipeline.StatusRunning
		e.backgroundStartedCounter.Add(context.Background(), 1)
		if step.Kind == pipeline.StepDelta || step.Kind == pipeline.StepDelegate {
			ap.deferredStep = &step
		}
		return Event{Kind: EventBackgroundStarted, AgentId: ap.agentId, CallId: ap.callId, Name: ap.name}, true
	}

	return e.dispatchStep(ap, step)
}

// dispatchStep translates one already-produced Step into an Event. ok
// is false for a Step with nothing externally observable (Continue, or
// a gate that an auto-approve/deny filter resolved silently).
func (e *Executor) dispatchStep(ap *activePipeline, step pipeline.Step) (Event, bool) {
	switch step.Kind {
	case pipeline.StepDelta:
		return Event{Kind: EventDelta, AgentId: ap.agentId, CallId: ap.callId, Name: ap.name, Content: step.Text}, true

	case pipeline.StepAwaitApproval:
		return e.handleAwaitApproval(ap)

	case pipeline.StepDelegate:
		responder := NewResponder[EffectResult]()
		ap.pendingEffect = responder
		return Event{Kind: EventDelegate, AgentId: ap.agentId, CallId: ap.callId, Name: ap.name, Effect: step.Effect, EffectResponder: responder}, true

	case pipeline.StepDone:
		return e.handleDone(ap, step)
	}
	return Event{}, false
}

func (e *Executor) handleAwaitApproval(ap *activePipeline) (Event, bool) {
	decision, reason := ap.originalDecision, ap.originalReason
	if decision == ai.ApprovalUnset {
		decision, reason = e.filters.Decide(ap.name, ap.params)
	}

	switch decision {
	case ai.ApprovalApproved:
		e.logger.Debug("tool call auto-approved", "call_id", ap.callId, "tool", ap.name)
		e.approvalCounter.Add(context.Background(), 1, metric.WithAttributes(attribute.String("decision", "auto_approved")))
		ap.pipeline.ResolveApproval(true, false, "")
		return e.maybeBackgroundStarted(ap)
	case ai.ApprovalDenied:
		e.logger.Debug("tool call auto-denied", "call_id", ap.callId, "tool", ap.name, "reason", reason)
		e.approvalCounter.Add(context.Background(), 1, metric.WithAttributes(attribute.String("decision", "auto_denied")))
		ap.pipeline.ResolveApproval(false, false, reason)
		return Event{}, false
	default:
		e.logger.Debug("tool call awaiting approval", "call_id", ap.callId, "tool", ap.name)
		e.approvalCounter.Add(context.Background(), 1, metric.WithAttributes(attribute.String("decision", "prompted")))
		responder := NewResponder[ApprovalResult]()
		ap.pendingApproval = responder
		return Event{
			Kind:              EventAwaitingApproval,
			AgentId:           ap.agentId,
			CallId:            ap.callId,
			Name:              ap.name,
			Params:            ap.params,
			Background:        ap.background,
			ApprovalResponder: responder,
		}, true
	}
}

// maybeBackgroundStarted emits BackgroundStarted exactly once, right
// after a background call clears whatever approval gate it had (§4.2,
// open question decision: a denied background call never gets one).
func (e *Executor) maybeBackgroundStarted(ap *activePipeline) (Event, bool) {
	if !ap.background || ap.backgroundStarted {
		return Event{}, false
	}
	ap.backgroundStarted = true
	ap.status = pipeline.StatusRunning
	e.backgroundStartedCounter.Add(context.Background(), 1)
	return Event{Kind: EventBackgroundStarted, AgentId: ap.agentId, CallId: ap.callId, Name: ap.name}, true
}

func (e *Executor) handleDone(ap *activePipeline, step pipeline.Step) (Event, bool) {
	ap.output = step.Text
	ap.status = step.Status

	if step.Status == pipeline.StatusComplete {
		if ap.background {
			return Event{Kind: EventBackgroundCompleted, AgentId: ap.agentId, CallId: ap.callId, Name: ap.name}, true
		}
		delete(e.active, ap.callId)
		return Event{Kind: EventCompleted, AgentId: ap.agentId, CallId: ap.callId, Name: ap.name, Content: step.Text}, true
	}

	// Denied or Error.
	if ap.background && ap.backgroundStarted {
		return Event{Kind: EventBackgroundCompleted, AgentId: ap.agentId, CallId: ap.callId, Name: ap.name}, true
	}
	// Never started (e.g. denied at the gate): nothing was ever
	// announced to the model, so this goes straight to Error instead
	// of BackgroundCompleted.
	delete(e.active, ap.callId)
	return Event{Kind: EventError, AgentId: ap.agentId, CallId: ap.callId, Name: ap.name, Content: step.Text}, true
}

// forceCancel short-circuits a Pipeline that Cancel marked for abort,
// without a further Advance call: Pipeline exposes no direct cancel
// hook, so the Executor treats whatever gate it's stalled on as
// cancelled and tears it down itself.
func (e *Executor) forceCancel(ap *activePipeline) Event {
	if ap.pendingApproval != nil {
		ap.pipeline.ResolveApproval(false, true, "")
		ap.pendingApproval = nil
	}
	if ap.pendingEffect != nil {
		ap.pipeline.ResolveEffect("", context.Canceled)
		ap.pendingEffect = nil
	}
	ap.status = pipeline.StatusError
	ap.output = "cancelled by user"
	delete(e.active, ap.callId)
	return Event{Kind: EventError, AgentId: ap.agentId, CallId: ap.callId, Name: ap.name, Content: ap.output}
}

// ListTasks returns every background entry still in active (§4.2, op 3).
func (e *Executor) ListTasks() []TaskInfo {
	var tasks []TaskInfo
	for _, id := range e.order {
		ap, ok := e.active[id]
		if !ok || !ap.background {
			continue
		}
		tasks = append(tasks, TaskInfo{CallId: id, Name: ap.name, Status: string(ap.status)})
	}
	return tasks
}

// TakeResult removes and returns a background entry, but only once it
// has finished: an entry whose status is still Pending or Running is
// left in place and reported as not ready (§4.2, op 4).
func (e *Executor) TakeResult(callId ai.CallId) (TaskResult, bool) {
	ap, ok := e.active[callId]
	if !ok || ap.status == pipeline.StatusRunning || ap.status == pipeline.StatusPending {
		return TaskResult{}, false
	}
	delete(e.active, callId)
	return TaskResult{Name: ap.name, Output: ap.output, Status: string(ap.status)}, true
}

// Cancel requests that every pending and active call be aborted. The
// abort itself happens incrementally, one Error event per Next call,
// preserving the "at most one event per next()" guarantee (§4.2, op 5).
func (e *Executor) Cancel() {
	e.cancelRequested = true
}
