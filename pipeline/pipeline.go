// Package pipeline implements the Tool Pipeline: a composable chain of
// Stages that turns a single tool invocation into a tool result, with
// explicit suspension points for approval and delegated effects.
//
// A Pipeline is a pure sequencer — it never performs I/O itself. The
// Tool Executor drives it by calling Advance repeatedly and feeding
// back approval decisions and effect results as they become available.
package pipeline

import (
	"context"

	ai "github.com/tcdent/codey"
)

// Status is the lifecycle state of a Pipeline.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
	StatusDenied   Status = "denied"
)

// StepKind tags the variant of a Step returned by Advance or by a Handler.
type StepKind string

const (
	// StepContinue advances to the next stage with no output.
	StepContinue StepKind = "continue"
	// StepOutput replaces the Pipeline's accumulated output and advances.
	StepOutput StepKind = "output"
	// StepDelta emits a streaming fragment without advancing; the same
	// Handler is invoked again on the next Advance call.
	StepDelta StepKind = "delta"
	// StepAwaitApproval is yielded by Advance when it reaches an
	// approval gate; it is never returned by a Handler.
	StepAwaitApproval StepKind = "await_approval"
	// StepDelegate asks the caller to perform an Effect and resume via
	// ResolveEffect.
	StepDelegate StepKind = "delegate"
	// StepError short-circuits the Pipeline to its Finally stages.
	StepError StepKind = "error"
	// StepDone is yielded once, when the Pipeline has fully exited
	// (after any Finally stages have run).
	StepDone StepKind = "done"
)

// Step is the result of driving one Handler, or of Advance itself.
type Step struct {
	Kind StepKind
	// Text carries the payload for Output, Delta, and Error steps, and
	// the final accumulated output for Done.
	Text string
	// Effect carries the side effect to perform for Delegate steps.
	Effect ai.Effect
	// Status carries the terminal status for Done steps.
	Status Status
}

// Continue is the zero-argument terminal Handlers return to advance
// the Pipeline with no output change.
func Continue() Step { return Step{Kind: StepContinue} }

// Output replaces the Pipeline's accumulated output and advances.
func Output(text string) Step { return Step{Kind: StepOutput, Text: text} }

// Delta emits a streaming fragment; the Handler will be invoked again.
func Delta(text string) Step { return Step{Kind: StepDelta, Text: text} }

// Delegate asks the Executor to perform effect and resume this Handler
// via the Pipeline's ResolveEffect once a result is available.
func Delegate(effect ai.Effect) Step { return Step{Kind: StepDelegate, Effect: effect} }

// ErrorStep short-circuits the Pipeline to its Finally stages.
func ErrorStep(message string) Step { return Step{Kind: StepError, Text: message} }

// Handler is a unit of work in a Pipeline. It receives no arguments
// beyond a context; it encapsulates its own inputs at construction
// time, which keeps Handlers cheap to compose and inspect (§4.1).
type Handler func(ctx context.Context) Step

// maxContinuesPerAdvance bounds how many stages a single Advance call
// drives before yielding, keeping latency fair across concurrently
// active Pipelines in the Executor (§4.2).
const maxContinuesPerAdvance = 64

type stageKind int

const (
	stageHandler stageKind = iota
	stageApproval
)

type stage struct {
	kind    stageKind
	handler Handler
}

// Pipeline is an ordered composition of Stages producing a tool's
// result. Construct one with New and compose it with Then,
// AwaitApproval, and Finally; drive it with Advance.
type Pipeline struct {
	main    []stage
	finally []Handler

	mainPos    int
	finallyPos int
	finishing  bool

	output     string
	status     Status
	exitStatus Status

	awaitingApproval bool
	approvalResolved bool
	approved         bool
	denyReason       string

	awaitingEffect bool
	effectResolved bool
	effectResult   string
	effectErr      error
}

// New constructs an empty Pipeline ready for composition.
func New() *Pipeline {
	return &Pipeline{status: StatusPending}
}

// NewErrorPipeline constructs a Pipeline that yields exactly one Error
// step, used when handler parameter parsing fails at composition time
// (§4.1, §7.3).
func NewErrorPipeline(message string) *Pipeline {
	p := New()
	return p.Then(func(ctx context.Context) Step { return ErrorStep(message) })
}

// Then appends a Handler stage.
func (p *Pipeline) Then(h Handler) *Pipeline {
	p.main = append(p.main, stage{kind: stageHandler, handler: h})
	return p
}

// AwaitApproval appends an approval gate. Advance yields
// StepAwaitApproval when it reaches this stage and stalls until
// ResolveApproval is called.
func (p *Pipeline) AwaitApproval() *Pipeline {
	p.main = append(p.main, stage{kind: stageApproval})
	return p
}

// Finally appends a cleanup Handler guaranteed to run on every exit
// path. Finally Handlers may emit a final Output but cannot change the
// Pipeline's status to a successful one.
func (p *Pipeline) Finally(h Handler) *Pipeline {
	p.finally = append(p.finally, h)
	return p
}

// Status reports the Pipeline's current lifecycle state.
func (p *Pipeline) Status() Status { return p.status }

// Output reports the Pipeline's currently accumulated output.
func (p *Pipeline) Output() string { return p.output }

// AwaitingApproval reports whether Advance is currently stalled on an
// approval gate, waiting for ResolveApproval.
func (p *Pipeline) AwaitingApproval() bool { return p.awaitingApproval }

// AwaitingEffect reports whether Advance is currently stalled on a
// delegated effect, waiting for ResolveEffect.
func (p *Pipeline) AwaitingEffect() bool { return p.awaitingEffect }

// ResolveApproval delivers an approval decision to a stalled approval
// gate. approved=false, cancelled=false denies the call (status
// Denied); cancelled=true treats it as a user cancellation (status
// Error, "cancelled by user"). Calling this when the Pipeline is not
// awaiting approval is a no-op — this makes repeated decisions on the
// same responder idempotent (P4).
func (p *Pipeline) ResolveApproval(approved bool, cancelled bool, reason string) {
	if !p.awaitingApproval || p.approvalResolved {
		return
	}
	p.approvalResolved = true
	p.approved = approved && !cancelled
	if cancelled {
		p.denyReason = "cancelled by user"
	} else {
		p.denyReason = reason
	}
}

// ResolveEffect delivers a delegated effect's result to a stalled
// Delegate step. result is the textual output to feed back into the
// Handler (empty means the effect succeeded with no output); err, if
// non-nil, short-circuits the Pipeline to its Finally stages. Calling
// this when the Pipeline is not awaiting an effect is a no-op.
func (p *Pipeline) ResolveEffect(result string, err error) {
	if !p.awaitingEffect || p.effectResolved {
		return
	}
	p.effectResolved = true
	p.effectResult = result
	p.effectErr = err
}

// Advance drives the Pipeline forward and returns the next observable
// Step. It is the Pipeline's sole I/O-free entry point; the Executor
// calls it once per active Pipeline per tick.
func (p *Pipeline) Advance(ctx context.Context) Step {
	if p.status == StatusComplete || p.status == StatusError || p.status == StatusDenied {
		return Step{Kind: StepDone, Text: p.output, Status: p.status}
	}
	p.status = StatusRunning

	for i := 0; i < maxContinuesPerAdvance; i++ {
		if p.finishing {
			if step, done := p.driveFinally(ctx); done {
				return step
			} else if step.Kind != StepContinue {
				return step
			}
			continue
		}

		if p.mainPos >= len(p.main) {
			p.beginFinish(StatusComplete, "")
			continue
		}

		st := p.main[p.mainPos]
		if st.kind == stageApproval {
			if !p.awaitingApproval {
				p.awaitingApproval = true
				return Step{Kind: StepAwaitApproval}
			}
			if !p.approvalResolved {
				return Step{Kind: StepAwaitApproval}
			}
			p.awaitingApproval = false
			p.approvalResolved = false
			if p.approved {
				p.mainPos++
				continue
			}
			if p.denyReason == "cancelled by user" {
				p.beginFinish(StatusError, p.denyReason)
			} else {
				reason := p.denyReason
				if reason == "" {
					reason = "Denied by user"
				}
				p.beginFinish(StatusDenied, reason)
			}
			continue
		}

		// Resuming a Handler whose Delegate we already issued.
		if p.awaitingEffect {
			if !p.effectResolved {
				return Step{Kind: StepDelegate}
			}
			p.awaitingEffect = false
			p.effectResolved = false
			if p.effectErr != nil {
				p.beginFinish(StatusError, p.effectErr.Error())
				continue
			}
			if p.effectResult != "" {
				p.output = p.effectResult
			}
			p.mainPos++
			continue
		}

		step := st.handler(ctx)
		switch step.Kind {
		case StepContinue:
			p.mainPos++
		case StepOutput:
			p.output = step.Text
			p.mainPos++
		case StepDelta:
			return step
		case StepDelegate:
			p.awaitingEffect = true
			return step
		case StepError:
			p.beginFinish(StatusError, step.Text)
		}
	}

	// Bound reached; yield so the Executor can service other active
	// Pipelines fairly, then call Advance again.
	return Step{Kind: StepContinue}
}

func (p *Pipeline) beginFinish(status Status, output string) {
	p.finishing = true
	p.exitStatus = status
	if output != "" {
		p.output = output
	}
}

// driveFinally runs finally stages one Step at a time. The second
// return value is true once the Pipeline has fully exited (the
// returned Step is the terminal StepDone).
func (p *Pipeline) driveFinally(ctx context.Context) (Step, bool) {
	if p.finallyPos >= len(p.finally) {
		p.status = p.exitStatus
		return Step{Kind: StepDone, Text: p.output, Status: p.status}, true
	}

	h := p.finally[p.finallyPos]
	step := h(ctx)
	switch step.Kind {
	case StepOutput:
		// Finally stages may replace output but never the exit status.
		p.output = step.Text
		p.finallyPos++
		return Step{Kind: StepContinue}, false
	case StepDelta:
		return step, false
	default:
		p.finallyPos++
		return Step{Kind: StepContinue}, false
	}
}
