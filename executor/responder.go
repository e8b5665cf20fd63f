package executor

import "sync"

// Responder is a one-shot, non-blocking handoff point. Resolve is
// idempotent (first write wins); Poll is a non-destructive peek so a
// single-threaded caller can check readiness without consuming the
// value, which keeps the Executor's poll loop cancel-safe when it races
// with other inputs (§4.2).
type Responder[T any] struct {
	mu       sync.Mutex
	resolved bool
	value    T
}

// NewResponder constructs an unresolved Responder.
func NewResponder[T any]() *Responder[T] {
	return &Responder[T]{}
}

// Resolve delivers v. A second call is a no-op.
func (r *Responder[T]) Resolve(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resolved {
		return
	}
	r.resolved = true
	r.value = v
}

// Poll returns the resolved value and true, or the zero value and
// false if Resolve has not yet been called.
func (r *Responder[T]) Poll() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value, r.resolved
}

// ApprovalResult is what a consumer of an AwaitingApproval Event
// delivers back through its Responder.
type ApprovalResult struct {
	Approved  bool
	Cancelled bool
	Reason    string
}

// EffectResult is what a consumer of a Delegate Event delivers back
// through its Responder. Output is the textual result fed back into
// the Pipeline's Handler; Err short-circuits the Pipeline to Finally.
type EffectResult struct {
	Output string
	Err    error
}
