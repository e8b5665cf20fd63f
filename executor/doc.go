// Package executor implements the Tool Executor (§4.2): it runs many
// Pipelines concurrently on a single thread, routing approval decisions
// and delegated effects between the Pipelines and whatever drives the
// Event Loop.
//
// An Executor never blocks. Next polls every active Pipeline for at
// most one event and returns immediately, even when nothing is ready —
// the Event Loop is expected to call it inside its own select/poll
// cycle (§4.7).
package executor
