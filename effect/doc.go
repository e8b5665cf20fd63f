// Package effect implements the Effect Resolver (§4.5): it serves
// delegated effects without ever blocking the Event Loop, dispatching
// each queued PendingEffect to the IDE bridge or the Tool Executor's own
// background-task bookkeeping, and enforcing exclusive access to the
// named Resources a Pipeline's Effect may declare.
package effect
