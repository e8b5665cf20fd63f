// Package loop implements the Event Loop (§4.7): the single cooperative
// scheduler that drains the Agent Registry, the Tool Executor, and the
// Effect Resolver in priority order and wires their events together —
// tool requests into the Executor, approvals into a one-prompt-at-a-time
// queue, delegated effects into the Resolver, completed results back
// into the Agent that requested them.
package loop
