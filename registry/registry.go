// Package registry implements the Agent Registry (§4.4): the set of
// Agents sharing a process, keyed by AgentId, multiplexed fairly so the
// Event Loop can treat them as a single AgentStep stream.
package registry

import (
	"sync"

	ai "github.com/tcdent/codey"
	"github.com/tcdent/codey/agent"
)

// ResultSender delivers a spawned agent's final text to whatever is
// waiting on it — normally a pipeline.Pipeline's ResolveEffect, wrapped
// in a closure by the caller that registered the agent.
type ResultSender func(text string)

type entry struct {
	agent      *agent.Agent
	label      string
	parentId   ai.AgentId
	resultSend ResultSender
	forwardCh  chan<- agent.AgentStep
	finished   bool
}

// AgentRegistry owns every Agent in the process: the primary (AgentId 0)
// and any spawned sub-agents.
type AgentRegistry struct {
	mu      sync.Mutex
	agents  map[ai.AgentId]*entry
	order   []ai.AgentId
	nextIdx int
	seq     *ai.AgentIdSequence
}

// New constructs an empty AgentRegistry.
func New() *AgentRegistry {
	return &AgentRegistry{
		agents: make(map[ai.AgentId]*entry),
		seq:    ai.NewAgentIdSequence(),
	}
}

// RegisterPrimary installs the session's originating Agent as AgentId 0.
// Must be called at most once.
func (r *AgentRegistry) RegisterPrimary(a *agent.Agent) ai.AgentId {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[ai.PrimaryAgentId] = &entry{agent: a}
	r.order = append(r.order, ai.PrimaryAgentId)
	return ai.PrimaryAgentId
}

// SpawnOption configures a spawned Agent's registration.
type SpawnOption func(*entry)

// WithEventForwarding forwards every AgentStep the spawned Agent emits
// onto ch, in addition to the registry's own multiplexed stream, so a
// parent Pipeline can surface sub-agent progress rather than only its
// final result (supplemented feature, teacher's `agent/tool.go`
// WithToolEventForwarding).
func WithEventForwarding(ch chan<- agent.AgentStep) SpawnOption {
	return func(e *entry) { e.forwardCh = ch }
}

// RegisterSpawned assigns a to a fresh AgentId and records it as a child
// of parentId. resultSend, if non-nil, is returned later by Finish.
func (r *AgentRegistry) RegisterSpawned(a *agent.Agent, label string, parentId ai.AgentId, resultSend ResultSender, opts ...SpawnOption) ai.AgentId {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.seq.Next()
	e := &entry{agent: a, label: label, parentId: parentId, resultSend: resultSend}
	for _, opt := range opts {
		opt(e)
	}
	r.agents[id] = e
	r.order = append(r.order, id)
	return id
}

// Label returns the human-readable label a spawned agent was registered
// with, for annotating approval prompts (e.g. "[refactor module X]").
func (r *AgentRegistry) Label(id ai.AgentId) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.agents[id]
	if !ok {
		return "", false
	}
	return e.label, true
}

// All returns every registered AgentId (primary and spawned) in
// registration order, for callers that need to act on every Agent in
// the process at once (e.g. the Event Loop's quit handling, §4.7).
func (r *AgentRegistry) All() []ai.AgentId {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ai.AgentId, len(r.order))
	copy(out, r.order)
	return out
}

// Agent returns the Agent registered under id.
func (r *AgentRegistry) Agent(id ai.AgentId) (*agent.Agent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.agents[id]
	if !ok {
		return nil, false
	}
	return e.agent, true
}

// Next performs one round-robin poll across every registered Agent,
// returning the first ready AgentStep found (§4.4). It starts scanning
// just after whichever Agent serviced the previous call, so no single
// busy Agent can starve the others.
func (r *AgentRegistry) Next() (ai.AgentId, agent.AgentStep, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.order)
	for i := 0; i < n; i++ {
		idx := (r.nextIdx + i) % n
		id := r.order[idx]
		e := r.agents[id]
		if step, ok := e.agent.Next(); ok {
			r.nextIdx = (idx + 1) % n
			if e.forwardCh != nil {
				select {
				case e.forwardCh <- step:
				default:
				}
			}
			return id, step, true
		}
	}
	return 0, agent.AgentStep{}, false
}

// Finish is called by the Event Loop on first observation of a Finished
// AgentStep for a non-primary agent. It returns the stored ResultSender
// exactly once; subsequent calls for the same id return false.
func (r *AgentRegistry) Finish(id ai.AgentId) (ResultSender, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.agents[id]
	if !ok || e.resultSend == nil || e.finished {
		return nil, false
	}
	e.finished = true
	return e.resultSend, true
}

// ResultText extracts a spawned agent's result as defined by §4.4: the
// content of the final assistant message, excluding tool_use and
// thinking blocks (which live in separate Message fields already).
func (r *AgentRegistry) ResultText(id ai.AgentId) string {
	r.mu.Lock()
	a, ok := r.agents[id]
	r.mu.Unlock()
	if !ok {
		return ""
	}
	history := a.agent.History()
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == ai.RoleAssistant {
			return history[i].Content
		}
	}
	return ""
}
