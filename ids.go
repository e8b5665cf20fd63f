package codey

import "sync/atomic"

// AgentId is an opaque small integer, stable within a process. Zero
// conventionally denotes the primary agent (§3).
type AgentId int

// PrimaryAgentId is the AgentId reserved for the session's originating agent.
const PrimaryAgentId AgentId = 0

// CallId is an opaque string unique per tool invocation within a session.
// The model assigns it; the core treats it only as a lookup key.
type CallId string

// AgentIdSequence hands out monotonically increasing AgentIds for spawned
// (non-primary) agents, starting at 1.
type AgentIdSequence struct {
	next atomic.Int64
}

// NewAgentIdSequence returns a sequence that starts allocating at 1.
func NewAgentIdSequence() *AgentIdSequence {
	seq := &AgentIdSequence{}
	seq.next.Store(1)
	return seq
}

// Next allocates the next spawned AgentId.
func (s *AgentIdSequence) Next() AgentId {
	return AgentId(s.next.Add(1) - 1)
}
