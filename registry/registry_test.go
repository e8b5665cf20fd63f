package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/tcdent/codey"
	"github.com/tcdent/codey/agent"
)

type stubProvider struct {
	response *ai.Response
}

func (s *stubProvider) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	return s.response, nil
}

func (s *stubProvider) ChatStream(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan ai.StreamEvent, error) {
	ch := make(chan ai.StreamEvent, 1)
	ch <- ai.StreamEvent{Done: true, Response: s.response}
	close(ch)
	return ch, nil
}

func TestRegisterPrimaryIsAgentZero(t *testing.T) {
	reg := New()
	a := agent.New(&stubProvider{response: &ai.Response{Content: "hi"}})
	id := reg.RegisterPrimary(a)
	assert.Equal(t, ai.PrimaryAgentId, id)

	got, ok := reg.Agent(ai.PrimaryAgentId)
	require.True(t, ok)
	assert.Same(t, a, got)
}

func TestRegisterSpawnedAllocatesIncreasingIds(t *testing.T) {
	reg := New()
	a1 := agent.New(&stubProvider{response: &ai.Response{Content: "one"}})
	a2 := agent.New(&stubProvider{response: &ai.Response{Content: "two"}})

	id1 := reg.RegisterSpawned(a1, "first", ai.PrimaryAgentId, nil)
	id2 := reg.RegisterSpawned(a2, "second", ai.PrimaryAgentId, nil)

	assert.Equal(t, ai.AgentId(1), id1)
	assert.Equal(t, ai.AgentId(2), id2)

	label, ok := reg.Label(id1)
	require.True(t, ok)
	assert.Equal(t, "first", label)
}

func TestNextRoundRobinsAcrossAgents(t *testing.T) {
	reg := New()
	a1 := agent.New(&stubProvider{response: &ai.Response{Content: "one"}})
	a2 := agent.New(&stubProvider{response: &ai.Response{Content: "two"}})
	reg.RegisterPrimary(a1)
	reg.RegisterSpawned(a2, "two", ai.PrimaryAgentId, nil)

	require.NoError(t, a1.SendRequest(context.Background(), "go", agent.Normal))
	require.NoError(t, a2.SendRequest(context.Background(), "go", agent.Normal))

	seen := map[ai.AgentId]bool{}
	for i := 0; i < 20; i++ {
		id, step, ok := reg.Next()
		if !ok {
			continue
		}
		if step.Kind == agent.StepFinished {
			seen[id] = true
		}
		if len(seen) == 2 {
			break
		}
	}
	assert.True(t, seen[ai.PrimaryAgentId])
	assert.True(t, seen[ai.AgentId(1)])
}

func TestFinishReturnsResultSenderOnce(t *testing.T) {
	reg := New()
	a := agent.New(&stubProvider{response: &ai.Response{Content: "done"}})
	var delivered string
	id := reg.RegisterSpawned(a, "task", ai.PrimaryAgentId, func(text string) { delivered = text })

	send, ok := reg.Finish(id)
	require.True(t, ok)
	send("result text")
	assert.Equal(t, "result text", delivered)

	_, ok = reg.Finish(id)
	assert.False(t, ok, "Finish should only succeed once per agent")
}

func TestResultTextExtractsFinalAssistantContent(t *testing.T) {
	reg := New()
	a := agent.New(&stubProvider{response: &ai.Response{Content: "the answer"}})
	id := reg.RegisterSpawned(a, "task", ai.PrimaryAgentId, nil)

	require.NoError(t, a.SendRequest(context.Background(), "question", agent.Normal))
	for i := 0; i < 20; i++ {
		if _, step, ok := reg.Next(); ok && step.Kind == agent.StepFinished {
			break
		}
	}

	assert.Equal(t, "the answer", reg.ResultText(id))
}

func TestEventForwardingMirrorsSteps(t *testing.T) {
	reg := New()
	a := agent.New(&stubProvider{response: &ai.Response{Content: "forwarded"}})
	forward := make(chan agent.AgentStep, 8)
	id := reg.RegisterSpawned(a, "task", ai.PrimaryAgentId, nil, WithEventForwarding(forward))

	require.NoError(t, a.SendRequest(context.Background(), "question", agent.Normal))
	for i := 0; i < 20; i++ {
		if _, step, ok := reg.Next(); ok && step.Kind == agent.StepFinished {
			break
		}
	}
	_ = id

	select {
	case step := <-forward:
		assert.Equal(t, agent.StepFinished, step.Kind)
	default:
		t.Fatal("expected a forwarded step")
	}
}
