package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/tcdent/codey"
	"github.com/tcdent/codey/pipeline"
)

func composeEcho(agentId ai.AgentId, call ai.ToolCall) *pipeline.Pipeline {
	return pipeline.New().Then(func(ctx context.Context) pipeline.Step {
		return pipeline.Output("echo:" + call.Name)
	})
}

func composeGated(agentId ai.AgentId, call ai.ToolCall) *pipeline.Pipeline {
	return pipeline.New().AwaitApproval().Then(func(ctx context.Context) pipeline.Step {
		return pipeline.Output("ran:" + call.Name)
	})
}

func drainUntil(t *testing.T, e *Executor, kind EventKind, maxTicks int) Event {
	t.Helper()
	for i := 0; i < maxTicks; i++ {
		ev, ok := e.Next(context.Background())
		if ok && ev.Kind == kind {
			return ev
		}
	}
	t.Fatalf("never observed event kind %s", kind)
	return Event{}
}

func TestForegroundCallCompletesWithoutApproval(t *testing.T) {
	e := New(composeEcho)
	e.Enqueue(ai.PrimaryAgentId, []ai.ToolCall{{ID: "c1", Name: "read_file", Arguments: "{}"}})

	ev := drainUntil(t, e, EventCompleted, 10)
	assert.Equal(t, ai.CallId("c1"), ev.CallId)
	assert.Equal(t, "echo:read_file", ev.Content)
}

func TestApprovalGateStallsUntilResolved(t *testing.T) {
	e := New(composeGated)
	e.Enqueue(ai.PrimaryAgentId, []ai.ToolCall{{ID: "c1", Name: "write_file", Arguments: "{}"}})

	ev := drainUntil(t, e, EventAwaitingApproval, 10)
	require.NotNil(t, ev.ApprovalResponder)

	// Not yet resolved: Next should make no further progress on this call.
	_, ok := e.Next(context.Background())
	assert.False(t, ok)

	ev.ApprovalResponder.Resolve(ApprovalResult{Approved: true})
	done := drainUntil(t, e, EventCompleted, 10)
	assert.Equal(t, "ran:write_file", done.Content)
}

func TestApprovalGateDeniedYieldsError(t *testing.T) {
	e := New(composeGated)
	e.Enqueue(ai.PrimaryAgentId, []ai.ToolCall{{ID: "c1", Name: "write_file", Arguments: "{}"}})

	ev := drainUntil(t, e, EventAwaitingApproval, 10)
	ev.ApprovalResponder.Resolve(ApprovalResult{Approved: false, Reason: "no"})

	errEv := drainUntil(t, e, EventError, 10)
	assert.Equal(t, ai.CallId("c1"), errEv.CallId)
}

func TestFilterAutoApprovesMatchingCall(t *testing.T) {
	fs := &FilterSet{Rules: []FilterRule{{Tool: "write_file", Decision: "approve"}}}
	e := New(composeGated, WithFilters(fs))
	e.Enqueue(ai.PrimaryAgentId, []ai.ToolCall{{ID: "c1", Name: "write_file", Arguments: "{}"}})

	ev := drainUntil(t, e, EventCompleted, 10)
	assert.Equal(t, "ran:write_file", ev.Content)
}

func TestFilterAutoDeniesMatchingCall(t *testing.T) {
	fs := &FilterSet{Rules: []FilterRule{{Tool: "write_file", Decision: "deny", Reason: "blocked"}}}
	e := New(composeGated, WithFilters(fs))
	e.Enqueue(ai.PrimaryAgentId, []ai.ToolCall{{ID: "c1", Name: "write_file", Arguments: "{}"}})

	ev := drainUntil(t, e, EventError, 10)
	assert.Equal(t, ai.CallId("c1"), ev.CallId)
}

func TestOriginalDecisionBypassesFilters(t *testing.T) {
	fs := &FilterSet{Rules: []FilterRule{{Tool: "write_file", Decision: "deny"}}}
	e := New(composeGated, WithFilters(fs))
	e.Enqueue(ai.PrimaryAgentId, []ai.ToolCall{{ID: "c1", Name: "write_file", Arguments: "{}", Decision: ai.ApprovalApproved}})

	ev := drainUntil(t, e, EventCompleted, 10)
	assert.Equal(t, "ran:write_file", ev.Content)
}

func TestBackgroundCallEmitsStartedThenCompleted(t *testing.T) {
	e := New(composeEcho)
	e.Enqueue(ai.PrimaryAgentId, []ai.ToolCall{{ID: "c1", Name: "shell", Arguments: `{"background":true}`}})

	started := drainUntil(t, e, EventBackgroundStarted, 10)
	assert.Equal(t, ai.CallId("c1"), started.CallId)

	completed := drainUntil(t, e, EventBackgroundCompleted, 10)
	assert.Equal(t, ai.CallId("c1"), completed.CallId)

	result, ok := e.TakeResult("c1")
	require.True(t, ok)
	assert.Equal(t, "echo:shell", result.Output)
	assert.Equal(t, string(pipeline.StatusComplete), result.Status)
}

func TestBackgroundCallDeniedNeverEmitsStarted(t *testing.T) {
	e := New(composeGated)
	e.Enqueue(ai.PrimaryAgentId, []ai.ToolCall{{ID: "c1", Name: "shell", Arguments: `{"background":true}`}})

	ev := drainUntil(t, e, EventAwaitingApproval, 10)
	assert.True(t, ev.Background)
	ev.ApprovalResponder.Resolve(ApprovalResult{Approved: false})

	errEv := drainUntil(t, e, EventError, 10)
	assert.Equal(t, ai.CallId("c1"), errEv.CallId)

	_, ok := e.TakeResult("c1")
	assert.False(t, ok, "a call that never started should not be a retrievable background task")
}

func TestListTasksOnlyReturnsBackgroundEntries(t *testing.T) {
	e := New(composeGated)
	e.Enqueue(ai.PrimaryAgentId, []ai.ToolCall{
		{ID: "c1", Name: "shell", Arguments: `{"background":true}`},
		{ID: "c2", Name: "write_file", Arguments: `{}`},
	})
	// Promote without resolving anything.
	_, _ = e.Next(context.Background())
	_, _ = e.Next(context.Background())

	tasks := e.ListTasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, ai.CallId("c1"), tasks[0].CallId)
}

func TestCancelAbortsPendingAndActiveCalls(t *testing.T) {
	e := New(composeGated)
	e.Enqueue(ai.PrimaryAgentId, []ai.ToolCall{{ID: "c1", Name: "write_file", Arguments: "{}"}})
	_ = drainUntil(t, e, EventAwaitingApproval, 10)

	e.Enqueue(ai.PrimaryAgentId, []ai.ToolCall{{ID: "c2", Name: "write_file", Arguments: "{}"}})
	e.Cancel()

	seen := map[ai.CallId]bool{}
	for i := 0; i < 10 && len(seen) < 2; i++ {
		ev, ok := e.Next(context.Background())
		if ok && ev.Kind == EventError {
			seen[ev.CallId] = true
		}
	}
	assert.True(t, seen["c1"])
	assert.True(t, seen["c2"])
}

func TestTakeResultRefusesWhileRunning(t *testing.T) {
	e := New(composeGated)
	e.Enqueue(ai.PrimaryAgentId, []ai.ToolCall{{ID: "c1", Name: "shell", Arguments: `{"background":true}`}})
	_, _ = e.Next(context.Background()) // promotes into active, still pending approval

	_, ok := e.TakeResult("c1")
	assert.False(t, ok)
}
