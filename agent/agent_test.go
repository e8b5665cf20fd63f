package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/tcdent/codey"
)

// fakeProvider replays a fixed queue of StreamEvent slices, one slice per
// ChatStream call, regardless of the messages passed in.
type fakeProvider struct {
	turns [][]ai.StreamEvent
	calls int
}

func (f *fakeProvider) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	panic("not used")
}

func (f *fakeProvider) ChatStream(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan ai.StreamEvent, error) {
	turn := f.turns[f.calls]
	f.calls++
	ch := make(chan ai.StreamEvent, len(turn))
	for _, ev := range turn {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func collectUntil(t *testing.T, a *Agent, kind StepKind) AgentStep {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case step := <-a.Steps():
			if step.Kind == kind {
				return step
			}
		case <-deadline:
			t.Fatalf("timed out waiting for step %q", kind)
		}
	}
}

func TestSendRequestCompletesWithoutTools(t *testing.T) {
	provider := &fakeProvider{turns: [][]ai.StreamEvent{
		{
			{Delta: "hello "},
			{Delta: "world"},
			{Done: true, Response: &ai.Response{Content: "hello world", Usage: ai.Usage{InputTokens: 3, OutputTokens: 2}}},
		},
	}}
	a := New(provider)

	require.NoError(t, a.SendRequest(context.Background(), "hi", Normal))

	deltas := ""
	for {
		step := <-a.Steps()
		if step.Kind == StepTextDelta {
			deltas += step.Text
			continue
		}
		require.Equal(t, StepFinished, step.Kind)
		assert.Equal(t, 2, step.Usage.OutputTokens)
		break
	}
	assert.Equal(t, "hello world", deltas)
	assert.Equal(t, Idle, a.State())
	assert.Len(t, a.History(), 2) // user + assistant
}

func TestToolRequestRoundTrip(t *testing.T) {
	call := ai.ToolCall{ID: "call_1", Name: "read_file", Arguments: `{"path":"a.go"}`}
	provider := &fakeProvider{turns: [][]ai.StreamEvent{
		{
			{Done: true, Response: &ai.Response{ToolCalls: []ai.ToolCall{call}}},
		},
		{
			{Delta: "done"},
			{Done: true, Response: &ai.Response{Content: "done"}},
		},
	}}
	a := New(provider)
	require.NoError(t, a.SendRequest(context.Background(), "read a.go", Normal))

	step := collectUntil(t, a, StepToolRequest)
	require.Len(t, step.Calls, 1)
	assert.Equal(t, "call_1", step.Calls[0].ID)
	assert.Equal(t, AwaitingToolResults, a.State())

	require.ErrorIs(t, a.SubmitToolResult("unknown", "x"), ErrUnknownCallId)

	require.NoError(t, a.SubmitToolResult("call_1", "file contents"))
	collectUntil(t, a, StepFinished)
	assert.Equal(t, Idle, a.State())

	history := a.History()
	require.Len(t, history, 3) // user, assistant(tool_use), tool
	assert.Equal(t, ai.RoleTool, history[2].Role)
	assert.Equal(t, "file contents", history[2].ToolResults[0].Content)
}

func TestSendRequestRejectsWhenNotIdle(t *testing.T) {
	provider := &fakeProvider{turns: [][]ai.StreamEvent{
		{{Done: true, Response: &ai.Response{ToolCalls: []ai.ToolCall{{ID: "c1", Name: "x"}}}}},
	}}
	a := New(provider)
	require.NoError(t, a.SendRequest(context.Background(), "go", Normal))
	collectUntil(t, a, StepToolRequest)

	assert.ErrorIs(t, a.SendRequest(context.Background(), "again", Normal), ErrNotIdle)
}

func TestApprovalFilterSetsDecision(t *testing.T) {
	call := ai.ToolCall{ID: "c1", Name: "read_file"}
	provider := &fakeProvider{turns: [][]ai.StreamEvent{
		{{Done: true, Response: &ai.Response{ToolCalls: []ai.ToolCall{call}}}},
	}}
	a := New(provider, WithApprovalFilter(func(c ai.ToolCall) (ai.ApprovalDecision, string) {
		return ai.ApprovalApproved, ""
	}))
	require.NoError(t, a.SendRequest(context.Background(), "go", Normal))

	step := collectUntil(t, a, StepToolRequest)
	require.Len(t, step.Calls, 1)
	assert.Equal(t, ai.ApprovalApproved, step.Calls[0].Decision)
}

func TestCancelInterruptsAwaitingToolResults(t *testing.T) {
	call := ai.ToolCall{ID: "c1", Name: "read_file"}
	provider := &fakeProvider{turns: [][]ai.StreamEvent{
		{{Done: true, Response: &ai.Response{ToolCalls: []ai.ToolCall{call}}}},
	}}
	a := New(provider)
	require.NoError(t, a.SendRequest(context.Background(), "go", Normal))
	collectUntil(t, a, StepToolRequest)

	require.NoError(t, a.Cancel())
	assert.Equal(t, Idle, a.State())
	assert.ErrorIs(t, a.SubmitToolResult("c1", "late"), ErrNotAwaitingToolResults)

	history := a.History()
	assert.Contains(t, history[len(history)-1].Content, "[interrupted]")
}
