package registry

import (
	"context"
	"encoding/json"

	ai "github.com/tcdent/codey"
	"github.com/tcdent/codey/agent"
	"github.com/tcdent/codey/pipeline"
	"github.com/tcdent/codey/tool"
)

// SpawnArgs is the spawn_agent tool's parameter schema.
type SpawnArgs struct {
	Task string `json:"task" desc:"The task for the sub-agent to accomplish" required:"true"`
}

// Factory constructs a fresh sub-agent ready to receive SendRequest, for
// one spawn_agent call.
type Factory func() *agent.Agent

// SpawnTool builds the spawn_agent tool and its Composer (§4.4). Each
// call spawns a fresh Agent via factory, registers it as a child of the
// calling Agent,
// starts its turn, and polls for completion: Delta("") while the
// sub-agent is still working, Output(result) once it has finished. The
// sub-agent's own AgentSteps are drained normally by the Agent
// Registry's Next() — this Handler never touches them directly, only
// the completion flag that registry.Finish delivers through send.
func SpawnTool(reg *AgentRegistry, factory Factory, opts ...SpawnOption) (ai.Tool, tool.Composer) {
	t := ai.Tool{
		Name:        "spawn_agent",
		Description: "Delegate a task to a fresh sub-agent and receive its final answer as this call's result.",
		Parameters:  tool.MustSchemaFor[SpawnArgs](),
	}

	composer := func(agentId ai.AgentId, call ai.ToolCall) *pipeline.Pipeline {
		var args SpawnArgs
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return pipeline.NewErrorPipeline("spawn_agent: invalid arguments: " + err.Error())
		}

		var (
			started bool
			done    bool
			result  string
		)
		send := func(text string) {
			result = text
			done = true
		}

		return pipeline.New().Then(func(ctx context.Context) pipeline.Step {
			if !started {
				started = true
				sub := factory()
				reg.RegisterSpawned(sub, args.Task, agentId, send, opts...)
				if err := sub.SendRequest(ctx, args.Task, agent.Normal); err != nil {
					return pipeline.ErrorStep("spawn_agent: " + err.Error())
				}
				return pipeline.Delta("")
			}
			if !done {
				return pipeline.Delta("")
			}
			return pipeline.Output(result)
		})
	}

	return t, composer
}
