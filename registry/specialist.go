package registry

import (
	"context"
	"encoding/json"
	"sync"

	ai "github.com/tcdent/codey"
	"github.com/tcdent/codey/agent"
	"github.com/tcdent/codey/pipeline"
	"github.com/tcdent/codey/tool"
)

// Specialist is a capability-tagged sub-agent factory the primary can
// route to by name, rather than only through a free-form spawn_agent
// task description (supplemented feature, teacher's `agent/specialist.go`).
type Specialist struct {
	// Name becomes the tool name ("consult_" + Name).
	Name string
	// Description is surfaced to the model as the tool's description.
	Description string
	// New constructs a fresh Agent for one consultation.
	New Factory
}

// Specialists is a named registry of Specialist definitions, layered on
// top of an AgentRegistry.
type Specialists struct {
	mu   sync.Mutex
	byID map[string]Specialist
}

// NewSpecialists constructs an empty Specialists registry.
func NewSpecialists() *Specialists {
	return &Specialists{byID: make(map[string]Specialist)}
}

// Register adds a Specialist, keyed by its Name.
func (s *Specialists) Register(sp Specialist) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[sp.Name] = sp
}

// Find looks up a Specialist by name.
func (s *Specialists) Find(name string) (Specialist, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.byID[name]
	return sp, ok
}

// Names returns every registered Specialist's name.
func (s *Specialists) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.byID))
	for name := range s.byID {
		names = append(names, name)
	}
	return names
}

// ConsultArgs is the parameter schema for every specialist tool.
type ConsultArgs struct {
	Task string `json:"task" desc:"The question or task to hand to the specialist" required:"true"`
}

// AsTools registers one tool per Specialist into tr, each composing a
// Pipeline that spawns that specialist's agent into reg (under whichever
// Agent issues the call) and waits for its answer, exactly like
// SpawnTool but pinned to a named specialist instead of a free-form
// factory.
func (s *Specialists) AsTools(reg *AgentRegistry, tr *tool.Registry) error {
	s.mu.Lock()
	specialists := make([]Specialist, 0, len(s.byID))
	for _, sp := range s.byID {
		specialists = append(specialists, sp)
	}
	s.mu.Unlock()

	for _, sp := range specialists {
		t := ai.Tool{
			Name:        "consult_" + sp.Name,
			Description: sp.Description,
			Parameters:  tool.MustSchemaFor[ConsultArgs](),
		}
		composer := consultComposer(reg, sp)
		if err := tr.RegisterComposer(t, composer); err != nil {
			return err
		}
	}
	return nil
}

func consultComposer(reg *AgentRegistry, sp Specialist) tool.Composer {
	return func(agentId ai.AgentId, call ai.ToolCall) *pipeline.Pipeline {
		var args ConsultArgs
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return pipeline.NewErrorPipeline("consult_" + sp.Name + ": invalid arguments: " + err.Error())
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
				sub := sp.New()
				reg.RegisterSpawned(sub, sp.Name, agentId, send)
				if err := sub.SendRequest(ctx, args.Task, agent.Normal); err != nil {
					return pipeline.ErrorStep("consult_" + sp.Name + ": " + err.Error())
				}
				return pipeline.Delta("")
			}
			if !done {
				return pipeline.Delta("")
			}
			return pipeline.Output(result)
		})
	}
}
