package builtin

import (
	"github.com/automenta/flowmind/internal/llm"
	"github.com/automenta/flowmind/internal/memory"
	"github.com/automenta/flowmind/internal/thought"
	"github.com/automenta/flowmind/internal/tool"
)

// Register wires every always-on built-in tool (spec §4.6: LLM,
// Memory, GoalProposal, UserInteraction) into registry. WebSearch is
// deliberately excluded: it is only ever instantiated dynamically by
// the Action Executor in response to an LLM-generated tool_spec
// carrying an endpoint (§4.7 step 4), via NewWebSearchTool.
//
// Returns the UserInteraction tracker so callers (the HTTP/CLI
// surface, or a scheduler's shutdown path) can route human responses
// and cancellations and poll pending requests.
func Register(registry *tool.Registry, svc llm.Service, mem *memory.Store, thoughts *thought.Store, defaultSearchLimit int) *UserInteraction {
	registry.Register(NewLLMTool(svc))
	registry.Register(NewMemoryTool(mem, defaultSearchLimit))
	registry.Register(NewGoalProposalTool(svc, mem))

	ui := NewUserInteraction(thoughts)
	registry.Register(ui.Tool())
	return ui
}
