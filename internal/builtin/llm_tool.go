// Package builtin implements the Built-in Tools of spec §4.6: LLM,
// Memory, GoalProposal, UserInteraction, and WebSearch, grounded in
// the reference repo's own tool-handler style (a thin adapter over a
// Service/Store, producing a result Thought rather than a raw value).
package builtin

import (
	"context"
	"fmt"

	"github.com/automenta/flowmind/internal/llm"
	"github.com/automenta/flowmind/internal/term"
	"github.com/automenta/flowmind/internal/thought"
	"github.com/automenta/flowmind/internal/tool"
)

// LLMToolName is the tool name bootstrap rules dispatch LLM actions
// to; the discriminant "action" parameter selects generate vs embed.
const LLMToolName = "llm"

var kindsByName = map[string]thought.Kind{
	"INPUT":         thought.KindInput,
	"GOAL":          thought.KindGoal,
	"STRATEGY":      thought.KindStrategy,
	"OUTCOME":       thought.KindOutcome,
	"QUERY":         thought.KindQuery,
	"RULE":          thought.KindRule,
	"TOOLS":         thought.KindTools,
	"WORKFLOW_STEP": thought.KindWorkflowStep,
}

// NewLLMTool builds the LLM built-in tool spec (§4.6): action
// "generate" produces a PENDING thought of the requested kind whose
// content is parsed from the model's raw output under the §4.6
// grammar; action "embed" produces a DONE OUTCOME thought carrying
// the embedding vector in its metadata.
func NewLLMTool(svc llm.Service) *tool.Spec {
	return &tool.Spec{
		Name:        LLMToolName,
		Description: "Invoke the LLM Service to generate a new thought or embed text.",
		Parameters: tool.Schema{
			"action": {Type: tool.TypeString, Required: tool.Always(true), Description: "generate | embed"},
			"input":  {Type: tool.TypeString, Required: tool.Always(true)},
			"kind":   {Type: tool.TypeString, Required: tool.RequiredWhen("action", "generate"), Description: "target thought kind for generate"},
			"format": {Type: tool.TypeString, Required: tool.Always(false), Description: "json | text, default json"},
		},
		Handler: func(ctx context.Context, params map[string]interface{}, parent thought.Thought, agentID string) (thought.Thought, error) {
			action, _ := params["action"].(string)
			input, _ := params["input"].(string)
			switch action {
			case "generate":
				kindName, _ := params["kind"].(string)
				targetKind, ok := kindsByName[kindName]
				if !ok {
					return thought.Thought{}, fmt.Errorf("llm generate: unrecognized target kind %q", kindName)
				}
				format, _ := params["format"].(string)
				if format == "" {
					format = "json"
				}
				raw, err := svc.Generate(ctx, input, format)
				if err != nil {
					return thought.Thought{}, fmt.Errorf("llm transport: %w", err)
				}
				content := llm.ParseGenerated(raw, targetKind)
				t := thought.New(targetKind, content, parent.ID, parent.Metadata.RootID)
				return t, nil
			case "embed":
				vec, err := svc.Embed(ctx, input)
				if err != nil {
					return thought.Thought{}, fmt.Errorf("llm transport: %w", err)
				}
				t := thought.New(thought.KindOutcome, term.Atom(input), parent.ID, parent.Metadata.RootID)
				t.Status = thought.StatusDone
				t.Metadata.Embedding = vec
				return t, nil
			default:
				return thought.Thought{}, fmt.Errorf("llm tool: unrecognized action %q", action)
			}
		},
	}
}
