package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/automenta/flowmind/internal/llm"
	"github.com/automenta/flowmind/internal/memory"
	"github.com/automenta/flowmind/internal/thought"
	"github.com/automenta/flowmind/internal/tool"
)

// GoalProposalToolName is the tool invoked by the §4.10 default GOAL
// action to propose what to work on next.
const GoalProposalToolName = "propose_related_goal"

// proposalContextLimit bounds how many recent memory entries are
// folded into the LLM prompt; kept small since this is a suggestion,
// not a retrieval-grounded answer.
const proposalContextLimit = 5

// proposalPriorityBoost is added to the default thought priority so
// proposed goals surface ahead of routine PENDING work, per spec
// §4.6 ("priority is boosted").
const proposalPriorityBoost = 0.2

// NewGoalProposalTool builds the GoalProposal built-in tool (§4.6):
// fetch recent memory context, ask the LLM for one next goal, return
// it as a PENDING INPUT thought with boosted priority.
func NewGoalProposalTool(svc llm.Service, mem *memory.Store) *tool.Spec {
	return &tool.Spec{
		Name:        GoalProposalToolName,
		Description: "Propose a single related next goal given recent memory context.",
		Parameters: tool.Schema{
			"content": {Type: tool.TypeString, Required: tool.Always(true), Description: "the completed goal/content to branch from"},
		},
		Handler: func(ctx context.Context, params map[string]interface{}, parent thought.Thought, agentID string) (thought.Thought, error) {
			content, _ := params["content"].(string)

			var queryEmb []float32
			if embedder := mem.Embedder(); embedder != nil {
				emb, err := embedder.Embed(ctx, content)
				if err == nil {
					queryEmb = emb
				}
			}
			recent := mem.FindSimilar(ctx, queryEmb, proposalContextLimit, memory.Filter{})

			var sb strings.Builder
			sb.WriteString("Given the completed work: ")
			sb.WriteString(content)
			if len(recent) > 0 {
				sb.WriteString("\nRecent related context:\n")
				for _, e := range recent {
					sb.WriteString("- ")
					sb.WriteString(e.Content)
					sb.WriteString("\n")
				}
			}
			sb.WriteString("\nPropose a single, concrete, related next goal.")

			raw, err := svc.Generate(ctx, sb.String(), "json")
			if err != nil {
				return thought.Thought{}, fmt.Errorf("goal proposal: %w", err)
			}
			proposed := llm.ParseGenerated(raw, thought.KindInput)

			t := thought.New(thought.KindInput, proposed, parent.ID, parent.Metadata.RootID)
			base := 0.5
			if parent.Metadata.Priority != nil {
				base = *parent.Metadata.Priority
			}
			boosted := base + proposalPriorityBoost
			t.Metadata.Priority = &boosted
			return t, nil
		},
	}
}
