package worker

import (
	"github.com/automenta/flowmind/internal/builtin"
	"github.com/automenta/flowmind/internal/term"
	"github.com/automenta/flowmind/internal/thought"
)

// defaultDisposition is what the Worker should do with a thought that
// matched no rule, per spec §4.10.
type defaultDisposition int

const (
	// dispositionAction dispatches the returned action term through
	// the executor, exactly like a matched rule's action would be.
	dispositionAction defaultDisposition = iota
	// dispositionDone marks the thought DONE directly and runs the
	// hierarchical completion check against its parent (OUTCOME).
	dispositionDone
	// dispositionFail hands the thought to failure handling with the
	// error "no default action" (any kind the table doesn't name): it
	// returns to PENDING while retries remain, then ends FAILED.
	dispositionFail
)

// defaultAction implements spec §4.10: when no rule matches a
// thought, construct a canonical tool invocation from its kind. The
// second return value is an optional extra PENDING thought to add
// alongside the primary action's trigger (propose_related_goal /
// discover_tools_for).
func defaultAction(t thought.Thought) (action term.Term, extra *thought.Thought, disposition defaultDisposition) {
	switch t.Kind {
	case thought.KindInput:
		return llmGenerate(t.Content.String(), "GOAL"), nil, dispositionAction

	case thought.KindGoal:
		action = llmGenerate(t.Content.String(), "STRATEGY")
		proposal := thought.New(thought.KindStrategy, term.Struct(builtin.GoalProposalToolName, term.Struct("content", term.Atom(t.Content.String()))), t.ID, t.Metadata.RootID)
		return action, &proposal, dispositionAction

	case thought.KindStrategy:
		action = llmGenerate(t.Content.String(), "OUTCOME")
		discover := thought.New(thought.KindStrategy, term.Struct("discover_tools_for", term.Atom(t.Content.String())), t.ID, t.Metadata.RootID)
		return action, &discover, dispositionAction

	case thought.KindOutcome:
		return term.Term{}, nil, dispositionDone

	case thought.KindQuery:
		return llmGenerate("answer this query: "+t.Content.String(), "OUTCOME"), nil, dispositionAction

	default:
		return term.Term{}, nil, dispositionFail
	}
}

func llmGenerate(input, targetKind string) term.Term {
	return term.Struct(builtin.LLMToolName,
		term.Struct("action", term.Atom("generate")),
		term.Struct("input", term.Atom(input)),
		term.Struct("kind", term.Atom(targetKind)),
	)
}
