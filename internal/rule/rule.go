// Package rule implements the RuleStore: the knowledge base the
// Worker unifies pending thoughts against.
package rule

import (
	"context"

	"github.com/google/uuid"

	"github.com/automenta/flowmind/internal/belief"
	"github.com/automenta/flowmind/internal/term"
)

// Rule is a pattern/action entry. pattern is unified against a
// thought's content; action is either a tool-call structure or a
// sequence/parallel workflow control structure.
type Rule struct {
	ID       uuid.UUID
	Pattern  term.Term
	Action   term.Term
	Belief   belief.Belief
	Metadata map[string]interface{}
}

// Clone returns a copy safe to hand out as a read snapshot.
func (r Rule) Clone() Rule {
	cp := r
	if r.Metadata != nil {
		cp.Metadata = make(map[string]interface{}, len(r.Metadata))
		for k, v := range r.Metadata {
			cp.Metadata[k] = v
		}
	}
	return cp
}

// New constructs a rule with default belief and a fresh id.
func New(pattern, action term.Term) Rule {
	return Rule{
		ID:      uuid.New(),
		Pattern: pattern,
		Action:  action,
		Belief:  belief.Default(),
	}
}

// Embedder generates a vector embedding for a piece of text. Satisfied
// by the LLM Service's embed operation; kept as a narrow interface
// here so RuleStore never imports the llm package directly.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
