package rule

import (
	"github.com/google/uuid"

	"github.com/automenta/flowmind/internal/term"
	"github.com/automenta/flowmind/internal/thought"
)

// Match pairs a matched rule with the bindings that made it match.
type Match struct {
	Rule     Rule
	Bindings term.Bindings
}

// FindAndSample implements spec §4.1's findAndSample: unify the
// thought's content against each rule's pattern, score every
// candidate by rule belief (optionally boosted by embedding
// similarity to the thought's own embedding), then sample one
// candidate with probability proportional to score. Returns
// (Match{}, false) if no rule unifies or every candidate score is
// non-positive.
func FindAndSample(th thought.Thought, rules []Rule, boostFactor float64, ruleEmbeddings map[uuid.UUID][]float32) (Match, bool) {
	type candidate struct {
		rule     Rule
		bindings term.Bindings
		weight   float64
	}

	candidates := make([]candidate, 0, len(rules))
	for _, r := range rules {
		bindings, ok := term.Unify(r.Pattern, th.Content)
		if !ok {
			continue
		}
		weight := r.Belief.Score()
		if boostFactor > 0 && len(th.Metadata.Embedding) > 0 {
			if emb, ok := ruleEmbeddings[r.ID]; ok && len(emb) > 0 {
				cos := term.Clamp01(term.CosineSimilarity(th.Metadata.Embedding, emb))
				weight *= 1 + cos*boostFactor
			}
		}
		candidates = append(candidates, candidate{rule: r, bindings: bindings, weight: weight})
	}

	if len(candidates) == 0 {
		return Match{}, false
	}

	weights := make([]float64, len(candidates))
	for i, c := range candidates {
		weights[i] = c.weight
	}
	idx, ok := term.WeightedSample(weights)
	if !ok {
		return Match{}, false
	}
	return Match{Rule: candidates[idx].rule, Bindings: candidates[idx].bindings}, true
}
