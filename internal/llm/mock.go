package llm

import (
	"context"
	"errors"
	"strings"
)

// Mock is a deterministic stand-in for Client used by tests and the
// end-to-end scenarios described in spec §8: it maps a prompt
// substring to a canned generation response, grounded in the
// reference repo's own pattern of a mock embedder used across its
// storage/knowledge test suites.
type Mock struct {
	// Responses maps a substring of the prompt to the raw text
	// Generate returns when the prompt contains it. The first match in
	// map iteration is non-deterministic in Go, so callers needing
	// precedence should use distinct, non-overlapping substrings.
	Responses map[string]string
	// Default is returned when no substring matches.
	Default string
	// EmbedDim is the length of the fixed-direction vector Embed
	// returns; 0 disables embeddings (Embed returns an error).
	EmbedDim int
}

// Generate returns the canned response for the first matching
// substring, or Default.
func (m *Mock) Generate(ctx context.Context, prompt string, format string) (string, error) {
	for substr, resp := range m.Responses {
		if strings.Contains(prompt, substr) {
			return resp, nil
		}
	}
	return m.Default, nil
}

// Embed returns a deterministic unit vector derived from len(text), so
// tests can exercise cosine-similarity-driven code paths without a
// real embedding model.
func (m *Mock) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.EmbedDim == 0 {
		return nil, errors.New("mock: embeddings disabled (EmbedDim is 0)")
	}
	v := make([]float32, m.EmbedDim)
	v[len(text)%m.EmbedDim] = 1
	return v, nil
}
