package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	// Deterministic per-content vector so similarity ordering is
	// predictable in tests.
	v := make([]float32, 4)
	for i, r := range text {
		v[i%4] += float32(r)
	}
	return v, nil
}

func TestAddAndFindSimilar(t *testing.T) {
	s, err := NewStore("", stubEmbedder{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	ctx := context.Background()

	e1, err := s.Add(ctx, Entry{Content: "paris trip plan", Metadata: map[string]interface{}{"type": "fact"}})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	_, err = s.Add(ctx, Entry{Content: "unrelated note", Metadata: map[string]interface{}{"type": "fact"}})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	results := s.FindSimilar(ctx, e1.Embedding, 1, Filter{})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].ID != e1.ID {
		t.Errorf("expected the identical-embedding entry to rank first")
	}
}

func TestFindSimilarZeroMagnitudeReturnsEmpty(t *testing.T) {
	s, err := NewStore("", stubEmbedder{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	ctx := context.Background()
	if _, err := s.Add(ctx, Entry{Content: "x"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	results := s.FindSimilar(ctx, []float32{0, 0, 0, 0}, 5, Filter{})
	if len(results) != 0 {
		t.Errorf("expected no results for zero-magnitude query, got %d", len(results))
	}
}

func TestFindSimilarRequiredTypeFilter(t *testing.T) {
	s, err := NewStore("", stubEmbedder{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	ctx := context.Background()

	e1, _ := s.Add(ctx, Entry{Content: "trace one", Metadata: map[string]interface{}{"type": "execution_trace"}})
	_, _ = s.Add(ctx, Entry{Content: "fact one", Metadata: map[string]interface{}{"type": "fact"}})

	results := s.FindSimilar(ctx, e1.Embedding, 10, Filter{RequiredType: "execution_trace"})
	for _, r := range results {
		if r.Metadata["type"] != "execution_trace" {
			t.Errorf("expected only execution_trace entries, got %v", r.Metadata["type"])
		}
	}
}

func TestFindSimilarRelatedToIDFilter(t *testing.T) {
	s, err := NewStore("", stubEmbedder{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	ctx := context.Background()
	related := uuid.New()

	e1, _ := s.Add(ctx, Entry{Content: "a", Metadata: map[string]interface{}{"related_ids": []uuid.UUID{related}}})
	_, _ = s.Add(ctx, Entry{Content: "b", Metadata: map[string]interface{}{"related_ids": []uuid.UUID{uuid.New()}}})

	results := s.FindSimilar(ctx, e1.Embedding, 10, Filter{RelatedToID: related})
	if len(results) != 1 || results[0].ID != e1.ID {
		t.Errorf("expected only the related entry, got %+v", results)
	}
}
