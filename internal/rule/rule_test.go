package rule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/automenta/flowmind/internal/term"
	"github.com/automenta/flowmind/internal/thought"
)

type stubEmbedder struct {
	vec []float32
	err error
}

func (s stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.vec, s.err
}

func TestAddGeneratesEmbeddingAsync(t *testing.T) {
	s := NewStore(stubEmbedder{vec: []float32{1, 0, 0}})
	r := New(term.Struct("p", term.Var("X")), term.Struct("t1", term.Var("X")))
	s.Add(r)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, emb, _ := s.Get(r.ID); emb != nil {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for async embedding generation")
}

func TestAddToleratesEmbedderFailure(t *testing.T) {
	s := NewStore(stubEmbedder{err: context.DeadlineExceeded})
	r := New(term.Atom("p"), term.Atom("a"))
	s.Add(r)

	rules := s.All()
	if len(rules) != 1 {
		t.Fatalf("expected rule to be stored despite embedder failure, got %d rules", len(rules))
	}
}

func TestFindAndSampleFailsWhenNoRuleUnifies(t *testing.T) {
	rules := []Rule{New(term.Atom("a"), term.Atom("noop"))}
	th := thought.New(thought.KindInput, term.Atom("b"), uuid.Nil, uuid.Nil)
	_, ok := FindAndSample(th, rules, 0, nil)
	if ok {
		t.Fatal("expected no match when pattern does not unify")
	}
}

func TestFindAndSampleNeverSelectsNonUnifyingRule(t *testing.T) {
	unifying := New(term.Struct("p", term.Var("X")), term.Atom("t1"))
	other := New(term.Struct("q", term.Var("X")), term.Atom("t2"))
	th := thought.New(thought.KindInput, term.Struct("p", term.Atom("a")), uuid.Nil, uuid.Nil)

	for i := 0; i < 50; i++ {
		m, ok := FindAndSample(th, []Rule{unifying, other}, 0, nil)
		if !ok {
			t.Fatal("expected a match")
		}
		if m.Rule.ID != unifying.ID {
			t.Fatalf("selected a rule whose pattern does not unify: %+v", m.Rule)
		}
	}
}

func TestFindAndSampleBindsVariables(t *testing.T) {
	r := New(term.Struct("p", term.Var("X")), term.Struct("t1", term.Var("X")))
	th := thought.New(thought.KindInput, term.Struct("p", term.Atom("paris")), uuid.Nil, uuid.Nil)

	m, ok := FindAndSample(th, []Rule{r}, 0, nil)
	if !ok {
		t.Fatal("expected a match")
	}
	bound := term.Apply(term.Var("X"), m.Bindings)
	if !bound.Equal(term.Atom("paris")) {
		t.Errorf("X = %v, want paris", bound)
	}
}
