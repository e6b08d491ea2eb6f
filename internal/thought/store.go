package thought

import (
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/automenta/flowmind/internal/term"
)

// SampleConfig parameterizes samplePending's belief-decay behavior.
// Grounded in the reference storage layer's Config-driven tuning
// knobs (internal/storage.Config), generalized to the fields this
// engine actually needs.
type SampleConfig struct {
	BeliefDecayRatePerMilli float64
}

// Store is the in-memory, thread-safe, indexed set of thoughts
// described in spec §4.2. It is the sole owner of every Thought;
// callers only ever hold read snapshots obtained from Get/All/Find*,
// used exclusively to drive a subsequent Update compare-and-set.
type Store struct {
	mu       sync.RWMutex
	thoughts map[uuid.UUID]Thought
	order    []uuid.UUID // insertion order, for deterministic All()
	byParent map[uuid.UUID][]uuid.UUID
	byRoot   map[uuid.UUID][]uuid.UUID
}

// NewStore constructs an empty ThoughtStore.
func NewStore() *Store {
	return &Store{
		thoughts: make(map[uuid.UUID]Thought),
		byParent: make(map[uuid.UUID][]uuid.UUID),
		byRoot:   make(map[uuid.UUID][]uuid.UUID),
	}
}

// Get returns a read snapshot of the thought with the given id.
func (s *Store) Get(id uuid.UUID) (Thought, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.thoughts[id]
	if !ok {
		return Thought{}, false
	}
	return t.Clone(), true
}

// Add inserts a brand-new thought. It is not subject to optimistic
// concurrency: the caller is asserting the id is fresh.
func (s *Store) Add(t Thought) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertLocked(t)
}

func (s *Store) insertLocked(t Thought) {
	if _, exists := s.thoughts[t.ID]; !exists {
		s.order = append(s.order, t.ID)
		if t.Metadata.ParentID != uuid.Nil {
			s.byParent[t.Metadata.ParentID] = append(s.byParent[t.Metadata.ParentID], t.ID)
		}
		if t.Metadata.RootID != uuid.Nil {
			s.byRoot[t.Metadata.RootID] = append(s.byRoot[t.Metadata.RootID], t.ID)
		}
	}
	s.thoughts[t.ID] = t
}

// FindByParent returns all thoughts whose metadata.parent_id equals
// parentID, in insertion order.
func (s *Store) FindByParent(parentID uuid.UUID) []Thought {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byParent[parentID]
	out := make([]Thought, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.thoughts[id].Clone())
	}
	return out
}

// FindByRoot returns all thoughts whose metadata.root_id equals
// rootID, in insertion order.
func (s *Store) FindByRoot(rootID uuid.UUID) []Thought {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byRoot[rootID]
	out := make([]Thought, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.thoughts[id].Clone())
	}
	return out
}

// All returns every thought currently held, in insertion order.
func (s *Store) All() []Thought {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Thought, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.thoughts[id].Clone())
	}
	return out
}

// Clear removes every thought. Used only by Persistence.Restore.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thoughts = make(map[uuid.UUID]Thought)
	s.order = nil
	s.byParent = make(map[uuid.UUID][]uuid.UUID)
	s.byRoot = make(map[uuid.UUID][]uuid.UUID)
}

// Update is the optimistic compare-and-set required by spec §4.2: it
// succeeds only if the currently stored record is bit-identical to
// oldRef. IDs must match between oldRef and newThought.
func (s *Store) Update(oldRef, newThought Thought) bool {
	if oldRef.ID != newThought.ID {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.thoughts[oldRef.ID]
	if !ok {
		return false
	}
	if !reflect.DeepEqual(current, oldRef) {
		return false
	}
	s.thoughts[newThought.ID] = newThought
	return true
}

// SamplePending implements spec §4.2's weighted sampling over PENDING
// thoughts, context-biased by cosine similarity to ctx's embedding
// when boostFactor > 0.
func (s *Store) SamplePending(ctx *Thought, boostFactor float64, cfg SampleConfig) (Thought, bool) {
	s.mu.RLock()
	pending := make([]Thought, 0)
	for _, id := range s.order {
		if t := s.thoughts[id]; t.Status == StatusPending {
			pending = append(pending, t.Clone())
		}
	}
	s.mu.RUnlock()

	if len(pending) == 0 {
		return Thought{}, false
	}

	now := time.Now()
	weights := make([]float64, len(pending))
	for i, t := range pending {
		var w float64
		if t.Metadata.Priority != nil && *t.Metadata.Priority > 0 {
			w = *t.Metadata.Priority
		} else {
			w = t.Belief.Decay(cfg.BeliefDecayRatePerMilli, now).Score()
		}
		if ctx != nil && len(ctx.Metadata.Embedding) > 0 && boostFactor > 0 && len(t.Metadata.Embedding) > 0 {
			cos := term.Clamp01(term.CosineSimilarity(ctx.Metadata.Embedding, t.Metadata.Embedding))
			w *= 1 + cos*boostFactor
		}
		weights[i] = w
	}

	if idx, ok := term.WeightedSample(weights); ok {
		return pending[idx], true
	}
	// All weights non-positive: fall back to uniform random over the
	// original PENDING set.
	idx := term.UniformSample(len(pending))
	return pending[idx], true
}