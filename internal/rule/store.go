package rule

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
)

// maxEmbedSourceChars bounds the text handed to the embedder, per
// spec §4.3 ("truncated to a configured length").
const maxEmbedSourceChars = 2000

// Store holds rules keyed by id, with a parallel map of cached
// pattern/action embeddings (spec §4.3). Thread-safe; grounded in the
// reference storage layer's sync.RWMutex-guarded map-of-records
// pattern, generalized to asynchronous embedding generation.
type Store struct {
	mu         sync.RWMutex
	rules      map[uuid.UUID]Rule
	embeddings map[uuid.UUID][]float32
	embedder   Embedder
}

// NewStore constructs an empty RuleStore. embedder may be nil, in
// which case embeddings are never generated and findAndSample runs
// with boostFactor effectively disabled for rules.
func NewStore(embedder Embedder) *Store {
	return &Store{
		rules:      make(map[uuid.UUID]Rule),
		embeddings: make(map[uuid.UUID][]float32),
		embedder:   embedder,
	}
}

// Add inserts a rule and kicks off asynchronous embedding generation.
// Embedding failure is tolerated: the rule is usable for unification
// immediately, just without a similarity boost until the embedding
// (if ever) completes.
func (s *Store) Add(r Rule) {
	s.mu.Lock()
	s.rules[r.ID] = r
	s.mu.Unlock()
	s.regenerateEmbedding(r)
}

// Restore reinstalls a rule loaded from a Persistence snapshot. If
// embedding is non-empty it is installed directly without a round
// trip to the embedder; if empty, a fresh embedding is generated
// asynchronously, matching the persistence contract that "rule
// embeddings are regenerated for any rule whose embedding is absent".
func (s *Store) Restore(r Rule, embedding []float32) {
	s.mu.Lock()
	s.rules[r.ID] = r
	if len(embedding) > 0 {
		s.embeddings[r.ID] = embedding
	}
	s.mu.Unlock()
	if len(embedding) == 0 {
		s.regenerateEmbedding(r)
	}
}

// Update replaces a rule's pattern/action/metadata and invalidates its
// cached embedding, regenerating it asynchronously. Belief-only
// updates should use UpdateBelief instead to avoid the unnecessary
// recompute.
func (s *Store) Update(r Rule) {
	s.mu.Lock()
	s.rules[r.ID] = r
	delete(s.embeddings, r.ID)
	s.mu.Unlock()
	s.regenerateEmbedding(r)
}

// UpdateBelief replaces only the belief of an existing rule, leaving
// its cached embedding untouched (pattern/action are unchanged).
func (s *Store) UpdateBelief(id uuid.UUID, b func(r Rule) Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rules[id]
	if !ok {
		return
	}
	s.rules[id] = b(r)
}

func (s *Store) regenerateEmbedding(r Rule) {
	if s.embedder == nil {
		return
	}
	go func() {
		source := r.Pattern.String() + " " + r.Action.String()
		if len(source) > maxEmbedSourceChars {
			source = source[:maxEmbedSourceChars]
		}
		emb, err := s.embedder.Embed(context.Background(), source)
		if err != nil {
			log.Printf("warning: rule embedding generation failed for %s: %v", r.ID, err)
			return
		}
		s.mu.Lock()
		s.embeddings[r.ID] = emb
		s.mu.Unlock()
	}()
}

// Get returns a rule and its cached embedding (nil if not yet
// computed or embedding generation failed/was disabled).
func (s *Store) Get(id uuid.UUID) (Rule, []float32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rules[id]
	if !ok {
		return Rule{}, nil, false
	}
	return r.Clone(), s.embeddings[id], true
}

// All returns a copy of every rule currently held; cached embeddings
// are available separately through Embeddings or Get.
func (s *Store) All() []Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Rule, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, r.Clone())
	}
	return out
}

// Embeddings returns a snapshot of the id->embedding cache, used by
// the Unifier's findAndSample and by Persistence.Snapshot.
func (s *Store) Embeddings() map[uuid.UUID][]float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uuid.UUID][]float32, len(s.embeddings))
	for k, v := range s.embeddings {
		out[k] = append([]float32(nil), v...)
	}
	return out
}

// SetEmbedding installs a precomputed embedding without triggering
// regeneration. Persistence.Restore does not use it; it reinstalls
// snapshot vectors through Restore.
func (s *Store) SetEmbedding(id uuid.UUID, emb []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.embeddings[id] = emb
}

// Clear removes every rule and cached embedding.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = make(map[uuid.UUID]Rule)
	s.embeddings = make(map[uuid.UUID][]float32)
}
