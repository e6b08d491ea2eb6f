// Package memory implements MemoryStore: the append-only vector
// index written by tools and read by rule/thought sampling, backed by
// chromem-go.
package memory

import (
	"context"
	"fmt"
	"log"
	"sync"

	chromem "github.com/philippgille/chromem-go"
	"github.com/google/uuid"
)

// Entry is a MemoryEntry (spec §3): an append-only vector record.
type Entry struct {
	ID        uuid.UUID
	Embedding []float32
	Content   string
	Metadata  map[string]interface{}
}

// Filter restricts findSimilar candidates per spec §4.4.
type Filter struct {
	RequiredType     string      // exact match on metadata["type"]
	RelatedToID      uuid.UUID   // must appear in metadata["related_ids"]
	RequiredEntities []string    // all must appear in metadata["extracted_entities"]
}

func (f Filter) empty() bool {
	return f.RequiredType == "" && f.RelatedToID == uuid.Nil && len(f.RequiredEntities) == 0
}

// Embedder generates embeddings for stored content. Satisfied by the
// LLM Service's embed operation.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// collectionName is the single chromem collection FlowMind stores all
// memory entries in; application-level Filter does the rest, since
// chromem's own metadata predicate only supports exact-string
// equality and can't express list-membership.
const collectionName = "flowmind_memory"

// overfetchMultiplier controls how many extra candidates are pulled
// from chromem before application-level filtering narrows them back
// down to limit, so that a restrictive Filter doesn't starve the
// final top-N ranking.
const overfetchMultiplier = 5

// Store is the MemoryStore described in spec §4.4.
type Store struct {
	mu       sync.RWMutex
	db       *chromem.DB
	embedder Embedder
	entries  map[uuid.UUID]Entry // canonical metadata/content, since
	// chromem's Document.Metadata is map[string]string and cannot
	// carry related_ids/extracted_entities as structured lists.
}

// NewStore opens (or creates) a chromem database. persistPath empty
// means in-memory only, matching the reference VectorStore's own
// convention.
func NewStore(persistPath string, embedder Embedder) (*Store, error) {
	var db *chromem.DB
	var err error
	if persistPath != "" {
		db, err = chromem.NewPersistentDB(persistPath, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open persistent memory store: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}
	return &Store{db: db, embedder: embedder, entries: make(map[uuid.UUID]Entry)}, nil
}

func (s *Store) collection() (*chromem.Collection, error) {
	if c := s.db.GetCollection(collectionName, nil); c != nil {
		return c, nil
	}
	return s.db.CreateCollection(collectionName, nil, nil)
}

// Add stores a new memory entry, generating its embedding from
// Content if Embedding is empty.
func (s *Store) Add(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if len(e.Embedding) == 0 {
		if s.embedder == nil {
			return Entry{}, fmt.Errorf("memory embed failed: no embedder configured")
		}
		emb, err := s.embedder.Embed(ctx, e.Content)
		if err != nil {
			return Entry{}, fmt.Errorf("memory embed failed: %w", err)
		}
		e.Embedding = emb
	}

	col, err := s.collection()
	if err != nil {
		return Entry{}, err
	}
	chromemMeta := map[string]string{}
	if t, ok := e.Metadata["type"].(string); ok {
		chromemMeta["type"] = t
	}
	if err := col.AddDocument(ctx, chromem.Document{
		ID:        e.ID.String(),
		Content:   e.Content,
		Metadata:  chromemMeta,
		Embedding: e.Embedding,
	}); err != nil {
		return Entry{}, fmt.Errorf("failed to add memory document: %w", err)
	}

	s.mu.Lock()
	s.entries[e.ID] = e
	s.mu.Unlock()
	return e, nil
}

// Embedder exposes the store's configured embedder, so built-in tools
// that need to embed a query string before calling FindSimilar don't
// have to carry a second reference to the same LLM Service.
func (s *Store) Embedder() Embedder {
	return s.embedder
}

// Get retrieves a memory entry by id.
func (s *Store) Get(id uuid.UUID) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	return e, ok
}

// All returns every memory entry, used by Persistence.Snapshot.
func (s *Store) All() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out
}

// Clear drops every memory entry. Used by Persistence.Restore.
func (s *Store) Clear() {
	s.mu.Lock()
	s.entries = make(map[uuid.UUID]Entry)
	s.mu.Unlock()
	s.db.DeleteCollection(collectionName)
}

// FindSimilar ranks entries matching filter by cosine similarity to
// queryEmbedding, descending, returning the top limit. A
// zero-magnitude query returns no results, per spec §8.
//
// chromem runs the nearest-neighbor search itself; its native `where`
// predicate only supports exact string equality, so requiredType
// narrows the chromem query directly while relatedToId/requiredEntities
// (list-membership, all-must-match) are applied as an application-level
// post-filter over an over-fetched candidate set, which keeps the
// similarity order chromem returned.
func (s *Store) FindSimilar(ctx context.Context, queryEmbedding []float32, limit int, filter Filter) []Entry {
	if limit <= 0 {
		limit = 10
	}
	if allZero(queryEmbedding) {
		return nil
	}

	col, err := s.collection()
	if err != nil {
		log.Printf("warning: memory findSimilar: %v", err)
		return nil
	}

	fetch := limit
	if !filter.empty() {
		fetch = limit * overfetchMultiplier
	}
	s.mu.RLock()
	n := len(s.entries)
	s.mu.RUnlock()
	if fetch > n {
		fetch = n
	}
	if fetch == 0 {
		return nil
	}

	var where map[string]string
	if filter.RequiredType != "" {
		where = map[string]string{"type": filter.RequiredType}
	}

	results, err := col.QueryEmbedding(ctx, queryEmbedding, fetch, where, nil)
	if err != nil {
		log.Printf("warning: memory findSimilar query failed: %v", err)
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, limit)
	for _, r := range results {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			continue
		}
		e, ok := s.entries[id]
		if !ok || !matchesFilter(e, filter) {
			continue
		}
		out = append(out, e)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func matchesFilter(e Entry, f Filter) bool {
	if f.empty() {
		return true
	}
	if f.RequiredType != "" {
		t, _ := e.Metadata["type"].(string)
		if t != f.RequiredType {
			return false
		}
	}
	if f.RelatedToID != uuid.Nil {
		ids, _ := e.Metadata["related_ids"].([]uuid.UUID)
		if !containsUUID(ids, f.RelatedToID) {
			return false
		}
	}
	for _, required := range f.RequiredEntities {
		entities, _ := e.Metadata["extracted_entities"].([]string)
		if !containsString(entities, required) {
			return false
		}
	}
	return true
}

func containsUUID(haystack []uuid.UUID, needle uuid.UUID) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}

func containsString(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}

func allZero(v []float32) bool {
	if len(v) == 0 {
		return true
	}
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Close logs the number of cached entries and returns nil; the
// chromem database is not released or flushed here.
func (s *Store) Close() error {
	log.Printf("[DEBUG] memory store closing (%d entries cached)", len(s.entries))
	return nil
}
