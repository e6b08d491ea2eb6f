// Package persistence implements the Persistence contract of spec §6:
// a value-level snapshot of every thought, rule (with its cached
// embedding), memory entry, and the effective configuration, and a
// restore of the thoughts, rules and memory entries (the stored
// configuration is not read back), backed by SQLite the way the reference agent's own storage layer is
// backed by SQLite — a schema-versioned set of tables written inside
// a single transaction, with embeddings packed as little-endian
// float32 blobs.
package persistence

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log"
	"math"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/automenta/flowmind/internal/belief"
	"github.com/automenta/flowmind/internal/config"
	"github.com/automenta/flowmind/internal/memory"
	"github.com/automenta/flowmind/internal/rule"
	"github.com/automenta/flowmind/internal/term"
	"github.com/automenta/flowmind/internal/thought"
)

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS schema_metadata (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS thoughts (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	content TEXT NOT NULL,
	status TEXT NOT NULL,
	belief_pos REAL NOT NULL,
	belief_neg REAL NOT NULL,
	belief_updated_at INTEGER NOT NULL,
	metadata TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS rules (
	id TEXT PRIMARY KEY,
	pattern TEXT NOT NULL,
	action TEXT NOT NULL,
	belief_pos REAL NOT NULL,
	belief_neg REAL NOT NULL,
	belief_updated_at INTEGER NOT NULL,
	metadata TEXT NOT NULL,
	embedding BLOB
);

CREATE TABLE IF NOT EXISTS memory_entries (
	id TEXT PRIMARY KEY,
	content TEXT NOT NULL,
	embedding BLOB,
	metadata TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS effective_config (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Store is the SQLite-backed snapshot/restore implementation. It owns
// no agent state itself; Snapshot reads from and Restore writes into
// the three stores passed at construction.
type Store struct {
	db       *sql.DB
	thoughts *thought.Store
	rules    *rule.Store
	memories *memory.Store
}

// Open creates (or opens) the SQLite file at path and ensures the
// schema exists, mirroring the reference storage layer's
// NewSQLiteStorage connection setup.
func Open(path string, thoughts *thought.Store, rules *rule.Store, memories *memory.Store) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("persistence path cannot be empty")
	}
	db, err := sql.Open("sqlite", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(4)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &Store{db: db, thoughts: thoughts, rules: rules, memories: memories}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

type thoughtRow struct {
	Kind     thought.Kind     `json:"kind"`
	Content  term.Term        `json:"content"`
	Status   thought.Status   `json:"status"`
	Belief   belief.Belief    `json:"belief"`
	Metadata thought.Metadata `json:"metadata"`
}

type ruleRow struct {
	Pattern  term.Term              `json:"pattern"`
	Action   term.Term              `json:"action"`
	Belief   belief.Belief          `json:"belief"`
	Metadata map[string]interface{} `json:"metadata"`
}

type memoryMetadataWire struct {
	Type              string                 `json:"type,omitempty"`
	RelatedIDs        []uuid.UUID            `json:"related_ids,omitempty"`
	ExtractedEntities []string               `json:"extracted_entities,omitempty"`
	Provenance        []uuid.UUID            `json:"provenance,omitempty"`
	Extra             map[string]interface{} `json:"extra,omitempty"`
}

func toWireMetadata(m map[string]interface{}) memoryMetadataWire {
	w := memoryMetadataWire{Extra: map[string]interface{}{}}
	for k, v := range m {
		switch k {
		case "type":
			w.Type, _ = v.(string)
		case "related_ids":
			w.RelatedIDs, _ = v.([]uuid.UUID)
		case "extracted_entities":
			w.ExtractedEntities, _ = v.([]string)
		case "provenance":
			w.Provenance, _ = v.([]uuid.UUID)
		default:
			w.Extra[k] = v
		}
	}
	if len(w.Extra) == 0 {
		w.Extra = nil
	}
	return w
}

func fromWireMetadata(w memoryMetadataWire) map[string]interface{} {
	m := map[string]interface{}{}
	for k, v := range w.Extra {
		m[k] = v
	}
	if w.Type != "" {
		m["type"] = w.Type
	}
	if len(w.RelatedIDs) > 0 {
		m["related_ids"] = w.RelatedIDs
	}
	if len(w.ExtractedEntities) > 0 {
		m["extracted_entities"] = w.ExtractedEntities
	}
	if len(w.Provenance) > 0 {
		m["provenance"] = w.Provenance
	}
	return m
}

func packEmbedding(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	b := make([]byte, len(v)*4)
	for i, x := range v {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(x))
	}
	return b
}

func unpackEmbedding(b []byte) []float32 {
	if len(b) == 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

// Snapshot writes the full contents of all three stores plus cfg into
// the database inside a single transaction.
func (s *Store) Snapshot(cfg *config.Config) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM thoughts`); err != nil {
		return fmt.Errorf("clear thoughts: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM rules`); err != nil {
		return fmt.Errorf("clear rules: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM memory_entries`); err != nil {
		return fmt.Errorf("clear memory_entries: %w", err)
	}

	for _, t := range s.thoughts.All() {
		row := thoughtRow{Kind: t.Kind, Content: t.Content, Status: t.Status, Belief: t.Belief, Metadata: t.Metadata}
		metaJSON, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("marshal thought %s: %w", t.ID, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO thoughts (id, kind, content, status, belief_pos, belief_neg, belief_updated_at, metadata) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID.String(), string(t.Kind), t.Content.String(), string(t.Status), t.Belief.Pos, t.Belief.Neg, t.Belief.UpdatedAt.UnixMilli(), string(metaJSON),
		); err != nil {
			return fmt.Errorf("insert thought %s: %w", t.ID, err)
		}
	}

	embeddings := s.rules.Embeddings()
	for _, r := range s.rules.All() {
		row := ruleRow{Pattern: r.Pattern, Action: r.Action, Belief: r.Belief, Metadata: r.Metadata}
		rowJSON, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("marshal rule %s: %w", r.ID, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO rules (id, pattern, action, belief_pos, belief_neg, belief_updated_at, metadata, embedding) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID.String(), r.Pattern.String(), r.Action.String(), r.Belief.Pos, r.Belief.Neg, r.Belief.UpdatedAt.UnixMilli(), string(rowJSON), packEmbedding(embeddings[r.ID]),
		); err != nil {
			return fmt.Errorf("insert rule %s: %w", r.ID, err)
		}
	}

	for _, e := range s.memories.All() {
		metaJSON, err := json.Marshal(toWireMetadata(e.Metadata))
		if err != nil {
			return fmt.Errorf("marshal memory entry %s: %w", e.ID, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO memory_entries (id, content, embedding, metadata) VALUES (?, ?, ?, ?)`,
			e.ID.String(), e.Content, packEmbedding(e.Embedding), string(metaJSON),
		); err != nil {
			return fmt.Errorf("insert memory entry %s: %w", e.ID, err)
		}
	}

	cfgJSON, err := cfg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO effective_config (key, value) VALUES ('config', ?)`, string(cfgJSON)); err != nil {
		return fmt.Errorf("store effective config: %w", err)
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO schema_metadata (key, value) VALUES ('version', ?)`, fmt.Sprintf("%d", schemaVersion)); err != nil {
		return fmt.Errorf("store schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot transaction: %w", err)
	}
	log.Printf("[DEBUG] persistence: snapshot committed (%d thoughts, %d rules, %d memories)",
		len(s.thoughts.All()), len(s.rules.All()), len(s.memories.All()))
	return nil
}

// Restore clears and repopulates all three stores from the database.
// Absence of any prior snapshot (no rows in any table, including a
// freshly-created file) is not an error — the stores are simply left
// empty. Restore is atomic from the caller's perspective: the stores
// are cleared only once every row has been read successfully.
func (s *Store) Restore(ctx context.Context) error {
	thoughtRows, err := s.readThoughts(ctx)
	if err != nil {
		return fmt.Errorf("read thoughts: %w", err)
	}
	ruleRows, err := s.readRules(ctx)
	if err != nil {
		return fmt.Errorf("read rules: %w", err)
	}
	memoryRows, err := s.readMemories(ctx)
	if err != nil {
		return fmt.Errorf("read memory entries: %w", err)
	}

	s.thoughts.Clear()
	s.rules.Clear()
	s.memories.Clear()

	for _, t := range thoughtRows {
		s.thoughts.Add(t)
	}
	for _, rr := range ruleRows {
		s.rules.Restore(rr.r, rr.embedding)
	}
	for _, me := range memoryRows {
		if _, err := s.memories.Add(ctx, me); err != nil {
			log.Printf("warning: persistence restore: failed to re-add memory entry %s: %v", me.ID, err)
		}
	}

	log.Printf("[DEBUG] persistence: restore complete (%d thoughts, %d rules, %d memories)",
		len(thoughtRows), len(ruleRows), len(memoryRows))
	return nil
}

func (s *Store) readThoughts(ctx context.Context) ([]thought.Thought, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, metadata FROM thoughts`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []thought.Thought
	for rows.Next() {
		var idStr, metaJSON string
		if err := rows.Scan(&idStr, &metaJSON); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("parse thought id %s: %w", idStr, err)
		}
		var row thoughtRow
		if err := json.Unmarshal([]byte(metaJSON), &row); err != nil {
			return nil, fmt.Errorf("unmarshal thought %s: %w", idStr, err)
		}
		out = append(out, thought.Thought{
			ID:       id,
			Kind:     row.Kind,
			Content:  row.Content,
			Belief:   row.Belief,
			Status:   row.Status,
			Metadata: row.Metadata,
		})
	}
	return out, rows.Err()
}

type restoredRule struct {
	r         rule.Rule
	embedding []float32
}

func (s *Store) readRules(ctx context.Context) ([]restoredRule, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, metadata, embedding FROM rules`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []restoredRule
	for rows.Next() {
		var idStr, rowJSON string
		var embBlob []byte
		if err := rows.Scan(&idStr, &rowJSON, &embBlob); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("parse rule id %s: %w", idStr, err)
		}
		var row ruleRow
		if err := json.Unmarshal([]byte(rowJSON), &row); err != nil {
			return nil, fmt.Errorf("unmarshal rule %s: %w", idStr, err)
		}
		out = append(out, restoredRule{
			r: rule.Rule{
				ID:       id,
				Pattern:  row.Pattern,
				Action:   row.Action,
				Belief:   row.Belief,
				Metadata: row.Metadata,
			},
			embedding: unpackEmbedding(embBlob),
		})
	}
	return out, rows.Err()
}

func (s *Store) readMemories(ctx context.Context) ([]memory.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, content, embedding, metadata FROM memory_entries`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []memory.Entry
	for rows.Next() {
		var idStr, content, metaJSON string
		var embBlob []byte
		if err := rows.Scan(&idStr, &content, &embBlob, &metaJSON); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("parse memory entry id %s: %w", idStr, err)
		}
		var wire memoryMetadataWire
		if err := json.Unmarshal([]byte(metaJSON), &wire); err != nil {
			return nil, fmt.Errorf("unmarshal memory entry %s: %w", idStr, err)
		}
		out = append(out, memory.Entry{
			ID:        id,
			Content:   content,
			Embedding: unpackEmbedding(embBlob),
			Metadata:  fromWireMetadata(wire),
		})
	}
	return out, rows.Err()
}
