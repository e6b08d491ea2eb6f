package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/automenta/flowmind/internal/config"
	"github.com/automenta/flowmind/internal/llm"
	"github.com/automenta/flowmind/internal/memory"
	"github.com/automenta/flowmind/internal/rule"
	"github.com/automenta/flowmind/internal/term"
	"github.com/automenta/flowmind/internal/thought"
)

func newStores(t *testing.T) (*thought.Store, *rule.Store, *memory.Store) {
	t.Helper()
	mock := &llm.Mock{Default: "{}", EmbedDim: 8}
	thoughts := thought.NewStore()
	rules := rule.NewStore(mock)
	memories, err := memory.NewStore("", mock)
	require.NoError(t, err)
	return thoughts, rules, memories
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "flowmind.db")

	thoughts, rules, memories := newStores(t)
	store, err := Open(dbPath, thoughts, rules, memories)
	require.NoError(t, err)
	defer store.Close()

	root := thought.New(thought.KindInput, term.Atom("plan a trip"), uuid.Nil, uuid.Nil)
	thoughts.Add(root)
	goal := thought.New(thought.KindGoal, term.Struct("plan_trip", term.Atom("paris")), root.ID, root.ID)
	goal.Status = thought.StatusDone
	thoughts.Add(goal)

	r := rule.New(term.Struct("p", term.Var("X")), term.Struct("t1", term.Var("X")))
	rules.Add(r)

	_, err = memories.Add(ctx, memory.Entry{
		Content:  "trace of execution",
		Metadata: map[string]interface{}{"type": "execution_trace"},
	})
	require.NoError(t, err)

	cfg := config.Default()
	cfg.NumWorkers = 7
	require.NoError(t, store.Snapshot(cfg))

	// Restore into a fresh set of stores backed by the same db file.
	thoughts2, rules2, memories2 := newStores(t)
	store2, err := Open(dbPath, thoughts2, rules2, memories2)
	require.NoError(t, err)
	defer store2.Close()
	require.NoError(t, store2.Restore(ctx))

	restoredThoughts := thoughts2.All()
	require.Len(t, restoredThoughts, 2)

	restoredRules := rules2.All()
	require.Len(t, restoredRules, 1)
	require.True(t, restoredRules[0].Pattern.Equal(r.Pattern))

	restoredMemories := memories2.All()
	require.Len(t, restoredMemories, 1)
	require.Equal(t, "trace of execution", restoredMemories[0].Content)
}

func TestRestoreOnEmptyDatabaseIsNotAnError(t *testing.T) {
	thoughts, rules, memories := newStores(t)
	dbPath := filepath.Join(t.TempDir(), "flowmind.db")
	store, err := Open(dbPath, thoughts, rules, memories)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Restore(context.Background()))
	require.Empty(t, thoughts.All())
	require.Empty(t, rules.All())
	require.Empty(t, memories.All())
}
