package builtin

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/automenta/flowmind/internal/memory"
	"github.com/automenta/flowmind/internal/term"
	"github.com/automenta/flowmind/internal/thought"
	"github.com/automenta/flowmind/internal/tool"
)

// MemoryToolName is the tool name bootstrap rules dispatch memory
// actions to; the discriminant "action" parameter selects add vs
// search, the conditional-requiredness schema example of spec §4.5.
const MemoryToolName = "memory"

// NewMemoryTool builds the Memory built-in tool spec (§4.6).
func NewMemoryTool(store *memory.Store, defaultSearchLimit int) *tool.Spec {
	return &tool.Spec{
		Name:        MemoryToolName,
		Description: "Append a fact/trace to memory, or search memory by similarity.",
		Parameters: tool.Schema{
			"action":        {Type: tool.TypeString, Required: tool.Always(true), Description: "add | search"},
			"content":       {Type: tool.TypeString, Required: tool.RequiredWhen("action", "add")},
			"type":          {Type: tool.TypeString, Required: tool.Always(false)},
			"metadata":      {Type: tool.TypeObject, Required: tool.Always(false)},
			"query":         {Type: tool.TypeString, Required: tool.RequiredWhen("action", "search")},
			"limit":         {Type: tool.TypeNumber, Required: tool.Always(false)},
			"filterContext": {Type: tool.TypeObject, Required: tool.Always(false)},
		},
		Handler: func(ctx context.Context, params map[string]interface{}, parent thought.Thought, agentID string) (thought.Thought, error) {
			action, _ := params["action"].(string)
			switch action {
			case "add":
				content, _ := params["content"].(string)
				meta := map[string]interface{}{}
				if t, ok := params["type"].(string); ok && t != "" {
					meta["type"] = t
				}
				if extra, ok := params["metadata"].(map[string]interface{}); ok {
					for k, v := range extra {
						meta[k] = v
					}
				}
				meta["related_ids"] = []uuid.UUID{parent.ID}
				entry, err := store.Add(ctx, memory.Entry{Content: content, Metadata: meta})
				if err != nil {
					return thought.Thought{}, fmt.Errorf("memory add: %w", err)
				}
				t := thought.New(thought.KindOutcome, term.Struct("memory_added", term.Atom(entry.ID.String())), parent.ID, parent.Metadata.RootID)
				t.Status = thought.StatusDone
				return t, nil
			case "search":
				query, _ := params["query"].(string)
				limit := defaultSearchLimit
				if n, ok := numberParam(params["limit"]); ok {
					limit = int(n)
				}
				filter := parseFilter(params["filterContext"])

				var queryEmb []float32
				if embedder := store.Embedder(); embedder != nil {
					emb, err := embedder.Embed(ctx, query)
					if err != nil {
						return thought.Thought{}, fmt.Errorf("memory search embed: %w", err)
					}
					queryEmb = emb
				}

				results := store.FindSimilar(ctx, queryEmb, limit, filter)
				content := term.Atom("no_memory_results")
				if len(results) > 0 {
					items := make([]term.Term, len(results))
					for i, r := range results {
						typ, _ := r.Metadata["type"].(string)
						items[i] = term.Struct("memory_result", term.Atom(r.Content), term.Atom(r.ID.String()), term.Atom(typ))
					}
					content = term.List(items...)
				}
				t := thought.New(thought.KindOutcome, content, parent.ID, parent.Metadata.RootID)
				t.Status = thought.StatusDone
				return t, nil
			default:
				return thought.Thought{}, fmt.Errorf("memory tool: unrecognized action %q", action)
			}
		},
	}
}

func numberParam(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}

func parseFilter(v interface{}) memory.Filter {
	m, ok := v.(map[string]interface{})
	if !ok {
		return memory.Filter{}
	}
	f := memory.Filter{}
	if t, ok := m["requiredType"].(string); ok {
		f.RequiredType = t
	}
	if idStr, ok := m["relatedToId"].(string); ok {
		if id, err := uuid.Parse(idStr); err == nil {
			f.RelatedToID = id
		}
	}
	if entities, ok := m["requiredEntities"].([]interface{}); ok {
		for _, e := range entities {
			if s, ok := e.(string); ok {
				f.RequiredEntities = append(f.RequiredEntities, s)
			}
		}
	}
	return f
}
