package tool

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/automenta/flowmind/internal/term"
	"github.com/automenta/flowmind/internal/thought"
)

// Handler executes a tool's effect and produces a result thought.
// Returning a non-nil error is equivalent to a thrown error in spec
// §4.5 step 3: the registry wraps it as a FAILED OUTCOME with error
// kind tool_execution rather than propagating it to the caller.
type Handler func(ctx context.Context, params map[string]interface{}, parent thought.Thought, agentID string) (thought.Thought, error)

// Spec is a named tool: schema plus handler, grounded in the
// reference ToolRegistry's ToolSpec{Name,Description,InputSchema,
// Handler}, generalized to this engine's Thought-producing contract
// and conditional-requiredness parameter schema.
type Spec struct {
	Name        string
	Description string
	Parameters  Schema
	Handler     Handler
}

// Embedder generates embeddings for tool result content, used to
// backfill a result thought's embedding when the handler didn't set
// one (spec §4.5 step 4).
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Registry is the thread-safe keyed map from tool name to Spec,
// grounded in the reference ToolRegistry's sync.RWMutex-guarded map.
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]*Spec
	embedder Embedder
}

// NewRegistry constructs an empty tool registry.
func NewRegistry(embedder Embedder) *Registry {
	return &Registry{tools: make(map[string]*Spec), embedder: embedder}
}

// Register adds or replaces a tool.
func (r *Registry) Register(spec *Spec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[spec.Name] = spec
}

// Unregister removes a tool by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

// Get returns a tool spec by name.
func (r *Registry) Get(name string) (*Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.tools[name]
	return s, ok
}

// List returns every registered tool name.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.tools))
	for name := range r.tools {
		out = append(out, name)
	}
	return out
}

// Execute runs the named tool per spec §4.5's four-step contract.
func (r *Registry) Execute(ctx context.Context, name string, params map[string]interface{}, parent thought.Thought, agentID string) thought.Thought {
	spec, ok := r.Get(name)
	if !ok {
		return FailedOutcome(parent, agentID, "tool_not_found", fmt.Sprintf("unknown tool: %s", name))
	}

	if err := spec.Parameters.Validate(params); err != nil {
		return FailedOutcome(parent, agentID, "invalid_params", err.Error())
	}

	result, err := spec.Handler(ctx, params, parent, agentID)
	if err != nil {
		return FailedOutcome(parent, agentID, "tool_execution", err.Error())
	}

	if len(result.Metadata.Embedding) == 0 && r.embedder != nil {
		if emb, embErr := r.embedder.Embed(ctx, result.Content.String()); embErr == nil {
			result.Metadata.Embedding = emb
		}
	}
	result.Metadata.AgentID = agentID
	result.Metadata.ParentID = parent.ID
	if result.Metadata.RootID == uuid.Nil {
		result.Metadata.RootID = parent.Metadata.RootID
	}
	if !containsUUID(result.Metadata.RelatedIDs, parent.ID) {
		result.Metadata.RelatedIDs = append(result.Metadata.RelatedIDs, parent.ID)
	}
	if result.Metadata.WorkflowID == uuid.Nil {
		result.Metadata.WorkflowID = parent.Metadata.WorkflowID
	}
	return result
}

// FailedOutcome builds the FAILED OUTCOME thought spec §4.5/§7
// require whenever a tool invocation cannot proceed.
func FailedOutcome(parent thought.Thought, agentID, errKind, errMsg string) thought.Thought {
	t := thought.New(thought.KindOutcome, term.Atom(errKind), parent.ID, parent.Metadata.RootID)
	t.Status = thought.StatusFailed
	t.Metadata.AgentID = agentID
	t.Metadata.Error = errMsg
	t.Metadata.UIContext = fmt.Sprintf("%s: %s", errKind, errMsg)
	t.Metadata.RelatedIDs = []uuid.UUID{parent.ID}
	return t
}

func containsUUID(haystack []uuid.UUID, needle uuid.UUID) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}
