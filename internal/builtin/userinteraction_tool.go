package builtin

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/automenta/flowmind/internal/term"
	"github.com/automenta/flowmind/internal/thought"
	"github.com/automenta/flowmind/internal/tool"
)

// UserInteractionToolName is the tool name the executor dispatches
// request_user_input calls to (spec §4.8).
const UserInteractionToolName = "user_interaction"

// pendingRequest is the correlation map entry keyed by request (=
// thought) id, recording enough to route a later response.
type pendingRequest struct {
	parentID uuid.UUID
	rootID   uuid.UUID
	agentID  string
}

// UserInteraction owns the in-process correlation between a
// request_user_input WAITING thought and the eventual human response,
// per spec §4.8. The ThoughtStore remains the authoritative source of
// truth; this map is reconciled against it on every GetPending call so
// that state restored from persistence produces a coherent view.
type UserInteraction struct {
	mu       sync.Mutex
	pending  map[uuid.UUID]pendingRequest
	thoughts *thought.Store
}

// NewUserInteraction constructs the correlation tracker.
func NewUserInteraction(thoughts *thought.Store) *UserInteraction {
	return &UserInteraction{
		pending:  make(map[uuid.UUID]pendingRequest),
		thoughts: thoughts,
	}
}

// Tool builds the user_interaction tool spec (§4.6/§4.8): creates a
// WAITING STRATEGY thought carrying the prompt, and records the
// correlation entry. No further work proceeds on parent until a
// response arrives via HandleResponse or Cancel.
func (ui *UserInteraction) Tool() *tool.Spec {
	return &tool.Spec{
		Name:        UserInteractionToolName,
		Description: "Request input from the user; suspends until a response is correlated.",
		Parameters: tool.Schema{
			"prompt":  {Type: tool.TypeString, Required: tool.Always(true)},
			"options": {Type: tool.TypeArray, ItemType: tool.TypeString, Required: tool.Always(false)},
		},
		Handler: func(ctx context.Context, params map[string]interface{}, parent thought.Thought, agentID string) (thought.Thought, error) {
			prompt, _ := params["prompt"].(string)
			var options []string
			if raw, ok := params["options"].([]interface{}); ok {
				for _, o := range raw {
					if s, ok := o.(string); ok {
						options = append(options, s)
					}
				}
			}

			t := thought.New(thought.KindStrategy, term.Struct("request_user_input", term.Atom(prompt)), parent.ID, parent.Metadata.RootID)
			t.Status = thought.StatusWaiting
			t.Metadata.AgentID = agentID
			t.Metadata.InteractionDetails = &thought.InteractionDetails{Prompt: prompt, Options: options}

			ui.mu.Lock()
			ui.pending[t.ID] = pendingRequest{parentID: parent.ID, rootID: t.Metadata.RootID, agentID: agentID}
			ui.mu.Unlock()

			return t, nil
		},
	}
}

// HandleResponse implements spec §4.8's handleResponse: on an unknown
// requestID it logs a warning and no-ops; otherwise it creates a new
// PENDING INPUT thought carrying the response text, links it to the
// original request's parent with high priority and answered_prompt_id,
// and transitions the request thought itself to DONE.
func (ui *UserInteraction) HandleResponse(requestID uuid.UUID, responseText string) (thought.Thought, bool) {
	ui.mu.Lock()
	req, ok := ui.pending[requestID]
	if ok {
		delete(ui.pending, requestID)
	}
	ui.mu.Unlock()
	if !ok {
		log.Printf("warning: user interaction response for unknown request %s ignored", requestID)
		return thought.Thought{}, false
	}

	responseThought := thought.New(thought.KindInput, term.Atom(responseText), req.parentID, req.rootID)
	highPriority := 1.0
	responseThought.Metadata.Priority = &highPriority
	responseThought.Metadata.AnsweredPromptID = requestID
	responseThought.Metadata.AgentID = req.agentID
	ui.thoughts.Add(responseThought)

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		current, exists := ui.thoughts.Get(requestID)
		if !exists {
			break
		}
		updated := current.Clone()
		updated.Status = thought.StatusDone
		updated.Metadata.ResponseThoughtID = responseThought.ID
		if ui.thoughts.Update(current, updated) {
			break
		}
	}

	return responseThought, true
}

// Cancel implements spec §4.8's cancel: remove the correlation entry
// and transition the WAITING request thought to FAILED.
func (ui *UserInteraction) Cancel(requestID uuid.UUID, reason string) {
	ui.mu.Lock()
	delete(ui.pending, requestID)
	ui.mu.Unlock()

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		current, exists := ui.thoughts.Get(requestID)
		if !exists {
			return
		}
		updated := current.Clone()
		updated.Status = thought.StatusFailed
		updated.Metadata.Error = fmt.Sprintf("user interaction cancelled: %s", reason)
		if ui.thoughts.Update(current, updated) {
			return
		}
	}
}

// GetPending implements spec §4.8's getPending: the ThoughtStore is
// the authoritative source (WAITING thoughts whose content is
// request_user_input), reconciled against the in-process map so a
// process that restarted from persisted state still sees every
// outstanding request (even without its original agent_id/parent
// bookkeeping).
func (ui *UserInteraction) GetPending() []thought.Thought {
	all := ui.thoughts.All()
	out := make([]thought.Thought, 0)

	ui.mu.Lock()
	defer ui.mu.Unlock()
	seen := make(map[uuid.UUID]bool, len(ui.pending))
	for _, t := range all {
		if t.Status != thought.StatusWaiting {
			continue
		}
		if !t.Content.IsStruct() || t.Content.Name() != "request_user_input" {
			continue
		}
		out = append(out, t)
		seen[t.ID] = true
		if _, tracked := ui.pending[t.ID]; !tracked {
			ui.pending[t.ID] = pendingRequest{parentID: t.Metadata.ParentID, rootID: t.Metadata.RootID, agentID: t.Metadata.AgentID}
		}
	}
	for id := range ui.pending {
		if !seen[id] {
			delete(ui.pending, id)
		}
	}
	return out
}

// maxCASAttempts bounds the optimistic compare-and-set retry loop used
// when racing against a worker that might concurrently touch the same
// request thought.
const maxCASAttempts = 8
