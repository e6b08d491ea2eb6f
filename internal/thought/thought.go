// Package thought defines the unit of work the reasoning engine
// schedules, and the store that owns every thought under optimistic
// concurrency control.
package thought

import (
	"time"

	"github.com/google/uuid"

	"github.com/automenta/flowmind/internal/belief"
	"github.com/automenta/flowmind/internal/term"
)

// Kind is the closed set of thought kinds.
type Kind string

const (
	KindInput        Kind = "INPUT"
	KindGoal         Kind = "GOAL"
	KindStrategy     Kind = "STRATEGY"
	KindOutcome      Kind = "OUTCOME"
	KindQuery        Kind = "QUERY"
	KindRule         Kind = "RULE"
	KindTools        Kind = "TOOLS"
	KindWorkflowStep Kind = "WORKFLOW_STEP"
)

// Status is the thought lifecycle state machine (spec §3).
type Status string

const (
	StatusPending Status = "PENDING"
	StatusActive  Status = "ACTIVE"
	StatusWaiting Status = "WAITING"
	StatusDone    Status = "DONE"
	StatusFailed  Status = "FAILED"
)

// Terminal reports whether s is a terminal status (DONE or FAILED).
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// InteractionDetails carries the prompt shown to the user by the
// UserInteraction tool.
type InteractionDetails struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options,omitempty"`
}

// Metadata is the closed set of recognized keys from spec §3, plus an
// Extra bag for unrecognized keys that the core preserves but ignores.
type Metadata struct {
	RootID            uuid.UUID              `json:"root_id"`
	AgentID           string                 `json:"agent_id,omitempty"`
	ParentID          uuid.UUID              `json:"parent_id,omitempty"`
	Timestamp         time.Time              `json:"timestamp"`
	Error             string                 `json:"error,omitempty"`
	Provenance        []uuid.UUID            `json:"provenance,omitempty"`
	UIContext         string                 `json:"ui_context,omitempty"`
	Priority          *float64               `json:"priority,omitempty"`
	Embedding         []float32              `json:"embedding,omitempty"`
	RetryCount        int                    `json:"retry_count"`
	RelatedIDs        []uuid.UUID            `json:"related_ids,omitempty"`
	ExtractedEntities []string               `json:"extracted_entities,omitempty"`
	WorkflowID        uuid.UUID              `json:"workflow_id,omitempty"`
	WorkflowStep      string                 `json:"workflow_step,omitempty"`
	WorkflowResults   map[string]interface{} `json:"workflow_results,omitempty"`
	InteractionDetails *InteractionDetails   `json:"interaction_details,omitempty"`
	AnsweredPromptID  uuid.UUID              `json:"answered_prompt_id,omitempty"`
	ResponseThoughtID uuid.UUID              `json:"response_thought_id,omitempty"`
	Extra             map[string]interface{} `json:"extra,omitempty"`
}

// Clone returns a deep-enough copy for safe use as a read snapshot:
// slices and the Extra map are copied so a caller mutating its
// snapshot never corrupts the stored record.
func (m Metadata) Clone() Metadata {
	cp := m
	cp.Provenance = append([]uuid.UUID(nil), m.Provenance...)
	cp.RelatedIDs = append([]uuid.UUID(nil), m.RelatedIDs...)
	cp.ExtractedEntities = append([]string(nil), m.ExtractedEntities...)
	cp.Embedding = append([]float32(nil), m.Embedding...)
	if m.Priority != nil {
		p := *m.Priority
		cp.Priority = &p
	}
	if m.WorkflowResults != nil {
		cp.WorkflowResults = make(map[string]interface{}, len(m.WorkflowResults))
		for k, v := range m.WorkflowResults {
			cp.WorkflowResults[k] = v
		}
	}
	if m.InteractionDetails != nil {
		id := *m.InteractionDetails
		id.Options = append([]string(nil), m.InteractionDetails.Options...)
		cp.InteractionDetails = &id
	}
	if m.Extra != nil {
		cp.Extra = make(map[string]interface{}, len(m.Extra))
		for k, v := range m.Extra {
			cp.Extra[k] = v
		}
	}
	return cp
}

// Thought is the immutable unit of work. Updates replace the full
// record; nothing mutates a Thought value in place.
type Thought struct {
	ID       uuid.UUID
	Kind     Kind
	Content  term.Term
	Belief   belief.Belief
	Status   Status
	Metadata Metadata
}

// New constructs a PENDING thought with a fresh ID and default belief.
func New(kind Kind, content term.Term, parent uuid.UUID, rootID uuid.UUID) Thought {
	id := uuid.New()
	if rootID == uuid.Nil {
		rootID = id
	}
	return Thought{
		ID:      id,
		Kind:    kind,
		Content: content,
		Belief:  belief.Default(),
		Status:  StatusPending,
		Metadata: Metadata{
			RootID:    rootID,
			ParentID:  parent,
			Timestamp: time.Now(),
		},
	}
}

// Clone returns a deep-enough copy suitable as a read snapshot used
// exclusively for a subsequent optimistic compare-and-set.
func (t Thought) Clone() Thought {
	cp := t
	cp.Metadata = t.Metadata.Clone()
	return cp
}
