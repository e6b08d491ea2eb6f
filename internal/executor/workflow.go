package executor

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/automenta/flowmind/internal/term"
	"github.com/automenta/flowmind/internal/thought"
)

// runSequence implements spec §4.7.1. steps are the remaining action
// terms of a sequence/chain; trigger already carries whatever
// workflow_id/workflow_step it was created with (or none, if this is
// the sequence's first step).
func (e *Executor) runSequence(ctx context.Context, trigger thought.Thought, steps []term.Term) {
	if len(steps) == 0 {
		e.casStatus(trigger, thought.StatusDone, thought.Thought{})
		return
	}

	workflowID := trigger.Metadata.WorkflowID
	if workflowID == uuid.Nil {
		workflowID = uuid.New()
	}
	nextIndex := nextSequenceIndex(trigger.Metadata.WorkflowStep)

	hasNext := len(steps) > 1
	var child thought.Thought
	if hasNext {
		rest := term.Struct("sequence", steps[1:]...)
		child = thought.New(thought.KindWorkflowStep, rest, trigger.ID, trigger.Metadata.RootID)
		child.Metadata.WorkflowID = workflowID
		child.Metadata.WorkflowStep = nextIndex
		child.Metadata.Provenance = append(append([]uuid.UUID(nil), trigger.Metadata.Provenance...), trigger.ID)
		child.Metadata.Priority = trigger.Metadata.Priority
	}

	toolName := steps[0].Name()
	params := extractParams(steps[0])
	result := e.tools.Execute(ctx, toolName, params, trigger, trigger.Metadata.AgentID)
	e.thoughts.Add(result)
	e.memorizeExecution(ctx, trigger, nil, result)

	status, _ := e.resolveResult(toolName, result)
	if status == thought.StatusFailed {
		e.casStatus(trigger, status, result)
		return
	}

	// steps[0] did not fail the trigger: per spec §4.7.1 this always
	// resolves to WAITING-if-a-next-step-exists-else-DONE, regardless
	// of which resolveResult branch fired for this step's result. The
	// continuation is only added to the store now, after steps[0] has
	// observably resolved, so no other worker can sample it early.
	if hasNext {
		e.thoughts.Add(child)
		status = thought.StatusWaiting
	} else {
		status = thought.StatusDone
	}
	e.casStatus(trigger, status, result)
}

// nextSequenceIndex increments a numeric sequence workflow_step
// counter encoded as a decimal string; an unset/non-numeric prior
// value starts the count at "1".
func nextSequenceIndex(prev string) string {
	n := 0
	if prev != "" {
		fmt.Sscanf(prev, "%d", &n)
	}
	return fmt.Sprintf("%d", n+1)
}

// runParallel implements spec §4.7.2: each step term becomes a
// PENDING STRATEGY child carrying that step's tool-call structure;
// trigger is marked WAITING with related_ids listing the new
// children. Completion propagates via checkCompletion once the
// Worker/Executor eventually drives each child to a terminal state.
func (e *Executor) runParallel(trigger thought.Thought, steps []term.Term) {
	workflowID := trigger.Metadata.WorkflowID
	if workflowID == uuid.Nil {
		workflowID = uuid.New()
	}
	parentStep := trigger.Metadata.WorkflowStep

	childIDs := make([]uuid.UUID, 0, len(steps))
	for i, step := range steps {
		child := thought.New(thought.KindStrategy, step, trigger.ID, trigger.Metadata.RootID)
		child.Metadata.WorkflowID = workflowID
		child.Metadata.WorkflowStep = fmt.Sprintf("%s.%d", parentStep, i)
		child.Metadata.Provenance = append(append([]uuid.UUID(nil), trigger.Metadata.Provenance...), trigger.ID)
		child.Metadata.Priority = trigger.Metadata.Priority
		e.thoughts.Add(child)
		childIDs = append(childIDs, child.ID)
	}

	for attempt := 0; attempt < maxCASRetries; attempt++ {
		current, ok := e.thoughts.Get(trigger.ID)
		if !ok {
			return
		}
		updated := current.Clone()
		updated.Status = thought.StatusWaiting
		updated.Metadata.WorkflowID = workflowID
		for _, id := range childIDs {
			if !containsUUID(updated.Metadata.RelatedIDs, id) {
				updated.Metadata.RelatedIDs = append(updated.Metadata.RelatedIDs, id)
			}
		}
		if e.thoughts.Update(current, updated) {
			return
		}
	}
}

func containsUUID(haystack []uuid.UUID, needle uuid.UUID) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}
