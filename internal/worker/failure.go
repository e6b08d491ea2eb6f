package worker

import (
	"fmt"

	"github.com/automenta/flowmind/internal/executor"
	"github.com/automenta/flowmind/internal/term"
	"github.com/automenta/flowmind/internal/thought"
)

// synthesisPriority is the "high priority" spec §4.11 requires for the
// synthesize_failure_rule STRATEGY thought, so it outranks routine
// PENDING work in the next sample.
const synthesisPriority = 0.9

// handleFailure implements spec §4.11: increment retry_count; if it
// is still within maxRetries, return the thought to PENDING with its
// error recorded; otherwise fail it terminally and create a
// high-priority PENDING synthesize_failure_rule STRATEGY thought whose
// generation_prompt carries the full context.
func handleFailure(thoughts *thought.Store, exec *executor.Executor, failed thought.Thought, errMsg string, maxRetries int) {
	for attempt := 0; attempt < maxCASRetries; attempt++ {
		current, ok := thoughts.Get(failed.ID)
		if !ok {
			return
		}
		retryCount := current.Metadata.RetryCount + 1
		updated := current.Clone()
		updated.Metadata.RetryCount = retryCount
		updated.Metadata.Error = errMsg

		if retryCount <= maxRetries {
			updated.Status = thought.StatusPending
			if thoughts.Update(current, updated) {
				return
			}
			continue
		}

		updated.Status = thought.StatusFailed
		if !thoughts.Update(current, updated) {
			continue
		}

		prompt := fmt.Sprintf(
			"Thought %s (kind=%s) failed permanently after %d retries.\nContent: %s\nLast error: %s\nPropose a rule (pattern, action) that would have handled this case.",
			failed.ID, failed.Kind, retryCount, failed.Content.String(), errMsg,
		)
		synth := thought.New(thought.KindStrategy,
			term.Struct("synthesize_failure_rule", term.Atom(failed.ID.String()), term.Atom(errMsg)),
			failed.ID, failed.Metadata.RootID)
		priority := synthesisPriority
		synth.Metadata.Priority = &priority
		synth.Metadata.Extra = map[string]interface{}{"generation_prompt": prompt}
		thoughts.Add(synth)

		exec.CheckCompletion(updated.Metadata.ParentID)
		return
	}
}
