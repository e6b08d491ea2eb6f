// Package worker implements the per-goroutine Worker loop of spec
// §4.9: sample a PENDING thought, claim it via optimistic
// compare-and-set, dispatch it through rule matching or the §4.10
// default actions, and race the whole step against a configurable
// timeout.
package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/automenta/flowmind/internal/config"
	"github.com/automenta/flowmind/internal/executor"
	"github.com/automenta/flowmind/internal/rule"
	"github.com/automenta/flowmind/internal/thought"
)

// maxCASRetries bounds optimistic compare-and-set retry loops in this
// package, mirroring internal/executor's own bound.
const maxCASRetries = 8

// Worker is one cooperative processing loop over the shared
// ThoughtStore/RuleStore, grounded in the reference engine's
// goroutine-per-worker pattern over a single shared task queue.
type Worker struct {
	ID            int
	thoughts      *thought.Store
	rules         *rule.Store
	exec          *executor.Executor
	cfg           *config.Config
	lastProcessed *thought.Thought
}

// New constructs a Worker over the shared stores and executor.
func New(id int, thoughts *thought.Store, rules *rule.Store, exec *executor.Executor, cfg *config.Config) *Worker {
	return &Worker{ID: id, thoughts: thoughts, rules: rules, exec: exec, cfg: cfg}
}

// Run loops until ctx is cancelled, cooperatively: an in-flight
// processing step always either completes or times out before the
// loop observes cancellation, per spec §5's shutdown contract.
func (w *Worker) Run(ctx context.Context) {
	pollInterval := time.Duration(w.cfg.PollIntervalMillis) * time.Millisecond
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		th, ok := w.thoughts.SamplePending(w.lastProcessed, w.cfg.ContextSimilarityBoostFactor, thought.SampleConfig{
			BeliefDecayRatePerMilli: w.cfg.BeliefDecayRatePerMillis,
		})
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-time.After(pollInterval):
			}
			continue
		}

		w.processOne(ctx, th)
	}
}

// processOne implements spec §4.9 steps 2-6 for a single sampled
// candidate.
func (w *Worker) processOne(ctx context.Context, sampled thought.Thought) {
	current, ok := w.thoughts.Get(sampled.ID)
	if !ok || current.Status != thought.StatusPending {
		return
	}

	active := current.Clone()
	active.Status = thought.StatusActive
	active.Metadata.UIContext = "Processing…"
	if !w.thoughts.Update(current, active) {
		return
	}

	timeout := time.Duration(w.cfg.ThoughtProcessingTimeoutMillis) * time.Millisecond
	taskCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.dispatch(taskCtx, active)
	}()

	select {
	case <-done:
		w.lastProcessed = &active
	case <-taskCtx.Done():
		handleFailure(w.thoughts, w.exec, active, "thought processing timed out", w.cfg.MaxRetries)
	}
}

// dispatch implements spec §4.9 step 4: WORKFLOW_STEP thoughts go
// straight to the executor with empty bindings; everything else is
// matched against the rule store, falling back to a direct tool
// dispatch (when the thought's own content already names a registered
// tool — the mechanism that lets Parallel's per-step children execute)
// and finally to the §4.10 default actions.
func (w *Worker) dispatch(ctx context.Context, active thought.Thought) {
	defer func() {
		if r := recover(); r != nil {
			handleFailure(w.thoughts, w.exec, active, fmt.Sprintf("panic during processing: %v", r), w.cfg.MaxRetries)
		}
	}()

	if active.Kind == thought.KindWorkflowStep {
		w.exec.Execute(ctx, active, nil)
		return
	}

	if match, ok := rule.FindAndSample(active, w.rules.All(), w.cfg.ContextSimilarityBoostFactor, w.rules.Embeddings()); ok {
		w.exec.Execute(ctx, active, &match)
		return
	}

	if active.Content.IsStruct() && w.exec.HasTool(active.Content.Name()) {
		w.exec.ExecuteAction(ctx, active, active.Content)
		return
	}

	w.runDefaultAction(ctx, active)
}

func (w *Worker) runDefaultAction(ctx context.Context, active thought.Thought) {
	action, extra, disposition := defaultAction(active)

	switch disposition {
	case dispositionDone:
		w.completeDirectly(active)
		return
	case dispositionFail:
		handleFailure(w.thoughts, w.exec, active, "no default action", w.cfg.MaxRetries)
		return
	}

	if extra != nil {
		w.thoughts.Add(*extra)
	}
	w.exec.ExecuteAction(ctx, active, action)
}

// completeDirectly marks active DONE (the OUTCOME default action,
// §4.10: "no action; invoke the completion check against its parent")
// and propagates hierarchical completion.
func (w *Worker) completeDirectly(active thought.Thought) {
	for attempt := 0; attempt < maxCASRetries; attempt++ {
		current, ok := w.thoughts.Get(active.ID)
		if !ok {
			return
		}
		updated := current.Clone()
		updated.Status = thought.StatusDone
		if w.thoughts.Update(current, updated) {
			w.exec.CheckCompletion(updated.Metadata.ParentID)
			return
		}
	}
	log.Printf("warning: worker %d could not CAS outcome thought %s to DONE", w.ID, active.ID)
}
