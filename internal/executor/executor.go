// Package executor implements the Action Executor (spec §4.7): it
// dispatches a claimed ACTIVE thought's resolved action term, either
// sequence/parallel workflow composition or a direct tool call, and
// drives the resulting status transition, rule synthesis, dynamic
// tool registration, and hierarchical completion propagation.
package executor

import (
	"context"
	"fmt"
	"log"

	"github.com/dominikbraun/graph"
	"github.com/google/uuid"

	"github.com/automenta/flowmind/internal/builtin"
	"github.com/automenta/flowmind/internal/memory"
	"github.com/automenta/flowmind/internal/rule"
	"github.com/automenta/flowmind/internal/term"
	"github.com/automenta/flowmind/internal/thought"
	"github.com/automenta/flowmind/internal/tool"
)

// maxCASRetries bounds the compare-and-set retry loops used throughout
// the executor; every optimistic update races against other workers
// touching the same thought, but each retry simply re-reads and
// recomputes, so a bound this small is ample under normal contention.
const maxCASRetries = 8

// Executor carries the shared stores and registry the Action Executor
// reads and mutates, grounded in the reference engine's own
// dependency-injected-collaborators style.
type Executor struct {
	thoughts *thought.Store
	rules    *rule.Store
	tools    *tool.Registry
	memory   *memory.Store
}

// New constructs an Executor over the engine's shared stores.
func New(thoughts *thought.Store, rules *rule.Store, tools *tool.Registry, mem *memory.Store) *Executor {
	return &Executor{thoughts: thoughts, rules: rules, tools: tools, memory: mem}
}

// Execute runs spec §4.7 against trigger, an already-ACTIVE thought.
// match is the rule (with its unification bindings) that selected
// trigger's action, or nil when trigger is itself a WORKFLOW_STEP
// whose content already is the action term.
func (e *Executor) Execute(ctx context.Context, trigger thought.Thought, match *rule.Match) {
	var actionTerm term.Term
	if match != nil {
		actionTerm = term.Apply(match.Rule.Action, match.Bindings)
	} else {
		actionTerm = trigger.Content
	}

	e.dispatch(ctx, trigger, match, actionTerm)
}

// ExecuteAction dispatches an explicit actionTerm directly against
// trigger, bypassing rule resolution entirely. Used by the Worker's
// default actions (§4.10) and by its no-rule-matched-but-tool-exists
// fallback (the mechanism that lets Parallel's per-step STRATEGY
// children, whose content already is a concrete tool-call term,
// actually execute without requiring a bootstrap identity rule per
// tool name).
func (e *Executor) ExecuteAction(ctx context.Context, trigger thought.Thought, actionTerm term.Term) {
	e.dispatch(ctx, trigger, nil, actionTerm)
}

func (e *Executor) dispatch(ctx context.Context, trigger thought.Thought, match *rule.Match, actionTerm term.Term) {
	if !actionTerm.IsStruct() {
		e.failTrigger(trigger, "action term is not a struct")
		return
	}

	switch actionTerm.Name() {
	case "sequence", "chain":
		e.runSequence(ctx, trigger, actionTerm.Args())
	case "parallel":
		e.runParallel(trigger, actionTerm.Args())
	default:
		e.runToolCall(ctx, trigger, match, actionTerm)
	}
}

// HasTool reports whether name is a registered tool, used by the
// Worker to decide whether a no-rule-matched thought's content can be
// dispatched directly as a tool call.
func (e *Executor) HasTool(name string) bool {
	_, ok := e.tools.Get(name)
	return ok
}

// runToolCall implements spec §4.7 steps 3 (default dispatch branch)
// through 6 for a single, non-workflow tool-call action term.
func (e *Executor) runToolCall(ctx context.Context, trigger thought.Thought, match *rule.Match, actionTerm term.Term) {
	toolName := actionTerm.Name()
	params := extractParams(actionTerm)

	result := e.tools.Execute(ctx, toolName, params, trigger, trigger.Metadata.AgentID)
	e.thoughts.Add(result)
	e.updateRuleBelief(match, result.Status != thought.StatusFailed)
	e.memorizeExecution(ctx, trigger, match, result)

	status, other := e.resolveResult(toolName, result)
	if other {
		status = thought.StatusWaiting
	}
	e.casStatus(trigger, status, result)
}

// resolveResult implements spec §4.7 step 4's per-result-kind dispatch
// shared by direct tool calls and sequence steps. other is true when
// none of the specialized result kinds applied, signaling that a plain
// tool-call caller should fall back to WAITING. A sequence caller
// ignores other: per §4.7.1 it always overrides a non-FAILED status
// with its own WAITING-if-a-next-step-exists-else-DONE decision,
// regardless of which branch below produced it.
func (e *Executor) resolveResult(toolName string, result thought.Thought) (status thought.Status, other bool) {
	switch {
	case result.Status == thought.StatusFailed:
		return thought.StatusFailed, false
	case result.Kind == thought.KindRule && result.Content.IsStruct() && result.Content.Name() == "rule_definition" && result.Content.Arity() == 2:
		e.synthesizeRule(result.Content)
		return thought.StatusDone, false
	case result.Kind == thought.KindTools && result.Content.IsList():
		e.registerDynamicTools(result.Content)
		return thought.StatusDone, false
	case toolName == "user_interaction" && result.Status == thought.StatusWaiting:
		return thought.StatusWaiting, false
	default:
		return thought.StatusWaiting, true
	}
}

// casStatus transitions trigger to status via optimistic
// compare-and-set, recording result's error (if any) and propagating
// the completion check to trigger's parent when the new status is
// terminal.
func (e *Executor) casStatus(trigger thought.Thought, status thought.Status, result thought.Thought) {
	for attempt := 0; attempt < maxCASRetries; attempt++ {
		current, ok := e.thoughts.Get(trigger.ID)
		if !ok {
			return
		}
		updated := current.Clone()
		updated.Status = status
		if status == thought.StatusFailed && result.Metadata.Error != "" {
			updated.Metadata.Error = result.Metadata.Error
		}
		if !e.thoughts.Update(current, updated) {
			continue
		}
		if status.Terminal() {
			e.checkCompletion(updated.Metadata.ParentID)
		}
		return
	}
	log.Printf("warning: executor could not CAS trigger %s to %s after %d attempts", trigger.ID, status, maxCASRetries)
}

// failTrigger marks trigger FAILED with msg as its error, per spec
// §4.7 step 2/6, and propagates the completion check.
func (e *Executor) failTrigger(trigger thought.Thought, msg string) {
	for attempt := 0; attempt < maxCASRetries; attempt++ {
		current, ok := e.thoughts.Get(trigger.ID)
		if !ok {
			return
		}
		updated := current.Clone()
		updated.Status = thought.StatusFailed
		updated.Metadata.Error = msg
		if e.thoughts.Update(current, updated) {
			e.checkCompletion(updated.Metadata.ParentID)
			return
		}
	}
}

func (e *Executor) updateRuleBelief(match *rule.Match, success bool) {
	if match == nil {
		return
	}
	e.rules.UpdateBelief(match.Rule.ID, func(r rule.Rule) rule.Rule {
		r.Belief = r.Belief.Update(success)
		return r
	})
}

// synthesizeRule implements the rule_definition(pattern, action)
// branch of spec §4.7 step 4: add a new rule with default belief to
// the RuleStore.
func (e *Executor) synthesizeRule(def term.Term) {
	args := def.Args()
	if len(args) != 2 {
		return
	}
	e.rules.Add(rule.New(args[0], args[1]))
}

// registerDynamicTools implements the TOOLS-result branch of spec
// §4.7 step 4: each tool_spec(...) in the list is instantiated, if its
// family is known (currently: web-search, given an endpoint), and
// registered. Unknown families are logged and skipped.
func (e *Executor) registerDynamicTools(list term.Term) {
	for _, spec := range list.Args() {
		if !spec.IsStruct() || spec.Name() != "tool_spec" {
			continue
		}
		fields := extractParams(term.Struct("tool_spec", spec.Args()...))
		name, _ := fields["name"].(string)
		typ, _ := fields["type"].(string)
		endpoint, _ := fields["endpoint"].(string)
		description, _ := fields["description"].(string)
		if name == "" || endpoint == "" || typ != "web_search" {
			log.Printf("executor: skipping tool_spec with no recognized dynamic family: name=%q type=%q", name, typ)
			continue
		}
		if description == "" {
			description = fmt.Sprintf("Dynamically registered web-search tool %q", name)
		}
		e.tools.Register(builtin.NewWebSearchTool(name, description, endpoint))
	}
}

// CheckCompletion is the exported entry point for callers (the
// Worker) that transition a thought to a terminal state themselves,
// outside the Action Executor's own dispatch — e.g. the OUTCOME
// default action (§4.10) and failure handling (§4.11).
func (e *Executor) CheckCompletion(parentID uuid.UUID) {
	e.checkCompletion(parentID)
}

// completionVertexHash identifies a thought vertex in the one-shot
// completion graph by its ID, mirroring the reference Graph-of-Thoughts
// controller's own VertexHash pattern.
func completionVertexHash(id uuid.UUID) uuid.UUID { return id }

// checkCompletion implements spec §4.7.3's hierarchical completion. It
// builds a small directed graph — parentID plus its direct children,
// edged parent-to-child — and walks it in one BFS pass to answer "are
// all of this parent's children terminal, and none FAILED" without
// re-deriving that from repeated FindByParent-shaped bookkeeping. If
// so, parent transitions DONE via its own compare-and-set and the
// check recurses upward. A FAILED child never auto-propagates failure.
func (e *Executor) checkCompletion(parentID uuid.UUID) {
	if parentID == uuid.Nil {
		return
	}
	for attempt := 0; attempt < maxCASRetries; attempt++ {
		parent, ok := e.thoughts.Get(parentID)
		if !ok || parent.Status.Terminal() {
			return
		}
		children := e.thoughts.FindByParent(parentID)
		if len(children) == 0 {
			return
		}

		g := graph.New(completionVertexHash, graph.Directed())
		_ = g.AddVertex(parentID)
		byID := make(map[uuid.UUID]thought.Thought, len(children))
		for _, c := range children {
			_ = g.AddVertex(c.ID)
			_ = g.AddEdge(parentID, c.ID)
			byID[c.ID] = c
		}

		allDone := true
		anyFailed := false
		_ = graph.BFS(g, parentID, func(id uuid.UUID) bool {
			c, isChild := byID[id]
			if !isChild {
				return false
			}
			if c.Status == thought.StatusFailed {
				anyFailed = true
				return true
			}
			if c.Status != thought.StatusDone {
				allDone = false
			}
			return false
		})
		if anyFailed || !allDone {
			return
		}

		updated := parent.Clone()
		updated.Status = thought.StatusDone
		if e.thoughts.Update(parent, updated) {
			e.checkCompletion(updated.Metadata.ParentID)
			return
		}
	}
}

// memorizeExecution implements spec §4.7 step 5: trace trigger, the
// matched rule (if any), the result, success, and error to
// MemoryStore with type=execution_trace.
func (e *Executor) memorizeExecution(ctx context.Context, trigger thought.Thought, match *rule.Match, result thought.Thought) {
	success := result.Status != thought.StatusFailed
	meta := map[string]interface{}{
		"type":          "execution_trace",
		"success":       success,
		"related_ids":   []uuid.UUID{trigger.ID, result.ID},
		"trigger_kind":  string(trigger.Kind),
		"result_status": string(result.Status),
	}
	if match != nil {
		meta["rule_id"] = match.Rule.ID.String()
	}
	if result.Metadata.Error != "" {
		meta["error"] = result.Metadata.Error
	}
	content := fmt.Sprintf("executed %s -> %s (%s)", trigger.Content.String(), result.Content.String(), result.Status)
	if _, err := e.memory.Add(ctx, memory.Entry{Content: content, Metadata: meta}); err != nil {
		log.Printf("warning: failed to memorize execution trace for trigger %s: %v", trigger.ID, err)
	}
}
