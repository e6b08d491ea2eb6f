// Package bootstrap seeds the RuleStore and ToolRegistry with the
// small starter set of rules and demo tools a fresh agent needs before
// it can usefully run: routing for the STRATEGY thoughts the §4.10
// default actions create that aren't already a direct tool call, plus
// a couple of illustrative scenario rules/tools exercising the
// parallel workflow and retry-then-fail paths.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/automenta/flowmind/internal/builtin"
	"github.com/automenta/flowmind/internal/rule"
	"github.com/automenta/flowmind/internal/term"
	"github.com/automenta/flowmind/internal/thought"
	"github.com/automenta/flowmind/internal/tool"
)

// Seed installs the starter rule set into rules and the demo tools
// into tools.
func Seed(rules *rule.Store, tools *tool.Registry) {
	seedRules(rules)
	seedDemoTools(tools)
}

func seedRules(rules *rule.Store) {
	// discover_tools_for(X), created by the §4.10 STRATEGY default
	// action, has no matching registered tool of its own name, so it
	// needs explicit routing to an LLM generate-toward-TOOLS call.
	rules.Add(rule.New(
		term.Struct("discover_tools_for", term.Var("X")),
		term.Struct(builtin.LLMToolName,
			term.Struct("action", term.Atom("generate")),
			term.Struct("input", term.Var("X")),
			term.Struct("kind", term.Atom("TOOLS")),
		),
	))

	// synthesize_failure_rule(FailedID, ErrorHint), created by §4.11
	// failure handling once a thought exhausts its retries, asks the
	// LLM to propose a rule that would have prevented the failure.
	rules.Add(rule.New(
		term.Struct("synthesize_failure_rule", term.Var("FailedID"), term.Var("ErrorHint")),
		term.Struct(builtin.LLMToolName,
			term.Struct("action", term.Atom("generate")),
			term.Struct("input", term.Var("ErrorHint")),
			term.Struct("kind", term.Atom("RULE")),
		),
	))

	// clarify(X): an INPUT whose content explicitly asks for
	// clarification routes straight to the UserInteraction tool
	// instead of the default LLM-generate-toward-GOAL path
	// (illustrates the user-interaction request/response flow).
	rules.Add(rule.New(
		term.Struct("clarify", term.Var("X")),
		term.Struct(builtin.UserInteractionToolName,
			term.Struct("prompt", term.Var("X")),
		),
	))

	// p(X) -> parallel(t1(X), t2(X)): demonstrates parallel workflow
	// composition (§4.7.2) fanning out into two independently
	// scheduled branches.
	rules.Add(rule.New(
		term.Struct("p", term.Var("X")),
		term.Struct("parallel",
			term.Struct("t1", term.Var("X")),
			term.Struct("t2", term.Var("X")),
		),
	))

	// q(X) -> always_fail(X): demonstrates the retry-then-fail path
	// (§4.11) against a tool that deterministically errors.
	rules.Add(rule.New(
		term.Struct("q", term.Var("X")),
		term.Struct("always_fail", term.Var("X")),
	))
}

func seedDemoTools(tools *tool.Registry) {
	tools.Register(&tool.Spec{
		Name:        "t1",
		Description: "Demo parallel-workflow branch tool; echoes its input as a DONE outcome.",
		Parameters: tool.Schema{
			"arg0": {Type: tool.TypeString, Required: tool.Always(true)},
		},
		Handler: echoHandler("t1"),
	})
	tools.Register(&tool.Spec{
		Name:        "t2",
		Description: "Demo parallel-workflow branch tool; echoes its input as a DONE outcome.",
		Parameters: tool.Schema{
			"arg0": {Type: tool.TypeString, Required: tool.Always(true)},
		},
		Handler: echoHandler("t2"),
	})
	tools.Register(&tool.Spec{
		Name:        "always_fail",
		Description: "Demo tool that always returns a tool_execution error, for exercising retry-then-fail.",
		Parameters: tool.Schema{
			"arg0": {Type: tool.TypeString, Required: tool.Always(false)},
		},
		Handler: func(ctx context.Context, params map[string]interface{}, parent thought.Thought, agentID string) (thought.Thought, error) {
			return thought.Thought{}, fmt.Errorf("always_fail: deliberate failure")
		},
	})
}

func echoHandler(label string) tool.Handler {
	return func(ctx context.Context, params map[string]interface{}, parent thought.Thought, agentID string) (thought.Thought, error) {
		arg0, _ := params["arg0"].(string)
		t := thought.New(thought.KindOutcome, term.Struct(label, term.Atom(arg0)), parent.ID, parent.Metadata.RootID)
		t.Status = thought.StatusDone
		return t, nil
	}
}
