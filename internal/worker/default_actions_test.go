package worker

import (
	"testing"

	"github.com/google/uuid"

	"github.com/automenta/flowmind/internal/builtin"
	"github.com/automenta/flowmind/internal/term"
	"github.com/automenta/flowmind/internal/thought"
)

func TestDefaultActionInputGeneratesTowardGoal(t *testing.T) {
	in := thought.New(thought.KindInput, term.Atom("hello"), uuid.Nil, uuid.Nil)
	action, extra, disposition := defaultAction(in)
	if disposition != dispositionAction {
		t.Fatalf("disposition = %v, want dispositionAction", disposition)
	}
	if extra != nil {
		t.Fatal("INPUT's default action should not create an extra thought")
	}
	if action.Name() != builtin.LLMToolName {
		t.Fatalf("action tool = %q, want %q", action.Name(), builtin.LLMToolName)
	}
}

func TestDefaultActionGoalCreatesProposalSibling(t *testing.T) {
	g := thought.New(thought.KindGoal, term.Atom("reduce latency"), uuid.Nil, uuid.Nil)
	_, extra, disposition := defaultAction(g)
	if disposition != dispositionAction {
		t.Fatalf("disposition = %v, want dispositionAction", disposition)
	}
	if extra == nil {
		t.Fatal("GOAL's default action must create a propose_related_goal STRATEGY sibling")
	}
	if extra.Content.Name() != builtin.GoalProposalToolName {
		t.Errorf("extra content = %v, want %s(...)", extra.Content, builtin.GoalProposalToolName)
	}
	if extra.Metadata.ParentID != g.ID {
		t.Errorf("extra parent = %v, want %v", extra.Metadata.ParentID, g.ID)
	}
}

func TestDefaultActionStrategyCreatesDiscoverSibling(t *testing.T) {
	s := thought.New(thought.KindStrategy, term.Atom("use a calculator"), uuid.Nil, uuid.Nil)
	_, extra, disposition := defaultAction(s)
	if disposition != dispositionAction {
		t.Fatalf("disposition = %v, want dispositionAction", disposition)
	}
	if extra == nil || extra.Content.Name() != "discover_tools_for" {
		t.Fatalf("expected a discover_tools_for sibling, got %+v", extra)
	}
}

func TestDefaultActionOutcomeCompletesDirectly(t *testing.T) {
	o := thought.New(thought.KindOutcome, term.Atom("done"), uuid.Nil, uuid.Nil)
	_, extra, disposition := defaultAction(o)
	if disposition != dispositionDone {
		t.Fatalf("disposition = %v, want dispositionDone", disposition)
	}
	if extra != nil {
		t.Fatal("OUTCOME's default action should not create an extra thought")
	}
}

func TestDefaultActionQueryGeneratesAnswer(t *testing.T) {
	q := thought.New(thought.KindQuery, term.Atom("what time is it"), uuid.Nil, uuid.Nil)
	action, _, disposition := defaultAction(q)
	if disposition != dispositionAction {
		t.Fatalf("disposition = %v, want dispositionAction", disposition)
	}
	if action.Name() != builtin.LLMToolName {
		t.Fatalf("action tool = %q, want %q", action.Name(), builtin.LLMToolName)
	}
}

func TestDefaultActionUnknownKindFails(t *testing.T) {
	rule := thought.New(thought.KindRule, term.Atom("x"), uuid.Nil, uuid.Nil)
	_, _, disposition := defaultAction(rule)
	if disposition != dispositionFail {
		t.Fatalf("disposition = %v, want dispositionFail for a kind with no default action", disposition)
	}
}
