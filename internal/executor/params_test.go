package executor

import (
	"testing"

	"github.com/automenta/flowmind/internal/term"
)

func TestExtractParamsPreferredForm(t *testing.T) {
	action := term.Struct("search", term.Struct("params",
		term.Struct("query", term.Atom("weather")),
		term.Struct("limit", term.Atom("5")),
	))
	got := extractParams(action)
	if got["query"] != "weather" {
		t.Errorf("query = %v, want weather", got["query"])
	}
	if got["limit"] != float64(5) {
		t.Errorf("limit = %v, want 5", got["limit"])
	}
}

func TestExtractParamsAllUnaryStructForm(t *testing.T) {
	action := term.Struct("search", term.Struct("query", term.Atom("weather")), term.Struct("limit", term.Atom("5")))
	got := extractParams(action)
	if got["query"] != "weather" || got["limit"] != float64(5) {
		t.Errorf("got %+v", got)
	}
}

func TestExtractParamsPositionalForm(t *testing.T) {
	action := term.Struct("t1", term.Atom("a"), term.Atom("b"))
	got := extractParams(action)
	if got["arg0"] != "a" || got["arg1"] != "b" {
		t.Errorf("got %+v", got)
	}
}

func TestExtractParamsNestedParamsMap(t *testing.T) {
	action := term.Struct("search", term.Struct("params",
		term.Struct("filter", term.Struct("params", term.Struct("type", term.Atom("fact")))),
	))
	got := extractParams(action)
	nested, ok := got["filter"].(map[string]interface{})
	if !ok {
		t.Fatalf("filter = %T, want map[string]interface{}", got["filter"])
	}
	if nested["type"] != "fact" {
		t.Errorf("nested type = %v, want fact", nested["type"])
	}
}

func TestExtractParamsListElementWise(t *testing.T) {
	action := term.Struct("tag", term.Struct("params",
		term.Struct("values", term.List(term.Atom("a"), term.Atom("b"))),
	))
	got := extractParams(action)
	list, ok := got["values"].([]interface{})
	if !ok || len(list) != 2 {
		t.Fatalf("values = %#v, want 2-element slice", got["values"])
	}
	if list[0] != "a" || list[1] != "b" {
		t.Errorf("values = %v, want [a b]", list)
	}
}

func TestExtractParamsNoArgsIsEmpty(t *testing.T) {
	got := extractParams(term.Atom("noop"))
	if len(got) != 0 {
		t.Errorf("expected no params, got %+v", got)
	}
}
