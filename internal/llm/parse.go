package llm

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/automenta/flowmind/internal/term"
	"github.com/automenta/flowmind/internal/thought"
)

// ParseGenerated parses raw LLM output text into a Term under the
// fixed grammar of spec §4.6. On any parse failure the raw text is
// wrapped as an Atom rather than propagated as an error: a malformed
// generation is still a usable thought, just an opaque one.
func ParseGenerated(raw string, targetKind thought.Kind) term.Term {
	var generic map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return term.Atom(raw)
	}

	switch targetKind {
	case thought.KindRule:
		return parseRuleDefinition(generic, raw)
	case thought.KindTools:
		return parseToolsResult(generic, raw)
	default:
		t, err := parseTermValue(generic)
		if err != nil {
			return term.Atom(raw)
		}
		return t
	}
}

func parseRuleDefinition(generic map[string]interface{}, raw string) term.Term {
	patternRaw, hasPattern := generic["pattern"]
	actionRaw, hasAction := generic["action"]
	if !hasPattern || !hasAction {
		return term.Atom(raw)
	}
	pattern, err1 := parseTermValue(patternRaw)
	action, err2 := parseTermValue(actionRaw)
	if err1 != nil || err2 != nil {
		return term.Atom(raw)
	}
	return term.Struct("rule_definition", pattern, action)
}

func parseToolsResult(generic map[string]interface{}, raw string) term.Term {
	if toolsRaw, ok := generic["tools"].([]interface{}); ok {
		specs := make([]term.Term, 0, len(toolsRaw))
		for _, tr := range toolsRaw {
			specMap, ok := tr.(map[string]interface{})
			if !ok {
				continue
			}
			specs = append(specs, term.Struct("tool_spec", mapToArgs(specMap)...))
		}
		return term.List(specs...)
	}
	if callRaw, ok := generic["tool_call"].(map[string]interface{}); ok {
		name, _ := callRaw["name"].(string)
		if name == "" {
			return term.Atom(raw)
		}
		paramsRaw, _ := callRaw["params"].(map[string]interface{})
		return term.Struct(name, term.Struct("params", mapToArgs(paramsRaw)...))
	}
	return term.Atom(raw)
}

// mapToArgs turns a JSON object into a deterministically ordered list
// of k(v) structures, the parameter encoding of §4.7.4.
func mapToArgs(m map[string]interface{}) []term.Term {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]term.Term, 0, len(keys))
	for _, k := range keys {
		out = append(out, term.Struct(k, term.FromPrimitive(m[k])))
	}
	return out
}

// parseTermValue recursively decodes a JSON value under the
// json {name, args}/{value} term grammar.
func parseTermValue(v interface{}) (term.Term, error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return term.FromPrimitive(v), nil
	}
	if name, ok := m["name"].(string); ok {
		argsRaw, _ := m["args"].([]interface{})
		args := make([]term.Term, len(argsRaw))
		for i, a := range argsRaw {
			t, err := parseTermValue(a)
			if err != nil {
				return term.Term{}, err
			}
			args[i] = t
		}
		return term.Struct(name, args...), nil
	}
	if val, ok := m["value"]; ok {
		return term.FromPrimitive(val), nil
	}
	return term.Term{}, fmt.Errorf("unrecognized term object: %v", m)
}
