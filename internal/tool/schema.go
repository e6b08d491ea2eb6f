// Package tool implements the Tool Registry & Schema (spec §4.5) the
// Action Executor dispatches through; the built-in tools (spec §4.6)
// live in package builtin.
package tool

import "fmt"

// ParameterType is the closed set of schema types, spec §4.5.
type ParameterType string

const (
	TypeString  ParameterType = "string"
	TypeNumber  ParameterType = "number"
	TypeBoolean ParameterType = "boolean"
	TypeArray   ParameterType = "array"
	TypeObject  ParameterType = "object"
	TypeTerm    ParameterType = "term"
)

// RequiredPredicate decides, given the full parameter map, whether a
// parameter is required. Constant-required and constant-optional
// parameters use Always(true)/Always(false); conditional schemas (spec §4.5: e.g.
// "content required iff action == add") supply their own predicate.
type RequiredPredicate func(params map[string]interface{}) bool

// Always returns a RequiredPredicate with a fixed answer.
func Always(required bool) RequiredPredicate {
	return func(map[string]interface{}) bool { return required }
}

// RequiredWhen builds a predicate requiring the parameter only when
// params[discriminantKey] == discriminantValue.
func RequiredWhen(discriminantKey string, discriminantValue interface{}) RequiredPredicate {
	return func(params map[string]interface{}) bool {
		v, ok := params[discriminantKey]
		return ok && v == discriminantValue
	}
}

// Parameter describes one named input to a tool.
type Parameter struct {
	Type        ParameterType
	Required    RequiredPredicate
	ItemType    ParameterType // only meaningful when Type == TypeArray
	Description string
}

// Schema is a set of named parameters, keyed by name (unordered).
type Schema map[string]Parameter

// Validate checks params against schema: conditional required
// predicates are evaluated before type checks (spec §8 boundary
// behavior), across every declared parameter first, then types are
// checked only for parameters actually present.
func (s Schema) Validate(params map[string]interface{}) error {
	for name, p := range s {
		required := p.Required != nil && p.Required(params)
		if required {
			if _, present := params[name]; !present {
				return fmt.Errorf("missing required parameter %q", name)
			}
		}
	}
	for name, p := range s {
		v, present := params[name]
		if !present {
			continue
		}
		if err := checkType(name, p, v); err != nil {
			return err
		}
	}
	return nil
}

func checkType(name string, p Parameter, v interface{}) error {
	switch p.Type {
	case TypeString:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("parameter %q: expected string, got %T", name, v)
		}
	case TypeNumber:
		switch v.(type) {
		case float64, float32, int, int64:
		default:
			return fmt.Errorf("parameter %q: expected number, got %T", name, v)
		}
	case TypeBoolean:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("parameter %q: expected boolean, got %T", name, v)
		}
	case TypeArray:
		items, ok := v.([]interface{})
		if !ok {
			return fmt.Errorf("parameter %q: expected array, got %T", name, v)
		}
		if p.ItemType != "" {
			for i, item := range items {
				if err := checkType(fmt.Sprintf("%s[%d]", name, i), Parameter{Type: p.ItemType}, item); err != nil {
					return err
				}
			}
		}
	case TypeObject:
		if _, ok := v.(map[string]interface{}); !ok {
			return fmt.Errorf("parameter %q: expected object, got %T", name, v)
		}
	case TypeTerm:
		// any representation is acceptable; term-typed parameters are
		// validated structurally by the tool itself, not the schema.
	}
	return nil
}
