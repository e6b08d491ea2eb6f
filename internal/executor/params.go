package executor

import (
	"strconv"

	"github.com/automenta/flowmind/internal/term"
)

// extractParams implements spec §4.7.4's parameter extraction grammar
// against a tool-call action term (actionTerm.Name() is the tool
// name): preferred encoding is tool(params(k1(v1), k2(v2), …)); also
// supported is tool(k1(v1), …) (every top-level arg a unary struct) or
// positional tool(v1, v2, …) → arg0, arg1, ….
func extractParams(actionTerm term.Term) map[string]interface{} {
	args := actionTerm.Args()
	params := make(map[string]interface{})

	if len(args) == 1 && args[0].IsStruct() && args[0].Name() == "params" {
		for _, kv := range args[0].Args() {
			if kv.IsStruct() && kv.Arity() == 1 {
				params[kv.Name()] = paramValue(kv.Args()[0])
			}
		}
		return params
	}

	if allUnaryStructs(args) {
		for _, kv := range args {
			params[kv.Name()] = paramValue(kv.Args()[0])
		}
		return params
	}

	for i, v := range args {
		params[argKey(i)] = paramValue(v)
	}
	return params
}

func allUnaryStructs(args []term.Term) bool {
	if len(args) == 0 {
		return false
	}
	for _, a := range args {
		if !a.IsStruct() || a.Arity() != 1 {
			return false
		}
	}
	return true
}

func argKey(i int) string {
	return "arg" + strconv.Itoa(i)
}

// paramValue converts a single parameter value term per §4.7.4: a
// nested params(…) struct recurses into a map, a List maps
// element-wise, an Atom/Var coerces via term.ToPrimitive, and any
// other bare Struct becomes its string form.
func paramValue(v term.Term) interface{} {
	switch {
	case v.IsStruct() && v.Name() == "params":
		nested := make(map[string]interface{})
		for _, kv := range v.Args() {
			if kv.IsStruct() && kv.Arity() == 1 {
				nested[kv.Name()] = paramValue(kv.Args()[0])
			}
		}
		return nested
	case v.IsList():
		out := make([]interface{}, len(v.Args()))
		for i, e := range v.Args() {
			out[i] = paramValue(e)
		}
		return out
	case v.IsStruct():
		return v.String()
	default:
		return term.ToPrimitive(v)
	}
}
