// Package term implements the Term grammar and first-order unification
// that the reasoning engine matches thought content against rule
// patterns with.
package term

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind tags the variant of a Term.
type Kind int

const (
	KindAtom Kind = iota
	KindVar
	KindStruct
	KindList
)

// Term is an immutable tagged sum type: Atom, Var, Struct or List.
// Zero value is not meaningful; construct with the New* helpers.
type Term struct {
	kind Kind
	name string // Atom name, Var name, or Struct functor
	args []Term // Struct args or List elements
}

// Atom returns a constant term.
func Atom(name string) Term { return Term{kind: KindAtom, name: name} }

// Var returns a unification variable term.
func Var(name string) Term { return Term{kind: KindVar, name: name} }

// Struct returns a named n-ary application.
func Struct(name string, args ...Term) Term {
	cp := make([]Term, len(args))
	copy(cp, args)
	return Term{kind: KindStruct, name: name, args: cp}
}

// List returns an ordered heterogeneous sequence.
func List(elements ...Term) Term {
	cp := make([]Term, len(elements))
	copy(cp, elements)
	return Term{kind: KindList, args: cp}
}

func (t Term) Kind() Kind    { return t.kind }
func (t Term) IsAtom() bool  { return t.kind == KindAtom }
func (t Term) IsVar() bool   { return t.kind == KindVar }
func (t Term) IsStruct() bool { return t.kind == KindStruct }
func (t Term) IsList() bool  { return t.kind == KindList }

// Name returns the Atom's constant, the Var's name, or the Struct's functor.
// Empty for List.
func (t Term) Name() string { return t.name }

// Args returns the Struct arguments or the List elements. Callers must
// not mutate the returned slice; Term is immutable.
func (t Term) Args() []Term { return t.args }

// Arity returns len(Args()) for Struct/List, 0 otherwise.
func (t Term) Arity() int { return len(t.args) }

// Equal reports structural equality.
func (t Term) Equal(o Term) bool {
	if t.kind != o.kind {
		return false
	}
	switch t.kind {
	case KindAtom, KindVar:
		return t.name == o.name
	case KindStruct:
		if t.name != o.name || len(t.args) != len(o.args) {
			return false
		}
		for i := range t.args {
			if !t.args[i].Equal(o.args[i]) {
				return false
			}
		}
		return true
	case KindList:
		if len(t.args) != len(o.args) {
			return false
		}
		for i := range t.args {
			if !t.args[i].Equal(o.args[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders the term in a Prolog-ish textual form, used for rule
// embedding source text and log messages.
func (t Term) String() string {
	switch t.kind {
	case KindAtom:
		return t.name
	case KindVar:
		return "?" + t.name
	case KindStruct:
		parts := make([]string, len(t.args))
		for i, a := range t.args {
			parts[i] = a.String()
		}
		return t.name + "(" + strings.Join(parts, ", ") + ")"
	case KindList:
		parts := make([]string, len(t.args))
		for i, a := range t.args {
			parts[i] = a.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return "?"
}

// Bindings is a substitution from variable name to Term. It is treated
// as immutable once returned from Unify; callers extend it only via
// the internal unify recursion.
type Bindings map[string]Term

// Clone returns a shallow copy suitable for speculative extension.
func (b Bindings) Clone() Bindings {
	cp := make(Bindings, len(b))
	for k, v := range b {
		cp[k] = v
	}
	return cp
}

// Walk chases a chain of variable-to-variable bindings to its current
// value under b, without recursing into sub-structure.
func Walk(t Term, b Bindings) Term {
	for t.kind == KindVar {
		v, ok := b[t.name]
		if !ok {
			return t
		}
		t = v
	}
	return t
}

// Unify performs classical first-order unification with an occurs
// check. On success it returns a minimal substitution extending an
// empty binding set; on failure it returns (nil, false).
func Unify(t1, t2 Term) (Bindings, bool) {
	b := Bindings{}
	ok := unify(t1, t2, b)
	if !ok {
		return nil, false
	}
	return b, true
}

func unify(t1, t2 Term, b Bindings) bool {
	t1 = Walk(t1, b)
	t2 = Walk(t2, b)

	if t1.kind == KindVar && t2.kind == KindVar && t1.name == t2.name {
		return true
	}
	if t1.kind == KindVar {
		return bindVar(t1.name, t2, b)
	}
	if t2.kind == KindVar {
		return bindVar(t2.name, t1, b)
	}
	if t1.kind != t2.kind {
		return false
	}
	switch t1.kind {
	case KindAtom:
		return t1.name == t2.name
	case KindStruct:
		if t1.name != t2.name || len(t1.args) != len(t2.args) {
			return false
		}
		for i := range t1.args {
			if !unify(t1.args[i], t2.args[i], b) {
				return false
			}
		}
		return true
	case KindList:
		if len(t1.args) != len(t2.args) {
			return false
		}
		for i := range t1.args {
			if !unify(t1.args[i], t2.args[i], b) {
				return false
			}
		}
		return true
	}
	return false
}

func bindVar(name string, t Term, b Bindings) bool {
	if occurs(name, t, b) {
		return false
	}
	b[name] = t
	return true
}

// occurs implements the occurs check: does variable `name` appear,
// after walking, anywhere within t.
func occurs(name string, t Term, b Bindings) bool {
	t = Walk(t, b)
	switch t.kind {
	case KindVar:
		return t.name == name
	case KindStruct, KindList:
		for _, a := range t.args {
			if occurs(name, a, b) {
				return true
			}
		}
		return false
	}
	return false
}

// Apply performs capture-free substitution, fully resolving chains of
// variable-to-variable bindings and recursing into sub-structure.
func Apply(t Term, b Bindings) Term {
	t = Walk(t, b)
	switch t.kind {
	case KindStruct:
		args := make([]Term, len(t.args))
		for i, a := range t.args {
			args[i] = Apply(a, b)
		}
		return Struct(t.name, args...)
	case KindList:
		args := make([]Term, len(t.args))
		for i, a := range t.args {
			args[i] = Apply(a, b)
		}
		return List(args...)
	default:
		return t
	}
}

// ToPrimitive coerces an Atom to a Go primitive following the parameter
// extraction grammar (§4.7.4): true/false/null/undefined, then a
// parsed number if possible, else the raw string. A List becomes a
// []interface{} of its coerced elements; any other non-Atom term is
// returned as its string form.
func ToPrimitive(t Term) interface{} {
	if !t.IsAtom() {
		if t.IsList() {
			out := make([]interface{}, len(t.args))
			for i, a := range t.args {
				out[i] = ToPrimitive(a)
			}
			return out
		}
		return t.String()
	}
	switch t.name {
	case "true":
		return true
	case "false":
		return false
	case "null", "undefined":
		return nil
	}
	if f, err := strconv.ParseFloat(t.name, 64); err == nil {
		return f
	}
	return t.name
}

// FromPrimitive is the reverse of ToPrimitive, used when parsing LLM
// JSON output into Terms.
func FromPrimitive(v interface{}) Term {
	switch x := v.(type) {
	case nil:
		return Atom("null")
	case bool:
		if x {
			return Atom("true")
		}
		return Atom("false")
	case float64:
		return Atom(strconv.FormatFloat(x, 'g', -1, 64))
	case string:
		return Atom(x)
	case []interface{}:
		elems := make([]Term, len(x))
		for i, e := range x {
			elems[i] = FromPrimitive(e)
		}
		return List(elems...)
	case map[string]interface{}:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		kv := make([]Term, len(keys))
		for i, k := range keys {
			kv[i] = Struct(k, FromPrimitive(x[k]))
		}
		return Struct("params", kv...)
	default:
		return Atom(fmt.Sprintf("%v", x))
	}
}

// wireTerm is the on-disk JSON form of a Term, used by Persistence to
// serialize rule patterns/actions and thought content. Kind is spelled
// out rather than encoded as the int enum so a snapshot file remains
// readable independent of Kind's iota ordering.
type wireTerm struct {
	Kind string     `json:"kind"`
	Name string     `json:"name,omitempty"`
	Args []wireTerm `json:"args,omitempty"`
}

func (t Term) toWire() wireTerm {
	w := wireTerm{Name: t.name}
	switch t.kind {
	case KindAtom:
		w.Kind = "atom"
	case KindVar:
		w.Kind = "var"
	case KindStruct:
		w.Kind = "struct"
	case KindList:
		w.Kind = "list"
	}
	if len(t.args) > 0 {
		w.Args = make([]wireTerm, len(t.args))
		for i, a := range t.args {
			w.Args[i] = a.toWire()
		}
	}
	return w
}

func (w wireTerm) toTerm() Term {
	args := make([]Term, len(w.Args))
	for i, a := range w.Args {
		args[i] = a.toTerm()
	}
	switch w.Kind {
	case "var":
		return Var(w.Name)
	case "struct":
		return Struct(w.Name, args...)
	case "list":
		return List(args...)
	default:
		return Atom(w.Name)
	}
}

// MarshalJSON renders t in the wireTerm form.
func (t Term) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.toWire())
}

// UnmarshalJSON parses the wireTerm form produced by MarshalJSON.
func (t *Term) UnmarshalJSON(data []byte) error {
	var w wireTerm
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*t = w.toTerm()
	return nil
}
