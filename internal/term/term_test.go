package term

import (
	"encoding/json"
	"testing"
)

func TestUnifyAtoms(t *testing.T) {
	_, ok := Unify(Atom("a"), Atom("a"))
	if !ok {
		t.Fatal("expected atoms with same name to unify")
	}
	_, ok = Unify(Atom("a"), Atom("b"))
	if ok {
		t.Fatal("expected atoms with different names to fail")
	}
}

func TestUnifyVarBinding(t *testing.T) {
	b, ok := Unify(Var("X"), Atom("hello"))
	if !ok {
		t.Fatal("expected var/atom to unify")
	}
	if got := Apply(Var("X"), b); !got.Equal(Atom("hello")) {
		t.Errorf("Apply(X) = %v, want hello", got)
	}
}

func TestUnifyStructArityMismatch(t *testing.T) {
	_, ok := Unify(Struct("f", Atom("a")), Struct("f", Atom("a"), Atom("b")))
	if ok {
		t.Fatal("expected arity mismatch to fail")
	}
}

func TestUnifyListArityMismatch(t *testing.T) {
	_, ok := Unify(List(Atom("a")), List(Atom("a"), Atom("b")))
	if ok {
		t.Fatal("expected list arity mismatch to fail")
	}
}

func TestOccursCheckFails(t *testing.T) {
	x := Var("X")
	fx := Struct("f", x)
	_, ok := Unify(x, fx)
	if ok {
		t.Fatal("expected occurs check to reject X = f(X)")
	}
}

func TestUnifyChasesVarToVarChain(t *testing.T) {
	b, ok := Unify(Var("X"), Var("Y"))
	if !ok {
		t.Fatal("expected var/var to unify")
	}
	b2, ok := Unify(Var("Y"), Atom("z"))
	if !ok {
		t.Fatal("expected var/atom to unify")
	}
	for k, v := range b2 {
		b[k] = v
	}
	got := Apply(Var("X"), b)
	if !got.Equal(Atom("z")) {
		t.Errorf("Apply(X) through X=Y=z chain = %v, want z", got)
	}
}

func TestUnifyNestedStructs(t *testing.T) {
	pattern := Struct("goal", Var("X"), Struct("loc", Var("Y")))
	value := Struct("goal", Atom("plan_trip"), Struct("loc", Atom("paris")))
	b, ok := Unify(pattern, value)
	if !ok {
		t.Fatal("expected nested struct to unify")
	}
	if got := Apply(Var("X"), b); !got.Equal(Atom("plan_trip")) {
		t.Errorf("X = %v, want plan_trip", got)
	}
	if got := Apply(Var("Y"), b); !got.Equal(Atom("paris")) {
		t.Errorf("Y = %v, want paris", got)
	}
}

func TestApplyIsCaptureFree(t *testing.T) {
	b := Bindings{"X": Struct("f", Var("Y")), "Y": Atom("done")}
	got := Apply(Var("X"), b)
	want := Struct("f", Atom("done"))
	if !got.Equal(want) {
		t.Errorf("Apply(X) = %v, want %v", got, want)
	}
}

func TestCosineSimilarityZeroMagnitude(t *testing.T) {
	if got := CosineSimilarity([]float32{0, 0, 0}, []float32{1, 2, 3}); got != 0 {
		t.Errorf("CosineSimilarity with zero vector = %v, want 0", got)
	}
}

func TestCosineSimilarityIdentical(t *testing.T) {
	v := []float32{1, 2, 3}
	got := CosineSimilarity(v, v)
	if got < 0.999 || got > 1.0001 {
		t.Errorf("CosineSimilarity(v, v) = %v, want ~1", got)
	}
}

func TestToPrimitiveCoercions(t *testing.T) {
	tests := []struct {
		in   Term
		want interface{}
	}{
		{Atom("true"), true},
		{Atom("false"), false},
		{Atom("null"), nil},
		{Atom("42"), 42.0},
		{Atom("hello"), "hello"},
	}
	for _, tt := range tests {
		if got := ToPrimitive(tt.in); got != tt.want {
			t.Errorf("ToPrimitive(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWeightedSampleFallsBackWhenAllNonPositive(t *testing.T) {
	_, ok := WeightedSample([]float64{0, -1, 0})
	if ok {
		t.Fatal("expected WeightedSample to report failure for all non-positive weights")
	}
}

func TestTermJSONRoundTrip(t *testing.T) {
	original := Struct("sequence",
		Struct("call_llm", Struct("params", Struct("k", Atom("v")))),
		List(Atom("a"), Var("X")),
	)
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got Term
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !got.Equal(original) {
		t.Errorf("round-tripped term = %v, want %v", got, original)
	}
}

func TestWeightedSampleConvergence(t *testing.T) {
	weights := []float64{2, 1}
	counts := make([]int, 2)
	const draws = 20000
	for i := 0; i < draws; i++ {
		idx, ok := WeightedSample(weights)
		if !ok {
			t.Fatal("expected a draw")
		}
		counts[idx]++
	}
	freq0 := float64(counts[0]) / float64(draws)
	if freq0 < 0.60 || freq0 > 0.73 {
		t.Errorf("empirical frequency for weight-2 candidate = %v, want ~0.667", freq0)
	}
}
