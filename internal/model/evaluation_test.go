package model

import "testing"

func TestEvaluationKeyIsStructural(t *testing.T) {
	a := Evaluation{{Name: "x", Value: 1}, {Name: "y", Value: 0.1}}
	b := Evaluation{{Name: "x", Value: 1}, {Name: "y", Value: 0.1}}
	c := Evaluation{{Name: "y", Value: 0.1}, {Name: "x", Value: 1}}
	d := Evaluation{{Name: "x", Value: 1}, {Name: "y", Value: 0.1000000001}}

	if a.Key() != b.Key() {
		t.Fatalf("equal evaluations produced different keys: %q %q", a.Key(), b.Key())
	}
	if a.Key() == c.Key() {
		t.Fatal("objective order must be part of the key")
	}
	if a.Key() == d.Key() {
		t.Fatal("distinct scores must produce distinct keys")
	}
}

func TestEvaluationLookupAndString(t *testing.T) {
	e := Evaluation{{Name: "overallocation", Value: 3}, {Name: "conflicts", Value: 0}}
	if v, ok := e.Lookup("overallocation"); !ok || v != 3 {
		t.Fatalf("lookup overallocation: %v %v", v, ok)
	}
	if _, ok := e.Lookup("missing"); ok {
		t.Fatal("expected missing objective")
	}
	if got, want := e.String(), "{overallocation: 3, conflicts: 0}"; got != want {
		t.Fatalf("unexpected string %q want %q", got, want)
	}
}
