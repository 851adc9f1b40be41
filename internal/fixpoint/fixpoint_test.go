// internal/fixpoint/fixpoint_test.go
package fixpoint

import (
	"fmt"
	"testing"
)

// nodeSet is a powerset fact: the set of graph nodes known to reach a
// location.
type nodeSet map[string]struct{}

func setOf(names ...string) nodeSet {
	s := nodeSet{}
	for _, name := range names {
		s[name] = struct{}{}
	}
	return s
}

func (s nodeSet) Join(other nodeSet) (nodeSet, error) {
	out := nodeSet{}
	for k := range s {
		out[k] = struct{}{}
	}
	for k := range other {
		out[k] = struct{}{}
	}
	return out, nil
}

func (s nodeSet) Leq(other nodeSet) bool {
	for k := range s {
		if _, ok := other[k]; !ok {
			return false
		}
	}
	return true
}

// reachProblem propagates reaching sets over a fixed edge list, including a
// cycle, and counts flow invocations.
type reachProblem struct {
	edges map[string][]string
	flows int
}

func (p *reachProblem) Seeds() []Entry[string, nodeSet] {
	return []Entry[string, nodeSet]{{Location: "a", Fact: setOf("a")}}
}

func (p *reachProblem) Flow(location string, fact nodeSet) ([]Entry[string, nodeSet], error) {
	p.flows++
	var out []Entry[string, nodeSet]
	for _, succ := range p.edges[location] {
		next, _ := fact.Join(setOf(succ))
		out = append(out, Entry[string, nodeSet]{Location: succ, Fact: next})
	}
	return out, nil
}

func TestSolveReachesFixedPoint(t *testing.T) {
	problem := &reachProblem{edges: map[string][]string{
		"a": {"b", "c"},
		"b": {"d"},
		"c": {"d"},
		"d": {"b"}, // cycle b -> d -> b
	}}
	facts, err := Solve[string, nodeSet](problem)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	want := map[string]nodeSet{
		"a": setOf("a"),
		"b": setOf("a", "b", "c", "d"),
		"c": setOf("a", "c"),
		"d": setOf("a", "b", "c", "d"),
	}
	if len(facts) != len(want) {
		t.Fatalf("got %d locations, want %d", len(facts), len(want))
	}
	for location, expected := range want {
		got := facts[location]
		if !got.Leq(expected) || !expected.Leq(got) {
			t.Errorf("facts[%q] = %v, want %v", location, got, expected)
		}
	}
}

func TestSolveJoinsSeedsAtSameLocation(t *testing.T) {
	problem := &seededProblem{}
	facts, err := Solve[string, nodeSet](problem)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	got := facts["x"]
	want := setOf("p", "q")
	if !got.Leq(want) || !want.Leq(got) {
		t.Fatalf("facts[x] = %v, want %v", got, want)
	}
}

type seededProblem struct{}

func (p *seededProblem) Seeds() []Entry[string, nodeSet] {
	return []Entry[string, nodeSet]{
		{Location: "x", Fact: setOf("p")},
		{Location: "x", Fact: setOf("q")},
	}
}

func (p *seededProblem) Flow(location string, fact nodeSet) ([]Entry[string, nodeSet], error) {
	return nil, nil
}

type failingProblem struct{}

func (p *failingProblem) Seeds() []Entry[string, nodeSet] {
	return []Entry[string, nodeSet]{{Location: "x", Fact: setOf("x")}}
}

func (p *failingProblem) Flow(location string, fact nodeSet) ([]Entry[string, nodeSet], error) {
	return nil, fmt.Errorf("flow failed at %s", location)
}

func TestSolvePropagatesFlowError(t *testing.T) {
	if _, err := Solve[string, nodeSet](&failingProblem{}); err == nil {
		t.Fatal("expected the flow error to propagate")
	}
}
