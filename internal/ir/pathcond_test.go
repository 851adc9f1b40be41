// internal/ir/pathcond_test.go
package ir

import (
	"math/rand"
	"testing"

	"klasse/internal/jvm"
)

func pred(n int32) Predicate {
	return Predicate{
		Kind: PredEqual,
		LHS:  VariableValue(Just(Local{DefinedAt: jvm.ProgramCounter(n)})),
		RHS:  ConstValue(jvm.IntConst{Value: n}),
	}
}

// randomCondition builds an arbitrary DNF formula over a small predicate
// universe.
func randomCondition(rng *rand.Rand) PathCondition {
	cond := PathFalse()
	minterms := 1 + rng.Intn(4)
	for i := 0; i < minterms; i++ {
		literals := make([]BoolVar, 0, 4)
		for j := 0; j < 1+rng.Intn(3); j++ {
			literal := Positive(pred(int32(rng.Intn(6))))
			if rng.Intn(2) == 0 {
				literal = literal.Not()
			}
			literals = append(literals, literal)
		}
		cond = cond.Or(pathOfMinTerm(literals...))
	}
	return cond
}

func pathOfMinTerm(literals ...BoolVar) PathCondition {
	cond := PathOf(literals[0])
	for _, literal := range literals[1:] {
		cond = cond.AndVar(literal)
	}
	return cond
}

func randomAssignment(rng *rand.Rand) func(Predicate) bool {
	values := map[string]bool{}
	return func(p Predicate) bool {
		key := p.Key()
		if v, ok := values[key]; ok {
			return v
		}
		v := rng.Intn(2) == 0
		values[key] = v
		return v
	}
}

// DNF soundness: conjunction, disjunction, and simplification agree with
// boolean evaluation under arbitrary assignments.
func TestPathConditionSoundness(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		lhs := randomCondition(rng)
		rhs := randomCondition(rng)
		assign := randomAssignment(rng)

		and := lhs.And(rhs)
		if got, want := and.Eval(assign), lhs.Eval(assign) && rhs.Eval(assign); got != want {
			t.Fatalf("and: eval = %v, want %v (lhs=%s rhs=%s)", got, want, lhs, rhs)
		}
		or := lhs.Or(rhs)
		if got, want := or.Eval(assign), lhs.Eval(assign) || rhs.Eval(assign); got != want {
			t.Fatalf("or: eval = %v, want %v (lhs=%s rhs=%s)", got, want, lhs, rhs)
		}
		if lhs.Simplify().Eval(assign) != lhs.Eval(assign) {
			t.Fatalf("simplify changed the meaning of %s", lhs)
		}
	}
}

func TestPathConditionUnits(t *testing.T) {
	a := Positive(pred(1))
	if !PathTrue().IsTautology() || PathTrue().IsContradiction() {
		t.Fatal("true misclassified")
	}
	if !PathFalse().IsContradiction() {
		t.Fatal("false misclassified")
	}
	// x && ~x is a contradiction after dropping the impossible minterm.
	contradiction := PathOf(a).AndVar(a.Not())
	if !contradiction.IsContradiction() {
		t.Fatalf("a && ~a = %s, want false", contradiction)
	}
	// true is the identity of conjunction.
	if !PathTrue().And(PathOf(a)).Equal(PathOf(a)) {
		t.Fatal("true && a != a")
	}
	// false is the identity of disjunction.
	if !PathFalse().Or(PathOf(a)).Equal(PathOf(a)) {
		t.Fatal("false || a != a")
	}
}

// Absorption: Aa + A~ab simplifies to Aa + Ab, and a || ~a collapses to
// true.
func TestPathConditionSimplify(t *testing.T) {
	a := Positive(pred(1))
	b := Positive(pred(2))

	excluded := PathOf(a).Or(PathOf(a.Not()))
	if !excluded.Simplify().IsTautology() {
		t.Fatalf("a || ~a simplified to %s, want true", excluded.Simplify())
	}

	absorb := pathOfMinTerm(a).Or(pathOfMinTerm(a.Not(), b))
	simplified := absorb.Simplify()
	want := pathOfMinTerm(a).Or(pathOfMinTerm(b))
	if !simplified.Equal(want) {
		t.Fatalf("a || ~ab simplified to %s, want %s", simplified, want)
	}

	// Supersets are subsumed.
	subsumed := pathOfMinTerm(a).Or(pathOfMinTerm(a, b))
	if !subsumed.Simplify().Equal(pathOfMinTerm(a)) {
		t.Fatalf("a || ab simplified to %s, want a", subsumed.Simplify())
	}
}

func TestPredicateNegateDuals(t *testing.T) {
	x := VariableValue(Just(Arg{Index: 0}))
	y := VariableValue(Just(Arg{Index: 1}))
	tests := []struct {
		name string
		p    Predicate
		want Predicate
	}{
		{"equal", Predicate{Kind: PredEqual, LHS: x, RHS: y}, Predicate{Kind: PredNotEqual, LHS: x, RHS: y}},
		{"less than swaps", Predicate{Kind: PredLessThan, LHS: x, RHS: y}, Predicate{Kind: PredLessThanOrEqual, LHS: y, RHS: x}},
		{"null", Predicate{Kind: PredIsNull, LHS: x}, Predicate{Kind: PredIsNotNull, LHS: x}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.p.Negate()
			if got.Key() != tt.want.Key() {
				t.Fatalf("negate = %s, want %s", got, tt.want)
			}
			if back := got.Negate(); back.Key() != tt.p.Key() {
				t.Fatalf("double negation = %s, want %s", back, tt.p)
			}
		})
	}
}

func TestBoolVarNot(t *testing.T) {
	v := Positive(pred(3))
	if !v.Not().Negative || v.Not().Not().Key() != v.Key() {
		t.Fatal("literal negation must flip the sign and be involutive")
	}
}
