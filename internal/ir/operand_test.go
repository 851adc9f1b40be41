// internal/ir/operand_test.go
package ir

import "testing"

func TestOperandJoin(t *testing.T) {
	tests := []struct {
		name string
		lhs  Operand
		rhs  Operand
		want Operand
	}{
		{
			name: "same stays same",
			lhs:  Just(This{}),
			rhs:  Just(This{}),
			want: Just(This{}),
		},
		{
			name: "different become phi",
			lhs:  Just(Arg{Index: 0}),
			rhs:  Just(Arg{Index: 1}),
			want: Phi(Arg{Index: 0}, Arg{Index: 1}),
		},
		{
			name: "just into phi",
			lhs:  Just(Arg{Index: 0}),
			rhs:  Phi(Arg{Index: 1}, Arg{Index: 2}),
			want: Phi(Arg{Index: 0}, Arg{Index: 1}, Arg{Index: 2}),
		},
		{
			name: "phi union",
			lhs:  Phi(Arg{Index: 1}, Arg{Index: 2}),
			rhs:  Phi(Arg{Index: 0}, Arg{Index: 1}, Arg{Index: 3}),
			want: Phi(Arg{Index: 0}, Arg{Index: 1}, Arg{Index: 2}, Arg{Index: 3}),
		},
		{
			name: "locals and caught exceptions",
			lhs:  Just(Local{DefinedAt: 4}),
			rhs:  Just(CaughtException{Handler: 9}),
			want: Phi(Local{DefinedAt: 4}, CaughtException{Handler: 9}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.lhs.Join(tt.rhs)
			if !got.Equal(tt.want) {
				t.Fatalf("join = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOperandJoinLaws(t *testing.T) {
	operands := []Operand{
		Just(This{}),
		Just(Arg{Index: 0}),
		Just(Local{DefinedAt: 3}),
		Phi(Arg{Index: 0}, Local{DefinedAt: 7}),
		Phi(This{}, CaughtException{Handler: 2}),
	}
	for _, a := range operands {
		if !a.Join(a).Equal(a) {
			t.Errorf("join not idempotent for %v", a)
		}
		for _, b := range operands {
			ab := a.Join(b)
			if !ab.Equal(b.Join(a)) {
				t.Errorf("join not commutative for %v, %v", a, b)
			}
			// Monotonicity of join.
			if !a.Leq(ab) || !b.Leq(ab) {
				t.Errorf("%v or %v not below their join %v", a, b, ab)
			}
			for _, c := range operands {
				if !ab.Join(c).Equal(a.Join(b.Join(c))) {
					t.Errorf("join not associative for %v, %v, %v", a, b, c)
				}
			}
		}
	}
}

func TestOperandLeq(t *testing.T) {
	a := Just(Arg{Index: 0})
	phi := Phi(Arg{Index: 0}, Arg{Index: 1})
	if !a.Leq(phi) {
		t.Fatal("member should be below its phi")
	}
	if phi.Leq(a) {
		t.Fatal("phi should not be below a member")
	}
	if !phi.Leq(phi) {
		t.Fatal("leq not reflexive")
	}
}

func TestOperandString(t *testing.T) {
	if got := Just(Local{DefinedAt: 5}).String(); got != "%5" {
		t.Fatalf("Just local = %q", got)
	}
	if got := Phi(Local{DefinedAt: 4}, Local{DefinedAt: 8}).String(); got != "Phi(%4, %8)" {
		t.Fatalf("phi = %q", got)
	}
}
