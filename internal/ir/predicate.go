// internal/ir/predicate.go
//
// Relational predicates over IR values, the atoms of path conditions.
package ir

import (
	"fmt"

	"klasse/internal/jvm"
)

// Value is a predicate operand: an IR operand or a literal constant.
type Value struct {
	Var      Operand
	Const    jvm.ConstantValue
	isConst bool
}

// VariableValue wraps an operand.
func VariableValue(op Operand) Value {
	return Value{Var: op}
}

// ConstValue wraps a literal constant.
func ConstValue(c jvm.ConstantValue) Value {
	return Value{Const: c, isConst: true}
}

// IsConstant reports whether the value is a literal.
func (v Value) IsConstant() bool { return v.isConst }

// Key returns a canonical textual form usable as a set key.
func (v Value) Key() string {
	if v.isConst {
		return "c:" + v.Const.String()
	}
	return "v:" + v.Var.Key()
}

func (v Value) String() string {
	if v.isConst {
		return v.Const.String()
	}
	return v.Var.String()
}

// PredicateKind discriminates relational facts.
type PredicateKind int

const (
	PredEqual PredicateKind = iota
	PredNotEqual
	PredLessThan
	PredLessThanOrEqual
	PredIsNull
	PredIsNotNull
)

// Predicate is a relational fact over two values (or one, for the null
// tests).
type Predicate struct {
	Kind PredicateKind
	LHS  Value
	RHS  Value
}

// Negate returns the logical dual of the predicate. Less-than flips into
// less-than-or-equal with sides swapped.
func (p Predicate) Negate() Predicate {
	switch p.Kind {
	case PredEqual:
		return Predicate{Kind: PredNotEqual, LHS: p.LHS, RHS: p.RHS}
	case PredNotEqual:
		return Predicate{Kind: PredEqual, LHS: p.LHS, RHS: p.RHS}
	case PredLessThan:
		return Predicate{Kind: PredLessThanOrEqual, LHS: p.RHS, RHS: p.LHS}
	case PredLessThanOrEqual:
		return Predicate{Kind: PredLessThan, LHS: p.RHS, RHS: p.LHS}
	case PredIsNull:
		return Predicate{Kind: PredIsNotNull, LHS: p.LHS}
	case PredIsNotNull:
		return Predicate{Kind: PredIsNull, LHS: p.LHS}
	}
	return p
}

// Key returns a canonical textual form usable as a set key.
func (p Predicate) Key() string {
	switch p.Kind {
	case PredIsNull, PredIsNotNull:
		return fmt.Sprintf("%d(%s)", p.Kind, p.LHS.Key())
	default:
		return fmt.Sprintf("%d(%s,%s)", p.Kind, p.LHS.Key(), p.RHS.Key())
	}
}

func (p Predicate) String() string {
	switch p.Kind {
	case PredEqual:
		return fmt.Sprintf("%s == %s", p.LHS, p.RHS)
	case PredNotEqual:
		return fmt.Sprintf("%s != %s", p.LHS, p.RHS)
	case PredLessThan:
		return fmt.Sprintf("%s < %s", p.LHS, p.RHS)
	case PredLessThanOrEqual:
		return fmt.Sprintf("%s <= %s", p.LHS, p.RHS)
	case PredIsNull:
		return fmt.Sprintf("%s == null", p.LHS)
	case PredIsNotNull:
		return fmt.Sprintf("%s != null", p.LHS)
	}
	return "?"
}

// PredicateOf translates a jump condition into a relational predicate.
// Zero comparisons compare against the integer constant 0; greater-than
// forms flip into less-than with swapped sides.
func PredicateOf(cond Condition) Predicate {
	zero := ConstValue(jvm.IntConst{Value: 0})
	lhs := VariableValue(cond.LHS)
	rhs := VariableValue(cond.RHS)
	switch cond.Kind {
	case CondIsZero:
		return Predicate{Kind: PredEqual, LHS: lhs, RHS: zero}
	case CondIsNonZero:
		return Predicate{Kind: PredNotEqual, LHS: lhs, RHS: zero}
	case CondIsPositive:
		return Predicate{Kind: PredLessThan, LHS: zero, RHS: lhs}
	case CondIsNegative:
		return Predicate{Kind: PredLessThan, LHS: lhs, RHS: zero}
	case CondIsNonPositive:
		return Predicate{Kind: PredLessThanOrEqual, LHS: lhs, RHS: zero}
	case CondIsNonNegative:
		return Predicate{Kind: PredLessThanOrEqual, LHS: zero, RHS: lhs}
	case CondEqual:
		return Predicate{Kind: PredEqual, LHS: lhs, RHS: rhs}
	case CondNotEqual:
		return Predicate{Kind: PredNotEqual, LHS: lhs, RHS: rhs}
	case CondLessThan:
		return Predicate{Kind: PredLessThan, LHS: lhs, RHS: rhs}
	case CondLessThanOrEqual:
		return Predicate{Kind: PredLessThanOrEqual, LHS: lhs, RHS: rhs}
	case CondGreaterThan:
		return Predicate{Kind: PredLessThan, LHS: rhs, RHS: lhs}
	case CondGreaterThanOrEqual:
		return Predicate{Kind: PredLessThanOrEqual, LHS: rhs, RHS: lhs}
	case CondIsNull:
		return Predicate{Kind: PredIsNull, LHS: lhs}
	case CondIsNotNull:
		return Predicate{Kind: PredIsNotNull, LHS: lhs}
	}
	return Predicate{}
}
