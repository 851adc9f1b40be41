// internal/ir/operand.go
//
// SSA value references. Every bytecode instruction that defines a value
// does so exactly once, named by its program counter; operands reference
// one definition directly or a set of definitions merged at a control-flow
// join (a phi node).
package ir

import (
	"fmt"
	"sort"
	"strings"

	"klasse/internal/jvm"
)

// Identifier names a value in the scope of one method.
type Identifier interface {
	fmt.Stringer
	// identOrder returns a (rank, number) pair inducing a total order over
	// identifiers, used to keep operand sets canonical.
	identOrder() (int, uint32)
}

// This is the receiver of an instance method.
type This struct{}

// Arg is the i-th declared argument of the method.
type Arg struct {
	Index uint16
}

// Local is a value defined by the instruction at a program counter.
type Local struct {
	DefinedAt jvm.ProgramCounter
}

// CaughtException is the exception value at the entry of a handler.
type CaughtException struct {
	Handler jvm.ProgramCounter
}

func (This) identOrder() (int, uint32)              { return 0, 0 }
func (a Arg) identOrder() (int, uint32)             { return 1, uint32(a.Index) }
func (l Local) identOrder() (int, uint32)           { return 2, uint32(l.DefinedAt) }
func (c CaughtException) identOrder() (int, uint32) { return 3, uint32(c.Handler) }

func (This) String() string { return "%this" }
func (a Arg) String() string {
	return fmt.Sprintf("%%arg%d", a.Index)
}
func (l Local) String() string {
	return fmt.Sprintf("%%%d", uint16(l.DefinedAt))
}
func (c CaughtException) String() string {
	return fmt.Sprintf("%%caught_exception@%s", c.Handler)
}

func identLess(a, b Identifier) bool {
	ra, na := a.identOrder()
	rb, nb := b.identOrder()
	if ra != rb {
		return ra < rb
	}
	return na < nb
}

// Operand is a reference to one definition (Just) or to the set of
// definitions reaching a merge point (Phi). The identifier set is kept
// sorted and deduplicated, making equality structural.
type Operand struct {
	ids []Identifier
}

// Just creates an operand referencing a single definition.
func Just(id Identifier) Operand {
	return Operand{ids: []Identifier{id}}
}

// Phi creates an operand merging the given definitions.
func Phi(ids ...Identifier) Operand {
	op := Operand{}
	for _, id := range ids {
		op = op.withIdentifier(id)
	}
	return op
}

func (o Operand) withIdentifier(id Identifier) Operand {
	i := sort.Search(len(o.ids), func(i int) bool { return !identLess(o.ids[i], id) })
	if i < len(o.ids) && o.ids[i] == id {
		return o
	}
	ids := make([]Identifier, 0, len(o.ids)+1)
	ids = append(ids, o.ids[:i]...)
	ids = append(ids, id)
	ids = append(ids, o.ids[i:]...)
	return Operand{ids: ids}
}

// IsZero reports whether the operand is the zero value (no identifiers).
func (o Operand) IsZero() bool { return len(o.ids) == 0 }

// IsPhi reports whether the operand merges more than one definition.
func (o Operand) IsPhi() bool { return len(o.ids) > 1 }

// Identifiers returns the referenced definitions in canonical order.
func (o Operand) Identifiers() []Identifier {
	out := make([]Identifier, len(o.ids))
	copy(out, o.ids)
	return out
}

// Contains reports whether the operand references the identifier.
func (o Operand) Contains(id Identifier) bool {
	i := sort.Search(len(o.ids), func(i int) bool { return !identLess(o.ids[i], id) })
	return i < len(o.ids) && o.ids[i] == id
}

// Join computes the least upper bound of two operands: identical operands
// stay as they are, anything else becomes a phi over the union of the
// identifier sets.
func (o Operand) Join(other Operand) Operand {
	result := o
	for _, id := range other.ids {
		result = result.withIdentifier(id)
	}
	return result
}

// Leq reports whether o's identifier set is a subset of other's.
func (o Operand) Leq(other Operand) bool {
	for _, id := range o.ids {
		if !other.Contains(id) {
			return false
		}
	}
	return true
}

// Equal compares two operands structurally.
func (o Operand) Equal(other Operand) bool {
	if len(o.ids) != len(other.ids) {
		return false
	}
	for i := range o.ids {
		if o.ids[i] != other.ids[i] {
			return false
		}
	}
	return true
}

// Key returns a canonical textual form usable as a set key.
func (o Operand) Key() string { return o.String() }

func (o Operand) String() string {
	if len(o.ids) == 1 {
		return o.ids[0].String()
	}
	parts := make([]string, len(o.ids))
	for i, id := range o.ids {
		parts[i] = id.String()
	}
	return "Phi(" + strings.Join(parts, ", ") + ")"
}
