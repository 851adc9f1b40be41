// internal/ir/pathcond.go
//
// Path conditions in disjunctive normal form: a set of minterms, each a set
// of positive or negative predicate literals. The empty set of minterms is
// a contradiction; the minterm with no literals is a tautology. Sets are
// keyed by the canonical textual form of their elements, so duplicates
// collapse.
package ir

import (
	"sort"
	"strings"
)

// BoolVar is a positive or negative occurrence of a predicate.
type BoolVar struct {
	Negative bool
	Pred     Predicate
}

// Positive creates a positive literal.
func Positive(p Predicate) BoolVar { return BoolVar{Pred: p} }

// Negated creates a negative literal.
func Negated(p Predicate) BoolVar { return BoolVar{Negative: true, Pred: p} }

// Not flips the literal's sign.
func (v BoolVar) Not() BoolVar {
	return BoolVar{Negative: !v.Negative, Pred: v.Pred}
}

// Key returns a canonical textual form usable as a set key.
func (v BoolVar) Key() string {
	if v.Negative {
		return "~" + v.Pred.Key()
	}
	return "+" + v.Pred.Key()
}

func (v BoolVar) String() string {
	if v.Negative {
		return "~(" + v.Pred.String() + ")"
	}
	return "(" + v.Pred.String() + ")"
}

// MinTerm is a conjunction of literals; no literals means true.
type MinTerm struct {
	vars map[string]BoolVar
}

func newMinTerm() MinTerm {
	return MinTerm{vars: map[string]BoolVar{}}
}

// MinTermOf creates a minterm from literals.
func MinTermOf(literals ...BoolVar) MinTerm {
	m := newMinTerm()
	for _, literal := range literals {
		m.vars[literal.Key()] = literal
	}
	return m
}

func (m MinTerm) clone() MinTerm {
	out := newMinTerm()
	for k, v := range m.vars {
		out.vars[k] = v
	}
	return out
}

func (m MinTerm) contains(v BoolVar) bool {
	_, ok := m.vars[v.Key()]
	return ok
}

// IsTautology reports whether the minterm has no literals.
func (m MinTerm) IsTautology() bool { return len(m.vars) == 0 }

// Literals returns the literals in canonical order.
func (m MinTerm) Literals() []BoolVar {
	keys := make([]string, 0, len(m.vars))
	for k := range m.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]BoolVar, 0, len(keys))
	for _, k := range keys {
		out = append(out, m.vars[k])
	}
	return out
}

// key is the canonical set key of the whole minterm.
func (m MinTerm) key() string {
	keys := make([]string, 0, len(m.vars))
	for k := range m.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, "&")
}

// isSupersetOf reports whether m contains every literal of other.
func (m MinTerm) isSupersetOf(other MinTerm) bool {
	if len(m.vars) < len(other.vars) {
		return false
	}
	for k := range other.vars {
		if _, ok := m.vars[k]; !ok {
			return false
		}
	}
	return true
}

// isContradictory reports whether the minterm contains a literal and its
// negation.
func (m MinTerm) isContradictory() bool {
	for _, v := range m.vars {
		if m.contains(v.Not()) {
			return true
		}
	}
	return false
}

func (m MinTerm) String() string {
	if m.IsTautology() {
		return "true"
	}
	literals := m.Literals()
	parts := make([]string, len(literals))
	for i, literal := range literals {
		parts[i] = literal.String()
	}
	return strings.Join(parts, " && ")
}

// PathCondition is a boolean formula in DNF.
type PathCondition struct {
	minterms map[string]MinTerm
}

// PathTrue is the tautology: the single empty minterm.
func PathTrue() PathCondition {
	m := newMinTerm()
	return PathCondition{minterms: map[string]MinTerm{m.key(): m}}
}

// PathFalse is the contradiction: no minterms.
func PathFalse() PathCondition {
	return PathCondition{minterms: map[string]MinTerm{}}
}

// PathOf creates a path condition from a single literal.
func PathOf(v BoolVar) PathCondition {
	m := MinTermOf(v)
	return PathCondition{minterms: map[string]MinTerm{m.key(): m}}
}

// IsContradiction reports whether the condition is false.
func (p PathCondition) IsContradiction() bool { return len(p.minterms) == 0 }

// IsTautology reports whether the condition contains the empty minterm.
func (p PathCondition) IsTautology() bool {
	for _, m := range p.minterms {
		if m.IsTautology() {
			return true
		}
	}
	return false
}

// MinTerms returns the minterms in canonical order.
func (p PathCondition) MinTerms() []MinTerm {
	keys := make([]string, 0, len(p.minterms))
	for k := range p.minterms {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]MinTerm, 0, len(keys))
	for _, k := range keys {
		out = append(out, p.minterms[k])
	}
	return out
}

// Predicates returns the distinct predicates used in the condition.
func (p PathCondition) Predicates() []Predicate {
	seen := map[string]Predicate{}
	for _, m := range p.minterms {
		for _, v := range m.vars {
			seen[v.Pred.Key()] = v.Pred
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Predicate, 0, len(keys))
	for _, k := range keys {
		out = append(out, seen[k])
	}
	return out
}

// Or is disjunction: the union of the minterm sets.
func (p PathCondition) Or(other PathCondition) PathCondition {
	out := PathFalse()
	for k, m := range p.minterms {
		out.minterms[k] = m
	}
	for k, m := range other.minterms {
		out.minterms[k] = m
	}
	return out
}

// AndVar is conjunction with a single literal: minterms containing the
// literal's negation drop, the rest absorb the literal.
func (p PathCondition) AndVar(v BoolVar) PathCondition {
	out := PathFalse()
	for _, m := range p.minterms {
		if m.contains(v.Not()) {
			continue
		}
		next := m.clone()
		next.vars[v.Key()] = v
		out.minterms[next.key()] = next
	}
	return out
}

// And is conjunction: the Cartesian product of the minterm sets, dropping
// contradictory combinations.
func (p PathCondition) And(other PathCondition) PathCondition {
	out := PathFalse()
	for _, lhs := range p.minterms {
	pairs:
		for _, rhs := range other.minterms {
			combined := lhs.clone()
			for _, v := range rhs.vars {
				if combined.contains(v.Not()) {
					continue pairs
				}
				combined.vars[v.Key()] = v
			}
			out.minterms[combined.key()] = combined
		}
	}
	return out
}

// Simplify removes contradictory minterms, removes minterms subsumed by
// smaller ones, and applies the absorption law Aa + A~ab = Aa + Ab until a
// fixed point.
func (p PathCondition) Simplify() PathCondition {
	out := PathFalse()
	for k, m := range p.minterms {
		out.minterms[k] = m
	}
	for {
		changed := false

		for k, m := range out.minterms {
			if m.isContradictory() {
				delete(out.minterms, k)
				changed = true
			}
		}

		// A minterm that is a strict superset of another is redundant.
		for k, m := range out.minterms {
			for k2, m2 := range out.minterms {
				if k == k2 {
					continue
				}
				if m.isSupersetOf(m2) {
					delete(out.minterms, k)
					changed = true
					break
				}
			}
		}

		// Absorption: when lhs \ rhs is a single literal whose negation
		// appears in rhs \ lhs, that negation can be dropped from rhs.
		var additions []MinTerm
		for _, lhs := range out.minterms {
			for _, rhs := range out.minterms {
				single, ok := singleDifference(lhs, rhs)
				if !ok {
					continue
				}
				negated := single.Not()
				if !rhs.contains(negated) {
					continue
				}
				reduced := newMinTerm()
				for k, v := range rhs.vars {
					if k == negated.Key() {
						continue
					}
					reduced.vars[k] = v
				}
				if _, exists := out.minterms[reduced.key()]; !exists {
					additions = append(additions, reduced)
				}
			}
		}
		for _, m := range additions {
			if _, exists := out.minterms[m.key()]; !exists {
				out.minterms[m.key()] = m
				changed = true
			}
		}

		if !changed {
			return out
		}
	}
}

// singleDifference returns the sole literal of lhs not present in rhs, if
// there is exactly one.
func singleDifference(lhs, rhs MinTerm) (BoolVar, bool) {
	var single BoolVar
	count := 0
	for k, v := range lhs.vars {
		if _, ok := rhs.vars[k]; !ok {
			single = v
			count++
			if count > 1 {
				return BoolVar{}, false
			}
		}
	}
	return single, count == 1
}

// Eval evaluates the formula under an assignment of predicates to booleans.
func (p PathCondition) Eval(assign func(Predicate) bool) bool {
	for _, m := range p.minterms {
		all := true
		for _, v := range m.vars {
			value := assign(v.Pred)
			if v.Negative {
				value = !value
			}
			if !value {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

// Equal compares two conditions structurally.
func (p PathCondition) Equal(other PathCondition) bool {
	if len(p.minterms) != len(other.minterms) {
		return false
	}
	for k := range p.minterms {
		if _, ok := other.minterms[k]; !ok {
			return false
		}
	}
	return true
}

// Leq reports whether p's minterm set is contained in other's.
func (p PathCondition) Leq(other PathCondition) bool {
	for k := range p.minterms {
		if _, ok := other.minterms[k]; !ok {
			return false
		}
	}
	return true
}

// Join is the lattice join used by the path-condition analysis:
// disjunction followed by simplification.
func (p PathCondition) Join(other PathCondition) (PathCondition, error) {
	return p.Or(other).Simplify(), nil
}

func (p PathCondition) String() string {
	if p.IsContradiction() {
		return "false"
	}
	minterms := p.MinTerms()
	parts := make([]string, len(minterms))
	for i, m := range minterms {
		if len(m.vars) > 1 {
			parts[i] = "(" + m.String() + ")"
		} else {
			parts[i] = m.String()
		}
	}
	return strings.Join(parts, " || ")
}
