// internal/lifter/frame.go
//
// The abstract JVM frame: an operand stack and local-variable table holding
// SSA operands instead of runtime values. Longs and doubles occupy two
// consecutive slots; the upper slot holds a Top marker that must never be
// read as a value.
package lifter

import (
	"klasse/internal/errors"
	"klasse/internal/ir"
	"klasse/internal/jvm"
)

type entryKind int

const (
	entryValue entryKind = iota
	entryTop
	entryUninitialized
)

type frameEntry struct {
	kind  entryKind
	value ir.Operand
}

func valueEntry(op ir.Operand) frameEntry {
	return frameEntry{kind: entryValue, value: op}
}

func topEntry() frameEntry {
	return frameEntry{kind: entryTop}
}

func uninitializedEntry() frameEntry {
	return frameEntry{kind: entryUninitialized}
}

// mergeEntries joins two slot entries. Mismatched kinds indicate a reused
// local slot; the left-hand side wins since the slot is overwritten before
// any read on the merged path.
func mergeEntries(lhs, rhs frameEntry) frameEntry {
	switch {
	case lhs.kind == entryValue && rhs.kind == entryValue:
		return valueEntry(lhs.value.Join(rhs.value))
	case lhs.kind == entryTop && rhs.kind == entryTop:
		return lhs
	case lhs.kind == entryUninitialized:
		return rhs
	case rhs.kind == entryUninitialized:
		return lhs
	default:
		return lhs
	}
}

func entryLeq(lhs, rhs frameEntry) bool {
	switch {
	case lhs.kind == entryUninitialized:
		return true
	case lhs.kind == entryValue && rhs.kind == entryValue:
		return lhs.value.Leq(rhs.value)
	default:
		return lhs.kind == rhs.kind
	}
}

// Frame is the dataflow fact of the SSA lifter.
type Frame struct {
	maxLocals uint16
	maxStack  uint16
	locals    []frameEntry
	stack     []frameEntry
	retAddrs  map[jvm.ProgramCounter]struct{}
}

// NewFrame builds the entry frame of a method: locals seeded with the
// receiver (unless static) and the argument identifiers, dual-slot
// arguments taking two slots, the rest uninitialised.
func NewFrame(isStatic bool, descriptor jvm.MethodDescriptor, maxLocals, maxStack uint16) (*Frame, error) {
	needed := 0
	if !isStatic {
		needed++
	}
	for _, param := range descriptor.Parameters {
		if jvm.IsDualSlot(param) {
			needed += 2
		} else {
			needed++
		}
	}
	if needed > int(maxLocals) {
		return nil, errors.Newf(errors.LocalLimitExceeded,
			"%d argument slots exceed max_locals %d", needed, maxLocals)
	}
	frame := &Frame{
		maxLocals: maxLocals,
		maxStack:  maxStack,
		locals:    make([]frameEntry, 0, maxLocals),
		stack:     make([]frameEntry, 0, maxStack),
		retAddrs:  map[jvm.ProgramCounter]struct{}{},
	}
	if !isStatic {
		frame.locals = append(frame.locals, valueEntry(ir.Just(ir.This{})))
	}
	for i, param := range descriptor.Parameters {
		frame.locals = append(frame.locals, valueEntry(ir.Just(ir.Arg{Index: uint16(i)})))
		if jvm.IsDualSlot(param) {
			frame.locals = append(frame.locals, topEntry())
		}
	}
	for len(frame.locals) < int(maxLocals) {
		frame.locals = append(frame.locals, uninitializedEntry())
	}
	return frame, nil
}

// Clone copies the frame.
func (f *Frame) Clone() *Frame {
	clone := &Frame{
		maxLocals: f.maxLocals,
		maxStack:  f.maxStack,
		locals:    make([]frameEntry, len(f.locals)),
		stack:     make([]frameEntry, len(f.stack)),
		retAddrs:  make(map[jvm.ProgramCounter]struct{}, len(f.retAddrs)),
	}
	copy(clone.locals, f.locals)
	copy(clone.stack, f.stack)
	for pc := range f.retAddrs {
		clone.retAddrs[pc] = struct{}{}
	}
	return clone
}

// SameLocalsOneStackItem derives the initial frame of an exception handler:
// identical locals, a one-entry stack.
func (f *Frame) SameLocalsOneStackItem(entry frameEntry) *Frame {
	clone := f.Clone()
	clone.stack = []frameEntry{entry}
	return clone
}

func (f *Frame) pushRaw(entry frameEntry) error {
	if len(f.stack) >= int(f.maxStack) {
		return errors.New(errors.StackOverflow, "operand stack exceeds max_stack")
	}
	f.stack = append(f.stack, entry)
	return nil
}

func (f *Frame) popRaw() (frameEntry, error) {
	if len(f.stack) == 0 {
		return frameEntry{}, errors.New(errors.StackUnderflow, "pop from an empty operand stack")
	}
	entry := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return entry, nil
}

// PushValue pushes a value of the given slot width.
func (f *Frame) PushValue(value ir.Operand, dual bool) error {
	if dual {
		if err := f.pushRaw(topEntry()); err != nil {
			return err
		}
	}
	return f.pushRaw(valueEntry(value))
}

// PopValue pops a value of the given slot width, checking the width
// discipline.
func (f *Frame) PopValue(dual bool) (ir.Operand, error) {
	entry, err := f.popRaw()
	if err != nil {
		return ir.Operand{}, err
	}
	if entry.kind != entryValue {
		return ir.Operand{}, errors.New(errors.ValueMismatch, "expected a value on the operand stack")
	}
	if dual {
		upper, err := f.popRaw()
		if err != nil {
			return ir.Operand{}, err
		}
		if upper.kind != entryTop {
			return ir.Operand{}, errors.New(errors.ValueMismatch, "expected the upper slot of a dual-slot value")
		}
	}
	return entry.value, nil
}

// TypedPush pushes with the slot width of the type.
func (f *Frame) TypedPush(t jvm.FieldType, value ir.Operand) error {
	return f.PushValue(value, jvm.IsDualSlot(t))
}

// TypedPop pops with the slot width of the type.
func (f *Frame) TypedPop(t jvm.FieldType) (ir.Operand, error) {
	return f.PopValue(jvm.IsDualSlot(t))
}

// PopArgs pops a call's arguments right to left, returning them in
// declaration order.
func (f *Frame) PopArgs(descriptor jvm.MethodDescriptor) ([]ir.Operand, error) {
	args := make([]ir.Operand, len(descriptor.Parameters))
	for i := len(descriptor.Parameters) - 1; i >= 0; i-- {
		arg, err := f.TypedPop(descriptor.Parameters[i])
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}
	return args, nil
}

// GetLocal reads a local of the given slot width.
func (f *Frame) GetLocal(index uint16, dual bool) (ir.Operand, error) {
	if int(index) >= len(f.locals) {
		return ir.Operand{}, errors.Newf(errors.LocalLimitExceeded, "local index %d exceeds max_locals", index)
	}
	lower := f.locals[index]
	switch lower.kind {
	case entryTop:
		return ir.Operand{}, errors.New(errors.ValueMismatch, "local slot holds the upper half of a dual-slot value")
	case entryUninitialized:
		return ir.Operand{}, errors.Newf(errors.LocalUninitialized, "local %d is not initialized", index)
	}
	if dual {
		if int(index)+1 >= len(f.locals) {
			return ir.Operand{}, errors.Newf(errors.LocalLimitExceeded, "local index %d exceeds max_locals", index+1)
		}
		if f.locals[index+1].kind != entryTop {
			return ir.Operand{}, errors.New(errors.ValueMismatch, "missing upper slot of a dual-slot local")
		}
	}
	return lower.value, nil
}

// SetLocal writes a local of the given slot width; the second slot of a
// dual-slot value becomes Top.
func (f *Frame) SetLocal(index uint16, value ir.Operand, dual bool) error {
	if int(index) >= len(f.locals) {
		return errors.Newf(errors.LocalLimitExceeded, "local index %d exceeds max_locals", index)
	}
	f.locals[index] = valueEntry(value)
	if dual {
		if int(index)+1 >= len(f.locals) {
			return errors.Newf(errors.LocalLimitExceeded, "local index %d exceeds max_locals", index+1)
		}
		f.locals[index+1] = topEntry()
	}
	return nil
}

// AddRetAddress records a possible subroutine return address.
func (f *Frame) AddRetAddress(pc jvm.ProgramCounter) {
	f.retAddrs[pc] = struct{}{}
}

// TakeRetAddresses empties and returns the possible return address set.
func (f *Frame) TakeRetAddresses() []jvm.ProgramCounter {
	out := make([]jvm.ProgramCounter, 0, len(f.retAddrs))
	for pc := range f.retAddrs {
		out = append(out, pc)
	}
	f.retAddrs = map[jvm.ProgramCounter]struct{}{}
	return out
}

// Raw stack manipulators, shared by the category-1 and category-2 opcode
// variants since dual-slot values occupy two raw entries.

// Pop discards the top entry.
func (f *Frame) Pop() error {
	_, err := f.popRaw()
	return err
}

// Pop2 discards the top two entries.
func (f *Frame) Pop2() error {
	if _, err := f.popRaw(); err != nil {
		return err
	}
	_, err := f.popRaw()
	return err
}

// Dup duplicates the top entry.
func (f *Frame) Dup() error {
	top, err := f.popRaw()
	if err != nil {
		return err
	}
	if err := f.pushRaw(top); err != nil {
		return err
	}
	return f.pushRaw(top)
}

// DupX1 duplicates the top entry below the second.
func (f *Frame) DupX1() error {
	first, err := f.popRaw()
	if err != nil {
		return err
	}
	second, err := f.popRaw()
	if err != nil {
		return err
	}
	return f.pushAll(first, second, first)
}

// DupX2 duplicates the top entry below the third.
func (f *Frame) DupX2() error {
	first, err := f.popRaw()
	if err != nil {
		return err
	}
	second, err := f.popRaw()
	if err != nil {
		return err
	}
	third, err := f.popRaw()
	if err != nil {
		return err
	}
	return f.pushAll(first, third, second, first)
}

// Dup2 duplicates the top two entries.
func (f *Frame) Dup2() error {
	first, err := f.popRaw()
	if err != nil {
		return err
	}
	second, err := f.popRaw()
	if err != nil {
		return err
	}
	return f.pushAll(second, first, second, first)
}

// Dup2X1 duplicates the top two entries below the third.
func (f *Frame) Dup2X1() error {
	first, err := f.popRaw()
	if err != nil {
		return err
	}
	second, err := f.popRaw()
	if err != nil {
		return err
	}
	third, err := f.popRaw()
	if err != nil {
		return err
	}
	return f.pushAll(second, first, third, second, first)
}

// Dup2X2 duplicates the top two entries below the fourth.
func (f *Frame) Dup2X2() error {
	first, err := f.popRaw()
	if err != nil {
		return err
	}
	second, err := f.popRaw()
	if err != nil {
		return err
	}
	third, err := f.popRaw()
	if err != nil {
		return err
	}
	fourth, err := f.popRaw()
	if err != nil {
		return err
	}
	return f.pushAll(second, first, fourth, third, second, first)
}

// Swap exchanges the top two entries.
func (f *Frame) Swap() error {
	first, err := f.popRaw()
	if err != nil {
		return err
	}
	second, err := f.popRaw()
	if err != nil {
		return err
	}
	return f.pushAll(first, second)
}

func (f *Frame) pushAll(entries ...frameEntry) error {
	for _, entry := range entries {
		if err := f.pushRaw(entry); err != nil {
			return err
		}
	}
	return nil
}

// Join merges two frames element-wise. Frames are mergeable only when their
// local limits and stack depths match.
func (f *Frame) Join(other *Frame) (*Frame, error) {
	if f.maxLocals != other.maxLocals {
		return nil, errors.New(errors.LocalLimitMismatch, "frames have different local limits")
	}
	if len(f.stack) != len(other.stack) {
		return nil, errors.New(errors.StackSizeMismatch, "frames have different stack depths")
	}
	merged := &Frame{
		maxLocals: f.maxLocals,
		maxStack:  f.maxStack,
		locals:    make([]frameEntry, len(f.locals)),
		stack:     make([]frameEntry, len(f.stack)),
		retAddrs:  make(map[jvm.ProgramCounter]struct{}, len(f.retAddrs)+len(other.retAddrs)),
	}
	for i := range f.locals {
		merged.locals[i] = mergeEntries(f.locals[i], other.locals[i])
	}
	for i := range f.stack {
		merged.stack[i] = mergeEntries(f.stack[i], other.stack[i])
	}
	for pc := range f.retAddrs {
		merged.retAddrs[pc] = struct{}{}
	}
	for pc := range other.retAddrs {
		merged.retAddrs[pc] = struct{}{}
	}
	return merged, nil
}

// Leq is the lattice ordering consistent with Join.
func (f *Frame) Leq(other *Frame) bool {
	if f.maxLocals != other.maxLocals || len(f.stack) != len(other.stack) ||
		len(f.locals) != len(other.locals) {
		return false
	}
	for i := range f.locals {
		if !entryLeq(f.locals[i], other.locals[i]) {
			return false
		}
	}
	for i := range f.stack {
		if !entryLeq(f.stack[i], other.stack[i]) {
			return false
		}
	}
	for pc := range f.retAddrs {
		if _, ok := other.retAddrs[pc]; !ok {
			return false
		}
	}
	return true
}

// Equal compares two frames structurally, phi identifier sets included.
func (f *Frame) Equal(other *Frame) bool {
	return f.Leq(other) && other.Leq(f)
}
