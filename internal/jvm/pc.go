// internal/jvm/pc.go
package jvm

import (
	"sort"
	"strconv"

	"klasse/internal/errors"
)

// ProgramCounter is a byte offset from the start of a method's code array.
type ProgramCounter uint16

func (pc ProgramCounter) String() string {
	return strconv.Itoa(int(pc))
}

// OffsetI16 computes the absolute target of a 16-bit relative branch.
func (pc ProgramCounter) OffsetI16(offset int16) (ProgramCounter, error) {
	return pc.OffsetI32(int32(offset))
}

// OffsetI32 computes the absolute target of a 32-bit relative branch.
func (pc ProgramCounter) OffsetI32(offset int32) (ProgramCounter, error) {
	target := int32(pc) + offset
	if target < 0 || target > 0xFFFF {
		return 0, errors.Newf(errors.Malformed, "branch target %d out of range", target)
	}
	return ProgramCounter(target), nil
}

// InstructionList is an ordered map from program counter to instruction.
type InstructionList[T any] struct {
	pcs   []ProgramCounter
	items map[ProgramCounter]T
}

// NewInstructionList builds a list from a PC-keyed map.
func NewInstructionList[T any](items map[ProgramCounter]T) InstructionList[T] {
	pcs := make([]ProgramCounter, 0, len(items))
	for pc := range items {
		pcs = append(pcs, pc)
	}
	sort.Slice(pcs, func(i, j int) bool { return pcs[i] < pcs[j] })
	return InstructionList[T]{pcs: pcs, items: items}
}

// At returns the instruction at the given program counter.
func (l InstructionList[T]) At(pc ProgramCounter) (T, bool) {
	item, ok := l.items[pc]
	return item, ok
}

// NextPC returns the program counter of the instruction following pc.
func (l InstructionList[T]) NextPC(pc ProgramCounter) (ProgramCounter, bool) {
	i := sort.Search(len(l.pcs), func(i int) bool { return l.pcs[i] > pc })
	if i == len(l.pcs) {
		return 0, false
	}
	return l.pcs[i], true
}

// EntryPoint returns the program counter of the first instruction.
func (l InstructionList[T]) EntryPoint() (ProgramCounter, bool) {
	if len(l.pcs) == 0 {
		return 0, false
	}
	return l.pcs[0], true
}

// PCs returns the program counters in ascending order.
func (l InstructionList[T]) PCs() []ProgramCounter {
	out := make([]ProgramCounter, len(l.pcs))
	copy(out, l.pcs)
	return out
}

// Len returns the number of instructions in the list.
func (l InstructionList[T]) Len() int { return len(l.pcs) }
