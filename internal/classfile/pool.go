// internal/classfile/pool.go
//
// The constant pool: an indexed store of literals and symbolic references.
// Slots are indexed from 1; Long and Double entries occupy two consecutive
// slots (the entry plus a padding slot that must never be addressed).
package classfile

import (
	"math"

	"klasse/internal/errors"
	"klasse/internal/jvm"
)

// PoolTag discriminates the constant-pool entry kinds.
type PoolTag uint8

const (
	TagUtf8               PoolTag = 1
	TagInteger            PoolTag = 3
	TagFloat              PoolTag = 4
	TagLong               PoolTag = 5
	TagDouble             PoolTag = 6
	TagClass              PoolTag = 7
	TagString             PoolTag = 8
	TagFieldRef           PoolTag = 9
	TagMethodRef          PoolTag = 10
	TagInterfaceMethodRef PoolTag = 11
	TagNameAndType        PoolTag = 12
	TagMethodHandle       PoolTag = 15
	TagMethodType         PoolTag = 16
	TagDynamic            PoolTag = 17
	TagInvokeDynamic      PoolTag = 18
	TagModule             PoolTag = 19
	TagPackage            PoolTag = 20
)

func (t PoolTag) String() string {
	switch t {
	case TagUtf8:
		return "Utf8"
	case TagInteger:
		return "Integer"
	case TagFloat:
		return "Float"
	case TagLong:
		return "Long"
	case TagDouble:
		return "Double"
	case TagClass:
		return "Class"
	case TagString:
		return "String"
	case TagFieldRef:
		return "FieldRef"
	case TagMethodRef:
		return "MethodRef"
	case TagInterfaceMethodRef:
		return "InterfaceMethodRef"
	case TagNameAndType:
		return "NameAndType"
	case TagMethodHandle:
		return "MethodHandle"
	case TagMethodType:
		return "MethodType"
	case TagDynamic:
		return "Dynamic"
	case TagInvokeDynamic:
		return "InvokeDynamic"
	case TagModule:
		return "Module"
	case TagPackage:
		return "Package"
	}
	return "Unknown"
}

// PoolEntry is a single constant-pool entry. Only the fields relevant to
// Tag are set.
type PoolEntry struct {
	Tag PoolTag

	Utf8   jvm.JavaString
	Int    int32
	Long   int64
	Float  float32
	Double float64

	NameIndex        uint16 // Class, Module, Package, NameAndType
	StringIndex      uint16 // String
	ClassIndex       uint16 // FieldRef, MethodRef, InterfaceMethodRef
	NameAndTypeIndex uint16 // refs, Dynamic, InvokeDynamic
	DescriptorIndex  uint16 // NameAndType, MethodType
	ReferenceKind    uint8  // MethodHandle
	ReferenceIndex   uint16 // MethodHandle
	BootstrapIndex   uint16 // Dynamic, InvokeDynamic
}

// IsWide reports whether the entry occupies two pool slots.
func (e PoolEntry) IsWide() bool {
	return e.Tag == TagLong || e.Tag == TagDouble
}

// Equal compares two entries structurally. Floating point entries compare
// by bit pattern so NaN constants deduplicate.
func (e PoolEntry) Equal(other PoolEntry) bool {
	if e.Tag != other.Tag {
		return false
	}
	switch e.Tag {
	case TagUtf8:
		return e.Utf8.Equal(other.Utf8)
	case TagInteger:
		return e.Int == other.Int
	case TagFloat:
		return math.Float32bits(e.Float) == math.Float32bits(other.Float)
	case TagLong:
		return e.Long == other.Long
	case TagDouble:
		return math.Float64bits(e.Double) == math.Float64bits(other.Double)
	case TagClass, TagModule, TagPackage:
		return e.NameIndex == other.NameIndex
	case TagString:
		return e.StringIndex == other.StringIndex
	case TagFieldRef, TagMethodRef, TagInterfaceMethodRef:
		return e.ClassIndex == other.ClassIndex && e.NameAndTypeIndex == other.NameAndTypeIndex
	case TagNameAndType:
		return e.NameIndex == other.NameIndex && e.DescriptorIndex == other.DescriptorIndex
	case TagMethodHandle:
		return e.ReferenceKind == other.ReferenceKind && e.ReferenceIndex == other.ReferenceIndex
	case TagMethodType:
		return e.DescriptorIndex == other.DescriptorIndex
	case TagDynamic, TagInvokeDynamic:
		return e.BootstrapIndex == other.BootstrapIndex && e.NameAndTypeIndex == other.NameAndTypeIndex
	}
	return false
}

// maxPoolCount is the largest legal constant_pool_count, including the
// implicit slot at index zero.
const maxPoolCount = 0xFFFF

// ConstantPool is the indexed entry store. A nil slot is padding: the
// implicit slot at index zero and the upper slot of each Long or Double.
type ConstantPool struct {
	slots []*PoolEntry
}

// NewConstantPool creates an empty pool holding only the padding slot at
// index zero.
func NewConstantPool() *ConstantPool {
	return &ConstantPool{slots: []*PoolEntry{nil}}
}

// Count returns the constant_pool_count value: the number of slots,
// including padding. This is not the number of entries.
func (p *ConstantPool) Count() uint16 {
	return uint16(len(p.slots))
}

// GetEntry returns the entry at the given index, failing on padding slots
// and out-of-range indices.
func (p *ConstantPool) GetEntry(index uint16) (*PoolEntry, error) {
	if int(index) >= len(p.slots) || p.slots[index] == nil {
		return nil, errors.Newf(errors.Malformed, "bad constant pool index %d", index)
	}
	return p.slots[index], nil
}

// PutEntry appends an entry without deduplication and returns its index.
func (p *ConstantPool) PutEntry(entry PoolEntry) (uint16, error) {
	need := 1
	if entry.IsWide() {
		need = 2
	}
	if len(p.slots)+need > maxPoolCount {
		return 0, errors.New(errors.ConstantPoolOverflow, "constant pool exceeds 65535 slots")
	}
	index := uint16(len(p.slots))
	stored := entry
	p.slots = append(p.slots, &stored)
	if entry.IsWide() {
		p.slots = append(p.slots, nil)
	}
	return index, nil
}

// PutEntryDedup appends an entry unless a structurally equal one already
// exists. It returns the entry's index and whether it was freshly inserted.
func (p *ConstantPool) PutEntryDedup(entry PoolEntry) (uint16, bool, error) {
	for i, slot := range p.slots {
		if slot != nil && slot.Equal(entry) {
			return uint16(i), false, nil
		}
	}
	index, err := p.PutEntry(entry)
	return index, err == nil, err
}

func (p *ConstantPool) mismatch(expected string, entry *PoolEntry) error {
	return errors.Newf(errors.Malformed,
		"mismatched constant pool type: expected %s but got %s", expected, entry.Tag)
}
