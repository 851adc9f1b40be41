// internal/instruction/raw.go
//
// The raw instruction form: operands are constant-pool indices and branch
// offsets relative to the instruction's own program counter, exactly as they
// appear in a Code array. Raw instructions round-trip bit-exactly (up to
// lookupswitch key ordering, which is written sorted).
package instruction

import (
	"sort"

	"klasse/internal/errors"
	"klasse/internal/jvm"
)

// MatchOffset is one match/offset pair of a lookupswitch.
type MatchOffset struct {
	Match  int32
	Offset int32
}

// RawInstruction is a single undecoded instruction. Only the fields relevant
// to Op are set.
type RawInstruction struct {
	Op     Opcode
	WideOp Opcode // inner opcode when Op == OpWide

	Index      uint16 // local-variable or constant-pool index
	Value      int32  // bipush/sipush immediate or iinc constant
	Offset     int32  // relative branch offset
	Count      uint8  // invokeinterface count
	Dimensions uint8  // multianewarray dimension count
	AType      uint8  // newarray element type code

	Default      int32 // switch default offset
	Low          int32 // tableswitch low bound
	High         int32 // tableswitch high bound
	JumpOffsets  []int32
	MatchOffsets []MatchOffset
}

// ParseRaw decodes a Code array into an instruction list keyed by program
// counter.
func ParseRaw(code []byte) (jvm.InstructionList[RawInstruction], error) {
	cur := &cursor{data: code}
	items := make(map[jvm.ProgramCounter]RawInstruction)
	for !cur.eof() {
		if cur.pos > 0xFFFF {
			return jvm.InstructionList[RawInstruction]{}, errors.New(errors.Malformed, "instruction list is too long")
		}
		pc := jvm.ProgramCounter(cur.pos)
		insn, err := readOne(cur)
		if err != nil {
			return jvm.InstructionList[RawInstruction]{}, err
		}
		items[pc] = insn
	}
	return jvm.NewInstructionList(items), nil
}

// EncodeRaw writes an instruction list back into a Code array. Instructions
// must be laid out at their own program counters; switch padding is
// recomputed from the running position.
func EncodeRaw(list jvm.InstructionList[RawInstruction]) ([]byte, error) {
	w := &writer{}
	for _, pc := range list.PCs() {
		insn, _ := list.At(pc)
		if err := writeOne(w, insn); err != nil {
			return nil, err
		}
	}
	return w.buf, nil
}

func readOne(cur *cursor) (RawInstruction, error) {
	opByte, err := cur.u1()
	if err != nil {
		return RawInstruction{}, err
	}
	op := Opcode(opByte)
	insn := RawInstruction{Op: op}

	switch op {
	case OpBiPush:
		v, err := cur.i1()
		if err != nil {
			return insn, err
		}
		insn.Value = int32(v)
	case OpSiPush:
		v, err := cur.i2()
		if err != nil {
			return insn, err
		}
		insn.Value = int32(v)
	case OpLdc, OpNewArray:
		v, err := cur.u1()
		if err != nil {
			return insn, err
		}
		if op == OpNewArray {
			insn.AType = v
		} else {
			insn.Index = uint16(v)
		}
	case OpLdcW, OpLdc2W, OpGetStatic, OpPutStatic, OpGetField, OpPutField,
		OpInvokeVirtual, OpInvokeSpecial, OpInvokeStatic, OpNew, OpANewArray,
		OpCheckCast, OpInstanceOf:
		v, err := cur.u2()
		if err != nil {
			return insn, err
		}
		insn.Index = v
	case OpILoad, OpLLoad, OpFLoad, OpDLoad, OpALoad,
		OpIStore, OpLStore, OpFStore, OpDStore, OpAStore, OpRet:
		v, err := cur.u1()
		if err != nil {
			return insn, err
		}
		insn.Index = uint16(v)
	case OpIInc:
		idx, err := cur.u1()
		if err != nil {
			return insn, err
		}
		k, err := cur.i1()
		if err != nil {
			return insn, err
		}
		insn.Index = uint16(idx)
		insn.Value = int32(k)
	case OpIfEq, OpIfNe, OpIfLt, OpIfGe, OpIfGt, OpIfLe,
		OpIfICmpEq, OpIfICmpNe, OpIfICmpLt, OpIfICmpGe, OpIfICmpGt, OpIfICmpLe,
		OpIfACmpEq, OpIfACmpNe, OpIfNull, OpIfNonNull, OpGoto, OpJsr:
		v, err := cur.i2()
		if err != nil {
			return insn, err
		}
		insn.Offset = int32(v)
	case OpGotoW, OpJsrW:
		v, err := cur.i4()
		if err != nil {
			return insn, err
		}
		insn.Offset = v
	case OpTableSwitch:
		if err := cur.skipPadding(); err != nil {
			return insn, err
		}
		if insn.Default, err = cur.i4(); err != nil {
			return insn, err
		}
		if insn.Low, err = cur.i4(); err != nil {
			return insn, err
		}
		if insn.High, err = cur.i4(); err != nil {
			return insn, err
		}
		if insn.High < insn.Low {
			return insn, errors.Newf(errors.Malformed, "tableswitch bounds %d..%d are inverted", insn.Low, insn.High)
		}
		count := int64(insn.High) - int64(insn.Low) + 1
		insn.JumpOffsets = make([]int32, 0, count)
		for i := int64(0); i < count; i++ {
			off, err := cur.i4()
			if err != nil {
				return insn, err
			}
			insn.JumpOffsets = append(insn.JumpOffsets, off)
		}
	case OpLookupSwitch:
		if err := cur.skipPadding(); err != nil {
			return insn, err
		}
		if insn.Default, err = cur.i4(); err != nil {
			return insn, err
		}
		npairs, err := cur.i4()
		if err != nil {
			return insn, err
		}
		if npairs < 0 {
			return insn, errors.New(errors.Malformed, "negative lookupswitch pair count")
		}
		insn.MatchOffsets = make([]MatchOffset, 0, npairs)
		for i := int32(0); i < npairs; i++ {
			match, err := cur.i4()
			if err != nil {
				return insn, err
			}
			off, err := cur.i4()
			if err != nil {
				return insn, err
			}
			insn.MatchOffsets = append(insn.MatchOffsets, MatchOffset{Match: match, Offset: off})
		}
	case OpInvokeInterface:
		if insn.Index, err = cur.u2(); err != nil {
			return insn, err
		}
		if insn.Count, err = cur.u1(); err != nil {
			return insn, err
		}
		zero, err := cur.u1()
		if err != nil {
			return insn, err
		}
		if zero != 0 {
			return insn, errors.New(errors.Malformed, "invokeinterface padding byte is not zero")
		}
	case OpInvokeDynamic:
		if insn.Index, err = cur.u2(); err != nil {
			return insn, err
		}
		zero, err := cur.u2()
		if err != nil {
			return insn, err
		}
		if zero != 0 {
			return insn, errors.New(errors.Malformed, "invokedynamic padding bytes are not zero")
		}
	case OpMultiANewArray:
		if insn.Index, err = cur.u2(); err != nil {
			return insn, err
		}
		if insn.Dimensions, err = cur.u1(); err != nil {
			return insn, err
		}
	case OpWide:
		wideByte, err := cur.u1()
		if err != nil {
			return insn, err
		}
		insn.WideOp = Opcode(wideByte)
		switch insn.WideOp {
		case OpILoad, OpLLoad, OpFLoad, OpDLoad, OpALoad,
			OpIStore, OpLStore, OpFStore, OpDStore, OpAStore, OpRet:
			if insn.Index, err = cur.u2(); err != nil {
				return insn, err
			}
		case OpIInc:
			if insn.Index, err = cur.u2(); err != nil {
				return insn, err
			}
			k, err := cur.i2()
			if err != nil {
				return insn, err
			}
			insn.Value = int32(k)
		default:
			return insn, errors.Newf(errors.Malformed, "invalid wide opcode %#02x", byte(insn.WideOp))
		}
	default:
		if !op.Valid() {
			return insn, errors.Newf(errors.Malformed, "invalid opcode %#02x", opByte)
		}
		// Single-byte instruction, nothing more to read.
	}
	return insn, nil
}

func writeOne(w *writer, insn RawInstruction) error {
	w.u1(byte(insn.Op))
	switch insn.Op {
	case OpBiPush:
		if insn.Value < -128 || insn.Value > 127 {
			return errors.Newf(errors.Malformed, "bipush value %d exceeds one byte", insn.Value)
		}
		w.u1(byte(int8(insn.Value)))
	case OpSiPush:
		w.i2(int16(insn.Value))
	case OpLdc:
		if insn.Index > 0xFF {
			return errors.Newf(errors.Malformed, "ldc constant index %d exceeds one byte", insn.Index)
		}
		w.u1(byte(insn.Index))
	case OpNewArray:
		w.u1(insn.AType)
	case OpLdcW, OpLdc2W, OpGetStatic, OpPutStatic, OpGetField, OpPutField,
		OpInvokeVirtual, OpInvokeSpecial, OpInvokeStatic, OpNew, OpANewArray,
		OpCheckCast, OpInstanceOf:
		w.u2(insn.Index)
	case OpILoad, OpLLoad, OpFLoad, OpDLoad, OpALoad,
		OpIStore, OpLStore, OpFStore, OpDStore, OpAStore, OpRet:
		if insn.Index > 0xFF {
			return errors.Newf(errors.Malformed, "local index %d exceeds one byte", insn.Index)
		}
		w.u1(byte(insn.Index))
	case OpIInc:
		if insn.Index > 0xFF {
			return errors.Newf(errors.Malformed, "local index %d exceeds one byte", insn.Index)
		}
		if insn.Value < -128 || insn.Value > 127 {
			return errors.Newf(errors.Malformed, "iinc constant %d exceeds one byte", insn.Value)
		}
		w.u1(byte(insn.Index))
		w.u1(byte(int8(insn.Value)))
	case OpIfEq, OpIfNe, OpIfLt, OpIfGe, OpIfGt, OpIfLe,
		OpIfICmpEq, OpIfICmpNe, OpIfICmpLt, OpIfICmpGe, OpIfICmpGt, OpIfICmpLe,
		OpIfACmpEq, OpIfACmpNe, OpIfNull, OpIfNonNull, OpGoto, OpJsr:
		if insn.Offset < -32768 || insn.Offset > 32767 {
			return errors.Newf(errors.Malformed, "branch offset %d exceeds two bytes", insn.Offset)
		}
		w.i2(int16(insn.Offset))
	case OpGotoW, OpJsrW:
		w.i4(insn.Offset)
	case OpTableSwitch:
		w.pad()
		w.i4(insn.Default)
		w.i4(insn.Low)
		w.i4(insn.High)
		for _, off := range insn.JumpOffsets {
			w.i4(off)
		}
	case OpLookupSwitch:
		w.pad()
		w.i4(insn.Default)
		w.i4(int32(len(insn.MatchOffsets)))
		sorted := make([]MatchOffset, len(insn.MatchOffsets))
		copy(sorted, insn.MatchOffsets)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Match < sorted[j].Match })
		for _, pair := range sorted {
			w.i4(pair.Match)
			w.i4(pair.Offset)
		}
	case OpInvokeInterface:
		w.u2(insn.Index)
		w.u1(insn.Count)
		w.u1(0)
	case OpInvokeDynamic:
		w.u2(insn.Index)
		w.u2(0)
	case OpMultiANewArray:
		w.u2(insn.Index)
		w.u1(insn.Dimensions)
	case OpWide:
		w.u1(byte(insn.WideOp))
		switch insn.WideOp {
		case OpIInc:
			w.u2(insn.Index)
			w.i2(int16(insn.Value))
		case OpILoad, OpLLoad, OpFLoad, OpDLoad, OpALoad,
			OpIStore, OpLStore, OpFStore, OpDStore, OpAStore, OpRet:
			w.u2(insn.Index)
		default:
			return errors.Newf(errors.Malformed, "invalid wide opcode %#02x", byte(insn.WideOp))
		}
	default:
		if !insn.Op.Valid() {
			return errors.Newf(errors.Malformed, "invalid opcode %#02x", byte(insn.Op))
		}
	}
	return nil
}

// NumBytes returns the byte length of the instruction when laid out at pc.
// The two switch forms pad to a four-byte boundary after the opcode byte.
func (insn RawInstruction) NumBytes(pc jvm.ProgramCounter) uint32 {
	switch insn.Op {
	case OpBiPush, OpLdc, OpNewArray,
		OpILoad, OpLLoad, OpFLoad, OpDLoad, OpALoad,
		OpIStore, OpLStore, OpFStore, OpDStore, OpAStore, OpRet:
		return 2
	case OpSiPush, OpLdcW, OpLdc2W, OpGetStatic, OpPutStatic, OpGetField,
		OpPutField, OpInvokeVirtual, OpInvokeSpecial, OpInvokeStatic, OpNew,
		OpANewArray, OpCheckCast, OpInstanceOf, OpIInc,
		OpIfEq, OpIfNe, OpIfLt, OpIfGe, OpIfGt, OpIfLe,
		OpIfICmpEq, OpIfICmpNe, OpIfICmpLt, OpIfICmpGe, OpIfICmpGt, OpIfICmpLe,
		OpIfACmpEq, OpIfACmpNe, OpIfNull, OpIfNonNull, OpGoto, OpJsr:
		return 3
	case OpMultiANewArray:
		return 4
	case OpInvokeInterface, OpInvokeDynamic, OpGotoW, OpJsrW:
		return 5
	case OpWide:
		if insn.WideOp == OpIInc {
			return 6
		}
		return 4
	case OpTableSwitch:
		padding := switchPadding(pc)
		return 1 + padding + 12 + 4*uint32(len(insn.JumpOffsets))
	case OpLookupSwitch:
		padding := switchPadding(pc)
		return 1 + padding + 8 + 8*uint32(len(insn.MatchOffsets))
	default:
		return 1
	}
}

// switchPadding is the number of alignment bytes after the opcode of a
// switch at pc. Alignment is computed against the byte after the opcode,
// not the opcode's own position.
func switchPadding(pc jvm.ProgramCounter) uint32 {
	return (4 - (uint32(pc)+1)%4) % 4
}

type cursor struct {
	data []byte
	pos  int
}

func (c *cursor) eof() bool { return c.pos >= len(c.data) }

func (c *cursor) u1() (uint8, error) {
	if c.pos+1 > len(c.data) {
		return 0, errors.New(errors.Malformed, "unexpected end of code")
	}
	v := c.data[c.pos]
	c.pos++
	return v, nil
}

func (c *cursor) i1() (int8, error) {
	v, err := c.u1()
	return int8(v), err
}

func (c *cursor) u2() (uint16, error) {
	if c.pos+2 > len(c.data) {
		return 0, errors.New(errors.Malformed, "unexpected end of code")
	}
	v := uint16(c.data[c.pos])<<8 | uint16(c.data[c.pos+1])
	c.pos += 2
	return v, nil
}

func (c *cursor) i2() (int16, error) {
	v, err := c.u2()
	return int16(v), err
}

func (c *cursor) u4() (uint32, error) {
	if c.pos+4 > len(c.data) {
		return 0, errors.New(errors.Malformed, "unexpected end of code")
	}
	v := uint32(c.data[c.pos])<<24 | uint32(c.data[c.pos+1])<<16 |
		uint32(c.data[c.pos+2])<<8 | uint32(c.data[c.pos+3])
	c.pos += 4
	return v, nil
}

func (c *cursor) i4() (int32, error) {
	v, err := c.u4()
	return int32(v), err
}

func (c *cursor) skipPadding() error {
	for c.pos%4 != 0 {
		if _, err := c.u1(); err != nil {
			return err
		}
	}
	return nil
}

type writer struct {
	buf []byte
}

func (w *writer) u1(b byte)   { w.buf = append(w.buf, b) }
func (w *writer) u2(v uint16) { w.buf = append(w.buf, byte(v>>8), byte(v)) }
func (w *writer) i2(v int16)  { w.u2(uint16(v)) }
func (w *writer) i4(v int32) {
	u := uint32(v)
	w.buf = append(w.buf, byte(u>>24), byte(u>>16), byte(u>>8), byte(u))
}

func (w *writer) pad() {
	for len(w.buf)%4 != 0 {
		w.buf = append(w.buf, 0x00)
	}
}
