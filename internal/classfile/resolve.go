// internal/classfile/resolve.go
//
// Resolution of raw instructions: constant-pool indices become domain
// objects and relative branch offsets become absolute program counters.
package classfile

import (
	pkgerrors "github.com/pkg/errors"

	"klasse/internal/errors"
	"klasse/internal/instruction"
	"klasse/internal/jvm"
)

// parseCode decodes a Code array and resolves every instruction against the
// constant pool.
func parseCode(code []byte, pool *ConstantPool) (jvm.InstructionList[instruction.Instruction], error) {
	raw, err := instruction.ParseRaw(code)
	if err != nil {
		return jvm.InstructionList[instruction.Instruction]{}, err
	}
	resolved := make(map[jvm.ProgramCounter]instruction.Instruction, raw.Len())
	for _, pc := range raw.PCs() {
		rawInsn, _ := raw.At(pc)
		insn, err := resolveInstruction(rawInsn, pc, pool)
		if err != nil {
			return jvm.InstructionList[instruction.Instruction]{},
				pkgerrors.Wrapf(err, "instruction %s at %s", rawInsn.Op, pc)
		}
		resolved[pc] = insn
	}
	return jvm.NewInstructionList(resolved), nil
}

func resolveInstruction(raw instruction.RawInstruction, pc jvm.ProgramCounter, pool *ConstantPool) (instruction.Instruction, error) {
	insn := instruction.Instruction{
		Op:         raw.Op,
		WideOp:     raw.WideOp,
		Index:      raw.Index,
		Value:      raw.Value,
		Count:      raw.Count,
		Dimensions: raw.Dimensions,
		Low:        raw.Low,
		High:       raw.High,
	}
	var err error
	switch raw.Op {
	case instruction.OpLdc, instruction.OpLdcW, instruction.OpLdc2W:
		insn.Index = 0
		if insn.Constant, err = pool.GetConstantValue(raw.Index); err != nil {
			return insn, err
		}
	case instruction.OpIfEq, instruction.OpIfNe, instruction.OpIfLt,
		instruction.OpIfGe, instruction.OpIfGt, instruction.OpIfLe,
		instruction.OpIfICmpEq, instruction.OpIfICmpNe, instruction.OpIfICmpLt,
		instruction.OpIfICmpGe, instruction.OpIfICmpGt, instruction.OpIfICmpLe,
		instruction.OpIfACmpEq, instruction.OpIfACmpNe,
		instruction.OpIfNull, instruction.OpIfNonNull,
		instruction.OpGoto, instruction.OpJsr,
		instruction.OpGotoW, instruction.OpJsrW:
		if insn.Target, err = pc.OffsetI32(raw.Offset); err != nil {
			return insn, err
		}
	case instruction.OpTableSwitch:
		if insn.Default, err = pc.OffsetI32(raw.Default); err != nil {
			return insn, err
		}
		insn.Targets = make([]jvm.ProgramCounter, 0, len(raw.JumpOffsets))
		for _, offset := range raw.JumpOffsets {
			target, err := pc.OffsetI32(offset)
			if err != nil {
				return insn, err
			}
			insn.Targets = append(insn.Targets, target)
		}
	case instruction.OpLookupSwitch:
		if insn.Default, err = pc.OffsetI32(raw.Default); err != nil {
			return insn, err
		}
		insn.MatchTargets = make([]instruction.MatchTarget, 0, len(raw.MatchOffsets))
		for _, pair := range raw.MatchOffsets {
			target, err := pc.OffsetI32(pair.Offset)
			if err != nil {
				return insn, err
			}
			insn.MatchTargets = append(insn.MatchTargets,
				instruction.MatchTarget{Match: pair.Match, Target: target})
		}
	case instruction.OpGetStatic, instruction.OpPutStatic,
		instruction.OpGetField, instruction.OpPutField:
		insn.Index = 0
		field, err := pool.GetFieldRef(raw.Index)
		if err != nil {
			return insn, err
		}
		insn.Field = &field
	case instruction.OpInvokeVirtual, instruction.OpInvokeSpecial,
		instruction.OpInvokeStatic, instruction.OpInvokeInterface:
		insn.Index = 0
		method, err := pool.GetMethodRef(raw.Index)
		if err != nil {
			return insn, err
		}
		insn.Method = &method
	case instruction.OpInvokeDynamic:
		insn.Index = 0
		entry, err := pool.GetEntry(raw.Index)
		if err != nil {
			return insn, err
		}
		if entry.Tag != TagInvokeDynamic {
			return insn, pool.mismatch("InvokeDynamic", entry)
		}
		name, descriptor, err := pool.GetNameAndTypeMethod(entry.NameAndTypeIndex)
		if err != nil {
			return insn, err
		}
		insn.Bootstrap = entry.BootstrapIndex
		insn.Name = name
		insn.Descriptor = &descriptor
	case instruction.OpNew, instruction.OpANewArray:
		insn.Index = 0
		if insn.Class, err = pool.GetClassRef(raw.Index); err != nil {
			return insn, err
		}
	case instruction.OpNewArray:
		prim, ok := primitiveFromAType(raw.AType)
		if !ok {
			return insn, errors.Newf(errors.Malformed,
				"newarray element type code %d is not a primitive type", raw.AType)
		}
		insn.Prim = prim
	case instruction.OpCheckCast, instruction.OpInstanceOf, instruction.OpMultiANewArray:
		insn.Index = 0
		if insn.Type, err = pool.GetTypeRef(raw.Index); err != nil {
			return insn, err
		}
	}
	return insn, nil
}

// primitiveFromAType maps a newarray atype code to a primitive type.
func primitiveFromAType(atype uint8) (jvm.PrimitiveType, bool) {
	switch atype {
	case 4:
		return jvm.Boolean, true
	case 5:
		return jvm.Char, true
	case 6:
		return jvm.Float, true
	case 7:
		return jvm.Double, true
	case 8:
		return jvm.Byte, true
	case 9:
		return jvm.Short, true
	case 10:
		return jvm.Int, true
	case 11:
		return jvm.Long, true
	}
	return 0, false
}

// atypeFromPrimitive is the inverse of primitiveFromAType.
func atypeFromPrimitive(prim jvm.PrimitiveType) (uint8, error) {
	switch prim {
	case jvm.Boolean:
		return 4, nil
	case jvm.Char:
		return 5, nil
	case jvm.Float:
		return 6, nil
	case jvm.Double:
		return 7, nil
	case jvm.Byte:
		return 8, nil
	case jvm.Short:
		return 9, nil
	case jvm.Int:
		return 10, nil
	case jvm.Long:
		return 11, nil
	}
	return 0, errors.Newf(errors.Malformed, "invalid newarray element type %q", string(prim))
}
