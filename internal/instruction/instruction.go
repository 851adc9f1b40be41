// internal/instruction/instruction.go
package instruction

import (
	"fmt"
	"strings"

	"klasse/internal/jvm"
)

// MatchTarget is one match/target pair of a resolved lookupswitch, with the
// offset turned into an absolute program counter.
type MatchTarget struct {
	Match  int32
	Target jvm.ProgramCounter
}

// Instruction is a resolved instruction: constant-pool indices are replaced
// by domain objects and relative offsets by absolute program counters. Only
// the fields relevant to Op are set.
type Instruction struct {
	Op     Opcode
	WideOp Opcode // inner opcode when Op == OpWide

	Index      uint16            // local-variable index
	Value      int32             // bipush/sipush immediate or iinc constant
	Constant   jvm.ConstantValue // ldc family operand
	Target     jvm.ProgramCounter
	Field      *jvm.FieldRef
	Method     *jvm.MethodRef
	Count      uint8 // invokeinterface count
	Class      jvm.ClassRef
	Type       jvm.FieldType     // checkcast / instanceof / multianewarray
	Prim       jvm.PrimitiveType // newarray element type
	Dimensions uint8

	Bootstrap  uint16 // invokedynamic bootstrap method index
	Name       string // invokedynamic method name
	Descriptor *jvm.MethodDescriptor

	Default      jvm.ProgramCounter
	Low          int32
	High         int32
	Targets      []jvm.ProgramCounter
	MatchTargets []MatchTarget
}

func (insn Instruction) String() string {
	mnemonic := insn.Op.String()
	switch insn.Op {
	case OpBiPush, OpSiPush:
		return fmt.Sprintf("%s %d", mnemonic, insn.Value)
	case OpLdc, OpLdcW, OpLdc2W:
		return fmt.Sprintf("%s %s", mnemonic, insn.Constant)
	case OpILoad, OpLLoad, OpFLoad, OpDLoad, OpALoad,
		OpIStore, OpLStore, OpFStore, OpDStore, OpAStore, OpRet:
		return fmt.Sprintf("%s %d", mnemonic, insn.Index)
	case OpIInc:
		return fmt.Sprintf("%s %d %d", mnemonic, insn.Index, insn.Value)
	case OpIfEq, OpIfNe, OpIfLt, OpIfGe, OpIfGt, OpIfLe,
		OpIfICmpEq, OpIfICmpNe, OpIfICmpLt, OpIfICmpGe, OpIfICmpGt, OpIfICmpLe,
		OpIfACmpEq, OpIfACmpNe, OpIfNull, OpIfNonNull, OpGoto, OpGotoW, OpJsr, OpJsrW:
		return fmt.Sprintf("%s %s", mnemonic, insn.Target)
	case OpGetStatic, OpPutStatic, OpGetField, OpPutField:
		return fmt.Sprintf("%s %s", mnemonic, insn.Field)
	case OpInvokeVirtual, OpInvokeSpecial, OpInvokeStatic, OpInvokeInterface:
		return fmt.Sprintf("%s %s", mnemonic, insn.Method)
	case OpInvokeDynamic:
		return fmt.Sprintf("%s %s%s", mnemonic, insn.Name, insn.Descriptor.Descriptor())
	case OpNew, OpANewArray:
		return fmt.Sprintf("%s %s", mnemonic, insn.Class)
	case OpNewArray:
		return fmt.Sprintf("%s %s", mnemonic, insn.Prim)
	case OpCheckCast, OpInstanceOf:
		return fmt.Sprintf("%s %s", mnemonic, insn.Type)
	case OpMultiANewArray:
		return fmt.Sprintf("%s %s %d", mnemonic, insn.Type, insn.Dimensions)
	case OpTableSwitch:
		var sb strings.Builder
		fmt.Fprintf(&sb, "%s %d..%d {", mnemonic, insn.Low, insn.High)
		for i, target := range insn.Targets {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%d => %s", insn.Low+int32(i), target)
		}
		fmt.Fprintf(&sb, ", else => %s}", insn.Default)
		return sb.String()
	case OpLookupSwitch:
		var sb strings.Builder
		fmt.Fprintf(&sb, "%s {", mnemonic)
		for i, pair := range insn.MatchTargets {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%d => %s", pair.Match, pair.Target)
		}
		fmt.Fprintf(&sb, ", else => %s}", insn.Default)
		return sb.String()
	case OpWide:
		if insn.WideOp == OpIInc {
			return fmt.Sprintf("wide iinc %d %d", insn.Index, insn.Value)
		}
		return fmt.Sprintf("wide %s %d", insn.WideOp, insn.Index)
	default:
		return mnemonic
	}
}
