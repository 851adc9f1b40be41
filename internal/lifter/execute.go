// internal/lifter/execute.go
//
// The per-opcode transfer function: executes one bytecode instruction
// against the abstract frame and emits the IR instruction for its program
// counter. Binary operations pop the right-hand operand first, since it
// sits on top of the stack.
package lifter

import (
	"sort"

	"klasse/internal/errors"
	"klasse/internal/instruction"
	"klasse/internal/ir"
	"klasse/internal/jvm"
)

const (
	single = false
	dual   = true
)

func (g *generator) runInstruction(insn instruction.Instruction, pc jvm.ProgramCounter, frame *Frame) (ir.Instruction, error) {
	op := insn.Op
	def := ir.Local{DefinedAt: pc}

	switch op {
	case instruction.OpNop, instruction.OpBreakpoint,
		instruction.OpImpDep1, instruction.OpImpDep2:
		return ir.Nop{}, nil

	case instruction.OpAConstNull:
		return constDefinition(frame, def, jvm.NullConst{}, single)
	case instruction.OpIConstM1, instruction.OpIConst0, instruction.OpIConst1,
		instruction.OpIConst2, instruction.OpIConst3, instruction.OpIConst4,
		instruction.OpIConst5:
		value := int32(op) - int32(instruction.OpIConst0)
		return constDefinition(frame, def, jvm.IntConst{Value: value}, single)
	case instruction.OpLConst0, instruction.OpLConst1:
		value := int64(op) - int64(instruction.OpLConst0)
		return constDefinition(frame, def, jvm.LongConst{Value: value}, dual)
	case instruction.OpFConst0, instruction.OpFConst1, instruction.OpFConst2:
		value := float32(op) - float32(instruction.OpFConst0)
		return constDefinition(frame, def, jvm.FloatConst{Value: value}, single)
	case instruction.OpDConst0, instruction.OpDConst1:
		value := float64(op) - float64(instruction.OpDConst0)
		return constDefinition(frame, def, jvm.DoubleConst{Value: value}, dual)
	case instruction.OpBiPush, instruction.OpSiPush:
		return constDefinition(frame, def, jvm.IntConst{Value: insn.Value}, single)
	case instruction.OpLdc, instruction.OpLdcW:
		return constDefinition(frame, def, insn.Constant, single)
	case instruction.OpLdc2W:
		return constDefinition(frame, def, insn.Constant, dual)

	case instruction.OpILoad, instruction.OpFLoad, instruction.OpALoad:
		return loadLocal(frame, insn.Index, single)
	case instruction.OpLLoad, instruction.OpDLoad:
		return loadLocal(frame, insn.Index, dual)
	case instruction.OpILoad0, instruction.OpILoad1, instruction.OpILoad2, instruction.OpILoad3:
		return loadLocal(frame, uint16(op-instruction.OpILoad0), single)
	case instruction.OpLLoad0, instruction.OpLLoad1, instruction.OpLLoad2, instruction.OpLLoad3:
		return loadLocal(frame, uint16(op-instruction.OpLLoad0), dual)
	case instruction.OpFLoad0, instruction.OpFLoad1, instruction.OpFLoad2, instruction.OpFLoad3:
		return loadLocal(frame, uint16(op-instruction.OpFLoad0), single)
	case instruction.OpDLoad0, instruction.OpDLoad1, instruction.OpDLoad2, instruction.OpDLoad3:
		return loadLocal(frame, uint16(op-instruction.OpDLoad0), dual)
	case instruction.OpALoad0, instruction.OpALoad1, instruction.OpALoad2, instruction.OpALoad3:
		return loadLocal(frame, uint16(op-instruction.OpALoad0), single)

	case instruction.OpIALoad, instruction.OpFALoad, instruction.OpAALoad,
		instruction.OpBALoad, instruction.OpCALoad, instruction.OpSALoad:
		return arrayRead(frame, def, single)
	case instruction.OpLALoad, instruction.OpDALoad:
		return arrayRead(frame, def, dual)

	case instruction.OpIStore, instruction.OpFStore, instruction.OpAStore:
		return storeLocal(frame, insn.Index, single)
	case instruction.OpLStore, instruction.OpDStore:
		return storeLocal(frame, insn.Index, dual)
	case instruction.OpIStore0, instruction.OpIStore1, instruction.OpIStore2, instruction.OpIStore3:
		return storeLocal(frame, uint16(op-instruction.OpIStore0), single)
	case instruction.OpLStore0, instruction.OpLStore1, instruction.OpLStore2, instruction.OpLStore3:
		return storeLocal(frame, uint16(op-instruction.OpLStore0), dual)
	case instruction.OpFStore0, instruction.OpFStore1, instruction.OpFStore2, instruction.OpFStore3:
		return storeLocal(frame, uint16(op-instruction.OpFStore0), single)
	case instruction.OpDStore0, instruction.OpDStore1, instruction.OpDStore2, instruction.OpDStore3:
		return storeLocal(frame, uint16(op-instruction.OpDStore0), dual)
	case instruction.OpAStore0, instruction.OpAStore1, instruction.OpAStore2, instruction.OpAStore3:
		return storeLocal(frame, uint16(op-instruction.OpAStore0), single)

	case instruction.OpIAStore, instruction.OpFAStore, instruction.OpAAStore,
		instruction.OpBAStore, instruction.OpCAStore, instruction.OpSAStore:
		return arrayWrite(frame, def, single)
	case instruction.OpLAStore, instruction.OpDAStore:
		return arrayWrite(frame, def, dual)

	case instruction.OpPop:
		return ir.Nop{}, frame.Pop()
	case instruction.OpPop2:
		return ir.Nop{}, frame.Pop2()
	case instruction.OpDup:
		return ir.Nop{}, frame.Dup()
	case instruction.OpDupX1:
		return ir.Nop{}, frame.DupX1()
	case instruction.OpDupX2:
		return ir.Nop{}, frame.DupX2()
	case instruction.OpDup2:
		return ir.Nop{}, frame.Dup2()
	case instruction.OpDup2X1:
		return ir.Nop{}, frame.Dup2X1()
	case instruction.OpDup2X2:
		return ir.Nop{}, frame.Dup2X2()
	case instruction.OpSwap:
		return ir.Nop{}, frame.Swap()

	case instruction.OpIAdd, instruction.OpFAdd:
		return binaryMath(frame, def, ir.MathAdd, single)
	case instruction.OpLAdd, instruction.OpDAdd:
		return binaryMath(frame, def, ir.MathAdd, dual)
	case instruction.OpISub, instruction.OpFSub:
		return binaryMath(frame, def, ir.MathSubtract, single)
	case instruction.OpLSub, instruction.OpDSub:
		return binaryMath(frame, def, ir.MathSubtract, dual)
	case instruction.OpIMul, instruction.OpFMul:
		return binaryMath(frame, def, ir.MathMultiply, single)
	case instruction.OpLMul, instruction.OpDMul:
		return binaryMath(frame, def, ir.MathMultiply, dual)
	case instruction.OpIDiv, instruction.OpFDiv:
		return binaryMath(frame, def, ir.MathDivide, single)
	case instruction.OpLDiv, instruction.OpDDiv:
		return binaryMath(frame, def, ir.MathDivide, dual)
	case instruction.OpIRem, instruction.OpFRem:
		return binaryMath(frame, def, ir.MathRemainder, single)
	case instruction.OpLRem, instruction.OpDRem:
		return binaryMath(frame, def, ir.MathRemainder, dual)

	case instruction.OpINeg, instruction.OpFNeg:
		return unaryMath(frame, def, single)
	case instruction.OpLNeg, instruction.OpDNeg:
		return unaryMath(frame, def, dual)

	case instruction.OpIShl:
		return binaryMath(frame, def, ir.MathShiftLeft, single)
	case instruction.OpIShr:
		return binaryMath(frame, def, ir.MathShiftRight, single)
	case instruction.OpIUShr:
		return binaryMath(frame, def, ir.MathLogicalShiftRight, single)
	case instruction.OpLShl:
		return longShift(frame, def, ir.MathShiftLeft)
	case instruction.OpLShr:
		return longShift(frame, def, ir.MathShiftRight)
	case instruction.OpLUShr:
		return longShift(frame, def, ir.MathLogicalShiftRight)

	case instruction.OpIAnd:
		return binaryMath(frame, def, ir.MathBitwiseAnd, single)
	case instruction.OpLAnd:
		return binaryMath(frame, def, ir.MathBitwiseAnd, dual)
	case instruction.OpIOr:
		return binaryMath(frame, def, ir.MathBitwiseOr, single)
	case instruction.OpLOr:
		return binaryMath(frame, def, ir.MathBitwiseOr, dual)
	case instruction.OpIXor:
		return binaryMath(frame, def, ir.MathBitwiseXor, single)
	case instruction.OpLXor:
		return binaryMath(frame, def, ir.MathBitwiseXor, dual)

	case instruction.OpIInc:
		return increment(frame, def, insn.Index, insn.Value)

	case instruction.OpI2L:
		return conversion(frame, def, ir.ConvI2L, single, dual, nil)
	case instruction.OpI2F:
		return conversion(frame, def, ir.ConvI2F, single, single, nil)
	case instruction.OpI2D:
		return conversion(frame, def, ir.ConvI2D, single, dual, nil)
	case instruction.OpL2I:
		return conversion(frame, def, ir.ConvL2I, dual, single, nil)
	case instruction.OpL2F:
		return conversion(frame, def, ir.ConvL2F, dual, single, nil)
	case instruction.OpL2D:
		return conversion(frame, def, ir.ConvL2D, dual, dual, nil)
	case instruction.OpF2I:
		return conversion(frame, def, ir.ConvF2I, single, single, nil)
	case instruction.OpF2L:
		return conversion(frame, def, ir.ConvF2L, single, dual, nil)
	case instruction.OpF2D:
		return conversion(frame, def, ir.ConvF2D, single, dual, nil)
	case instruction.OpD2I:
		return conversion(frame, def, ir.ConvD2I, dual, single, nil)
	case instruction.OpD2L:
		return conversion(frame, def, ir.ConvD2L, dual, dual, nil)
	case instruction.OpD2F:
		return conversion(frame, def, ir.ConvD2F, dual, single, nil)
	case instruction.OpI2B:
		return conversion(frame, def, ir.ConvI2B, single, single, nil)
	case instruction.OpI2C:
		return conversion(frame, def, ir.ConvI2C, single, single, nil)
	case instruction.OpI2S:
		return conversion(frame, def, ir.ConvI2S, single, single, nil)

	case instruction.OpLCmp:
		return comparison(frame, def, ir.Math{Kind: ir.MathLongCompare}, dual)
	case instruction.OpFCmpL:
		return comparison(frame, def, ir.Math{Kind: ir.MathFloatCompare, NaN: ir.NaNIsSmallest}, single)
	case instruction.OpFCmpG:
		return comparison(frame, def, ir.Math{Kind: ir.MathFloatCompare, NaN: ir.NaNIsLargest}, single)
	case instruction.OpDCmpL:
		return comparison(frame, def, ir.Math{Kind: ir.MathFloatCompare, NaN: ir.NaNIsSmallest}, dual)
	case instruction.OpDCmpG:
		return comparison(frame, def, ir.Math{Kind: ir.MathFloatCompare, NaN: ir.NaNIsLargest}, dual)

	case instruction.OpIfEq:
		return unaryJump(frame, insn.Target, ir.CondIsZero)
	case instruction.OpIfNe:
		return unaryJump(frame, insn.Target, ir.CondIsNonZero)
	case instruction.OpIfLt:
		return unaryJump(frame, insn.Target, ir.CondIsNegative)
	case instruction.OpIfGe:
		return unaryJump(frame, insn.Target, ir.CondIsNonNegative)
	case instruction.OpIfGt:
		return unaryJump(frame, insn.Target, ir.CondIsPositive)
	case instruction.OpIfLe:
		return unaryJump(frame, insn.Target, ir.CondIsNonPositive)
	case instruction.OpIfNull:
		return unaryJump(frame, insn.Target, ir.CondIsNull)
	case instruction.OpIfNonNull:
		return unaryJump(frame, insn.Target, ir.CondIsNotNull)

	case instruction.OpIfICmpEq, instruction.OpIfACmpEq:
		return binaryJump(frame, insn.Target, ir.CondEqual)
	case instruction.OpIfICmpNe, instruction.OpIfACmpNe:
		return binaryJump(frame, insn.Target, ir.CondNotEqual)
	case instruction.OpIfICmpLt:
		return binaryJump(frame, insn.Target, ir.CondLessThan)
	case instruction.OpIfICmpGe:
		return binaryJump(frame, insn.Target, ir.CondGreaterThanOrEqual)
	case instruction.OpIfICmpGt:
		return binaryJump(frame, insn.Target, ir.CondGreaterThan)
	case instruction.OpIfICmpLe:
		return binaryJump(frame, insn.Target, ir.CondLessThanOrEqual)

	case instruction.OpGoto, instruction.OpGotoW:
		return ir.Jump{Target: insn.Target}, nil

	case instruction.OpJsr, instruction.OpJsrW:
		next, err := g.nextPC(pc)
		if err != nil {
			return nil, err
		}
		if err := frame.PushValue(ir.Just(def), single); err != nil {
			return nil, err
		}
		return ir.Definition{
			Value: def,
			Expr:  ir.Subroutine{Target: insn.Target, ReturnAddress: next},
		}, nil

	case instruction.OpRet:
		address, err := frame.GetLocal(insn.Index, single)
		if err != nil {
			return nil, err
		}
		return ir.SubroutineRet{Value: address}, nil

	case instruction.OpTableSwitch:
		key, err := frame.PopValue(single)
		if err != nil {
			return nil, err
		}
		branches := make([]ir.SwitchBranch, 0, len(insn.Targets))
		for i, target := range insn.Targets {
			branches = append(branches, ir.SwitchBranch{
				Key:    insn.Low + int32(i),
				Target: target,
			})
		}
		return ir.Switch{MatchValue: key, Branches: branches, Default: insn.Default}, nil

	case instruction.OpLookupSwitch:
		key, err := frame.PopValue(single)
		if err != nil {
			return nil, err
		}
		branches := make([]ir.SwitchBranch, 0, len(insn.MatchTargets))
		for _, pair := range insn.MatchTargets {
			branches = append(branches, ir.SwitchBranch{Key: pair.Match, Target: pair.Target})
		}
		sortBranches(branches)
		return ir.Switch{MatchValue: key, Branches: branches, Default: insn.Default}, nil

	case instruction.OpIReturn, instruction.OpFReturn, instruction.OpAReturn:
		value, err := frame.PopValue(single)
		if err != nil {
			return nil, err
		}
		return ir.Return{Value: &value}, nil
	case instruction.OpLReturn, instruction.OpDReturn:
		value, err := frame.PopValue(dual)
		if err != nil {
			return nil, err
		}
		return ir.Return{Value: &value}, nil
	case instruction.OpReturn:
		return ir.Return{}, nil

	case instruction.OpGetStatic:
		if err := frame.TypedPush(insn.Field.Type, ir.Just(def)); err != nil {
			return nil, err
		}
		return ir.Definition{Value: def, Expr: ir.FieldRead{Field: *insn.Field}}, nil
	case instruction.OpGetField:
		object, err := frame.PopValue(single)
		if err != nil {
			return nil, err
		}
		if err := frame.TypedPush(insn.Field.Type, ir.Just(def)); err != nil {
			return nil, err
		}
		return ir.Definition{Value: def, Expr: ir.FieldRead{Field: *insn.Field, Object: &object}}, nil
	case instruction.OpPutStatic:
		value, err := frame.TypedPop(insn.Field.Type)
		if err != nil {
			return nil, err
		}
		return ir.Definition{Value: def, Expr: ir.FieldWrite{Field: *insn.Field, Value: value}}, nil
	case instruction.OpPutField:
		value, err := frame.TypedPop(insn.Field.Type)
		if err != nil {
			return nil, err
		}
		object, err := frame.PopValue(single)
		if err != nil {
			return nil, err
		}
		return ir.Definition{Value: def, Expr: ir.FieldWrite{Field: *insn.Field, Object: &object, Value: value}}, nil

	case instruction.OpInvokeVirtual, instruction.OpInvokeSpecial, instruction.OpInvokeInterface:
		args, err := frame.PopArgs(insn.Method.Descriptor)
		if err != nil {
			return nil, err
		}
		receiver, err := frame.PopValue(single)
		if err != nil {
			return nil, err
		}
		call := ir.Call{Method: *insn.Method, Receiver: &receiver, Args: args}
		return callDefinition(frame, def, call, insn.Method.Descriptor.Return)
	case instruction.OpInvokeStatic:
		args, err := frame.PopArgs(insn.Method.Descriptor)
		if err != nil {
			return nil, err
		}
		call := ir.Call{Method: *insn.Method, Args: args}
		return callDefinition(frame, def, call, insn.Method.Descriptor.Return)
	case instruction.OpInvokeDynamic:
		captures, err := frame.PopArgs(*insn.Descriptor)
		if err != nil {
			return nil, err
		}
		closure := ir.Closure{
			BootstrapIndex: insn.Bootstrap,
			Name:           insn.Name,
			Captures:       captures,
			Descriptor:     *insn.Descriptor,
		}
		return callDefinition(frame, def, closure, insn.Descriptor.Return)

	case instruction.OpNew:
		if err := frame.PushValue(ir.Just(def), single); err != nil {
			return nil, err
		}
		return ir.Definition{Value: def, Expr: ir.New{Class: insn.Class}}, nil
	case instruction.OpNewArray:
		length, err := frame.PopValue(single)
		if err != nil {
			return nil, err
		}
		if err := frame.PushValue(ir.Just(def), single); err != nil {
			return nil, err
		}
		element := jvm.BaseType{Kind: insn.Prim}
		return ir.Definition{Value: def, Expr: ir.NewArray{ElementType: element, Length: length}}, nil
	case instruction.OpANewArray:
		length, err := frame.PopValue(single)
		if err != nil {
			return nil, err
		}
		if err := frame.PushValue(ir.Just(def), single); err != nil {
			return nil, err
		}
		element := jvm.ObjectType{Class: insn.Class}
		return ir.Definition{Value: def, Expr: ir.NewArray{ElementType: element, Length: length}}, nil
	case instruction.OpMultiANewArray:
		dimensions := make([]ir.Operand, 0, insn.Dimensions)
		for i := uint8(0); i < insn.Dimensions; i++ {
			count, err := frame.PopValue(single)
			if err != nil {
				return nil, err
			}
			dimensions = append(dimensions, count)
		}
		if err := frame.PushValue(ir.Just(def), single); err != nil {
			return nil, err
		}
		return ir.Definition{Value: def, Expr: ir.NewMultiArray{
			ElementType: insn.Type,
			Dimensions:  dimensions,
		}}, nil
	case instruction.OpArrayLength:
		array, err := frame.PopValue(single)
		if err != nil {
			return nil, err
		}
		if err := frame.PushValue(ir.Just(def), single); err != nil {
			return nil, err
		}
		return ir.Definition{Value: def, Expr: ir.ArrayLength{Array: array}}, nil

	case instruction.OpAThrow:
		exception, err := frame.PopValue(single)
		if err != nil {
			return nil, err
		}
		return ir.Definition{Value: def, Expr: ir.Throw{Value: exception}}, nil

	case instruction.OpCheckCast:
		return conversion(frame, def, ir.ConvCheckCast, single, single, insn.Type)
	case instruction.OpInstanceOf:
		return conversion(frame, def, ir.ConvInstanceOf, single, single, insn.Type)

	case instruction.OpMonitorEnter:
		object, err := frame.PopValue(single)
		if err != nil {
			return nil, err
		}
		return ir.Definition{Value: def, Expr: ir.Synchronization{Kind: ir.LockAcquire, Object: object}}, nil
	case instruction.OpMonitorExit:
		object, err := frame.PopValue(single)
		if err != nil {
			return nil, err
		}
		return ir.Definition{Value: def, Expr: ir.Synchronization{Kind: ir.LockRelease, Object: object}}, nil

	case instruction.OpWide:
		switch insn.WideOp {
		case instruction.OpILoad, instruction.OpFLoad, instruction.OpALoad:
			return loadLocal(frame, insn.Index, single)
		case instruction.OpLLoad, instruction.OpDLoad:
			return loadLocal(frame, insn.Index, dual)
		case instruction.OpIStore, instruction.OpFStore, instruction.OpAStore:
			return storeLocal(frame, insn.Index, single)
		case instruction.OpLStore, instruction.OpDStore:
			return storeLocal(frame, insn.Index, dual)
		case instruction.OpIInc:
			return increment(frame, def, insn.Index, insn.Value)
		case instruction.OpRet:
			address, err := frame.GetLocal(insn.Index, single)
			if err != nil {
				return nil, err
			}
			return ir.SubroutineRet{Value: address}, nil
		}
		return nil, errors.Newf(errors.MalformedControlFlow, "invalid wide opcode %s", insn.WideOp)
	}

	return nil, errors.Newf(errors.MalformedControlFlow, "cannot lift opcode %s", op)
}

func constDefinition(frame *Frame, def ir.Local, value jvm.ConstantValue, wide bool) (ir.Instruction, error) {
	if err := frame.PushValue(ir.Just(def), wide); err != nil {
		return nil, err
	}
	return ir.Definition{Value: def, Expr: ir.Const{Value: value}}, nil
}

func loadLocal(frame *Frame, index uint16, wide bool) (ir.Instruction, error) {
	value, err := frame.GetLocal(index, wide)
	if err != nil {
		return nil, err
	}
	if err := frame.PushValue(value, wide); err != nil {
		return nil, err
	}
	return ir.Nop{}, nil
}

func storeLocal(frame *Frame, index uint16, wide bool) (ir.Instruction, error) {
	value, err := frame.PopValue(wide)
	if err != nil {
		return nil, err
	}
	if err := frame.SetLocal(index, value, wide); err != nil {
		return nil, err
	}
	return ir.Nop{}, nil
}

func arrayRead(frame *Frame, def ir.Local, wide bool) (ir.Instruction, error) {
	index, err := frame.PopValue(single)
	if err != nil {
		return nil, err
	}
	array, err := frame.PopValue(single)
	if err != nil {
		return nil, err
	}
	if err := frame.PushValue(ir.Just(def), wide); err != nil {
		return nil, err
	}
	return ir.Definition{Value: def, Expr: ir.ArrayRead{Array: array, Index: index}}, nil
}

func arrayWrite(frame *Frame, def ir.Local, wide bool) (ir.Instruction, error) {
	value, err := frame.PopValue(wide)
	if err != nil {
		return nil, err
	}
	index, err := frame.PopValue(single)
	if err != nil {
		return nil, err
	}
	array, err := frame.PopValue(single)
	if err != nil {
		return nil, err
	}
	return ir.Definition{Value: def, Expr: ir.ArrayWrite{Array: array, Index: index, Value: value}}, nil
}

func binaryMath(frame *Frame, def ir.Local, kind ir.MathKind, wide bool) (ir.Instruction, error) {
	rhs, err := frame.PopValue(wide)
	if err != nil {
		return nil, err
	}
	lhs, err := frame.PopValue(wide)
	if err != nil {
		return nil, err
	}
	if err := frame.PushValue(ir.Just(def), wide); err != nil {
		return nil, err
	}
	return ir.Definition{Value: def, Expr: ir.Math{Kind: kind, LHS: lhs, RHS: rhs}}, nil
}

func unaryMath(frame *Frame, def ir.Local, wide bool) (ir.Instruction, error) {
	operand, err := frame.PopValue(wide)
	if err != nil {
		return nil, err
	}
	if err := frame.PushValue(ir.Just(def), wide); err != nil {
		return nil, err
	}
	return ir.Definition{Value: def, Expr: ir.Math{Kind: ir.MathNegate, LHS: operand}}, nil
}

// longShift handles the long shifts: the shift amount is single-slot, the
// base and result are dual-slot.
func longShift(frame *Frame, def ir.Local, kind ir.MathKind) (ir.Instruction, error) {
	amount, err := frame.PopValue(single)
	if err != nil {
		return nil, err
	}
	base, err := frame.PopValue(dual)
	if err != nil {
		return nil, err
	}
	if err := frame.PushValue(ir.Just(def), dual); err != nil {
		return nil, err
	}
	return ir.Definition{Value: def, Expr: ir.Math{Kind: kind, LHS: base, RHS: amount}}, nil
}

func increment(frame *Frame, def ir.Local, index uint16, constant int32) (ir.Instruction, error) {
	base, err := frame.GetLocal(index, single)
	if err != nil {
		return nil, err
	}
	if err := frame.SetLocal(index, ir.Just(def), single); err != nil {
		return nil, err
	}
	return ir.Definition{Value: def, Expr: ir.Math{
		Kind:      ir.MathIncrement,
		LHS:       base,
		Increment: constant,
	}}, nil
}

func conversion(frame *Frame, def ir.Local, kind ir.ConversionKind, operandWide, resultWide bool, target jvm.FieldType) (ir.Instruction, error) {
	operand, err := frame.PopValue(operandWide)
	if err != nil {
		return nil, err
	}
	if err := frame.PushValue(ir.Just(def), resultWide); err != nil {
		return nil, err
	}
	return ir.Definition{Value: def, Expr: ir.Conversion{
		Kind:    kind,
		Operand: operand,
		Target:  target,
	}}, nil
}

// comparison handles lcmp and the floating point comparisons: both operands
// share a width, the integer result is single-slot.
func comparison(frame *Frame, def ir.Local, template ir.Math, wide bool) (ir.Instruction, error) {
	rhs, err := frame.PopValue(wide)
	if err != nil {
		return nil, err
	}
	lhs, err := frame.PopValue(wide)
	if err != nil {
		return nil, err
	}
	if err := frame.PushValue(ir.Just(def), single); err != nil {
		return nil, err
	}
	template.LHS = lhs
	template.RHS = rhs
	return ir.Definition{Value: def, Expr: template}, nil
}

func unaryJump(frame *Frame, target jvm.ProgramCounter, kind ir.ConditionKind) (ir.Instruction, error) {
	operand, err := frame.PopValue(single)
	if err != nil {
		return nil, err
	}
	condition := ir.Condition{Kind: kind, LHS: operand}
	return ir.Jump{Condition: &condition, Target: target}, nil
}

func binaryJump(frame *Frame, target jvm.ProgramCounter, kind ir.ConditionKind) (ir.Instruction, error) {
	rhs, err := frame.PopValue(single)
	if err != nil {
		return nil, err
	}
	lhs, err := frame.PopValue(single)
	if err != nil {
		return nil, err
	}
	condition := ir.Condition{Kind: kind, LHS: lhs, RHS: rhs}
	return ir.Jump{Condition: &condition, Target: target}, nil
}

func callDefinition(frame *Frame, def ir.Local, expr ir.Expression, ret jvm.ReturnType) (ir.Instruction, error) {
	if !ret.IsVoid() {
		if err := frame.TypedPush(ret.Type, ir.Just(def)); err != nil {
			return nil, err
		}
	}
	return ir.Definition{Value: def, Expr: expr}, nil
}

func sortBranches(branches []ir.SwitchBranch) {
	sort.Slice(branches, func(i, j int) bool { return branches[i].Key < branches[j].Key })
}
