// internal/lifter/lifter_test.go
package lifter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"klasse/internal/classfile"
	"klasse/internal/errors"
	"klasse/internal/instruction"
	"klasse/internal/ir"
	"klasse/internal/jvm"
)

func staticMethod(t *testing.T, descriptor string, maxStack, maxLocals uint16,
	code map[jvm.ProgramCounter]instruction.Instruction,
	exceptions ...classfile.ExceptionTableEntry) *classfile.Method {
	t.Helper()
	parsed, err := jvm.ParseMethodDescriptor(descriptor)
	require.NoError(t, err)
	return &classfile.Method{
		AccessFlags: jvm.MethodStatic,
		Owner:       jvm.ClassRef{BinaryName: "demo/Test"},
		Name:        "probe",
		Descriptor:  parsed,
		Body: &classfile.MethodBody{
			MaxStack:       maxStack,
			MaxLocals:      maxLocals,
			Instructions:   jvm.NewInstructionList(code),
			ExceptionTable: exceptions,
		},
	}
}

func instructionAt(t *testing.T, lifted *MethodIR, pc jvm.ProgramCounter) ir.Instruction {
	t.Helper()
	insn, ok := lifted.Instructions.At(pc)
	require.True(t, ok, "no IR instruction at %s", pc)
	return insn
}

// iconst_0; ireturn
func TestLiftConstReturn(t *testing.T) {
	method := staticMethod(t, "()I", 1, 0, map[jvm.ProgramCounter]instruction.Instruction{
		0: {Op: instruction.OpIConst0},
		1: {Op: instruction.OpIReturn},
	})
	lifted, err := Lift(method)
	require.NoError(t, err)

	require.Equal(t, 2, lifted.Instructions.Len())
	def, ok := instructionAt(t, lifted, 0).(ir.Definition)
	require.True(t, ok)
	require.Equal(t, ir.Local{DefinedAt: 0}, def.Value)
	require.Equal(t, ir.Const{Value: jvm.IntConst{Value: 0}}, def.Expr)

	ret, ok := instructionAt(t, lifted, 1).(ir.Return)
	require.True(t, ok)
	require.NotNil(t, ret.Value)
	require.True(t, ret.Value.Equal(ir.Just(ir.Local{DefinedAt: 0})))

	transfer, ok := lifted.CFG.Edge(0, 1)
	require.True(t, ok)
	require.Equal(t, ir.TransferUnconditional, transfer.Kind)
	require.Empty(t, lifted.CFG.EdgesFrom(1))
}

// iload_0; iload_1; iadd; ireturn
func TestLiftAdd(t *testing.T) {
	method := staticMethod(t, "(II)I", 2, 2, map[jvm.ProgramCounter]instruction.Instruction{
		0: {Op: instruction.OpILoad0},
		1: {Op: instruction.OpILoad1},
		2: {Op: instruction.OpIAdd},
		3: {Op: instruction.OpIReturn},
	})
	lifted, err := Lift(method)
	require.NoError(t, err)

	def, ok := instructionAt(t, lifted, 2).(ir.Definition)
	require.True(t, ok)
	require.Equal(t, ir.Local{DefinedAt: 2}, def.Value)
	math, ok := def.Expr.(ir.Math)
	require.True(t, ok)
	require.Equal(t, ir.MathAdd, math.Kind)
	require.True(t, math.LHS.Equal(ir.Just(ir.Arg{Index: 0})))
	require.True(t, math.RHS.Equal(ir.Just(ir.Arg{Index: 1})))

	ret, ok := instructionAt(t, lifted, 3).(ir.Return)
	require.True(t, ok)
	require.True(t, ret.Value.Equal(ir.Just(ir.Local{DefinedAt: 2})))
}

// iload_0; ifeq L; iconst_1; goto E; L: iconst_2; E: ireturn
func TestLiftBranchMerge(t *testing.T) {
	method := staticMethod(t, "(I)I", 1, 1, map[jvm.ProgramCounter]instruction.Instruction{
		0: {Op: instruction.OpILoad0},
		1: {Op: instruction.OpIfEq, Target: 8},
		4: {Op: instruction.OpIConst1},
		5: {Op: instruction.OpGoto, Target: 9},
		8: {Op: instruction.OpIConst2},
		9: {Op: instruction.OpIReturn},
	})
	lifted, err := Lift(method)
	require.NoError(t, err)

	zeroPred := ir.PredicateOf(ir.Condition{Kind: ir.CondIsZero, LHS: ir.Just(ir.Arg{Index: 0})})

	taken, ok := lifted.CFG.Edge(1, 8)
	require.True(t, ok)
	require.Equal(t, ir.TransferConditional, taken.Kind)
	require.True(t, taken.Condition.Equal(ir.PathOf(ir.Positive(zeroPred))))

	fallthrough_, ok := lifted.CFG.Edge(1, 4)
	require.True(t, ok)
	require.Equal(t, ir.TransferConditional, fallthrough_.Kind)
	require.True(t, fallthrough_.Condition.Equal(ir.PathOf(ir.Negated(zeroPred))))

	ret, ok := instructionAt(t, lifted, 9).(ir.Return)
	require.True(t, ok)
	require.True(t, ret.Value.Equal(ir.Phi(ir.Local{DefinedAt: 4}, ir.Local{DefinedAt: 8})))
}

// iload_0; tableswitch 0..2 -> 20,24,28 default 32; each branch returns
func TestLiftTableSwitch(t *testing.T) {
	code := map[jvm.ProgramCounter]instruction.Instruction{
		0: {Op: instruction.OpILoad0},
		1: {
			Op:      instruction.OpTableSwitch,
			Low:     0,
			High:    2,
			Targets: []jvm.ProgramCounter{20, 24, 28},
			Default: 32,
		},
		20: {Op: instruction.OpIConst0},
		21: {Op: instruction.OpIReturn},
		24: {Op: instruction.OpIConst1},
		25: {Op: instruction.OpIReturn},
		28: {Op: instruction.OpIConst2},
		29: {Op: instruction.OpIReturn},
		32: {Op: instruction.OpIConst3},
		33: {Op: instruction.OpIReturn},
	}
	method := staticMethod(t, "(I)I", 1, 1, code)
	lifted, err := Lift(method)
	require.NoError(t, err)

	key := ir.VariableValue(ir.Just(ir.Arg{Index: 0}))
	edges := lifted.CFG.EdgesFrom(1)
	require.Len(t, edges, 4)

	for i, target := range []jvm.ProgramCounter{20, 24, 28} {
		transfer, ok := lifted.CFG.Edge(1, target)
		require.True(t, ok)
		require.Equal(t, ir.TransferConditional, transfer.Kind)
		want := ir.PathOf(ir.Positive(ir.Predicate{
			Kind: ir.PredEqual,
			LHS:  key,
			RHS:  ir.ConstValue(jvm.IntConst{Value: int32(i)}),
		}))
		require.True(t, transfer.Condition.Equal(want), "branch %d condition = %s", i, transfer.Condition)
	}

	defaultTransfer, ok := lifted.CFG.Edge(1, 32)
	require.True(t, ok)
	wantDefault := ir.PathTrue()
	for k := int32(0); k <= 2; k++ {
		wantDefault = wantDefault.AndVar(ir.Negated(ir.Predicate{
			Kind: ir.PredEqual,
			LHS:  key,
			RHS:  ir.ConstValue(jvm.IntConst{Value: k}),
		}))
	}
	require.True(t, defaultTransfer.Condition.Equal(wantDefault),
		"default condition = %s", defaultTransfer.Condition)
}

// aload_0; athrow inside a try block catching java/io/IOException
func TestLiftThrowWithHandler(t *testing.T) {
	ioException := jvm.ClassRef{BinaryName: "java/io/IOException"}
	method := staticMethod(t, "(Ljava/lang/Object;)Ljava/lang/Object;", 1, 1,
		map[jvm.ProgramCounter]instruction.Instruction{
			0: {Op: instruction.OpALoad0},
			1: {Op: instruction.OpAThrow},
			2: {Op: instruction.OpAReturn},
		},
		classfile.ExceptionTableEntry{StartPC: 0, EndPC: 1, HandlerPC: 2, CatchType: &ioException},
	)
	lifted, err := Lift(method)
	require.NoError(t, err)

	edges := lifted.CFG.EdgesFrom(1)
	require.Len(t, edges, 1)
	require.Equal(t, ir.TransferException, edges[0].Transfer.Kind)
	require.Equal(t, []jvm.ClassRef{ioException}, edges[0].Transfer.Exceptions)
	require.Equal(t, jvm.ProgramCounter(2), edges[0].Target)

	// The handler returns the caught exception.
	ret, ok := instructionAt(t, lifted, 2).(ir.Return)
	require.True(t, ok)
	require.True(t, ret.Value.Equal(ir.Just(ir.CaughtException{Handler: 2})))
}

// Path conditions over the branch-merge CFG: the merge point is
// unconditional again.
func TestPathConditionsOverBranch(t *testing.T) {
	method := staticMethod(t, "(I)I", 1, 1, map[jvm.ProgramCounter]instruction.Instruction{
		0: {Op: instruction.OpILoad0},
		1: {Op: instruction.OpIfEq, Target: 8},
		4: {Op: instruction.OpIConst1},
		5: {Op: instruction.OpGoto, Target: 9},
		8: {Op: instruction.OpIConst2},
		9: {Op: instruction.OpIReturn},
	})
	lifted, err := Lift(method)
	require.NoError(t, err)
	conditions, err := ir.AnalysePathConditions(lifted.CFG)
	require.NoError(t, err)

	zeroPred := ir.PredicateOf(ir.Condition{Kind: ir.CondIsZero, LHS: ir.Just(ir.Arg{Index: 0})})
	require.True(t, conditions[0].IsTautology())
	require.True(t, conditions[8].Equal(ir.PathOf(ir.Positive(zeroPred))))
	require.True(t, conditions[4].Equal(ir.PathOf(ir.Negated(zeroPred))))
	// Both branches reach the merge, so its condition simplifies to true.
	require.True(t, conditions[9].IsTautology(), "merge condition = %s", conditions[9])
}

// jsr 4; return; subroutine: astore_0; ret 0
func TestLiftSubroutine(t *testing.T) {
	method := staticMethod(t, "()V", 1, 1, map[jvm.ProgramCounter]instruction.Instruction{
		0: {Op: instruction.OpJsr, Target: 4},
		3: {Op: instruction.OpReturn},
		4: {Op: instruction.OpAStore0},
		5: {Op: instruction.OpRet, Index: 0},
	})
	lifted, err := Lift(method)
	require.NoError(t, err)

	def, ok := instructionAt(t, lifted, 0).(ir.Definition)
	require.True(t, ok)
	require.Equal(t, ir.Subroutine{Target: 4, ReturnAddress: 3}, def.Expr)

	enter, ok := lifted.CFG.Edge(0, 4)
	require.True(t, ok)
	require.Equal(t, ir.TransferUnconditional, enter.Kind)

	ret, ok := instructionAt(t, lifted, 5).(ir.SubroutineRet)
	require.True(t, ok)
	require.True(t, ret.Value.Equal(ir.Just(ir.Local{DefinedAt: 0})))

	back, ok := lifted.CFG.Edge(5, 3)
	require.True(t, ok)
	require.Equal(t, ir.TransferSubroutineReturn, back.Kind)
}

func TestLiftErrors(t *testing.T) {
	t.Run("no body", func(t *testing.T) {
		method := &classfile.Method{Name: "abstract"}
		_, err := Lift(method)
		require.True(t, errors.IsKind(err, errors.NoMethodBody), "got %v", err)
	})

	t.Run("stack underflow", func(t *testing.T) {
		method := staticMethod(t, "()I", 1, 0, map[jvm.ProgramCounter]instruction.Instruction{
			0: {Op: instruction.OpIReturn},
		})
		_, err := Lift(method)
		require.True(t, errors.IsKind(err, errors.StackUnderflow), "got %v", err)
	})

	t.Run("stack overflow", func(t *testing.T) {
		method := staticMethod(t, "()I", 0, 0, map[jvm.ProgramCounter]instruction.Instruction{
			0: {Op: instruction.OpIConst0},
			1: {Op: instruction.OpIReturn},
		})
		_, err := Lift(method)
		require.True(t, errors.IsKind(err, errors.StackOverflow), "got %v", err)
	})

	t.Run("jump outside the instruction list", func(t *testing.T) {
		method := staticMethod(t, "()V", 0, 0, map[jvm.ProgramCounter]instruction.Instruction{
			0: {Op: instruction.OpGoto, Target: 40},
		})
		_, err := Lift(method)
		require.True(t, errors.IsKind(err, errors.MalformedControlFlow), "got %v", err)
	})

	t.Run("argument slots exceed max locals", func(t *testing.T) {
		method := staticMethod(t, "(JJ)V", 0, 2, map[jvm.ProgramCounter]instruction.Instruction{
			0: {Op: instruction.OpReturn},
		})
		_, err := Lift(method)
		require.True(t, errors.IsKind(err, errors.LocalLimitExceeded), "got %v", err)
	})

	t.Run("width mismatch", func(t *testing.T) {
		// lreturn pops a dual-slot value but finds two single-slot ints.
		method := staticMethod(t, "()J", 2, 0, map[jvm.ProgramCounter]instruction.Instruction{
			0: {Op: instruction.OpIConst0},
			1: {Op: instruction.OpIConst1},
			2: {Op: instruction.OpLReturn},
		})
		_, err := Lift(method)
		require.True(t, errors.IsKind(err, errors.ValueMismatch), "got %v", err)
	})
}
