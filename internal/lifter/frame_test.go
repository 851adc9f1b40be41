// internal/lifter/frame_test.go
package lifter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"klasse/internal/errors"
	"klasse/internal/ir"
	"klasse/internal/jvm"
)

func descriptorOf(t *testing.T, s string) jvm.MethodDescriptor {
	t.Helper()
	d, err := jvm.ParseMethodDescriptor(s)
	require.NoError(t, err)
	return d
}

func TestNewFrameSeedsLocals(t *testing.T) {
	// Instance method (IJ)V: this, arg0, arg1 (two slots), two spare.
	frame, err := NewFrame(false, descriptorOf(t, "(IJ)V"), 6, 4)
	require.NoError(t, err)

	this, err := frame.GetLocal(0, false)
	require.NoError(t, err)
	require.True(t, this.Equal(ir.Just(ir.This{})))

	arg0, err := frame.GetLocal(1, false)
	require.NoError(t, err)
	require.True(t, arg0.Equal(ir.Just(ir.Arg{Index: 0})))

	arg1, err := frame.GetLocal(2, true)
	require.NoError(t, err)
	require.True(t, arg1.Equal(ir.Just(ir.Arg{Index: 1})))

	// Reading the upper half of the long is a width violation.
	_, err = frame.GetLocal(3, false)
	require.True(t, errors.IsKind(err, errors.ValueMismatch), "got %v", err)

	// The spare locals are uninitialised.
	_, err = frame.GetLocal(4, false)
	require.True(t, errors.IsKind(err, errors.LocalUninitialized), "got %v", err)
}

func TestStackWidthDiscipline(t *testing.T) {
	frame, err := NewFrame(true, descriptorOf(t, "()V"), 0, 4)
	require.NoError(t, err)

	long := ir.Just(ir.Local{DefinedAt: 0})
	require.NoError(t, frame.PushValue(long, true))
	got, err := frame.PopValue(true)
	require.NoError(t, err)
	require.True(t, got.Equal(long))

	// Underflow.
	_, err = frame.PopValue(false)
	require.True(t, errors.IsKind(err, errors.StackUnderflow), "got %v", err)

	// A dual-slot value occupies two raw entries, so pop2 removes it whole.
	require.NoError(t, frame.PushValue(long, true))
	require.NoError(t, frame.Pop2())
	_, err = frame.PopValue(false)
	require.True(t, errors.IsKind(err, errors.StackUnderflow), "got %v", err)
}

func TestDupShapes(t *testing.T) {
	frame, err := NewFrame(true, descriptorOf(t, "()V"), 0, 8)
	require.NoError(t, err)
	a := ir.Just(ir.Local{DefinedAt: 1})
	b := ir.Just(ir.Local{DefinedAt: 2})
	require.NoError(t, frame.PushValue(a, false))
	require.NoError(t, frame.PushValue(b, false))

	// dup_x1: [a b] -> [b a b]
	require.NoError(t, frame.DupX1())
	for _, want := range []ir.Operand{b, a, b} {
		got, err := frame.PopValue(false)
		require.NoError(t, err)
		require.True(t, got.Equal(want))
	}
}

func testFrames(t *testing.T) []*Frame {
	t.Helper()
	descriptor := descriptorOf(t, "(I)V")
	mk := func(localDef jvm.ProgramCounter, stackDef jvm.ProgramCounter) *Frame {
		frame, err := NewFrame(true, descriptor, 3, 3)
		require.NoError(t, err)
		require.NoError(t, frame.SetLocal(1, ir.Just(ir.Local{DefinedAt: localDef}), false))
		require.NoError(t, frame.PushValue(ir.Just(ir.Local{DefinedAt: stackDef}), false))
		return frame
	}
	return []*Frame{mk(4, 10), mk(6, 12), mk(8, 10)}
}

// Frame merging is commutative, associative, and idempotent up to phi
// identifier set equality.
func TestFrameMergeLaws(t *testing.T) {
	frames := testFrames(t)
	for _, f := range frames {
		ff, err := f.Join(f)
		require.NoError(t, err)
		require.True(t, ff.Equal(f), "join not idempotent")
		for _, g := range frames {
			fg, err := f.Join(g)
			require.NoError(t, err)
			gf, err := g.Join(f)
			require.NoError(t, err)
			require.True(t, fg.Equal(gf), "join not commutative")
			require.True(t, f.Leq(fg) && g.Leq(fg), "operands not below their join")
			for _, h := range frames {
				left, err := fg.Join(h)
				require.NoError(t, err)
				gh, err := g.Join(h)
				require.NoError(t, err)
				right, err := f.Join(gh)
				require.NoError(t, err)
				require.True(t, left.Equal(right), "join not associative")
			}
		}
	}
}

func TestFrameMergeMismatch(t *testing.T) {
	descriptor := descriptorOf(t, "()V")
	a, err := NewFrame(true, descriptor, 1, 2)
	require.NoError(t, err)
	b, err := NewFrame(true, descriptor, 1, 2)
	require.NoError(t, err)
	require.NoError(t, b.PushValue(ir.Just(ir.Local{DefinedAt: 0}), false))
	_, err = a.Join(b)
	require.True(t, errors.IsKind(err, errors.StackSizeMismatch), "got %v", err)

	c, err := NewFrame(true, descriptor, 2, 2)
	require.NoError(t, err)
	_, err = a.Join(c)
	require.True(t, errors.IsKind(err, errors.LocalLimitMismatch), "got %v", err)
}

func TestFrameMergeUnionsRetAddresses(t *testing.T) {
	descriptor := descriptorOf(t, "()V")
	a, err := NewFrame(true, descriptor, 0, 0)
	require.NoError(t, err)
	b, err := NewFrame(true, descriptor, 0, 0)
	require.NoError(t, err)
	a.AddRetAddress(3)
	b.AddRetAddress(7)
	merged, err := a.Join(b)
	require.NoError(t, err)
	require.ElementsMatch(t, []jvm.ProgramCounter{3, 7}, merged.TakeRetAddresses())
}
