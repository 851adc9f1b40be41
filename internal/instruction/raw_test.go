// internal/instruction/raw_test.go
package instruction

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"klasse/internal/errors"
	"klasse/internal/jvm"
)

func roundTrip(t *testing.T, list jvm.InstructionList[RawInstruction]) jvm.InstructionList[RawInstruction] {
	t.Helper()
	code, err := EncodeRaw(list)
	if err != nil {
		t.Fatalf("EncodeRaw: %v", err)
	}
	parsed, err := ParseRaw(code)
	if err != nil {
		t.Fatalf("ParseRaw: %v", err)
	}
	return parsed
}

func assertSameList(t *testing.T, got, want jvm.InstructionList[RawInstruction]) {
	t.Helper()
	if diff := cmp.Diff(want.PCs(), got.PCs()); diff != "" {
		t.Fatalf("program counters differ (-want +got):\n%s", diff)
	}
	for _, pc := range want.PCs() {
		gotInsn, _ := got.At(pc)
		wantInsn, _ := want.At(pc)
		if diff := cmp.Diff(wantInsn, gotInsn); diff != "" {
			t.Fatalf("instruction at %s differs (-want +got):\n%s", pc, diff)
		}
	}
}

func TestRawRoundTripSimple(t *testing.T) {
	items := map[jvm.ProgramCounter]RawInstruction{
		0: {Op: OpIConst0},
		1: {Op: OpBiPush, Value: -7},
		3: {Op: OpSiPush, Value: 300},
		6: {Op: OpILoad, Index: 4},
		8: {Op: OpIInc, Index: 2, Value: -1},
		11: {Op: OpGoto, Offset: -11},
	}
	list := jvm.NewInstructionList(items)
	assertSameList(t, roundTrip(t, list), list)
}

func TestRawRoundTripWide(t *testing.T) {
	items := map[jvm.ProgramCounter]RawInstruction{
		0: {Op: OpWide, WideOp: OpILoad, Index: 300},
		4: {Op: OpWide, WideOp: OpIInc, Index: 258, Value: -512},
		10: {Op: OpWide, WideOp: OpRet, Index: 301},
	}
	list := jvm.NewInstructionList(items)
	assertSameList(t, roundTrip(t, list), list)
}

// The switch forms pad to a 4-byte boundary after the opcode, so their
// layout depends on their own program counter.
func TestRawRoundTripSwitchShapes(t *testing.T) {
	for _, leadingNops := range []int{0, 1, 2, 3} {
		items := map[jvm.ProgramCounter]RawInstruction{}
		pc := jvm.ProgramCounter(0)
		for i := 0; i < leadingNops; i++ {
			items[pc] = RawInstruction{Op: OpNop}
			pc++
		}
		table := RawInstruction{
			Op:          OpTableSwitch,
			Default:     60,
			Low:         -1,
			High:        1,
			JumpOffsets: []int32{40, 44, 48},
		}
		items[pc] = table
		pc += jvm.ProgramCounter(table.NumBytes(pc))
		lookup := RawInstruction{
			Op:      OpLookupSwitch,
			Default: 80,
			MatchOffsets: []MatchOffset{
				{Match: -5, Offset: 20},
				{Match: 7, Offset: 24},
			},
		}
		items[pc] = lookup
		list := jvm.NewInstructionList(items)
		assertSameList(t, roundTrip(t, list), list)
	}
}

// Lookupswitch match pairs are written in sorted key order.
func TestLookupSwitchWrittenSorted(t *testing.T) {
	unsorted := jvm.NewInstructionList(map[jvm.ProgramCounter]RawInstruction{
		0: {
			Op:      OpLookupSwitch,
			Default: 40,
			MatchOffsets: []MatchOffset{
				{Match: 9, Offset: 16},
				{Match: -3, Offset: 12},
			},
		},
	})
	parsed := roundTrip(t, unsorted)
	insn, _ := parsed.At(0)
	if insn.MatchOffsets[0].Match != -3 || insn.MatchOffsets[1].Match != 9 {
		t.Fatalf("match pairs not sorted: %+v", insn.MatchOffsets)
	}
}

func TestNumBytes(t *testing.T) {
	tests := []struct {
		name string
		insn RawInstruction
		pc   jvm.ProgramCounter
		want uint32
	}{
		{"nop", RawInstruction{Op: OpNop}, 0, 1},
		{"bipush", RawInstruction{Op: OpBiPush}, 0, 2},
		{"sipush", RawInstruction{Op: OpSiPush}, 0, 3},
		{"goto_w", RawInstruction{Op: OpGotoW}, 0, 5},
		{"invokeinterface", RawInstruction{Op: OpInvokeInterface}, 0, 5},
		{"wide load", RawInstruction{Op: OpWide, WideOp: OpILoad}, 0, 4},
		{"wide iinc", RawInstruction{Op: OpWide, WideOp: OpIInc}, 0, 6},
		{
			"tableswitch aligned",
			RawInstruction{Op: OpTableSwitch, Low: 0, High: 2, JumpOffsets: []int32{1, 2, 3}},
			3, // opcode at 3, operands already aligned at 4
			1 + 0 + 12 + 12,
		},
		{
			"tableswitch with padding",
			RawInstruction{Op: OpTableSwitch, Low: 0, High: 2, JumpOffsets: []int32{1, 2, 3}},
			0, // alignment counted from the byte after the opcode
			1 + 3 + 12 + 12,
		},
		{
			"lookupswitch",
			RawInstruction{Op: OpLookupSwitch, MatchOffsets: []MatchOffset{{Match: 1, Offset: 2}}},
			0,
			1 + 3 + 8 + 8,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.insn.NumBytes(tt.pc); got != tt.want {
				t.Fatalf("NumBytes(%s) = %d, want %d", tt.pc, got, tt.want)
			}
		})
	}
}

func TestParseRawRejectsInvalidOpcode(t *testing.T) {
	if _, err := ParseRaw([]byte{0xcb}); !errors.IsKind(err, errors.Malformed) {
		t.Fatalf("expected Malformed, got %v", err)
	}
}

func TestParseRawRejectsNonZeroPadding(t *testing.T) {
	// invokedynamic with non-zero trailing pad bytes
	code := []byte{0xba, 0x00, 0x01, 0x00, 0x01}
	if _, err := ParseRaw(code); !errors.IsKind(err, errors.Malformed) {
		t.Fatalf("expected Malformed, got %v", err)
	}
}

func TestParseRawCleanEOFAtBoundary(t *testing.T) {
	list, err := ParseRaw([]byte{byte(OpIConst0), byte(OpIReturn)})
	if err != nil {
		t.Fatalf("ParseRaw: %v", err)
	}
	if list.Len() != 2 {
		t.Fatalf("Len = %d, want 2", list.Len())
	}
	if _, err := ParseRaw([]byte{byte(OpBiPush)}); !errors.IsKind(err, errors.Malformed) {
		t.Fatalf("truncated operand should be Malformed, got %v", err)
	}
}
