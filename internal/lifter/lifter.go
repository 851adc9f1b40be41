// internal/lifter/lifter.go
//
// The stack-to-SSA lifter: an abstract interpreter over the JVM frame,
// driven to a fixed point over the method's control flow. Each bytecode
// instruction lowers to one IR instruction keyed by its program counter,
// and every discovered control transfer becomes a CFG edge.
package lifter

import (
	"sort"

	"klasse/internal/classfile"
	"klasse/internal/errors"
	"klasse/internal/fixpoint"
	"klasse/internal/ir"
	"klasse/internal/jvm"
)

// MethodIR is the lifted form of a method.
type MethodIR struct {
	AccessFlags    jvm.MethodAccessFlags
	Name           string
	Owner          jvm.ClassRef
	Descriptor     jvm.MethodDescriptor
	Instructions   jvm.InstructionList[ir.Instruction]
	ExceptionTable []classfile.ExceptionTableEntry
	CFG            *ir.CFG
}

// Lift generates the SSA IR and control-flow graph of a method.
func Lift(method *classfile.Method) (*MethodIR, error) {
	body := method.Body
	if body == nil {
		return nil, errors.Newf(errors.NoMethodBody, "method %s has no body", method.Name)
	}
	entryPC, ok := body.Instructions.EntryPoint()
	if !ok {
		return nil, errors.New(errors.MalformedControlFlow, "method body has no instructions")
	}
	initial, err := NewFrame(method.IsStatic(), method.Descriptor, body.MaxLocals, body.MaxStack)
	if err != nil {
		return nil, err
	}
	gen := &generator{
		body:    body,
		irCode:  make(map[jvm.ProgramCounter]ir.Instruction, body.Instructions.Len()),
		cfg:     ir.NewCFG(),
		entryPC: entryPC,
		initial: initial,
	}
	if _, err := fixpoint.Solve[jvm.ProgramCounter, *Frame](gen); err != nil {
		return nil, err
	}
	return &MethodIR{
		AccessFlags:    method.AccessFlags,
		Name:           method.Name,
		Owner:          method.Owner,
		Descriptor:     method.Descriptor,
		Instructions:   jvm.NewInstructionList(gen.irCode),
		ExceptionTable: body.ExceptionTable,
		CFG:            gen.cfg,
	}, nil
}

type generator struct {
	body    *classfile.MethodBody
	irCode  map[jvm.ProgramCounter]ir.Instruction
	cfg     *ir.CFG
	entryPC jvm.ProgramCounter
	initial *Frame
}

func (g *generator) Seeds() []fixpoint.Entry[jvm.ProgramCounter, *Frame] {
	return []fixpoint.Entry[jvm.ProgramCounter, *Frame]{
		{Location: g.entryPC, Fact: g.initial},
	}
}

func (g *generator) Flow(pc jvm.ProgramCounter, fact *Frame) ([]fixpoint.Entry[jvm.ProgramCounter, *Frame], error) {
	insn, ok := g.body.Instructions.At(pc)
	if !ok {
		return nil, errors.Newf(errors.MalformedControlFlow, "no instruction at %s", pc)
	}
	frame := fact.Clone()
	irInsn, err := g.runInstruction(insn, pc, frame)
	if err != nil {
		return nil, err
	}
	successors, err := g.successors(pc, frame, irInsn)
	if err != nil {
		return nil, err
	}
	g.irCode[pc] = irInsn

	out := make([]fixpoint.Entry[jvm.ProgramCounter, *Frame], 0, len(successors))
	for _, succ := range successors {
		g.cfg.AddEdge(pc, succ.target, succ.transfer)
		out = append(out, fixpoint.Entry[jvm.ProgramCounter, *Frame]{
			Location: succ.target,
			Fact:     succ.frame,
		})
	}
	return out, nil
}

func (g *generator) nextPC(pc jvm.ProgramCounter) (jvm.ProgramCounter, error) {
	next, ok := g.body.Instructions.NextPC(pc)
	if !ok {
		return 0, errors.Newf(errors.MalformedControlFlow, "no instruction follows %s", pc)
	}
	return next, nil
}

type successor struct {
	target   jvm.ProgramCounter
	transfer ir.ControlTransfer
	frame    *Frame
}

// successors computes the (edge, frame) pairs produced by the instruction
// at pc, given the frame after executing it.
func (g *generator) successors(pc jvm.ProgramCounter, frame *Frame, irInsn ir.Instruction) ([]successor, error) {
	switch insn := irInsn.(type) {
	case ir.Nop:
		return g.fallthroughWithExceptions(pc, frame)
	case ir.Return:
		return nil, nil
	case ir.SubroutineRet:
		addresses := frame.TakeRetAddresses()
		sort.Slice(addresses, func(i, j int) bool { return addresses[i] < addresses[j] })
		out := make([]successor, 0, len(addresses))
		for _, address := range addresses {
			out = append(out, successor{
				target:   address,
				transfer: ir.ControlTransfer{Kind: ir.TransferSubroutineReturn},
				frame:    frame.Clone(),
			})
		}
		return out, nil
	case ir.Jump:
		if insn.Condition == nil {
			return []successor{{
				target:   insn.Target,
				transfer: ir.ControlTransfer{Kind: ir.TransferUnconditional},
				frame:    frame,
			}}, nil
		}
		next, err := g.nextPC(pc)
		if err != nil {
			return nil, err
		}
		pred := ir.PredicateOf(*insn.Condition)
		return []successor{
			{
				target: insn.Target,
				transfer: ir.ControlTransfer{
					Kind:      ir.TransferConditional,
					Condition: ir.PathOf(ir.Positive(pred)),
				},
				frame: frame.Clone(),
			},
			{
				target: next,
				transfer: ir.ControlTransfer{
					Kind:      ir.TransferConditional,
					Condition: ir.PathOf(ir.Negated(pred)),
				},
				frame: frame,
			},
		}, nil
	case ir.Switch:
		out := make([]successor, 0, len(insn.Branches)+1)
		defaultCond := ir.PathTrue()
		for _, branch := range insn.Branches {
			pred := ir.Predicate{
				Kind: ir.PredEqual,
				LHS:  ir.VariableValue(insn.MatchValue),
				RHS:  ir.ConstValue(jvm.IntConst{Value: branch.Key}),
			}
			defaultCond = defaultCond.AndVar(ir.Negated(pred))
			out = append(out, successor{
				target: branch.Target,
				transfer: ir.ControlTransfer{
					Kind:      ir.TransferConditional,
					Condition: ir.PathOf(ir.Positive(pred)),
				},
				frame: frame.Clone(),
			})
		}
		out = append(out, successor{
			target: insn.Default,
			transfer: ir.ControlTransfer{
				Kind:      ir.TransferConditional,
				Condition: defaultCond,
			},
			frame: frame,
		})
		return out, nil
	case ir.Definition:
		switch expr := insn.Expr.(type) {
		case ir.Throw:
			return g.exceptionEdges(pc, frame), nil
		case ir.Subroutine:
			frame.AddRetAddress(expr.ReturnAddress)
			return []successor{{
				target:   expr.Target,
				transfer: ir.ControlTransfer{Kind: ir.TransferUnconditional},
				frame:    frame,
			}}, nil
		default:
			return g.fallthroughWithExceptions(pc, frame)
		}
	}
	return g.fallthroughWithExceptions(pc, frame)
}

func (g *generator) fallthroughWithExceptions(pc jvm.ProgramCounter, frame *Frame) ([]successor, error) {
	next, err := g.nextPC(pc)
	if err != nil {
		return nil, err
	}
	out := g.exceptionEdges(pc, frame)
	out = append(out, successor{
		target:   next,
		transfer: ir.ControlTransfer{Kind: ir.TransferUnconditional},
		frame:    frame,
	})
	return out, nil
}

// exceptionEdges builds one Exception edge per handler covering pc,
// collecting the caught types of all table entries sharing the handler.
// The handler frame keeps the locals and holds only the caught exception
// on the stack.
func (g *generator) exceptionEdges(pc jvm.ProgramCounter, frame *Frame) []successor {
	caught := map[jvm.ProgramCounter][]jvm.ClassRef{}
	var handlers []jvm.ProgramCounter
	for _, entry := range g.body.ExceptionTable {
		if !entry.Covers(pc) {
			continue
		}
		if _, seen := caught[entry.HandlerPC]; !seen {
			handlers = append(handlers, entry.HandlerPC)
		}
		caught[entry.HandlerPC] = appendUniqueClass(caught[entry.HandlerPC], entry.CaughtType())
	}
	out := make([]successor, 0, len(handlers))
	for _, handler := range handlers {
		exception := ir.Just(ir.CaughtException{Handler: handler})
		out = append(out, successor{
			target: handler,
			transfer: ir.ControlTransfer{
				Kind:       ir.TransferException,
				Exceptions: caught[handler],
			},
			frame: frame.SameLocalsOneStackItem(valueEntry(exception)),
		})
	}
	return out
}

func appendUniqueClass(refs []jvm.ClassRef, ref jvm.ClassRef) []jvm.ClassRef {
	for _, existing := range refs {
		if existing == ref {
			return refs
		}
	}
	return append(refs, ref)
}
