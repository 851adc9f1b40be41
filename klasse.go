// Package klasse parses JVM class files, serialises them back, lifts method
// bytecode into a register-based SSA IR with a control-flow graph, and
// computes DNF path conditions over that graph.
package klasse

import (
	"io"

	"klasse/internal/classfile"
	"klasse/internal/ir"
	"klasse/internal/jvm"
	"klasse/internal/lifter"
)

// Class is a parsed class file.
type Class = classfile.Class

// Method is a parsed method of a class.
type Method = classfile.Method

// MethodIR is the lifted SSA form of a method.
type MethodIR = lifter.MethodIR

// CFG is the control-flow graph of a lifted method.
type CFG = ir.CFG

// PathCondition is a boolean formula in disjunctive normal form.
type PathCondition = ir.PathCondition

// ProgramCounter is a byte offset into a method's code array.
type ProgramCounter = jvm.ProgramCounter

// ParseClass reads a class file.
func ParseClass(r io.Reader) (*Class, error) {
	return classfile.Parse(r)
}

// SerializeClass writes a class back into class-file form. The output is
// bit-exact with the original input up to constant-pool deduplication and
// sorted lookupswitch keys.
func SerializeClass(class *Class, w io.Writer) error {
	return classfile.Serialize(class, w)
}

// LiftMethod lifts a method's bytecode into SSA IR and a CFG.
func LiftMethod(method *Method) (*MethodIR, error) {
	return lifter.Lift(method)
}

// AnalysePathConditions computes the path condition under which execution
// reaches each program counter of a lifted method's CFG.
func AnalysePathConditions(cfg *CFG) (map[ProgramCounter]PathCondition, error) {
	return ir.AnalysePathConditions(cfg)
}
