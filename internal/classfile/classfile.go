// internal/classfile/classfile.go
//
// The parsed class model. Attributes that affect control flow are fully
// structured; the rest are lightly structured or preserved verbatim, and
// unrecognised attributes always survive a round trip as (name, bytes)
// pairs.
package classfile

import (
	"fmt"

	"klasse/internal/instruction"
	"klasse/internal/jvm"
)

// Class is a parsed class file.
type Class struct {
	Version     jvm.Version
	AccessFlags jvm.ClassAccessFlags
	BinaryName  string
	SuperClass  *jvm.ClassRef
	Interfaces  []jvm.ClassRef
	Fields      []Field
	Methods     []Method

	SourceFile           string
	SourceDebugExtension []byte
	Signature            string
	IsSynthetic          bool
	IsDeprecated         bool
	InnerClasses         []InnerClassInfo
	EnclosingMethod      *EnclosingMethod
	BootstrapMethods     []BootstrapMethod
	NestHost             *jvm.ClassRef
	NestMembers          []jvm.ClassRef
	PermittedSubclasses  []jvm.ClassRef
	ModulePackages       []jvm.PackageRef
	ModuleMainClass      *jvm.ClassRef
	Annotations          AnnotationAttributes

	// Module and Record payloads embed constant-pool structure that control
	// flow never consumes; they are carried opaquely.
	ModuleRaw []byte
	RecordRaw []byte

	FreeAttributes []RawAttribute
}

// Ref returns a symbolic reference to this class.
func (c *Class) Ref() jvm.ClassRef {
	return jvm.ClassRef{BinaryName: c.BinaryName}
}

// Field is a parsed field_info structure.
type Field struct {
	AccessFlags   jvm.FieldAccessFlags
	Name          string
	Type          jvm.FieldType
	ConstantValue jvm.ConstantValue
	Signature     string
	IsSynthetic   bool
	IsDeprecated  bool
	Annotations   AnnotationAttributes

	FreeAttributes []RawAttribute
}

// Method is a parsed method_info structure.
type Method struct {
	AccessFlags jvm.MethodAccessFlags
	Owner       jvm.ClassRef
	Name        string
	Descriptor  jvm.MethodDescriptor
	Body        *MethodBody

	Exceptions   []jvm.ClassRef
	Parameters   []MethodParameter
	Signature    string
	IsSynthetic  bool
	IsDeprecated bool
	Annotations  AnnotationAttributes

	FreeAttributes []RawAttribute
}

// IsStatic reports whether the method has the static access flag.
func (m *Method) IsStatic() bool {
	return m.AccessFlags.Has(jvm.MethodStatic)
}

func (m *Method) String() string {
	return fmt.Sprintf("%s.%s%s", m.Owner.BinaryName, m.Name, m.Descriptor.Descriptor())
}

// MethodBody is a parsed Code attribute.
type MethodBody struct {
	MaxStack  uint16
	MaxLocals uint16

	Instructions   jvm.InstructionList[instruction.Instruction]
	ExceptionTable []ExceptionTableEntry

	LineNumbers        []LineNumberEntry
	LocalVariables     []LocalVariableEntry
	LocalVariableTypes []LocalVariableTypeEntry
	StackMapTable      []StackMapFrame

	FreeAttributes []RawAttribute
}

// ExceptionTableEntry is one handler range of a Code attribute. A nil
// CatchType catches everything (java/lang/Throwable).
type ExceptionTableEntry struct {
	StartPC   jvm.ProgramCounter
	EndPC     jvm.ProgramCounter
	HandlerPC jvm.ProgramCounter
	CatchType *jvm.ClassRef
}

// Covers reports whether the entry's range contains pc.
func (e ExceptionTableEntry) Covers(pc jvm.ProgramCounter) bool {
	return e.StartPC <= pc && pc <= e.EndPC
}

// CaughtType returns the caught class, defaulting to java/lang/Throwable
// for catch-all entries.
func (e ExceptionTableEntry) CaughtType() jvm.ClassRef {
	if e.CatchType == nil {
		return jvm.ClassRef{BinaryName: "java/lang/Throwable"}
	}
	return *e.CatchType
}

// RawAttribute is an attribute preserved verbatim.
type RawAttribute struct {
	Name    string
	Payload []byte
}

// AnnotationAttributes carries the annotation attribute payloads of an
// element, preserved opaquely. A nil slice means the attribute is absent.
type AnnotationAttributes struct {
	RuntimeVisible            []byte
	RuntimeInvisible          []byte
	RuntimeVisibleType        []byte
	RuntimeInvisibleType      []byte
	RuntimeVisibleParameter   []byte
	RuntimeInvisibleParameter []byte
	AnnotationDefault         []byte
}

// InnerClassInfo is one entry of the InnerClasses attribute.
type InnerClassInfo struct {
	InnerClass  jvm.ClassRef
	OuterClass  *jvm.ClassRef
	InnerName   string
	AccessFlags jvm.NestedClassAccessFlags
}

// EnclosingMethod is the EnclosingMethod attribute. MethodName is empty for
// code enclosed directly in a class initializer.
type EnclosingMethod struct {
	Class            jvm.ClassRef
	MethodName       string
	MethodDescriptor *jvm.MethodDescriptor
}

// BootstrapMethod is one entry of the BootstrapMethods attribute.
type BootstrapMethod struct {
	Method    jvm.MethodHandle
	Arguments []jvm.ConstantValue
}

// MethodParameter is one entry of the MethodParameters attribute.
type MethodParameter struct {
	Name        string
	AccessFlags uint16
}

// LineNumberEntry maps a program counter to a source line.
type LineNumberEntry struct {
	StartPC jvm.ProgramCounter
	Line    uint16
}

// LocalVariableEntry is one entry of the LocalVariableTable attribute.
type LocalVariableEntry struct {
	StartPC jvm.ProgramCounter
	Length  uint16
	Name    string
	Type    jvm.FieldType
	Index   uint16
}

// LocalVariableTypeEntry is one entry of the LocalVariableTypeTable
// attribute; the signature is kept as its raw string.
type LocalVariableTypeEntry struct {
	StartPC   jvm.ProgramCounter
	Length    uint16
	Name      string
	Signature string
	Index     uint16
}

// StackMapFrame is a lightly structured stack_map_frame.
type StackMapFrame struct {
	FrameType   uint8
	OffsetDelta uint16
	Locals      []VerificationType
	Stack       []VerificationType
}

// Verification type tags.
const (
	VerificationTop uint8 = iota
	VerificationInteger
	VerificationFloat
	VerificationDouble
	VerificationLong
	VerificationNull
	VerificationUninitializedThis
	VerificationObject
	VerificationUninitialized
)

// VerificationType is one verification_type_info union member. Class is set
// for Object entries, Offset for Uninitialized entries.
type VerificationType struct {
	Tag    uint8
	Class  *jvm.ClassRef
	Offset uint16
}
