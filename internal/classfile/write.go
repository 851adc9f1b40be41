// internal/classfile/write.go
//
// The symmetric writer path. Members and attributes are lowered into raw
// structures first, populating a fresh deduplicated constant pool; the wire
// image is emitted only once the pool is complete, since the pool is
// written before everything that references it.
package classfile

import (
	"io"
	"math"

	pkgerrors "github.com/pkg/errors"

	"klasse/internal/errors"
	"klasse/internal/instruction"
	"klasse/internal/jvm"
)

type rawAttr struct {
	nameIndex uint16
	payload   []byte
}

type rawMember struct {
	access    uint16
	nameIndex uint16
	descIndex uint16
	attrs     []rawAttr
}

// Serialize writes the class back into class-file form. The output is
// bit-exact with the input up to constant-pool deduplication and sorted
// lookupswitch keys.
func Serialize(c *Class, w io.Writer) error {
	pool := NewConstantPool()
	thisIndex, err := pool.PutClassRef(c.Ref())
	if err != nil {
		return err
	}
	var superIndex uint16
	if c.SuperClass != nil {
		if superIndex, err = pool.PutClassRef(*c.SuperClass); err != nil {
			return err
		}
	}
	interfaceIndices := make([]uint16, 0, len(c.Interfaces))
	for _, ref := range c.Interfaces {
		index, err := pool.PutClassRef(ref)
		if err != nil {
			return err
		}
		interfaceIndices = append(interfaceIndices, index)
	}
	fields := make([]rawMember, 0, len(c.Fields))
	for i := range c.Fields {
		member, err := buildField(&c.Fields[i], pool)
		if err != nil {
			return pkgerrors.Wrapf(err, "field %s", c.Fields[i].Name)
		}
		fields = append(fields, member)
	}
	methods := make([]rawMember, 0, len(c.Methods))
	for i := range c.Methods {
		member, err := buildMethod(&c.Methods[i], pool)
		if err != nil {
			return pkgerrors.Wrapf(err, "method %s", c.Methods[i].Name)
		}
		methods = append(methods, member)
	}
	classAttrs, err := buildClassAttributes(c, pool)
	if err != nil {
		return err
	}

	out := &attrWriter{}
	out.u4(classFileMagic)
	out.u2(c.Version.Minor)
	out.u2(c.Version.Major)
	writePool(out, pool)
	out.u2(uint16(c.AccessFlags))
	out.u2(thisIndex)
	out.u2(superIndex)
	out.u2(uint16(len(interfaceIndices)))
	for _, index := range interfaceIndices {
		out.u2(index)
	}
	out.u2(uint16(len(fields)))
	for _, member := range fields {
		writeMember(out, member)
	}
	out.u2(uint16(len(methods)))
	for _, member := range methods {
		writeMember(out, member)
	}
	writeAttrs(out, classAttrs)

	if _, err := w.Write(out.buf); err != nil {
		return errors.Wrap(errors.IoFailure, err, "writing class file")
	}
	return nil
}

func writePool(out *attrWriter, pool *ConstantPool) {
	out.u2(pool.Count())
	for _, slot := range pool.slots {
		if slot == nil {
			continue
		}
		writePoolEntry(out, *slot)
	}
}

func writePoolEntry(out *attrWriter, entry PoolEntry) {
	out.u1(uint8(entry.Tag))
	switch entry.Tag {
	case TagUtf8:
		raw := entry.Utf8.Bytes()
		out.u2(uint16(len(raw)))
		out.raw(raw)
	case TagInteger:
		out.u4(uint32(entry.Int))
	case TagFloat:
		out.u4(math.Float32bits(entry.Float))
	case TagLong:
		out.u8(uint64(entry.Long))
	case TagDouble:
		out.u8(math.Float64bits(entry.Double))
	case TagClass, TagModule, TagPackage:
		out.u2(entry.NameIndex)
	case TagString:
		out.u2(entry.StringIndex)
	case TagFieldRef, TagMethodRef, TagInterfaceMethodRef:
		out.u2(entry.ClassIndex)
		out.u2(entry.NameAndTypeIndex)
	case TagNameAndType:
		out.u2(entry.NameIndex)
		out.u2(entry.DescriptorIndex)
	case TagMethodHandle:
		out.u1(entry.ReferenceKind)
		out.u2(entry.ReferenceIndex)
	case TagMethodType:
		out.u2(entry.DescriptorIndex)
	case TagDynamic, TagInvokeDynamic:
		out.u2(entry.BootstrapIndex)
		out.u2(entry.NameAndTypeIndex)
	}
}

func writeMember(out *attrWriter, member rawMember) {
	out.u2(member.access)
	out.u2(member.nameIndex)
	out.u2(member.descIndex)
	writeAttrs(out, member.attrs)
}

func writeAttrs(out *attrWriter, attrs []rawAttr) {
	out.u2(uint16(len(attrs)))
	for _, attr := range attrs {
		out.u2(attr.nameIndex)
		out.u4(uint32(len(attr.payload)))
		out.raw(attr.payload)
	}
}

func putAttr(pool *ConstantPool, name string, payload []byte) (rawAttr, error) {
	nameIndex, err := pool.PutStr(name)
	if err != nil {
		return rawAttr{}, err
	}
	return rawAttr{nameIndex: nameIndex, payload: payload}, nil
}

func appendAttr(attrs []rawAttr, pool *ConstantPool, name string, payload []byte) ([]rawAttr, error) {
	attr, err := putAttr(pool, name, payload)
	if err != nil {
		return attrs, err
	}
	return append(attrs, attr), nil
}

func buildField(f *Field, pool *ConstantPool) (rawMember, error) {
	member := rawMember{access: uint16(f.AccessFlags)}
	var err error
	if member.nameIndex, err = pool.PutStr(f.Name); err != nil {
		return member, err
	}
	if member.descIndex, err = pool.PutStr(f.Type.Descriptor()); err != nil {
		return member, err
	}
	if f.ConstantValue != nil {
		valueIndex, err := pool.PutConstantValue(f.ConstantValue)
		if err != nil {
			return member, err
		}
		w := &attrWriter{}
		w.u2(valueIndex)
		if member.attrs, err = appendAttr(member.attrs, pool, attrConstantValue, w.buf); err != nil {
			return member, err
		}
	}
	if member.attrs, err = buildCommonAttributes(member.attrs, pool,
		f.Signature, f.IsSynthetic, f.IsDeprecated, f.Annotations); err != nil {
		return member, err
	}
	member.attrs, err = appendFreeAttrs(member.attrs, pool, f.FreeAttributes)
	return member, err
}

func buildMethod(m *Method, pool *ConstantPool) (rawMember, error) {
	member := rawMember{access: uint16(m.AccessFlags)}
	var err error
	if member.nameIndex, err = pool.PutStr(m.Name); err != nil {
		return member, err
	}
	if member.descIndex, err = pool.PutStr(m.Descriptor.Descriptor()); err != nil {
		return member, err
	}
	if m.Body != nil {
		payload, err := buildCode(m.Body, pool)
		if err != nil {
			return member, err
		}
		if member.attrs, err = appendAttr(member.attrs, pool, attrCode, payload); err != nil {
			return member, err
		}
	}
	if len(m.Exceptions) > 0 {
		w := &attrWriter{}
		w.u2(uint16(len(m.Exceptions)))
		for _, ref := range m.Exceptions {
			index, err := pool.PutClassRef(ref)
			if err != nil {
				return member, err
			}
			w.u2(index)
		}
		if member.attrs, err = appendAttr(member.attrs, pool, attrExceptions, w.buf); err != nil {
			return member, err
		}
	}
	if len(m.Parameters) > 0 {
		w := &attrWriter{}
		w.u1(uint8(len(m.Parameters)))
		for _, param := range m.Parameters {
			var nameIndex uint16
			if param.Name != "" {
				if nameIndex, err = pool.PutStr(param.Name); err != nil {
					return member, err
				}
			}
			w.u2(nameIndex)
			w.u2(param.AccessFlags)
		}
		if member.attrs, err = appendAttr(member.attrs, pool, attrMethodParameters, w.buf); err != nil {
			return member, err
		}
	}
	if member.attrs, err = buildCommonAttributes(member.attrs, pool,
		m.Signature, m.IsSynthetic, m.IsDeprecated, m.Annotations); err != nil {
		return member, err
	}
	if m.Annotations.RuntimeVisibleParameter != nil {
		if member.attrs, err = appendAttr(member.attrs, pool,
			attrRuntimeVisibleParameterAnnotations, m.Annotations.RuntimeVisibleParameter); err != nil {
			return member, err
		}
	}
	if m.Annotations.RuntimeInvisibleParameter != nil {
		if member.attrs, err = appendAttr(member.attrs, pool,
			attrRuntimeInvisibleParameterAnnotations, m.Annotations.RuntimeInvisibleParameter); err != nil {
			return member, err
		}
	}
	if m.Annotations.AnnotationDefault != nil {
		if member.attrs, err = appendAttr(member.attrs, pool,
			attrAnnotationDefault, m.Annotations.AnnotationDefault); err != nil {
			return member, err
		}
	}
	member.attrs, err = appendFreeAttrs(member.attrs, pool, m.FreeAttributes)
	return member, err
}

// buildCommonAttributes emits the attributes shared by classes, fields, and
// methods.
func buildCommonAttributes(attrs []rawAttr, pool *ConstantPool,
	signature string, synthetic, deprecated bool, annotations AnnotationAttributes) ([]rawAttr, error) {
	var err error
	if signature != "" {
		sigIndex, err := pool.PutStr(signature)
		if err != nil {
			return attrs, err
		}
		w := &attrWriter{}
		w.u2(sigIndex)
		if attrs, err = appendAttr(attrs, pool, attrSignature, w.buf); err != nil {
			return attrs, err
		}
	}
	if synthetic {
		if attrs, err = appendAttr(attrs, pool, attrSynthetic, nil); err != nil {
			return attrs, err
		}
	}
	if deprecated {
		if attrs, err = appendAttr(attrs, pool, attrDeprecated, nil); err != nil {
			return attrs, err
		}
	}
	for _, pair := range []struct {
		name    string
		payload []byte
	}{
		{attrRuntimeVisibleAnnotations, annotations.RuntimeVisible},
		{attrRuntimeInvisibleAnnotations, annotations.RuntimeInvisible},
		{attrRuntimeVisibleTypeAnnotations, annotations.RuntimeVisibleType},
		{attrRuntimeInvisibleTypeAnnotations, annotations.RuntimeInvisibleType},
	} {
		if pair.payload == nil {
			continue
		}
		if attrs, err = appendAttr(attrs, pool, pair.name, pair.payload); err != nil {
			return attrs, err
		}
	}
	return attrs, nil
}

func appendFreeAttrs(attrs []rawAttr, pool *ConstantPool, free []RawAttribute) ([]rawAttr, error) {
	var err error
	for _, attr := range free {
		if attrs, err = appendAttr(attrs, pool, attr.Name, attr.Payload); err != nil {
			return attrs, err
		}
	}
	return attrs, nil
}

func buildClassAttributes(c *Class, pool *ConstantPool) ([]rawAttr, error) {
	var attrs []rawAttr
	var err error
	if c.SourceFile != "" {
		fileIndex, err := pool.PutStr(c.SourceFile)
		if err != nil {
			return nil, err
		}
		w := &attrWriter{}
		w.u2(fileIndex)
		if attrs, err = appendAttr(attrs, pool, attrSourceFile, w.buf); err != nil {
			return nil, err
		}
	}
	if c.SourceDebugExtension != nil {
		if attrs, err = appendAttr(attrs, pool, attrSourceDebugExtension, c.SourceDebugExtension); err != nil {
			return nil, err
		}
	}
	if len(c.InnerClasses) > 0 {
		w := &attrWriter{}
		w.u2(uint16(len(c.InnerClasses)))
		for _, info := range c.InnerClasses {
			innerIndex, err := pool.PutClassRef(info.InnerClass)
			if err != nil {
				return nil, err
			}
			var outerIndex uint16
			if info.OuterClass != nil {
				if outerIndex, err = pool.PutClassRef(*info.OuterClass); err != nil {
					return nil, err
				}
			}
			var nameIndex uint16
			if info.InnerName != "" {
				if nameIndex, err = pool.PutStr(info.InnerName); err != nil {
					return nil, err
				}
			}
			w.u2(innerIndex)
			w.u2(outerIndex)
			w.u2(nameIndex)
			w.u2(uint16(info.AccessFlags))
		}
		if attrs, err = appendAttr(attrs, pool, attrInnerClasses, w.buf); err != nil {
			return nil, err
		}
	}
	if c.EnclosingMethod != nil {
		classIndex, err := pool.PutClassRef(c.EnclosingMethod.Class)
		if err != nil {
			return nil, err
		}
		var ntIndex uint16
		if c.EnclosingMethod.MethodDescriptor != nil {
			if ntIndex, err = pool.PutNameAndType(c.EnclosingMethod.MethodName,
				c.EnclosingMethod.MethodDescriptor.Descriptor()); err != nil {
				return nil, err
			}
		}
		w := &attrWriter{}
		w.u2(classIndex)
		w.u2(ntIndex)
		if attrs, err = appendAttr(attrs, pool, attrEnclosingMethod, w.buf); err != nil {
			return nil, err
		}
	}
	if len(c.BootstrapMethods) > 0 {
		w := &attrWriter{}
		w.u2(uint16(len(c.BootstrapMethods)))
		for _, bsm := range c.BootstrapMethods {
			handleIndex, err := pool.PutMethodHandle(bsm.Method)
			if err != nil {
				return nil, err
			}
			w.u2(handleIndex)
			w.u2(uint16(len(bsm.Arguments)))
			for _, arg := range bsm.Arguments {
				argIndex, err := pool.PutConstantValue(arg)
				if err != nil {
					return nil, err
				}
				w.u2(argIndex)
			}
		}
		if attrs, err = appendAttr(attrs, pool, attrBootstrapMethods, w.buf); err != nil {
			return nil, err
		}
	}
	if c.ModuleRaw != nil {
		if attrs, err = appendAttr(attrs, pool, attrModule, c.ModuleRaw); err != nil {
			return nil, err
		}
	}
	if len(c.ModulePackages) > 0 {
		w := &attrWriter{}
		w.u2(uint16(len(c.ModulePackages)))
		for _, ref := range c.ModulePackages {
			index, err := pool.PutPackageRef(ref)
			if err != nil {
				return nil, err
			}
			w.u2(index)
		}
		if attrs, err = appendAttr(attrs, pool, attrModulePackages, w.buf); err != nil {
			return nil, err
		}
	}
	if c.ModuleMainClass != nil {
		index, err := pool.PutClassRef(*c.ModuleMainClass)
		if err != nil {
			return nil, err
		}
		w := &attrWriter{}
		w.u2(index)
		if attrs, err = appendAttr(attrs, pool, attrModuleMainClass, w.buf); err != nil {
			return nil, err
		}
	}
	if c.NestHost != nil {
		index, err := pool.PutClassRef(*c.NestHost)
		if err != nil {
			return nil, err
		}
		w := &attrWriter{}
		w.u2(index)
		if attrs, err = appendAttr(attrs, pool, attrNestHost, w.buf); err != nil {
			return nil, err
		}
	}
	if len(c.NestMembers) > 0 {
		payload, err := buildClassList(c.NestMembers, pool)
		if err != nil {
			return nil, err
		}
		if attrs, err = appendAttr(attrs, pool, attrNestMembers, payload); err != nil {
			return nil, err
		}
	}
	if c.RecordRaw != nil {
		if attrs, err = appendAttr(attrs, pool, attrRecord, c.RecordRaw); err != nil {
			return nil, err
		}
	}
	if len(c.PermittedSubclasses) > 0 {
		payload, err := buildClassList(c.PermittedSubclasses, pool)
		if err != nil {
			return nil, err
		}
		if attrs, err = appendAttr(attrs, pool, attrPermittedSubclasses, payload); err != nil {
			return nil, err
		}
	}
	if attrs, err = buildCommonAttributes(attrs, pool,
		c.Signature, c.IsSynthetic, c.IsDeprecated, c.Annotations); err != nil {
		return nil, err
	}
	return appendFreeAttrs(attrs, pool, c.FreeAttributes)
}

func buildClassList(refs []jvm.ClassRef, pool *ConstantPool) ([]byte, error) {
	w := &attrWriter{}
	w.u2(uint16(len(refs)))
	for _, ref := range refs {
		index, err := pool.PutClassRef(ref)
		if err != nil {
			return nil, err
		}
		w.u2(index)
	}
	return w.buf, nil
}

func buildCode(body *MethodBody, pool *ConstantPool) ([]byte, error) {
	rawItems := make(map[jvm.ProgramCounter]instruction.RawInstruction, body.Instructions.Len())
	for _, pc := range body.Instructions.PCs() {
		insn, _ := body.Instructions.At(pc)
		raw, err := unresolveInstruction(insn, pc, pool)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "instruction %s at %s", insn.Op, pc)
		}
		rawItems[pc] = raw
	}
	code, err := instruction.EncodeRaw(jvm.NewInstructionList(rawItems))
	if err != nil {
		return nil, err
	}

	w := &attrWriter{}
	w.u2(body.MaxStack)
	w.u2(body.MaxLocals)
	w.u4(uint32(len(code)))
	w.raw(code)
	w.u2(uint16(len(body.ExceptionTable)))
	for _, entry := range body.ExceptionTable {
		w.u2(uint16(entry.StartPC))
		w.u2(uint16(entry.EndPC))
		w.u2(uint16(entry.HandlerPC))
		var catchIndex uint16
		if entry.CatchType != nil {
			if catchIndex, err = pool.PutClassRef(*entry.CatchType); err != nil {
				return nil, err
			}
		}
		w.u2(catchIndex)
	}

	var attrs []rawAttr
	if len(body.LineNumbers) > 0 {
		t := &attrWriter{}
		t.u2(uint16(len(body.LineNumbers)))
		for _, entry := range body.LineNumbers {
			t.u2(uint16(entry.StartPC))
			t.u2(entry.Line)
		}
		if attrs, err = appendAttr(attrs, pool, attrLineNumberTable, t.buf); err != nil {
			return nil, err
		}
	}
	if len(body.LocalVariables) > 0 {
		t := &attrWriter{}
		t.u2(uint16(len(body.LocalVariables)))
		for _, entry := range body.LocalVariables {
			nameIndex, err := pool.PutStr(entry.Name)
			if err != nil {
				return nil, err
			}
			descIndex, err := pool.PutStr(entry.Type.Descriptor())
			if err != nil {
				return nil, err
			}
			t.u2(uint16(entry.StartPC))
			t.u2(entry.Length)
			t.u2(nameIndex)
			t.u2(descIndex)
			t.u2(entry.Index)
		}
		if attrs, err = appendAttr(attrs, pool, attrLocalVariableTable, t.buf); err != nil {
			return nil, err
		}
	}
	if len(body.LocalVariableTypes) > 0 {
		t := &attrWriter{}
		t.u2(uint16(len(body.LocalVariableTypes)))
		for _, entry := range body.LocalVariableTypes {
			nameIndex, err := pool.PutStr(entry.Name)
			if err != nil {
				return nil, err
			}
			sigIndex, err := pool.PutStr(entry.Signature)
			if err != nil {
				return nil, err
			}
			t.u2(uint16(entry.StartPC))
			t.u2(entry.Length)
			t.u2(nameIndex)
			t.u2(sigIndex)
			t.u2(entry.Index)
		}
		if attrs, err = appendAttr(attrs, pool, attrLocalVariableTypeTable, t.buf); err != nil {
			return nil, err
		}
	}
	if len(body.StackMapTable) > 0 {
		payload, err := buildStackMapTable(body.StackMapTable, pool)
		if err != nil {
			return nil, err
		}
		if attrs, err = appendAttr(attrs, pool, attrStackMapTable, payload); err != nil {
			return nil, err
		}
	}
	if attrs, err = appendFreeAttrs(attrs, pool, body.FreeAttributes); err != nil {
		return nil, err
	}
	writeAttrs(w, attrs)
	return w.buf, nil
}

func buildStackMapTable(frames []StackMapFrame, pool *ConstantPool) ([]byte, error) {
	w := &attrWriter{}
	w.u2(uint16(len(frames)))
	for _, frame := range frames {
		w.u1(frame.FrameType)
		switch {
		case frame.FrameType <= 63:
		case frame.FrameType <= 127:
			if err := writeVerificationTypes(w, frame.Stack, pool); err != nil {
				return nil, err
			}
		case frame.FrameType <= 246:
			return nil, errors.Newf(errors.Malformed, "stack map frame type %d is reserved", frame.FrameType)
		case frame.FrameType == 247:
			w.u2(frame.OffsetDelta)
			if err := writeVerificationTypes(w, frame.Stack, pool); err != nil {
				return nil, err
			}
		case frame.FrameType <= 251:
			w.u2(frame.OffsetDelta)
		case frame.FrameType <= 254:
			w.u2(frame.OffsetDelta)
			if err := writeVerificationTypes(w, frame.Locals, pool); err != nil {
				return nil, err
			}
		default:
			w.u2(frame.OffsetDelta)
			w.u2(uint16(len(frame.Locals)))
			if err := writeVerificationTypes(w, frame.Locals, pool); err != nil {
				return nil, err
			}
			w.u2(uint16(len(frame.Stack)))
			if err := writeVerificationTypes(w, frame.Stack, pool); err != nil {
				return nil, err
			}
		}
	}
	return w.buf, nil
}

func writeVerificationTypes(w *attrWriter, types []VerificationType, pool *ConstantPool) error {
	for _, vt := range types {
		w.u1(vt.Tag)
		switch vt.Tag {
		case VerificationObject:
			if vt.Class == nil {
				return errors.New(errors.Malformed, "object verification type without a class")
			}
			index, err := pool.PutClassRef(*vt.Class)
			if err != nil {
				return err
			}
			w.u2(index)
		case VerificationUninitialized:
			w.u2(vt.Offset)
		}
	}
	return nil
}

// unresolveInstruction lowers a resolved instruction back to its raw form,
// re-interning its operands into the pool.
func unresolveInstruction(insn instruction.Instruction, pc jvm.ProgramCounter, pool *ConstantPool) (instruction.RawInstruction, error) {
	raw := instruction.RawInstruction{
		Op:         insn.Op,
		WideOp:     insn.WideOp,
		Index:      insn.Index,
		Value:      insn.Value,
		Count:      insn.Count,
		Dimensions: insn.Dimensions,
		Low:        insn.Low,
		High:       insn.High,
	}
	var err error
	switch insn.Op {
	case instruction.OpLdc, instruction.OpLdcW, instruction.OpLdc2W:
		if raw.Index, err = pool.PutConstantValue(insn.Constant); err != nil {
			return raw, err
		}
	case instruction.OpIfEq, instruction.OpIfNe, instruction.OpIfLt,
		instruction.OpIfGe, instruction.OpIfGt, instruction.OpIfLe,
		instruction.OpIfICmpEq, instruction.OpIfICmpNe, instruction.OpIfICmpLt,
		instruction.OpIfICmpGe, instruction.OpIfICmpGt, instruction.OpIfICmpLe,
		instruction.OpIfACmpEq, instruction.OpIfACmpNe,
		instruction.OpIfNull, instruction.OpIfNonNull,
		instruction.OpGoto, instruction.OpJsr,
		instruction.OpGotoW, instruction.OpJsrW:
		raw.Offset = int32(insn.Target) - int32(pc)
	case instruction.OpTableSwitch:
		raw.Default = int32(insn.Default) - int32(pc)
		raw.JumpOffsets = make([]int32, 0, len(insn.Targets))
		for _, target := range insn.Targets {
			raw.JumpOffsets = append(raw.JumpOffsets, int32(target)-int32(pc))
		}
	case instruction.OpLookupSwitch:
		raw.Default = int32(insn.Default) - int32(pc)
		raw.MatchOffsets = make([]instruction.MatchOffset, 0, len(insn.MatchTargets))
		for _, pair := range insn.MatchTargets {
			raw.MatchOffsets = append(raw.MatchOffsets,
				instruction.MatchOffset{Match: pair.Match, Offset: int32(pair.Target) - int32(pc)})
		}
	case instruction.OpGetStatic, instruction.OpPutStatic,
		instruction.OpGetField, instruction.OpPutField:
		if raw.Index, err = pool.PutFieldRef(*insn.Field); err != nil {
			return raw, err
		}
	case instruction.OpInvokeVirtual, instruction.OpInvokeSpecial,
		instruction.OpInvokeStatic, instruction.OpInvokeInterface:
		isInterface := insn.Op == instruction.OpInvokeInterface
		if raw.Index, err = pool.PutMethodRef(*insn.Method, isInterface); err != nil {
			return raw, err
		}
	case instruction.OpInvokeDynamic:
		ntIndex, err := pool.PutNameAndType(insn.Name, insn.Descriptor.Descriptor())
		if err != nil {
			return raw, err
		}
		index, _, err := pool.PutEntryDedup(PoolEntry{
			Tag:              TagInvokeDynamic,
			BootstrapIndex:   insn.Bootstrap,
			NameAndTypeIndex: ntIndex,
		})
		if err != nil {
			return raw, err
		}
		raw.Index = index
	case instruction.OpNew, instruction.OpANewArray:
		if raw.Index, err = pool.PutClassRef(insn.Class); err != nil {
			return raw, err
		}
	case instruction.OpNewArray:
		if raw.AType, err = atypeFromPrimitive(insn.Prim); err != nil {
			return raw, err
		}
	case instruction.OpCheckCast, instruction.OpInstanceOf, instruction.OpMultiANewArray:
		if raw.Index, err = pool.PutTypeRef(insn.Type); err != nil {
			return raw, err
		}
	}
	return raw, nil
}

// attrWriter accumulates big-endian wire data.
type attrWriter struct {
	buf []byte
}

func (w *attrWriter) u1(v uint8)  { w.buf = append(w.buf, v) }
func (w *attrWriter) u2(v uint16) { w.buf = append(w.buf, byte(v>>8), byte(v)) }
func (w *attrWriter) u4(v uint32) {
	w.buf = append(w.buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
func (w *attrWriter) u8(v uint64) {
	w.u4(uint32(v >> 32))
	w.u4(uint32(v))
}
func (w *attrWriter) raw(b []byte) { w.buf = append(w.buf, b...) }
