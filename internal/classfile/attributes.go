// internal/classfile/attributes.go
//
// Attribute decoding. Attributes are first loaded as raw (name, payload)
// pairs, then interpreted by name; unrecognised names are preserved
// verbatim on the enclosing element.
package classfile

import (
	"bytes"

	pkgerrors "github.com/pkg/errors"

	"klasse/internal/errors"
	"klasse/internal/jvm"
)

// Recognised attribute names.
const (
	attrCode                                 = "Code"
	attrLineNumberTable                      = "LineNumberTable"
	attrLocalVariableTable                   = "LocalVariableTable"
	attrLocalVariableTypeTable               = "LocalVariableTypeTable"
	attrStackMapTable                        = "StackMapTable"
	attrExceptions                           = "Exceptions"
	attrInnerClasses                         = "InnerClasses"
	attrEnclosingMethod                      = "EnclosingMethod"
	attrSynthetic                            = "Synthetic"
	attrDeprecated                           = "Deprecated"
	attrSignature                            = "Signature"
	attrSourceFile                           = "SourceFile"
	attrSourceDebugExtension                 = "SourceDebugExtension"
	attrConstantValue                        = "ConstantValue"
	attrBootstrapMethods                     = "BootstrapMethods"
	attrMethodParameters                     = "MethodParameters"
	attrModule                               = "Module"
	attrModulePackages                       = "ModulePackages"
	attrModuleMainClass                      = "ModuleMainClass"
	attrNestHost                             = "NestHost"
	attrNestMembers                          = "NestMembers"
	attrRecord                               = "Record"
	attrPermittedSubclasses                  = "PermittedSubclasses"
	attrRuntimeVisibleAnnotations            = "RuntimeVisibleAnnotations"
	attrRuntimeInvisibleAnnotations          = "RuntimeInvisibleAnnotations"
	attrRuntimeVisibleTypeAnnotations        = "RuntimeVisibleTypeAnnotations"
	attrRuntimeInvisibleTypeAnnotations      = "RuntimeInvisibleTypeAnnotations"
	attrRuntimeVisibleParameterAnnotations   = "RuntimeVisibleParameterAnnotations"
	attrRuntimeInvisibleParameterAnnotations = "RuntimeInvisibleParameterAnnotations"
	attrAnnotationDefault                    = "AnnotationDefault"
)

// readRawAttributes loads an attribute table as (name, payload) pairs.
func readRawAttributes(br *byteReader, pool *ConstantPool) ([]RawAttribute, error) {
	count, err := br.u2()
	if err != nil {
		return nil, err
	}
	attrs := make([]RawAttribute, 0, count)
	for i := uint16(0); i < count; i++ {
		nameIndex, err := br.u2()
		if err != nil {
			return nil, err
		}
		name, err := pool.GetStr(nameIndex)
		if err != nil {
			return nil, err
		}
		length, err := br.u4()
		if err != nil {
			return nil, err
		}
		payload, err := br.bytes(int(length))
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, RawAttribute{Name: name, Payload: payload})
	}
	return attrs, nil
}

// payloadReader wraps an attribute payload; its byteReader reports a clean
// Malformed error when a structure overruns the payload.
func payloadReader(payload []byte) *byteReader {
	return newByteReader(bytes.NewReader(payload))
}

func attributeError(name string, err error) error {
	return pkgerrors.Wrapf(err, "attribute %s", name)
}

// collectClassAttributes interprets a class-level attribute table.
func collectClassAttributes(c *Class, attrs []RawAttribute, pool *ConstantPool) error {
	for _, attr := range attrs {
		br := payloadReader(attr.Payload)
		var err error
		switch attr.Name {
		case attrSourceFile:
			c.SourceFile, err = readStrIndex(br, pool)
		case attrSignature:
			c.Signature, err = readStrIndex(br, pool)
		case attrSourceDebugExtension:
			c.SourceDebugExtension = attr.Payload
		case attrSynthetic:
			c.IsSynthetic = true
		case attrDeprecated:
			c.IsDeprecated = true
		case attrInnerClasses:
			c.InnerClasses, err = readInnerClasses(br, pool)
		case attrEnclosingMethod:
			c.EnclosingMethod, err = readEnclosingMethod(br, pool)
		case attrBootstrapMethods:
			c.BootstrapMethods, err = readBootstrapMethods(br, pool)
		case attrNestHost:
			var host jvm.ClassRef
			if host, err = readClassIndex(br, pool); err == nil {
				c.NestHost = &host
			}
		case attrNestMembers:
			c.NestMembers, err = readClassList(br, pool)
		case attrPermittedSubclasses:
			c.PermittedSubclasses, err = readClassList(br, pool)
		case attrModuleMainClass:
			var main jvm.ClassRef
			if main, err = readClassIndex(br, pool); err == nil {
				c.ModuleMainClass = &main
			}
		case attrModulePackages:
			c.ModulePackages, err = readPackageList(br, pool)
		case attrModule:
			c.ModuleRaw = attr.Payload
		case attrRecord:
			c.RecordRaw = attr.Payload
		case attrRuntimeVisibleAnnotations:
			c.Annotations.RuntimeVisible = attr.Payload
		case attrRuntimeInvisibleAnnotations:
			c.Annotations.RuntimeInvisible = attr.Payload
		case attrRuntimeVisibleTypeAnnotations:
			c.Annotations.RuntimeVisibleType = attr.Payload
		case attrRuntimeInvisibleTypeAnnotations:
			c.Annotations.RuntimeInvisibleType = attr.Payload
		default:
			c.FreeAttributes = append(c.FreeAttributes, attr)
		}
		if err != nil {
			return attributeError(attr.Name, err)
		}
	}
	return nil
}

// collectFieldAttributes interprets a field-level attribute table.
func collectFieldAttributes(f *Field, attrs []RawAttribute, pool *ConstantPool) error {
	for _, attr := range attrs {
		br := payloadReader(attr.Payload)
		var err error
		switch attr.Name {
		case attrConstantValue:
			var index uint16
			if index, err = br.u2(); err == nil {
				f.ConstantValue, err = pool.GetConstantValue(index)
			}
		case attrSignature:
			f.Signature, err = readStrIndex(br, pool)
		case attrSynthetic:
			f.IsSynthetic = true
		case attrDeprecated:
			f.IsDeprecated = true
		case attrRuntimeVisibleAnnotations:
			f.Annotations.RuntimeVisible = attr.Payload
		case attrRuntimeInvisibleAnnotations:
			f.Annotations.RuntimeInvisible = attr.Payload
		case attrRuntimeVisibleTypeAnnotations:
			f.Annotations.RuntimeVisibleType = attr.Payload
		case attrRuntimeInvisibleTypeAnnotations:
			f.Annotations.RuntimeInvisibleType = attr.Payload
		default:
			f.FreeAttributes = append(f.FreeAttributes, attr)
		}
		if err != nil {
			return attributeError(attr.Name, err)
		}
	}
	return nil
}

// collectMethodAttributes interprets a method-level attribute table.
func collectMethodAttributes(m *Method, attrs []RawAttribute, pool *ConstantPool) error {
	for _, attr := range attrs {
		br := payloadReader(attr.Payload)
		var err error
		switch attr.Name {
		case attrCode:
			m.Body, err = readCode(br, pool)
		case attrExceptions:
			m.Exceptions, err = readClassList(br, pool)
		case attrMethodParameters:
			m.Parameters, err = readMethodParameters(br, pool)
		case attrSignature:
			m.Signature, err = readStrIndex(br, pool)
		case attrSynthetic:
			m.IsSynthetic = true
		case attrDeprecated:
			m.IsDeprecated = true
		case attrRuntimeVisibleAnnotations:
			m.Annotations.RuntimeVisible = attr.Payload
		case attrRuntimeInvisibleAnnotations:
			m.Annotations.RuntimeInvisible = attr.Payload
		case attrRuntimeVisibleTypeAnnotations:
			m.Annotations.RuntimeVisibleType = attr.Payload
		case attrRuntimeInvisibleTypeAnnotations:
			m.Annotations.RuntimeInvisibleType = attr.Payload
		case attrRuntimeVisibleParameterAnnotations:
			m.Annotations.RuntimeVisibleParameter = attr.Payload
		case attrRuntimeInvisibleParameterAnnotations:
			m.Annotations.RuntimeInvisibleParameter = attr.Payload
		case attrAnnotationDefault:
			m.Annotations.AnnotationDefault = attr.Payload
		default:
			m.FreeAttributes = append(m.FreeAttributes, attr)
		}
		if err != nil {
			return attributeError(attr.Name, err)
		}
	}
	return nil
}

// readCode parses a Code attribute payload, re-parsing the embedded code
// bytes as instructions.
func readCode(br *byteReader, pool *ConstantPool) (*MethodBody, error) {
	body := &MethodBody{}
	var err error
	if body.MaxStack, err = br.u2(); err != nil {
		return nil, err
	}
	if body.MaxLocals, err = br.u2(); err != nil {
		return nil, err
	}
	codeLen, err := br.u4()
	if err != nil {
		return nil, err
	}
	code, err := br.bytes(int(codeLen))
	if err != nil {
		return nil, err
	}
	if body.Instructions, err = parseCode(code, pool); err != nil {
		return nil, err
	}
	exceptCount, err := br.u2()
	if err != nil {
		return nil, err
	}
	body.ExceptionTable = make([]ExceptionTableEntry, 0, exceptCount)
	for i := uint16(0); i < exceptCount; i++ {
		entry, err := readExceptionTableEntry(br, pool)
		if err != nil {
			return nil, err
		}
		body.ExceptionTable = append(body.ExceptionTable, entry)
	}
	attrs, err := readRawAttributes(br, pool)
	if err != nil {
		return nil, err
	}
	if err := collectCodeAttributes(body, attrs, pool); err != nil {
		return nil, err
	}
	return body, nil
}

func readExceptionTableEntry(br *byteReader, pool *ConstantPool) (ExceptionTableEntry, error) {
	var entry ExceptionTableEntry
	start, err := br.u2()
	if err != nil {
		return entry, err
	}
	end, err := br.u2()
	if err != nil {
		return entry, err
	}
	handler, err := br.u2()
	if err != nil {
		return entry, err
	}
	catchIndex, err := br.u2()
	if err != nil {
		return entry, err
	}
	entry.StartPC = jvm.ProgramCounter(start)
	entry.EndPC = jvm.ProgramCounter(end)
	entry.HandlerPC = jvm.ProgramCounter(handler)
	if catchIndex != 0 {
		caught, err := pool.GetClassRef(catchIndex)
		if err != nil {
			return entry, err
		}
		entry.CatchType = &caught
	}
	return entry, nil
}

// collectCodeAttributes interprets the attribute table nested in a Code
// attribute.
func collectCodeAttributes(body *MethodBody, attrs []RawAttribute, pool *ConstantPool) error {
	for _, attr := range attrs {
		br := payloadReader(attr.Payload)
		var err error
		switch attr.Name {
		case attrLineNumberTable:
			var table []LineNumberEntry
			if table, err = readLineNumberTable(br); err == nil {
				body.LineNumbers = append(body.LineNumbers, table...)
			}
		case attrLocalVariableTable:
			var table []LocalVariableEntry
			if table, err = readLocalVariableTable(br, pool); err == nil {
				body.LocalVariables = append(body.LocalVariables, table...)
			}
		case attrLocalVariableTypeTable:
			var table []LocalVariableTypeEntry
			if table, err = readLocalVariableTypeTable(br, pool); err == nil {
				body.LocalVariableTypes = append(body.LocalVariableTypes, table...)
			}
		case attrStackMapTable:
			body.StackMapTable, err = readStackMapTable(br, pool)
		default:
			body.FreeAttributes = append(body.FreeAttributes, attr)
		}
		if err != nil {
			return attributeError(attr.Name, err)
		}
	}
	return nil
}

func readStrIndex(br *byteReader, pool *ConstantPool) (string, error) {
	index, err := br.u2()
	if err != nil {
		return "", err
	}
	return pool.GetStr(index)
}

func readClassIndex(br *byteReader, pool *ConstantPool) (jvm.ClassRef, error) {
	index, err := br.u2()
	if err != nil {
		return jvm.ClassRef{}, err
	}
	return pool.GetClassRef(index)
}

func readClassList(br *byteReader, pool *ConstantPool) ([]jvm.ClassRef, error) {
	count, err := br.u2()
	if err != nil {
		return nil, err
	}
	refs := make([]jvm.ClassRef, 0, count)
	for i := uint16(0); i < count; i++ {
		ref, err := readClassIndex(br, pool)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func readPackageList(br *byteReader, pool *ConstantPool) ([]jvm.PackageRef, error) {
	count, err := br.u2()
	if err != nil {
		return nil, err
	}
	refs := make([]jvm.PackageRef, 0, count)
	for i := uint16(0); i < count; i++ {
		index, err := br.u2()
		if err != nil {
			return nil, err
		}
		ref, err := pool.GetPackageRef(index)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func readInnerClasses(br *byteReader, pool *ConstantPool) ([]InnerClassInfo, error) {
	count, err := br.u2()
	if err != nil {
		return nil, err
	}
	infos := make([]InnerClassInfo, 0, count)
	for i := uint16(0); i < count; i++ {
		var info InnerClassInfo
		innerIndex, err := br.u2()
		if err != nil {
			return nil, err
		}
		if info.InnerClass, err = pool.GetClassRef(innerIndex); err != nil {
			return nil, err
		}
		outerIndex, err := br.u2()
		if err != nil {
			return nil, err
		}
		if outerIndex != 0 {
			outer, err := pool.GetClassRef(outerIndex)
			if err != nil {
				return nil, err
			}
			info.OuterClass = &outer
		}
		nameIndex, err := br.u2()
		if err != nil {
			return nil, err
		}
		if nameIndex != 0 {
			if info.InnerName, err = pool.GetStr(nameIndex); err != nil {
				return nil, err
			}
		}
		bits, err := br.u2()
		if err != nil {
			return nil, err
		}
		if info.AccessFlags, err = jvm.ParseNestedClassAccessFlags(bits); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func readEnclosingMethod(br *byteReader, pool *ConstantPool) (*EnclosingMethod, error) {
	classIndex, err := br.u2()
	if err != nil {
		return nil, err
	}
	enclosing := &EnclosingMethod{}
	if enclosing.Class, err = pool.GetClassRef(classIndex); err != nil {
		return nil, err
	}
	ntIndex, err := br.u2()
	if err != nil {
		return nil, err
	}
	if ntIndex != 0 {
		name, descriptor, err := pool.GetNameAndTypeMethod(ntIndex)
		if err != nil {
			return nil, err
		}
		enclosing.MethodName = name
		enclosing.MethodDescriptor = &descriptor
	}
	return enclosing, nil
}

func readBootstrapMethods(br *byteReader, pool *ConstantPool) ([]BootstrapMethod, error) {
	count, err := br.u2()
	if err != nil {
		return nil, err
	}
	methods := make([]BootstrapMethod, 0, count)
	for i := uint16(0); i < count; i++ {
		handleIndex, err := br.u2()
		if err != nil {
			return nil, err
		}
		handle, err := pool.GetMethodHandle(handleIndex)
		if err != nil {
			return nil, err
		}
		argc, err := br.u2()
		if err != nil {
			return nil, err
		}
		args := make([]jvm.ConstantValue, 0, argc)
		for j := uint16(0); j < argc; j++ {
			argIndex, err := br.u2()
			if err != nil {
				return nil, err
			}
			arg, err := pool.GetConstantValue(argIndex)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		methods = append(methods, BootstrapMethod{Method: handle, Arguments: args})
	}
	return methods, nil
}

func readMethodParameters(br *byteReader, pool *ConstantPool) ([]MethodParameter, error) {
	count, err := br.u1()
	if err != nil {
		return nil, err
	}
	params := make([]MethodParameter, 0, count)
	for i := uint8(0); i < count; i++ {
		var param MethodParameter
		nameIndex, err := br.u2()
		if err != nil {
			return nil, err
		}
		if nameIndex != 0 {
			if param.Name, err = pool.GetStr(nameIndex); err != nil {
				return nil, err
			}
		}
		if param.AccessFlags, err = br.u2(); err != nil {
			return nil, err
		}
		params = append(params, param)
	}
	return params, nil
}

func readLineNumberTable(br *byteReader) ([]LineNumberEntry, error) {
	count, err := br.u2()
	if err != nil {
		return nil, err
	}
	table := make([]LineNumberEntry, 0, count)
	for i := uint16(0); i < count; i++ {
		start, err := br.u2()
		if err != nil {
			return nil, err
		}
		line, err := br.u2()
		if err != nil {
			return nil, err
		}
		table = append(table, LineNumberEntry{StartPC: jvm.ProgramCounter(start), Line: line})
	}
	return table, nil
}

func readLocalVariableTable(br *byteReader, pool *ConstantPool) ([]LocalVariableEntry, error) {
	count, err := br.u2()
	if err != nil {
		return nil, err
	}
	table := make([]LocalVariableEntry, 0, count)
	for i := uint16(0); i < count; i++ {
		var entry LocalVariableEntry
		start, err := br.u2()
		if err != nil {
			return nil, err
		}
		entry.StartPC = jvm.ProgramCounter(start)
		if entry.Length, err = br.u2(); err != nil {
			return nil, err
		}
		if entry.Name, err = readStrIndex(br, pool); err != nil {
			return nil, err
		}
		desc, err := readStrIndex(br, pool)
		if err != nil {
			return nil, err
		}
		if entry.Type, err = jvm.ParseFieldType(desc); err != nil {
			return nil, err
		}
		if entry.Index, err = br.u2(); err != nil {
			return nil, err
		}
		table = append(table, entry)
	}
	return table, nil
}

func readLocalVariableTypeTable(br *byteReader, pool *ConstantPool) ([]LocalVariableTypeEntry, error) {
	count, err := br.u2()
	if err != nil {
		return nil, err
	}
	table := make([]LocalVariableTypeEntry, 0, count)
	for i := uint16(0); i < count; i++ {
		var entry LocalVariableTypeEntry
		start, err := br.u2()
		if err != nil {
			return nil, err
		}
		entry.StartPC = jvm.ProgramCounter(start)
		if entry.Length, err = br.u2(); err != nil {
			return nil, err
		}
		if entry.Name, err = readStrIndex(br, pool); err != nil {
			return nil, err
		}
		if entry.Signature, err = readStrIndex(br, pool); err != nil {
			return nil, err
		}
		if entry.Index, err = br.u2(); err != nil {
			return nil, err
		}
		table = append(table, entry)
	}
	return table, nil
}

func readStackMapTable(br *byteReader, pool *ConstantPool) ([]StackMapFrame, error) {
	count, err := br.u2()
	if err != nil {
		return nil, err
	}
	frames := make([]StackMapFrame, 0, count)
	for i := uint16(0); i < count; i++ {
		frame, err := readStackMapFrame(br, pool)
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

func readStackMapFrame(br *byteReader, pool *ConstantPool) (StackMapFrame, error) {
	frameType, err := br.u1()
	if err != nil {
		return StackMapFrame{}, err
	}
	frame := StackMapFrame{FrameType: frameType}
	switch {
	case frameType <= 63:
		// same_frame
	case frameType <= 127:
		stack, err := readVerificationType(br, pool)
		if err != nil {
			return frame, err
		}
		frame.Stack = []VerificationType{stack}
	case frameType <= 246:
		return frame, errors.Newf(errors.Malformed, "stack map frame type %d is reserved", frameType)
	case frameType == 247:
		if frame.OffsetDelta, err = br.u2(); err != nil {
			return frame, err
		}
		stack, err := readVerificationType(br, pool)
		if err != nil {
			return frame, err
		}
		frame.Stack = []VerificationType{stack}
	case frameType <= 251:
		// chop_frame and same_frame_extended
		if frame.OffsetDelta, err = br.u2(); err != nil {
			return frame, err
		}
	case frameType <= 254:
		if frame.OffsetDelta, err = br.u2(); err != nil {
			return frame, err
		}
		locals := int(frameType) - 251
		for j := 0; j < locals; j++ {
			local, err := readVerificationType(br, pool)
			if err != nil {
				return frame, err
			}
			frame.Locals = append(frame.Locals, local)
		}
	default: // 255, full_frame
		if frame.OffsetDelta, err = br.u2(); err != nil {
			return frame, err
		}
		localCount, err := br.u2()
		if err != nil {
			return frame, err
		}
		for j := uint16(0); j < localCount; j++ {
			local, err := readVerificationType(br, pool)
			if err != nil {
				return frame, err
			}
			frame.Locals = append(frame.Locals, local)
		}
		stackCount, err := br.u2()
		if err != nil {
			return frame, err
		}
		for j := uint16(0); j < stackCount; j++ {
			entry, err := readVerificationType(br, pool)
			if err != nil {
				return frame, err
			}
			frame.Stack = append(frame.Stack, entry)
		}
	}
	return frame, nil
}

func readVerificationType(br *byteReader, pool *ConstantPool) (VerificationType, error) {
	tag, err := br.u1()
	if err != nil {
		return VerificationType{}, err
	}
	vt := VerificationType{Tag: tag}
	switch tag {
	case VerificationTop, VerificationInteger, VerificationFloat,
		VerificationDouble, VerificationLong, VerificationNull,
		VerificationUninitializedThis:
	case VerificationObject:
		index, err := br.u2()
		if err != nil {
			return vt, err
		}
		ref, err := pool.GetClassRef(index)
		if err != nil {
			return vt, err
		}
		vt.Class = &ref
	case VerificationUninitialized:
		if vt.Offset, err = br.u2(); err != nil {
			return vt, err
		}
	default:
		return vt, errors.Newf(errors.Malformed, "unknown verification type tag %d", tag)
	}
	return vt, nil
}
