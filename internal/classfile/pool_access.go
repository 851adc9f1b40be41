// internal/classfile/pool_access.go
//
// Typed constant-pool accessors and the symmetric deduplicating builders.
package classfile

import (
	"klasse/internal/errors"
	"klasse/internal/jvm"
)

// GetUtf8 returns the string entry at the index, preserved bytes included.
func (p *ConstantPool) GetUtf8(index uint16) (jvm.JavaString, error) {
	entry, err := p.GetEntry(index)
	if err != nil {
		return jvm.JavaString{}, err
	}
	if entry.Tag != TagUtf8 {
		return jvm.JavaString{}, p.mismatch("Utf8", entry)
	}
	return entry.Utf8, nil
}

// GetStr returns the string entry at the index, requiring lossless UTF-8.
func (p *ConstantPool) GetStr(index uint16) (string, error) {
	js, err := p.GetUtf8(index)
	if err != nil {
		return "", err
	}
	s, ok := js.Str()
	if !ok {
		return "", errors.Newf(errors.Malformed, "broken UTF-8 in constant pool entry %d", index)
	}
	return s, nil
}

// PutStr inserts a Utf8 entry for the string.
func (p *ConstantPool) PutStr(value string) (uint16, error) {
	index, _, err := p.PutEntryDedup(PoolEntry{Tag: TagUtf8, Utf8: jvm.NewJavaString(value)})
	return index, err
}

// PutUtf8 inserts a Utf8 entry, preserved bytes included.
func (p *ConstantPool) PutUtf8(value jvm.JavaString) (uint16, error) {
	index, _, err := p.PutEntryDedup(PoolEntry{Tag: TagUtf8, Utf8: value})
	return index, err
}

// GetClassRef resolves a Class entry to a class reference.
func (p *ConstantPool) GetClassRef(index uint16) (jvm.ClassRef, error) {
	entry, err := p.GetEntry(index)
	if err != nil {
		return jvm.ClassRef{}, err
	}
	if entry.Tag != TagClass {
		return jvm.ClassRef{}, p.mismatch("Class", entry)
	}
	name, err := p.GetStr(entry.NameIndex)
	if err != nil {
		return jvm.ClassRef{}, err
	}
	return jvm.ClassRef{BinaryName: name}, nil
}

// PutClassRef inserts a Class entry (and its name).
func (p *ConstantPool) PutClassRef(ref jvm.ClassRef) (uint16, error) {
	nameIndex, err := p.PutStr(ref.BinaryName)
	if err != nil {
		return 0, err
	}
	index, _, err := p.PutEntryDedup(PoolEntry{Tag: TagClass, NameIndex: nameIndex})
	return index, err
}

// GetNameAndTypeField resolves a NameAndType entry whose descriptor is a
// field descriptor.
func (p *ConstantPool) GetNameAndTypeField(index uint16) (string, jvm.FieldType, error) {
	name, desc, err := p.getNameAndType(index)
	if err != nil {
		return "", nil, err
	}
	fieldType, err := jvm.ParseFieldType(desc)
	if err != nil {
		return "", nil, err
	}
	return name, fieldType, nil
}

// GetNameAndTypeMethod resolves a NameAndType entry whose descriptor is a
// method descriptor.
func (p *ConstantPool) GetNameAndTypeMethod(index uint16) (string, jvm.MethodDescriptor, error) {
	name, desc, err := p.getNameAndType(index)
	if err != nil {
		return "", jvm.MethodDescriptor{}, err
	}
	descriptor, err := jvm.ParseMethodDescriptor(desc)
	if err != nil {
		return "", jvm.MethodDescriptor{}, err
	}
	return name, descriptor, nil
}

func (p *ConstantPool) getNameAndType(index uint16) (string, string, error) {
	entry, err := p.GetEntry(index)
	if err != nil {
		return "", "", err
	}
	if entry.Tag != TagNameAndType {
		return "", "", p.mismatch("NameAndType", entry)
	}
	name, err := p.GetStr(entry.NameIndex)
	if err != nil {
		return "", "", err
	}
	desc, err := p.GetStr(entry.DescriptorIndex)
	if err != nil {
		return "", "", err
	}
	return name, desc, nil
}

// PutNameAndType inserts a NameAndType entry for a name and descriptor
// string.
func (p *ConstantPool) PutNameAndType(name, descriptor string) (uint16, error) {
	nameIndex, err := p.PutStr(name)
	if err != nil {
		return 0, err
	}
	descIndex, err := p.PutStr(descriptor)
	if err != nil {
		return 0, err
	}
	index, _, err := p.PutEntryDedup(PoolEntry{
		Tag:             TagNameAndType,
		NameIndex:       nameIndex,
		DescriptorIndex: descIndex,
	})
	return index, err
}

// GetFieldRef resolves a FieldRef entry.
func (p *ConstantPool) GetFieldRef(index uint16) (jvm.FieldRef, error) {
	entry, err := p.GetEntry(index)
	if err != nil {
		return jvm.FieldRef{}, err
	}
	if entry.Tag != TagFieldRef {
		return jvm.FieldRef{}, p.mismatch("FieldRef", entry)
	}
	owner, err := p.GetClassRef(entry.ClassIndex)
	if err != nil {
		return jvm.FieldRef{}, err
	}
	name, fieldType, err := p.GetNameAndTypeField(entry.NameAndTypeIndex)
	if err != nil {
		return jvm.FieldRef{}, err
	}
	return jvm.FieldRef{Owner: owner, Name: name, Type: fieldType}, nil
}

// PutFieldRef inserts a FieldRef entry.
func (p *ConstantPool) PutFieldRef(ref jvm.FieldRef) (uint16, error) {
	classIndex, err := p.PutClassRef(ref.Owner)
	if err != nil {
		return 0, err
	}
	ntIndex, err := p.PutNameAndType(ref.Name, ref.Type.Descriptor())
	if err != nil {
		return 0, err
	}
	index, _, err := p.PutEntryDedup(PoolEntry{
		Tag:              TagFieldRef,
		ClassIndex:       classIndex,
		NameAndTypeIndex: ntIndex,
	})
	return index, err
}

// GetMethodRef resolves a MethodRef or InterfaceMethodRef entry.
func (p *ConstantPool) GetMethodRef(index uint16) (jvm.MethodRef, error) {
	entry, err := p.GetEntry(index)
	if err != nil {
		return jvm.MethodRef{}, err
	}
	if entry.Tag != TagMethodRef && entry.Tag != TagInterfaceMethodRef {
		return jvm.MethodRef{}, p.mismatch("MethodRef | InterfaceMethodRef", entry)
	}
	owner, err := p.GetClassRef(entry.ClassIndex)
	if err != nil {
		return jvm.MethodRef{}, err
	}
	name, descriptor, err := p.GetNameAndTypeMethod(entry.NameAndTypeIndex)
	if err != nil {
		return jvm.MethodRef{}, err
	}
	return jvm.MethodRef{Owner: owner, Name: name, Descriptor: descriptor}, nil
}

// PutMethodRef inserts a MethodRef entry; interface selects the
// InterfaceMethodRef tag instead.
func (p *ConstantPool) PutMethodRef(ref jvm.MethodRef, isInterface bool) (uint16, error) {
	classIndex, err := p.PutClassRef(ref.Owner)
	if err != nil {
		return 0, err
	}
	ntIndex, err := p.PutNameAndType(ref.Name, ref.Descriptor.Descriptor())
	if err != nil {
		return 0, err
	}
	tag := TagMethodRef
	if isInterface {
		tag = TagInterfaceMethodRef
	}
	index, _, err := p.PutEntryDedup(PoolEntry{
		Tag:              tag,
		ClassIndex:       classIndex,
		NameAndTypeIndex: ntIndex,
	})
	return index, err
}

// GetMethodHandle resolves a MethodHandle entry, validating its kind.
func (p *ConstantPool) GetMethodHandle(index uint16) (jvm.MethodHandle, error) {
	entry, err := p.GetEntry(index)
	if err != nil {
		return jvm.MethodHandle{}, err
	}
	if entry.Tag != TagMethodHandle {
		return jvm.MethodHandle{}, p.mismatch("MethodHandle", entry)
	}
	kind := jvm.MethodHandleKind(entry.ReferenceKind)
	if !kind.Valid() {
		return jvm.MethodHandle{}, errors.Newf(errors.Malformed,
			"invalid reference kind %d in method handle", entry.ReferenceKind)
	}
	handle := jvm.MethodHandle{Kind: kind}
	if kind.IsFieldKind() {
		handle.Field, err = p.GetFieldRef(entry.ReferenceIndex)
	} else {
		handle.Method, err = p.GetMethodRef(entry.ReferenceIndex)
	}
	if err != nil {
		return jvm.MethodHandle{}, err
	}
	return handle, nil
}

// PutMethodHandle inserts a MethodHandle entry.
func (p *ConstantPool) PutMethodHandle(handle jvm.MethodHandle) (uint16, error) {
	var refIndex uint16
	var err error
	if handle.Kind.IsFieldKind() {
		refIndex, err = p.PutFieldRef(handle.Field)
	} else {
		refIndex, err = p.PutMethodRef(handle.Method, handle.Kind == jvm.RefInvokeInterface)
	}
	if err != nil {
		return 0, err
	}
	index, _, err := p.PutEntryDedup(PoolEntry{
		Tag:            TagMethodHandle,
		ReferenceKind:  uint8(handle.Kind),
		ReferenceIndex: refIndex,
	})
	return index, err
}

// GetTypeRef resolves a Class entry into a field type: names starting with
// '[' are array descriptors, anything else is a binary object name.
func (p *ConstantPool) GetTypeRef(index uint16) (jvm.FieldType, error) {
	ref, err := p.GetClassRef(index)
	if err != nil {
		return nil, err
	}
	if len(ref.BinaryName) > 0 && ref.BinaryName[0] == '[' {
		return jvm.ParseFieldType(ref.BinaryName)
	}
	return jvm.ObjectType{Class: ref}, nil
}

// PutTypeRef inserts a Class entry for an object or array type.
func (p *ConstantPool) PutTypeRef(fieldType jvm.FieldType) (uint16, error) {
	switch t := fieldType.(type) {
	case jvm.ObjectType:
		return p.PutClassRef(t.Class)
	case jvm.ArrayType:
		return p.PutClassRef(jvm.ClassRef{BinaryName: t.Descriptor()})
	default:
		return 0, errors.New(errors.Malformed, "primitive type cannot be a class reference")
	}
}

// GetModuleRef resolves a Module entry.
func (p *ConstantPool) GetModuleRef(index uint16) (jvm.ModuleRef, error) {
	entry, err := p.GetEntry(index)
	if err != nil {
		return jvm.ModuleRef{}, err
	}
	if entry.Tag != TagModule {
		return jvm.ModuleRef{}, p.mismatch("Module", entry)
	}
	name, err := p.GetStr(entry.NameIndex)
	if err != nil {
		return jvm.ModuleRef{}, err
	}
	return jvm.ModuleRef{Name: name}, nil
}

// PutModuleRef inserts a Module entry.
func (p *ConstantPool) PutModuleRef(ref jvm.ModuleRef) (uint16, error) {
	nameIndex, err := p.PutStr(ref.Name)
	if err != nil {
		return 0, err
	}
	index, _, err := p.PutEntryDedup(PoolEntry{Tag: TagModule, NameIndex: nameIndex})
	return index, err
}

// GetPackageRef resolves a Package entry.
func (p *ConstantPool) GetPackageRef(index uint16) (jvm.PackageRef, error) {
	entry, err := p.GetEntry(index)
	if err != nil {
		return jvm.PackageRef{}, err
	}
	if entry.Tag != TagPackage {
		return jvm.PackageRef{}, p.mismatch("Package", entry)
	}
	name, err := p.GetStr(entry.NameIndex)
	if err != nil {
		return jvm.PackageRef{}, err
	}
	return jvm.PackageRef{BinaryName: name}, nil
}

// PutPackageRef inserts a Package entry.
func (p *ConstantPool) PutPackageRef(ref jvm.PackageRef) (uint16, error) {
	nameIndex, err := p.PutStr(ref.BinaryName)
	if err != nil {
		return 0, err
	}
	index, _, err := p.PutEntryDedup(PoolEntry{Tag: TagPackage, NameIndex: nameIndex})
	return index, err
}

// GetConstantValue resolves a loadable constant entry.
func (p *ConstantPool) GetConstantValue(index uint16) (jvm.ConstantValue, error) {
	entry, err := p.GetEntry(index)
	if err != nil {
		return nil, err
	}
	switch entry.Tag {
	case TagInteger:
		return jvm.IntConst{Value: entry.Int}, nil
	case TagLong:
		return jvm.LongConst{Value: entry.Long}, nil
	case TagFloat:
		return jvm.FloatConst{Value: entry.Float}, nil
	case TagDouble:
		return jvm.DoubleConst{Value: entry.Double}, nil
	case TagString:
		str, err := p.GetUtf8(entry.StringIndex)
		if err != nil {
			return nil, err
		}
		return jvm.StringConst{Value: str}, nil
	case TagClass:
		fieldType, err := p.GetTypeRef(index)
		if err != nil {
			return nil, err
		}
		return jvm.ClassConst{Type: fieldType}, nil
	case TagMethodType:
		desc, err := p.GetStr(entry.DescriptorIndex)
		if err != nil {
			return nil, err
		}
		descriptor, err := jvm.ParseMethodDescriptor(desc)
		if err != nil {
			return nil, err
		}
		return jvm.MethodTypeConst{Descriptor: descriptor}, nil
	case TagMethodHandle:
		handle, err := p.GetMethodHandle(index)
		if err != nil {
			return nil, err
		}
		return jvm.HandleConst{Handle: handle}, nil
	case TagDynamic:
		name, fieldType, err := p.GetNameAndTypeField(entry.NameAndTypeIndex)
		if err != nil {
			return nil, err
		}
		return jvm.DynamicConst{
			BootstrapIndex: entry.BootstrapIndex,
			Name:           name,
			Type:           fieldType,
		}, nil
	default:
		return nil, p.mismatch(
			"Integer | Long | Float | Double | String | MethodType | Class | MethodHandle | Dynamic",
			entry)
	}
}

// PutConstantValue inserts a loadable constant.
func (p *ConstantPool) PutConstantValue(value jvm.ConstantValue) (uint16, error) {
	switch v := value.(type) {
	case jvm.IntConst:
		index, _, err := p.PutEntryDedup(PoolEntry{Tag: TagInteger, Int: v.Value})
		return index, err
	case jvm.LongConst:
		index, _, err := p.PutEntryDedup(PoolEntry{Tag: TagLong, Long: v.Value})
		return index, err
	case jvm.FloatConst:
		index, _, err := p.PutEntryDedup(PoolEntry{Tag: TagFloat, Float: v.Value})
		return index, err
	case jvm.DoubleConst:
		index, _, err := p.PutEntryDedup(PoolEntry{Tag: TagDouble, Double: v.Value})
		return index, err
	case jvm.StringConst:
		strIndex, err := p.PutUtf8(v.Value)
		if err != nil {
			return 0, err
		}
		index, _, err := p.PutEntryDedup(PoolEntry{Tag: TagString, StringIndex: strIndex})
		return index, err
	case jvm.ClassConst:
		return p.PutTypeRef(v.Type)
	case jvm.HandleConst:
		return p.PutMethodHandle(v.Handle)
	case jvm.MethodTypeConst:
		descIndex, err := p.PutStr(v.Descriptor.Descriptor())
		if err != nil {
			return 0, err
		}
		index, _, err := p.PutEntryDedup(PoolEntry{Tag: TagMethodType, DescriptorIndex: descIndex})
		return index, err
	case jvm.DynamicConst:
		ntIndex, err := p.PutNameAndType(v.Name, v.Type.Descriptor())
		if err != nil {
			return 0, err
		}
		index, _, err := p.PutEntryDedup(PoolEntry{
			Tag:              TagDynamic,
			BootstrapIndex:   v.BootstrapIndex,
			NameAndTypeIndex: ntIndex,
		})
		return index, err
	case jvm.NullConst:
		return 0, errors.New(errors.Malformed, "null cannot be stored in the constant pool")
	default:
		return 0, errors.New(errors.Malformed, "unsupported constant value")
	}
}
